package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorConfiguration = "LLMCONN_CONFIGURATION"
	ErrorTransport     = "LLMCONN_TRANSPORT"
	ErrorProtocol      = "LLMCONN_PROTOCOL"
	ErrorExhausted     = "LLMCONN_EXHAUSTED"
	ErrorUpsertFailed  = "LLMCONN_UPSERT_FAILED"
	ErrorCanceled      = "LLMCONN_CANCELED"
	ErrorInternal      = "LLMCONN_INTERNAL"
)

// StatusClientClosedRequest is reported when the caller cancels a call.
const StatusClientClosedRequest = 499

// ConfigurationError reports missing required input. It is returned before
// any network call is made.
func ConfigurationError(field string, message string) *goerrors.Error {
	return goerrors.NewValidation(message, goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorConfiguration).
		WithSeverity(goerrors.SeverityError)
}

func TransportError(source error, message string, metadata map[string]any) *goerrors.Error {
	var err *goerrors.Error
	if source == nil {
		err = goerrors.New(message, goerrors.CategoryExternal)
	} else {
		err = goerrors.Wrap(source, goerrors.CategoryExternal, message)
	}
	err = err.WithCode(http.StatusBadGateway).WithTextCode(ErrorTransport)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func ProtocolError(message string, status int, metadata map[string]any) *goerrors.Error {
	if status <= 0 {
		status = http.StatusBadGateway
	}
	err := goerrors.New(message, goerrors.CategoryExternal).
		WithCode(status).
		WithTextCode(ErrorProtocol)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func ExhaustedError(message string, status int, metadata map[string]any) *goerrors.Error {
	if status <= 0 {
		status = http.StatusBadGateway
	}
	err := goerrors.New(message, goerrors.CategoryExternal).
		WithCode(status).
		WithTextCode(ErrorExhausted)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func CanceledError(source error, message string, metadata map[string]any) *goerrors.Error {
	var err *goerrors.Error
	if source == nil {
		err = goerrors.New(message, goerrors.CategoryOperation)
	} else {
		err = goerrors.Wrap(source, goerrors.CategoryOperation, message)
	}
	err = err.WithCode(StatusClientClosedRequest).WithTextCode(ErrorCanceled)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// UpsertError carries both the create and the update failure. Both stay
// reachable through errors.Is and errors.As.
func UpsertError(createErr error, updateErr error) *goerrors.Error {
	createMessage := ErrorMessage(createErr)
	updateMessage := ErrorMessage(updateErr)
	err := goerrors.New(
		"core: upsert failed:\ncreate: "+createMessage+"\nupdate: "+updateMessage,
		goerrors.CategoryOperation,
	).
		WithCode(http.StatusBadGateway).
		WithTextCode(ErrorUpsertFailed).
		WithMetadata(map[string]any{
			"create_error": createMessage,
			"update_error": updateMessage,
		})
	// goerrors.Wrap would clone the first envelope found in the join.
	err.Source = goerrors.Join(createErr, updateErr)
	return err
}

func InternalError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorInternal)
}

// ErrorTextCode returns the text code of a go-errors envelope, or "" for
// plain errors.
func ErrorTextCode(err error) string {
	if err == nil {
		return ""
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return strings.TrimSpace(rich.TextCode)
	}
	return ""
}

// ErrorMessage prefers the envelope message over Error() so wrapped sources
// are not repeated.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && strings.TrimSpace(rich.Message) != "" {
		return rich.Message
	}
	return err.Error()
}

// ErrorDetail is ErrorMessage followed by the error the envelope wraps, so
// the root cause of a transport failure is kept.
func ErrorDetail(err error) string {
	message := ErrorMessage(err)
	var rich *goerrors.Error
	if err == nil || !goerrors.As(err, &rich) || rich.Source == nil {
		return message
	}
	cause := strings.TrimSpace(rich.Source.Error())
	if cause == "" || strings.Contains(message, cause) {
		return message
	}
	return message + ": " + cause
}

func IsConfigurationError(err error) bool { return ErrorTextCode(err) == ErrorConfiguration }

func IsTransportError(err error) bool { return ErrorTextCode(err) == ErrorTransport }

func IsProtocolError(err error) bool { return ErrorTextCode(err) == ErrorProtocol }

func IsExhaustedError(err error) bool { return ErrorTextCode(err) == ErrorExhausted }

func IsUpsertError(err error) bool { return ErrorTextCode(err) == ErrorUpsertFailed }

func IsCanceledError(err error) bool { return ErrorTextCode(err) == ErrorCanceled }
