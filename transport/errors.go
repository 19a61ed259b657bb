package transport

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-llm-connections/core"
)

func transportError(
	message string,
	category goerrors.Category,
	code int,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func transportWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	metadata map[string]any,
) error {
	if source == nil {
		return transportError(message, category, code, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// exchangeError classifies a failed exchange. When the caller's context is
// done the failure is reported as canceled; the per-request deadline is a
// transport failure like any other missing response.
func exchangeError(parent context.Context, source error, message string, metadata map[string]any) error {
	if parent.Err() != nil {
		return core.CanceledError(source, message, metadata)
	}
	if errors.Is(source, context.DeadlineExceeded) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["timeout"] = true
	}
	return core.TransportError(source, message, metadata)
}

func transportTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return core.ErrorConfiguration
	case goerrors.CategoryExternal, goerrors.CategoryAuth:
		return core.ErrorTransport
	default:
		return core.ErrorInternal
	}
}
