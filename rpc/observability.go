package rpc

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-llm-connections/core"
)

func (i *Invoker) log(ctx context.Context, level string, message string, fields map[string]any) {
	if i == nil || i.logger == nil {
		return
	}
	logger := i.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	safe := core.RedactSensitiveMap(fields)
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(safe)
	}
	args := core.FlattenFields(safe)
	switch strings.ToLower(level) {
	case "error":
		logger.Error(message, args...)
	case "warn":
		logger.Warn(message, args...)
	case "debug":
		logger.Debug(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func richError(err error) (*goerrors.Error, bool) {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich, true
	}
	return nil, false
}

// AttemptFormats lists the formats tried by a failed negotiation, in order.
func AttemptFormats(err error) []string {
	attempts := Attempts(err)
	out := make([]string, 0, len(attempts))
	for _, attempt := range attempts {
		if format, ok := attempt["format"].(string); ok {
			out = append(out, format)
		}
	}
	return out
}
