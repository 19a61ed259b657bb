package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/goliatone/go-llm-connections/core"
)

// charmLogger adapts a charmbracelet logger to core.Logger. Trace maps to
// debug and Fatal logs at error level without exiting.
type charmLogger struct {
	logger *log.Logger
}

func newCharmLogger(out io.Writer) core.Logger {
	logger := log.New(out)
	logger.SetTimeFormat("")
	logger.SetLevel(log.DebugLevel)
	return charmLogger{logger: logger}
}

func (l charmLogger) Trace(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l charmLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l charmLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l charmLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l charmLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l charmLogger) Fatal(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l charmLogger) WithContext(context.Context) core.Logger {
	return l
}
