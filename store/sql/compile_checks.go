package sqlstore

import "github.com/goliatone/go-llm-connections/core"

var (
	_ core.AttemptRecorder = (*AttemptStore)(nil)
	_ core.AttemptReader   = (*AttemptStore)(nil)
)
