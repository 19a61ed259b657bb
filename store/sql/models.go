package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type attemptRecord struct {
	bun.BaseModel `bun:"table:llmconn_rpc_attempts,alias:lra"`

	ID           string    `bun:"id,pk"`
	InvocationID string    `bun:"invocation_id,notnull"`
	ProjectID    string    `bun:"project_id,notnull"`
	Procedure    string    `bun:"procedure,notnull"`
	Format       string    `bun:"format,notnull"`
	Method       string    `bun:"method,notnull"`
	Attempt      int       `bun:"attempt,notnull"`
	StatusCode   int       `bun:"status_code,notnull"`
	Outcome      string    `bun:"outcome,notnull"`
	Message      string    `bun:"message,notnull"`
	DurationMS   int64     `bun:"duration_ms,notnull"`
	StartedAt    time.Time `bun:"started_at,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
