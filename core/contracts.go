package core

import (
	"context"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// Scope carries the project scoping identifier for a single call. It is
// always passed explicitly and never cached by the client.
type Scope struct {
	ProjectID string
}

type TransportRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   map[string]string
	// JSON is marshalled as the request body when set; Body is sent verbatim otherwise.
	JSON                 any
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type CredentialSigner interface {
	Sign(ctx context.Context, req *http.Request) error
}

// ProcedureInvoker negotiates the envelope format for a procedure call.
type ProcedureInvoker interface {
	Invoke(ctx context.Context, procedure string, payload map[string]any, scope Scope) (any, error)
	Lookup(ctx context.Context, procedure string, input map[string]any, scope Scope) (any, error)
}

type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, record AttemptRecord) error
}

// ListSnapshotCache holds the per-project connection list used by masked key
// lookups. Mutations through the client invalidate the project entry.
type ListSnapshotCache interface {
	GetOrFetch(ctx context.Context, projectID string, fetch func(ctx context.Context) ([]any, error)) ([]any, error)
	Invalidate(ctx context.Context, projectID string) error
}

type ConnectionService interface {
	Create(ctx context.Context, source InputSource, opts CallOptions) (any, error)
	Update(ctx context.Context, id string, source InputSource, opts CallOptions) (any, error)
	Upsert(ctx context.Context, source InputSource, opts CallOptions) (any, error)
	List(ctx context.Context, opts CallOptions) ([]any, error)
	Delete(ctx context.Context, id string, opts CallOptions) (any, error)
	Test(ctx context.Context, source InputSource, opts CallOptions) (any, error)
	MaskedKey(ctx context.Context, provider string, opts CallOptions) (string, error)
}
