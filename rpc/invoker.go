package rpc

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-llm-connections/core"
	"github.com/goliatone/go-llm-connections/envelope"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

const (
	HeaderProject   = "x-project"
	HeaderProjectID = "x-project-id"
)

type Config struct {
	BaseURL              string
	RoutePrefix          string
	Timeout              time.Duration
	MaxResponseBodyBytes int64
	Transport            core.TransportAdapter
	Logger               core.Logger
	Metrics              core.MetricsRecorder
	Recorder             core.AttemptRecorder
	// Formats overrides the negotiation order. Empty means envelope.Formats().
	Formats []envelope.Format
}

// Invoker negotiates the envelope format of each call. Formats are tried
// strictly in sequence, one attempt each, and the first 2xx response that
// decodes to a success value wins.
type Invoker struct {
	baseURL              string
	routePrefix          string
	timeout              time.Duration
	maxResponseBodyBytes int64
	transport            core.TransportAdapter
	logger               core.Logger
	metrics              core.MetricsRecorder
	recorder             core.AttemptRecorder
	strategies           []strategy
}

func NewInvoker(cfg Config) (*Invoker, error) {
	if cfg.Transport == nil {
		return nil, core.InternalError("rpc: transport adapter is required")
	}
	routePrefix := strings.TrimSpace(cfg.RoutePrefix)
	if routePrefix == "" {
		routePrefix = core.DefaultRoutePrefix
	}
	formats := cfg.Formats
	if len(formats) == 0 {
		formats = envelope.Formats()
	}
	strategies := make([]strategy, 0, len(formats))
	for _, format := range formats {
		if !format.Valid() {
			return nil, core.InternalError(fmt.Sprintf("rpc: unknown envelope format %q", format))
		}
		strategies = append(strategies, strategy{format: format})
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = core.NopMetricsRecorder{}
	}
	return &Invoker{
		baseURL:              strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		routePrefix:          routePrefix,
		timeout:              cfg.Timeout,
		maxResponseBodyBytes: cfg.MaxResponseBodyBytes,
		transport:            cfg.Transport,
		logger:               glog.Ensure(cfg.Logger),
		metrics:              metrics,
		recorder:             cfg.Recorder,
		strategies:           strategies,
	}, nil
}

// Invoke runs the negotiation loop for procedure. The project id is merged
// into the payload and sent in both project headers.
func (i *Invoker) Invoke(ctx context.Context, procedure string, payload map[string]any, scope core.Scope) (any, error) {
	if i == nil {
		return nil, core.InternalError("rpc: invoker is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	procedure = strings.TrimSpace(procedure)
	if procedure == "" {
		return nil, core.ConfigurationError("procedure", "rpc: procedure is required")
	}
	projectID := strings.TrimSpace(scope.ProjectID)
	if projectID == "" {
		return nil, core.ConfigurationError("projectId", "rpc: project id is required")
	}

	input := mergeProject(payload, projectID)
	run := &negotiation{
		invocationID: uuid.NewString(),
		procedure:    procedure,
		projectID:    projectID,
		method:       envelope.MethodFor(procedure),
	}

	for index, strat := range i.strategies {
		if err := ctx.Err(); err != nil {
			return nil, run.canceled(err)
		}
		result := i.attempt(ctx, run, index+1, strat, input)
		if result.success {
			return result.value, nil
		}
		if result.canceled {
			return nil, run.canceled(result.err)
		}
	}
	err := run.exhausted()
	i.log(ctx, "warn", "rpc exhausted", map[string]any{
		"invocation_id": run.invocationID,
		"procedure":     run.procedure,
		"project_id":    run.projectID,
		"formats":       strings.Join(AttemptFormats(err), ","),
		"error":         core.ErrorMessage(err),
	})
	return nil, err
}

// Lookup issues a read-only GET outside the negotiation loop.
func (i *Invoker) Lookup(ctx context.Context, procedure string, input map[string]any, scope core.Scope) (any, error) {
	if i == nil {
		return nil, core.InternalError("rpc: invoker is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	procedure = strings.TrimSpace(procedure)
	if procedure == "" {
		return nil, core.ConfigurationError("procedure", "rpc: procedure is required")
	}
	projectID := strings.TrimSpace(scope.ProjectID)
	if projectID == "" {
		return nil, core.ConfigurationError("projectId", "rpc: project id is required")
	}

	query, err := envelope.LookupInput(mergeProject(input, projectID))
	if err != nil {
		return nil, err
	}
	startedAt := time.Now()
	res, err := i.transport.Do(ctx, core.TransportRequest{
		Method:               http.MethodGet,
		URL:                  i.url(envelope.ProcedurePath(i.routePrefix, procedure)),
		Headers:              projectHeaders(projectID),
		Query:                map[string]string{"input": query},
		Timeout:              i.timeout,
		MaxResponseBodyBytes: i.maxResponseBodyBytes,
		Metadata:             map[string]any{"procedure": procedure, "lookup": true},
	})
	fields := map[string]any{
		"procedure":   procedure,
		"project_id":  projectID,
		"duration_ms": time.Since(startedAt).Milliseconds(),
	}
	if err != nil {
		fields["error"] = core.ErrorDetail(err)
		i.log(ctx, "error", "rpc lookup failed", fields)
		return nil, err
	}
	outcome := envelope.Decode(envelope.FormatDirect, res.Body)
	fields["status_code"] = res.StatusCode
	if !isSuccessStatus(res.StatusCode) || !outcome.Success {
		message := outcome.Message
		if outcome.Success {
			message = http.StatusText(res.StatusCode)
		}
		fields["error"] = message
		i.log(ctx, "error", "rpc lookup failed", fields)
		return nil, core.ProtocolError(
			fmt.Sprintf("rpc: %s lookup failed: HTTP %d: %s", procedure, res.StatusCode, message),
			res.StatusCode,
			map[string]any{"procedure": procedure, "status_code": res.StatusCode},
		)
	}
	i.log(ctx, "debug", "rpc lookup succeeded", fields)
	return outcome.Value, nil
}

func (i *Invoker) url(path string) string {
	return i.baseURL + path
}

func mergeProject(payload map[string]any, projectID string) map[string]any {
	merged := make(map[string]any, len(payload)+1)
	for key, value := range payload {
		merged[key] = value
	}
	merged["projectId"] = projectID
	return merged
}

func projectHeaders(projectID string) map[string]string {
	return map[string]string{
		"accept":        "application/json",
		HeaderProject:   projectID,
		HeaderProjectID: projectID,
	}
}

func isSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}

var _ core.ProcedureInvoker = (*Invoker)(nil)
