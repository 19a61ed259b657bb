package rpc

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-llm-connections/core"
	"github.com/goliatone/go-llm-connections/envelope"
)

// strategy is one state of TRY_A -> TRY_B -> TRY_C. Reaching the end of the
// strategy list is EXHAUSTED.
type strategy struct {
	format envelope.Format
}

type attemptResult struct {
	success  bool
	canceled bool
	value    any
	err      error
}

// Attempt is the diagnostic kept for every failed or successful attempt.
type Attempt struct {
	Format     envelope.Format
	StatusCode int
	Outcome    core.AttemptOutcome
	Message    string
	Duration   time.Duration
}

type negotiation struct {
	invocationID string
	procedure    string
	projectID    string
	method       envelope.Method
	attempts     []Attempt
}

func (i *Invoker) attempt(ctx context.Context, run *negotiation, number int, strat strategy, input map[string]any) attemptResult {
	startedAt := time.Now()
	req, err := envelope.Encode(strat.format, i.routePrefix, run.procedure, run.method, input)
	if err != nil {
		// Encode fails only for an unknown format.
		i.finish(ctx, run, number, Attempt{
			Format:  strat.format,
			Outcome: core.AttemptOutcomeProtocolFailure,
			Message: core.ErrorMessage(err),
		}, startedAt)
		return attemptResult{err: err}
	}

	res, err := i.transport.Do(ctx, core.TransportRequest{
		Method:               req.Method,
		URL:                  i.url(req.Path),
		Headers:              projectHeaders(run.projectID),
		Query:                req.Query,
		JSON:                 req.Body,
		Timeout:              i.timeout,
		MaxResponseBodyBytes: i.maxResponseBodyBytes,
		Metadata: map[string]any{
			"procedure":     run.procedure,
			"format":        string(strat.format),
			"invocation_id": run.invocationID,
		},
	})
	if err != nil {
		outcome := core.AttemptOutcomeTransportFailure
		canceled := ctx.Err() != nil || core.IsCanceledError(err)
		if canceled {
			outcome = core.AttemptOutcomeCanceled
		}
		i.finish(ctx, run, number, Attempt{
			Format:  strat.format,
			Outcome: outcome,
			Message: core.ErrorDetail(err),
		}, startedAt)
		return attemptResult{canceled: canceled, err: err}
	}

	decoded := envelope.Decode(strat.format, res.Body)
	if isSuccessStatus(res.StatusCode) && decoded.Success {
		i.finish(ctx, run, number, Attempt{
			Format:     strat.format,
			StatusCode: res.StatusCode,
			Outcome:    core.AttemptOutcomeSuccess,
		}, startedAt)
		return attemptResult{success: true, value: decoded.Value}
	}

	message := decoded.Message
	if decoded.Success {
		message = http.StatusText(res.StatusCode)
	}
	i.finish(ctx, run, number, Attempt{
		Format:     strat.format,
		StatusCode: res.StatusCode,
		Outcome:    core.AttemptOutcomeProtocolFailure,
		Message:    message,
	}, startedAt)
	return attemptResult{}
}

func (i *Invoker) finish(ctx context.Context, run *negotiation, number int, attempt Attempt, startedAt time.Time) {
	attempt.Duration = time.Since(startedAt)
	run.attempts = append(run.attempts, attempt)

	tags := map[string]string{
		"procedure": run.procedure,
		"format":    string(attempt.Format),
		"outcome":   string(attempt.Outcome),
	}
	i.metrics.IncCounter(ctx, core.MetricAttemptTotal, 1, tags)
	i.metrics.ObserveHistogram(ctx, core.MetricAttemptDuration, float64(attempt.Duration.Milliseconds()), tags)

	fields := map[string]any{
		"invocation_id": run.invocationID,
		"procedure":     run.procedure,
		"project_id":    run.projectID,
		"format":        attempt.Format.Label(),
		"attempt":       number,
		"status_code":   attempt.StatusCode,
		"outcome":       string(attempt.Outcome),
		"duration_ms":   attempt.Duration.Milliseconds(),
	}
	if attempt.Message != "" {
		fields["message"] = attempt.Message
	}
	level := "debug"
	if attempt.Outcome != core.AttemptOutcomeSuccess {
		level = "warn"
	}
	i.log(ctx, level, "rpc attempt", fields)

	if i.recorder == nil {
		return
	}
	record := core.AttemptRecord{
		InvocationID: run.invocationID,
		ProjectID:    run.projectID,
		Procedure:    run.procedure,
		Format:       string(attempt.Format),
		Method:       string(run.method),
		Attempt:      number,
		StatusCode:   attempt.StatusCode,
		Outcome:      attempt.Outcome,
		Message:      attempt.Message,
		Duration:     attempt.Duration,
		StartedAt:    startedAt.UTC(),
	}
	// Recording runs detached from caller cancellation so the canceled
	// attempt itself is kept.
	if err := i.recorder.RecordAttempt(context.WithoutCancel(ctx), record); err != nil {
		i.log(ctx, "error", "rpc attempt record failed", map[string]any{
			"invocation_id": run.invocationID,
			"procedure":     run.procedure,
			"error":         err.Error(),
		})
	}
}

// exhausted builds the single error surfaced when every format failed. The
// latest non-empty message and the latest non-zero status win.
func (n *negotiation) exhausted() error {
	lastStatus := 0
	message := ""
	for index := len(n.attempts) - 1; index >= 0; index-- {
		if lastStatus == 0 && n.attempts[index].StatusCode > 0 {
			lastStatus = n.attempts[index].StatusCode
		}
		if message == "" && strings.TrimSpace(n.attempts[index].Message) != "" {
			message = strings.TrimSpace(n.attempts[index].Message)
		}
	}
	if message == "" {
		message = envelope.EmptyResponseMessage
	}
	return core.ExhaustedError(
		fmt.Sprintf("rpc: %s failed: HTTP %d: %s", n.procedure, lastStatus, message),
		lastStatus,
		n.metadata(),
	)
}

func (n *negotiation) canceled(source error) error {
	return core.CanceledError(source, fmt.Sprintf("rpc: %s canceled", n.procedure), n.metadata())
}

func (n *negotiation) metadata() map[string]any {
	attempts := make([]map[string]any, 0, len(n.attempts))
	for _, attempt := range n.attempts {
		attempts = append(attempts, map[string]any{
			"format":      string(attempt.Format),
			"status_code": attempt.StatusCode,
			"outcome":     string(attempt.Outcome),
			"message":     attempt.Message,
		})
	}
	return map[string]any{
		"invocation_id": n.invocationID,
		"procedure":     n.procedure,
		"method":        string(n.method),
		"attempts":      attempts,
	}
}

// Attempts returns the per-attempt diagnostics attached to a negotiation
// error.
func Attempts(err error) []map[string]any {
	if err == nil {
		return nil
	}
	rich, ok := richError(err)
	if !ok || rich.Metadata == nil {
		return nil
	}
	attempts, _ := rich.Metadata["attempts"].([]map[string]any)
	return attempts
}
