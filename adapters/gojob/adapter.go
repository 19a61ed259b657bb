package gojob

import (
	"context"
	"fmt"
	"strings"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	"github.com/goliatone/go-llm-connections/core"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	JobIDUpsertConnection = "llmconn.connection.upsert"
	JobIDDeleteConnection = "llmconn.connection.delete"

	ParamProjectID    = "projectId"
	ParamInput        = "input"
	ParamConnectionID = "id"
)

const DefaultRetryDelay = 5 * time.Second

// ProvisioningService is the part of the connection client that jobs drive.
type ProvisioningService interface {
	Upsert(ctx context.Context, source core.InputSource, opts core.CallOptions) (any, error)
	Delete(ctx context.Context, id string, opts core.CallOptions) (any, error)
}

// RetryPolicy bounds requeues so a failing job cannot loop forever.
type RetryPolicy struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// NormalizeAttempt enforces bounded retry behavior for a nack operation.
func (p RetryPolicy) NormalizeAttempt(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.DeadLetter {
		out.Requeue = false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Requeue = false
		if p.DeadLetterOnMax || out.DeadLetter {
			out.DeadLetter = true
		}
	}
	if !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return out
}

// backoff doubles BaseDelay per prior attempt.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return delay
}

// NewUpsertMessage builds an upsert job. The input is stored under its
// canonical field names so queues that serialize parameters keep it intact.
func NewUpsertMessage(input core.RawInput, projectID string, idempotencyKey string) *job.ExecutionMessage {
	return &job.ExecutionMessage{
		JobID:      JobIDUpsertConnection,
		ScriptPath: JobIDUpsertConnection,
		Parameters: map[string]any{
			ParamProjectID: strings.TrimSpace(projectID),
			ParamInput:     input.Canonical(),
		},
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
		DedupPolicy:    job.DeduplicationPolicy("merge"),
	}
}

func NewDeleteMessage(id string, projectID string, idempotencyKey string) *job.ExecutionMessage {
	return &job.ExecutionMessage{
		JobID:      JobIDDeleteConnection,
		ScriptPath: JobIDDeleteConnection,
		Parameters: map[string]any{
			ParamProjectID:    strings.TrimSpace(projectID),
			ParamConnectionID: strings.TrimSpace(id),
		},
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
		DedupPolicy:    job.DeduplicationPolicy("drop"),
	}
}

type Enqueuer struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuer(enqueuer queue.Enqueuer) *Enqueuer {
	return &Enqueuer{enqueuer: enqueuer}
}

func (e *Enqueuer) EnqueueUpsert(ctx context.Context, input core.RawInput, projectID string, idempotencyKey string) error {
	if e == nil || e.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	if strings.TrimSpace(input.ConnectionInput().Name) == "" {
		return core.ConfigurationError(core.FieldName, "gojob: connection name is required")
	}
	return e.enqueuer.Enqueue(ctx, NewUpsertMessage(input, projectID, idempotencyKey))
}

func (e *Enqueuer) EnqueueDelete(ctx context.Context, id string, projectID string, idempotencyKey string) error {
	if e == nil || e.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	if strings.TrimSpace(id) == "" {
		return core.ConfigurationError("id", "gojob: connection id is required")
	}
	return e.enqueuer.Enqueue(ctx, NewDeleteMessage(id, projectID, idempotencyKey))
}

// Processor runs provisioning jobs against the connection client.
type Processor struct {
	service ProvisioningService
	policy  RetryPolicy
	logger  core.Logger
}

func NewProcessor(service ProvisioningService, policy RetryPolicy, logger core.Logger) *Processor {
	return &Processor{service: service, policy: policy, logger: glog.Ensure(logger)}
}

// Handle executes a single job message.
func (p *Processor) Handle(ctx context.Context, msg *job.ExecutionMessage) (any, error) {
	if p == nil || p.service == nil {
		return nil, core.InternalError("gojob: provisioning service is required")
	}
	if msg == nil {
		return nil, core.InternalError("gojob: execution message is required")
	}
	opts := core.CallOptions{ProjectID: stringParam(msg.Parameters, ParamProjectID)}
	switch strings.TrimSpace(msg.JobID) {
	case JobIDUpsertConnection:
		input, ok := msg.Parameters[ParamInput].(map[string]any)
		if !ok {
			return nil, core.ConfigurationError(ParamInput, "gojob: upsert job input is required")
		}
		return p.service.Upsert(ctx, core.RawInput(input), opts)
	case JobIDDeleteConnection:
		return p.service.Delete(ctx, stringParam(msg.Parameters, ParamConnectionID), opts)
	default:
		return nil, core.ConfigurationError("jobId", fmt.Sprintf("gojob: unknown job %q", msg.JobID))
	}
}

// Process handles a delivery and settles it. Configuration failures are
// dead-lettered; anything else is requeued with backoff until the policy
// gives up.
func (p *Processor) Process(ctx context.Context, delivery queue.Delivery, attempt int) error {
	if p == nil {
		return core.InternalError("gojob: processor is nil")
	}
	if delivery == nil {
		return core.InternalError("gojob: delivery is required")
	}
	msg := delivery.Message()
	_, err := p.Handle(ctx, msg)
	if err == nil {
		return delivery.Ack(ctx)
	}

	opts := queue.NackOptions{
		Delay:   p.policy.backoff(attempt),
		Requeue: true,
		Reason:  core.ErrorMessage(err),
	}
	canceled := core.IsCanceledError(err)
	switch {
	case canceled:
		// Canceled deliveries are redelivered at once and never dead-lettered.
		opts.Delay = 0
	case core.IsConfigurationError(err):
		opts.Requeue = false
		opts.DeadLetter = true
	}
	if !canceled {
		opts = p.policy.NormalizeAttempt(opts, attempt)
	}

	fields := []any{
		"job_id", jobID(msg),
		"attempt", attempt,
		"error_code", core.ErrorTextCode(err),
		"requeue", opts.Requeue,
		"dead_letter", opts.DeadLetter,
	}
	p.logger.Warn("provisioning job failed", fields...)

	if nackErr := delivery.Nack(context.WithoutCancel(ctx), opts); nackErr != nil {
		return nackErr
	}
	return err
}

// LoggingHook reports worker lifecycle events through a glog logger.
type LoggingHook struct {
	logger core.Logger
}

func NewLoggingHook(logger core.Logger) *LoggingHook {
	return &LoggingHook{logger: glog.Ensure(logger)}
}

func (h *LoggingHook) OnStart(_ context.Context, event worker.Event) {
	h.logger.Debug("provisioning job started", eventFields(event)...)
}

func (h *LoggingHook) OnSuccess(_ context.Context, event worker.Event) {
	h.logger.Info("provisioning job succeeded", eventFields(event)...)
}

func (h *LoggingHook) OnFailure(_ context.Context, event worker.Event) {
	h.logger.Error("provisioning job failed", eventFields(event)...)
}

func (h *LoggingHook) OnRetry(_ context.Context, event worker.Event) {
	h.logger.Warn("provisioning job retry", eventFields(event)...)
}

func eventFields(event worker.Event) []any {
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	fields := []any{
		"job_id", jobID(message),
		"attempt", event.Attempt,
		"duration_ms", event.Duration.Milliseconds(),
	}
	if event.Delay > 0 {
		fields = append(fields, "delay_ms", event.Delay.Milliseconds())
	}
	if event.Err != nil {
		fields = append(fields, "error", core.ErrorMessage(event.Err))
	}
	return fields
}

func jobID(msg *job.ExecutionMessage) string {
	if msg == nil {
		return ""
	}
	return strings.TrimSpace(msg.JobID)
}

func stringParam(params map[string]any, key string) string {
	value, _ := params[key].(string)
	return strings.TrimSpace(value)
}

var (
	_ worker.Hook         = (*LoggingHook)(nil)
	_ ProvisioningService = (*core.Client)(nil)
)
