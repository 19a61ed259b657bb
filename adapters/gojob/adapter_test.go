package gojob

import (
	"context"
	"errors"
	"testing"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	"github.com/goliatone/go-llm-connections/core"
)

func TestNewUpsertMessage_StoresCanonicalInput(t *testing.T) {
	msg := NewUpsertMessage(core.RawInput{
		"provider":  "openai",
		"secretKey": "sk-test",
	}, " proj_1 ", "idem-1")

	if msg.JobID != JobIDUpsertConnection {
		t.Fatalf("unexpected job id %q", msg.JobID)
	}
	if msg.Parameters[ParamProjectID] != "proj_1" {
		t.Fatalf("expected trimmed project id, got %#v", msg.Parameters[ParamProjectID])
	}
	input := msg.Parameters[ParamInput].(map[string]any)
	if input[core.FieldName] != "openai" || input[core.FieldAPIKey] != "sk-test" {
		t.Fatalf("expected canonical input keys, got %#v", input)
	}
	if msg.IdempotencyKey != "idem-1" {
		t.Fatalf("unexpected idempotency key %q", msg.IdempotencyKey)
	}
}

func TestEnqueuer_ValidatesAndEnqueues(t *testing.T) {
	ctx := context.Background()
	queueStub := &stubQueueEnqueuer{}
	enqueuer := NewEnqueuer(queueStub)

	if err := enqueuer.EnqueueUpsert(ctx, core.RawInput{}, "p", ""); !core.IsConfigurationError(err) {
		t.Fatalf("expected configuration error for missing name, got %v", err)
	}
	if err := enqueuer.EnqueueDelete(ctx, " ", "p", ""); !core.IsConfigurationError(err) {
		t.Fatalf("expected configuration error for missing id, got %v", err)
	}
	if queueStub.last != nil {
		t.Fatalf("expected invalid jobs to stay off the queue")
	}

	if err := enqueuer.EnqueueDelete(ctx, "conn_1", "p", "idem-del"); err != nil {
		t.Fatalf("enqueue delete: %v", err)
	}
	if queueStub.last == nil || queueStub.last.JobID != JobIDDeleteConnection {
		t.Fatalf("expected delete job on queue, got %#v", queueStub.last)
	}
	if queueStub.last.Parameters[ParamConnectionID] != "conn_1" {
		t.Fatalf("unexpected delete parameters %#v", queueStub.last.Parameters)
	}

	if err := NewEnqueuer(nil).EnqueueDelete(ctx, "conn_1", "p", ""); err == nil {
		t.Fatalf("expected missing enqueuer error")
	}
}

func TestProcessor_UpsertAcksOnSuccess(t *testing.T) {
	svc := &stubProvisioningService{}
	processor := NewProcessor(svc, RetryPolicy{}, nil)
	delivery := &stubQueueDelivery{msg: NewUpsertMessage(core.RawInput{"name": "groq", "apiKey": "gsk"}, "proj_1", "")}

	if err := processor.Process(context.Background(), delivery, 1); err != nil {
		t.Fatalf("process: %v", err)
	}
	if !delivery.acked {
		t.Fatalf("expected delivery ack")
	}
	if svc.upserted.Name != "groq" || svc.upsertOpts.ProjectID != "proj_1" {
		t.Fatalf("unexpected upsert call: %#v %#v", svc.upserted, svc.upsertOpts)
	}
}

func TestProcessor_DeleteDispatch(t *testing.T) {
	svc := &stubProvisioningService{}
	processor := NewProcessor(svc, RetryPolicy{}, nil)
	if _, err := processor.Handle(context.Background(), NewDeleteMessage("conn_9", "proj_1", "")); err != nil {
		t.Fatalf("handle delete: %v", err)
	}
	if svc.deleted != "conn_9" {
		t.Fatalf("expected delete of conn_9, got %q", svc.deleted)
	}
}

func TestProcessor_TransportFailureRequeuesWithBackoff(t *testing.T) {
	svc := &stubProvisioningService{err: core.TransportError(errors.New("dial"), "rpc: transport failed", nil)}
	processor := NewProcessor(svc, RetryPolicy{BaseDelay: time.Second, MaxDelay: 3 * time.Second, MaxAttempts: 5}, nil)
	delivery := &stubQueueDelivery{msg: NewDeleteMessage("conn_1", "p", "")}

	err := processor.Process(context.Background(), delivery, 2)
	if !core.IsTransportError(err) {
		t.Fatalf("expected service error to surface, got %v", err)
	}
	if delivery.acked {
		t.Fatalf("expected no ack on failure")
	}
	if !delivery.nackOpts.Requeue || delivery.nackOpts.DeadLetter {
		t.Fatalf("expected requeue, got %#v", delivery.nackOpts)
	}
	if delivery.nackOpts.Delay != 2*time.Second {
		t.Fatalf("expected doubled backoff, got %s", delivery.nackOpts.Delay)
	}

	if err := processor.Process(context.Background(), delivery, 4); err == nil {
		t.Fatalf("expected failure")
	}
	if delivery.nackOpts.Delay != 3*time.Second {
		t.Fatalf("expected backoff capped at max delay, got %s", delivery.nackOpts.Delay)
	}
}

func TestProcessor_CanceledUpsertRequeuesImmediately(t *testing.T) {
	svc := &stubProvisioningService{err: core.CanceledError(context.Canceled, "rpc: llmApiKey.create canceled", nil)}
	processor := NewProcessor(svc, RetryPolicy{BaseDelay: time.Second, MaxAttempts: 2, DeadLetterOnMax: true}, nil)
	delivery := &stubQueueDelivery{msg: NewUpsertMessage(core.RawInput{"name": "openai", "apiKey": "sk"}, "p", "")}

	err := processor.Process(context.Background(), delivery, 2)
	if !core.IsCanceledError(err) {
		t.Fatalf("expected canceled error to surface, got %v", err)
	}
	if !delivery.nackOpts.Requeue || delivery.nackOpts.DeadLetter {
		t.Fatalf("expected requeue without dead letter, got %#v", delivery.nackOpts)
	}
	if delivery.nackOpts.Delay != 0 {
		t.Fatalf("expected immediate redelivery, got %s", delivery.nackOpts.Delay)
	}
}

func TestProcessor_ConfigurationFailureDeadLetters(t *testing.T) {
	processor := NewProcessor(&stubProvisioningService{}, RetryPolicy{}, nil)
	delivery := &stubQueueDelivery{msg: &job.ExecutionMessage{JobID: "llmconn.unknown"}}

	if err := processor.Process(context.Background(), delivery, 1); !core.IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if delivery.nackOpts.Requeue || !delivery.nackOpts.DeadLetter {
		t.Fatalf("expected dead letter, got %#v", delivery.nackOpts)
	}
}

func TestNackRetryPolicyBoundaries(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts:     3,
		MaxDelay:        10 * time.Second,
		DeadLetterOnMax: true,
	}

	opts := policy.NormalizeAttempt(queue.NackOptions{Delay: 30 * time.Second, Requeue: true, Reason: " transient "}, 1)
	if opts.Delay != 10*time.Second {
		t.Fatalf("expected delay to be bounded, got %s", opts.Delay)
	}
	if !opts.Requeue || opts.Reason != "transient" {
		t.Fatalf("expected requeue before max attempts, got %#v", opts)
	}

	opts = policy.NormalizeAttempt(queue.NackOptions{Delay: time.Second, Requeue: true}, 3)
	if opts.Requeue {
		t.Fatalf("expected no requeue once max attempts is reached")
	}
	if !opts.DeadLetter {
		t.Fatalf("expected dead letter on max attempts")
	}
}

func TestLoggingHook_ReportsEvents(t *testing.T) {
	logger := &capturingLogger{}
	hook := NewLoggingHook(logger)

	hook.OnRetry(context.Background(), worker.Event{
		Message:  NewDeleteMessage("conn_1", "p", ""),
		Attempt:  2,
		Delay:    5 * time.Second,
		Err:      errors.New("retry"),
		Duration: 250 * time.Millisecond,
	})
	if logger.lastMsg != "provisioning job retry" {
		t.Fatalf("unexpected log message %q", logger.lastMsg)
	}
	fields := map[string]any{}
	for i := 0; i+1 < len(logger.lastArgs); i += 2 {
		fields[logger.lastArgs[i].(string)] = logger.lastArgs[i+1]
	}
	if fields["job_id"] != JobIDDeleteConnection || fields["attempt"] != 2 {
		t.Fatalf("unexpected hook fields %#v", fields)
	}
	if fields["delay_ms"] != int64(5000) || fields["error"] != "retry" {
		t.Fatalf("expected delay and error fields, got %#v", fields)
	}
}

type stubProvisioningService struct {
	upserted   core.Input
	upsertOpts core.CallOptions
	deleted    string
	err        error
}

func (s *stubProvisioningService) Upsert(_ context.Context, source core.InputSource, opts core.CallOptions) (any, error) {
	s.upserted = source.ConnectionInput()
	s.upsertOpts = opts
	return nil, s.err
}

func (s *stubProvisioningService) Delete(_ context.Context, id string, _ core.CallOptions) (any, error) {
	s.deleted = id
	return nil, s.err
}

type stubQueueEnqueuer struct {
	last *job.ExecutionMessage
}

func (s *stubQueueEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	s.last = msg
	return nil
}

type stubQueueDelivery struct {
	msg      *job.ExecutionMessage
	acked    bool
	nackOpts queue.NackOptions
}

func (s *stubQueueDelivery) Message() *job.ExecutionMessage {
	return s.msg
}

func (s *stubQueueDelivery) Ack(context.Context) error {
	s.acked = true
	return nil
}

func (s *stubQueueDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	s.nackOpts = opts
	return nil
}

type capturingLogger struct {
	lastMsg  string
	lastArgs []any
}

func (l *capturingLogger) record(msg string, args ...any) {
	l.lastMsg = msg
	l.lastArgs = args
}

func (l *capturingLogger) Trace(msg string, args ...any) { l.record(msg, args...) }
func (l *capturingLogger) Debug(msg string, args ...any) { l.record(msg, args...) }
func (l *capturingLogger) Info(msg string, args ...any)  { l.record(msg, args...) }
func (l *capturingLogger) Warn(msg string, args ...any)  { l.record(msg, args...) }
func (l *capturingLogger) Error(msg string, args ...any) { l.record(msg, args...) }
func (l *capturingLogger) Fatal(msg string, args ...any) { l.record(msg, args...) }
func (l *capturingLogger) WithContext(context.Context) core.Logger {
	return l
}
