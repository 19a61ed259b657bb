package llmconnections

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gocmd "github.com/goliatone/go-command"
	llmcommand "github.com/goliatone/go-llm-connections/command"
	"github.com/goliatone/go-llm-connections/core"
	llmquery "github.com/goliatone/go-llm-connections/query"
)

func TestNewFacade_WiresCommandsAndQueries(t *testing.T) {
	facade, err := NewFacade(&stubFacadeService{})
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	commands := facade.Commands()
	if commands.Create == nil || commands.Update == nil || commands.Upsert == nil || commands.Delete == nil || commands.Test == nil {
		t.Fatalf("expected command handlers to be wired")
	}
	queries := facade.Queries()
	if queries.List == nil || queries.MaskedKey == nil || queries.Attempts == nil {
		t.Fatalf("expected query handlers to be wired")
	}
	if _, err := NewFacade(nil); err == nil {
		t.Fatalf("expected missing service error")
	}
}

func TestFacade_CommandAndQueryDelegation(t *testing.T) {
	svc := &stubFacadeService{}
	facade, err := NewFacade(svc, WithAttemptReader(stubAttemptReader{}))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	ctx := context.Background()
	if err := facade.Commands().Delete.Execute(ctx, llmcommand.DeleteConnectionMessage{ID: "conn_1", ProjectID: "proj_1"}); err != nil {
		t.Fatalf("execute delete command: %v", err)
	}
	if svc.lastDeleteID != "conn_1" || svc.lastProjectID != "proj_1" {
		t.Fatalf("unexpected delete delegation payload: %q %q", svc.lastDeleteID, svc.lastProjectID)
	}

	masked, err := facade.Queries().MaskedKey.Query(ctx, llmquery.MaskedKeyMessage{Provider: "openai", ProjectID: "proj_1"})
	if err != nil {
		t.Fatalf("query masked key: %v", err)
	}
	if masked != "sk-****" {
		t.Fatalf("unexpected masked key %q", masked)
	}

	attempts, err := facade.Queries().Attempts.Query(ctx, llmquery.ListAttemptsMessage{})
	if err != nil {
		t.Fatalf("query attempts: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("unexpected attempts %#v", attempts)
	}
}

func TestFacade_AttemptsWithoutReaderFails(t *testing.T) {
	facade, err := NewFacade(&stubFacadeService{})
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	if _, err := facade.Queries().Attempts.Query(context.Background(), llmquery.ListAttemptsMessage{}); err == nil {
		t.Fatalf("expected missing attempt reader error")
	}
}

func TestSetup_RequiresBaseURL(t *testing.T) {
	_, err := Setup(context.Background(), Config{}, SetupOptions{})
	if !core.IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSetup_BatchBackendEndToEnd(t *testing.T) {
	var mu sync.Mutex
	var formats []string
	var headers []http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		headers = append(headers, r.Header.Clone())
		mu.Unlock()
		var batch []map[string]any
		if r.URL.Query().Get("batch") == "1" && json.Unmarshal(raw, &batch) == nil && len(batch) == 1 {
			mu.Lock()
			formats = append(formats, "batch")
			mu.Unlock()
			if !strings.HasSuffix(r.URL.Path, "/rpc/llmApiKey.create") {
				t.Errorf("unexpected batch path %q", r.URL.Path)
			}
			_, _ = w.Write([]byte(`[{"result":{"data":{"json":{"id":"conn_1","provider":"openai"}}}}]`))
			return
		}
		mu.Lock()
		formats = append(formats, "other")
		mu.Unlock()
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"json":{"message":"unsupported envelope"}}}`))
	}))
	defer server.Close()

	recorder := &memoryAttemptRecorder{}
	client, err := Setup(context.Background(), Config{BaseURL: server.URL, Timeout: 5 * time.Second}, SetupOptions{
		HTTPClient:      server.Client(),
		DefaultHeaders:  map[string]string{"x-client": "llmconn-tests"},
		AttemptRecorder: recorder,
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	facade, err := NewFacade(client)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	collector := gocmd.NewResult[any]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	if err := facade.Commands().Create.Execute(ctx, llmcommand.CreateConnectionMessage{
		Input:     Input{Name: "openai", APIKey: "sk-test"},
		ProjectID: "proj_1",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected create result")
	}
	if result.(map[string]any)["id"] != "conn_1" {
		t.Fatalf("unexpected create result %#v", result)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(formats) != 2 || formats[0] != "other" || formats[1] != "batch" {
		t.Fatalf("expected direct failure then batch success, got %#v", formats)
	}
	for _, header := range headers {
		if header.Get("x-project-id") != "proj_1" || header.Get("x-client") != "llmconn-tests" {
			t.Fatalf("expected project and default headers, got %#v", header)
		}
	}
	if len(recorder.records) != 2 || recorder.records[1].Outcome != core.AttemptOutcomeSuccess {
		t.Fatalf("expected two recorded attempts, got %#v", recorder.records)
	}
}

type stubFacadeService struct {
	lastDeleteID  string
	lastProjectID string
}

func (s *stubFacadeService) Create(context.Context, core.InputSource, core.CallOptions) (any, error) {
	return nil, nil
}

func (s *stubFacadeService) Update(context.Context, string, core.InputSource, core.CallOptions) (any, error) {
	return nil, nil
}

func (s *stubFacadeService) Upsert(context.Context, core.InputSource, core.CallOptions) (any, error) {
	return nil, nil
}

func (s *stubFacadeService) Delete(_ context.Context, id string, opts core.CallOptions) (any, error) {
	s.lastDeleteID = id
	s.lastProjectID = opts.ProjectID
	return nil, nil
}

func (s *stubFacadeService) Test(context.Context, core.InputSource, core.CallOptions) (any, error) {
	return nil, nil
}

func (s *stubFacadeService) List(context.Context, core.CallOptions) ([]any, error) {
	return []any{}, nil
}

func (s *stubFacadeService) MaskedKey(context.Context, string, core.CallOptions) (string, error) {
	return "sk-****", nil
}

type stubAttemptReader struct{}

func (stubAttemptReader) ListAttempts(context.Context, core.AttemptFilter) ([]core.AttemptRecord, error) {
	return []core.AttemptRecord{{InvocationID: "inv_1", Attempt: 1}}, nil
}

type memoryAttemptRecorder struct {
	mu      sync.Mutex
	records []core.AttemptRecord
}

func (m *memoryAttemptRecorder) RecordAttempt(_ context.Context, record core.AttemptRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}
