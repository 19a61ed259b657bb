package query

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-llm-connections/core"
)

type stubConnectionReader struct {
	listFn      func(context.Context, core.CallOptions) ([]any, error)
	maskedKeyFn func(context.Context, string, core.CallOptions) (string, error)
}

func (s stubConnectionReader) List(ctx context.Context, opts core.CallOptions) ([]any, error) {
	if s.listFn == nil {
		return []any{}, nil
	}
	return s.listFn(ctx, opts)
}

func (s stubConnectionReader) MaskedKey(ctx context.Context, provider string, opts core.CallOptions) (string, error) {
	if s.maskedKeyFn == nil {
		return "", nil
	}
	return s.maskedKeyFn(ctx, provider, opts)
}

type stubAttemptReader struct {
	listFn func(context.Context, core.AttemptFilter) ([]core.AttemptRecord, error)
}

func (s stubAttemptReader) ListAttempts(ctx context.Context, filter core.AttemptFilter) ([]core.AttemptRecord, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, filter)
}

func TestListConnectionsQuery_QueryDelegates(t *testing.T) {
	called := false
	reader := stubConnectionReader{
		listFn: func(_ context.Context, opts core.CallOptions) ([]any, error) {
			called = true
			if opts.ProjectID != "proj_1" {
				t.Fatalf("unexpected project: %q", opts.ProjectID)
			}
			return []any{map[string]any{"id": "conn_1"}}, nil
		},
	}

	items, err := NewListConnectionsQuery(reader).Query(context.Background(), ListConnectionsMessage{ProjectID: "proj_1"})
	if err != nil {
		t.Fatalf("list connections: %v", err)
	}
	if !called {
		t.Fatalf("expected connection reader invocation")
	}
	if len(items) != 1 {
		t.Fatalf("unexpected items: %#v", items)
	}
}

func TestMaskedKeyQuery_QueryDelegates(t *testing.T) {
	reader := stubConnectionReader{
		maskedKeyFn: func(_ context.Context, provider string, opts core.CallOptions) (string, error) {
			if provider != "openai" || opts.ProjectID != "proj_1" {
				t.Fatalf("unexpected masked key request: %q %q", provider, opts.ProjectID)
			}
			return "sk-****", nil
		},
	}

	masked, err := NewMaskedKeyQuery(reader).Query(context.Background(), MaskedKeyMessage{Provider: "openai", ProjectID: "proj_1"})
	if err != nil {
		t.Fatalf("masked key: %v", err)
	}
	if masked != "sk-****" {
		t.Fatalf("unexpected masked key %q", masked)
	}
}

func TestListAttemptsQuery_QueryDelegates(t *testing.T) {
	reader := stubAttemptReader{
		listFn: func(_ context.Context, filter core.AttemptFilter) ([]core.AttemptRecord, error) {
			if filter.InvocationID != "inv_1" || filter.Limit != 10 {
				t.Fatalf("unexpected filter: %#v", filter)
			}
			return []core.AttemptRecord{{InvocationID: "inv_1", Format: "batch", Outcome: core.AttemptOutcomeSuccess}}, nil
		},
	}

	records, err := NewListAttemptsQuery(reader).Query(context.Background(), ListAttemptsMessage{
		Filter: core.AttemptFilter{InvocationID: "inv_1", Limit: 10},
	})
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(records) != 1 || records[0].Format != "batch" {
		t.Fatalf("unexpected records: %#v", records)
	}
}

func TestQueries_PropagateReaderErrors(t *testing.T) {
	sentinel := errors.New("backend down")
	reader := stubConnectionReader{
		listFn: func(context.Context, core.CallOptions) ([]any, error) { return nil, sentinel },
	}
	if _, err := NewListConnectionsQuery(reader).Query(context.Background(), ListConnectionsMessage{}); !errors.Is(err, sentinel) {
		t.Fatalf("expected reader error, got %v", err)
	}
}

func TestMessages_Validate(t *testing.T) {
	cases := []struct {
		name    string
		msg     interface{ Validate() error }
		wantErr bool
	}{
		{name: "list ok", msg: ListConnectionsMessage{ProjectID: "p"}},
		{name: "list empty project defers to client", msg: ListConnectionsMessage{}},
		{name: "list blank project", msg: ListConnectionsMessage{ProjectID: " "}, wantErr: true},
		{name: "masked key missing provider", msg: MaskedKeyMessage{ProjectID: "p"}, wantErr: true},
		{name: "masked key ok", msg: MaskedKeyMessage{Provider: "openai"}},
		{name: "attempts negative limit", msg: ListAttemptsMessage{Filter: core.AttemptFilter{Limit: -1}}, wantErr: true},
		{name: "attempts limit too large", msg: ListAttemptsMessage{Filter: core.AttemptFilter{Limit: MaxAttemptsPerPage + 1}}, wantErr: true},
		{name: "attempts negative offset", msg: ListAttemptsMessage{Filter: core.AttemptFilter{Offset: -1}}, wantErr: true},
		{name: "attempts unknown outcome", msg: ListAttemptsMessage{Filter: core.AttemptFilter{Outcome: "bogus"}}, wantErr: true},
		{name: "attempts ok", msg: ListAttemptsMessage{Filter: core.AttemptFilter{Outcome: core.AttemptOutcomeCanceled, Limit: 20}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestQueries_NilReaderReturnsRichError(t *testing.T) {
	var qry *ListAttemptsQuery
	_, err := qry.Query(context.Background(), ListAttemptsMessage{})
	if err == nil {
		t.Fatalf("expected query dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.TextCode != core.ErrorInternal {
		t.Fatalf("expected %q text code, got %q", core.ErrorInternal, rich.TextCode)
	}

	_, err = NewMaskedKeyQuery(nil).Query(context.Background(), MaskedKeyMessage{Provider: "x"})
	if err == nil {
		t.Fatalf("expected missing reader error")
	}
}
