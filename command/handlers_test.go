package command

import (
	"context"
	"errors"
	"testing"

	gocmd "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-llm-connections/core"
)

type stubMutatingService struct {
	createFn func(context.Context, core.InputSource, core.CallOptions) (any, error)
	updateFn func(context.Context, string, core.InputSource, core.CallOptions) (any, error)
	upsertFn func(context.Context, core.InputSource, core.CallOptions) (any, error)
	deleteFn func(context.Context, string, core.CallOptions) (any, error)
	testFn   func(context.Context, core.InputSource, core.CallOptions) (any, error)
}

func (s stubMutatingService) Create(ctx context.Context, src core.InputSource, opts core.CallOptions) (any, error) {
	if s.createFn == nil {
		return nil, nil
	}
	return s.createFn(ctx, src, opts)
}

func (s stubMutatingService) Update(ctx context.Context, id string, src core.InputSource, opts core.CallOptions) (any, error) {
	if s.updateFn == nil {
		return nil, nil
	}
	return s.updateFn(ctx, id, src, opts)
}

func (s stubMutatingService) Upsert(ctx context.Context, src core.InputSource, opts core.CallOptions) (any, error) {
	if s.upsertFn == nil {
		return nil, nil
	}
	return s.upsertFn(ctx, src, opts)
}

func (s stubMutatingService) Delete(ctx context.Context, id string, opts core.CallOptions) (any, error) {
	if s.deleteFn == nil {
		return nil, nil
	}
	return s.deleteFn(ctx, id, opts)
}

func (s stubMutatingService) Test(ctx context.Context, src core.InputSource, opts core.CallOptions) (any, error) {
	if s.testFn == nil {
		return nil, nil
	}
	return s.testFn(ctx, src, opts)
}

func TestCreateConnectionCommand_ExecuteDelegatesAndStoresResult(t *testing.T) {
	called := false
	svc := stubMutatingService{
		createFn: func(_ context.Context, src core.InputSource, opts core.CallOptions) (any, error) {
			called = true
			if src.ConnectionInput().Name != "openai-main" {
				t.Fatalf("expected name openai-main, got %q", src.ConnectionInput().Name)
			}
			if opts.ProjectID != "proj_123" {
				t.Fatalf("expected project proj_123, got %q", opts.ProjectID)
			}
			return map[string]any{"id": "conn_1"}, nil
		},
	}

	cmd := NewCreateConnectionCommand(svc)
	collector := gocmd.NewResult[any]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := cmd.Execute(ctx, CreateConnectionMessage{
		Input:     core.Input{Name: "openai-main", APIKey: "sk-test"},
		ProjectID: "proj_123",
	})
	if err != nil {
		t.Fatalf("execute create: %v", err)
	}
	if !called {
		t.Fatalf("expected create service invocation")
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result.(map[string]any)["id"] != "conn_1" {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestMutationCommands_DelegateToService(t *testing.T) {
	t.Run("update", func(t *testing.T) {
		called := false
		svc := stubMutatingService{
			updateFn: func(_ context.Context, id string, _ core.InputSource, opts core.CallOptions) (any, error) {
				called = true
				if id != "conn_1" || opts.ProjectID != "p" {
					t.Fatalf("unexpected update payload: %q %q", id, opts.ProjectID)
				}
				return nil, nil
			},
		}
		err := NewUpdateConnectionCommand(svc).Execute(context.Background(), UpdateConnectionMessage{
			ID: "conn_1", Input: core.Input{Name: "n"}, ProjectID: "p",
		})
		if err != nil || !called {
			t.Fatalf("expected update delegation, err=%v", err)
		}
	})

	t.Run("upsert", func(t *testing.T) {
		called := false
		svc := stubMutatingService{
			upsertFn: func(context.Context, core.InputSource, core.CallOptions) (any, error) {
				called = true
				return nil, nil
			},
		}
		if err := NewUpsertConnectionCommand(svc).Execute(context.Background(), UpsertConnectionMessage{Input: core.Input{Name: "n"}}); err != nil || !called {
			t.Fatalf("expected upsert delegation, err=%v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		called := false
		svc := stubMutatingService{
			deleteFn: func(_ context.Context, id string, _ core.CallOptions) (any, error) {
				called = true
				if id != "conn_9" {
					t.Fatalf("unexpected delete id %q", id)
				}
				return nil, nil
			},
		}
		if err := NewDeleteConnectionCommand(svc).Execute(context.Background(), DeleteConnectionMessage{ID: "conn_9"}); err != nil || !called {
			t.Fatalf("expected delete delegation, err=%v", err)
		}
	})

	t.Run("test propagates errors", func(t *testing.T) {
		sentinel := errors.New("backend down")
		svc := stubMutatingService{
			testFn: func(context.Context, core.InputSource, core.CallOptions) (any, error) {
				return nil, sentinel
			},
		}
		err := NewTestConnectionCommand(svc).Execute(context.Background(), TestConnectionMessage{Input: core.Input{Name: "n"}})
		if !errors.Is(err, sentinel) {
			t.Fatalf("expected service error, got %v", err)
		}
	})
}

func TestCreateConnectionMessage_ValidateReturnsRichError(t *testing.T) {
	err := (CreateConnectionMessage{Input: core.Input{Name: "openai-main"}}).Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.TextCode != core.ErrorConfiguration {
		t.Fatalf("expected %q text code, got %q", core.ErrorConfiguration, rich.TextCode)
	}
}

func TestMessages_Validate(t *testing.T) {
	cases := []struct {
		name    string
		msg     interface{ Validate() error }
		wantErr bool
	}{
		{name: "create ok", msg: CreateConnectionMessage{Input: core.Input{Name: "n", APIKey: "k"}, ProjectID: "p"}},
		{name: "create blank project", msg: CreateConnectionMessage{Input: core.Input{Name: "n", APIKey: "k"}, ProjectID: "  "}, wantErr: true},
		{name: "update missing id", msg: UpdateConnectionMessage{Input: core.Input{Name: "n"}}, wantErr: true},
		{name: "update ok", msg: UpdateConnectionMessage{ID: "c", Input: core.Input{Name: "n"}}},
		{name: "upsert missing name", msg: UpsertConnectionMessage{}, wantErr: true},
		{name: "delete missing id", msg: DeleteConnectionMessage{}, wantErr: true},
		{name: "test ok", msg: TestConnectionMessage{Input: core.Input{Name: "n"}}},
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

func TestCreateConnectionCommand_NilServiceReturnsRichError(t *testing.T) {
	var cmd *CreateConnectionCommand
	err := cmd.Execute(context.Background(), CreateConnectionMessage{})
	if err == nil {
		t.Fatalf("expected command dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
}
