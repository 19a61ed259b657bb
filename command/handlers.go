package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-llm-connections/core"
)

type MutatingService interface {
	Create(ctx context.Context, source core.InputSource, opts core.CallOptions) (any, error)
	Update(ctx context.Context, id string, source core.InputSource, opts core.CallOptions) (any, error)
	Upsert(ctx context.Context, source core.InputSource, opts core.CallOptions) (any, error)
	Delete(ctx context.Context, id string, opts core.CallOptions) (any, error)
	Test(ctx context.Context, source core.InputSource, opts core.CallOptions) (any, error)
}

type CreateConnectionCommand struct {
	service MutatingService
}

func NewCreateConnectionCommand(service MutatingService) *CreateConnectionCommand {
	return &CreateConnectionCommand{service: service}
}

func (c *CreateConnectionCommand) Execute(ctx context.Context, msg CreateConnectionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: create connection service is required")
	}
	out, err := c.service.Create(ctx, msg.Input, core.CallOptions{ProjectID: msg.ProjectID})
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateConnectionCommand struct {
	service MutatingService
}

func NewUpdateConnectionCommand(service MutatingService) *UpdateConnectionCommand {
	return &UpdateConnectionCommand{service: service}
}

func (c *UpdateConnectionCommand) Execute(ctx context.Context, msg UpdateConnectionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: update connection service is required")
	}
	out, err := c.service.Update(ctx, msg.ID, msg.Input, core.CallOptions{ProjectID: msg.ProjectID})
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpsertConnectionCommand struct {
	service MutatingService
}

func NewUpsertConnectionCommand(service MutatingService) *UpsertConnectionCommand {
	return &UpsertConnectionCommand{service: service}
}

func (c *UpsertConnectionCommand) Execute(ctx context.Context, msg UpsertConnectionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: upsert connection service is required")
	}
	out, err := c.service.Upsert(ctx, msg.Input, core.CallOptions{ProjectID: msg.ProjectID})
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteConnectionCommand struct {
	service MutatingService
}

func NewDeleteConnectionCommand(service MutatingService) *DeleteConnectionCommand {
	return &DeleteConnectionCommand{service: service}
}

func (c *DeleteConnectionCommand) Execute(ctx context.Context, msg DeleteConnectionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: delete connection service is required")
	}
	out, err := c.service.Delete(ctx, msg.ID, core.CallOptions{ProjectID: msg.ProjectID})
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type TestConnectionCommand struct {
	service MutatingService
}

func NewTestConnectionCommand(service MutatingService) *TestConnectionCommand {
	return &TestConnectionCommand{service: service}
}

func (c *TestConnectionCommand) Execute(ctx context.Context, msg TestConnectionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: test connection service is required")
	}
	out, err := c.service.Test(ctx, msg.Input, core.CallOptions{ProjectID: msg.ProjectID})
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

// storeResult hands the decoded value to a result collector on ctx, if any.
func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
