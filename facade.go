package llmconnections

import (
	"fmt"

	llmcommand "github.com/goliatone/go-llm-connections/command"
	"github.com/goliatone/go-llm-connections/core"
	llmquery "github.com/goliatone/go-llm-connections/query"
)

type CommandQueryService interface {
	llmcommand.MutatingService
	llmquery.ConnectionReader
}

type Commands struct {
	Create *llmcommand.CreateConnectionCommand
	Update *llmcommand.UpdateConnectionCommand
	Upsert *llmcommand.UpsertConnectionCommand
	Delete *llmcommand.DeleteConnectionCommand
	Test   *llmcommand.TestConnectionCommand
}

type Queries struct {
	List      *llmquery.ListConnectionsQuery
	MaskedKey *llmquery.MaskedKeyQuery
	Attempts  *llmquery.ListAttemptsQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	attemptReader core.AttemptReader
}

func WithAttemptReader(reader core.AttemptReader) FacadeOption {
	return func(options *facadeOptions) {
		options.attemptReader = reader
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("llmconnections: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reader := cfg.attemptReader
	if reader == nil {
		if candidate, ok := service.(core.AttemptReader); ok {
			reader = candidate
		}
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		Create: llmcommand.NewCreateConnectionCommand(service),
		Update: llmcommand.NewUpdateConnectionCommand(service),
		Upsert: llmcommand.NewUpsertConnectionCommand(service),
		Delete: llmcommand.NewDeleteConnectionCommand(service),
		Test:   llmcommand.NewTestConnectionCommand(service),
	}
	facade.queries = Queries{
		List:      llmquery.NewListConnectionsQuery(service),
		MaskedKey: llmquery.NewMaskedKeyQuery(service),
		Attempts:  llmquery.NewListAttemptsQuery(reader),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
