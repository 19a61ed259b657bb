package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	llmcommand "github.com/goliatone/go-llm-connections/command"
	"github.com/goliatone/go-llm-connections/core"
	llmquery "github.com/goliatone/go-llm-connections/query"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) register(handler any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(handler)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

// AddQueueResolver mirrors every registered command into a go-job queue
// registry so hosts can run connection mutations from a worker.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.register(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := commanddispatcher.SubscribeQuery(qry, runnerOpts...)
	if err := adapter.register(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// ConnectionClient is the surface the connection handlers dispatch to.
type ConnectionClient interface {
	llmcommand.MutatingService
	llmquery.ConnectionReader
}

// Subscriptions keeps the dispatcher subscriptions of registered handlers.
type Subscriptions []commanddispatcher.Subscription

func (s Subscriptions) Unsubscribe() {
	for _, subscription := range s {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
}

// RegisterConnectionHandlers subscribes every connection command and query.
// The attempt listing query is only registered when attempts is set. On
// failure, subscriptions made so far are released.
func RegisterConnectionHandlers(
	adapter *RegistryAdapter,
	client ConnectionClient,
	attempts core.AttemptReader,
) (Subscriptions, error) {
	if client == nil {
		return nil, fmt.Errorf("gocommand: connection client is required")
	}
	var subs Subscriptions
	add := func(sub commanddispatcher.Subscription, err error) error {
		if err != nil {
			subs.Unsubscribe()
			return err
		}
		subs = append(subs, sub)
		return nil
	}

	if err := add(RegisterAndSubscribe[llmcommand.CreateConnectionMessage](adapter, llmcommand.NewCreateConnectionCommand(client))); err != nil {
		return nil, err
	}
	if err := add(RegisterAndSubscribe[llmcommand.UpdateConnectionMessage](adapter, llmcommand.NewUpdateConnectionCommand(client))); err != nil {
		return nil, err
	}
	if err := add(RegisterAndSubscribe[llmcommand.UpsertConnectionMessage](adapter, llmcommand.NewUpsertConnectionCommand(client))); err != nil {
		return nil, err
	}
	if err := add(RegisterAndSubscribe[llmcommand.DeleteConnectionMessage](adapter, llmcommand.NewDeleteConnectionCommand(client))); err != nil {
		return nil, err
	}
	if err := add(RegisterAndSubscribe[llmcommand.TestConnectionMessage](adapter, llmcommand.NewTestConnectionCommand(client))); err != nil {
		return nil, err
	}
	if err := add(RegisterAndSubscribeQuery[llmquery.ListConnectionsMessage, []any](adapter, llmquery.NewListConnectionsQuery(client))); err != nil {
		return nil, err
	}
	if err := add(RegisterAndSubscribeQuery[llmquery.MaskedKeyMessage, string](adapter, llmquery.NewMaskedKeyQuery(client))); err != nil {
		return nil, err
	}
	if attempts != nil {
		if err := add(RegisterAndSubscribeQuery[llmquery.ListAttemptsMessage, []core.AttemptRecord](adapter, llmquery.NewListAttemptsQuery(attempts))); err != nil {
			return nil, err
		}
	}
	return subs, nil
}
