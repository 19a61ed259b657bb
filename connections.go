package llmconnections

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goliatone/go-llm-connections/adapters/gologger"
	"github.com/goliatone/go-llm-connections/core"
	"github.com/goliatone/go-llm-connections/envelope"
	"github.com/goliatone/go-llm-connections/rpc"
	"github.com/goliatone/go-llm-connections/transport"
)

type Config = core.Config

type ProjectConfig = core.ProjectConfig

type ProceduresConfig = core.ProceduresConfig

type Option = core.Option

type Client = core.Client

type ClientDependencies = core.ClientDependencies

type Input = core.Input

type RawInput = core.RawInput

type ExtraHeader = core.ExtraHeader

type CallOptions = core.CallOptions

type AttemptRecord = core.AttemptRecord

type AttemptFilter = core.AttemptFilter

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithInvoker           = core.WithInvoker
	WithListSnapshotCache = core.WithListSnapshotCache
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// NewClient builds a client over an already constructed invoker, passed
// with WithInvoker. Setup builds the whole stack instead.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	return core.NewClient(cfg, opts...)
}

// SetupOptions carries the collaborators Setup wires into the transport,
// the invoker and the client. Every field is optional.
type SetupOptions struct {
	HTTPClient      transport.HTTPDoer
	Signer          core.CredentialSigner
	DefaultHeaders  map[string]string
	ConfigLoader    core.RawConfigLoader
	Logger          core.Logger
	LoggerProvider  core.LoggerProvider
	MetricsRecorder core.MetricsRecorder
	AttemptRecorder core.AttemptRecorder
	ListCache       core.ListSnapshotCache
	Formats         []envelope.Format
}

// Setup resolves cfg against the config loader and builds the REST
// transport, the negotiating invoker and the client from the same resolved
// values.
func Setup(ctx context.Context, cfg Config, opts SetupOptions) (*Client, error) {
	resolved, err := core.ResolveConfig(ctx, opts.ConfigLoader, cfg)
	if err != nil {
		return nil, err
	}
	if err := resolved.Validate(); err != nil {
		return nil, core.ConfigurationError("config", err.Error())
	}
	if resolved.BaseURL == "" {
		return nil, core.ConfigurationError("base_url", "llmconnections: base url is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	rest := transport.NewRESTAdapter(httpClient)
	rest.Signer = opts.Signer
	rest.Timeout = resolved.Timeout
	rest.MaxResponseBodyBytes = resolved.MaxResponseBodyBytes
	for key, value := range opts.DefaultHeaders {
		rest.DefaultHeaders[key] = value
	}

	_, rpcLogger := gologger.Resolve("rpc", opts.LoggerProvider, opts.Logger)
	invoker, err := rpc.NewInvoker(rpc.Config{
		BaseURL:              resolved.BaseURL,
		RoutePrefix:          resolved.RoutePrefix,
		Timeout:              resolved.Timeout,
		MaxResponseBodyBytes: resolved.MaxResponseBodyBytes,
		Transport:            rest,
		Logger:               rpcLogger,
		Metrics:              opts.MetricsRecorder,
		Recorder:             opts.AttemptRecorder,
		Formats:              opts.Formats,
	})
	if err != nil {
		return nil, fmt.Errorf("llmconnections: build invoker: %w", err)
	}

	clientOpts := []Option{
		WithInvoker(invoker),
		WithConfigProvider(provider),
	}
	if opts.Logger != nil {
		clientOpts = append(clientOpts, WithLogger(opts.Logger))
	}
	if opts.LoggerProvider != nil {
		clientOpts = append(clientOpts, WithLoggerProvider(opts.LoggerProvider))
	}
	if opts.MetricsRecorder != nil {
		clientOpts = append(clientOpts, WithMetricsRecorder(opts.MetricsRecorder))
	}
	if opts.ListCache != nil {
		clientOpts = append(clientOpts, WithListSnapshotCache(opts.ListCache))
	}
	return core.NewClient(resolved, clientOpts...)
}
