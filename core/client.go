package core

import (
	"context"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Client is the connection resource client. It normalizes caller input,
// builds resource payloads and delegates every call to a ProcedureInvoker.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	invoker         ProcedureInvoker
	listCache       ListSnapshotCache
}

type ClientDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	Invoker         ProcedureInvoker
	ListCache       ListSnapshotCache
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	builder := defaultClientBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve(DefaultServiceName, builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger(DefaultServiceName); named != nil {
			logger = glog.Ensure(named)
		}
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.invoker == nil {
		return nil, InternalError("core: procedure invoker is required")
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, err
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, err
	}

	return &Client{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		invoker:         builder.invoker,
		listCache:       builder.listCache,
	}, nil
}

func (c *Client) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.config
}

func (c *Client) Dependencies() ClientDependencies {
	if c == nil {
		return ClientDependencies{}
	}
	return ClientDependencies{
		Logger:          c.logger,
		LoggerProvider:  c.loggerProvider,
		MetricsRecorder: c.metricsRecorder,
		ConfigProvider:  c.configProvider,
		OptionsResolver: c.optionsResolver,
		Invoker:         c.invoker,
		ListCache:       c.listCache,
	}
}

func (c *Client) Create(ctx context.Context, source InputSource, opts CallOptions) (result any, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() { c.observeOperation(ctx, startedAt, "create", err, fields) }()

	if err = c.ready(); err != nil {
		return nil, err
	}
	projectID, err := c.resolveProjectID(opts)
	if err != nil {
		return nil, err
	}
	in := c.normalize(source)
	annotate(fields, projectID, in)

	payload, err := buildCreatePayload(projectID, in)
	if err != nil {
		return nil, err
	}
	value, err := c.invoker.Invoke(ctx, c.config.Procedures.Create, payload.Map(), Scope{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	c.invalidateList(ctx, projectID)
	return acknowledge(value, "created"), nil
}

func (c *Client) Update(ctx context.Context, id string, source InputSource, opts CallOptions) (result any, err error) {
	startedAt := time.Now()
	fields := map[string]any{"connection_id": strings.TrimSpace(id)}
	defer func() { c.observeOperation(ctx, startedAt, "update", err, fields) }()

	if err = c.ready(); err != nil {
		return nil, err
	}
	projectID, err := c.resolveProjectID(opts)
	if err != nil {
		return nil, err
	}
	in := c.normalize(source)
	annotate(fields, projectID, in)

	payload, err := buildUpdatePayload(id, projectID, in)
	if err != nil {
		return nil, err
	}
	value, err := c.invoker.Invoke(ctx, c.config.Procedures.Update, payload.Map(), Scope{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	c.invalidateList(ctx, projectID)
	return acknowledge(value, "updated"), nil
}

// Upsert creates the connection and falls back to an update keyed by the
// normalized name when create fails for any reason.
func (c *Client) Upsert(ctx context.Context, source InputSource, opts CallOptions) (result any, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() { c.observeOperation(ctx, startedAt, "upsert", err, fields) }()

	if err = c.ready(); err != nil {
		return nil, err
	}
	projectID, err := c.resolveProjectID(opts)
	if err != nil {
		return nil, err
	}
	in := c.normalize(source)
	annotate(fields, projectID, in)
	opts.ProjectID = projectID

	created, createErr := c.Create(ctx, in, opts)
	if createErr == nil {
		fields["action"] = "created"
		return created, nil
	}
	// A canceled create is final; no update follows it.
	if (ctx != nil && ctx.Err() != nil) || IsCanceledError(createErr) {
		return nil, createErr
	}
	c.logWithLevel(ctx, "debug", "upsert create failed, trying update", map[string]any{
		"provider": in.Name,
		"error":    ErrorMessage(createErr),
	})

	updated, updateErr := c.Update(ctx, in.Name, in, opts)
	if updateErr == nil {
		fields["action"] = "updated"
		return updated, nil
	}
	return nil, UpsertError(createErr, updateErr)
}

func (c *Client) List(ctx context.Context, opts CallOptions) (items []any, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() { c.observeOperation(ctx, startedAt, "list", err, fields) }()

	if err = c.ready(); err != nil {
		return nil, err
	}
	projectID, err := c.resolveProjectID(opts)
	if err != nil {
		return nil, err
	}
	fields["project_id"] = projectID

	value, err := c.invoker.Invoke(ctx, c.config.Procedures.List, map[string]any{"projectId": projectID}, Scope{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	items = ListItems(value)
	fields["count"] = len(items)
	return items, nil
}

func (c *Client) Delete(ctx context.Context, id string, opts CallOptions) (result any, err error) {
	startedAt := time.Now()
	id = strings.TrimSpace(id)
	fields := map[string]any{"connection_id": id}
	defer func() { c.observeOperation(ctx, startedAt, "delete", err, fields) }()

	if err = c.ready(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ConfigurationError("id", "core: connection id is required for delete")
	}
	projectID, err := c.resolveProjectID(opts)
	if err != nil {
		return nil, err
	}
	fields["project_id"] = projectID

	payload := Payload{ID: id, ProjectID: projectID}
	value, err := c.invoker.Invoke(ctx, c.config.Procedures.Delete, payload.Map(), Scope{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	c.invalidateList(ctx, projectID)
	return acknowledge(value, "deleted"), nil
}

// Test asks the backend to verify the credential without storing it. The
// decoded value is returned as-is.
func (c *Client) Test(ctx context.Context, source InputSource, opts CallOptions) (result any, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() { c.observeOperation(ctx, startedAt, "test", err, fields) }()

	if err = c.ready(); err != nil {
		return nil, err
	}
	projectID, err := c.resolveProjectID(opts)
	if err != nil {
		return nil, err
	}
	in := c.normalize(source)
	annotate(fields, projectID, in)

	payload, err := buildTestPayload(projectID, in)
	if err != nil {
		return nil, err
	}
	return c.invoker.Invoke(ctx, c.config.Procedures.Test, payload.Map(), Scope{ProjectID: projectID})
}

func (c *Client) ready() error {
	if c == nil {
		return InternalError("core: client is nil")
	}
	if c.invoker == nil {
		return InternalError("core: procedure invoker is required")
	}
	return nil
}

// resolveProjectID never reads ambient state. The configured default is used
// only when Project.AllowDefault is set.
func (c *Client) resolveProjectID(opts CallOptions) (string, error) {
	projectID := strings.TrimSpace(opts.ProjectID)
	if projectID != "" {
		return projectID, nil
	}
	if c.config.Project.AllowDefault {
		if fallback := strings.TrimSpace(c.config.Project.DefaultID); fallback != "" {
			return fallback, nil
		}
	}
	return "", ConfigurationError("projectId", "core: project id is required")
}

func (c *Client) normalize(source InputSource) Input {
	var in Input
	if source != nil {
		in = source.ConnectionInput()
	}
	return normalizeInput(in, c.config.DefaultAdapter)
}

func (c *Client) invalidateList(ctx context.Context, projectID string) {
	if c.listCache == nil {
		return
	}
	if err := c.listCache.Invalidate(ctx, projectID); err != nil {
		c.logWithLevel(ctx, "error", "list cache invalidation failed", map[string]any{
			"project_id": projectID,
			"error":      err.Error(),
		})
	}
}

// ListItems converges the list shapes returned by different backend versions
// into one sequence: {data:[...]}, a bare sequence, a single record, or null.
func ListItems(value any) []any {
	switch typed := value.(type) {
	case nil:
		return []any{}
	case []any:
		return typed
	case map[string]any:
		if data, ok := typed["data"].([]any); ok {
			return data
		}
		return []any{typed}
	default:
		return []any{typed}
	}
}

func acknowledge(value any, action string) any {
	if value != nil {
		return value
	}
	return map[string]any{"ok": true, "action": action}
}

func annotate(fields map[string]any, projectID string, in Input) {
	if projectID != "" {
		fields["project_id"] = projectID
	}
	if in.Name != "" {
		fields["provider"] = in.Name
	}
	if in.Adapter != "" {
		fields["adapter"] = in.Adapter
	}
}
