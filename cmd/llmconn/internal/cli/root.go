// Package cli builds the llmconn command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	llmconnections "github.com/goliatone/go-llm-connections"
	"github.com/goliatone/go-llm-connections/adapters/prommetrics"
	"github.com/goliatone/go-llm-connections/core"
	cachestore "github.com/goliatone/go-llm-connections/store/cache"
	sqlstore "github.com/goliatone/go-llm-connections/store/sql"
	"github.com/goliatone/go-llm-connections/transport"
)

// Settings holds the global flags.
type Settings struct {
	BaseURL             string
	RoutePrefix         string
	ProjectID           string
	Token               string
	EnvFile             string
	Timeout             time.Duration
	AllowDefaultProject bool
	DefaultProject      string
	DBDriver            string
	DBDSN               string
	CacheTTL            time.Duration
	Metrics             bool
	Verbose             bool
}

type App struct {
	Settings Settings
	// HTTPClient replaces the default http.Client when set.
	HTTPClient transport.HTTPDoer
	// Environ replaces os.Environ when set.
	Environ func() []string
}

func NewApp() *App {
	return &App{}
}

func (app *App) CreateRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "llmconn",
		Short: "Manage LLM provider connections on an RPC backend",
		Long: `llmconn creates, updates, lists, tests and deletes LLM provider API key
connections for a project. Every call negotiates the request envelope the
backend accepts and reports the backend's own error message on failure.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.Settings.BaseURL, "base-url", "", "Backend base URL (LLMCONN_BASE_URL)")
	flags.StringVar(&app.Settings.RoutePrefix, "route", "", "RPC route prefix (default /rpc)")
	flags.StringVarP(&app.Settings.ProjectID, "project", "p", "", "Project id every call is scoped to")
	flags.StringVar(&app.Settings.Token, "token", "", "Bearer token (LLMCONN_TOKEN)")
	flags.StringVar(&app.Settings.EnvFile, "env-file", "", "Dotenv file with LLMCONN_* settings; process environment wins")
	flags.DurationVar(&app.Settings.Timeout, "timeout", 0, "Per-request timeout (default 30s)")
	flags.BoolVar(&app.Settings.AllowDefaultProject, "allow-default-project", false, "Fall back to --default-project when --project is empty")
	flags.StringVar(&app.Settings.DefaultProject, "default-project", "", "Fallback project id")
	flags.StringVar(&app.Settings.DBDriver, "db-driver", sqlstore.DriverSQLite, "Attempt ledger driver (sqlite3, postgres)")
	flags.StringVar(&app.Settings.DBDSN, "db-dsn", "", "Attempt ledger DSN; empty disables the ledger")
	flags.DurationVar(&app.Settings.CacheTTL, "cache-ttl", 0, "List snapshot cache TTL; zero disables the cache")
	flags.BoolVar(&app.Settings.Metrics, "metrics", false, "Print Prometheus metrics to stderr after the command")
	flags.BoolVarP(&app.Settings.Verbose, "verbose", "v", false, "Log RPC attempts to stderr")

	app.addConnectionCommands(rootCmd)
	app.addQueryCommands(rootCmd)
	return rootCmd
}

type runtime struct {
	facade   *llmconnections.Facade
	attempts *sqlstore.AttemptStore
	registry *prometheus.Registry
	db       *persistence.Client
}

func (r *runtime) close() {
	if r != nil && r.db != nil {
		_ = r.db.Close()
	}
}

func (app *App) openLedger(ctx context.Context) (*persistence.Client, *sqlstore.AttemptStore, error) {
	if strings.TrimSpace(app.Settings.DBDSN) == "" {
		return nil, nil, nil
	}
	client, err := sqlstore.Open(ctx, sqlstore.OpenOptions{
		Driver:  app.Settings.DBDriver,
		DSN:     app.Settings.DBDSN,
		Migrate: true,
	})
	if err != nil {
		return nil, nil, err
	}
	store, err := sqlstore.NewAttemptStoreFromPersistence(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return client, store, nil
}

func (app *App) open(cmd *cobra.Command) (*runtime, error) {
	ctx := cmd.Context()
	loader := EnvFileLoader{Path: app.Settings.EnvFile, Environ: app.Environ}
	env, err := loader.values()
	if err != nil {
		return nil, err
	}

	rt := &runtime{}
	rt.db, rt.attempts, err = app.openLedger(ctx)
	if err != nil {
		return nil, err
	}

	opts := llmconnections.SetupOptions{
		HTTPClient:   app.HTTPClient,
		ConfigLoader: loader,
	}
	token := strings.TrimSpace(app.Settings.Token)
	if token == "" {
		token = strings.TrimSpace(env[EnvTokenKey])
	}
	if token != "" {
		opts.Signer = transport.BearerTokenSigner{Token: token}
	}
	if app.Settings.Verbose {
		opts.Logger = newCharmLogger(cmd.ErrOrStderr())
	}
	if app.Settings.Metrics {
		rt.registry = prometheus.NewRegistry()
		opts.MetricsRecorder = prommetrics.NewRecorder(rt.registry)
	}
	if rt.attempts != nil {
		opts.AttemptRecorder = rt.attempts
	}
	if app.Settings.CacheTTL > 0 {
		cache, err := cachestore.NewDefaultListSnapshotCache(app.Settings.CacheTTL)
		if err != nil {
			rt.close()
			return nil, err
		}
		opts.ListCache = cache
	}

	client, err := llmconnections.Setup(ctx, app.runtimeConfig(), opts)
	if err != nil {
		rt.close()
		return nil, err
	}
	var facadeOpts []llmconnections.FacadeOption
	if rt.attempts != nil {
		facadeOpts = append(facadeOpts, llmconnections.WithAttemptReader(rt.attempts))
	}
	rt.facade, err = llmconnections.NewFacade(client, facadeOpts...)
	if err != nil {
		rt.close()
		return nil, err
	}
	return rt, nil
}

func (app *App) runtimeConfig() core.Config {
	cfg := core.Config{
		BaseURL:     strings.TrimSpace(app.Settings.BaseURL),
		RoutePrefix: strings.TrimSpace(app.Settings.RoutePrefix),
		Timeout:     app.Settings.Timeout,
	}
	if app.Settings.AllowDefaultProject {
		cfg.Project.AllowDefault = true
	}
	cfg.Project.DefaultID = strings.TrimSpace(app.Settings.DefaultProject)
	return cfg
}

func (app *App) finish(cmd *cobra.Command, rt *runtime) error {
	defer rt.close()
	if rt.registry == nil {
		return nil
	}
	families, err := rt.registry.Gather()
	if err != nil {
		return fmt.Errorf("cli: gather metrics: %w", err)
	}
	encoder := expfmt.NewEncoder(cmd.ErrOrStderr(), expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			return fmt.Errorf("cli: encode metrics: %w", err)
		}
	}
	return nil
}

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
