package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-llm-connections/migrations"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type OpenOptions struct {
	Driver      string
	DSN         string
	Debug       bool
	PingTimeout time.Duration
	// Migrate applies the embedded attempt ledger migrations after connecting.
	Migrate bool
}

type persistenceConfig struct {
	driver      string
	server      string
	debug       bool
	pingTimeout time.Duration
}

func (c persistenceConfig) GetDebug() bool                { return c.debug }
func (c persistenceConfig) GetDriver() string             { return c.driver }
func (c persistenceConfig) GetServer() string             { return c.server }
func (c persistenceConfig) GetPingTimeout() time.Duration { return c.pingTimeout }
func (c persistenceConfig) GetOtelIdentifier() string     { return "go-llm-connections" }

// Open connects a go-persistence-bun client for sqlite3 or postgres.
func Open(ctx context.Context, opts OpenOptions) (*persistence.Client, error) {
	driver, dialect, migrationDialect, err := resolveDriver(opts.Driver)
	if err != nil {
		return nil, err
	}
	dsn := strings.TrimSpace(opts.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("sqlstore: dsn is required for %s", driver)
	}
	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(persistenceConfig{
		driver:      driver,
		server:      dsn,
		debug:       opts.Debug,
		pingTimeout: pingTimeout,
	}, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}
	if !opts.Migrate {
		return client, nil
	}

	_, err = migrations.Register(ctx, func(_ context.Context, set migrations.Set) error {
		client.RegisterSQLMigrations(set.FS)
		return nil
	}, migrationDialect)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return client, nil
}

func resolveDriver(driver string) (string, schema.Dialect, string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", DriverSQLite:
		return DriverSQLite, sqlitedialect.New(), migrations.DialectSQLite, nil
	case DriverPostgres, "postgresql", "pg":
		return DriverPostgres, pgdialect.New(), migrations.DialectPostgres, nil
	default:
		return "", nil, "", fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}
