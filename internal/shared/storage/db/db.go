package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver

	"sourcing-backend/internal/shared/telemetry"
)

// Options controls the pool shared by the classification, report, knowledge
// and usage repositories.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// Profile names a process shape with its own pool sizing.
type Profile string

const (
	// ProfileServer is the long-running API and SQS worker.
	ProfileServer Profile = "server"
	// ProfileLambda keeps each instance to two connections; Lambda scales
	// out by instance count instead.
	ProfileLambda Profile = "lambda"
	// ProfileMigrate is the one-shot migration CLI.
	ProfileMigrate Profile = "migrate"
)

var profileDefaults = map[Profile]Options{
	ProfileServer:  {MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxIdleTime: 2 * time.Minute, ConnMaxLifetime: time.Hour, PingTimeout: 5 * time.Second},
	ProfileLambda:  {MaxOpenConns: 2, MaxIdleConns: 1, ConnMaxIdleTime: 30 * time.Second, ConnMaxLifetime: 15 * time.Minute, PingTimeout: 3 * time.Second},
	ProfileMigrate: {MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxIdleTime: 2 * time.Minute, ConnMaxLifetime: time.Hour, PingTimeout: 5 * time.Second},
}

var openDB = sql.Open

// DetectProfile picks ProfileLambda inside AWS Lambda and ProfileServer
// everywhere else.
func DetectProfile() Profile {
	if strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != "" {
		return ProfileLambda
	}
	return ProfileServer
}

// OptionsFor returns the profile defaults with DB_* env overrides applied.
// Unparseable overrides are logged and ignored.
func OptionsFor(p Profile) Options {
	opts, ok := profileDefaults[p]
	if !ok {
		opts = profileDefaults[ProfileServer]
	}
	overrides := []struct {
		key string
		n   *int
		d   *time.Duration
	}{
		{key: "DB_MAX_OPEN_CONNS", n: &opts.MaxOpenConns},
		{key: "DB_MAX_IDLE_CONNS", n: &opts.MaxIdleConns},
		{key: "DB_CONN_MAX_LIFETIME", d: &opts.ConnMaxLifetime},
		{key: "DB_CONN_MAX_IDLE_TIME", d: &opts.ConnMaxIdleTime},
		{key: "DB_PING_TIMEOUT", d: &opts.PingTimeout},
	}
	for _, o := range overrides {
		raw := strings.TrimSpace(os.Getenv(o.key))
		if raw == "" {
			continue
		}
		var err error
		if o.n != nil {
			var v int
			if v, err = strconv.Atoi(raw); err == nil {
				*o.n = v
			}
		} else {
			var v time.Duration
			if v, err = time.ParseDuration(raw); err == nil {
				*o.d = v
			}
		}
		if err != nil {
			telemetry.Warn("db.env.invalid", map[string]any{"key": o.key, "error": err})
		}
	}
	return opts
}

// Open connects for profile p. Lambda instances reuse one pool across
// invocations; other profiles get a fresh pool the caller owns.
func Open(ctx context.Context, databaseURL string, p Profile) (*sql.DB, error) {
	if p == ProfileLambda {
		return Shared(ctx, databaseURL, OptionsFor(p))
	}
	return Connect(ctx, databaseURL, OptionsFor(p))
}

// Connect opens the pgx-backed pool and pings it.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}

	conn, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	applyOptions(conn, opts)

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	telemetry.Info("db.init", PoolStats(conn))
	return conn, nil
}

var shared struct {
	mu sync.Mutex
	db *sql.DB
}

// Shared returns the process-wide pool, connecting on first use. A failed
// connect is not cached so the next invocation retries.
func Shared(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.db != nil {
		return shared.db, nil
	}
	conn, err := Connect(ctx, databaseURL, opts)
	if err != nil {
		telemetry.Error("db.shared.init_failed", map[string]any{"error": err})
		return nil, err
	}
	telemetry.Info("db.shared.cold_start", nil)
	shared.db = conn
	return conn, nil
}

func applyOptions(conn *sql.DB, opts Options) {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	conn.SetMaxOpenConns(opts.MaxOpenConns)
	conn.SetMaxIdleConns(opts.MaxIdleConns)
	conn.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		conn.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

// WithTx runs fn in a transaction, committing when fn returns nil.
func WithTx(ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error) error {
	if conn == nil {
		return errors.New("database not configured")
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// PoolStats summarizes pool usage for logs and the health endpoint.
func PoolStats(conn *sql.DB) map[string]any {
	stats := conn.Stats()
	return map[string]any{
		"open":     stats.OpenConnections,
		"in_use":   stats.InUse,
		"idle":     stats.Idle,
		"wait":     stats.WaitCount,
		"max_open": stats.MaxOpenConnections,
		"wait_ms":  stats.WaitDuration.Milliseconds(),
	}
}
