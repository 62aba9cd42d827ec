package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"vehicle-rental/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the statement surface shared by the pool and by pgx.Tx, so
// repositories can run either standalone or inside a transaction.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PgxIface is what the repository layer needs from a pool. *pgxpool.Pool
// satisfies it directly, and so does pgxmock in tests.
type PgxIface interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var _ PgxIface = (*pgxpool.Pool)(nil)

// ConnString builds the pgx URL for cfg. Every session runs in UTC so
// timestamptz values come back in the zone the booking rules compare in.
func ConnString(cfg utils.DatabaseConfig, appName string) string {
	params := url.Values{}
	params.Set("sslmode", "disable")
	params.Set("timezone", "UTC")
	params.Set("application_name", appName)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, cfg.Port),
		Path:     cfg.Name,
		RawQuery: params.Encode(),
	}
	return u.String()
}

// InitDB creates the connection pool and verifies it with a ping.
func InitDB(ctx context.Context, cfg utils.DatabaseConfig, appName string) (PgxIface, error) {
	poolConfig, err := pgxpool.ParseConfig(ConnString(cfg, appName))
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute
	poolConfig.ConnConfig.ConnectTimeout = 5 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database %s@%s: %w", cfg.Name, cfg.Host, err)
	}

	return pool, nil
}
