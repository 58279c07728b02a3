package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"jobscout/internal/config"
	"jobscout/internal/database"
	"jobscout/internal/pkg/logger"
)

var errClosed = errors.New("postgres: pool not connected")

const defaultPingTimeout = 5 * time.Second

// DSN renders cfg as a libpq key/value connection string.
func DSN(cfg config.DatabaseConfig) string {
	sslMode := strings.TrimSpace(cfg.DBSSLMode)
	if sslMode == "" {
		sslMode = "disable"
	}
	pairs := []string{
		"host=" + strings.TrimSpace(cfg.DBHost),
		"port=" + strings.TrimSpace(cfg.DBPort),
		"user=" + strings.TrimSpace(cfg.DBUser),
		"password=" + quote(cfg.DBPassword),
		"dbname=" + strings.TrimSpace(cfg.DBName),
		"sslmode=" + sslMode,
	}
	return strings.Join(pairs, " ")
}

func quote(v string) string {
	if v == "" || strings.ContainsAny(v, ` '\`) {
		return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
	}
	return v
}

// Redacted is the connection URL with the password masked, for logs.
func Redacted(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(strings.TrimSpace(cfg.DBUser), "xxxxx"),
		Host:   strings.TrimSpace(cfg.DBHost) + ":" + strings.TrimSpace(cfg.DBPort),
		Path:   "/" + strings.TrimSpace(cfg.DBName),
	}
	return u.String()
}

// Connect opens a pool and pings it, bounded by defaultPingTimeout when ctx
// carries no deadline.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (database.DB, error) {
	log = logger.Component(log, "postgres").With(zap.String("dsn", Redacted(cfg)))

	pcfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultPingTimeout)
		defer cancel()
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		log.Error("database ping failed", zap.String(logger.FieldStatus, "error"), zap.Error(err))
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	log.Info("database connected", zap.String(logger.FieldStatus, "ok"), zap.Int32("max_conns", pcfg.MaxConns))
	return &Pool{conn: conn{q: p}, pool: p}, nil
}

// poolConfig overlays the non-zero pool settings of cfg on pgx defaults.
func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	pcfg, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, err
	}
	setDuration(&pcfg.ConnConfig.ConnectTimeout, cfg.ConnectTimeout)
	setDuration(&pcfg.MaxConnLifetime, cfg.PoolMaxConnLifetime)
	setDuration(&pcfg.MaxConnIdleTime, cfg.PoolMaxConnIdleTime)
	setDuration(&pcfg.HealthCheckPeriod, cfg.PoolHealthCheckPeriod)
	if cfg.PoolMaxConns > 0 {
		pcfg.MaxConns = cfg.PoolMaxConns
	}
	if cfg.PoolMinConns > 0 {
		pcfg.MinConns = cfg.PoolMinConns
	}
	return pcfg, nil
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

// querier is what a pool and a transaction have in common.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// conn adapts a querier to the database package's statement methods.
type conn struct {
	q querier
}

func (c conn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if c.q == nil {
		return 0, errClosed
	}
	tag, err := c.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (c conn) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	if c.q == nil {
		return nil, errClosed
	}
	rows, err := c.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c conn) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	if c.q == nil {
		return failedRow{err: errClosed}
	}
	return c.q.QueryRow(ctx, query, args...)
}

type failedRow struct{ err error }

func (r failedRow) Scan(...any) error { return r.err }

// Pool is the pgx-backed database.DB.
type Pool struct {
	conn
	pool *pgxpool.Pool
}

func (p *Pool) Ping(ctx context.Context) error {
	if p == nil || p.pool == nil {
		return errClosed
	}
	return p.pool.Ping(ctx)
}

func (p *Pool) Close() error {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Pool) Begin(ctx context.Context) (database.Tx, error) {
	if p == nil || p.pool == nil {
		return nil, errClosed
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return txConn{conn: conn{q: tx}, tx: tx}, nil
}

type txConn struct {
	conn
	tx pgx.Tx
}

func (t txConn) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t txConn) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
