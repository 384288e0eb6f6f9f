package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"
)

var ErrUnreachable = errors.New("database server not reachable")

type ConnConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	ConnectAttempts int
	RetryDelay      time.Duration
	ProbeTimeout    time.Duration
}

func (c ConnConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DSN builds a postgres URL for the named database.
func (c ConnConfig) DSN(database string) string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Addr(),
		Path:     "/" + database,
		RawQuery: url.Values{"sslmode": {sslMode}, "connect_timeout": {"10"}}.Encode(),
	}
	return u.String()
}

// Probe reports whether something accepts TCP connections at addr.
func Probe(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Connect probes the server, then opens and pings the pool with a bounded
// number of attempts spaced by a fixed delay.
func Connect(ctx context.Context, cfg ConnConfig, log *zerolog.Logger) (*dbpg.DB, error) {
	if !Probe(cfg.Addr(), cfg.ProbeTimeout) {
		return nil, fmt.Errorf("%w at %s: check that PostgreSQL is running, listening on that port and not firewalled",
			ErrUnreachable, cfg.Addr())
	}

	attempts := cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}

	var (
		db      *dbpg.DB
		attempt int
	)
	op := func() error {
		attempt++
		conn, err := dbpg.New(cfg.DSN(cfg.Name), nil, opts)
		if err == nil {
			err = conn.Master.PingContext(ctx)
			if err != nil {
				_ = conn.Master.Close()
			}
		}
		if err != nil {
			if attempt < attempts {
				log.Warn().Err(err).
					Int("attempt", attempt).
					Dur("retry_in", cfg.RetryDelay).
					Msg("database connection attempt failed, retrying")
			}
			return err
		}
		db = conn
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(cfg.RetryDelay), uint64(attempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL at %s after %d attempts: %w", cfg.Addr(), attempt, err)
	}

	log.Info().Str("addr", cfg.Addr()).Str("database", cfg.Name).Int("attempts", attempt).Msg("database connected")
	return db, nil
}

// EnsureDatabase creates cfg.Name on the server when it does not exist yet.
// Losing a creation race to another process counts as success.
func EnsureDatabase(ctx context.Context, cfg ConnConfig, log *zerolog.Logger) error {
	admin, err := sql.Open("postgres", cfg.DSN("postgres"))
	if err != nil {
		return fmt.Errorf("open maintenance connection: %w", err)
	}
	defer admin.Close()

	var exists bool
	err = admin.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, cfg.Name,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check database %q: %w", cfg.Name, err)
	}
	if exists {
		return nil
	}

	_, err = admin.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(cfg.Name)+" ENCODING 'UTF8'")
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && (pqErr.Code == "42P04" || pqErr.Code == "23505") {
			return nil
		}
		return fmt.Errorf("create database %q: %w", cfg.Name, err)
	}

	log.Info().Str("database", cfg.Name).Msg("database created")
	return nil
}
