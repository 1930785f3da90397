// Package postgres stores field value counters in a Postgres table with one
// row per counter name and field value.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var errNameRequired = errors.New("postgres: counter name is required")

var retryablePGCodes = map[string]struct{}{
	pgerrcode.ConnectionException:                           {},
	pgerrcode.ConnectionDoesNotExist:                        {},
	pgerrcode.ConnectionFailure:                             {},
	pgerrcode.SQLClientUnableToEstablishSQLConnection:       {},
	pgerrcode.SQLServerRejectedEstablishmentOfSQLConnection: {},
	pgerrcode.TransactionResolutionUnknown:                  {},
	pgerrcode.SerializationFailure:                          {},
	pgerrcode.DeadlockDetected:                              {},
	pgerrcode.LockNotAvailable:                              {},
	pgerrcode.TooManyConnections:                            {},
	pgerrcode.AdminShutdown:                                 {},
	pgerrcode.CrashShutdown:                                 {},
	pgerrcode.CannotConnectNow:                              {},
}

// Writer upserts counter rows, retrying transient Postgres failures.
type Writer struct {
	db       *sql.DB
	maxTries uint
	initial  time.Duration
	max      time.Duration
}

// Option tunes a Writer.
type Option func(*Writer)

// WithRetry sets the number of attempts and the backoff bounds.
func WithRetry(maxTries uint, initial, max time.Duration) Option {
	return func(w *Writer) {
		w.maxTries = maxTries
		w.initial = initial
		w.max = max
	}
}

// New wraps an open database handle. The caller owns db.
func New(db *sql.DB, opts ...Option) *Writer {
	w := &Writer{
		db:       db,
		maxTries: 4,
		initial:  100 * time.Millisecond,
		max:      2 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Open connects with lib/pq and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func (w *Writer) Increment(ctx context.Context, name, value string, amount float64) error {
	if name == "" {
		return errNameRequired
	}
	const q = `
INSERT INTO field_value_counters (name, value, count, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (name, value)
DO UPDATE SET count = field_value_counters.count + EXCLUDED.count, updated_at = now();`

	return w.retry(ctx, func() error {
		_, err := w.db.ExecContext(ctx, q, name, value, amount)
		return err
	})
}

// Counts returns every value and count stored for the counter.
func (w *Writer) Counts(ctx context.Context, name string) (map[string]float64, error) {
	const q = `SELECT value, count FROM field_value_counters WHERE name = $1`

	var out map[string]float64
	err := w.retry(ctx, func() error {
		rows, err := w.db.QueryContext(ctx, q, name)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make(map[string]float64)
		for rows.Next() {
			var (
				value string
				count float64
			)
			if err := rows.Scan(&value, &count); err != nil {
				return err
			}
			out[value] = count
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (w *Writer) Reset(ctx context.Context, name string) error {
	const q = `DELETE FROM field_value_counters WHERE name = $1`
	return w.retry(ctx, func() error {
		_, err := w.db.ExecContext(ctx, q, name)
		return err
	})
}

func (w *Writer) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.initial
	b.MaxInterval = w.max

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := op()
		if err != nil && !IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(w.maxTries))
	return err
}

// IsRetryable reports whether err is a transient connection or concurrency
// failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var pqe *pq.Error
	if errors.As(err, &pqe) {
		return isRetryablePGCode(string(pqe.Code))
	}
	return false
}

func isRetryablePGCode(code string) bool {
	if _, ok := retryablePGCodes[code]; ok {
		return true
	}
	// class 08 connection exceptions, class 40 transaction rollbacks
	return strings.HasPrefix(code, "08") || strings.HasPrefix(code, "40")
}
