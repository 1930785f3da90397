package main

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configpkg "github.com/drblury/fieldcounter/internal/runtime/config"
	"github.com/drblury/fieldcounter/internal/runtime/counter"
	pgstore "github.com/drblury/fieldcounter/internal/runtime/counter/postgres"
	redisstore "github.com/drblury/fieldcounter/internal/runtime/counter/redis"
	errspkg "github.com/drblury/fieldcounter/internal/runtime/errors"
)

func TestBuildCounterBackendMemory(t *testing.T) {
	backend, err := buildCounterBackend(context.Background(), &configpkg.Config{CounterStore: configpkg.StoreMemory}, prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.close() })

	require.IsType(t, &counter.Memory{}, backend.writer)
	require.NotNil(t, backend.store)

	require.NoError(t, backend.writer.Increment(context.Background(), "colors", "red", 1))
	counts, err := backend.store.Counts(context.Background(), "colors")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"red": 1}, counts)
}

func TestBuildCounterBackendRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	backend, err := buildCounterBackend(context.Background(), &configpkg.Config{
		CounterStore: configpkg.StoreRedis,
		RedisURL:     mr.Addr(),
	}, prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.close() })

	require.IsType(t, &redisstore.Writer{}, backend.writer)
	require.NoError(t, backend.writer.Increment(context.Background(), "colors", "red", 1))
	require.NoError(t, backend.writer.Increment(context.Background(), "colors", "red", 1))

	counts, err := backend.store.Counts(context.Background(), "colors")
	require.NoError(t, err)
	assert.Equal(t, 2.0, counts["red"])
}

func TestBuildCounterBackendRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := buildCounterBackend(context.Background(), &configpkg.Config{
		CounterStore: configpkg.StoreRedis,
		RedisURL:     addr,
	}, prometheus.NewRegistry())
	require.Error(t, err)
}

func TestBuildCounterBackendPostgres(t *testing.T) {
	origOpen, origMigrate := openPostgres, migratePostgres
	t.Cleanup(func() {
		openPostgres = origOpen
		migratePostgres = origMigrate
	})

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	var migrated bool
	openPostgres = func(ctx context.Context, dsn string) (*sql.DB, error) {
		assert.Equal(t, "postgres://counter@localhost/counters", dsn)
		return db, nil
	}
	migratePostgres = func(ctx context.Context, got *sql.DB) error {
		migrated = got == db
		return nil
	}

	backend, err := buildCounterBackend(context.Background(), &configpkg.Config{
		CounterStore: configpkg.StorePostgres,
		PostgresURL:  "postgres://counter@localhost/counters",
	}, prometheus.NewRegistry())
	require.NoError(t, err)

	assert.True(t, migrated)
	assert.IsType(t, &pgstore.Writer{}, backend.writer)
	require.NoError(t, backend.close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildCounterBackendPostgresMigrationFailure(t *testing.T) {
	origOpen, origMigrate := openPostgres, migratePostgres
	t.Cleanup(func() {
		openPostgres = origOpen
		migratePostgres = origMigrate
	})

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	openPostgres = func(context.Context, string) (*sql.DB, error) { return db, nil }
	migratePostgres = func(context.Context, *sql.DB) error { return errors.New("goose up: boom") }

	_, err = buildCounterBackend(context.Background(), &configpkg.Config{
		CounterStore: configpkg.StorePostgres,
		PostgresURL:  "postgres://counter@localhost/counters",
	}, prometheus.NewRegistry())
	require.ErrorContains(t, err, "boom")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildCounterBackendPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	backend, err := buildCounterBackend(context.Background(), &configpkg.Config{CounterStore: configpkg.StorePrometheus}, reg)
	require.NoError(t, err)

	assert.Nil(t, backend.store)
	p, ok := backend.writer.(*counter.Prometheus)
	require.True(t, ok)

	require.NoError(t, p.Increment(context.Background(), "colors", "red", 1))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Collector().WithLabelValues("colors", "red")))
}

func TestBuildCounterBackendMirror(t *testing.T) {
	reg := prometheus.NewRegistry()
	backend, err := buildCounterBackend(context.Background(), &configpkg.Config{
		CounterStore:       configpkg.StoreMemory,
		MirrorToPrometheus: true,
	}, reg)
	require.NoError(t, err)

	fanout, ok := backend.writer.(counter.Fanout)
	require.True(t, ok)
	require.Len(t, fanout, 2)

	require.NoError(t, backend.writer.Increment(context.Background(), "colors", "blue", 1))

	counts, err := backend.store.Counts(context.Background(), "colors")
	require.NoError(t, err)
	assert.Equal(t, 1.0, counts["blue"])
	assert.Equal(t, 1.0, testutil.ToFloat64(fanout[1].(*counter.Prometheus).Collector().WithLabelValues("colors", "blue")))
}

func TestBuildCounterBackendUnknown(t *testing.T) {
	_, err := buildCounterBackend(context.Background(), &configpkg.Config{CounterStore: "etcd"}, prometheus.NewRegistry())
	require.ErrorIs(t, err, errspkg.ErrUnknownCounterStore)
}
