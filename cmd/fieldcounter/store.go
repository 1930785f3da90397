package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	configpkg "github.com/drblury/fieldcounter/internal/runtime/config"
	"github.com/drblury/fieldcounter/internal/runtime/counter"
	pgstore "github.com/drblury/fieldcounter/internal/runtime/counter/postgres"
	redisstore "github.com/drblury/fieldcounter/internal/runtime/counter/redis"
	errspkg "github.com/drblury/fieldcounter/internal/runtime/errors"
)

var (
	connectRedis    = redisstore.Connect
	openPostgres    = pgstore.Open
	migratePostgres = pgstore.Migrate
)

// counterBackend is the writer the sink increments, the store the web UI
// reads (nil when the backend cannot be read back) and a release func.
type counterBackend struct {
	writer counter.Writer
	store  counter.Store
	close  func() error
}

func buildCounterBackend(ctx context.Context, cfg *configpkg.Config, reg prometheus.Registerer) (counterBackend, error) {
	backend := counterBackend{close: func() error { return nil }}
	kind := strings.ToLower(cfg.CounterStore)

	switch kind {
	case "", configpkg.StoreMemory:
		mem := counter.NewMemory()
		backend.writer, backend.store = mem, mem
	case configpkg.StoreRedis:
		client, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return counterBackend{}, err
		}
		w := redisstore.New(client)
		backend.writer, backend.store, backend.close = w, w, client.Close
	case configpkg.StorePostgres:
		db, err := openPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return counterBackend{}, err
		}
		if err := migratePostgres(ctx, db); err != nil {
			return counterBackend{}, errors.Join(err, db.Close())
		}
		w := pgstore.New(db)
		backend.writer, backend.store, backend.close = w, w, db.Close
	case configpkg.StorePrometheus:
		p, err := counter.NewPrometheus(reg)
		if err != nil {
			return counterBackend{}, err
		}
		backend.writer = p
	default:
		return counterBackend{}, fmt.Errorf("%w: %q", errspkg.ErrUnknownCounterStore, cfg.CounterStore)
	}

	if cfg.MirrorToPrometheus && kind != configpkg.StorePrometheus {
		p, err := counter.NewPrometheus(reg)
		if err != nil {
			return counterBackend{}, errors.Join(err, backend.close())
		}
		backend.writer = counter.Fanout{backend.writer, p}
	}
	return backend, nil
}
