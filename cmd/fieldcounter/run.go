package main

import (
	"context"
	"errors"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	runtimepkg "github.com/drblury/fieldcounter/internal/runtime"
	configpkg "github.com/drblury/fieldcounter/internal/runtime/config"
	errspkg "github.com/drblury/fieldcounter/internal/runtime/errors"
	"github.com/drblury/fieldcounter/internal/runtime/expression"
	"github.com/drblury/fieldcounter/internal/runtime/handlers"
	loggingpkg "github.com/drblury/fieldcounter/internal/runtime/logging"
)

var registerer prometheus.Registerer = prometheus.DefaultRegisterer

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := configpkg.Load(opts.configPath)
	if err != nil {
		return err
	}
	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return errspkg.NewConfigValidationError(err)
	}

	logger, err := loggingpkg.New(cfg.LogBackend, cfg.LogLevel, stdout)
	if err != nil {
		return err
	}

	backend, err := buildCounterBackend(ctx, &cfg, registerer)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.close(); err != nil {
			logger.Error("Failed to close counter store", err, loggingpkg.LogFields{"counter_store": cfg.CounterStore})
		}
	}()

	name, err := expression.New(cfg.NameExpression, cfg.CounterName)
	if err != nil {
		return err
	}

	fc, err := handlers.NewFieldPathCounter(handlers.FieldPathCounterConfig{
		FieldName: cfg.FieldName,
		Name:      name,
		Writer:    backend.writer,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	svc := runtimepkg.NewService(&cfg, logger, ctx, runtimepkg.ServiceDependencies{Counters: backend.store})
	if err := runtimepkg.RegisterFieldCounterSink(svc, runtimepkg.FieldCounterSinkRegistration{
		ConsumeQueue: cfg.InputQueue,
		Counter:      fc,
	}); err != nil {
		return errors.Join(err, svc.Close())
	}

	logger.Info("Field value counter starting", loggingpkg.LogFields{
		"input":         cfg.InputQueue,
		"field_name":    cfg.FieldName,
		"counter":       name.String(),
		"counter_store": cfg.CounterStore,
	})

	runErr := svc.Start(ctx)
	closeErr := svc.Close()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return errors.Join(runErr, closeErr)
	}
	return closeErr
}
