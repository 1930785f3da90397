/*
Package runtime hosts the field value counter sink on a Watermill router.

# Architecture Overview

A Service consumes one input queue from the configured transport and hands
every message to a handlers.FieldPathCounter, which decodes the payload,
resolves the configured field path and forwards one increment per value to a
counter writer. The router surrounds the handler with a middleware chain for
cross-cutting concerns.

# Package Structure

## Core Service (service.go)

The Service struct wires together:
  - Message router (Watermill)
  - The input subscriber and the poison queue publisher
  - Middleware chain
  - HTTP servers for metrics and the WebUI

## Handler Registration (registration.go)

  - RegisterFieldCounterSink binds a FieldPathCounter to an input queue
  - RegisterMessageHandler binds a raw Watermill consumer

## Middleware (middleware.go)

  - CorrelationID: Ensures message traceability
  - LogMessages: Debug logging of message payloads
  - Tracer: OpenTelemetry distributed tracing
  - Metrics: Prometheus metrics collection
  - Retry: Exponential backoff, skipped for unprocessable messages
  - PoisonQueue: Routes undecodable messages aside when configured
  - Recoverer: Panic recovery

## Stats & Monitoring (models.go, resources.go)

Per-handler latency percentiles, throughput, error categories, resource
samples and backlog estimates derived from ULID message ids.

## WebUI (webui.go)

/api/handlers lists handler stats. /api/counters reads or resets a counter
when the counter store supports it.

# Sub-packages

  - config/: Service configuration with validation and loading
  - counter/: Counter writers (memory, Prometheus, Redis, PostgreSQL)
  - errors/: Sentinel errors
  - expression/: Counter name expressions
  - handlers/: FieldPathCounter and its error types
  - ids/: ULID generation for message IDs
  - jsoncodec/: JSON marshaling utilities
  - logging/: Logger interface and adapters
  - metadata/: Message metadata utilities
  - payload/: Payload value model and decoders
  - transport/: Factory over the transport registry

# Usage Example

	cfg := &fieldcounter.Config{
		PubSubSystem: "kafka",
		KafkaBrokers: []string{"localhost:9092"},
		InputQueue:   "orders",
		FieldName:    "items.sku",
	}

	svc := fieldcounter.NewService(cfg, logger, ctx, fieldcounter.ServiceDependencies{})

	fieldcounter.RegisterFieldCounterSink(svc, fieldcounter.FieldCounterSinkRegistration{
		ConsumeQueue: cfg.InputQueue,
		Counter:      counter,
	})

	svc.Start(ctx)
*/
package runtime
