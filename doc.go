// Package fieldcounter is a field value counter sink built on Watermill. It
// consumes an input queue from the transport named in Config (Kafka,
// RabbitMQ, AWS SNS/SQS, NATS, HTTP or Go channels), extracts a configurable
// field from every message payload and increments a named counter once per
// value found.
//
// The field is a dot-delimited path. Decoded records are walked segment by
// segment, lists are flattened along the way, and every scalar reached is
// counted with weight 1. Payloads that are already plain Go maps or opaque
// FieldReadable objects get a single-level lookup of the raw field name.
// Missing or null fields are logged and skipped; only payloads that cannot be
// decoded and counter names that cannot be computed fail the message.
//
// A minimal setup fills Config, builds a FieldPathCounter over a counter
// writer, creates a Service, registers the counter with
// RegisterFieldCounterSink and calls Start; cmd/fieldcounter does exactly
// that from a YAML file and FIELDCOUNTER_* environment variables.
//
// # Counter stores
//
// Writers receive Increment(ctx, name, value, amount):
//   - memory: exact decimal totals kept in process
//   - prometheus: a counter vector labelled by counter and value
//   - redis: one sorted set per counter
//   - postgres: an upserted row per counter and value
//
// # Middleware
//
// The default middleware chain includes correlation ID injection, structured
// logging, OpenTelemetry tracing, Prometheus metrics, retry with exponential
// backoff, poison queue forwarding and panic recovery. Messages that cannot be
// decoded are never retried; they go to the poison queue when one is
// configured. Custom middleware can be added via ServiceDependencies.Middlewares.
//
// When you need more control, ServiceDependencies accepts an ErrorClassifier
// for the handler stats, a counter Store to expose on the web UI, or an
// entire TransportFactory to plug in custom brokers.
package fieldcounter
