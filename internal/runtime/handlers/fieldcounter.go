package handlers

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	"google.golang.org/protobuf/types/known/structpb"

	errspkg "github.com/drblury/fieldcounter/internal/runtime/errors"
	"github.com/drblury/fieldcounter/internal/runtime/expression"
	loggingpkg "github.com/drblury/fieldcounter/internal/runtime/logging"
	"github.com/drblury/fieldcounter/internal/runtime/payload"
)

// DefaultCounterName is used when neither a name nor an expression is given.
const DefaultCounterName = "field-value-counter"

// CounterWriter receives one increment per counted field value.
type CounterWriter interface {
	Increment(ctx context.Context, name, value string, amount float64) error
}

// NameEvaluator computes the counter name for a message.
type NameEvaluator interface {
	Evaluate(env expression.Env) (string, error)
}

// FieldPathCounterConfig configures NewFieldPathCounter. Name and Decoders
// are optional.
type FieldPathCounterConfig struct {
	FieldName string
	Name      NameEvaluator
	Decoders  payload.Registry
	Writer    CounterWriter
	Logger    loggingpkg.ServiceLogger
}

// FieldPathCounter counts the values found under a field path in each
// message. It only holds read-only state and may handle messages concurrently.
type FieldPathCounter struct {
	fieldName string
	path      []string
	name      NameEvaluator
	decoders  payload.Registry
	writer    CounterWriter
	logger    loggingpkg.ServiceLogger
}

// ParseFieldPath splits a dot-delimited field name, trimming each segment and
// dropping empty ones.
func ParseFieldPath(fieldName string) []string {
	parts := strings.Split(fieldName, ".")
	path := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			path = append(path, trimmed)
		}
	}
	return path
}

func NewFieldPathCounter(cfg FieldPathCounterConfig) (*FieldPathCounter, error) {
	path := ParseFieldPath(cfg.FieldName)
	if len(path) == 0 {
		return nil, errspkg.ErrFieldNameRequired
	}
	if cfg.Writer == nil {
		return nil, errspkg.ErrWriterRequired
	}
	if cfg.Logger == nil {
		return nil, errspkg.ErrLoggerRequired
	}

	name := cfg.Name
	if name == nil {
		name = expression.Literal(DefaultCounterName)
	}
	decoders := cfg.Decoders
	if decoders == nil {
		decoders = payload.DefaultRegistry()
	}

	return &FieldPathCounter{
		fieldName: cfg.FieldName,
		path:      path,
		name:      name,
		decoders:  decoders,
		writer:    cfg.Writer,
		logger:    cfg.Logger.With(loggingpkg.LogFields{"field_name": cfg.FieldName}),
	}, nil
}

// FieldName returns the configured field name.
func (c *FieldPathCounter) FieldName() string { return c.fieldName }

// Path returns a copy of the parsed field path.
func (c *FieldPathCounter) Path() []string {
	return append([]string(nil), c.path...)
}

// Handle counts the field values of one message. Only decoding and counter
// name failures are returned; missing or null fields and writer failures are
// logged.
func (c *FieldPathCounter) Handle(ctx context.Context, msg Message) error {
	root, structured, err := c.decode(msg)
	if err != nil {
		return err
	}

	name, err := c.name.Evaluate(expression.Env{
		Headers: msg.Metadata,
		UUID:    msg.UUID,
		Payload: plain(root),
	})
	if err != nil {
		return err
	}

	if structured {
		c.resolve(ctx, name, root.(payload.Value), c.path)
		return nil
	}
	c.lookup(ctx, name, root)
	return nil
}

// decode reports structured=true only for Records, which get the full path walk.
func (c *FieldPathCounter) decode(msg Message) (any, bool, error) {
	switch p := msg.Payload.(type) {
	case []byte:
		contentType := msg.Metadata.ContentType()
		dec, ok := c.decoders.Lookup(contentType)
		if !ok {
			return nil, false, &TransformationError{Message: msg, Cause: fmt.Errorf("%w for content type %q", errspkg.ErrDecoderRequired, contentType)}
		}
		v, err := dec.Decode(p)
		if err != nil {
			return nil, false, &TransformationError{Message: msg, Cause: err}
		}
		_, isRecord := v.(payload.Record)
		return v, isRecord, nil
	case payload.Record:
		return p, true, nil
	case *structpb.Struct:
		if p == nil {
			return nil, false, nil
		}
		return payload.FromGo(p), true, nil
	default:
		return p, false, nil
	}
}

func plain(v any) any {
	if pv, ok := v.(payload.Value); ok {
		return pv.Interface()
	}
	return v
}

func (c *FieldPathCounter) resolve(ctx context.Context, name string, v payload.Value, path []string) {
	var result payload.Value
	switch t := v.(type) {
	case payload.List:
		for _, item := range t {
			c.resolve(ctx, name, item, path)
		}
		return
	case payload.Record:
		result = t[path[0]]
	}

	if payload.IsNull(result) {
		c.logger.Info("Value not found for path, ignored", loggingpkg.LogFields{
			"counter": name,
			"path":    strings.Join(path, "."),
		})
		return
	}
	if len(path) == 1 {
		c.processValue(ctx, name, result)
		return
	}
	c.resolve(ctx, name, result, path[1:])
}

// lookup reads the raw field name from an unstructured payload without
// splitting it into a path.
func (c *FieldPathCounter) lookup(ctx context.Context, name string, obj any) {
	raw, err := readField(obj, c.fieldName)
	if err != nil {
		c.logger.Error("Field not available in payload", err, loggingpkg.LogFields{"counter": name})
		return
	}

	v := payload.FromGo(raw)
	if payload.IsNull(v) {
		c.logger.Info("Field value is null, ignored", loggingpkg.LogFields{"counter": name})
		return
	}
	c.processValue(ctx, name, v)
}

func readField(obj any, field string) (any, error) {
	missing := &MissingFieldError{Field: field, PayloadType: fmt.Sprintf("%T", obj)}

	switch o := obj.(type) {
	case map[string]any:
		if v, ok := o[field]; ok {
			return v, nil
		}
		return nil, missing
	case map[string]string:
		if v, ok := o[field]; ok {
			return v, nil
		}
		return nil, missing
	case payload.FieldReadable:
		if v, ok := o.ReadField(field); ok {
			return v, nil
		}
		return nil, missing
	}

	rv := reflect.ValueOf(obj)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		entry := rv.MapIndex(reflect.ValueOf(field).Convert(rv.Type().Key()))
		if entry.IsValid() {
			return entry.Interface(), nil
		}
	}
	return nil, missing
}

func (c *FieldPathCounter) processValue(ctx context.Context, name string, v payload.Value) {
	list, ok := v.(payload.List)
	if !ok {
		c.increment(ctx, name, v.Text())
		return
	}
	for _, item := range list {
		if payload.IsNull(item) {
			c.logger.Info("Null list element, ignored", loggingpkg.LogFields{"counter": name})
			continue
		}
		c.increment(ctx, name, item.Text())
	}
}

func (c *FieldPathCounter) increment(ctx context.Context, name, value string) {
	if err := c.writer.Increment(ctx, name, value, 1.0); err != nil {
		c.logger.Error("Counter increment failed", err, loggingpkg.LogFields{
			"counter": name,
			"value":   value,
		})
		return
	}
	c.logger.Trace("Counter incremented", loggingpkg.LogFields{"counter": name, "value": value})
}

// BuildFieldCounterHandler adapts a FieldPathCounter to a Watermill consumer.
func BuildFieldCounterHandler(counter *FieldPathCounter) (message.NoPublishHandlerFunc, error) {
	if counter == nil {
		return nil, errspkg.ErrHandlerRequired
	}
	return func(msg *message.Message) error {
		return counter.Handle(msg.Context(), MessageFromWatermill(msg))
	}, nil
}
