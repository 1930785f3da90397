package runtime

import (
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/fieldcounter/internal/runtime/errors"
	"github.com/drblury/fieldcounter/internal/runtime/handlers"
)

type handlerRegistration struct {
	Name         string
	ConsumeQueue string
	Subscriber   message.Subscriber
	FieldName    string
	Handler      message.NoPublishHandlerFunc
}

// MessageHandlerRegistration wires a raw Watermill consumer.
type MessageHandlerRegistration struct {
	Name         string
	ConsumeQueue string
	Handler      message.NoPublishHandlerFunc
	Subscriber   message.Subscriber
}

// FieldCounterSinkRegistration binds a FieldPathCounter to an input queue.
// Name defaults to the counter's field name.
type FieldCounterSinkRegistration struct {
	Name         string
	ConsumeQueue string
	Counter      *handlers.FieldPathCounter
	Subscriber   message.Subscriber
}

// RegisterMessageHandler attaches the provided consumer to the service router.
func RegisterMessageHandler(svc *Service, cfg MessageHandlerRegistration) error {
	if svc == nil {
		return errspkg.ErrServiceRequired
	}

	return svc.registerHandler(handlerRegistration{
		Name:         cfg.Name,
		ConsumeQueue: cfg.ConsumeQueue,
		Subscriber:   cfg.Subscriber,
		Handler:      cfg.Handler,
	})
}

// RegisterFieldCounterSink consumes ConsumeQueue and counts the configured
// field of every message.
func RegisterFieldCounterSink(svc *Service, cfg FieldCounterSinkRegistration) error {
	if svc == nil {
		return errspkg.ErrServiceRequired
	}
	handler, err := handlers.BuildFieldCounterHandler(cfg.Counter)
	if err != nil {
		return err
	}

	name := cfg.Name
	if name == "" {
		name = "field-value-counter:" + cfg.Counter.FieldName()
	}

	return svc.registerHandler(handlerRegistration{
		Name:         name,
		ConsumeQueue: cfg.ConsumeQueue,
		Subscriber:   cfg.Subscriber,
		FieldName:    cfg.Counter.FieldName(),
		Handler:      handler,
	})
}

func (s *Service) registerHandler(cfg handlerRegistration) error {
	if cfg.Handler == nil {
		return errspkg.ErrHandlerRequired
	}
	if cfg.ConsumeQueue == "" {
		return errspkg.ErrConsumeQueueRequired
	}
	if cfg.Name == "" {
		return errspkg.ErrHandlerNameRequired
	}
	if cfg.Subscriber == nil {
		cfg.Subscriber = s.subscriber
	}

	stats := newHandlerStats(s.getResourceTracker())
	info := &HandlerInfo{
		Name:         cfg.Name,
		ConsumeQueue: cfg.ConsumeQueue,
		FieldName:    cfg.FieldName,
		Stats:        stats,
	}

	s.handlersMu.Lock()
	s.handlers = append(s.handlers, info)
	s.handlersMu.Unlock()

	s.router.AddNoPublisherHandler(
		cfg.Name,
		cfg.ConsumeQueue,
		cfg.Subscriber,
		wrapHandlerWithStats(cfg.Handler, stats, s.getErrorClassifier()),
	)

	return nil
}

func wrapHandlerWithStats(handler message.NoPublishHandlerFunc, stats *HandlerStats, classifier ErrorClassifier) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		lag := stats.onMessageStart(msg)
		start := time.Now()
		err := handler(msg)
		stats.onMessageFinish(lag, time.Since(start), err, classifier)
		return err
	}
}
