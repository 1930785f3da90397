package transport

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/fieldcounter/internal/runtime/config"
	registry "github.com/drblury/fieldcounter/transport"

	_ "github.com/drblury/fieldcounter/transport/transports"
)

// Transport combines a publisher and subscriber pair produced by a factory.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Factory abstracts how the service obtains its broker connection.
type Factory interface {
	Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error)
}

// FactoryFunc adapts a plain function to Factory.
type FactoryFunc func(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error)

func (f FactoryFunc) Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error) {
	return f(ctx, conf, logger)
}

// Static returns a Factory that always yields the given publisher and subscriber.
func Static(pub message.Publisher, sub message.Subscriber) Factory {
	return FactoryFunc(func(context.Context, *config.Config, watermill.LoggerAdapter) (Transport, error) {
		return Transport{Publisher: pub, Subscriber: sub}, nil
	})
}

// DefaultFactory returns the factory backed by the built-in transport registry.
func DefaultFactory() Factory {
	return defaultFactory{}
}

type defaultFactory struct{}

func (defaultFactory) Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error) {
	if conf == nil {
		return Transport{}, fmt.Errorf("config is required")
	}

	t, err := registry.Build(ctx, conf, logger)
	if err != nil {
		return Transport{}, fmt.Errorf("build %s transport: %w", conf.PubSubSystem, err)
	}

	return Transport{
		Publisher:  t.Publisher,
		Subscriber: t.Subscriber,
	}, nil
}
