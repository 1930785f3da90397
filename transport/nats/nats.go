// Package nats provides the NATS Core transport. Replicas of the sink join a
// queue group so each message is counted once.
package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/drblury/fieldcounter/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "nats"

const (
	// QueueGroupPrefix prefixes the per-subject queue group.
	QueueGroupPrefix = "fieldcounter"

	connectionName = "fieldcounter"
	reconnectWait  = 2 * time.Second
	maxReconnects  = -1
)

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg wmnats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return wmnats.NewPublisher(cfg, logger)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(cfg wmnats.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return wmnats.NewSubscriber(cfg, logger)
}

func init() {
	Register()
}

// Register registers the NATS transport with the default registry.
func Register() {
	transport.Register(TransportName, Build)
}

// Build creates a new NATS Core transport with JetStream disabled.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	url := cfg.GetNATSURL()
	if url == "" {
		return transport.Transport{}, fmt.Errorf("nats: url is required")
	}
	marshaler := &wmnats.NATSMarshaler{}
	options := connectOptions(logger)
	core := wmnats.JetStreamConfig{Disabled: true}

	publisher, err := PublisherFactory(
		wmnats.PublisherConfig{
			URL:         url,
			NatsOptions: options,
			Marshaler:   marshaler,
			JetStream:   core,
		},
		logger,
	)
	if err != nil {
		return transport.Transport{}, err
	}

	subscriber, err := SubscriberFactory(
		wmnats.SubscriberConfig{
			URL:              url,
			QueueGroupPrefix: QueueGroupPrefix,
			NatsOptions:      options,
			Unmarshaler:      marshaler,
			JetStream:        core,
		},
		logger,
	)
	if err != nil {
		_ = publisher.Close()
		return transport.Transport{}, err
	}

	return transport.Transport{
		Publisher:  publisher,
		Subscriber: subscriber,
	}, nil
}

func connectOptions(logger watermill.LoggerAdapter) []nc.Option {
	return []nc.Option{
		nc.Name(connectionName),
		nc.MaxReconnects(maxReconnects),
		nc.ReconnectWait(reconnectWait),
		nc.DisconnectErrHandler(func(_ *nc.Conn, err error) {
			if err != nil {
				logger.Error("NATS connection lost", err, nil)
			}
		}),
		nc.ReconnectHandler(func(conn *nc.Conn) {
			logger.Info("NATS connection restored", watermill.LogFields{"url": conn.ConnectedUrlRedacted()})
		}),
	}
}
