// Package transport defines how fieldcounter obtains the Watermill publisher and
// subscriber for a broker. Each broker lives in its own sub-package and registers
// a Builder under the name used by the `transport` configuration key.
package transport

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Transport combines a publisher and subscriber pair produced by a builder.
// The subscriber feeds the counter sink; the publisher is only used for the
// poison queue.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Close releases both sides of the transport. Shared pub/sub implementations
// are closed once.
func (t Transport) Close() error {
	var pubErr, subErr error
	if t.Subscriber != nil {
		subErr = t.Subscriber.Close()
	}
	if t.Publisher != nil && any(t.Publisher) != any(t.Subscriber) {
		pubErr = t.Publisher.Close()
	}
	if subErr != nil {
		return subErr
	}
	return pubErr
}

// Builder creates a transport from configuration.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error)

// Config exposes the settings a transport may read without depending on the
// full configuration package.
type Config interface {
	GetPubSubSystem() string

	GetKafkaBrokers() []string
	GetKafkaClientID() string
	GetKafkaConsumerGroup() string

	GetRabbitMQURL() string

	GetNATSURL() string

	GetHTTPServerAddress() string
	GetHTTPPublisherURL() string

	GetAWSRegion() string
	GetAWSAccountID() string
	GetAWSAccessKeyID() string
	GetAWSSecretAccessKey() string
	GetAWSEndpoint() string
}
