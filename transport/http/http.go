// Package http provides the HTTP transport. Producers POST payloads to
// <server address>/<topic>; the poison queue is forwarded to
// <publisher url><topic>.
package http

import (
	"context"
	nethttp "net/http"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"

	metadatapkg "github.com/drblury/fieldcounter/internal/runtime/metadata"
	"github.com/drblury/fieldcounter/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "http"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(config http.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return http.NewPublisher(config, logger)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(addr string, config http.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return http.NewSubscriber(addr, config, logger)
}

func init() {
	Register()
}

// Register registers the HTTP transport with the default registry.
func Register() {
	transport.Register(TransportName, Build)
}

// Build creates a new HTTP transport. The subscriber's server is not started
// here: routes only exist once handlers have subscribed, so the service starts
// it after the router is running.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	serverAddr := cfg.GetHTTPServerAddress()
	publisherURL := cfg.GetHTTPPublisherURL()

	publisher, err := PublisherFactory(
		http.PublisherConfig{
			MarshalMessageFunc: func(topic string, msg *message.Message) (*nethttp.Request, error) {
				return http.DefaultMarshalMessageFunc(publisherURL+topic, msg)
			},
		},
		logger,
	)
	if err != nil {
		return transport.Transport{}, err
	}

	subscriber, err := SubscriberFactory(
		serverAddr,
		http.SubscriberConfig{
			UnmarshalMessageFunc: UnmarshalMessage,
		},
		logger,
	)
	if err != nil {
		return transport.Transport{}, err
	}

	return transport.Transport{
		Publisher:  publisher,
		Subscriber: subscriber,
	}, nil
}

// UnmarshalMessage decodes a request with the Watermill defaults and carries
// the request's Content-Type into the message metadata when none was sent.
func UnmarshalMessage(topic string, request *nethttp.Request) (*message.Message, error) {
	msg, err := http.DefaultUnmarshalMessageFunc(topic, request)
	if err != nil {
		return nil, err
	}
	if msg.Metadata.Get(metadatapkg.KeyContentType) == "" {
		if ct := strings.TrimSpace(request.Header.Get("Content-Type")); ct != "" {
			msg.Metadata.Set(metadatapkg.KeyContentType, ct)
		}
	}
	return msg, nil
}
