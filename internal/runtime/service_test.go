package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configpkg "github.com/drblury/fieldcounter/internal/runtime/config"
	"github.com/drblury/fieldcounter/internal/runtime/counter"
	"github.com/drblury/fieldcounter/internal/runtime/expression"
	"github.com/drblury/fieldcounter/internal/runtime/handlers"
	idspkg "github.com/drblury/fieldcounter/internal/runtime/ids"
	transportpkg "github.com/drblury/fieldcounter/internal/runtime/transport"
	kafkatransport "github.com/drblury/fieldcounter/transport/kafka"
	"github.com/drblury/fieldcounter/transport/transporttest"
)

func getFreePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port
}

func TestNewServiceWithStaticTransport(t *testing.T) {
	pub := &testPublisher{}
	sub := &testSubscriber{}

	svc := NewService(&configpkg.Config{PubSubSystem: "channel"}, newTestLogger(), context.Background(), ServiceDependencies{
		TransportFactory: transportpkg.Static(pub, sub),
	})

	require.NotNil(t, svc.router)
	assert.Same(t, pub, svc.publisher)
	assert.Same(t, sub, svc.subscriber)
}

func TestNewServiceWithKafka(t *testing.T) {
	origPub, origSub := kafkatransport.PublisherFactory, kafkatransport.SubscriberFactory
	t.Cleanup(func() {
		kafkatransport.PublisherFactory = origPub
		kafkatransport.SubscriberFactory = origSub
	})

	var group string
	kafkatransport.PublisherFactory = func(cfg kafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return &transporttest.Publisher{}, nil
	}
	kafkatransport.SubscriberFactory = func(cfg kafka.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
		group = cfg.ConsumerGroup
		return &transporttest.Subscriber{}, nil
	}

	conf := &configpkg.Config{
		PubSubSystem:       "kafka",
		KafkaBrokers:       []string{"localhost:9092"},
		KafkaConsumerGroup: "field-value-counter",
	}
	svc := NewService(conf, newTestLogger(), context.Background(), ServiceDependencies{})

	assert.IsType(t, &transporttest.Subscriber{}, svc.subscriber)
	assert.Equal(t, "field-value-counter", group)
}

func TestNewServicePanics(t *testing.T) {
	t.Run("factory error", func(t *testing.T) {
		factory := transportpkg.FactoryFunc(func(context.Context, *configpkg.Config, watermill.LoggerAdapter) (transportpkg.Transport, error) {
			return transportpkg.Transport{}, errors.New("no broker")
		})
		assert.Panics(t, func() {
			NewService(&configpkg.Config{}, newTestLogger(), context.Background(), ServiceDependencies{TransportFactory: factory})
		})
	})

	t.Run("unknown transport", func(t *testing.T) {
		assert.Panics(t, func() {
			NewService(&configpkg.Config{PubSubSystem: "carrier-pigeon"}, newTestLogger(), context.Background(), ServiceDependencies{})
		})
	})

	t.Run("middleware builder error", func(t *testing.T) {
		assert.Panics(t, func() {
			NewService(&configpkg.Config{}, newTestLogger(), context.Background(), ServiceDependencies{
				TransportFactory:          transportpkg.Static(&testPublisher{}, &testSubscriber{}),
				DisableDefaultMiddlewares: true,
				Middlewares: []MiddlewareRegistration{{
					Name: "broken",
					Builder: func(*Service) (message.HandlerMiddleware, error) {
						return nil, errors.New("broken")
					},
				}},
			})
		})
	})
}

func TestServiceStartStopsOnCancel(t *testing.T) {
	orig := routerRun
	t.Cleanup(func() { routerRun = orig })
	routerRun = func(_ *message.Router, ctx context.Context) error {
		<-ctx.Done()
		return nil
	}

	svc := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestServiceStartServesMetrics(t *testing.T) {
	orig := routerRun
	t.Cleanup(func() { routerRun = orig })
	routerRun = func(_ *message.Router, ctx context.Context) error {
		<-ctx.Done()
		return nil
	}

	port := getFreePort(t)
	svc := newTestService(t)
	svc.Conf = &configpkg.Config{MetricsEnabled: true, MetricsPort: port, PubSubSystem: "channel"}
	require.NoError(t, svc.RegisterMiddleware(MetricsMiddleware()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	url := fmt.Sprintf("http://127.0.0.1:%d/metrics", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)
}

func TestServiceCountsMessagesEndToEnd(t *testing.T) {
	log := newTestLogger()
	mem := counter.NewMemory()
	svc := NewService(&configpkg.Config{PubSubSystem: "channel"}, log, context.Background(), ServiceDependencies{Counters: mem})

	fc, err := handlers.NewFieldPathCounter(handlers.FieldPathCounterConfig{
		FieldName: "color",
		Name:      expression.Literal("colors"),
		Writer:    mem,
		Logger:    log,
	})
	require.NoError(t, err)
	require.NoError(t, RegisterFieldCounterSink(svc, FieldCounterSinkRegistration{
		ConsumeQueue: "input",
		Counter:      fc,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	select {
	case <-svc.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}

	for _, color := range []string{"red", "red", "blue"} {
		msg := message.NewMessage(idspkg.New(), []byte(fmt.Sprintf(`{"color":%q}`, color)))
		require.NoError(t, svc.publisher.Publish("input", msg))
	}

	require.Eventually(t, func() bool {
		counts, err := mem.Counts(context.Background(), "colors")
		return err == nil && counts["red"] == 2 && counts["blue"] == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
	require.NoError(t, svc.Close())

	info := svc.handlers[0]
	assert.Equal(t, "field-value-counter:color", info.Name)
	assert.EqualValues(t, 3, info.Stats.MessagesProcessed)
}

func TestServiceClose(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Close())
	assert.True(t, svc.router.IsClosed())
}
