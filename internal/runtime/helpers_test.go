package runtime

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"

	configpkg "github.com/drblury/fieldcounter/internal/runtime/config"
	loggingpkg "github.com/drblury/fieldcounter/internal/runtime/logging"
)

type testPublisher struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (p *testPublisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	for range messages {
		p.published = append(p.published, topic)
	}
	return nil
}

func (p *testPublisher) Close() error { return nil }

func (p *testPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	clone := make([]string, len(p.published))
	copy(clone, p.published)
	return clone
}

type testSubscriber struct {
	err error
}

func (s *testSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan *message.Message)
	close(ch)
	return ch, nil
}

func (s *testSubscriber) Close() error { return nil }

func newTestSlogLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestLogger() loggingpkg.ServiceLogger {
	return loggingpkg.NewSlogServiceLogger(newTestSlogLogger())
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	log := newTestLogger()
	router, err := message.NewRouter(message.RouterConfig{}, loggingpkg.NewWatermillAdapter(log))
	if err != nil {
		t.Fatalf("router init failed: %v", err)
	}
	return &Service{
		Conf:       &configpkg.Config{},
		Logger:     log,
		router:     router,
		publisher:  &testPublisher{},
		subscriber: &testSubscriber{},
	}
}

type mockLogger struct{}

func (m mockLogger) With(fields loggingpkg.LogFields) loggingpkg.ServiceLogger { return m }
func (m mockLogger) Debug(msg string, fields loggingpkg.LogFields)             {}
func (m mockLogger) Info(msg string, fields loggingpkg.LogFields)              {}
func (m mockLogger) Error(msg string, err error, fields loggingpkg.LogFields)  {}
func (m mockLogger) Trace(msg string, fields loggingpkg.LogFields)             {}

type capturingLogger struct {
	mockLogger
	mu   sync.Mutex
	msgs []string
}

func (c *capturingLogger) Info(msg string, fields loggingpkg.LogFields) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *capturingLogger) Debug(msg string, fields loggingpkg.LogFields) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *capturingLogger) With(fields loggingpkg.LogFields) loggingpkg.ServiceLogger { return c }

func (c *capturingLogger) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs...)
}
