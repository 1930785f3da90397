package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"
	"golang.org/x/sync/errgroup"

	configpkg "github.com/drblury/fieldcounter/internal/runtime/config"
	"github.com/drblury/fieldcounter/internal/runtime/counter"
	loggingpkg "github.com/drblury/fieldcounter/internal/runtime/logging"
	transportpkg "github.com/drblury/fieldcounter/internal/runtime/transport"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

var routerRun = func(router *message.Router, ctx context.Context) error {
	return router.Run(ctx)
}

// ServiceDependencies holds the optional collaborators that the Service can use.
type ServiceDependencies struct {
	Middlewares               []MiddlewareRegistration // Appended after the default middleware chain.
	DisableDefaultMiddlewares bool                     // Skips registering the default middleware chain when true.
	TransportFactory          transportpkg.Factory
	ErrorClassifier           ErrorClassifier
	// Counters is exposed read/write on the web UI when set.
	Counters counter.Store
}

// subscriberServer is implemented by subscribers that serve their own HTTP
// endpoint, which can only start once the router has subscribed.
type subscriberServer interface {
	StartHTTPServer() error
}

// Service wires a Watermill router, the input subscriber, the poison queue
// publisher and the middleware chain.
type Service struct {
	Conf   *configpkg.Config
	Logger loggingpkg.ServiceLogger

	publisher  message.Publisher
	subscriber message.Subscriber
	router     *message.Router

	counters counter.Store

	handlers   []*HandlerInfo
	handlersMu sync.RWMutex

	httpServers   map[int]*http.ServeMux
	httpServersMu sync.Mutex

	errorClassifier ErrorClassifier
	resourceTracker *resourceTracker
}

// NewService constructs a Service for the supplied configuration. Register
// handlers on the returned Service before calling Start. It panics when the
// transport, router or middleware chain cannot be built.
func NewService(conf *configpkg.Config, log loggingpkg.ServiceLogger, ctx context.Context, deps ServiceDependencies) *Service {
	wmLogger := loggingpkg.NewWatermillAdapter(log)
	log.Info("Creating field counter service",
		loggingpkg.LogFields{
			"pubsub_system": conf.PubSubSystem,
			"config":        conf,
		})

	s := &Service{
		Conf:            conf,
		Logger:          log,
		counters:        deps.Counters,
		errorClassifier: deps.ErrorClassifier,
		resourceTracker: newResourceTracker(),
	}

	factory := deps.TransportFactory
	if factory == nil {
		factory = transportpkg.DefaultFactory()
	}
	transport, err := factory.Build(ctx, conf, wmLogger)
	if err != nil {
		panic(err)
	}

	s.publisher = transport.Publisher
	s.subscriber = transport.Subscriber

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		panic(err)
	}

	s.router = router
	s.router.AddPlugin(plugin.SignalsHandler)

	s.registerConfiguredMiddlewares(deps)

	return s
}

// Start runs the router, the admin HTTP servers and, for HTTP transports, the
// subscriber's server until ctx is cancelled or the router stops.
func (s *Service) Start(ctx context.Context) error {
	s.StartWebUIServer()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	s.startHTTPServers(gctx, g)
	g.Go(func() error {
		return s.serveSubscriber(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return routerRun(s.router, gctx)
	})
	return g.Wait()
}

// Running is closed once every handler has subscribed.
func (s *Service) Running() chan struct{} {
	return s.router.Running()
}

// Close releases the transport. Call it after Start returns.
func (s *Service) Close() error {
	var errs []error
	if s.router != nil && !s.router.IsClosed() {
		errs = append(errs, s.router.Close())
	}
	if s.subscriber != nil {
		errs = append(errs, s.subscriber.Close())
	}
	if s.publisher != nil && any(s.publisher) != any(s.subscriber) {
		errs = append(errs, s.publisher.Close())
	}
	return errors.Join(errs...)
}

func (s *Service) registerConfiguredMiddlewares(deps ServiceDependencies) {
	var defaults []MiddlewareRegistration
	if !deps.DisableDefaultMiddlewares {
		defaults = DefaultMiddlewares()
	}
	registrations := make([]MiddlewareRegistration, 0, len(defaults)+len(deps.Middlewares))
	registrations = append(registrations, defaults...)
	registrations = append(registrations, deps.Middlewares...)

	for _, reg := range registrations {
		if err := s.RegisterMiddleware(reg); err != nil {
			name := reg.Name
			if name == "" {
				name = "anonymous_middleware"
			}
			panic(fmt.Sprintf("failed to register middleware %s: %v", name, err))
		}
	}
}

func (s *Service) getErrorClassifier() ErrorClassifier {
	if s.errorClassifier == nil {
		return defaultErrorClassifier
	}
	return s.errorClassifier
}

func (s *Service) getResourceTracker() *resourceTracker {
	if s.resourceTracker == nil {
		s.resourceTracker = newResourceTracker()
	}
	return s.resourceTracker
}

func (s *Service) logger() loggingpkg.ServiceLogger {
	if s.Logger == nil {
		return loggingpkg.NewSlogServiceLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	}
	return s.Logger
}

// RegisterHTTPHandler mounts handler on the admin server listening on port.
// Handlers sharing a port share one server.
func (s *Service) RegisterHTTPHandler(port int, pattern string, handler http.Handler) {
	s.httpServersMu.Lock()
	defer s.httpServersMu.Unlock()

	if s.httpServers == nil {
		s.httpServers = make(map[int]*http.ServeMux)
	}

	mux, ok := s.httpServers[port]
	if !ok {
		mux = http.NewServeMux()
		s.httpServers[port] = mux
	}

	mux.Handle(pattern, handler)
}

func (s *Service) startHTTPServers(ctx context.Context, g *errgroup.Group) {
	s.httpServersMu.Lock()
	defer s.httpServersMu.Unlock()

	for port, mux := range s.httpServers {
		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
		}
		s.logger().Info("Starting HTTP server", loggingpkg.LogFields{"address": server.Addr})

		g.Go(func() error {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger().Error("HTTP server failed", err, loggingpkg.LogFields{"address": server.Addr})
				return fmt.Errorf("http server %s: %w", server.Addr, err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}
}

func (s *Service) serveSubscriber(ctx context.Context) error {
	server, ok := s.subscriber.(subscriberServer)
	if !ok {
		return nil
	}

	select {
	case <-ctx.Done():
		return nil
	case <-s.router.Running():
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.StartHTTPServer() }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http subscriber: %w", err)
		}
		return nil
	}
}
