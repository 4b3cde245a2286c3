// Package apiclient builds the HTTP clients used to talk to the auth and tareas
// backends. Every client made by one Factory shares the session store, the
// refresh coordinator and the session-invalidated subscribers.
package apiclient

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/jrsteele09/go-tareas-client/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultRefreshTimeout = 10 * time.Second
	DefaultLoginPath      = "/login"
)

// Invalidation is delivered to subscribers when the pipeline tears the session down.
type Invalidation struct {
	Cause     error
	LoginPath string
}

// InvalidationHandler reacts to a torn down session, typically by sending the
// user back to LoginPath.
type InvalidationHandler func(ctx context.Context, inv Invalidation)

type Factory struct {
	store          session.Store
	refresher      TokenRefresher
	httpClient     *http.Client
	logger         zerolog.Logger
	metrics        *Metrics
	limiter        *rate.Limiter
	refreshTimeout time.Duration
	loginPath      string

	flight singleflight.Group

	subMu       sync.Mutex
	nextSubID   int
	subscribers map[int]InvalidationHandler
}

type FactoryOption func(*Factory)

func WithHTTPClient(c *http.Client) FactoryOption {
	return func(f *Factory) {
		if c != nil {
			f.httpClient = c
		}
	}
}

func WithLogger(l zerolog.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = l
	}
}

func WithMetrics(m *Metrics) FactoryOption {
	return func(f *Factory) {
		f.metrics = m
	}
}

// WithRateLimiter makes every outgoing request, retries included, wait on l.
func WithRateLimiter(l *rate.Limiter) FactoryOption {
	return func(f *Factory) {
		f.limiter = l
	}
}

func WithRefreshTimeout(d time.Duration) FactoryOption {
	return func(f *Factory) {
		if d > 0 {
			f.refreshTimeout = d
		}
	}
}

func WithLoginPath(p string) FactoryOption {
	return func(f *Factory) {
		if p != "" {
			f.loginPath = p
		}
	}
}

// NewFactory creates the client factory. The store and refresher are required.
func NewFactory(store session.Store, refresher TokenRefresher, options ...FactoryOption) (*Factory, error) {
	if store == nil {
		return nil, errors.New("[NewFactory] session store is required")
	}
	if refresher == nil {
		return nil, errors.New("[NewFactory] token refresher is required")
	}

	f := &Factory{
		store:          store,
		refresher:      refresher,
		httpClient:     &http.Client{Timeout: DefaultRequestTimeout},
		logger:         log.Logger,
		refreshTimeout: DefaultRefreshTimeout,
		loginPath:      DefaultLoginPath,
		subscribers:    make(map[int]InvalidationHandler),
	}
	for _, opt := range options {
		opt(f)
	}
	return f, nil
}

// NewClient returns a client for one backend. name labels logs and metrics.
func (f *Factory) NewClient(name, baseURL string) *Client {
	return &Client{
		name:    name,
		baseURL: baseURL,
		factory: f,
		logger:  f.logger.With().Str("client", name).Logger(),
	}
}

// Store exposes the session store the factory was built with.
func (f *Factory) Store() session.Store {
	return f.store
}

// OnSessionInvalidated registers h and returns a func that removes it.
func (f *Factory) OnSessionInvalidated(h InvalidationHandler) func() {
	f.subMu.Lock()
	defer f.subMu.Unlock()

	id := f.nextSubID
	f.nextSubID++
	f.subscribers[id] = h

	return func() {
		f.subMu.Lock()
		defer f.subMu.Unlock()
		delete(f.subscribers, id)
	}
}

func (f *Factory) notify(ctx context.Context, inv Invalidation) {
	f.subMu.Lock()
	handlers := make([]InvalidationHandler, 0, len(f.subscribers))
	for _, h := range f.subscribers {
		handlers = append(handlers, h)
	}
	f.subMu.Unlock()

	for _, h := range handlers {
		h(ctx, inv)
	}
}
