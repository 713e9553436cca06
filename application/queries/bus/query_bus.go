package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	pkgerrors "catnook-backend/pkg/errors"

	"go.uber.org/zap"
)

var ErrHandlerNotFound = errors.New("query handler not found")

// Query is a read. Validate runs before any handler sees it.
type Query interface {
	Validate() error
}

type QueryHandler interface {
	Handle(ctx context.Context, query Query) (interface{}, error)
}

// QueryHandlerFunc lets a plain function serve as a QueryHandler
type QueryHandlerFunc func(ctx context.Context, query Query) (interface{}, error)

func (f QueryHandlerFunc) Handle(ctx context.Context, query Query) (interface{}, error) {
	return f(ctx, query)
}

// Middleware decorates a handler at registration time
type Middleware func(QueryHandler) QueryHandler

// QueryBus routes each query type to exactly one handler
type QueryBus struct {
	mu          sync.RWMutex
	handlers    map[reflect.Type]QueryHandler
	middlewares []Middleware
}

func NewQueryBus(middlewares ...Middleware) *QueryBus {
	return &QueryBus{
		handlers:    make(map[reflect.Type]QueryHandler),
		middlewares: middlewares,
	}
}

// Use appends a middleware. Handlers already registered keep their chain.
func (b *QueryBus) Use(mw Middleware) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.middlewares = append(b.middlewares, mw)
}

// Register binds the dynamic type of sample to handler, wrapped so the first
// middleware added is the outermost.
func (b *QueryBus) Register(sample Query, handler QueryHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(sample)
	if _, taken := b.handlers[t]; taken {
		return fmt.Errorf("handler already registered for query type %s", t.Name())
	}
	for i := len(b.middlewares) - 1; i >= 0; i-- {
		handler = b.middlewares[i](handler)
	}
	b.handlers[t] = handler
	return nil
}

// Ask validates query and returns whatever its handler produces
func (b *QueryBus) Ask(ctx context.Context, query Query) (interface{}, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	handler, ok := b.handlers[reflect.TypeOf(query)]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrHandlerNotFound, query)
	}
	return handler.Handle(ctx, query)
}

// HandlerFor adapts a typed handler method to the bus
func HandlerFor[Q Query, R any](fn func(ctx context.Context, query Q) (R, error)) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		typed, ok := query.(Q)
		if !ok {
			return nil, fmt.Errorf("%w: got %T", ErrHandlerNotFound, query)
		}
		result, err := fn(ctx, typed)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

func queryName(q Query) string {
	t := reflect.TypeOf(q)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// Metrics is what the metrics middleware records into
type Metrics interface {
	StartTimer(metric, label string) Timer
	Increment(metric, label string)
}

type Timer interface {
	Stop()
}

// MetricsMiddleware counts every query by outcome. A lookup that finds
// nothing is a miss, not an error: clients poll for cats that may be gone.
type MetricsMiddleware struct {
	metrics Metrics
}

func NewMetricsMiddleware(metrics Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: metrics}
}

func (m *MetricsMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		name := queryName(query)
		timer := m.metrics.StartTimer("query_duration", name)
		defer timer.Stop()
		m.metrics.Increment("query_count", name)

		result, err := next.Handle(ctx, query)
		switch {
		case err == nil:
			m.metrics.Increment("query_success", name)
		case isMiss(err):
			m.metrics.Increment("query_misses", name)
		default:
			m.metrics.Increment("query_errors", name)
		}
		return result, err
	})
}

func isMiss(err error) bool {
	de, ok := pkgerrors.AsDomainError(err)
	return ok && de.Type == pkgerrors.DomainNotFoundError
}

// SlowQueryLogger warns about reads that take longer than threshold and
// logs failures that are not misses
func SlowQueryLogger(logger *zap.Logger, threshold time.Duration) Middleware {
	return func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
			started := time.Now()
			result, err := next.Handle(ctx, query)
			elapsed := time.Since(started)

			if err != nil && !isMiss(err) {
				logger.Error("Query failed",
					zap.String("query", queryName(query)),
					zap.Duration("duration", elapsed),
					zap.Error(err))
			} else if elapsed > threshold {
				logger.Warn("Slow query",
					zap.String("query", queryName(query)),
					zap.Duration("duration", elapsed))
			}
			return result, err
		})
	}
}
