package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	"github.com/arthur-debert/taskmirror/mirror"
)

// DefaultMinInterval is the shortest gap between two unforced fetches of
// the same collection
const DefaultMinInterval = time.Minute

// Option configures a Refresher
type Option func(*Refresher)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Refresher) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock sets the time source used for throttling and provisional stamps
func WithClock(now func() time.Time) Option {
	return func(r *Refresher) {
		if now != nil {
			r.now = now
		}
	}
}

// WithMinInterval sets the throttle window for unforced fetches
func WithMinInterval(d time.Duration) Option {
	return func(r *Refresher) {
		r.minInterval = d
	}
}

// WithBreakerSettings replaces the default circuit breaker settings
func WithBreakerSettings(settings gobreaker.Settings) Option {
	return func(r *Refresher) {
		r.breakerSettings = settings
	}
}

// WithIDGenerator sets the generator for provisional task and comment ids
func WithIDGenerator(newID func() string) Option {
	return func(r *Refresher) {
		if newID != nil {
			r.newID = newID
		}
	}
}

// Refresher keeps a mirror.Cache in step with the remote API. Reads are
// served from the cache and refreshed in the background of a call; writes
// are applied optimistically and rolled back when the API rejects them.
type Refresher struct {
	cache  *mirror.Cache
	api    API
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	breakerSettings gobreaker.Settings
	breaker         *gobreaker.CircuitBreaker

	minInterval time.Duration
	group       singleflight.Group

	mu        sync.Mutex
	lastFetch map[string]time.Time
}

// New creates a Refresher over cache and api
func New(cache *mirror.Cache, api API, opts ...Option) *Refresher {
	r := &Refresher{
		cache:       cache,
		api:         api,
		logger:      slog.Default(),
		now:         time.Now,
		newID:       uuid.NewString,
		minInterval: DefaultMinInterval,
		lastFetch:   make(map[string]time.Time),
	}
	r.breakerSettings = gobreaker.Settings{
		Name:        "taskmirror-api",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
	}
	for _, opt := range opts {
		opt(r)
	}

	settings := r.breakerSettings
	onChange := settings.OnStateChange
	settings.OnStateChange = func(name string, from, to gobreaker.State) {
		r.logger.Info("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		if onChange != nil {
			onChange(name, from, to)
		}
	}
	r.breaker = gobreaker.NewCircuitBreaker(settings)
	return r
}

// Cache returns the cache being refreshed
func (r *Refresher) Cache() *mirror.Cache {
	return r.cache
}

// BreakerState reports the API circuit breaker state
func (r *Refresher) BreakerState() gobreaker.State {
	return r.breaker.State()
}

// callAPI runs fn through the circuit breaker
func callAPI[T any](ctx context.Context, r *Refresher, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	out, err := r.breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	v, _ := out.(T)
	return v, nil
}

// callAPINoResult is callAPI for calls that only return an error
func callAPINoResult(ctx context.Context, r *Refresher, op string, fn func(context.Context) error) error {
	_, err := callAPI(ctx, r, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func fetchKey(userID, collection string) string {
	return userID + "/" + collection
}

// throttled reports whether key was fetched within the minimum interval
func (r *Refresher) throttled(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	last, ok := r.lastFetch[key]
	return ok && r.now().Sub(last) < r.minInterval
}

func (r *Refresher) markFetched(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFetch[key] = r.now()
}

// fetch runs load once per key at a time. Concurrent callers for the same
// key share the result. The fetch time is recorded even when load fails.
func (r *Refresher) fetch(key string, load func() (interface{}, error)) (interface{}, error, bool) {
	return r.group.Do(key, func() (interface{}, error) {
		defer r.markFetched(key)
		return load()
	})
}

// SignOut drops userID's cached data and fetch history
func (r *Refresher) SignOut(userID string) {
	r.cache.ClearCache(userID)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, collection := range []string{collectionTasks, collectionProjects} {
		delete(r.lastFetch, fetchKey(userID, collection))
	}
}
