package viewstate

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"weather-state/datasource"
)

const defaultFetchTimeout = 10 * time.Second

// Controller owns the single ViewState of a forecast screen
type Controller struct {
	source       datasource.ForecastSource
	fetchTimeout time.Duration
	logger       *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	state atomic.Pointer[ViewState]

	mu       sync.Mutex
	inFlight bool
	closed   bool
	nextID   uint64
	subs     map[uint64]*Subscription
}

// Option configures a Controller
type Option func(*Controller)

// WithFetchTimeout bounds every fetch; 0 disables the deadline
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Controller) { c.fetchTimeout = d }
}

// WithLogger sets the logger used for fetch results
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController creates a controller in Loading and starts the first fetch.
// Cancelling ctx has the same effect on the in-flight fetch as Close, but
// only Close releases subscriptions.
func NewController(ctx context.Context, source datasource.ForecastSource, opts ...Option) *Controller {
	c := &Controller{
		source:       source,
		fetchTimeout: defaultFetchTimeout,
		logger:       log.Default(),
		subs:         make(map[uint64]*Subscription),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(ctx)

	initial := Loading()
	initial.At = time.Now()
	c.state.Store(&initial)

	c.mu.Lock()
	c.startFetchLocked()
	c.mu.Unlock()

	return c
}

// State returns the current snapshot without blocking
func (c *Controller) State() ViewState {
	return *c.state.Load()
}

// Subscribe registers fn. It is called once with the current state and then
// once per transition until Unsubscribe or Close.
func (c *Controller) Subscribe(fn Observer) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	sub := newSubscription(c, c.nextID, fn)
	sub.enqueue(c.State())

	if c.closed {
		sub.drain()
		return sub
	}
	c.subs[sub.id] = sub
	return sub
}

// Retry starts a new fetch if the controller is showing an error. While a
// fetch is in flight, after a success, or after Close it does nothing.
// It reports whether a fetch was started.
func (c *Controller) Retry() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.inFlight || c.State().Status != StatusError {
		return false
	}

	c.publishLocked(Loading())
	c.startFetchLocked()
	return true
}

// Close cancels any in-flight fetch and discards its result. It returns once
// every subscription has delivered what was queued and stopped, so it must
// not be called from an observer.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	for _, sub := range subs {
		sub.drain()
	}
	for _, sub := range subs {
		<-sub.Done()
	}
}

func (c *Controller) remove(id uint64) {
	c.mu.Lock()
	delete(c.subs, id)
	c.mu.Unlock()
}

func (c *Controller) startFetchLocked() {
	c.inFlight = true
	c.wg.Add(1)
	go c.fetch()
}

func (c *Controller) fetch() {
	defer c.wg.Done()

	ctx := c.ctx
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	start := time.Now()
	forecast, err := c.source.FetchForecast(ctx)
	if err == nil {
		if verr := forecast.Validate(); verr != nil {
			err = fmt.Errorf("invalid forecast from %s: %w", c.source.Name(), verr)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight = false
	if c.closed || c.ctx.Err() != nil {
		c.logger.Printf("Discarding forecast result from %s: controller closed", c.source.Name())
		return
	}

	if err != nil {
		c.logger.Printf("Error fetching forecast from %s after %s: %v", c.source.Name(), time.Since(start).Round(time.Millisecond), err)
		c.publishLocked(Failed(err))
		return
	}

	c.logger.Printf("Fetched %d forecast days from %s in %s", len(forecast.Days), c.source.Name(), time.Since(start).Round(time.Millisecond))
	c.publishLocked(Loaded(forecast.Days))
}

func (c *Controller) publishLocked(next ViewState) {
	next.At = time.Now()
	c.state.Store(&next)
	for _, sub := range c.subs {
		sub.enqueue(next)
	}
}
