package viewstate

import "sync"

// Observer receives every ViewState the controller publishes
type Observer func(ViewState)

// Subscription is the handle returned by Controller.Subscribe. Each
// subscription delivers on its own goroutine, in publish order, so an
// observer may call back into the controller.
type Subscription struct {
	id   uint64
	ctrl *Controller
	fn   Observer

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []ViewState
	active   bool
	draining bool

	once sync.Once
	done chan struct{}
}

func newSubscription(ctrl *Controller, id uint64, fn Observer) *Subscription {
	s := &Subscription{
		id:     id,
		ctrl:   ctrl,
		fn:     fn,
		active: true,
		done:   make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

// Unsubscribe stops further notifications and drops queued ones. It is safe
// to call more than once, from any goroutine, including from the observer.
// A notification already being delivered is allowed to finish.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.ctrl.remove(s.id)

		s.mu.Lock()
		s.active = false
		s.queue = nil
		s.cond.Signal()
		s.mu.Unlock()
	})
}

// Done is closed once the subscription will deliver nothing more
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) enqueue(v ViewState) {
	s.mu.Lock()
	if s.active && !s.draining {
		s.queue = append(s.queue, v)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

// drain delivers what is already queued, then stops
func (s *Subscription) drain() {
	s.mu.Lock()
	s.draining = true
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *Subscription) run() {
	defer close(s.done)

	for {
		s.mu.Lock()
		for s.active && !s.draining && len(s.queue) == 0 {
			s.cond.Wait()
		}
		if !s.active || len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.fn(next)
	}
}
