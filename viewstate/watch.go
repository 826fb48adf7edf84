package viewstate

import "context"

// Watch streams the current state and every later transition on the
// returned channel. The channel is closed when ctx is done or the
// controller is closed.
func (c *Controller) Watch(ctx context.Context) <-chan ViewState {
	ch := make(chan ViewState)

	sub := c.Subscribe(func(v ViewState) {
		select {
		case ch <- v:
		case <-ctx.Done():
		}
	})

	go func() {
		select {
		case <-ctx.Done():
			sub.Unsubscribe()
		case <-sub.Done():
		}
		<-sub.Done()
		close(ch)
	}()

	return ch
}
