package identity

import "sync"

// Observer holds the current identity of one client session and fans changes out
// to subscribers. Before the first Set or Clear the identity is unresolved.
type Observer struct {
	current  *Identity
	subs     map[*Subscription]struct{}
	mu       sync.Mutex
	resolved bool
}

// NewObserver creates an unresolved observer
func NewObserver() *Observer {
	return &Observer{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscription delivers identity-or-nil values on C.
// Only the latest value is buffered; a slow reader skips intermediate changes.
type Subscription struct {
	C      <-chan *Identity
	ch     chan *Identity
	parent *Observer
	once   sync.Once
}

// Unsubscribe stops delivery and closes C. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.parent.mu.Lock()
		delete(s.parent.subs, s)
		s.parent.mu.Unlock()
		close(s.ch)
	})
}

// Subscribe registers a listener. If the identity is already resolved its
// current value is delivered immediately.
func (o *Observer) Subscribe() *Subscription {
	ch := make(chan *Identity, 1)
	sub := &Subscription{C: ch, ch: ch, parent: o}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.subs[sub] = struct{}{}
	if o.resolved {
		ch <- o.current
	}
	return sub
}

// Current returns the identity and whether it has been resolved
func (o *Observer) Current() (*Identity, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current, o.resolved
}

// Set records a signed-in identity
func (o *Observer) Set(id *Identity) {
	o.publish(id)
}

// Clear records sign-out
func (o *Observer) Clear() {
	o.publish(nil)
}

func (o *Observer) publish(id *Identity) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.current = id
	o.resolved = true
	for sub := range o.subs {
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- id
	}
}
