package adapter

import "sync"

// Subscription is a live push-data stream obtained from a Subscriber
// adapter.
//
// Cancel is idempotent; once it returns, Active reports false. The
// unsubscribe hook runs at most once, on the first Cancel.
type Subscription struct {
	id       string
	active   bool
	mu       sync.Mutex
	teardown func()
}

// NewSubscription creates an active subscription. teardown is invoked
// exactly once, on the first Cancel (or Fail), and may be nil.
func NewSubscription(teardown func()) *Subscription {
	return &Subscription{
		id:       GenerateHandleID(),
		active:   true,
		teardown: teardown,
	}
}

// ID returns the process-unique subscription identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Active reports whether the subscription is still delivering samples.
func (s *Subscription) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Cancel stops the subscription. Subsequent calls are no-ops.
func (s *Subscription) Cancel() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	teardown := s.teardown
	s.teardown = nil
	s.mu.Unlock()

	if teardown != nil {
		teardown()
	}
}

// Fail deactivates the subscription after a fatal transport failure and
// reports whether this call performed the deactivation. Adapters use it
// to guarantee the error handler fires at most once:
//
//	if sub.Fail() {
//	    onErr(err)
//	}
func (s *Subscription) Fail() bool {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return false
	}
	s.active = false
	teardown := s.teardown
	s.teardown = nil
	s.mu.Unlock()

	if teardown != nil {
		teardown()
	}
	return true
}
