package cartsync

import (
	"sync"

	"conecart/internal/domain"
)

// TransitionFunc observes an authentication-state change.
type TransitionFunc func(from, to domain.Identity)

// Session holds the current identity and notifies subscribers exactly on
// transitions. The auth layer owns token handling and calls Set; the engine
// only ever sees the resulting identity values.
type Session struct {
	mu       sync.Mutex
	identity domain.Identity
	subs     []TransitionFunc
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Identity() domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *Session) Subscribe(fn TransitionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Set records a new identity. Subscribers are called outside the lock and
// only when the value actually changed.
func (s *Session) Set(identity domain.Identity) {
	s.mu.Lock()
	from := s.identity
	if from == identity {
		s.mu.Unlock()
		return
	}
	s.identity = identity
	subs := make([]TransitionFunc, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(from, identity)
	}
}

// Login is shorthand for Set(Authenticated(userID)).
func (s *Session) Login(userID string) {
	s.Set(domain.Authenticated(userID))
}

// Logout is shorthand for Set(Anonymous()).
func (s *Session) Logout() {
	s.Set(domain.Anonymous())
}
