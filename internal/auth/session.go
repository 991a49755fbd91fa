package auth

import "sync"

// Session is the identity for one long-lived connection. Hooks registered
// with OnSessionChange run after every Update that changes the identity.
type Session struct {
	mu      sync.Mutex
	current AuthContext
	nextID  int
	hooks   map[int]func(prev, next AuthContext)
}

func NewSession(ac AuthContext) *Session {
	return &Session{
		current: ac,
		hooks:   make(map[int]func(prev, next AuthContext)),
	}
}

func (s *Session) Current() AuthContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnSessionChange registers fn and returns a function that unregisters it.
func (s *Session) OnSessionChange(fn func(prev, next AuthContext)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.hooks[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.hooks, id)
		s.mu.Unlock()
	}
}

// Update replaces the identity. Hooks run on the caller's goroutine, outside
// the lock, and only when something changed.
func (s *Session) Update(ac AuthContext) {
	s.mu.Lock()
	prev := s.current
	if prev == ac {
		s.mu.Unlock()
		return
	}
	s.current = ac
	hooks := make([]func(prev, next AuthContext), 0, len(s.hooks))
	for _, fn := range s.hooks {
		hooks = append(hooks, fn)
	}
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(prev, ac)
	}
}
