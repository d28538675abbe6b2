package client

import "sync"

// Session holds the bearer token for the current user. The zero value is an
// unauthenticated session.
type Session struct {
	mu    sync.RWMutex
	token string
}

func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *Session) Clear() {
	s.SetToken("")
}

func (s *Session) Authenticated() bool {
	_, ok := s.Token()
	return ok
}
