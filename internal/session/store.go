package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ErrSignedOut is returned by Token while no session is active.
var ErrSignedOut = errors.New("session: signed out")

// Store holds the current bearer token. It implements oauth2.TokenSource so
// an HTTP client can attach the token to every request.
type Store struct {
	bus *Bus

	mu    sync.RWMutex
	token string
	id    string
}

var _ oauth2.TokenSource = (*Store)(nil)

// NewStore creates a store publishing on bus. A non-empty token starts a
// session without publishing.
func NewStore(bus *Bus, token string) *Store {
	s := &Store{bus: bus, token: token}
	if token != "" {
		s.id = uuid.NewString()
	}
	return s
}

func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return nil, ErrSignedOut
	}
	return &oauth2.Token{AccessToken: s.token, TokenType: "Bearer"}, nil
}

// SessionID identifies the current session; empty when signed out.
func (s *Store) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *Store) SignedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// SignIn starts a new session with token. Signing in with the current token
// is a no-op.
func (s *Store) SignIn(token string) Event {
	s.mu.Lock()
	if token == "" {
		s.mu.Unlock()
		return s.SignOut()
	}
	if token == s.token {
		e := Event{Type: SignedIn, SessionID: s.id}
		s.mu.Unlock()
		return e
	}
	s.token = token
	s.id = uuid.NewString()
	e := Event{Type: SignedIn, SessionID: s.id}
	s.mu.Unlock()

	s.bus.Publish(e)
	return e
}

// Refresh swaps the token and keeps the session ID. An empty token signs
// out.
func (s *Store) Refresh(token string) (Event, error) {
	if token == "" {
		if !s.SignedIn() {
			return Event{}, ErrSignedOut
		}
		return s.SignOut(), nil
	}
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return Event{}, ErrSignedOut
	}
	s.token = token
	e := Event{Type: Refreshed, SessionID: s.id}
	s.mu.Unlock()

	s.bus.Publish(e)
	return e, nil
}

// SignOut ends the session. Signing out while signed out publishes nothing.
func (s *Store) SignOut() Event {
	s.mu.Lock()
	wasSignedIn := s.token != ""
	s.token, s.id = "", ""
	s.mu.Unlock()

	e := Event{Type: SignedOut}
	if wasSignedIn {
		s.bus.Publish(e)
	}
	return e
}
