package store

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/Batdan007/MaiAI-Birth/internal/models"
)

// SessionName is the persisted name of the auth state
const SessionName = "mai-ai-auth"

var (
	// ErrNoSession is returned when a protected operation runs without a
	// signed-in user. Callers treat it as "go to login", not as a failure.
	ErrNoSession = errors.New("not signed in")
	// ErrEmptyToken is returned by SetAuth for an empty token
	ErrEmptyToken = errors.New("token must not be empty")
)

// Session is a snapshot of the auth state. Token and User are either both
// set or both empty.
type Session struct {
	Token string
	User  *models.Profile
}

// Authenticated reports whether the snapshot holds a signed-in user
func (s Session) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

type persistedSession struct {
	Token string          `yaml:"token,omitempty"`
	User  *models.Profile `yaml:"user,omitempty"`
}

// SessionStore holds the current token and profile
type SessionStore struct {
	mu      sync.RWMutex
	token   string
	user    *models.Profile
	backend Backend
	logger  *slog.Logger
}

// NewSessionStore creates the store and loads any persisted session.
// Unreadable state is logged and treated as signed out.
func NewSessionStore(backend Backend, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SessionStore{backend: backend, logger: logger}
	if err := s.Reload(); err != nil {
		logger.Warn("failed to load session, starting signed out", "error", err)
	}
	return s
}

// Reload replaces the in-memory state with the persisted one
func (s *SessionStore) Reload() error {
	var p persistedSession
	err := s.backend.Load(SessionName, &p)
	if errors.Is(err, ErrNotFound) {
		err = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.token, s.user = "", nil
		return err
	}
	// A half-written pair is not a session
	if p.Token == "" || p.User == nil {
		s.token, s.user = "", nil
		return nil
	}
	s.token, s.user = p.Token, p.User
	return nil
}

// SetAuth replaces token and user together
func (s *SessionStore) SetAuth(token string, user models.Profile) error {
	if token == "" {
		return ErrEmptyToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.user = token, &user
	s.persistLocked()
	return nil
}

// Logout clears token and user together
func (s *SessionStore) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.user = "", nil
	s.persistLocked()
}

// Get returns a snapshot of the current session
func (s *SessionStore) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return Session{}
	}
	u := *s.user
	return Session{Token: s.token, User: &u}
}

// Token returns the bearer token, or "" when signed out
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Require returns the session or ErrNoSession
func (s *SessionStore) Require() (Session, error) {
	sess := s.Get()
	if !sess.Authenticated() {
		return Session{}, ErrNoSession
	}
	return sess, nil
}

// persistLocked is best-effort: losing the session only forces a new login.
func (s *SessionStore) persistLocked() {
	p := persistedSession{Token: s.token, User: s.user}
	if err := s.backend.Save(SessionName, p); err != nil {
		s.logger.Warn("failed to persist session", "error", err)
	}
}
