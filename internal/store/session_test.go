package store

import (
	"errors"
	"os"
	"testing"

	"github.com/Batdan007/MaiAI-Birth/internal/logging"
	"github.com/Batdan007/MaiAI-Birth/internal/models"
)

func testProfile() models.Profile {
	return models.Profile{
		ID:               "user-1",
		Email:            "ada@example.com",
		SubscriptionTier: models.TierPro,
		BetaAccess:       true,
	}
}

func TestSessionStartsSignedOut(t *testing.T) {
	s := NewSessionStore(NewMemoryBackend(), logging.Discard())

	if s.Get().Authenticated() {
		t.Error("New store should be signed out")
	}
	if _, err := s.Require(); !errors.Is(err, ErrNoSession) {
		t.Errorf("Expected ErrNoSession, got %v", err)
	}
}

func TestSetAuthThenLogoutRestoresInitialState(t *testing.T) {
	s := NewSessionStore(NewMemoryBackend(), logging.Discard())
	initial := s.Get()

	if err := s.SetAuth("tok", testProfile()); err != nil {
		t.Fatalf("SetAuth failed: %v", err)
	}
	sess, err := s.Require()
	if err != nil {
		t.Fatalf("Require failed: %v", err)
	}
	if sess.Token != "tok" || sess.User.Email != "ada@example.com" {
		t.Errorf("Unexpected session: %+v", sess)
	}

	s.Logout()
	after := s.Get()
	if after.Token != initial.Token || after.User != initial.User {
		t.Errorf("Expected initial state after logout, got %+v", after)
	}
}

func TestSetAuthReplacesWholesale(t *testing.T) {
	s := NewSessionStore(NewMemoryBackend(), logging.Discard())
	s.SetAuth("first", testProfile())
	s.SetAuth("second", models.Profile{ID: "user-2", Email: "bob@example.com"})

	sess := s.Get()
	if sess.Token != "second" {
		t.Errorf("Expected token second, got %s", sess.Token)
	}
	if sess.User.BetaAccess || sess.User.SubscriptionTier != "" {
		t.Errorf("Profile should be replaced, not merged: %+v", sess.User)
	}
}

func TestSetAuthRejectsEmptyToken(t *testing.T) {
	s := NewSessionStore(NewMemoryBackend(), logging.Discard())
	if err := s.SetAuth("", testProfile()); !errors.Is(err, ErrEmptyToken) {
		t.Errorf("Expected ErrEmptyToken, got %v", err)
	}
	if s.Get().Authenticated() {
		t.Error("Store must stay signed out")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewSessionStore(NewMemoryBackend(), logging.Discard())
	s.SetAuth("tok", testProfile())

	sess := s.Get()
	sess.User.Email = "mutated@example.com"
	if s.Get().User.Email != "ada@example.com" {
		t.Error("Snapshot mutation leaked into the store")
	}
}

func TestSessionSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("NewFileBackend failed: %v", err)
	}

	first := NewSessionStore(backend, logging.Discard())
	first.SetAuth("persisted-token", testProfile())

	info, err := os.Stat(backend.Path(SessionName))
	if err != nil {
		t.Fatalf("Expected session file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600 permissions, got %v", info.Mode().Perm())
	}

	second := NewSessionStore(backend, logging.Discard())
	sess, err := second.Require()
	if err != nil {
		t.Fatalf("Expected restored session: %v", err)
	}
	if sess.Token != "persisted-token" || *sess.User != testProfile() {
		t.Errorf("Unexpected restored session: %+v", sess)
	}

	second.Logout()
	third := NewSessionStore(backend, logging.Discard())
	if third.Get().Authenticated() {
		t.Error("Logout should persist")
	}
}

func TestHalfWrittenSessionIsSignedOut(t *testing.T) {
	backend := NewMemoryBackend()
	backend.Save(SessionName, persistedSession{Token: "orphan"})

	s := NewSessionStore(backend, logging.Discard())
	if s.Get().Authenticated() || s.Token() != "" {
		t.Error("A token without a user must not count as a session")
	}
}

func TestCorruptSessionFile(t *testing.T) {
	backend, _ := NewFileBackend(t.TempDir())
	if err := os.WriteFile(backend.Path(SessionName), []byte("token: [unterminated"), 0600); err != nil {
		t.Fatal(err)
	}

	s := NewSessionStore(backend, logging.Discard())
	if s.Get().Authenticated() {
		t.Error("Corrupt state should load as signed out")
	}
}

func TestInvalidStateName(t *testing.T) {
	backend, _ := NewFileBackend(t.TempDir())
	var v map[string]any
	if err := backend.Load("../escape", &v); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName, got %v", err)
	}
	if err := backend.Save("a/b", v); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName, got %v", err)
	}
}
