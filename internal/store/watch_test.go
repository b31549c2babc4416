package store

import (
	"context"
	"testing"
	"time"

	"github.com/Batdan007/MaiAI-Birth/internal/logging"
)

func TestStateName(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"/x/mai-ai-auth.yaml", "mai-ai-auth", true},
		{"/x/.mai-ai-auth.tmp-123", "", false},
		{"/x/notes.txt", "", false},
	}
	for _, tt := range tests {
		got, ok := stateName(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("stateName(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

// TestWatchStoresPicksUpOtherProcess simulates a second CLI process logging
// out while a long-running view holds its own store instance.
func TestWatchStoresPicksUpOtherProcess(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend failed: %v", err)
	}
	viewStore := NewSessionStore(backend, logging.Discard())
	viewStore.SetAuth("tok", testProfile())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 8)
	err = WatchStores(ctx, backend, logging.Discard(), map[string]Reloader{SessionName: viewStore}, func(name string) {
		changed <- name
	})
	if err != nil {
		t.Fatalf("WatchStores failed: %v", err)
	}

	otherProcess := NewSessionStore(backend, logging.Discard())
	otherProcess.Logout()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case name := <-changed:
			if name == SessionName && !viewStore.Get().Authenticated() {
				return
			}
		case <-deadline:
			t.Fatal("Timed out waiting for the view store to observe logout")
		}
	}
}
