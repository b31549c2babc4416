package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Batdan007/MaiAI-Birth/internal/apiclient"
	"github.com/Batdan007/MaiAI-Birth/internal/logging"
	"github.com/Batdan007/MaiAI-Birth/internal/models"
	"github.com/Batdan007/MaiAI-Birth/internal/store"
)

type fakeClient struct {
	mu       sync.Mutex
	requests []models.ChatRequest
	agentErr error
	chatErr  error
	started  chan struct{}
	release  chan struct{}
}

func (f *fakeClient) GetAgent(ctx context.Context, token, agentID string) (*models.AgentSummary, error) {
	if f.agentErr != nil {
		return nil, f.agentErr
	}
	return &models.AgentSummary{ID: agentID, Name: "Ada", Personality: "scholar", Status: models.AgentActive}, nil
}

func (f *fakeClient) Chat(ctx context.Context, token, agentID string, req models.ChatRequest) (*models.ChatResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	n := len(f.requests)
	err := f.chatErr
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if err != nil {
		return nil, err
	}
	return &models.ChatResponse{Response: fmt.Sprintf("reply %d", n), ConversationID: "conv-1"}, nil
}

func (f *fakeClient) Requests() []models.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ChatRequest(nil), f.requests...)
}

func signedIn(t *testing.T) *store.SessionStore {
	t.Helper()
	s := store.NewSessionStore(store.NewMemoryBackend(), logging.Discard())
	if err := s.SetAuth("tok", models.Profile{ID: "u1", Email: "ada@example.com"}); err != nil {
		t.Fatalf("SetAuth failed: %v", err)
	}
	return s
}

func openSession(t *testing.T, client *fakeClient) *Session {
	t.Helper()
	s, err := Open(context.Background(), signedIn(t), client, "agent-1", logging.Discard())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func TestOpenRequiresSession(t *testing.T) {
	sessions := store.NewSessionStore(store.NewMemoryBackend(), logging.Discard())
	_, err := Open(context.Background(), sessions, &fakeClient{}, "agent-1", logging.Discard())
	if !errors.Is(err, store.ErrNoSession) {
		t.Errorf("Expected ErrNoSession, got %v", err)
	}
}

func TestOpenAgentUnavailable(t *testing.T) {
	client := &fakeClient{agentErr: &apiclient.APIError{Status: 404, Message: "Agent not found"}}
	_, err := Open(context.Background(), signedIn(t), client, "missing", logging.Discard())
	if !errors.Is(err, ErrAgentUnavailable) {
		t.Errorf("Expected ErrAgentUnavailable, got %v", err)
	}
	if apiclient.StatusCode(err) != 404 {
		t.Errorf("Expected wrapped 404, got %d", apiclient.StatusCode(err))
	}
}

func TestOpenStartsEmpty(t *testing.T) {
	s := openSession(t, &fakeClient{})
	if len(s.Transcript()) != 0 {
		t.Errorf("Expected empty transcript, got %d turns", len(s.Transcript()))
	}
	if s.Agent().Name != "Ada" {
		t.Errorf("Expected agent Ada, got %q", s.Agent().Name)
	}
}

func TestSendBlankIsNoop(t *testing.T) {
	client := &fakeClient{}
	s := openSession(t, client)

	for _, input := range []string{"", "   ", "\n\t"} {
		if _, err := s.Send(context.Background(), input); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("Expected ErrEmptyMessage for %q, got %v", input, err)
		}
	}
	if len(s.Transcript()) != 0 {
		t.Errorf("Expected no transcript change, got %d turns", len(s.Transcript()))
	}
	if len(client.Requests()) != 0 {
		t.Errorf("Expected no requests, got %d", len(client.Requests()))
	}
}

func TestSendAppendsUserAndReply(t *testing.T) {
	s := openSession(t, &fakeClient{})

	reply, err := s.Send(context.Background(), "  hello  ")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply.Role != models.RoleAssistant || reply.Content != "reply 1" {
		t.Errorf("Unexpected reply: %+v", reply)
	}

	got := s.Transcript()
	want := []models.Turn{
		{Role: models.RoleUser, Content: "hello"},
		{Role: models.RoleAssistant, Content: "reply 1"},
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d turns, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Turn %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	if s.ConversationID() != "conv-1" {
		t.Errorf("Expected conversation id, got %q", s.ConversationID())
	}
}

func TestSendCarriesLastTenPriorTurns(t *testing.T) {
	client := &fakeClient{}
	s := openSession(t, client)

	for i := 0; i < 7; i++ {
		if _, err := s.Send(context.Background(), fmt.Sprintf("msg %d", i)); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
	}

	reqs := client.Requests()
	if len(reqs[0].Context) != 0 {
		t.Errorf("Expected empty context on first send, got %d", len(reqs[0].Context))
	}
	if len(reqs[1].Context) != 2 {
		t.Errorf("Expected 2 prior turns on second send, got %d", len(reqs[1].Context))
	}

	last := reqs[len(reqs)-1]
	if len(last.Context) != ContextWindow {
		t.Fatalf("Expected %d context turns, got %d", ContextWindow, len(last.Context))
	}
	if last.Context[0].Content != "msg 1" {
		t.Errorf("Expected oldest context turn to be msg 1, got %q", last.Context[0].Content)
	}
	for _, turn := range last.Context {
		if turn.Content == last.Message {
			t.Error("Expected the new message to be excluded from its own context")
		}
	}
}

func TestSendFailureIsAbsorbed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"api detail", &apiclient.APIError{Status: 500, Message: "Model overloaded"}, "Error: Model overloaded"},
		{"api fallback", &apiclient.APIError{Status: 502, Message: apiclient.FallbackMessage}, "Error: Request failed"},
		{"empty message", errors.New(""), "Error: Failed to get response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openSession(t, &fakeClient{chatErr: tt.err})

			reply, err := s.Send(context.Background(), "hi")
			if err != nil {
				t.Fatalf("Expected failure to be absorbed, got %v", err)
			}
			if reply.Role != models.RoleAssistant || reply.Content != tt.want {
				t.Errorf("Expected %q, got %+v", tt.want, reply)
			}
			if n := len(s.Transcript()); n != 2 {
				t.Errorf("Expected 2 turns, got %d", n)
			}
			if s.Sending() {
				t.Error("Expected sending to be cleared")
			}
		})
	}
}

func TestSendWhileOutstandingIsNoop(t *testing.T) {
	client := &fakeClient{started: make(chan struct{}, 1), release: make(chan struct{})}
	s := openSession(t, client)

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "first")
		done <- err
	}()
	<-client.started

	if !s.Sending() {
		t.Error("Expected sending while the request is outstanding")
	}
	if n := len(s.Transcript()); n != 1 {
		t.Errorf("Expected optimistic user turn, got %d turns", n)
	}
	if _, err := s.Send(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy, got %v", err)
	}

	close(client.release)
	if err := <-done; err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if n := len(s.Transcript()); n != 2 {
		t.Errorf("Expected exactly 2 turns, got %d", n)
	}
	if n := len(client.Requests()); n != 1 {
		t.Errorf("Expected 1 request, got %d", n)
	}
}

func TestSendAfterLogout(t *testing.T) {
	sessions := signedIn(t)
	client := &fakeClient{}
	s, err := Open(context.Background(), sessions, client, "agent-1", logging.Discard())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	sessions.Logout()
	if _, err := s.Send(context.Background(), "hi"); !errors.Is(err, store.ErrNoSession) {
		t.Errorf("Expected ErrNoSession, got %v", err)
	}
	if len(s.Transcript()) != 0 || len(client.Requests()) != 0 {
		t.Error("Expected no transcript change and no request after logout")
	}
}
