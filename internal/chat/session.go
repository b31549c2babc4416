// Package chat holds the transcript of one conversation with an agent.
// Transcripts live only as long as the Session; nothing here is persisted.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Batdan007/MaiAI-Birth/internal/logging"
	"github.com/Batdan007/MaiAI-Birth/internal/models"
	"github.com/Batdan007/MaiAI-Birth/internal/store"
)

const (
	// ContextWindow is how many prior turns travel with each message
	ContextWindow = 10
	// ErrorPrefix starts the assistant turn recorded for a failed send
	ErrorPrefix = "Error: "
	// FallbackMessage is used when a failed send carries no message
	FallbackMessage = "Failed to get response"
)

var (
	// ErrAgentUnavailable is returned by Open when the agent cannot be fetched
	ErrAgentUnavailable = errors.New("agent unavailable")
	// ErrEmptyMessage is returned for blank input; nothing is sent
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy is returned while a previous send is outstanding; nothing is sent
	ErrBusy = errors.New("a message is already being sent")
)

// Client is the subset of the API used by a chat session
type Client interface {
	GetAgent(ctx context.Context, token, agentID string) (*models.AgentSummary, error)
	Chat(ctx context.Context, token, agentID string, req models.ChatRequest) (*models.ChatResponse, error)
}

// Session is one open conversation
type Session struct {
	mu             sync.Mutex
	agent          models.AgentSummary
	transcript     []models.Turn
	sending        bool
	conversationID string

	sessions *store.SessionStore
	client   Client
	logger   *slog.Logger
}

// Open fetches the agent and starts an empty transcript. It returns
// store.ErrNoSession when signed out and ErrAgentUnavailable when the agent
// cannot be loaded.
func Open(ctx context.Context, sessions *store.SessionStore, client Client, agentID string, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sess, err := sessions.Require()
	if err != nil {
		return nil, err
	}

	agent, err := client.GetAgent(ctx, sess.Token, agentID)
	if err != nil {
		logger.Warn("failed to load agent", "agent_id", agentID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrAgentUnavailable, err)
	}

	return &Session{
		agent:    *agent,
		sessions: sessions,
		client:   client,
		logger:   logging.WithAgent(logger, agent.ID),
	}, nil
}

// Agent returns the agent this session talks to
func (s *Session) Agent() models.AgentSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agent
}

// Transcript returns a copy of the turns so far
func (s *Session) Transcript() []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Turn(nil), s.transcript...)
}

// Sending reports whether a send is outstanding
func (s *Session) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// ConversationID returns the id reported by the last successful reply
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Send appends input as a user turn, asks the agent, and appends the reply.
// A failed request is recorded as an assistant turn starting with
// ErrorPrefix and is not returned as an error. Blank input, an outstanding
// send, or a lost session leave the transcript untouched and return
// ErrEmptyMessage, ErrBusy or store.ErrNoSession.
func (s *Session) Send(ctx context.Context, input string) (models.Turn, error) {
	message := strings.TrimSpace(input)
	if message == "" {
		return models.Turn{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return models.Turn{}, ErrBusy
	}
	token := s.sessions.Token()
	if token == "" {
		s.mu.Unlock()
		return models.Turn{}, store.ErrNoSession
	}

	start := max(len(s.transcript)-ContextWindow, 0)
	req := models.ChatRequest{
		Message: message,
		Context: append([]models.Turn(nil), s.transcript[start:]...),
	}
	s.transcript = append(s.transcript, models.Turn{Role: models.RoleUser, Content: message})
	s.sending = true
	agentID := s.agent.ID
	s.mu.Unlock()

	resp, err := s.client.Chat(ctx, token, agentID, req)

	var reply models.Turn
	if err != nil {
		s.logger.Warn("chat request failed", "error", err)
		reply = models.Turn{Role: models.RoleAssistant, Content: ErrorPrefix + errorText(err)}
	} else {
		reply = models.Turn{Role: models.RoleAssistant, Content: resp.Response}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, reply)
	s.sending = false
	if err == nil && resp.ConversationID != "" {
		s.conversationID = resp.ConversationID
	}
	return reply, nil
}

func errorText(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackMessage
}
