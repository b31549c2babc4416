package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Batdan007/MaiAI-Birth/internal/chat"
	"github.com/Batdan007/MaiAI-Birth/internal/models"
	"github.com/Batdan007/MaiAI-Birth/internal/store"
)

// chatScreens numbers chat screens so results from a screen that was left
// are not picked up by the next one
var chatScreens atomic.Uint64

// ChatModel renders one conversation
type ChatModel struct {
	id       uint64
	ctx      context.Context
	sessions *store.SessionStore
	client   chat.Client
	agentID  string
	logger   *slog.Logger

	session  *chat.Session
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	sending  bool
	keys     KeyMap
	theme    *Theme

	width  int
	height int
}

// NewChatModel creates the chat screen for agentID
func NewChatModel(ctx context.Context, sessions *store.SessionStore, client chat.Client, agentID string, logger *slog.Logger) *ChatModel {
	if logger == nil {
		logger = slog.Default()
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = DefaultTheme.Spinner

	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 4000
	input.Prompt = "› "

	return &ChatModel{
		id:       chatScreens.Add(1),
		ctx:      ctx,
		sessions: sessions,
		client:   client,
		agentID:  agentID,
		logger:   logger,
		input:    input,
		viewport: viewport.New(80, 20),
		spinner:  s,
		keys:     DefaultKeyMap(),
		theme:    DefaultTheme,
	}
}

// SetSize updates the known terminal dimensions
func (m *ChatModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = max(width-4, 20)
	m.viewport.Height = max(height-8, 5)
	m.input.Width = max(width-8, 20)
	m.refresh()
}

// Session returns the open chat session, nil until opened
func (m *ChatModel) Session() *chat.Session {
	return m.session
}

// Init opens the chat session
func (m *ChatModel) Init() tea.Cmd {
	ctx, sessions, client, agentID, logger, id := m.ctx, m.sessions, m.client, m.agentID, m.logger, m.id
	return tea.Batch(
		func() tea.Msg {
			s, err := chat.Open(ctx, sessions, client, agentID, logger)
			return ChatOpenedMsg{AgentID: agentID, Session: s, Err: err, screen: id}
		},
		m.input.Focus(),
	)
}

// Update handles input and replies
func (m *ChatModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case ChatOpenedMsg:
		if !m.owns(msg.screen, msg.AgentID) {
			m.logger.Debug("dropping stale chat open", "agent_id", msg.AgentID)
			return nil
		}
		switch {
		case errors.Is(msg.Err, store.ErrNoSession):
			return navigate(SessionLostMsg{})
		case msg.Err != nil:
			return navigate(OpenDashboardMsg{Notice: "Agent not found"})
		}
		m.session = msg.Session
		m.refresh()
		return nil

	case ChatReplyMsg:
		if !m.owns(msg.screen, msg.AgentID) {
			return nil
		}
		m.sending = false
		if errors.Is(msg.Err, store.ErrNoSession) {
			return navigate(SessionLostMsg{})
		}
		m.refresh()
		return nil

	case spinner.TickMsg:
		if !m.sending {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.ForceQuit):
			return tea.Quit
		case key.Matches(msg, m.keys.Back):
			return navigate(OpenDashboardMsg{})
		case key.Matches(msg, m.keys.Enter):
			return m.send()
		case msg.Type == tea.KeyPgUp || msg.Type == tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd
	}

	return nil
}

func (m *ChatModel) owns(screen uint64, agentID string) bool {
	return screen == m.id && agentID == m.agentID
}

func (m *ChatModel) send() tea.Cmd {
	if m.session == nil || m.sending {
		return nil
	}
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return nil
	}
	m.input.Reset()
	m.sending = true

	ctx, session, agentID, id := m.ctx, m.session, m.agentID, m.id
	return tea.Batch(
		func() tea.Msg {
			_, err := session.Send(ctx, text)
			return ChatReplyMsg{AgentID: agentID, Err: err, screen: id}
		},
		m.spinner.Tick,
	)
}

func (m *ChatModel) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *ChatModel) renderTranscript() string {
	if m.session == nil {
		return m.theme.ValueMuted.Render("Connecting...")
	}
	agent := m.session.Agent()
	transcript := m.session.Transcript()
	if len(transcript) == 0 {
		return m.theme.ValueMuted.Render("Start a conversation with " + agent.Name + ".")
	}

	width := max(m.viewport.Width-4, 20)
	var b strings.Builder
	for _, turn := range transcript {
		switch {
		case turn.Role == models.RoleUser:
			b.WriteString(m.theme.Speaker.Render("You"))
			b.WriteString("\n")
			b.WriteString(m.theme.UserTurn.Width(width).Render(turn.Content))
		case strings.HasPrefix(turn.Content, chat.ErrorPrefix):
			b.WriteString(m.theme.Speaker.Render(agent.Name))
			b.WriteString("\n")
			b.WriteString(m.theme.ErrorTurn.Width(width).Render(turn.Content))
		default:
			b.WriteString(m.theme.Speaker.Render(agent.Name))
			b.WriteString("\n")
			b.WriteString(m.theme.AssistantTurn.Width(width).Render(turn.Content))
		}
		b.WriteString("\n\n")
	}
	if m.sending {
		b.WriteString(m.spinner.View() + " " + m.theme.ValueMuted.Render(agent.Name+" is thinking..."))
	}
	return b.String()
}

// View renders the header, transcript and input
func (m *ChatModel) View() string {
	width := max(m.width, 40)

	title := m.theme.LogoDot.Render("◉ ") + m.theme.Logo.Render(m.agentID)
	if m.session != nil {
		agent := m.session.Agent()
		title = m.theme.LogoDot.Render("◉ ") + m.theme.Logo.Render(agent.Name) +
			"  " + m.theme.BadgeMuted.Render(agent.Personality)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.HeaderContainer.Width(width).Render(title),
		lipgloss.NewStyle().Padding(0, 2).Render(m.viewport.View()),
		HorizontalLine(width),
		lipgloss.NewStyle().Padding(0, 2).Render(m.input.View()),
		lipgloss.NewStyle().Padding(0, 2).Render(ScreenHelpText(ScreenChat)),
	)
}
