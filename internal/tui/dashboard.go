package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Batdan007/MaiAI-Birth/internal/models"
	"github.com/Batdan007/MaiAI-Birth/internal/store"
)

// AgentLister fetches the signed-in user's agents
type AgentLister interface {
	ListAgents(ctx context.Context, token string) ([]models.AgentSummary, error)
}

// DashboardModel lists agents from the registry
type DashboardModel struct {
	ctx      context.Context
	sessions *store.SessionStore
	agents   *store.AgentRegistry
	lister   AgentLister
	showAll  bool

	cursor  int
	loading bool
	err     string
	notice  string
	spinner spinner.Model
	keys    KeyMap
	theme   *Theme

	width  int
	height int
}

// NewDashboardModel creates the agent list. Only active agents are shown
// unless showAll is set.
func NewDashboardModel(ctx context.Context, sessions *store.SessionStore, agents *store.AgentRegistry, lister AgentLister, showAll bool) *DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = DefaultTheme.Spinner

	return &DashboardModel{
		ctx:      ctx,
		sessions: sessions,
		agents:   agents,
		lister:   lister,
		showAll:  showAll,
		spinner:  s,
		keys:     DefaultKeyMap(),
		theme:    DefaultTheme,
	}
}

// SetSize updates the known terminal dimensions
func (m *DashboardModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetNotice shows a one-line notice above the list
func (m *DashboardModel) SetNotice(notice string) {
	m.notice = notice
}

// Visible returns the agents the list shows
func (m *DashboardModel) Visible() []models.AgentSummary {
	if m.showAll {
		return m.agents.List()
	}
	return m.agents.Active()
}

// Init fetches the agent list
func (m *DashboardModel) Init() tea.Cmd {
	return m.refresh()
}

func (m *DashboardModel) refresh() tea.Cmd {
	sess, err := m.sessions.Require()
	if err != nil {
		return navigate(SessionLostMsg{})
	}
	m.loading = true
	m.err = ""

	ctx, lister, registry := m.ctx, m.lister, m.agents
	return tea.Batch(
		func() tea.Msg {
			version := registry.Version()
			list, err := lister.ListAgents(ctx, sess.Token)
			if err != nil {
				return AgentsLoadedMsg{Err: err}
			}
			// a birth landed while fetching; this list may not include it
			if !registry.SetAgentsIfUnchanged(version, list) {
				return AgentsLoadedMsg{Stale: true}
			}
			return AgentsLoadedMsg{}
		},
		m.spinner.Tick,
	)
}

// Update handles list navigation
func (m *DashboardModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case AgentsLoadedMsg:
		if msg.Stale {
			return m.refresh()
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
		}
		if n := len(m.Visible()); m.cursor >= n {
			m.cursor = max(n-1, 0)
		}
		return nil

	case spinner.TickMsg:
		if !m.loading {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case tea.KeyMsg:
		visible := m.Visible()
		switch {
		case key.Matches(msg, m.keys.Quit):
			return tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(visible)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Enter):
			if m.cursor < len(visible) {
				return navigate(OpenChatMsg{AgentID: visible[m.cursor].ID})
			}
		case key.Matches(msg, m.keys.New):
			return navigate(OpenBirthMsg{})
		case key.Matches(msg, m.keys.Logout):
			m.sessions.Logout()
			return navigate(SessionLostMsg{})
		case key.Matches(msg, m.keys.Refresh):
			if !m.loading {
				m.notice = ""
				return m.refresh()
			}
		}
	}

	return nil
}

// View renders the header and agent list
func (m *DashboardModel) View() string {
	width := max(m.width, 40)
	height := max(m.height, 10)

	var b strings.Builder
	b.WriteString(m.header(width))
	b.WriteString("\n\n")

	pad := lipgloss.NewStyle().Padding(0, 2)
	title := "Your Companions"
	if m.showAll {
		title = "All Companions"
	}
	b.WriteString(pad.Render(m.theme.Title.Render(title)))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(pad.Render(m.theme.StatusWarning.Render(m.notice)))
		b.WriteString("\n")
	}
	if m.err != "" {
		b.WriteString(pad.Render(m.theme.StatusError.Render(m.err)))
		b.WriteString("\n")
	}

	visible := m.Visible()
	switch {
	case m.loading && len(visible) == 0:
		b.WriteString(pad.Render(m.spinner.View() + " " + m.theme.ValueMuted.Render("Loading agents...")))
		b.WriteString("\n")
	case len(visible) == 0:
		b.WriteString(pad.Render(m.theme.ValueMuted.Render("No companions yet. Press n to birth your first one.")))
		b.WriteString("\n")
	default:
		for i, agent := range visible {
			b.WriteString(pad.Render(m.renderAgent(agent, i == m.cursor)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(pad.Render(ScreenHelpText(ScreenDashboard)))
	padScreen(&b, height)
	return b.String()
}

func (m *DashboardModel) header(width int) string {
	left := m.theme.LogoDot.Render("◉") + m.theme.Logo.Render(" Mai-AI")

	right := ""
	if user := m.sessions.Get().User; user != nil {
		right = m.theme.UserEmail.Render(user.Email) + "  " + m.theme.BadgeSuccess.Render(user.TierBadge())
	}

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right)-4, 0)
	return m.theme.HeaderContainer.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m *DashboardModel) renderAgent(agent models.AgentSummary, selected bool) string {
	cursor := "  "
	style := m.theme.ListItem
	if selected {
		cursor = m.theme.ListCursor.Render("> ")
		style = m.theme.ListItemActive
	}

	status := m.theme.BadgeSuccess.Render(agent.Status)
	if !agent.IsActive() {
		status = m.theme.BadgeMuted.Render(agent.Status)
	}

	line := fmt.Sprintf("%-20s %-10s %4d chats", agent.Name, agent.Personality, agent.TotalConversations)
	return cursor + style.Render(line) + " " + status
}
