package tui

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Batdan007/MaiAI-Birth/internal/birth"
	"github.com/Batdan007/MaiAI-Birth/internal/chat"
	"github.com/Batdan007/MaiAI-Birth/internal/store"
)

// API is the backend surface the screens use
type API interface {
	AgentLister
	birth.Birther
	chat.Client
}

// Deps are the collaborators shared by every screen
type Deps struct {
	Sessions *store.SessionStore
	Agents   *store.AgentRegistry
	API      API
	Logger   *slog.Logger
	// RevealUnit is the reveal time unit; zero means one second
	RevealUnit time.Duration
	// ShowAll lists inactive agents too
	ShowAll bool
	// Watch, when set, reports store files rewritten by other processes.
	// It must return once watching has started.
	Watch func(ctx context.Context, notify func(name string)) error
}

// App is the main TUI application model. It owns one screen at a time and
// switches on navigation messages.
type App struct {
	ctx    context.Context
	deps   Deps
	screen Screen

	dashboard *DashboardModel
	birth     *BirthModel
	chat      *ChatModel

	startCmd    tea.Cmd
	width       int
	height      int
	sessionLost bool
}

// NewApp creates the app on the start screen. agentID is used when
// starting on the chat screen.
func NewApp(ctx context.Context, deps Deps, start Screen, agentID string) *App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	a := &App{ctx: ctx, deps: deps}
	a.startCmd = a.enter(start, agentID)
	return a
}

// Screen returns the active screen
func (a *App) Screen() Screen {
	return a.screen
}

// SessionLost reports whether the app exited because no session was found
func (a *App) SessionLost() bool {
	return a.sessionLost
}

// enter tears down the current screen and builds the next one
func (a *App) enter(screen Screen, agentID string) tea.Cmd {
	if a.birth != nil {
		a.birth.Close()
		a.birth = nil
	}
	a.chat = nil
	a.screen = screen

	var cmd tea.Cmd
	switch screen {
	case ScreenDashboard:
		if a.dashboard == nil {
			a.dashboard = NewDashboardModel(a.ctx, a.deps.Sessions, a.deps.Agents, a.deps.API, a.deps.ShowAll)
		}
		a.dashboard.SetSize(a.width, a.height)
		cmd = a.dashboard.Init()
	case ScreenBirth:
		wizard := birth.NewWizard(a.deps.Sessions, a.deps.Agents, a.deps.API, a.deps.Logger)
		a.birth = NewBirthModel(a.ctx, wizard, birth.NewRevealTimeline(a.deps.RevealUnit))
		a.birth.SetSize(a.width, a.height)
		cmd = a.birth.Init()
	case ScreenChat:
		a.chat = NewChatModel(a.ctx, a.deps.Sessions, a.deps.API, agentID, a.deps.Logger)
		a.chat.SetSize(a.width, a.height)
		cmd = a.chat.Init()
	}
	a.deps.Logger.Debug("screen changed", "screen", screen.String(), "agent_id", agentID)
	return cmd
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return a.startCmd
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		if a.dashboard != nil {
			a.dashboard.SetSize(msg.Width, msg.Height)
		}
		if a.birth != nil {
			a.birth.SetSize(msg.Width, msg.Height)
		}
		if a.chat != nil {
			a.chat.SetSize(msg.Width, msg.Height)
		}
		return a, nil

	case SessionLostMsg:
		return a, a.loseSession()

	case StateChangedMsg:
		if !a.deps.Sessions.Get().Authenticated() {
			return a, a.loseSession()
		}
		return a, nil

	case OpenDashboardMsg:
		cmd := a.enter(ScreenDashboard, "")
		a.dashboard.SetNotice(msg.Notice)
		return a, cmd

	case OpenBirthMsg:
		return a, a.enter(ScreenBirth, "")

	case OpenChatMsg:
		return a, a.enter(ScreenChat, msg.AgentID)
	}

	switch a.screen {
	case ScreenDashboard:
		return a, a.dashboard.Update(msg)
	case ScreenBirth:
		return a, a.birth.Update(msg)
	case ScreenChat:
		return a, a.chat.Update(msg)
	}
	return a, nil
}

func (a *App) loseSession() tea.Cmd {
	a.sessionLost = true
	if a.birth != nil {
		a.birth.Close()
	}
	return tea.Quit
}

// View implements tea.Model
func (a *App) View() string {
	switch a.screen {
	case ScreenBirth:
		return a.birth.View()
	case ScreenChat:
		return a.chat.View()
	default:
		return a.dashboard.View()
	}
}

// Run starts the TUI on the start screen. It returns store.ErrNoSession when
// a screen found the user signed out.
func Run(ctx context.Context, deps Deps, start Screen, agentID string) error {
	app := NewApp(ctx, deps, start, agentID)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	if deps.Watch != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		notify := func(name string) { p.Send(StateChangedMsg{Name: name}) }
		if err := deps.Watch(watchCtx, notify); err != nil {
			app.deps.Logger.Warn("state watcher unavailable", "error", err)
		}
	}

	if _, err := p.Run(); err != nil {
		return err
	}
	if app.sessionLost {
		return store.ErrNoSession
	}
	return nil
}
