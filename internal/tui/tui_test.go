package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Batdan007/MaiAI-Birth/internal/birth"
	"github.com/Batdan007/MaiAI-Birth/internal/chat"
	"github.com/Batdan007/MaiAI-Birth/internal/logging"
	"github.com/Batdan007/MaiAI-Birth/internal/models"
	"github.com/Batdan007/MaiAI-Birth/internal/store"
)

type fakeAPI struct {
	mu     sync.Mutex
	agents []models.AgentSummary
	births []models.BirthRequest
	chats  []models.ChatRequest
}

func (f *fakeAPI) ListAgents(ctx context.Context, token string) ([]models.AgentSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AgentSummary(nil), f.agents...), nil
}

func (f *fakeAPI) BirthAgent(ctx context.Context, token string, req models.BirthRequest) (*models.AgentSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.births = append(f.births, req)
	agent := models.AgentSummary{
		ID:          fmt.Sprintf("agent-%d", len(f.agents)+1),
		Name:        req.Name,
		Personality: req.Personality,
		Status:      models.AgentActive,
	}
	f.agents = append(f.agents, agent)
	return &agent, nil
}

func (f *fakeAPI) GetAgent(ctx context.Context, token, agentID string) (*models.AgentSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.agents {
		if a.ID == agentID {
			return &a, nil
		}
	}
	return nil, errors.New("Agent not found")
}

func (f *fakeAPI) Chat(ctx context.Context, token, agentID string, req models.ChatRequest) (*models.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, req)
	return &models.ChatResponse{Response: "hello, " + req.Message}, nil
}

type testEnv struct {
	sessions *store.SessionStore
	agents   *store.AgentRegistry
	api      *fakeAPI
}

func newTestEnv(t *testing.T, signedIn bool) *testEnv {
	t.Helper()
	backend := store.NewMemoryBackend()
	env := &testEnv{
		sessions: store.NewSessionStore(backend, logging.Discard()),
		agents:   store.NewAgentRegistry(backend, logging.Discard()),
		api:      &fakeAPI{},
	}
	if signedIn {
		user := models.Profile{ID: "u1", Email: "ada@example.com", SubscriptionTier: models.TierPro, BetaAccess: true}
		if err := env.sessions.SetAuth("tok", user); err != nil {
			t.Fatalf("SetAuth failed: %v", err)
		}
	}
	return env
}

func keyPress(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func typeText(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// collect runs cmd and flattens batches, dropping spinner ticks
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if _, ok := msg.(spinner.TickMsg); ok {
		return nil
	}
	return []tea.Msg{msg}
}

func findMsg[T tea.Msg](t *testing.T, msgs []tea.Msg) T {
	t.Helper()
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v
		}
	}
	var zero T
	t.Fatalf("Expected %T among %v", zero, msgs)
	return zero
}

func newBirthModel(env *testEnv, unit time.Duration) *BirthModel {
	wizard := birth.NewWizard(env.sessions, env.agents, env.api, logging.Discard())
	m := NewBirthModel(context.Background(), wizard, birth.NewRevealTimeline(unit))
	m.SetSize(80, 24)
	return m
}

// walkToName answers the quiz by option index and skips the keys step
func walkToName(m *BirthModel, choices ...int) {
	m.Update(keyPress(tea.KeyEnter))
	for _, c := range choices {
		for i := 0; i < c; i++ {
			m.Update(keyPress(tea.KeyDown))
		}
		m.Update(keyPress(tea.KeyEnter))
	}
	m.Update(keyPress(tea.KeyEnter))
}

func TestBirthModelFullFlow(t *testing.T) {
	env := newTestEnv(t, true)
	m := newBirthModel(env, time.Microsecond)

	if !strings.Contains(m.View(), "Birth Your Companion") {
		t.Error("Expected intro screen")
	}

	// analyst, analyst, creator, hybrid
	walkToName(m, 0, 0, 1, 2)
	if m.wizard.Step() != birth.StepName {
		t.Fatalf("Expected name step, got %s", m.wizard.Step())
	}
	if !strings.Contains(m.View(), "The Analyst") {
		t.Error("Expected resolved archetype on the name step")
	}

	m.Update(typeText("Nova"))
	result := findMsg[BirthResultMsg](t, collect(m.Update(keyPress(tea.KeyEnter))))
	if result.Err != nil {
		t.Fatalf("Birth failed: %v", result.Err)
	}

	cmd := m.Update(result)
	var frames []birth.Frame
	var open OpenChatMsg
	for i := 0; i < 20 && cmd != nil; i++ {
		msg := cmd()
		if o, ok := msg.(OpenChatMsg); ok {
			open = o
			break
		}
		if f, ok := msg.(RevealFrameMsg); ok {
			frames = append(frames, f.Frame)
		}
		cmd = m.Update(msg)
	}

	if open.AgentID != result.Agent.ID {
		t.Errorf("Expected to open chat for %s, got %q", result.Agent.ID, open.AgentID)
	}
	if len(frames) != len(birth.RevealCues) || frames[len(frames)-1].Phase != birth.PhaseComplete {
		t.Errorf("Expected every reveal frame ending complete, got %v", frames)
	}
	if len(env.api.births) != 1 || env.api.births[0].Personality != "scholar" {
		t.Errorf("Expected one scholar birth, got %+v", env.api.births)
	}
	if env.agents.Len() != 1 {
		t.Errorf("Expected agent in registry once, got %d", env.agents.Len())
	}
}

func TestBirthModelBlankNameDoesNotSubmit(t *testing.T) {
	env := newTestEnv(t, true)
	m := newBirthModel(env, time.Microsecond)
	walkToName(m, 1, 1, 1, 1)

	m.Update(typeText("   "))
	if cmd := m.Update(keyPress(tea.KeyEnter)); cmd != nil {
		t.Error("Expected no command for a blank name")
	}
	if len(env.api.births) != 0 {
		t.Error("Expected no birth request")
	}
}

func TestBirthModelSkipRevealStopsPlayback(t *testing.T) {
	env := newTestEnv(t, true)
	m := newBirthModel(env, time.Hour)
	walkToName(m, 2, 2, 2, 2)
	m.Update(typeText("Echo"))
	result := findMsg[BirthResultMsg](t, collect(m.Update(keyPress(tea.KeyEnter))))
	pending := m.Update(result)

	open := findMsg[OpenChatMsg](t, collect(m.Update(keyPress(tea.KeyEsc))))
	if open.AgentID != result.Agent.ID {
		t.Errorf("Expected chat for %s, got %s", result.Agent.ID, open.AgentID)
	}

	// the pending frame wait resolves once playback is stopped
	if cmd := m.Update(pending()); cmd != nil {
		t.Error("Expected no reaction to reveal messages after skipping")
	}
	if m.Frame().Phase != birth.PhaseDark {
		t.Errorf("Expected no frame after teardown, got %s", m.Frame().Phase)
	}
}

func TestRenderRevealCaptions(t *testing.T) {
	tests := []struct {
		frame birth.Frame
		want  string
	}{
		{birth.Frame{Phase: birth.PhaseDark}, "..."},
		{birth.Frame{Phase: birth.PhaseCharging, Sparks: true}, "Charging..."},
		{birth.Frame{Phase: birth.PhaseStrike, Sparks: true}, "IT'S ALIVE!"},
		{birth.Frame{Phase: birth.PhaseReveal, Sparks: true}, "Say hello to Nova"},
		{birth.Frame{Phase: birth.PhaseComplete, Sparks: true}, "Nova is ready"},
	}

	for _, tt := range tests {
		t.Run(tt.frame.Phase.String(), func(t *testing.T) {
			out := RenderReveal(tt.frame, 3, "Nova", 80, 24)
			if !strings.Contains(out, tt.want) {
				t.Errorf("Expected %q in reveal output", tt.want)
			}
		})
	}
}

func TestDashboardFiltersInactive(t *testing.T) {
	env := newTestEnv(t, true)
	env.agents.SetAgents([]models.AgentSummary{
		{ID: "a1", Name: "Nova", Status: models.AgentActive},
		{ID: "a2", Name: "Old", Status: models.AgentInactive},
	})

	m := NewDashboardModel(context.Background(), env.sessions, env.agents, env.api, false)
	m.SetSize(100, 30)
	if n := len(m.Visible()); n != 1 {
		t.Errorf("Expected 1 visible agent, got %d", n)
	}
	all := NewDashboardModel(context.Background(), env.sessions, env.agents, env.api, true)
	if n := len(all.Visible()); n != 2 {
		t.Errorf("Expected 2 visible agents with showAll, got %d", n)
	}

	view := m.View()
	if !strings.Contains(view, "PRO - BETA") {
		t.Error("Expected tier badge in header")
	}
	if strings.Contains(view, "Old") {
		t.Error("Expected inactive agent to be hidden")
	}
}

func TestDashboardLogout(t *testing.T) {
	env := newTestEnv(t, true)
	m := NewDashboardModel(context.Background(), env.sessions, env.agents, env.api, false)

	msgs := collect(m.Update(typeText("L")))
	findMsg[SessionLostMsg](t, msgs)
	if env.sessions.Token() != "" {
		t.Error("Expected the session to be cleared")
	}
}

// racingLister runs during once, inside the first fetch
type racingLister struct {
	api    *fakeAPI
	during func()
	calls  int
}

func (r *racingLister) ListAgents(ctx context.Context, token string) ([]models.AgentSummary, error) {
	r.calls++
	list, err := r.api.ListAgents(ctx, token)
	if r.calls == 1 && r.during != nil {
		r.during()
	}
	return list, err
}

func TestDashboardRefetchesWhenBirthRacesRefresh(t *testing.T) {
	env := newTestEnv(t, true)
	env.api.agents = []models.AgentSummary{{ID: "a1", Name: "Nova", Status: models.AgentActive}}
	newborn := models.AgentSummary{ID: "a2", Name: "Sage", Status: models.AgentActive}

	lister := &racingLister{api: env.api, during: func() {
		env.api.agents = append(env.api.agents, newborn)
		env.agents.AddAgent(newborn)
	}}
	m := NewDashboardModel(context.Background(), env.sessions, env.agents, lister, false)

	loaded := findMsg[AgentsLoadedMsg](t, collect(m.Init()))
	if !loaded.Stale {
		t.Fatal("Expected the first fetch to be reported stale")
	}
	if _, ok := env.agents.Get("a2"); !ok {
		t.Fatal("Expected the stale list not to wipe the new agent")
	}

	loaded = findMsg[AgentsLoadedMsg](t, collect(m.Update(loaded)))
	m.Update(loaded)
	if lister.calls != 2 {
		t.Errorf("Expected a second fetch, got %d", lister.calls)
	}
	if env.agents.Len() != 2 {
		t.Errorf("Expected both agents exactly once, got %+v", env.agents.List())
	}
}

func TestDashboardRefreshReplacesRegistry(t *testing.T) {
	env := newTestEnv(t, true)
	env.api.agents = []models.AgentSummary{{ID: "a9", Name: "Fresh", Status: models.AgentActive}}
	env.agents.SetAgents([]models.AgentSummary{{ID: "stale", Status: models.AgentActive}})

	m := NewDashboardModel(context.Background(), env.sessions, env.agents, env.api, false)
	loaded := findMsg[AgentsLoadedMsg](t, collect(m.Init()))
	m.Update(loaded)

	if _, ok := env.agents.Get("stale"); ok {
		t.Error("Expected registry to be replaced")
	}
	open := findMsg[OpenChatMsg](t, collect(m.Update(keyPress(tea.KeyEnter))))
	if open.AgentID != "a9" {
		t.Errorf("Expected a9, got %s", open.AgentID)
	}
	findMsg[OpenBirthMsg](t, collect(m.Update(typeText("n"))))
}

func TestChatModelSendsAndRenders(t *testing.T) {
	env := newTestEnv(t, true)
	env.api.agents = []models.AgentSummary{{ID: "a1", Name: "Nova", Personality: "scholar", Status: models.AgentActive}}

	m := NewChatModel(context.Background(), env.sessions, env.api, "a1", logging.Discard())
	m.SetSize(80, 24)
	opened := findMsg[ChatOpenedMsg](t, collect(m.Init()))
	m.Update(opened)
	if m.Session() == nil {
		t.Fatal("Expected session to be open")
	}

	if cmd := m.Update(keyPress(tea.KeyEnter)); cmd != nil {
		t.Error("Expected empty input to send nothing")
	}

	m.Update(typeText("hi"))
	reply := findMsg[ChatReplyMsg](t, collect(m.Update(keyPress(tea.KeyEnter))))
	m.Update(reply)

	transcript := m.Session().Transcript()
	if len(transcript) != 2 || transcript[1].Content != "hello, hi" {
		t.Errorf("Unexpected transcript: %+v", transcript)
	}
	if !strings.Contains(m.View(), "hello, hi") {
		t.Error("Expected reply in view")
	}
}

func TestChatModelUnknownAgentReturnsToDashboard(t *testing.T) {
	env := newTestEnv(t, true)
	m := NewChatModel(context.Background(), env.sessions, env.api, "missing", logging.Discard())

	opened := findMsg[ChatOpenedMsg](t, collect(m.Init()))
	if !errors.Is(opened.Err, chat.ErrAgentUnavailable) {
		t.Fatalf("Expected ErrAgentUnavailable, got %v", opened.Err)
	}
	back := findMsg[OpenDashboardMsg](t, collect(m.Update(opened)))
	if back.Notice == "" {
		t.Error("Expected a notice on the dashboard")
	}
}

func TestAppNavigation(t *testing.T) {
	env := newTestEnv(t, true)
	deps := Deps{Sessions: env.sessions, Agents: env.agents, API: env.api, Logger: logging.Discard(), RevealUnit: time.Microsecond}
	app := NewApp(context.Background(), deps, ScreenDashboard, "")

	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	app.Update(OpenBirthMsg{})
	if app.Screen() != ScreenBirth {
		t.Errorf("Expected birth screen, got %s", app.Screen())
	}
	app.Update(OpenChatMsg{AgentID: "a1"})
	if app.Screen() != ScreenChat {
		t.Errorf("Expected chat screen, got %s", app.Screen())
	}
	app.Update(OpenDashboardMsg{Notice: "Agent not found"})
	if app.Screen() != ScreenDashboard || !strings.Contains(app.View(), "Agent not found") {
		t.Error("Expected dashboard with notice")
	}
}

func TestAppSignedOutExits(t *testing.T) {
	env := newTestEnv(t, false)
	deps := Deps{Sessions: env.sessions, Agents: env.agents, API: env.api, Logger: logging.Discard()}
	app := NewApp(context.Background(), deps, ScreenDashboard, "")

	lost := findMsg[SessionLostMsg](t, collect(app.Init()))
	if _, cmd := app.Update(lost); cmd == nil {
		t.Error("Expected quit command")
	}
	if !app.SessionLost() {
		t.Error("Expected SessionLost to be set")
	}
}

func TestAppLogoutElsewhereExits(t *testing.T) {
	env := newTestEnv(t, true)
	deps := Deps{Sessions: env.sessions, Agents: env.agents, API: env.api, Logger: logging.Discard()}
	app := NewApp(context.Background(), deps, ScreenDashboard, "")

	if _, cmd := app.Update(StateChangedMsg{Name: store.AgentsName}); cmd != nil {
		t.Error("Expected no command while still signed in")
	}
	if app.SessionLost() {
		t.Fatal("Expected the session to survive an agents change")
	}

	env.sessions.Logout()
	if _, cmd := app.Update(StateChangedMsg{Name: store.SessionName}); cmd == nil {
		t.Error("Expected quit command")
	}
	if !app.SessionLost() {
		t.Error("Expected SessionLost after logout in another process")
	}
}

func TestAppDropsResultsFromLeftChatScreen(t *testing.T) {
	env := newTestEnv(t, true)
	env.api.agents = []models.AgentSummary{
		{ID: "a1", Name: "Nova", Status: models.AgentActive},
		{ID: "b2", Name: "Orbit", Status: models.AgentActive},
	}
	deps := Deps{Sessions: env.sessions, Agents: env.agents, API: env.api, Logger: logging.Discard()}
	app := NewApp(context.Background(), deps, ScreenChat, "a1")
	first := app.Init()

	app.Update(OpenDashboardMsg{})
	_, second := app.Update(OpenChatMsg{AgentID: "b2"})

	late := findMsg[ChatOpenedMsg](t, collect(first))
	app.Update(late)
	if app.chat.Session() != nil {
		t.Fatalf("Expected the b2 screen to ignore a1's session, got agent %s", app.chat.Session().Agent().ID)
	}
	if app.Screen() != ScreenChat {
		t.Errorf("Expected to stay on the chat screen, got %s", app.Screen())
	}

	app.Update(findMsg[ChatOpenedMsg](t, collect(second)))
	if s := app.chat.Session(); s == nil || s.Agent().ID != "b2" {
		t.Fatalf("Expected session for b2, got %+v", s)
	}
}

func TestChatModelIgnoresForeignReply(t *testing.T) {
	env := newTestEnv(t, true)
	env.api.agents = []models.AgentSummary{{ID: "a1", Name: "Nova", Status: models.AgentActive}}

	old := NewChatModel(context.Background(), env.sessions, env.api, "a1", logging.Discard())
	old.Update(findMsg[ChatOpenedMsg](t, collect(old.Init())))
	old.Update(typeText("hi"))
	staleReply := findMsg[ChatReplyMsg](t, collect(old.Update(keyPress(tea.KeyEnter))))

	m := NewChatModel(context.Background(), env.sessions, env.api, "a1", logging.Discard())
	m.Update(findMsg[ChatOpenedMsg](t, collect(m.Init())))
	m.Update(typeText("hello"))
	pending := m.Update(keyPress(tea.KeyEnter))
	if pending == nil || !m.sending {
		t.Fatal("Expected a send in flight")
	}

	m.Update(staleReply)
	if !m.sending {
		t.Error("Expected a reply from another screen to leave the send in flight")
	}
	m.Update(findMsg[ChatReplyMsg](t, collect(pending)))
	if m.sending {
		t.Error("Expected the own reply to settle the send")
	}
}

func TestBirthModelShowsRefusedTransition(t *testing.T) {
	env := newTestEnv(t, true)
	m := newBirthModel(env, time.Millisecond)

	if m.advance(m.wizard.ContinueFromKeys()) {
		t.Fatal("Expected continuing from the intro to be refused")
	}
	if !strings.Contains(m.View(), "not allowed in the current step") {
		t.Errorf("Expected the refusal in the view, got %q", m.View())
	}

	m.Update(keyPress(tea.KeyEnter))
	if m.wizard.Step() != birth.StepQuiz {
		t.Fatalf("Expected quiz step, got %s", m.wizard.Step())
	}
	if m.stepErr != "" {
		t.Errorf("Expected a successful step to clear the error, got %q", m.stepErr)
	}
}
