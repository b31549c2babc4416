package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Batdan007/MaiAI-Birth/internal/birth"
	"github.com/Batdan007/MaiAI-Birth/internal/store"
)

// BirthModel renders the birth wizard and the reveal
type BirthModel struct {
	ctx      context.Context
	wizard   *birth.Wizard
	timeline *birth.Timeline
	playback *birth.Playback
	frame    birth.Frame
	keys     KeyMap
	theme    *Theme

	cursor    int
	keyInputs []textinput.Model
	keyFocus  int
	nameInput textinput.Model
	spinner   spinner.Model
	tick      int
	stepErr   string

	width  int
	height int
}

// NewBirthModel creates the wizard screen. timeline paces the reveal.
func NewBirthModel(ctx context.Context, wizard *birth.Wizard, timeline *birth.Timeline) *BirthModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = DefaultTheme.Spinner

	keyInputs := make([]textinput.Model, 2)
	for i, placeholder := range []string{"sk-ant-...", "sk-..."} {
		keyInputs[i] = textinput.New()
		keyInputs[i].Placeholder = placeholder
		keyInputs[i].EchoMode = textinput.EchoPassword
		keyInputs[i].EchoCharacter = '•'
		keyInputs[i].CharLimit = 256
		keyInputs[i].Width = 40
		keyInputs[i].Prompt = ""
	}

	name := textinput.New()
	name.Placeholder = "e.g. Nova"
	name.CharLimit = 64
	name.Width = 30
	name.Prompt = ""

	return &BirthModel{
		ctx:       ctx,
		wizard:    wizard,
		timeline:  timeline,
		keys:      DefaultKeyMap(),
		theme:     DefaultTheme,
		keyInputs: keyInputs,
		nameInput: name,
		spinner:   s,
	}
}

// SetSize updates the known terminal dimensions
func (m *BirthModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Frame returns the current reveal frame
func (m *BirthModel) Frame() birth.Frame {
	return m.frame
}

// Close stops a running reveal. No reveal message is handled afterwards.
func (m *BirthModel) Close() {
	if m.playback != nil {
		m.playback.Stop()
		m.playback = nil
	}
}

// Init starts the spinner
func (m *BirthModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles wizard input and reveal frames
func (m *BirthModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		m.tick++
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case BirthResultMsg:
		if msg.Err != nil {
			if errors.Is(msg.Err, store.ErrNoSession) {
				return func() tea.Msg { return SessionLostMsg{} }
			}
			return m.nameInput.Focus()
		}
		m.playback = m.timeline.Start(m.ctx)
		return waitForFrame(m.playback)

	case RevealFrameMsg:
		if m.playback == nil {
			return nil
		}
		m.frame = msg.Frame
		return waitForFrame(m.playback)

	case RevealDoneMsg:
		if m.playback == nil {
			return nil
		}
		m.playback = nil
		return m.openChat()
	}

	return nil
}

// advance records the outcome of a wizard transition for the view
func (m *BirthModel) advance(err error) bool {
	if err != nil {
		m.stepErr = err.Error()
		return false
	}
	m.stepErr = ""
	return true
}

func (m *BirthModel) saveKeys() error {
	if err := m.wizard.SetKey(birth.KeyAnthropic, strings.TrimSpace(m.keyInputs[0].Value())); err != nil {
		return err
	}
	if err := m.wizard.SetKey(birth.KeyOpenAI, strings.TrimSpace(m.keyInputs[1].Value())); err != nil {
		return err
	}
	return m.wizard.ContinueFromKeys()
}

func (m *BirthModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.ForceQuit) {
		return tea.Quit
	}

	switch m.wizard.Step() {
	case birth.StepIntro:
		switch {
		case key.Matches(msg, m.keys.Enter):
			if !m.advance(m.wizard.Start()) {
				return nil
			}
			m.cursor = 0
		case key.Matches(msg, m.keys.Back):
			return navigate(OpenDashboardMsg{})
		}

	case birth.StepQuiz:
		q, _ := m.wizard.Question()
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(q.Options)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Enter):
			if !m.advance(m.wizard.Answer(q.Options[m.cursor].Category)) {
				return nil
			}
			m.cursor = 0
			if m.wizard.Step() == birth.StepKeys {
				m.keyFocus = 0
				return m.keyInputs[0].Focus()
			}
		case key.Matches(msg, m.keys.Back):
			return navigate(OpenDashboardMsg{})
		}

	case birth.StepKeys:
		switch {
		case key.Matches(msg, m.keys.Tab):
			m.keyInputs[m.keyFocus].Blur()
			m.keyFocus = (m.keyFocus + 1) % len(m.keyInputs)
			return m.keyInputs[m.keyFocus].Focus()
		case key.Matches(msg, m.keys.Enter):
			if !m.advance(m.saveKeys()) {
				return nil
			}
			m.keyInputs[m.keyFocus].Blur()
			return m.nameInput.Focus()
		case key.Matches(msg, m.keys.Back):
			return navigate(OpenDashboardMsg{})
		default:
			var cmd tea.Cmd
			m.keyInputs[m.keyFocus], cmd = m.keyInputs[m.keyFocus].Update(msg)
			return cmd
		}

	case birth.StepName:
		switch {
		case key.Matches(msg, m.keys.Enter):
			if !m.wizard.CanSubmit() {
				return nil
			}
			m.nameInput.Blur()
			return tea.Batch(m.submit(), m.spinner.Tick)
		case key.Matches(msg, m.keys.Back):
			if m.wizard.Submitting() {
				return nil
			}
			return navigate(OpenDashboardMsg{})
		default:
			if m.wizard.Submitting() {
				return nil
			}
			var cmd tea.Cmd
			m.nameInput, cmd = m.nameInput.Update(msg)
			m.wizard.SetName(m.nameInput.Value())
			return cmd
		}

	case birth.StepBirthing:
		if key.Matches(msg, m.keys.Enter) || key.Matches(msg, m.keys.Back) {
			m.Close()
			return m.openChat()
		}
	}

	return nil
}

func (m *BirthModel) submit() tea.Cmd {
	ctx := m.ctx
	w := m.wizard
	return func() tea.Msg {
		agent, err := w.Submit(ctx)
		return BirthResultMsg{Agent: agent, Err: err}
	}
}

func (m *BirthModel) openChat() tea.Cmd {
	agent := m.wizard.Agent()
	if agent == nil {
		return navigate(OpenDashboardMsg{})
	}
	return navigate(OpenChatMsg{AgentID: agent.ID})
}

func waitForFrame(p *birth.Playback) tea.Cmd {
	return func() tea.Msg {
		frame, ok := <-p.Frames()
		if !ok {
			return RevealDoneMsg{}
		}
		return RevealFrameMsg{Frame: frame}
	}
}

func navigate(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// View renders the current wizard step
func (m *BirthModel) View() string {
	width := max(m.width, 40)
	height := max(m.height, 12)

	if m.wizard.Step() == birth.StepBirthing {
		name := ""
		if agent := m.wizard.Agent(); agent != nil {
			name = agent.Name
		}
		return RenderReveal(m.frame, m.tick, name, width, height)
	}

	var b strings.Builder
	pad := lipgloss.NewStyle().Padding(0, 2)

	b.WriteString("\n")
	b.WriteString(pad.Render(ProgressBar(m.wizard.Progress(), min(width-4, 60))))
	b.WriteString("\n\n")

	switch m.wizard.Step() {
	case birth.StepIntro:
		b.WriteString(pad.Render(m.theme.Title.Render("Birth Your Companion")))
		b.WriteString("\n")
		b.WriteString(pad.Render(m.theme.Subtitle.Render("Answer four quick questions and we'll shape an AI that fits how you think.")))
		b.WriteString("\n\n")
		b.WriteString(pad.Render(m.theme.ButtonPrimary.Render("Begin")))

	case birth.StepQuiz:
		q, idx := m.wizard.Question()
		b.WriteString(pad.Render(m.theme.ValueMuted.Render(fmt.Sprintf("Question %d of %d", idx+1, len(birth.Questions)))))
		b.WriteString("\n")
		b.WriteString(pad.Render(m.theme.Title.Render(q.Prompt)))
		b.WriteString("\n")
		for i, opt := range q.Options {
			cursor := "  "
			style := m.theme.ListItem
			if i == m.cursor {
				cursor = m.theme.ListCursor.Render("> ")
				style = m.theme.ListItemActive
			}
			b.WriteString(pad.Render(cursor + style.Render(opt.Text)))
			b.WriteString("\n")
		}

	case birth.StepKeys:
		b.WriteString(pad.Render(m.theme.Title.Render("Bring your own keys (optional)")))
		b.WriteString("\n")
		for i, label := range []string{"Anthropic API key", "OpenAI API key"} {
			style := m.theme.Input
			if i == m.keyFocus {
				style = m.theme.InputFocus
			}
			b.WriteString(pad.Render(m.theme.InputLabel.Render(label)))
			b.WriteString("\n")
			b.WriteString(pad.Render(style.Render(m.keyInputs[i].View())))
			b.WriteString("\n")
		}
		b.WriteString(pad.Render(m.theme.ValueMuted.Render("Leave blank to use the platform models.")))

	case birth.StepName:
		archetype := m.wizard.Archetype()
		b.WriteString(pad.Render(m.theme.Label.Render("Your companion is ") + m.theme.BadgeInfo.Render(archetype.Name)))
		b.WriteString("\n\n")
		b.WriteString(pad.Render(m.theme.Title.Render("Name your companion")))
		b.WriteString("\n")
		b.WriteString(pad.Render(m.theme.InputFocus.Render(m.nameInput.View())))
		b.WriteString("\n")
		if msg := m.wizard.Err(); msg != "" {
			b.WriteString(pad.Render(m.theme.InputError.Render(msg)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		switch {
		case m.wizard.Submitting():
			b.WriteString(pad.Render(m.spinner.View() + " " + m.theme.ValueMuted.Render("Bringing it to life...")))
		case m.wizard.CanSubmit():
			b.WriteString(pad.Render(m.theme.ButtonPrimary.Render("Give Life")))
		default:
			b.WriteString(pad.Render(m.theme.ButtonDisabled.Render("Give Life")))
		}
	}

	if m.stepErr != "" {
		b.WriteString("\n\n")
		b.WriteString(pad.Render(m.theme.InputError.Render(m.stepErr)))
	}
	b.WriteString("\n\n")
	b.WriteString(pad.Render(ScreenHelpText(ScreenBirth)))
	padScreen(&b, height)
	return b.String()
}
