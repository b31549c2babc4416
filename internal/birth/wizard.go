package birth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Batdan007/MaiAI-Birth/internal/models"
	"github.com/Batdan007/MaiAI-Birth/internal/store"
)

// Step is a wizard state
type Step int

const (
	StepIntro Step = iota
	StepQuiz
	StepKeys
	StepName
	StepBirthing
)

// String returns the step name
func (s Step) String() string {
	switch s {
	case StepIntro:
		return "intro"
	case StepQuiz:
		return "quiz"
	case StepKeys:
		return "keys"
	case StepName:
		return "name"
	case StepBirthing:
		return "birthing"
	default:
		return "unknown"
	}
}

// Key providers collected on the keys step
const (
	KeyAnthropic = "anthropic"
	KeyOpenAI    = "openai"
)

// FallbackBirthError is shown when a failed birth carries no message
const FallbackBirthError = "Failed to birth agent"

var (
	// ErrWrongStep is returned for an action the current step does not allow
	ErrWrongStep = errors.New("not allowed in the current step")
	// ErrNameRequired is returned when submitting a blank name
	ErrNameRequired = errors.New("agent name is required")
	// ErrSubmitting is returned when a birth request is already in flight
	ErrSubmitting = errors.New("birth already in progress")
)

// Birther creates agents on the backend
type Birther interface {
	BirthAgent(ctx context.Context, token string, req models.BirthRequest) (*models.AgentSummary, error)
}

// Wizard drives intro → quiz → keys → name → birthing.
// It is safe for concurrent use; Submit releases the lock while the
// request is in flight.
type Wizard struct {
	mu         sync.Mutex
	step       Step
	question   int
	answers    map[string]Category
	keys       map[string]string
	name       string
	submitting bool
	inlineErr  string
	agent      *models.AgentSummary

	sessions *store.SessionStore
	registry *store.AgentRegistry
	birther  Birther
	logger   *slog.Logger
}

// NewWizard creates a wizard in the intro step
func NewWizard(sessions *store.SessionStore, registry *store.AgentRegistry, birther Birther, logger *slog.Logger) *Wizard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Wizard{
		step:     StepIntro,
		answers:  make(map[string]Category),
		keys:     make(map[string]string),
		sessions: sessions,
		registry: registry,
		birther:  birther,
		logger:   logger,
	}
}

// Step returns the current step
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Start leaves the intro
func (w *Wizard) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepIntro {
		return fmt.Errorf("start: %w (%s)", ErrWrongStep, w.step)
	}
	w.step = StepQuiz
	w.question = 0
	return nil
}

// Question returns the current quiz question and its index
func (w *Wizard) Question() (Question, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Questions[w.question], w.question
}

// Answer records c for the current question and advances. Answering the
// last question moves to the keys step.
func (w *Wizard) Answer(c Category) error {
	if _, ok := Archetypes[c]; !ok {
		return fmt.Errorf("answer: unknown category %q", c)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepQuiz {
		return fmt.Errorf("answer: %w (%s)", ErrWrongStep, w.step)
	}

	w.answers[Questions[w.question].ID] = c
	if w.question < len(Questions)-1 {
		w.question++
	} else {
		w.step = StepKeys
	}
	return nil
}

// Answers returns a copy of the recorded answers keyed by question id
func (w *Wizard) Answers() map[string]Category {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]Category, len(w.answers))
	for k, v := range w.answers {
		out[k] = v
	}
	return out
}

// Archetype resolves the recorded answers
func (w *Wizard) Archetype() Archetype {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Archetypes[Resolve(w.answers)]
}

// SetKey stores an optional provider key. Keys stay in the wizard; they are
// not part of the birth request.
func (w *Wizard) SetKey(provider, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepKeys {
		return fmt.Errorf("set key: %w (%s)", ErrWrongStep, w.step)
	}
	w.keys[provider] = value
	return nil
}

// Keys returns a copy of the collected keys
func (w *Wizard) Keys() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]string, len(w.keys))
	for k, v := range w.keys {
		out[k] = v
	}
	return out
}

// ContinueFromKeys moves to the name step whether or not keys were entered
func (w *Wizard) ContinueFromKeys() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepKeys {
		return fmt.Errorf("continue: %w (%s)", ErrWrongStep, w.step)
	}
	w.step = StepName
	return nil
}

// SetName updates the free-text agent name
func (w *Wizard) SetName(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.name = name
}

// CanSubmit reports whether the submit action is enabled
func (w *Wizard) CanSubmit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step == StepName && !w.submitting && strings.TrimSpace(w.name) != ""
}

// Submitting reports whether a birth request is in flight
func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// Err returns the inline error of the last failed submission
func (w *Wizard) Err() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inlineErr
}

// Agent returns the created agent once the wizard reached birthing
func (w *Wizard) Agent() *models.AgentSummary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.agent
}

// Submit births the agent with the resolved archetype's personality.
// On success the agent is appended to the registry and the wizard moves to
// birthing. On failure the wizard stays on the name step with an inline
// error and submission is re-enabled.
func (w *Wizard) Submit(ctx context.Context) (*models.AgentSummary, error) {
	sess, err := w.sessions.Require()
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	if w.step != StepName {
		step := w.step
		w.mu.Unlock()
		return nil, fmt.Errorf("submit: %w (%s)", ErrWrongStep, step)
	}
	if w.submitting {
		w.mu.Unlock()
		return nil, ErrSubmitting
	}
	name := strings.TrimSpace(w.name)
	if name == "" {
		w.mu.Unlock()
		return nil, ErrNameRequired
	}
	archetype := Archetypes[Resolve(w.answers)]
	w.submitting = true
	w.inlineErr = ""
	w.mu.Unlock()

	req := models.BirthRequest{
		Name:         name,
		Personality:  archetype.Personality,
		CustomTraits: []string{string(archetype.Category)},
	}
	w.logger.Info("birthing agent", "name", name, "personality", req.Personality)

	agent, err := w.birther.BirthAgent(ctx, sess.Token, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	if err != nil {
		w.inlineErr = err.Error()
		if w.inlineErr == "" {
			w.inlineErr = FallbackBirthError
		}
		w.logger.Warn("agent birth failed", "error", err)
		return nil, err
	}

	w.registry.AddAgent(*agent)
	w.agent = agent
	w.step = StepBirthing
	w.logger.Info("agent born", "agent_id", agent.ID)
	return agent, nil
}

// Progress returns the progress bar fill in percent
func (w *Wizard) Progress() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.step {
	case StepIntro:
		return 5
	case StepQuiz:
		return (w.question+1)*60/len(Questions) + 5
	case StepKeys:
		return 80
	default:
		return 100
	}
}
