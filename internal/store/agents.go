package store

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/Batdan007/MaiAI-Birth/internal/models"
)

// AgentsName is the persisted name of the agent registry
const AgentsName = "mai-ai-agents"

type persistedAgents struct {
	Agents []models.AgentSummary `yaml:"agents"`
}

// AgentRegistry holds the known agent summaries of the signed-in user
type AgentRegistry struct {
	mu      sync.RWMutex
	agents  []models.AgentSummary
	version uint64 // bumped on every change
	backend Backend
	logger  *slog.Logger
}

// NewAgentRegistry creates the registry and loads any persisted agents
func NewAgentRegistry(backend Backend, logger *slog.Logger) *AgentRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &AgentRegistry{backend: backend, logger: logger}
	if err := r.Reload(); err != nil {
		logger.Warn("failed to load agent registry, starting empty", "error", err)
	}
	return r
}

// Reload replaces the in-memory list with the persisted one
func (r *AgentRegistry) Reload() error {
	var p persistedAgents
	err := r.backend.Load(AgentsName, &p)
	if errors.Is(err, ErrNotFound) {
		err = nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.version++
	if err != nil {
		r.agents = nil
		return err
	}
	r.agents = p.Agents
	return nil
}

// Version changes whenever the list changes
func (r *AgentRegistry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// SetAgents replaces the whole list
func (r *AgentRegistry) SetAgents(agents []models.AgentSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaceLocked(agents)
}

// SetAgentsIfUnchanged replaces the whole list only if nothing changed since
// version was read. It reports whether the list was replaced.
func (r *AgentRegistry) SetAgentsIfUnchanged(version uint64, agents []models.AgentSummary) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.version != version {
		return false
	}
	r.replaceLocked(agents)
	return true
}

func (r *AgentRegistry) replaceLocked(agents []models.AgentSummary) {
	r.agents = append([]models.AgentSummary(nil), agents...)
	r.version++
	r.persistLocked()
}

// AddAgent appends one entry. Ids are not deduplicated.
func (r *AgentRegistry) AddAgent(agent models.AgentSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents = append(r.agents, agent)
	r.version++
	r.persistLocked()
}

// UpdateAgent merges patch into every entry with the given id.
// An unknown id is not an error and changes nothing.
func (r *AgentRegistry) UpdateAgent(id string, patch models.AgentPatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := false
	for i := range r.agents {
		if r.agents[i].ID == id {
			r.agents[i] = patch.Apply(r.agents[i])
			changed = true
		}
	}
	if changed {
		r.version++
		r.persistLocked()
	}
}

// List returns a copy of all entries in insertion order
func (r *AgentRegistry) List() []models.AgentSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Active returns the entries with status active
func (r *AgentRegistry) Active() []models.AgentSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var active []models.AgentSummary
	for _, a := range r.agents {
		if a.IsActive() {
			active = append(active, a)
		}
	}
	return active
}

// Get returns the first entry with the given id
func (r *AgentRegistry) Get(id string) (models.AgentSummary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.agents {
		if a.ID == id {
			return a, true
		}
	}
	return models.AgentSummary{}, false
}

// Len returns the number of entries
func (r *AgentRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

func (r *AgentRegistry) snapshotLocked() []models.AgentSummary {
	return append([]models.AgentSummary(nil), r.agents...)
}

// persistLocked saves under the write lock so saves land in mutation order.
// Failures are logged; the in-memory state stays authoritative.
func (r *AgentRegistry) persistLocked() {
	if err := r.backend.Save(AgentsName, persistedAgents{Agents: r.agents}); err != nil {
		r.logger.Warn("failed to persist agent registry", "error", err)
	}
}
