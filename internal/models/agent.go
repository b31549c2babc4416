package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// AgentStatus values
const (
	AgentActive   = "active"
	AgentInactive = "inactive"
)

// AgentSummary is the client-side view of a user's agent
type AgentSummary struct {
	ID                 string    `json:"id" yaml:"id"`
	Name               string    `json:"name" yaml:"name"`
	Personality        string    `json:"personality" yaml:"personality"`
	Status             string    `json:"status" yaml:"status"` // active, inactive
	TotalConversations int       `json:"total_conversations" yaml:"total_conversations"`
	CreatedAt          Timestamp `json:"created_at" yaml:"created_at"`
}

// IsActive reports whether the agent shows up on the dashboard
func (a AgentSummary) IsActive() bool {
	return a.Status == AgentActive
}

// AgentPatch holds the fields of a partial update. Nil fields are left untouched.
type AgentPatch struct {
	Name               *string
	Personality        *string
	Status             *string
	TotalConversations *int
	CreatedAt          *Timestamp
}

// Apply returns a copy of a with every non-nil patch field merged over it.
func (p AgentPatch) Apply(a AgentSummary) AgentSummary {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Personality != nil {
		a.Personality = *p.Personality
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.TotalConversations != nil {
		a.TotalConversations = *p.TotalConversations
	}
	if p.CreatedAt != nil {
		a.CreatedAt = *p.CreatedAt
	}
	return a
}

// BirthRequest is the body of POST /agents/birth
type BirthRequest struct {
	Name         string   `json:"name"`
	Personality  string   `json:"personality"`
	CustomTraits []string `json:"custom_traits,omitempty"`
}

// Preset is an agent preset descriptor. The backend does not commit to a
// shape, so it is kept as raw JSON.
type Preset = json.RawMessage

// Timestamp accepts RFC 3339 as well as the naive ISO form Python emits
// ("2024-05-01T10:00:00.123456").
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// NewTimestamp wraps t
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp parses s using the accepted layouts
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}
