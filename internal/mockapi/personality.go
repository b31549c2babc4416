package mockapi

import (
	"fmt"
	"strings"
)

// Preset describes a personality the backend can birth
type Preset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DefaultPersonality is used when a birth request names none
const DefaultPersonality = "balanced"

// Presets served by GET /agents/presets
var Presets = []Preset{
	{ID: "scholar", Name: "The Scholar", Description: "Precise, thorough, loves getting to the bottom of things."},
	{ID: "creative", Name: "The Creative", Description: "Playful and imaginative, always ready to riff."},
	{ID: "alfred", Name: "Alfred", Description: "A composed all-rounder who adapts to what you need."},
	{ID: DefaultPersonality, Name: "Balanced", Description: "Even-keeled and friendly."},
}

// KnownPersonality reports whether id is one of Presets
func KnownPersonality(id string) bool {
	for _, p := range Presets {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Reply produces the agent's canned answer. contextTurns is the number of
// prior turns the client sent along.
func Reply(personality, message string, contextTurns int) string {
	var opener string
	switch personality {
	case "scholar":
		opener = "Let's reason through this carefully."
	case "creative":
		opener = "Ooh, here's a thought."
	case "alfred":
		opener = "Very good."
	default:
		opener = "Sure."
	}

	reply := fmt.Sprintf("%s You said: %q", opener, message)
	if contextTurns > 0 {
		reply += fmt.Sprintf(" (I remember the last %d messages.)", contextTurns)
	}
	return strings.TrimSpace(reply)
}
