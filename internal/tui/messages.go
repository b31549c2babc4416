package tui

import (
	"github.com/Batdan007/MaiAI-Birth/internal/birth"
	"github.com/Batdan007/MaiAI-Birth/internal/chat"
	"github.com/Batdan007/MaiAI-Birth/internal/models"
)

// Screen is the view the app is showing
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenBirth
	ScreenChat
)

// String returns the screen name
func (s Screen) String() string {
	switch s {
	case ScreenDashboard:
		return "Agents"
	case ScreenBirth:
		return "Birth"
	case ScreenChat:
		return "Chat"
	default:
		return "Unknown"
	}
}

// Navigation messages

// OpenDashboardMsg shows the agent list, with an optional notice
type OpenDashboardMsg struct {
	Notice string
}

// OpenBirthMsg starts a new birth wizard
type OpenBirthMsg struct{}

// OpenChatMsg opens the chat view for an agent
type OpenChatMsg struct {
	AgentID string
}

// SessionLostMsg is sent when a screen finds no session; the app exits
// so the user can sign in again.
type SessionLostMsg struct{}

// StateChangedMsg reports that another process rewrote a persisted store
type StateChangedMsg struct {
	Name string
}

// Data messages

// AgentsLoadedMsg is sent when the agent list fetch settles
type AgentsLoadedMsg struct {
	Err error
	// Stale is set when the registry changed during the fetch
	Stale bool
}

// BirthResultMsg is sent when a birth request settles
type BirthResultMsg struct {
	Agent *models.AgentSummary
	Err   error
}

// RevealFrameMsg carries the next reveal frame
type RevealFrameMsg struct {
	Frame birth.Frame
}

// RevealDoneMsg is sent when the reveal playback has ended
type RevealDoneMsg struct{}

// ChatOpenedMsg is sent when the chat session is ready or failed to open.
// AgentID and screen identify the chat screen that asked for it.
type ChatOpenedMsg struct {
	AgentID string
	Session *chat.Session
	Err     error
	screen  uint64
}

// ChatReplyMsg is sent when a send settles
type ChatReplyMsg struct {
	AgentID string
	Err     error
	screen  uint64
}
