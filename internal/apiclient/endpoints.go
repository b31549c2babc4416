package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Batdan007/MaiAI-Birth/internal/models"
)

// Login authenticates with email and password
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	req := models.AuthRequest{Email: email, Password: password}
	if err := c.do(ctx, "/auth/login", http.MethodPost, "/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Signup creates an account. An empty name is omitted from the request.
func (c *Client) Signup(ctx context.Context, email, password, name string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	req := models.AuthRequest{Email: email, Password: password, Name: name}
	if err := c.do(ctx, "/auth/signup", http.MethodPost, "/auth/signup", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BetaSignup joins the beta waiting list
func (c *Client) BetaSignup(ctx context.Context, email string) (*models.BetaSignupResponse, error) {
	var resp models.BetaSignupResponse
	req := models.BetaSignupRequest{Email: email}
	if err := c.do(ctx, "/beta/signup", http.MethodPost, "/beta/signup", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListAgents returns every agent of the signed-in user
func (c *Client) ListAgents(ctx context.Context, token string) ([]models.AgentSummary, error) {
	var agents []models.AgentSummary
	if err := c.do(ctx, "/agents", http.MethodGet, "/agents", token, nil, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// ListPresets returns the preset descriptors. Results are cached per token
// for the configured TTL.
func (c *Client) ListPresets(ctx context.Context, token string) ([]models.Preset, error) {
	if c.presets != nil {
		if cached, ok := c.presets.Get(token); ok {
			return clonePresets(cached.([]models.Preset)), nil
		}
	}

	var presets []models.Preset
	if err := c.do(ctx, "/agents/presets", http.MethodGet, "/agents/presets", token, nil, &presets); err != nil {
		return nil, err
	}

	if c.presets != nil {
		c.presets.SetDefault(token, clonePresets(presets))
	}
	return presets, nil
}

// clonePresets deep-copies so callers never share bytes with the cache
func clonePresets(presets []models.Preset) []models.Preset {
	out := make([]models.Preset, len(presets))
	for i, p := range presets {
		out[i] = append(models.Preset(nil), p...)
	}
	return out
}

// ForgetPresets drops any cached presets for token, e.g. on logout
func (c *Client) ForgetPresets(token string) {
	if c.presets != nil {
		c.presets.Delete(token)
	}
}

// BirthAgent creates a new agent
func (c *Client) BirthAgent(ctx context.Context, token string, req models.BirthRequest) (*models.AgentSummary, error) {
	var agent models.AgentSummary
	if err := c.do(ctx, "/agents/birth", http.MethodPost, "/agents/birth", token, req, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// GetAgent fetches one agent by id
func (c *Client) GetAgent(ctx context.Context, token, agentID string) (*models.AgentSummary, error) {
	var agent models.AgentSummary
	path := fmt.Sprintf("/agents/%s", url.PathEscape(agentID))
	if err := c.do(ctx, "/agents/{id}", http.MethodGet, path, token, nil, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// Chat sends one message, optionally with prior turns as context
func (c *Client) Chat(ctx context.Context, token, agentID string, req models.ChatRequest) (*models.ChatResponse, error) {
	var resp models.ChatResponse
	path := fmt.Sprintf("/chat/%s", url.PathEscape(agentID))
	if err := c.do(ctx, "/chat/{id}", http.MethodPost, path, token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChatHistory returns the server-side history for an agent
func (c *Client) ChatHistory(ctx context.Context, token, agentID string) ([]models.HistoryEntry, error) {
	var history []models.HistoryEntry
	path := fmt.Sprintf("/chat/%s/history", url.PathEscape(agentID))
	if err := c.do(ctx, "/chat/{id}/history", http.MethodGet, path, token, nil, &history); err != nil {
		return nil, err
	}
	return history, nil
}
