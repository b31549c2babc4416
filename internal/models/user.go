package models

import "strings"

// Subscription tiers reported by the backend
const (
	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

// TierOrder defines the order of tiers for comparison
var TierOrder = map[string]int{
	TierFree:       0,
	TierPro:        1,
	TierEnterprise: 2,
}

// Profile is the signed-in user as returned by the auth endpoints.
// It is replaced wholesale on every authentication.
type Profile struct {
	ID               string `json:"id" yaml:"id"`
	Email            string `json:"email" yaml:"email"`
	SubscriptionTier string `json:"subscription_tier" yaml:"subscription_tier"`
	BetaAccess       bool   `json:"beta_access" yaml:"beta_access"`
}

// IsKnownTier reports whether the tier is one of free, pro or enterprise.
func IsKnownTier(tier string) bool {
	_, ok := TierOrder[tier]
	return ok
}

// TierBadge renders the dashboard badge, e.g. "PRO - BETA".
// An empty tier renders as FREE.
func (p Profile) TierBadge() string {
	tier := strings.ToUpper(p.SubscriptionTier)
	if tier == "" {
		tier = strings.ToUpper(TierFree)
	}
	if p.BetaAccess {
		tier += " - BETA"
	}
	return tier
}

// AuthRequest is the body of POST /auth/login and POST /auth/signup
type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"` // signup only
}

// AuthResponse is returned by both auth endpoints
type AuthResponse struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

// BetaSignupRequest is the body of POST /beta/signup
type BetaSignupRequest struct {
	Email string `json:"email"`
}

// BetaSignupResponse carries the human-readable confirmation
type BetaSignupResponse struct {
	Message string `json:"message"`
}
