package mockapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Batdan007/MaiAI-Birth/internal/models"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned when signing up with a registered email
var ErrEmailTaken = errors.New("email already registered")

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// Account is a stored user
type Account struct {
	models.Profile
	Name         string
	PasswordHash string
}

// NewDB opens the sqlite database at path. ":memory:" gives a private
// in-memory database.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one connection keeps an in-memory database alive and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{db}, nil
}

// Initialize creates all required tables
func (db *DB) Initialize() error {
	schema := []string{
		`PRAGMA foreign_keys = ON`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			subscription_tier TEXT NOT NULL DEFAULT 'free',
			beta_access INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			name TEXT NOT NULL,
			personality TEXT NOT NULL,
			custom_traits TEXT NOT NULL DEFAULT '[]',
			status TEXT NOT NULL DEFAULT 'active',
			total_conversations INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_agents_user ON agents(user_id)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			agent_id TEXT NOT NULL REFERENCES agents(id),
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_agent ON messages(agent_id)`,
		`CREATE TABLE IF NOT EXISTS beta_signups (
			email TEXT PRIMARY KEY,
			created_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// CreateUser inserts a free-tier account
func (db *DB) CreateUser(ctx context.Context, email, name, passwordHash string) (*Account, error) {
	u := &Account{
		Profile: models.Profile{
			ID:               uuid.NewString(),
			Email:            email,
			SubscriptionTier: models.TierFree,
		},
		Name:         name,
		PasswordHash: passwordHash,
	}

	var exists int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists > 0 {
		return nil, ErrEmailTaken
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, subscription_tier, beta_access, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.SubscriptionTier, now())
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// UserByEmail looks up an account by email
func (db *DB) UserByEmail(ctx context.Context, email string) (*Account, error) {
	var u Account
	var beta int
	err := db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, subscription_tier, beta_access FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.SubscriptionTier, &beta)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	u.BetaAccess = beta != 0
	return &u, nil
}

// SetTier changes a user's subscription tier and beta flag
func (db *DB) SetTier(ctx context.Context, email, tier string, beta bool) error {
	res, err := db.ExecContext(ctx,
		`UPDATE users SET subscription_tier = ?, beta_access = ? WHERE email = ?`, tier, beta, email)
	if err != nil {
		return fmt.Errorf("failed to update tier: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddBetaSignup records an email on the beta list. It reports whether the
// email was already listed.
func (db *DB) AddBetaSignup(ctx context.Context, email string) (bool, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO beta_signups (email, created_at) VALUES (?, ?) ON CONFLICT(email) DO NOTHING`, email, now())
	if err != nil {
		return false, fmt.Errorf("failed to record beta signup: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 0, nil
}

// CreateAgent inserts an active agent owned by userID
func (db *DB) CreateAgent(ctx context.Context, userID string, req models.BirthRequest) (*models.AgentSummary, error) {
	traits, err := json.Marshal(req.CustomTraits)
	if err != nil {
		return nil, fmt.Errorf("failed to encode traits: %w", err)
	}
	created := time.Now().UTC()
	agent := &models.AgentSummary{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Personality: req.Personality,
		Status:      models.AgentActive,
		CreatedAt:   models.NewTimestamp(created),
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO agents (id, user_id, name, personality, custom_traits, status, total_conversations, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		agent.ID, userID, agent.Name, agent.Personality, string(traits), agent.Status, created.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return agent, nil
}

const agentColumns = `id, name, personality, status, total_conversations, created_at`

func scanAgent(row interface{ Scan(...any) error }) (models.AgentSummary, error) {
	var a models.AgentSummary
	var created string
	if err := row.Scan(&a.ID, &a.Name, &a.Personality, &a.Status, &a.TotalConversations, &created); err != nil {
		return a, err
	}
	ts, err := models.ParseTimestamp(created)
	if err != nil {
		return a, fmt.Errorf("bad created_at %q: %w", created, err)
	}
	a.CreatedAt = ts
	return a, nil
}

// AgentsByUser lists a user's agents, oldest first
func (db *DB) AgentsByUser(ctx context.Context, userID string) ([]models.AgentSummary, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE user_id = ? ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	agents := []models.AgentSummary{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// AgentByID returns the agent if userID owns it
func (db *DB) AgentByID(ctx context.Context, userID, agentID string) (*models.AgentSummary, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE id = ? AND user_id = ?`, agentID, userID)
	a, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load agent: %w", err)
	}
	return &a, nil
}

// SetAgentStatus marks an agent active or inactive
func (db *DB) SetAgentStatus(ctx context.Context, agentID, status string) error {
	res, err := db.ExecContext(ctx, `UPDATE agents SET status = ? WHERE id = ?`, status, agentID)
	if err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordExchange stores one user message and the reply and counts the
// conversation turn on the agent.
func (db *DB) RecordExchange(ctx context.Context, agentID, message, reply string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ts := now()
	for _, m := range []struct{ role, content string }{
		{models.RoleUser, message},
		{models.RoleAssistant, reply},
	} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (agent_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
			agentID, m.role, m.content, ts); err != nil {
			return fmt.Errorf("failed to store message: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE agents SET total_conversations = total_conversations + 1 WHERE id = ?`, agentID); err != nil {
		return fmt.Errorf("failed to count conversation: %w", err)
	}
	return tx.Commit()
}

// History returns an agent's messages, oldest first
func (db *DB) History(ctx context.Context, agentID string) ([]models.HistoryEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT role, content, created_at FROM messages WHERE agent_id = ? ORDER BY id`, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	history := []models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		var created string
		if err := rows.Scan(&e.Role, &e.Content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if e.Timestamp, err = models.ParseTimestamp(created); err != nil {
			return nil, fmt.Errorf("bad created_at %q: %w", created, err)
		}
		history = append(history, e)
	}
	return history, rows.Err()
}
