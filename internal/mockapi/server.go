// Package mockapi is a self-contained Mai-AI backend for local development
// and end-to-end tests. It serves every endpoint the client uses over a
// sqlite database.
package mockapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/Batdan007/MaiAI-Birth/internal/models"
)

// Version is reported by GET /
const Version = "1.0.0"

// Config controls the mock backend
type Config struct {
	// DBPath is the sqlite file; empty means in-memory
	DBPath string
	// JWTSecret signs bearer tokens
	JWTSecret string
	// TokenExpiry defaults to 24 hours
	TokenExpiry time.Duration
	// LoginRate and LoginBurst throttle login attempts per email
	LoginRate  rate.Limit
	LoginBurst int
	// LoginLimiterTTL is how long an idle email keeps its limiter; defaults to 1 hour
	LoginLimiterTTL time.Duration
	// Registry receives the HTTP metrics; nil means a private registry
	Registry prometheus.Registerer
	Logger   *slog.Logger
}

// Server is the mock backend
type Server struct {
	app    *fiber.App
	db     *DB
	tokens *TokenAuth
	logger *slog.Logger

	loginRate     rate.Limit
	loginBurst    int
	loginMu       sync.Mutex
	loginLimiters *cache.Cache // email -> *rate.Limiter
}

// New opens the database and builds the routes
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DBPath == "" {
		cfg.DBPath = ":memory:"
	}
	if cfg.LoginRate == 0 {
		cfg.LoginRate = rate.Every(12 * time.Second)
	}
	if cfg.LoginBurst == 0 {
		cfg.LoginBurst = 5
	}
	if cfg.LoginLimiterTTL == 0 {
		cfg.LoginLimiterTTL = time.Hour
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	tokens, err := NewTokenAuth(cfg.JWTSecret, cfg.TokenExpiry)
	if err != nil {
		return nil, err
	}

	db, err := NewDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s := &Server{
		db:         db,
		tokens:     tokens,
		logger:     cfg.Logger,
		loginRate:  cfg.LoginRate,
		loginBurst: cfg.LoginBurst,

		loginLimiters: cache.New(cfg.LoginLimiterTTL, 2*cfg.LoginLimiterTTL),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "Mai-AI mock " + Version,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())

	metrics := fiberprometheus.NewWithRegistry(cfg.Registry, "maiai-mock", "maiai", "mock", nil)
	metrics.RegisterAt(s.app, "/metrics")
	s.app.Use(metrics.Middleware)

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/", s.handleRoot)
	s.app.Get("/health", s.handleHealth)

	s.app.Post("/auth/login", s.handleLogin)
	s.app.Post("/auth/signup", s.handleSignup)
	s.app.Post("/beta/signup", s.handleBetaSignup)

	agents := s.app.Group("/agents", s.requireAuth)
	agents.Get("/", s.handleListAgents)
	agents.Get("/presets", s.handlePresets)
	agents.Post("/birth", s.handleBirth)
	agents.Get("/:id", s.handleGetAgent)

	chat := s.app.Group("/chat", s.requireAuth)
	chat.Post("/:id", s.handleChat)
	chat.Get("/:id/history", s.handleHistory)
}

// App returns the fiber app, for app.Test in tests
func (s *Server) App() *fiber.App {
	return s.app
}

// DB returns the backing database
func (s *Server) DB() *DB {
	return s.db
}

// Listen serves on addr until Shutdown
func (s *Server) Listen(addr string) error {
	s.logger.Info("mock backend listening", "addr", addr)
	return s.app.Listen(addr)
}

// Serve serves on an existing listener until Shutdown
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown stops the server and closes the database
func (s *Server) Shutdown() error {
	err := s.app.Shutdown()
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}

// detail writes the {detail} error envelope
func detail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(models.ErrorBody{Detail: message})
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return detail(c, fe.Code, fe.Message)
	}
	s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return detail(c, fiber.StatusInternalServerError, "Internal server error")
}

func (s *Server) requireAuth(c *fiber.Ctx) error {
	raw, err := ExtractToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return detail(c, fiber.StatusUnauthorized, "Not authenticated")
	}
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return detail(c, fiber.StatusUnauthorized, "Invalid or expired token")
	}
	c.Locals("user_id", claims.Subject)
	c.Locals("email", claims.Email)
	return c.Next()
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

func (s *Server) allowLogin(email string) bool {
	s.loginMu.Lock()
	limiter, ok := s.loginLimiters.Get(email)
	if !ok {
		limiter = rate.NewLimiter(s.loginRate, s.loginBurst)
	}
	// every attempt pushes the expiry out, so only idle emails are dropped
	s.loginLimiters.SetDefault(email, limiter)
	s.loginMu.Unlock()
	return limiter.(*rate.Limiter).Allow()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "Mai-AI",
		"status":  "online",
		"version": Version,
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	if err := s.db.PingContext(c.UserContext()); err != nil {
		return detail(c, fiber.StatusServiceUnavailable, "Database unavailable")
	}
	return c.JSON(fiber.Map{"status": "healthy"})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req models.AuthRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "Email and password are required")
	}
	if !s.allowLogin(email) {
		return detail(c, fiber.StatusTooManyRequests, "Too many login attempts, try again later")
	}

	account, err := s.db.UserByEmail(c.UserContext(), email)
	if errors.Is(err, ErrNotFound) {
		return detail(c, fiber.StatusUnauthorized, "Invalid email or password")
	}
	if err != nil {
		return err
	}
	ok, err := VerifyPassword(account.PasswordHash, req.Password)
	if err != nil {
		return err
	}
	if !ok {
		return detail(c, fiber.StatusUnauthorized, "Invalid email or password")
	}

	return s.respondWithToken(c, fiber.StatusOK, account)
}

func (s *Server) handleSignup(c *fiber.Ctx) error {
	var req models.AuthRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return detail(c, fiber.StatusUnprocessableEntity, "Valid email address is required")
	}
	if err := ValidatePassword(req.Password); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return err
	}
	account, err := s.db.CreateUser(c.UserContext(), email, strings.TrimSpace(req.Name), hash)
	if errors.Is(err, ErrEmailTaken) {
		return detail(c, fiber.StatusConflict, "Email already registered")
	}
	if err != nil {
		return err
	}

	s.logger.Info("account created", "user_id", account.ID)
	return s.respondWithToken(c, fiber.StatusOK, account)
}

func (s *Server) respondWithToken(c *fiber.Ctx, status int, account *Account) error {
	token, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return err
	}
	return c.Status(status).JSON(models.AuthResponse{Token: token, User: account.Profile})
}

func (s *Server) handleBetaSignup(c *fiber.Ctx) error {
	var req models.BetaSignupRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	email := normalizeEmail(req.Email)
	if !strings.Contains(email, "@") {
		return detail(c, fiber.StatusUnprocessableEntity, "Valid email address is required")
	}

	already, err := s.db.AddBetaSignup(c.UserContext(), email)
	if err != nil {
		return err
	}
	message := "You're on the list! We'll be in touch soon."
	if already {
		message = "You're already on the beta list."
	}
	return c.JSON(models.BetaSignupResponse{Message: message})
}

func (s *Server) handleListAgents(c *fiber.Ctx) error {
	agents, err := s.db.AgentsByUser(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(agents)
}

func (s *Server) handlePresets(c *fiber.Ctx) error {
	return c.JSON(Presets)
}

func (s *Server) handleBirth(c *fiber.Ctx) error {
	var req models.BirthRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "Agent name is required")
	}
	if req.Personality == "" {
		req.Personality = DefaultPersonality
	}
	if !KnownPersonality(req.Personality) {
		return detail(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("Unknown personality %q", req.Personality))
	}

	agent, err := s.db.CreateAgent(c.UserContext(), userID(c), req)
	if err != nil {
		return err
	}
	s.logger.Info("agent born", "agent_id", agent.ID, "personality", agent.Personality)
	return c.JSON(agent)
}

func (s *Server) handleGetAgent(c *fiber.Ctx) error {
	agent, err := s.db.AgentByID(c.UserContext(), userID(c), c.Params("id"))
	if errors.Is(err, ErrNotFound) {
		return detail(c, fiber.StatusNotFound, "Agent not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(agent)
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "Message is required")
	}

	agent, err := s.db.AgentByID(c.UserContext(), userID(c), c.Params("id"))
	if errors.Is(err, ErrNotFound) {
		return detail(c, fiber.StatusNotFound, "Agent not found")
	}
	if err != nil {
		return err
	}
	if !agent.IsActive() {
		return detail(c, fiber.StatusConflict, "Agent is inactive")
	}

	reply := Reply(agent.Personality, message, len(req.Context))
	if err := s.db.RecordExchange(c.UserContext(), agent.ID, message, reply); err != nil {
		return err
	}
	return c.JSON(models.ChatResponse{
		Response:       reply,
		ConversationID: conversationID(userID(c), agent.ID),
	})
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	agent, err := s.db.AgentByID(c.UserContext(), userID(c), c.Params("id"))
	if errors.Is(err, ErrNotFound) {
		return detail(c, fiber.StatusNotFound, "Agent not found")
	}
	if err != nil {
		return err
	}
	history, err := s.db.History(c.UserContext(), agent.ID)
	if err != nil {
		return err
	}
	return c.JSON(history)
}

// conversationID is stable per user and agent
func conversationID(userID, agentID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(userID+"/"+agentID)).String()
}
