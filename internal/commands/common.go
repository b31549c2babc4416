package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/term"

	"github.com/Batdan007/MaiAI-Birth/internal/apiclient"
	"github.com/Batdan007/MaiAI-Birth/internal/config"
	"github.com/Batdan007/MaiAI-Birth/internal/logging"
	"github.com/Batdan007/MaiAI-Birth/internal/store"
)

// Global flags, bound by cmd/maiai
var (
	// AppVersion is set from main
	AppVersion = "0.0.0-dev"

	Verbose     bool
	APIURL      string
	StateDir    string
	MetricsAddr string
	ConfigPath  string
)

// Styles for command output
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ade80"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// env is everything a command needs, built once per invocation
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	backend  *store.FileBackend
	sessions *store.SessionStore
	agents   *store.AgentRegistry
	client   *apiclient.Client
	registry *prometheus.Registry

	closers []func() error
}

// bootstrap loads config, sets up logging and opens the persisted stores.
// Interactive commands log to a file so the TUI is not disturbed.
func bootstrap(interactive bool) (*env, error) {
	path := ConfigPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if APIURL != "" {
		cfg.APIURL = strings.TrimSuffix(APIURL, "/")
	}
	if StateDir != "" {
		cfg.StateDir = StateDir
	}
	if MetricsAddr != "" {
		cfg.MetricsAddr = MetricsAddr
	}
	if Verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logOpts := logging.Options{Environment: cfg.Environment, Level: cfg.LogLevel}
	if interactive {
		logOpts.File = cfg.LogFile()
	} else if !Verbose {
		logOpts.Level = "warn"
	}
	logger, closeLog, err := logging.Init(logOpts)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, logger: logger, closers: []func() error{closeLog}}

	e.backend, err = store.NewFileBackend(cfg.StateDir)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.sessions = store.NewSessionStore(e.backend, logger)
	e.agents = store.NewAgentRegistry(e.backend, logger)

	e.registry = prometheus.NewRegistry()
	e.registry.MustRegister(collectors.NewGoCollector())
	e.client = apiclient.New(cfg.APIURL,
		apiclient.WithLogger(logger),
		apiclient.WithMetrics(apiclient.NewMetrics(e.registry)),
		apiclient.WithPresetsTTL(cfg.PresetsTTL),
	)

	if cfg.MetricsAddr != "" {
		e.serveMetrics(cfg.MetricsAddr)
	}

	logger.Debug("bootstrapped", "api_url", cfg.APIURL, "state_dir", cfg.StateDir, "version", AppVersion)
	return e, nil
}

func (e *env) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Warn("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	e.logger.Info("serving metrics", "addr", addr)

	e.closers = append(e.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
}

// Close releases the log file and the metrics server
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.logger.Debug("close failed", "error", err)
		}
	}
}

// requireSession returns the token or the login hint
func (e *env) requireSession() (string, error) {
	sess, err := e.sessions.Require()
	if err != nil {
		return "", notLoggedIn()
	}
	return sess.Token, nil
}

func notLoggedIn() error {
	return errors.New("not logged in. Run 'maiai login' first")
}

// friendly maps a command failure to what the user should see
func friendly(err error) error {
	if errors.Is(err, store.ErrNoSession) {
		return notLoggedIn()
	}
	return err
}

// refreshAgents pulls the agent list into the registry
func (e *env) refreshAgents(ctx context.Context, token string) error {
	agents, err := e.client.ListAgents(ctx, token)
	if err != nil {
		return err
	}
	e.agents.SetAgents(agents)
	return nil
}

// watch is handed to the TUI so edits by other maiai processes show up
func (e *env) watch(ctx context.Context, notify func(name string)) error {
	return store.WatchStores(ctx, e.backend, e.logger, map[string]store.Reloader{
		store.SessionName: e.sessions,
		store.AgentsName:  e.agents,
	}, notify)
}

func promptLine(r *bufio.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword hides input on a terminal and falls back to a plain read
// when stdin is piped.
func promptPassword(r *bufio.Reader, w io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine(r, w, label)
	}
	fmt.Fprint(w, label)
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(data), nil
}
