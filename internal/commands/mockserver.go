package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Batdan007/MaiAI-Birth/internal/logging"
	"github.com/Batdan007/MaiAI-Birth/internal/mockapi"
)

var (
	mockAddr      string
	mockDB        string
	mockJWTSecret string
	mockTokenTTL  time.Duration
)

// MockServerCmd serves the local mock backend
var MockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Run a local Mai-AI backend for development",
	Long: `Run a self-contained backend that implements every endpoint the client
uses, backed by a sqlite file. Point the client at it with:

  maiai --api-url http://localhost:8000 signup`,
	Args: cobra.NoArgs,
	RunE: runMockServer,
}

func init() {
	MockServerCmd.Flags().StringVar(&mockAddr, "addr", ":8000", "Listen address")
	MockServerCmd.Flags().StringVar(&mockDB, "db", "", "sqlite database path (default <state_dir>/mock.db)")
	MockServerCmd.Flags().StringVar(&mockJWTSecret, "jwt-secret", "", "Token signing secret (default $MAIAI_MOCK_JWT_SECRET)")
	MockServerCmd.Flags().DurationVar(&mockTokenTTL, "token-ttl", 24*time.Hour, "Issued token lifetime")
}

func runMockServer(cmd *cobra.Command, args []string) error {
	e, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer e.Close()

	// the server logs to stderr at the configured level
	logger, closeLog, err := logging.Init(logging.Options{Environment: e.cfg.Environment, Level: e.cfg.LogLevel})
	if err != nil {
		return err
	}
	defer closeLog()

	secret := mockJWTSecret
	if secret == "" {
		secret = os.Getenv("MAIAI_MOCK_JWT_SECRET")
	}
	if secret == "" {
		return errors.New("a signing secret is required: pass --jwt-secret or set MAIAI_MOCK_JWT_SECRET")
	}

	dbPath := mockDB
	if dbPath == "" {
		dbPath = filepath.Join(e.cfg.StateDir, "mock.db")
	}

	srv, err := mockapi.New(mockapi.Config{
		DBPath:      dbPath,
		JWTSecret:   secret,
		TokenExpiry: mockTokenTTL,
		Registry:    e.registry,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to start mock backend: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(mockAddr) }()

	select {
	case err := <-errCh:
		srv.Shutdown()
		return err
	case <-ctx.Done():
		logger.Info("shutting down mock backend")
		return srv.Shutdown()
	}
}
