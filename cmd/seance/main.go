// ABOUTME: Entry point for the seance bridge daemon
// ABOUTME: Wires the store, assistant backend, and Matrix platform into the pipeline

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/seance/internal/backend"
	"github.com/2389/seance/internal/bridge"
	"github.com/2389/seance/internal/config"
	"github.com/2389/seance/internal/platform"
	"github.com/2389/seance/internal/store"
)

const banner = `
    ╭─────────────────────────────────╮
    │                                 │
    │   ┏━┓┏━╸┏━┓┏┓╻┏━╸┏━╸           │
    │   ┗━┓┣╸ ┣━┫┃┗┫┃  ┣╸             │
    │   ┗━┛┗━╸╹ ╹╹ ╹┗━╸┗━╸           │
    │                                 │
    │    thread ↔ assistant bridge    │
    │                                 │
    ╰─────────────────────────────────╯
`

// getConfigPath returns the path to the seance config file.
// Priority: SEANCE_CONFIG env var > XDG_CONFIG_HOME/seance/config.yaml > ~/.config/seance/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("SEANCE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "seance", "config.yaml")
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config from %s: %w", configPath, err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:     %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Homeserver: %s\n", cfg.Matrix.Homeserver)
	green.Print("    ▶ ")
	fmt.Printf("User:       %s\n", cfg.Matrix.UserID)
	green.Print("    ▶ ")
	fmt.Printf("Assistant:  %s\n", cfg.OpenAI.AssistantID)
	green.Print("    ▶ ")
	fmt.Printf("Database:   %s\n", cfg.Database.Path)
	fmt.Println()

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	var backendOpts []backend.Option
	if cfg.OpenAI.BaseURL != "" {
		backendOpts = append(backendOpts, backend.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	be := backend.NewOpenAIClient(cfg.OpenAI.APIKey, backendOpts...)

	matrix, err := platform.NewMatrix(platform.MatrixOptions{
		Homeserver:      cfg.Matrix.Homeserver,
		UserID:          cfg.Matrix.UserID,
		AccessToken:     cfg.Matrix.AccessToken,
		AllowedRooms:    cfg.Matrix.AllowedRooms,
		TypingIndicator: cfg.Matrix.TypingIndicator,
	}, logger)
	if err != nil {
		return fmt.Errorf("connecting to matrix: %w", err)
	}

	var vectorStores []string
	if cfg.OpenAI.VectorStoreID != "" {
		vectorStores = append(vectorStores, cfg.OpenAI.VectorStoreID)
	}

	b := bridge.New(st, be, matrix, bridge.Options{
		AssistantID:         cfg.OpenAI.AssistantID,
		VectorStoreIDs:      vectorStores,
		MaxCompletionTokens: cfg.OpenAI.MaxCompletionTokens,
		PollInterval:        cfg.Bridge.PollInterval,
		MaxPollAttempts:     cfg.Bridge.MaxPollAttempts,
		ChunkSize:           cfg.Bridge.ChunkSize,
		ChunkDelay:          cfg.Bridge.ChunkDelay,
	}, logger)

	matrix.OnInbound(b.Handler())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting seance bridge")
	return matrix.Run(ctx)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var logLevel slog.Level
	switch cfg.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
