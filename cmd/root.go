package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/audiotrainer/internal/config"
	"github.com/abhisek/audiotrainer/internal/llm"
	"github.com/abhisek/audiotrainer/internal/logging"
	"github.com/abhisek/audiotrainer/internal/response"
	"github.com/abhisek/audiotrainer/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "audiotrainer",
	Short: "Pure-tone audiometry trainer",
	Long: "audiotrainer simulates patients with hearing loss so students can practice " +
		"air and bone conduction audiometry with masking.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides AUDIOTRAINER_DB and config)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = readBuildInfo().Version
}

// loadConfig reads .env, the config file and the environment, then applies
// command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.Path = p
	}
	return cfg, nil
}

// newLogger builds the logger. The TUI owns the terminal, so interactive
// commands pass io.Discard as console and log to a file instead.
func newLogger(cfg *config.Config, console io.Writer) (*zap.Logger, error) {
	log, err := logging.New(cfg.Logging, console)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log, nil
}

// resolveDBPath returns the configured path, creating its directory, or
// the default XDG path.
func resolveDBPath(cfg *config.Config) (string, error) {
	if p := cfg.Store.Path; p != "" {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return "", fmt.Errorf("create database dir: %w", err)
		}
		return p, nil
	}
	return store.DefaultDBPath()
}

func openStore(cfg *config.Config, log *zap.Logger) (*store.Store, error) {
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath, store.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

func newEngine(cfg *config.Config) (*response.Engine, error) {
	rc, err := cfg.Engine.Response()
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	return response.New(rc), nil
}

// newProvider builds the narrative provider from config and the standard
// API key variables. It returns nil when nothing is configured.
func newProvider(ctx context.Context, cfg *config.Config, repo store.EventRepo, log *zap.Logger) (llm.Provider, error) {
	base, found := llm.DiscoverConfig()
	if !found {
		if !cfg.LLM.Configured() {
			return nil, nil
		}
		base = llm.DefaultConfig()
	}
	p, err := llm.NewProvider(ctx, cfg.LLM.Apply(base), repo, log)
	if err != nil {
		return nil, fmt.Errorf("create llm provider: %w", err)
	}
	return p, nil
}

// openCmdStore loads config, logs to stderr and opens the store for the
// non-interactive commands.
func openCmdStore(cmd *cobra.Command) (*store.Store, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	st, err := openStore(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return st, log, nil
}
