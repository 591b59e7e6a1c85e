package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"componentforge/internal/catalog"
	"componentforge/internal/config"
	"componentforge/internal/forge"
	"componentforge/internal/logging"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string
	timeout    time.Duration

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "componentforge - synthesize, verify and run Go components",
	Long: `forge turns a declarative component specification into a Go source
artifact, verifies it in stages with an embedded interpreter, and runs its
entry point with named arguments.

Artifacts live at <artifact_dir>/<name>/<name>_component.go.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return loadConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <workspace>/.forge/config.yaml)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	rootCmd.AddCommand(synthesizeCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(catalogCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveWorkspace returns the workspace flag or the working directory.
func resolveWorkspace() (string, error) {
	if workspace != "" {
		return filepath.Abs(workspace)
	}
	return os.Getwd()
}

// loadConfig reads the workspace config and initializes file logging.
func loadConfig() error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	// A workspace .env may carry FORGE_* overrides; real env wins.
	_ = godotenv.Load(filepath.Join(ws, ".env"))

	path := configPath
	if path == "" {
		path = filepath.Join(ws, ".forge", "config.yaml")
	}

	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	c.ResolvePaths(ws)
	cfg = c

	if err := logging.Initialize(ws, logging.Settings{
		DebugMode:  c.Logging.DebugMode,
		Level:      c.Logging.Level,
		JSONFormat: c.Logging.IsJSON(),
		Categories: c.Logging.Categories,
	}); err != nil {
		logger.Warn("File logging disabled", zap.Error(err))
	}
	logging.Boot("Workspace %s, artifacts in %s", ws, c.Synthesis.ArtifactDir)
	return nil
}

// commandContext bounds a command by --timeout and cancels on interrupt.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// openCatalog opens the configured catalog; nil when disabled.
func openCatalog() (*catalog.Store, error) {
	if cfg.Catalog.DatabasePath == "" {
		return nil, nil
	}
	return catalog.Open(cfg.Catalog.DatabasePath)
}

func newForge() (*forge.Forge, func(), error) {
	store, err := openCatalog()
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if store != nil {
			_ = store.Close()
		}
	}
	return forge.New(cfg, store), closeFn, nil
}
