// Package main provides blazectl, the command-line companion to the
// blazedock dock.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/blazedock/internal/config"
	"github.com/jmylchreest/blazedock/internal/dbus"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// callTimeout bounds every D-Bus round trip to the running dock.
const callTimeout = 5 * time.Second

// Global configuration and state
var (
	globalOpts struct {
		verbose    bool
		configPath string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "blazectl",
	Short: "Control and configure the blazedock dock",
	Long: `blazectl controls a running blazedock and manages its configuration.

It can move keyboard focus and launch items over D-Bus, edit the pinned
app list, switch between configuration profiles, and preview the
magnification curve in the terminal.

Running blazectl without a subcommand launches the terminal preview.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger(os.Stderr)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreview(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/blazedock/blazedock.toml)")
}

// newLogger builds a terminal-friendly slog handler backed by charmbracelet/log.
func newLogger(w io.Writer, level charmlog.Level) *charmlog.Logger {
	return charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// setupLogger configures the global slog logger. Logs go to w so stdout
// stays clean for command output.
func setupLogger(w io.Writer) {
	level := charmlog.WarnLevel
	if globalOpts.verbose {
		level = charmlog.DebugLevel
	}
	logger = slog.New(newLogger(w, level))
	slog.SetDefault(logger)
}

// configPath returns the config file blazectl operates on.
func configPath() string {
	if globalOpts.configPath != "" {
		return globalOpts.configPath
	}
	return config.ConfigPath()
}

// loadConfig loads the config file, falling back to defaults when it does
// not exist.
func loadConfig() (*config.Config, error) {
	path := configPath()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Debug("config loaded", "path", path)
	return cfg, nil
}

// saveConfig writes cfg back to the config file. A running dock picks the
// change up through its file watcher.
func saveConfig(cfg *config.Config) error {
	path := configPath()
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	logger.Debug("config saved", "path", path)
	return nil
}

// withClient connects to the running dock and calls fn with a bounded context.
func withClient(fn func(ctx context.Context, c *dbus.Client) error) error {
	client, err := dbus.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return fn(ctx, client)
}
