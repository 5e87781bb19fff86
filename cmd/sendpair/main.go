// Sendpair is the settings and pairing client for local file sharing.
//
// It owns this device's settings (name, download folder, transfer limits,
// desktop integration), pairs peers from scanned or pasted pairing codes,
// and finds peers on the local network over mDNS.
//
// Usage:
//
//	sendpair [command] [flags]
//
// Running without arguments launches the interactive settings editor.
// See 'sendpair --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/sendpair/internal/config"
	"github.com/muurk/sendpair/internal/logging"
	"github.com/muurk/sendpair/internal/platform"
	"github.com/muurk/sendpair/internal/registry"
	"github.com/muurk/sendpair/internal/settings"
	"github.com/muurk/sendpair/internal/version"
)

// errReported is returned by commands that already printed their failure.
var errReported = errors.New("reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()

	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// Global flags
var (
	configDir string
	logLevel  string
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:   "sendpair",
	Short: "Local file-sharing settings and pairing",
	Long: `Manage this device's file-sharing settings and the peers it is paired with.

Settings are stored in a YAML file under the user's configuration directory
(override with --config-dir or SENDPAIR_CONFIG_DIR). Peers are paired from a
pairing code, or found on the local network with 'sendpair scan'.

If no command is specified, the interactive settings editor will launch.`,
	Version:       version.Full(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Initialize(logLevel); err != nil {
			return err
		}
		if configDir != "" {
			return os.Setenv(config.ConfigDirEnvVar, configDir)
		}
		return nil
	},
	RunE: runTUI,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default: OS config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when empty")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep everything in memory; nothing is written to disk")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sendpair %s (commit: %s)\n", version.Version, version.Commit)
	},
}

// app holds the long-lived components shared by the commands.
type app struct {
	store    config.Store
	settings *settings.Coordinator
	devices  *registry.Registry
}

// openApp opens the store, starts the settings coordinator and loads the
// device registry. The coordinator's own load runs in the background.
func openApp(ctx context.Context) (*app, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}

	startup, menu, err := platform.New(platform.Options{})
	if err != nil {
		// Toggles still persist; only the OS integration is skipped
		logging.Warn("Desktop integration unavailable", zap.Error(err))
		startup, menu = nil, nil
	}

	coord, err := settings.New(settings.Options{
		Store:       store,
		Startup:     startup,
		ContextMenu: menu,
	})
	if err != nil {
		return nil, err
	}

	devices := registry.New(store)
	if err := devices.Load(ctx); err != nil {
		_ = coord.Close()
		return nil, err
	}

	return &app{store: store, settings: coord, devices: devices}, nil
}

func openStore() (config.Store, error) {
	if ephemeral {
		return config.NewMemoryStore(), nil
	}
	dir, err := config.GetConfigDir()
	if err != nil {
		return nil, err
	}
	return config.NewFileStore(dir)
}

// Close flushes queued settings changes.
func (a *app) Close() {
	if err := a.settings.Close(); err != nil {
		logging.Warn("Failed to close settings", zap.Error(err))
	}
}
