// Package platform holds the OS integrations driven by settings toggles:
// launching at login and the file-manager "send with sendpair" entry.
//
// Adapters are plain values constructed once at startup and handed to the
// settings coordinator. Each call may fail independently of settings
// persistence; the coordinator only logs those failures.
package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrUnsupported is returned by adapters on platforms without the integration.
var ErrUnsupported = errors.New("not supported on this platform")

// AppName is the name the integrations register under.
const AppName = "sendpair"

// StartupAdapter registers the application to start at user login.
type StartupAdapter interface {
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
}

// ContextMenuAdapter adds or removes the file-manager context menu entry.
type ContextMenuAdapter interface {
	Register(ctx context.Context) error
	Unregister(ctx context.Context) error
}

// Options configure the platform adapters.
type Options struct {
	// Executable is the binary the integrations launch. Defaults to os.Executable().
	Executable string

	// Args are passed to Executable when launched at login.
	Args []string

	// HomeDir overrides the user's home directory (Linux). Used by tests.
	HomeDir string
}

func (o Options) withDefaults() (Options, error) {
	if o.Executable == "" {
		exe, err := os.Executable()
		if err != nil {
			return o, fmt.Errorf("cannot determine executable path: %w", err)
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		o.Executable = exe
	}
	if o.HomeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return o, fmt.Errorf("cannot determine home directory: %w", err)
		}
		o.HomeDir = home
	}
	return o, nil
}

// New returns the startup and context-menu adapters for the running OS.
func New(opts Options) (StartupAdapter, ContextMenuAdapter, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, nil, err
	}
	return newStartupAdapter(opts), newContextMenuAdapter(opts), nil
}

// unsupported implements both adapters by refusing every call.
type unsupported struct{}

func (unsupported) Enable(context.Context) error     { return ErrUnsupported }
func (unsupported) Disable(context.Context) error    { return ErrUnsupported }
func (unsupported) Register(context.Context) error   { return ErrUnsupported }
func (unsupported) Unregister(context.Context) error { return ErrUnsupported }
