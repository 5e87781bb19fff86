//go:build windows

package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/windows/registry"
)

const (
	runKeyPath  = `Software\Microsoft\Windows\CurrentVersion\Run`
	menuKeyPath = `Software\Classes\*\shell\` + AppName
)

func newStartupAdapter(opts Options) StartupAdapter {
	return &RunKey{opts: opts}
}

func newContextMenuAdapter(opts Options) ContextMenuAdapter {
	return &ShellVerb{opts: opts}
}

// RunKey manages the HKCU Run value that launches the app at login.
type RunKey struct {
	opts Options
}

// Enable sets the Run value.
func (r *RunKey) Enable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, _, err := registry.CreateKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open Run key: %w", err)
	}
	defer key.Close()

	cmd := quoteArgs(append([]string{r.opts.Executable}, r.opts.Args...))
	if err := key.SetStringValue(AppName, cmd); err != nil {
		return fmt.Errorf("failed to set Run value: %w", err)
	}
	return nil
}

// Disable deletes the Run value. A missing value is not an error.
func (r *RunKey) Disable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open Run key: %w", err)
	}
	defer key.Close()

	if err := key.DeleteValue(AppName); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("failed to delete Run value: %w", err)
	}
	return nil
}

// ShellVerb manages the Explorer context menu verb for all file types.
type ShellVerb struct {
	opts Options
}

// Register creates the verb and its command subkey.
func (s *ShellVerb) Register(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	verb, _, err := registry.CreateKey(registry.CURRENT_USER, menuKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to create shell verb: %w", err)
	}
	defer verb.Close()

	if err := verb.SetStringValue("", "Send with "+AppName); err != nil {
		return fmt.Errorf("failed to set verb label: %w", err)
	}
	if err := verb.SetStringValue("Icon", s.opts.Executable); err != nil {
		return fmt.Errorf("failed to set verb icon: %w", err)
	}

	command, _, err := registry.CreateKey(registry.CURRENT_USER, menuKeyPath+`\command`, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to create verb command: %w", err)
	}
	defer command.Close()

	if err := command.SetStringValue("", quoteArgs([]string{s.opts.Executable})+` "%1"`); err != nil {
		return fmt.Errorf("failed to set verb command: %w", err)
	}
	return nil
}

// Unregister deletes the verb. A missing verb is not an error.
func (s *ShellVerb) Unregister(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, path := range []string{menuKeyPath + `\command`, menuKeyPath} {
		if err := registry.DeleteKey(registry.CURRENT_USER, path); err != nil && !errors.Is(err, registry.ErrNotExist) {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
	}
	return nil
}

func quoteArgs(parts []string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		if strings.ContainsAny(p, " \t") {
			p = `"` + p + `"`
		}
		quoted[i] = p
	}
	return strings.Join(quoted, " ")
}
