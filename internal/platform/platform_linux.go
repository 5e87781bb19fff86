//go:build linux

package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func newStartupAdapter(opts Options) StartupAdapter {
	return &XDGAutostart{Path: filepath.Join(xdgDir("XDG_CONFIG_HOME", opts.HomeDir, ".config"), "autostart", AppName+".desktop"), opts: opts}
}

func newContextMenuAdapter(opts Options) ContextMenuAdapter {
	return &NautilusScript{Path: filepath.Join(xdgDir("XDG_DATA_HOME", opts.HomeDir, ".local/share"), "nautilus", "scripts", "Send with "+AppName), opts: opts}
}

func xdgDir(env, home, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	return filepath.Join(home, fallback)
}

// XDGAutostart manages a desktop entry in the XDG autostart directory.
type XDGAutostart struct {
	Path string
	opts Options
}

// Enable writes the autostart desktop entry.
func (a *XDGAutostart) Enable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	exec := desktopExec(append([]string{a.opts.Executable}, a.opts.Args...))
	entry := strings.Join([]string{
		"[Desktop Entry]",
		"Type=Application",
		"Name=" + AppName,
		"Exec=" + exec,
		"X-GNOME-Autostart-enabled=true",
		"NoDisplay=true",
		"",
	}, "\n")

	return writeFile(a.Path, []byte(entry), 0644)
}

// Disable removes the autostart desktop entry. A missing entry is not an error.
func (a *XDGAutostart) Disable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return removeFile(a.Path)
}

// NautilusScript manages an executable in the Nautilus scripts directory,
// which the file manager lists under the context menu's Scripts entry.
type NautilusScript struct {
	Path string
	opts Options
}

// Register writes the script.
func (n *NautilusScript) Register(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	script := fmt.Sprintf("#!/bin/sh\nexec %s \"$@\"\n", shellQuote(n.opts.Executable))
	return writeFile(n.Path, []byte(script), 0755)
}

// Unregister removes the script. A missing script is not an error.
func (n *NautilusScript) Unregister(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return removeFile(n.Path)
}

// desktopExec builds a desktop entry Exec value. Arguments holding reserved
// characters are double quoted with ", `, $ and \ backslash-escaped, then
// backslashes are doubled again for the string value escape and % becomes %%.
func desktopExec(parts []string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		if p == "" || strings.ContainsAny(p, execReserved) {
			p = `"` + execQuoter.Replace(p) + `"`
		}
		p = strings.ReplaceAll(p, `\`, `\\`)
		quoted[i] = strings.ReplaceAll(p, "%", "%%")
	}
	return strings.Join(quoted, " ")
}

const execReserved = " \t\n\"'\\><~|&;$*?#()`"

var execQuoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)

// shellQuote single quotes s for /bin/sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func writeFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
