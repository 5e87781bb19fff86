//go:build linux

package platform

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapters(t *testing.T) (StartupAdapter, ContextMenuAdapter, string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")

	home := t.TempDir()
	startup, menu, err := New(Options{
		Executable: "/opt/send pair/sendpair",
		Args:       []string{"serve", "--minimized"},
		HomeDir:    home,
	})
	require.NoError(t, err)
	return startup, menu, home
}

func TestXDGAutostart_EnableDisable(t *testing.T) {
	startup, _, home := newTestAdapters(t)
	ctx := context.Background()
	path := filepath.Join(home, ".config", "autostart", "sendpair.desktop")

	require.NoError(t, startup.Enable(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[Desktop Entry]")
	assert.Contains(t, string(data), `Exec="/opt/send pair/sendpair" serve --minimized`)

	// Enabling twice overwrites in place
	require.NoError(t, startup.Enable(ctx))

	require.NoError(t, startup.Disable(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Disabling when already disabled is fine
	require.NoError(t, startup.Disable(ctx))
}

func TestNautilusScript_RegisterUnregister(t *testing.T) {
	_, menu, home := newTestAdapters(t)
	ctx := context.Background()
	path := filepath.Join(home, ".local", "share", "nautilus", "scripts", "Send with sendpair")

	require.NoError(t, menu.Register(ctx))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0100, "script must be executable")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `exec '/opt/send pair/sendpair' "$@"`)

	require.NoError(t, menu.Unregister(ctx))
	require.NoError(t, menu.Unregister(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDesktopExec(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{"plain", []string{"/usr/bin/sendpair", "serve"}, `/usr/bin/sendpair serve`},
		{"space", []string{"/opt/send pair/sendpair"}, `"/opt/send pair/sendpair"`},
		{"dollar", []string{"/opt/$HOME/sendpair"}, `"/opt/\\$HOME/sendpair"`},
		{"backtick", []string{"/opt/`id`/sendpair"}, "\"/opt/\\\\`id\\\\`/sendpair\""},
		{"quote and backslash", []string{`/opt/a"b\c`}, `"/opt/a\\"b\\\\c"`},
		{"percent", []string{"/opt/100%/sendpair"}, `/opt/100%%/sendpair`},
		{"empty arg", []string{"/usr/bin/sendpair", ""}, `/usr/bin/sendpair ""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, desktopExec(tt.parts))
		})
	}
}

func TestShellQuote_NoExpansion(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	for _, s := range []string{
		"/opt/send pair/sendpair",
		"/opt/$HOME/sendpair",
		"/opt/`echo pwned`/sendpair",
		"/opt/it's/sendpair",
		`/opt/a"b\c/sendpair`,
	} {
		out, err := exec.Command(sh, "-c", "printf %s "+shellQuote(s)).Output()
		require.NoError(t, err, s)
		assert.Equal(t, s, string(out))
	}
}

func TestNautilusScript_QuotesExecutable(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	_, menu, err := New(Options{
		Executable: "/opt/$USER/`id`/sendpair",
		HomeDir:    t.TempDir(),
	})
	require.NoError(t, err)
	require.NoError(t, menu.Register(context.Background()))

	data, err := os.ReadFile(menu.(*NautilusScript).Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "exec '/opt/$USER/`id`/sendpair' \"$@\"")
}

func TestAdapters_CanceledContext(t *testing.T) {
	startup, menu, _ := newTestAdapters(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, startup.Enable(ctx), context.Canceled)
	assert.ErrorIs(t, menu.Register(ctx), context.Canceled)
}

func TestUnsupported(t *testing.T) {
	var u unsupported
	assert.ErrorIs(t, u.Enable(context.Background()), ErrUnsupported)
	assert.ErrorIs(t, u.Unregister(context.Background()), ErrUnsupported)
}
