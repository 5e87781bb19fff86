package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/sendpair/internal/pairing"
	"github.com/muurk/sendpair/internal/settings"
)

// execute runs the root command in ephemeral mode with fresh flag state.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	pairStdin, showJSON, forgetYes = false, false, false
	codeAddress = ""

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--ephemeral"}, args...))

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"", 0, false},
		{"unlimited", 0, false},
		{"Unlimited", 0, false},
		{"0", 0, false},
		{" 2048 ", 2048, false},
		{"-1", 0, true},
		{"10MB", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLimit(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldValueCoversEveryField(t *testing.T) {
	s := settings.Defaults()
	s.DeviceName = "Desk"
	s.DownloadPath = "/tmp"

	for name := range setters {
		assert.NotEmpty(t, fieldValue(name, s), "setter %s", name)
	}
	for name := range toggles {
		assert.NotEmpty(t, fieldValue(name, s), "toggle %s", name)
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "sendpair "))
}

func TestSettingsSet(t *testing.T) {
	out, _, err := execute(t, "", "settings", "set", "deviceName", "Studio")
	require.NoError(t, err)
	assert.Contains(t, out, "Settings updated")
	assert.Contains(t, out, "Studio")
}

func TestSettingsSetErrors(t *testing.T) {
	_, _, err := execute(t, "", "settings", "set", "autoAcceptFiles", "true")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings toggle")

	_, _, err = execute(t, "", "settings", "set", "colour", "red")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")

	_, _, err = execute(t, "", "settings", "set", "deviceName", "  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be empty")

	_, _, err = execute(t, "", "settings", "set", "maxFileSizeBytes", "lots")
	require.Error(t, err)
}

func TestSettingsToggle(t *testing.T) {
	out, _, err := execute(t, "", "settings", "toggle", "autoAcceptFiles")
	require.NoError(t, err)
	assert.Contains(t, out, "on")

	_, _, err = execute(t, "", "settings", "toggle", "nope")
	require.Error(t, err)
}

func TestSettingsShowJSON(t *testing.T) {
	out, _, err := execute(t, "", "settings", "show", "--json")
	require.NoError(t, err)

	s, err := settings.DecodeStrict(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, settings.ThemeSystem, s.Theme)
	assert.NotEmpty(t, s.DeviceName)
}

func TestPairCommand(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		out, _, err := execute(t, "", "pair", `{"id":"peer-1","name":"Laptop","port":53317}`)
		require.NoError(t, err)
		assert.Contains(t, out, "Device paired")
		assert.Contains(t, out, "Laptop")
	})

	t.Run("rejected", func(t *testing.T) {
		out, _, err := execute(t, "", "pair", `{"name":"no id"}`)
		assert.ErrorIs(t, err, errReported)
		assert.Contains(t, out, "Invalid pairing code")
	})

	t.Run("needs exactly one source", func(t *testing.T) {
		_, _, err := execute(t, "", "pair")
		require.Error(t, err)
	})

	t.Run("stdin", func(t *testing.T) {
		in := "\n" + `{"id":"peer-2","name":"Phone"}` + "\n"
		out, errOut, err := execute(t, in, "pair", "--stdin")
		require.NoError(t, err)
		assert.Contains(t, out, "Phone")
		assert.Contains(t, errOut, "\a")
	})
}

func TestPairCode(t *testing.T) {
	out, _, err := execute(t, "", "pair", "code", "--address", "192.168.1.5")
	require.NoError(t, err)

	d, err := pairing.Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID())
	assert.NotEmpty(t, d.Name())
	assert.Equal(t, "192.168.1.5", d.Address())
	assert.Equal(t, 53317, d.Port())
}

func TestDevicesEmpty(t *testing.T) {
	out, _, err := execute(t, "", "devices")
	require.NoError(t, err)
	assert.Contains(t, out, "No devices yet")
}

func TestDevicesForgetUnknown(t *testing.T) {
	_, _, err := execute(t, "", "devices", "forget", "missing", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no device")
}
