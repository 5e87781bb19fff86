package settings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	d := Defaults()

	assert.Equal(t, ThemeSystem, d.Theme)
	assert.Equal(t, "en", d.Locale)
	assert.True(t, d.MinimizeToTray)
	assert.False(t, d.AutoAcceptFiles)
	assert.False(t, d.OverwriteFiles)
	assert.False(t, d.LaunchAtStartup)
	assert.False(t, d.ShowInExplorerMenu)
	assert.Zero(t, d.MaxFileSizeBytes)
	assert.Zero(t, d.MaxUploadSpeedKBps)
	assert.Empty(t, d.DeviceName)
	assert.Empty(t, d.DownloadPath)
}

func TestDecode_PartialRecord(t *testing.T) {
	got := Decode(`{"deviceName":"Bob-PC","theme":"dark"}`)

	want := Defaults()
	want.DeviceName = "Bob-PC"
	want.Theme = ThemeDark
	assert.Equal(t, want, got)
}

func TestDecode_FallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"garbage", "not json at all"},
		{"array", `["deviceName","Bob"]`},
		{"string", `"Bob-PC"`},
		{"truncated", `{"deviceName":"Bob`},
		{"wrong type", `{"deviceName":"Bob","autoAcceptFiles":"yes"}`},
		{"negative size", `{"maxFileSizeBytes":-1}`},
		{"trailing data", `{"deviceName":"Bob"} {"deviceName":"Eve"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Defaults(), Decode(tt.input))

			_, err := DecodeStrict(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestDecode_IgnoresUnknownKeys(t *testing.T) {
	s, err := DecodeStrict(`{"locale":"de","sendMode":"single","favorites":[1,2]}`)
	require.NoError(t, err)

	want := Defaults()
	want.Locale = "de"
	assert.Equal(t, want, s)
}

func TestDecode_NullKeepsDefault(t *testing.T) {
	s, err := DecodeStrict(`{"minimizeToTray":null,"theme":null}`)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestDecode_UnknownThemePassesThrough(t *testing.T) {
	s := Decode(`{"theme":"solarized"}`)
	assert.Equal(t, Theme("solarized"), s.Theme)
	assert.False(t, s.Theme.Known())
	assert.Equal(t, `"solarized"`, mustField(t, Encode(s), "theme"))
}

func TestEncode_AllFieldsPresent(t *testing.T) {
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(Encode(Defaults())), &m))

	for _, key := range []string{
		"deviceName", "downloadPath", "autoAcceptFiles", "overwriteFiles",
		"maxFileSizeBytes", "theme", "locale", "launchAtStartup",
		"minimizeToTray", "showInExplorerMenu", "maxUploadSpeedKBps",
	} {
		assert.Contains(t, m, key)
	}
	assert.Len(t, m, 11)
}

func TestRoundTrip(t *testing.T) {
	values := []Settings{
		Defaults(),
		{},
		{
			DeviceName:         "Bob-PC",
			DownloadPath:       `C:\Users\bob\Downloads`,
			AutoAcceptFiles:    true,
			OverwriteFiles:     true,
			MaxFileSizeBytes:   1 << 40,
			Theme:              ThemeDark,
			Locale:             "pt-BR",
			LaunchAtStartup:    true,
			MinimizeToTray:     false,
			ShowInExplorerMenu: true,
			MaxUploadSpeedKBps: ^uint64(0),
		},
		{DeviceName: `quote " and unicode ✓`, Theme: "custom"},
	}

	for _, s := range values {
		encoded := Encode(s)
		decoded, err := DecodeStrict(encoded)
		require.NoError(t, err)
		assert.Equal(t, s, decoded)
		assert.Equal(t, encoded, Encode(decoded))
	}
}

func mustField(t *testing.T, encoded, key string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(encoded), &m))
	return string(m[key])
}
