package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/muurk/sendpair/internal/settings"
	"github.com/muurk/sendpair/internal/ui"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindNumber
	kindToggle
	kindChoice
)

type mutation func(c *settings.Coordinator, ctx context.Context) (settings.Settings, error)

// field is one editable row of the settings screen.
type field struct {
	label   string
	section string
	kind    fieldKind
	value   func(settings.Settings) string

	// toggle is used by kindToggle and kindChoice fields
	toggle func(settings.Settings) mutation
	// parse turns edited text into a mutation for kindText and kindNumber fields
	parse func(string) (mutation, error)
	// raw is the initial text shown in the editor
	raw func(settings.Settings) string
}

var errEmpty = errors.New("value must not be empty")

var themes = []settings.Theme{settings.ThemeSystem, settings.ThemeLight, settings.ThemeDark}

// nextTheme cycles through the built-in themes. Unknown themes restart at
// the first one.
func nextTheme(t settings.Theme) settings.Theme {
	for i, known := range themes {
		if known == t {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}

func constant(m mutation) func(settings.Settings) mutation {
	return func(settings.Settings) mutation { return m }
}

func text(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errEmpty
	}
	return s, nil
}

func number(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return n, nil
}

func settingsFields() []field {
	return []field{
		{
			label: "Device name", section: "Device", kind: kindText,
			value: func(s settings.Settings) string { return s.DeviceName },
			raw:   func(s settings.Settings) string { return s.DeviceName },
			parse: func(in string) (mutation, error) {
				name, err := text(in)
				if err != nil {
					return nil, err
				}
				return func(c *settings.Coordinator, ctx context.Context) (settings.Settings, error) {
					return c.SetDeviceName(ctx, name)
				}, nil
			},
		},
		{
			label: "Download folder", section: "Device", kind: kindText,
			value: func(s settings.Settings) string { return s.DownloadPath },
			raw:   func(s settings.Settings) string { return s.DownloadPath },
			parse: func(in string) (mutation, error) {
				path, err := text(in)
				if err != nil {
					return nil, err
				}
				if err := settings.CheckWritable(path); err != nil {
					return nil, err
				}
				return func(c *settings.Coordinator, ctx context.Context) (settings.Settings, error) {
					return c.SetDownloadPath(ctx, path)
				}, nil
			},
		},
		{
			label: "Theme", section: "Device", kind: kindChoice,
			value: func(s settings.Settings) string { return string(s.Theme) },
			toggle: func(s settings.Settings) mutation {
				next := nextTheme(s.Theme)
				return func(c *settings.Coordinator, ctx context.Context) (settings.Settings, error) {
					return c.SetTheme(ctx, next)
				}
			},
		},
		{
			label: "Language", section: "Device", kind: kindText,
			value: func(s settings.Settings) string { return s.Locale },
			raw:   func(s settings.Settings) string { return s.Locale },
			parse: func(in string) (mutation, error) {
				locale, err := text(in)
				if err != nil {
					return nil, err
				}
				return func(c *settings.Coordinator, ctx context.Context) (settings.Settings, error) {
					return c.SetLocale(ctx, locale)
				}, nil
			},
		},
		{
			label: "Auto-accept files", section: "Transfers", kind: kindToggle,
			value:  func(s settings.Settings) string { return ui.FormatBool(s.AutoAcceptFiles) },
			toggle: constant((*settings.Coordinator).ToggleAutoAccept),
		},
		{
			label: "Overwrite files", section: "Transfers", kind: kindToggle,
			value:  func(s settings.Settings) string { return ui.FormatBool(s.OverwriteFiles) },
			toggle: constant((*settings.Coordinator).ToggleOverwriteFiles),
		},
		{
			label: "Max file size (bytes)", section: "Transfers", kind: kindNumber,
			value: func(s settings.Settings) string { return ui.FormatBytes(s.MaxFileSizeBytes) },
			raw:   func(s settings.Settings) string { return rawNumber(s.MaxFileSizeBytes) },
			parse: func(in string) (mutation, error) {
				n, err := number(in)
				if err != nil {
					return nil, err
				}
				return func(c *settings.Coordinator, ctx context.Context) (settings.Settings, error) {
					return c.SetMaxFileSize(ctx, n)
				}, nil
			},
		},
		{
			label: "Max upload speed (KB/s)", section: "Transfers", kind: kindNumber,
			value: func(s settings.Settings) string { return ui.FormatSpeed(s.MaxUploadSpeedKBps) },
			raw:   func(s settings.Settings) string { return rawNumber(s.MaxUploadSpeedKBps) },
			parse: func(in string) (mutation, error) {
				n, err := number(in)
				if err != nil {
					return nil, err
				}
				return func(c *settings.Coordinator, ctx context.Context) (settings.Settings, error) {
					return c.SetMaxUploadSpeed(ctx, n)
				}, nil
			},
		},
		{
			label: "Launch at startup", section: "Desktop", kind: kindToggle,
			value:  func(s settings.Settings) string { return ui.FormatBool(s.LaunchAtStartup) },
			toggle: constant((*settings.Coordinator).ToggleLaunchAtStartup),
		},
		{
			label: "Minimize to tray", section: "Desktop", kind: kindToggle,
			value:  func(s settings.Settings) string { return ui.FormatBool(s.MinimizeToTray) + " (next launch)" },
			toggle: constant((*settings.Coordinator).ToggleMinimizeToTray),
		},
		{
			label: "Explorer menu", section: "Desktop", kind: kindToggle,
			value:  func(s settings.Settings) string { return ui.FormatBool(s.ShowInExplorerMenu) },
			toggle: constant((*settings.Coordinator).ToggleExplorerMenu),
		},
	}
}

func rawNumber(n uint64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatUint(n, 10)
}
