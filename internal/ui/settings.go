package ui

import (
	"fmt"
	"strings"

	"github.com/muurk/sendpair/internal/settings"
)

// SettingsRow is one line of the settings table.
type SettingsRow struct {
	Label string
	Value string
	// Flag marks boolean rows so they can be coloured.
	Flag bool
	On   bool
}

// SettingsSection groups related rows under a title.
type SettingsSection struct {
	Title string
	Rows  []SettingsRow
}

// SettingsSections lays out s the way the settings table shows it.
func SettingsSections(s settings.Settings) []SettingsSection {
	return []SettingsSection{
		{
			Title: "Device",
			Rows: []SettingsRow{
				{Label: "Device name", Value: orUnset(s.DeviceName)},
				{Label: "Download folder", Value: orUnset(s.DownloadPath)},
				{Label: "Theme", Value: orUnset(string(s.Theme))},
				{Label: "Language", Value: orUnset(s.Locale)},
			},
		},
		{
			Title: "Transfers",
			Rows: []SettingsRow{
				flagRow("Auto-accept files", s.AutoAcceptFiles),
				flagRow("Overwrite files", s.OverwriteFiles),
				{Label: "Max file size", Value: FormatBytes(s.MaxFileSizeBytes)},
				{Label: "Max upload speed", Value: FormatSpeed(s.MaxUploadSpeedKBps)},
			},
		},
		{
			Title: "Desktop",
			Rows: []SettingsRow{
				flagRow("Launch at startup", s.LaunchAtStartup),
				flagRow("Minimize to tray", s.MinimizeToTray),
				flagRow("Explorer menu", s.ShowInExplorerMenu),
			},
		},
	}
}

// RenderSettings renders a settings snapshot as a sectioned table.
func RenderSettings(snap settings.Snapshot, state settings.State, width int) string {
	width = clampWidth(width)

	var b strings.Builder
	b.WriteString(NewHeader("Settings", "",
		Param{Key: "State", Value: state.String()},
		Param{Key: "Version", Value: fmt.Sprintf("%d", snap.Version)},
	).SetWidth(width).Render())
	b.WriteString("\n")

	for _, sec := range SettingsSections(snap.Settings) {
		b.WriteString("\n")
		b.WriteString(SectionTitleStyle.Render(sec.Title))
		b.WriteString("\n")
		for _, row := range sec.Rows {
			b.WriteString(TableKeyStyle.Render(row.Label))
			b.WriteString(renderValue(row))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderValue(row SettingsRow) string {
	if !row.Flag {
		return TableValueStyle.Render(row.Value)
	}
	if row.On {
		return FlagOnStyle.Render(row.Value)
	}
	return FlagOffStyle.Render(row.Value)
}

func flagRow(label string, on bool) SettingsRow {
	return SettingsRow{Label: label, Value: FormatBool(on), Flag: true, On: on}
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// FormatBool renders a flag as on/off.
func FormatBool(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// FormatBytes renders a byte limit with binary units. Zero means unlimited.
func FormatBytes(n uint64) string {
	if n == 0 {
		return "unlimited"
	}
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatSpeed renders an upload limit in KB/s. Zero means unlimited.
func FormatSpeed(kbps uint64) string {
	if kbps == 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d KB/s", kbps)
}
