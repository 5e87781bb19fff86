package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/sendpair/internal/registry"
)

var (
	deviceNameStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true).
			PaddingLeft(2)

	deviceInfoStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(4)
)

// RenderDevices renders the registry contents as a list.
func RenderDevices(entries []registry.Entry, width int) string {
	width = clampWidth(width)

	var b strings.Builder
	b.WriteString(NewHeader("Devices", "",
		Param{Key: "Known", Value: fmt.Sprintf("%d", len(entries))},
	).SetWidth(width).Render())
	b.WriteString("\n")

	if len(entries) == 0 {
		b.WriteString("\n")
		b.WriteString(deviceInfoStyle.Render("No devices yet. Pair one with 'sendpair pair' or run 'sendpair scan'."))
		b.WriteString("\n")
		return b.String()
	}

	for _, e := range entries {
		b.WriteString("\n")
		b.WriteString(deviceNameStyle.Render(e.Device.Name()))
		b.WriteString("\n")
		b.WriteString(deviceInfoStyle.Render(deviceLine(e)))
		b.WriteString("\n")
	}
	return b.String()
}

func deviceLine(e registry.Entry) string {
	parts := []string{e.Device.ID()}
	if ep := e.Device.Endpoint(); ep != "" {
		parts = append(parts, ep)
	}
	parts = append(parts, string(e.Source))
	if !e.LastSeen.IsZero() {
		parts = append(parts, "seen "+e.LastSeen.Local().Format(time.DateTime))
	}
	return strings.Join(parts, " "+PendingMarker+" ")
}
