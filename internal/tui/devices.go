package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/muurk/sendpair/internal/registry"
)

// deviceItem wraps a registry entry for use with bubbles/list
type deviceItem struct {
	entry registry.Entry
}

// FilterValue matches on name, id and address
func (d deviceItem) FilterValue() string {
	return d.entry.Device.Name() + " " + d.entry.Device.ID() + " " + d.entry.Device.Address()
}

func (d deviceItem) Title() string {
	return d.entry.Device.Name()
}

func (d deviceItem) Description() string {
	parts := []string{d.entry.Device.ID()}
	if ep := d.entry.Device.Endpoint(); ep != "" {
		parts = append(parts, ep)
	}
	parts = append(parts, string(d.entry.Source))
	return strings.Join(parts, " • ")
}

func (m Model) deviceItems() []list.Item {
	if m.devices == nil {
		return nil
	}
	entries := m.devices.List()
	items := make([]list.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, deviceItem{entry: e})
	}
	return items
}
