package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/sendpair/internal/logging"
	"github.com/muurk/sendpair/internal/registry"
	"github.com/muurk/sendpair/internal/settings"
	"github.com/muurk/sendpair/internal/ui"
)

// Screen represents the current active screen
type Screen string

const (
	ScreenSettings Screen = "settings"
	ScreenDevices  Screen = "devices"
)

// DeviceLister supplies the device screen. May be nil.
type DeviceLister interface {
	List() []registry.Entry
}

// Messages for async operations
type readyMsg struct{ err error }
type snapshotMsg settings.Snapshot
type subscriptionClosedMsg struct{}
type mutationMsg struct {
	label string
	err   error
}

// Model is the settings editor. It never holds settings of its own: every
// value shown comes from the coordinator's latest published snapshot.
type Model struct {
	coord   *settings.Coordinator
	devices DeviceLister
	ctx     context.Context
	sub     *settings.Subscription

	Screen  Screen
	Loading bool
	Snap    settings.Snapshot

	fields  []field
	cursor  int
	editing bool
	input   textinput.Model

	status    string
	statusErr bool

	spinner    spinner.Model
	deviceList list.Model
	help       help.Model
	keys       settingsKeyMap
	editKeys   editKeyMap
	devKeys    devicesKeyMap

	Width  int
	Height int
}

// New creates the editor model. The subscription it opens is released by
// Close, or when the coordinator shuts down.
func New(ctx context.Context, coord *settings.Coordinator, devices DeviceLister) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ui.PrimaryColor)

	in := textinput.New()
	in.CharLimit = 256
	in.Width = 40

	dl := list.New(nil, list.NewDefaultDelegate(), ui.MinTerminalWidth, 16)
	dl.Title = "Devices"
	dl.SetShowHelp(false)
	dl.Styles.Title = lipgloss.NewStyle().Foreground(ui.TextColor).Background(ui.PrimaryColor).Padding(0, 1)

	return Model{
		coord:      coord,
		devices:    devices,
		ctx:        ctx,
		sub:        coord.Subscribe(),
		Screen:     ScreenSettings,
		Loading:    coord.State() != settings.StateReady,
		Snap:       coord.Current(),
		fields:     settingsFields(),
		input:      in,
		spinner:    s,
		deviceList: dl,
		help:       help.New(),
		keys:       newSettingsKeyMap(),
		editKeys:   newEditKeyMap(),
		devKeys:    newDevicesKeyMap(),
		Width:      ui.MinTerminalWidth,
	}
}

// Close releases the model's subscription.
func (m Model) Close() {
	m.sub.Close()
}

// Init starts the spinner and waits for the initial load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitReady, m.listen)
}

func (m Model) waitReady() tea.Msg {
	return readyMsg{err: m.coord.WaitReady(m.ctx)}
}

func (m Model) listen() tea.Msg {
	snap, ok := <-m.sub.Updates()
	if !ok {
		return subscriptionClosedMsg{}
	}
	return snapshotMsg(snap)
}

func (m Model) run(label string, mut mutation) tea.Cmd {
	c, ctx := m.coord, m.ctx
	return func() tea.Msg {
		_, err := mut(c, ctx)
		return mutationMsg{label: label, err: err}
	}
}

// Update handles all messages and routes them to the active screen
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.deviceList.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case readyMsg:
		if msg.err != nil {
			return m.setError(fmt.Errorf("settings did not load: %w", msg.err)), tea.Quit
		}
		m.Loading = false
		m.Snap = m.coord.Current()
		return m, nil

	case snapshotMsg:
		m.Snap = settings.Snapshot(msg)
		return m, m.listen

	case subscriptionClosedMsg:
		return m, tea.Quit

	case mutationMsg:
		if msg.err != nil {
			logging.Warn("Settings change failed", zap.String("field", msg.label), zap.Error(msg.err))
			return m.setError(msg.err), nil
		}
		m.status, m.statusErr = "Saved "+strings.ToLower(msg.label), false
		return m, nil

	case spinner.TickMsg:
		if !m.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.Loading {
		if k, ok := msg.(tea.KeyMsg); ok && (k.String() == "ctrl+c" || k.String() == "q") {
			return m, tea.Quit
		}
		return m, nil
	}

	switch m.Screen {
	case ScreenDevices:
		return m.updateDevices(msg)
	default:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateSettings(msg)
	}
}

func (m Model) updateSettings(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(k, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(k, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(k, m.keys.Down):
		if m.cursor < len(m.fields)-1 {
			m.cursor++
		}
	case key.Matches(k, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(k, m.keys.Devices):
		m.Screen = ScreenDevices
		m.deviceList.SetItems(m.deviceItems())
	case key.Matches(k, m.keys.Enter):
		return m.activate()
	}
	return m, nil
}

// activate applies toggles immediately and opens the editor for text fields.
func (m Model) activate() (tea.Model, tea.Cmd) {
	f := m.fields[m.cursor]
	m.status = ""

	switch f.kind {
	case kindToggle, kindChoice:
		return m, m.run(f.label, f.toggle(m.Snap.Settings))
	default:
		m.editing = true
		m.input.SetValue(f.raw(m.Snap.Settings))
		m.input.CursorEnd()
		m.input.Placeholder = ""
		if f.kind == kindNumber {
			m.input.Placeholder = "0 for unlimited"
		}
		m.input.Focus()
		return m, textinput.Blink
	}
}

func (m Model) updateEditing(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, m.editKeys.Cancel):
			m.editing = false
			m.input.Blur()
			return m, nil
		case key.Matches(k, m.editKeys.Confirm):
			f := m.fields[m.cursor]
			mut, err := f.parse(m.input.Value())
			if err != nil {
				return m.setError(fmt.Errorf("%s: %w", f.label, err)), nil
			}
			m.editing = false
			m.input.Blur()
			return m, m.run(f.label, mut)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateDevices(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && m.deviceList.FilterState() != list.Filtering {
		switch {
		case key.Matches(k, m.devKeys.Quit):
			return m, tea.Quit
		case key.Matches(k, m.devKeys.Back):
			m.Screen = ScreenSettings
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.deviceList, cmd = m.deviceList.Update(msg)
	return m, cmd
}

func (m Model) setError(err error) Model {
	m.status, m.statusErr = err.Error(), true
	return m
}

// View renders the active screen
func (m Model) View() string {
	if m.Loading {
		return fmt.Sprintf("\n  %s Loading settings...\n", m.spinner.View())
	}

	switch m.Screen {
	case ScreenDevices:
		return m.deviceList.View() + "\n" + helpStyle.Render(m.help.View(m.devKeys))
	default:
		return m.renderSettings()
	}
}

func (m Model) renderSettings() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("SENDPAIR SETTINGS"))
	b.WriteString("\n")

	section := ""
	for i, f := range m.fields {
		if f.section != section {
			section = f.section
			b.WriteString("\n")
			b.WriteString(ui.SectionTitleStyle.Render(section))
			b.WriteString("\n")
		}

		selected := i == m.cursor
		value := f.value(m.Snap.Settings)
		if value == "" {
			value = "(not set)"
		}
		if selected && m.editing {
			value = m.input.View()
		}

		line := labelStyle.Render(f.label) + valueStyle.Render(value)
		if selected {
			b.WriteString(selectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.status != "" {
		if m.statusErr {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(okStyle.Render(m.status))
		}
		b.WriteString("\n")
	}

	if m.editing {
		b.WriteString(helpStyle.Render(m.help.View(m.editKeys)))
	} else {
		b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	}
	return b.String()
}

// Run shows the editor until the user quits.
func Run(ctx context.Context, coord *settings.Coordinator, devices DeviceLister) error {
	m := New(ctx, coord, devices)
	defer m.Close()

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
