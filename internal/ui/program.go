package ui

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Printer writes rendered components to a writer at a fixed width.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// SetWidth overrides the detected terminal width
func (p *Printer) SetWidth(width int) *Printer {
	p.width = clampWidth(width)
	return p
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintResult prints a result box at the printer's width
func (p *Printer) PrintResult(r *Result) {
	p.Println(r.SetWidth(p.width).Render())
}

// PrintError prints a failure box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.PrintResult(NewFailureResult(title, err, troubleshooting))
}

// waitModel shows a spinner until done closes or the context ends.
type waitModel struct {
	label   string
	done    <-chan struct{}
	ctx     context.Context
	spinner spinner.Model
	err     error
	quit    bool
}

type waitDoneMsg struct{ err error }

func (m waitModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.wait)
}

func (m waitModel) wait() tea.Msg {
	select {
	case <-m.done:
		return waitDoneMsg{}
	case <-m.ctx.Done():
		return waitDoneMsg{err: m.ctx.Err()}
	}
}

func (m waitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case waitDoneMsg:
		m.err = msg.err
		m.quit = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err = context.Canceled
			m.quit = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m waitModel) View() string {
	if m.quit {
		return ""
	}
	return "  " + m.spinner.View() + " " + m.label + "\n"
}

// WaitWithSpinner blocks until done is closed, showing a spinner with label
// while it waits. When stdout is not a terminal it waits silently.
func WaitWithSpinner(ctx context.Context, label string, done <-chan struct{}) error {
	if !IsTerminal() {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	final, err := tea.NewProgram(waitModel{
		label:   label,
		done:    done,
		ctx:     ctx,
		spinner: s,
	}, tea.WithOutput(os.Stdout)).Run()
	if err != nil {
		return err
	}
	return final.(waitModel).err
}
