package ui

import (
	"bytes"
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nick-dorsch/todo/internal/shell"
	"github.com/nick-dorsch/todo/internal/store"
	"github.com/nick-dorsch/todo/internal/ui/components"
)

var (
	logoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// logo, input and footer lines
	chromeHeight = 3
)

// REPLModel is the interactive shell: a text input feeding commands to the
// shell and a scroll-back transcript of their output.
type REPLModel struct {
	ctx        context.Context
	shell      *shell.Shell
	output     *bytes.Buffer
	input      textinput.Model
	transcript *components.Transcript
	location   string
	quitting   bool
}

func NewREPLModel(ctx context.Context, s *store.Store) REPLModel {
	var buf bytes.Buffer

	ti := textinput.New()
	ti.Prompt = shell.Prompt
	ti.Placeholder = "type 'help' for a list of commands"
	ti.Focus()

	t := components.NewTranscript(defaultWidth, defaultHeight-chromeHeight)
	t.SetSize(defaultWidth, defaultHeight-chromeHeight)

	return REPLModel{
		ctx:        ctx,
		shell:      shell.New(s, &buf),
		output:     &buf,
		input:      ti,
		transcript: t,
		location:   s.Location(),
	}
}

func (m REPLModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m REPLModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.transcript.SetSize(msg.Width, msg.Height-chromeHeight)
		m.input.Width = msg.Width - len(m.input.Prompt) - 1
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit

		case "pgup", "pgdown":
			return m, m.transcript.Update(msg)

		case "enter":
			return m.execute()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m REPLModel) execute() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if line == "" {
		return m, nil
	}

	m.transcript.AppendCommand(line)
	action, err := m.shell.Exec(m.ctx, line)
	m.transcript.Append(m.output.String())
	m.output.Reset()
	if err != nil {
		m.transcript.AppendError(err.Error())
	}

	switch action {
	case shell.ActionClear:
		m.transcript.Reset()
	case shell.ActionExit:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m REPLModel) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(logoStyle.Render("todo") + footerStyle.Render("  "+m.location))
	s.WriteString("\n")
	s.WriteString(m.transcript.View())
	s.WriteString("\n")
	s.WriteString(m.input.View())
	s.WriteString("\n")
	s.WriteString(footerStyle.Render("(enter to run, pgup/pgdown to scroll, esc or ctrl+c to quit)"))
	return s.String()
}

// Transcript returns the raw scroll-back content.
func (m REPLModel) Transcript() string {
	return m.transcript.String()
}

func RunREPL(ctx context.Context, s *store.Store) error {
	m := NewREPLModel(ctx, s)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
