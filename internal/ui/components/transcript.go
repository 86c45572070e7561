package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	outputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	scrollbarTrackStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("236"))

	scrollbarHandleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))
)

// Transcript renders the shell scroll-back in a viewport.
type Transcript struct {
	viewport viewport.Model
	output   strings.Builder
	ready    bool
	width    int
	height   int
}

// NewTranscript creates a new Transcript.
func NewTranscript(width, height int) *Transcript {
	return &Transcript{
		viewport: viewport.New(width, height),
		width:    width,
		height:   height,
	}
}

func (o *Transcript) SetSize(width, height int) {
	o.width = width
	o.height = height
	vpWidth := width
	if width > 0 {
		vpWidth = width - 1
	}
	if !o.ready {
		o.viewport = viewport.New(vpWidth, height)
		o.ready = true
	} else {
		o.viewport.Width = vpWidth
		o.viewport.Height = height
	}
	o.updateContent()
}

// AppendCommand records an entered command line.
func (o *Transcript) AppendCommand(line string) {
	o.output.WriteString(commandStyle.Render("> "+line) + "\n")
	o.updateContent()
}

func (o *Transcript) Append(content string) {
	if content == "" {
		return
	}
	o.output.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		o.output.WriteString("\n")
	}
	o.updateContent()
}

func (o *Transcript) AppendError(msg string) {
	o.output.WriteString(errorStyle.Render("Error: "+msg) + "\n")
	o.updateContent()
}

func (o *Transcript) Reset() {
	o.output.Reset()
	o.updateContent()
}

// String returns the raw transcript content.
func (o *Transcript) String() string {
	return o.output.String()
}

func (o *Transcript) updateContent() {
	width := o.viewport.Width
	content := o.output.String()
	if width > 0 {
		content = outputStyle.Width(width).Render(content)
	} else {
		content = outputStyle.Render(content)
	}
	o.viewport.SetContent(content)
	o.viewport.GotoBottom()
}

func (o *Transcript) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	o.viewport, cmd = o.viewport.Update(msg)
	return cmd
}

func (o *Transcript) View() string {
	if !o.ready {
		return ""
	}

	if o.viewport.TotalLineCount() <= o.viewport.Height {
		return o.viewport.View()
	}

	h := o.viewport.Height
	percent := o.viewport.ScrollPercent()

	handlePos := int(float64(h-1) * percent)

	var sb strings.Builder
	for i := 0; i < h; i++ {
		if i == handlePos {
			sb.WriteString(scrollbarHandleStyle.Render("┃"))
		} else {
			sb.WriteString(scrollbarTrackStyle.Render("│"))
		}
		if i < h-1 {
			sb.WriteString("\n")
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, o.viewport.View(), sb.String())
}

func (o *Transcript) Height() int {
	return o.viewport.Height
}
