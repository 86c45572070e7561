package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nick-dorsch/todo/pkg/models"
)

var (
	summaryHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("252")).
				Padding(0, 1)

	summaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1)
)

// Summary renders task counts per status, one bordered box per status.
type Summary struct {
	Counts map[models.TaskStatus]int
	Total  int
	Width  int
	Title  string
}

func NewSummary(counts map[models.TaskStatus]int, total int) *Summary {
	return &Summary{
		Counts: counts,
		Total:  total,
		Title:  "Summary",
	}
}

func (s *Summary) View() string {
	if s.Total == 0 {
		content := emptyStyle.Render("No tasks.")
		if s.Title != "" {
			return summaryHeaderStyle.Render(s.Title) + "\n" + content
		}
		return content
	}

	var boxes []string
	for _, st := range models.Statuses {
		boxes = append(boxes, s.renderBox(st, s.Counts[st]))
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
	title := fmt.Sprintf("%d tasks", s.Total)
	if s.Total == 1 {
		title = "1 task"
	}
	if s.Title != "" {
		title = s.Title + ": " + title
	}
	return summaryHeaderStyle.Render(title) + "\n" + content
}

func (s *Summary) renderBox(status models.TaskStatus, count int) string {
	color := StatusColor(status)
	style := summaryBoxStyle.
		Foreground(color).
		BorderForeground(color)

	if s.Width > 0 {
		// Three boxes side by side, each with border and padding.
		inner := s.Width/len(models.Statuses) - 4
		if inner < 0 {
			inner = 0
		}
		style = style.Width(inner)
	}

	label := strings.ReplaceAll(string(status), "_", " ")
	return style.Render(fmt.Sprintf("%s\n%d", label, count))
}
