package components

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/nick-dorsch/todo/pkg/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	tableBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// StatusColor returns the colour used for a status across the UI.
func StatusColor(s models.TaskStatus) lipgloss.Color {
	switch s {
	case models.TaskStatusComplete:
		return lipgloss.Color("42")
	case models.TaskStatusInProgress:
		return lipgloss.Color("214")
	default:
		return lipgloss.Color("252")
	}
}

// TaskTable renders tasks in the order given. today is used for the
// relative age shown next to the last update date.
func TaskTable(tasks []models.Task, today string) string {
	if len(tasks) == 0 {
		return emptyStyle.Render("No tasks.")
	}

	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			strconv.Itoa(t.ID),
			strconv.Itoa(t.Priority),
			string(t.Status),
			t.Description,
			t.Updated + " (" + Age(t.Updated, today) + ")",
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorderStyle).
		Headers("ID", "PRI", "STATUS", "DESCRIPTION", "UPDATED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 && row >= 0 && row < len(tasks) {
				return cellStyle.Foreground(StatusColor(tasks[row].Status))
			}
			return cellStyle
		})

	return tbl.String()
}

// Age describes how long ago date was relative to today, e.g. "3 days ago".
// Unparseable dates are returned unchanged.
func Age(date, today string) string {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	now, err := time.Parse(models.DateLayout, today)
	if err != nil {
		return date
	}
	if d.Equal(now) {
		return "today"
	}
	return humanize.RelTime(d, now, "ago", "from now")
}
