package cli

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jrsteele09/go-tareas-client/dashboard"
	"github.com/jrsteele09/go-tareas-client/tasks"
)

const (
	primaryColor = "#9D833E"
	successColor = "#10B981"
	warningColor = "#F59E0B"
	errorColor   = "#EF4444"
	dimColor     = "#6B7280"

	columnWidth = 28
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(primaryColor)).Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(dimColor))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(successColor))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(warningColor))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(errorColor))

	priorityColors = map[string]string{
		string(tasks.PriorityHigh):   errorColor,
		string(tasks.PriorityMedium): warningColor,
		string(tasks.PriorityLow):    successColor,
	}
)

// renderTable lays rows out in columns sized to their widest cell.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := range widths {
			if i < len(row) && lipgloss.Width(row[i]) > widths[i] {
				widths[i] = lipgloss.Width(row[i])
			}
		}
	}

	var b strings.Builder
	line := func(cells []string, style lipgloss.Style) {
		parts := make([]string, len(widths))
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = style.Width(w).Render(cell)
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, "  "), " "))
		b.WriteByte('\n')
	}
	line(headers, headerStyle)
	for _, row := range rows {
		line(row, lipgloss.NewStyle())
	}
	return b.String()
}

func colorSwatch(hex string) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(hex)).
		Width(columnWidth).
		Padding(0, 1)
}

// renderBoard draws one bordered box per state, side by side.
func renderBoard(cols []dashboard.Column) string {
	boxes := make([]string, 0, len(cols))
	for _, col := range cols {
		var b strings.Builder
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(col.State.Color)).Bold(true).Render(col.State.Name))
		b.WriteString(dimStyle.Render(" (" + strconv.Itoa(len(col.Tasks)) + ")"))
		for _, t := range col.Tasks {
			b.WriteString("\n")
			b.WriteString(renderCard(t))
		}
		boxes = append(boxes, colorSwatch(col.State.Color).Render(b.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func renderCard(t tasks.Task) string {
	prio := lipgloss.NewStyle().Foreground(lipgloss.Color(priorityColors[t.Priority])).Render("● " + t.Priority)
	title := truncate(t.Title, columnWidth-2)
	return "\n" + title + "\n" + prio + "\n" + dimStyle.Render(t.ID)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
