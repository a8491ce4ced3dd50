package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"taskmate/internal/automation"
	"taskmate/internal/model"
)

const minColumnWidth = 24

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	priorityStyles = map[model.Priority]lipgloss.Style{
		model.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		model.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		model.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	}
)

// Render draws the board as side-by-side columns within width cells.
func Render(b Board, width int, now time.Time) string {
	colWidth := minColumnWidth
	if n := len(b.Columns); n > 0 && width/n-4 > colWidth {
		colWidth = width/n - 4
	}

	rendered := make([]string, 0, len(b.Columns))
	for _, col := range b.Columns {
		var sb strings.Builder
		sb.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", col.Title, len(col.Tasks))))
		sb.WriteByte('\n')
		if len(col.Tasks) == 0 {
			sb.WriteString(mutedStyle.Render("no tasks"))
		}
		for i, task := range col.Tasks {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(renderCard(task, now))
		}
		rendered = append(rendered, columnStyle.Width(colWidth).Render(sb.String()))
	}

	st := b.Stats
	summary := mutedStyle.Render(fmt.Sprintf("Total %d · Pending %d · Completed %d · %d%% done",
		st.Total, st.Open(), st.Completed, st.CompletionRate()))

	return lipgloss.JoinVertical(lipgloss.Left, lipgloss.JoinHorizontal(lipgloss.Top, rendered...), summary)
}

func renderCard(task model.Task, now time.Time) string {
	var sb strings.Builder

	marker := ""
	switch {
	case task.IsAutomated:
		marker = "🤖 "
	case task.IsRecurring:
		marker = "♻️ "
	}
	sb.WriteString(marker + task.Title)

	style, ok := priorityStyles[task.Priority]
	if !ok {
		style = mutedStyle
	}
	sb.WriteString("\n  " + style.Render(string(task.Priority)))

	if task.DueDate != nil {
		due := task.DueDate.In(now.Location())
		label := "due " + due.Format("2006-01-02")
		if task.Status != model.StatusCompleted && now.After(due.Add(24*time.Hour)) {
			label += " (overdue)"
		}
		sb.WriteString(" · " + label)
	}
	if task.IsRecurring {
		sb.WriteString(" · " + string(task.RecurringFrequency))
	}
	sb.WriteString("\n  " + mutedStyle.Render(shortID(task.ID)))

	return sb.String()
}

// RenderRules lists automation rules with when each is next due.
func RenderRules(rules []automation.Rule, now time.Time) string {
	if len(rules) == 0 {
		return "No automation rules active yet.\nCreate a recurring task to set up automation!"
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("🤖 Active Automation Rules"))
	sb.WriteByte('\n')
	for i, r := range rules {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, r.TitleTemplate))
		sb.WriteString(fmt.Sprintf("   Frequency: %s · Priority: %s\n", r.Frequency, r.Priority))
		sb.WriteString(fmt.Sprintf("   Last created: %s", r.LastMaterializedAt.In(now.Location()).Format("2006-01-02 15:04")))
		if next, ok := automation.NextDue(r); ok {
			if automation.IsDue(r, now) {
				sb.WriteString(" · due now")
			} else {
				sb.WriteString(" · next " + next.In(now.Location()).Format("2006-01-02 15:04"))
			}
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
