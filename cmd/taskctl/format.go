package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"taskboard/internal/board"
	"taskboard/internal/model"
)

const (
	tableCellMaxWidth = 50
	tableCellEllipsis = "..."
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	highStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// formatTable pads columns to the widest cell. Styles are applied after padding
// so escape codes never skew the widths.
func formatTable(headers []string, rows [][]string, style func(col int, cell string) string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && utf8.RuneCountInString(cell) > widths[i] {
				widths[i] = utf8.RuneCountInString(cell)
			}
		}
	}

	var b strings.Builder
	writeRow := func(row []string, styleCell func(int, string) string) {
		for i, cell := range row {
			padded := cell
			if i < len(row)-1 {
				padded += strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)+2)
			}
			if styleCell != nil {
				padded = strings.Replace(padded, cell, styleCell(i, cell), 1)
			}
			b.WriteString(padded)
		}
		b.WriteByte('\n')
	}

	writeRow(headers, func(_ int, cell string) string { return headerStyle.Render(cell) })
	for _, row := range rows {
		writeRow(row, style)
	}
	return b.String()
}

func truncateCell(value string) string {
	value = strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ").Replace(value)
	if utf8.RuneCountInString(value) <= tableCellMaxWidth {
		return value
	}
	max := tableCellMaxWidth - utf8.RuneCountInString(tableCellEllipsis)
	return string([]rune(value)[:max]) + tableCellEllipsis
}

func formatTaskTable(tasks []model.Task, now time.Time) string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			strconv.Itoa(t.ID),
			string(t.Status),
			string(t.Priority),
			t.Category,
			formatDue(t.DueDate, now),
			truncateCell(t.Title),
		})
	}
	return formatTable([]string{"ID", "STATUS", "PRI", "CATEGORY", "DUE", "TITLE"}, rows, func(col int, cell string) string {
		switch {
		case col == 1 && cell == string(model.StatusDone):
			return doneStyle.Render(cell)
		case col == 1 && cell == string(model.StatusInProgress):
			return progressStyle.Render(cell)
		case col == 2 && cell == string(model.PriorityHigh):
			return highStyle.Render(cell)
		}
		return cell
	})
}

func formatNoteTable(notes []model.Task) string {
	rows := make([][]string, 0, len(notes))
	for _, n := range notes {
		body := ""
		if n.Description != nil {
			body = truncateCell(*n.Description)
		}
		rows = append(rows, []string{strconv.Itoa(n.ID), n.Category, truncateCell(n.Title), body})
	}
	return formatTable([]string{"ID", "CATEGORY", "TITLE", "BODY"}, rows, nil)
}

// formatDue 早于 now 的日期标注 overdue
func formatDue(due *time.Time, now time.Time) string {
	if due == nil {
		return "-"
	}
	d := due.UTC().Format("2006-01-02")
	if due.Before(now) {
		return d + " (overdue)"
	}
	return d
}

func formatTaskDetail(t model.Task, now time.Time) string {
	var b strings.Builder
	field := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", headerStyle.Render(fmt.Sprintf("%-12s", label+":")), value)
	}

	kind := "task"
	if t.IsNote {
		kind = "note"
	}
	field("ID", strconv.Itoa(t.ID))
	field("Title", t.Title)
	field("Kind", kind)
	field("Status", string(t.Status))
	field("Priority", string(t.Priority))
	field("Category", t.Category)
	field("Due", formatDue(t.DueDate, now))
	field("Created", t.CreatedAt.Local().Format(time.RFC3339))
	field("Updated", t.UpdatedAt.Local().Format(time.RFC3339))
	if t.Description != nil && *t.Description != "" {
		b.WriteString("\n")
		b.WriteString(*t.Description)
		b.WriteString("\n")
	}
	return b.String()
}

func formatStats(s board.Stats) string {
	bar := strings.Repeat("#", s.Progress/5) + strings.Repeat(".", 20-s.Progress/5)
	return fmt.Sprintf("Total:       %d\nCompleted:   %d\nIn progress: %d\nRemaining:   %d\nProgress:    [%s] %d%%\n",
		s.Total, s.Completed, s.InProgress, s.Remaining, bar, s.Progress)
}
