// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"todo/internal/task"
)

const (
	markDone    = "[x]"
	markPending = "[ ]"
)

// Printer renders tasks as text. Completed tasks are struck through when the
// writer is a terminal; other writers get plain text.
type Printer struct {
	w     io.Writer
	done  lipgloss.Style
	muted lipgloss.Style
}

// NewPrinter creates a printer whose color profile is detected from w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:     w,
		done:  r.NewStyle().Strikethrough(true).Faint(true),
		muted: r.NewStyle().Faint(true),
	}
}

// Task writes one task line.
// Format: "{N:>4}  [x] {TEXT}\n" (4-wide right-aligned position, two spaces, mark, text)
func (p *Printer) Task(num int, t task.Task) {
	text := normalizeText(t.Text)
	mark := markPending
	if t.Completed {
		mark = markDone
		text = p.done.Render(text)
	}
	fmt.Fprintf(p.w, "%4d  %s %s\n", num, mark, text)
}

// Tasks writes the collection in order, numbered from 1.
func (p *Printer) Tasks(tasks []task.Task) {
	for i, t := range tasks {
		p.Task(i+1, t)
	}
}

// Recent writes the recent activity feed. Positions match `todo list`.
func (p *Printer) Recent(activities []task.Activity) {
	for i, a := range activities {
		p.Task(i+1, task.Task{ID: a.ID, Text: a.Text, Completed: a.Completed})
	}
}

// Stats writes the aggregate counts.
func (p *Printer) Stats(s task.Stats) {
	fmt.Fprintf(p.w, "%-10s %d\n", "total", s.Total)
	fmt.Fprintf(p.w, "%-10s %d\n", "completed", s.Completed)
	fmt.Fprintf(p.w, "%-10s %d\n", "pending", s.Pending)
}

// Note writes a de-emphasized informational line.
func (p *Printer) Note(msg string) {
	fmt.Fprintln(p.w, p.muted.Render(msg))
}

// normalizeText flattens a task text to a single line.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	return strings.ReplaceAll(text, "\n", " ")
}
