package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"gopkg.in/yaml.v3"

	"todo/internal/task"
)

// Export formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatPDF  = "pdf"
)

// Record is the exported shape of a task.
type Record struct {
	ID        string `json:"id" yaml:"id"`
	Text      string `json:"text" yaml:"text"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// StatsRecord is the exported shape of the aggregate counts.
type StatsRecord struct {
	Total     int `json:"total" yaml:"total"`
	Completed int `json:"completed" yaml:"completed"`
	Pending   int `json:"pending" yaml:"pending"`
}

// Report is a full export: every task plus the counts.
type Report struct {
	Key   string      `json:"key" yaml:"key"`
	Stats StatsRecord `json:"stats" yaml:"stats"`
	Tasks []Record    `json:"tasks" yaml:"tasks"`
}

// Records converts tasks for export. Never returns nil, so an empty
// collection encodes as [] rather than null.
func Records(tasks []task.Task) []Record {
	out := make([]Record, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, Record{ID: t.ID, Text: t.Text, Completed: t.Completed})
	}
	return out
}

// NewReport builds a report for the collection stored under key.
func NewReport(key string, tasks []task.Task, stats task.Stats) Report {
	return Report{
		Key:   key,
		Stats: StatsRecord{Total: stats.Total, Completed: stats.Completed, Pending: stats.Pending},
		Tasks: Records(tasks),
	}
}

// ParseFormat validates a --format value against the allowed set.
func ParseFormat(s string, allowed ...string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(s))
	for _, a := range allowed {
		if f == a {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format: %s (want %s)", s, strings.Join(allowed, "|"))
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML writes v as YAML.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// WritePDF renders the report as a single-column A4 document.
func WritePDF(w io.Writer, r Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle("Tasks", true)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Tasks")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	summary := fmt.Sprintf("%d total, %d completed, %d pending", r.Stats.Total, r.Stats.Completed, r.Stats.Pending)
	pdf.MultiCell(0, 6, summary, "0", "L", false)
	pdf.Ln(4)

	for i, rec := range r.Tasks {
		mark := markPending
		if rec.Completed {
			mark = markDone
		}
		line := fmt.Sprintf("%d. %s %s", i+1, mark, normalizeText(rec.Text))
		pdf.MultiCell(0, 6, tr(line), "0", "L", false)
	}

	return pdf.Output(w)
}

// Write encodes the report in the given export format.
func Write(w io.Writer, format string, r Report) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	case FormatPDF:
		return WritePDF(w, r)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
