// Package output writes flame graph artifacts for a parsed profile and
// reports what was written.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Format represents the summary format type.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatTSV   Format = "tsv"
)

// ParseFormat validates a format name from the command line.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatTSV:
		return f, nil
	default:
		return "", fmt.Errorf("unknown summary format %q (want table, json or tsv)", s)
	}
}

// Formatter renders run summaries.
type Formatter struct {
	format Format
	writer io.Writer
}

// NewFormatter creates a new formatter.
func NewFormatter(format Format, writer io.Writer) *Formatter {
	return &Formatter{
		format: format,
		writer: writer,
	}
}

// Render outputs the summaries in the configured format.
func (f *Formatter) Render(summaries []ThreadSummary) error {
	switch f.format {
	case FormatJSON:
		return f.renderJSON(summaries)
	case FormatTSV:
		return f.renderTSV(summaries)
	default:
		return f.renderTable(summaries)
	}
}

func totalSelfMs(summaries []ThreadSummary) float64 {
	var total float64
	for _, s := range summaries {
		total += s.SelfMs
	}
	return total
}

func (f *Formatter) renderJSON(summaries []ThreadSummary) error {
	output := struct {
		Threads []ThreadSummary `json:"threads"`
		TotalMs float64         `json:"total_self_ms"`
	}{
		Threads: summaries,
		TotalMs: totalSelfMs(summaries),
	}

	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func (f *Formatter) renderTable(summaries []ThreadSummary) error {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	fmt.Fprintln(f.writer, titleStyle.Render("Flame Graphs Written"))
	fmt.Fprintln(f.writer, strings.Repeat("═", 60))
	fmt.Fprintln(f.writer)

	total := totalSelfMs(summaries)
	weights := make([]float64, len(summaries))
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		share := 0.0
		if total > 0 {
			share = s.SelfMs / total
		}
		weights[i] = s.SelfMs
		rows[i] = []string{
			s.Thread,
			s.File,
			fmt.Sprintf("%d", s.Nodes),
			fmt.Sprintf("%d", s.FoldedLines),
			fmt.Sprintf("%.0f", s.SelfMs),
			fmt.Sprintf("%s %5.1f%%", ShareBar(share, 10), share*100),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dim).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("THREAD", "FILE", "FRAMES", "LINES", "SELF MS", "SHARE").
		Rows(rows...)

	fmt.Fprintln(f.writer, t)
	fmt.Fprintln(f.writer)
	fmt.Fprintf(f.writer, "%d threads, %.0f ms total %s\n",
		len(summaries), total, dim.Render(Sparkline(weights)))
	return nil
}

func (f *Formatter) renderTSV(summaries []ThreadSummary) error {
	fmt.Fprintln(f.writer, "THREAD\tFILE\tFRAMES\tLINES\tSELF_MS")

	for _, s := range summaries {
		fmt.Fprintf(f.writer, "%s\t%s\t%d\t%d\t%.3f\n",
			s.Thread, s.File, s.Nodes, s.FoldedLines, s.SelfMs)
	}
	return nil
}
