// Package debug provides instrumentation for pastafold runs.
package debug

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	debugTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	debugHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	debugDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// StageTiming records the duration of one pipeline stage.
type StageTiming struct {
	Name     string
	Duration time.Duration
}

// Stopwatch collects stage timings in the order the stages ran.
type Stopwatch struct {
	now    func() time.Time
	stages []StageTiming
}

// NewStopwatch returns an empty stopwatch.
func NewStopwatch() *Stopwatch {
	return &Stopwatch{now: time.Now}
}

// Time runs fn as stage name and records how long it took, error or not.
func (s *Stopwatch) Time(name string, fn func() error) error {
	start := s.now()
	err := fn()
	s.stages = append(s.stages, StageTiming{
		Name:     name,
		Duration: s.now().Sub(start),
	})
	return err
}

// Stages returns the recorded timings.
func (s *Stopwatch) Stages() []StageTiming {
	return append([]StageTiming(nil), s.stages...)
}

// TimingReport prints a styled timing summary for all stages.
func TimingReport(w io.Writer, timings []StageTiming) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, debugTitle.Render("Stage Timing Report"))
	fmt.Fprintln(w, debugDim.Render(strings.Repeat("═", 40)))
	fmt.Fprintf(w, "  %s  %s\n",
		debugHeader.Render("STAGE              "),
		debugHeader.Render("DURATION    "))
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 40)))

	var total time.Duration
	for _, t := range timings {
		fmt.Fprintf(w, "  %-20s %v\n", t.Name, t.Duration)
		total += t.Duration
	}
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 40)))
	fmt.Fprintf(w, "  %-20s %v\n",
		lipgloss.NewStyle().Bold(true).Render("TOTAL"), total)
}
