// Package report writes human-readable progress for a composition run.
// Output is styled when the destination is a terminal and plain otherwise.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Reporter writes styled progress lines to a writer.
type Reporter struct {
	mu sync.Mutex
	w  io.Writer

	title  lipgloss.Style
	step   lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	detail lipgloss.Style
	strong lipgloss.Style

	warnings []string
}

// New returns a Reporter writing to w. Colours follow w's capabilities and
// the NO_COLOR convention.
func New(w io.Writer) *Reporter {
	r := lipgloss.NewRenderer(w)
	return &Reporter{
		w:      w,
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		step:   r.NewStyle().Foreground(lipgloss.Color("12")),
		ok:     r.NewStyle().Foreground(lipgloss.Color("10")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("11")),
		detail: r.NewStyle().Foreground(lipgloss.Color("8")),
		strong: r.NewStyle().Bold(true),
	}
}

// Discard returns a Reporter that drops all output but still records
// warnings.
func Discard() *Reporter {
	return New(io.Discard)
}

// Title prints a bold heading surrounded by blank lines.
func (r *Reporter) Title(format string, args ...any) {
	r.println("\n" + r.title.Render(fmt.Sprintf(format, args...)) + "\n")
}

// Step announces the start of a phase.
func (r *Reporter) Step(format string, args ...any) {
	r.println(r.step.Render(fmt.Sprintf(format, args...)))
}

// Success reports a completed phase.
func (r *Reporter) Success(format string, args ...any) {
	r.println(r.ok.Render("✓ " + fmt.Sprintf(format, args...)))
}

// Item reports one completed unit inside a phase.
func (r *Reporter) Item(format string, args ...any) {
	r.println(r.detail.Render("  ✓ " + fmt.Sprintf(format, args...)))
}

// Detail prints a dim informational line.
func (r *Reporter) Detail(format string, args ...any) {
	r.println(r.detail.Render(fmt.Sprintf(format, args...)))
}

// Warn prints a warning and records it.
func (r *Reporter) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.mu.Lock()
	r.warnings = append(r.warnings, msg)
	r.mu.Unlock()
	r.println(r.warn.Render("⚠ " + msg))
}

// Strong renders s in bold for embedding in other lines.
func (r *Reporter) Strong(s string) string {
	return r.strong.Render(s)
}

// Blank prints an empty line.
func (r *Reporter) Blank() {
	r.println("")
}

// Warnings returns the warnings recorded so far.
func (r *Reporter) Warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.warnings...)
}

// Table prints aligned name/value rows, padding names to the widest one.
func (r *Reporter) Table(rows [][2]string) {
	width := 0
	for _, row := range rows {
		if len(row[0]) > width {
			width = len(row[0])
		}
	}
	for _, row := range rows {
		pad := strings.Repeat(" ", width-len(row[0]))
		r.println("  " + row[0] + pad + "  " + r.ok.Render(row[1]))
	}
}

func (r *Reporter) println(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, s)
}
