package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Report is the outcome of one validation run.
// Errors fail the run; warnings are always surfaced but never change the exit status.
type Report struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func New() *Report {
	return &Report{Errors: []string{}, Warnings: []string{}}
}

func (r *Report) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

func (r *Report) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func (r *Report) HasErrors() bool {
	return len(r.Errors) > 0
}

// ExitCode is 1 when any error was found, 0 otherwise
func (r *Report) ExitCode() int {
	if r.HasErrors() {
		return 1
	}
	return 0
}

// Options controls how a report is rendered
type Options struct {
	Format string // FormatText (default) or FormatJSON
	Color  bool   // Style section headers; only meaningful for terminals
	Width  int    // Wrap findings to this many columns; 0 disables wrapping
}

var (
	errorHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")). // red
				Bold(true)

	warningHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")). // yellow
				Bold(true)
)

// Render writes the report to w
func (r *Report) Render(w io.Writer, opts Options) error {
	switch opts.Format {
	case "", FormatText:
		_, err := io.WriteString(w, r.text(opts))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r.normalized())
	default:
		return fmt.Errorf("unknown report format: %s", opts.Format)
	}
}

// String renders the plain text form
func (r *Report) String() string {
	return r.text(Options{})
}

func (r *Report) text(opts Options) string {
	var b strings.Builder
	writeSection(&b, "Errors:", r.Errors, errorHeaderStyle, opts)
	writeSection(&b, "Warnings:", r.Warnings, warningHeaderStyle, opts)
	return b.String()
}

func writeSection(b *strings.Builder, header string, lines []string, style lipgloss.Style, opts Options) {
	if len(lines) == 0 {
		return
	}
	if opts.Color {
		header = style.Render(header)
	}
	b.WriteString(header)
	b.WriteString("\n")
	for _, line := range lines {
		b.WriteString(bullet(line, opts.Width))
		b.WriteString("\n")
	}
}

// bullet formats one finding, wrapping with a hanging indent when width is set
func bullet(msg string, width int) string {
	if width <= 2 {
		return "- " + msg
	}
	wrapped := strings.Split(wordwrap.String(msg, width-2), "\n")
	for i := range wrapped {
		if i == 0 {
			wrapped[i] = "- " + wrapped[i]
		} else {
			wrapped[i] = "  " + wrapped[i]
		}
	}
	return strings.Join(wrapped, "\n")
}

func (r *Report) normalized() *Report {
	out := &Report{Errors: r.Errors, Warnings: r.Warnings}
	if out.Errors == nil {
		out.Errors = []string{}
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	return out
}
