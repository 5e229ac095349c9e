package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lepinkainen/naoka/internal/importer"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))
	cellStyle = lipgloss.NewStyle().
			PaddingRight(2)
	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("110"))
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("254"))
	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))
	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("247"))
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("203"))
)

// renderTable lays rows out in padded columns under a bold header.
func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); i < len(widths) && w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	line := func(cells []string, style lipgloss.Style) {
		rendered := make([]string, len(cells))
		for i, cell := range cells {
			rendered[i] = cellStyle.Width(widths[i] + 2).Render(style.Render(cell))
		}
		b.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, rendered...), " "))
		b.WriteString("\n")
	}

	line(header, headerStyle)
	for _, row := range rows {
		line(row, lipgloss.NewStyle())
	}
	return b.String()
}

// progressReporter writes a running line per record and a summary line per
// committed batch.
type progressReporter struct {
	out     io.Writer
	pending bool
}

var _ importer.Reporter = (*progressReporter)(nil)

func newProgressReporter(out io.Writer) *progressReporter {
	return &progressReporter{out: out}
}

func (p *progressReporter) Record(pr importer.Progress) {
	fmt.Fprintf(p.out, "\r%s %s %s",
		countStyle.Render(fmt.Sprintf("%6d", pr.Seen)),
		keyStyle.Render(string(pr.Key)),
		titleStyle.Render(truncate(pr.Title, 60)),
	)
	p.pending = true
}

func (p *progressReporter) Committed(c importer.Commit) {
	if p.pending {
		fmt.Fprintln(p.out)
		p.pending = false
	}
	label := "committed"
	if c.Final {
		label = "flushed"
	}
	fmt.Fprintf(p.out, "%s %s %s: %s added, %s skipped\n",
		mutedStyle.Render(label),
		c.Provider,
		c.Type,
		countStyle.Render(fmt.Sprint(c.Result.Added)),
		countStyle.Render(fmt.Sprint(c.Result.Skipped())),
	)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
