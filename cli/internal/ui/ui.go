// Package ui renders CLI output: status lines, tables, markdown and boxed
// blocks. Everything goes to Out or Err so commands can be tested.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"
)

var (
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

var (
	primary   = lipgloss.Color("#C792EA")
	muted     = lipgloss.Color("#6C757D")
	successFg = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF88")).Bold(true)
	errorFg   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")).Bold(true)
	warningFg = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB800")).Bold(true)
	infoFg    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D9FF"))
	mutedFg   = lipgloss.NewStyle().Foreground(muted)
)

// width is the terminal width, capped for readability.
func width() int {
	if w := pterm.GetTerminalWidth(); w > 0 && w < 120 {
		return w
	}
	return 80
}

func status(w io.Writer, style lipgloss.Style, symbol, format string, args []any) {
	fmt.Fprintln(w, style.Render(symbol+" "+fmt.Sprintf(format, args...)))
}

func PrintSuccess(format string, args ...any) { status(Out, successFg, "✓", format, args) }
func PrintError(format string, args ...any)   { status(Err, errorFg, "✗", format, args) }
func PrintWarning(format string, args ...any) { status(Out, warningFg, "⚠", format, args) }
func PrintInfo(format string, args ...any)    { status(Out, infoFg, "ℹ", format, args) }

// PrintHeader prints a boxed title with a muted subtitle.
func PrintHeader(title, subtitle string) {
	body := lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.NewStyle().Foreground(primary).Bold(true).Render(title),
		mutedFg.Render(subtitle),
	)
	fmt.Fprintln(Out, lipgloss.NewStyle().
		Width(width()).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primary).
		Padding(0, 2).
		Render(body))
}

func PrintSection(title string) {
	fmt.Fprintln(Out, lipgloss.NewStyle().
		Width(width()).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(muted).
		Render(title))
}

// PrintTable renders rows under a header row.
func PrintTable(headers []string, rows [][]string) error {
	data := append(pterm.TableData{headers}, rows...)
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(Out, s)
	return nil
}

func PrintList(items []string) {
	for _, item := range items {
		fmt.Fprintf(Out, "  • %s\n", item)
	}
}

func PrintMarkdown(content string) error {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width()))
	if err != nil {
		return err
	}
	out, err := r.Render(content)
	if err != nil {
		return err
	}
	fmt.Fprint(Out, out)
	return nil
}

// PrintCodeBlock prints code in a bordered block, labelled when label is
// not empty.
func PrintCodeBlock(code, label string) {
	if label != "" {
		fmt.Fprintln(Out, mutedFg.Render(" "+label+" "))
	}
	fmt.Fprintln(Out, lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(muted).
		Padding(0, 1).
		Render(code))
}
