package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/flowscript/pkg/flow"
	"github.com/matzehuels/flowscript/pkg/render"
	"github.com/matzehuels/flowscript/pkg/runner"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Stats Display
// =============================================================================

// printStats prints flow statistics on a single line. Extra parts are
// appended as given.
func printStats(nodeCount, edgeCount int, extra ...string) {
	parts := []string{
		StyleDim.Render(plural(nodeCount, "step")),
		StyleDim.Render(plural(edgeCount, "connection")),
	}
	parts = append(parts, extra...)
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

// cacheStatus renders whether a result came from the cache.
func cacheStatus(cached bool) string {
	if cached {
		return styleCached.Render(iconCached)
	}
	return styleComputed.Render(iconFresh)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// =============================================================================
// Tables
// =============================================================================

// renderFlowTable lists the steps of g in creation order with their
// outgoing connections.
func renderFlowTable(g flow.Graph) string {
	rows := make([][]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		var next []string
		for _, e := range g.Outgoing(n.ID) {
			next = append(next, e.Target)
		}
		rows = append(rows, []string{n.ID, n.Kind.String(), n.DisplayLabel(), render.Detail(n), strings.Join(next, ", ")})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Kind", "Label", "Detail", "Next").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 1 && row < len(g.Nodes) {
				return lipgloss.NewStyle().Foreground(lipgloss.Color(flow.Color(g.Nodes[row].Kind)))
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// renderKindTable lists the node catalog.
func renderKindTable() string {
	kinds := flow.Kinds()
	rows := make([][]string, len(kinds))
	for i, k := range kinds {
		rows[i] = []string{"■", k.String(), flow.DefaultLabel(k), flow.Description(k)}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Kind", "Label", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 0 && row < len(kinds) {
				return lipgloss.NewStyle().Foreground(lipgloss.Color(flow.Color(kinds[row])))
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// =============================================================================
// Run Output
// =============================================================================

var runLevelStyles = map[string]lipgloss.Style{
	runner.LevelInfo:    styleIconInfo,
	runner.LevelWarning: styleIconWarning,
	runner.LevelError:   styleIconError,
	runner.LevelSuccess: styleIconSuccess,
}

// printRunLogs prints the log lines of a script run.
func printRunLogs(w io.Writer, logs []runner.LogEntry) {
	for _, l := range logs {
		style, ok := runLevelStyles[l.Level]
		if !ok {
			style = styleIconInfo
		}
		fmt.Fprintf(w, "%s %s %s\n",
			StyleDim.Render(l.Time.Format("15:04:05")),
			style.Render(fmt.Sprintf("%-7s", l.Level)),
			l.Message)
	}
}
