package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/flowscript/pkg/library"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ScriptListModel - Interactive library selection
// =============================================================================

// Library browser actions.
const (
	actionShow = "show"
	actionOpen = "open"
	actionRun  = "run"
)

// ScriptSelection holds the result of the script selection.
type ScriptSelection struct {
	Name   string
	Action string
}

// ScriptListModel is the bubbletea model for browsing the script library.
type ScriptListModel struct {
	Scripts  []library.Summary
	Cursor   int
	Selected *ScriptSelection
	Height   int
	Offset   int
	Now      func() time.Time
}

// NewScriptListModel creates a new script list model.
func NewScriptListModel(scripts []library.Summary) ScriptListModel {
	return ScriptListModel{
		Scripts: scripts,
		Height:  15,
		Now:     time.Now,
	}
}

func (m ScriptListModel) Init() tea.Cmd {
	return nil
}

func (m ScriptListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Scripts)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			return m.choose(actionShow)
		case "o":
			return m.choose(actionOpen)
		case "r":
			return m.choose(actionRun)
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ScriptListModel) choose(action string) (tea.Model, tea.Cmd) {
	if len(m.Scripts) == 0 {
		return m, nil
	}
	m.Selected = &ScriptSelection{Name: m.Scripts[m.Cursor].Name, Action: action}
	return m, tea.Quit
}

func (m ScriptListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Script Library"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ show  o open  r run  q quit"))
	b.WriteString("\n\n")

	if len(m.Scripts) == 0 {
		b.WriteString(listDimStyle.Render("  No saved scripts"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Scripts))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		s := m.Scripts[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, s.Name, fmt.Sprintf("%d", s.Nodes), formatRelativeTime(s.SavedAt, m.Now())})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Script", "Steps", "Saved").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col >= 2 {
				return listDimStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Scripts))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
