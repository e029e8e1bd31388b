package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/reperto/reperto-cli/format"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252"))

	avatarStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("96")).
			Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// tagStyles maps the formatter's severity tags to colors, mirroring the
// risk badge palette of the list views.
var tagStyles = map[format.Tag]lipgloss.Style{
	format.TagDanger:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
	format.TagWarning:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	format.TagSuccess:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78")),
	format.TagSecondary: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

// renderRisk renders a risk level with its severity color. Empty levels
// render as a dim placeholder.
func renderRisk(level string) string {
	if level == "" {
		return dimStyle.Render("-")
	}
	return tagStyles[format.RiskTag(level)].Render(level)
}
