package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rescale/pdfmerge/internal/models"
)

var (
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	StyleBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	StyleHighlight = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	StyleNormal = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	StyleFaint  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	StyleHelp   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	StyleButton = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("63")).
			Padding(0, 2)

	StyleButtonDisabled = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Background(lipgloss.Color("236")).
				Padding(0, 2)

	StylePrompt = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)
)

// toastStyles colors toasts by severity.
var toastStyles = map[models.Severity]lipgloss.Style{
	models.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	models.SeveritySuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	models.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	models.SeverityError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
}

var toastIcons = map[models.Severity]string{
	models.SeverityInfo:    "i",
	models.SeveritySuccess: "✓",
	models.SeverityWarning: "!",
	models.SeverityError:   "✗",
}
