package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rescale/pdfmerge/internal/constants"
	"github.com/rescale/pdfmerge/internal/view"
)

// View implements tea.Model.
func (m Model) View() string {
	v := m.view
	var b strings.Builder

	// Header with count badge
	b.WriteString(StyleHeader.Render(constants.AppTitle))
	b.WriteString(" ")
	b.WriteString(StyleBadge.Render(fmt.Sprintf("%d", v.Count)))
	if m.dropDir != "" {
		state := "paused"
		if m.dropStop != nil {
			state = "watching"
		}
		b.WriteString(StyleHelp.Render(fmt.Sprintf("  drop folder: %s (%s)", m.dropDir, state)))
	}
	b.WriteString("\n\n")

	b.WriteString(StyleBorder.Render(m.renderList()))
	b.WriteString("\n")
	b.WriteString(renderButton(v.Merge))
	if v.Clear.Visible {
		b.WriteString("  ")
		b.WriteString(renderButton(v.Clear))
	}
	b.WriteString("\n\n")

	switch {
	case m.prompt != nil:
		b.WriteString(StylePrompt.Render(m.prompt.message + "  (y/n)"))
		b.WriteString("\n")
	case m.adding:
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case v.Busy.Active:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(StyleHighlight.Render(v.Busy.Label))
		b.WriteString("\n")
	case m.lastSaved != "":
		b.WriteString(StyleHelp.Render("Last merged document: " + m.lastSaved))
		b.WriteString("\n")
	}

	if toasts := m.renderToasts(); toasts != "" {
		b.WriteString("\n")
		b.WriteString(toasts)
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.mainBindings(m.dropDir != "")))
	b.WriteString("\n")

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) renderList() string {
	v := m.view
	if v.Empty {
		return lipgloss.JoinVertical(lipgloss.Left,
			StyleNormal.Render(v.EmptyTitle),
			StyleFaint.Render(v.EmptyHint),
		)
	}

	lines := make([]string, 0, len(v.Rows))
	for i, row := range v.Rows {
		name := fmt.Sprintf("%-*s", constants.MaxDisplayNameLength, row.DisplayName)
		line := fmt.Sprintf("%s  %10s", name, row.SizeLabel)
		if i == m.cursor {
			lines = append(lines, StyleHighlight.Render("> "+line))
		} else {
			lines = append(lines, StyleNormal.Render("  "+line))
		}
	}
	return strings.Join(lines, "\n")
}

func renderButton(btn view.Button) string {
	if !btn.Enabled {
		return StyleButtonDisabled.Render(btn.Label)
	}
	return StyleButton.Render(btn.Label)
}

// renderToasts stacks visible toasts oldest first. Leaving toasts are faint.
func (m Model) renderToasts() string {
	if len(m.view.Toasts) == 0 {
		return ""
	}
	lines := make([]string, 0, len(m.view.Toasts))
	for _, t := range m.view.Toasts {
		style, ok := toastStyles[t.Severity]
		if !ok {
			style = StyleNormal
		}
		if t.Leaving {
			style = StyleFaint
		}
		lines = append(lines, style.Render(toastIcons[t.Severity]+" "+t.Message))
	}
	return strings.Join(lines, "\n") + "\n"
}
