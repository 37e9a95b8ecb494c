package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/rescale/pdfmerge/internal/models"
)

// StatusBar sits at the bottom of the window: a spinner with the busy label
// while an operation runs, otherwise the outcome of the last merge.
// Its methods must run on the UI goroutine.
type StatusBar struct {
	widget.BaseWidget

	icon    *widget.Icon
	label   *widget.Label
	spinner *widget.Activity
}

// NewStatusBar creates a status bar showing "Ready".
func NewStatusBar() *StatusBar {
	sb := &StatusBar{
		icon:    widget.NewIcon(theme.InfoIcon()),
		label:   widget.NewLabel("Ready"),
		spinner: widget.NewActivity(),
	}
	sb.label.TextStyle = fyne.TextStyle{Italic: true}
	sb.spinner.Hide()
	sb.ExtendBaseWidget(sb)
	return sb
}

// SetBusy shows the spinner with label.
func (sb *StatusBar) SetBusy(label string) {
	sb.icon.Hide()
	sb.spinner.Show()
	sb.spinner.Start()
	sb.label.SetText(label)
}

// SetIdle stops the spinner and shows message with an icon for severity.
func (sb *StatusBar) SetIdle(message string, severity models.Severity) {
	sb.spinner.Stop()
	sb.spinner.Hide()
	sb.icon.SetResource(severityIcon(severity))
	sb.icon.Show()
	sb.label.SetText(message)
}

// Text returns the current message.
func (sb *StatusBar) Text() string {
	return sb.label.Text
}

// CreateRenderer implements fyne.Widget
func (sb *StatusBar) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewHBox(sb.icon, sb.spinner, sb.label))
}

func severityIcon(s models.Severity) fyne.Resource {
	switch s {
	case models.SeveritySuccess:
		return theme.ConfirmIcon()
	case models.SeverityWarning:
		return theme.WarningIcon()
	case models.SeverityError:
		return theme.ErrorIcon()
	default:
		return theme.InfoIcon()
	}
}
