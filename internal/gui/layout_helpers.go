package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/rescale/pdfmerge/internal/models"
)

// VerticalSpacer creates a fixed-height transparent spacer.
func VerticalSpacer(height float32) fyne.CanvasObject {
	spacer := canvas.NewRectangle(nil)
	spacer.SetMinSize(fyne.NewSize(0, height))
	return spacer
}

// NewPrimaryButton creates a button with white text on the primary color.
// Fyne only uses ColorNameForegroundOnPrimary for HighImportance buttons.
func NewPrimaryButton(label string, tapped func()) *widget.Button {
	btn := widget.NewButton(label, tapped)
	btn.Importance = widget.HighImportance
	return btn
}

// NewPrimaryButtonWithIcon is NewPrimaryButton with an icon.
func NewPrimaryButtonWithIcon(label string, icon fyne.Resource, tapped func()) *widget.Button {
	btn := widget.NewButtonWithIcon(label, icon, tapped)
	btn.Importance = widget.HighImportance
	return btn
}

// toastImportance maps a toast to a button importance. Leaving toasts fade.
func toastImportance(t models.Toast) widget.Importance {
	if t.Leaving {
		return widget.LowImportance
	}
	switch t.Severity {
	case models.SeveritySuccess:
		return widget.SuccessImportance
	case models.SeverityWarning:
		return widget.WarningImportance
	case models.SeverityError:
		return widget.DangerImportance
	default:
		return widget.MediumImportance
	}
}
