package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

var (
	accentColor  = color.NRGBA{R: 0x66, G: 0x7E, B: 0xEA, A: 0xFF}
	dropHover    = color.NRGBA{R: 0x66, G: 0x7E, B: 0xEA, A: 0x33}
	dropIdleLite = color.NRGBA{R: 0xF3, G: 0xF5, B: 0xFF, A: 0xFF}
)

// Drop zone outline and rounding, also used for inputs.
const (
	dropBorder = 2
	dropRadius = 8
)

// mergeTheme tints the stock theme with the accent color. Fonts and icons
// come from the embedded default.
type mergeTheme struct {
	fyne.Theme
}

func newMergeTheme() *mergeTheme {
	return &mergeTheme{Theme: theme.DefaultTheme()}
}

func (t *mergeTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameFocus:
		return accentColor
	case theme.ColorNameHover:
		// drop zone highlight while files land
		return dropHover
	case theme.ColorNameInputBackground:
		if variant == theme.VariantLight {
			return dropIdleLite
		}
	case theme.ColorNameSuccess:
		return color.NRGBA{R: 0x4C, G: 0xAF, B: 0x50, A: 0xFF}
	case theme.ColorNameError:
		return color.NRGBA{R: 0xF4, G: 0x43, B: 0x36, A: 0xFF}
	}
	return t.Theme.Color(name, variant)
}

func (t *mergeTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameInputBorder:
		return dropBorder
	case theme.SizeNameInputRadius:
		return dropRadius
	case theme.SizeNameHeadingText:
		return 20
	}
	return t.Theme.Size(name)
}
