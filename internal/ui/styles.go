package ui

import "github.com/charmbracelet/lipgloss"

// Color palette. One accent color; everything else is grayscale.
const (
	ColorLime     = "154" // Primary accent (#AFFF00)
	ColorLimeDim  = "106" // Kind names
	ColorWhite    = "255" // Headers
	ColorGray     = "245" // Labels
	ColorDarkGray = "238" // Borders
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings
)

// Styles holds the styles used by CLI renderers.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Label   lipgloss.Style
	Kind    lipgloss.Style

	// Table styles
	Border    lipgloss.Style
	HeaderRow lipgloss.Style
	Cell      lipgloss.Style
}

// DefaultStyles returns the colored styles used on a terminal.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Kind:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLimeDim)),

		Border:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		HeaderRow: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)).Padding(0, 1),
		Cell:      lipgloss.NewStyle().Padding(0, 1),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle(),
		Success:   lipgloss.NewStyle(),
		Warning:   lipgloss.NewStyle(),
		Error:     lipgloss.NewStyle(),
		Dim:       lipgloss.NewStyle(),
		Label:     lipgloss.NewStyle(),
		Kind:      lipgloss.NewStyle(),
		Border:    lipgloss.NewStyle(),
		HeaderRow: lipgloss.NewStyle().Padding(0, 1),
		Cell:      lipgloss.NewStyle().Padding(0, 1),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
