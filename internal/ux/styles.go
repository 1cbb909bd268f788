package ux

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles is the palette used by text output
type Styles struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
	Code    lipgloss.Style
}

// NewStyles returns the default palette, or plain styles when noColor is set
func NewStyles(noColor bool) Styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return Styles{
			Title:   plain,
			Success: plain,
			Error:   plain,
			Warning: plain,
			Muted:   plain,
			Code:    plain,
		}
	}
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Code:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}
}
