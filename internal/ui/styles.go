package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
// - Default (white/black): Primary text
// - Accent (soft purple #A78BFA): Highlights, keys, paths
// - Muted (gray): Secondary info, hints, line numbers
// - No colored success/error/warning - use unicode symbols only

const (
	accentColor = "#A78BFA"
	mutedColor  = "#6C7086"
)

var (
	// Accent style for citation keys, file paths, highlights
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(accentColor))

	// Muted style for secondary info, hints, line numbers
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color(mutedColor))

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().Bold(true)

	// AccentBold combines accent color with bold
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color(accentColor)).Bold(true)
)
