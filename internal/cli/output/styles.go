package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Code    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Prompt  lipgloss.Style
}

// NewStyles binds styles to w. Without a terminal the profile is plain
// ASCII so no escape codes are emitted.
func NewStyles(w io.Writer, isTTY bool) *Styles {
	profile := termenv.Ascii
	if isTTY {
		profile = termenv.EnvColorProfile()
	}
	lr := lipgloss.NewRenderer(w, termenv.WithProfile(profile))

	return &Styles{
		Header1: lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Underline(true),
		Header2: lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Bold:    lr.NewStyle().Bold(true),
		Muted:   lr.NewStyle().Foreground(lipgloss.Color("8")),
		Code:    lr.NewStyle().Foreground(lipgloss.Color("14")),
		Success: lr.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Warning: lr.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Error:   lr.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Prompt:  lr.NewStyle().Foreground(lipgloss.Color("13")),
	}
}
