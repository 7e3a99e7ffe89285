package console

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Colors meet WCAG AA contrast on dark backgrounds.
var (
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	BlueColor      = lipgloss.Color("#60A5FA")
	BorderColor    = lipgloss.Color("#6B7280")
)

// Styles holds every style the printer uses, bound to one renderer.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	SpeakerA lipgloss.Style
	SpeakerB lipgloss.Style
	Summary  lipgloss.Style
	Thought  lipgloss.Style
	Option   lipgloss.Style
	Chosen   lipgloss.Style
	Rule     lipgloss.Style
	Heading  lipgloss.Style
	Error    lipgloss.Style
}

// NewStyles builds styles for output written to w. With color false every
// style renders plain text.
func NewStyles(w io.Writer, color bool) Styles {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}

	return Styles{
		Title: r.NewStyle().
			Bold(true).
			Foreground(PrimaryColor),
		Subtitle: r.NewStyle().
			Foreground(MutedColor).
			Italic(true),
		SpeakerA: r.NewStyle().
			Bold(true).
			Foreground(BlueColor),
		SpeakerB: r.NewStyle().
			Bold(true).
			Foreground(WarningColor),
		Summary: r.NewStyle().
			Foreground(SecondaryColor),
		Thought: r.NewStyle().
			Foreground(MutedColor).
			Italic(true),
		Option: r.NewStyle().
			Foreground(MutedColor),
		Chosen: r.NewStyle().
			Bold(true).
			Foreground(SecondaryColor),
		Rule: r.NewStyle().
			Foreground(BorderColor),
		Heading: r.NewStyle().
			Bold(true).
			Underline(true).
			Foreground(PrimaryColor),
		Error: r.NewStyle().
			Bold(true).
			Foreground(ErrorColor),
	}
}
