package styles

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Theme represents a color scheme for the application
type Theme struct {
	Name string

	// Base colors
	Background    lipgloss.Color
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	// Accent colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// Semantic colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// UI element colors
	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color
	Cursor      lipgloss.Color
}

// TokyoNight is the default color theme
var TokyoNight = Theme{
	Name: "Tokyo Night",

	Background:    lipgloss.Color("#1a1b26"),
	Foreground:    lipgloss.Color("#c0caf5"),
	ForegroundDim: lipgloss.Color("#565f89"),

	Primary:   lipgloss.Color("#7aa2f7"),
	Secondary: lipgloss.Color("#bb9af7"),
	Accent:    lipgloss.Color("#7dcfff"),

	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
	Info:    lipgloss.Color("#7aa2f7"),

	Border:      lipgloss.Color("#3b4261"),
	BorderFocus: lipgloss.Color("#7aa2f7"),
	Selection:   lipgloss.Color("#33467c"),
	Cursor:      lipgloss.Color("#c0caf5"),
}

// Current holds the active theme
var Current = TokyoNight

// MaxWidth caps the content width. The task table has nine columns, so it
// is wider than a classic terminal.
const MaxWidth = 132

// ContentWidth returns the actual content width to use (min of terminal width and MaxWidth)
func ContentWidth(terminalWidth int) int {
	if terminalWidth > MaxWidth {
		return MaxWidth
	}
	return terminalWidth
}

// CenterView wraps content and centers it horizontally if terminal is wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// Styles holds all the pre-computed styles for the UI
type Styles struct {
	// Title bar
	Title      lipgloss.Style
	TitleMuted lipgloss.Style

	// Toolbar and filter chips
	Toolbar    lipgloss.Style
	Chip       lipgloss.Style
	ChipActive lipgloss.Style

	// Buttons
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonPrimary lipgloss.Style
	ButtonDanger  lipgloss.Style

	// List region
	Skeleton   lipgloss.Style
	ErrorPanel lipgloss.Style
	Empty      lipgloss.Style
	Pager      lipgloss.Style

	// Cell values
	Yes     lipgloss.Style
	No      lipgloss.Style
	Flagged lipgloss.Style

	// Notifications
	NoticeOK    lipgloss.Style
	NoticeError lipgloss.Style

	// Detail view
	Label lipgloss.Style
	Value lipgloss.Style
	Panel lipgloss.Style

	// Input fields
	Input        lipgloss.Style
	InputFocused lipgloss.Style

	// Help text
	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style
}

// NewStyles creates styles based on the current theme
func NewStyles() *Styles {
	t := Current

	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		TitleMuted: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		Toolbar: lipgloss.NewStyle().
			Padding(0, 1),

		Chip: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		ChipActive: lipgloss.NewStyle().
			Foreground(t.Accent).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Accent).
			Padding(0, 1).
			Bold(true),

		Button: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 2),

		ButtonFocused: lipgloss.NewStyle().
			Foreground(t.Primary).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 2).
			Bold(true),

		ButtonPrimary: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Primary).
			Padding(0, 2).
			Bold(true),

		ButtonDanger: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Error).
			Padding(0, 2).
			Bold(true),

		Skeleton: lipgloss.NewStyle().
			Foreground(t.Border),

		ErrorPanel: lipgloss.NewStyle().
			Foreground(t.Error).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Error).
			Padding(1, 2),

		Empty: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(1, 2),

		Pager: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),

		Yes: lipgloss.NewStyle().
			Foreground(t.Success),

		No: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		Flagged: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true),

		NoticeOK: lipgloss.NewStyle().
			Foreground(t.Success).
			Padding(0, 1),

		NoticeError: lipgloss.NewStyle().
			Foreground(t.Error).
			Padding(0, 1).
			Bold(true),

		Label: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Width(14),

		Value: lipgloss.NewStyle().
			Foreground(t.Foreground),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(1, 2),

		Input: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		InputFocused: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(1, 2),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),
	}
}

// TableStyles returns bubbles table styles matching the current theme
func TableStyles() table.Styles {
	t := Current
	s := table.DefaultStyles()
	s.Header = s.Header.
		Foreground(t.Primary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		BorderBottom(true).
		Bold(true)
	s.Cell = s.Cell.Foreground(t.Foreground)
	s.Selected = s.Selected.
		Foreground(t.Primary).
		Background(t.Selection).
		Bold(true)
	return s
}
