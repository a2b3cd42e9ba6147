// Package styles centralizes the lipgloss styles and colors used by the
// report viewer. Colors come from a named theme; SetTheme swaps the whole
// palette and rebuilds every style.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tidewell/autopsy/internal/impact"
)

// DefaultTheme is the theme applied at startup and the fallback for
// unknown theme names.
const DefaultTheme = "default"

// palette is the set of base colors a theme provides.
type palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color
	Surface   lipgloss.Color
	Text      lipgloss.Color
	Border    lipgloss.Color
	Blue      lipgloss.Color
	Orange    lipgloss.Color
}

var themes = map[string]palette{
	// All default colors meet WCAG AA contrast (4.5:1) on both black and
	// dark surfaces.
	"default": {
		Primary:   lipgloss.Color("#A78BFA"), // Purple
		Secondary: lipgloss.Color("#10B981"), // Green
		Warning:   lipgloss.Color("#F59E0B"), // Amber
		Error:     lipgloss.Color("#F87171"), // Red
		Muted:     lipgloss.Color("#9CA3AF"), // Gray
		Surface:   lipgloss.Color("#1F2937"), // Dark surface
		Text:      lipgloss.Color("#F9FAFB"), // Light text
		Border:    lipgloss.Color("#6B7280"), // Gray
		Blue:      lipgloss.Color("#60A5FA"), // Blue
		Orange:    lipgloss.Color("#FB923C"), // Orange
	},
	"monokai": {
		Primary:   lipgloss.Color("#AE81FF"),
		Secondary: lipgloss.Color("#A6E22E"),
		Warning:   lipgloss.Color("#E6DB74"),
		Error:     lipgloss.Color("#F92672"),
		Muted:     lipgloss.Color("#75715E"),
		Surface:   lipgloss.Color("#272822"),
		Text:      lipgloss.Color("#F8F8F2"),
		Border:    lipgloss.Color("#75715E"),
		Blue:      lipgloss.Color("#66D9EF"),
		Orange:    lipgloss.Color("#FD971F"),
	},
	"dracula": {
		Primary:   lipgloss.Color("#BD93F9"),
		Secondary: lipgloss.Color("#50FA7B"),
		Warning:   lipgloss.Color("#F1FA8C"),
		Error:     lipgloss.Color("#FF5555"),
		Muted:     lipgloss.Color("#6272A4"),
		Surface:   lipgloss.Color("#282A36"),
		Text:      lipgloss.Color("#F8F8F2"),
		Border:    lipgloss.Color("#6272A4"),
		Blue:      lipgloss.Color("#8BE9FD"),
		Orange:    lipgloss.Color("#FFB86C"),
	},
	"nord": {
		Primary:   lipgloss.Color("#B48EAD"),
		Secondary: lipgloss.Color("#A3BE8C"),
		Warning:   lipgloss.Color("#EBCB8B"),
		Error:     lipgloss.Color("#BF616A"),
		Muted:     lipgloss.Color("#81A1C1"),
		Surface:   lipgloss.Color("#2E3440"),
		Text:      lipgloss.Color("#ECEFF4"),
		Border:    lipgloss.Color("#4C566A"),
		Blue:      lipgloss.Color("#88C0D0"),
		Orange:    lipgloss.Color("#D08770"),
	},
}

var (
	PrimaryColor   lipgloss.Color
	SecondaryColor lipgloss.Color
	WarningColor   lipgloss.Color
	ErrorColor     lipgloss.Color
	MutedColor     lipgloss.Color
	SurfaceColor   lipgloss.Color
	TextColor      lipgloss.Color
	BorderColor    lipgloss.Color
	BlueColor      lipgloss.Color
	OrangeColor    lipgloss.Color

	// Severity colors, one per impact level
	SeverityCritical lipgloss.Color
	SeverityHigh     lipgloss.Color
	SeverityMedium   lipgloss.Color
	SeverityLow      lipgloss.Color
	SeverityNone     lipgloss.Color

	Title     lipgloss.Style
	Header    lipgloss.Style
	StatusBar lipgloss.Style
	HelpBar   lipgloss.Style
	HelpKey   lipgloss.Style
	ErrorMsg  lipgloss.Style
	Muted     lipgloss.Style
)

func init() {
	SetTheme(DefaultTheme)
}

// SetTheme applies a named theme to the package's colors and styles. An
// unknown name applies DefaultTheme and returns false.
func SetTheme(name string) bool {
	p, ok := themes[name]
	if !ok {
		p = themes[DefaultTheme]
	}
	apply(p)
	return ok
}

func apply(p palette) {
	PrimaryColor = p.Primary
	SecondaryColor = p.Secondary
	WarningColor = p.Warning
	ErrorColor = p.Error
	MutedColor = p.Muted
	SurfaceColor = p.Surface
	TextColor = p.Text
	BorderColor = p.Border
	BlueColor = p.Blue
	OrangeColor = p.Orange

	SeverityCritical = ErrorColor
	SeverityHigh = OrangeColor
	SeverityMedium = WarningColor
	SeverityLow = BlueColor
	SeverityNone = MutedColor

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		MarginBottom(1)

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(BorderColor)

	StatusBar = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Padding(0, 1)

	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor).
		MarginTop(1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	ErrorMsg = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)

	Muted = lipgloss.NewStyle().Foreground(MutedColor)
}

// SeverityColor returns the color for an impact level.
func SeverityColor(level impact.Level) lipgloss.Color {
	switch level {
	case impact.LevelCritical:
		return SeverityCritical
	case impact.LevelHigh:
		return SeverityHigh
	case impact.LevelMedium:
		return SeverityMedium
	case impact.LevelLow:
		return SeverityLow
	default:
		return SeverityNone
	}
}

// SeverityStyle returns a bold foreground style for an impact level.
func SeverityStyle(level impact.Level) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(SeverityColor(level))
}
