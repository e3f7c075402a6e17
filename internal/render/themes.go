package render

import (
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// TUITheme defines the color scheme for the TUI interface
type TUITheme struct {
	Name        string
	Description string

	Surface lipgloss.Color
	Border  lipgloss.Color

	Primary   lipgloss.Color // assistant name, focused input
	Secondary lipgloss.Color // user messages
	Accent    lipgloss.Color // thinking block

	// Confidence colors: Success >= 80, Warning >= 60, Error below.
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	Text     lipgloss.Color
	TextDim  lipgloss.Color
	TextMute lipgloss.Color
}

// Built-in TUI themes
var (
	// PitchTheme is the default: grass greens with chalk-white text
	PitchTheme = TUITheme{
		Name:        "pitch",
		Description: "Pitch - grass greens with chalk lines",

		Surface: lipgloss.Color("#1f3a24"),
		Border:  lipgloss.Color("#3e6b47"),

		Primary:   lipgloss.Color("#7ed957"),
		Secondary: lipgloss.Color("#f5f5f0"),
		Accent:    lipgloss.Color("#a3c9a8"),

		Success: lipgloss.Color("#22c55e"),
		Warning: lipgloss.Color("#eab308"),
		Error:   lipgloss.Color("#ef4444"),

		Text:     lipgloss.Color("#e8f0e9"),
		TextDim:  lipgloss.Color("#8aa68f"),
		TextMute: lipgloss.Color("#4d6b53"),
	}

	// FloodlightsTheme is a night-match palette with cool blues
	FloodlightsTheme = TUITheme{
		Name:        "floodlights",
		Description: "Floodlights - night match blues",

		Surface: lipgloss.Color("#1b2233"),
		Border:  lipgloss.Color("#34405c"),

		Primary:   lipgloss.Color("#60a5fa"),
		Secondary: lipgloss.Color("#c4b5fd"),
		Accent:    lipgloss.Color("#94a3b8"),

		Success: lipgloss.Color("#4ade80"),
		Warning: lipgloss.Color("#facc15"),
		Error:   lipgloss.Color("#f87171"),

		Text:     lipgloss.Color("#e2e8f0"),
		TextDim:  lipgloss.Color("#64748b"),
		TextMute: lipgloss.Color("#334155"),
	}

	// ChalkboardTheme is a low-color theme for plain terminals
	ChalkboardTheme = TUITheme{
		Name:        "chalkboard",
		Description: "Chalkboard - muted greys, coloured only where it matters",

		Surface: lipgloss.Color("236"),
		Border:  lipgloss.Color("240"),

		Primary:   lipgloss.Color("255"),
		Secondary: lipgloss.Color("250"),
		Accent:    lipgloss.Color("245"),

		Success: lipgloss.Color("2"),
		Warning: lipgloss.Color("3"),
		Error:   lipgloss.Color("1"),

		Text:     lipgloss.Color("252"),
		TextDim:  lipgloss.Color("244"),
		TextMute: lipgloss.Color("238"),
	}
)

var builtinThemes = map[string]TUITheme{
	PitchTheme.Name:       PitchTheme,
	FloodlightsTheme.Name: FloodlightsTheme,
	ChalkboardTheme.Name:  ChalkboardTheme,
}

var (
	themeMu         sync.RWMutex
	currentTUITheme = PitchTheme
)

// GetTUITheme returns the currently active TUI theme
func GetTUITheme() TUITheme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTUITheme
}

// SetTUITheme sets the active TUI theme by name
func SetTUITheme(name string) bool {
	theme, ok := GetTUIThemeByName(name)
	if !ok {
		return false
	}
	themeMu.Lock()
	currentTUITheme = theme
	themeMu.Unlock()
	return true
}

// GetTUIThemeByName returns a TUI theme by its name
func GetTUIThemeByName(name string) (TUITheme, bool) {
	theme, ok := builtinThemes[name]
	return theme, ok
}

// TUIThemeNames returns the built-in theme names, sorted
func TUIThemeNames() []string {
	names := make([]string, 0, len(builtinThemes))
	for name := range builtinThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
