package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the colour scheme of the preview. Particles is indexed by
// material kind (fluid, jelly, snow).
type Theme struct {
	Name       string
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Accent     lipgloss.Color
	Background lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Particles  [3]lipgloss.Color
}

var (
	ThemeTaichi = Theme{
		Name:       "taichi",
		Primary:    lipgloss.Color("#eeeef0"),
		Secondary:  lipgloss.Color("#068587"),
		Accent:     lipgloss.Color("#ed553b"),
		Background: lipgloss.Color("#112f41"),
		Text:       lipgloss.Color("#eeeef0"),
		Muted:      lipgloss.Color("#5a7d8f"),
		Success:    lipgloss.Color("#4fb99f"),
		Warning:    lipgloss.Color("#f2b134"),
		Error:      lipgloss.Color("#ed553b"),
		Particles:  [3]lipgloss.Color{"#ed553b", "#068587", "#eeeef0"},
	}

	ThemeCyberpunk = Theme{
		Name:       "cyberpunk",
		Primary:    lipgloss.Color("#ff00ff"),
		Secondary:  lipgloss.Color("#00ffff"),
		Accent:     lipgloss.Color("#ffff00"),
		Background: lipgloss.Color("#0a0a0a"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#666666"),
		Success:    lipgloss.Color("#00ff00"),
		Warning:    lipgloss.Color("#ff8800"),
		Error:      lipgloss.Color("#ff0000"),
		Particles:  [3]lipgloss.Color{"#00ffff", "#ff00ff", "#ffffff"},
	}

	ThemeRetroGreen = Theme{
		Name:       "retro",
		Primary:    lipgloss.Color("#00ff00"), // green phosphor
		Secondary:  lipgloss.Color("#00cc00"),
		Accent:     lipgloss.Color("#88ff88"),
		Background: lipgloss.Color("#001100"),
		Text:       lipgloss.Color("#00ff00"),
		Muted:      lipgloss.Color("#005500"),
		Success:    lipgloss.Color("#88ff88"),
		Warning:    lipgloss.Color("#ffff00"),
		Error:      lipgloss.Color("#ff0000"),
		Particles:  [3]lipgloss.Color{"#00aa00", "#00ff00", "#ccffcc"},
	}

	ThemeMinimal = Theme{
		Name:       "minimal",
		Primary:    lipgloss.Color("#ffffff"),
		Secondary:  lipgloss.Color("#cccccc"),
		Accent:     lipgloss.Color("#0088ff"),
		Background: lipgloss.Color("#000000"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#888888"),
		Success:    lipgloss.Color("#00ff00"),
		Warning:    lipgloss.Color("#ffaa00"),
		Error:      lipgloss.Color("#ff0000"),
		Particles:  [3]lipgloss.Color{"#0088ff", "#cccccc", "#ffffff"},
	}

	CurrentTheme = ThemeTaichi

	Themes = []Theme{
		ThemeTaichi,
		ThemeCyberpunk,
		ThemeRetroGreen,
		ThemeMinimal,
	}
)

// GetTheme returns a theme by name, falling back to the default.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeTaichi
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme returns the theme after name, wrapping around.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
