package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the two spin states.
type Theme struct {
	Name string
	Up   lipgloss.Color
	Down lipgloss.Color
}

var (
	ThemeFire = Theme{Name: "fire", Up: lipgloss.Color("#ff6b35"), Down: lipgloss.Color("#1b1b3a")}
	ThemeIce  = Theme{Name: "ice", Up: lipgloss.Color("#e0f7ff"), Down: lipgloss.Color("#0077be")}
	ThemeMono = Theme{Name: "mono", Up: lipgloss.Color("#ffffff"), Down: lipgloss.Color("#444444")}
	ThemeNeon = Theme{Name: "neon", Up: lipgloss.Color("#ff00ff"), Down: lipgloss.Color("#00ffff")}

	CurrentTheme = ThemeFire

	Themes = []Theme{ThemeFire, ThemeIce, ThemeMono, ThemeNeon}
)

// GetTheme returns a theme by name, falling back to fire.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeFire
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme cycles CurrentTheme.
func NextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
}
