package viz

import "github.com/charmbracelet/lipgloss"

// Theme colours a shaded slice. Cells ramp from Background through Low to
// High as the channel value rises.
type Theme struct {
	Name       string
	Background lipgloss.Color
	Low        lipgloss.Color
	High       lipgloss.Color
	Obstacle   lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
}

var (
	ThemeSmoke = Theme{
		Name:       "smoke",
		Background: lipgloss.Color("#0a0a0a"),
		Low:        lipgloss.Color("#3a3a44"),
		High:       lipgloss.Color("#f0f0f0"),
		Obstacle:   lipgloss.Color("#0077be"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#666666"),
	}

	ThemeFire = Theme{
		Name:       "fire",
		Background: lipgloss.Color("#120400"),
		Low:        lipgloss.Color("#8b1a00"),
		High:       lipgloss.Color("#ffd27f"),
		Obstacle:   lipgloss.Color("#4488aa"),
		Text:       lipgloss.Color("#fff5f5"),
		Muted:      lipgloss.Color("#8b6b6b"),
	}

	ThemeOcean = Theme{
		Name:       "ocean",
		Background: lipgloss.Color("#001a33"),
		Low:        lipgloss.Color("#0077be"),
		High:       lipgloss.Color("#e0f0ff"),
		Obstacle:   lipgloss.Color("#ffd700"),
		Text:       lipgloss.Color("#e0f0ff"),
		Muted:      lipgloss.Color("#4488aa"),
	}

	CurrentTheme = ThemeSmoke

	Themes = []Theme{
		ThemeSmoke,
		ThemeFire,
		ThemeOcean,
	}
)

// GetTheme returns a theme by name, falling back to smoke.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeSmoke
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return
		}
	}
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
