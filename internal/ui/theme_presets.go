package ui

import "github.com/sahilm/fuzzy"

// ThemePreset is a named palette selectable with theme.preset.
type ThemePreset struct {
	Name        string
	Description string
	Config      ThemeConfig
}

// PresetThemeNames defines the display order of themes
var PresetThemeNames = []string{
	"gruvbox",
	"dracula",
	"nord",
	"solarized",
	"classic",
}

// PresetThemes contains all predefined themes
var PresetThemes = map[string]ThemePreset{
	"classic": {
		Name:        "classic",
		Description: "Plain ANSI colors for 16-color terminals",
		Config: ThemeConfig{
			Primary:   "10", // bright green
			Secondary: "4",  // blue
			Success:   "6",  // cyan
			Error:     "9",  // bright red
			Warning:   "11", // yellow
			Muted:     "8",  // grey
			Text:      "15", // white
		},
	},
	"dracula": {
		Name:        "dracula",
		Description: "Dark theme with purple accents",
		Config: ThemeConfig{
			Primary:   "#bd93f9", // purple
			Secondary: "#6272a4", // comment
			Success:   "#50fa7b",
			Error:     "#ff5555",
			Warning:   "#f1fa8c",
			Muted:     "#6272a4",
			Text:      "#f8f8f2",
		},
	},
	"nord": {
		Name:        "nord",
		Description: "Arctic, north-bluish palette",
		Config: ThemeConfig{
			Primary:   "#88c0d0", // frost cyan
			Secondary: "#4c566a", // polar night
			Success:   "#a3be8c",
			Error:     "#bf616a",
			Warning:   "#ebcb8b",
			Muted:     "#4c566a",
			Text:      "#eceff4",
		},
	},
	"solarized": {
		Name:        "solarized",
		Description: "Low contrast palette for light or dark terminals",
		Config: ThemeConfig{
			Primary:   "#268bd2", // blue
			Secondary: "#586e75", // base01
			Success:   "#2aa198",
			Error:     "#dc322f",
			Warning:   "#b58900",
			Muted:     "#586e75",
			Text:      "#839496",
		},
	},
	"gruvbox": {
		Name:        "gruvbox",
		Description: "Retro groove color scheme (default)",
	},
}

// GetPresetTheme returns a preset by name, or nil if not found
func GetPresetTheme(name string) *ThemePreset {
	if preset, ok := PresetThemes[name]; ok {
		return &preset
	}
	return nil
}

// SuggestPreset returns the preset name closest to name, or "" when
// nothing is close.
func SuggestPreset(name string) string {
	matches := fuzzy.Find(name, PresetThemeNames)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}

// withPreset fills the colors cfg leaves empty from its named preset.
func withPreset(cfg ThemeConfig) ThemeConfig {
	preset := GetPresetTheme(cfg.Preset)
	if preset == nil {
		return cfg
	}
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&cfg.Primary, preset.Config.Primary)
	fill(&cfg.Secondary, preset.Config.Secondary)
	fill(&cfg.Success, preset.Config.Success)
	fill(&cfg.Error, preset.Config.Error)
	fill(&cfg.Warning, preset.Config.Warning)
	fill(&cfg.Muted, preset.Config.Muted)
	fill(&cfg.Text, preset.Config.Text)
	return cfg
}
