package domain

import "fmt"

// Theme is the display theme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case ThemeLight, ThemeDark:
		return t, nil
	}
	return "", fmt.Errorf("unknown theme %q (want %q or %q)", s, ThemeLight, ThemeDark)
}

// Settings holds user preferences. They are stored apart from the pull data and never expire.
type Settings struct {
	Theme Theme `json:"theme" yaml:"theme" binding:"required,oneof=light dark"`
}

// DefaultSettings is used whenever no settings have been saved yet.
func DefaultSettings() Settings {
	return Settings{Theme: ThemeLight}
}
