package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Theme is the name of a colour palette.
type Theme string

// Available palettes
const (
	ThemeLavender Theme = "lavender"
	ThemeRose     Theme = "rose"
	ThemeTeal     Theme = "teal"
	ThemeForest   Theme = "forest"
	ThemeOcean    Theme = "ocean"
	ThemeSunset   Theme = "sunset"
	ThemeGraphite Theme = "graphite"
	ThemeRuby     Theme = "ruby"
	ThemeMint     Theme = "mint"
	ThemeSakura   Theme = "sakura"
	ThemeCitrus   Theme = "citrus"
	ThemeIndigo   Theme = "indigo"
	ThemeCoffee   Theme = "coffee"
	ThemeSky      Theme = "sky"
	ThemeCoral    Theme = "coral"
	ThemePlum     Theme = "plum"
	ThemeCrimson  Theme = "crimson"
	ThemeJade     Theme = "jade"
	ThemeCarbon   Theme = "carbon"
	ThemeAsphalt  Theme = "asphalt"
	ThemeMono     Theme = "mono"
)

var themes = map[Theme]struct{}{
	ThemeLavender: {}, ThemeRose: {}, ThemeTeal: {}, ThemeForest: {}, ThemeOcean: {},
	ThemeSunset: {}, ThemeGraphite: {}, ThemeRuby: {}, ThemeMint: {}, ThemeSakura: {},
	ThemeCitrus: {}, ThemeIndigo: {}, ThemeCoffee: {}, ThemeSky: {}, ThemeCoral: {},
	ThemePlum: {}, ThemeCrimson: {}, ThemeJade: {}, ThemeCarbon: {}, ThemeAsphalt: {},
	ThemeMono: {},
}

// Valid reports whether t is a known palette.
func (t Theme) Valid() bool {
	_, ok := themes[t]
	return ok
}

// MaxUserNameLength bounds the display name, in runes.
const MaxUserNameLength = 40

// DefaultUserName is used until the learner picks a display name.
const DefaultUserName = "Learner"

// Settings are the user's presentation preferences.
type Settings struct {
	Theme    Theme  `json:"theme"`
	UserName string `json:"user_name"`
}

// DefaultSettings returns the settings of a new user.
func DefaultSettings() Settings {
	return Settings{Theme: ThemeLavender, UserName: DefaultUserName}
}

// Validate checks the theme and display name.
func (s Settings) Validate() error {
	if !s.Theme.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, s.Theme)
	}
	name := strings.TrimSpace(s.UserName)
	if name == "" {
		return fmt.Errorf("%w: user name is empty", ErrValidation)
	}
	if utf8.RuneCountInString(name) > MaxUserNameLength {
		return fmt.Errorf("%w: user name exceeds %d characters", ErrValidation, MaxUserNameLength)
	}
	return nil
}
