package settings

// Theme is the UI colour scheme. Values other than the three known ones are
// preserved as-is.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// Known reports whether t is one of the built-in themes.
func (t Theme) Known() bool {
	switch t {
	case ThemeSystem, ThemeLight, ThemeDark:
		return true
	}
	return false
}

// DefaultLocale is the language tag used when none is stored.
const DefaultLocale = "en"

// Settings is an immutable configuration snapshot. It is passed and stored by
// value; a mutation produces a new value that replaces the old one.
//
// All fields are scalars, so Settings is comparable with ==.
type Settings struct {
	DeviceName   string
	DownloadPath string

	AutoAcceptFiles bool
	OverwriteFiles  bool

	// MaxFileSizeBytes of 0 means unlimited.
	MaxFileSizeBytes uint64

	Theme  Theme
	Locale string

	LaunchAtStartup bool
	// MinimizeToTray is read at launch only; changing it has no live effect.
	MinimizeToTray     bool
	ShowInExplorerMenu bool

	// MaxUploadSpeedKBps of 0 means unlimited.
	MaxUploadSpeedKBps uint64
}

// Defaults returns the settings used on a fresh install or when the stored
// record cannot be decoded.
func Defaults() Settings {
	return Settings{
		Theme:          ThemeSystem,
		Locale:         DefaultLocale,
		MinimizeToTray: true,
	}
}
