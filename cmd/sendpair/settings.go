package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/sendpair/internal/settings"
	"github.com/muurk/sendpair/internal/ui"
)

// Settings command flags
var (
	showJSON bool
)

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsToggleCmd)
	rootCmd.AddCommand(settingsCmd)

	settingsShowCmd.Flags().BoolVar(&showJSON, "json", false, "Print the stored settings record as JSON")
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current settings",
	Example: `  # Styled table
  sendpair settings show

  # Stored record, for scripting
  sendpair settings show --json`,
	Args: cobra.NoArgs,
	RunE: runSettingsShow,
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := ui.WaitWithSpinner(ctx, "Loading settings...", a.settings.Ready()); err != nil {
		return err
	}

	snap := a.settings.Current()
	if showJSON {
		fmt.Fprintln(cmd.OutOrStdout(), settings.Encode(snap.Settings))
		return nil
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.Print(ui.RenderSettings(snap, a.settings.State(), p.Width()))
	return nil
}

// setter applies a textual value to one settings field.
type setter func(ctx context.Context, c *settings.Coordinator, value string) (settings.Settings, error)

// setters maps field names to setters. Names match the stored record and
// the HTTP API.
var setters = map[string]setter{
	"deviceName": func(ctx context.Context, c *settings.Coordinator, v string) (settings.Settings, error) {
		v, err := nonEmpty("deviceName", v)
		if err != nil {
			return settings.Settings{}, err
		}
		return c.SetDeviceName(ctx, v)
	},
	"downloadPath": func(ctx context.Context, c *settings.Coordinator, v string) (settings.Settings, error) {
		if err := settings.CheckWritable(v); err != nil {
			return settings.Settings{}, err
		}
		return c.SetDownloadPath(ctx, v)
	},
	"theme": func(ctx context.Context, c *settings.Coordinator, v string) (settings.Settings, error) {
		return c.SetTheme(ctx, settings.Theme(strings.TrimSpace(v)))
	},
	"locale": func(ctx context.Context, c *settings.Coordinator, v string) (settings.Settings, error) {
		v, err := nonEmpty("locale", v)
		if err != nil {
			return settings.Settings{}, err
		}
		return c.SetLocale(ctx, v)
	},
	"maxFileSizeBytes": func(ctx context.Context, c *settings.Coordinator, v string) (settings.Settings, error) {
		n, err := parseLimit(v)
		if err != nil {
			return settings.Settings{}, err
		}
		return c.SetMaxFileSize(ctx, n)
	},
	"maxUploadSpeedKBps": func(ctx context.Context, c *settings.Coordinator, v string) (settings.Settings, error) {
		n, err := parseLimit(v)
		if err != nil {
			return settings.Settings{}, err
		}
		return c.SetMaxUploadSpeed(ctx, n)
	},
}

// toggles maps boolean field names to coordinator toggles.
var toggles = map[string]func(*settings.Coordinator, context.Context) (settings.Settings, error){
	"autoAcceptFiles":    (*settings.Coordinator).ToggleAutoAccept,
	"overwriteFiles":     (*settings.Coordinator).ToggleOverwriteFiles,
	"minimizeToTray":     (*settings.Coordinator).ToggleMinimizeToTray,
	"launchAtStartup":    (*settings.Coordinator).ToggleLaunchAtStartup,
	"showInExplorerMenu": (*settings.Coordinator).ToggleExplorerMenu,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <field> <value>",
	Short: "Change a settings field",
	Long: `Change a settings field.

Fields: ` + strings.Join(sortedKeys(setters), ", ") + `

Limits accept 0 or "unlimited" to remove the limit.`,
	Example: `  sendpair settings set deviceName "Studio iMac"
  sendpair settings set downloadPath ~/Downloads/sendpair
  sendpair settings set maxUploadSpeedKBps 2048`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return sortedKeys(setters), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runSettingsSet,
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	field, value := args[0], args[1]
	set, ok := setters[field]
	if !ok {
		if _, isFlag := toggles[field]; isFlag {
			return fmt.Errorf("%s is a flag; use 'sendpair settings toggle %s'", field, field)
		}
		return fmt.Errorf("unknown field %q (valid: %s)", field, strings.Join(sortedKeys(setters), ", "))
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	updated, err := set(ctx, a.settings, value)
	if err != nil {
		return err
	}
	return printUpdated(cmd, field, updated)
}

var settingsToggleCmd = &cobra.Command{
	Use:   "toggle <flag>",
	Short: "Flip a boolean setting",
	Long: `Flip a boolean setting.

Flags: ` + strings.Join(sortedKeys(toggles), ", ") + `

launchAtStartup and showInExplorerMenu also update the desktop integration.
minimizeToTray takes effect the next time the app starts.`,
	Args: cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return sortedKeys(toggles), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runSettingsToggle,
}

func runSettingsToggle(cmd *cobra.Command, args []string) error {
	flag := args[0]
	toggle, ok := toggles[flag]
	if !ok {
		return fmt.Errorf("unknown flag %q (valid: %s)", flag, strings.Join(sortedKeys(toggles), ", "))
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	updated, err := toggle(a.settings, ctx)
	if err != nil {
		return err
	}
	return printUpdated(cmd, flag, updated)
}

func printUpdated(cmd *cobra.Command, field string, s settings.Settings) error {
	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintResult(ui.NewSuccessResult("Settings updated",
		ui.Param{Key: "Field", Value: field},
		ui.Param{Key: "Value", Value: fieldValue(field, s)},
	))
	return nil
}

// fieldValue renders the new value of field for confirmation output.
func fieldValue(field string, s settings.Settings) string {
	switch field {
	case "deviceName":
		return s.DeviceName
	case "downloadPath":
		return s.DownloadPath
	case "theme":
		return string(s.Theme)
	case "locale":
		return s.Locale
	case "maxFileSizeBytes":
		return ui.FormatBytes(s.MaxFileSizeBytes)
	case "maxUploadSpeedKBps":
		return ui.FormatSpeed(s.MaxUploadSpeedKBps)
	case "autoAcceptFiles":
		return ui.FormatBool(s.AutoAcceptFiles)
	case "overwriteFiles":
		return ui.FormatBool(s.OverwriteFiles)
	case "minimizeToTray":
		return ui.FormatBool(s.MinimizeToTray)
	case "launchAtStartup":
		return ui.FormatBool(s.LaunchAtStartup)
	case "showInExplorerMenu":
		return ui.FormatBool(s.ShowInExplorerMenu)
	}
	return ""
}

func nonEmpty(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%s must not be empty", field)
	}
	return v, nil
}

// parseLimit parses a non-negative limit. "unlimited" and "" mean 0.
func parseLimit(v string) (uint64, error) {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "unlimited") {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q: must be a whole number or \"unlimited\"", v)
	}
	return n, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
