// Package tui implements the interactive settings editor started by
// 'sendpair tui'.
//
// The editor is a single Bubble Tea model with two screens:
//   - Settings: every field of the settings record, grouped by section.
//     Flags and the theme change on enter; text and numeric fields open an
//     inline bubbles/textinput editor.
//   - Devices: the registry contents in a filterable bubbles/list.
//
// The model never keeps a private copy of the settings. It shows a spinner
// until the coordinator finishes its initial load, then renders whatever
// snapshot the coordinator last published.
//
// # Usage
//
//	if err := tui.Run(ctx, coordinator, registry); err != nil {
//	    return err
//	}
package tui
