// Package ui renders sendpair's command-line output.
//
// Components follow a "render once and print" pattern: each returns a styled
// string built with Lipgloss and the caller writes it out, usually through a
// Printer. Nothing here reads settings or devices on its own.
//
//   - Header: title banner with ordered key/value parameters
//   - Result: success, failure or warning box, with troubleshooting tips
//   - RenderSettings: sectioned settings table for 'settings show'
//   - RenderDevices: registry listing for 'devices'
//   - PairingOutcome: result box for an accepted, rejected or ignored code
//
// WaitWithSpinner and Confirm are the only interactive helpers. The first runs
// a tiny Bubble Tea program while settings load; the second asks for a typed
// confirmation before destructive commands.
//
// Logging is controlled by SENDPAIR_LOG_LEVEL. When it is unset zap is
// silent, so the rendered output is all the user sees.
package ui
