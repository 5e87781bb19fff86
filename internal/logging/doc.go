// Package logging provides structured logging for sendpair.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used across the settings coordinator, the pairing ingestor and the
// local HTTP API.
//
// # Log Levels
//
//   - Debug: settings mutations, persisted writes, adapter calls
//   - Info: pairing outcomes, discovery results, API requests
//   - Warn: non-fatal failures (persist, platform adapter, invalid codes)
//   - Error: startup failures
//
// # Structured Logging
//
//	logging.LogPairingEvent("device_added",
//	    zap.String("device_id", d.ID()),
//	    zap.String("device_name", d.Name()),
//	)
//
// # Configuration
//
// Logging is silent unless a level is passed to Initialize or set through the
// SENDPAIR_LOG_LEVEL environment variable:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Output goes to stderr so that command output on stdout stays clean.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use, including SetLogger.
package logging
