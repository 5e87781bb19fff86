// Package config provides the key→string store that sendpair persists its
// state in.
//
// The store is deliberately opaque: callers hand it strings under well-known
// keys (KeySettings, KeyDevices, KeyInstanceID) and get the same strings back.
// Encoding of the values is the caller's business.
//
// # Store File Location
//
// FileStore keeps every entry in one YAML document:
//   - Linux: $XDG_CONFIG_HOME/sendpair/store.yaml or $HOME/.config/sendpair/store.yaml
//   - macOS: $HOME/.config/sendpair/store.yaml
//   - Windows: %LOCALAPPDATA%\sendpair\store.yaml
//
// SENDPAIR_CONFIG_DIR overrides the directory on every platform.
//
// # Usage Example
//
//	store, err := config.NewFileStore("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := store.Save(ctx, config.KeySettings, encoded); err != nil {
//	    log.Printf("settings not persisted: %v", err)
//	}
//
// # Thread Safety
//
// FileStore and MemoryStore are safe for concurrent use. FileStore writes are
// serialized by a mutex and land on disk through a temp-file rename.
package config
