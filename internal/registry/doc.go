// Package registry keeps the list of known peer devices.
//
// Devices arrive from two places: explicit pairing (a scanned or pasted
// pairing code, see package pairing) and LAN discovery (package discovery).
// Both are upserts keyed by device id. The whole registry is written back to
// the config store as YAML after every change:
//
//	version: 1
//	devices:
//	    - id: abc
//	      name: Pixel 7
//	      source: manual
//	      added_at: 2024-05-01T10:00:00Z
//	      last_seen: 2024-05-01T10:00:00Z
//
// A failed save leaves the in-memory registry unchanged and returns the error.
package registry
