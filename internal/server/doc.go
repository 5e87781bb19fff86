// Package server implements the local sendpair HTTP API.
//
// The API lets a companion UI (or curl) read and change settings, pair a
// device from a pasted code and list known devices. It binds to loopback by
// default.
//
// # Routes
//
//	GET  /api/v1/settings                 current snapshot
//	PUT  /api/v1/settings/{field}         {"value": ...}
//	POST /api/v1/settings/{flag}/toggle   flip a boolean setting
//	GET  /api/v1/settings/watch           websocket stream of snapshots
//	POST /api/v1/pair                     raw pairing code as the body
//	GET  /api/v1/devices                  registered devices
//
// Settings bodies use the same field names as the stored settings record.
// GET /api/v1/settings and the watch stream carry the snapshot version;
// PUT and toggle responses carry only the resulting settings.
//
// POST /api/v1/pair answers 200 when the device was registered, 422 when the
// code was rejected and 409 when it was ignored because another pairing is in
// flight or the ingestor is still recovering from a failure.
//
// # TLS Configuration
//
// Plain HTTP is served unless both a certificate and key file are given, in
// which case TLS 1.2+ is required.
package server
