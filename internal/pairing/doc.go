// Package pairing turns scanned pairing codes into registered devices.
//
// A pairing code is a small JSON object shown by the other device, usually as
// a QR code:
//
//	{"id":"abc","name":"Pixel 7","address":"192.168.1.20","port":53317}
//
// id and name are required. Everything else is passed through to the Device
// as transport data or metadata.
//
// The Ingestor processes one capture at a time. A capture that fails to
// decode or validate, or that the registry refuses, is reported as rejected
// and the ingestor stays disarmed for RecoveryDelay before accepting the next
// capture. Captures arriving while disarmed are ignored:
//
//	ing, _ := pairing.New(pairing.Options{Registry: reg})
//	defer ing.Close()
//
//	out := ing.Submit(ctx, code)
//	if out.Status == pairing.StatusRejected {
//	    fmt.Println(out.Reason()) // "Invalid pairing code"
//	}
//
// Run drives an Ingestor from a CaptureSource such as LineSource.
package pairing
