package ui

import (
	"errors"

	"github.com/muurk/sendpair/internal/pairing"
)

// PairingOutcome renders the result box for a single pairing attempt.
func PairingOutcome(out pairing.Outcome) *Result {
	switch out.Status {
	case pairing.StatusAccepted:
		return NewSuccessResult("Device paired", DeviceDetails(out)...)

	case pairing.StatusRejected:
		return NewFailureResult(out.Reason(), out.Err, pairingTips(out.Err))

	default:
		r := NewWarningResult("Pairing code ignored")
		if out.Err != nil {
			r.AddDetail("Reason", out.Err.Error())
		}
		return r
	}
}

// DeviceDetails lists the identity and endpoint of an accepted device.
func DeviceDetails(out pairing.Outcome) []Param {
	d := out.Device
	if d == nil {
		return nil
	}
	details := []Param{
		{Key: "Name", Value: d.Name()},
		{Key: "ID", Value: d.ID()},
	}
	if ep := d.Endpoint(); ep != "" {
		details = append(details, Param{Key: "Endpoint", Value: ep})
	}
	if p := d.Protocol(); p != "" {
		details = append(details, Param{Key: "Protocol", Value: p})
	}
	return details
}

func pairingTips(err error) []string {
	switch {
	case pairing.IsDecodeFailure(err):
		return []string{
			"Copy the whole pairing code, including the surrounding braces",
			"Codes are JSON objects; generate one with 'sendpair pair code'",
		}
	case pairing.IsValidationFailure(err):
		var pe *pairing.Error
		if errors.As(err, &pe) && pe.Field != "" {
			return []string{"The code is missing a valid '" + pe.Field + "' field"}
		}
		return []string{"The code must carry both an id and a name"}
	case pairing.IsDeliveryFailure(err):
		return []string{
			"Check that the config directory is writable",
			"Run with SENDPAIR_LOG_LEVEL=debug for details",
		}
	}
	return nil
}
