package pairing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/muurk/sendpair/internal/device"
)

// Payload field names. Only FieldID and FieldName are required.
const (
	FieldID       = "id"
	FieldName     = "name"
	FieldAddress  = "address"
	FieldPort     = "port"
	FieldProtocol = "protocol"
)

// maxPayloadSize bounds the raw payload accepted by DecodePayload.
const maxPayloadSize = 4096

// DecodePayload parses a raw pairing code into a flat key/value map. The code
// must be exactly one JSON object.
func DecodePayload(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, decodeError(errors.New("payload is empty"))
	}
	if len(raw) > maxPayloadSize {
		return nil, decodeError(fmt.Errorf("payload exceeds %d bytes", maxPayloadSize))
	}
	if raw[0] != '{' {
		return nil, decodeError(errors.New("payload is not an object"))
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, decodeError(err)
	}
	if dec.More() {
		return nil, decodeError(errors.New("unexpected data after payload"))
	}
	if fields == nil {
		return nil, decodeError(errors.New("payload is not an object"))
	}
	return fields, nil
}

// DeviceFromFields validates decoded payload fields and builds the Device.
// id and name must be non-empty strings. address, port and protocol become
// transport fields; every other scalar field is carried as metadata.
func DeviceFromFields(fields map[string]any) (*device.Device, error) {
	id, err := requiredString(fields, FieldID)
	if err != nil {
		return nil, err
	}
	name, err := requiredString(fields, FieldName)
	if err != nil {
		return nil, err
	}

	var opts []device.Option
	metadata := make(map[string]string)

	for key, value := range fields {
		switch key {
		case FieldID, FieldName:
			continue
		case FieldAddress:
			if s, ok := value.(string); ok {
				opts = append(opts, device.WithAddress(strings.TrimSpace(s)))
				continue
			}
		case FieldPort:
			if port, ok := toPort(value); ok {
				opts = append(opts, device.WithPort(port))
				continue
			}
		case FieldProtocol:
			if s, ok := value.(string); ok {
				opts = append(opts, device.WithProtocol(strings.ToLower(strings.TrimSpace(s))))
				continue
			}
		}

		if s, ok := scalarString(value); ok {
			metadata[key] = s
		}
	}
	opts = append(opts, device.WithMetadata(metadata))

	d, err := device.New(id, name, opts...)
	if err != nil {
		return nil, validationError("", err)
	}
	return d, nil
}

// Parse decodes and validates a raw pairing code.
func Parse(raw string) (*device.Device, error) {
	fields, err := DecodePayload(raw)
	if err != nil {
		return nil, err
	}
	return DeviceFromFields(fields)
}

// EncodePayload returns the pairing code that identifies d to other devices.
// Metadata keys are emitted after the transport fields, in key order.
func EncodePayload(d *device.Device) string {
	var buf bytes.Buffer
	buf.WriteByte('{')

	write := func(key string, value any) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		v, _ := json.Marshal(value)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}

	write(FieldID, d.ID())
	write(FieldName, d.Name())
	if d.Address() != "" {
		write(FieldAddress, d.Address())
	}
	if d.Port() != 0 {
		write(FieldPort, d.Port())
	}
	if d.Protocol() != "" {
		write(FieldProtocol, d.Protocol())
	}

	md := d.Metadata()
	keys := make([]string, 0, len(md))
	for k := range md {
		switch k {
		case FieldID, FieldName, FieldAddress, FieldPort, FieldProtocol:
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		write(k, md[k])
	}

	buf.WriteByte('}')
	return buf.String()
}

func requiredString(fields map[string]any, key string) (string, error) {
	value, ok := fields[key]
	if !ok || value == nil {
		return "", validationError(key, fmt.Errorf("%w: %s", device.ErrMissingField, key))
	}
	s, ok := value.(string)
	if !ok {
		return "", validationError(key, fmt.Errorf("%s must be a string", key))
	}
	if strings.TrimSpace(s) == "" {
		return "", validationError(key, fmt.Errorf("%w: %s", device.ErrMissingField, key))
	}
	return s, nil
}

func toPort(value any) (int, bool) {
	var (
		n   int64
		err error
	)
	switch v := value.(type) {
	case json.Number:
		n, err = v.Int64()
	case string:
		n, err = strconv.ParseInt(strings.TrimSpace(v), 10, 32)
	default:
		return 0, false
	}
	if err != nil || n < 1 || n > 65535 {
		return 0, false
	}
	return int(n), true
}

func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}
