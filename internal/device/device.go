// Package device defines the paired-peer record shared by pairing, discovery
// and the device registry.
package device

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingField is returned by New when a required identity field is empty.
var ErrMissingField = errors.New("missing required field")

// Protocol values advertised by peers.
const (
	ProtocolHTTP  = "http"
	ProtocolHTTPS = "https"
)

// Device represents a paired peer.
//
// A Device can only be obtained from New, which requires both an id and a
// name; there is no partially-valid Device. Transport metadata (address,
// port, protocol, anything else the peer advertised) is carried opaquely.
type Device struct {
	id       string
	name     string
	address  string
	port     int
	protocol string
	metadata map[string]string
}

// Option sets optional transport metadata on a Device.
type Option func(*Device)

// WithAddress sets the peer's network address.
func WithAddress(addr string) Option {
	return func(d *Device) { d.address = addr }
}

// WithPort sets the peer's service port.
func WithPort(port int) Option {
	return func(d *Device) { d.port = port }
}

// WithProtocol sets the peer's transfer protocol ("http" or "https").
func WithProtocol(protocol string) Option {
	return func(d *Device) { d.protocol = protocol }
}

// WithMetadata attaches additional key/value data. The map is copied.
func WithMetadata(md map[string]string) Option {
	return func(d *Device) {
		if len(md) == 0 {
			return
		}
		d.metadata = make(map[string]string, len(md))
		for k, v := range md {
			d.metadata[k] = v
		}
	}
}

// New constructs a Device. id and name are trimmed and must be non-empty.
func New(id, name string, opts ...Option) (*Device, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)

	if id == "" {
		return nil, fmt.Errorf("%w: id", ErrMissingField)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}

	d := &Device{id: id, name: name}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// ID returns the peer's opaque unique identifier.
func (d *Device) ID() string { return d.id }

// Name returns the peer's display name.
func (d *Device) Name() string { return d.name }

// Address returns the peer's network address, if known.
func (d *Device) Address() string { return d.address }

// Port returns the peer's service port, or 0 if unknown.
func (d *Device) Port() int { return d.port }

// Protocol returns the peer's transfer protocol, if known.
func (d *Device) Protocol() string { return d.protocol }

// Metadata returns a copy of the extra data the peer advertised.
func (d *Device) Metadata() map[string]string {
	out := make(map[string]string, len(d.metadata))
	for k, v := range d.metadata {
		out[k] = v
	}
	return out
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	return d.metadata[key]
}

// Equal reports whether two devices carry the same identity and transport data.
func (d *Device) Equal(other *Device) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.id != other.id || d.name != other.name || d.address != other.address ||
		d.port != other.port || d.protocol != other.protocol {
		return false
	}
	if len(d.metadata) != len(other.metadata) {
		return false
	}
	for k, v := range d.metadata {
		if ov, ok := other.metadata[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	if d.address == "" {
		return fmt.Sprintf("%s (%s)", d.name, d.id)
	}
	return fmt.Sprintf("%s (%s) at %s", d.name, d.id, d.Endpoint())
}

// Endpoint returns host:port, or just the address when no port is known.
func (d *Device) Endpoint() string {
	if d.port == 0 {
		return d.address
	}
	if strings.Contains(d.address, ":") {
		return fmt.Sprintf("[%s]:%d", d.address, d.port)
	}
	return fmt.Sprintf("%s:%d", d.address, d.port)
}
