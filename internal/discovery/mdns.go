package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/sendpair/internal/device"
	"github.com/muurk/sendpair/internal/logging"
)

const (
	// ServiceType is the mDNS service type sendpair peers advertise
	ServiceType = "_sendpair._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for a one-shot scan
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the default port of the sendpair HTTP API
	DefaultPort = 53317

	browseDrainTimeout = time.Second
)

// TXT record keys.
const (
	TxtID       = "id"
	TxtName     = "name"
	TxtVersion  = "version"
	TxtProtocol = "protocol"
)

// Sink receives discovered devices.
type Sink interface {
	AddDiscoveredDevice(ctx context.Context, d *device.Device) error
}

// Scanner handles mDNS peer discovery
type Scanner struct {
	// Timeout is the maximum time Scan waits for answers
	Timeout time.Duration

	// SelfID is this install's id; matching announcements are skipped
	SelfID string
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner(selfID string) *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		SelfID:  selfID,
	}
}

// Browse calls fn for every peer announcement until ctx is done. The same
// peer may be reported more than once.
func (s *Scanner) Browse(ctx context.Context, fn func(*device.Device)) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for entry := range entries {
			d := s.parseServiceEntry(entry)
			if d == nil {
				continue
			}
			fn(d)
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	// The resolver closes entries once it observes the cancellation
	select {
	case <-done:
	case <-time.After(browseDrainTimeout):
	}
	return nil
}

// Scan browses for Timeout and returns the distinct peers seen, in the order
// they first answered.
func (s *Scanner) Scan(ctx context.Context) ([]*device.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		seen    = make(map[string]int)
		devices []*device.Device
	)

	err := s.Browse(ctx, func(d *device.Device) {
		mu.Lock()
		defer mu.Unlock()
		if i, ok := seen[d.ID()]; ok {
			devices[i] = d
			return
		}
		seen[d.ID()] = len(devices)
		devices = append(devices, d)
	})
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	return devices, nil
}

// Feed browses until ctx is done and hands every peer to sink. Sink errors
// are logged and browsing continues.
func (s *Scanner) Feed(ctx context.Context, sink Sink) error {
	return s.Browse(ctx, func(d *device.Device) {
		if err := sink.AddDiscoveredDevice(ctx, d); err != nil && ctx.Err() == nil {
			logging.Warn("Failed to record discovered device",
				zap.String("id", d.ID()),
				zap.Error(err))
			return
		}
		logging.Debug("Discovered peer", zap.String("device", d.String()))
	})
}

// parseServiceEntry converts a zeroconf service entry to a Device.
// Returns nil for entries without an id and name, and for this device itself.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *device.Device {
	txt := parseTXT(entry.Text)

	id := txt[TxtID]
	if id == "" || id == s.SelfID {
		return nil
	}

	name := txt[TxtName]
	if name == "" {
		name = entry.Instance
	}

	// Prefer IPv4
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	protocol := txt[TxtProtocol]
	if protocol == "" {
		protocol = device.ProtocolHTTP
	}

	metadata := make(map[string]string)
	for k, v := range txt {
		switch k {
		case TxtID, TxtName, TxtProtocol:
			continue
		}
		metadata[k] = v
	}
	if entry.HostName != "" {
		metadata["hostname"] = entry.HostName
	}

	d, err := device.New(id, name,
		device.WithAddress(ip),
		device.WithPort(port),
		device.WithProtocol(protocol),
		device.WithMetadata(metadata),
	)
	if err != nil {
		return nil
	}
	return d
}

func parseTXT(records []string) map[string]string {
	out := make(map[string]string, len(records))
	for _, txt := range records {
		// TXT records are in "key=value" format
		key, value, _ := strings.Cut(txt, "=")
		if key == "" {
			continue
		}
		out[strings.ToLower(key)] = value
	}
	return out
}

// AnnounceOptions describe this device's advertisement.
type AnnounceOptions struct {
	ID       string
	Name     string
	Version  string
	Port     int
	Protocol string
}

func (o AnnounceOptions) txt() []string {
	records := []string{
		TxtID + "=" + o.ID,
		TxtName + "=" + o.Name,
	}
	if o.Version != "" {
		records = append(records, TxtVersion+"="+o.Version)
	}
	if o.Protocol != "" {
		records = append(records, TxtProtocol+"="+o.Protocol)
	}
	return records
}

// Announcement is a running mDNS advertisement.
type Announcement struct {
	mu     sync.Mutex
	opts   AnnounceOptions
	server *zeroconf.Server
}

// Announce starts advertising this device on the local network.
func Announce(opts AnnounceOptions) (*Announcement, error) {
	if opts.ID == "" || opts.Name == "" {
		return nil, errors.New("announce requires an id and a name")
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}

	server, err := zeroconf.Register(instanceName(opts), ServiceType, ServiceDomain, opts.Port, opts.txt(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Announcing on local network",
		zap.String("service", ServiceType),
		zap.String("name", opts.Name),
		zap.Int("port", opts.Port))

	return &Announcement{opts: opts, server: server}, nil
}

// SetName updates the advertised display name. The instance name is kept so
// peers do not see a new service.
func (a *Announcement) SetName(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if name == "" || name == a.opts.Name {
		return
	}
	a.opts.Name = name
	a.server.SetText(a.opts.txt())
	logging.Debug("Updated mDNS announcement", zap.String("name", name))
}

// Shutdown withdraws the advertisement.
func (a *Announcement) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.server.Shutdown()
}

// instanceName is unique per install so two devices with the same display
// name do not collide.
func instanceName(opts AnnounceOptions) string {
	short := opts.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return opts.Name + " (" + short + ")"
}
