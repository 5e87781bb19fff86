package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/muurk/sendpair/internal/config"
	"github.com/muurk/sendpair/internal/device"
	"github.com/muurk/sendpair/internal/logging"
)

// ErrNotFound is returned by Remove for an unknown device id.
var ErrNotFound = errors.New("device not found")

// fileVersion is the format version of the YAML stored under config.KeyDevices.
const fileVersion = 1

// Source records how a device entered the registry.
type Source string

const (
	// SourceManual marks a device paired explicitly, e.g. by scanning its code.
	SourceManual Source = "manual"
	// SourceDiscovered marks a device seen on the local network.
	SourceDiscovered Source = "discovered"
)

// Entry is a registered device plus bookkeeping.
type Entry struct {
	Device   *device.Device
	Source   Source
	AddedAt  time.Time
	LastSeen time.Time
}

// Registry holds known peers keyed by device id and persists them to a
// config.Store on every change.
type Registry struct {
	store config.Store
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty Registry backed by store. Call Load to read the
// previously saved devices.
func New(store config.Store) *Registry {
	return &Registry{
		store:   store,
		now:     time.Now,
		entries: make(map[string]Entry),
	}
}

// storedFile is the YAML layout under config.KeyDevices.
type storedFile struct {
	Version int            `yaml:"version"`
	Devices []storedDevice `yaml:"devices,omitempty"`
}

type storedDevice struct {
	ID       string            `yaml:"id"`
	Name     string            `yaml:"name"`
	Address  string            `yaml:"address,omitempty"`
	Port     int               `yaml:"port,omitempty"`
	Protocol string            `yaml:"protocol,omitempty"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
	Source   Source            `yaml:"source"`
	AddedAt  time.Time         `yaml:"added_at"`
	LastSeen time.Time         `yaml:"last_seen,omitempty"`
}

// Load replaces the in-memory registry with the stored one. A missing record
// yields an empty registry. Stored entries that no longer validate are
// skipped with a warning.
func (r *Registry) Load(ctx context.Context) error {
	raw, found, err := r.store.Load(ctx, config.KeyDevices)
	if err != nil {
		return fmt.Errorf("failed to load devices: %w", err)
	}

	entries := make(map[string]Entry)
	if found && raw != "" {
		var f storedFile
		if err := yaml.Unmarshal([]byte(raw), &f); err != nil {
			return fmt.Errorf("failed to parse devices: %w", err)
		}
		if f.Version != fileVersion {
			return fmt.Errorf("unsupported devices version: %d (expected %d)", f.Version, fileVersion)
		}

		for _, sd := range f.Devices {
			d, err := device.New(sd.ID, sd.Name,
				device.WithAddress(sd.Address),
				device.WithPort(sd.Port),
				device.WithProtocol(sd.Protocol),
				device.WithMetadata(sd.Metadata),
			)
			if err != nil {
				logging.Warn("Skipping invalid stored device",
					zap.String("id", sd.ID),
					zap.Error(err))
				continue
			}
			entries[d.ID()] = Entry{
				Device:   d,
				Source:   sd.Source,
				AddedAt:  sd.AddedAt,
				LastSeen: sd.LastSeen,
			}
		}
	}

	r.mu.Lock()
	r.entries = entries
	r.mu.Unlock()

	logging.Debug("Device registry loaded", zap.Int("devices", len(entries)))
	return nil
}

// AddManualDevice registers a device that was paired explicitly. An existing
// entry with the same id is replaced and becomes manual.
func (r *Registry) AddManualDevice(ctx context.Context, d *device.Device) error {
	return r.upsert(ctx, d, SourceManual)
}

// AddDiscoveredDevice records a device seen on the network. A manually paired
// device keeps its source, name and metadata; only the transport data and
// LastSeen are refreshed from the sighting.
func (r *Registry) AddDiscoveredDevice(ctx context.Context, d *device.Device) error {
	return r.upsert(ctx, d, SourceDiscovered)
}

func (r *Registry) upsert(ctx context.Context, d *device.Device, source Source) error {
	if d == nil {
		return errors.New("device is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	prev, existed := r.entries[d.ID()]

	next := Entry{Device: d, Source: source, AddedAt: now, LastSeen: now}
	if existed {
		next.AddedAt = prev.AddedAt
		if prev.Source == SourceManual {
			next.Source = SourceManual
			if source == SourceDiscovered {
				merged, err := device.New(d.ID(), prev.Device.Name(),
					device.WithAddress(d.Address()),
					device.WithPort(d.Port()),
					device.WithProtocol(d.Protocol()),
					device.WithMetadata(prev.Device.Metadata()))
				if err != nil {
					return err
				}
				next.Device = merged
			}
		}
	}

	r.entries[d.ID()] = next
	if err := r.saveLocked(ctx); err != nil {
		if existed {
			r.entries[d.ID()] = prev
		} else {
			delete(r.entries, d.ID())
		}
		return err
	}

	logging.Info("Device registered",
		zap.String("id", d.ID()),
		zap.String("name", next.Device.Name()),
		zap.String("source", string(next.Source)),
		zap.Bool("updated", existed))
	return nil
}

// Get returns the entry for id.
func (r *Registry) Get(id string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// List returns all entries ordered by AddedAt, then id.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		return out[i].Device.ID() < out[j].Device.ID()
	})
	return out
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Remove deletes the device with the given id.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	delete(r.entries, id)
	if err := r.saveLocked(ctx); err != nil {
		r.entries[id] = prev
		return err
	}

	logging.Info("Device removed", zap.String("id", id))
	return nil
}

// saveLocked writes the registry to the store. r.mu must be held.
func (r *Registry) saveLocked(ctx context.Context) error {
	f := storedFile{Version: fileVersion}
	for _, e := range r.entries {
		f.Devices = append(f.Devices, storedDevice{
			ID:       e.Device.ID(),
			Name:     e.Device.Name(),
			Address:  e.Device.Address(),
			Port:     e.Device.Port(),
			Protocol: e.Device.Protocol(),
			Metadata: e.Device.Metadata(),
			Source:   e.Source,
			AddedAt:  e.AddedAt,
			LastSeen: e.LastSeen,
		})
	}
	sort.Slice(f.Devices, func(i, j int) bool { return f.Devices[i].ID < f.Devices[j].ID })

	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("failed to marshal devices: %w", err)
	}
	if err := r.store.Save(ctx, config.KeyDevices, string(data)); err != nil {
		return fmt.Errorf("failed to save devices: %w", err)
	}
	return nil
}
