package config

import "context"

// Well-known keys held in the store.
const (
	// KeySettings holds the encoded settings record.
	KeySettings = "settings"

	// KeyDevices holds the paired/discovered device registry.
	KeyDevices = "devices"

	// KeyInstanceID holds this install's pairing identifier.
	KeyInstanceID = "instance_id"
)

// documentVersion is the on-disk format version of the store file.
const documentVersion = 1

// Store is an opaque key→string persistence service.
//
// Load reports found=false with a nil error when the key has never been saved.
type Store interface {
	Load(ctx context.Context, key string) (value string, found bool, err error)
	Save(ctx context.Context, key, value string) error
}

// Document is the on-disk layout of the store file.
type Document struct {
	Version int               `yaml:"version"`
	Entries map[string]string `yaml:"entries,omitempty"`
}

// NewDocument creates an empty Document at the current version.
func NewDocument() *Document {
	return &Document{
		Version: documentVersion,
		Entries: make(map[string]string),
	}
}
