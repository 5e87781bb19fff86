package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultDeviceName derives a device name from the host name. When the host
// name is unavailable a random "sendpair-xxxxxxxx" name is generated.
func DefaultDeviceName() string {
	if host, err := os.Hostname(); err == nil {
		host = strings.TrimSpace(host)
		// Drop the domain part of an FQDN
		if i := strings.IndexByte(host, '.'); i > 0 {
			host = host[:i]
		}
		if host != "" {
			return host
		}
	}
	return "sendpair-" + uuid.NewString()[:8]
}

// DefaultDownloadPath returns the user's Downloads directory, or an empty
// string when the home directory cannot be determined.
func DefaultDownloadPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Downloads")
}

// CheckWritable verifies that path is an existing directory files can be
// created in. It probes by creating and removing a temporary file.
func CheckWritable(path string) error {
	if path == "" {
		return fmt.Errorf("download path is empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access download path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("download path is not a directory: %s", path)
	}

	probe, err := os.CreateTemp(path, ".sendpair-probe-*")
	if err != nil {
		return fmt.Errorf("download path is not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}
