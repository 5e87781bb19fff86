package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// record is the wire form of Settings. Pointer fields distinguish an absent
// key (take the default) from a zero value.
type record struct {
	DeviceName         *string `json:"deviceName,omitempty"`
	DownloadPath       *string `json:"downloadPath,omitempty"`
	AutoAcceptFiles    *bool   `json:"autoAcceptFiles,omitempty"`
	OverwriteFiles     *bool   `json:"overwriteFiles,omitempty"`
	MaxFileSizeBytes   *uint64 `json:"maxFileSizeBytes,omitempty"`
	Theme              *string `json:"theme,omitempty"`
	Locale             *string `json:"locale,omitempty"`
	LaunchAtStartup    *bool   `json:"launchAtStartup,omitempty"`
	MinimizeToTray     *bool   `json:"minimizeToTray,omitempty"`
	ShowInExplorerMenu *bool   `json:"showInExplorerMenu,omitempty"`
	MaxUploadSpeedKBps *uint64 `json:"maxUploadSpeedKBps,omitempty"`
}

// Encode serializes s as a flat JSON object containing every field.
func Encode(s Settings) string {
	theme := string(s.Theme)
	rec := record{
		DeviceName:         &s.DeviceName,
		DownloadPath:       &s.DownloadPath,
		AutoAcceptFiles:    &s.AutoAcceptFiles,
		OverwriteFiles:     &s.OverwriteFiles,
		MaxFileSizeBytes:   &s.MaxFileSizeBytes,
		Theme:              &theme,
		Locale:             &s.Locale,
		LaunchAtStartup:    &s.LaunchAtStartup,
		MinimizeToTray:     &s.MinimizeToTray,
		ShowInExplorerMenu: &s.ShowInExplorerMenu,
		MaxUploadSpeedKBps: &s.MaxUploadSpeedKBps,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		// Only scalars are marshaled; this cannot happen.
		panic(fmt.Sprintf("settings: encode: %v", err))
	}
	return string(data)
}

// Decode parses an encoded settings record. It never fails: anything that is
// not a well-formed record yields Defaults().
func Decode(encoded string) Settings {
	s, err := DecodeStrict(encoded)
	if err != nil {
		return Defaults()
	}
	return s
}

// DecodeStrict parses an encoded settings record and reports why decoding
// failed. On error the returned value is Defaults(); a record is never
// partially applied.
//
// Missing keys take their default, unknown keys are ignored, and a key whose
// value has the wrong JSON type fails the whole record.
func DecodeStrict(encoded string) (Settings, error) {
	trimmed := strings.TrimSpace(encoded)
	if trimmed == "" {
		return Defaults(), fmt.Errorf("empty settings record")
	}
	if !strings.HasPrefix(trimmed, "{") {
		return Defaults(), fmt.Errorf("settings record is not a JSON object")
	}

	var rec record
	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	if err := dec.Decode(&rec); err != nil {
		return Defaults(), fmt.Errorf("failed to parse settings record: %w", err)
	}
	if dec.More() {
		return Defaults(), fmt.Errorf("trailing data after settings record")
	}

	return rec.apply(Defaults()), nil
}

func (r record) apply(s Settings) Settings {
	if r.DeviceName != nil {
		s.DeviceName = *r.DeviceName
	}
	if r.DownloadPath != nil {
		s.DownloadPath = *r.DownloadPath
	}
	if r.AutoAcceptFiles != nil {
		s.AutoAcceptFiles = *r.AutoAcceptFiles
	}
	if r.OverwriteFiles != nil {
		s.OverwriteFiles = *r.OverwriteFiles
	}
	if r.MaxFileSizeBytes != nil {
		s.MaxFileSizeBytes = *r.MaxFileSizeBytes
	}
	if r.Theme != nil {
		s.Theme = Theme(*r.Theme)
	}
	if r.Locale != nil {
		s.Locale = *r.Locale
	}
	if r.LaunchAtStartup != nil {
		s.LaunchAtStartup = *r.LaunchAtStartup
	}
	if r.MinimizeToTray != nil {
		s.MinimizeToTray = *r.MinimizeToTray
	}
	if r.ShowInExplorerMenu != nil {
		s.ShowInExplorerMenu = *r.ShowInExplorerMenu
	}
	if r.MaxUploadSpeedKBps != nil {
		s.MaxUploadSpeedKBps = *r.MaxUploadSpeedKBps
	}
	return s
}
