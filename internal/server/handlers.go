package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/muurk/sendpair/internal/logging"
	"github.com/muurk/sendpair/internal/pairing"
	"github.com/muurk/sendpair/internal/registry"
	"github.com/muurk/sendpair/internal/settings"
)

// settingsResponse carries a settings snapshot. Settings uses the stored
// encoding, so field names match the settings record. Mutation responses
// leave Version out: a mutation returns its value, not the snapshot number it
// was published under.
type settingsResponse struct {
	Version  uint64          `json:"version,omitempty"`
	Ready    bool            `json:"ready"`
	Settings json.RawMessage `json:"settings"`
}

func snapshotResponse(snap settings.Snapshot, ready bool) settingsResponse {
	return settingsResponse{
		Version:  snap.Version,
		Ready:    ready,
		Settings: json.RawMessage(settings.Encode(snap.Settings)),
	}
}

// setRequest is the body of PUT /settings/{field}.
type setRequest struct {
	Value json.RawMessage `json:"value"`
}

type pairResponse struct {
	Status string          `json:"status"`
	Reason string          `json:"reason,omitempty"`
	Device *deviceResponse `json:"device,omitempty"`
}

type deviceResponse struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Address  string            `json:"address,omitempty"`
	Port     int               `json:"port,omitempty"`
	Protocol string            `json:"protocol,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Source   string            `json:"source,omitempty"`
	AddedAt  *time.Time        `json:"added_at,omitempty"`
	LastSeen *time.Time        `json:"last_seen,omitempty"`
}

type toggleFunc func(*settings.Coordinator, context.Context) (settings.Settings, error)

// toggles maps the flag names used in the API to coordinator toggles.
var toggles = map[string]toggleFunc{
	"autoAcceptFiles":    (*settings.Coordinator).ToggleAutoAccept,
	"overwriteFiles":     (*settings.Coordinator).ToggleOverwriteFiles,
	"minimizeToTray":     (*settings.Coordinator).ToggleMinimizeToTray,
	"launchAtStartup":    (*settings.Coordinator).ToggleLaunchAtStartup,
	"showInExplorerMenu": (*settings.Coordinator).ToggleExplorerMenu,
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	c := s.deps.Settings
	writeJSON(w, http.StatusOK, snapshotResponse(c.Current(), c.State() == settings.StateReady))
}

func (s *Server) putSetting(w http.ResponseWriter, r *http.Request) {
	field := mux.Vars(r)["field"]

	body, err := readBody(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req setRequest
	if err := json.Unmarshal(body, &req); err != nil || len(req.Value) == 0 {
		writeError(w, `body must be {"value": ...}`, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	c := s.deps.Settings

	var updated settings.Settings
	switch field {
	case "deviceName":
		var name string
		if !decodeValue(w, req.Value, &name) {
			return
		}
		if name = strings.TrimSpace(name); name == "" {
			writeError(w, "device name must not be empty", http.StatusUnprocessableEntity)
			return
		}
		updated, err = c.SetDeviceName(ctx, name)

	case "downloadPath":
		var path string
		if !decodeValue(w, req.Value, &path) {
			return
		}
		if cerr := settings.CheckWritable(path); cerr != nil {
			writeError(w, cerr.Error(), http.StatusUnprocessableEntity)
			return
		}
		updated, err = c.SetDownloadPath(ctx, path)

	case "theme":
		var theme string
		if !decodeValue(w, req.Value, &theme) {
			return
		}
		updated, err = c.SetTheme(ctx, settings.Theme(theme))

	case "locale":
		var locale string
		if !decodeValue(w, req.Value, &locale) {
			return
		}
		if locale = strings.TrimSpace(locale); locale == "" {
			writeError(w, "locale must not be empty", http.StatusUnprocessableEntity)
			return
		}
		updated, err = c.SetLocale(ctx, locale)

	case "maxFileSizeBytes":
		var n uint64
		if !decodeValue(w, req.Value, &n) {
			return
		}
		updated, err = c.SetMaxFileSize(ctx, n)

	case "maxUploadSpeedKBps":
		var n uint64
		if !decodeValue(w, req.Value, &n) {
			return
		}
		updated, err = c.SetMaxUploadSpeed(ctx, n)

	default:
		if _, ok := toggles[field]; ok {
			writeError(w, "use POST /api/v1/settings/"+field+"/toggle", http.StatusBadRequest)
			return
		}
		writeError(w, "unknown setting: "+field, http.StatusNotFound)
		return
	}

	s.writeMutationResult(w, field, updated, err)
}

func (s *Server) toggleSetting(w http.ResponseWriter, r *http.Request) {
	flag := mux.Vars(r)["flag"]

	toggle, ok := toggles[flag]
	if !ok {
		writeError(w, "unknown flag: "+flag, http.StatusNotFound)
		return
	}

	updated, err := toggle(s.deps.Settings, r.Context())
	s.writeMutationResult(w, flag, updated, err)
}

func (s *Server) writeMutationResult(w http.ResponseWriter, field string, updated settings.Settings, err error) {
	if err != nil {
		if !errors.Is(err, settings.ErrClosed) {
			// Client went away; the mutation still applies
			logging.Debug("Settings request ended before mutation completed",
				zap.String("field", field), zap.Error(err))
		}
		writeError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		Ready:    true,
		Settings: json.RawMessage(settings.Encode(updated)),
	})
}

func decodeValue(w http.ResponseWriter, raw json.RawMessage, dst interface{}) bool {
	if err := json.Unmarshal(raw, dst); err != nil {
		writeError(w, "invalid value: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) pair(w http.ResponseWriter, r *http.Request) {
	if s.deps.Pairing == nil {
		writeError(w, "pairing is not available", http.StatusServiceUnavailable)
		return
	}

	body, err := readBody(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	out := s.deps.Pairing.Submit(r.Context(), string(body))
	switch out.Status {
	case pairing.StatusAccepted:
		writeJSON(w, http.StatusOK, pairResponse{
			Status: out.Status.String(),
			Device: &deviceResponse{
				ID:       out.Device.ID(),
				Name:     out.Device.Name(),
				Address:  out.Device.Address(),
				Port:     out.Device.Port(),
				Protocol: out.Device.Protocol(),
			},
		})
	case pairing.StatusRejected:
		writeJSON(w, http.StatusUnprocessableEntity, pairResponse{
			Status: out.Status.String(),
			Reason: out.Reason(),
		})
	default:
		reason := ""
		if out.Err != nil {
			reason = out.Err.Error()
		}
		writeJSON(w, http.StatusConflict, pairResponse{
			Status: out.Status.String(),
			Reason: reason,
		})
	}
}

func (s *Server) listDevices(w http.ResponseWriter, r *http.Request) {
	resp := make([]deviceResponse, 0)
	if s.deps.Devices != nil {
		for _, e := range s.deps.Devices.List() {
			resp = append(resp, entryResponse(e))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func entryResponse(e registry.Entry) deviceResponse {
	added, seen := e.AddedAt, e.LastSeen
	d := deviceResponse{
		ID:       e.Device.ID(),
		Name:     e.Device.Name(),
		Address:  e.Device.Address(),
		Port:     e.Device.Port(),
		Protocol: e.Device.Protocol(),
		Metadata: e.Device.Metadata(),
		Source:   string(e.Source),
	}
	if !added.IsZero() {
		d.AddedAt = &added
	}
	if !seen.IsZero() {
		d.LastSeen = &seen
	}
	return d
}
