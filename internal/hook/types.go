// Package hook runs external executables whenever the displayed emote
// changes. Each hook lives in its own directory with a hook.json manifest.
package hook

import "encoding/json"

// Manifest describes a hook's metadata and the labels it reacts to.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Labels      []string        `json:"labels,omitempty"` // empty means every label
	Config      json.RawMessage `json:"config,omitempty"`
}

// Request is written to a hook's stdin as JSON.
type Request struct {
	Event     string          `json:"event"`
	Label     string          `json:"label"`
	Previous  string          `json:"previous"`
	SessionID string          `json:"session_id,omitempty"`
	Metrics   json.RawMessage `json:"metrics,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response is read from a hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Accepts reports whether the hook wants switches to label.
func (h *Hook) Accepts(label string) bool {
	if len(h.Manifest.Labels) == 0 {
		return true
	}
	for _, l := range h.Manifest.Labels {
		if l == label {
			return true
		}
	}
	return false
}
