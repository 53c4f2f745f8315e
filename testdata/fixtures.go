// Package testdata holds scripted landmark scenarios for end-to-end tests.
// Each scenario lists the frames fed to the analyzer and the labels the
// display is expected to switch to, in order.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ayusman/emotereactor/internal/detector"
)

//go:embed scenarios/*.json
var scenariosFS embed.FS

// Step kinds understood by Frames.
const (
	KindNeutral  = "neutral"
	KindLaughing = "laughing"
	KindJawline  = "jawline"
	KindEyeRub   = "eye_rub" // uses LeftY
	KindWrists   = "wrists"  // uses LeftY and RightY
	KindAbsent   = "absent"
)

// Step describes one or more identical frames.
type Step struct {
	Kind   string  `json:"kind"`
	LeftY  float64 `json:"left_y,omitempty"`
	RightY float64 `json:"right_y,omitempty"`
	Repeat int     `json:"repeat,omitempty"` // 0 means once
}

// Scenario is a scripted sequence of landmark frames.
type Scenario struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Absence     string   `json:"absence,omitempty"`
	Steps       []Step   `json:"steps"`
	Expect      []string `json:"expect"`
}

// Names returns the names of every embedded scenario, sorted.
func Names() ([]string, error) {
	entries, err := scenariosFS.ReadDir("scenarios")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Load loads a scenario by name
func Load(name string) (*Scenario, error) {
	data, err := scenariosFS.ReadFile("scenarios/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", name, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", name, err)
	}
	if s.Name == "" {
		s.Name = name
	}
	return &s, nil
}

// Frames expands the steps into detection frames.
func (s *Scenario) Frames() ([]detector.DetectionFrame, error) {
	var frames []detector.DetectionFrame
	for i, step := range s.Steps {
		frame, err := step.frame()
		if err != nil {
			return nil, fmt.Errorf("scenario %s step %d: %w", s.Name, i, err)
		}
		n := max(step.Repeat, 1)
		for j := 0; j < n; j++ {
			frames = append(frames, frame)
		}
	}
	return frames, nil
}

func (st Step) frame() (detector.DetectionFrame, error) {
	switch st.Kind {
	case KindNeutral:
		return detector.NeutralFrame(), nil
	case KindLaughing:
		return detector.LaughingFrame(), nil
	case KindJawline:
		return detector.JawlineFrame(), nil
	case KindEyeRub:
		return detector.EyeRubFrame(st.LeftY), nil
	case KindWrists:
		pose := detector.WristsAt(
			detector.Point{X: 0.20, Y: st.LeftY, Visibility: 0.9},
			detector.Point{X: 0.80, Y: st.RightY, Visibility: 0.9},
		)
		return detector.DetectionFrame{Face: detector.NeutralFace(), Pose: pose}, nil
	case KindAbsent:
		return detector.DetectionFrame{}, nil
	}
	return detector.DetectionFrame{}, fmt.Errorf("unknown step kind %q", st.Kind)
}
