// Package app runs the emote reactor loop: it reads camera frames, classifies
// the landmarks found in them, debounces the result and renders the matching
// reaction next to the camera view.
package app

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/emotereactor/internal/capture"
	"github.com/ayusman/emotereactor/internal/detector"
	"github.com/ayusman/emotereactor/internal/emote"
	"github.com/ayusman/emotereactor/internal/gesture"
	"github.com/ayusman/emotereactor/internal/overlay"
	"github.com/ayusman/emotereactor/internal/store"
)

// DefaultWindowTitle is the title of the display window.
const DefaultWindowTitle = "Clash Royale Emote Reactor"

// Config holds configuration options for the application.
type Config struct {
	Store       *store.Store
	CameraID    int
	EmoteDir    string
	Thresholds  gesture.Thresholds
	Absence     gesture.AbsencePolicy
	SwitchDelay time.Duration
	Debug       bool
	// Headless disables the display window. Frames are still composed and
	// published to Status and LatestJPEG.
	Headless bool
	// EncodeJPEG publishes every composed frame as JPEG for streaming.
	EncodeJPEG  bool
	WindowTitle string
}

// Status is an immutable snapshot of the loop, safe to hand to other goroutines.
type Status struct {
	Label      gesture.Label        `json:"label"`
	Candidate  gesture.Label        `json:"candidate"`
	Debug      bool                 `json:"debug"`
	Running    bool                 `json:"running"`
	Frames     uint64               `json:"frames"`
	SessionID  string               `json:"session_id,omitempty"`
	LastSwitch time.Time            `json:"last_switch"`
	Metrics    gesture.DebugMetrics `json:"metrics"`
}

// Result is the outcome of processing one frame.
type Result struct {
	Label     gesture.Label
	Candidate gesture.Label
	Switched  bool
	Metrics   gesture.DebugMetrics
}

// Switch describes an accepted change of the displayed label.
type Switch struct {
	Label      gesture.Label
	Previous   gesture.Label
	SessionID  string
	SwitchedAt time.Time
	Metrics    gesture.DebugMetrics
}

// App owns one reactor session. The classifier, debouncer and player are
// only touched by the goroutine running Run or Step.
type App struct {
	config     Config
	camera     capture.Camera
	analyzer   detector.Analyzer
	classifier *gesture.Classifier
	debouncer  *gesture.Debouncer
	player     *emote.Player
	renderer   *overlay.Renderer
	session    *store.Session

	mu        sync.RWMutex
	debug     bool
	status    Status
	jpeg      []byte
	callbacks []func(Switch)
}

// New creates a new App instance with the given configuration.
func New(config Config) (*App, error) {
	if config.Thresholds == (gesture.Thresholds{}) {
		config.Thresholds = gesture.DefaultThresholds()
	}
	if config.SwitchDelay == 0 {
		config.SwitchDelay = gesture.DefaultSwitchDelay
	}
	if config.WindowTitle == "" {
		config.WindowTitle = DefaultWindowTitle
	}

	classifier, err := gesture.NewClassifier(gesture.Options{
		Thresholds: config.Thresholds,
		Absence:    config.Absence,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}

	a := &App{
		config:     config,
		camera:     capture.NewCamera(config.CameraID),
		classifier: classifier,
		debouncer:  gesture.NewDebouncer(config.SwitchDelay),
		renderer:   overlay.NewRenderer(config.Thresholds),
		debug:      config.Debug,
		status: Status{
			Label:     gesture.LabelNeutral,
			Candidate: gesture.LabelNeutral,
			Debug:     config.Debug,
		},
	}

	// Try MediaPipe first, fall back to mock analyzer
	if mp, err := detector.NewMediaPipeAnalyzer(detector.DefaultConfig()); err == nil {
		a.analyzer = mp
		log.Println("Using MediaPipe face and pose landmarks")
	} else {
		log.Printf("MediaPipe not available (%v), using mock analyzer", err)
		a.analyzer = detector.NewMockAnalyzer()
	}

	if config.EmoteDir != "" {
		player, err := emote.Load(emote.DefaultPaths(config.EmoteDir), emote.DefaultSize)
		if err != nil {
			log.Printf("Some emotes failed to load, mirroring the camera instead: %v", err)
		}
		a.player = player
	} else {
		a.player = emote.NewPlayer(emote.DefaultSize)
	}

	return a, nil
}

// SetCamera replaces the capture source. Must be called before Run.
func (a *App) SetCamera(c capture.Camera) {
	a.camera = c
}

// SetAnalyzer replaces the landmark analyzer. Must be called before Run.
func (a *App) SetAnalyzer(an detector.Analyzer) {
	a.analyzer = an
}

// SetPlayer replaces the emote player. Must be called before Run.
func (a *App) SetPlayer(p *emote.Player) {
	a.player = p
}

// Debouncer returns the display debouncer so tests can drive its clock.
func (a *App) Debouncer() *gesture.Debouncer {
	return a.debouncer
}

// SetDebug enables or disables the debug overlay.
func (a *App) SetDebug(debug bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.debug = debug
	a.status.Debug = debug
}

// ToggleDebug flips the debug overlay and returns the new state.
func (a *App) ToggleDebug() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.debug = !a.debug
	a.status.Debug = a.debug
	return a.debug
}

// IsDebug returns whether the debug overlay is drawn.
func (a *App) IsDebug() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.debug
}

// OnSwitch registers a callback invoked with every accepted label switch.
// Callbacks run on the loop goroutine and must not block.
func (a *App) OnSwitch(fn func(Switch)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callbacks = append(a.callbacks, fn)
}

// Status returns the latest published snapshot.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// LatestJPEG returns the last composed frame encoded as JPEG, or nil. The
// slice is never modified after publication.
func (a *App) LatestJPEG() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.jpeg
}

// Session returns the store session of the current run, or nil.
func (a *App) Session() *store.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// Close releases the analyzer and the emote frames.
func (a *App) Close() error {
	var firstErr error
	if a.analyzer != nil {
		if err := a.analyzer.Close(); err != nil {
			log.Printf("Error closing analyzer: %v", err)
			firstErr = err
		}
	}
	if a.player != nil {
		a.player.Close()
	}
	return firstErr
}

func (a *App) publish(r Result, previous gesture.Label, jpeg []byte) {
	a.mu.Lock()
	a.status.Label = r.Label
	a.status.Candidate = r.Candidate
	a.status.Metrics = r.Metrics
	a.status.Frames++
	a.status.LastSwitch = a.debouncer.LastSwitch()
	if jpeg != nil {
		a.jpeg = jpeg
	}
	var callbacks []func(Switch)
	if r.Switched {
		callbacks = append(callbacks, a.callbacks...)
	}
	sw := Switch{
		Label:      r.Label,
		Previous:   previous,
		SessionID:  a.status.SessionID,
		SwitchedAt: a.status.LastSwitch,
		Metrics:    r.Metrics,
	}
	a.mu.Unlock()

	for _, fn := range callbacks {
		fn(sw)
	}
}
