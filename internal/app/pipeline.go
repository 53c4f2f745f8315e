package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"gocv.io/x/gocv"

	"github.com/ayusman/emotereactor/internal/detector"
	"github.com/ayusman/emotereactor/internal/gesture"
	"github.com/ayusman/emotereactor/internal/store"
)

// ErrQuit is returned by HandleKey when the user asked to quit.
var ErrQuit = errors.New("quit requested")

// Run drives the loop until ctx is cancelled, the user quits, or the camera
// fails. A camera read error ends the loop and is returned.
//
// Per frame:
// 1. Read and normalize a camera frame
// 2. Extract face and pose landmarks
// 3. Classify them into a candidate label
// 4. Debounce the candidate; on a switch rewind the emote, log and persist it
// 5. Compose camera and emote panes with the label and debug overlay
// 6. Show the result and poll the keyboard, or only publish it when headless
func (a *App) Run(ctx context.Context) error {
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("failed to open camera: %w", err)
	}
	defer func() {
		if err := a.camera.Close(); err != nil {
			log.Printf("Error closing camera: %v", err)
		}
	}()

	a.startSession()
	defer a.endSession()

	var window *gocv.Window
	if !a.config.Headless {
		window = gocv.NewWindow(a.config.WindowTitle)
		defer window.Close()
	}

	a.setRunning(true)
	defer a.setRunning(false)

	log.Println("Starting....")
	if window != nil {
		log.Println("Press 'q' to quit, 'd' to toggle debug overlay")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			return fmt.Errorf("could not read from camera: %w", err)
		}

		_, view := a.process(*frame)
		frame.Close()

		if window != nil {
			window.IMShow(view)
			key := window.WaitKey(1)
			if err := a.HandleKey(key); errors.Is(err, ErrQuit) {
				view.Close()
				return nil
			}
		}
		view.Close()
	}
}

// Step processes a single frame without displaying it.
func (a *App) Step(frame gocv.Mat) Result {
	r, view := a.process(frame)
	view.Close()
	return r
}

// HandleKey applies a key code from the display window: q quits and d toggles
// the debug overlay.
func (a *App) HandleKey(key int) error {
	switch key & 0xFF {
	case 'q':
		return ErrQuit
	case 'd':
		state := "OFF"
		if a.ToggleDebug() {
			state = "ON"
		}
		log.Printf("Debug mode: %s", state)
	}
	return nil
}

// process runs one frame through the pipeline and returns the composed view,
// which the caller must close.
func (a *App) process(frame gocv.Mat) (Result, gocv.Mat) {
	landmarks, err := a.analyzer.Analyze(&frame)
	if err != nil {
		log.Printf("Error analyzing frame: %v", err)
		landmarks = detector.DetectionFrame{}
	}

	candidate, metrics := a.classifier.Evaluate(landmarks)

	previous := a.debouncer.Current()
	label, switched := a.debouncer.Offer(candidate)
	if switched {
		a.player.Set(label)
		log.Printf("Emote changed to: %s", label)
		a.recordSwitch(previous, label, metrics)
	}

	var emoteFrame *gocv.Mat
	if f, ok := a.player.Next(); ok {
		emoteFrame = &f
	}

	view := a.renderer.Compose(frame, emoteFrame, label, metrics, a.IsDebug())

	var jpeg []byte
	if a.config.EncodeJPEG {
		jpeg = encodeJPEG(view)
	}

	r := Result{
		Label:     label,
		Candidate: candidate,
		Switched:  switched,
		Metrics:   metrics,
	}
	a.publish(r, previous, jpeg)

	return r, view
}

func encodeJPEG(view gocv.Mat) []byte {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, view)
	if err != nil {
		log.Printf("Error encoding frame: %v", err)
		return nil
	}
	defer buf.Close()

	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

func (a *App) recordSwitch(previous, label gesture.Label, metrics gesture.DebugMetrics) {
	sess := a.Session()
	if a.config.Store == nil || sess == nil {
		return
	}

	raw, err := json.Marshal(metrics)
	if err != nil {
		log.Printf("Error encoding metrics: %v", err)
		raw = []byte("{}")
	}

	event := &store.Event{
		SessionID:     sess.ID,
		Label:         label.String(),
		PreviousLabel: previous.String(),
		SwitchedAt:    a.debouncer.LastSwitch().UTC(),
		Metrics:       raw,
	}
	if err := a.config.Store.Events().Create(event); err != nil {
		log.Printf("Error saving emote event: %v", err)
	}
}

func (a *App) startSession() {
	if a.config.Store == nil {
		return
	}

	sess, err := a.config.Store.Sessions().Create(a.config.CameraID)
	if err != nil {
		log.Printf("Error starting session: %v", err)
		return
	}

	a.mu.Lock()
	a.session = sess
	a.status.SessionID = sess.ID
	a.mu.Unlock()

	log.Printf("Session %s started", sess.ID)
}

func (a *App) endSession() {
	sess := a.Session()
	if a.config.Store == nil || sess == nil {
		return
	}

	if err := a.config.Store.Sessions().End(sess.ID); err != nil {
		log.Printf("Error ending session %s: %v", sess.ID, err)
		return
	}
	log.Printf("Session %s ended", sess.ID)
}

func (a *App) setRunning(running bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status.Running = running
}

// StartSession opens a store session outside Run, for callers that drive the
// loop with Step.
func (a *App) StartSession() {
	a.startSession()
}

// EndSession closes the session opened by StartSession.
func (a *App) EndSession() {
	a.endSession()
}
