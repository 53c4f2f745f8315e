package server

import (
	"fmt"
	"net/http"
	"time"
)

// streamInterval paces MJPEG frames at roughly 15 FPS.
const streamInterval = 66 * time.Millisecond

// StreamHandler serves the composed reactor view as MJPEG.
type StreamHandler struct {
	source Source
}

// NewStreamHandler creates a new StreamHandler reading frames from source.
func NewStreamHandler(source Source) *StreamHandler {
	return &StreamHandler{source: source}
}

// ServeHTTP streams MJPEG frames to connected clients. Frames are only sent
// when the loop has published a new one.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	var lastFrame uint64
	sent := false

	for {
		frames := h.source.Status().Frames
		jpeg := h.source.LatestJPEG()

		if len(jpeg) > 0 && (!sent || frames != lastFrame) {
			if err := writePart(w, jpeg); err != nil {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
			lastFrame = frames
			sent = true
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\r\n")
	return err
}
