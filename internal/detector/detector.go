package detector

import "gocv.io/x/gocv"

// Analyzer defines the interface for landmark extraction implementations.
type Analyzer interface {
	// Analyze runs the extractor on a BGR video frame and returns its face and
	// pose landmark sets. Either set is nil when nothing was found.
	Analyze(frame *gocv.Mat) (DetectionFrame, error)

	// Close releases any resources held by the analyzer.
	Close() error
}

// Config holds configuration options for landmark extraction.
type Config struct {
	// MinDetectionConf is the minimum detection confidence threshold (0.0-1.0).
	MinDetectionConf float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// FaceLandmarkCount is the number of face points the extractor produces.
	FaceLandmarkCount int

	// PoseLandmarkCount is the number of pose points the extractor produces.
	PoseLandmarkCount int
}

// DefaultConfig returns a Config matching MediaPipe FaceMesh and Pose.
func DefaultConfig() Config {
	return Config{
		MinDetectionConf:  0.6,
		MinTrackingConf:   0.6,
		FaceLandmarkCount: NumFaceLandmarks,
		PoseLandmarkCount: NumPoseLandmarks,
	}
}
