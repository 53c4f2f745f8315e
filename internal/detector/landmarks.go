// Package detector provides face and pose landmark types and the analyzer
// that turns camera frames into landmark sets.
package detector

import (
	"fmt"
	"math"
)

// Face mesh landmark indices following the MediaPipe FaceMesh convention.
// See: https://developers.google.com/mediapipe/solutions/vision/face_landmarker
const (
	FaceNoseTip      = 1
	FaceUpperLip     = 13
	FaceLowerLip     = 14
	FaceLeftEye      = 33
	FaceMouthLeft    = 61
	FaceChin         = 152
	FaceLeftEdge     = 234
	FaceRightEye     = 263
	FaceMouthRight   = 291
	FaceRightEdge    = 454
	NumFaceLandmarks = 468
)

// Pose landmark indices following the MediaPipe Pose convention.
const (
	PoseNose          = 0
	PoseLeftShoulder  = 11
	PoseRightShoulder = 12
	PoseLeftElbow     = 13
	PoseRightElbow    = 14
	PoseLeftWrist     = 15
	PoseRightWrist    = 16
	NumPoseLandmarks  = 33
)

// faceIndices and poseIndices list every semantic index the classifier reads.
var (
	faceIndices = map[string]int{
		"nose_tip":    FaceNoseTip,
		"upper_lip":   FaceUpperLip,
		"lower_lip":   FaceLowerLip,
		"left_eye":    FaceLeftEye,
		"mouth_left":  FaceMouthLeft,
		"chin":        FaceChin,
		"left_edge":   FaceLeftEdge,
		"right_eye":   FaceRightEye,
		"mouth_right": FaceMouthRight,
		"right_edge":  FaceRightEdge,
	}
	poseIndices = map[string]int{
		"nose":           PoseNose,
		"left_shoulder":  PoseLeftShoulder,
		"right_shoulder": PoseRightShoulder,
		"left_elbow":     PoseLeftElbow,
		"right_elbow":    PoseRightElbow,
		"left_wrist":     PoseLeftWrist,
		"right_wrist":    PoseRightWrist,
	}
)

// ValidateIndices checks that every named landmark index fits inside the
// landmark counts an extractor declares.
func ValidateIndices(faceCount, poseCount int) error {
	for name, idx := range faceIndices {
		if idx < 0 || idx >= faceCount {
			return fmt.Errorf("face landmark %s (index %d) out of range for %d points", name, idx, faceCount)
		}
	}
	for name, idx := range poseIndices {
		if idx < 0 || idx >= poseCount {
			return fmt.Errorf("pose landmark %s (index %d) out of range for %d points", name, idx, poseCount)
		}
	}
	return nil
}

// Point is a normalized image-plane landmark. X and Y are in [0,1] relative
// to the frame width and height.
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// Distance returns the Euclidean distance between two points in the image plane.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// FaceLandmarks holds the face mesh points. Visibility is always 1.0.
type FaceLandmarks struct {
	Points [NumFaceLandmarks]Point `json:"points"`
}

// PoseLandmarks holds the body pose points with per-point visibility.
type PoseLandmarks struct {
	Points [NumPoseLandmarks]Point `json:"points"`
}

// DetectionFrame is the analyzer output for one frame. A nil field means the
// extractor found no face or no body.
type DetectionFrame struct {
	Face *FaceLandmarks `json:"face"`
	Pose *PoseLandmarks `json:"pose"`
}

// Complete reports whether both landmark sets are present.
func (f DetectionFrame) Complete() bool {
	return f.Face != nil && f.Pose != nil
}

// NewFaceLandmarks builds a face set from raw points. It returns nil when the
// slice is shorter than the mesh, so a truncated result counts as no face.
func NewFaceLandmarks(points []Point) *FaceLandmarks {
	if len(points) < NumFaceLandmarks {
		return nil
	}
	face := &FaceLandmarks{}
	for i := 0; i < NumFaceLandmarks; i++ {
		face.Points[i] = Point{X: points[i].X, Y: points[i].Y, Visibility: 1.0}
	}
	return face
}

// NewPoseLandmarks builds a pose set from raw points, or nil when the slice
// is too short.
func NewPoseLandmarks(points []Point) *PoseLandmarks {
	if len(points) < NumPoseLandmarks {
		return nil
	}
	pose := &PoseLandmarks{}
	copy(pose.Points[:], points[:NumPoseLandmarks])
	return pose
}

// Scale returns a copy of the face with every coordinate multiplied by k.
func (f *FaceLandmarks) Scale(k float64) *FaceLandmarks {
	if f == nil {
		return nil
	}
	scaled := &FaceLandmarks{}
	for i, p := range f.Points {
		scaled.Points[i] = Point{X: p.X * k, Y: p.Y * k, Visibility: p.Visibility}
	}
	return scaled
}
