package detector

import (
	"gocv.io/x/gocv"
)

// MockAnalyzer is a test implementation of the Analyzer interface.
// It replays configured detection frames in order and keeps returning the
// last one once the sequence is exhausted.
type MockAnalyzer struct {
	frames []DetectionFrame
	index  int
	calls  int
	err    error
}

// NewMockAnalyzer creates a new MockAnalyzer instance.
func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

// SetFrames sets the detection frames that will be returned by Analyze.
func (m *MockAnalyzer) SetFrames(frames ...DetectionFrame) {
	m.frames = frames
	m.index = 0
}

// SetError sets the error that will be returned by Analyze.
func (m *MockAnalyzer) SetError(err error) {
	m.err = err
}

// Calls returns how many times Analyze has been invoked.
func (m *MockAnalyzer) Calls() int {
	return m.calls
}

// Analyze returns the next pre-configured frame or error.
func (m *MockAnalyzer) Analyze(frame *gocv.Mat) (DetectionFrame, error) {
	m.calls++
	if m.err != nil {
		return DetectionFrame{}, m.err
	}
	if len(m.frames) == 0 {
		return DetectionFrame{}, nil
	}
	f := m.frames[m.index]
	if m.index < len(m.frames)-1 {
		m.index++
	}
	return f, nil
}

// Close is a no-op for the mock analyzer.
func (m *MockAnalyzer) Close() error {
	return nil
}

// NeutralFace returns a forward-facing face with a closed mouth.
// The face edges are 0.30 apart and the mouth ratio is 0.1.
func NeutralFace() *FaceLandmarks {
	face := &FaceLandmarks{}
	for i := range face.Points {
		face.Points[i] = Point{X: 0.5, Y: 0.45, Visibility: 1.0}
	}

	face.Points[FaceNoseTip] = Point{X: 0.50, Y: 0.42, Visibility: 1.0}
	face.Points[FaceLeftEye] = Point{X: 0.44, Y: 0.35, Visibility: 1.0}
	face.Points[FaceRightEye] = Point{X: 0.56, Y: 0.35, Visibility: 1.0}
	face.Points[FaceLeftEdge] = Point{X: 0.35, Y: 0.42, Visibility: 1.0}
	face.Points[FaceRightEdge] = Point{X: 0.65, Y: 0.42, Visibility: 1.0}
	face.Points[FaceChin] = Point{X: 0.50, Y: 0.60, Visibility: 1.0}

	// Mouth 0.10 wide, lips 0.01 apart
	face.Points[FaceMouthLeft] = Point{X: 0.45, Y: 0.50, Visibility: 1.0}
	face.Points[FaceMouthRight] = Point{X: 0.55, Y: 0.50, Visibility: 1.0}
	face.Points[FaceUpperLip] = Point{X: 0.50, Y: 0.495, Visibility: 1.0}
	face.Points[FaceLowerLip] = Point{X: 0.50, Y: 0.505, Visibility: 1.0}

	return face
}

// LaughingFace returns a forward-facing face with the mouth wide open
// (mouth ratio 0.4).
func LaughingFace() *FaceLandmarks {
	face := NeutralFace()
	face.Points[FaceUpperLip] = Point{X: 0.50, Y: 0.48, Visibility: 1.0}
	face.Points[FaceLowerLip] = Point{X: 0.50, Y: 0.52, Visibility: 1.0}
	return face
}

// TurnedFace returns a face turned sideways so the edges are 0.15 apart.
func TurnedFace() *FaceLandmarks {
	face := NeutralFace()
	face.Points[FaceLeftEdge] = Point{X: 0.45, Y: 0.42, Visibility: 1.0}
	face.Points[FaceRightEdge] = Point{X: 0.60, Y: 0.42, Visibility: 1.0}
	return face
}

// RestingPose returns a body with both hands down at the sides, far from
// the face and fully visible.
func RestingPose() *PoseLandmarks {
	pose := &PoseLandmarks{}
	for i := range pose.Points {
		pose.Points[i] = Point{X: 0.5, Y: 0.7, Visibility: 0.9}
	}

	pose.Points[PoseNose] = Point{X: 0.50, Y: 0.42, Visibility: 0.99}
	pose.Points[PoseLeftShoulder] = Point{X: 0.35, Y: 0.75, Visibility: 0.95}
	pose.Points[PoseRightShoulder] = Point{X: 0.65, Y: 0.75, Visibility: 0.95}
	pose.Points[PoseLeftElbow] = Point{X: 0.25, Y: 0.85, Visibility: 0.9}
	pose.Points[PoseRightElbow] = Point{X: 0.75, Y: 0.85, Visibility: 0.9}
	pose.Points[PoseLeftWrist] = Point{X: 0.20, Y: 0.90, Visibility: 0.9}
	pose.Points[PoseRightWrist] = Point{X: 0.80, Y: 0.90, Visibility: 0.9}

	return pose
}

// WristsAt returns a resting pose with the wrists moved to the given points.
func WristsAt(left, right Point) *PoseLandmarks {
	pose := RestingPose()
	pose.Points[PoseLeftWrist] = left
	pose.Points[PoseRightWrist] = right
	return pose
}

// NeutralFrame returns a complete frame that matches no gesture.
func NeutralFrame() DetectionFrame {
	return DetectionFrame{Face: NeutralFace(), Pose: RestingPose()}
}

// LaughingFrame returns a frame with an open mouth and hands at rest.
func LaughingFrame() DetectionFrame {
	return DetectionFrame{Face: LaughingFace(), Pose: RestingPose()}
}

// JawlineFrame returns a frame with the head turned and the left wrist
// resting under the chin.
func JawlineFrame() DetectionFrame {
	pose := WristsAt(
		Point{X: 0.50, Y: 0.75, Visibility: 0.9},
		Point{X: 0.80, Y: 0.90, Visibility: 0.9},
	)
	return DetectionFrame{Face: TurnedFace(), Pose: pose}
}

// EyeRubFrame returns a frame with the left wrist held just below the left
// eye at the given height.
func EyeRubFrame(leftWristY float64) DetectionFrame {
	pose := WristsAt(
		Point{X: 0.44, Y: leftWristY, Visibility: 0.9},
		Point{X: 0.80, Y: 0.90, Visibility: 0.9},
	)
	return DetectionFrame{Face: NeutralFace(), Pose: pose}
}
