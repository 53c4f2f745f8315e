package gesture

import "fmt"

// Thresholds holds the geometric and temporal constants of the rule chain.
// They were tuned against mirrored 720x450 frames from MediaPipe FaceMesh and
// Pose; all distances are in normalized image coordinates.
type Thresholds struct {
	// Jawline
	MaxFaceAngle      float64 // face edge spread below which the head counts as turned
	LeftChinDistance  float64
	RightChinDistance float64

	// GoblinCrying
	EyeDistance  float64
	HistorySize  int     // wrist motion history capacity
	MinHistory   int     // frames needed before the oscillation test runs
	MinFlips     int     // direction reversals required in one stream
	MinAmplitude float64 // at least one frame-to-frame step must exceed this

	// KingLaughing
	MouthRatio float64

	// SixSeven
	MinVisibility    float64
	StepDelta        float64 // per-frame Y change counted as up or down
	AlternationGain  int
	AlternationDecay int
	AlternationLimit int // score above this starts the sustain timer
	SustainFrames    int
}

// DefaultThresholds returns the calibrated constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxFaceAngle:      0.20,
		LeftChinDistance:  0.40,
		RightChinDistance: 0.60,

		EyeDistance:  0.42,
		HistorySize:  6,
		MinHistory:   4,
		MinFlips:     1,
		MinAmplitude: 0.008,

		MouthRatio: 0.23,

		MinVisibility:    0.5,
		StepDelta:        0.005,
		AlternationGain:  4,
		AlternationDecay: 1,
		AlternationLimit: 3,
		SustainFrames:    20,
	}
}

// Validate reports the first threshold that cannot produce a working classifier.
func (t Thresholds) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"max face angle", t.MaxFaceAngle},
		{"left chin distance", t.LeftChinDistance},
		{"right chin distance", t.RightChinDistance},
		{"eye distance", t.EyeDistance},
		{"min amplitude", t.MinAmplitude},
		{"mouth ratio", t.MouthRatio},
		{"step delta", t.StepDelta},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %f", p.name, p.value)
		}
	}

	if t.MinHistory < 3 {
		return fmt.Errorf("min history must be at least 3 to observe a reversal, got %d", t.MinHistory)
	}
	if t.HistorySize < t.MinHistory {
		return fmt.Errorf("history size %d is smaller than min history %d", t.HistorySize, t.MinHistory)
	}
	if t.MinFlips < 1 {
		return fmt.Errorf("min flips must be at least 1, got %d", t.MinFlips)
	}
	if t.MinVisibility < 0 || t.MinVisibility > 1 {
		return fmt.Errorf("min visibility must be within [0,1], got %f", t.MinVisibility)
	}
	if t.AlternationGain <= 0 || t.AlternationDecay <= 0 {
		return fmt.Errorf("alternation gain and decay must be positive")
	}
	if t.SustainFrames <= 0 {
		return fmt.Errorf("sustain frames must be positive, got %d", t.SustainFrames)
	}

	return nil
}
