package gesture

import (
	"math"

	"github.com/ayusman/emotereactor/internal/detector"
)

// AbsencePolicy decides what a frame without face or pose landmarks does to
// the six-seven accumulators.
type AbsencePolicy string

const (
	// AbsencePause leaves every accumulator untouched, so a running
	// six-seven timer resumes where it stopped once landmarks return.
	AbsencePause AbsencePolicy = "pause"
	// AbsenceReset clears the alternation score and the six-seven timer.
	// Wrist history and the previous wrist heights are kept.
	AbsenceReset AbsencePolicy = "reset"
)

// ParseAbsencePolicy converts a string into an AbsencePolicy.
func ParseAbsencePolicy(s string) (AbsencePolicy, bool) {
	switch AbsencePolicy(s) {
	case AbsencePause, AbsenceReset:
		return AbsencePolicy(s), true
	}
	return "", false
}

// Options configures a Classifier.
type Options struct {
	Thresholds Thresholds
	Absence    AbsencePolicy
}

// DefaultOptions returns the calibrated thresholds with the pause policy.
func DefaultOptions() Options {
	return Options{
		Thresholds: DefaultThresholds(),
		Absence:    AbsencePause,
	}
}

// classifierState is the temporal memory carried between frames.
type classifierState struct {
	history          *motionHistory
	prevLeftY        float64
	prevRightY       float64
	hasPrev          bool
	alternationScore int
	sixSevenTimer    int
}

// observation is the per-frame view the rules read from.
type observation struct {
	face       *detector.FaceLandmarks
	pose       *detector.PoseLandmarks
	leftWrist  detector.Point
	rightWrist detector.Point
}

// rule is one link of the decision chain. The first rule that reports a
// match decides the frame's label.
type rule struct {
	label Label
	apply func(o *observation) (Label, bool)
}

// Classifier evaluates landmark frames with a fixed, ordered rule chain:
// jawline, goblin crying, king laughing, then six-seven (which also yields
// neutral). A Classifier holds the state of exactly one tracked session and
// must only be driven from one goroutine.
type Classifier struct {
	thresholds Thresholds
	absence    AbsencePolicy
	state      classifierState
	rules      []rule
}

// NewClassifier creates a Classifier with the given options.
func NewClassifier(opts Options) (*Classifier, error) {
	if err := opts.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if opts.Absence == "" {
		opts.Absence = AbsencePause
	}

	c := &Classifier{
		thresholds: opts.Thresholds,
		absence:    opts.Absence,
		state: classifierState{
			history: newMotionHistory(opts.Thresholds.HistorySize),
		},
	}
	c.rules = []rule{
		{LabelJawline, c.jawline},
		{LabelGoblinCrying, c.goblinCrying},
		{LabelKingLaughing, c.kingLaughing},
		{LabelSixSeven, c.sixSeven},
	}
	return c, nil
}

// RuleOrder returns the labels of the decision chain in evaluation order.
func (c *Classifier) RuleOrder() []Label {
	order := make([]Label, len(c.rules))
	for i, r := range c.rules {
		order[i] = r.label
	}
	return order
}

// Evaluate classifies one frame and returns the label together with the
// debug metrics observed for it. A frame missing either landmark set is
// neutral and leaves the history untouched.
func (c *Classifier) Evaluate(frame detector.DetectionFrame) (Label, DebugMetrics) {
	if !frame.Complete() {
		if c.absence == AbsenceReset {
			c.state.alternationScore = 0
			c.state.sixSevenTimer = 0
		}
		return LabelNeutral, DebugMetrics{}
	}

	o := &observation{
		face:       frame.Face,
		pose:       frame.Pose,
		leftWrist:  frame.Pose.Points[detector.PoseLeftWrist],
		rightWrist: frame.Pose.Points[detector.PoseRightWrist],
	}

	label := LabelNeutral
	for _, r := range c.rules {
		if l, ok := r.apply(o); ok {
			label = l
			break
		}
	}

	return label, c.metrics(o)
}

// Snapshot returns a copy of the temporal state.
func (c *Classifier) Snapshot() State {
	return State{
		History:          c.state.history.Samples(),
		PrevLeftY:        c.state.prevLeftY,
		PrevRightY:       c.state.prevRightY,
		HasPrev:          c.state.hasPrev,
		AlternationScore: c.state.alternationScore,
		SixSevenTimer:    c.state.sixSevenTimer,
	}
}

// State is a read-only copy of the classifier's temporal memory.
type State struct {
	History          []WristSample
	PrevLeftY        float64
	PrevRightY       float64
	HasPrev          bool
	AlternationScore int
	SixSevenTimer    int
}

func (c *Classifier) jawline(o *observation) (Label, bool) {
	chin := o.face.Points[detector.FaceChin]

	turned := FaceAngle(o.face) < c.thresholds.MaxFaceAngle
	handOnJaw := detector.Distance(o.leftWrist, chin) < c.thresholds.LeftChinDistance ||
		detector.Distance(o.rightWrist, chin) < c.thresholds.RightChinDistance

	return LabelJawline, turned && handOnJaw
}

func (c *Classifier) goblinCrying(o *observation) (Label, bool) {
	leftEye, rightEye := eyeDistances(o)
	nearEyes := leftEye < c.thresholds.EyeDistance || rightEye < c.thresholds.EyeDistance

	c.state.history.Push(WristSample{LeftY: o.leftWrist.Y, RightY: o.rightWrist.Y})

	return LabelGoblinCrying, nearEyes && c.state.history.oscillating(c.thresholds)
}

func (c *Classifier) kingLaughing(o *observation) (Label, bool) {
	return LabelKingLaughing, MouthRatio(o.face) > c.thresholds.MouthRatio
}

// sixSeven always matches: it emits six-seven while the sustain timer runs
// and neutral otherwise.
func (c *Classifier) sixSeven(o *observation) (Label, bool) {
	t := c.thresholds
	s := &c.state
	lw, rw := o.leftWrist, o.rightWrist

	if lw.Visibility > t.MinVisibility && rw.Visibility > t.MinVisibility && s.hasPrev {
		leftUp := lw.Y < s.prevLeftY-t.StepDelta
		leftDown := lw.Y > s.prevLeftY+t.StepDelta
		rightUp := rw.Y < s.prevRightY-t.StepDelta
		rightDown := rw.Y > s.prevRightY+t.StepDelta

		alternating := (leftUp && rightDown) || (leftDown && rightUp)
		sameDirection := (leftUp && rightUp) || (leftDown && rightDown)

		if alternating && !sameDirection {
			s.alternationScore += t.AlternationGain
		} else {
			s.alternationScore = max(0, s.alternationScore-t.AlternationDecay)
		}

		if s.alternationScore > t.AlternationLimit {
			s.sixSevenTimer = t.SustainFrames
			s.alternationScore = 0
		}
	} else {
		s.alternationScore = 0
	}

	s.prevLeftY, s.prevRightY = lw.Y, rw.Y
	s.hasPrev = true

	if s.sixSevenTimer > 0 {
		s.sixSevenTimer--
		return LabelSixSeven, true
	}
	return LabelNeutral, true
}

// MouthRatio returns the vertical lip gap divided by the mouth width, or 0
// when the mouth corners coincide.
func MouthRatio(face *detector.FaceLandmarks) float64 {
	gap := detector.Distance(face.Points[detector.FaceUpperLip], face.Points[detector.FaceLowerLip])
	width := detector.Distance(face.Points[detector.FaceMouthLeft], face.Points[detector.FaceMouthRight])
	if width == 0 {
		return 0
	}
	return gap / width
}

// FaceAngle returns the horizontal spread of the face edges. It shrinks as
// the head turns away from the camera.
func FaceAngle(face *detector.FaceLandmarks) float64 {
	return math.Abs(face.Points[detector.FaceLeftEdge].X - face.Points[detector.FaceRightEdge].X)
}

func eyeDistances(o *observation) (left, right float64) {
	left = detector.Distance(o.leftWrist, o.face.Points[detector.FaceLeftEye])
	right = detector.Distance(o.rightWrist, o.face.Points[detector.FaceRightEye])
	return left, right
}
