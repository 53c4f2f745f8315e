package gesture

import (
	"math"
	"reflect"
	"testing"

	"github.com/ayusman/emotereactor/internal/detector"
)

const epsilon = 1e-9

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultOptions())
	if err != nil {
		t.Fatalf("NewClassifier() error = %v", err)
	}
	return c
}

// wristFrame returns a neutral face with both hands low and away from the
// face at the given heights.
func wristFrame(leftY, rightY float64) detector.DetectionFrame {
	return detector.DetectionFrame{
		Face: detector.NeutralFace(),
		Pose: detector.WristsAt(
			detector.Point{X: 0.2, Y: leftY, Visibility: 0.9},
			detector.Point{X: 0.8, Y: rightY, Visibility: 0.9},
		),
	}
}

func TestClassifier_RuleOrder(t *testing.T) {
	c := newTestClassifier(t)

	want := []Label{LabelJawline, LabelGoblinCrying, LabelKingLaughing, LabelSixSeven}
	if got := c.RuleOrder(); !reflect.DeepEqual(got, want) {
		t.Errorf("RuleOrder() = %v, want %v", got, want)
	}
}

func TestClassifier_MissingLandmarks(t *testing.T) {
	frames := map[string]detector.DetectionFrame{
		"no face":    {Pose: detector.RestingPose()},
		"no pose":    {Face: detector.NeutralFace()},
		"no nothing": {},
	}

	for name, frame := range frames {
		t.Run(name, func(t *testing.T) {
			c := newTestClassifier(t)

			// Build up some history and start the six-seven timer
			c.Evaluate(wristFrame(0.90, 0.90))
			c.Evaluate(wristFrame(0.89, 0.91))
			before := c.Snapshot()
			if before.SixSevenTimer == 0 {
				t.Fatal("expected the six-seven timer to be running before the gap")
			}

			label, metrics := c.Evaluate(frame)

			if label != LabelNeutral {
				t.Errorf("label = %s, want %s", label, LabelNeutral)
			}
			if metrics != (DebugMetrics{}) {
				t.Errorf("expected zero metrics, got %+v", metrics)
			}
			if after := c.Snapshot(); !reflect.DeepEqual(before, after) {
				t.Errorf("state changed across a missing frame:\nbefore %+v\nafter  %+v", before, after)
			}
		})
	}
}

func TestClassifier_AbsenceReset(t *testing.T) {
	opts := DefaultOptions()
	opts.Absence = AbsenceReset
	c, err := NewClassifier(opts)
	if err != nil {
		t.Fatalf("NewClassifier() error = %v", err)
	}

	c.Evaluate(wristFrame(0.90, 0.90))
	c.Evaluate(wristFrame(0.89, 0.91))
	historyLen := len(c.Snapshot().History)

	label, _ := c.Evaluate(detector.DetectionFrame{})
	if label != LabelNeutral {
		t.Errorf("label = %s, want %s", label, LabelNeutral)
	}

	state := c.Snapshot()
	if state.SixSevenTimer != 0 {
		t.Errorf("timer = %d, want 0 after a gap with the reset policy", state.SixSevenTimer)
	}
	if state.AlternationScore != 0 {
		t.Errorf("alternation score = %d, want 0", state.AlternationScore)
	}
	if len(state.History) != historyLen {
		t.Errorf("history length = %d, want %d", len(state.History), historyLen)
	}
	if !state.HasPrev {
		t.Error("previous wrist heights should survive a gap")
	}

	// The next complete frame must not be six-seven
	if label, _ := c.Evaluate(wristFrame(0.89, 0.91)); label != LabelNeutral {
		t.Errorf("label after gap = %s, want %s", label, LabelNeutral)
	}
}

func TestMouthRatio(t *testing.T) {
	t.Run("scale invariant", func(t *testing.T) {
		face := detector.LaughingFace()
		base := MouthRatio(face)

		for _, k := range []float64{0.5, 2, 3.7} {
			if got := MouthRatio(face.Scale(k)); math.Abs(got-base) > epsilon {
				t.Errorf("MouthRatio scaled by %f = %f, want %f", k, got, base)
			}
		}
	})

	t.Run("known value", func(t *testing.T) {
		if got := MouthRatio(detector.LaughingFace()); math.Abs(got-0.4) > epsilon {
			t.Errorf("MouthRatio() = %f, want 0.4", got)
		}
	})

	t.Run("zero width", func(t *testing.T) {
		face := detector.LaughingFace()
		face.Points[detector.FaceMouthRight] = face.Points[detector.FaceMouthLeft]

		if got := MouthRatio(face); got != 0 {
			t.Errorf("MouthRatio() = %f, want 0 for degenerate mouth", got)
		}
	})
}

func TestClassifier_SingleRules(t *testing.T) {
	tests := []struct {
		name  string
		frame detector.DetectionFrame
		want  Label
	}{
		{name: "neutral", frame: detector.NeutralFrame(), want: LabelNeutral},
		{name: "laughing", frame: detector.LaughingFrame(), want: LabelKingLaughing},
		{name: "jawline", frame: detector.JawlineFrame(), want: LabelJawline},
		{
			name: "turned head without hand is not jawline",
			frame: detector.DetectionFrame{
				Face: detector.TurnedFace(),
				Pose: detector.WristsAt(
					detector.Point{X: 0.05, Y: 0.95, Visibility: 0.9},
					detector.Point{X: 0.95, Y: 1.10, Visibility: 0.9},
				),
			},
			want: LabelNeutral,
		},
		{
			name: "right hand within the wider chin radius",
			frame: detector.DetectionFrame{
				Face: detector.TurnedFace(),
				Pose: detector.WristsAt(
					detector.Point{X: 0.05, Y: 0.95, Visibility: 0.9},
					detector.Point{X: 0.50, Y: 1.10, Visibility: 0.9},
				),
			},
			want: LabelJawline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClassifier(t)
			if got, _ := c.Evaluate(tt.frame); got != tt.want {
				t.Errorf("Evaluate() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifier_JawlineBeatsLaughing(t *testing.T) {
	c := newTestClassifier(t)

	face := detector.TurnedFace()
	open := detector.LaughingFace()
	face.Points[detector.FaceUpperLip] = open.Points[detector.FaceUpperLip]
	face.Points[detector.FaceLowerLip] = open.Points[detector.FaceLowerLip]

	frame := detector.DetectionFrame{Face: face, Pose: detector.JawlineFrame().Pose}

	label, metrics := c.Evaluate(frame)
	if metrics.MouthRatio <= DefaultThresholds().MouthRatio {
		t.Fatalf("test frame should satisfy the laughing rule, mouth ratio = %f", metrics.MouthRatio)
	}
	if label != LabelJawline {
		t.Errorf("label = %s, want %s", label, LabelJawline)
	}
}

func TestClassifier_JawlineIgnoresOtherSignals(t *testing.T) {
	c := newTestClassifier(t)

	// Face angle 0.15 and the left wrist 0.2 below the chin, with the mouth
	// wide open and the wrists pumping in opposite directions.
	face := detector.LaughingFace()
	face.Points[detector.FaceLeftEdge] = detector.Point{X: 0.45, Y: 0.42, Visibility: 1}
	face.Points[detector.FaceRightEdge] = detector.Point{X: 0.60, Y: 0.42, Visibility: 1}

	heights := [][2]float64{{0.80, 0.90}, {0.78, 0.92}, {0.80, 0.90}, {0.78, 0.92}, {0.80, 0.90}}
	for i, h := range heights {
		pose := detector.WristsAt(
			detector.Point{X: 0.50, Y: h[0], Visibility: 0.9},
			detector.Point{X: 0.80, Y: h[1], Visibility: 0.9},
		)
		label, metrics := c.Evaluate(detector.DetectionFrame{Face: face, Pose: pose})

		if math.Abs(metrics.FaceAngle-0.15) > epsilon {
			t.Fatalf("frame %d: face angle = %f, want 0.15", i, metrics.FaceAngle)
		}
		if label != LabelJawline {
			t.Errorf("frame %d: label = %s, want %s", i, label, LabelJawline)
		}
	}

	// Jawline fires before the history and six-seven rules run
	state := c.Snapshot()
	if len(state.History) != 0 {
		t.Errorf("history length = %d, want 0", len(state.History))
	}
	if state.HasPrev {
		t.Error("previous wrist heights should not be recorded while jawline fires")
	}
}

func TestClassifier_GoblinCrying(t *testing.T) {
	t.Run("oscillating wrist near the eye", func(t *testing.T) {
		c := newTestClassifier(t)

		heights := []float64{0.5, 0.3, 0.5, 0.3}
		var last Label
		for i, y := range heights {
			label, metrics := c.Evaluate(detector.EyeRubFrame(y))
			if metrics.LeftEyeDist >= DefaultThresholds().EyeDistance {
				t.Fatalf("frame %d: left eye distance = %f, want near", i, metrics.LeftEyeDist)
			}
			if i < len(heights)-1 && label == LabelGoblinCrying {
				t.Errorf("frame %d: goblin crying fired before the history filled", i)
			}
			last = label
		}

		if last != LabelGoblinCrying {
			t.Errorf("label = %s, want %s", last, LabelGoblinCrying)
		}
	})

	t.Run("still wrist near the eye", func(t *testing.T) {
		c := newTestClassifier(t)

		for i := 0; i < 6; i++ {
			label, metrics := c.Evaluate(detector.EyeRubFrame(0.40))
			if label == LabelGoblinCrying {
				t.Errorf("frame %d: goblin crying fired without motion", i)
			}
			if metrics.Oscillating {
				t.Errorf("frame %d: oscillation reported without motion", i)
			}
		}
	})

	t.Run("oscillating wrist away from the eyes", func(t *testing.T) {
		c := newTestClassifier(t)

		for i, y := range []float64{0.90, 0.80, 0.90, 0.80, 0.90} {
			if label, _ := c.Evaluate(wristFrame(y, 0.90)); label == LabelGoblinCrying {
				t.Errorf("frame %d: goblin crying fired with hands far from the eyes", i)
			}
		}
	})

	t.Run("beats laughing", func(t *testing.T) {
		c := newTestClassifier(t)

		var last Label
		for _, y := range []float64{0.5, 0.3, 0.5, 0.3} {
			frame := detector.EyeRubFrame(y)
			frame.Face = detector.LaughingFace()
			last, _ = c.Evaluate(frame)
		}
		if last != LabelGoblinCrying {
			t.Errorf("label = %s, want %s", last, LabelGoblinCrying)
		}
	})
}

func TestClassifier_SixSevenTrigger(t *testing.T) {
	c := newTestClassifier(t)

	// Left up / right down by 0.01, then reversed, for four frames
	frames := []detector.DetectionFrame{
		wristFrame(0.90, 0.90),
		wristFrame(0.89, 0.91),
		wristFrame(0.90, 0.90),
		wristFrame(0.89, 0.91),
	}

	label, _ := c.Evaluate(frames[0])
	if label != LabelNeutral {
		t.Errorf("first frame label = %s, want %s (no previous heights)", label, LabelNeutral)
	}

	label, metrics := c.Evaluate(frames[1])
	if label != LabelSixSeven {
		t.Errorf("second frame label = %s, want %s", label, LabelSixSeven)
	}
	if metrics.SixSevenTimer != DefaultThresholds().SustainFrames-1 {
		t.Errorf("timer = %d, want %d", metrics.SixSevenTimer, DefaultThresholds().SustainFrames-1)
	}
	if metrics.AlternationScore != 0 {
		t.Errorf("alternation score = %d, want 0 after the trigger", metrics.AlternationScore)
	}

	for i, f := range frames[2:] {
		label, metrics := c.Evaluate(f)
		if label != LabelSixSeven {
			t.Errorf("frame %d label = %s, want %s", i+2, label, LabelSixSeven)
		}
		if metrics.SixSevenTimer != DefaultThresholds().SustainFrames-1 {
			t.Errorf("frame %d timer = %d, want re-triggered %d", i+2, metrics.SixSevenTimer, DefaultThresholds().SustainFrames-1)
		}
	}
}

func TestClassifier_SixSevenSustain(t *testing.T) {
	c := newTestClassifier(t)

	c.Evaluate(wristFrame(0.90, 0.90))

	// One alternating frame starts the timer, then the hands stay still
	sixSeven := 0
	label, _ := c.Evaluate(wristFrame(0.89, 0.91))
	for label == LabelSixSeven {
		sixSeven++
		if sixSeven > 100 {
			t.Fatal("six-seven never ended")
		}
		label, _ = c.Evaluate(wristFrame(0.89, 0.91))
	}

	if sixSeven != 20 {
		t.Errorf("six-seven lasted %d frames, want 20", sixSeven)
	}
	if label != LabelNeutral {
		t.Errorf("label after sustain = %s, want %s", label, LabelNeutral)
	}
	if timer := c.Snapshot().SixSevenTimer; timer != 0 {
		t.Errorf("timer = %d, want 0", timer)
	}
}

func TestClassifier_SameDirectionDoesNotScore(t *testing.T) {
	c := newTestClassifier(t)

	heights := [][2]float64{{0.90, 0.90}, {0.88, 0.88}, {0.90, 0.90}, {0.88, 0.88}, {0.90, 0.90}}
	for i, h := range heights {
		label, metrics := c.Evaluate(wristFrame(h[0], h[1]))
		if label != LabelNeutral {
			t.Errorf("frame %d label = %s, want %s", i, label, LabelNeutral)
		}
		if metrics.AlternationScore != 0 {
			t.Errorf("frame %d alternation score = %d, want 0", i, metrics.AlternationScore)
		}
	}
}

func TestClassifier_AlternationScoreFloor(t *testing.T) {
	c := newTestClassifier(t)

	for i := 0; i < 50; i++ {
		_, metrics := c.Evaluate(wristFrame(0.90, 0.90))
		if metrics.AlternationScore < 0 {
			t.Fatalf("frame %d: alternation score went negative: %d", i, metrics.AlternationScore)
		}
	}
	if score := c.Snapshot().AlternationScore; score != 0 {
		t.Errorf("alternation score = %d, want 0", score)
	}
}

func TestClassifier_SixSevenVisibilityGate(t *testing.T) {
	c := newTestClassifier(t)

	c.Evaluate(wristFrame(0.90, 0.90))
	c.Evaluate(wristFrame(0.89, 0.91))
	timer := c.Snapshot().SixSevenTimer

	// Hide the right wrist while still alternating
	frame := wristFrame(0.90, 0.90)
	frame.Pose.Points[detector.PoseRightWrist].Visibility = 0.3

	label, metrics := c.Evaluate(frame)
	if label != LabelSixSeven {
		t.Errorf("label = %s, want %s while the timer runs", label, LabelSixSeven)
	}
	if metrics.AlternationScore != 0 {
		t.Errorf("alternation score = %d, want 0 with a hidden wrist", metrics.AlternationScore)
	}
	if metrics.SixSevenTimer != timer-1 {
		t.Errorf("timer = %d, want %d (gate must not reset it)", metrics.SixSevenTimer, timer-1)
	}
	if metrics.RightWristVisibility != 0.3 {
		t.Errorf("right wrist visibility = %f, want 0.3", metrics.RightWristVisibility)
	}

	state := c.Snapshot()
	if state.PrevLeftY != 0.90 || state.PrevRightY != 0.90 {
		t.Errorf("previous heights = (%f, %f), want (0.90, 0.90)", state.PrevLeftY, state.PrevRightY)
	}
}

func TestClassifier_HistoryCapacity(t *testing.T) {
	c := newTestClassifier(t)

	for i := 0; i < 10; i++ {
		c.Evaluate(wristFrame(0.90+float64(i)*0.001, 0.90))
	}

	history := c.Snapshot().History
	if len(history) != DefaultThresholds().HistorySize {
		t.Fatalf("history length = %d, want %d", len(history), DefaultThresholds().HistorySize)
	}
	if math.Abs(history[len(history)-1].LeftY-0.909) > epsilon {
		t.Errorf("newest sample = %f, want 0.909", history[len(history)-1].LeftY)
	}
	if math.Abs(history[0].LeftY-0.904) > epsilon {
		t.Errorf("oldest sample = %f, want 0.904", history[0].LeftY)
	}
}

func TestClassifier_Metrics(t *testing.T) {
	c := newTestClassifier(t)

	_, metrics := c.Evaluate(detector.NeutralFrame())

	if !metrics.Present {
		t.Error("expected metrics to be present for a complete frame")
	}
	if math.Abs(metrics.MouthRatio-0.1) > epsilon {
		t.Errorf("mouth ratio = %f, want 0.1", metrics.MouthRatio)
	}
	if math.Abs(metrics.FaceAngle-0.3) > epsilon {
		t.Errorf("face angle = %f, want 0.3", metrics.FaceAngle)
	}
	if metrics.LeftEyeDist <= 0 || metrics.RightEyeDist <= 0 {
		t.Errorf("eye distances = (%f, %f), want positive", metrics.LeftEyeDist, metrics.RightEyeDist)
	}
	if metrics.LeftWristVisibility != 0.9 || metrics.RightWristVisibility != 0.9 {
		t.Errorf("wrist visibility = (%f, %f), want (0.9, 0.9)", metrics.LeftWristVisibility, metrics.RightWristVisibility)
	}
}

func TestNewClassifier_InvalidThresholds(t *testing.T) {
	opts := DefaultOptions()
	opts.Thresholds.HistorySize = 2

	if _, err := NewClassifier(opts); err == nil {
		t.Error("expected error for history smaller than the oscillation window")
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	a := newTestClassifier(t)
	b := newTestClassifier(t)

	a.Evaluate(wristFrame(0.90, 0.90))
	a.Evaluate(wristFrame(0.89, 0.91))

	if label, _ := b.Evaluate(wristFrame(0.89, 0.91)); label != LabelNeutral {
		t.Errorf("second classifier label = %s, want %s", label, LabelNeutral)
	}
	if b.Snapshot().SixSevenTimer != 0 {
		t.Error("classifiers should not share state")
	}
}
