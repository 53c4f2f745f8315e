// Package overlay composes the camera view and the emote pane into the
// displayed frame and draws the label and debug text onto it.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/emotereactor/internal/gesture"
)

var (
	labelColor  = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	headerColor = color.RGBA{R: 0, G: 255, B: 255, A: 0}
	lineColor   = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// Text placement in pixels.
const (
	labelX       = 20
	labelY       = 40
	debugStartY  = 80
	headerStep   = 25
	debugLineGap = 20
)

// Renderer draws frames against a fixed set of thresholds, which the debug
// lines print next to each metric.
type Renderer struct {
	thresholds gesture.Thresholds
}

// NewRenderer creates a Renderer.
func NewRenderer(t gesture.Thresholds) *Renderer {
	return &Renderer{thresholds: t}
}

// Compose places camera on the left and emote on the right, resizing the
// emote to the camera size. A nil or empty emote mirrors the camera frame
// into the right pane. The caller owns the returned Mat.
func (r *Renderer) Compose(camera gocv.Mat, emote *gocv.Mat, label gesture.Label, m gesture.DebugMetrics, debug bool) gocv.Mat {
	right := gocv.NewMat()
	defer right.Close()

	size := image.Pt(camera.Cols(), camera.Rows())
	switch {
	case emote == nil || emote.Empty():
		camera.CopyTo(&right)
	case emote.Cols() == size.X && emote.Rows() == size.Y:
		emote.CopyTo(&right)
	default:
		gocv.Resize(*emote, &right, size, 0, 0, gocv.InterpolationLinear)
	}

	combined := gocv.NewMat()
	gocv.Hconcat(camera, right, &combined)

	gocv.PutText(&combined, label.String(), image.Pt(labelX, labelY),
		gocv.FontHersheySimplex, 1, labelColor, 2)

	if debug && m.Present {
		r.drawDebug(&combined, m)
	}

	return combined
}

func (r *Renderer) drawDebug(img *gocv.Mat, m gesture.DebugMetrics) {
	y := debugStartY
	gocv.PutText(img, "=== DEBUG ===", image.Pt(labelX, y),
		gocv.FontHersheySimplex, 0.5, headerColor, 1)
	y += headerStep

	for _, line := range r.DebugLines(m) {
		gocv.PutText(img, line, image.Pt(labelX, y),
			gocv.FontHersheySimplex, 0.4, lineColor, 1)
		y += debugLineGap
	}
}

// DebugLines formats each metric with the threshold that triggers its rule.
func (r *Renderer) DebugLines(m gesture.DebugMetrics) []string {
	t := r.thresholds
	return []string{
		fmt.Sprintf("Mouth: %.3f (>%.2f=laugh)", m.MouthRatio, t.MouthRatio),
		fmt.Sprintf("Face Angle: %.3f (<%.2f=turned)", m.FaceAngle, t.MaxFaceAngle),
		fmt.Sprintf("L Eye Dist: %.3f (<%.2f=cry)", m.LeftEyeDist, t.EyeDistance),
		fmt.Sprintf("R Eye Dist: %.3f (<%.2f=cry)", m.RightEyeDist, t.EyeDistance),
		fmt.Sprintf("Oscillating: %t", m.Oscillating),
		fmt.Sprintf("Alt Score: %d (>%d=trigger)", m.AlternationScore, t.AlternationLimit),
		fmt.Sprintf("Six Timer: %d", m.SixSevenTimer),
		fmt.Sprintf("L/R Wrist Vis: %.2f / %.2f (>%.2f)", m.LeftWristVisibility, m.RightWristVisibility, t.MinVisibility),
	}
}
