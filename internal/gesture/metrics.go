package gesture

import "github.com/ayusman/emotereactor/internal/detector"

// DebugMetrics holds the intermediate values of one evaluation. All fields
// are zero and Present is false when the frame lacked face or pose landmarks.
type DebugMetrics struct {
	Present              bool    `json:"present"`
	MouthRatio           float64 `json:"mouth_ratio"`
	FaceAngle            float64 `json:"face_angle"`
	LeftEyeDist          float64 `json:"left_eye_dist"`
	RightEyeDist         float64 `json:"right_eye_dist"`
	AlternationScore     int     `json:"alternation_score"`
	SixSevenTimer        int     `json:"six_seven_timer"`
	Oscillating          bool    `json:"oscillating"`
	LeftWristVisibility  float64 `json:"left_wrist_visibility"`
	RightWristVisibility float64 `json:"right_wrist_visibility"`
}

func (c *Classifier) metrics(o *observation) DebugMetrics {
	leftEye, rightEye := eyeDistances(o)

	return DebugMetrics{
		Present:              true,
		MouthRatio:           MouthRatio(o.face),
		FaceAngle:            FaceAngle(o.face),
		LeftEyeDist:          leftEye,
		RightEyeDist:         rightEye,
		AlternationScore:     c.state.alternationScore,
		SixSevenTimer:        c.state.sixSevenTimer,
		Oscillating:          c.state.history.oscillating(c.thresholds),
		LeftWristVisibility:  o.pose.Points[detector.PoseLeftWrist].Visibility,
		RightWristVisibility: o.pose.Points[detector.PoseRightWrist].Visibility,
	}
}
