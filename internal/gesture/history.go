package gesture

import "math"

// WristSample is one frame of wrist heights.
type WristSample struct {
	LeftY  float64
	RightY float64
}

// motionHistory is a bounded FIFO of recent wrist heights. The oldest sample
// is evicted once the capacity is reached.
type motionHistory struct {
	samples  []WristSample
	capacity int
}

func newMotionHistory(capacity int) *motionHistory {
	return &motionHistory{
		samples:  make([]WristSample, 0, capacity),
		capacity: capacity,
	}
}

// Push appends a sample, dropping the oldest when full.
func (h *motionHistory) Push(s WristSample) {
	if len(h.samples) >= h.capacity {
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:h.capacity-1]
	}
	h.samples = append(h.samples, s)
}

// Len returns the number of buffered samples.
func (h *motionHistory) Len() int {
	return len(h.samples)
}

// Samples returns a copy of the buffered samples, oldest first.
func (h *motionHistory) Samples() []WristSample {
	out := make([]WristSample, len(h.samples))
	copy(out, h.samples)
	return out
}

// oscillating reports whether either wrist reversed direction within the
// window with at least one step large enough to rule out jitter.
func (h *motionHistory) oscillating(t Thresholds) bool {
	if len(h.samples) < t.MinHistory {
		return false
	}

	left := make([]float64, len(h.samples))
	right := make([]float64, len(h.samples))
	for i, s := range h.samples {
		left[i] = s.LeftY
		right[i] = s.RightY
	}

	return streamOscillates(left, t) || streamOscillates(right, t)
}

// streamOscillates applies the flip and amplitude test to one coordinate stream.
func streamOscillates(seq []float64, t Thresholds) bool {
	if len(seq) < 2 {
		return false
	}

	diffs := make([]float64, len(seq)-1)
	for i := range diffs {
		diffs[i] = seq[i+1] - seq[i]
	}

	return countFlips(diffs) >= t.MinFlips && maxAbs(diffs) > t.MinAmplitude
}

// countFlips counts adjacent difference pairs with opposite signs.
func countFlips(diffs []float64) int {
	flips := 0
	for i := 0; i+1 < len(diffs); i++ {
		if diffs[i]*diffs[i+1] < 0 {
			flips++
		}
	}
	return flips
}

func maxAbs(values []float64) float64 {
	var m float64
	for _, v := range values {
		m = math.Max(m, math.Abs(v))
	}
	return m
}
