package gesture

import "time"

// DefaultSwitchDelay is the minimum dwell time between accepted label changes.
const DefaultSwitchDelay = 800 * time.Millisecond

// Debouncer holds the displayed label and only lets a different label
// through once the previous one has been shown for longer than the delay.
// It is independent of the classifier state.
type Debouncer struct {
	current    Label
	lastSwitch time.Time
	delay      time.Duration
	now        func() time.Time
}

// NewDebouncer creates a Debouncer showing neutral. The first differing
// label is accepted immediately.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay < 0 {
		delay = 0
	}
	return &Debouncer{
		current: LabelNeutral,
		delay:   delay,
		now:     time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (d *Debouncer) SetClock(now func() time.Time) {
	d.now = now
}

// Offer proposes a candidate label and returns the label to display and
// whether it changed on this call.
func (d *Debouncer) Offer(candidate Label) (Label, bool) {
	if candidate == d.current {
		return d.current, false
	}

	now := d.now()
	if !d.lastSwitch.IsZero() && now.Sub(d.lastSwitch) <= d.delay {
		return d.current, false
	}

	d.current = candidate
	d.lastSwitch = now
	return d.current, true
}

// Current returns the displayed label.
func (d *Debouncer) Current() Label {
	return d.current
}

// LastSwitch returns when the displayed label last changed, or the zero
// time if it never has.
func (d *Debouncer) LastSwitch() time.Time {
	return d.lastSwitch
}
