package viz

import "time"

type timerState int

const (
	timerIdle timerState = iota
	timerArmed
	timerFiring
)

// Timer is a self-rescheduling periodic callback. The next deadline is
// computed only after the callback returns, so a slow callback delays
// the following fire but two runs of the same timer never overlap, and
// there is no burst to catch up after a stall.
type Timer struct {
	state    timerState
	period   time.Duration
	deadline time.Time
	fn       func()
	now      func() time.Time
}

// NewTimer creates an idle timer. Arm starts it.
func NewTimer(period time.Duration, fn func()) *Timer {
	return &Timer{period: period, fn: fn, now: time.Now}
}

// Arm transitions idle -> armed and sets the first deadline. Arming a
// timer that is already armed or firing is a no-op: there is never
// more than one armed instance of the same logical timer.
func (t *Timer) Arm() {
	if t.state != timerIdle {
		return
	}
	t.state = timerArmed
	t.deadline = t.now().Add(t.period)
}

// Stop disarms the timer.
func (t *Timer) Stop() {
	if t.state == timerArmed {
		t.state = timerIdle
	}
}

// Armed reports whether the timer is scheduled to fire.
func (t *Timer) Armed() bool { return t.state != timerIdle }

// Poll runs the callback if the deadline has passed, then re-arms for
// the post-callback time plus one period. Returns whether the callback
// ran.
func (t *Timer) Poll() bool {
	if t.state != timerArmed || t.now().Before(t.deadline) {
		return false
	}
	t.state = timerFiring
	t.fn()
	t.state = timerArmed
	t.deadline = t.now().Add(t.period)
	return true
}
