package session

import "time"

// Window classifies an instant relative to a scheduled start and its
// grace spans.  The evaluation is pure and deterministic, which lets
// the state machine and the reconciliation sweep share it and lets
// tests pin the boundaries exactly.
type Window int

const (
	// WindowTooEarly means now < scheduledStart - graceBefore.
	WindowTooEarly Window = iota
	// WindowStartable means scheduledStart - graceBefore <= now <= scheduledStart + graceAfter.
	WindowStartable
	// WindowGraceExpired means now > scheduledStart + graceAfter.
	WindowGraceExpired
)

// String returns a short lowercase label for logging.
func (w Window) String() string {
	switch w {
	case WindowTooEarly:
		return "too_early"
	case WindowStartable:
		return "startable"
	case WindowGraceExpired:
		return "grace_expired"
	}
	return "unknown"
}

// Evaluate maps the current time onto the start window of a scheduled
// meeting.  Both boundaries are inclusive on the startable side: a call
// exactly graceBefore ahead of the start or exactly graceAfter past it
// is still startable.
func Evaluate(now, scheduledStart time.Time, graceBefore, graceAfter time.Duration) Window {
	if now.Before(scheduledStart.Add(-graceBefore)) {
		return WindowTooEarly
	}
	if now.After(scheduledStart.Add(graceAfter)) {
		return WindowGraceExpired
	}
	return WindowStartable
}
