// Package session implements the live-session orchestration core: the
// pure start-window evaluator, the per-course session state machine and
// the reconciliation sweep.  Storage and the media-room provider sit
// behind narrow interfaces so the engine stays testable and the
// concurrency guarantees live in the storage layer, not in process
// memory.
//
// This file defines the error taxonomy shared by the engine, the sweep
// and the repositories.  Expected conflicts (already live, already
// booked, course full, not live) are sentinel values that callers branch
// on with errors.Is; timing failures carry data so handlers can render
// actionable messages.
package session

import (
	"errors"
	"fmt"
	"time"
)

// ErrCourseNotFound is returned when the referenced course does not
// exist.  Handlers should translate this into an HTTP 404 response.
var ErrCourseNotFound = errors.New("course not found")

// ErrNotLiveFormat is returned when an orchestration operation targets
// a course that is not configured for live delivery.
var ErrNotLiveFormat = errors.New("course does not support live sessions")

// ErrNoSchedule is returned when no schedule entry falls inside the
// relevant start window.
var ErrNoSchedule = errors.New("no upcoming schedule within the start window")

// ErrGraceExpired is returned when the grace window after the scheduled
// start has already elapsed.
var ErrGraceExpired = errors.New("start window has expired")

// ErrAlreadyLive is returned when a start races against an existing
// live broadcast on the same course.  Exactly one concurrent start
// observes success; the rest observe this error.
var ErrAlreadyLive = errors.New("live session already in progress")

// ErrNotLive is returned when a stop finds the course idle.  A second
// stop on the same session is a safe no-op reported through this value.
var ErrNotLive = errors.New("no live session in progress")

// ErrForbidden is returned when the requester may not perform the
// operation: starting or stopping someone else's course, or joining a
// broadcast without holding a seat.
var ErrForbidden = errors.New("forbidden")

// ErrAlreadyBooked is returned when the identity already holds a seat
// in the course.  At most one booking per (user, course) ever exists.
var ErrAlreadyBooked = errors.New("already booked")

// ErrCourseFull is returned when the course's seat ceiling is reached.
var ErrCourseFull = errors.New("course is full")

// ErrBookingNotFound is returned by Confirm when the referenced booking
// record does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrInvalidCapacity is returned when a caller submits a non-positive
// seat ceiling.  Rejected before any state is touched.
var ErrInvalidCapacity = errors.New("max participants must be a positive integer")

// ErrMediaIdentity is returned when a user id cannot be represented in
// the media gateway's 32-bit identity space.  Issuing a credential with
// a truncated uid would let two distinct users collide in the room, so
// ids beyond the range are rejected outright.
var ErrMediaIdentity = errors.New("user id exceeds media identity range")

// ErrProvider wraps failures of the media-room provider during
// credential issuance.  A start that hits this error persists nothing;
// retrying is the caller's decision.
var ErrProvider = errors.New("media provider failure")

// TooEarlyError is returned when a start is attempted before the grace
// window opens.  Wait carries the remaining time so handlers can tell
// the caller when the session becomes startable.
type TooEarlyError struct {
	Wait time.Duration
}

func (e *TooEarlyError) Error() string {
	return fmt.Sprintf("session not startable yet; opens in %s", e.Wait.Round(time.Second))
}
