package model

import "time"

// Live session phases.  There is no persisted intermediate phase: a
// start either commits to LIVE or leaves the row IDLE.
const (
	PhaseIdle = "IDLE"
	PhaseLive = "LIVE"
)

// LiveSession is the single authoritative record of a course's broadcast
// state.  Exactly one row exists per course, created with the course and
// deleted with it.  Only the state machine mutates it, always through a
// conditional update on Phase so that concurrent starts and stops are
// linearizable.
//
// ChannelName is assigned on the first successful start and then never
// regenerated: the broadcast room at the media provider stays addressable
// under the same name for the course's lifetime.  RTCToken is present
// only while the phase is LIVE.
//
// Fields:
//  CourseID    – owning course (also the primary key).
//  ChannelName – stable media-room channel; nil until first start.
//  Phase       – IDLE or LIVE.
//  RTCToken    – short-lived publisher credential; nil while idle.
//  UpdatedAt   – last transition timestamp.
type LiveSession struct {
	CourseID    uint64    // live_sessions.course_id
	ChannelName *string   // live_sessions.channel_name (nullable)
	Phase       string    // live_sessions.phase
	RTCToken    *string   // live_sessions.rtc_token (nullable)
	UpdatedAt   time.Time // live_sessions.updated_at
}
