package session

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/coursehub/live-orchestrator/internal/media"
	"github.com/coursehub/live-orchestrator/internal/model"
)

// Config carries the orchestration policy knobs.  Grace windows come
// from configuration, not code: the observed defaults are 10 minutes
// before and 2 hours after the scheduled start.
type Config struct {
	GraceBefore     time.Duration // how early a session may start
	GraceAfter      time.Duration // how long after the start it stays startable
	CredentialTTL   time.Duration // lifetime of issued channel credentials
	ProviderTimeout time.Duration // bound on every media-provider call
	// RecordingSource, when non-empty, is the base URL the gateway pulls
	// finished broadcasts from; the channel name is appended.  Empty
	// disables recording archival on stop.
	RecordingSource string
}

// Engine owns the live-session lifecycle of every course.  It is safe
// for concurrent use: it keeps no mutable state of its own and relies
// on the stores' conditional updates and unique constraints for
// linearizability, so no lock is ever held across a provider or
// storage call.
type Engine struct {
	courses   CourseStore
	schedules ScheduleStore
	bookings  BookingStore
	live      LiveStore
	provider  media.Provider
	notifier  Notifier
	cfg       Config

	now func() time.Time // injectable clock for tests
}

// NewEngine wires the state machine to its collaborators.  A nil
// notifier is replaced with NopNotifier.
func NewEngine(courses CourseStore, schedules ScheduleStore, bookings BookingStore, live LiveStore, provider media.Provider, notifier Notifier, cfg Config) *Engine {
	if courses == nil || schedules == nil || bookings == nil || live == nil || provider == nil {
		panic("nil dependency passed to NewEngine")
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if cfg.GraceBefore <= 0 {
		cfg.GraceBefore = 10 * time.Minute
	}
	if cfg.GraceAfter <= 0 {
		cfg.GraceAfter = 2 * time.Hour
	}
	if cfg.CredentialTTL <= 0 {
		cfg.CredentialTTL = time.Hour
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 10 * time.Second
	}
	return &Engine{
		courses:   courses,
		schedules: schedules,
		bookings:  bookings,
		live:      live,
		provider:  provider,
		notifier:  notifier,
		cfg:       cfg,
		now:       time.Now,
	}
}

// StartOptions carries optional mutations submitted with a start
// request.  The owner may adjust the seat ceiling while opening the
// broadcast.
type StartOptions struct {
	MaxParticipants *uint32
}

// StartResult is everything a client needs to enter the media room.
type StartResult struct {
	Token     string    `json:"token"`
	Channel   string    `json:"channel_name"`
	AppID     string    `json:"app_id"`
	UID       uint32    `json:"uid"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Start handles POST on the live endpoint for both the owner and
// booked viewers.  The owner opens the broadcast: the schedule window
// is evaluated, a stable channel is assigned on first use, a publisher
// credential is issued, and only then is the phase committed IDLE ->
// LIVE through a conditional update — a failed issuance persists
// nothing.  Anyone else is treated as a viewer joining the running
// broadcast and receives a subscriber credential without any state
// change.
func (e *Engine) Start(ctx context.Context, courseID, requesterID uint64, opts StartOptions) (*StartResult, error) {
	course, err := e.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.CourseType != model.CourseTypeLive {
		return nil, ErrNotLiveFormat
	}
	sess, err := e.live.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if requesterID != course.OwnerID {
		return e.join(ctx, course, sess, requesterID)
	}
	if sess.Phase == model.PhaseLive {
		return nil, ErrAlreadyLive
	}

	now := e.now().UTC()
	sched, err := e.startCandidate(ctx, courseID, now)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, ErrNoSchedule
	}
	switch Evaluate(now, sched.ScheduledAt, e.cfg.GraceBefore, e.cfg.GraceAfter) {
	case WindowTooEarly:
		return nil, &TooEarlyError{Wait: sched.ScheduledAt.Add(-e.cfg.GraceBefore).Sub(now)}
	case WindowGraceExpired:
		return nil, ErrGraceExpired
	}

	if opts.MaxParticipants != nil {
		if *opts.MaxParticipants == 0 {
			return nil, ErrInvalidCapacity
		}
		if err := e.courses.SetMaxParticipants(ctx, courseID, *opts.MaxParticipants); err != nil {
			return nil, err
		}
	}

	channel, err := e.channelFor(ctx, sess, now)
	if err != nil {
		return nil, err
	}

	cred, err := e.issueCredential(ctx, channel, media.RolePublisher, 0)
	if err != nil {
		return nil, err
	}

	ok, err := e.live.MarkLive(ctx, courseID, cred.Token)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A concurrent start won the phase CAS after our checks.
		return nil, ErrAlreadyLive
	}
	log.Printf("session: course %d live on channel %s (schedule %d at %s)",
		courseID, channel, sched.ID, sched.ScheduledAt.Format(time.RFC3339))
	e.notifier.SessionStarted(ctx, courseID, channel)

	return &StartResult{
		Token:     cred.Token,
		Channel:   channel,
		AppID:     cred.AppID,
		UID:       cred.UID,
		ExpiresAt: cred.ExpiresAt,
	}, nil
}

// startCandidate picks the schedule entry a start attempt is judged
// against: the earliest startable entry wins, then the next future
// entry (yielding a too-early verdict with a concrete wait), then the
// most recent past one (yielding grace-expired).  Nil means the course
// has no schedules at all.
func (e *Engine) startCandidate(ctx context.Context, courseID uint64, now time.Time) (*model.Schedule, error) {
	sched, err := e.schedules.NextWithinWindow(ctx, courseID, now.Add(-e.cfg.GraceAfter), now.Add(e.cfg.GraceBefore))
	if err != nil || sched != nil {
		return sched, err
	}
	sched, err = e.schedules.NextAfter(ctx, courseID, now)
	if err != nil || sched != nil {
		return sched, err
	}
	return e.schedules.CurrentFor(ctx, courseID, now)
}

// join issues a subscriber credential to a booked viewer while the
// broadcast is live.  Viewers never mutate session state.
func (e *Engine) join(ctx context.Context, course *model.Course, sess *model.LiveSession, userID uint64) (*StartResult, error) {
	if course.MaxParticipants != nil {
		has, err := e.bookings.HasBooking(ctx, userID, course.ID)
		if err != nil {
			return nil, err
		}
		if !has {
			return nil, ErrForbidden
		}
		count, err := e.bookings.CountByCourse(ctx, course.ID)
		if err != nil {
			return nil, err
		}
		if count > *course.MaxParticipants {
			return nil, ErrCourseFull
		}
	}
	if sess.Phase != model.PhaseLive || sess.ChannelName == nil {
		// Only the owner opens a broadcast; viewers wait for one.
		return nil, ErrForbidden
	}
	uid, err := mediaUID(userID)
	if err != nil {
		return nil, err
	}
	cred, err := e.issueCredential(ctx, *sess.ChannelName, media.RoleSubscriber, uid)
	if err != nil {
		return nil, err
	}
	return &StartResult{
		Token:     cred.Token,
		Channel:   *sess.ChannelName,
		AppID:     cred.AppID,
		UID:       cred.UID,
		ExpiresAt: cred.ExpiresAt,
	}, nil
}

// Stop ends the owner's broadcast.  The LIVE -> IDLE transition commits
// first through the phase CAS; provider teardown and recording archival
// run after it and are best-effort, so a second concurrent stop simply
// observes NotLive and an unreachable provider never strands the state.
func (e *Engine) Stop(ctx context.Context, courseID, requesterID uint64) error {
	course, err := e.courses.GetByID(ctx, courseID)
	if err != nil {
		return err
	}
	if requesterID != course.OwnerID {
		return ErrForbidden
	}
	return e.endSession(ctx, course.Title, courseID, false)
}

// ForceStop is the reconciliation path: it ends a broadcast without an
// owner check.  Used by the sweep when the grace window expired with no
// explicit stop.
func (e *Engine) ForceStop(ctx context.Context, courseID uint64) error {
	course, err := e.courses.GetByID(ctx, courseID)
	if err != nil {
		return err
	}
	return e.endSession(ctx, course.Title, courseID, true)
}

func (e *Engine) endSession(ctx context.Context, title string, courseID uint64, forced bool) error {
	sess, err := e.live.Get(ctx, courseID)
	if err != nil {
		return err
	}
	if sess.Phase != model.PhaseLive {
		return ErrNotLive
	}
	ok, err := e.live.MarkIdle(ctx, courseID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotLive
	}

	channel := ""
	if sess.ChannelName != nil {
		channel = *sess.ChannelName
	}
	if channel != "" {
		cctx, cancel := context.WithTimeout(ctx, e.cfg.ProviderTimeout)
		if err := e.provider.Teardown(cctx, channel); err != nil {
			log.Printf("session: teardown of channel %s failed: %v", channel, err)
		}
		cancel()
		if e.cfg.RecordingSource != "" {
			cctx, cancel := context.WithTimeout(ctx, e.cfg.ProviderTimeout)
			if _, err := e.provider.ArchiveRecording(cctx, e.cfg.RecordingSource+channel, title); err != nil {
				log.Printf("session: recording archive for channel %s failed: %v", channel, err)
			}
			cancel()
		}
	}
	log.Printf("session: course %d back to idle (forced=%v)", courseID, forced)
	e.notifier.SessionEnded(ctx, courseID, channel, forced)
	return nil
}

// Status reports the externally observable live state of a course:
// phase, channel, capacity and the next scheduled meeting.  Other parts
// of the platform render UI from this.
type Status struct {
	CourseID        uint64     `json:"course_id"`
	Phase           string     `json:"phase"`
	ChannelName     *string    `json:"channel_name,omitempty"`
	MaxParticipants *uint32    `json:"max_participants,omitempty"`
	SeatsTaken      uint32     `json:"seats_taken"`
	NextScheduledAt *time.Time `json:"next_scheduled_at,omitempty"`
}

// CourseStatus assembles the Status for one course.
func (e *Engine) CourseStatus(ctx context.Context, courseID uint64) (*Status, error) {
	course, err := e.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.CourseType != model.CourseTypeLive {
		return nil, ErrNotLiveFormat
	}
	sess, err := e.live.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	count, err := e.bookings.CountByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	st := &Status{
		CourseID:        courseID,
		Phase:           sess.Phase,
		ChannelName:     sess.ChannelName,
		MaxParticipants: course.MaxParticipants,
		SeatsTaken:      count,
	}
	next, err := e.schedules.NextAfter(ctx, courseID, e.now().UTC().Add(-e.cfg.GraceAfter))
	if err != nil {
		return nil, err
	}
	if next != nil {
		at := next.ScheduledAt
		st.NextScheduledAt = &at
	}
	return st, nil
}

// Book claims a seat for the user.  The atomic capacity check lives in
// the booking store; this layer adds the course-format gate and the
// immediate auto-unpublish when the last seat of a finished programme
// is taken.
func (e *Engine) Book(ctx context.Context, courseID, userID uint64) (*model.Booking, error) {
	course, err := e.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.CourseType != model.CourseTypeLive {
		return nil, ErrNotLiveFormat
	}
	booking, err := e.bookings.TryBook(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if course.MaxParticipants != nil && course.IsPublished {
		if err := e.unpublishIfFinished(ctx, course); err != nil {
			// The seat is already claimed; visibility correction is the
			// sweep's job if this attempt fails.
			log.Printf("booking: unpublish check for course %d failed: %v", courseID, err)
		}
	}
	return booking, nil
}

// Confirm promotes a provisional booking after payment succeeds.
func (e *Engine) Confirm(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	return e.bookings.Confirm(ctx, bookingID)
}

// unpublishIfFinished clears the visibility flag when the course is at
// capacity and every scheduled meeting lies in the past.
func (e *Engine) unpublishIfFinished(ctx context.Context, course *model.Course) error {
	count, err := e.bookings.CountByCourse(ctx, course.ID)
	if err != nil {
		return err
	}
	if count < *course.MaxParticipants {
		return nil
	}
	last, err := e.schedules.LastScheduledAt(ctx, course.ID)
	if err != nil {
		return err
	}
	if last != nil && last.After(e.now().UTC()) {
		return nil
	}
	if err := e.courses.SetPublished(ctx, course.ID, false); err != nil {
		return err
	}
	log.Printf("booking: course %d is full with no upcoming sessions, unpublished", course.ID)
	return nil
}

// channelFor returns the course's stable channel, assigning one on
// first use.  The generated name embeds the course id and a timestamp
// salt so names are never reused across courses; the store's
// conditional write decides the winner under concurrency.
func (e *Engine) channelFor(ctx context.Context, sess *model.LiveSession, now time.Time) (string, error) {
	if sess.ChannelName != nil && *sess.ChannelName != "" {
		return *sess.ChannelName, nil
	}
	generated := fmt.Sprintf("course_%d_%d", sess.CourseID, now.UnixMilli())
	return e.live.AssignChannel(ctx, sess.CourseID, generated)
}

// mediaUID maps a platform user id onto the provider's 32-bit uid
// space.  Ids outside the range are rejected rather than truncated,
// since a wrapped uid would collide with another viewer's identity.
func mediaUID(userID uint64) (uint32, error) {
	if userID > math.MaxUint32 {
		return 0, ErrMediaIdentity
	}
	return uint32(userID), nil
}

func (e *Engine) issueCredential(ctx context.Context, channel string, role media.Role, uid uint32) (*media.Credential, error) {
	cctx, cancel := context.WithTimeout(ctx, e.cfg.ProviderTimeout)
	defer cancel()
	cred, err := e.provider.IssueCredential(cctx, channel, role, uid, e.cfg.CredentialTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return cred, nil
}
