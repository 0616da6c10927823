package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/coursehub/live-orchestrator/internal/model"
)

// Sweep is the periodic reconciliation task.  It is the system's only
// defense against a client that starts a broadcast and disappears:
// every interval it forces grace-expired live sessions back to idle and
// unpublishes full courses whose programme has fully elapsed.  It runs
// independently of request handling; each course's check is isolated,
// so one failure never halts a pass.
type Sweep struct {
	engine    *Engine
	courses   CourseStore
	schedules ScheduleStore
	bookings  BookingStore
	live      LiveStore
	interval  time.Duration

	now func() time.Time
}

// NewSweep builds a sweep over the same stores the engine uses.
func NewSweep(engine *Engine, courses CourseStore, schedules ScheduleStore, bookings BookingStore, live LiveStore, interval time.Duration) *Sweep {
	if interval <= 0 {
		interval = 45 * time.Second
	}
	return &Sweep{
		engine:    engine,
		courses:   courses,
		schedules: schedules,
		bookings:  bookings,
		live:      live,
		interval:  interval,
		now:       time.Now,
	}
}

// Run loops until the context is cancelled.  Each tick executes one
// full pass; errors are logged inside the pass, never returned.
func (s *Sweep) Run(ctx context.Context) {
	log.Printf("sweep: running every %s", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("sweep: stopped: %v", ctx.Err())
			return
		case <-ticker.C:
			s.Pass(ctx)
		}
	}
}

// Pass executes one reconciliation cycle.  Exported so operators and
// tests can trigger a sweep without waiting for the ticker.
func (s *Sweep) Pass(ctx context.Context) {
	s.reapExpired(ctx)
	s.unpublishFinished(ctx)
}

// reapExpired forces live sessions whose grace window has expired back
// to idle, exactly as an explicit stop would.
func (s *Sweep) reapExpired(ctx context.Context) {
	sessions, err := s.live.ListLive(ctx)
	if err != nil {
		log.Printf("sweep: list live sessions: %v", err)
		return
	}
	now := s.now().UTC()
	for _, sess := range sessions {
		expired, err := s.sessionExpired(ctx, sess, now)
		if err != nil {
			log.Printf("sweep: course %d: inspect: %v", sess.CourseID, err)
			continue
		}
		if !expired {
			continue
		}
		if err := s.engine.ForceStop(ctx, sess.CourseID); err != nil && !errors.Is(err, ErrNotLive) {
			log.Printf("sweep: course %d: force stop: %v", sess.CourseID, err)
			continue
		}
		log.Printf("sweep: course %d: grace window expired, session forced back to idle", sess.CourseID)
	}
}

// sessionExpired evaluates the live session against the schedule entry
// it most plausibly belongs to: the most recent start no further ahead
// than the pre-start grace.  A live session with no schedule entry at
// all is orphaned and treated as expired.
func (s *Sweep) sessionExpired(ctx context.Context, sess model.LiveSession, now time.Time) (bool, error) {
	cfg := s.engine.cfg
	sched, err := s.schedules.CurrentFor(ctx, sess.CourseID, now.Add(cfg.GraceBefore))
	if err != nil {
		return false, err
	}
	if sched == nil {
		return true, nil
	}
	return Evaluate(now, sched.ScheduledAt, cfg.GraceBefore, cfg.GraceAfter) == WindowGraceExpired, nil
}

// unpublishFinished clears the visibility flag of published, capped
// courses whose capacity is reached and whose schedules all lie in the
// past.
func (s *Sweep) unpublishFinished(ctx context.Context) {
	courses, err := s.courses.ListPublishedCapped(ctx)
	if err != nil {
		log.Printf("sweep: list capped courses: %v", err)
		return
	}
	now := s.now().UTC()
	for _, course := range courses {
		if course.MaxParticipants == nil {
			continue
		}
		count, err := s.bookings.CountByCourse(ctx, course.ID)
		if err != nil {
			log.Printf("sweep: course %d: count bookings: %v", course.ID, err)
			continue
		}
		if count < *course.MaxParticipants {
			continue
		}
		last, err := s.schedules.LastScheduledAt(ctx, course.ID)
		if err != nil {
			log.Printf("sweep: course %d: last schedule: %v", course.ID, err)
			continue
		}
		if last != nil && last.After(now) {
			continue
		}
		if err := s.courses.SetPublished(ctx, course.ID, false); err != nil {
			log.Printf("sweep: course %d: unpublish: %v", course.ID, err)
			continue
		}
		log.Printf("sweep: course %d full and finished, unpublished", course.ID)
	}
}
