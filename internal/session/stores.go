package session

import (
	"context"
	"time"

	"github.com/coursehub/live-orchestrator/internal/model"
)

// The engine and sweep see storage only through these interfaces.  The
// MySQL repositories implement them; tests substitute in-memory
// versions.  Every atomicity requirement of the core is expressed here
// as a method contract: the unique-constrained insert behind TryBook
// and the conditional phase updates behind MarkLive/MarkIdle are the
// storage layer's job, never emulated with application locks.

// CourseStore reads course facts and applies the two side effects the
// core is allowed to make outside the live_sessions row: the visibility
// flag and the seat ceiling.
type CourseStore interface {
	// GetByID returns the course or ErrCourseNotFound.
	GetByID(ctx context.Context, id uint64) (*model.Course, error)
	// SetPublished flips the course visibility flag.
	SetPublished(ctx context.Context, id uint64, published bool) error
	// SetMaxParticipants updates the seat ceiling.
	SetMaxParticipants(ctx context.Context, id uint64, max uint32) error
	// ListPublishedCapped returns published live courses that have a
	// seat ceiling, for the sweep's auto-unpublish pass.
	ListPublishedCapped(ctx context.Context) ([]model.Course, error)
}

// ScheduleStore reads the ordered programme of a course.
type ScheduleStore interface {
	// NextWithinWindow returns the earliest schedule whose start lies in
	// [from, to], or nil when none does.
	NextWithinWindow(ctx context.Context, courseID uint64, from, to time.Time) (*model.Schedule, error)
	// CurrentFor returns the most recent schedule whose start is at or
	// before ref, or nil when the course has no such entry.
	CurrentFor(ctx context.Context, courseID uint64, ref time.Time) (*model.Schedule, error)
	// NextAfter returns the earliest schedule strictly after ref, or nil.
	NextAfter(ctx context.Context, courseID uint64, ref time.Time) (*model.Schedule, error)
	// LastScheduledAt returns the latest scheduled start of the course,
	// or nil when the course has no schedules.
	LastScheduledAt(ctx context.Context, courseID uint64) (*time.Time, error)
}

// BookingStore is the capacity-safe seat ledger.  Whether provisional
// bookings count against capacity is the implementation's configured
// policy and applies consistently to TryBook and CountByCourse.
type BookingStore interface {
	// TryBook atomically checks capacity and inserts a provisional
	// booking.  Returns ErrAlreadyBooked when the (user, course) pair
	// already exists and ErrCourseFull when the ceiling is reached.
	// Concurrent callers never both succeed for the last seat.
	TryBook(ctx context.Context, userID, courseID uint64) (*model.Booking, error)
	// Confirm promotes a provisional booking.  A no-op when already
	// confirmed; ErrBookingNotFound when the record is absent.
	Confirm(ctx context.Context, bookingID uint64) (*model.Booking, error)
	// CountByCourse returns the number of bookings held against the
	// course's capacity under the configured policy.
	CountByCourse(ctx context.Context, courseID uint64) (uint32, error)
	// HasBooking reports whether the user holds a seat in the course.
	HasBooking(ctx context.Context, userID, courseID uint64) (bool, error)
}

// LiveStore persists the per-course broadcast state.  MarkLive and
// MarkIdle are compare-and-swap updates on the phase column; their
// boolean result is what makes AlreadyLive and NotLive detection
// race-free across process instances.
type LiveStore interface {
	// Get returns the live-session row for the course.  The row exists
	// for every course; its absence is an integrity failure.
	Get(ctx context.Context, courseID uint64) (*model.LiveSession, error)
	// AssignChannel stores the channel name if none is set yet and
	// returns the stored value, which may be an earlier winner's.
	AssignChannel(ctx context.Context, courseID uint64, channel string) (string, error)
	// MarkLive transitions IDLE -> LIVE and stores the credential.
	// Returns false when the stored phase was not IDLE.
	MarkLive(ctx context.Context, courseID uint64, token string) (bool, error)
	// MarkIdle transitions LIVE -> IDLE and clears the credential,
	// keeping the channel.  Returns false when the phase was not LIVE.
	MarkIdle(ctx context.Context, courseID uint64) (bool, error)
	// ListLive returns all sessions currently in the LIVE phase.
	ListLive(ctx context.Context) ([]model.LiveSession, error)
}

// Notifier pushes session lifecycle facts to interested viewers.  All
// methods are best-effort: implementations log failures and never
// return them, so a dead broker cannot block a state transition.
type Notifier interface {
	SessionStarted(ctx context.Context, courseID uint64, channel string)
	SessionEnded(ctx context.Context, courseID uint64, channel string, forced bool)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) SessionStarted(context.Context, uint64, string)     {}
func (NopNotifier) SessionEnded(context.Context, uint64, string, bool) {}
