package repository

import (
	"context"
	"database/sql"

	"github.com/coursehub/live-orchestrator/internal/model"
	"github.com/coursehub/live-orchestrator/internal/session"
)

// BookingRepo is the capacity-safe seat ledger.  Two mechanisms carry
// its guarantees: the UNIQUE(user_id, course_id) key makes inserts
// idempotent per identity, and TryBook serializes the capacity check
// against the insert by locking the course row inside one transaction,
// so concurrent callers can never both take the last seat.
//
// countConfirmedOnly selects the capacity policy: false (the default)
// counts provisional holds against capacity, which prevents overselling
// during the payment window; true counts only payment-confirmed seats.
type BookingRepo struct {
	db                 *sql.DB
	countConfirmedOnly bool
}

// NewBookingRepo returns a BookingRepo with the given counting policy.
func NewBookingRepo(db *sql.DB, countConfirmedOnly bool) *BookingRepo {
	return &BookingRepo{db: db, countConfirmedOnly: countConfirmedOnly}
}

// countQuery returns the capacity-accounting COUNT statement under the
// configured policy.
func (r *BookingRepo) countQuery() string {
	if r.countConfirmedOnly {
		return `SELECT COUNT(*) FROM bookings WHERE course_id = ? AND confirmed = 1`
	}
	return `SELECT COUNT(*) FROM bookings WHERE course_id = ?`
}

// TryBook atomically claims a seat.  The course row is locked FOR
// UPDATE for the duration of the check-and-insert, which serializes
// concurrent bookings per course; the unique key catches duplicate
// claims that race past the pre-check.  Outcomes:
// session.ErrAlreadyBooked, session.ErrCourseFull,
// session.ErrCourseNotFound, or the new provisional booking.
func (r *BookingRepo) TryBook(ctx context.Context, userID, courseID uint64) (*model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var maxPart sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT max_participants FROM courses WHERE id = ? FOR UPDATE`, courseID,
	).Scan(&maxPart)
	if err == sql.ErrNoRows {
		return nil, session.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}

	var existing uint64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM bookings WHERE user_id = ? AND course_id = ?`, userID, courseID,
	).Scan(&existing)
	if err == nil {
		return nil, session.ErrAlreadyBooked
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	if maxPart.Valid {
		var count int64
		if err := tx.QueryRowContext(ctx, r.countQuery(), courseID).Scan(&count); err != nil {
			return nil, err
		}
		if count >= maxPart.Int64 {
			return nil, session.ErrCourseFull
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (user_id, course_id) VALUES (?, ?)`, userID, courseID)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, session.ErrAlreadyBooked
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	b := &model.Booking{ID: uint64(id)}
	const sel = `SELECT id, user_id, course_id, confirmed, created_at FROM bookings WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.ID, &b.UserID, &b.CourseID, &b.Confirmed, &b.CreatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return b, nil
}

// Confirm promotes a provisional booking to confirmed.  Confirming an
// already-confirmed record is a no-op; a missing record yields
// session.ErrBookingNotFound.
func (r *BookingRepo) Confirm(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	var b model.Booking
	const sel = `SELECT id, user_id, course_id, confirmed, created_at FROM bookings WHERE id = ?`
	err := r.db.QueryRowContext(ctx, sel, bookingID).Scan(&b.ID, &b.UserID, &b.CourseID, &b.Confirmed, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, session.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if b.Confirmed {
		return &b, nil
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE bookings SET confirmed = 1 WHERE id = ?`, bookingID); err != nil {
		return nil, err
	}
	b.Confirmed = true
	return &b, nil
}

// CountByCourse returns the seats held against capacity under the
// configured policy.
func (r *BookingRepo) CountByCourse(ctx context.Context, courseID uint64) (uint32, error) {
	var count uint32
	if err := r.db.QueryRowContext(ctx, r.countQuery(), courseID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// HasBooking reports whether the user holds a seat in the course.
func (r *BookingRepo) HasBooking(ctx context.Context, userID, courseID uint64) (bool, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM bookings WHERE user_id = ? AND course_id = ?`, userID, courseID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
