package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/coursehub/live-orchestrator/internal/model"
	"github.com/coursehub/live-orchestrator/internal/session"
)

// ScheduleRepo persists the live programme of a course.  Schedules are
// only ever written as a full set per course: ReplaceAll deletes the
// existing entries and inserts the new list in one transaction, so no
// partial programme is ever visible and no orphaned rows survive a
// rewrite.  A UNIQUE(course_id, position) key backs the ordering
// invariant.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo returns a ScheduleRepo bound to the given database.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

// ReplaceAll swaps the course's entire schedule set for the given
// entries.  Positions are normalized to submission order.  The course
// must exist; a vanished course surfaces as ErrCourseNotFound.  An
// empty list simply clears the programme.  On success the inserted
// entries are returned with their generated IDs.
func (r *ScheduleRepo) ReplaceAll(ctx context.Context, courseID uint64, entries []model.Schedule) ([]model.Schedule, error) {
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
	var exists uint64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM courses WHERE id = ?`, courseID).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return nil, session.ErrCourseNotFound
		}
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE course_id = ?`, courseID); err != nil {
		return nil, err
	}
	out := make([]model.Schedule, 0, len(entries))
	if len(entries) > 0 {
		query := `INSERT INTO schedules (course_id, topic, speaker, position, scheduled_at) VALUES `
		args := make([]interface{}, 0, len(entries)*5)
		for i, e := range entries {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?)"
			args = append(args, courseID, e.Topic, e.Speaker, i, e.ScheduledAt.UTC())
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, err
		}
		rows, err := tx.QueryContext(ctx,
			`SELECT id, course_id, topic, speaker, position, scheduled_at, created_at
			 FROM schedules WHERE course_id = ? ORDER BY position ASC`, courseID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var s model.Schedule
			if err := rows.Scan(&s.ID, &s.CourseID, &s.Topic, &s.Speaker, &s.Position, &s.ScheduledAt, &s.CreatedAt); err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return out, nil
}

// ListByCourse returns the course's schedule ordered by position.
func (r *ScheduleRepo) ListByCourse(ctx context.Context, courseID uint64) ([]model.Schedule, error) {
	const q = `SELECT id, course_id, topic, speaker, position, scheduled_at, created_at
			   FROM schedules WHERE course_id = ? ORDER BY position ASC`
	rows, err := r.db.QueryContext(ctx, q, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Schedule, 0)
	for rows.Next() {
		var s model.Schedule
		if err := rows.Scan(&s.ID, &s.CourseID, &s.Topic, &s.Speaker, &s.Position, &s.ScheduledAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// NextWithinWindow returns the earliest schedule whose start lies in
// [from, to], or nil when none does.
func (r *ScheduleRepo) NextWithinWindow(ctx context.Context, courseID uint64, from, to time.Time) (*model.Schedule, error) {
	const q = `SELECT id, course_id, topic, speaker, position, scheduled_at, created_at
			   FROM schedules
			   WHERE course_id = ? AND scheduled_at >= ? AND scheduled_at <= ?
			   ORDER BY scheduled_at ASC LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, courseID, from.UTC(), to.UTC()))
}

// CurrentFor returns the most recent schedule starting at or before
// ref, or nil when the course has none.
func (r *ScheduleRepo) CurrentFor(ctx context.Context, courseID uint64, ref time.Time) (*model.Schedule, error) {
	const q = `SELECT id, course_id, topic, speaker, position, scheduled_at, created_at
			   FROM schedules
			   WHERE course_id = ? AND scheduled_at <= ?
			   ORDER BY scheduled_at DESC LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, courseID, ref.UTC()))
}

// NextAfter returns the earliest schedule starting strictly after ref,
// or nil.
func (r *ScheduleRepo) NextAfter(ctx context.Context, courseID uint64, ref time.Time) (*model.Schedule, error) {
	const q = `SELECT id, course_id, topic, speaker, position, scheduled_at, created_at
			   FROM schedules
			   WHERE course_id = ? AND scheduled_at > ?
			   ORDER BY scheduled_at ASC LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, courseID, ref.UTC()))
}

// LastScheduledAt returns the latest scheduled start of the course, or
// nil when no schedules exist.
func (r *ScheduleRepo) LastScheduledAt(ctx context.Context, courseID uint64) (*time.Time, error) {
	const q = `SELECT MAX(scheduled_at) FROM schedules WHERE course_id = ?`
	var last sql.NullTime
	if err := r.db.QueryRowContext(ctx, q, courseID).Scan(&last); err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	t := last.Time.UTC()
	return &t, nil
}

func (r *ScheduleRepo) scanOne(row *sql.Row) (*model.Schedule, error) {
	var s model.Schedule
	err := row.Scan(&s.ID, &s.CourseID, &s.Topic, &s.Speaker, &s.Position, &s.ScheduledAt, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
