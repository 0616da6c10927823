package repository

import (
	"context"
	"database/sql"

	"github.com/coursehub/live-orchestrator/internal/model"
	"github.com/coursehub/live-orchestrator/internal/session"
)

// CourseRepo provides the course facts and side effects the
// orchestration core needs.  Course content (description, chapters,
// pricing) is managed elsewhere; this repository touches only the
// columns the state machine and sweep read or write.
type CourseRepo struct {
	db *sql.DB
}

// NewCourseRepo returns a CourseRepo bound to the given database.
func NewCourseRepo(db *sql.DB) *CourseRepo { return &CourseRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *CourseRepo) DB() *sql.DB { return r.db }

// Create inserts a course together with its live-session row.  The two
// rows are born in one transaction so the 1-1 relationship can never be
// observed broken.  The generated ID is assigned back to the course.
func (r *CourseRepo) Create(ctx context.Context, c *model.Course) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const q = `INSERT INTO courses (owner_id, title, course_type, max_participants, is_published) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, c.OwnerID, c.Title, c.CourseType, c.MaxParticipants, c.IsPublished)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	const sq = `INSERT INTO live_sessions (course_id, phase) VALUES (?, 'IDLE')`
	if _, err := tx.ExecContext(ctx, sq, c.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID returns the course or session.ErrCourseNotFound.
func (r *CourseRepo) GetByID(ctx context.Context, id uint64) (*model.Course, error) {
	const q = `SELECT id, owner_id, title, course_type, max_participants, is_published, created_at, updated_at
			   FROM courses WHERE id = ?`
	var c model.Course
	var maxPart sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.OwnerID, &c.Title, &c.CourseType, &maxPart, &c.IsPublished, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, session.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	if maxPart.Valid {
		mp := uint32(maxPart.Int64)
		c.MaxParticipants = &mp
	}
	return &c, nil
}

// SetPublished flips the visibility flag.  A course that is already in
// the requested state is left untouched.
func (r *CourseRepo) SetPublished(ctx context.Context, id uint64, published bool) error {
	const q = `UPDATE courses SET is_published = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, published, id)
	return err
}

// SetMaxParticipants updates the seat ceiling.
func (r *CourseRepo) SetMaxParticipants(ctx context.Context, id uint64, max uint32) error {
	const q = `UPDATE courses SET max_participants = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, max, id)
	return err
}

// ListPublishedCapped returns published live courses with a seat
// ceiling.  The sweep scans these for auto-unpublish.
func (r *CourseRepo) ListPublishedCapped(ctx context.Context) ([]model.Course, error) {
	const q = `SELECT id, owner_id, title, course_type, max_participants, is_published, created_at, updated_at
			   FROM courses
			   WHERE course_type = 'LIVE' AND is_published = 1 AND max_participants IS NOT NULL`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var courses []model.Course
	for rows.Next() {
		var c model.Course
		var maxPart sql.NullInt64
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Title, &c.CourseType, &maxPart, &c.IsPublished, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if maxPart.Valid {
			mp := uint32(maxPart.Int64)
			c.MaxParticipants = &mp
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}
