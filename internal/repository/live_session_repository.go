package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coursehub/live-orchestrator/internal/model"
)

// LiveSessionRepo persists the per-course broadcast state.  The phase
// column is only ever changed through conditional updates (UPDATE ...
// WHERE phase = <expected>), which gives start and stop their
// linearizability across concurrent workers and process instances
// without any in-process locking.  The channel name is write-once: the
// first assignment wins and later sessions of the course reuse it.
type LiveSessionRepo struct {
	db *sql.DB
}

// NewLiveSessionRepo returns a LiveSessionRepo bound to the database.
func NewLiveSessionRepo(db *sql.DB) *LiveSessionRepo { return &LiveSessionRepo{db: db} }

// Get loads the live-session row for a course.  Every course has
// exactly one row, created with the course; a missing row means the
// data is corrupt and is reported as a plain error, never ignored.
func (r *LiveSessionRepo) Get(ctx context.Context, courseID uint64) (*model.LiveSession, error) {
	const q = `SELECT course_id, channel_name, phase, rtc_token, updated_at
			   FROM live_sessions WHERE course_id = ?`
	var s model.LiveSession
	var channel, token sql.NullString
	err := r.db.QueryRowContext(ctx, q, courseID).Scan(&s.CourseID, &channel, &s.Phase, &token, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("live session state missing for course %d", courseID)
	}
	if err != nil {
		return nil, err
	}
	if channel.Valid {
		c := channel.String
		s.ChannelName = &c
	}
	if token.Valid {
		t := token.String
		s.RTCToken = &t
	}
	return &s, nil
}

// AssignChannel sets the channel name if none is stored yet and returns
// whatever value ended up stored.  Under concurrent assignment the
// conditional update lets exactly one caller write; everyone reads the
// winner back.
func (r *LiveSessionRepo) AssignChannel(ctx context.Context, courseID uint64, channel string) (string, error) {
	const upd = `UPDATE live_sessions SET channel_name = ? WHERE course_id = ? AND channel_name IS NULL`
	if _, err := r.db.ExecContext(ctx, upd, channel, courseID); err != nil {
		return "", err
	}
	var stored sql.NullString
	const sel = `SELECT channel_name FROM live_sessions WHERE course_id = ?`
	if err := r.db.QueryRowContext(ctx, sel, courseID).Scan(&stored); err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("live session state missing for course %d", courseID)
		}
		return "", err
	}
	if !stored.Valid {
		return "", fmt.Errorf("channel assignment for course %d did not persist", courseID)
	}
	return stored.String, nil
}

// MarkLive commits the IDLE -> LIVE transition and stores the issued
// credential.  Returns false when the stored phase was not IDLE, which
// callers report as AlreadyLive.
func (r *LiveSessionRepo) MarkLive(ctx context.Context, courseID uint64, token string) (bool, error) {
	const q = `UPDATE live_sessions SET phase = 'LIVE', rtc_token = ? WHERE course_id = ? AND phase = 'IDLE'`
	res, err := r.db.ExecContext(ctx, q, token, courseID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkIdle commits the LIVE -> IDLE transition, clearing the credential
// and keeping the channel for reuse.  Returns false when the stored
// phase was not LIVE, which callers report as NotLive.
func (r *LiveSessionRepo) MarkIdle(ctx context.Context, courseID uint64) (bool, error) {
	const q = `UPDATE live_sessions SET phase = 'IDLE', rtc_token = NULL WHERE course_id = ? AND phase = 'LIVE'`
	res, err := r.db.ExecContext(ctx, q, courseID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListLive returns every session currently in the LIVE phase.  The
// sweep inspects these for grace expiry.
func (r *LiveSessionRepo) ListLive(ctx context.Context) ([]model.LiveSession, error) {
	const q = `SELECT course_id, channel_name, phase, rtc_token, updated_at
			   FROM live_sessions WHERE phase = 'LIVE'`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []model.LiveSession
	for rows.Next() {
		var s model.LiveSession
		var channel, token sql.NullString
		if err := rows.Scan(&s.CourseID, &channel, &s.Phase, &token, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if channel.Valid {
			c := channel.String
			s.ChannelName = &c
		}
		if token.Valid {
			t := token.String
			s.RTCToken = &t
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
