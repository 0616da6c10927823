package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/coursehub/live-orchestrator/internal/model"
	"github.com/coursehub/live-orchestrator/internal/session"
)

const (
	courseExistsQuery = `SELECT id FROM courses WHERE id = ?`
	deleteAllQuery    = `DELETE FROM schedules WHERE course_id = ?`
	selectBackQuery   = `SELECT id, course_id, topic, speaker, position, scheduled_at, created_at
			 FROM schedules WHERE course_id = ? ORDER BY position ASC`
)

func scheduleColumns() []string {
	return []string{"id", "course_id", "topic", "speaker", "position", "scheduled_at", "created_at"}
}

// expectReplace scripts one full ReplaceAll transaction against the
// mock: course lookup, wholesale delete, a single multi-row insert and
// the ordered read-back of whatever the database now holds.
func expectReplace(mock sqlmock.Sqlmock, courseID uint64, inserted int, returned *sqlmock.Rows) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(courseExistsQuery)).
		WithArgs(courseID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(courseID))
	mock.ExpectExec(regexp.QuoteMeta(deleteAllQuery)).
		WithArgs(courseID).
		WillReturnResult(sqlmock.NewResult(0, int64(inserted)))
	if inserted > 0 {
		insert := `INSERT INTO schedules (course_id, topic, speaker, position, scheduled_at) VALUES `
		for i := 0; i < inserted; i++ {
			if i > 0 {
				insert += ","
			}
			insert += "(?, ?, ?, ?, ?)"
		}
		mock.ExpectExec(regexp.QuoteMeta(insert)).
			WillReturnResult(sqlmock.NewResult(1, int64(inserted)))
		mock.ExpectQuery(regexp.QuoteMeta(selectBackQuery)).
			WithArgs(courseID).
			WillReturnRows(returned)
	}
	mock.ExpectCommit()
}

func TestReplaceAllLeavesOnlyLatestEntries(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewScheduleRepo(db)

	base := time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC)
	created := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	first := sqlmock.NewRows(scheduleColumns())
	for i := 0; i < 3; i++ {
		first.AddRow(uint64(i+1), uint64(7), "session "+string(rune('A'+i)), "dr. chen", uint32(i), base.AddDate(0, 0, i*7), created)
	}
	expectReplace(mock, 7, 3, first)

	second := sqlmock.NewRows(scheduleColumns()).
		AddRow(uint64(4), uint64(7), "final review", "dr. chen", uint32(0), base.AddDate(0, 1, 0), created)
	expectReplace(mock, 7, 1, second)

	bulk := []model.Schedule{
		{Topic: "session A", Speaker: "dr. chen", ScheduledAt: base},
		{Topic: "session B", Speaker: "dr. chen", ScheduledAt: base.AddDate(0, 0, 7)},
		{Topic: "session C", Speaker: "dr. chen", ScheduledAt: base.AddDate(0, 0, 14)},
	}
	got, err := repo.ReplaceAll(context.Background(), 7, bulk)
	if err != nil {
		t.Fatalf("ReplaceAll(3): %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len after bulk replace = %d, want 3", len(got))
	}
	for i, s := range got {
		if s.Position != uint32(i) {
			t.Fatalf("got[%d].Position = %d, want %d", i, s.Position, i)
		}
	}

	got, err = repo.ReplaceAll(context.Background(), 7, []model.Schedule{
		{Topic: "final review", Speaker: "dr. chen", ScheduledAt: base.AddDate(0, 1, 0)},
	})
	if err != nil {
		t.Fatalf("ReplaceAll(1): %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len after single replace = %d, want 1", len(got))
	}
	if got[0].Topic != "final review" || got[0].Position != 0 {
		t.Fatalf("surviving entry = %+v, want final review at position 0", got[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplaceAllEmptyListClearsProgramme(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewScheduleRepo(db)

	expectReplace(mock, 7, 0, nil)

	got, err := repo.ReplaceAll(context.Background(), 7, nil)
	if err != nil {
		t.Fatalf("ReplaceAll(empty): %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len after clear = %d, want 0", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplaceAllUnknownCourseRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewScheduleRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(courseExistsQuery)).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err = repo.ReplaceAll(context.Background(), 99, []model.Schedule{
		{Topic: "orphan", ScheduledAt: time.Now()},
	})
	if !errors.Is(err, session.ErrCourseNotFound) {
		t.Fatalf("ReplaceAll err = %v, want ErrCourseNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
