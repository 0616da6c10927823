package model

import "time"

// Schedule is one scheduled live meeting inside a course's programme.
// Schedules are written as a full list per course (replace-all): the
// owner submits the whole programme and the previous set is dropped in
// the same transaction.  Positions are unique per course and define the
// display order.
//
// Fields:
//  ID          – primary key identifier.
//  CourseID    – owning course.
//  Topic       – what the meeting covers; never empty.
//  Speaker     – who presents; never empty.
//  Position    – order within the course, unique per course.
//  ScheduledAt – UTC instant the meeting is planned to start.
//  CreatedAt   – creation timestamp.
type Schedule struct {
	ID          uint64    // schedules.id
	CourseID    uint64    // schedules.course_id
	Topic       string    // schedules.topic
	Speaker     string    // schedules.speaker
	Position    uint32    // schedules.position
	ScheduledAt time.Time // schedules.scheduled_at
	CreatedAt   time.Time // schedules.created_at
}
