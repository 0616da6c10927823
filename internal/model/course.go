package model

import "time"

// CourseType distinguishes pre-recorded courses from courses delivered
// as scheduled live broadcasts.  Only LIVE courses participate in
// session orchestration and seat booking.
const (
	CourseTypeRecorded = "RECORDED"
	CourseTypeLive     = "LIVE"
)

// Course represents one course offering.  Content fields (description,
// chapters, pricing) live outside this core; only the attributes the
// orchestrator reads are modelled here.
//
// Fields:
//  ID              – primary key identifier.
//  OwnerID         – user who created the course; the only identity
//                    allowed to start or stop its broadcasts.
//  Title           – course title.
//  CourseType      – RECORDED or LIVE.
//  MaxParticipants – seat ceiling for live delivery; nil means unlimited.
//  IsPublished     – visibility flag; the sweep may clear it when the
//                    course is full and its schedule has elapsed.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Course struct {
	ID              uint64    // courses.id
	OwnerID         uint64    // courses.owner_id
	Title           string    // courses.title
	CourseType      string    // courses.course_type
	MaxParticipants *uint32   // courses.max_participants (nullable)
	IsPublished     bool      // courses.is_published
	CreatedAt       time.Time // courses.created_at
	UpdatedAt       time.Time // courses.updated_at
}
