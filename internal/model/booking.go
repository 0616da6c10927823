package model

import "time"

// Booking records one user's claim on one live course's capacity.  The
// database enforces at most one row per (user, course); that unique key
// is the sole guard against duplicate seats under concurrent booking.
// A booking starts as a provisional hold and is promoted to confirmed
// by the payment-confirmation consumer.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – identity holding the seat.
//  CourseID  – course whose capacity is claimed.
//  Confirmed – false while payment is pending.
//  CreatedAt – creation timestamp.
type Booking struct {
	ID        uint64    // bookings.id
	UserID    uint64    // bookings.user_id
	CourseID  uint64    // bookings.course_id
	Confirmed bool      // bookings.confirmed
	CreatedAt time.Time // bookings.created_at
}
