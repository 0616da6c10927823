// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used on the broker.
const (
	// SessionEventsQueue carries session lifecycle facts pushed to
	// subscribed viewers, replacing client-side status polling.
	SessionEventsQueue = "session.events"
	// PaymentConfirmedQueue delivers successful payment events from the
	// checkout service; the consumer promotes the provisional booking.
	PaymentConfirmedQueue = "payment.confirmed"
)

// Session event kinds.
const (
	SessionStarted = "session.started"
	SessionEnded   = "session.ended"
)

// SessionEvent is published when a course's broadcast opens or closes.
// It contains enough for downstream consumers to notify viewers or feed
// dashboards without querying the primary database.
type SessionEvent struct {
	Kind        string `json:"kind"`
	CourseID    uint64 `json:"course_id"`
	ChannelName string `json:"channel_name"`
	// Forced is true when the reconciliation sweep ended the session
	// rather than an explicit stop.
	Forced     bool   `json:"forced,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// PaymentConfirmedEvent arrives from the external payment service when
// a checkout completes.  BookingID references the provisional booking
// to promote.
type PaymentConfirmedEvent struct {
	UserID      uint64 `json:"user_id"`
	CourseID    uint64 `json:"course_id"`
	BookingID   uint64 `json:"booking_id"`
	ConfirmedAt string `json:"confirmed_at"`
}
