package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coursehub/live-orchestrator/internal/media"
	"github.com/coursehub/live-orchestrator/internal/model"
)

// In-memory store fakes.  Each guards its maps with a mutex and mirrors
// the atomicity contracts of the MySQL repositories: TryBook holds the
// lock across check and insert, MarkLive/MarkIdle are conditional
// swaps.

type memCourses struct {
	mu      sync.Mutex
	courses map[uint64]*model.Course
}

func newMemCourses(cs ...*model.Course) *memCourses {
	m := &memCourses{courses: make(map[uint64]*model.Course)}
	for _, c := range cs {
		cp := *c
		m.courses[c.ID] = &cp
	}
	return m
}

func (m *memCourses) GetByID(_ context.Context, id uint64) (*model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return nil, ErrCourseNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCourses) SetPublished(_ context.Context, id uint64, published bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return ErrCourseNotFound
	}
	c.IsPublished = published
	return nil
}

func (m *memCourses) SetMaxParticipants(_ context.Context, id uint64, max uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return ErrCourseNotFound
	}
	c.MaxParticipants = &max
	return nil
}

func (m *memCourses) ListPublishedCapped(context.Context) ([]model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Course
	for _, c := range m.courses {
		if c.CourseType == model.CourseTypeLive && c.IsPublished && c.MaxParticipants != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

type memSchedules struct {
	mu      sync.Mutex
	entries map[uint64][]model.Schedule // keyed by course id
}

func newMemSchedules() *memSchedules {
	return &memSchedules{entries: make(map[uint64][]model.Schedule)}
}

func (m *memSchedules) add(courseID uint64, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.Schedule{
		ID:          uint64(len(m.entries[courseID]) + 1),
		CourseID:    courseID,
		Topic:       "topic",
		Speaker:     "speaker",
		Position:    uint32(len(m.entries[courseID])),
		ScheduledAt: at,
	}
	m.entries[courseID] = append(m.entries[courseID], s)
}

func (m *memSchedules) NextWithinWindow(_ context.Context, courseID uint64, from, to time.Time) (*model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *model.Schedule
	for i := range m.entries[courseID] {
		s := m.entries[courseID][i]
		if s.ScheduledAt.Before(from) || s.ScheduledAt.After(to) {
			continue
		}
		if best == nil || s.ScheduledAt.Before(best.ScheduledAt) {
			cp := s
			best = &cp
		}
	}
	return best, nil
}

func (m *memSchedules) CurrentFor(_ context.Context, courseID uint64, ref time.Time) (*model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *model.Schedule
	for i := range m.entries[courseID] {
		s := m.entries[courseID][i]
		if s.ScheduledAt.After(ref) {
			continue
		}
		if best == nil || s.ScheduledAt.After(best.ScheduledAt) {
			cp := s
			best = &cp
		}
	}
	return best, nil
}

func (m *memSchedules) NextAfter(_ context.Context, courseID uint64, ref time.Time) (*model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *model.Schedule
	for i := range m.entries[courseID] {
		s := m.entries[courseID][i]
		if !s.ScheduledAt.After(ref) {
			continue
		}
		if best == nil || s.ScheduledAt.Before(best.ScheduledAt) {
			cp := s
			best = &cp
		}
	}
	return best, nil
}

func (m *memSchedules) LastScheduledAt(_ context.Context, courseID uint64) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last *time.Time
	for _, s := range m.entries[courseID] {
		at := s.ScheduledAt
		if last == nil || at.After(*last) {
			last = &at
		}
	}
	return last, nil
}

type memBookings struct {
	mu       sync.Mutex
	nextID   uint64
	bookings map[uint64]*model.Booking // keyed by booking id
	courses  *memCourses
}

func newMemBookings(courses *memCourses) *memBookings {
	return &memBookings{bookings: make(map[uint64]*model.Booking), courses: courses}
}

func (m *memBookings) TryBook(_ context.Context, userID, courseID uint64) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.courses.mu.Lock()
	course, ok := m.courses.courses[courseID]
	if !ok {
		m.courses.mu.Unlock()
		return nil, ErrCourseNotFound
	}
	max := course.MaxParticipants
	m.courses.mu.Unlock()

	var taken uint32
	for _, b := range m.bookings {
		if b.CourseID != courseID {
			continue
		}
		if b.UserID == userID {
			return nil, ErrAlreadyBooked
		}
		taken++
	}
	if max != nil && taken >= *max {
		return nil, ErrCourseFull
	}
	m.nextID++
	b := &model.Booking{ID: m.nextID, UserID: userID, CourseID: courseID, CreatedAt: time.Now().UTC()}
	m.bookings[b.ID] = b
	cp := *b
	return &cp, nil
}

func (m *memBookings) Confirm(_ context.Context, bookingID uint64) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok {
		return nil, ErrBookingNotFound
	}
	b.Confirmed = true
	cp := *b
	return &cp, nil
}

func (m *memBookings) CountByCourse(_ context.Context, courseID uint64) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n uint32
	for _, b := range m.bookings {
		if b.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

func (m *memBookings) HasBooking(_ context.Context, userID, courseID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.UserID == userID && b.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

type memLive struct {
	mu       sync.Mutex
	sessions map[uint64]*model.LiveSession
}

func newMemLive(courseIDs ...uint64) *memLive {
	m := &memLive{sessions: make(map[uint64]*model.LiveSession)}
	for _, id := range courseIDs {
		m.sessions[id] = &model.LiveSession{CourseID: id, Phase: model.PhaseIdle}
	}
	return m
}

func (m *memLive) Get(_ context.Context, courseID uint64) (*model.LiveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[courseID]
	if !ok {
		return nil, fmt.Errorf("live session state missing for course %d", courseID)
	}
	cp := *s
	return &cp, nil
}

func (m *memLive) AssignChannel(_ context.Context, courseID uint64, channel string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[courseID]
	if !ok {
		return "", fmt.Errorf("live session state missing for course %d", courseID)
	}
	if s.ChannelName == nil || *s.ChannelName == "" {
		s.ChannelName = &channel
	}
	return *s.ChannelName, nil
}

func (m *memLive) MarkLive(_ context.Context, courseID uint64, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[courseID]
	if !ok || s.Phase != model.PhaseIdle {
		return false, nil
	}
	s.Phase = model.PhaseLive
	s.RTCToken = &token
	return true, nil
}

func (m *memLive) MarkIdle(_ context.Context, courseID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[courseID]
	if !ok || s.Phase != model.PhaseLive {
		return false, nil
	}
	s.Phase = model.PhaseIdle
	s.RTCToken = nil
	return true, nil
}

func (m *memLive) ListLive(context.Context) ([]model.LiveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.LiveSession
	for _, s := range m.sessions {
		if s.Phase == model.PhaseLive {
			out = append(out, *s)
		}
	}
	return out, nil
}

// fakeProvider issues deterministic credentials and records teardown
// and archive calls.
type fakeProvider struct {
	mu          sync.Mutex
	issued      int
	tornDown    []string
	archived    []string
	issueErr    error
	teardownErr error
}

func (p *fakeProvider) IssueCredential(_ context.Context, channel string, role media.Role, uid uint32, ttl time.Duration) (*media.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.issueErr != nil {
		return nil, p.issueErr
	}
	p.issued++
	return &media.Credential{
		Token:     fmt.Sprintf("tok-%s-%s-%d", channel, role, uid),
		AppID:     "test-app",
		UID:       uid,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}, nil
}

func (p *fakeProvider) Teardown(_ context.Context, channel string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.teardownErr != nil {
		return p.teardownErr
	}
	p.tornDown = append(p.tornDown, channel)
	return nil
}

func (p *fakeProvider) ArchiveRecording(_ context.Context, source, title string) (*media.Recording, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.archived = append(p.archived, source)
	return &media.Recording{AssetID: "asset-1", PlaybackURL: "https://cdn.example/asset-1"}, nil
}

// recordNotifier captures lifecycle notifications.
type recordNotifier struct {
	mu      sync.Mutex
	started []uint64
	ended   []uint64
	forced  []bool
}

func (n *recordNotifier) SessionStarted(_ context.Context, courseID uint64, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.started = append(n.started, courseID)
}

func (n *recordNotifier) SessionEnded(_ context.Context, courseID uint64, _ string, forced bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ended = append(n.ended, courseID)
	n.forced = append(n.forced, forced)
}
