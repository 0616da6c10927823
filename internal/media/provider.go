// Package media defines the narrow interface through which the
// orchestration core talks to the real-time media transport, plus the
// production client for the RTC gateway.  The core never touches media
// streams itself; it only issues short-lived channel credentials and
// sends best-effort control commands.
package media

import (
	"context"
	"time"
)

// Role selects the privilege level encoded into a channel credential.
type Role string

const (
	// RolePublisher may send audio/video into the channel.  Issued only
	// to the course owner.
	RolePublisher Role = "publisher"
	// RoleSubscriber may receive the broadcast.
	RoleSubscriber Role = "subscriber"
)

// Credential is a time-boxed authorization to address one channel.
type Credential struct {
	Token     string    // signed token presented to the media gateway
	AppID     string    // gateway application identifier
	UID       uint32    // numeric identity assigned within the channel
	ExpiresAt time.Time // hard expiry of the token
}

// Recording identifies an archived broadcast asset.
type Recording struct {
	AssetID     string // provider-side asset identifier
	PlaybackURL string // handle viewers use to replay the recording
}

// Provider is the media-room control plane as seen by the state
// machine.  IssueCredential is the only hard dependency: its failure
// fails a start outright and nothing is persisted.  Teardown and
// ArchiveRecording are best-effort; callers log their errors and carry
// on with the state transition.
type Provider interface {
	IssueCredential(ctx context.Context, channel string, role Role, uid uint32, ttl time.Duration) (*Credential, error)
	Teardown(ctx context.Context, channel string) error
	ArchiveRecording(ctx context.Context, sourceURL, title string) (*Recording, error)
}
