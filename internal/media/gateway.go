package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GatewayClient talks to the RTC gateway that hosts broadcast channels.
// Credentials are HS256 JWTs signed with the gateway app certificate;
// the gateway validates them locally, so issuance never leaves this
// process.  Teardown and archive are HTTP calls against the gateway
// control API and are bounded by the client's request timeout.
type GatewayClient struct {
	appID   string
	appCert string
	baseURL string
	http    *http.Client
}

// NewGatewayClient constructs a client for the RTC gateway.  appID and
// appCert must be non-empty; baseURL points at the gateway control API
// and may be empty when only credential issuance is needed (teardown
// and archive then report an error that callers treat as best-effort).
func NewGatewayClient(appID, appCert, baseURL string, timeout time.Duration) *GatewayClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GatewayClient{
		appID:   appID,
		appCert: appCert,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// IssueCredential builds and signs a channel token.  The claims bind
// the token to one channel, one role and one numeric uid, with an
// explicit expiry.  The signing secret is the gateway app certificate.
func (g *GatewayClient) IssueCredential(ctx context.Context, channel string, role Role, uid uint32, ttl time.Duration) (*Credential, error) {
	if channel == "" {
		return nil, fmt.Errorf("issue credential: empty channel")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"app":     g.appID,
		"channel": channel,
		"role":    string(role),
		"uid":     uid,
		"exp":     exp.Unix(),
		"iat":     now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(g.appCert))
	if err != nil {
		return nil, fmt.Errorf("issue credential: %w", err)
	}
	return &Credential{Token: signed, AppID: g.appID, UID: uid, ExpiresAt: exp}, nil
}

// Teardown asks the gateway to close the channel and disconnect all
// participants.  The channel itself stays addressable for reuse.
func (g *GatewayClient) Teardown(ctx context.Context, channel string) error {
	body := map[string]string{"channel": channel}
	return g.post(ctx, "/v1/channels/teardown", body, nil)
}

// ArchiveRecording asks the gateway to ingest a finished broadcast into
// long-term storage and returns the resulting asset handles.
func (g *GatewayClient) ArchiveRecording(ctx context.Context, sourceURL, title string) (*Recording, error) {
	body := map[string]string{"source_url": sourceURL, "title": title}
	var out struct {
		AssetID     string `json:"asset_id"`
		PlaybackURL string `json:"playback_url"`
	}
	if err := g.post(ctx, "/v1/recordings/archive", body, &out); err != nil {
		return nil, err
	}
	return &Recording{AssetID: out.AssetID, PlaybackURL: out.PlaybackURL}, nil
}

// post sends a JSON request to the gateway control API and optionally
// decodes a JSON response into out.
func (g *GatewayClient) post(ctx context.Context, path string, body any, out any) error {
	if g.baseURL == "" {
		return fmt.Errorf("gateway control API not configured")
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "App "+g.appID)
	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
