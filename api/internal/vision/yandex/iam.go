package yandex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"robot-explorer/api/internal/vision"
)

const (
	defaultIAMURL = "https://iam.api.cloud.yandex.net/iam/v1/tokens"

	// IAM tokens live up to 12h; used when the response omits expiresAt.
	fallbackTokenTTL = 11 * time.Hour
	// refreshMargin keeps a frame from being sent with a token about to lapse.
	refreshMargin = time.Minute
)

var errNoOAuthToken = errors.New("yandex vision: YC_OAUTH_TOKEN is not set")

// visionCredentials holds the bearer token the detector presents to the
// Vision analyze endpoint. Frames arrive one at a time, so a single cached
// token shared under a mutex is enough.
type visionCredentials struct {
	httpc *http.Client
	url   string
	oauth string
	now   func() time.Time

	mu      sync.Mutex
	bearer  string
	renewAt time.Time
}

func newVisionCredentials(oauth string) *visionCredentials {
	return &visionCredentials{
		httpc: &http.Client{Timeout: 20 * time.Second},
		url:   defaultIAMURL,
		oauth: oauth,
		now:   time.Now,
	}
}

type iamTokenResponse struct {
	IamToken  string    `json:"iamToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// bearerToken returns a usable IAM token, exchanging the OAuth token when the
// cached one is missing or close to expiry.
func (c *visionCredentials) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bearer != "" && c.now().Before(c.renewAt) {
		return c.bearer, nil
	}
	if c.oauth == "" {
		return "", errNoOAuthToken
	}

	b, err := json.Marshal(map[string]string{"yandexPassportOauthToken": c.oauth})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("yandex iam: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("yandex iam %d: %s", resp.StatusCode, vision.TruncateBody(raw, 256))
	}

	var out iamTokenResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("yandex iam: decode: %w", err)
	}
	if out.IamToken == "" {
		return "", errors.New("yandex iam: empty token")
	}

	now := c.now()
	expires := out.ExpiresAt
	if expires.IsZero() || !expires.After(now) {
		expires = now.Add(fallbackTokenTTL)
	}
	c.bearer = out.IamToken
	c.renewAt = expires.Add(-refreshMargin)
	return c.bearer, nil
}

// reject forgets a token the Vision API refused so the next frame re-exchanges.
func (c *visionCredentials) reject() {
	c.mu.Lock()
	c.bearer = ""
	c.renewAt = time.Time{}
	c.mu.Unlock()
}
