// Package mgmt is the HTTP client for the system-management REST API: account
// lookup, account status, resource metrics, and password updates.
//
// The client is deliberately forgiving.  A deployment without a management
// endpoint is a supported degraded mode (metrics resolve to "unknown" with no
// network attempt), and remote failures surface as sentinel values alongside
// the error so the conversation always completes with a plausible answer.
package mgmt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// UnknownMetric is the degraded-mode metric value.
const UnknownMetric = "unknown"

// ErrNotConfigured reports that no management endpoint is configured.
var ErrNotConfigured = errors.New("management api not configured")

// MetricKind names a resource metric exposed by the management API.
type MetricKind string

const (
	MetricAge     MetricKind = "age"
	MetricCPU     MetricKind = "cpu"
	MetricStorage MetricKind = "asp"
)

// field returns the response field carrying the metric's value.
func (k MetricKind) field() string {
	switch k {
	case MetricCPU:
		return "ELAPSED_CPU_USED"
	case MetricStorage:
		return "SYSTEM_ASP_USED"
	case MetricAge:
		return "AGE"
	default:
		return ""
	}
}

// Config configures the management API client.
type Config struct {
	// BaseURL is the API root.  Empty disables the client (degraded mode).
	BaseURL string
	// Timeout for each HTTP request. Defaults to 15s.
	Timeout time.Duration
}

// Client talks to the management API.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient returns a management API client.  An empty BaseURL is valid and
// produces a client that answers every metric with UnknownMetric.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether a management endpoint is available.
func (c *Client) Configured() bool { return c.cfg.BaseURL != "" }

// Metric fetches the named resource metric and returns its value as text.
// The returned value is always usable: when the endpoint is missing, the
// field is absent or non-numeric, or the call fails, it is UnknownMetric and
// the error (if any) is returned for logging only.
func (c *Client) Metric(ctx context.Context, kind MetricKind) (string, error) {
	if !c.Configured() {
		return UnknownMetric, nil
	}

	body, err := c.get(ctx, "/system/"+string(kind))
	if err != nil {
		return UnknownMetric, fmt.Errorf("metric %s: %w", kind, err)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return UnknownMetric, fmt.Errorf("metric %s: decode: %w", kind, err)
	}

	return numericField(payload, kind.field()), nil
}

// numericField extracts field from payload as text, substituting
// UnknownMetric when it is absent or non-numeric.
func numericField(payload map[string]any, field string) string {
	switch v := payload[field].(type) {
	case json.Number:
		return v.String()
	case string:
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return v
		}
	}
	return UnknownMetric
}

// FindAccount looks up the directory account owning the given profile.
// found is false when the lookup succeeded but matched nothing.  The account
// record is returned as the raw JSON object so callers can stash it in the
// dialog context without loss.
func (c *Client) FindAccount(ctx context.Context, user string) (account map[string]any, found bool, err error) {
	if !c.Configured() {
		return nil, false, ErrNotConfigured
	}

	body, err := c.get(ctx, "/ad/findUser/"+url.PathEscape(user))
	if err != nil {
		return nil, false, fmt.Errorf("find account %s: %w", user, err)
	}

	var payload struct {
		Users []map[string]any `json:"users"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false, fmt.Errorf("find account %s: decode: %w", user, err)
	}
	if len(payload.Users) == 0 {
		return nil, false, nil
	}
	return payload.Users[0], true, nil
}

// AccountStatus fetches and normalizes the profile's sign-on status.
// Failures come back as StatusError so the conversation still completes.
func (c *Client) AccountStatus(ctx context.Context, user string) (Status, error) {
	if !c.Configured() {
		return Status{Kind: StatusError}, ErrNotConfigured
	}

	body, err := c.get(ctx, "/userprofile/status/"+url.PathEscape(user))
	if err != nil {
		return Status{Kind: StatusError}, fmt.Errorf("account status %s: %w", user, err)
	}

	// The API answers bare 204/500 bodies for missing or broken profiles.
	switch strings.TrimSpace(string(body)) {
	case "", "204":
		return Status{Kind: StatusNoAccount}, nil
	case "500":
		return Status{Kind: StatusError}, nil
	}

	var payload struct {
		Status              string          `json:"STATUS"`
		InvalidSignOns      json.RawMessage `json:"SIGN_ON_ATTEMPTS_NOT_VALID"`
		NoPasswordIndicator string          `json:"NO_PASSWORD_INDICATOR"`
		SetPasswordToExpire string          `json:"SET_PASSWORD_TO_EXPIRE"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Status{Kind: StatusError}, fmt.Errorf("account status %s: decode: %w", user, err)
	}

	switch {
	case payload.Status == "*DISABLED":
		return Status{Kind: StatusDisabled, Attempts: rawInt(payload.InvalidSignOns)}, nil
	case payload.NoPasswordIndicator == "YES":
		return Status{Kind: StatusNoPassword}, nil
	case payload.SetPasswordToExpire == "YES":
		return Status{Kind: StatusExpired}, nil
	default:
		return Status{Kind: StatusActive}, nil
	}
}

// rawInt parses a JSON value that may arrive as a number or a quoted string.
func rawInt(raw json.RawMessage) int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	n, _ := strconv.Atoi(s)
	return n
}

// UpdatePassword submits a new password for the profile and returns the
// operation's raw result text.
func (c *Client) UpdatePassword(ctx context.Context, user, password string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(map[string]string{
		"usrprf":   user,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("update password: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/userprofile/password", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("update password: read response: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// get issues a GET against path and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return body, nil
}
