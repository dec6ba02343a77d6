package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// GatewaySMSConfig configures the SMS gateway client.
type GatewaySMSConfig struct {
	// BaseURL is the gateway API root.
	BaseURL string
	// APIKey is the bearer token for the gateway.
	APIKey string
	// Sender is the sender name shown on the recipient's phone.
	Sender string
	// Timeout for each HTTP request. Defaults to 15s.
	Timeout time.Duration
}

// GatewaySMS sends text messages through a hosted SMS gateway.  The gateway
// exposes one account-scoped service; sending is a two-step exchange: list
// the service names, then post a job against the first one.
type GatewaySMS struct {
	cfg    GatewaySMSConfig
	client *http.Client
}

// NewGatewaySMS returns an SMSSender backed by the gateway API.
func NewGatewaySMS(cfg GatewaySMSConfig) *GatewaySMS {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &GatewaySMS{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// smsJob is the job payload posted to the gateway.
type smsJob struct {
	Message           string   `json:"message"`
	Sender            string   `json:"sender"`
	SenderForResponse bool     `json:"senderForResponse"`
	NoStopClause      bool     `json:"noStopClause"`
	Receivers         []string `json:"receivers"`
}

// SendSMS delivers message to the phone number to.
func (g *GatewaySMS) SendSMS(ctx context.Context, to, message string) error {
	service, err := g.serviceName(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(smsJob{
		Message:      message,
		Sender:       g.cfg.Sender,
		NoStopClause: true,
		Receivers:    []string{to},
	})
	if err != nil {
		return fmt.Errorf("marshal sms job: %w", err)
	}

	u := fmt.Sprintf("%s/sms/%s/jobs", g.cfg.BaseURL, url.PathEscape(service))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("post sms job: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post sms job: status %d", resp.StatusCode)
	}
	return nil
}

// serviceName fetches the SMS service attached to the gateway account.
func (g *GatewaySMS) serviceName(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+"/sms", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("list sms services: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("list sms services: read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("list sms services: status %d", resp.StatusCode)
	}

	var services []string
	if err := json.Unmarshal(body, &services); err != nil {
		return "", fmt.Errorf("list sms services: decode: %w", err)
	}
	if len(services) == 0 {
		return "", fmt.Errorf("no sms service attached to gateway account")
	}
	return services[0], nil
}
