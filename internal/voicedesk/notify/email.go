package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultMailAPIBase = "https://api.sendgrid.com"

// MailAPIConfig configures the transactional mail client.
type MailAPIConfig struct {
	// APIKey is the bearer token for the mail API.
	APIKey string
	// From is the sender address.
	From string
	// BaseURL overrides the API endpoint (useful in tests).
	BaseURL string
	// Timeout for each HTTP request. Defaults to 15s.
	Timeout time.Duration
}

// MailAPI sends mail through a transactional mail HTTP API.
type MailAPI struct {
	cfg    MailAPIConfig
	client *http.Client
}

// NewMailAPI returns an EmailSender backed by the mail API.
func NewMailAPI(cfg MailAPIConfig) *MailAPI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultMailAPIBase
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &MailAPI{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// --- wire types (subset of the v3 mail send API) ---

type mailAddress struct {
	Email string `json:"email"`
}

type mailPersonalization struct {
	To []mailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailRequest struct {
	Personalizations []mailPersonalization `json:"personalizations"`
	From             mailAddress           `json:"from"`
	Subject          string                `json:"subject"`
	Content          []mailContent         `json:"content"`
}

// SendEmail delivers body to the mail address to.
func (m *MailAPI) SendEmail(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(mailRequest{
		Personalizations: []mailPersonalization{{To: []mailAddress{{Email: to}}}},
		From:             mailAddress{Email: m.cfg.From},
		Subject:          subject,
		Content: []mailContent{
			{Type: "text/plain", Value: body},
			{Type: "text/html", Value: "<strong>" + body + "</strong>"},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal mail: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.cfg.BaseURL+"/v3/mail/send", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("send mail: status %d", resp.StatusCode)
	}
	return nil
}
