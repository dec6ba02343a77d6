// Package nlu wraps a single conversational turn with the NLU engine.
//
// The engine owns intent/slot/dialog-state inference; this package only
// carries the current context in, and the authoritative replacement context,
// output text, and action directive out.  The orchestrator calls Message once
// for the user's utterance and, when an action handler produces a synthetic
// follow-up input, exactly once more for the follow-up.
package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// apiVersion is the engine API version date sent with every request.
const apiVersion = "2017-04-21"

// ErrUnavailable reports that the engine could not complete a turn.  The
// caller must retain its pre-call context: no partial update is ever applied.
var ErrUnavailable = errors.New("nlu engine unavailable")

// MessageRequest is a single turn's input.
type MessageRequest struct {
	// Input is the cleaned utterance (or a synthetic follow-up input).
	Input string
	// Context is the conversational state from the previous turn.  It is
	// never mutated by Message.
	Context DialogContext
}

// MessageResponse is a single turn's output.
type MessageResponse struct {
	// Context is the authoritative replacement context.
	Context DialogContext
	// Output holds the engine's output text fragments in order.
	Output []string
}

// Engine is the NLU collaborator interface used by the pipeline.  Tests
// substitute a scripted fake.
type Engine interface {
	Message(ctx context.Context, req MessageRequest) (*MessageResponse, error)
}

// Config configures the HTTP client for the engine.
type Config struct {
	// BaseURL is the engine endpoint, e.g. https://gateway.example.com/assistant/api.
	BaseURL string
	// Username and Password are the service credentials (basic auth).
	Username string
	Password string
	// WorkspaceID selects the conversational workspace for every turn.
	WorkspaceID string
	// Timeout for each HTTP request. Defaults to 30s.
	Timeout time.Duration
}

// Client is the HTTP implementation of Engine.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient returns an Engine backed by the engine's workspace message API.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// --- wire types (subset of the workspace message API) ---

type wireInput struct {
	Text string `json:"text"`
}

type wireRequest struct {
	Input   wireInput      `json:"input"`
	Context map[string]any `json:"context,omitempty"`
}

type wireOutput struct {
	Text []string `json:"text"`
}

type wireResponse struct {
	Context map[string]any `json:"context"`
	Output  wireOutput     `json:"output"`
	Error   string         `json:"error,omitempty"`
}

// messageURL builds the workspace message endpoint URL.
func (c *Client) messageURL() string {
	return fmt.Sprintf("%s/v1/workspaces/%s/message?version=%s",
		c.cfg.BaseURL, url.PathEscape(c.cfg.WorkspaceID), apiVersion)
}

// Message sends one turn to the engine.  On success the returned context
// fully replaces the caller's; on failure the error wraps ErrUnavailable and
// the request context is untouched.
func (c *Client) Message(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	body := wireRequest{
		Input:   wireInput{Text: req.Input},
		Context: req.Context,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messageURL(), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	var wire wireResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if wire.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, wire.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	out := &MessageResponse{
		Context: DialogContext(wire.Context),
		Output:  wire.Output.Text,
	}
	if out.Context == nil {
		out.Context = NewDialogContext()
	}
	return out, nil
}

// Probe checks that the workspace is reachable.  Used at startup (with
// retry); never called from inside the dialog pipeline.
func (c *Client) Probe(ctx context.Context) error {
	u := fmt.Sprintf("%s/v1/workspaces/%s?version=%s",
		c.cfg.BaseURL, url.PathEscape(c.cfg.WorkspaceID), apiVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: workspace probe status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}
