// Package alexa holds the voice platform's wire envelopes: the signed inbound
// request, the outbound reply, and the presentation directives attached to it.
//
// Inbound envelopes are validated against an embedded JSON schema before
// decoding so malformed deliveries are rejected with a single clear error
// instead of surfacing as nil-map surprises deeper in the pipeline.
package alexa

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// EveryThingSlot is the catch-all slot the skill's interaction model funnels
// every utterance into.
const EveryThingSlot = "EveryThingSlot"

// ErrBadEnvelope reports a request body that is not a valid envelope.
var ErrBadEnvelope = errors.New("malformed request envelope")

// ErrNoUser reports an envelope without a platform user identifier, which
// leaves no session key to thread context with.
var ErrNoUser = errors.New("request envelope carries no user id")

//go:embed request_schema.json
var requestSchemaJSON string

var requestSchema = jsonschema.MustCompileString("request_schema.json", requestSchemaJSON)

// RequestEnvelope is the inbound request from the voice platform.
type RequestEnvelope struct {
	Version string  `json:"version"`
	Session Session `json:"session"`
	Request Request `json:"request"`
}

// Session identifies the conversation and the end user.
type Session struct {
	SessionID string `json:"sessionId"`
	User      *User  `json:"user,omitempty"`
}

// User carries the stable platform identifier for the end user.
type User struct {
	UserID string `json:"userId"`
}

// Request is the spoken-language interpretation (or a "no input" marker,
// in which case Intent is nil).
type Request struct {
	Type   string  `json:"type"`
	Intent *Intent `json:"intent,omitempty"`
}

// Intent is the matched intent with its slot values.
type Intent struct {
	Name  string          `json:"name"`
	Slots map[string]Slot `json:"slots,omitempty"`
}

// Slot is a single captured slot value.
type Slot struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ParseEnvelope validates rawBody against the envelope schema and decodes it.
func ParseEnvelope(rawBody []byte) (*RequestEnvelope, error) {
	var doc any
	if err := json.Unmarshal(rawBody, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if err := requestSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}

	var env RequestEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	return &env, nil
}

// SessionKey returns the stable per-user identifier used to key persisted
// conversational context.
func (e *RequestEnvelope) SessionKey() (string, error) {
	if e.Session.User == nil || e.Session.User.UserID == "" {
		return "", ErrNoUser
	}
	return e.Session.User.UserID, nil
}

// SlotValue returns the captured catch-all slot value, or "" when the request
// carries no intent or no value (first contact, session start).
func (e *RequestEnvelope) SlotValue() string {
	if e.Request.Intent == nil {
		return ""
	}
	return e.Request.Intent.Slots[EveryThingSlot].Value
}
