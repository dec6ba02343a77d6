package nlu

// DialogContext is the conversational state threaded through a dialog turn.
//
// The payload is owned by the NLU engine: each turn returns an authoritative
// replacement and the orchestration layer never interprets it structurally,
// except for a small set of reserved fields read and written directly by the
// action handlers.  Exactly one in-memory instance exists per request.
type DialogContext map[string]any

// Reserved context fields.  The engine writes ACTION; the action handlers
// write the rest before resubmitting a follow-up turn.
const (
	FieldAction          = "ACTION"
	FieldUser            = "userprf"
	FieldPassword        = "password"
	FieldPasswordSpelled = "password_spelled"
	FieldCode            = "code"
	FieldMessage         = "message"
	FieldSendMode        = "send_mod"
	FieldAccount         = "ad_user"
)

// NewDialogContext returns an empty context, the state of a session's first
// contact.
func NewDialogContext() DialogContext {
	return DialogContext{}
}

// Clone returns a shallow copy so a context handed to persistence cannot be
// mutated by a caller that keeps the original.
func (d DialogContext) Clone() DialogContext {
	out := make(DialogContext, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// getString reads a reserved field as a string, tolerating absent or
// non-string values.
func (d DialogContext) getString(key string) string {
	if d == nil {
		return ""
	}
	if s, ok := d[key].(string); ok {
		return s
	}
	return ""
}

// Action returns the raw action directive tag set by the engine, or "".
func (d DialogContext) Action() string { return d.getString(FieldAction) }

// User returns the account identifier the conversation resolved, or "".
func (d DialogContext) User() string { return d.getString(FieldUser) }

// Password returns the pending freshly generated credential, or "".
func (d DialogContext) Password() string { return d.getString(FieldPassword) }

// SetPassword stores a freshly generated credential together with its
// letter-by-letter rendering so the engine can speak it back.
func (d DialogContext) SetPassword(plain, spelled string) {
	d[FieldPassword] = plain
	d[FieldPasswordSpelled] = spelled
}

// Code returns the pending one-time numeric code, or "".
func (d DialogContext) Code() string { return d.getString(FieldCode) }

// SetCode stores a one-time numeric code.
func (d DialogContext) SetCode(code string) { d[FieldCode] = code }

// Message returns the composed notification message, or "".
func (d DialogContext) Message() string { return d.getString(FieldMessage) }

// SetMessage stores the composed notification message.
func (d DialogContext) SetMessage(msg string) { d[FieldMessage] = msg }

// SendMode returns the delivery-channel selector ("sms" selects SMS,
// anything else falls back to email).
func (d DialogContext) SendMode() string { return d.getString(FieldSendMode) }

// Account returns the resolved account record, or nil when no lookup has
// happened yet.  The record is stored as the raw JSON object returned by the
// management API so it survives the persistence round-trip unchanged.
func (d DialogContext) Account() map[string]any {
	if d == nil {
		return nil
	}
	if m, ok := d[FieldAccount].(map[string]any); ok {
		return m
	}
	return nil
}

// SetAccount stores the resolved account record.
func (d DialogContext) SetAccount(account map[string]any) { d[FieldAccount] = account }

// AccountPhone returns the telephone number of the resolved account, or "".
func (d DialogContext) AccountPhone() string {
	if m := d.Account(); m != nil {
		if s, ok := m["telephoneNumber"].(string); ok {
			return s
		}
	}
	return ""
}

// AccountMail returns the mail address of the resolved account, or "".
func (d DialogContext) AccountMail() string {
	if m := d.Account(); m != nil {
		if s, ok := m["mail"].(string); ok {
			return s
		}
	}
	return ""
}
