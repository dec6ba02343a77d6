package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/bdobrica/voicedesk/common/trace"
	"github.com/bdobrica/voicedesk/internal/voicedesk/alexa"
	"github.com/bdobrica/voicedesk/internal/voicedesk/observability"
)

// maxEnvelopeBytes caps the inbound request body.  Voice platform envelopes
// are small; anything larger is not one.
const maxEnvelopeBytes = 1 << 20

// handleTurn is POST /v1/turns, the webhook the voice platform delivers
// request envelopes to.  The reply is written before the context is
// persisted, so the spoken answer never waits on the store.
func (a *App) handleTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := trace.WithID(r.Context(), trace.NewID())
	log := observability.WithTrace(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEnvelopeBytes))
	if err != nil {
		http.Error(w, "request body unreadable", http.StatusBadRequest)
		return
	}

	if err := a.verifier.Verify(r.Header, body); err != nil {
		// The platform only understands reply envelopes, so even a
		// rejected delivery gets the session-ending apology.
		log.Warn("rejected unverified delivery", "err", err)
		writeJSON(w, http.StatusOK, alexa.ErrorReply(""))
		return
	}

	env, err := alexa.ParseEnvelope(body)
	if err != nil {
		log.Warn("rejected malformed envelope", "err", err)
		http.Error(w, "malformed envelope", http.StatusBadRequest)
		return
	}

	key, err := env.SessionKey()
	if err != nil {
		log.Warn("rejected envelope without user", "err", err)
		http.Error(w, "missing user id", http.StatusBadRequest)
		return
	}

	// One turn at a time per session: concurrent deliveries for the same
	// user would otherwise race on the persisted context.
	release := a.locks.Acquire(key)
	defer release()

	out, err := a.orch.Turn(ctx, env)
	if err != nil {
		// The platform expects a well-formed spoken reply even on
		// failure, so terminal errors become the fixed apology.
		log.Error("turn failed", "err", err)
		writeJSON(w, http.StatusOK, alexa.ErrorReply(""))
		return
	}

	writeJSON(w, http.StatusOK, out.Reply)
	// Flush so the reply is on the wire before the save runs; otherwise
	// net/http holds the buffered body until the handler returns and the
	// caller waits on the store.
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	// A save failure is logged by the pipeline; the reply is already out.
	_ = a.orch.Persist(ctx, out)
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response failed", "err", err)
	}
}
