// Package session persists conversational context between stateless
// invocations.
//
// Both operations are best-effort from the pipeline's point of view: the
// orchestrator maps a load failure to an empty context (the conversation
// restarts cold) and a save failure is logged after the reply has already
// been emitted.  Two backends are provided, SQLite (default) and Redis,
// selected by configuration.
package session

import (
	"context"

	"github.com/bdobrica/voicedesk/internal/voicedesk/nlu"
)

// Store loads and saves a context blob keyed by the stable session key.
type Store interface {
	// Load returns the persisted context for key, or an empty context when
	// none exists.  An error means the backend itself failed.
	Load(ctx context.Context, key string) (nlu.DialogContext, error)

	// Save persists dialogCtx under key, replacing any previous value.
	Save(ctx context.Context, key string, dialogCtx nlu.DialogContext) error

	// Count returns the number of persisted sessions (health reporting).
	Count(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}
