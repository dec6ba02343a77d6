// Package pipeline orchestrates a single dialog turn.
//
// A turn runs load context, first NLU exchange, optional action dispatch,
// optional second NLU exchange, reply assembly.  Persistence is split out on
// purpose: the caller emits the reply first and saves the context after, so a
// slow or broken store can never delay or swallow a spoken answer.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/bdobrica/voicedesk/internal/voicedesk/actions"
	"github.com/bdobrica/voicedesk/internal/voicedesk/alexa"
	"github.com/bdobrica/voicedesk/internal/voicedesk/nlu"
	"github.com/bdobrica/voicedesk/internal/voicedesk/normalize"
	"github.com/bdobrica/voicedesk/internal/voicedesk/observability"
	"github.com/bdobrica/voicedesk/internal/voicedesk/session"
)

// firstContactInput is the canonical utterance submitted when a request
// carries no slot value, e.g. on session launch.
const firstContactInput = "start skill"

// Orchestrator runs dialog turns against its collaborators.
type Orchestrator struct {
	Engine   nlu.Engine
	Store    session.Store
	Registry *actions.Registry
	Deps     actions.Deps

	// WakePhrase is stripped from the front of raw utterances before they
	// reach the NLU engine.
	WakePhrase string
}

// Outcome is a completed turn, ready to emit and then persist.
type Outcome struct {
	// Reply is the assembled response envelope.
	Reply *alexa.ReplyEnvelope
	// Key and Dialog are what Persist needs once the reply is out.
	Key    string
	Dialog nlu.DialogContext
}

// Turn executes one full dialog turn for the envelope.  Engine failures and
// handler failures are terminal; management and delivery failures are not,
// the handlers absorb those into sentinel answers.
func (o *Orchestrator) Turn(ctx context.Context, env *alexa.RequestEnvelope) (*Outcome, error) {
	key, err := env.SessionKey()
	if err != nil {
		return nil, err
	}
	log := observability.WithTrace(ctx)

	dialog, err := o.Store.Load(ctx, key)
	if err != nil {
		// A broken store restarts the conversation cold rather than
		// refusing to answer.
		log.Warn("context load failed, starting cold", "error", err)
		dialog = nlu.NewDialogContext()
	}

	input := env.SlotValue()
	if input == "" {
		input = firstContactInput
	} else {
		input = normalize.Clean(input, o.WakePhrase)
	}

	resp, err := o.Engine.Message(ctx, nlu.MessageRequest{Input: input, Context: dialog})
	if err != nil {
		return nil, fmt.Errorf("first exchange: %w", err)
	}
	dialog = resp.Context
	fragments := resp.Output

	directive := actions.ParseDirective(dialog.Action())
	result, err := o.Registry.Dispatch(ctx, directive, dialog, o.Deps)
	if err != nil {
		return nil, fmt.Errorf("dispatch %s: %w", directive, err)
	}

	if result.Resubmit {
		resp, err = o.Engine.Message(ctx, nlu.MessageRequest{Input: result.FollowUp, Context: dialog})
		if err != nil {
			return nil, fmt.Errorf("follow-up exchange: %w", err)
		}
		dialog = resp.Context
		fragments = resp.Output
	}

	reply := alexa.NewReply(assemble(fragments), result.Directives)
	return &Outcome{Reply: reply, Key: key, Dialog: dialog}, nil
}

// Persist saves the turn's final context.  Call it after the reply has been
// written; a failure here is logged and reported but must not affect the
// already-emitted response.
func (o *Orchestrator) Persist(ctx context.Context, out *Outcome) error {
	if err := o.Store.Save(ctx, out.Key, out.Dialog); err != nil {
		observability.WithTrace(ctx).Warn("context save failed",
			"session", out.Key, "error", err)
		return err
	}
	return nil
}

// assemble joins the engine's output fragments into one utterance, dropping
// empties so the spoken text never carries doubled spaces.
func assemble(fragments []string) string {
	kept := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f = strings.TrimSpace(f); f != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}
