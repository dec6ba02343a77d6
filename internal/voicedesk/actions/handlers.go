package actions

import (
	"context"

	"github.com/bdobrica/voicedesk/internal/voicedesk/alexa"
	"github.com/bdobrica/voicedesk/internal/voicedesk/mgmt"
	"github.com/bdobrica/voicedesk/internal/voicedesk/nlu"
	"github.com/bdobrica/voicedesk/internal/voicedesk/observability"
)

// resourceMetricHandler reads one system metric and resubmits its value to
// the NLU engine.  Metric failures degrade to the "unknown" sentinel so the
// conversation still completes.  System age replies additionally carry an
// audio directive when one is configured.
func resourceMetricHandler(kind mgmt.MetricKind) Handler {
	return func(ctx context.Context, dialog nlu.DialogContext, deps Deps) (Result, error) {
		value, err := deps.Mgmt.Metric(ctx, kind)
		if err != nil {
			observability.WithTrace(ctx).Warn("metric read failed",
				"metric", string(kind), "error", err)
		}

		res := Result{FollowUp: value, Resubmit: true}
		if kind == mgmt.MetricAge && deps.AudioURL != "" {
			res.Directives = []alexa.Directive{
				alexa.AudioDirective(deps.AudioURL, deps.AudioToken),
			}
		}
		return res, nil
	}
}

// profileQueryHandler looks up the user's account and resubmits the rendered
// account status.  A missing account short-circuits without a status fetch.
// The found account record is stashed in the dialog context so a later code
// delivery knows where to send the verification code.
func profileQueryHandler(ctx context.Context, dialog nlu.DialogContext, deps Deps) (Result, error) {
	user := dialog.User()

	account, found, err := deps.Mgmt.FindAccount(ctx, user)
	if err != nil {
		observability.WithTrace(ctx).Warn("account lookup failed",
			"user", user, "error", err)
		return Result{FollowUp: mgmt.Status{Kind: mgmt.StatusError}.Render(), Resubmit: true}, nil
	}
	if !found {
		return Result{FollowUp: mgmt.Status{Kind: mgmt.StatusNoAccount}.Render(), Resubmit: true}, nil
	}
	dialog.SetAccount(account)

	status, err := deps.Mgmt.AccountStatus(ctx, user)
	if err != nil {
		observability.WithTrace(ctx).Warn("account status fetch failed",
			"user", user, "error", err)
	}
	return Result{FollowUp: status.Render(), Resubmit: true}, nil
}

// passwordChangeHandler applies the password stored in the dialog context to
// the user's profile and resubmits the raw outcome.
func passwordChangeHandler(ctx context.Context, dialog nlu.DialogContext, deps Deps) (Result, error) {
	user := dialog.User()

	outcome, err := deps.Mgmt.UpdatePassword(ctx, user, dialog.Password())
	if err != nil {
		observability.WithTrace(ctx).Warn("password update failed",
			"user", user, "error", err)
		outcome = "500"
	}
	return Result{FollowUp: outcome, Resubmit: true}, nil
}

// codeDeliveryHandler generates a fresh password and verification code,
// records both in the dialog context, and sends the code over the channel the
// engine selected.  Delivery failures are logged but the turn completes so
// the engine's pending reply still reaches the user.  No resubmission.
func codeDeliveryHandler(ctx context.Context, dialog nlu.DialogContext, deps Deps) (Result, error) {
	password, err := generatePassword()
	if err != nil {
		return Result{}, err
	}
	dialog.SetPassword(password, spellOut(password))

	code, err := generateCode()
	if err != nil {
		return Result{}, err
	}
	dialog.SetCode(code)

	message := dialog.Message() + code
	dialog.SetMessage(message)

	err = deps.Notifier.Deliver(ctx, dialog.SendMode(),
		dialog.AccountPhone(), dialog.AccountMail(), deps.CodeSubject, message)
	if err != nil {
		observability.WithTrace(ctx).Warn("code delivery failed",
			"channel", dialog.SendMode(),
			"error", observability.RedactSecrets(err.Error(), password, code))
	}
	return Result{}, nil
}
