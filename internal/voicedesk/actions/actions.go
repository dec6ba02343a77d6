// Package actions dispatches the side-effecting directives that the NLU
// engine requests through the dialog context.
//
// After the first NLU exchange of a turn, the updated context may carry an
// ACTION tag naming something the backend must do on the user's behalf:
// read a system metric, look up an account, change a password, or deliver a
// one-time code.  Each tag maps to a registered handler.  A handler performs
// at most one side effect and reports whether its result should be fed back
// to the NLU engine as a synthetic second utterance.
package actions

import (
	"context"

	"github.com/bdobrica/voicedesk/internal/voicedesk/alexa"
	"github.com/bdobrica/voicedesk/internal/voicedesk/mgmt"
	"github.com/bdobrica/voicedesk/internal/voicedesk/notify"
	"github.com/bdobrica/voicedesk/internal/voicedesk/nlu"
)

// Directive identifies an action the NLU engine asked the backend to perform.
type Directive int

const (
	// None means the context carried no recognized action tag.
	None Directive = iota
	// ResourceAge reads the managed system's age metric.
	ResourceAge
	// ResourceCPU reads the elapsed CPU usage metric.
	ResourceCPU
	// ResourceStorage reads the system storage pool usage metric.
	ResourceStorage
	// ProfileQuery looks up a user account and reports its status.
	ProfileQuery
	// PasswordChange sets a new password on a user profile.
	PasswordChange
	// CodeDelivery generates credentials and sends a verification code.
	CodeDelivery
)

// ParseDirective maps an action tag from the dialog context to a Directive.
// Unknown or empty tags map to None.
func ParseDirective(tag string) Directive {
	switch tag {
	case "AGE":
		return ResourceAge
	case "CPU":
		return ResourceCPU
	case "ASP":
		return ResourceStorage
	case "Query_user":
		return ProfileQuery
	case "Change_password":
		return PasswordChange
	case "Send_code":
		return CodeDelivery
	default:
		return None
	}
}

// String returns the directive's action tag, or "none".
func (d Directive) String() string {
	switch d {
	case ResourceAge:
		return "AGE"
	case ResourceCPU:
		return "CPU"
	case ResourceStorage:
		return "ASP"
	case ProfileQuery:
		return "Query_user"
	case PasswordChange:
		return "Change_password"
	case CodeDelivery:
		return "Send_code"
	default:
		return "none"
	}
}

// Deps bundles the external clients and settings handlers need.
type Deps struct {
	Mgmt     *mgmt.Client
	Notifier *notify.Notifier

	// AudioURL and AudioToken configure the audio directive attached to
	// system age replies.
	AudioURL   string
	AudioToken string

	// CodeSubject is the subject line used for emailed verification codes.
	CodeSubject string
}

// Result is what a handler hands back to the dialog pipeline.
type Result struct {
	// FollowUp is a synthetic utterance to resubmit to the NLU engine,
	// meaningful only when Resubmit is true.
	FollowUp string
	// Resubmit requests a second NLU exchange carrying FollowUp.
	Resubmit bool
	// Directives are device directives to attach to the spoken reply.
	Directives []alexa.Directive
}

// Handler performs one directive's side effect against the dialog context.
type Handler func(ctx context.Context, dialog nlu.DialogContext, deps Deps) (Result, error)

// Registry maps directives to their handlers.
type Registry struct {
	handlers map[Directive]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Directive]Handler)}
}

// Register binds a handler to a directive, replacing any previous binding.
func (r *Registry) Register(d Directive, h Handler) {
	r.handlers[d] = h
}

// Dispatch runs the handler bound to d.  None and unregistered directives
// are a no-op returning a zero Result.
func (r *Registry) Dispatch(ctx context.Context, d Directive, dialog nlu.DialogContext, deps Deps) (Result, error) {
	h, ok := r.handlers[d]
	if !ok {
		return Result{}, nil
	}
	return h(ctx, dialog, deps)
}

// DefaultRegistry returns a registry with all built-in handlers bound.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(ResourceAge, resourceMetricHandler(mgmt.MetricAge))
	r.Register(ResourceCPU, resourceMetricHandler(mgmt.MetricCPU))
	r.Register(ResourceStorage, resourceMetricHandler(mgmt.MetricStorage))
	r.Register(ProfileQuery, profileQueryHandler)
	r.Register(PasswordChange, passwordChangeHandler)
	r.Register(CodeDelivery, codeDeliveryHandler)
	return r
}
