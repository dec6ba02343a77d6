// Package notify delivers one-time authentication codes to the account owner
// over SMS or email.
//
// The channel is selected by a single flag carried in the dialog context:
// "sms" routes to the SMS gateway, anything else falls back to email.
// Delivery failures are reported inward only. The dialog turn still
// completes with whatever reply text was already staged, because a spoken
// reply always beats silence.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// ChannelSMS is the explicit SMS channel selector value.
const ChannelSMS = "sms"

// ErrDeliveryFailed reports that a notification could not be delivered.
var ErrDeliveryFailed = errors.New("notification delivery failed")

// SMSSender sends a text message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// EmailSender sends a message to a mail address.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Notifier routes a notification to the selected channel.
type Notifier struct {
	SMS   SMSSender
	Email EmailSender
}

// Deliver sends message to the account owner.  channel selects SMS when it
// equals ChannelSMS; every other value (including empty) uses email.
func (n *Notifier) Deliver(ctx context.Context, channel, phone, mail, subject, message string) error {
	if channel == ChannelSMS {
		if n.SMS == nil {
			return fmt.Errorf("%w: no sms gateway configured", ErrDeliveryFailed)
		}
		if phone == "" {
			return fmt.Errorf("%w: account has no telephone number", ErrDeliveryFailed)
		}
		if err := n.SMS.SendSMS(ctx, phone, message); err != nil {
			return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
		}
		return nil
	}

	if n.Email == nil {
		return fmt.Errorf("%w: no mail sender configured", ErrDeliveryFailed)
	}
	if mail == "" {
		return fmt.Errorf("%w: account has no mail address", ErrDeliveryFailed)
	}
	if err := n.Email.SendEmail(ctx, mail, subject, message); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}
