// Package mail delivers the e-mails background jobs send to users.
//
// Jobs depend on the Notifier interface; the server picks the concrete
// implementation from MAIL_DRIVER:
//
//	n := mail.New()
//	err := n.Send(ctx, "owner@example.com", "Inventory Report", html, true)
package mail

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/stockroom/config"
)

// Notifier sends one message to one recipient.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string, isHTML bool) error
}

// ErrNoRecipient is returned when to is empty.
var ErrNoRecipient = errors.New("mail: recipient is required")

// New returns the Notifier selected by MAIL_DRIVER ("smtp" or "log").
func New() Notifier {
	if config.MailDriver() == "log" {
		return NewLogNotifier(nil)
	}
	return NewSMTPNotifier(SMTPFromConfig())
}
