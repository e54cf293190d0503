package mail

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

// LogNotifier writes messages to the log instead of sending them. Useful
// in development where no SMTP relay is available.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger means the context
// logger at send time.
func NewLogNotifier(l *slog.Logger) *LogNotifier {
	return &LogNotifier{log: l}
}

func (n *LogNotifier) Send(ctx context.Context, to, subject, body string, isHTML bool) error {
	if strings.TrimSpace(to) == "" {
		return ErrNoRecipient
	}
	l := n.log
	if l == nil {
		l = logger.WithCtx(ctx)
	}
	l.Info("mail: message",
		"to", to,
		"subject", subject,
		"html", isHTML,
		"bytes", len(body),
		"body", body,
	)
	return nil
}
