package notify

import (
	"context"
	"log"
)

// Notice is a short message for a person outside the system, usually a manager.
// ChatID zero means "the default channel".
type Notice struct {
	ChatID int64
	Title  string
	Body   string
}

// Notifier delivers notices. Failures are reported, never retried.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// LogNotifier writes notices to the process log. Used when no bot is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notice) error {
	log.Printf("📣 %s: %s", n.Title, n.Body)
	return nil
}
