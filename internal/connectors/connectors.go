// Package connectors pulls raw messages from a mailbox so their load sheet
// attachments can be parsed.
package connectors

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"classload/internal"
	"classload/internal/config"
)

const (
	ProviderGmail = "gmail"
	ProviderIMAP  = "imap"
)

type MailConnector interface {
	FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error)
}

type Factory func(ctx context.Context, provider string, cfg config.Config, log *zap.Logger) (MailConnector, error)

func NormalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func ReceivedAt(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

// MessageKey returns the Message-ID without angle brackets, or fallback.
func MessageKey(messageID, fallback string) string {
	id := strings.Trim(strings.TrimSpace(messageID), "<>")
	if id == "" {
		return fallback
	}
	return id
}
