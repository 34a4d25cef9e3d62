package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/jhillyerd/enmime"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"classload/internal"
	"classload/internal/config"
	"classload/internal/connectors"
)

// Messages without attachments never carry a load sheet.
const searchQuery = "has:attachment OR subject:load"

type Connector struct {
	service *gmail.Service
	log     *zap.Logger
}

func NewConnector(ctx context.Context, cfg config.Config, log *zap.Logger) (*Connector, error) {
	for name, value := range map[string]string{
		"GMAIL_CLIENT_ID":     cfg.GmailClientID,
		"GMAIL_CLIENT_SECRET": cfg.GmailClientSecret,
		"GMAIL_REFRESH_TOKEN": cfg.GmailRefreshToken,
	} {
		if err := cfg.Require(name, value); err != nil {
			return nil, err
		}
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GmailRedirectURI,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GmailRefreshToken})
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Connector{service: svc, log: log.With(zap.String("provider", connectors.ProviderGmail))}, nil
}

func (c *Connector) FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error) {
	list, err := c.service.Users.Messages.List("me").
		LabelIds(label).
		Q(searchQuery).
		MaxResults(int64(max)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	out := make([]internal.FetchedMailMessage, 0, len(list.Messages))
	for _, ref := range list.Messages {
		if ref.Id == "" {
			continue
		}
		msg, err := c.service.Users.Messages.Get("me", ref.Id).Format("raw").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("get message %s: %w", ref.Id, err)
		}
		if msg.Raw == "" {
			continue
		}
		raw, err := decodeBase64URL(msg.Raw)
		if err != nil {
			return nil, err
		}

		fetched := internal.FetchedMailMessage{
			Provider:   connectors.ProviderGmail,
			MessageID:  ref.Id,
			ReceivedAt: connectors.ReceivedAt(time.UnixMilli(msg.InternalDate)),
			Raw:        raw,
		}
		if env, err := enmime.ReadEnvelope(bytes.NewReader(raw)); err == nil {
			fetched.MessageID = connectors.MessageKey(env.GetHeader("Message-ID"), ref.Id)
			fetched.Subject = env.GetHeader("Subject")
			fetched.From = env.GetHeader("From")
		} else {
			c.log.Warn("unreadable message headers", zap.String("id", ref.Id), zap.Error(err))
		}
		out = append(out, fetched)
	}

	c.log.Info("mailbox fetched", zap.String("label", label), zap.Int("listed", len(list.Messages)), zap.Int("fetched", len(out)))
	return out, nil
}

func decodeBase64URL(input string) ([]byte, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	decoded, err = base64.URLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	return nil, fmt.Errorf("decode gmail raw payload: %w", err)
}
