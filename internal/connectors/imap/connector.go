package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"
	"go.uber.org/zap"

	"classload/internal"
	"classload/internal/config"
	"classload/internal/connectors"
)

type Connector struct {
	addr     string
	host     string
	secure   bool
	user     string
	password string
	markSeen bool
	log      *zap.Logger
}

func NewConnector(cfg config.Config, log *zap.Logger) (*Connector, error) {
	if err := cfg.Require("IMAP_HOST", cfg.IMAPHost); err != nil {
		return nil, err
	}
	if err := cfg.Require("IMAP_USER", cfg.IMAPUser); err != nil {
		return nil, err
	}
	if err := cfg.Require("IMAP_PASSWORD", cfg.IMAPPassword); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Connector{
		addr:     fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort),
		host:     cfg.IMAPHost,
		secure:   cfg.IMAPSecure,
		user:     cfg.IMAPUser,
		password: cfg.IMAPPassword,
		markSeen: cfg.IMAPMarkSeen,
		log:      log.With(zap.String("provider", connectors.ProviderIMAP), zap.String("addr", fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort))),
	}, nil
}

func (c *Connector) dial() (*imapclient.Client, error) {
	if c.secure {
		return imapclient.DialTLS(c.addr, &tls.Config{ServerName: c.host})
	}
	return imapclient.Dial(c.addr)
}

func (c *Connector) FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error) {
	client, err := c.dial()
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	defer client.Logout()

	// The v1 client is not context aware; logging out unblocks it.
	stop := context.AfterFunc(ctx, func() { _ = client.Logout() })
	defer stop()

	if err := client.Login(c.user, c.password); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if _, err := client.Select(label, false); err != nil {
		return nil, fmt.Errorf("select %s: %w", label, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}
	if max > 0 && len(uids) > max {
		uids = uids[len(uids)-max:]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() { done <- client.UidFetch(seqset, items, messages) }()

	out := make([]internal.FetchedMailMessage, 0, len(uids))
	fetched := new(imap.SeqSet)
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			c.log.Warn("read message body", zap.Uint32("uid", msg.Uid), zap.Error(err))
			continue
		}

		fallback := fmt.Sprintf("imap-%d", msg.Uid)
		m := internal.FetchedMailMessage{
			Provider:   connectors.ProviderIMAP,
			MessageID:  fallback,
			ReceivedAt: connectors.ReceivedAt(msg.InternalDate),
			Raw:        raw,
		}
		if msg.Envelope != nil {
			m.MessageID = connectors.MessageKey(msg.Envelope.MessageId, fallback)
			m.Subject = msg.Envelope.Subject
			m.From = formatAddresses(msg.Envelope.From)
		}
		out = append(out, m)
		fetched.AddNum(msg.Uid)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	if c.markSeen && !fetched.Empty() {
		flags := []interface{}{imap.SeenFlag}
		if err := client.UidStore(fetched, imap.FormatFlagsOp(imap.AddFlags, true), flags, nil); err != nil {
			c.log.Warn("mark seen failed", zap.Error(err))
		}
	}

	c.log.Info("mailbox fetched", zap.String("label", label), zap.Int("unseen", len(uids)), zap.Int("fetched", len(out)))
	return out, nil
}

func formatAddresses(addrs []*imap.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a == nil {
			continue
		}
		email := strings.Trim(a.MailboxName+"@"+a.HostName, "@")
		if a.PersonalName != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", a.PersonalName, email))
		} else {
			parts = append(parts, email)
		}
	}
	return strings.Join(parts, ", ")
}
