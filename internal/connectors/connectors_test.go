package connectors

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"classload/internal"
	"classload/internal/storage"
)

type fakeConnector struct {
	messages []internal.FetchedMailMessage
	err      error
	gotLabel string
	gotMax   int
}

func (f *fakeConnector) FetchInbox(_ context.Context, label string, max int) ([]internal.FetchedMailMessage, error) {
	f.gotLabel, f.gotMax = label, max
	return f.messages, f.err
}

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "classload.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMessageKey(t *testing.T) {
	cases := []struct{ in, fallback, want string }{
		{"<abc@example.edu>", "x", "abc@example.edu"},
		{"  plain-id ", "x", "plain-id"},
		{"", "imap-7", "imap-7"},
		{"<>", "imap-8", "imap-8"},
	}
	for _, tc := range cases {
		if got := MessageKey(tc.in, tc.fallback); got != tc.want {
			t.Errorf("MessageKey(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestReceivedAtIsUTC(t *testing.T) {
	loc := time.FixedZone("PHT", 8*3600)
	got := ReceivedAt(time.Date(2026, 1, 10, 8, 0, 0, 0, loc))
	if got != "2026-01-10T00:00:00Z" {
		t.Fatalf("got %q", got)
	}
	if ReceivedAt(time.Time{}) == "" {
		t.Fatal("zero time should fall back to now")
	}
}

func TestFetchAndStoreDedupesRawByHash(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	raw := []byte("Subject: Faculty load\r\n\r\nbody")
	conn := &fakeConnector{messages: []internal.FetchedMailMessage{
		{Provider: ProviderIMAP, MessageID: "a@example.edu", Subject: "Faculty load", ReceivedAt: "2026-01-10T00:00:00Z", Raw: raw},
		{Provider: ProviderIMAP, MessageID: "b@example.edu", Subject: "Faculty load (fwd)", ReceivedAt: "2026-01-11T00:00:00Z", Raw: raw},
		{Provider: ProviderIMAP, MessageID: "empty@example.edu"},
	}}

	res, err := NewFetchService(db, dir, conn, nil).FetchAndStore(context.Background(), "INBOX", 5)
	if err != nil {
		t.Fatal(err)
	}
	if res.Fetched != 3 || res.Stored != 2 || res.Failed != 1 {
		t.Fatalf("result=%+v", res)
	}
	if conn.gotLabel != "INBOX" || conn.gotMax != 5 {
		t.Fatalf("connector called with %q/%d", conn.gotLabel, conn.gotMax)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("want one raw file, got %d", len(files))
	}

	pending, err := db.ListLoadsByStatus(StatusFetched, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 || pending[0].RawRef != pending[1].RawRef || pending[0].MessageID != "a@example.edu" {
		t.Fatalf("pending=%+v", pending)
	}
}

func TestFetchAndStorePropagatesConnectorError(t *testing.T) {
	db := openTestDB(t)
	conn := &fakeConnector{err: errors.New("auth failed")}
	if _, err := NewFetchService(db, t.TempDir(), conn, nil).FetchAndStore(context.Background(), "INBOX", 1); err == nil {
		t.Fatal("expected error")
	}
}
