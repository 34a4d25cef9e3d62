package listener

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"classload/internal"
	"classload/internal/config"
	"classload/internal/connectors"
	"classload/internal/pipeline"
	"classload/internal/storage"
)

type stubConnector struct {
	messages []internal.FetchedMailMessage
}

func (s stubConnector) FetchInbox(context.Context, string, int) ([]internal.FetchedMailMessage, error) {
	return s.messages, nil
}

func TestRunCycleFetchesProcessesAndExports(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "classload.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	raw, err := os.ReadFile(filepath.Join("..", "pipeline", "testdata", "sample_load.eml"))
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{
		RawMailDir:               filepath.Join(tmp, "raw"),
		OutputDir:                filepath.Join(tmp, "out"),
		MailListenerProvider:     "IMAP",
		MailListenerLabel:        "INBOX",
		MailListenerFetchMax:     10,
		MailListenerProcessBatch: 10,
		MailListenerAutoExport:   true,
	}
	svc := NewService(db, cfg, zap.NewNop()).WithConnector(func(_ context.Context, provider string, _ config.Config, _ *zap.Logger) (connectors.MailConnector, error) {
		if provider != connectors.ProviderIMAP {
			t.Fatalf("provider=%q", provider)
		}
		return stubConnector{messages: []internal.FetchedMailMessage{{
			Provider:   connectors.ProviderIMAP,
			MessageID:  "fixture-load-1@example.edu",
			Subject:    "Faculty load 2nd semester SY 2025-2026",
			ReceivedAt: "2026-01-12T01:00:00Z",
			Raw:        raw,
		}}}, nil
	})

	res, err := svc.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Stored != 1 || res.Processed != 1 || res.Offerings != 6 || res.Exported != 1 {
		t.Fatalf("cycle=%+v", res)
	}

	load, err := db.MustLoadByProviderMessageID(connectors.ProviderIMAP, "fixture-load-1@example.edu")
	if err != nil {
		t.Fatal(err)
	}
	if load.Status != pipeline.StatusExported {
		t.Fatalf("status=%q", load.Status)
	}
	out := filepath.Join(cfg.OutputDir, "listener", "1_fixture-load-1_at_example.edu.xlsx")
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("export missing: %v", err)
	}
	if v, _ := db.GetMetadata(metaLastCycle); v == nil {
		t.Fatal("last cycle not recorded")
	}

	// A second cycle with the same message must not export again.
	res, err = svc.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Processed != 0 || res.Exported != 0 {
		t.Fatalf("second cycle=%+v", res)
	}
}

func TestNewConnectorRejectsUnknownProvider(t *testing.T) {
	if _, err := NewConnector(context.Background(), "pop3", config.Config{}, nil); err == nil {
		t.Fatal("expected error")
	}
	if _, err := NewConnector(context.Background(), "imap", config.Config{}, nil); err == nil {
		t.Fatal("imap without host should fail")
	}
}

func TestSanitizeMessageID(t *testing.T) {
	if got := sanitizeMessageID("<a/b:c@x.edu>"); got != "_a_b_c_at_x.edu_" {
		t.Fatalf("got %q", got)
	}
}
