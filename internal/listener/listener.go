package listener

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"classload/internal/config"
	"classload/internal/connectors"
	gmailconnector "classload/internal/connectors/gmail"
	imapconnector "classload/internal/connectors/imap"
	"classload/internal/pipeline"
	"classload/internal/storage"
)

const (
	metaLastCycle = "listener.last_cycle"
	exportBatch   = 200
)

type Service struct {
	db      *storage.DB
	cfg     config.Config
	log     *zap.Logger
	connect connectors.Factory
}

type CycleResult struct {
	Fetched   int
	Stored    int
	Processed int
	Offerings int
	Exported  int
}

func NewService(db *storage.DB, cfg config.Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, cfg: cfg, log: log.Named("listener"), connect: NewConnector}
}

func (s *Service) WithConnector(f connectors.Factory) *Service {
	s.connect = f
	return s
}

func NewConnector(ctx context.Context, provider string, cfg config.Config, log *zap.Logger) (connectors.MailConnector, error) {
	switch connectors.NormalizeProvider(provider) {
	case connectors.ProviderGmail:
		return gmailconnector.NewConnector(ctx, cfg, log)
	case connectors.ProviderIMAP:
		return imapconnector.NewConnector(cfg, log)
	}
	return nil, fmt.Errorf("unsupported mail provider %q (want %s|%s)", provider, connectors.ProviderGmail, connectors.ProviderIMAP)
}

// Run polls until ctx is cancelled. A failed cycle is logged and retried on
// the next tick.
func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.MailListenerIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("listener started", zap.String("provider", s.cfg.MailListenerProvider), zap.Duration("interval", interval))
	for {
		if _, err := s.RunCycle(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("listener cycle failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			s.log.Info("listener stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	provider := connectors.NormalizeProvider(s.cfg.MailListenerProvider)
	conn, err := s.connect(ctx, provider, s.cfg, s.log)
	if err != nil {
		return CycleResult{}, err
	}

	fetched, err := connectors.NewFetchService(s.db, s.cfg.RawMailDir, conn, s.log).
		FetchAndStore(ctx, s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return CycleResult{}, err
	}
	res := CycleResult{Fetched: fetched.Fetched, Stored: fetched.Stored}

	processor := pipeline.NewProcessingService(s.db, s.cfg, s.log)
	res.Processed, res.Offerings, err = processor.ProcessPending(s.cfg.MailListenerProcessBatch, provider)
	if err != nil {
		return res, err
	}

	if s.cfg.MailListenerAutoExport {
		if res.Exported, err = s.exportProcessed(provider); err != nil {
			return res, err
		}
	}

	if err := s.db.SetMetadata(metaLastCycle, time.Now().UTC().Format(time.RFC3339)); err != nil {
		s.log.Warn("record cycle time", zap.Error(err))
	}
	s.log.Info("listener cycle done",
		zap.String("provider", provider),
		zap.Int("fetched", res.Fetched),
		zap.Int("stored", res.Stored),
		zap.Int("processed", res.Processed),
		zap.Int("offerings", res.Offerings),
		zap.Int("exported", res.Exported),
	)
	return res, nil
}

func (s *Service) exportProcessed(provider string) (int, error) {
	loads, err := s.db.ListLoadsByStatus(pipeline.StatusProcessed, exportBatch)
	if err != nil {
		return 0, err
	}

	exported := 0
	for _, load := range loads {
		if load.Provider != provider {
			continue
		}
		rows, err := s.db.GetExportRows(load.ID)
		if err != nil {
			return exported, err
		}
		if len(rows) == 0 {
			continue
		}
		name := fmt.Sprintf("%d_%s.xlsx", load.ID, sanitizeMessageID(load.MessageID))
		path := filepath.Join(s.cfg.OutputDir, "listener", name)
		if err := pipeline.ExportOfferingsToXLSX(rows, path); err != nil {
			return exported, fmt.Errorf("export load %d: %w", load.ID, err)
		}
		if err := s.db.UpdateLoadStatus(load.ID, pipeline.StatusExported); err != nil {
			return exported, err
		}
		exported++
		s.log.Debug("load exported", zap.Int("load", load.ID), zap.String("path", path))
	}
	return exported, nil
}

var messageIDReplacer = strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_", "@", "_at_")

func sanitizeMessageID(id string) string {
	out := messageIDReplacer.Replace(id)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
