package pipeline

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"classload/internal"
	"classload/internal/config"
	"classload/internal/storage"
	"classload/internal/util"
)

const (
	StatusFetched   = "fetched"
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusExported  = "exported"
)

// ProcessingService parses the load sheets attached to stored messages and
// records the resulting offerings.
type ProcessingService struct {
	db  *storage.DB
	cfg config.Config
	log *zap.Logger
}

func NewProcessingService(db *storage.DB, cfg config.Config, log *zap.Logger) *ProcessingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProcessingService{db: db, cfg: cfg, log: log}
}

type ProcessResult struct {
	LoadID    int
	Sheets    int
	Offerings int
}

func (s *ProcessingService) ProcessByProviderMessageID(provider, messageID string) (ProcessResult, error) {
	load, err := s.db.MustLoadByProviderMessageID(provider, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	return s.ProcessLoad(load)
}

func (s *ProcessingService) ProcessPending(limit int, provider string) (int, int, error) {
	pending, err := s.db.ListLoadsByStatus(StatusFetched, limit)
	if err != nil {
		return 0, 0, err
	}
	processedLoads := 0
	processedOfferings := 0
	for _, load := range pending {
		if provider != "" && load.Provider != provider {
			continue
		}
		res, err := s.ProcessLoad(load)
		if err != nil {
			return processedLoads, processedOfferings, fmt.Errorf("process load %d: %w", load.ID, err)
		}
		processedLoads++
		processedOfferings += res.Offerings
	}
	return processedLoads, processedOfferings, nil
}

func (s *ProcessingService) ProcessLoad(load internal.LoadRow) (ProcessResult, error) {
	start := time.Now()
	traceID := uuid.NewString()
	log := s.log.With(zap.String("trace", traceID), zap.Int("load", load.ID))

	raw, err := os.ReadFile(load.RawRef)
	if err != nil {
		return ProcessResult{}, err
	}

	sheets, subject, text, attachmentNames, err := ExtractLoadSheetsFromEmail(raw)
	if err != nil {
		return ProcessResult{}, err
	}

	withHeader := 0
	for _, sheet := range sheets {
		if FindHeaderRow(sheet.Rows) >= 0 {
			withHeader++
		}
	}
	detect := DetectLoadSheetEmail(util.FirstNonEmpty(subject, load.Subject), text, attachmentNames, withHeader)
	if err := s.db.ClearLoadOfferings(load.ID); err != nil {
		return ProcessResult{}, err
	}

	if !detect.IsLoadSheet {
		log.Info("message skipped", zap.Float64("score", detect.Score), zap.Strings("attachments", attachmentNames))
		_ = s.db.UpdateLoadStatus(load.ID, StatusSkipped)
		_ = s.db.InsertRun(traceID, load.ID, map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}, map[string]int{"sheets": 0, "offerings": 0})
		return ProcessResult{LoadID: load.ID}, nil
	}

	parser := NewParser(WithLogger(log))
	total, skipped := 0, 0
	for _, sheet := range sheets {
		result := parser.Parse(sheet.Rows)
		if len(result.Offerings) == 0 {
			log.Warn("sheet produced no offerings", zap.String("file", sheet.FileName))
			continue
		}
		if err := s.db.InsertOfferings(load.ID, sheet.FileName, result); err != nil {
			return ProcessResult{}, err
		}
		total += len(result.Offerings)
		skipped += result.Summary.RowsSkipped
	}

	if err := s.db.UpdateLoadStatus(load.ID, StatusProcessed); err != nil {
		return ProcessResult{}, err
	}
	_ = s.db.InsertRun(traceID, load.ID,
		map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())},
		map[string]int{"sheets": len(sheets), "offerings": total, "skippedRows": skipped},
	)
	log.Info("load processed", zap.Int("sheets", len(sheets)), zap.Int("offerings", total))

	return ProcessResult{LoadID: load.ID, Sheets: len(sheets), Offerings: total}, nil
}
