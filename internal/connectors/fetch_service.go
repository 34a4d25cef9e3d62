package connectors

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"classload/internal/storage"
)

type FetchService struct {
	connector MailConnector
	store     *MailStore
	log       *zap.Logger
}

type FetchResult struct {
	Fetched int
	Stored  int
	Failed  int
}

func NewFetchService(db *storage.DB, rawMailDir string, connector MailConnector, log *zap.Logger) *FetchService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FetchService{connector: connector, store: NewMailStore(db, rawMailDir), log: log}
}

func (s *FetchService) FetchAndStore(ctx context.Context, label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(ctx, label, max)
	if err != nil {
		return FetchResult{}, fmt.Errorf("fetch %s: %w", label, err)
	}

	res := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		row, err := s.store.Store(msg)
		if err != nil {
			res.Failed++
			s.log.Error("store message failed", zap.String("messageId", msg.MessageID), zap.Error(err))
			continue
		}
		res.Stored++
		s.log.Debug("message stored", zap.Int("load", row.ID), zap.String("messageId", msg.MessageID), zap.String("subject", msg.Subject))
	}
	return res, nil
}
