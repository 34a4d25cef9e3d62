package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"classload/internal"
	"classload/internal/storage"
)

const StatusFetched = "fetched"

type MailStore struct {
	db         *storage.DB
	rawMailDir string
}

func NewMailStore(db *storage.DB, rawMailDir string) *MailStore {
	return &MailStore{db: db, rawMailDir: rawMailDir}
}

func (s *MailStore) Store(msg internal.FetchedMailMessage) (internal.LoadRow, error) {
	if len(msg.Raw) == 0 {
		return internal.LoadRow{}, fmt.Errorf("message %s has no body", msg.MessageID)
	}
	sum := sha256.Sum256(msg.Raw)
	hash := hex.EncodeToString(sum[:])

	if err := os.MkdirAll(s.rawMailDir, 0o755); err != nil {
		return internal.LoadRow{}, err
	}
	rawPath := filepath.Join(s.rawMailDir, hash+".eml")
	if _, err := os.Stat(rawPath); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(rawPath, msg.Raw, 0o644); err != nil {
			return internal.LoadRow{}, err
		}
	} else if err != nil {
		return internal.LoadRow{}, err
	}

	return s.db.UpsertLoad(msg.Provider, msg.MessageID, msg.Subject, msg.From, msg.ReceivedAt, hash, rawPath, StatusFetched)
}
