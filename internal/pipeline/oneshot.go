package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"classload/internal"
)

// ParseFile reads a load sheet from disk and parses it.
func ParseFile(path string) (internal.IngestResult, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return internal.IngestResult{}, err
	}
	return ParseUpload(filepath.Base(path), blob)
}

// ParseUpload parses the content of an uploaded load sheet.
func ParseUpload(name string, content []byte) (internal.IngestResult, error) {
	rows, err := ReadRows(name, content)
	if err != nil {
		return internal.IngestResult{}, fmt.Errorf("read %s: %w", name, err)
	}
	return NewParser().Parse(rows), nil
}
