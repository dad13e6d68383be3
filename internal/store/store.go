// Package store persists the LoRA trigger table as a single JSON document.
//
// The table is read fresh for every operation and rewritten in full at the
// end of a mutating one. Read failures degrade to an empty table and write
// failures are logged, never returned to the generation path.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// DefaultFileName is the store document's file name.
const DefaultFileName = "lora_trigger.json"

// Store is the file-backed trigger table.
type Store struct {
	path   string
	logger *zap.Logger
}

func New(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:   path,
		logger: logger.Named("store"),
	}
}

// Path returns the location of the store document.
func (s *Store) Path() string {
	return s.path
}

// Load reads the current table from disk. A missing or unparseable document
// yields an empty table.
func (s *Store) Load() Table {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("trigger store not found, starting empty", zap.String("path", s.path))
		} else {
			s.logger.Warn("failed to read trigger store", zap.String("path", s.path), zap.Error(err))
		}
		return Table{}
	}

	table, err := decode(data)
	if err != nil {
		s.logger.Warn("failed to parse trigger store, starting empty", zap.String("path", s.path), zap.Error(err))
		return Table{}
	}
	return table
}

// Save writes the whole table. Failures are logged and swallowed.
func (s *Store) Save(t Table) {
	if err := s.write(t); err != nil {
		s.logger.Error("failed to save trigger store", zap.String("path", s.path), zap.Error(err))
		return
	}
	s.logger.Info("trigger store saved", zap.String("path", s.path), zap.Int("entries", len(t)))
}

// write replaces the document through a temp file in the same directory so a
// crash mid-write leaves the previous version intact.
func (s *Store) write(t Table) error {
	data, err := encode(t)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace store: %w", err)
	}
	return nil
}

func encode(t Table) ([]byte, error) {
	if t == nil {
		t = Table{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(t); err != nil {
		return nil, fmt.Errorf("failed to encode trigger store: %w", err)
	}
	return buf.Bytes(), nil
}

// decode accepts any JSON object. String values are kept, null becomes an
// empty entry and other value types are dropped.
func decode(data []byte) (Table, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	table := make(Table, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			table[k] = val
		case nil:
			table[k] = ""
		}
	}
	return table, nil
}
