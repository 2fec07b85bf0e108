// internal/store/store.go
package store

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dashwatch-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MetadataStore keeps the append-only list of screenshot metadata records and
// persists it as a pretty-printed JSON array. The file is rewritten in full
// on every save so its content always mirrors the in-memory list.
//
// The store is used by exactly one sequential actor (the monitor loop), so it
// carries no locking.
type MetadataStore struct {
	path    string
	logger  *zap.Logger
	records []schemas.ScreenshotMetadata
}

// New creates a store backed by the JSON file at path.
func New(path string, logger *zap.Logger) *MetadataStore {
	return &MetadataStore{
		path:   path,
		logger: logger.Named("metadata_store"),
	}
}

// Load reads existing records from disk. A missing file yields an empty
// list; a malformed file is logged and also yields an empty list. Neither is
// an error: losing historical metadata must not stop a new monitoring run.
func (s *MetadataStore) Load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Could not read metadata file; starting with an empty list.",
				zap.String("path", s.path), zap.Error(err))
		}
		s.records = nil
		return
	}

	var records []schemas.ScreenshotMetadata
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("Metadata file is malformed; starting with an empty list.",
			zap.String("path", s.path), zap.Error(err))
		s.records = nil
		return
	}

	s.records = records
	s.logger.Info("Loaded existing metadata records.",
		zap.String("path", s.path), zap.Int("count", len(records)))
}

// Append adds one record to the in-memory list. The caller decides when to
// persist via Save.
func (s *MetadataStore) Append(record schemas.ScreenshotMetadata) {
	s.records = append(s.records, record)
}

// Save writes the full record list to disk, overwriting the previous file.
func (s *MetadataStore) Save() error {
	records := s.records
	if records == nil {
		// A run with no captures yet must still write a valid JSON array,
		// not "null".
		records = []schemas.ScreenshotMetadata{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata records: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata file %q: %w", s.path, err)
	}
	s.logger.Debug("Saved metadata file.",
		zap.String("path", s.path), zap.Int("count", len(s.records)))
	return nil
}

// Records returns a copy of the in-memory list in capture order.
func (s *MetadataStore) Records() []schemas.ScreenshotMetadata {
	out := make([]schemas.ScreenshotMetadata, len(s.records))
	copy(out, s.records)
	return out
}

// Len reports the number of records held in memory.
func (s *MetadataStore) Len() int {
	return len(s.records)
}
