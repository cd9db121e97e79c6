package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fbexport/pkg/logger"
	"fbexport/pkg/models"
)

// Document is the on-disk JSON layout
type Document struct {
	ExportedAt time.Time               `json:"exported_at"`
	Result     string                  `json:"result"`
	Code       uint32                  `json:"code"`
	Count      int                     `json:"count"`
	Data       map[string]*models.Post `json:"data"`
}

// JSONSink writes the result to one JSON file
type JSONSink struct {
	path   string
	logger logger.Logger
}

// NewJSONSink creates a sink writing to path. Parent directories are
// created on demand.
func NewJSONSink(path string, log logger.Logger) *JSONSink {
	if log == nil {
		log = logger.GetLogger()
	}
	return &JSONSink{path: path, logger: log}
}

// Write saves res atomically: a reader sees either the previous file or
// the complete new one
func (s *JSONSink) Write(ctx context.Context, res *models.Result) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	doc := Document{
		ExportedAt: time.Now().UTC(),
		Result:     res.Code.String(),
		Code:       uint32(res.Code),
		Count:      res.Count,
		Data:       res.Data,
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary archive file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode archive: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync archive file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close archive file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace archive file: %w", err)
	}

	s.logger.InfoWithFields("JSON archive written", map[string]interface{}{
		"path":  s.path,
		"count": res.Count,
	})
	return nil
}

// Close is a no-op; every Write is self-contained
func (s *JSONSink) Close() error {
	return nil
}

// ReadJSON loads a document written by JSONSink
func ReadJSON(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive file: %w", err)
	}
	defer file.Close()

	var doc Document
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode archive: %w", err)
	}
	return &doc, nil
}
