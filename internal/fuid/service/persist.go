package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"fuid-service/internal/fuid/model"
)

// LoadDocument reads the identity document at path. A missing file yields an
// empty document. A file that does not parse is moved aside to
// <path>.corrupt-<unix> and an empty document is returned in its place.
func LoadDocument(path string, logger zerolog.Logger) (*model.Document, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn().Str("path", path).Msg("data file not found, starting empty")
		return model.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	doc := &model.Document{}
	if err := json.Unmarshal(b, doc); err != nil {
		quarantine := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		if werr := os.WriteFile(quarantine, b, 0o644); werr != nil {
			logger.Error().Err(werr).Str("path", quarantine).Msg("could not keep corrupt data file")
		}
		logger.Error().
			Err(err).
			Str("path", path).
			Str("quarantine", quarantine).
			Msg("data file is corrupt, starting from an empty document")
		return model.NewDocument(), nil
	}

	if rejected := doc.FUIDMappings.Rejected(); len(rejected) > 0 {
		logger.Warn().
			Int("count", len(rejected)).
			Strs("fuids", rejected).
			Msg("invalid fuid records are ignored and kept as-is on save")
	}
	logger.Info().
		Str("path", path).
		Int("fuids", doc.FUIDMappings.Len()).
		Msg("data file loaded")
	return doc, nil
}

// SaveDocument replaces the file at path with doc. The document is written to
// a temporary file in the same directory and renamed over the target.
func SaveDocument(path string, doc *model.Document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func cloneDocument(doc *model.Document) (*model.Document, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	out := &model.Document{}
	if err := json.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}

func modTime(path string) *time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		return nil
	}
	t := fi.ModTime().UTC()
	return &t
}
