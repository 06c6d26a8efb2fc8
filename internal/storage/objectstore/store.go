// Package objectstore provides filesystem-backed binary artifact storage for
// rendered PDFs and cached raw-data snapshots.
package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/interfaces"
)

// PDFObjectKey builds the deterministic object key for a rendered report PDF:
// reports/{symbol}/{date}/{symbol}_report_{date}_{timestamp}.pdf
func PDFObjectKey(symbol, reportDate string, ts time.Time) string {
	safe := strings.ReplaceAll(symbol, ":", "_")
	return fmt.Sprintf("reports/%s/%s/%s_report_%s_%d.pdf", safe, reportDate, safe, reportDate, ts.Unix())
}

// RawSnapshotKey builds the object key for a raw market-data snapshot:
// cache/{symbol}/{date}.json
func RawSnapshotKey(symbol, date string) string {
	safe := strings.ReplaceAll(symbol, ":", "_")
	return fmt.Sprintf("cache/%s/%s.json", safe, date)
}

// Store implements the ObjectStore interface on the local filesystem. Put is
// write-if-absent so repeated workflow runs never duplicate uploads.
type Store struct {
	root   string
	logger arbor.ILogger
}

// Compile-time assertion
var _ interfaces.ObjectStore = (*Store)(nil)

// NewStore creates an object store rooted at dir.
func NewStore(dir string, logger arbor.ILogger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("object store directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create object store root: %w", err)
	}
	return &Store{root: dir, logger: logger}, nil
}

// Put stores data under key unless the object already exists. Returns true
// when the object was written, false when it already existed.
func (s *Store) Put(ctx context.Context, key string, data []byte) (bool, error) {
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create object directory for %s: %w", key, err)
	}

	// Write to a temp file first so a concurrent reader never sees a partial
	// object, then publish with a hard link. Link fails with EEXIST when the
	// object is already present, which makes the absence check and the write
	// a single atomic step.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return false, fmt.Errorf("failed to create temp object for %s: %w", key, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return false, fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("failed to finalize object %s: %w", key, err)
	}
	if err := os.Link(tmpName, path); err != nil {
		if os.IsExist(err) {
			s.logger.Debug().Str("key", key).Msg("Object already exists, skipping write")
			return false, nil
		}
		return false, fmt.Errorf("failed to publish object %s: %w", key, err)
	}

	s.logger.Debug().Str("key", key).Int("size", len(data)).Msg("Object written")
	return true, nil
}

// Get retrieves the object stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// Exists reports whether an object is stored under key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object %s: %w", key, err)
	}
	return true, nil
}

// resolve maps a key to a filesystem path while rejecting escapes from the
// store root.
func (s *Store) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}
