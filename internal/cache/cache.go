// Package cache manages the on-disk store for bulky public datasets so
// repeat lookups do not re-download them.
package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/rxindex/medinfo-cli/internal/fetcher"
)

// Store is a filesystem cache rooted at a single directory. Datasets keep
// their files in per-dataset subdirectories.
type Store struct {
	root    string
	fetcher fetcher.Fetcher
}

// New creates a Store rooted at dir, downloading through f.
func New(dir string, f fetcher.Fetcher) *Store {
	return &Store{root: dir, fetcher: f}
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// Path joins parts under the cache root.
func (s *Store) Path(parts ...string) string {
	return filepath.Join(append([]string{s.root}, parts...)...)
}

// EnsureDir creates (if needed) and returns a directory under the root.
func (s *Store) EnsureDir(parts ...string) (string, error) {
	dir := s.Path(parts...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "cache: create dir %s", dir)
	}
	return dir, nil
}

// IsFresh reports whether path exists and was modified within maxAge.
func (s *Store) IsFresh(path string, maxAge time.Duration) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < maxAge
}

// ModTime returns the modification time of path and whether it exists.
func (s *Store) ModTime(path string) (time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// DownloadTo fetches url into path, creating the parent directory. The
// write is atomic, so readers never observe a partial file.
func (s *Store) DownloadTo(ctx context.Context, url, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "cache: create dir %s", filepath.Dir(path))
	}
	if _, err := s.fetcher.DownloadToFile(ctx, url, path); err != nil {
		return eris.Wrapf(err, "cache: download %s", url)
	}
	return nil
}

// WriteJSON marshals v into path atomically.
func (s *Store) WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "cache: create dir %s", filepath.Dir(path))
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "cache: marshal json")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "cache: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrapf(err, "cache: rename %s", path)
	}
	return nil
}

// ReadJSON unmarshals path into v.
func (s *Store) ReadJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "cache: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return eris.Wrapf(err, "cache: decode %s", path)
	}
	return nil
}

// Remove deletes a cached file, ignoring files that are already gone.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "cache: remove %s", path)
	}
	return nil
}
