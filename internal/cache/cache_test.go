package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxindex/medinfo-cli/internal/fetcher"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:    5 * time.Second,
		MaxRetries: 1,
	})
	return New(t.TempDir(), f)
}

func TestPathJoinsUnderRoot(t *testing.T) {
	s := newTestStore(t)
	p := s.Path("orangebook", "products.txt")
	assert.Equal(t, filepath.Join(s.Root(), "orangebook", "products.txt"), p)
}

func TestEnsureDir(t *testing.T) {
	s := newTestStore(t)
	dir, err := s.EnsureDir("purplebook")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestIsFresh(t *testing.T) {
	s := newTestStore(t)
	path := s.Path("file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	assert.True(t, s.IsFresh(path, time.Hour))

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))
	assert.False(t, s.IsFresh(path, 24*time.Hour))
}

func TestIsFresh_Missing(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.IsFresh(s.Path("nope.txt"), time.Hour))
}

func TestModTime(t *testing.T) {
	s := newTestStore(t)
	path := s.Path("file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	mt, ok := s.ModTime(path)
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now(), mt, time.Minute)

	_, ok = s.ModTime(s.Path("gone.txt"))
	assert.False(t, ok)
}

func TestDownloadTo_CreatesParentDirs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("dataset bytes"))
	}))
	defer srv.Close()

	s := newTestStore(t)
	path := s.Path("niosh", "2025-103.pdf")
	require.NoError(t, s.DownloadTo(context.Background(), srv.URL+"/pdf", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "dataset bytes", string(data))
}

func TestDownloadTo_FailurePreservesOldFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := newTestStore(t)
	path := s.Path("orangebook", "products.zip")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("cached"), 0o644))

	err := s.DownloadTo(context.Background(), srv.URL+"/zip", path)
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cached", string(data))
}

func TestWriteReadJSONRoundTrip(t *testing.T) {
	s := newTestStore(t)
	path := s.Path("niosh", "2025-103.parsed.json")

	type payload struct {
		OK    bool     `json:"ok"`
		Names []string `json:"names"`
	}
	in := payload{OK: true, Names: []string{"cyclophosphamide", "fluorouracil"}}
	require.NoError(t, s.WriteJSON(path, in))

	// No temp sibling left behind.
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	var out payload
	require.NoError(t, s.ReadJSON(path, &out))
	assert.Equal(t, in, out)
}

func TestReadJSON_Missing(t *testing.T) {
	s := newTestStore(t)
	var v map[string]any
	err := s.ReadJSON(s.Path("absent.json"), &v)
	require.Error(t, err)
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	path := s.Path("stale.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, s.Remove(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Removing a missing file is not an error.
	require.NoError(t, s.Remove(path))
}
