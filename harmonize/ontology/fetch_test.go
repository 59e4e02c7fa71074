package ontology

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func gzipBytes(t *testing.T, b []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		t.Fatalf("gzip: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestFetch_DownloadsOnceThenUsesCache(t *testing.T) {
	t.Parallel()

	dbBytes, err := os.ReadFile(mondoFixture(t))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	payload := gzipBytes(t, dbBytes)

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/mondo.db.gz" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	cache := t.TempDir()
	opts := FetchOptions{CacheDir: cache, BaseURL: srv.URL, Client: srv.Client()}

	path, err := Fetch(context.Background(), "MONDO", opts)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if path != filepath.Join(cache, "mondo.db") {
		t.Fatalf("path=%q", path)
	}

	// Second fetch reuses the cached file.
	if _, err := Fetch(context.Background(), "sqlite:obo:mondo", opts); err != nil {
		t.Fatalf("Fetch cached: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("hits=%d, want 1", n)
	}

	s, err := OpenSQLStore(path)
	if err != nil {
		t.Fatalf("OpenSQLStore: %v", err)
	}
	defer s.Close()
	got, err := s.BasicSearch(context.Background(), "diabetes mellitus", Label)
	if err != nil || len(got) == 0 {
		t.Fatalf("BasicSearch=%v err=%v", got, err)
	}
}

func TestFetch_Errors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	opts := FetchOptions{CacheDir: t.TempDir(), BaseURL: srv.URL, Client: srv.Client()}
	if _, err := Fetch(context.Background(), "nope", opts); err == nil {
		t.Fatalf("expected error for 404")
	}
	if _, err := Fetch(context.Background(), "  ", opts); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestFetch_LocalDatabasePath(t *testing.T) {
	t.Parallel()

	local := mondoFixture(t)
	path, err := Fetch(context.Background(), local, FetchOptions{CacheDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if path != local {
		t.Fatalf("path=%q, want %q", path, local)
	}
}

func TestFetch_MissingLocalDatabaseNeverDownloads(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dir := t.TempDir()
	opts := FetchOptions{CacheDir: dir, BaseURL: srv.URL, Client: srv.Client()}
	for _, source := range []string{"x.db", filepath.Join(dir, "missing", "hp")} {
		_, err := Fetch(context.Background(), source, opts)
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("Fetch(%q) err=%v, want not-exist", source, err)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Fatalf("downloads=%d, want 0", n)
	}
}
