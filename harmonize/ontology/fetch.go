package ontology

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/fileutils"
)

// DefaultBaseURL hosts pre-built semantic-SQL databases as <id>.db.gz.
const DefaultBaseURL = "https://s3.amazonaws.com/bbop-sqlite"

// FetchOptions controls where ontology databases are downloaded from and cached.
type FetchOptions struct {
	// CacheDir holds <id>.db files. Defaults to ~/.data/oaklib.
	CacheDir string

	// BaseURL is the download root. Defaults to DefaultBaseURL.
	BaseURL string

	// Refresh re-downloads even when a cached copy exists. A cached database is
	// otherwise never updated automatically.
	Refresh bool

	// Client is used for downloads. Defaults to http.DefaultClient.
	Client *http.Client
}

// DefaultCacheDir returns ~/.data/oaklib, falling back to a relative directory.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.FromSlash(".data/oaklib")
	}
	return filepath.Join(home, ".data", "oaklib")
}

// Fetch resolves an OBO ontology identifier (e.g. "mondo", "hp") to a local
// semantic-SQL database path, downloading and decompressing it when needed.
// A source ending in .db or containing a path separator is a local file and is
// used as-is; it is an error if it does not exist.
func Fetch(ctx context.Context, source string, opts FetchOptions) (string, error) {
	if ctx == nil {
		return "", errors.New("Fetch: ctx is nil")
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return "", errors.New("Fetch: ontology id is empty")
	}
	if strings.HasSuffix(source, ".db") || strings.ContainsAny(source, `/\`) {
		if !fileutils.FileExists(source) {
			return "", fmt.Errorf("Fetch: local database %s: %w", source, os.ErrNotExist)
		}
		return source, nil
	}
	id := strings.ToLower(strings.TrimPrefix(source, "sqlite:obo:"))

	if opts.CacheDir == "" {
		opts.CacheDir = DefaultCacheDir()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}

	dbPath := filepath.Join(opts.CacheDir, id+".db")
	if !opts.Refresh && fileutils.FileExists(dbPath) {
		return dbPath, nil
	}
	if err := os.MkdirAll(opts.CacheDir, 0o755); err != nil {
		return "", fmt.Errorf("Fetch: mkdir cache: %w", err)
	}

	url := strings.TrimRight(opts.BaseURL, "/") + "/" + id + ".db.gz"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("Fetch: build request: %w", err)
	}
	resp, err := opts.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("Fetch: download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Fetch: download %s: status %s", url, resp.Status)
	}

	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("Fetch: gunzip %s: %w", url, err)
	}
	defer zr.Close()

	if err := fileutils.WriteStreamAtomic(dbPath, zr, 0o644); err != nil {
		return "", fmt.Errorf("Fetch: write %s: %w", dbPath, err)
	}
	return dbPath, nil
}

// OpenOBO fetches (or reuses) the database for id and opens it.
func OpenOBO(ctx context.Context, id string, opts FetchOptions) (*SQLStore, error) {
	path, err := Fetch(ctx, id, opts)
	if err != nil {
		return nil, err
	}
	return OpenSQLStore(path)
}
