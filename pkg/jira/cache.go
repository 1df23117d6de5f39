package jira

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
)

const (
	// cacheExtension marks LZ4-framed JSON snapshot files.
	cacheExtension = ".json.lz4"

	cacheDirPerm  = 0o755
	cacheFilePerm = 0o600
)

// ErrCacheMiss indicates no cached snapshot exists for the project.
var ErrCacheMiss = errors.New("no cached snapshot")

// SnapshotCache persists fetched issue batches as LZ4-compressed JSON so
// repeated exports can run without hitting the Jira API.
type SnapshotCache struct {
	dir string
}

// NewSnapshotCache creates a cache rooted at dir.
func NewSnapshotCache(dir string) *SnapshotCache {
	return &SnapshotCache{dir: dir}
}

// Store writes the issue batch for a project, replacing any previous entry.
func (c *SnapshotCache) Store(projectKey string, issues []Issue) error {
	if err := os.MkdirAll(c.dir, cacheDirPerm); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	f, err := os.OpenFile(c.path(projectKey), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, cacheFilePerm)
	if err != nil {
		return fmt.Errorf("create cache entry: %w", err)
	}
	defer f.Close()

	zw := lz4.NewWriter(f)

	if err := json.NewEncoder(zw).Encode(issues); err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush cache entry: %w", err)
	}

	return nil
}

// Load reads the cached issue batch for a project. Returns ErrCacheMiss
// when no entry exists.
func (c *SnapshotCache) Load(projectKey string) ([]Issue, error) {
	f, err := os.Open(c.path(projectKey))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCacheMiss, projectKey)
		}

		return nil, fmt.Errorf("open cache entry: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(lz4.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decompress cache entry: %w", err)
	}

	var issues []Issue
	if err := json.Unmarshal(data, &issues); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}

	return issues, nil
}

func (c *SnapshotCache) path(projectKey string) string {
	return filepath.Join(c.dir, projectKey+cacheExtension)
}
