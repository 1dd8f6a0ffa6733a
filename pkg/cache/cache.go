// Package cache implements the parsed-result cache (spec §4.5): a
// file-level key-value store keyed by file_id, with atomic
// write-temp-then-rename persistence and corrupt entries treated as misses.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"

	"github.com/adaptive-scale/docmine/pkg/apierr"
	log "github.com/sirupsen/logrus"
)

// keySafeRe constrains file_ids to characters safe for a single path
// segment, so a cache key can never escape Dir via "..".
var keySafeRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Cache is a directory-backed key-value store for parsed payloads.
type Cache struct {
	Dir string
}

// New returns a Cache rooted at dir, creating it if necessary.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apierr.Wrap(apierr.Internal, "failed to create cache directory", err)
	}
	return &Cache{Dir: dir}, nil
}

func (c *Cache) pathFor(fileID string) (string, error) {
	if !keySafeRe.MatchString(fileID) {
		return "", apierr.New(apierr.InvalidInput, "file_id contains characters not safe for a cache key")
	}
	return filepath.Join(c.Dir, fileID+".json"), nil
}

// Put persists payload for fileID via write-temp-then-rename so a reader
// never observes a partially written file.
func (c *Cache) Put(fileID string, payload interface{}) error {
	path, err := c.pathFor(fileID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return apierr.Wrap(apierr.Internal, "failed to marshal cache payload", err)
	}

	tmp, err := os.CreateTemp(c.Dir, ".tmp-cache-*")
	if err != nil {
		return apierr.Wrap(apierr.Internal, "failed to create temp cache file", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return apierr.Wrap(apierr.Internal, "failed to write temp cache file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return apierr.Wrap(apierr.Internal, "failed to close temp cache file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return apierr.Wrap(apierr.Internal, "failed to rename temp cache file into place", err)
	}
	return nil
}

// Get returns the payload stored for fileID into out, reporting false when
// no entry exists or the entry is corrupt (logged, then treated as a miss
// rather than an error, per spec §4.5).
func (c *Cache) Get(fileID string, out interface{}) (bool, error) {
	path, err := c.pathFor(fileID)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, apierr.Wrap(apierr.Internal, "failed to read cache entry", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.WithError(err).WithField("file_id", fileID).Warn("corrupt cache entry, treating as miss")
		return false, nil
	}
	return true, nil
}

// Delete removes the cache entry for fileID, if any. Deleting a missing
// entry is not an error.
func (c *Cache) Delete(fileID string) error {
	path, err := c.pathFor(fileID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return apierr.Wrap(apierr.Internal, "failed to delete cache entry", err)
	}
	return nil
}
