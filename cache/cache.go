// Package cache is a JSON file cache for platform API responses.
// Entries live under <dir>/<category>/ and carry a cached_at timestamp
// used for TTL checks. There is no file locking: concurrent runs against
// the same cache directory are unsupported.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yairfalse/omista/telemetry"
)

// ErrMiss is returned when no valid cache entry exists for a key.
// Expired and unparsable entries are misses, never errors.
var ErrMiss = errors.New("cache miss")

// DefaultTTL is how long cache entries stay valid.
const DefaultTTL = 24 * time.Hour

// Key identifies one cache entry.
type Key struct {
	Category     string
	AccountID    string
	ResourceType string
	Start        string
	End          string
}

// envelope wraps every cached payload with its write timestamp and an
// id of the run that produced it, for tracing stale data back to a run.
type envelope struct {
	CachedAt time.Time       `json:"cached_at"`
	RunID    string          `json:"run_id,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

// Store reads and writes JSON cache files under one directory.
type Store struct {
	dir    string
	ttl    time.Duration
	runID  string
	logger *telemetry.Logger
}

// NewStore creates a cache store rooted at dir with the default TTL.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &Store{
		dir:    dir,
		ttl:    DefaultTTL,
		runID:  uuid.NewString(),
		logger: telemetry.NewLogger("cache"),
	}, nil
}

// WithTTL overrides the entry lifetime.
func (s *Store) WithTTL(ttl time.Duration) *Store {
	s.ttl = ttl
	return s
}

// Path derives the cache file path for a key. The type slot may hold a
// resource type ("ec2:instance") or a report name with spaces; both are
// cleaned for the filesystem.
func (s *Store) Path(key Key) string {
	parts := []string{"account_" + key.AccountID}
	if key.ResourceType != "" {
		cleaned := strings.ReplaceAll(key.ResourceType, ":", "-")
		cleaned = strings.ReplaceAll(cleaned, " ", "-")
		parts = append(parts, "type_"+cleaned)
	}
	if key.Start != "" && key.End != "" {
		parts = append(parts, "dates_"+key.Start+"_to_"+key.End)
	}
	return filepath.Join(s.dir, key.Category, strings.Join(parts, "_")+".json")
}

// Get loads the cached payload for key into v. A missing, expired, or
// unparsable file yields ErrMiss; parse failures are logged, not
// propagated.
func (s *Store) Get(key Key, v any) error {
	path := s.Path(key)
	data, err := os.ReadFile(path) // #nosec G304 -- path is derived from our own key scheme
	if err != nil {
		return ErrMiss
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Warn().Str("path", path).Err(err).Msg("unparsable cache file, treating as miss")
		return ErrMiss
	}
	if env.CachedAt.IsZero() || len(env.Payload) == 0 {
		s.logger.Warn().Str("path", path).Msg("cache file missing required fields, treating as miss")
		return ErrMiss
	}
	if time.Since(env.CachedAt) >= s.ttl {
		return ErrMiss
	}

	if err := json.Unmarshal(env.Payload, v); err != nil {
		s.logger.Warn().Str("path", path).Err(err).Msg("cache payload decode failed, treating as miss")
		return ErrMiss
	}
	return nil
}

// Put writes v for key with a fresh timestamp. The write is atomic
// (temp file + rename) so a crash never leaves a half-written entry.
func (s *Store) Put(key Key, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache payload: %w", err)
	}
	data, err := json.MarshalIndent(envelope{CachedAt: time.Now(), RunID: s.runID, Payload: payload}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	path := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create cache category dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".cache-*")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to move cache file into place: %w", err)
	}
	return nil
}

// Remove deletes one entry. Used when a cached file is detected as
// corrupted and a forced refetch is needed.
func (s *Store) Remove(key Key) error {
	err := os.Remove(s.Path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}

// Clear deletes all entries, or only one category when given.
func (s *Store) Clear(category string) error {
	root := s.dir
	if category != "" {
		root = filepath.Join(s.dir, category)
	}
	entries, err := collectJSONFiles(root)
	if err != nil {
		return err
	}
	for _, path := range entries {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to clear cache file %s: %w", path, err)
		}
	}
	return nil
}

// Stats counts cache files per category.
func (s *Store) Stats() (map[string]int, error) {
	stats := make(map[string]int)
	dirs, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache dir: %w", err)
	}
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		files, err := collectJSONFiles(filepath.Join(s.dir, d.Name()))
		if err != nil {
			return nil, err
		}
		stats[d.Name()] = len(files)
	}
	return stats, nil
}

func collectJSONFiles(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".json") {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk cache dir: %w", err)
	}
	return out, nil
}
