package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// loadRetries is how many times Load re-reads the file when it catches a
// writer mid-replace.
const loadRetries = 3

// FileStore persists the full dataset as a single JSON document.
//
// Save is atomic: the document is written to a temp file, fsynced, then
// renamed over the target, so readers always see either the previous or the
// new dataset, never a torn write.
type FileStore struct {
	logger *zap.Logger
	path   string

	mu sync.Mutex
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(logger *zap.Logger, path string) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{logger: logger, path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the dataset from disk. A missing file is not an error: it
// returns an empty dataset. Legacy per-user shapes (bare coin arrays) are
// normalized to the canonical form here, at the persistence boundary.
func (s *FileStore) Load() (Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.readWithRetry()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Dataset{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return Dataset{}, nil
	}

	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", s.path, err)
	}
	if ds == nil {
		ds = Dataset{}
	}
	normalize(ds)
	return ds, nil
}

// Save writes the dataset to disk atomically and durably.
func (s *FileStore) Save(ds Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	return s.writeAtomic(raw)
}

func (s *FileStore) readWithRetry() ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < loadRetries; attempt++ {
		raw, err := os.ReadFile(s.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
			lastErr = err
			time.Sleep(100 * time.Millisecond)
			continue
		}
		// A reader can catch the file between truncate and rename on
		// filesystems without atomic replace semantics; a short retry
		// covers it.
		if len(raw) > 0 && !json.Valid(raw) {
			lastErr = fmt.Errorf("invalid JSON in %s", s.path)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		return raw, nil
	}
	return nil, fmt.Errorf("read %s: %w", s.path, lastErr)
}

func (s *FileStore) writeAtomic(raw []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(raw)
	if werr == nil {
		werr = tmp.Sync()
	}
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmpName)
		if werr != nil {
			return fmt.Errorf("write temp file: %w", werr)
		}
		return fmt.Errorf("close temp file: %w", cerr)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// normalize repairs entries so the core always sees the canonical shape.
func normalize(ds Dataset) {
	for id, user := range ds {
		if user == nil {
			ds[id] = &UserData{Profile: UserProfile{Mode: ModeAggressive}}
			continue
		}
		if user.Profile.Mode == "" {
			user.Profile.Mode = ModeAggressive
		}
		for _, list := range user.Lists {
			if list != nil && list.Coins == nil {
				list.Coins = []string{}
			}
		}
	}
}
