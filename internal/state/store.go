package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	ioutils "github.com/sunodl/suno-dl/internal/io"
)

// DefaultFileName is the state file kept at the output directory root.
const DefaultFileName = "suno_download_state.json"

// ErrCorrupt means the state file exists but cannot be parsed. Under
// CorruptFail the run stops here: quietly starting over would
// redownload an entire library without telling anyone why.
var ErrCorrupt = errors.New("state file corrupt")

// CorruptPolicy decides what happens when the state file is unreadable.
type CorruptPolicy int

const (
	// CorruptFail aborts the run with ErrCorrupt.
	CorruptFail CorruptPolicy = iota

	// CorruptReset moves the broken file aside and starts with empty
	// state, logging a warning.
	CorruptReset
)

// ParseCorruptPolicy maps the config strings onto a CorruptPolicy.
// An empty value selects CorruptFail.
func ParseCorruptPolicy(s string) (CorruptPolicy, error) {
	switch s {
	case "", "fail":
		return CorruptFail, nil
	case "reset":
		return CorruptReset, nil
	default:
		return CorruptFail, fmt.Errorf("unknown state corruption policy %q", s)
	}
}

// Record is one completed download: where the file ended up and when.
type Record struct {
	Path        string    `json:"path"`
	CompletedAt time.Time `json:"completed_at"`
}

// Store is the persisted record of completed downloads, keyed by clip
// ID. It is loaded once at startup and appended to as workers finish;
// every append rewrites the file through an atomic rename so a process
// kill can never leave it half-written.
//
// All methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	path    string
	records map[string]Record
	log     *slog.Logger
}

// Load reads the state file at path, creating an empty store when the
// file does not exist yet.
//
// A file that exists but fails to parse is handled per policy:
// CorruptFail returns ErrCorrupt, CorruptReset renames the file to
// path + ".corrupt" and starts empty.
func Load(path string, policy CorruptPolicy, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store := &Store{
		path:    path,
		records: make(map[string]Record),
		log:     logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	if err := json.Unmarshal(data, &store.records); err != nil {
		if policy == CorruptFail {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
		}

		quarantine := path + ".corrupt"
		if renameErr := os.Rename(path, quarantine); renameErr != nil {
			return nil, fmt.Errorf("%w: %s: %v (and could not move it aside: %v)", ErrCorrupt, path, err, renameErr)
		}
		logger.Warn("state file corrupt, starting fresh",
			"file", path,
			"moved_to", quarantine,
			"error", err)
		store.records = make(map[string]Record)
	}

	return store, nil
}

// Contains reports whether the given clip ID has a completed download
// on record.
func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[id]
	return ok
}

// Path returns the recorded download path for a clip ID.
func (s *Store) Path(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	return rec.Path, ok
}

// Record stores a completed download and flushes the full table to
// disk before returning, so that a kill after this call cannot lose
// the entry. A flush failure leaves the in-memory record in place.
func (s *Store) Record(id, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[id] = Record{
		Path:        path,
		CompletedAt: time.Now().UTC(),
	}
	return s.flushLocked()
}

// Len returns the number of completed downloads on record.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Flush persists the current table. Record already flushes on every
// call; this exists for shutdown paths that want to be certain.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := ioutils.WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}
