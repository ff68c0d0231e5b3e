package download

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// PathAllocator hands out collision-free file names inside the output
// directory.
//
// Suno libraries routinely hold many takes with the same title, and
// the remote titles are not unique, so every song claims a versioned
// base name: the first take of "Song" gets "Song", later takes get
// "Song v2", "Song v3" and so on. Claims cover the base name without
// an extension, which makes a failed download's placeholder
// ("Song v2_FAILED.txt") occupy the same version slot its MP3 would
// have taken, so re-runs line up retries with their original names.
//
// The allocator is seeded from the directory listing at startup and
// updated under a mutex as workers claim names, so concurrent workers
// can never pick the same file name.
type PathAllocator struct {
	mu    sync.Mutex
	dir   string
	taken map[string]bool
}

// NewPathAllocator scans dir and marks every existing download and
// placeholder base name as taken.
func NewPathAllocator(dir string) (*PathAllocator, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, "_FAILED.txt"):
			taken[strings.TrimSuffix(name, "_FAILED.txt")] = true
		case strings.HasSuffix(name, ".mp3"):
			taken[strings.TrimSuffix(name, ".mp3")] = true
		}
	}

	return &PathAllocator{dir: dir, taken: taken}, nil
}

// Claim reserves the lowest unused versioned variant of base and
// returns it together with its version number (1 for the bare name).
// A claim is permanent for the allocator's lifetime.
func (a *PathAllocator) Claim(base string) (string, int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.taken[base] {
		a.taken[base] = true
		return base, 1
	}

	for version := 2; ; version++ {
		candidate := fmt.Sprintf("%s v%d", base, version)
		if !a.taken[candidate] {
			a.taken[candidate] = true
			return candidate, version
		}
	}
}

// AudioPath returns the final MP3 path for a claimed base name.
func (a *PathAllocator) AudioPath(base string) string {
	return filepath.Join(a.dir, base+".mp3")
}

// PlaceholderPath returns the failure marker path for a claimed base
// name.
func (a *PathAllocator) PlaceholderPath(base string) string {
	return filepath.Join(a.dir, base+"_FAILED.txt")
}

// TempPath returns the in-progress download path for a clip. The
// leading dot keeps partial files out of directory scans, and the clip
// ID keeps concurrent workers from colliding.
func (a *PathAllocator) TempPath(id string) string {
	return filepath.Join(a.dir, "."+id+".part")
}
