package download

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimVersionsSequentially(t *testing.T) {
	a, err := NewPathAllocator(t.TempDir())
	require.NoError(t, err)

	want := []string{"Song", "Song v2", "Song v3", "Song v4"}
	for i, expected := range want {
		name, version := a.Claim("Song")
		assert.Equal(t, expected, name)
		assert.Equal(t, i+1, version)
	}
}

func TestClaimDistinctBasesIndependent(t *testing.T) {
	a, err := NewPathAllocator(t.TempDir())
	require.NoError(t, err)

	name, version := a.Claim("Alpha")
	assert.Equal(t, "Alpha", name)
	assert.Equal(t, 1, version)

	name, version = a.Claim("Beta")
	assert.Equal(t, "Beta", name)
	assert.Equal(t, 1, version)

	name, version = a.Claim("Alpha")
	assert.Equal(t, "Alpha v2", name)
	assert.Equal(t, 2, version)
}

func TestClaimConcurrentNoDuplicates(t *testing.T) {
	a, err := NewPathAllocator(t.TempDir())
	require.NoError(t, err)

	const claimers = 20
	names := make([]string, claimers)
	var wg sync.WaitGroup
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			names[i], _ = a.Claim("Track")
		}(i)
	}
	wg.Wait()

	// Every claimer must get a distinct name, and together they must
	// cover exactly the bare name plus v2..v20 with no gaps.
	sort.Strings(names)
	want := []string{"Track"}
	for v := 2; v <= claimers; v++ {
		want = append(want, fmt.Sprintf("Track v%d", v))
	}
	sort.Strings(want)
	assert.Equal(t, want, names)
}

func TestNewPathAllocatorSeedsFromDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"Song.mp3",
		"Song v2_FAILED.txt",
		".abc123.part",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Song v3"), 0o755))

	a, err := NewPathAllocator(dir)
	require.NoError(t, err)

	// "Song" and "Song v2" are taken by the existing download and the
	// placeholder; the partial file, the stray text file and the
	// directory are not claims.
	name, version := a.Claim("Song")
	assert.Equal(t, "Song v3", name)
	assert.Equal(t, 3, version)
}

func TestNewPathAllocatorMissingDir(t *testing.T) {
	_, err := NewPathAllocator(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestPathHelpers(t *testing.T) {
	a := &PathAllocator{dir: "/out", taken: map[string]bool{}}

	assert.Equal(t, filepath.Join("/out", "Song v2.mp3"), a.AudioPath("Song v2"))
	assert.Equal(t, filepath.Join("/out", "Song v2_FAILED.txt"), a.PlaceholderPath("Song v2"))
	assert.Equal(t, filepath.Join("/out", ".clip-9.part"), a.TempPath("clip-9"))
}
