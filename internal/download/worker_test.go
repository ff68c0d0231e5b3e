package download

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bogem/id3v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunodl/suno-dl/internal/model"
	"github.com/sunodl/suno-dl/internal/suno"
)

func openTag(t *testing.T, path string) *id3v2.Tag {
	t.Helper()
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	t.Cleanup(func() { tag.Close() })
	return tag
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestProcessSongDownloadsTagsAndLands(t *testing.T) {
	fs := newFixtureServer(t)
	settings := testSettings(t, fs.server.URL)
	m, _ := testManager(t, settings)
	prepareRun(t, m)

	song := fs.song(clipFixture{ID: "clip-1", Title: "Morning Light", Seq: 1})
	res := m.processSong(context.Background(), song)

	require.Equal(t, model.OutcomeDownloaded, res.Outcome)
	assert.Equal(t, 1, res.Attempts)

	wantPath := filepath.Join(settings.OutputDir, "Morning Light.mp3")
	assert.Equal(t, wantPath, res.LocalPath)

	data, err := os.ReadFile(wantPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("ID3")), "file should start with an ID3 tag")
	assert.True(t, bytes.HasSuffix(data, []byte("AUDIO:clip-1")), "audio payload should survive tagging")

	tag := openTag(t, wantPath)
	assert.Equal(t, "Morning Light", tag.Title())
	assert.Equal(t, "tester", tag.Artist())
	frames := tag.GetFrames(tag.CommonID("Attached picture"))
	require.Len(t, frames, 1)
	pic, ok := frames[0].(id3v2.PictureFrame)
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", pic.MimeType)
	assert.NotEmpty(t, pic.Picture)

	info, err := os.Stat(wantPath)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(song.CreatedAt), "file time should match the clip creation time")

	_, err = os.Stat(m.paths.TempPath("clip-1"))
	assert.True(t, os.IsNotExist(err), "temp file should be cleaned up")
}

func TestProcessSongPlaceholderAfterRetriesExhausted(t *testing.T) {
	fs := newFixtureServer(t)
	fs.setAudioStatus("clip-2", 500)

	settings := testSettings(t, fs.server.URL)
	m, events := testManager(t, settings)
	prepareRun(t, m)

	song := fs.song(clipFixture{ID: "clip-2", Title: "Broken Song", Seq: 2, NoImage: true})
	res := m.processSong(context.Background(), song)

	require.Equal(t, model.OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, suno.ErrTransient)
	assert.Equal(t, settings.DownloadMaxAttempts, res.Attempts)
	assert.Equal(t, settings.DownloadMaxAttempts, fs.audioCallCount("clip-2"))

	content, err := os.ReadFile(filepath.Join(settings.OutputDir, "Broken Song_FAILED.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "Download failed with error:\n"))

	_, err = os.Stat(filepath.Join(settings.OutputDir, "Broken Song.mp3"))
	assert.True(t, os.IsNotExist(err))
	assert.True(t, events.contains("Created placeholder: Broken Song_FAILED.txt"))
}

func TestProcessSongMissingAudioFailsWithoutRetry(t *testing.T) {
	fs := newFixtureServer(t)
	fs.setAudioStatus("clip-3", 404)

	settings := testSettings(t, fs.server.URL)
	m, _ := testManager(t, settings)
	prepareRun(t, m)

	song := fs.song(clipFixture{ID: "clip-3", Title: "Gone", Seq: 3, NoImage: true})
	res := m.processSong(context.Background(), song)

	require.Equal(t, model.OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, suno.ErrUnexpected)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 1, fs.audioCallCount("clip-3"))
}

func TestProcessSongSkipsPreviouslyDownloaded(t *testing.T) {
	fs := newFixtureServer(t)
	settings := testSettings(t, fs.server.URL)
	m, events := testManager(t, settings)
	prepareRun(t, m)

	existing := filepath.Join(settings.OutputDir, "Old Favorite.mp3")
	require.NoError(t, os.WriteFile(existing, []byte("previous run"), 0o644))
	require.NoError(t, m.store.Record("clip-4", existing))

	song := fs.song(clipFixture{ID: "clip-4", Title: "Old Favorite", Seq: 4})
	res := m.processSong(context.Background(), song)

	require.Equal(t, model.OutcomeSkipped, res.Outcome)
	assert.Equal(t, existing, res.LocalPath)
	assert.Equal(t, 0, fs.audioCallCount("clip-4"))
	assert.True(t, events.contains("Skipping: Old Favorite"))
}

func TestProcessSongRedownloadsWhenRecordedFileMissing(t *testing.T) {
	fs := newFixtureServer(t)
	settings := testSettings(t, fs.server.URL)
	m, events := testManager(t, settings)
	prepareRun(t, m)

	require.NoError(t, m.store.Record("clip-5", filepath.Join(settings.OutputDir, "Deleted.mp3")))

	song := fs.song(clipFixture{ID: "clip-5", Title: "Deleted", Seq: 5, NoImage: true})
	res := m.processSong(context.Background(), song)

	require.Equal(t, model.OutcomeDownloaded, res.Outcome)
	assert.Equal(t, 1, fs.audioCallCount("clip-5"))
	assert.FileExists(t, filepath.Join(settings.OutputDir, "Deleted.mp3"))
	assert.True(t, events.contains("Recorded file missing"))
}

func TestProcessSongResumeDisabledDownloadsAgain(t *testing.T) {
	fs := newFixtureServer(t)
	settings := testSettings(t, fs.server.URL)
	settings.Resume = false

	existing := filepath.Join(settings.OutputDir, "Repeat.mp3")
	require.NoError(t, os.WriteFile(existing, []byte("previous run"), 0o644))

	m, _ := testManager(t, settings)
	prepareRun(t, m)
	require.NoError(t, m.store.Record("clip-6", existing))

	song := fs.song(clipFixture{ID: "clip-6", Title: "Repeat", Seq: 6, NoImage: true})
	res := m.processSong(context.Background(), song)

	require.Equal(t, model.OutcomeDownloaded, res.Outcome)
	assert.Equal(t, filepath.Join(settings.OutputDir, "Repeat v2.mp3"), res.LocalPath)

	// The original file from the previous run is untouched.
	previous, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "previous run", string(previous))
}

func TestProcessSongArtworkFailureDegrades(t *testing.T) {
	fs := newFixtureServer(t)
	fs.failAllImages()

	settings := testSettings(t, fs.server.URL)
	m, events := testManager(t, settings)
	prepareRun(t, m)

	song := fs.song(clipFixture{ID: "clip-7", Title: "No Cover", Seq: 7})
	res := m.processSong(context.Background(), song)

	require.Equal(t, model.OutcomeDownloaded, res.Outcome)
	assert.True(t, events.contains("Artwork failed for No Cover"))

	tag := openTag(t, res.LocalPath)
	assert.Equal(t, "No Cover", tag.Title())
	assert.Empty(t, tag.GetFrames(tag.CommonID("Attached picture")))
}

func TestProcessSongArtworkFailureFatalWhenConfigured(t *testing.T) {
	fs := newFixtureServer(t)
	fs.failAllImages()

	settings := testSettings(t, fs.server.URL)
	settings.ArtworkOnError = "fail"
	m, _ := testManager(t, settings)
	prepareRun(t, m)

	song := fs.song(clipFixture{ID: "clip-8", Title: "Strict", Seq: 8})
	res := m.processSong(context.Background(), song)

	require.Equal(t, model.OutcomeFailed, res.Outcome)
	assert.Contains(t, res.Err.Error(), "artwork")
	assert.FileExists(t, filepath.Join(settings.OutputDir, "Strict_FAILED.txt"))
}

func TestProcessSongSkipsArtworkWithoutImage(t *testing.T) {
	fs := newFixtureServer(t)
	settings := testSettings(t, fs.server.URL)
	m, _ := testManager(t, settings)
	prepareRun(t, m)

	song := fs.song(clipFixture{ID: "clip-9", Title: "Plain", Seq: 9, NoImage: true})
	res := m.processSong(context.Background(), song)

	require.Equal(t, model.OutcomeDownloaded, res.Outcome)
	assert.Equal(t, 0, fs.imageCallCount())

	tag := openTag(t, res.LocalPath)
	assert.Empty(t, tag.GetFrames(tag.CommonID("Attached picture")))
}

func TestProcessSongVersionsDuplicateTitles(t *testing.T) {
	fs := newFixtureServer(t)
	settings := testSettings(t, fs.server.URL)
	m, events := testManager(t, settings)
	prepareRun(t, m)

	first := fs.song(clipFixture{ID: "clip-a", Title: "Same Title", Seq: 1, NoImage: true})
	second := fs.song(clipFixture{ID: "clip-b", Title: "Same Title", Seq: 2, NoImage: true})

	res1 := m.processSong(context.Background(), first)
	res2 := m.processSong(context.Background(), second)

	require.Equal(t, model.OutcomeDownloaded, res1.Outcome)
	require.Equal(t, model.OutcomeDownloaded, res2.Outcome)
	assert.Equal(t, filepath.Join(settings.OutputDir, "Same Title.mp3"), res1.LocalPath)
	assert.Equal(t, filepath.Join(settings.OutputDir, "Same Title v2.mp3"), res2.LocalPath)
	assert.True(t, events.contains("Saved as v2: Same Title v2.mp3"))

	// Each file carries its own clip's audio.
	data, err := os.ReadFile(res2.LocalPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(data, []byte("AUDIO:clip-b")))
}

func TestProcessSongDryRunTouchesNothing(t *testing.T) {
	fs := newFixtureServer(t)
	settings := testSettings(t, fs.server.URL)
	settings.DryRun = true
	m, events := testManager(t, settings)
	prepareRun(t, m)

	song := fs.song(clipFixture{ID: "clip-d", Title: "Imaginary", Seq: 1})
	res := m.processSong(context.Background(), song)

	require.Equal(t, model.OutcomeSkipped, res.Outcome)
	assert.Empty(t, res.LocalPath)
	assert.Equal(t, 0, fs.audioCallCount("clip-d"))
	assert.Equal(t, 0, fs.imageCallCount())
	assert.True(t, events.contains("Would download: Imaginary"))
	assert.Empty(t, listDir(t, settings.OutputDir))
}
