package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	ioutils "github.com/sunodl/suno-dl/internal/io"
	"github.com/sunodl/suno-dl/internal/model"
)

// processSong runs the full per-item pipeline for one song and always
// returns a result; item-scoped errors never escape to the pool.
//
// The item walks Pending → skip check → claim name → fetch audio →
// fetch artwork → embed tags → atomic rename → Done. Any unrecoverable
// failure instead leaves a "<name>_FAILED.txt" placeholder holding the
// error detail, so a failed song is visible in the output directory
// and not just in the logs.
func (m *Manager) processSong(ctx context.Context, song *model.Song) *model.DownloadResult {
	title := song.DisplayTitle()

	if m.settings.Resume {
		if path, ok := m.store.Path(song.ID); ok {
			if _, err := os.Stat(path); err == nil {
				if m.settings.DryRun {
					m.progress(ProgressEvent{Message: fmt.Sprintf("Would skip: %s (already downloaded)", title), Level: LevelInfo})
				} else {
					m.progress(ProgressEvent{Message: fmt.Sprintf("Skipping: %s (already downloaded)", title), Level: LevelVerbose})
				}
				return &model.DownloadResult{Song: song, Outcome: model.OutcomeSkipped, LocalPath: path}
			}
			m.progress(ProgressEvent{Message: fmt.Sprintf("Recorded file missing for %s, downloading again", title), Level: LevelVerbose})
		}
	}

	if m.settings.DryRun {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Would download: %s", title), Level: LevelInfo})
		return &model.DownloadResult{Song: song, Outcome: model.OutcomeSkipped}
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Processing: %s", title), Level: LevelVerbose})

	base, version := m.paths.Claim(song.BaseName)
	result := m.downloadSong(ctx, song, base)

	if result.Outcome == model.OutcomeFailed {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Failed: %s - %v", title, result.Err), Level: LevelError})
		m.writePlaceholder(ctx, base, result.Err)
		return result
	}

	if version > 1 {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Saved as v%d: %s", version, filepath.Base(result.LocalPath)), Level: LevelInfo})
	} else {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Saved: %s", filepath.Base(result.LocalPath)), Level: LevelInfo})
	}
	return result
}

// downloadSong fetches, tags and lands one song under its claimed base
// name. The audio streams to a hidden temp file first and only moves
// into place once tagging succeeded, so a crash or failure mid-way
// never leaves a half-written MP3 posing as a finished download.
func (m *Manager) downloadSong(ctx context.Context, song *model.Song, base string) *model.DownloadResult {
	failed := func(attempts int, err error) *model.DownloadResult {
		return &model.DownloadResult{Song: song, Outcome: model.OutcomeFailed, Err: err, Attempts: attempts}
	}

	tempPath := m.paths.TempPath(song.ID)
	defer os.Remove(tempPath)

	attempts, err := m.retry.Do(ctx, func() error {
		return m.client.DownloadAudio(ctx, song.AudioURL, tempPath, nil)
	})
	if err != nil {
		return failed(attempts, err)
	}

	var artwork []byte
	if m.settings.EmbedArtwork && song.HasImage() {
		artwork, err = m.fetchArtwork(ctx, song)
		if err != nil {
			if m.artworkFail {
				return failed(attempts, fmt.Errorf("artwork: %w", err))
			}
			m.progress(ProgressEvent{
				Message: fmt.Sprintf("Artwork failed for %s, embedding without it: %v", song.DisplayTitle(), err),
				Level:   LevelWarning,
			})
			artwork = nil
		}
	}

	if err := m.tagger.SaveTags(tempPath, song, artwork); err != nil {
		return failed(attempts, fmt.Errorf("embed metadata: %w", err))
	}

	finalPath := m.paths.AudioPath(base)
	if err := os.Rename(tempPath, finalPath); err != nil {
		return failed(attempts, fmt.Errorf("move into place: %w", err))
	}

	// Give the file the clip's creation time so the directory sorts
	// like the library. Not worth failing a finished download over.
	if !song.CreatedAt.IsZero() {
		if err := os.Chtimes(finalPath, song.CreatedAt, song.CreatedAt); err != nil {
			m.log.Debug("could not set file times", "file", finalPath, "error", err)
		}
	}

	if info, err := os.Stat(finalPath); err == nil {
		m.bytes.Add(info.Size())
	}

	return &model.DownloadResult{
		Song:      song,
		Outcome:   model.OutcomeDownloaded,
		LocalPath: finalPath,
		Attempts:  attempts,
	}
}

// fetchArtwork downloads and prepares a song's cover image. The fetch
// gets its own retry budget, independent of the audio download's.
func (m *Manager) fetchArtwork(ctx context.Context, song *model.Song) ([]byte, error) {
	var raw []byte
	_, err := m.retry.Do(ctx, func() error {
		var ferr error
		raw, ferr = m.client.FetchImage(ctx, song.ImageURL)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	prepared, err := m.images.PrepareCover(ctx, raw, m.settings.ArtworkMaxSize)
	if err != nil {
		return nil, fmt.Errorf("prepare cover: %w", err)
	}
	return prepared, nil
}

// writePlaceholder leaves a discoverable failure marker next to where
// the song would have landed.
func (m *Manager) writePlaceholder(ctx context.Context, base string, cause error) {
	detail := fmt.Sprintf("Download failed with error:\n%v\n", cause)
	path := m.paths.PlaceholderPath(base)

	if err := ioutils.WriteFile(ctx, path, []byte(detail)); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Could not create placeholder %s: %v", filepath.Base(path), err), Level: LevelError})
		return
	}
	m.progress(ProgressEvent{Message: fmt.Sprintf("Created placeholder: %s", filepath.Base(path)), Level: LevelWarning})
}
