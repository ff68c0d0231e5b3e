package download

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sunodl/suno-dl/internal/audio"
	"github.com/sunodl/suno-dl/internal/config"
	"github.com/sunodl/suno-dl/internal/http"
	ioutils "github.com/sunodl/suno-dl/internal/io"
	"github.com/sunodl/suno-dl/internal/model"
	"github.com/sunodl/suno-dl/internal/retry"
	"github.com/sunodl/suno-dl/internal/state"
	"github.com/sunodl/suno-dl/internal/suno"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Snapshot is a point-in-time view of a run's counters, safe to read
// from any goroutine while the run is in flight.
type Snapshot struct {
	Pages      int64 // feed pages discovered (0 until discovery ends)
	Discovered int64 // songs enumerated so far
	Processed  int64 // results in: downloaded + skipped + failed
	Downloaded int64
	Skipped    int64
	Failed     int64
	Bytes      int64 // audio bytes landed on disk
}

// Summary describes a finished (or interrupted) run.
type Summary struct {
	Pages      int
	Processed  int64
	Downloaded int64
	Skipped    int64
	Failed     int64
	Bytes      int64
	Elapsed    time.Duration
}

// Manager owns one download run: it discovers the library, streams the
// song list oldest-first into a bounded worker pool, and aggregates
// the results.
type Manager struct {
	settings *config.Settings
	client   *suno.Client
	enum     *suno.Enumerator
	store    *state.Store
	paths    *PathAllocator
	tagger   *audio.Tagger
	playlist *audio.PlaylistCreator
	images   *ioutils.ImageService
	retry    retry.Policy

	artworkFail bool
	corrupt     state.CorruptPolicy

	pages      atomic.Int64
	discovered atomic.Int64
	processed  atomic.Int64
	downloaded atomic.Int64
	skipped    atomic.Int64
	failed     atomic.Int64
	bytes      atomic.Int64

	mu      sync.Mutex
	results []*model.DownloadResult

	onProgress func(ProgressEvent)
	log        *slog.Logger
}

// NewManager creates a Manager from validated settings. onProgress,
// when non-nil, receives every human-facing event of the run; it must
// be safe to call from multiple goroutines.
func NewManager(settings *config.Settings, logger *slog.Logger, onProgress func(ProgressEvent)) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := settings.ToProxyPool()
	if err != nil {
		return nil, fmt.Errorf("proxy configuration: %w", err)
	}

	corrupt, err := settings.ToCorruptPolicy()
	if err != nil {
		return nil, fmt.Errorf("state configuration: %w", err)
	}

	playlistFormat, err := audio.ParsePlaylistFormat(settings.PlaylistFormat)
	if err != nil {
		return nil, fmt.Errorf("playlist configuration: %w", err)
	}

	policy := settings.ToRetryPolicy()
	policy.Retryable = suno.IsRetryable

	client := suno.NewClient(http.NewClient(settings.Token, pool), settings.APIBaseURL, logger)

	return &Manager{
		settings:    settings,
		client:      client,
		enum:        suno.NewEnumerator(client, policy, logger),
		tagger:      audio.NewTagger(),
		playlist:    audio.NewPlaylistCreator(playlistFormat, true),
		images:      ioutils.NewImageService(),
		retry:       policy,
		artworkFail: settings.ArtworkOnError == "fail",
		corrupt:     corrupt,
		onProgress:  onProgress,
		log:         logger,
	}, nil
}

// Run executes the whole pipeline and blocks until every dispatched
// song has a result.
//
// Canceling ctx stops page fetching and dispatch but lets in-flight
// songs finish, so an interrupt never leaves partial files; the
// returned Summary covers whatever completed and the error carries the
// cancellation. Beyond that, Run fails only on run-fatal conditions: a
// rejected token, corrupt resume state, an unusable output directory,
// or a feed page that failed every retry.
func (m *Manager) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	if err := ioutils.EnsureDir(m.settings.OutputDir); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	statePath := filepath.Join(m.settings.OutputDir, m.settings.StateFile)
	store, err := state.Load(statePath, m.corrupt, m.log)
	if err != nil {
		return nil, err
	}
	m.store = store
	m.progress(ProgressEvent{Message: fmt.Sprintf("Loaded state: %d songs previously downloaded", store.Len()), Level: LevelInfo})

	m.paths, err = NewPathAllocator(m.settings.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("scan output directory: %w", err)
	}

	m.progress(ProgressEvent{Message: "Discovering library size...", Level: LevelInfo})
	lastPage, err := m.enum.FindLastPage(ctx)
	if err != nil {
		return nil, err
	}
	m.pages.Store(int64(lastPage))

	if lastPage == 0 {
		m.progress(ProgressEvent{Message: "Library is empty, nothing to download", Level: LevelInfo})
		return m.summary(start), nil
	}
	m.progress(ProgressEvent{Message: fmt.Sprintf("Found %d pages of songs", lastPage), Level: LevelInfo})

	stopTicker := m.startProgressTicker()
	defer stopTicker()

	g, gctx := errgroup.WithContext(ctx)

	stream := make(chan *model.Song, 64)
	songs := make(chan *model.Song, 64)

	g.Go(func() error {
		defer close(stream)
		_, err := m.enum.StreamPages(gctx, lastPage, stream)
		return err
	})

	// Count songs as they come off the enumerator so progress can show
	// a live denominator while discovery and downloads overlap.
	g.Go(func() error {
		defer close(songs)
		for song := range stream {
			m.discovered.Add(1)
			select {
			case songs <- song:
			case <-gctx.Done():
			}
		}
		return nil
	})

	workers := m.settings.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		slot := i
		g.Go(func() error {
			// Detached from cancellation: an interrupt stops dispatch,
			// but a song already being processed runs to completion.
			itemCtx := http.WithWorkerSlot(context.WithoutCancel(gctx), slot)
			for song := range songs {
				if gctx.Err() != nil {
					continue
				}
				m.recordResult(m.processSong(itemCtx, song))
			}
			return nil
		})
	}

	runErr := g.Wait()
	if runErr == nil {
		// The producer can drain long before a cancel lands; the run is
		// still an interrupted one.
		runErr = ctx.Err()
	}
	stopTicker()

	if m.settings.CreatePlaylist && !m.settings.DryRun {
		m.writeRunPlaylist(ctx)
	}

	summary := m.summary(start)
	m.progress(ProgressEvent{
		Message: fmt.Sprintf("Finished in %s: %d processed, %d downloaded, %d skipped, %d failed",
			summary.Elapsed.Round(time.Second), summary.Processed, summary.Downloaded, summary.Skipped, summary.Failed),
		Level: LevelSuccess,
	})

	if runErr != nil {
		return summary, runErr
	}
	return summary, nil
}

// Progress returns the current counters.
func (m *Manager) Progress() Snapshot {
	return Snapshot{
		Pages:      m.pages.Load(),
		Discovered: m.discovered.Load(),
		Processed:  m.processed.Load(),
		Downloaded: m.downloaded.Load(),
		Skipped:    m.skipped.Load(),
		Failed:     m.failed.Load(),
		Bytes:      m.bytes.Load(),
	}
}

// recordResult folds one worker result into the counters, the state
// store and the playlist collection.
func (m *Manager) recordResult(result *model.DownloadResult) {
	m.processed.Add(1)

	switch result.Outcome {
	case model.OutcomeDownloaded:
		m.downloaded.Add(1)
		if err := m.store.Record(result.Song.ID, result.LocalPath); err != nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Could not save state for %s: %v", result.Song.DisplayTitle(), err), Level: LevelWarning})
		}
	case model.OutcomeSkipped:
		m.skipped.Add(1)
	case model.OutcomeFailed:
		m.failed.Add(1)
	}

	if m.settings.CreatePlaylist && result.LocalPath != "" {
		m.mu.Lock()
		m.results = append(m.results, result)
		m.mu.Unlock()
	}
}

// startProgressTicker emits a progress line at the configured interval
// until the returned stop function is called. Stopping twice is fine.
func (m *Manager) startProgressTicker() func() {
	done := make(chan struct{})
	var once sync.Once

	go func() {
		ticker := time.NewTicker(m.settings.ProgressInterval.Duration)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.emitProgress()
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }
}

func (m *Manager) emitProgress() {
	snap := m.Progress()
	if snap.Discovered == 0 {
		return
	}

	pct := float64(snap.Processed) / float64(snap.Discovered) * 100
	m.progress(ProgressEvent{
		Message: fmt.Sprintf("Progress: %d/%d (%.1f%%) | downloaded %d | skipped %d | failed %d",
			snap.Processed, snap.Discovered, pct, snap.Downloaded, snap.Skipped, snap.Failed),
		Level: LevelInfo,
	})
}

// writeRunPlaylist writes a playlist of everything this run verified
// on disk, ordered oldest to newest like the library itself.
func (m *Manager) writeRunPlaylist(ctx context.Context) {
	m.mu.Lock()
	results := make([]*model.DownloadResult, len(m.results))
	copy(results, m.results)
	m.mu.Unlock()

	if len(results) == 0 {
		return
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Song.CreatedAt.Before(results[j].Song.CreatedAt)
	})

	path := filepath.Join(m.settings.OutputDir, m.playlist.FileName())
	content := m.playlist.CreatePlaylist(results)
	if err := ioutils.WriteFile(context.WithoutCancel(ctx), path, []byte(content)); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Could not write playlist: %v", err), Level: LevelWarning})
		return
	}
	m.progress(ProgressEvent{Message: fmt.Sprintf("Created playlist: %s", m.playlist.FileName()), Level: LevelSuccess})
}

func (m *Manager) summary(start time.Time) *Summary {
	return &Summary{
		Pages:      int(m.pages.Load()),
		Processed:  m.processed.Load(),
		Downloaded: m.downloaded.Load(),
		Skipped:    m.skipped.Load(),
		Failed:     m.failed.Load(),
		Bytes:      m.bytes.Load(),
		Elapsed:    time.Since(start),
	}
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
