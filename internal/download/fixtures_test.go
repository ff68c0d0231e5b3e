package download

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sunodl/suno-dl/internal/config"
	ioutils "github.com/sunodl/suno-dl/internal/io"
	"github.com/sunodl/suno-dl/internal/model"
	"github.com/sunodl/suno-dl/internal/state"
)

const fixtureToken = "test-token"

// clipFixture is one song the fake API serves. Seq drives created_at:
// higher means newer.
type clipFixture struct {
	ID      string
	Title   string
	Seq     int
	NoImage bool
}

func clipCreatedAt(seq int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(seq) * time.Hour)
}

// fixtureServer fakes the whole remote surface: the paginated feed
// plus the audio and image asset endpoints, with per-clip failure
// injection.
type fixtureServer struct {
	server *httptest.Server

	mu           sync.Mutex
	pages        map[int][]clipFixture // newest-first within each page
	authReject   bool
	audioStatus  map[string]int // non-zero status fails that clip's audio
	audioCalls   map[string]int
	audioStarted map[string]chan struct{}
	audioRelease map[string]chan struct{}
	failImages   bool
	imageCalls   int
	jpegBytes    []byte
}

func newFixtureServer(t *testing.T) *fixtureServer {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)), nil))

	fs := &fixtureServer{
		pages:        make(map[int][]clipFixture),
		audioStatus:  make(map[string]int),
		audioCalls:   make(map[string]int),
		audioStarted: make(map[string]chan struct{}),
		audioRelease: make(map[string]chan struct{}),
		jpegBytes:    buf.Bytes(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/feed/v2", fs.handleFeed)
	mux.HandleFunc("/audio/", fs.handleAudio)
	mux.HandleFunc("/image/", fs.handleImage)

	fs.server = httptest.NewServer(mux)
	t.Cleanup(fs.server.Close)
	return fs
}

func (fs *fixtureServer) handleFeed(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	reject := fs.authReject
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	clips := fs.pages[page]
	fs.mu.Unlock()

	if reject || r.Header.Get("Authorization") != "Bearer "+fixtureToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	entries := make([]string, 0, len(clips))
	for _, c := range clips {
		imageURL := fmt.Sprintf("http://%s/image/%s", r.Host, c.ID)
		if c.NoImage {
			imageURL = ""
		}
		entries = append(entries, fmt.Sprintf(
			`{"id":%q,"title":%q,"audio_url":"http://%s/audio/%s","image_url":%q,"display_name":"tester","created_at":%q}`,
			c.ID, c.Title, r.Host, c.ID, imageURL, clipCreatedAt(c.Seq).Format(time.RFC3339)))
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, "["+strings.Join(entries, ",")+"]")
}

func (fs *fixtureServer) handleAudio(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/audio/")

	fs.mu.Lock()
	fs.audioCalls[id]++
	status := fs.audioStatus[id]
	started := fs.audioStarted[id]
	release := fs.audioRelease[id]
	fs.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if release != nil {
		<-release
	}

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	fmt.Fprintf(w, "AUDIO:%s", id)
}

func (fs *fixtureServer) handleImage(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	fs.imageCalls++
	fail := fs.failImages
	fs.mu.Unlock()

	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(fs.jpegBytes)
}

func (fs *fixtureServer) setPages(pages map[int][]clipFixture) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.pages = pages
}

func (fs *fixtureServer) setAudioStatus(id string, status int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.audioStatus[id] = status
}

func (fs *fixtureServer) rejectAuth() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.authReject = true
}

func (fs *fixtureServer) failAllImages() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.failImages = true
}

// blockAudioFor makes the next audio request for id signal on the
// first returned channel and then wait until the second is closed.
func (fs *fixtureServer) blockAudioFor(id string) (started <-chan struct{}, release chan<- struct{}) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	s := make(chan struct{}, 1)
	r := make(chan struct{})
	fs.audioStarted[id] = s
	fs.audioRelease[id] = r
	return s, r
}

func (fs *fixtureServer) audioCallCount(id string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.audioCalls[id]
}

func (fs *fixtureServer) imageCallCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.imageCalls
}

// song builds the model a worker would receive for a fixture clip.
func (fs *fixtureServer) song(c clipFixture) *model.Song {
	imageURL := fs.server.URL + "/image/" + c.ID
	if c.NoImage {
		imageURL = ""
	}
	return model.NewSong(c.ID, c.Title, "tester", fs.server.URL+"/audio/"+c.ID, imageURL, clipCreatedAt(c.Seq))
}

func testSettings(t *testing.T, baseURL string) *config.Settings {
	t.Helper()
	s := config.DefaultSettings()
	s.Token = fixtureToken
	s.APIBaseURL = baseURL
	s.OutputDir = t.TempDir()
	s.MaxWorkers = 2
	s.DownloadMaxAttempts = 2
	s.RetryBaseDelay = config.Duration{Duration: time.Millisecond}
	s.ProgressInterval = config.Duration{Duration: time.Hour}
	return s
}

// eventLog collects progress events from concurrent workers.
type eventLog struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (l *eventLog) add(e ProgressEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func testManager(t *testing.T, settings *config.Settings) (*Manager, *eventLog) {
	t.Helper()
	events := &eventLog{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := NewManager(settings, logger, events.add)
	require.NoError(t, err)
	return m, events
}

// prepareRun initializes the pieces Run would set up, for tests that
// call the per-song pipeline directly.
func prepareRun(t *testing.T, m *Manager) {
	t.Helper()
	require.NoError(t, ioutils.EnsureDir(m.settings.OutputDir))

	store, err := state.Load(filepath.Join(m.settings.OutputDir, m.settings.StateFile), state.CorruptFail, m.log)
	require.NoError(t, err)
	m.store = store

	m.paths, err = NewPathAllocator(m.settings.OutputDir)
	require.NoError(t, err)
}

// reloadState opens the state file a run left behind.
func reloadState(t *testing.T, dir string) *state.Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := state.Load(filepath.Join(dir, state.DefaultFileName), state.CorruptFail, logger)
	require.NoError(t, err)
	return store
}
