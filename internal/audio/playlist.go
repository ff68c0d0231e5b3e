package audio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sunodl/suno-dl/internal/model"
)

// PlaylistFormat represents supported playlist file formats.
type PlaylistFormat int

const (
	// FormatM3U creates .m3u files (most compatible). Can be extended
	// with EXTINF lines for title info.
	FormatM3U PlaylistFormat = iota

	// FormatPLS creates .pls files (Winamp/SHOUTcast format).
	FormatPLS
)

// ParsePlaylistFormat maps the config strings onto a PlaylistFormat.
func ParsePlaylistFormat(s string) (PlaylistFormat, error) {
	switch s {
	case "", "m3u":
		return FormatM3U, nil
	case "pls":
		return FormatPLS, nil
	default:
		return FormatM3U, fmt.Errorf("unknown playlist format %q", s)
	}
}

// PlaylistCreator generates a playlist of the files a run produced.
//
// Entries are written in the order given, which for a full run is
// oldest clip first. Paths in the playlist are relative (just the
// filename), assuming the playlist sits in the output directory next
// to the tracks.
//
// Example:
//
//	creator := NewPlaylistCreator(FormatM3U, true)
//	content := creator.CreatePlaylist(results)
//	os.WriteFile(filepath.Join(dir, creator.FileName()), []byte(content), 0644)
type PlaylistCreator struct {
	format   PlaylistFormat
	extended bool // For M3U: include #EXTINF lines
}

// NewPlaylistCreator creates a new PlaylistCreator. extended only
// affects the M3U format.
func NewPlaylistCreator(format PlaylistFormat, extended bool) *PlaylistCreator {
	return &PlaylistCreator{
		format:   format,
		extended: extended,
	}
}

// FileName returns the playlist filename for the creator's format.
func (p *PlaylistCreator) FileName() string {
	if p.format == FormatPLS {
		return "suno.pls"
	}
	return "suno.m3u"
}

// CreatePlaylist generates playlist content from a run's results.
// Results without a local file (failures) are left out.
func (p *PlaylistCreator) CreatePlaylist(results []*model.DownloadResult) string {
	var entries []*model.DownloadResult
	for _, r := range results {
		if r.LocalPath != "" {
			entries = append(entries, r)
		}
	}

	if p.format == FormatPLS {
		return p.createPLS(entries)
	}
	return p.createM3U(entries)
}

// createM3U generates an M3U playlist.
//
// Standard M3U format:
//
//	filename1.mp3
//	filename2.mp3
//
// Extended M3U format (when extended=true):
//
//	#EXTM3U
//	#EXTINF:-1,Artist - Title
//	filename1.mp3
//
// Clip durations are not part of the feed listing, so EXTINF and PLS
// lengths use -1 ("unknown").
func (p *PlaylistCreator) createM3U(entries []*model.DownloadResult) string {
	var sb strings.Builder

	if p.extended {
		sb.WriteString("#EXTM3U\n")
	}

	for _, entry := range entries {
		if p.extended {
			sb.WriteString(fmt.Sprintf("#EXTINF:-1,%s\n", entryTitle(entry)))
		}
		sb.WriteString(filepath.Base(entry.LocalPath) + "\n")
	}

	return sb.String()
}

// createPLS generates a PLS playlist.
//
// PLS format is an INI-style text file:
//
//	[playlist]
//	File1=filename1.mp3
//	Title1=Song Title
//	Length1=-1
//	NumberOfEntries=1
//	Version=2
func (p *PlaylistCreator) createPLS(entries []*model.DownloadResult) string {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")

	for i, entry := range entries {
		idx := i + 1
		sb.WriteString(fmt.Sprintf("File%d=%s\n", idx, filepath.Base(entry.LocalPath)))
		sb.WriteString(fmt.Sprintf("Title%d=%s\n", idx, entryTitle(entry)))
		sb.WriteString(fmt.Sprintf("Length%d=-1\n", idx))
	}

	sb.WriteString(fmt.Sprintf("NumberOfEntries=%d\n", len(entries)))
	sb.WriteString("Version=2\n")

	return sb.String()
}

// entryTitle formats a playlist display title, with the artist prefix
// only when one is known.
func entryTitle(entry *model.DownloadResult) string {
	title := entry.Song.DisplayTitle()
	if entry.Song.Artist != "" {
		return entry.Song.Artist + " - " + title
	}
	return title
}
