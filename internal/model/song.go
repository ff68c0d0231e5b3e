package model

import (
	"strings"
	"time"

	ioutils "github.com/sunodl/suno-dl/internal/io"
)

// Song represents one generated track in a Suno library.
//
// Song carries everything needed to download and materialize a single
// item:
//   - ID is the server-assigned clip UUID, unique and immutable. It is
//     the resume key in the state store.
//   - Title and Artist feed the ID3 tags and the output filename.
//   - CreatedAt orders the library (oldest first) and becomes the
//     modification time of the downloaded file.
//   - AudioURL and ImageURL address the raw assets. ImageURL may be
//     empty when the clip has no cover image.
//
// Songs are produced by the library enumerator and are read-only
// afterwards; workers never mutate them.
//
// Example:
//
//	song := model.NewSong("4f0e…", "Neon Rain", "somebody", audioURL, imageURL, created)
//	fmt.Println(song.BaseName) // "Neon Rain"
type Song struct {
	// ID is the remote clip UUID.
	ID string

	// Title is the raw clip title as returned by the API. May be empty.
	Title string

	// Artist is the display name of the creating account. May be empty,
	// in which case no artist tag is embedded.
	Artist string

	// CreatedAt is the clip creation time reported by the API.
	CreatedAt time.Time

	// AudioURL is the URL of the MP3 asset.
	AudioURL string

	// ImageURL is the URL of the cover image asset, or "" if none.
	ImageURL string

	// BaseName is the sanitized filename base derived from Title
	// (or from ID when the title is blank). It never contains path
	// separators or other characters unsafe on common filesystems,
	// and carries no extension or version suffix; those are resolved
	// at write time.
	BaseName string
}

// NewSong creates a Song with its sanitized BaseName precomputed.
//
// A blank title falls back to the clip ID so every song still maps to a
// distinct, meaningful filename.
func NewSong(id, title, artist, audioURL, imageURL string, createdAt time.Time) *Song {
	name := title
	if strings.TrimSpace(name) == "" {
		name = id
	}

	return &Song{
		ID:        id,
		Title:     title,
		Artist:    artist,
		CreatedAt: createdAt,
		AudioURL:  audioURL,
		ImageURL:  imageURL,
		BaseName:  ioutils.SanitizeFileName(name),
	}
}

// HasImage returns true if the song has a cover image available for download.
func (s *Song) HasImage() bool {
	return s.ImageURL != ""
}

// DisplayTitle returns the raw title, or the clip ID when no title is set.
// Used for log lines and progress events.
func (s *Song) DisplayTitle() string {
	if strings.TrimSpace(s.Title) == "" {
		return s.ID
	}
	return s.Title
}
