package audio

import (
	"fmt"

	"github.com/bogem/id3v2"

	"github.com/sunodl/suno-dl/internal/model"
)

// Tagger writes ID3 tags to downloaded MP3 files.
//
// Tagger uses the id3v2 library to set the metadata a Suno clip
// carries:
//   - Title (TIT2): the clip title, or its ID for untitled clips
//   - Artist (TPE1): the account's display name, when known
//   - Recording time (TDRC): the clip's creation date
//   - Cover art (APIC): the clip's thumbnail as front cover
//
// Example:
//
//	tagger := NewTagger()
//	if err := tagger.SaveTags(path, song, jpegBytes); err != nil {
//	    log.Printf("failed to tag %s: %v", path, err)
//	}
type Tagger struct{}

// NewTagger creates a new Tagger.
func NewTagger() *Tagger {
	return &Tagger{}
}

// SaveTags writes ID3 tags to the MP3 file at path.
//
// The file must already exist; tagging happens after the audio bytes
// land on disk but before the file is renamed into its final place.
// artwork is JPEG image bytes for the front cover, nil to skip
// embedding artwork.
func (t *Tagger) SaveTags(path string, song *model.Song, artwork []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open id3 tags: %w", err)
	}
	defer tag.Close()

	tag.SetTitle(song.DisplayTitle())
	if song.Artist != "" {
		tag.SetArtist(song.Artist)
	}
	if !song.CreatedAt.IsZero() {
		tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, song.CreatedAt.Format("2006-01-02"))
	}

	if artwork != nil {
		t.updateArtwork(tag, artwork)
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save id3 tags: %w", err)
	}
	return nil
}

// updateArtwork embeds cover art as an attached picture frame,
// replacing any existing pictures.
func (t *Tagger) updateArtwork(tag *id3v2.Tag, artwork []byte) {
	tag.DeleteFrames(tag.CommonID("Attached picture"))

	pic := id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    "image/jpeg",
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     artwork,
	}
	tag.AddAttachedPicture(pic)
}
