package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sunodl/suno-dl/internal/model"
)

// SunoTime is a custom time type that handles the clip timestamp
// formats the feed emits.
type SunoTime struct {
	time.Time
}

// UnmarshalJSON parses clip timestamps. RFC 3339 with fractional
// seconds is the norm ("2024-01-15T12:34:56.789Z"); a zoneless form
// appears on some older clips. An empty or null value parses to the
// zero time.
func (st *SunoTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	if s == "" {
		st.Time = time.Time{}
		return nil
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			st.Time = t
			return nil
		}
	}

	return fmt.Errorf("unable to parse clip timestamp: %s", s)
}

// JSONClip represents one clip entry from the feed listing.
type JSONClip struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	AudioURL    string   `json:"audio_url"`
	ImageURL    string   `json:"image_url"`
	DisplayName string   `json:"display_name"`
	CreatedAt   SunoTime `json:"created_at"`
}

// Validate checks the fields a download cannot proceed without.
// A missing title is fine (the clip ID stands in for it); a missing ID
// or audio URL is a schema violation.
func (c *JSONClip) Validate() error {
	if c.ID == "" {
		return errors.New("clip missing id")
	}
	if c.AudioURL == "" {
		return errors.New("clip missing audio_url")
	}
	return nil
}

// ToSong converts a JSONClip to a model.Song.
func (c *JSONClip) ToSong() *model.Song {
	return model.NewSong(c.ID, c.Title, c.DisplayName, c.AudioURL, c.ImageURL, c.CreatedAt.Time)
}

// Feed is the listing envelope. The API has returned both a bare array
// of clips and an object wrapping them under "clips"; both forms are
// accepted, anything else is a schema violation.
type Feed struct {
	Clips []JSONClip
}

// UnmarshalJSON accepts the two known envelope shapes and rejects
// everything else rather than guessing at unknown structures.
func (f *Feed) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '[' {
		var clips []JSONClip
		if err := json.Unmarshal(data, &clips); err != nil {
			return fmt.Errorf("feed array: %w", err)
		}
		f.Clips = clips
		return nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("feed envelope: %w", err)
	}

	raw, ok := envelope["clips"]
	if !ok {
		return errors.New("feed envelope missing clips field")
	}
	if string(raw) == "null" {
		f.Clips = nil
		return nil
	}

	var clips []JSONClip
	if err := json.Unmarshal(raw, &clips); err != nil {
		return fmt.Errorf("feed clips: %w", err)
	}
	f.Clips = clips
	return nil
}
