package dto

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSunoTimeUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "rfc3339 with fractional seconds",
			input: `"2024-01-15T12:34:56.789Z"`,
			want:  time.Date(2024, 1, 15, 12, 34, 56, 789000000, time.UTC),
		},
		{
			name:  "rfc3339 without fraction",
			input: `"2023-06-01T08:00:00Z"`,
			want:  time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC),
		},
		{
			name:  "zoneless legacy form",
			input: `"2022-11-30T23:59:59"`,
			want:  time.Date(2022, 11, 30, 23, 59, 59, 0, time.UTC),
		},
		{
			name:  "empty string is zero time",
			input: `""`,
			want:  time.Time{},
		},
		{
			name:  "null is zero time",
			input: `null`,
			want:  time.Time{},
		},
		{
			name:    "unparseable",
			input:   `"yesterday"`,
			wantErr: true,
		},
		{
			name:    "non-string",
			input:   `12345`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var st SunoTime
			err := json.Unmarshal([]byte(tt.input), &st)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal %s: %v", tt.input, err)
			}
			if !st.Time.Equal(tt.want) {
				t.Errorf("got %v, want %v", st.Time, tt.want)
			}
		})
	}
}

func TestFeedUnmarshal(t *testing.T) {
	clip := `{"id":"abc","title":"Song","audio_url":"https://cdn.example/abc.mp3"}`

	tests := []struct {
		name      string
		input     string
		wantClips int
		wantErr   bool
	}{
		{name: "bare array", input: "[" + clip + "]", wantClips: 1},
		{name: "empty array", input: `[]`, wantClips: 0},
		{name: "wrapped object", input: `{"clips":[` + clip + `]}`, wantClips: 1},
		{name: "wrapped with extras", input: `{"clips":[` + clip + `],"num_total_results":1}`, wantClips: 1},
		{name: "null clips", input: `{"clips":null}`, wantClips: 0},
		{name: "missing clips key", input: `{"results":[]}`, wantErr: true},
		{name: "scalar body", input: `42`, wantErr: true},
		{name: "string body", input: `"maintenance"`, wantErr: true},
		{name: "clips wrong type", input: `{"clips":"nope"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var feed Feed
			err := json.Unmarshal([]byte(tt.input), &feed)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(feed.Clips) != tt.wantClips {
				t.Errorf("got %d clips, want %d", len(feed.Clips), tt.wantClips)
			}
		})
	}
}

func TestJSONClipValidate(t *testing.T) {
	valid := JSONClip{ID: "abc", AudioURL: "https://cdn.example/abc.mp3"}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid clip rejected: %v", err)
	}

	noID := JSONClip{AudioURL: "https://cdn.example/abc.mp3"}
	if err := noID.Validate(); err == nil {
		t.Error("clip without id accepted")
	}

	noAudio := JSONClip{ID: "abc"}
	if err := noAudio.Validate(); err == nil {
		t.Error("clip without audio_url accepted")
	}

	noTitle := JSONClip{ID: "abc", AudioURL: "https://cdn.example/abc.mp3"}
	if err := noTitle.Validate(); err != nil {
		t.Errorf("untitled clip rejected: %v", err)
	}
}

func TestJSONClipToSong(t *testing.T) {
	created := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	clip := JSONClip{
		ID:          "abc123",
		Title:       "Morning Light",
		AudioURL:    "https://cdn.example/abc123.mp3",
		ImageURL:    "https://cdn.example/image_abc123.jpeg",
		DisplayName: "somebody",
		CreatedAt:   SunoTime{Time: created},
	}

	song := clip.ToSong()

	if song.ID != "abc123" {
		t.Errorf("ID = %q", song.ID)
	}
	if song.Title != "Morning Light" {
		t.Errorf("Title = %q", song.Title)
	}
	if song.Artist != "somebody" {
		t.Errorf("Artist = %q", song.Artist)
	}
	if song.AudioURL != clip.AudioURL {
		t.Errorf("AudioURL = %q", song.AudioURL)
	}
	if song.ImageURL != clip.ImageURL {
		t.Errorf("ImageURL = %q", song.ImageURL)
	}
	if !song.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v", song.CreatedAt)
	}
}
