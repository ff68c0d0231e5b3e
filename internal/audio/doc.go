// Package audio embeds ID3 metadata into downloaded MP3 files and
// generates playlists from a run's results.
package audio
