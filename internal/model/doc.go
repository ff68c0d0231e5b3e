// Package model defines the core data structures used throughout
// the suno-dl application.
//
// # Song
//
// Song represents one clip from a Suno library with the metadata needed
// to download and tag it:
//
//	song := model.NewSong(id, "Neon Rain", "somebody", audioURL, imageURL, created)
//	fmt.Println(song.BaseName) // sanitized filename base, no extension
//
// Songs flow from the library enumerator through the download pool and
// are never mutated after creation.
//
// # DownloadResult
//
// DownloadResult reports how one song ended up: downloaded, skipped
// (already completed in a prior run), or failed. The orchestrator
// aggregates results into run counters and records successes in the
// state store.
package model
