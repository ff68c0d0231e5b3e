// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - Filename sanitization for cross-platform compatibility
//   - Plain and atomic (write-temp-then-rename) file writing
//   - Directory creation
//   - Cover image normalization for ID3 embedding
//
// # Filename Sanitization
//
// Use SanitizeFileName to turn raw clip titles into safe filename
// components:
//
//	safe := ioutils.SanitizeFileName("Song: Part 1/2") // "Song_ Part 1_2"
//
// The result is capped at 200 bytes and never empty; versioning
// suffixes and the extension are appended by the download layer.
//
// # Atomic Writes
//
// WriteFileAtomic guards files that must never be observed half
// written (the resume state file):
//
//	err := ioutils.WriteFileAtomic(statePath, jsonBytes)
//
// # Image Processing
//
// The ImageService normalizes cover art before it is embedded:
//
//	svc := ioutils.NewImageService()
//	cover, err := svc.PrepareCover(ctx, rawBytes, 1000)
package ioutils
