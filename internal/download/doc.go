// Package download orchestrates a full library run: enumeration,
// the bounded worker pool, versioned file placement, resume state and
// progress reporting.
package download
