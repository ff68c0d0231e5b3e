package model

// Outcome classifies how processing one song ended.
type Outcome int

const (
	// OutcomeDownloaded means the audio file was written and tagged.
	OutcomeDownloaded Outcome = iota

	// OutcomeSkipped means the song was already recorded in the state
	// store from an earlier run and resume is enabled.
	OutcomeSkipped

	// OutcomeFailed means all attempts were exhausted (or a fatal
	// per-item error occurred) and a placeholder file was written
	// instead of audio.
	OutcomeFailed
)

// String returns the lowercase name of the outcome for logs and summaries.
func (o Outcome) String() string {
	switch o {
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DownloadResult reports the terminal state of one song back to the
// orchestrator. Results live only for the duration of a run; completed
// downloads additionally land in the state store.
type DownloadResult struct {
	// Song is the item this result belongs to.
	Song *Song

	// Outcome is the terminal classification.
	Outcome Outcome

	// LocalPath is the written audio file (downloaded) or the
	// previously recorded file (skipped). Empty for failures and
	// dry-run results.
	LocalPath string

	// Err holds the final error for failed outcomes, nil otherwise.
	Err error

	// Attempts counts download attempts actually made, including the
	// successful one. Zero for skips.
	Attempts int
}
