// Package jobs implements the asynchronous orchestration layer: job
// submission and lifecycle tracking, the concurrent diarization plus
// transcription join, the result cache write, and completion notification.
package jobs

import (
	"time"

	"github.com/Edgar454/WhoIsTalking/internal/transcript"
)

// Status is a job lifecycle state. Terminal states are immutable.
type Status string

const (
	StatusPending Status = "Pending"
	StatusRunning Status = "Running"
	StatusSuccess Status = "Success"
	StatusFailure Status = "Failure"
)

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// Job is one submission of an audio file. Two submissions of identical audio
// share a FileHash but carry distinct IDs; the cached result is keyed by
// FileHash and may outlive the job record.
type Job struct {
	// ID is the opaque identifier assigned at submission time.
	ID string `json:"job_id"`
	// FileHash is the content-addressed identifier of the audio bytes.
	FileHash string `json:"filehash"`
	// Filename is the original upload name, used only as a format hint.
	Filename string `json:"filename"`
	// Status is the current lifecycle state.
	Status Status `json:"status"`
	// Error holds the failure detail for jobs in StatusFailure.
	Error string `json:"error,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// Notification is the payload published on the notification bus when a job
// finishes: the joined result on success, an error detail on failure.
type Notification struct {
	FileHash          string                 `json:"filehash,omitempty"`
	SpeakerTranscript map[string][]string    `json:"speaker_transcript,omitempty"`
	Diarization       transcript.Diarization `json:"diarization,omitempty"`
	Error             string                 `json:"error,omitempty"`
}

// NotificationFromResult builds the success payload for a joined result.
func NotificationFromResult(result *transcript.JoinedResult) Notification {
	return Notification{
		FileHash:          result.FileHash,
		SpeakerTranscript: result.SpeakerTranscript,
		Diarization:       result.Diarization,
	}
}
