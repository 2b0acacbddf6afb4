// Package transcript holds the domain model for diarized transcripts and the
// alignment join that merges diarization spans with transcription chunks.
package transcript

// Span is a time interval in seconds attributed to one speaker.
type Span struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Diarization maps a speaker label to the spans attributed to that speaker,
// in the order the diarization backend returned them (not necessarily
// time-sorted). Labels are not stable across runs: two runs on the same audio
// may label the same physical speaker differently.
type Diarization map[string][]Span

// Chunk is a timestamped portion of the transcription output.
type Chunk struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// JoinedResult is the per-speaker transcript produced by joining diarization
// and transcription output. Once written to the result cache it is immutable.
type JoinedResult struct {
	FileHash          string              `json:"filehash"`
	Diarization       Diarization         `json:"diarization"`
	SpeakerTranscript map[string][]string `json:"speaker_transcript"`
}
