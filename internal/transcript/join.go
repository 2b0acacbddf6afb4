package transcript

import "strings"

// Join merges diarization spans with transcription chunks into per-speaker
// text blocks.
//
// For every speaker, every span is scanned against all chunks in
// transcription order; a chunk belongs to a span when the intervals touch or
// overlap (boundary-inclusive, favoring over-inclusion at span edges, so a
// chunk ending exactly where a span starts is still counted). Collected chunk
// texts are newline-joined into one block per span. A span with no
// overlapping chunk contributes no block, so a speaker's block list may be
// shorter than its span list. Every speaker keeps a key in the result even
// when no chunk overlapped any of its spans.
//
// O(spans x chunks), fine at the expected scale of minutes of audio with
// seconds-granularity segments.
func Join(diar Diarization, chunks []Chunk) map[string][]string {
	speakerTranscript := make(map[string][]string, len(diar))
	for speaker := range diar {
		speakerTranscript[speaker] = []string{}
	}

	for speaker, spans := range diar {
		for _, span := range spans {
			var collected []string
			for _, chunk := range chunks {
				if chunk.End < span.Start || chunk.Start > span.End {
					continue
				}
				collected = append(collected, chunk.Text)
			}
			if len(collected) > 0 {
				speakerTranscript[speaker] = append(speakerTranscript[speaker], strings.Join(collected, "\n"))
			}
		}
	}

	return speakerTranscript
}
