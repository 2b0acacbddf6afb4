package transcript

import (
	"reflect"
	"testing"
)

func TestJoin_BasicAttribution(t *testing.T) {
	diar := Diarization{
		"SPEAKER_00": {{Start: 0, End: 4}},
		"SPEAKER_01": {{Start: 4.5, End: 10}},
	}
	chunks := []Chunk{
		{Start: 0, End: 2, Text: "hello"},
		{Start: 2, End: 4, Text: "there"},
		{Start: 5, End: 9, Text: "general kenobi"},
	}

	got := Join(diar, chunks)

	want := map[string][]string{
		"SPEAKER_00": {"hello\nthere"},
		"SPEAKER_01": {"general kenobi"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Join = %v, want %v", got, want)
	}
}

func TestJoin_BoundaryTouchingCounts(t *testing.T) {
	// A chunk ending exactly where a span starts (and vice versa) is counted
	// for both. A single point chunk sitting on the boundary between two
	// spans is attributed to both speakers.
	diar := Diarization{
		"A": {{Start: 0, End: 5}},
		"B": {{Start: 5, End: 10}},
	}
	chunks := []Chunk{
		{Start: 5, End: 5, Text: "boundary"},
	}

	got := Join(diar, chunks)

	if !reflect.DeepEqual(got["A"], []string{"boundary"}) {
		t.Errorf("speaker A = %v, want [boundary]", got["A"])
	}
	if !reflect.DeepEqual(got["B"], []string{"boundary"}) {
		t.Errorf("speaker B = %v, want [boundary]", got["B"])
	}
}

func TestJoin_SpanWithoutChunksContributesNoBlock(t *testing.T) {
	diar := Diarization{
		"A": {{Start: 0, End: 1}, {Start: 50, End: 60}},
	}
	chunks := []Chunk{
		{Start: 0, End: 1, Text: "only here"},
	}

	got := Join(diar, chunks)

	// Two spans, one block: the silent span drops out instead of producing
	// an empty string.
	if !reflect.DeepEqual(got["A"], []string{"only here"}) {
		t.Errorf("speaker A = %v, want [only here]", got["A"])
	}
}

func TestJoin_SpeakerWithNoOverlapKeepsEmptyList(t *testing.T) {
	diar := Diarization{
		"A": {{Start: 0, End: 1}},
		"B": {{Start: 100, End: 101}},
	}
	chunks := []Chunk{
		{Start: 0, End: 1, Text: "hi"},
	}

	got := Join(diar, chunks)

	list, ok := got["B"]
	if !ok {
		t.Fatal("speaker B missing from result")
	}
	if list == nil || len(list) != 0 {
		t.Errorf("speaker B = %#v, want empty non-nil list", list)
	}
}

func TestJoin_EmptyInputs(t *testing.T) {
	if got := Join(Diarization{}, nil); len(got) != 0 {
		t.Errorf("Join(empty, nil) = %v, want empty map", got)
	}

	diar := Diarization{"A": {{Start: 0, End: 10}}}
	got := Join(diar, nil)
	if list := got["A"]; list == nil || len(list) != 0 {
		t.Errorf("speaker A with no chunks = %#v, want empty non-nil list", list)
	}
}

func TestJoin_ChunkSpanningMultipleSpans(t *testing.T) {
	// A chunk overlapping two spans of the same speaker appears in both
	// blocks; the join is deliberately over-inclusive at edges.
	diar := Diarization{
		"A": {{Start: 0, End: 5}, {Start: 5, End: 10}},
	}
	chunks := []Chunk{
		{Start: 4, End: 6, Text: "straddles"},
	}

	got := Join(diar, chunks)

	want := []string{"straddles", "straddles"}
	if !reflect.DeepEqual(got["A"], want) {
		t.Errorf("speaker A = %v, want %v", got["A"], want)
	}
}

func TestJoin_PreservesChunkOrderWithinSpan(t *testing.T) {
	diar := Diarization{
		"A": {{Start: 0, End: 10}},
	}
	chunks := []Chunk{
		{Start: 0, End: 2, Text: "first"},
		{Start: 3, End: 5, Text: "second"},
		{Start: 6, End: 9, Text: "third"},
	}

	got := Join(diar, chunks)

	want := []string{"first\nsecond\nthird"}
	if !reflect.DeepEqual(got["A"], want) {
		t.Errorf("speaker A = %v, want %v", got["A"], want)
	}
}
