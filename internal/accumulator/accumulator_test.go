package accumulator

import (
	"testing"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

func finalResponse(transcript string, words []schema.Word, channel int) schema.StreamResponse {
	return schema.NewTranscriptResponse(schema.TranscriptResponse{
		IsFinal:      true,
		Channel:      schema.ChannelResult{Alternatives: []schema.Alternative{{Transcript: transcript, Words: words}}},
		ChannelIndex: [2]int{channel, 1},
	})
}

func partialResponse(transcript string, words []schema.Word, channel int) schema.StreamResponse {
	return schema.NewTranscriptResponse(schema.TranscriptResponse{
		IsFinal:      false,
		Channel:      schema.ChannelResult{Alternatives: []schema.Alternative{{Transcript: transcript, Words: words}}},
		ChannelIndex: [2]int{channel, 1},
	})
}

func w(text string, startSec, endSec float64) schema.Word {
	return schema.Word{Word: text, Start: startSec, End: endSec}
}

// Scenario 1: English stitching.
func TestStitchEnglishContraction(t *testing.T) {
	a := New()
	a.Ingest(finalResponse("Hello", []schema.Word{w("Hello", 0, 0.4)}, 0))
	upd := a.Ingest(finalResponse("'s", []schema.Word{w("'s", 0.45, 0.5)}, 0))
	if len(upd.Finals) != 0 {
		t.Fatalf("expected no emission until flush, got %+v", upd.Finals)
	}

	flushed := a.Flush(PromotableOnly)
	if len(flushed.Finals) != 1 || flushed.Finals[0].Text != " Hello's" {
		t.Fatalf("expected one emitted word \" Hello's\", got %+v", flushed.Finals)
	}
}

// Scenario 2: Korean particle.
func TestStitchKoreanParticle(t *testing.T) {
	a := New()
	a.Ingest(finalResponse("시스템", []schema.Word{w("시스템", 0, 0.5)}, 0))
	a.Ingest(finalResponse("을", []schema.Word{w("을", 0.6, 0.7)}, 0))

	flushed := a.Flush(PromotableOnly)
	if len(flushed.Finals) != 1 || flushed.Finals[0].Text != " 시스템을" {
		t.Fatalf("expected merged \" 시스템을\", got %+v", flushed.Finals)
	}
}

// Scenario 3: overlap — partial followed by a covering final.
func TestOverlapPartialThenFinal(t *testing.T) {
	a := New()
	a.Ingest(partialResponse("hello world today", []schema.Word{
		w("hello", 0, 0.5), w("world", 0.5, 1.0), w("today", 1.0, 1.5),
	}, 0))

	upd := a.Ingest(finalResponse("hello world", []schema.Word{
		w("hello", 0, 0.5), w("world", 0.5, 1.0),
	}, 0))

	if len(upd.Finals) != 1 || upd.Finals[0].Text != " hello" {
		t.Fatalf("expected emitted [\" hello\"], got %+v", upd.Finals)
	}
	if len(upd.Partials) != 1 || upd.Partials[0].Text != " today" {
		t.Fatalf("expected held partial [\" today\"], got %+v", upd.Partials)
	}
}

// Scenario 5b: a partial arriving after a covering final must be discarded
// rather than re-surfaced in Update.Partials.
func TestOverlapFinalThenPartial(t *testing.T) {
	a := New()
	a.Ingest(finalResponse("hello world", []schema.Word{
		w("hello", 0, 0.5), w("world", 0.5, 1.0),
	}, 0))

	upd := a.Ingest(partialResponse("hello world today", []schema.Word{
		w("hello", 0, 0.5), w("world", 0.5, 1.0), w("today", 1.0, 1.5),
	}, 0))

	if len(upd.Partials) != 1 || upd.Partials[0].Text != " today" {
		t.Fatalf("expected already-final words dropped, only [\" today\"] held, got %+v", upd.Partials)
	}
}

// Scenario 6: cloud handoff.
func TestCloudHandoff(t *testing.T) {
	a := New()

	respA := schema.NewTranscriptResponse(schema.TranscriptResponse{
		IsFinal: true,
		Channel: schema.ChannelResult{Alternatives: []schema.Alternative{{
			Transcript: "foo bar",
			Words:      []schema.Word{w("foo", 0, 0.3), w("bar", 0.4, 0.7)},
		}}},
		Metadata: &schema.ResponseMetadata{Extra: map[string]any{
			"cloud_handoff": true, "cloud_job_id": "7",
		}},
	})
	updA := a.Ingest(respA)
	if len(updA.Finals) != 2 {
		t.Fatalf("expected 2 pending words, got %d", len(updA.Finals))
	}
	for _, fw := range updA.Finals {
		if fw.State != StatePending {
			t.Fatalf("expected Pending state, got %v", fw.State)
		}
	}
	w1, w2 := updA.Finals[0], updA.Finals[1]

	respB := schema.NewTranscriptResponse(schema.TranscriptResponse{
		IsFinal: true,
		Channel: schema.ChannelResult{Alternatives: []schema.Alternative{{
			Transcript: "food bard",
			Words:      []schema.Word{w("food", 0, 0.3), w("bard", 0.4, 0.7)},
		}}},
		Metadata: &schema.ResponseMetadata{Extra: map[string]any{
			"cloud_corrected": true, "cloud_job_id": "7",
		}},
	})
	updB := a.Ingest(respB)
	if len(updB.Finals) != 2 {
		t.Fatalf("expected 2 corrected words, got %d", len(updB.Finals))
	}
	for _, fw := range updB.Finals {
		if fw.State != StateFinal {
			t.Fatalf("expected Final state after correction, got %v", fw.State)
		}
	}
	if len(updB.ReplacedIDs) != 2 || updB.ReplacedIDs[0] != w1.ID || updB.ReplacedIDs[1] != w2.ID {
		t.Fatalf("expected replaced ids [%s %s], got %v", w1.ID, w2.ID, updB.ReplacedIDs)
	}
}

func TestSubmitAndApplyCorrection(t *testing.T) {
	a := New()
	upd := a.Ingest(finalResponse("hello world", []schema.Word{w("hello", 0, 0.4), w("world", 0.5, 1.0)}, 0))
	// "world" is the held tail; flushing commits it so both words have ids.
	held := a.Flush(PromotableOnly)
	ids := []string{upd.Finals[0].ID, held.Finals[0].ID}

	jobID, pendingUpd := a.SubmitCorrection(ids)
	for _, fw := range pendingUpd.Finals {
		if fw.State != StatePending {
			t.Fatalf("expected pending state, got %v", fw.State)
		}
	}

	resolved := a.ApplyCorrection(jobID, []TranscriptWord{
		{Text: " Hello", StartMs: 0, EndMs: 400, Channel: 0},
		{Text: " World", StartMs: 500, EndMs: 1000, Channel: 0},
	})
	if len(resolved.Finals) != 2 || resolved.Finals[0].State != StateFinal {
		t.Fatalf("expected 2 final words, got %+v", resolved.Finals)
	}
	if len(resolved.ReplacedIDs) != 2 || resolved.ReplacedIDs[0] != ids[0] {
		t.Fatalf("expected replaced ids %v, got %v", ids, resolved.ReplacedIDs)
	}

	unknown := a.ApplyCorrection("nonexistent", []TranscriptWord{{Text: " X", StartMs: 0, EndMs: 100}})
	if len(unknown.ReplacedIDs) != 0 {
		t.Fatalf("expected empty replacement list for unknown job, got %v", unknown.ReplacedIDs)
	}
}

func TestEmptyResponseYieldsNoUpdate(t *testing.T) {
	a := New()
	upd := a.Ingest(finalResponse("", nil, 0))
	if len(upd.Finals) != 0 || len(upd.Partials) != 0 {
		t.Fatalf("expected zero update, got %+v", upd)
	}
}

func TestDuplicateFinalDedupes(t *testing.T) {
	a := New()
	resp := finalResponse("hello world", []schema.Word{w("hello", 0, 0.4), w("world", 0.5, 1.0)}, 0)
	first := a.Ingest(resp)
	if len(first.Finals) != 1 || first.Finals[0].Text != " hello" {
		t.Fatalf("expected 1 emitted final \" hello\" (the tail stays held), got %+v", first.Finals)
	}
	second := a.Ingest(resp)
	if len(second.Finals) != 0 {
		t.Fatalf("expected no new finals from a duplicate delivery, got %+v", second.Finals)
	}
}

func TestFinalizeWithEmptyBufferEmitsNothing(t *testing.T) {
	a := New()
	upd := a.Ingest(finalResponse("", nil, 0))
	if len(upd.Finals) != 0 {
		t.Fatalf("expected no finals from an empty finalize response, got %+v", upd.Finals)
	}
}

func TestDrainAllPromotesHeldAndPartials(t *testing.T) {
	a := New()
	a.Ingest(finalResponse("hello world", []schema.Word{w("hello", 0, 0.4), w("world", 0.5, 1.0)}, 0))
	a.Ingest(partialResponse("today", []schema.Word{w("today", 1.1, 1.5)}, 0))

	upd := a.Flush(DrainAll)
	if len(upd.Finals) != 2 {
		t.Fatalf("expected held word + partial promoted to final, got %+v", upd.Finals)
	}

	second := a.Flush(DrainAll)
	if len(second.Finals) != 0 {
		t.Fatalf("expected nothing left to drain, got %+v", second.Finals)
	}
}

func TestFinalIDsUniqueAndMonotonicPerChannel(t *testing.T) {
	a := New()
	seen := make(map[string]bool)
	var lastStart int64 = -1

	feed := [][2]float64{{0, 0.3}, {0.4, 0.8}, {0.9, 1.3}, {1.4, 1.8}}
	for i, span := range feed {
		upd := a.Ingest(finalResponse("w", []schema.Word{w("w", span[0], span[1])}, 0))
		_ = i
		for _, fw := range upd.Finals {
			if seen[fw.ID] {
				t.Fatalf("duplicate id %s", fw.ID)
			}
			seen[fw.ID] = true
			if fw.StartMs < lastStart {
				t.Fatalf("start_ms regressed: %d < %d", fw.StartMs, lastStart)
			}
			lastStart = fw.StartMs
			if fw.Text[0] != ' ' {
				t.Fatalf("expected leading space, got %q", fw.Text)
			}
		}
	}
	flushed := a.Flush(DrainAll)
	for _, fw := range flushed.Finals {
		if seen[fw.ID] {
			t.Fatalf("duplicate id %s on flush", fw.ID)
		}
	}
}
