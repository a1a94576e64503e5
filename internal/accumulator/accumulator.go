package accumulator

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

// defaultStitchGapMs is the spec-mandated default cross-response stitching
// threshold. spec.md §9 flags it as a hard-coded heuristic in the source with
// no configuration surface; it is kept configurable here with this default.
const defaultStitchGapMs = 300

// Option configures an [Accumulator].
type Option func(*Accumulator)

// WithStitchGapMs overrides the cross-response stitching gap threshold.
func WithStitchGapMs(ms int64) Option {
	return func(a *Accumulator) { a.stitchGapMs = ms }
}

// job tracks a set of TranscriptWord ids awaiting a correction resolution,
// whether submitted explicitly via SubmitCorrection or recognized implicitly
// from in-band cloud-handoff metadata.
type job struct {
	ids []string
}

// Accumulator ingests a sequence of partial/final StreamResponses for one
// session and produces a deduplicated, stably-ordered word stream. One
// Accumulator is created per live session; it is safe for concurrent use.
type Accumulator struct {
	stitchGapMs int64

	mu       sync.Mutex
	channels map[int]*channelState
	words    map[string]TranscriptWord

	jobsMu sync.Mutex
	jobs   map[string]*job

	nextID  atomic.Uint64
	nextJob atomic.Uint64
}

// New constructs an Accumulator ready to ingest responses for a new session.
func New(opts ...Option) *Accumulator {
	a := &Accumulator{
		stitchGapMs: defaultStitchGapMs,
		channels:    make(map[int]*channelState),
		words:       make(map[string]TranscriptWord),
		jobs:        make(map[string]*job),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Accumulator) channelState(ch int) *channelState {
	cs, ok := a.channels[ch]
	if !ok {
		cs = &channelState{}
		a.channels[ch] = cs
	}
	return cs
}

func (a *Accumulator) allPartials() []PartialWord {
	var out []PartialWord
	for _, cs := range a.channels {
		out = append(out, cs.partials...)
	}
	return out
}

func (a *Accumulator) newWordID() string {
	return fmt.Sprintf("w-%d", a.nextID.Add(1))
}

func (a *Accumulator) newJobID() string {
	return fmt.Sprintf("job-%d", a.nextJob.Add(1))
}

// finalizeWord assigns rw an id, registers it, and returns the committed
// TranscriptWord. Caller must hold a.mu.
func (a *Accumulator) finalizeWord(rw RawWord) TranscriptWord {
	w := TranscriptWord{
		ID:      a.newWordID(),
		Text:    " " + rw.Text,
		StartMs: rw.StartMs,
		EndMs:   rw.EndMs,
		Channel: rw.Channel,
		State:   StateFinal,
	}
	a.words[w.ID] = w
	return w
}

// Ingest processes one unified StreamResponse and returns the resulting
// Update. Non-transcript variants and empty transcripts yield a zero Update.
func (a *Accumulator) Ingest(resp schema.StreamResponse) Update {
	if resp.Type != schema.TypeTranscript || resp.Transcript == nil {
		return Update{}
	}
	t := resp.Transcript
	if len(t.Channel.Alternatives) == 0 {
		return Update{}
	}
	alt := t.Channel.Alternatives[0]
	if strings.TrimSpace(alt.Transcript) == "" && len(alt.Words) == 0 {
		return Update{}
	}

	channel := t.ChannelIndex[0]

	if jobID, corrected, handoff, ok := cloudHandoffFlags(t); ok && corrected {
		return a.resolveCloudCorrection(jobID, alt, channel)
	} else if ok && handoff {
		return a.ingestWithHandoff(jobID, channel, t.IsFinal, alt)
	}

	raw := assemble(alt.Words, alt.Transcript, channel)
	if len(raw) == 0 {
		return Update{}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if t.IsFinal {
		return a.ingestFinalLocked(channel, raw)
	}
	return a.ingestPartialLocked(channel, raw)
}

func (a *Accumulator) ingestFinalLocked(channel int, raw []RawWord) Update {
	cs := a.channelState(channel)

	// An exact re-delivery of the same final batch (provider retry after a
	// dropped ack) carries no new information and must not disturb the held
	// tail or watermark.
	if sig := rawSignature(raw); sig == cs.lastFinalSig {
		return Update{Partials: a.allPartials()}
	} else {
		cs.lastFinalSig = sig
	}

	raw = dedup(raw, cs.watermark)
	if len(raw) == 0 {
		return Update{Partials: a.allPartials()}
	}

	emitted := stitch(cs, raw, a.stitchGapMs)

	var upd Update
	var maxEnd int64
	for _, rw := range emitted {
		w := a.finalizeWord(rw)
		upd.Finals = append(upd.Finals, w)
		if rw.Speaker != nil {
			upd.Hints = append(upd.Hints, SpeakerHint{WordID: w.ID, SpeakerIndex: *rw.Speaker})
		}
		if rw.EndMs > maxEnd {
			maxEnd = rw.EndMs
		}
	}
	if maxEnd > cs.watermark {
		cs.watermark = maxEnd
	}
	cs.partials = stripOverlap(cs.partials, coveredUntil(cs))
	upd.Partials = a.allPartials()
	return upd
}

// coveredUntil is the end (ms) of all final content on cs, including the
// held tail word, which is final but not yet emitted.
func coveredUntil(cs *channelState) int64 {
	if cs.hasHeld && cs.held.EndMs > cs.watermark {
		return cs.held.EndMs
	}
	return cs.watermark
}

func (a *Accumulator) ingestPartialLocked(channel int, raw []RawWord) Update {
	cs := a.channelState(channel)

	raw = dedup(raw, coveredUntil(cs))
	if len(raw) == 0 {
		return Update{Partials: a.allPartials()}
	}

	cs.partials = splice(cs.partials, raw)
	return Update{Partials: a.allPartials()}
}

// Flush drains session-end state per mode. See [DrainAll] and
// [PromotableOnly].
func (a *Accumulator) Flush(mode FlushMode) Update {
	a.mu.Lock()
	defer a.mu.Unlock()

	var upd Update
	for ch, cs := range a.channels {
		if cs.hasHeld {
			w := a.finalizeWord(cs.held)
			upd.Finals = append(upd.Finals, w)
			if cs.held.EndMs > cs.watermark {
				cs.watermark = cs.held.EndMs
			}
			cs.hasHeld = false
		}

		if mode == DrainAll {
			for _, p := range cs.partials {
				rw := RawWord{
					Text:    strings.TrimPrefix(p.Text, " "),
					StartMs: p.StartMs,
					EndMs:   p.EndMs,
					Channel: ch,
				}
				w := a.finalizeWord(rw)
				upd.Finals = append(upd.Finals, w)
				if p.EndMs > cs.watermark {
					cs.watermark = p.EndMs
				}
			}
		}
		cs.partials = nil
	}
	return upd
}

// SubmitCorrection demotes the TranscriptWords named by ids to [StatePending]
// and returns a job id the caller uses with ApplyCorrection once the
// out-of-band correction (cloud handoff, post-processor) resolves. Unknown
// ids are silently skipped.
func (a *Accumulator) SubmitCorrection(ids []string) (string, Update) {
	a.mu.Lock()
	var upd Update
	for _, id := range ids {
		w, ok := a.words[id]
		if !ok {
			continue
		}
		w.State = StatePending
		a.words[id] = w
		upd.Finals = append(upd.Finals, w)
	}
	a.mu.Unlock()
	upd.ReplacedIDs = ids

	jobID := a.newJobID()
	a.jobsMu.Lock()
	a.jobs[jobID] = &job{ids: append([]string(nil), ids...)}
	a.jobsMu.Unlock()
	return jobID, upd
}

// ApplyCorrection resolves jobID with correctedWords: each is assigned a
// fresh id and emitted as [StateFinal], and ReplacedIDs names the pending
// words it supersedes. An unknown jobID resolves to an empty replacement
// list but correctedWords are still emitted.
func (a *Accumulator) ApplyCorrection(jobID string, correctedWords []TranscriptWord) Update {
	a.jobsMu.Lock()
	j, ok := a.jobs[jobID]
	delete(a.jobs, jobID)
	a.jobsMu.Unlock()

	a.mu.Lock()
	var upd Update
	for _, cw := range correctedWords {
		cw.ID = a.newWordID()
		cw.State = StateFinal
		a.words[cw.ID] = cw
		upd.Finals = append(upd.Finals, cw)
	}
	a.mu.Unlock()

	if ok {
		upd.ReplacedIDs = j.ids
	}
	return upd
}

// cloudHandoffFlags reads the Cactus-style cloud-handoff extras from a
// transcript response's metadata: (jobID, corrected, handoff, present).
func cloudHandoffFlags(t *schema.TranscriptResponse) (jobID string, corrected, handoff, present bool) {
	if t.Metadata == nil || t.Metadata.Extra == nil {
		return "", false, false, false
	}
	raw, ok := t.Metadata.Extra["cloud_job_id"]
	if !ok {
		return "", false, false, false
	}
	jobID = fmt.Sprintf("cloud:%v", raw)
	handoff, _ = t.Metadata.Extra["cloud_handoff"].(bool)
	corrected, _ = t.Metadata.Extra["cloud_corrected"].(bool)
	return jobID, corrected, handoff, true
}

// ingestWithHandoff runs the normal final/partial pipeline, then demotes any
// newly emitted finals to Pending and files them under jobID for later
// resolution by a matching cloud_corrected response. A final handoff batch
// is emitted whole: its tail word is not held back.
func (a *Accumulator) ingestWithHandoff(jobID string, channel int, isFinal bool, alt schema.Alternative) Update {
	raw := assemble(alt.Words, alt.Transcript, channel)
	if len(raw) == 0 {
		return Update{}
	}

	a.mu.Lock()
	var upd Update
	if isFinal {
		upd = a.ingestFinalLocked(channel, raw)
		if cs := a.channelState(channel); cs.hasHeld {
			upd.Finals = append(upd.Finals, a.finalizeWord(cs.held))
			if cs.held.EndMs > cs.watermark {
				cs.watermark = cs.held.EndMs
			}
			cs.hasHeld = false
		}
	} else {
		upd = a.ingestPartialLocked(channel, raw)
	}
	var ids []string
	for i, w := range upd.Finals {
		w.State = StatePending
		a.words[w.ID] = w
		upd.Finals[i] = w
		ids = append(ids, w.ID)
	}
	a.mu.Unlock()

	if len(ids) > 0 {
		a.jobsMu.Lock()
		a.jobs[jobID] = &job{ids: ids}
		a.jobsMu.Unlock()
	}
	return upd
}

// resolveCloudCorrection treats alt's words as a full replacement for the
// words filed under jobID — a correction response replaces already-emitted
// content rather than advancing live recognition, so it bypasses the
// watermark/stitch pipeline entirely.
func (a *Accumulator) resolveCloudCorrection(jobID string, alt schema.Alternative, channel int) Update {
	raw := assemble(alt.Words, alt.Transcript, channel)

	a.mu.Lock()
	var upd Update
	for _, rw := range raw {
		w := a.finalizeWord(rw)
		upd.Finals = append(upd.Finals, w)
	}
	a.mu.Unlock()

	a.jobsMu.Lock()
	j, ok := a.jobs[jobID]
	delete(a.jobs, jobID)
	a.jobsMu.Unlock()
	if ok {
		upd.ReplacedIDs = j.ids
	}
	return upd
}
