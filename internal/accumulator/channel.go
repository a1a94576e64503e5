package accumulator

import (
	"fmt"
	"strings"
)

// channelState is the per-channel watermark, held-back tail word, and live
// partial buffer described in spec.md §3.6. One exists per audio channel
// (0=mic, 1=speaker, ...) touched by the session.
type channelState struct {
	watermark int64 // ms; all committed content's end is <= this

	hasHeld bool
	held    RawWord // the last word of the most recently finalized batch

	partials []PartialWord

	// lastFinalSig is a signature of the last final raw batch processed on
	// this channel, used to dedupe an exact re-delivery of the same final
	// response (e.g. a provider redelivering after a network retry).
	lastFinalSig string
}

// rawSignature returns a stable signature for a raw batch, used only to
// detect byte-identical re-deliveries — never for ordering or timing.
func rawSignature(raw []RawWord) string {
	var b strings.Builder
	for _, w := range raw {
		fmt.Fprintf(&b, "%s|%d|%d;", w.Text, w.StartMs, w.EndMs)
	}
	return b.String()
}

// dedup drops any RawWord whose span is already covered by the watermark —
// it carries no new information.
func dedup(words []RawWord, watermark int64) []RawWord {
	out := make([]RawWord, 0, len(words))
	for _, w := range words {
		if w.EndMs <= watermark {
			continue
		}
		out = append(out, w)
	}
	return out
}

// stripOverlap removes partials whose span is fully covered by newWatermark —
// the finals that just committed already account for that audio.
func stripOverlap(partials []PartialWord, newWatermark int64) []PartialWord {
	out := make([]PartialWord, 0, len(partials))
	for _, p := range partials {
		if p.EndMs <= newWatermark {
			continue
		}
		out = append(out, p)
	}
	return out
}
