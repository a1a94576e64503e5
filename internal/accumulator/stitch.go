package accumulator

// stitch merges cs's held-back tail word (if any) with raw's head word when
// the gap is within the configured threshold and the head has no leading
// space, per spec.md §4.8. It returns every word that should be emitted now;
// the last word of the (possibly merged) sequence is popped back into cs as
// the new held tail, so a further cross-response merge remains possible on
// the next final.
func stitch(cs *channelState, raw []RawWord, stitchGapMs int64) []RawWord {
	words := raw
	var emit []RawWord

	if cs.hasHeld {
		if len(words) > 0 && shouldStitch(cs.held, words[0], stitchGapMs) {
			merged := cs.held
			merged.Text += words[0].Text
			merged.EndMs = words[0].EndMs
			if merged.Speaker == nil {
				merged.Speaker = words[0].Speaker
			}
			words = append([]RawWord{merged}, words[1:]...)
		} else {
			emit = append(emit, cs.held)
		}
		cs.hasHeld = false
	}

	if len(words) == 0 {
		return emit
	}

	emit = append(emit, words[:len(words)-1]...)
	cs.held = words[len(words)-1]
	cs.hasHeld = true
	return emit
}

// shouldStitch reports whether head should be glued onto the end of held
// rather than emitted as an independent word: same channel, a non-negative
// gap no larger than gapMs, and no leading space on head (an English
// contraction or a script, like Hangul, whose orthography doesn't insert one).
func shouldStitch(held, head RawWord, gapMs int64) bool {
	if held.Channel != head.Channel {
		return false
	}
	gap := head.StartMs - held.EndMs
	return gap >= 0 && gap <= gapMs && hasNoLeadingSpace(head.Text)
}
