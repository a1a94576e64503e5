package accumulator

import (
	"strings"
	"unicode"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

// assemble walks words in order and uses transcript's whitespace as the sole
// oracle for word boundaries: a token glues onto the previous RawWord when no
// gap separates it from the token before it in transcript; otherwise it
// starts a new RawWord. A token that cannot be located in transcript is
// forcibly separated (unknown ⇒ boundary) — no timing heuristics are used
// here, only the transcript text itself.
func assemble(words []schema.Word, transcript string, channel int) []RawWord {
	var out []RawWord
	pos := 0

	for _, w := range words {
		if w.Word == "" {
			continue
		}

		idx := strings.Index(transcript[min(pos, len(transcript)):], w.Word)
		attach := false
		if idx >= 0 {
			abs := pos + idx
			gap := transcript[pos:abs]
			attach = len(out) > 0 && gap == ""
			pos = abs + len(w.Word)
		}

		startMs, endMs := secToMs(w.Start), secToMs(w.End)
		if attach {
			last := &out[len(out)-1]
			last.Text += w.Word
			last.EndMs = endMs
			if last.Speaker == nil {
				last.Speaker = w.Speaker
			}
			continue
		}

		out = append(out, RawWord{
			Text:    w.Word,
			StartMs: startMs,
			EndMs:   endMs,
			Channel: channel,
			Speaker: w.Speaker,
		})
	}

	return out
}

// secToMs converts a wire-format seconds offset to integer milliseconds.
func secToMs(sec float64) int64 {
	return int64(sec*1000 + 0.5)
}

// hasNoLeadingSpace reports whether text opens with an apostrophe or in a
// script whose orthography does not insert spaces between adjacent
// morphemes — Hangul, Han, Hiragana, and Katakana. Such a token is treated
// as having "no leading space" for cross-response stitching purposes, the
// same way an English contraction's leading apostrophe is.
func hasNoLeadingSpace(text string) bool {
	if text == "" {
		return false
	}
	if strings.HasPrefix(text, "'") || strings.HasPrefix(text, "’") {
		return true
	}
	r := []rune(text)[0]
	switch {
	case unicode.Is(unicode.Hangul, r):
		return true
	case unicode.Is(unicode.Han, r):
		return true
	case unicode.Is(unicode.Hiragana, r):
		return true
	case unicode.Is(unicode.Katakana, r):
		return true
	default:
		return false
	}
}
