package schema

// ApplyOffset shifts every timestamp field in r by secs: TranscriptResponse's
// start and word timings, SpeechStartedResponse's timestamp, and
// UtteranceEndResponse's last_word_end. Calling ApplyOffset(x) followed by
// ApplyOffset(-x) is the identity — no field is clamped or rounded.
func (r StreamResponse) ApplyOffset(secs float64) StreamResponse {
	switch r.Type {
	case TypeTranscript:
		t := *r.Transcript
		t.Start += secs
		for ci := range t.Channel.Alternatives {
			alt := &t.Channel.Alternatives[ci]
			for wi := range alt.Words {
				alt.Words[wi] = alt.Words[wi].ApplyOffset(secs)
			}
		}
		r.Transcript = &t
	case TypeSpeechStarted:
		s := *r.SpeechStarted
		s.Timestamp += secs
		r.SpeechStarted = &s
	case TypeUtteranceEnd:
		u := *r.UtteranceEnd
		u.LastWordEnd += secs
		r.UtteranceEnd = &u
	}
	return r
}

// RemapChannelIndex rewrites a ChannelIndex/Channel pair of [from,to] to
// [to,from]'s replacement — i.e. relabels whichever index equals from to to.
// Used when a dual-channel session's logical channel numbering differs from
// the upstream provider's numbering.
func (r StreamResponse) RemapChannelIndex(from, to int) StreamResponse {
	remap := func(idx [2]int) [2]int {
		if idx[0] == from {
			idx[0] = to
		}
		if idx[1] == from {
			idx[1] = to
		}
		return idx
	}
	switch r.Type {
	case TypeTranscript:
		t := *r.Transcript
		t.ChannelIndex = remap(t.ChannelIndex)
		r.Transcript = &t
	case TypeSpeechStarted:
		s := *r.SpeechStarted
		s.Channel = remap(s.Channel)
		r.SpeechStarted = &s
	case TypeUtteranceEnd:
		u := *r.UtteranceEnd
		u.Channel = remap(u.Channel)
		r.UtteranceEnd = &u
	}
	return r
}

// SetChannelIndex sets the [idx, total] channel descriptor on variants that
// carry one.
func (r StreamResponse) SetChannelIndex(idx, total int) StreamResponse {
	pair := [2]int{idx, total}
	switch r.Type {
	case TypeTranscript:
		t := *r.Transcript
		t.ChannelIndex = pair
		r.Transcript = &t
	case TypeSpeechStarted:
		s := *r.SpeechStarted
		s.Channel = pair
		r.SpeechStarted = &s
	case TypeUtteranceEnd:
		u := *r.UtteranceEnd
		u.Channel = pair
		r.UtteranceEnd = &u
	}
	return r
}

// SetExtra merges key/value into TranscriptResponse.Metadata.Extra, creating
// the metadata block if absent. No-op for variants without metadata.
func (r StreamResponse) SetExtra(key string, value any) StreamResponse {
	if r.Type != TypeTranscript {
		return r
	}
	t := *r.Transcript
	if t.Metadata == nil {
		t.Metadata = &ResponseMetadata{}
	}
	meta := *t.Metadata
	if meta.Extra == nil {
		meta.Extra = make(map[string]any, 1)
	} else {
		cp := make(map[string]any, len(meta.Extra)+1)
		for k, v := range meta.Extra {
			cp[k] = v
		}
		meta.Extra = cp
	}
	meta.Extra[key] = value
	t.Metadata = &meta
	r.Transcript = &t
	return r
}

// Extra reads a key out of a TranscriptResponse's metadata, returning
// (nil, false) when the variant has no metadata or the key is absent.
func (r StreamResponse) Extra(key string) (any, bool) {
	if r.Type != TypeTranscript || r.Transcript == nil || r.Transcript.Metadata == nil {
		return nil, false
	}
	v, ok := r.Transcript.Metadata.Extra[key]
	return v, ok
}
