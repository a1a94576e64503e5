package adapter

import (
	"strings"
	"testing"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

func TestNewRegistry_AllKindsPresent(t *testing.T) {
	reg := NewRegistry()
	kinds := []Kind{
		KindDeepgram, KindSoniox, KindAssemblyAI, KindGladia, KindElevenLabs,
		KindFireworks, KindOpenAI, KindMistral, KindCactus, KindArgmax,
		KindHyprnote, KindGoogle, KindAzure,
	}
	if len(reg) != len(kinds) {
		t.Fatalf("NewRegistry() has %d entries, want %d", len(reg), len(kinds))
	}
	for _, k := range kinds {
		a, ok := reg[k]
		if !ok {
			t.Errorf("registry missing %v", k)
			continue
		}
		if a.ProviderName() == "" {
			t.Errorf("%v adapter has empty ProviderName", k)
		}
	}
}

func TestDeepgram_BuildWSURL(t *testing.T) {
	a := NewDeepgram()
	params := schema.ListenParams{
		Model:      "",
		Languages:  []schema.Language{{Code: "en"}},
		SampleRate: 16000,
	}
	u, err := a.BuildWSURL("", params, 2)
	if err != nil {
		t.Fatalf("BuildWSURL: %v", err)
	}
	if !strings.Contains(u, "model=nova-3") {
		t.Errorf("url %q missing resolved meta-model", u)
	}
	if !strings.Contains(u, "multichannel=true") {
		t.Errorf("url %q missing multichannel flag for channels=2", u)
	}
}

func TestDeepgram_ParseResponse(t *testing.T) {
	a := NewDeepgram()
	raw := []byte(`{
		"type": "Results",
		"is_final": true,
		"channel": {
			"alternatives": [
				{"transcript": "hello world", "confidence": 0.9, "words": [
					{"word": "hello", "start": 0.0, "end": 0.5, "confidence": 0.9},
					{"word": "world", "start": 0.5, "end": 1.0, "confidence": 0.91}
				]}
			]
		}
	}`)
	got, err := a.ParseResponse(raw)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ParseResponse returned %d responses, want 1", len(got))
	}
	if got[0].Type != schema.TypeTranscript || !got[0].Transcript.IsFinal {
		t.Fatalf("got %+v, want a final TranscriptResponse", got[0])
	}
	if len(got[0].Transcript.Channel.Alternatives[0].Words) != 2 {
		t.Fatalf("want 2 words, got %d", len(got[0].Transcript.Channel.Alternatives[0].Words))
	}
}

func TestDeepgram_ParseResponse_UnknownTypeIgnored(t *testing.T) {
	a := NewDeepgram()
	got, err := a.ParseResponse([]byte(`{"type": "Unrecognized"}`))
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if got != nil {
		t.Fatalf("want nil for unrecognized type, got %+v", got)
	}
}

func TestMistral_StreamingMethodsUnsupported(t *testing.T) {
	a := NewMistral()
	if _, err := a.BuildWSURL("", schema.ListenParams{}, 1); err != ErrStreamingNotSupported {
		t.Errorf("BuildWSURL error = %v, want ErrStreamingNotSupported", err)
	}
}

func TestMistral_ParseBatchResult(t *testing.T) {
	a := NewMistral()
	raw := []byte(`{"text": "hi there", "segments": [{"text": "hi there", "start": 0, "end": 1}]}`)
	got, err := a.ParseResponse(raw)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if len(got) != 1 || !got[0].Transcript.IsFinal || got[0].Transcript.Channel.Alternatives[0].Transcript != "hi there" {
		t.Fatalf("got %+v", got)
	}
}

func TestCactus_ParseResponse_CloudHandoff(t *testing.T) {
	a := NewCactus()
	raw := []byte(`{"transcript": "partial text", "is_final": true, "cloud_handoff": true, "cloud_job_id": "7"}`)
	got, err := a.ParseResponse(raw)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	jobID, ok := got[0].Extra("cloud_job_id")
	if !ok || jobID != "7" {
		t.Fatalf("Extra(cloud_job_id) = (%v, %v), want (7, true)", jobID, ok)
	}
	handoff, ok := got[0].Extra("cloud_handoff")
	if !ok || handoff != true {
		t.Fatalf("Extra(cloud_handoff) = (%v, %v), want (true, true)", handoff, ok)
	}
}

func TestHyprnote_PassesModelThroughUnresolved(t *testing.T) {
	a := NewHyprnote()
	u, err := a.BuildWSURL("ws://eu.hyprnote.com/listen", schema.ListenParams{Model: "whatever-the-caller-asked-for"}, 1)
	if err != nil {
		t.Fatalf("BuildWSURL: %v", err)
	}
	if !strings.Contains(u, "model=whatever-the-caller-asked-for") {
		t.Errorf("url %q does not pass model through unresolved", u)
	}
}

func TestHyprnote_MetaModelOmitsModelParam(t *testing.T) {
	a := NewHyprnote()
	u, err := a.BuildWSURL("ws://eu.hyprnote.com/listen", schema.ListenParams{Model: schema.MetaModel}, 1)
	if err != nil {
		t.Fatalf("BuildWSURL: %v", err)
	}
	if strings.Contains(u, "model=") {
		t.Errorf("url %q should omit model for the meta-model", u)
	}
}

func TestEveryAdapter_AudioToMessageRoundTrips(t *testing.T) {
	reg := NewRegistry()
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	for kind, a := range reg {
		payload, isText := a.AudioToMessage(pcm)
		if len(payload) == 0 {
			t.Errorf("%v: AudioToMessage returned empty payload", kind)
		}
		if !isText {
			// Binary-framing providers must pass PCM through untouched.
			if string(payload) != string(pcm) {
				t.Errorf("%v: binary AudioToMessage mutated the PCM payload", kind)
			}
		}
	}
}
