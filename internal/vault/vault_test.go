package vault

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestSessionDirCreatesAndRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	v, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	dir, err := v.SessionDir("sess-1")
	if err != nil {
		t.Fatalf("SessionDir: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected directory to exist at %q", dir)
	}

	if _, err := v.SessionDir("../escape"); err == nil {
		t.Fatal("expected traversal attempt to be rejected")
	}
	if _, err := v.SessionDir(""); err == nil {
		t.Fatal("expected empty session id to be rejected")
	}
}

func TestWAVWriterRoundTrip(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "audio.wav")

	w, err := NewWAVWriter(path, 16000, 1)
	if err != nil {
		t.Fatalf("NewWAVWriter: %v", err)
	}
	samples := []int16{100, -100, 200, -200, 300}
	if err := w.WriteSamples(samples); err != nil {
		t.Fatalf("WriteSamples: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) != wavHeaderSize+len(samples)*2 {
		t.Fatalf("expected file size %d, got %d", wavHeaderSize+len(samples)*2, len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE markers")
	}
	dataSize := binary.LittleEndian.Uint32(data[40:44])
	if int(dataSize) != len(samples)*2 {
		t.Fatalf("expected data chunk size %d, got %d", len(samples)*2, dataSize)
	}
	sampleRate := binary.LittleEndian.Uint32(data[24:28])
	if sampleRate != 16000 {
		t.Fatalf("expected sample rate 16000, got %d", sampleRate)
	}
}

func TestWAVWriterRejectsUnsupportedChannels(t *testing.T) {
	root := t.TempDir()
	if _, err := NewWAVWriter(filepath.Join(root, "x.wav"), 16000, 3); err == nil {
		t.Fatal("expected error for unsupported channel count")
	}
}

func TestWAVWriterWriteAfterCloseFails(t *testing.T) {
	root := t.TempDir()
	w, err := NewWAVWriter(filepath.Join(root, "x.wav"), 16000, 1)
	if err != nil {
		t.Fatalf("NewWAVWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.WriteSamples([]int16{1, 2}); err == nil {
		t.Fatal("expected error writing after close")
	}
}
