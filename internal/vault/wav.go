package vault

import (
	"encoding/binary"
	"fmt"
	"os"
)

// wavHeaderSize is the size in bytes of a canonical 44-byte PCM WAV header.
const wavHeaderSize = 44

// WAVWriter streams 16-bit PCM samples to a WAV file, backpatching the RIFF
// and data chunk sizes on Close. No third-party library in the example pack
// covers WAV encoding, so this writes the (fixed, well-documented) container
// format directly with encoding/binary — the one ambient concern in this
// module built on the standard library alone.
type WAVWriter struct {
	f            *os.File
	sampleRate   int
	channels     int
	bytesWritten int64
	closed       bool
}

// NewWAVWriter creates (or truncates) path and writes a placeholder header
// sized for sampleRate/channels of 16-bit PCM audio. The header is
// backpatched with real chunk sizes when Close is called.
func NewWAVWriter(path string, sampleRate, channels int) (*WAVWriter, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("vault: unsupported channel count %d (must be 1 or 2)", channels)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to create %q: %w", path, err)
	}
	w := &WAVWriter{f: f, sampleRate: sampleRate, channels: channels}
	if err := w.writeHeader(0); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *WAVWriter) writeHeader(dataSize uint32) error {
	const bitsPerSample = 16
	byteRate := uint32(w.sampleRate * w.channels * bitsPerSample / 8)
	blockAlign := uint16(w.channels * bitsPerSample / 8)

	header := make([]byte, wavHeaderSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)   // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(w.channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(w.sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := w.f.WriteAt(header, 0); err != nil {
		return fmt.Errorf("vault: failed to write wav header: %w", err)
	}
	return nil
}

// WriteSamples appends interleaved 16-bit PCM samples (already at the
// writer's configured sample rate and channel count) to the file.
func (w *WAVWriter) WriteSamples(samples []int16) error {
	if w.closed {
		return fmt.Errorf("vault: write to closed WAVWriter")
	}
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	n, err := w.f.WriteAt(buf, wavHeaderSize+w.bytesWritten)
	w.bytesWritten += int64(n)
	if err != nil {
		return fmt.Errorf("vault: failed to write samples: %w", err)
	}
	return nil
}

// Close backpatches the RIFF/data chunk sizes with the true byte count
// written and closes the underlying file. Safe to call once; a second call
// is a no-op.
func (w *WAVWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.writeHeader(uint32(w.bytesWritten)); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
