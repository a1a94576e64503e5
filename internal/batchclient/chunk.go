package batchclient

import (
	"encoding/binary"
	"fmt"
	"os"
)

// defaultSampleRate is assumed for raw (headerless) PCM input, matching the
// 16 kHz mono format the rest of the pipeline standardizes on.
const defaultSampleRate = 16000

// ChunkAudioFile reads path (a WAV file, or raw 16-bit PCM if no RIFF header
// is present) and splits its PCM payload into chunkMs-sized frames. It
// returns the chunks, the input's sample rate, and channel count.
func ChunkAudioFile(path string, chunkMs int) (chunks [][]byte, sampleRate, channels int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("batchclient: read %q: %w", path, err)
	}
	return chunkAudioBytes(data, chunkMs)
}

// chunkAudioBytes splits an in-memory WAV (or raw PCM) payload into
// chunkMs-sized frames, returning the chunks, sample rate, and channel count.
func chunkAudioBytes(data []byte, chunkMs int) (chunks [][]byte, sampleRate, channels int, err error) {
	pcm, sampleRate, channels, err := extractPCM(data)
	if err != nil {
		return nil, 0, 0, err
	}

	bytesPerSample := 2 * channels
	frameBytes := (sampleRate * chunkMs / 1000) * bytesPerSample
	if frameBytes <= 0 {
		return nil, 0, 0, fmt.Errorf("batchclient: invalid chunk duration %dms for %dHz", chunkMs, sampleRate)
	}
	// Keep chunks aligned to whole samples.
	frameBytes -= frameBytes % bytesPerSample

	for off := 0; off < len(pcm); off += frameBytes {
		end := off + frameBytes
		if end > len(pcm) {
			end = len(pcm)
		}
		chunks = append(chunks, pcm[off:end])
	}
	return chunks, sampleRate, channels, nil
}

// extractPCM reads a canonical WAV container's fmt/data chunks, or treats
// data as raw 16-bit mono PCM at defaultSampleRate if no RIFF header is
// present.
func extractPCM(data []byte) (pcm []byte, sampleRate, channels int, err error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return data, defaultSampleRate, 1, nil
	}

	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch chunkID {
		case "fmt ":
			if body+16 > len(data) {
				return nil, 0, 0, fmt.Errorf("batchclient: truncated fmt chunk")
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
		case "data":
			end := body + chunkSize
			if end > len(data) {
				end = len(data)
			}
			pcm = data[body:end]
		}

		pos = body + chunkSize
		if chunkSize%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}

	if pcm == nil || sampleRate == 0 || channels == 0 {
		return nil, 0, 0, fmt.Errorf("batchclient: wav file missing fmt/data chunks")
	}
	return pcm, sampleRate, channels, nil
}
