package sessionactor

import (
	"encoding/binary"
	"fmt"

	"github.com/hyprnote/stt-gateway/internal/vault"
	"github.com/hyprnote/stt-gateway/pkg/audio"
)

// recordSampleRate matches spec.md §6.4's persisted format: 16 kHz, 16-bit
// PCM; startRecord picks mono or stereo per session.
const recordSampleRate = 16000

// recordActor writes mic+speaker frames to a WAV file under the vault,
// mixing both channels down to the file's configured channel count.
type recordActor struct {
	w        *vault.WAVWriter
	stereo   bool
	done     chan struct{}
	closeErr error
}

// startRecord creates vault/sessions/<id>/audio.wav and begins writing
// frames from the subscriber channel. stereo selects whether mic and
// speaker are kept as separate channels or mixed down to mono.
func startRecord(v *vault.Vault, sessionID string, stereo bool, frames <-chan ChannelFrame) (*recordActor, error) {
	channels := 1
	if stereo {
		channels = 2
	}
	w, err := vault.NewWAVWriter(v.AudioPath(sessionID), recordSampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("sessionactor: record: %w", err)
	}

	r := &recordActor{w: w, stereo: stereo, done: make(chan struct{})}
	go r.run(frames)
	return r, nil
}

func (r *recordActor) run(frames <-chan ChannelFrame) {
	var lastMic, lastSpk []int16
	var lastMicPCM, lastSpkPCM []byte
	for {
		select {
		case <-r.done:
			return
		case cf, ok := <-frames:
			if !ok {
				return
			}
			if !r.stereo {
				if cf.Channel == 1 {
					lastSpkPCM = cf.Frame.Data
				} else {
					lastMicPCM = cf.Frame.Data
				}
				_ = r.w.WriteSamples(bytesToInt16(audio.MixMono(lastMicPCM, lastSpkPCM)))
				continue
			}
			samples := bytesToInt16(cf.Frame.Data)
			if cf.Channel == 1 {
				lastSpk = samples
			} else {
				lastMic = samples
			}
			_ = r.w.WriteSamples(interleave(lastMic, lastSpk))
		}
	}
}

func bytesToInt16(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return out
}

// interleave pairs mic/speaker samples index-by-index into L,R,L,R frames,
// padding the shorter side with silence.
func interleave(mic, spk []int16) []int16 {
	n := len(mic)
	if len(spk) > n {
		n = len(spk)
	}
	out := make([]int16, n*2)
	for i := 0; i < n; i++ {
		if i < len(mic) {
			out[i*2] = mic[i]
		}
		if i < len(spk) {
			out[i*2+1] = spk[i]
		}
	}
	return out
}

// Stop flushes and closes the WAV file.
func (r *recordActor) Stop() error {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
	return r.w.Close()
}
