package sessionactor

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/hyprnote/stt-gateway/internal/eventbus"
)

// amplitudeSampleInterval matches spec.md §4.7's "~20 Hz" target.
const amplitudeSampleInterval = 50 * time.Millisecond

// amplitudeActor samples PCM frames as they pass through the session and
// emits a downsampled RMS level per channel at amplitudeSampleInterval.
type amplitudeActor struct {
	sink eventbus.Sink
	done chan struct{}
}

// startAmplitude subscribes to frames and begins emitting levels. The
// caller owns frames — closing it stops the actor.
func startAmplitude(frames <-chan ChannelFrame, sink eventbus.Sink) *amplitudeActor {
	a := &amplitudeActor{sink: sink, done: make(chan struct{})}
	go a.run(frames)
	return a
}

func (a *amplitudeActor) run(frames <-chan ChannelFrame) {
	ticker := time.NewTicker(amplitudeSampleInterval)
	defer ticker.Stop()

	var micSum, micCount, spkSum, spkCount float64
	for {
		select {
		case <-a.done:
			return
		case cf, ok := <-frames:
			if !ok {
				return
			}
			level := rmsOf(cf.Frame.Data)
			if cf.Channel == 1 {
				spkSum += level
				spkCount++
			} else {
				micSum += level
				micCount++
			}
		case <-ticker.C:
			a.sink.OnData(eventbus.Data{
				Kind:    eventbus.DataAudioAmplitude,
				Mic:     avg(micSum, micCount),
				Speaker: avg(spkSum, spkCount),
			})
			micSum, micCount, spkSum, spkCount = 0, 0, 0, 0
		}
	}
}

// Stop halts sampling.
func (a *amplitudeActor) Stop() error {
	select {
	case <-a.done:
	default:
		close(a.done)
	}
	return nil
}

// rmsOf computes the root-mean-square level of 16-bit little-endian PCM,
// normalized to [0, 1].
func rmsOf(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sumSquares float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		f := float64(s) / 32768
		sumSquares += f * f
	}
	return math.Sqrt(sumSquares / float64(n))
}

func avg(sum, count float64) float64 {
	if count == 0 {
		return 0
	}
	return sum / count
}
