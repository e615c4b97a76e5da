package blokken5

import (
	"io"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// RenderFiltered connects src to the filter and pulls seconds worth of mono
// audio through it. The filter processes in the same fixed quanta the
// real-time path uses, so parameter updates issued between calls land at
// block boundaries here too.
func RenderFiltered(src SampleSource, f *Filter, seconds float64) []float32 {
	f.SetInput(src)
	frames := int(float64(f.SampleRate()) * seconds)
	out := make([]float32, frames)
	f.Process(out)
	return out
}

// sliceStreamer adapts rendered mono samples to a beep.Streamer, duplicating
// the signal onto both channels.
type sliceStreamer struct {
	samples []float32
	pos     int
}

func (s *sliceStreamer) Stream(out [][2]float64) (int, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n := 0
	for i := range out {
		if s.pos >= len(s.samples) {
			break
		}
		v := float64(s.samples[s.pos])
		out[i][0] = v
		out[i][1] = v
		s.pos++
		n++
	}
	return n, true
}

func (s *sliceStreamer) Err() error { return nil }

// WriteWAV encodes mono samples as a 16-bit PCM WAV stream.
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 1,
		Precision:   2,
	}
	return wav.Encode(w, &sliceStreamer{samples: samples}, format)
}
