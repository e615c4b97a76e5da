// Command filterdrone runs a drone or noise source through the three-band
// coloration filter, either live through the audio device or offline into a
// WAV file. With -midi, filter parameters follow MIDI CC knobs.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/daandobber/blokken5"
	intaudio "github.com/daandobber/blokken5/internal/audio"
)

type sawSource struct {
	phase float64
	inc   float64
	gain  float64
}

func newSawSource(sampleRate int, freq, gain float64) *sawSource {
	return &sawSource{inc: freq / float64(sampleRate), gain: gain}
}

func (s *sawSource) Process(dst []float32) {
	for i := range dst {
		dst[i] = float32((2*s.phase - 1) * s.gain)
		s.phase += s.inc
		if s.phase >= 1 {
			s.phase -= 1
		}
	}
}

type noiseSource struct {
	rng  *rand.Rand
	gain float64
}

func (s *noiseSource) Process(dst []float32) {
	for i := range dst {
		dst[i] = float32((s.rng.Float64()*2 - 1) * s.gain)
	}
}

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "sample rate in Hz")
		center     = flag.Float64("center", 600, "center frequency in Hz")
		span       = flag.Float64("span", 300, "band spacing in Hz")
		q          = flag.Float64("q", 8, "resonance factor")
		feedback   = flag.Float64("feedback", 0.05, "cross-band coupling in [0,1]")
		seconds    = flag.Float64("seconds", 5, "duration to play or render")
		sourceKind = flag.String("source", "saw", "input source: saw|noise")
		droneFreq  = flag.Float64("freq", 110, "saw drone frequency in Hz")
		wavPath    = flag.String("wav", "", "render offline to a WAV file instead of playing")
		useMIDI    = flag.Bool("midi", false, "bind filter parameters to MIDI CC knobs")
	)
	flag.Parse()

	src, err := buildSource(*sourceKind, *sampleRate, *droneFreq)
	if err != nil {
		log.Fatal(err)
	}

	fl, err := blokken5.New(*sampleRate,
		blokken5.WithCenter(*center),
		blokken5.WithSpan(*span),
		blokken5.WithQ(*q),
		blokken5.WithFeedback(*feedback),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer fl.Dispose()
	<-fl.Ready()
	if fl.Fallback() {
		fmt.Println("real-time path unavailable; using portable bandpass bank")
	}

	if *wavPath != "" {
		samples := blokken5.RenderFiltered(src, fl, *seconds)
		out, err := os.Create(*wavPath)
		if err != nil {
			log.Fatal(err)
		}
		if err := blokken5.WriteWAV(out, samples, *sampleRate); err != nil {
			log.Fatal(err)
		}
		if err := out.Close(); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %d frames to %s\n", len(samples), *wavPath)
		return
	}

	if *useMIDI {
		stop, err := startMIDI(fl)
		if err != nil {
			log.Fatal(err)
		}
		defer stop()
	}

	fl.SetInput(src)
	player, err := intaudio.NewPlayer(*sampleRate, fl)
	if err != nil {
		log.Fatal(err)
	}
	player.Play()
	fmt.Printf("playing %s through filter (center=%.0f span=%.0f q=%.1f feedback=%.2f)\n",
		*sourceKind, fl.Center(), fl.Span(), fl.Q(), fl.Feedback())
	time.Sleep(time.Duration(*seconds * float64(time.Second)))
	if err := player.Stop(); err != nil {
		log.Fatal(err)
	}
}

func buildSource(kind string, sampleRate int, freq float64) (blokken5.SampleSource, error) {
	switch kind {
	case "saw":
		return newSawSource(sampleRate, freq, 0.5), nil
	case "noise":
		return &noiseSource{rng: rand.New(rand.NewSource(time.Now().UnixNano())), gain: 0.5}, nil
	default:
		return nil, fmt.Errorf("invalid -source %q (expected saw|noise)", kind)
	}
}
