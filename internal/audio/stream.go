// Package audio hosts the real-time playback plumbing: the mono pull-graph
// contract, the float32 stream adapter for the device, the process-wide
// audio context and the one-shot capability probe.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource produces mono audio by filling dst. Process is invoked from
// the rendering context; implementations must not block or allocate there.
type SampleSource interface {
	Process(dst []float32)
}

// StreamReader adapts a mono SampleSource to the interleaved stereo float32
// byte stream the device player reads. The mono signal is duplicated onto
// both channels.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	if cap(r.buf) < frames {
		r.buf = make([]float32, frames)
	}
	r.buf = r.buf[:frames]
	for i := range r.buf {
		r.buf[i] = 0
	}
	r.source.Process(r.buf)
	for i, s := range r.buf {
		u := math.Float32bits(s)
		binary.LittleEndian.PutUint32(p[i*8:], u)
		binary.LittleEndian.PutUint32(p[i*8+4:], u)
	}
	return frames * 8, nil
}

func (r *StreamReader) Close() error { return nil }

var (
	contextOnce sync.Once
	context     *ebitaudio.Context
	contextErr  error
	contextRate int

	probeOnce sync.Once
	probeOK   bool
	probeErr  error
)

// sharedContext returns the process-wide rendering context. Registration is
// a one-time operation per process; repeated instantiation reuses the cached
// context and rejects mismatched sample rates.
func sharedContext(sampleRate int) (*ebitaudio.Context, error) {
	contextOnce.Do(func() {
		contextRate = sampleRate
		context = ebitaudio.NewContext(sampleRate)
	})
	if contextErr != nil {
		return nil, contextErr
	}
	if contextRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", contextRate, sampleRate)
	}
	return context, nil
}

type silentSource struct{}

func (silentSource) Process(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
}

// Probe reports whether this process can host real-time playback at the
// given sample rate. The check runs once per process and the verdict is
// cached; it is never re-checked for the lifetime of the process.
//
// A missing rendering context is an ordinary negative result (false, nil).
// A context that exists but refuses to register a player is reported with
// the registration error so the caller can log it before falling back.
func Probe(sampleRate int) (bool, error) {
	probeOnce.Do(func() {
		ctx, err := sharedContext(sampleRate)
		if err != nil {
			probeOK = false
			return
		}
		pl, err := ctx.NewPlayerF32(NewStreamReader(silentSource{}))
		if err != nil {
			probeOK = false
			probeErr = err
			return
		}
		_ = pl.Close()
		probeOK = true
	})
	return probeOK, probeErr
}

// Player streams a SampleSource to the device.
type Player struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

func NewPlayer(sampleRate int, source SampleSource) (*Player, error) {
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Player{
		player: pl,
		reader: reader,
	}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }
func (p *Player) IsPlaying() bool {
	return p.player.IsPlaying()
}

// Position returns the current playback position (what the listener actually hears).
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

func (p *Player) Stop() error {
	p.player.Pause()
	p.player.Close()
	return p.reader.Close()
}
