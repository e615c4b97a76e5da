// Package blokken5 provides a tunable three-band resonant coloration filter
// for shaping a synthesizer's output in real time.
//
// The filter is a facade over two implementations selected once at
// construction. When the host can register a real-time playback path, audio
// runs through a coupled three-band state-variable core whose parameters
// cross from the control side over an ordered bridge and land at render
// block boundaries. When it cannot, a portable bank of three independent
// bandpass stages approximates the same coloration without the cross-band
// interaction.
//
// The filter is an audio node in a pull graph: connect an upstream producer
// with SetInput, and let the downstream consumer (a device player, an
// offline renderer, or a test) pull from Process.
package blokken5

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	intaudio "github.com/daandobber/blokken5/internal/audio"
	"github.com/daandobber/blokken5/internal/bandbank"
	"github.com/daandobber/blokken5/internal/coeff"
	"github.com/daandobber/blokken5/internal/threeband"
)

// SampleSource is the mono pull contract shared by every node in the graph.
type SampleSource = intaudio.SampleSource

// RenderQuantum is the fixed block size, in frames, at which the real-time
// path processes audio and observes parameter updates.
const RenderQuantum = threeband.Quantum

type Option func(*config)

type config struct {
	center       float64
	span         float64
	q            float64
	feedback     float64
	portableOnly bool
}

func defaultConfig() config {
	return config{center: 600, span: 300, q: 8, feedback: 0.05}
}

// WithCenter sets the initial center frequency in Hz. Default 600.
func WithCenter(hz float64) Option {
	return func(cfg *config) { cfg.center = hz }
}

// WithSpan sets the initial distance in Hz between the center band and the
// outer bands. Default 300.
func WithSpan(hz float64) Option {
	return func(cfg *config) { cfg.span = hz }
}

// WithQ sets the initial resonance factor. Default 8.
func WithQ(q float64) Option {
	return func(cfg *config) { cfg.q = q }
}

// WithFeedback sets the initial cross-band coupling strength in [0,1].
// Default 0.05.
func WithFeedback(fb float64) Option {
	return func(cfg *config) { cfg.feedback = fb }
}

// WithPortableOnly skips the capability probe and uses the portable
// bandpass bank unconditionally. Offline renderers and tests use this to
// stay off the audio device.
func WithPortableOnly() Option {
	return func(cfg *config) { cfg.portableOnly = true }
}

type lifecycle int

const (
	stateUninitialized lifecycle = iota
	stateInitializing
	stateReady
	stateDisposed
)

type inputSlot struct {
	src SampleSource
}

// Filter is the facade over the real-time core and the portable bank. One
// Filter owns its configuration and, on the real-time path, the integrator
// state of the core; both live exactly as long as the Filter and are
// released together on Dispose.
type Filter struct {
	sampleRate int

	mu    sync.Mutex
	state lifecycle
	cfg   config

	realtime bool
	core     *threeband.Core
	bridge   *threeband.Bridge
	bank     *bandbank.Bank

	input    atomic.Pointer[inputSlot]
	ready    atomic.Bool
	disposed atomic.Bool
	scratch  []float32

	readyCh chan struct{}
}

// ParamUpdate is a partial parameter record; nil fields keep their last
// value. Out-of-range values are clamped, never rejected.
type ParamUpdate struct {
	Center   *float64
	Span     *float64
	Q        *float64
	Feedback *float64
}

// New constructs a filter, probes the host once, and wires the chosen
// implementation. A host without a real-time playback path degrades to the
// portable bank; a registration failure on a capable host is logged as a
// warning and triggers the same single fallback attempt. Construction fails
// only if the fallback itself cannot be built.
func New(sampleRate int, opts ...Option) (*Filter, error) {
	return newFilter(sampleRate, intaudio.Probe, opts...)
}

func newFilter(sampleRate int, probe func(int) (bool, error), opts ...Option) (*Filter, error) {
	if sampleRate <= 0 {
		return nil, errors.New("blokken5: sample rate must be positive")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	sr := float64(sampleRate)
	cfg.center = coeff.ClampFrequency(cfg.center, sr)
	cfg.span = coeff.ClampSpan(cfg.span)
	cfg.q = coeff.ClampQ(cfg.q, coeff.MinQ)
	cfg.feedback = coeff.ClampFeedback(cfg.feedback)

	f := &Filter{
		sampleRate: sampleRate,
		state:      stateInitializing,
		cfg:        cfg,
		scratch:    make([]float32, threeband.Quantum),
		readyCh:    make(chan struct{}),
	}

	if !cfg.portableOnly {
		ok, err := probe(sampleRate)
		if err != nil {
			log.Printf("blokken5: real-time module registration failed (%v); trying fallback bank", err)
		}
		if ok {
			f.core = threeband.NewCore(sr, cfg.center, cfg.span, cfg.q, cfg.feedback)
			f.bridge = threeband.NewBridge()
			f.realtime = true
		}
	}
	if !f.realtime {
		bank, err := bandbank.NewBank(sr, cfg.center, cfg.span, cfg.q)
		if err != nil {
			return nil, fmt.Errorf("blokken5: fallback construction failed: %w", err)
		}
		f.bank = bank
	}

	f.state = stateReady
	f.ready.Store(true)
	close(f.readyCh)
	return f, nil
}

// Ready returns a channel that is closed once the chosen implementation is
// fully wired. Pulling audio before then yields silence.
func (f *Filter) Ready() <-chan struct{} { return f.readyCh }

// WaitReady blocks until the filter is ready or the context is done.
func (f *Filter) WaitReady(ctx context.Context) error {
	select {
	case <-f.readyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fallback reports whether the portable bank is active instead of the
// coupled real-time core. Fixed for the lifetime of the instance.
func (f *Filter) Fallback() bool { return !f.realtime }

// SampleRate returns the rate the filter was constructed for.
func (f *Filter) SampleRate() int { return f.sampleRate }

// SetInput connects the upstream producer. Passing nil disconnects it and
// the filter outputs silence.
func (f *Filter) SetInput(src SampleSource) {
	if f.disposed.Load() {
		return
	}
	if src == nil {
		f.input.Store(nil)
		return
	}
	f.input.Store(&inputSlot{src: src})
}

// Process fills dst with filtered audio pulled from the connected input.
// It is the output endpoint of the node and runs in whatever context pulls
// it; on the real-time path that is the device's rendering thread. Audio is
// processed in RenderQuantum blocks and pending parameter updates are
// applied between blocks only. Before Ready, after Dispose, or with no
// input connected, dst is filled with silence.
func (f *Filter) Process(dst []float32) {
	if len(dst) == 0 {
		return
	}
	if !f.ready.Load() || f.disposed.Load() {
		zeroFill(dst)
		return
	}
	slot := f.input.Load()
	if slot == nil {
		zeroFill(dst)
		return
	}
	src := slot.src
	for len(dst) > 0 {
		n := len(dst)
		if n > threeband.Quantum {
			n = threeband.Quantum
		}
		block := f.scratch[:n]
		zeroFill(block)
		src.Process(block)
		if f.realtime {
			f.bridge.Drain(f.core)
			f.core.ProcessBlock(block, dst[:n])
		} else {
			f.bank.Process(block, dst[:n])
		}
		dst = dst[n:]
	}
}

// Apply merges a partial parameter record. Provided fields are clamped and
// published to the active implementation; on the real-time path they become
// audible at the next block boundary.
func (f *Filter) Apply(u ParamUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyLocked(u)
}

func (f *Filter) applyLocked(u ParamUpdate) {
	if f.state == stateDisposed {
		return
	}
	var msg threeband.Update
	if u.Center != nil {
		v := coeff.ClampFrequency(*u.Center, float64(f.sampleRate))
		f.cfg.center = v
		msg.Center = &v
		if f.bank != nil {
			f.bank.SetCenter(v)
		}
	}
	if u.Span != nil {
		v := coeff.ClampSpan(*u.Span)
		f.cfg.span = v
		msg.Span = &v
		if f.bank != nil {
			f.bank.SetSpan(v)
		}
	}
	if u.Q != nil {
		v := coeff.ClampQ(*u.Q, coeff.MinQ)
		f.cfg.q = v
		msg.Q = &v
		if f.bank != nil {
			f.bank.SetQ(v)
		}
	}
	if u.Feedback != nil {
		v := coeff.ClampFeedback(*u.Feedback)
		f.cfg.feedback = v
		msg.Feedback = &v
		// The bank has no cross-band coupling; feedback is stored for
		// the round-trip getter but stays audibly inert on this path.
	}
	if f.realtime && (msg.Center != nil || msg.Span != nil || msg.Q != nil || msg.Feedback != nil) {
		f.bridge.Send(msg)
	}
}

// SetCenter sets the center frequency in Hz, clamped to the safe range.
func (f *Filter) SetCenter(hz float64) { f.Apply(ParamUpdate{Center: &hz}) }

// SetSpan sets the band spacing in Hz, clamped to non-negative values.
func (f *Filter) SetSpan(hz float64) { f.Apply(ParamUpdate{Span: &hz}) }

// SetQ sets the resonance factor, floored to keep damping finite.
func (f *Filter) SetQ(q float64) { f.Apply(ParamUpdate{Q: &q}) }

// SetFeedback sets the cross-band coupling strength, clamped to [0,1].
// Feedback only shapes the sound on the real-time path; on the fallback
// path the value round-trips but has no audible effect.
func (f *Filter) SetFeedback(fb float64) { f.Apply(ParamUpdate{Feedback: &fb}) }

// Update sets center and span together in one published change.
func (f *Filter) Update(center, span float64) {
	f.Apply(ParamUpdate{Center: &center, Span: &span})
}

// Center returns the clamped center frequency.
func (f *Filter) Center() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg.center
}

// Span returns the clamped band spacing.
func (f *Filter) Span() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg.span
}

// Q returns the clamped resonance factor.
func (f *Filter) Q() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg.q
}

// Feedback returns the clamped coupling strength.
func (f *Filter) Feedback() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg.feedback
}

// Dispose tears the filter down. The coupling is zeroed first so the last
// audible block decays instead of clicking, then the node is disconnected
// from the graph; the rendering context observes the disposed flag before
// any owned state becomes unreachable. Dispose is terminal: all later
// setter and Process calls are silent no-ops.
func (f *Filter) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == stateDisposed {
		return
	}
	if f.realtime {
		zero := 0.0
		f.bridge.Send(threeband.Update{Feedback: &zero})
	}
	f.cfg.feedback = 0
	f.state = stateDisposed
	f.disposed.Store(true)
	f.input.Store(nil)
}

func zeroFill(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
}
