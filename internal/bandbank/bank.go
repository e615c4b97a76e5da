package bandbank

import (
	"fmt"

	"github.com/daandobber/blokken5/internal/coeff"
)

// Bank mixes three independent bandpass stages tuned to center-span, center
// and center+span with equal 1/3 weight. Setters retune the stages
// immediately; with a single writer and a single reader no staging is
// needed, the stages smooth parameter steps through their own state.
type Bank struct {
	sampleRate float64

	center float64
	span   float64
	q      float64

	stages [3]Biquad
}

// NewBank builds a bank with clamped configuration.
func NewBank(sampleRate, center, span, q float64) (*Bank, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("bandbank: sample rate must be positive, got %v", sampleRate)
	}
	bk := &Bank{
		sampleRate: sampleRate,
		center:     coeff.ClampFrequency(center, sampleRate),
		span:       coeff.ClampSpan(span),
		q:          coeff.ClampQ(q, coeff.MinFallbackQ),
	}
	bk.retune()
	return bk, nil
}

func (bk *Bank) retune() {
	freqs := [3]float64{bk.center - bk.span, bk.center, bk.center + bk.span}
	for i, f := range freqs {
		bk.stages[i].SetBandpass(bk.sampleRate, coeff.ClampFrequency(f, bk.sampleRate), bk.q)
	}
}

// SetCenter retunes all three stages around a new center frequency.
func (bk *Bank) SetCenter(hz float64) {
	bk.center = coeff.ClampFrequency(hz, bk.sampleRate)
	bk.retune()
}

// SetSpan retunes the outer stages to a new distance from the center.
func (bk *Bank) SetSpan(hz float64) {
	bk.span = coeff.ClampSpan(hz)
	bk.retune()
}

// SetQ sets the resonance of all three stages, floored at 0.5.
func (bk *Bank) SetQ(q float64) {
	bk.q = coeff.ClampQ(q, coeff.MinFallbackQ)
	bk.retune()
}

// Process runs one block through the three stages and mixes them with equal
// weight. An empty input block is skipped without touching state.
func (bk *Bank) Process(in, out []float32) {
	if len(in) == 0 || len(out) == 0 {
		return
	}
	n := len(in)
	if len(out) < n {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		x := float64(in[i])
		sum := bk.stages[0].ProcessSample(x) +
			bk.stages[1].ProcessSample(x) +
			bk.stages[2].ProcessSample(x)
		out[i] = float32(sum / 3)
	}
}

// Reset clears all stage state.
func (bk *Bank) Reset() {
	for i := range bk.stages {
		bk.stages[i].Reset()
	}
}
