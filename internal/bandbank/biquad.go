// Package bandbank approximates the coupled three-band core with three
// independent second-order bandpass stages. There is no cross-feedback or
// shared drive between stages; that interaction is traded away for
// portability on hosts without a real-time rendering context.
package bandbank

import "math"

// Biquad is a Direct Form I second-order section with normalized
// coefficients (a0 folded in).
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64

	x1, x2 float64
	y1, y2 float64
}

// SetBandpass tunes the section as a constant-peak-gain bandpass (0 dB at
// the center frequency) following the RBJ cookbook design.
func (b *Biquad) SetBandpass(sampleRate, freq, q float64) {
	w0 := 2 * math.Pi * freq / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha

	b.b0 = alpha / a0
	b.b1 = 0
	b.b2 = -alpha / a0
	b.a1 = -2 * math.Cos(w0) / a0
	b.a2 = (1 - alpha) / a0
}

// ProcessSample advances the section by one sample.
func (b *Biquad) ProcessSample(x float64) float64 {
	y := b.b0*x + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
	b.x2, b.x1 = b.x1, x
	b.y2, b.y1 = b.y1, y
	return y
}

// Reset clears the delay lines.
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}
