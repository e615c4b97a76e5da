// Package threeband implements the coupled three-band state-variable filter
// core and the control-side update channel that feeds it. The core runs in
// the rendering context only; configuration changes cross over through a
// Bridge and take effect at block boundaries.
package threeband

import "github.com/daandobber/blokken5/internal/coeff"

// Quantum is the fixed render block size in frames. Parameter updates land
// only between quanta, never mid-block.
const Quantum = 128

const (
	bandLow = iota
	bandCentre
	bandHigh
	numBands
)

// Core is the per-sample three-band processor. It owns six integrator
// scalars (s1/s2 per band), zero at construction and never reset afterwards.
// ProcessBlock and ApplyUpdate must only be called from the rendering
// context; they never allocate, block, or panic.
type Core struct {
	sampleRate float64

	center   float64
	span     float64
	q        float64
	feedback float64

	dirty bool
	bands coeff.Bands

	s1 [numBands]float64 // band-pass integrators
	s2 [numBands]float64 // low-pass integrators
}

// NewCore builds a core with clamped configuration and zeroed state.
func NewCore(sampleRate, center, span, q, feedback float64) *Core {
	return &Core{
		sampleRate: sampleRate,
		center:     coeff.ClampFrequency(center, sampleRate),
		span:       coeff.ClampSpan(span),
		q:          coeff.ClampQ(q, coeff.MinQ),
		feedback:   coeff.ClampFeedback(feedback),
		dirty:      true,
	}
}

// Update is a partial configuration change. Nil fields keep their last value.
type Update struct {
	Center   *float64
	Span     *float64
	Q        *float64
	Feedback *float64
}

// ApplyUpdate merges a partial update into the configuration, clamping each
// provided field. Frequency and resonance changes mark the coefficients
// dirty; they are recomputed at the start of the next block, at most once
// per block.
func (c *Core) ApplyUpdate(u Update) {
	if u.Center != nil {
		c.center = coeff.ClampFrequency(*u.Center, c.sampleRate)
		c.dirty = true
	}
	if u.Span != nil {
		c.span = coeff.ClampSpan(*u.Span)
		c.dirty = true
	}
	if u.Q != nil {
		c.q = coeff.ClampQ(*u.Q, coeff.MinQ)
		c.dirty = true
	}
	if u.Feedback != nil {
		c.feedback = coeff.ClampFeedback(*u.Feedback)
	}
}

// ProcessBlock runs one render block through the three coupled bands.
//
// Each band is a Chamberlin state-variable section. The bands share a global
// energy term (the sum of all band-pass states scaled by feedback) and each
// additionally receives its neighbor's band-pass state: high feeds low, low
// feeds centre, centre feeds high. The output is the mean of the three
// band-pass outputs, which bounds the overall gain.
//
// An empty input block is skipped without touching state; silence
// passthrough is not an error.
func (c *Core) ProcessBlock(in, out []float32) {
	if len(in) == 0 || len(out) == 0 {
		return
	}
	if c.dirty {
		c.bands = coeff.Compute(c.center, c.span, c.q, c.sampleRate)
		c.dirty = false
	}
	n := len(in)
	if len(out) < n {
		n = len(out)
	}

	a1 := [numBands]float64{c.bands.A1Low, c.bands.A1Centre, c.bands.A1High}
	a2 := c.bands.A2
	fb := c.feedback
	s1 := c.s1
	s2 := c.s2

	for i := 0; i < n; i++ {
		x := float64(in[i])

		sumBP := s1[bandLow] + s1[bandCentre] + s1[bandHigh]
		shared := x + sumBP*fb
		drive := [numBands]float64{
			shared + s1[bandHigh]*fb,
			shared + s1[bandLow]*fb,
			shared + s1[bandCentre]*fb,
		}

		var mix float64
		for b := 0; b < numBands; b++ {
			hp := drive[b] - s2[b] - a2*s1[b]
			bp := a1[b]*hp + s1[b]
			lp := a1[b]*bp + s2[b]
			s1[b] = bp
			s2[b] = lp
			mix += bp
		}
		out[i] = float32(mix / numBands)
	}

	c.s1 = s1
	c.s2 = s2
}

// Center returns the clamped center frequency currently in effect.
func (c *Core) Center() float64 { return c.center }

// Feedback returns the clamped coupling strength currently in effect.
func (c *Core) Feedback() float64 { return c.feedback }
