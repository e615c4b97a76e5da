// Package coeff maps a three-band filter configuration to the coefficients
// of its difference equations. All functions are pure and safe to call from
// any goroutine; they are cheap enough to run once per render block.
package coeff

import "math"

const (
	// MinFrequency is the lowest frequency a band will be tuned to.
	MinFrequency = 20.0
	// NyquistFraction caps band frequencies at 0.45 of the sample rate,
	// keeping alpha1 below 2 and the difference equations in their stable
	// region.
	NyquistFraction = 0.45

	// MinQ is the resonance floor for the coupled core.
	MinQ = 0.1
	// MinFallbackQ is the resonance floor for the portable bandpass bank.
	MinFallbackQ = 0.5
)

// Bands holds one frequency coefficient per band and the shared damping
// coefficient. Larger q means smaller damping and narrower, more resonant
// bands.
type Bands struct {
	A1Low    float64
	A1Centre float64
	A1High   float64
	A2       float64
}

// Compute derives the coefficients for a center/span/q configuration.
// Band frequencies are clamped before use, so for any input
// 20 <= low <= centre <= high <= 0.45*sampleRate holds.
func Compute(center, span, q, sampleRate float64) Bands {
	low := ClampFrequency(center-span, sampleRate)
	centre := ClampFrequency(center, sampleRate)
	high := ClampFrequency(center+span, sampleRate)
	return Bands{
		A1Low:    Alpha1(low, sampleRate),
		A1Centre: Alpha1(centre, sampleRate),
		A1High:   Alpha1(high, sampleRate),
		A2:       1 / math.Max(q, MinQ),
	}
}

// Alpha1 is the resonator tuning coefficient 2*sin(pi*f/sr). It is
// monotonically increasing in f over the clamped domain and stays below 2.
func Alpha1(freq, sampleRate float64) float64 {
	return 2 * math.Sin(math.Pi*freq/sampleRate)
}

// ClampFrequency restricts freq to [MinFrequency, NyquistFraction*sampleRate].
func ClampFrequency(freq, sampleRate float64) float64 {
	max := NyquistFraction * sampleRate
	if freq < MinFrequency {
		return MinFrequency
	}
	if freq > max {
		return max
	}
	return freq
}

// ClampSpan restricts span to non-negative values.
func ClampSpan(span float64) float64 {
	if span < 0 {
		return 0
	}
	return span
}

// ClampQ floors q to avoid division blow-up in the damping coefficient.
func ClampQ(q, floor float64) float64 {
	if q < floor {
		return floor
	}
	return q
}

// ClampFeedback restricts the coupling strength to [0, 1].
func ClampFeedback(fb float64) float64 {
	if fb < 0 {
		return 0
	}
	if fb > 1 {
		return 1
	}
	return fb
}
