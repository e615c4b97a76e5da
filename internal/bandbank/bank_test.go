package bandbank

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/mjibson/go-dsp/fft"
)

func TestBankMatchesIndependentStages(t *testing.T) {
	bk, err := NewBank(48000, 600, 300, 8)
	if err != nil {
		t.Fatal(err)
	}

	var low, centre, high Biquad
	low.SetBandpass(48000, 300, 8)
	centre.SetBandpass(48000, 600, 8)
	high.SetBandpass(48000, 900, 8)

	in := make([]float32, 512)
	in[0] = 1
	seed := uint32(7)
	for i := 1; i < len(in); i++ {
		seed = seed*1664525 + 1013904223
		in[i] = float32(int32(seed)) / float32(math.MaxInt32) * 0.25
	}

	out := make([]float32, len(in))
	bk.Process(in, out)
	for i, x := range in {
		want := (low.ProcessSample(float64(x)) +
			centre.ProcessSample(float64(x)) +
			high.ProcessSample(float64(x))) / 3
		if math.Abs(float64(out[i])-want) > 1e-6 {
			t.Fatalf("sample %d: bank %v, independent stages %v", i, out[i], want)
		}
	}
}

func TestBankSpectralPeaks(t *testing.T) {
	const (
		sr = 48000
		n  = 8192
	)
	bk, err := NewBank(sr, 600, 300, 8)
	if err != nil {
		t.Fatal(err)
	}

	in := make([]float32, n)
	in[0] = 1
	out := make([]float32, n)
	bk.Process(in, out)

	resp := make([]float64, n)
	for i, v := range out {
		resp[i] = float64(v)
	}
	spec := fft.FFTReal(resp)
	mag := func(freq float64) float64 {
		bin := int(math.Round(freq * n / sr))
		return cmplx.Abs(spec[bin])
	}

	for _, band := range []float64{300, 600, 900} {
		for _, off := range []float64{60, 1800, 5000} {
			if mag(band) < 5*mag(off) {
				t.Errorf("band %v Hz not resonant: |H|=%v vs |H(%v)|=%v",
					band, mag(band), off, mag(off))
			}
		}
	}
	// Constant-peak-gain stages at 1/3 weight: near unity/3 at each center.
	if m := mag(600); m < 0.2 || m > 0.6 {
		t.Errorf("centre band magnitude %v, want roughly 1/3", m)
	}
}

func TestBankRetuneMovesPeak(t *testing.T) {
	const (
		sr = 48000
		n  = 8192
	)
	bk, err := NewBank(sr, 600, 0, 12)
	if err != nil {
		t.Fatal(err)
	}
	bk.SetCenter(1200)

	in := make([]float32, n)
	in[0] = 1
	out := make([]float32, n)
	bk.Process(in, out)

	resp := make([]float64, n)
	for i, v := range out {
		resp[i] = float64(v)
	}
	spec := fft.FFTReal(resp)
	magAt := func(freq float64) float64 {
		bin := int(math.Round(freq * n / sr))
		return cmplx.Abs(spec[bin])
	}
	if magAt(1200) < 5*magAt(600) {
		t.Errorf("peak did not move: |H(1200)|=%v |H(600)|=%v", magAt(1200), magAt(600))
	}
}

func TestBankClampsConfiguration(t *testing.T) {
	bk, err := NewBank(48000, 1e6, -50, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if bk.center != 0.45*48000 {
		t.Errorf("center = %v, want clamped to %v", bk.center, 0.45*48000)
	}
	if bk.span != 0 {
		t.Errorf("span = %v, want 0", bk.span)
	}
	if bk.q != 0.5 {
		t.Errorf("q = %v, want floored to 0.5", bk.q)
	}

	if _, err := NewBank(0, 600, 300, 8); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestBankEmptyBlockLeavesStateUntouched(t *testing.T) {
	bk, err := NewBank(48000, 600, 300, 8)
	if err != nil {
		t.Fatal(err)
	}
	in := make([]float32, 64)
	in[0] = 1
	out := make([]float32, 64)
	bk.Process(in, out)

	before := bk.stages
	bk.Process(nil, out)
	bk.Process([]float32{}, out)
	if bk.stages != before {
		t.Fatal("empty block mutated stage state")
	}
}

func TestBankSilentDecay(t *testing.T) {
	bk, err := NewBank(48000, 600, 300, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	in := make([]float32, 128)
	in[0] = 1
	out := make([]float32, 128)
	bk.Process(in, out)

	silence := make([]float32, 128)
	var last float32
	for i := 0; i < 100; i++ {
		bk.Process(silence, out)
		for _, v := range out {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatal("non-finite output")
			}
		}
		last = out[len(out)-1]
	}
	if math.Abs(float64(last)) > 1e-9 {
		t.Fatalf("ringing did not decay, last sample %v", last)
	}
}
