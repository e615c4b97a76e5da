package blokken5

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

type sineSource struct {
	phase float64
	inc   float64
}

func (s *sineSource) Process(dst []float32) {
	for i := range dst {
		dst[i] = float32(0.5 * math.Sin(2*math.Pi*s.phase))
		s.phase += s.inc
	}
}

func TestRenderFiltered(t *testing.T) {
	f, err := New(48000, WithPortableOnly())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Dispose()

	src := &sineSource{inc: 600.0 / 48000}
	samples := RenderFiltered(src, f, 0.5)
	if len(samples) != 24000 {
		t.Fatalf("rendered %d frames, want 24000", len(samples))
	}
	var peak float64
	for _, v := range samples {
		if a := math.Abs(float64(v)); a > peak {
			peak = a
		}
	}
	// 600 Hz sits on the centre band; the render must carry real signal.
	if peak < 0.05 {
		t.Fatalf("render is near-silent, peak %v", peak)
	}
}

func TestWriteWAV(t *testing.T) {
	const frames = 1000
	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = float32(0.25 * math.Sin(2*math.Pi*float64(i)/100))
	}

	path := filepath.Join(t.TempDir(), "out.wav")
	out, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteWAV(out, samples, 48000); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 44+frames*2 {
		t.Fatalf("file too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if ch := binary.LittleEndian.Uint16(data[22:]); ch != 1 {
		t.Fatalf("channels = %d, want 1", ch)
	}
	if sr := binary.LittleEndian.Uint32(data[24:]); sr != 48000 {
		t.Fatalf("sample rate = %d, want 48000", sr)
	}
	if bits := binary.LittleEndian.Uint16(data[34:]); bits != 16 {
		t.Fatalf("bits per sample = %d, want 16", bits)
	}
}
