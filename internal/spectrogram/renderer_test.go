package spectrogram

import (
	"math"
	"testing"
)

func sineWave(n int, freq float64, rate int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(rate))
	}
	return samples
}

func melTestRenderer() *MelRenderer {
	return &MelRenderer{
		SampleRate: 4000,
		NumMels:    32,
		FMin:       50,
		FMax:       2000,
		NFFT:       256,
		InitialHop: 6,
	}
}

func stftTestRenderer() *STFTRenderer {
	return &STFTRenderer{
		FrameLength: 63,
		InitialStep: 40,
		FFTLength:   64,
	}
}

func checkSquareNormalized(t *testing.T, img *Image, size int) {
	t.Helper()

	if img.Size != size {
		t.Fatalf("Expected image size %d, got %d", size, img.Size)
	}
	if len(img.Data) != size*size {
		t.Fatalf("Expected %d values, got %d", size*size, len(img.Data))
	}
	for i, v := range img.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("Value %d is not finite: %v", i, v)
		}
		if v < 0 || v > 1 {
			t.Fatalf("Value %d out of [0,1]: %v", i, v)
		}
	}
}

func TestMelRenderSquareAndNormalized(t *testing.T) {
	r := melTestRenderer()

	for _, n := range []int{500, 2000, 4000, 12000} {
		img, err := r.Render(sineWave(n, 440, r.SampleRate))
		if err != nil {
			t.Fatalf("Render failed for %d samples: %v", n, err)
		}
		checkSquareNormalized(t, img, r.NumMels)
		if img.IsZero() {
			t.Errorf("Expected non-zero image for %d-sample sine", n)
		}
	}
}

func TestMelRenderSearchConverges(t *testing.T) {
	r := melTestRenderer()

	samples := sineWave(12000, 300, r.SampleRate)
	if _, err := r.Render(samples); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	// The hop found by the search must produce no more frames than mel
	// bands before padding.
	hop := r.InitialHop + 2*r.SearchIterations
	if frames := r.numFrames(len(samples), hop); frames > r.NumMels {
		t.Errorf("Search ended with %d frames > %d bands", frames, r.NumMels)
	}
	if r.SearchIterations == 0 {
		t.Error("Expected the long segment to require hop growth")
	}
}

func TestMelRenderDegenerateInputs(t *testing.T) {
	r := melTestRenderer()

	tests := []struct {
		name    string
		samples []float64
	}{
		{"empty segment", nil},
		{"shorter than one frame", make([]float64, 100)},
		{"all zeros", make([]float64, 4000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := r.Render(tt.samples)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			checkSquareNormalized(t, img, r.NumMels)
			if !img.IsZero() {
				t.Error("Expected the defined all-zero fallback image")
			}
		})
	}
}

func TestMelRenderDeterministic(t *testing.T) {
	r := melTestRenderer()
	samples := sineWave(3000, 220, r.SampleRate)

	a, err := r.Render(samples)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	b, err := r.Render(samples)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("Renders differ at %d: %v vs %v", i, a.Data[i], b.Data[i])
		}
	}
}

func TestSTFTRenderSquareAndNormalized(t *testing.T) {
	r := stftTestRenderer()

	img, err := r.Render(sineWave(2000, 440, 4000))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	checkSquareNormalized(t, img, r.FFTLength/2)
	if img.IsZero() {
		t.Error("Expected non-zero image for a sine segment")
	}
}

func TestSTFTRenderSearchStepsDown(t *testing.T) {
	r := stftTestRenderer()
	r.InitialStep = 100 // too coarse for a 2000-sample segment

	img, err := r.Render(sineWave(2000, 440, 4000))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	checkSquareNormalized(t, img, r.FFTLength/2)
	if r.SearchIterations == 0 {
		t.Error("Expected the coarse initial step to require a search")
	}
}

func TestSTFTRenderDegenerateInputs(t *testing.T) {
	r := stftTestRenderer()

	tests := []struct {
		name    string
		samples []float64
	}{
		{"empty segment", nil},
		{"shorter than one frame", make([]float64, 10)},
		{"all zeros", make([]float64, 2000)},
		{"too short for bin count", sineWave(70, 440, 4000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := r.Render(tt.samples)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			checkSquareNormalized(t, img, r.FFTLength/2)
			if !img.IsZero() {
				t.Error("Expected the defined all-zero fallback image")
			}
		})
	}
}

func TestNewSelectsVariant(t *testing.T) {
	mel, err := New(Config{Variant: VariantMel, SampleRate: 4000, ImageLength: 224, FMin: 50, FMax: 4000, NFFT: 2048, Hop: 6})
	if err != nil {
		t.Fatalf("New(mel) failed: %v", err)
	}
	if mel.Size() != 224 {
		t.Errorf("Expected mel image size 224, got %d", mel.Size())
	}

	st, err := New(Config{Variant: VariantSTFT, FrameLength: 255, FrameStep: 100, FFTLength: 448})
	if err != nil {
		t.Fatalf("New(stft) failed: %v", err)
	}
	if st.Size() != 224 {
		t.Errorf("Expected stft image size 224, got %d", st.Size())
	}

	if _, err := New(Config{Variant: "wavelet"}); err == nil {
		t.Error("Expected error for unknown variant")
	}
}

func TestFFTVector(t *testing.T) {
	n := 64
	samples := make([]float64, 32)
	for i := range samples {
		samples[i] = 1.0
	}

	vec := FFTVector(samples, n)
	if len(vec) != n {
		t.Fatalf("Expected %d values, got %d", n, len(vec))
	}
	for i, v := range vec {
		if v < 0 || math.IsNaN(v) {
			t.Errorf("Value %d invalid: %v", i, v)
		}
	}

	// DC bin carries the sample sum of the zero-padded input.
	if math.Abs(vec[0]-32.0) > 1e-9 {
		t.Errorf("Expected DC magnitude 32, got %v", vec[0])
	}
}

func TestMinMaxNormalizeDegenerate(t *testing.T) {
	s := [][]float64{{1, 1}, {1, 1}}
	if minMaxNormalize(s) {
		t.Error("Expected constant matrix to report degenerate")
	}
}

func TestPowerToDBPeakAtZero(t *testing.T) {
	s := [][]float64{{1e-3, 1e-2}, {1e-1, 1.0}}
	powerToDB(s)

	if s[1][1] != 0 {
		t.Errorf("Expected peak at 0 dB, got %v", s[1][1])
	}
	for _, row := range s {
		for _, v := range row {
			if v > 0 || v < -topDB {
				t.Errorf("Value %v outside [-%v, 0]", v, topDB)
			}
		}
	}
}
