package spectrogram

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFTVector computes the magnitude of the n-point discrete Fourier
// transform of a segment, the flat auxiliary representation carried
// alongside the spectrogram image through augmentation. The input is
// zero-padded or truncated to n; the logical output shape is (n, 1).
func FFTVector(samples []float64, n int) []float64 {
	buf := make([]float64, n)
	copy(buf, samples)

	spectrum := fft.FFTReal(buf)
	out := make([]float64, n)
	for i, v := range spectrum {
		out[i] = cmplx.Abs(v)
	}
	return out
}
