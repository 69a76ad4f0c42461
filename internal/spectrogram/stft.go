package spectrogram

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// STFTRenderer renders a segment as a square magnitude-spectrogram
// image. The bin count (FFTLength/2+1) fixes the frequency axis; the
// frame step is searched downward until the frame count reaches it,
// then stepped back once. The result is padded when frames < bins and
// finally cropped on both axes to FFTLength/2.
//
// The pad-then-crop order, the opposite pad condition, and the final
// step-back all mirror the mel variant's counterpart conventions
// deliberately; the two variants target different constrained axes and
// are not unified.
type STFTRenderer struct {
	FrameLength int
	InitialStep int
	FFTLength   int

	// SearchIterations counts step decrements performed by the most
	// recent Render call, exposed for instrumentation.
	SearchIterations int

	window []float64
}

// Size returns the rendered image edge length.
func (r *STFTRenderer) Size() int {
	return r.FFTLength / 2
}

// Iterations returns the step decrements made by the last Render.
func (r *STFTRenderer) Iterations() int {
	return r.SearchIterations
}

func (r *STFTRenderer) numFrames(n, step int) int {
	if n < r.FrameLength {
		return 0
	}
	return (n-r.FrameLength)/step + 1
}

// Render computes the short-time Fourier magnitude spectrogram with an
// adaptive frame step, converts to a peak-referenced decibel scale,
// min-max normalizes, pads the time axis to a square when it came up
// short, and crops to FFTLength/2 on both axes.
func (r *STFTRenderer) Render(samples []float64) (*Image, error) {
	r.SearchIterations = 0

	size := r.FFTLength / 2
	bins := r.FFTLength/2 + 1

	if r.numFrames(len(samples), r.InitialStep) <= 0 {
		// Shorter than one analysis frame: defined fallback.
		return NewImage(size), nil
	}

	// Decreasing the step increases the frame count monotonically, so
	// the loop terminates once frames >= bins or the step bottoms out.
	step := r.InitialStep
	for r.numFrames(len(samples), step) < bins {
		if step <= 2 {
			// Segment too short to ever reach the bin count.
			return NewImage(size), nil
		}
		step -= 2
		r.SearchIterations++
	}
	// One step back: use the last step preceding the crossover.
	step += 2

	s := r.magnitudeSpectrogram(samples, step)
	frames := len(s)

	powerToDB(s)
	if !minMaxNormalize(s) {
		return NewImage(size), nil
	}

	// Pad rows symmetrically when frames < bins, then crop both axes.
	top := 0
	if frames < bins {
		top = (bins - frames) / 2
	}

	img := NewImage(size)
	for i := 0; i < frames; i++ {
		row := top + i
		if row >= size {
			break
		}
		for j := 0; j < bins && j < size; j++ {
			img.Set(row, j, s[i][j])
		}
	}
	return img, nil
}

// magnitudeSpectrogram returns |STFT| with shape [frames][bins], using
// a Hann window of FrameLength zero-padded to FFTLength per frame.
func (r *STFTRenderer) magnitudeSpectrogram(samples []float64, step int) [][]float64 {
	if r.window == nil {
		r.window = hannWindow(r.FrameLength)
	}

	frames := r.numFrames(len(samples), step)
	bins := r.FFTLength/2 + 1

	s := make([][]float64, frames)
	buf := make([]float64, r.FFTLength)
	for t := 0; t < frames; t++ {
		offset := t * step
		for i := 0; i < r.FrameLength; i++ {
			buf[i] = samples[offset+i] * r.window[i]
		}
		for i := r.FrameLength; i < r.FFTLength; i++ {
			buf[i] = 0
		}

		spectrum := fft.FFTReal(buf)
		row := make([]float64, bins)
		for k := 0; k < bins; k++ {
			row[k] = cmplx.Abs(spectrum[k])
		}
		s[t] = row
	}
	return s
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}
