package spectrogram

import (
	"math"
	"math/cmplx"

	"github.com/r9y9/gossp/stft"
)

// MelRenderer renders a segment as a square mel-spectrogram image. The
// mel band count fixes the frequency axis; the hop length is searched
// adaptively so the time axis never exceeds it.
type MelRenderer struct {
	SampleRate int
	NumMels    int
	FMin       float64
	FMax       float64
	NFFT       int
	InitialHop int

	// SearchIterations counts hop increments performed by the most
	// recent Render call, exposed for instrumentation.
	SearchIterations int

	filterbank [][]float64
}

// Size returns the rendered image edge length.
func (r *MelRenderer) Size() int {
	return r.NumMels
}

// Iterations returns the hop increments made by the last Render.
func (r *MelRenderer) Iterations() int {
	return r.SearchIterations
}

// numFrames is the frame count gossp produces for the given hop.
// Strictly decreasing in hop, which guarantees the search terminates.
func (r *MelRenderer) numFrames(n, hop int) int {
	if n < r.NFFT {
		return 0
	}
	return (n-r.NFFT)/hop + 1
}

// Render computes the mel spectrogram, growing the hop length by 2
// until the frame count fits within the mel band count, then converts
// to a peak-referenced decibel scale, min-max normalizes, and pads the
// time axis symmetrically with zeros to a square.
func (r *MelRenderer) Render(samples []float64) (*Image, error) {
	r.SearchIterations = 0

	w := r.NumMels
	if r.numFrames(len(samples), r.InitialHop) <= 0 {
		// Shorter than one analysis frame: defined fallback.
		return NewImage(w), nil
	}

	hop := r.InitialHop
	for r.numFrames(len(samples), hop) > w {
		hop += 2
		r.SearchIterations++
	}

	s := r.melSpectrogram(samples, hop)
	h := len(s[0])

	powerToDB(s)
	if !minMaxNormalize(s) {
		// Constant signal (e.g. all-silent segment): defined fallback.
		return NewImage(w), nil
	}

	img := NewImage(w)
	// Pad columns symmetrically when the time axis came up short.
	left := (w - h) / 2
	for i := 0; i < w; i++ {
		for j := 0; j < h; j++ {
			img.Set(i, left+j, s[i][j])
		}
	}
	return img, nil
}

// melSpectrogram returns the power mel spectrogram with shape
// [NumMels][frames].
func (r *MelRenderer) melSpectrogram(samples []float64, hop int) [][]float64 {
	if r.filterbank == nil {
		r.filterbank = melFilterbank(r.NumMels, r.NFFT, r.SampleRate, r.FMin, r.FMax)
	}

	st := stft.New(hop, r.NFFT)
	spectrum := st.STFT(samples)

	numBins := r.NFFT/2 + 1
	frames := len(spectrum)

	power := make([][]float64, frames)
	for t, frame := range spectrum {
		power[t] = make([]float64, numBins)
		for k := 0; k < numBins; k++ {
			mag := cmplx.Abs(frame[k])
			power[t][k] = mag * mag
		}
	}

	s := make([][]float64, r.NumMels)
	for m := 0; m < r.NumMels; m++ {
		s[m] = make([]float64, frames)
		for t := 0; t < frames; t++ {
			var acc float64
			for k, wgt := range r.filterbank[m] {
				if wgt != 0 {
					acc += wgt * power[t][k]
				}
			}
			s[m][t] = acc
		}
	}
	return s
}

// HTK mel scale constants, matching the break frequency and Q used by
// the reference filterbanks.
const (
	melBreakFrequencyHertz = 700.0
	melHighFrequencyQ      = 1127.0
)

func hzToMel(hz float64) float64 {
	return melHighFrequencyQ * math.Log(1.0+hz/melBreakFrequencyHertz)
}

func melToHz(mel float64) float64 {
	return melBreakFrequencyHertz * (math.Exp(mel/melHighFrequencyQ) - 1.0)
}

// melFilterbank builds nMels triangular filters over the nfft/2+1
// linear frequency bins, equally spaced on the mel scale between fmin
// and fmax.
func melFilterbank(nMels, nfft, sampleRate int, fmin, fmax float64) [][]float64 {
	numBins := nfft/2 + 1

	melMin := hzToMel(fmin)
	melMax := hzToMel(fmax)
	points := make([]float64, nMels+2)
	for i := range points {
		mel := melMin + (melMax-melMin)*float64(i)/float64(nMels+1)
		points[i] = melToHz(mel)
	}

	binHz := float64(sampleRate) / float64(nfft)
	fb := make([][]float64, nMels)
	for m := 0; m < nMels; m++ {
		lower, center, upper := points[m], points[m+1], points[m+2]
		row := make([]float64, numBins)
		for k := 0; k < numBins; k++ {
			f := float64(k) * binHz
			switch {
			case f <= lower || f >= upper:
				// outside the triangle
			case f <= center:
				if center > lower {
					row[k] = (f - lower) / (center - lower)
				}
			default:
				if upper > center {
					row[k] = (upper - f) / (upper - center)
				}
			}
		}
		fb[m] = row
	}
	return fb
}
