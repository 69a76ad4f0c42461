package spectrogram

import (
	"fmt"
	"math"
)

const (
	// amin is the floor applied before taking log10, matching the
	// reference amplitude floor used by the decibel conversion.
	amin = 1e-10

	// topDB caps the dynamic range below the per-segment peak.
	topDB = 80.0
)

// Image is a square single-channel representation of one segment.
// Values are min-max normalized to [0,1]. The logical tensor shape is
// (1, Size, Size, 1); Data is row-major.
type Image struct {
	Size int
	Data []float64
}

// NewImage returns an all-zero square image of the given size.
func NewImage(size int) *Image {
	return &Image{Size: size, Data: make([]float64, size*size)}
}

// At returns the value at row r, column c.
func (im *Image) At(r, c int) float64 {
	return im.Data[r*im.Size+c]
}

// Set writes the value at row r, column c.
func (im *Image) Set(r, c int, v float64) {
	im.Data[r*im.Size+c] = v
}

// IsZero reports whether every pixel is exactly zero.
func (im *Image) IsZero() bool {
	for _, v := range im.Data {
		if v != 0 {
			return false
		}
	}
	return true
}

// Renderer converts a 1-D segment into a square normalized image.
// Degenerate segments (empty, shorter than one analysis frame, or
// constant-valued) render to an all-zero image rather than an error.
type Renderer interface {
	Render(samples []float64) (*Image, error)
	Size() int

	// Iterations reports how many adjustment steps the most recent
	// Render spent fitting the time axis.
	Iterations() int
}

// Variant names accepted by New.
const (
	VariantMel  = "mel"
	VariantSTFT = "stft"
)

// Config selects and parameterizes a renderer variant.
type Config struct {
	Variant     string
	SampleRate  int
	ImageLength int // mel band count and final image size for the mel variant
	FMin        float64
	FMax        float64
	NFFT        int // mel variant FFT size
	Hop         int // mel variant initial hop length
	FrameLength int // stft variant window length
	FrameStep   int // stft variant initial frame step
	FFTLength   int // stft variant FFT size; final image size is FFTLength/2
}

// New builds the renderer described by cfg.
func New(cfg Config) (Renderer, error) {
	switch cfg.Variant {
	case VariantMel:
		return &MelRenderer{
			SampleRate: cfg.SampleRate,
			NumMels:    cfg.ImageLength,
			FMin:       cfg.FMin,
			FMax:       cfg.FMax,
			NFFT:       cfg.NFFT,
			InitialHop: cfg.Hop,
		}, nil
	case VariantSTFT:
		return &STFTRenderer{
			FrameLength: cfg.FrameLength,
			InitialStep: cfg.FrameStep,
			FFTLength:   cfg.FFTLength,
		}, nil
	default:
		return nil, fmt.Errorf("unknown renderer variant %q", cfg.Variant)
	}
}

// powerToDB converts a non-negative spectrogram to a decibel scale
// referenced to its own maximum, then clips the dynamic range to topDB
// below the peak. The peak therefore maps to 0 dB for every segment;
// representations are not amplitude-comparable across segments.
func powerToDB(s [][]float64) {
	ref := amin
	for _, row := range s {
		for _, v := range row {
			if v > ref {
				ref = v
			}
		}
	}

	logRef := math.Log10(ref)
	dbMax := math.Inf(-1)
	for i, row := range s {
		for j, v := range row {
			if v < amin {
				v = amin
			}
			db := 10 * (math.Log10(v) - logRef)
			s[i][j] = db
			if db > dbMax {
				dbMax = db
			}
		}
	}

	floor := dbMax - topDB
	for i, row := range s {
		for j, v := range row {
			if v < floor {
				s[i][j] = floor
			}
		}
	}
}

// minMaxNormalize rescales s into [0,1] using its own extrema. It
// reports false for the degenerate constant case (min == max), leaving
// the caller to substitute the defined all-zero fallback instead of
// dividing by zero.
func minMaxNormalize(s [][]float64) bool {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range s {
		for _, v := range row {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}

	if !(hi > lo) {
		return false
	}

	span := hi - lo
	for i, row := range s {
		for j, v := range row {
			s[i][j] = (v - lo) / span
		}
	}
	return true
}
