package pool

import (
	"errors"
	"fmt"

	"github.com/view111111/lungsound-pipeline/internal/spectrogram"
)

// ErrShapeMismatch indicates paired views of unequal length or a label
// vector of the wrong width.
var ErrShapeMismatch = errors.New("shape mismatch")

// NumClasses is the label vector width.
const NumClasses = 4

// Pool is an ordered sequence of paired sample views: the spectrogram
// image, the auxiliary FFT-magnitude vector, and the label vector. The
// three slices always have matching length.
type Pool struct {
	Images []*spectrogram.Image
	Aux    [][]float64
	Labels [][]float64
}

// New returns an empty pool with capacity for n samples.
func New(n int) *Pool {
	return &Pool{
		Images: make([]*spectrogram.Image, 0, n),
		Aux:    make([][]float64, 0, n),
		Labels: make([][]float64, 0, n),
	}
}

// Len returns the number of samples.
func (p *Pool) Len() int {
	return len(p.Labels)
}

// Append adds one sample. The label vector must have width NumClasses.
func (p *Pool) Append(img *spectrogram.Image, aux []float64, label []float64) error {
	if len(label) != NumClasses {
		return fmt.Errorf("%w: label width %d, want %d", ErrShapeMismatch, len(label), NumClasses)
	}

	p.Images = append(p.Images, img)
	p.Aux = append(p.Aux, aux)
	p.Labels = append(p.Labels, label)
	return nil
}

// Concat appends every sample of other to p.
func (p *Pool) Concat(other *Pool) error {
	if err := other.Validate(); err != nil {
		return err
	}

	p.Images = append(p.Images, other.Images...)
	p.Aux = append(p.Aux, other.Aux...)
	p.Labels = append(p.Labels, other.Labels...)
	return nil
}

// Validate checks that the three views have matching length.
func (p *Pool) Validate() error {
	if len(p.Images) != len(p.Labels) || len(p.Aux) != len(p.Labels) {
		return fmt.Errorf("%w: %d images, %d aux, %d labels",
			ErrShapeMismatch, len(p.Images), len(p.Aux), len(p.Labels))
	}
	return nil
}

// OneHot returns the one-hot label vector for a class index.
func OneHot(idx int) []float64 {
	v := make([]float64, NumClasses)
	v[idx] = 1
	return v
}

// ArgMax returns the index of the largest component. For a one-hot
// vector this inverts OneHot.
func ArgMax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
