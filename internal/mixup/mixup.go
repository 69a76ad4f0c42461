package mixup

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/view111111/lungsound-pipeline/internal/pool"
	"github.com/view111111/lungsound-pipeline/internal/spectrogram"
)

// Round configures one augmentation pass: the symmetric Beta
// concentration and the number of samples blended per batch.
type Round struct {
	Alpha     float64
	BatchSize int
}

// Augment expands the pool with synthetic samples. Both balanced views
// are walked in fixed-size batches per round; each synthesized sample
// is the convex combination of the two view samples at the same
// position, with lambda drawn from Beta(alpha, alpha) and broadcast
// over the image, the auxiliary vector, and the label. Samples past
// the last full batch of a round take no part in that round; this
// remainder is dropped by design, so the output length is exactly
// p.Len() plus the sum over rounds of floor(viewLen/batch)*batch.
func Augment(p *pool.Pool, rounds []Round, includeNormal bool, s *Stream) (*pool.Pool, error) {
	one, two, err := Balance(p, includeNormal, s)
	if err != nil {
		return nil, err
	}

	out := pool.New(p.Len())
	if err := out.Concat(p); err != nil {
		return nil, err
	}

	for ri, round := range rounds {
		if round.BatchSize <= 0 {
			return nil, fmt.Errorf("round %d: batch size must be positive, got %d", ri, round.BatchSize)
		}
		if round.Alpha <= 0 {
			return nil, fmt.Errorf("round %d: alpha must be positive, got %v", ri, round.Alpha)
		}

		beta := distuv.Beta{Alpha: round.Alpha, Beta: round.Alpha, Src: s.src}

		numBatches := one.Len() / round.BatchSize
		for b := 0; b < numBatches; b++ {
			for j := 0; j < round.BatchSize; j++ {
				idx := b*round.BatchSize + j
				lambda := beta.Rand()

				img, err := blendImages(one.Images[idx], two.Images[idx], lambda)
				if err != nil {
					return nil, err
				}
				aux, err := blendVectors(one.Aux[idx], two.Aux[idx], lambda)
				if err != nil {
					return nil, err
				}
				label, err := blendVectors(one.Labels[idx], two.Labels[idx], lambda)
				if err != nil {
					return nil, err
				}

				if err := out.Append(img, aux, label); err != nil {
					return nil, err
				}
			}
		}
	}

	return out, nil
}

func blendImages(a, b *spectrogram.Image, lambda float64) (*spectrogram.Image, error) {
	if a.Size != b.Size {
		return nil, fmt.Errorf("%w: image sizes %d and %d", pool.ErrShapeMismatch, a.Size, b.Size)
	}

	img := spectrogram.NewImage(a.Size)
	for i := range img.Data {
		img.Data[i] = a.Data[i]*lambda + b.Data[i]*(1-lambda)
	}
	return img, nil
}

func blendVectors(a, b []float64, lambda float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: vector lengths %d and %d", pool.ErrShapeMismatch, len(a), len(b))
	}

	out := make([]float64, len(a))
	for i := range out {
		out[i] = a[i]*lambda + b[i]*(1-lambda)
	}
	return out, nil
}
