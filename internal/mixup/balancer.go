package mixup

import (
	"math/rand/v2"
	"sort"

	"github.com/view111111/lungsound-pipeline/internal/pool"
)

// Stream is the single seeded random source driving every draw in the
// balancing and augmentation sequence. The draw order is part of the
// reproducibility contract: view-1 per-class shuffles first (ascending
// class order), then the class-key shuffle, then view-2 per-class
// shuffles, then the Beta draws, all consuming one stream.
type Stream struct {
	src *rand.PCG
	rng *rand.Rand
}

// NewStream returns a stream seeded deterministically.
func NewStream(seed uint64) *Stream {
	src := rand.NewPCG(seed, seed)
	return &Stream{src: src, rng: rand.New(src)}
}

// Balance produces two class-balanced, independently permuted views of
// the pool. Each view holds exactly minCount*numClasses samples, where
// minCount is the smallest participating class size. View one
// concatenates classes in ascending order; view two concatenates them
// in a shuffled class order. The two views generally pair samples of
// different classes per position, which is what lets mixup synthesize
// points between class clusters.
func Balance(p *pool.Pool, includeNormal bool, s *Stream) (*pool.Pool, *pool.Pool, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}

	byClass := make(map[int][]int)
	for i, label := range p.Labels {
		class := pool.ArgMax(label)
		if class == 0 && !includeNormal {
			continue
		}
		byClass[class] = append(byClass[class], i)
	}

	classes := make([]int, 0, len(byClass))
	for class := range byClass {
		classes = append(classes, class)
	}
	sort.Ints(classes)

	minCount := 0
	for i, class := range classes {
		if n := len(byClass[class]); i == 0 || n < minCount {
			minCount = n
		}
	}

	one := pool.New(minCount * len(classes))
	for _, class := range classes {
		if err := takePermuted(one, p, byClass[class], minCount, s); err != nil {
			return nil, nil, err
		}
	}

	shuffled := append([]int(nil), classes...)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	two := pool.New(minCount * len(classes))
	for _, class := range shuffled {
		if err := takePermuted(two, p, byClass[class], minCount, s); err != nil {
			return nil, nil, err
		}
	}

	return one, two, nil
}

// takePermuted appends the first n samples of an independent random
// permutation of indices to dst.
func takePermuted(dst *pool.Pool, src *pool.Pool, indices []int, n int, s *Stream) error {
	perm := s.rng.Perm(len(indices))
	for _, pi := range perm[:n] {
		idx := indices[pi]
		if err := dst.Append(src.Images[idx], src.Aux[idx], src.Labels[idx]); err != nil {
			return err
		}
	}
	return nil
}
