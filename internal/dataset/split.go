package dataset

import (
	"math/rand/v2"
	"sort"

	"github.com/view111111/lungsound-pipeline/internal/pool"
	"github.com/view111111/lungsound-pipeline/internal/segment"
)

// Split partitions each class bucket into train and test segments.
// Classes are visited in ascending order and each bucket is shuffled
// with a stream seeded from seed before the leading testFraction share
// is held out, so the same corpus and seed always produce the same
// split. Buckets are not modified.
func Split(buckets segment.Buckets, testFraction float64, seed uint64) (train, test []segment.Segment) {
	rng := rand.New(rand.NewPCG(seed, seed))

	classes := make([]int, 0, len(buckets))
	for class := range buckets {
		classes = append(classes, class)
	}
	sort.Ints(classes)

	for _, class := range classes {
		segs := append([]segment.Segment(nil), buckets[class]...)
		rng.Shuffle(len(segs), func(i, j int) {
			segs[i], segs[j] = segs[j], segs[i]
		})

		cut := int(float64(len(segs)) * testFraction)
		test = append(test, segs[:cut]...)
		train = append(train, segs[cut:]...)
	}
	return train, test
}

// flatten converts segments into parallel sample and one-hot label
// slices in segment order.
func flatten(segs []segment.Segment) (samples [][]float64, labels [][]float64) {
	samples = make([][]float64, len(segs))
	labels = make([][]float64, len(segs))
	for i, s := range segs {
		samples[i] = s.Samples
		labels[i] = pool.OneHot(s.Label)
	}
	return samples, labels
}
