package segment

import (
	"github.com/view111111/lungsound-pipeline/internal/annotation"
)

// NumClasses is the number of diagnostic classes (normal, crackles,
// wheezes, both).
const NumClasses = 4

// Segment is a time-bounded slice of one recording's samples tagged
// with its diagnostic class index.
type Segment struct {
	Samples []float64
	Label   int
}

// Buckets maps a class index to the segments carrying that label.
type Buckets map[int][]Segment

// NewBuckets returns an empty bucket for every class index so that
// callers can rely on all four keys being present.
func NewBuckets() Buckets {
	b := make(Buckets, NumClasses)
	for label := 0; label < NumClasses; label++ {
		b[label] = nil
	}
	return b
}

// Slice extracts the sample range covered by one annotation. Indices
// are floor(start*rate) and floor(end*rate), both clamped to
// [0, len(samples)]; negative times parse fine and must not panic
// here. A start at or past the end yields an empty slice; that is
// propagated rather than rejected, and the renderer maps such
// segments to an all-zero image.
func Slice(samples []float64, rate int, ann annotation.Annotation) []float64 {
	maxIdx := len(samples)

	startIdx := clamp(int(ann.Start*float64(rate)), maxIdx)
	endIdx := clamp(int(ann.End*float64(rate)), maxIdx)
	if startIdx >= endIdx {
		return nil
	}

	return samples[startIdx:endIdx]
}

func clamp(idx, max int) int {
	if idx < 0 {
		return 0
	}
	if idx > max {
		return max
	}
	return idx
}

// Extract slices one recording according to its annotations and appends
// each labeled segment to the bucket for its class. The updated buckets
// are returned; extraction is deterministic.
func Extract(buckets Buckets, anns []annotation.Annotation, samples []float64, rate int) Buckets {
	if buckets == nil {
		buckets = NewBuckets()
	}

	for _, ann := range anns {
		chunk := Slice(samples, rate, ann)
		label := ann.Label()
		buckets[label] = append(buckets[label], Segment{Samples: chunk, Label: label})
	}

	return buckets
}
