package dataset

import (
	"testing"

	"github.com/view111111/lungsound-pipeline/internal/pool"
	"github.com/view111111/lungsound-pipeline/internal/segment"
)

func buildBuckets(counts [segment.NumClasses]int) segment.Buckets {
	buckets := segment.NewBuckets()
	for label, count := range counts {
		for i := 0; i < count; i++ {
			// Encode the origin in the first sample so shuffles are
			// observable.
			buckets[label] = append(buckets[label], segment.Segment{
				Samples: []float64{float64(label*100 + i)},
				Label:   label,
			})
		}
	}
	return buckets
}

func countByClass(segs []segment.Segment) [segment.NumClasses]int {
	var counts [segment.NumClasses]int
	for _, s := range segs {
		counts[s.Label]++
	}
	return counts
}

func TestSplitSizes(t *testing.T) {
	buckets := buildBuckets([segment.NumClasses]int{10, 5, 4, 2})

	train, test := Split(buckets, 0.2, 42)

	if len(train)+len(test) != 21 {
		t.Fatalf("Split lost segments: %d train + %d test", len(train), len(test))
	}

	// Per class: floor(n * 0.2) held out.
	wantTest := [segment.NumClasses]int{2, 1, 0, 0}
	gotTest := countByClass(test)
	if gotTest != wantTest {
		t.Errorf("Test counts per class: want %v, got %v", wantTest, gotTest)
	}
}

func TestSplitReproducible(t *testing.T) {
	buckets := buildBuckets([segment.NumClasses]int{6, 6, 6, 6})

	train1, test1 := Split(buckets, 0.5, 7)
	train2, test2 := Split(buckets, 0.5, 7)

	if len(train1) != len(train2) || len(test1) != len(test2) {
		t.Fatal("Same seed produced different split sizes")
	}
	for i := range train1 {
		if train1[i].Samples[0] != train2[i].Samples[0] {
			t.Fatalf("Same seed diverged at train segment %d", i)
		}
	}
	for i := range test1 {
		if test1[i].Samples[0] != test2[i].Samples[0] {
			t.Fatalf("Same seed diverged at test segment %d", i)
		}
	}
}

func TestSplitSeedChangesSelection(t *testing.T) {
	buckets := buildBuckets([segment.NumClasses]int{32, 0, 0, 0})

	_, test1 := Split(buckets, 0.5, 1)
	_, test2 := Split(buckets, 0.5, 2)

	same := true
	for i := range test1 {
		if test1[i].Samples[0] != test2[i].Samples[0] {
			same = false
			break
		}
	}
	if same {
		t.Error("Different seeds selected identical held-out segments")
	}
}

func TestSplitDoesNotModifyBuckets(t *testing.T) {
	buckets := buildBuckets([segment.NumClasses]int{4, 0, 0, 0})
	before := make([]float64, 4)
	for i, s := range buckets[0] {
		before[i] = s.Samples[0]
	}

	Split(buckets, 0.5, 42)

	for i, s := range buckets[0] {
		if s.Samples[0] != before[i] {
			t.Fatalf("Split reordered bucket contents at %d", i)
		}
	}
}

func TestFlatten(t *testing.T) {
	segs := []segment.Segment{
		{Samples: []float64{1, 2}, Label: 2},
		{Samples: nil, Label: 0},
	}

	samples, labels := flatten(segs)

	if len(samples) != 2 || len(labels) != 2 {
		t.Fatalf("Expected 2 samples and labels, got %d and %d", len(samples), len(labels))
	}
	if pool.ArgMax(labels[0]) != 2 || pool.ArgMax(labels[1]) != 0 {
		t.Error("Labels do not match segment classes")
	}
	if len(samples[1]) != 0 {
		t.Error("Empty segment not preserved")
	}
}
