package evaluate

import (
	"fmt"
	"math"

	"github.com/view111111/lungsound-pipeline/internal/pool"
)

// epsilon guards every denominator, mirroring the backend epsilon the
// reference metrics were defined with.
const epsilon = 1e-7

// Report bundles every metric computed for one prediction set.
type Report struct {
	Accuracy      float64 `json:"accuracy"`
	Precision     float64 `json:"precision"`
	Recall        float64 `json:"recall"`
	F1            float64 `json:"f1"`
	Sensitivity   float64 `json:"sensitivity"`
	Specificity   float64 `json:"specificity"`
	AverageScore  float64 `json:"average_score"`
	HarmonicScore float64 `json:"harmonic_score"`
	Samples       int     `json:"samples"`
}

// Evaluate computes the full report. Both matrices must have the same
// outer length; rows are label-width probability vectors.
func Evaluate(yTrue, yPred [][]float64) (*Report, error) {
	if err := checkShapes(yTrue, yPred); err != nil {
		return nil, err
	}

	se := Sensitivity(yTrue, yPred)
	sp := Specificity(yTrue, yPred)
	p := Precision(yTrue, yPred)
	r := Recall(yTrue, yPred)

	return &Report{
		Accuracy:      Accuracy(yTrue, yPred),
		Precision:     p,
		Recall:        r,
		F1:            f1From(p, r),
		Sensitivity:   se,
		Specificity:   sp,
		AverageScore:  (se + sp) / 2,
		HarmonicScore: harmonicFrom(se, sp),
		Samples:       len(yTrue),
	}, nil
}

func checkShapes(yTrue, yPred [][]float64) error {
	if len(yTrue) != len(yPred) {
		return fmt.Errorf("%w: %d true rows, %d predicted rows",
			pool.ErrShapeMismatch, len(yTrue), len(yPred))
	}
	for i := range yTrue {
		if len(yTrue[i]) != len(yPred[i]) {
			return fmt.Errorf("%w: row %d has widths %d and %d",
				pool.ErrShapeMismatch, i, len(yTrue[i]), len(yPred[i]))
		}
	}
	return nil
}

// roundClip binarizes a value: clip to [0,1], then round half away
// from zero.
func roundClip(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return math.Round(v)
}

// Precision is the element-wise multi-label precision: binarized
// true*pred overlap over binarized predicted positives.
func Precision(yTrue, yPred [][]float64) float64 {
	var tp, predicted float64
	for i := range yTrue {
		for j := range yTrue[i] {
			tp += roundClip(yTrue[i][j] * yPred[i][j])
			predicted += roundClip(yPred[i][j])
		}
	}
	return tp / (predicted + epsilon)
}

// Recall is the element-wise multi-label recall: binarized true*pred
// overlap over binarized actual positives.
func Recall(yTrue, yPred [][]float64) float64 {
	var tp, actual float64
	for i := range yTrue {
		for j := range yTrue[i] {
			tp += roundClip(yTrue[i][j] * yPred[i][j])
			actual += roundClip(yTrue[i][j])
		}
	}
	return tp / (actual + epsilon)
}

// F1 is the harmonic mean of Precision and Recall.
func F1(yTrue, yPred [][]float64) float64 {
	return f1From(Precision(yTrue, yPred), Recall(yTrue, yPred))
}

func f1From(p, r float64) float64 {
	return 2 * p * r / (p + r + epsilon)
}

// Accuracy is the fraction of samples whose predicted argmax matches
// the true argmax. An empty input scores 0.
func Accuracy(yTrue, yPred [][]float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}

	correct := 0
	for i := range yTrue {
		if pool.ArgMax(yTrue[i]) == pool.ArgMax(yPred[i]) {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// Sensitivity is the argmax match rate over samples whose true class is
// abnormal (non-zero). With no abnormal samples it returns 0.
func Sensitivity(yTrue, yPred [][]float64) float64 {
	return matchRate(yTrue, yPred, func(class int) bool { return class != 0 })
}

// Specificity is the argmax match rate over samples whose true class is
// normal (zero). With no normal samples it returns 0.
func Specificity(yTrue, yPred [][]float64) float64 {
	return matchRate(yTrue, yPred, func(class int) bool { return class == 0 })
}

func matchRate(yTrue, yPred [][]float64, include func(int) bool) float64 {
	var correct, total float64
	for i := range yTrue {
		class := pool.ArgMax(yTrue[i])
		if !include(class) {
			continue
		}
		total++
		if pool.ArgMax(yPred[i]) == class {
			correct++
		}
	}
	if total == 0 {
		return 0
	}
	return correct / total
}

// AverageScore is the ICBHI average of sensitivity and specificity.
func AverageScore(yTrue, yPred [][]float64) float64 {
	return (Sensitivity(yTrue, yPred) + Specificity(yTrue, yPred)) / 2
}

// HarmonicScore is the ICBHI harmonic mean of sensitivity and
// specificity, defined as 0 when both are 0.
func HarmonicScore(yTrue, yPred [][]float64) float64 {
	return harmonicFrom(Sensitivity(yTrue, yPred), Specificity(yTrue, yPred))
}

func harmonicFrom(se, sp float64) float64 {
	if se+sp == 0 {
		return 0
	}
	return 2 * se * sp / (se + sp)
}
