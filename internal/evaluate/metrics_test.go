package evaluate

import (
	"errors"
	"math"
	"testing"

	"github.com/view111111/lungsound-pipeline/internal/pool"
)

func onehots(classes ...int) [][]float64 {
	rows := make([][]float64, len(classes))
	for i, c := range classes {
		rows[i] = pool.OneHot(c)
	}
	return rows
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestSensitivityExample(t *testing.T) {
	// True classes [0,1,2,0], predicted [0,1,0,0]: one of the two
	// abnormal samples is correct.
	yTrue := onehots(0, 1, 2, 0)
	yPred := onehots(0, 1, 0, 0)

	if got := Sensitivity(yTrue, yPred); !almostEqual(got, 0.5) {
		t.Errorf("Expected sensitivity 0.5, got %v", got)
	}
	if got := Specificity(yTrue, yPred); !almostEqual(got, 1.0) {
		t.Errorf("Expected specificity 1.0, got %v", got)
	}
	if got := AverageScore(yTrue, yPred); !almostEqual(got, 0.75) {
		t.Errorf("Expected average score 0.75, got %v", got)
	}
}

func TestSensitivityNoAbnormalSamples(t *testing.T) {
	yTrue := onehots(0, 0)
	yPred := onehots(0, 1)

	if got := Sensitivity(yTrue, yPred); got != 0 {
		t.Errorf("Expected 0 with no abnormal samples, got %v", got)
	}
}

func TestSpecificityNoNormalSamples(t *testing.T) {
	yTrue := onehots(1, 2, 3)
	yPred := onehots(1, 2, 3)

	if got := Specificity(yTrue, yPred); got != 0 {
		t.Errorf("Expected 0 with no normal samples, got %v", got)
	}
}

func TestHarmonicScoreZeroWhenBothZero(t *testing.T) {
	// Every prediction wrong: se = 0 and sp = 0.
	yTrue := onehots(0, 1)
	yPred := onehots(1, 0)

	got := HarmonicScore(yTrue, yPred)
	if got != 0 {
		t.Errorf("Expected exactly 0, got %v", got)
	}
	if math.IsNaN(got) {
		t.Error("HarmonicScore returned NaN")
	}
}

func TestHarmonicScorePerfect(t *testing.T) {
	yTrue := onehots(0, 1, 2, 3)
	yPred := onehots(0, 1, 2, 3)

	if got := HarmonicScore(yTrue, yPred); !almostEqual(got, 1.0) {
		t.Errorf("Expected 1.0, got %v", got)
	}
}

func TestPrecisionRecallF1(t *testing.T) {
	// 4 samples, 3 exact one-hot matches: TP=3, predicted positives=4,
	// actual positives=4.
	yTrue := onehots(0, 1, 2, 3)
	yPred := onehots(0, 1, 2, 0)

	p := Precision(yTrue, yPred)
	r := Recall(yTrue, yPred)
	if !almostEqual(p, 0.75) {
		t.Errorf("Expected precision 0.75, got %v", p)
	}
	if !almostEqual(r, 0.75) {
		t.Errorf("Expected recall 0.75, got %v", r)
	}
	if f := F1(yTrue, yPred); !almostEqual(f, 0.75) {
		t.Errorf("Expected f1 0.75, got %v", f)
	}
}

func TestPrecisionBinarizesSoftPredictions(t *testing.T) {
	yTrue := [][]float64{{1, 0, 0, 0}}
	// 0.6 rounds to 1, the rest round to 0.
	yPred := [][]float64{{0.6, 0.3, 0.05, 0.05}}

	if got := Precision(yTrue, yPred); !almostEqual(got, 1.0) {
		t.Errorf("Expected precision 1.0, got %v", got)
	}
	if got := Recall(yTrue, yPred); !almostEqual(got, 1.0) {
		t.Errorf("Expected recall 1.0, got %v", got)
	}
}

func TestPrecisionZeroDenominator(t *testing.T) {
	yTrue := [][]float64{{1, 0, 0, 0}}
	yPred := [][]float64{{0.2, 0.3, 0.3, 0.2}} // all round to 0

	got := Precision(yTrue, yPred)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("Precision not finite: %v", got)
	}
	if !almostEqual(got, 0) {
		t.Errorf("Expected ~0, got %v", got)
	}
}

func TestAccuracy(t *testing.T) {
	yTrue := onehots(0, 1, 2, 3)
	yPred := onehots(0, 1, 0, 0)

	if got := Accuracy(yTrue, yPred); !almostEqual(got, 0.5) {
		t.Errorf("Expected accuracy 0.5, got %v", got)
	}
	if got := Accuracy(nil, nil); got != 0 {
		t.Errorf("Expected 0 for empty input, got %v", got)
	}
}

func TestEvaluateReport(t *testing.T) {
	yTrue := onehots(0, 1, 2, 0)
	yPred := onehots(0, 1, 0, 0)

	report, err := Evaluate(yTrue, yPred)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if report.Samples != 4 {
		t.Errorf("Expected 4 samples, got %d", report.Samples)
	}
	if !almostEqual(report.Sensitivity, 0.5) {
		t.Errorf("Expected sensitivity 0.5, got %v", report.Sensitivity)
	}
	if !almostEqual(report.Specificity, 1.0) {
		t.Errorf("Expected specificity 1.0, got %v", report.Specificity)
	}
	wantHS := 2 * 0.5 * 1.0 / 1.5
	if !almostEqual(report.HarmonicScore, wantHS) {
		t.Errorf("Expected harmonic score %v, got %v", wantHS, report.HarmonicScore)
	}
	if !almostEqual(report.Accuracy, 0.75) {
		t.Errorf("Expected accuracy 0.75, got %v", report.Accuracy)
	}
}

func TestEvaluateShapeMismatch(t *testing.T) {
	_, err := Evaluate(onehots(0, 1), onehots(0))
	if !errors.Is(err, pool.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}

	_, err = Evaluate([][]float64{{1, 0}}, [][]float64{{1, 0, 0}})
	if !errors.Is(err, pool.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for ragged rows, got %v", err)
	}
}
