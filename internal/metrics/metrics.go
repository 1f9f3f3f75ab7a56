// Package metrics turns a confusion-matrix table into classification
// metrics. Everything here is a pure function of its input.
package metrics

import (
	"math"

	"github.com/Vitruves/metricalc/internal/models"
)

// Digits is the number of decimals kept in reported metrics.
const Digits = 3

// Labeler resolves display names for k classes plus the average row.
type Labeler interface {
	ClassNames(k int, language string) ([]string, error)
}

// Scores holds unrounded metrics for one matrix.
type Scores struct {
	Precision      []float64
	Recall         []float64
	F1             []float64
	Accuracy       float64
	Kappa          float64
	MacroPrecision float64
	MacroRecall    float64
	MacroF1        float64
}

// Result is the outcome of Compute for one table.
type Result struct {
	Classes []ClassColumn
	Matrix  *Matrix
	Rows    []models.MetricRow
}

// Compute runs the whole pipeline: class discovery, row selection, matrix
// materialization, scoring and labeling. It returns nothing on any error.
func Compute(table *models.Table, language string, labeler Labeler) (*Result, error) {
	m, classes, err := BuildMatrix(table)
	if err != nil {
		return nil, err
	}

	scores, err := Score(m)
	if err != nil {
		return nil, err
	}

	names, err := labeler.ClassNames(m.Size(), language)
	if err != nil {
		return nil, err
	}

	return &Result{
		Classes: classes,
		Matrix:  m,
		Rows:    scores.Rows(names),
	}, nil
}

// Score computes per-class and overall metrics. Zero denominators yield 0
// rather than an error.
func Score(m *Matrix) (*Scores, error) {
	k := m.Size()
	if k == 0 {
		return nil, models.DataErrorf("empty confusion matrix")
	}
	total := m.Total()
	if total == 0 {
		return nil, models.DataErrorf("no valid predictions")
	}

	s := &Scores{
		Precision: make([]float64, k),
		Recall:    make([]float64, k),
		F1:        make([]float64, k),
	}

	for i := 0; i < k; i++ {
		tp, fp, fn := classCounts(m, i)
		s.Precision[i] = safeDivide(float64(tp), float64(tp+fp))
		s.Recall[i] = safeDivide(float64(tp), float64(tp+fn))
		s.F1[i] = safeDivide(2*s.Precision[i]*s.Recall[i], s.Precision[i]+s.Recall[i])
	}

	s.MacroPrecision = mean(s.Precision)
	s.MacroRecall = mean(s.Recall)
	s.MacroF1 = mean(s.F1)
	s.Accuracy = float64(m.Trace()) / float64(total)
	s.Kappa = kappa(m, s.Accuracy)

	return s, nil
}

// Rows renders the scores as k class rows and one macro-average row.
// names must hold k+1 labels, the last one for the average.
func (s *Scores) Rows(names []string) []models.MetricRow {
	k := len(s.Precision)
	accuracy := Round(s.Accuracy)
	kappa := Round(s.Kappa)

	rows := make([]models.MetricRow, 0, k+1)
	for i := 0; i < k; i++ {
		rows = append(rows, models.MetricRow{
			Label:     names[i],
			Precision: Round(s.Precision[i]),
			Recall:    Round(s.Recall[i]),
			F1:        Round(s.F1[i]),
			Accuracy:  accuracy,
			Kappa:     kappa,
		})
	}
	rows = append(rows, models.MetricRow{
		Label:     names[k],
		Precision: Round(s.MacroPrecision),
		Recall:    Round(s.MacroRecall),
		F1:        Round(s.MacroF1),
		Accuracy:  accuracy,
		Kappa:     kappa,
	})
	return rows
}

func classCounts(m *Matrix, class int) (tp, fp, fn int) {
	for actual, row := range m.Cells {
		for predicted, count := range row {
			if actual == class && predicted == class {
				tp += count
			} else if actual != class && predicted == class {
				fp += count
			} else if actual == class && predicted != class {
				fn += count
			}
		}
	}
	return tp, fp, fn
}

// kappa is Cohen's kappa with expected agreement taken from the matrix
// marginals. A degenerate expected agreement of 1 gives 0.
func kappa(m *Matrix, observed float64) float64 {
	total := float64(m.Total())

	pe := 0.0
	for i := 0; i < m.Size(); i++ {
		pe += float64(m.RowSum(i)) * float64(m.ColSum(i))
	}
	pe /= total * total

	if pe >= 1.0 {
		return 0.0
	}
	return (observed - pe) / (1.0 - pe)
}

func safeDivide(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Round rounds half away from zero to Digits decimals.
func Round(v float64) float64 {
	p := math.Pow10(Digits)
	return math.Round(v*p) / p
}
