package metrics

import (
	"fmt"

	"github.com/Vitruves/metricalc/internal/models"
)

// Matrix is a square confusion matrix: Cells[i][j] counts instances of true
// class i predicted as class j.
type Matrix struct {
	Cells [][]int
}

func NewMatrix(k int) *Matrix {
	cells := make([][]int, k)
	for i := range cells {
		cells[i] = make([]int, k)
	}
	return &Matrix{Cells: cells}
}

func (m *Matrix) Size() int {
	return len(m.Cells)
}

func (m *Matrix) Total() int {
	total := 0
	for _, row := range m.Cells {
		for _, c := range row {
			total += c
		}
	}
	return total
}

func (m *Matrix) Trace() int {
	trace := 0
	for i := range m.Cells {
		trace += m.Cells[i][i]
	}
	return trace
}

// RowSum is the number of true instances of class i.
func (m *Matrix) RowSum(i int) int {
	sum := 0
	for _, c := range m.Cells[i] {
		sum += c
	}
	return sum
}

// ColSum is the number of instances predicted as class j.
func (m *Matrix) ColSum(j int) int {
	sum := 0
	for i := range m.Cells {
		sum += m.Cells[i][j]
	}
	return sum
}

// Equal reports whether both matrices have the same shape and counts.
func (m *Matrix) Equal(o *Matrix) bool {
	if m.Size() != o.Size() {
		return false
	}
	for i := range m.Cells {
		for j := range m.Cells[i] {
			if m.Cells[i][j] != o.Cells[i][j] {
				return false
			}
		}
	}
	return true
}

// BuildMatrix reads the confusion matrix out of a table.
func BuildMatrix(table *models.Table) (*Matrix, []ClassColumn, error) {
	classes, err := DiscoverClassColumns(table.Columns)
	if err != nil {
		return nil, nil, err
	}

	rows, err := SelectRows(table, classes)
	if err != nil {
		return nil, nil, err
	}

	if len(classes) == 0 || len(rows) == 0 {
		return nil, nil, models.DataErrorf("empty confusion matrix")
	}
	if len(rows) != len(classes) {
		return nil, nil, models.DataErrorf("found %d class rows for %d class columns", len(rows), len(classes))
	}

	m := NewMatrix(len(classes))
	for i, r := range rows {
		for j, c := range classes {
			n, err := ParseCount(table.Cell(r, c.Column))
			if err != nil {
				return nil, nil, fmt.Errorf("row %s, column %q: %w", classes[i].Prefix(), c.Name, err)
			}
			m.Cells[i][j] = n
		}
	}

	return m, classes, nil
}

// ExpandLabels reconstructs the instance-level labels implied by the matrix:
// a cell (i, j) with count c yields c pairs (true=i, pred=j), in row-major
// order.
func ExpandLabels(m *Matrix) (yTrue, yPred []int, err error) {
	total := m.Total()
	if total == 0 {
		return nil, nil, models.DataErrorf("no valid predictions")
	}

	yTrue = make([]int, 0, total)
	yPred = make([]int, 0, total)
	for i, row := range m.Cells {
		for j, c := range row {
			for n := 0; n < c; n++ {
				yTrue = append(yTrue, i)
				yPred = append(yPred, j)
			}
		}
	}
	return yTrue, yPred, nil
}

// MatrixFromLabels counts label pairs into a k×k matrix.
func MatrixFromLabels(k int, yTrue, yPred []int) (*Matrix, error) {
	if len(yTrue) != len(yPred) {
		return nil, models.DataErrorf("label sequences differ in length (%d vs %d)", len(yTrue), len(yPred))
	}

	m := NewMatrix(k)
	for n := range yTrue {
		t, p := yTrue[n], yPred[n]
		if t < 0 || t >= k || p < 0 || p >= k {
			return nil, models.DataErrorf("label pair (%d, %d) outside [0, %d)", t, p, k)
		}
		m.Cells[t][p]++
	}
	return m, nil
}
