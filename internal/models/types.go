package models

import "strings"

const ClassValueColumn = "ClassValue"

type Config struct {
	Language   string                 `yaml:"language"`
	Input      InputConfig            `yaml:"input"`
	Output     OutputConfig           `yaml:"output"`
	Processing ProcessingConfig       `yaml:"processing"`
	Labels     map[string]LabelConfig `yaml:"labels,omitempty"`
}

type InputConfig struct {
	Delimiter  string   `yaml:"delimiter"`
	Extensions []string `yaml:"extensions"`
}

type OutputConfig struct {
	Directory    string `yaml:"directory"`
	Format       string `yaml:"format"`
	Mode         string `yaml:"mode"`
	CombinedFile string `yaml:"combined_file,omitempty"`
}

type ProcessingConfig struct {
	Workers int `yaml:"workers"`
}

// LabelConfig overrides or extends the built-in translations for one language.
type LabelConfig struct {
	ClassNames   []string `yaml:"class_names,omitempty"`
	Average      string   `yaml:"average,omitempty"`
	Headers      []string `yaml:"headers,omitempty"`
	MetricsSheet string   `yaml:"metrics_sheet,omitempty"`
	DataSheet    string   `yaml:"data_sheet,omitempty"`
}

const (
	ModeSeparate = "separate"
	ModeCombined = "combined"
)

// Table is a delimited file held in memory: column names in file order and
// rows of raw cell text in file order.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.TrimSpace(c) == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at row r, column c, or "" for short rows.
func (t *Table) Cell(r, c int) string {
	row := t.Rows[r]
	if c < 0 || c >= len(row) {
		return ""
	}
	return row[c]
}

// MetricRow is one line of the metrics sheet.
type MetricRow struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Accuracy  float64 `json:"accuracy"`
	Kappa     float64 `json:"kappa"`
}

// Values returns the row in sheet column order.
func (r MetricRow) Values() []interface{} {
	return []interface{}{r.Label, r.Precision, r.Recall, r.F1, r.Accuracy, r.Kappa}
}

// Failure pairs an input file with the message shown to the user.
type Failure struct {
	File    string `json:"file"`
	Message string `json:"message"`
}
