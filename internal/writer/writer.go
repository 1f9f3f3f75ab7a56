// Package writer stores computed metrics next to the table they came from.
package writer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Vitruves/metricalc/internal/locale"
	"github.com/Vitruves/metricalc/internal/metrics"
	"github.com/Vitruves/metricalc/internal/models"
)

// Document is everything written for one input file.
type Document struct {
	Stem        string
	Table       *models.Table
	Result      *metrics.Result
	Translation locale.Translation
	Delimiter   rune
}

// Extension returns the file extension used for a format.
func Extension(format string) string {
	return "." + format
}

// Save writes doc into directory, naming the output after the input stem.
func Save(format, directory string, doc Document) ([]string, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, models.IOError("failed to create output directory", err)
	}
	return SaveAs(format, filepath.Join(directory, doc.Stem+Extension(format)), doc)
}

// OutputFiles lists the files SaveAs creates for filename. Parquet output
// adds a second file holding the raw table.
func OutputFiles(format, filename string) []string {
	if format == "parquet" {
		return []string{filename, strings.TrimSuffix(filename, filepath.Ext(filename)) + "_data.parquet"}
	}
	return []string{filename}
}

// SaveAs writes doc to filename and returns every file it created.
func SaveAs(format, filename string, doc Document) ([]string, error) {
	var err error
	files := OutputFiles(format, filename)

	switch format {
	case "xlsx":
		err = saveExcel(filename, doc)
	case "csv":
		err = saveCSV(filename, doc)
	case "json":
		err = saveJSON(filename, doc)
	case "parquet":
		err = saveMetricsParquet(filename, doc)
		if err == nil {
			err = saveTableParquet(files[1], doc.Table)
		}
	default:
		return nil, models.ConfigErrorf("unsupported output format: %s", format)
	}

	if err != nil {
		return nil, models.IOError(fmt.Sprintf("failed to write %s", filepath.Base(filename)), err)
	}
	return files, nil
}

func saveExcel(filename string, doc Document) error {
	wb, err := NewWorkbook()
	if err != nil {
		return err
	}
	if err := wb.Add(doc); err != nil {
		wb.Close()
		return err
	}
	return wb.SaveAs(filename)
}

func saveCSV(filename string, doc Document) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if doc.Delimiter != 0 {
		w.Comma = doc.Delimiter
	}

	if err := w.Write(doc.Translation.Headers); err != nil {
		return err
	}
	for _, row := range doc.Result.Rows {
		record := []string{
			row.Label,
			formatFloat(row.Precision),
			formatFloat(row.Recall),
			formatFloat(row.F1),
			formatFloat(row.Accuracy),
			formatFloat(row.Kappa),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

// Report is the JSON form of a document.
type Report struct {
	File            string             `json:"file"`
	Classes         []string           `json:"classes"`
	Headers         []string           `json:"headers"`
	ConfusionMatrix [][]int            `json:"confusion_matrix"`
	Metrics         []models.MetricRow `json:"metrics"`
}

// NewReport builds the JSON form of a document.
func NewReport(doc Document) Report {
	classes := make([]string, len(doc.Result.Classes))
	for i, c := range doc.Result.Classes {
		classes[i] = c.Name
	}
	return Report{
		File:            doc.Stem,
		Classes:         classes,
		Headers:         doc.Translation.Headers,
		ConfusionMatrix: doc.Result.Matrix.Cells,
		Metrics:         doc.Result.Rows,
	}
}

func saveJSON(filename string, doc Document) error {
	data, err := json.MarshalIndent(NewReport(doc), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
