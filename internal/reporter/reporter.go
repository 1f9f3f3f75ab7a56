package reporter

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Vitruves/metricalc/internal/models"
	"github.com/Vitruves/metricalc/internal/utils"
	"github.com/Vitruves/metricalc/internal/writer"

	"github.com/fatih/color"
)

var (
	colorTitle  = color.New(color.FgMagenta, color.Bold, color.Underline)
	colorHeader = color.New(color.FgCyan, color.Bold)
	colorAvg    = color.New(color.FgHiGreen)
	colorFailed = color.New(color.FgRed, color.Bold)
)

// Reporter renders one computed document for the terminal.
type Reporter struct {
	doc writer.Document
}

func New(doc writer.Document) *Reporter {
	return &Reporter{doc: doc}
}

func (r *Reporter) GenerateText() string {
	var report strings.Builder

	r.writeHeader(&report)
	r.writeConfusionMatrix(&report)
	r.writeMetrics(&report)

	return report.String()
}

func (r *Reporter) GenerateJSON() (string, error) {
	data, err := json.MarshalIndent(writer.NewReport(r.doc), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveToFile writes the text or JSON rendering to filename.
func (r *Reporter) SaveToFile(filename, format string) error {
	var content string
	switch format {
	case "json":
		var err error
		if content, err = r.GenerateJSON(); err != nil {
			return err
		}
	case "text", "":
		noColor := color.NoColor
		color.NoColor = true
		content = r.GenerateText()
		color.NoColor = noColor
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
	return os.WriteFile(filename, []byte(content), 0644)
}

func (r *Reporter) writeHeader(report *strings.Builder) {
	report.WriteString(colorTitle.Sprintf("Metrics: %s", r.doc.Stem))
	report.WriteString("\n\n")
}

func (r *Reporter) writeConfusionMatrix(report *strings.Builder) {
	res := r.doc.Result
	header := []string{""}
	for _, c := range res.Classes {
		header = append(header, c.Prefix())
	}

	rows := [][]string{header}
	for i, cells := range res.Matrix.Cells {
		row := []string{res.Classes[i].Prefix()}
		for _, n := range cells {
			row = append(row, strconv.Itoa(n))
		}
		rows = append(rows, row)
	}

	report.WriteString(colorHeader.Sprint("Confusion matrix (rows = true, columns = predicted)"))
	report.WriteString("\n")
	writeGrid(report, rows, false)
	report.WriteString("\n")
}

func (r *Reporter) writeMetrics(report *strings.Builder) {
	rows := [][]string{r.doc.Translation.Headers}
	for _, m := range r.doc.Result.Rows {
		rows = append(rows, []string{
			m.Label,
			formatMetric(m.Precision),
			formatMetric(m.Recall),
			formatMetric(m.F1),
			formatMetric(m.Accuracy),
			formatMetric(m.Kappa),
		})
	}
	writeGrid(report, rows, true)
}

// writeGrid prints rows as left-aligned columns; the first row is the header.
func writeGrid(report *strings.Builder, rows [][]string, highlightLast bool) {
	widths := make([]int, 0)
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	for ri, row := range rows {
		var line strings.Builder
		for i, cell := range row {
			line.WriteString(cell)
			if i < len(row)-1 {
				line.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)+2))
			}
		}

		text := line.String()
		switch {
		case ri == 0:
			text = colorHeader.Sprint(text)
		case highlightLast && ri == len(rows)-1:
			text = colorAvg.Sprint(text)
		}
		report.WriteString("  ")
		report.WriteString(text)
		report.WriteString("\n")
	}
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// maxMessage bounds one failure line in the batch summary.
const maxMessage = 120

// GenerateSummary renders the outcome of a batch run.
func GenerateSummary(succeeded int, failures []models.Failure, outputs []string) string {
	var report strings.Builder
	total := succeeded + len(failures)

	report.WriteString(colorTitle.Sprint("Batch summary"))
	report.WriteString("\n")
	fmt.Fprintf(&report, "  Processed: %d (%.1f%%)\n", succeeded, utils.CalculatePercentage(succeeded, total))
	fmt.Fprintf(&report, "  Failed:    %d\n", len(failures))

	if len(outputs) > 0 {
		report.WriteString("  Written:\n")
		for _, o := range outputs {
			fmt.Fprintf(&report, "    %s\n", o)
		}
	}

	if len(failures) > 0 {
		report.WriteString(colorFailed.Sprint("  Errors:"))
		report.WriteString("\n")
		for _, f := range failures {
			fmt.Fprintf(&report, "    %s: %s\n", f.File, utils.TruncateString(f.Message, maxMessage))
		}
	}

	return report.String()
}
