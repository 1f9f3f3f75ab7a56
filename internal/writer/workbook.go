package writer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is Excel's limit on sheet name length.
const maxSheetName = 31

// Workbook collects the sheets of one or more documents into a single xlsx
// file. It is not safe for concurrent use.
type Workbook struct {
	file   *excelize.File
	sheets map[string]bool
	fresh  bool
	bold   int
}

func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Workbook{
		file:   f,
		sheets: make(map[string]bool),
		fresh:  true,
		bold:   bold,
	}, nil
}

// Add writes the metrics sheet and the data sheet of a document.
func (w *Workbook) Add(doc Document) error {
	metricsSheet, err := w.newSheet(doc.Translation.MetricsSheet + "_" + doc.Stem)
	if err != nil {
		return err
	}

	if err := w.writeRow(metricsSheet, 1, stringsToRow(doc.Translation.Headers)); err != nil {
		return err
	}
	for i, row := range doc.Result.Rows {
		if err := w.writeRow(metricsSheet, i+2, row.Values()); err != nil {
			return err
		}
	}
	if err := w.styleHeader(metricsSheet, len(doc.Translation.Headers)); err != nil {
		return err
	}
	if err := w.file.SetColWidth(metricsSheet, "A", "A", 28); err != nil {
		return err
	}

	dataSheet, err := w.newSheet(doc.Translation.DataSheet + "_" + doc.Stem)
	if err != nil {
		return err
	}

	if err := w.writeRow(dataSheet, 1, stringsToRow(doc.Table.Columns)); err != nil {
		return err
	}
	for i, record := range doc.Table.Rows {
		row := make([]interface{}, len(record))
		for j, cell := range record {
			row[j] = cellValue(cell)
		}
		if err := w.writeRow(dataSheet, i+2, row); err != nil {
			return err
		}
	}
	return w.styleHeader(dataSheet, len(doc.Table.Columns))
}

// SaveAs writes the workbook to filename and releases it.
func (w *Workbook) SaveAs(filename string) error {
	defer w.file.Close()
	if w.fresh {
		return fmt.Errorf("workbook has no sheets")
	}
	return w.file.SaveAs(filename)
}

// Close releases the workbook without saving.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// SheetNames lists the sheets in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.file.GetSheetList()
}

func (w *Workbook) newSheet(name string) (string, error) {
	name = w.uniqueName(SheetName(name))

	if w.fresh {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return "", err
		}
		w.fresh = false
	} else if _, err := w.file.NewSheet(name); err != nil {
		return "", err
	}

	w.sheets[strings.ToLower(name)] = true
	return name, nil
}

func (w *Workbook) uniqueName(name string) string {
	if !w.sheets[strings.ToLower(name)] {
		return name
	}
	for n := 2; ; n++ {
		suffix := "~" + strconv.Itoa(n)
		candidate := clip(name, maxSheetName-utf8.RuneCountInString(suffix)) + suffix
		if !w.sheets[strings.ToLower(candidate)] {
			return candidate
		}
	}
}

func (w *Workbook) writeRow(sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return w.file.SetSheetRow(sheet, cell, &values)
}

func (w *Workbook) styleHeader(sheet string, columns int) error {
	if columns == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	return w.file.SetCellStyle(sheet, "A1", last, w.bold)
}

// SheetName makes s usable as an Excel sheet name: forbidden characters are
// replaced and the name is clipped to 31 characters.
func SheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, s)
	s = strings.Trim(s, "'")
	if s == "" {
		s = "Sheet"
	}
	return clip(s, maxSheetName)
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func stringsToRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

// cellValue keeps the cell text but stores plain numbers as numbers so the
// data sheet stays usable in formulas.
func cellValue(s string) interface{} {
	if s == "" || (len(s) > 1 && s[0] == '0' && s[1] != '.') {
		return s
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if strings.ContainsAny(s, "nNiI") {
		return s
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
