package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Vitruves/metricalc/internal/models"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"
)

const utf8BOM = "\uFEFF"

// LoadTable reads a confusion table. Delimited text uses the given
// delimiter; xlsx and parquet files are read by format.
func LoadTable(filename string, delimiter rune) (*models.Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var table *models.Table
	var err error
	switch ext {
	case ".csv", ".txt", ".tsv":
		table, err = loadCSV(filename, delimiter)
	case ".xlsx":
		table, err = loadExcel(filename)
	case ".parquet":
		table, err = loadParquet(filename)
	default:
		return nil, models.IOError(fmt.Sprintf("unsupported file format: %s", ext), nil)
	}
	if err != nil {
		return nil, err
	}

	if table.ColumnIndex(models.ClassValueColumn) < 0 {
		return nil, models.DataErrorf("%s: missing %s column", filepath.Base(filename), models.ClassValueColumn)
	}
	return table, nil
}

func loadCSV(filename string, delimiter rune) (*models.Table, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, models.IOError("failed to open input", err)
	}
	defer file.Close()

	return ReadCSV(file, delimiter)
}

// ReadCSV parses delimited text with a header row. Every record must have
// as many fields as the header.
func ReadCSV(r io.Reader, delimiter rune) (*models.Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, models.IOError("input is empty", nil)
		}
		return nil, models.IOError("failed to read CSV header", err)
	}

	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	}
	if len(headers) == 1 && !strings.ContainsRune(headers[0], delimiter) {
		return nil, models.IOError(fmt.Sprintf("header does not split on delimiter %q", string(delimiter)), nil)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	table := &models.Table{Columns: headers}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, models.IOError("malformed CSV", err)
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

func loadExcel(filename string) (*models.Table, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, models.IOError("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, models.IOError("no sheets found", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, models.IOError("failed to read sheet", err)
	}
	if len(rows) == 0 {
		return nil, models.IOError("sheet is empty", nil)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	table := &models.Table{Columns: headers}
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		// excelize drops trailing empty cells
		record := make([]string, len(headers))
		copy(record, row)
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

func loadParquet(filename string) (*models.Table, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, models.IOError("failed to open input", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, models.IOError("failed to stat input", err)
	}

	pf, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return nil, models.IOError("failed to open parquet file", err)
	}

	columns := pf.Schema().Columns()
	headers := make([]string, len(columns))
	for i, path := range columns {
		headers[i] = path[len(path)-1]
	}

	table := &models.Table{Columns: headers}
	for _, rowGroup := range pf.RowGroups() {
		rows := rowGroup.Rows()
		buf := make([]parquet.Row, rowGroup.NumRows())
		n, err := rows.ReadRows(buf)
		rows.Close()
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, models.IOError("failed to read parquet rows", err)
		}

		for _, row := range buf[:n] {
			record := make([]string, len(headers))
			row.Range(func(columnIndex int, values []parquet.Value) bool {
				if columnIndex < len(record) && len(values) > 0 {
					record[columnIndex] = parquetString(values[0])
				}
				return true
			})
			table.Rows = append(table.Rows, record)
		}
	}

	return table, nil
}

func parquetString(v parquet.Value) string {
	if v.IsNull() {
		return ""
	}
	switch v.Kind() {
	case parquet.Boolean:
		return strconv.FormatBool(v.Boolean())
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'f', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}
