package writer

import (
	"os"

	"github.com/Vitruves/metricalc/internal/models"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
	parquetgo "github.com/parquet-go/parquet-go"
)

// MetricRecord is the parquet layout of one metrics row.
type MetricRecord struct {
	Label     string  `parquet:"label"`
	Precision float64 `parquet:"precision"`
	Recall    float64 `parquet:"recall"`
	F1        float64 `parquet:"f1"`
	Accuracy  float64 `parquet:"accuracy"`
	Kappa     float64 `parquet:"kappa"`
}

func saveMetricsParquet(filename string, doc Document) error {
	records := make([]MetricRecord, len(doc.Result.Rows))
	for i, row := range doc.Result.Rows {
		records[i] = MetricRecord{
			Label:     row.Label,
			Precision: row.Precision,
			Recall:    row.Recall,
			F1:        row.F1,
			Accuracy:  row.Accuracy,
			Kappa:     row.Kappa,
		}
	}
	return parquetgo.WriteFile(filename, records)
}

// saveTableParquet writes the input table as-is. Column names are only known
// at runtime, so the schema is built with arrow; every column is a string.
func saveTableParquet(filename string, table *models.Table) error {
	fields := make([]arrow.Field, len(table.Columns))
	for i, name := range table.Columns {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	mem := memory.DefaultAllocator
	builders := make([]*array.StringBuilder, len(fields))
	for i := range builders {
		builders[i] = array.NewStringBuilder(mem)
		defer builders[i].Release()
	}

	for r := range table.Rows {
		for c, b := range builders {
			b.Append(table.Cell(r, c))
		}
	}

	columns := make([]arrow.Column, len(fields))
	for i, b := range builders {
		arr := b.NewArray()
		chunked := arrow.NewChunked(arr.DataType(), []arrow.Array{arr})
		arr.Release()
		columns[i] = *arrow.NewColumn(fields[i], chunked)
		chunked.Release()
	}

	tbl := array.NewTable(schema, columns, int64(len(table.Rows)))
	defer tbl.Release()
	for i := range columns {
		columns[i].Release()
	}

	out, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer out.Close()

	w, err := pqarrow.NewFileWriter(schema, out, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	if err != nil {
		return err
	}
	if err := w.WriteTable(tbl, max(int64(len(table.Rows)), 1)); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
