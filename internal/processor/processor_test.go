package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Vitruves/metricalc/internal/config"
	"github.com/Vitruves/metricalc/internal/models"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"
)

const goodTable = "OID;ClassValue;C_1 - unharvested crop;C_2 - harvested crop\n" +
	"0;C_1;8,0;2\n" +
	"1;C_2;1;9,0\n" +
	"2;Total;9;11\n"

const badTable = "OID;ClassValue;C_1;C_2\n0;Total;9;11\n"

func testConfig(t *testing.T, mode string) *models.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Language = "en"
	cfg.Output.Directory = filepath.Join(t.TempDir(), "out")
	cfg.Output.Mode = mode
	cfg.Processing.Workers = 2
	require.NoError(t, config.Validate(cfg))
	return cfg
}

func writeInputs(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestProcessFile(t *testing.T) {
	cfg := testConfig(t, models.ModeSeparate)
	dir := writeInputs(t, map[string]string{"plot.csv": goodTable})

	doc, outputs, err := New(cfg).ProcessFile(context.Background(), filepath.Join(dir, "plot.csv"), "")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(cfg.Output.Directory, "plot.xlsx")}, outputs)
	require.Equal(t, "plot", doc.Stem)
	require.Len(t, doc.Result.Rows, 3)

	f, err := excelize.OpenFile(outputs[0])
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{"Metrics_plot", "Data_plot"}, f.GetSheetList())

	v, err := f.GetCellValue("Metrics_plot", "B2")
	require.NoError(t, err)
	require.Equal(t, "0.889", v)
}

func TestProcessFileExplicitOutput(t *testing.T) {
	cfg := testConfig(t, models.ModeSeparate)
	dir := writeInputs(t, map[string]string{"plot.csv": goodTable})
	out := filepath.Join(t.TempDir(), "nested", "report.json")

	_, outputs, err := New(cfg).ProcessFile(context.Background(), filepath.Join(dir, "plot.csv"), out)
	require.NoError(t, err)
	require.Equal(t, []string{out}, outputs)
	require.FileExists(t, out)
}

func TestProcessFileErrors(t *testing.T) {
	cfg := testConfig(t, models.ModeSeparate)
	dir := writeInputs(t, map[string]string{"bad.csv": badTable})
	p := New(cfg)

	_, _, err := p.ProcessFile(context.Background(), filepath.Join(dir, "bad.csv"), "")
	require.ErrorIs(t, err, models.ErrData)

	_, _, err = p.ProcessFile(context.Background(), filepath.Join(dir, "missing.csv"), "")
	require.ErrorIs(t, err, models.ErrIO)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = p.ProcessFile(ctx, filepath.Join(dir, "bad.csv"), "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunSeparate(t *testing.T) {
	cfg := testConfig(t, models.ModeSeparate)
	dir := writeInputs(t, map[string]string{
		"a.csv": goodTable,
		"b.csv": badTable,
		"c.csv": goodTable,
	})
	inputs, err := DiscoverInputs(dir, cfg.Input.Extensions)
	require.NoError(t, err)

	summary, err := New(cfg).Run(context.Background(), inputs, Options{})
	require.NoError(t, err)

	require.Equal(t, 2, summary.Succeeded)
	require.Len(t, summary.Failures, 1)
	require.Equal(t, filepath.Join(dir, "b.csv"), summary.Failures[0].File)
	require.Contains(t, summary.Failures[0].Message, "no matching ClassValue rows")
	require.Equal(t, []string{
		filepath.Join(cfg.Output.Directory, "a.xlsx"),
		filepath.Join(cfg.Output.Directory, "c.xlsx"),
	}, summary.Outputs)

	require.ErrorIs(t, summary.Err(), models.ErrData)
	require.Len(t, multierr.Errors(summary.Err()), 1)
}

func TestRunSeparateDuplicateStem(t *testing.T) {
	cfg := testConfig(t, models.ModeSeparate)
	cfg.Input.Extensions = []string{".csv", ".txt"}
	dir := writeInputs(t, map[string]string{
		"plot.csv": goodTable,
		"plot.txt": strings.Replace(goodTable, "0;C_1;8,0;2", "0;C_1;7;3", 1),
	})
	inputs, err := DiscoverInputs(dir, cfg.Input.Extensions)
	require.NoError(t, err)

	summary, err := New(cfg).Run(context.Background(), inputs, Options{})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Succeeded)
	require.Empty(t, summary.Failures)

	first := filepath.Join(cfg.Output.Directory, "plot.xlsx")
	second := filepath.Join(cfg.Output.Directory, "plot~2.xlsx")
	require.Equal(t, []string{first, second}, summary.Outputs)

	precision := func(filename, sheet string) string {
		f, err := excelize.OpenFile(filename)
		require.NoError(t, err)
		defer f.Close()
		v, err := f.GetCellValue(sheet, "C2")
		require.NoError(t, err)
		return v
	}
	require.Equal(t, "0.8", precision(first, "Metrics_plot"))
	require.Equal(t, "0.7", precision(second, "Metrics_plot~2"))
}

func TestOutputStems(t *testing.T) {
	tests := []struct {
		name   string
		format string
		inputs []string
		want   []string
	}{
		{"distinct", "xlsx", []string{"a.csv", "b.csv"}, []string{"a", "b"}},
		{"same stem", "xlsx", []string{"in/plot.csv", "in/plot.txt", "in/plot.tsv"}, []string{"plot", "plot~2", "plot~3"}},
		{"case only", "csv", []string{"Plot.csv", "plot.csv"}, []string{"Plot", "plot~2"}},
		{"parquet data file", "parquet", []string{"a.csv", "a_data.csv"}, []string{"a", "a_data~2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, models.ModeSeparate)
			cfg.Output.Format = tt.format
			require.Equal(t, tt.want, New(cfg).outputStems(tt.inputs))
		})
	}
}

func TestComputeRejectsIncompleteHeaders(t *testing.T) {
	cfg := testConfig(t, models.ModeSeparate)
	cfg.Labels = map[string]models.LabelConfig{"en": {Headers: []string{"Class", "P", "R"}}}
	dir := writeInputs(t, map[string]string{"plot.csv": goodTable})

	_, err := New(cfg).Compute(filepath.Join(dir, "plot.csv"))
	require.ErrorIs(t, err, models.ErrConfiguration)
}

func TestRunCombined(t *testing.T) {
	cfg := testConfig(t, models.ModeCombined)
	dir := writeInputs(t, map[string]string{
		"a.csv": goodTable,
		"b.csv": badTable,
		"c.csv": goodTable,
	})
	inputs, err := DiscoverInputs(dir, cfg.Input.Extensions)
	require.NoError(t, err)

	summary, err := New(cfg).Run(context.Background(), inputs, Options{})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Succeeded)
	require.Len(t, summary.Failures, 1)

	combined := filepath.Join(cfg.Output.Directory, cfg.Output.CombinedFile)
	require.Equal(t, []string{combined}, summary.Outputs)

	f, err := excelize.OpenFile(combined)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{"Metrics_a", "Data_a", "Metrics_c", "Data_c"}, f.GetSheetList())
}

func TestRunCombinedAllFailed(t *testing.T) {
	cfg := testConfig(t, models.ModeCombined)
	dir := writeInputs(t, map[string]string{"b.csv": badTable})

	summary, err := New(cfg).Run(context.Background(), []string{filepath.Join(dir, "b.csv")}, Options{})
	require.NoError(t, err)
	require.Zero(t, summary.Succeeded)
	require.Empty(t, summary.Outputs)
	require.NoFileExists(t, filepath.Join(cfg.Output.Directory, cfg.Output.CombinedFile))
}

func TestRunCombinedRequiresExcel(t *testing.T) {
	cfg := testConfig(t, models.ModeSeparate)
	cfg.Output.Mode = models.ModeCombined
	cfg.Output.Format = "csv"

	_, err := New(cfg).Run(context.Background(), nil, Options{})
	require.ErrorIs(t, err, models.ErrConfiguration)
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t, models.ModeSeparate)
	dir := writeInputs(t, map[string]string{"a.csv": goodTable, "c.csv": goodTable})
	inputs, err := DiscoverInputs(dir, cfg.Input.Extensions)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := New(cfg).Run(ctx, inputs, Options{})
	require.NoError(t, err)
	require.Zero(t, summary.Succeeded)
	require.Len(t, summary.Failures, 2)
	require.True(t, errors.Is(summary.Err(), context.Canceled))
}

func TestDiscoverInputs(t *testing.T) {
	dir := writeInputs(t, map[string]string{
		"b.csv":     goodTable,
		"a.CSV":     goodTable,
		"notes.txt": "x",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0755))

	inputs, err := DiscoverInputs(dir, []string{".csv"})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "a.CSV"), filepath.Join(dir, "b.csv")}, inputs)

	_, err = DiscoverInputs(filepath.Join(dir, "missing"), []string{".csv"})
	require.ErrorIs(t, err, models.ErrIO)
}

func TestFormatFor(t *testing.T) {
	tests := map[string]string{
		"out.xlsx":    "xlsx",
		"out.JSON":    "json",
		"out.parquet": "parquet",
		"out.dat":     "csv",
		"out":         "csv",
	}
	for output, expected := range tests {
		if got := formatFor(output, "csv"); got != expected {
			t.Errorf("formatFor(%q) = %q, want %q", output, got, expected)
		}
	}
}
