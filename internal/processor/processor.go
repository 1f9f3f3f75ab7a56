package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Vitruves/metricalc/internal/loader"
	"github.com/Vitruves/metricalc/internal/locale"
	"github.com/Vitruves/metricalc/internal/logger"
	"github.com/Vitruves/metricalc/internal/metrics"
	"github.com/Vitruves/metricalc/internal/models"
	"github.com/Vitruves/metricalc/internal/progress"
	"github.com/Vitruves/metricalc/internal/utils"
	"github.com/Vitruves/metricalc/internal/writer"

	"github.com/remeh/sizedwaitgroup"
	"go.uber.org/multierr"
)

type Processor struct {
	config  *models.Config
	catalog *locale.Catalog
}

type Options struct {
	ShowProgress bool
	Verbose      bool
}

// Summary is the outcome of a batch run. Failures are listed in input order.
type Summary struct {
	Succeeded int
	Failures  []models.Failure
	Outputs   []string
	Duration  time.Duration
	errs      error
}

// Err returns every per-file failure combined into one error, or nil.
func (s *Summary) Err() error {
	return s.errs
}

func (s *Summary) fail(file string, err error) {
	s.Failures = append(s.Failures, models.Failure{File: file, Message: err.Error()})
	s.errs = multierr.Append(s.errs, fmt.Errorf("%s: %w", file, err))
}

func New(config *models.Config) *Processor {
	return &Processor{
		config:  config,
		catalog: locale.New(config.Labels),
	}
}

// Catalog exposes the translations the processor resolves labels with.
func (p *Processor) Catalog() *locale.Catalog {
	return p.catalog
}

// Compute loads one input table and runs the metrics pipeline on it.
func (p *Processor) Compute(input string) (writer.Document, error) {
	table, err := loader.LoadTable(input, p.delimiter())
	if err != nil {
		return writer.Document{}, err
	}
	logger.DebugTable(input, table.Columns, len(table.Rows))

	tr, err := p.catalog.Lookup(p.config.Language)
	if err != nil {
		return writer.Document{}, err
	}
	if tr.Headers, err = p.catalog.Headers(p.config.Language); err != nil {
		return writer.Document{}, err
	}

	result, err := metrics.Compute(table, p.config.Language, p.catalog)
	if err != nil {
		return writer.Document{}, err
	}

	if logger.IsVerbose() {
		labels := make([]string, len(result.Classes))
		for i, c := range result.Classes {
			labels[i] = c.Prefix()
		}
		logger.DebugMatrix(labels, result.Matrix.Cells)
	}

	return writer.Document{
		Stem:        utils.Stem(input),
		Table:       table,
		Result:      result,
		Translation: tr,
		Delimiter:   p.delimiter(),
	}, nil
}

// ProcessFile computes one input and writes it with Write. The computed
// document is returned for display along with the files written.
func (p *Processor) ProcessFile(ctx context.Context, input, output string) (writer.Document, []string, error) {
	if err := ctx.Err(); err != nil {
		return writer.Document{}, nil, err
	}

	doc, err := p.Compute(input)
	if err != nil {
		return writer.Document{}, nil, err
	}

	outputs, err := p.Write(doc, output)
	if err != nil {
		return doc, nil, err
	}
	return doc, outputs, nil
}

// Write saves doc. An empty output writes into the configured output
// directory; otherwise the extension of output picks the format when it
// names a supported one.
func (p *Processor) Write(doc writer.Document, output string) ([]string, error) {
	if output == "" {
		return writer.Save(p.config.Output.Format, p.config.Output.Directory, doc)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return nil, models.IOError("failed to create output directory", err)
	}
	return writer.SaveAs(formatFor(output, p.config.Output.Format), output, doc)
}

type fileResult struct {
	doc     writer.Document
	outputs []string
	err     error
}

// Run processes every input with at most Processing.Workers files in flight.
// A failing file never stops the others; the returned error is reserved for
// problems that make the whole run impossible.
func (p *Processor) Run(ctx context.Context, inputs []string, opts Options) (*Summary, error) {
	start := time.Now()
	combined := p.config.Output.Mode == models.ModeCombined

	if combined && p.config.Output.Format != "xlsx" {
		return nil, models.ConfigErrorf("combined mode requires xlsx output, got %s", p.config.Output.Format)
	}

	logger.Info("Starting processing: %d files, %d workers, %s mode", len(inputs), p.config.Processing.Workers, p.config.Output.Mode)

	var prog *progress.Progress
	if opts.ShowProgress && len(inputs) > 0 {
		prog = progress.New(len(inputs))
		prog.Start()
		defer prog.Stop()
	}

	stems := p.outputStems(inputs)
	results := make([]fileResult, len(inputs))
	swg := sizedwaitgroup.New(p.config.Processing.Workers)

	for i, input := range inputs {
		if err := swg.AddWithContext(ctx); err != nil {
			for j := i; j < len(inputs); j++ {
				results[j].err = err
			}
			break
		}

		go func(i int, input string) {
			defer swg.Done()

			res := p.runOne(ctx, input, stems[i], combined)
			results[i] = res

			if prog != nil {
				if res.err != nil && opts.Verbose {
					prog.LogMessage(fmt.Sprintf("%s: %v", filepath.Base(input), res.err))
				}
				prog.Increment(res.err != nil)
			} else if res.err != nil {
				logger.Debug("%s failed: %v", input, res.err)
			} else {
				logger.Debug("%s done", input)
			}
		}(i, input)
	}
	swg.Wait()

	summary := &Summary{}
	for i, res := range results {
		if res.err != nil {
			summary.fail(inputs[i], res.err)
			continue
		}
		summary.Succeeded++
		summary.Outputs = append(summary.Outputs, res.outputs...)
	}

	if combined && summary.Succeeded > 0 {
		p.saveCombined(results, summary)
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

func (p *Processor) runOne(ctx context.Context, input, stem string, combined bool) fileResult {
	if err := ctx.Err(); err != nil {
		return fileResult{err: err}
	}

	doc, err := p.Compute(input)
	if err != nil {
		return fileResult{err: err}
	}
	doc.Stem = stem
	if combined {
		return fileResult{doc: doc}
	}

	outputs, err := writer.Save(p.config.Output.Format, p.config.Output.Directory, doc)
	return fileResult{doc: doc, outputs: outputs, err: err}
}

// saveCombined adds the successful documents to one workbook in input order.
func (p *Processor) saveCombined(results []fileResult, summary *Summary) {
	filename := p.combinedPath()

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		summary.fail(filename, models.IOError("failed to create output directory", err))
		return
	}

	wb, err := writer.NewWorkbook()
	if err != nil {
		summary.fail(filename, err)
		return
	}

	for _, res := range results {
		if res.err != nil {
			continue
		}
		if err := wb.Add(res.doc); err != nil {
			wb.Close()
			summary.fail(filename, err)
			return
		}
	}

	logger.Debug("Combined workbook sheets: %v", wb.SheetNames())
	if err := wb.SaveAs(filename); err != nil {
		summary.fail(filename, models.IOError("failed to write combined workbook", err))
		return
	}
	summary.Outputs = append(summary.Outputs, filename)
}

// outputStems assigns every input a stem whose output files no earlier
// input writes. Names are compared case-insensitively; a taken stem gets a
// "~N" suffix, so plot.csv and plot.txt become plot and plot~2.
func (p *Processor) outputStems(inputs []string) []string {
	taken := make(map[string]bool)
	stems := make([]string, len(inputs))

	for i, input := range inputs {
		base := utils.Stem(input)
		stem := base
		for n := 2; p.collides(stem, taken); n++ {
			stem = base + "~" + strconv.Itoa(n)
		}
		if stem != base {
			logger.Warning("%s: output name %q already used, writing as %q", input, base, stem)
		}

		for _, f := range p.outputFiles(stem) {
			taken[strings.ToLower(f)] = true
		}
		stems[i] = stem
	}
	return stems
}

func (p *Processor) collides(stem string, taken map[string]bool) bool {
	for _, f := range p.outputFiles(stem) {
		if taken[strings.ToLower(f)] {
			return true
		}
	}
	return false
}

func (p *Processor) outputFiles(stem string) []string {
	format := p.config.Output.Format
	return writer.OutputFiles(format, filepath.Join(p.config.Output.Directory, stem+writer.Extension(format)))
}

func (p *Processor) combinedPath() string {
	name := p.config.Output.CombinedFile
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.config.Output.Directory, name)
}

func (p *Processor) delimiter() rune {
	r, _ := utf8.DecodeRuneInString(p.config.Input.Delimiter)
	return r
}

func formatFor(output, fallback string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
	switch ext {
	case "xlsx", "csv", "json", "parquet":
		return ext
	}
	return fallback
}

// DiscoverInputs lists the files in dir whose extension is one of exts,
// sorted by name. Subdirectories are not searched.
func DiscoverInputs(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, models.IOError(fmt.Sprintf("failed to read input directory %s", dir), err)
	}

	var inputs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if utils.HasExtension(e.Name(), exts) {
			inputs = append(inputs, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(inputs)
	return inputs, nil
}
