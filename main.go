package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/Vitruves/metricalc/internal/cli"
	"github.com/Vitruves/metricalc/internal/config"
	"github.com/Vitruves/metricalc/internal/logger"
	"github.com/Vitruves/metricalc/internal/models"
	"github.com/Vitruves/metricalc/internal/processor"
	"github.com/Vitruves/metricalc/internal/reporter"
	"github.com/Vitruves/metricalc/internal/utils"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		cli.PrintError("%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "metricalc",
		Short: color.New(color.FgCyan, color.Bold).Sprint("Classification metrics from confusion-matrix tables"),
		Long: color.New(color.FgHiBlue, color.Bold).Sprint("metricalc") +
			color.New(color.FgWhite).Sprint(" - Classification metrics from confusion-matrix tables\n\n") +
			color.New(color.FgGreen, color.Bold).Sprint("Features:\n") +
			color.New(color.FgYellow).Sprint("• Precision, recall, F1 per class with macro average\n") +
			color.New(color.FgYellow).Sprint("• Overall accuracy and Cohen's kappa\n") +
			color.New(color.FgYellow).Sprint("• Localized class names and headers (cs, en, custom)\n") +
			color.New(color.FgYellow).Sprint("• Batch processing with separate or combined workbooks\n") +
			color.New(color.FgYellow).Sprint("• Output as Excel, CSV, JSON or Parquet"),
		Version:       version,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				cli.SetColorEnabled(false)
			}
			if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
				logger.SetLevel(logger.WARNING)
			}
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				logger.SetVerbose(true)
				logger.DebugSystem()
			}
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load .env: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "config.yaml", "Configuration file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only print warnings and errors")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(newComputeCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLanguagesCmd())

	return rootCmd
}

func newComputeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compute",
		Short: color.New(color.FgGreen, color.Bold).Sprint("Compute metrics for one confusion-matrix table"),
		Long: color.New(color.FgHiBlue, color.Bold).Sprint("Compute metrics for one table and write them with the raw data\n\n") +
			color.New(color.FgMagenta, color.Bold).Sprint("Examples:\n") +
			color.New(color.FgYellow).Sprint("  metricalc compute -i plot_12.csv\n") +
			color.New(color.FgYellow).Sprint("  metricalc compute -i plot_12.csv -o results/plot_12.xlsx -l en\n") +
			color.New(color.FgYellow).Sprint("  metricalc compute -i plot_12.csv --format json --delimiter ','"),
		RunE: runCompute,
	}

	cmd.Flags().StringP("input", "i", "", "Input table (CSV/TXT/TSV/Excel/Parquet)")
	cmd.Flags().StringP("output", "o", "", "Output file (default: <output dir>/<input name>.<format>)")
	addOverrideFlags(cmd)
	cmd.Flags().Bool("print", true, "Print the metric rows")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: color.New(color.FgGreen, color.Bold).Sprint("Compute metrics for every table in a directory"),
		Long: color.New(color.FgHiBlue, color.Bold).Sprint("Process a directory of tables; one failing file never stops the rest\n\n") +
			color.New(color.FgMagenta, color.Bold).Sprint("Output modes:\n") +
			color.New(color.FgCyan).Sprint("• separate - one output per input file\n") +
			color.New(color.FgCyan).Sprint("• combined - one workbook with a sheet pair per input file\n\n") +
			color.New(color.FgMagenta, color.Bold).Sprint("Examples:\n") +
			color.New(color.FgYellow).Sprint("  metricalc batch -i tables/ -o results/\n") +
			color.New(color.FgYellow).Sprint("  metricalc batch -i tables/ --mode combined --combined-file season.xlsx -w 8"),
		RunE: runBatch,
	}

	cmd.Flags().StringP("input", "i", "", "Input directory")
	cmd.Flags().StringP("output", "o", "", "Output directory (overrides config)")
	addOverrideFlags(cmd)
	cmd.Flags().String("mode", "", "Output mode: separate, combined (overrides config)")
	cmd.Flags().String("combined-file", "", "Workbook name in combined mode (overrides config)")
	cmd.Flags().IntP("workers", "w", 0, "Number of workers (overrides config)")
	cmd.Flags().StringSlice("ext", nil, "Input extensions (overrides config)")
	cmd.Flags().Bool("progress", true, "Show progress bar")
	markOverrides(cmd, "mode", "combined-file", "workers", "ext")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: color.New(color.FgMagenta, color.Bold).Sprint("Print the metrics of a table without writing files"),
		RunE:  runShow,
	}

	cmd.Flags().StringP("input", "i", "", "Input table")
	cmd.Flags().String("format", "text", "Output format (text/json)")
	cmd.Flags().StringP("output", "o", "", "Save the rendering to a file instead of printing it")
	cmd.Flags().StringP("language", "l", "", "Language for class names and headers (overrides config)")
	cmd.Flags().String("delimiter", "", "Input delimiter (overrides config)")
	markOverrides(cmd, "language", "delimiter")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func newConfigCmd() *cobra.Command {
	var configCmd = &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
		Long:  "Print the effective configuration or validate a configuration file",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE:  runConfigShow,
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigValidate,
	})

	return configCmd
}

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the available languages and their class names",
		RunE:  runLanguages,
	}
}

// overrideAnnotation marks flags whose value replaces a config key.
const overrideAnnotation = "config-override"

// addOverrideFlags registers the flags shared by compute and batch.
func addOverrideFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("language", "l", "", "Language for class names and headers (overrides config)")
	cmd.Flags().String("format", "", "Output format: xlsx, csv, json, parquet (overrides config)")
	cmd.Flags().String("delimiter", "", "Input delimiter (overrides config)")
	markOverrides(cmd, "language", "format", "delimiter")
}

func markOverrides(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		_ = cmd.Flags().SetAnnotation(name, overrideAnnotation, []string{"true"})
	}
}

func isOverride(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Annotations[overrideAnnotation] != nil
}

// loadConfig reads the config named by --config, applies the flag overrides
// present on cmd and validates the result.
func loadConfig(cmd *cobra.Command) (*models.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadOrDefault(configFile, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	stringOverrides := map[string]*string{
		"language":      &cfg.Language,
		"format":        &cfg.Output.Format,
		"delimiter":     &cfg.Input.Delimiter,
		"mode":          &cfg.Output.Mode,
		"combined-file": &cfg.Output.CombinedFile,
	}
	for name, target := range stringOverrides {
		if !isOverride(cmd, name) {
			continue
		}
		if v, _ := cmd.Flags().GetString(name); v != "" {
			*target = v
		}
	}

	if isOverride(cmd, "workers") {
		if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
			cfg.Processing.Workers = workers
		}
	}
	if isOverride(cmd, "ext") {
		if exts, _ := cmd.Flags().GetStringSlice("ext"); len(exts) > 0 {
			cfg.Input.Extensions = exts
		}
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logger.DebugConfig(*cfg)
	return cfg, nil
}

func runCompute(cmd *cobra.Command, args []string) error {
	inputFile, _ := cmd.Flags().GetString("input")
	outputFile, _ := cmd.Flags().GetString("output")
	printRows, _ := cmd.Flags().GetBool("print")

	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputFile)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli.PrintInfo("Computing metrics: %s", inputFile)
	doc, outputs, err := processor.New(cfg).ProcessFile(ctx, inputFile, outputFile)
	if err != nil {
		return fmt.Errorf("%s: %w", inputFile, err)
	}

	if printRows {
		fmt.Print(reporter.New(doc).GenerateText())
	}
	for _, o := range outputs {
		cli.PrintSuccess("Written: %s", o)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	inputDir, _ := cmd.Flags().GetString("input")
	outputDir, _ := cmd.Flags().GetString("output")
	showProgress, _ := cmd.Flags().GetBool("progress")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if outputDir != "" {
		cfg.Output.Directory = outputDir
	}
	cmd.SilenceUsage = true

	inputs, err := processor.DiscoverInputs(inputDir, cfg.Input.Extensions)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		cli.PrintWarning("No files matching %v in %s", cfg.Input.Extensions, inputDir)
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	summary, err := processor.New(cfg).Run(ctx, inputs, processor.Options{
		ShowProgress: showProgress,
		Verbose:      verbose,
	})
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	fmt.Print(reporter.GenerateSummary(summary.Succeeded, summary.Failures, summary.Outputs))
	logger.Info("Finished in %s", utils.FormatDuration(summary.Duration))

	if err := summary.Err(); err != nil {
		cli.PrintFailures(summary.Failures)
		return fmt.Errorf("%d of %d files failed", len(multierr.Errors(err)), len(inputs))
	}

	cli.PrintSuccess("All %d files processed", summary.Succeeded)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	inputFile, _ := cmd.Flags().GetString("input")
	format, _ := cmd.Flags().GetString("format")
	outputFile, _ := cmd.Flags().GetString("output")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	doc, err := processor.New(cfg).Compute(inputFile)
	if err != nil {
		return fmt.Errorf("%s: %w", inputFile, err)
	}
	rep := reporter.New(doc)

	if outputFile != "" {
		if err := rep.SaveToFile(outputFile, format); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		cli.PrintSuccess("Report saved to: %s", outputFile)
		return nil
	}

	switch format {
	case "json":
		out, err := rep.GenerateJSON()
		if err != nil {
			return err
		}
		fmt.Println(out)
	case "text":
		fmt.Print(rep.GenerateText())
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	if len(args) == 1 {
		configFile = args[0]
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	cli.PrintSuccess("Configuration is valid: %s", configFile)
	printConfigSummary(cfg)
	return nil
}

func runLanguages(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	catalog := processor.New(cfg).Catalog()
	for _, lang := range catalog.Languages() {
		tr, err := catalog.Lookup(lang)
		if err != nil {
			return err
		}

		marker := ""
		if lang == cfg.Language {
			marker = color.New(color.FgGreen).Sprint(" (default)")
		}
		fmt.Printf("%s%s\n", color.New(color.FgCyan, color.Bold).Sprint(lang), marker)
		for i, name := range tr.ClassNames {
			fmt.Printf("  C_%d  %s\n", i+1, name)
		}
		fmt.Printf("  avg  %s\n", tr.Average)
	}
	return nil
}

func printConfigSummary(cfg *models.Config) {
	logger.Header("Configuration Summary")
	logger.Info("Language: %s", cfg.Language)
	logger.Info("Input: delimiter %q, extensions %v", cfg.Input.Delimiter, cfg.Input.Extensions)
	logger.Info("Output: %s format to %s (%s mode)", cfg.Output.Format, cfg.Output.Directory, cfg.Output.Mode)
	if cfg.Output.Mode == models.ModeCombined {
		logger.Info("Combined workbook: %s", cfg.Output.CombinedFile)
	}
	logger.Info("Workers: %d", cfg.Processing.Workers)
	if len(cfg.Labels) > 0 {
		logger.Info("Label overrides: %d languages", len(cfg.Labels))
	}
}
