package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/connascence-tools/conscan/app"
	"github.com/connascence-tools/conscan/domain"
)

var (
	analyzeOutputFormat  string
	analyzeJSONOutput    bool
	analyzeOutputPath    string
	analyzeMinSeverity   string
	analyzeSortBy        string
	analyzeDetectors     []string
	analyzeNoConnascence bool
	analyzeNoNasa        bool
	analyzeNoGodObject   bool
	analyzeNoTheater     bool
	analyzePreset        string
	analyzeConfigPath    string
	analyzeShowContext   bool
	analyzeInclude       []string
	analyzeExclude       []string
	analyzeNonRecursive  bool
	analyzeNoProgress    bool
	analyzeVerbose       bool
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [path...]",
		Short: "Analyze Python files for connascence and quality violations",
		Long: `Analyze Python files for connascence, NASA Power of Ten rule violations,
god objects, and quality theater.

Examples:
  conscan analyze src/
  conscan analyze --min-severity high src/
  conscan analyze --detectors position,meaning --json src/
  conscan analyze --preset strict --format yaml src/
  conscan analyze --no-nasa --output report.json --format json src/`,
		RunE: runAnalyze,
	}

	cmd.Flags().StringVarP(&analyzeOutputFormat, "format", "f", "text",
		"Output format: text, json, yaml")
	cmd.Flags().BoolVar(&analyzeJSONOutput, "json", false,
		"Output results as JSON (shorthand for --format json)")
	cmd.Flags().StringVarP(&analyzeOutputPath, "output", "o", "",
		"Output file path (default: stdout)")
	cmd.Flags().StringVar(&analyzeMinSeverity, "min-severity", "low",
		"Lowest severity to report: low, medium, high, critical")
	cmd.Flags().StringVar(&analyzeSortBy, "sort", "severity",
		"Violation ordering: severity, weight, location, type")
	cmd.Flags().StringSliceVarP(&analyzeDetectors, "detectors", "d", nil,
		"Connascence detectors to run (comma-separated, default: all)")
	cmd.Flags().BoolVar(&analyzeNoConnascence, "no-connascence", false,
		"Skip connascence detection")
	cmd.Flags().BoolVar(&analyzeNoNasa, "no-nasa", false,
		"Skip NASA Power of Ten rule checks")
	cmd.Flags().BoolVar(&analyzeNoGodObject, "no-god-object", false,
		"Skip god object analysis")
	cmd.Flags().BoolVar(&analyzeNoTheater, "no-theater", false,
		"Skip quality theater detection")
	cmd.Flags().StringVar(&analyzePreset, "preset", "",
		"Policy preset: strict, balanced, relaxed (overrides configured thresholds)")
	cmd.Flags().StringVarP(&analyzeConfigPath, "config", "c", "",
		"Path to config file")
	cmd.Flags().BoolVar(&analyzeShowContext, "show-context", false,
		"Include per-violation context details in the report")
	cmd.Flags().StringSliceVar(&analyzeInclude, "include", nil,
		"File patterns to include (glob)")
	cmd.Flags().StringSliceVar(&analyzeExclude, "exclude", nil,
		"File patterns to exclude (glob)")
	cmd.Flags().BoolVar(&analyzeNonRecursive, "non-recursive", false,
		"Do not descend into subdirectories")
	cmd.Flags().BoolVar(&analyzeNoProgress, "no-progress", false,
		"Disable progress bars")
	cmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false,
		"Enable verbose analysis logging")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no paths specified")
	}

	// Only explicitly set flags become overrides; everything else defers to
	// the configuration file
	cfg := app.AnalyzeConfig{
		ConfigPath:      analyzeConfigPath,
		OutputPath:      analyzeOutputPath,
		ShowContext:     analyzeShowContext,
		Detectors:       analyzeDetectors,
		NoConnascence:   analyzeNoConnascence,
		NoNasa:          analyzeNoNasa,
		NoGodObject:     analyzeNoGodObject,
		NoTheater:       analyzeNoTheater,
		IncludePatterns: analyzeInclude,
		ExcludePatterns: analyzeExclude,
		NonRecursive:    analyzeNonRecursive,
		NoProgress:      analyzeNoProgress,
	}
	if cmd.Flags().Changed("format") {
		cfg.OutputFormat = analyzeOutputFormat
	}
	if analyzeJSONOutput {
		cfg.OutputFormat = string(domain.OutputFormatJSON)
	}
	if cmd.Flags().Changed("min-severity") {
		cfg.MinSeverity = analyzeMinSeverity
	}
	if cmd.Flags().Changed("sort") {
		cfg.SortBy = analyzeSortBy
	}
	if cmd.Flags().Changed("preset") {
		cfg.Preset = analyzePreset
		cfg.PresetExplicit = true
	}

	builder := app.NewAnalyzeUseCaseBuilder()
	if analyzeVerbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()
		builder = builder.WithLogger(logger)
	}
	uc, err := builder.Build()
	if err != nil {
		return err
	}

	result, err := uc.Execute(context.Background(), cfg, args)
	if err != nil {
		return err
	}
	if err := uc.WriteReport(result); err != nil {
		return err
	}

	if cfg.OutputPath != "" {
		displayPath := cfg.OutputPath
		if absPath, err := filepath.Abs(cfg.OutputPath); err == nil {
			displayPath = absPath
		}
		fmt.Printf("Report saved to: %s\n", displayPath)
	}

	return nil
}
