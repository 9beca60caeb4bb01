package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/connascence-tools/conscan/app"
	"github.com/connascence-tools/conscan/domain"
)

// CheckExitError is a custom error type for check command exit codes
type CheckExitError struct {
	Code    int
	Message string
}

func (e *CheckExitError) Error() string {
	return e.Message
}

var (
	checkMaxCritical   int
	checkMaxHigh       int
	checkMinCompliance float64
	checkMaxWeight     float64
	checkMaxGodObjects int
	checkNoNasa        bool
	checkNoGodObject   bool
	checkNoTheater     bool
	checkPreset        string
	checkVerbose       bool
	checkJSON          bool
	checkConfigPath    string
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Fast quality gate for CI/CD pipelines",
		Long: `Run the full analysis and evaluate the results against quality gate
thresholds for CI/CD integration.

Exit codes:
  0 - All gates pass
  1 - Quality gate(s) violated
  2 - Analysis error (file not found, parse error, etc.)

Examples:
  # Basic check with defaults
  conscan check src/

  # Tolerate a few high severity violations
  conscan check --max-high 25 src/

  # Require a minimum NASA compliance score
  conscan check --min-compliance 80 src/

  # Enforce the strict preset and a weight budget
  conscan check --preset strict --max-weight 500 src/

  # JSON output for machine parsing
  conscan check --json src/`,
		RunE:          runCheck,
		SilenceUsage:  true, // Don't print usage on errors (we handle our own output)
		SilenceErrors: true, // Don't print error messages (we handle our own output)
	}

	cmd.Flags().IntVar(&checkMaxCritical, "max-critical", 0,
		"Maximum allowed critical violations")
	cmd.Flags().IntVar(&checkMaxHigh, "max-high", 10,
		"Maximum allowed high severity violations")
	cmd.Flags().Float64Var(&checkMinCompliance, "min-compliance", 0,
		"Minimum NASA Power of Ten compliance score, 0-100 (0 = not enforced)")
	cmd.Flags().Float64Var(&checkMaxWeight, "max-weight", 0,
		"Maximum total violation weight (0 = not enforced)")
	cmd.Flags().IntVar(&checkMaxGodObjects, "max-god-objects", 0,
		"Maximum allowed god objects")
	cmd.Flags().BoolVar(&checkNoNasa, "no-nasa", false,
		"Skip NASA Power of Ten rule checks")
	cmd.Flags().BoolVar(&checkNoGodObject, "no-god-object", false,
		"Skip god object analysis")
	cmd.Flags().BoolVar(&checkNoTheater, "no-theater", false,
		"Skip quality theater detection")
	cmd.Flags().StringVar(&checkPreset, "preset", "",
		"Policy preset: strict, balanced, relaxed (overrides configured thresholds)")
	cmd.Flags().BoolVarP(&checkVerbose, "verbose", "v", false,
		"Show detailed output")
	cmd.Flags().BoolVar(&checkJSON, "json", false,
		"Output results as JSON")
	cmd.Flags().StringVarP(&checkConfigPath, "config", "c", "",
		"Path to config file")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return &CheckExitError{Code: 2, Message: "no paths specified"}
	}

	cfg := app.DefaultCheckConfig()
	cfg.MaxCritical = checkMaxCritical
	cfg.MaxHigh = checkMaxHigh
	cfg.MinCompliance = checkMinCompliance
	cfg.MaxTotalWeight = checkMaxWeight
	cfg.MaxGodObjects = checkMaxGodObjects
	cfg.Analyze.ConfigPath = checkConfigPath
	cfg.Analyze.NoNasa = checkNoNasa
	cfg.Analyze.NoGodObject = checkNoGodObject
	cfg.Analyze.NoTheater = checkNoTheater
	// Progress bars would interleave with machine-readable output
	cfg.Analyze.NoProgress = checkJSON
	if cmd.Flags().Changed("preset") {
		cfg.Analyze.Preset = checkPreset
		cfg.Analyze.PresetExplicit = true
	}

	uc := app.NewCheckUseCase(nil)
	result, err := uc.Execute(context.Background(), cfg, args)
	if err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}

	return outputCheckResult(result)
}

func outputCheckResult(result *domain.CheckResult) error {
	if checkJSON {
		return outputCheckJSON(result)
	}
	return outputCheckText(result)
}

func outputCheckText(result *domain.CheckResult) error {
	if result.Passed {
		fmt.Println("PASS: All quality checks passed")
		if checkVerbose {
			fmt.Printf("  Files analyzed: %d\n", result.Summary.FilesAnalyzed)
			fmt.Printf("  Duration: %dms\n", result.Duration)
			if result.Summary.ConnascenceChecked {
				fmt.Printf("  Connascence: checked (critical: %d/%d, high: %d/%d)\n",
					result.Summary.CriticalViolations, checkMaxCritical,
					result.Summary.HighViolations, checkMaxHigh)
			}
			if result.Summary.NasaChecked {
				fmt.Printf("  NASA compliance: %.1f/100\n", result.Summary.NasaCompliance)
			}
			if result.Summary.GodObjectChecked {
				fmt.Printf("  God objects: %d\n", result.Summary.GodObjects)
			}
		}
		return nil
	}

	fmt.Println("FAIL: Quality check failed")
	fmt.Printf("  Violations: %d\n", result.Summary.TotalViolations)

	// Print violations
	for _, v := range result.Violations {
		severity := "ERROR"
		if v.Severity == "warning" {
			severity = "WARN"
		}
		fmt.Printf("  [%s] %s: %s\n", severity, v.Category, v.Message)
		if checkVerbose && v.Location != "" {
			fmt.Printf("         at %s\n", v.Location)
		}
	}

	if checkVerbose {
		fmt.Printf("\nSummary:\n")
		fmt.Printf("  Files: %d\n", result.Summary.FilesAnalyzed)
		fmt.Printf("  Critical violations: %d\n", result.Summary.CriticalViolations)
		fmt.Printf("  High violations: %d\n", result.Summary.HighViolations)
		if result.Summary.NasaChecked {
			fmt.Printf("  NASA compliance: %.1f/100\n", result.Summary.NasaCompliance)
		}
		if result.Summary.GodObjectChecked {
			fmt.Printf("  God objects: %d\n", result.Summary.GodObjects)
		}
		fmt.Printf("  Total weight: %.1f\n", result.Summary.TotalWeight)
		fmt.Printf("  Duration: %dms\n", result.Duration)
	}

	return &CheckExitError{Code: 1, Message: ""}
}

func outputCheckJSON(result *domain.CheckResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return &CheckExitError{Code: 2, Message: fmt.Sprintf("failed to encode JSON: %v", err)}
	}

	if !result.Passed {
		return &CheckExitError{Code: 1, Message: ""}
	}
	return nil
}
