package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/version"
)

// CheckConfig holds the quality gate thresholds for a check run.
type CheckConfig struct {
	// MaxCritical is the number of critical violations tolerated
	MaxCritical int

	// MaxHigh is the number of high violations tolerated
	MaxHigh int

	// MinCompliance is the minimum NASA Power of Ten compliance score on a
	// 0-100 scale; 0 disables the gate
	MinCompliance float64

	// MaxTotalWeight caps the summed policy weight; 0 disables the gate
	MaxTotalWeight float64

	// MaxGodObjects is the number of god objects tolerated
	MaxGodObjects int

	// Analyze carries the options for the underlying analysis run
	Analyze AnalyzeConfig
}

// DefaultCheckConfig returns the gate thresholds used when nothing is set on
// the command line: no critical violations, a small budget of high ones, and
// the compliance and weight gates disabled.
func DefaultCheckConfig() CheckConfig {
	return CheckConfig{
		MaxCritical: 0,
		MaxHigh:     10,
		Analyze:     DefaultAnalyzeConfig(),
	}
}

// CheckUseCase runs the analysis workflow and evaluates the results against
// quality gate thresholds for CI pipelines.
type CheckUseCase struct {
	analyze *AnalyzeUseCase
}

// NewCheckUseCase creates a check use case over an analyze use case. A nil
// argument uses the default wiring.
func NewCheckUseCase(analyze *AnalyzeUseCase) *CheckUseCase {
	if analyze == nil {
		analyze = NewAnalyzeUseCase()
	}
	return &CheckUseCase{analyze: analyze}
}

// Execute analyzes the paths and evaluates the gates. Gate breaches are
// reported in the result, not as an error; an error means the analysis
// itself could not run.
func (uc *CheckUseCase) Execute(ctx context.Context, cfg CheckConfig, paths []string) (*domain.CheckResult, error) {
	started := time.Now()

	// Gates see the full violation set regardless of the configured
	// reporting severity
	analyzeCfg := cfg.Analyze
	analyzeCfg.MinSeverity = string(domain.SeverityLow)

	result, err := uc.analyze.Execute(ctx, analyzeCfg, paths)
	if err != nil {
		return nil, err
	}

	response := result.Response
	req := result.Request

	check := &domain.CheckResult{
		Passed:     true,
		Violations: []domain.CheckViolation{},
		Summary: domain.CheckSummary{
			FilesAnalyzed:      response.Summary.AnalyzedFiles,
			CriticalViolations: response.Summary.CriticalCount,
			HighViolations:     response.Summary.HighCount,
			GodObjects:         response.Summary.GodObjectCount,
			NasaCompliance:     response.Summary.NasaComplianceScore,
			TotalWeight:        response.Summary.TotalWeight,
			ConnascenceChecked: req.EnableConnascence,
			NasaChecked:        req.EnableNasa,
			GodObjectChecked:   req.EnableGodObject,
		},
	}

	uc.checkSeverityBudgets(cfg, response, check)
	uc.checkNasaCompliance(cfg, response, req, check)
	uc.checkGodObjects(cfg, response, req, check)
	uc.checkTotalWeight(cfg, response, check)

	check.Summary.TotalViolations = len(check.Violations)
	check.Passed = len(check.Violations) == 0
	if !check.Passed {
		check.ExitCode = 1
	}
	check.Duration = time.Since(started).Milliseconds()
	check.GeneratedAt = time.Now().Format(time.RFC3339)
	check.Version = version.Version

	return check, nil
}

// checkSeverityBudgets enforces the critical and high violation budgets
// across every analysis family.
func (uc *CheckUseCase) checkSeverityBudgets(cfg CheckConfig, response *domain.AnalyzeResponse, check *domain.CheckResult) {
	if critical := response.Summary.CriticalCount; critical > cfg.MaxCritical {
		check.Violations = append(check.Violations, domain.CheckViolation{
			Category:  "violations",
			Rule:      "max-critical",
			Severity:  "error",
			Message:   fmt.Sprintf("Found %d critical violations (max: %d)", critical, cfg.MaxCritical),
			Actual:    strconv.Itoa(critical),
			Threshold: strconv.Itoa(cfg.MaxCritical),
		})
	}

	if high := response.Summary.HighCount; high > cfg.MaxHigh {
		check.Violations = append(check.Violations, domain.CheckViolation{
			Category:  "violations",
			Rule:      "max-high",
			Severity:  "error",
			Message:   fmt.Sprintf("Found %d high severity violations (max: %d)", high, cfg.MaxHigh),
			Actual:    strconv.Itoa(high),
			Threshold: strconv.Itoa(cfg.MaxHigh),
		})
	}
}

// checkNasaCompliance enforces the minimum compliance score when NASA rule
// checking ran.
func (uc *CheckUseCase) checkNasaCompliance(cfg CheckConfig, response *domain.AnalyzeResponse, req domain.AnalyzeRequest, check *domain.CheckResult) {
	if cfg.MinCompliance <= 0 || !req.EnableNasa {
		return
	}

	score := response.Summary.NasaComplianceScore
	if score < cfg.MinCompliance {
		check.Violations = append(check.Violations, domain.CheckViolation{
			Category:  "nasa",
			Rule:      "min-compliance",
			Severity:  "error",
			Message:   fmt.Sprintf("NASA Power of Ten compliance %.1f is below the minimum %.1f", score, cfg.MinCompliance),
			Actual:    fmt.Sprintf("%.1f", score),
			Threshold: fmt.Sprintf("%.1f", cfg.MinCompliance),
		})
	}
}

// checkGodObjects enforces the god object budget and lists each offending
// class when the budget is exceeded.
func (uc *CheckUseCase) checkGodObjects(cfg CheckConfig, response *domain.AnalyzeResponse, req domain.AnalyzeRequest, check *domain.CheckResult) {
	if !req.EnableGodObject {
		return
	}

	count := response.Summary.GodObjectCount
	if count <= cfg.MaxGodObjects {
		return
	}

	check.Violations = append(check.Violations, domain.CheckViolation{
		Category:  "god_object",
		Rule:      "max-god-objects",
		Severity:  "error",
		Message:   fmt.Sprintf("Found %d god objects (max: %d)", count, cfg.MaxGodObjects),
		Actual:    strconv.Itoa(count),
		Threshold: strconv.Itoa(cfg.MaxGodObjects),
	})

	for _, g := range response.GodObjects {
		check.Violations = append(check.Violations, domain.CheckViolation{
			Category: "god_object",
			Rule:     "god-object",
			Severity: "warning",
			Message:  fmt.Sprintf("Class '%s' is a god object (cohesion %.2f, %d methods)", g.Name, g.Cohesion.OverallCohesion, g.Complexity.MethodCount),
			Location: fmt.Sprintf("%s:%d", g.FilePath, g.LineNumber),
		})
	}
}

// checkTotalWeight enforces the policy weight cap when one is configured.
func (uc *CheckUseCase) checkTotalWeight(cfg CheckConfig, response *domain.AnalyzeResponse, check *domain.CheckResult) {
	if cfg.MaxTotalWeight <= 0 {
		return
	}

	if weight := response.Summary.TotalWeight; weight > cfg.MaxTotalWeight {
		check.Violations = append(check.Violations, domain.CheckViolation{
			Category:  "policy",
			Rule:      "max-weight",
			Severity:  "error",
			Message:   fmt.Sprintf("Total violation weight %.1f exceeds the budget %.1f", weight, cfg.MaxTotalWeight),
			Actual:    fmt.Sprintf("%.1f", weight),
			Threshold: fmt.Sprintf("%.1f", cfg.MaxTotalWeight),
		})
	}
}
