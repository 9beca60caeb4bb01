package analyzer

import (
	"fmt"
	"strings"

	"github.com/connascence-tools/conscan/domain"
)

// ThresholdConfig holds the numeric limits shared by all detectors.
// Immutable once built; a single instance is read by every detector in a run.
type ThresholdConfig struct {
	// Position
	MaxPositionalParams int `json:"max_positional_params" yaml:"max_positional_params"`
	MaxFunctionParams   int `json:"max_function_params" yaml:"max_function_params"`

	// Size
	GodClassMethods    int `json:"god_class_methods" yaml:"god_class_methods"`
	GodClassLines      int `json:"god_class_lines" yaml:"god_class_lines"`
	GodClassAttributes int `json:"god_class_attributes" yaml:"god_class_attributes"`
	GodFunctionLines   int `json:"god_function_lines" yaml:"god_function_lines"`

	// Complexity
	MaxCyclomaticComplexity int `json:"max_cyclomatic_complexity" yaml:"max_cyclomatic_complexity"`
	MaxNestingDepth         int `json:"max_nesting_depth" yaml:"max_nesting_depth"`

	// Duplicate literal values
	MagicLiteralRepetition int `json:"magic_literal_repetition" yaml:"magic_literal_repetition"`

	// NASA rules
	MaxFunctionLength     int `json:"max_function_length" yaml:"max_function_length"`
	MinAssertions         int `json:"min_assertions" yaml:"min_assertions"`
	MaxGlobalDeclarations int `json:"max_global_declarations" yaml:"max_global_declarations"`

	// Identity and name coupling
	MaxGlobalRefs int `json:"max_global_refs" yaml:"max_global_refs"`
	MaxNameUsage  int `json:"max_name_usage" yaml:"max_name_usage"`
}

// DefaultThresholds returns the baseline limits.
func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{
		MaxPositionalParams:     3,
		MaxFunctionParams:       7,
		GodClassMethods:         20,
		GodClassLines:           500,
		GodClassAttributes:      15,
		GodFunctionLines:        50,
		MaxCyclomaticComplexity: 10,
		MaxNestingDepth:         4,
		MagicLiteralRepetition:  3,
		MaxFunctionLength:       60,
		MinAssertions:           2,
		MaxGlobalDeclarations:   20,
		MaxGlobalRefs:           5,
		MaxNameUsage:            15,
	}
}

// WeightConfig turns a violation's type, severity, locality, and file path
// into a numeric score. The type scale follows the connascence strength
// ordering from weakest (name) to strongest (identity).
type WeightConfig struct {
	TypeWeights     map[domain.ViolationType]float64 `json:"type_weights" yaml:"type_weights"`
	SeverityWeights map[domain.Severity]float64      `json:"severity_weights" yaml:"severity_weights"`

	// Locality multipliers, closer coupling weighs less
	SameFunctionMultiplier float64 `json:"same_function_multiplier" yaml:"same_function_multiplier"`
	SameClassMultiplier    float64 `json:"same_class_multiplier" yaml:"same_class_multiplier"`
	SameModuleMultiplier   float64 `json:"same_module_multiplier" yaml:"same_module_multiplier"`
	CrossModuleMultiplier  float64 `json:"cross_module_multiplier" yaml:"cross_module_multiplier"`

	// Directory multipliers applied by path segment
	CoreCodeMultiplier     float64 `json:"core_code_multiplier" yaml:"core_code_multiplier"`
	TestCodeMultiplier     float64 `json:"test_code_multiplier" yaml:"test_code_multiplier"`
	ConfigCodeMultiplier   float64 `json:"config_code_multiplier" yaml:"config_code_multiplier"`
	ExperimentalMultiplier float64 `json:"experimental_multiplier" yaml:"experimental_multiplier"`
}

// DefaultWeights returns the baseline weighting tables.
func DefaultWeights() WeightConfig {
	return WeightConfig{
		TypeWeights: map[domain.ViolationType]float64{
			domain.ConnascenceOfName:      1,
			domain.ConnascenceOfType:      2,
			domain.ConnascenceOfMeaning:   3,
			domain.ConnascenceOfPosition:  4,
			domain.ConnascenceOfAlgorithm: 5,
			domain.ConnascenceOfExecution: 6,
			domain.ConnascenceOfValues:    7,
			domain.ConnascenceOfTiming:    8,
			domain.ConnascenceOfIdentity:  9,
		},
		SeverityWeights: map[domain.Severity]float64{
			domain.SeverityLow:      1,
			domain.SeverityMedium:   3,
			domain.SeverityHigh:     9,
			domain.SeverityCritical: 27,
		},
		SameFunctionMultiplier: 1.0,
		SameClassMultiplier:    2.0,
		SameModuleMultiplier:   3.0,
		CrossModuleMultiplier:  5.0,
		CoreCodeMultiplier:     2.0,
		TestCodeMultiplier:     0.5,
		ConfigCodeMultiplier:   0.7,
		ExperimentalMultiplier: 0.3,
	}
}

// WeightFor computes the weighted score for a violation. Types outside the
// connascence scale fall back to the severity default weight; locality and
// directory multipliers apply either way.
func (w *WeightConfig) WeightFor(v *domain.Violation) float64 {
	var base float64
	if tw, ok := w.TypeWeights[v.Type]; ok {
		base = tw * w.severityWeight(v.Severity)
	} else {
		base = domain.DefaultWeightForSeverity(v.Severity)
	}
	return base * w.localityMultiplier(v.Locality) * w.DirectoryMultiplier(v.FilePath)
}

func (w *WeightConfig) severityWeight(s domain.Severity) float64 {
	if sw, ok := w.SeverityWeights[s]; ok {
		return sw
	}
	return 1
}

func (w *WeightConfig) localityMultiplier(locality string) float64 {
	switch locality {
	case domain.LocalitySameFunction:
		return w.SameFunctionMultiplier
	case domain.LocalitySameClass:
		return w.SameClassMultiplier
	case domain.LocalityCrossModule:
		return w.CrossModuleMultiplier
	default:
		return w.SameModuleMultiplier
	}
}

// DirectoryMultiplier maps a file path onto its directory weight: core and
// src trees count double, tests half, config and experimental trees less.
func (w *WeightConfig) DirectoryMultiplier(filePath string) float64 {
	path := strings.ToLower(filePath)
	switch {
	case strings.Contains(path, "/core") || strings.Contains(path, "/src"):
		return w.CoreCodeMultiplier
	case strings.Contains(path, "/test"):
		return w.TestCodeMultiplier
	case strings.Contains(path, "/config"):
		return w.ConfigCodeMultiplier
	case strings.Contains(path, "/experimental"):
		return w.ExperimentalMultiplier
	default:
		return 1.0
	}
}

// SeverityFor derives a severity from the connascence type, locality, and
// detector context. Dynamic identity and timing coupling is always critical;
// cross-module coupling escalates static forms.
func SeverityFor(vtype domain.ViolationType, locality string, context map[string]any) domain.Severity {
	switch vtype {
	case domain.ConnascenceOfIdentity, domain.ConnascenceOfTiming:
		return domain.SeverityCritical
	}

	if vtype == domain.ConnascenceOfAlgorithm && locality == domain.LocalityCrossModule {
		return domain.SeverityCritical
	}

	if locality == domain.LocalityCrossModule &&
		(vtype == domain.ConnascenceOfPosition || vtype == domain.ConnascenceOfMeaning) {
		return domain.SeverityHigh
	}

	if vtype == domain.ConnascenceOfMeaning && context != nil {
		ctx := strings.ToLower(fmt.Sprintf("%v", context))
		for _, kw := range []string{"password", "secret", "key", "token", "auth"} {
			if strings.Contains(ctx, kw) {
				return domain.SeverityHigh
			}
		}
	}

	switch vtype {
	case domain.ConnascenceOfMeaning, domain.ConnascenceOfPosition, domain.ConnascenceOfAlgorithm:
		return domain.SeverityMedium
	}
	return domain.SeverityLow
}

// PolicyPreset bundles thresholds, weights, and per-type budget limits under
// a name.
type PolicyPreset struct {
	Name         string          `json:"name" yaml:"name"`
	Description  string          `json:"description" yaml:"description"`
	Thresholds   ThresholdConfig `json:"thresholds" yaml:"thresholds"`
	Weights      WeightConfig    `json:"weights" yaml:"weights"`
	BudgetLimits map[string]int  `json:"budget_limits" yaml:"budget_limits"`
}

// StrictPreset tightens every limit for core business logic.
func StrictPreset() PolicyPreset {
	thresholds := DefaultThresholds()
	thresholds.MaxPositionalParams = 2
	thresholds.GodClassMethods = 15
	thresholds.GodClassLines = 300
	thresholds.MaxCyclomaticComplexity = 8
	thresholds.MagicLiteralRepetition = 2

	weights := DefaultWeights()
	weights.CoreCodeMultiplier = 3.0
	weights.CrossModuleMultiplier = 8.0

	return PolicyPreset{
		Name:        "strict",
		Description: "Maximum quality for core business logic",
		Thresholds:  thresholds,
		Weights:     weights,
		BudgetLimits: map[string]int{
			"connascence_of_meaning":   5,
			"connascence_of_position":  3,
			"connascence_of_algorithm": 2,
		},
	}
}

// BalancedPreset is the default policy for typical services.
func BalancedPreset() PolicyPreset {
	return PolicyPreset{
		Name:        "balanced",
		Description: "Balanced quality for typical services",
		Thresholds:  DefaultThresholds(),
		Weights:     DefaultWeights(),
		BudgetLimits: map[string]int{
			"connascence_of_meaning":   15,
			"connascence_of_position":  10,
			"connascence_of_algorithm": 8,
			"total":                    50,
		},
	}
}

// RelaxedPreset loosens limits for prototypes and experiments.
func RelaxedPreset() PolicyPreset {
	thresholds := DefaultThresholds()
	thresholds.MaxPositionalParams = 5
	thresholds.GodClassMethods = 30
	thresholds.MaxCyclomaticComplexity = 15

	weights := DefaultWeights()
	weights.ExperimentalMultiplier = 0.1

	return PolicyPreset{
		Name:        "relaxed",
		Description: "Relaxed policy for prototypes and experiments",
		Thresholds:  thresholds,
		Weights:     weights,
		BudgetLimits: map[string]int{
			"total": 100,
		},
	}
}

// PresetByName resolves a preset name or one of its historical aliases.
func PresetByName(name string) (PolicyPreset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "strict", "strict-core":
		return StrictPreset(), nil
	case "balanced", "service-defaults", "", "default":
		return BalancedPreset(), nil
	case "relaxed", "lenient", "experimental":
		return RelaxedPreset(), nil
	default:
		return PolicyPreset{}, domain.NewConfigError(fmt.Sprintf("unknown policy preset: %s", name), nil)
	}
}
