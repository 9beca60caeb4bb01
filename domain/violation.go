package domain

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Severity represents the severity level of a violation
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRanks orders severities from least to most severe
var severityRanks = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the numeric rank of the severity (higher is more severe).
// Unknown severities rank below low.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// IsValid reports whether the severity is one of the four known levels
func (s Severity) IsValid() bool {
	_, ok := severityRanks[s]
	return ok
}

// AtLeast reports whether the severity is at least as severe as other
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// WorstSeverity returns the most severe of the given severities
func WorstSeverity(severities ...Severity) Severity {
	worst := SeverityLow
	for _, s := range severities {
		if s.Rank() > worst.Rank() {
			worst = s
		}
	}
	return worst
}

// DefaultWeightForSeverity returns the base numeric weight for a severity,
// used when no policy has been applied to a violation
func DefaultWeightForSeverity(s Severity) float64 {
	switch s {
	case SeverityCritical:
		return 10.0
	case SeverityHigh:
		return 5.0
	case SeverityMedium:
		return 2.0
	case SeverityLow:
		return 1.0
	default:
		return 1.0
	}
}

// ViolationType identifies the rule family that produced a violation
type ViolationType string

const (
	// Connascence violation types
	ConnascenceOfName      ViolationType = "connascence_of_name"
	ConnascenceOfType      ViolationType = "connascence_of_type"
	ConnascenceOfMeaning   ViolationType = "connascence_of_meaning"
	ConnascenceOfPosition  ViolationType = "connascence_of_position"
	ConnascenceOfAlgorithm ViolationType = "connascence_of_algorithm"
	ConnascenceOfExecution ViolationType = "connascence_of_execution"
	ConnascenceOfTiming    ViolationType = "connascence_of_timing"
	ConnascenceOfValues    ViolationType = "connascence_of_values"
	ConnascenceOfIdentity  ViolationType = "connascence_of_identity"

	// Style and structure violation types
	ConventionViolation ViolationType = "connascence_of_convention"
	GodObjectViolation  ViolationType = "god_object"

	// Theater detection violation types
	TheaterTestGaming       ViolationType = "theater_test_gaming"
	TheaterErrorMasking     ViolationType = "theater_error_masking"
	TheaterMetricsInflation ViolationType = "theater_metrics_inflation"
	TheaterQualityFacade    ViolationType = "theater_quality_facade"

	// ParseFailure marks a file the parser rejected
	ParseFailure ViolationType = "parse_failure"
)

// NasaRuleViolation returns the violation type for the given Power of Ten rule number
func NasaRuleViolation(rule int) ViolationType {
	return ViolationType(fmt.Sprintf("nasa_rule_%d_violation", rule))
}

// Locality describes how far apart the coupled elements of a violation are
const (
	LocalitySameFunction = "same_function"
	LocalitySameClass    = "same_class"
	LocalitySameModule   = "same_module"
	LocalityCrossModule  = "cross_module"
)

// Violation is the canonical record describing one detected issue.
// Instances are created once per detected pattern and are immutable after
// construction except for the Weight field, which the severity policy
// attaches before reporting.
type Violation struct {
	// ID is a stable fingerprint used for deduplication across runs
	ID string `json:"id" yaml:"id"`

	// Type identifies the rule that fired
	Type ViolationType `json:"type" yaml:"type"`

	// Severity is one of low, medium, high, critical
	Severity Severity `json:"severity" yaml:"severity"`

	// Location
	FilePath   string `json:"file_path" yaml:"file_path"`
	LineNumber int    `json:"line_number" yaml:"line_number"`
	Column     int    `json:"column" yaml:"column"`
	EndLine    int    `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	EndColumn  int    `json:"end_column,omitempty" yaml:"end_column,omitempty"`

	// Human-readable context
	Description    string `json:"description" yaml:"description"`
	Recommendation string `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
	CodeSnippet    string `json:"code_snippet,omitempty" yaml:"code_snippet,omitempty"`

	// Optional structural attribution
	FunctionName string `json:"function_name,omitempty" yaml:"function_name,omitempty"`
	ClassName    string `json:"class_name,omitempty" yaml:"class_name,omitempty"`

	// Weight is the policy-derived numeric score
	Weight float64 `json:"weight" yaml:"weight"`

	// Locality describes the coupling distance (same_function, same_class,
	// same_module, cross_module)
	Locality string `json:"locality" yaml:"locality"`

	// Context holds detector-specific facts used for weighting and reporting
	Context map[string]any `json:"context,omitempty" yaml:"context,omitempty"`
}

// Fingerprint computes the stable identifier for a violation from its type,
// location, and the first 50 characters of its description
func (v *Violation) Fingerprint() string {
	desc := v.Description
	if len(desc) > 50 {
		desc = desc[:50]
	}
	content := fmt.Sprintf("%s|%s|%d|%d|%s", v.Type, v.FilePath, v.LineNumber, v.Column, desc)
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}

// Validate checks the violation invariants: non-empty type, a known severity,
// and a location resolvable to a specific source line
func (v *Violation) Validate() error {
	if v.Type == "" {
		return fmt.Errorf("violation has empty type")
	}
	if !v.Severity.IsValid() {
		return fmt.Errorf("violation has invalid severity %q", v.Severity)
	}
	if v.FilePath == "" {
		return fmt.Errorf("violation of type %s has no file path", v.Type)
	}
	if v.LineNumber < 1 {
		return fmt.Errorf("violation of type %s has invalid line number %d", v.Type, v.LineNumber)
	}
	return nil
}

// IsConnascence reports whether the violation belongs to the connascence family
func (v *Violation) IsConnascence() bool {
	switch v.Type {
	case ConnascenceOfName, ConnascenceOfType, ConnascenceOfMeaning,
		ConnascenceOfPosition, ConnascenceOfAlgorithm, ConnascenceOfExecution,
		ConnascenceOfTiming, ConnascenceOfValues, ConnascenceOfIdentity,
		ConventionViolation:
		return true
	}
	return false
}

// RuleID returns a short rule identifier for reporting
func (v *Violation) RuleID() string {
	return "CON_" + string(v.Type)
}
