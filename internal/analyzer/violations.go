package analyzer

import (
	"fmt"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/parser"
)

// ViolationFactory builds validated domain.Violation values with stable
// fingerprint IDs. Detectors share one factory so defaults and validation
// stay uniform across the suite.
type ViolationFactory struct{}

// NewViolationFactory creates a violation factory.
func NewViolationFactory() *ViolationFactory {
	return &ViolationFactory{}
}

// New finalizes a violation: an empty severity defaults to medium, the
// invariants are checked, and the fingerprint ID is assigned when missing.
func (f *ViolationFactory) New(v domain.Violation) (domain.Violation, error) {
	if v.Severity == "" {
		v.Severity = domain.SeverityMedium
	}
	if err := v.Validate(); err != nil {
		return domain.Violation{}, domain.NewValidationError(err.Error())
	}
	if v.ID == "" {
		v.ID = v.Fingerprint()
	}
	return v, nil
}

// NewPositionViolation creates a definition-site position coupling violation.
// Severity escalates with the distance above the threshold.
func (f *ViolationFactory) NewPositionViolation(loc parser.Location, functionName string, paramCount, threshold int, snippet string) (domain.Violation, error) {
	return f.New(domain.Violation{
		Type:           domain.ConnascenceOfPosition,
		Severity:       positionSeverity(paramCount, threshold),
		FilePath:       loc.File,
		LineNumber:     loc.StartLine,
		Column:         loc.StartCol,
		Description:    fmt.Sprintf("Function '%s' has %d positional parameters (>%d)", functionName, paramCount, threshold),
		Recommendation: "Use keyword arguments, data classes, or parameter objects",
		CodeSnippet:    snippet,
		FunctionName:   functionName,
		Locality:       domain.LocalitySameFunction,
		Context:        map[string]any{"parameter_count": paramCount},
	})
}

// NewMeaningViolation creates a magic literal violation from the classified
// literal produced by the contextual pipeline.
func (f *ViolationFactory) NewMeaningViolation(loc parser.Location, value any, lit *magicLiteral, snippet string) (domain.Violation, error) {
	return f.New(domain.Violation{
		Type:           domain.ConnascenceOfMeaning,
		Severity:       lit.severity,
		FilePath:       loc.File,
		LineNumber:     loc.StartLine,
		Column:         loc.StartCol,
		Description:    fmt.Sprintf("Magic literal '%s' should be a named constant", lit.repr),
		Recommendation: fmt.Sprintf("REFACTOR: %s. Pattern: %s", lit.pattern.description, lit.pattern.example),
		CodeSnippet:    snippet,
		Locality:       domain.LocalitySameModule,
		Context: map[string]any{
			"literal_value":         value,
			"literal_type":          lit.typeName,
			"in_conditional":        lit.inConditional,
			"security_related":      lit.securityRelated,
			"context_type":          string(lit.contextType),
			"category":              lit.category,
			"suggested_constant":    lit.suggested,
			"suggested_refactoring": lit.pattern.name,
		},
	})
}

// NewTypeViolation creates a missing-type-annotation violation for a public
// function.
func (f *ViolationFactory) NewTypeViolation(loc parser.Location, functionName string) (domain.Violation, error) {
	return f.New(domain.Violation{
		Type:           domain.ConnascenceOfType,
		Severity:       domain.SeverityLow,
		FilePath:       loc.File,
		LineNumber:     loc.StartLine,
		Column:         loc.StartCol,
		Description:    fmt.Sprintf("Function '%s' lacks type annotations", functionName),
		Recommendation: "REFACTOR: Add type hints for better IDE support and documentation. Pattern: def function_name(param: ParamType) -> ReturnType:",
		FunctionName:   functionName,
		Locality:       domain.LocalitySameFunction,
	})
}
