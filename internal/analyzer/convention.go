package analyzer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/parser"
)

// ConventionDetector enforces the naming and structure conventions the rest
// of a codebase silently relies on: snake_case functions, PascalCase
// classes, and functions short enough to have one responsibility.
type ConventionDetector struct {
	factory *ViolationFactory
}

// NewConventionDetector creates a convention detector.
func NewConventionDetector() *ConventionDetector {
	return &ConventionDetector{factory: NewViolationFactory()}
}

// Name implements Detector.
func (d *ConventionDetector) Name() string { return DetectorConvention }

// Detect implements Detector.
func (d *ConventionDetector) Detect(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation

	for _, fn := range FindNodesByType(ctx.Root, parser.NodeFunctionDef) {
		if !strings.HasPrefix(fn.Name, "_") && !isSnakeCase(fn.Name) {
			v, err := d.factory.New(domain.Violation{
				Type:           domain.ConventionViolation,
				Severity:       domain.SeverityLow,
				FilePath:       ctx.FilePath,
				LineNumber:     fn.Location.StartLine,
				Column:         fn.Location.StartCol,
				Description:    fmt.Sprintf("Function '%s' should use snake_case", fn.Name),
				Recommendation: "Rename to use snake_case (e.g., my_function)",
				FunctionName:   fn.Name,
				Locality:       domain.LocalitySameModule,
				Context:        map[string]any{"pattern": "snake_case_function"},
			})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}

		span := fn.Location.EndLine - fn.Location.StartLine
		if span > ctx.Thresholds.GodFunctionLines {
			v, err := d.factory.New(domain.Violation{
				Type:           domain.ConventionViolation,
				Severity:       domain.SeverityMedium,
				FilePath:       ctx.FilePath,
				LineNumber:     fn.Location.StartLine,
				Column:         fn.Location.StartCol,
				Description:    fmt.Sprintf("Function '%s' is %d lines (recommended max: %d)", fn.Name, span, ctx.Thresholds.GodFunctionLines),
				Recommendation: "Consider breaking into smaller functions",
				FunctionName:   fn.Name,
				Locality:       domain.LocalitySameFunction,
				Context: map[string]any{
					"pattern":        "single_responsibility",
					"function_lines": span,
				},
			})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}
	}

	for _, class := range FindNodesByType(ctx.Root, parser.NodeClassDef) {
		if isPascalCase(class.Name) {
			continue
		}
		v, err := d.factory.New(domain.Violation{
			Type:           domain.ConventionViolation,
			Severity:       domain.SeverityLow,
			FilePath:       ctx.FilePath,
			LineNumber:     class.Location.StartLine,
			Column:         class.Location.StartCol,
			Description:    fmt.Sprintf("Class '%s' should use PascalCase", class.Name),
			Recommendation: "Rename to use PascalCase (e.g., MyClass)",
			ClassName:      class.Name,
			Locality:       domain.LocalitySameModule,
			Context:        map[string]any{"pattern": "PascalCase_class"},
		})
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, nil
}

// isSnakeCase accepts all-lowercase names and anything containing an
// underscore, after stripping leading underscores.
func isSnakeCase(name string) bool {
	trimmed := strings.TrimLeft(name, "_")
	return isLowerWord(trimmed) || strings.Contains(trimmed, "_")
}

// isLowerWord mirrors str.islower: no uppercase letters and at least one
// lowercase letter.
func isLowerWord(s string) bool {
	hasLower := false
	for _, r := range s {
		if unicode.IsUpper(r) {
			return false
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}
	return hasLower
}

func isPascalCase(name string) bool {
	if name == "" {
		return false
	}
	first := []rune(name)[0]
	return unicode.IsUpper(first) && !strings.Contains(name, "_")
}
