package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/parser"
)

// perfectMetricPatterns match assignments that hardcode flawless quality
// numbers instead of computing them.
var perfectMetricPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)coverage.*=.*100`),
	regexp.MustCompile(`(?i)score.*=.*1\.0`),
	regexp.MustCompile(`(?i)success.*=.*True`),
	regexp.MustCompile(`(?i)quality.*=.*"excellent"`),
}

// TheaterDetector flags code written to look good rather than be good:
// gamed tests, swallowed exceptions, hardcoded perfect metrics, and
// quality practices that are facade only. Each finding carries a
// confidence estimate in its context.
type TheaterDetector struct {
	factory *ViolationFactory
}

// NewTheaterDetector creates a theater/gaming detector.
func NewTheaterDetector() *TheaterDetector {
	return &TheaterDetector{factory: NewViolationFactory()}
}

// Name implements Detector.
func (d *TheaterDetector) Name() string { return DetectorTheater }

// Detect implements Detector.
func (d *TheaterDetector) Detect(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation
	checks := []func(*AnalysisContext) ([]domain.Violation, error){
		d.detectTestGaming,
		d.detectErrorMasking,
		d.detectMetricsInflation,
		d.detectQualityFacade,
	}
	for _, check := range checks {
		found, err := check(ctx)
		if err != nil {
			return nil, err
		}
		violations = append(violations, found...)
	}
	return violations, nil
}

// detectTestGaming finds test functions that exist to inflate counts:
// empty bodies and assertions that can never fail.
func (d *TheaterDetector) detectTestGaming(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation
	for _, fn := range FindNodesByType(ctx.Root, parser.NodeFunctionDef) {
		if !isTestFunction(fn) {
			continue
		}

		if len(fn.Body) == 1 && fn.Body[0].Type == parser.NodePass {
			v, err := d.factory.New(domain.Violation{
				Type:           domain.TheaterTestGaming,
				Severity:       domain.SeverityHigh,
				FilePath:       ctx.FilePath,
				LineNumber:     fn.Location.StartLine,
				Column:         fn.Location.StartCol,
				Description:    "Empty test function - no actual testing",
				Recommendation: "Implement actual test logic or remove empty test",
				CodeSnippet:    ExtractSnippet(ctx.SourceLines, fn.Location.StartLine, 2),
				FunctionName:   fn.Name,
				Locality:       domain.LocalitySameFunction,
				Context: map[string]any{
					"function_name": fn.Name,
					"body_length":   len(fn.Body),
					"confidence":    0.95,
				},
			})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}

		var constantAsserts []*parser.Node
		fn.Walk(func(n *parser.Node) bool {
			if n.Type == parser.NodeAssert && isConstantTrue(n.Test) {
				constantAsserts = append(constantAsserts, n)
			}
			return true
		})
		for _, stmt := range constantAsserts {
			v, err := d.factory.New(domain.Violation{
				Type:           domain.TheaterTestGaming,
				Severity:       domain.SeverityCritical,
				FilePath:       ctx.FilePath,
				LineNumber:     stmt.Location.StartLine,
				Column:         stmt.Location.StartCol,
				Description:    "Test always passes with assert True",
				Recommendation: "Replace with meaningful assertions",
				CodeSnippet:    ExtractSnippet(ctx.SourceLines, stmt.Location.StartLine, 2),
				FunctionName:   fn.Name,
				Locality:       domain.LocalitySameFunction,
				Context: map[string]any{
					"function_name": fn.Name,
					"assertion":     "True",
					"confidence":    0.98,
				},
			})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}
	}
	return violations, nil
}

// detectErrorMasking finds exception handlers that hide failures instead
// of handling them.
func (d *TheaterDetector) detectErrorMasking(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation
	for _, handler := range FindNodesByType(ctx.Root, parser.NodeExcept) {
		if handler.ExceptType == nil {
			v, err := d.factory.New(domain.Violation{
				Type:           domain.TheaterErrorMasking,
				Severity:       domain.SeverityHigh,
				FilePath:       ctx.FilePath,
				LineNumber:     handler.Location.StartLine,
				Column:         handler.Location.StartCol,
				Description:    "Bare except clause masks all errors",
				Recommendation: "Catch specific exceptions and handle appropriately",
				CodeSnippet:    ExtractSnippet(ctx.SourceLines, handler.Location.StartLine, 2),
				Locality:       domain.LocalitySameFunction,
				Context: map[string]any{
					"line":       sourceLineAt(ctx.SourceLines, handler.Location.StartLine),
					"confidence": 0.9,
				},
			})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}

		if len(handler.Body) == 1 && handler.Body[0].Type == parser.NodePass {
			v, err := d.factory.New(domain.Violation{
				Type:           domain.TheaterErrorMasking,
				Severity:       domain.SeverityCritical,
				FilePath:       ctx.FilePath,
				LineNumber:     handler.Location.StartLine,
				Column:         handler.Location.StartCol,
				Description:    "Exception silently ignored with pass",
				Recommendation: "Log error or handle appropriately",
				CodeSnippet:    ExtractSnippet(ctx.SourceLines, handler.Location.StartLine, 2),
				Locality:       domain.LocalitySameFunction,
				Context:        map[string]any{"confidence": 0.95},
			})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}
	}
	return violations, nil
}

// detectMetricsInflation scans raw source lines for hardcoded perfect
// quality numbers.
func (d *TheaterDetector) detectMetricsInflation(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation
	for i, line := range ctx.SourceLines {
		for _, pattern := range perfectMetricPatterns {
			match := pattern.FindString(line)
			if match == "" {
				continue
			}
			v, err := d.factory.New(domain.Violation{
				Type:           domain.TheaterMetricsInflation,
				Severity:       domain.SeverityMedium,
				FilePath:       ctx.FilePath,
				LineNumber:     i + 1,
				Description:    "Hardcoded perfect metrics detected",
				Recommendation: "Calculate metrics dynamically from real data",
				CodeSnippet:    ExtractSnippet(ctx.SourceLines, i+1, 2),
				Locality:       domain.LocalitySameModule,
				Context: map[string]any{
					"match":      match,
					"confidence": 0.7,
				},
			})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}
	}
	return violations, nil
}

// detectQualityFacade finds quality practices applied for appearance only:
// handlers whose body is a string literal standing in for real handling,
// half-applied type hints, and tests that never assert.
func (d *TheaterDetector) detectQualityFacade(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation

	for _, handler := range FindNodesByType(ctx.Root, parser.NodeExcept) {
		comment, ok := handlerCommentLiteral(handler)
		if !ok {
			continue
		}
		v, err := d.factory.New(domain.Violation{
			Type:           domain.TheaterQualityFacade,
			Severity:       domain.SeverityMedium,
			FilePath:       ctx.FilePath,
			LineNumber:     handler.Location.StartLine,
			Column:         handler.Location.StartCol,
			Description:    "Exception handler only contains a comment literal",
			Recommendation: "Replace comments with real exception handling",
			CodeSnippet:    ExtractSnippet(ctx.SourceLines, handler.Location.StartLine, 2),
			Locality:       domain.LocalitySameFunction,
			Context: map[string]any{
				"comment":    comment,
				"confidence": 0.7,
			},
		})
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}

	for _, fn := range FindNodesByType(ctx.Root, parser.NodeFunctionDef) {
		if !strings.HasPrefix(fn.Name, "_") && fn.Returns != nil &&
			regularParamCount(fn) > 0 && !hasParamAnnotation(fn) {
			v, err := d.factory.New(domain.Violation{
				Type:           domain.TheaterQualityFacade,
				Severity:       domain.SeverityLow,
				FilePath:       ctx.FilePath,
				LineNumber:     fn.Location.StartLine,
				Column:         fn.Location.StartCol,
				Description:    fmt.Sprintf("Function '%s' has return type hint but no parameter hints", fn.Name),
				Recommendation: "Add parameter type hints for consistency",
				FunctionName:   fn.Name,
				Locality:       domain.LocalitySameFunction,
				Context: map[string]any{
					"function":   fn.Name,
					"confidence": 0.6,
				},
			})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}

		if !isTestFunction(fn) || hasAnyAssertion(fn) {
			continue
		}
		v, err := d.factory.New(domain.Violation{
			Type:           domain.TheaterQualityFacade,
			Severity:       domain.SeverityHigh,
			FilePath:       ctx.FilePath,
			LineNumber:     fn.Location.StartLine,
			Column:         fn.Location.StartCol,
			Description:    fmt.Sprintf("Test '%s' has no assertions", fn.Name),
			Recommendation: "Add meaningful assertions to tests",
			CodeSnippet:    ExtractSnippet(ctx.SourceLines, fn.Location.StartLine, 2),
			FunctionName:   fn.Name,
			Locality:       domain.LocalitySameFunction,
			Context: map[string]any{
				"function":   fn.Name,
				"confidence": 0.85,
			},
		})
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}

	return violations, nil
}

func isTestFunction(fn *parser.Node) bool {
	return strings.HasPrefix(fn.Name, "test_")
}

// hasAnyAssertion reports whether the function contains an assert statement
// or a unittest-style self.assert*() call.
func hasAnyAssertion(fn *parser.Node) bool {
	found := false
	fn.Walk(func(n *parser.Node) bool {
		if found {
			return false
		}
		switch n.Type {
		case parser.NodeAssert:
			found = true
		case parser.NodeCall:
			if n.Func != nil && n.Func.Type == parser.NodeAttribute && strings.HasPrefix(n.Func.Name, "assert") {
				found = true
			}
		}
		return !found
	})
	return found
}

// handlerCommentLiteral returns the constant payload when the handler's
// first statement is a bare literal expression, a string doing the work a
// log call should.
func handlerCommentLiteral(handler *parser.Node) (string, bool) {
	if len(handler.Body) == 0 {
		return "", false
	}
	first := handler.Body[0]
	if first.Type != parser.NodeExprStmt || first.Expr == nil || first.Expr.Type != parser.NodeConstant {
		return "", false
	}
	return fmt.Sprintf("%v", first.Expr.Value), true
}

func sourceLineAt(lines []string, lineNumber int) string {
	if lineNumber < 1 || lineNumber > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[lineNumber-1])
}
