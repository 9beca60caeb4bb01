package analyzer

import (
	"fmt"
	"strings"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/parser"
)

var (
	initLikeNames     = map[string]bool{"__init__": true, "setup": true, "initialize": true, "connect": true, "start": true}
	teardownLikeNames = map[string]bool{"cleanup": true, "teardown": true, "disconnect": true, "stop": true, "close": true}
)

// callSequenceFamilies groups method names whose calls only work in a
// specific order. An unprotected partial sequence is a latent bug.
var callSequenceFamilies = []struct {
	name     string
	members  map[string]bool
	severity domain.Severity
}{
	{"transaction", map[string]bool{"begin": true, "commit": true, "rollback": true}, domain.SeverityHigh},
	{"network", map[string]bool{"connect": true, "disconnect": true, "send": true, "receive": true}, domain.SeverityHigh},
	{"file_ops", map[string]bool{"open": true, "close": true, "write": true, "read": true}, domain.SeverityMedium},
}

// ExecutionDetector finds execution-order coupling: classes whose methods
// must be called in a particular sequence, and call sequences that depend on
// ordering but run without try/finally protection.
type ExecutionDetector struct {
	factory *ViolationFactory
}

// NewExecutionDetector creates an execution-order detector.
func NewExecutionDetector() *ExecutionDetector {
	return &ExecutionDetector{factory: NewViolationFactory()}
}

// Name implements Detector.
func (d *ExecutionDetector) Name() string { return DetectorExecution }

// Detect implements Detector.
func (d *ExecutionDetector) Detect(ctx *AnalysisContext) ([]domain.Violation, error) {
	violations, err := d.detectSetupTeardown(ctx)
	if err != nil {
		return nil, err
	}
	sequences, err := d.detectUnprotectedSequences(ctx)
	if err != nil {
		return nil, err
	}
	return append(violations, sequences...), nil
}

// detectSetupTeardown flags classes that pair init-like with teardown-like
// methods while exposing other public methods, since those methods only work
// between the two.
func (d *ExecutionDetector) detectSetupTeardown(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation
	for _, class := range FindNodesByType(ctx.Root, parser.NodeClassDef) {
		var initMethods, teardownMethods, dependentMethods []string
		for _, method := range MethodsOf(class) {
			switch {
			case initLikeNames[method.Name]:
				initMethods = append(initMethods, method.Name)
			case teardownLikeNames[method.Name]:
				teardownMethods = append(teardownMethods, method.Name)
			case !strings.HasPrefix(method.Name, "_"):
				dependentMethods = append(dependentMethods, method.Name)
			}
		}
		if len(initMethods) == 0 || len(teardownMethods) == 0 || len(dependentMethods) == 0 {
			continue
		}
		v, err := d.factory.New(domain.Violation{
			Type:           domain.ConnascenceOfExecution,
			Severity:       domain.SeverityHigh,
			FilePath:       ctx.FilePath,
			LineNumber:     class.Location.StartLine,
			Column:         class.Location.StartCol,
			Description:    fmt.Sprintf("Class '%s' has setup/teardown methods suggesting execution order dependency", class.Name),
			Recommendation: "Document required method call order or use context managers",
			CodeSnippet:    ExtractSnippet(ctx.SourceLines, class.Location.StartLine, 2),
			ClassName:      class.Name,
			Locality:       domain.LocalitySameClass,
			Context: map[string]any{
				"init_methods":      initMethods,
				"teardown_methods":  teardownMethods,
				"dependent_methods": dependentMethods,
			},
		})
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, nil
}

// detectUnprotectedSequences flags functions that invoke two or more
// distinct calls of an order-dependent family with at least one call outside
// any try statement.
func (d *ExecutionDetector) detectUnprotectedSequences(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation
	for _, fn := range FindNodesByType(ctx.Root, parser.NodeFunctionDef) {
		for _, family := range callSequenceFamilies {
			seen := map[string]bool{}
			var names []string
			var firstUnprotected *parser.Node

			fn.Walk(func(n *parser.Node) bool {
				if n.Type == parser.NodeFunctionDef && n != fn {
					return false
				}
				if n.Type != parser.NodeCall || n.Func == nil || n.Func.Type != parser.NodeAttribute {
					return true
				}
				method := n.Func.Name
				if !family.members[method] {
					return true
				}
				if !seen[method] {
					seen[method] = true
					names = append(names, method)
				}
				if firstUnprotected == nil && !WithinTryStatement(n) {
					firstUnprotected = n
				}
				return true
			})

			if len(names) < 2 || firstUnprotected == nil {
				continue
			}
			v, err := d.factory.New(domain.Violation{
				Type:           domain.ConnascenceOfExecution,
				Severity:       family.severity,
				FilePath:       ctx.FilePath,
				LineNumber:     firstUnprotected.Location.StartLine,
				Column:         firstUnprotected.Location.StartCol,
				Description:    fmt.Sprintf("Order-dependent %s calls (%s) without try/finally protection", family.name, strings.Join(names, ", ")),
				Recommendation: "Use a context manager or try/finally so the call sequence always completes",
				CodeSnippet:    ExtractSnippet(ctx.SourceLines, firstUnprotected.Location.StartLine, 2),
				FunctionName:   fn.Name,
				Locality:       domain.LocalitySameFunction,
				Context: map[string]any{
					"sequence_type": family.name,
					"calls":         names,
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
