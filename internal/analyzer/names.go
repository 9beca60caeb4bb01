package analyzer

import (
	"fmt"
	"strings"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/parser"
)

// NameDetector finds name-based coupling: identifiers referenced so often
// that renaming them ripples through the whole module, plus dynamic name
// resolution (eval/exec/compile and getattr-then-call) that binds behavior
// to names only resolvable at runtime.
type NameDetector struct {
	factory *ViolationFactory
}

// NewNameDetector creates a name coupling detector.
func NewNameDetector() *NameDetector {
	return &NameDetector{factory: NewViolationFactory()}
}

// Name implements Detector.
func (d *NameDetector) Name() string { return DetectorNameUsage }

// Detect implements Detector.
func (d *NameDetector) Detect(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation

	usage := map[string]int{}
	var order []string
	for _, node := range FindNodesByType(ctx.Root, parser.NodeName) {
		if _, seen := usage[node.Name]; !seen {
			order = append(order, node.Name)
		}
		usage[node.Name]++
	}

	maxUsage := ctx.Thresholds.MaxNameUsage
	for _, name := range order {
		count := usage[name]
		if count <= maxUsage || strings.HasPrefix(name, "_") || name == "self" || name == "cls" {
			continue
		}
		v, err := d.factory.New(domain.Violation{
			Type:           domain.ConnascenceOfName,
			Severity:       domain.SeverityMedium,
			FilePath:       ctx.FilePath,
			LineNumber:     1,
			Description:    fmt.Sprintf("Name '%s' used %d times (high coupling)", name, count),
			Recommendation: "REFACTOR: Extract class or use dependency injection to reduce name coupling. Pattern: Create a dedicated class or pass as parameter instead of global access",
			Locality:       domain.LocalitySameModule,
			Context: map[string]any{
				"name":        name,
				"usage_count": count,
			},
		})
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}

	dynamic, err := d.detectDynamicResolution(ctx)
	if err != nil {
		return nil, err
	}
	return append(violations, dynamic...), nil
}

// detectDynamicResolution flags getattr-then-call chains and eval/exec/
// compile invocations. Both defeat static name binding entirely.
func (d *NameDetector) detectDynamicResolution(ctx *AnalysisContext) ([]domain.Violation, error) {
	var dynamicCalls []*parser.Node
	var execCalls []*parser.Node

	for _, call := range FindNodesByType(ctx.Root, parser.NodeCall) {
		fn := call.Func
		if fn == nil {
			continue
		}
		if fn.Type == parser.NodeCall && fn.Func != nil &&
			fn.Func.Type == parser.NodeName && fn.Func.Name == "getattr" {
			dynamicCalls = append(dynamicCalls, call)
			continue
		}
		if fn.Type == parser.NodeName {
			switch fn.Name {
			case "eval", "exec", "compile":
				execCalls = append(execCalls, call)
			}
		}
	}

	var violations []domain.Violation
	for _, call := range dynamicCalls {
		v, err := d.factory.New(domain.Violation{
			Type:           domain.ConnascenceOfName,
			Severity:       domain.SeverityHigh,
			FilePath:       ctx.FilePath,
			LineNumber:     call.Location.StartLine,
			Column:         call.Location.StartCol,
			Description:    "NASA Rule 8 violation: Dynamic function call detected (equivalent to function pointers)",
			Recommendation: "REFACTOR: Use explicit function references or polymorphism instead of dynamic calls. NASA Rule 8 restricts dynamic function calls in safety-critical code",
			Locality:       domain.LocalitySameFunction,
			Context: map[string]any{
				"nasa_rule":       "Rule_8_Function_Pointers",
				"call_type":       "dynamic_function_call",
				"safety_critical": true,
			},
		})
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}

	for _, call := range execCalls {
		executionType := "dynamic"
		if call.Func != nil && call.Func.Type == parser.NodeName {
			executionType = call.Func.Name
		}
		v, err := d.factory.New(domain.Violation{
			Type:           domain.ConnascenceOfName,
			Severity:       domain.SeverityCritical,
			FilePath:       ctx.FilePath,
			LineNumber:     call.Location.StartLine,
			Column:         call.Location.StartCol,
			Description:    "NASA Rule 7 violation: Dynamic code execution detected (eval/exec equivalent to preprocessor)",
			Recommendation: "REFACTOR: Remove eval/exec calls and use static code structures. NASA Rule 7 limits preprocessor use in safety-critical code",
			Locality:       domain.LocalitySameFunction,
			Context: map[string]any{
				"nasa_rule":       "Rule_7_Preprocessor",
				"execution_type":  executionType,
				"safety_critical": true,
			},
		})
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, nil
}
