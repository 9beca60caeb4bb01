package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/parser"
)

// IdentityDetector finds identity-based coupling: state that callers share
// by holding the same object rather than equal values. Globals, mutable
// defaults, module-level mutable collections, and is/is-not comparisons of
// non-singletons all couple call sites to one specific object.
type IdentityDetector struct {
	factory *ViolationFactory
}

// NewIdentityDetector creates an identity coupling detector.
func NewIdentityDetector() *IdentityDetector {
	return &IdentityDetector{factory: NewViolationFactory()}
}

// Name implements Detector.
func (d *IdentityDetector) Name() string { return DetectorIdentity }

// Detect implements Detector.
func (d *IdentityDetector) Detect(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation

	globalNames := map[string]bool{}
	for _, g := range FindNodesByType(ctx.Root, parser.NodeGlobal) {
		for _, name := range g.Names {
			globalNames[name] = true
		}
	}
	if len(globalNames) > ctx.Thresholds.MaxGlobalRefs {
		names := make([]string, 0, len(globalNames))
		for name := range globalNames {
			names = append(names, name)
		}
		sort.Strings(names)
		v, err := d.factory.New(domain.Violation{
			Type:           domain.ConnascenceOfIdentity,
			Severity:       domain.SeverityHigh,
			FilePath:       ctx.FilePath,
			LineNumber:     1,
			Description:    fmt.Sprintf("Excessive global variable usage: %d globals", len(names)),
			Recommendation: "REFACTOR: Replace globals with dependency injection, configuration objects, or class attributes. Create a Config class or use dependency injection framework.",
			Locality:       domain.LocalityCrossModule,
			Context: map[string]any{
				"global_count":          len(names),
				"global_vars":           names,
				"suggested_refactoring": "dependency_injection_pattern",
			},
		})
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}

	for _, fn := range FindNodesByType(ctx.Root, parser.NodeFunctionDef) {
		for _, param := range fn.Params {
			if param.Default == nil || !isMutableLiteral(param.Default) {
				continue
			}
			v, err := d.factory.New(domain.Violation{
				Type:           domain.ConnascenceOfIdentity,
				Severity:       domain.SeverityCritical,
				FilePath:       ctx.FilePath,
				LineNumber:     fn.Location.StartLine,
				Column:         fn.Location.StartCol,
				Description:    fmt.Sprintf("Mutable default argument in function '%s'", fn.Name),
				Recommendation: "REFACTOR: Use None as default and create mutable object inside function. Pattern: def func(items=None): items = items or []",
				FunctionName:   fn.Name,
				Locality:       domain.LocalitySameFunction,
				Context: map[string]any{
					"function_name":         fn.Name,
					"mutable_type":          string(param.Default.Type),
					"suggested_refactoring": "none_default_pattern",
				},
			})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}
	}

	for _, cmp := range FindNodesByType(ctx.Root, parser.NodeCompare) {
		if !hasIdentityOp(cmp) || isSingletonComparison(cmp) {
			continue
		}
		v, err := d.factory.New(domain.Violation{
			Type:           domain.ConnascenceOfIdentity,
			Severity:       domain.SeverityMedium,
			FilePath:       ctx.FilePath,
			LineNumber:     cmp.Location.StartLine,
			Column:         cmp.Location.StartCol,
			Description:    "Using identity comparison (is/is not) instead of equality",
			Recommendation: "REFACTOR: Use equality comparison (==/!=) unless comparing with None, True, False. Pattern: if obj == other instead of if obj is other",
			Locality:       domain.LocalitySameFunction,
			Context:        map[string]any{"suggested_refactoring": "equality_comparison"},
		})
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}

	moduleState, err := d.detectModuleMutableState(ctx)
	if err != nil {
		return nil, err
	}
	violations = append(violations, moduleState...)

	shared, err := d.detectSharedMutableAttributes(ctx)
	if err != nil {
		return nil, err
	}
	return append(violations, shared...), nil
}

// detectModuleMutableState flags list/dict/set literals assigned at module
// scope; every importer shares that one object.
func (d *IdentityDetector) detectModuleMutableState(ctx *AnalysisContext) ([]domain.Violation, error) {
	if ctx.Root == nil || ctx.Root.Type != parser.NodeModule {
		return nil, nil
	}
	var violations []domain.Violation
	for _, stmt := range ctx.Root.Body {
		if stmt.Type != parser.NodeAssign || stmt.Expr == nil || !isMutableLiteral(stmt.Expr) {
			continue
		}
		for _, target := range stmt.Targets {
			if target.Type != parser.NodeName {
				continue
			}
			v, err := d.factory.New(domain.Violation{
				Type:           domain.ConnascenceOfIdentity,
				Severity:       domain.SeverityMedium,
				FilePath:       ctx.FilePath,
				LineNumber:     stmt.Location.StartLine,
				Column:         stmt.Location.StartCol,
				Description:    fmt.Sprintf("Module-level mutable %s '%s' is shared by every importer", strings.ToLower(string(stmt.Expr.Type)), target.Name),
				Recommendation: "Encapsulate mutable module state in a class or expose read-only accessors",
				CodeSnippet:    ExtractSnippet(ctx.SourceLines, stmt.Location.StartLine, 2),
				Locality:       domain.LocalityCrossModule,
				Context: map[string]any{
					"name":         target.Name,
					"mutable_type": string(stmt.Expr.Type),
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

// detectSharedMutableAttributes flags classes whose mutable class-level
// attributes are reassigned through self by more than one method.
func (d *IdentityDetector) detectSharedMutableAttributes(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation
	for _, class := range FindNodesByType(ctx.Root, parser.NodeClassDef) {
		mutableAttrs := map[string]bool{}
		var attrOrder []string
		for _, stmt := range class.Body {
			if stmt.Type != parser.NodeAssign || stmt.Expr == nil || !isMutableLiteral(stmt.Expr) {
				continue
			}
			for _, target := range stmt.Targets {
				if target.Type == parser.NodeName && !mutableAttrs[target.Name] {
					mutableAttrs[target.Name] = true
					attrOrder = append(attrOrder, target.Name)
				}
			}
		}
		if len(mutableAttrs) == 0 {
			continue
		}

		modifying := map[string]bool{}
		var methodOrder []string
		for _, method := range MethodsOf(class) {
			method.Walk(func(n *parser.Node) bool {
				if n.Type != parser.NodeAssign {
					return true
				}
				for _, target := range n.Targets {
					if isSelfAttribute(target) && mutableAttrs[target.Name] && !modifying[method.Name] {
						modifying[method.Name] = true
						methodOrder = append(methodOrder, method.Name)
					}
				}
				return true
			})
		}
		if len(modifying) <= 1 {
			continue
		}

		v, err := d.factory.New(domain.Violation{
			Type:           domain.ConnascenceOfValues,
			Severity:       domain.SeverityMedium,
			FilePath:       ctx.FilePath,
			LineNumber:     class.Location.StartLine,
			Column:         class.Location.StartCol,
			Description:    fmt.Sprintf("Class '%s' has shared mutable attributes modified by multiple methods", class.Name),
			Recommendation: "Consider immutable data structures or encapsulation patterns",
			ClassName:      class.Name,
			Locality:       domain.LocalitySameClass,
			Context: map[string]any{
				"mutable_attributes": attrOrder,
				"modifying_methods":  methodOrder,
			},
		})
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, nil
}

func isMutableLiteral(node *parser.Node) bool {
	switch node.Type {
	case parser.NodeList, parser.NodeDict, parser.NodeSet:
		return true
	}
	return false
}

func hasIdentityOp(cmp *parser.Node) bool {
	for _, op := range cmp.Ops {
		if op == "is" || op == "is not" {
			return true
		}
	}
	return false
}

// isSingletonComparison reports whether any comparator is None, True, or
// False, the cases where identity comparison is the correct idiom.
func isSingletonComparison(cmp *parser.Node) bool {
	for _, c := range cmp.Comparators {
		if c.Type != parser.NodeConstant {
			continue
		}
		switch c.Kind {
		case parser.ConstNone, parser.ConstBool:
			return true
		}
	}
	return false
}
