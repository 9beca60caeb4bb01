package analyzer

import (
	"fmt"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/parser"
)

// boundedIterationCalls are loop sources whose iteration count is fixed once
// the call returns. Iterating anything else via a call is treated as
// unbounded for rule 2.
var boundedIterationCalls = map[string]bool{
	"range": true, "enumerate": true, "zip": true, "sorted": true,
	"reversed": true, "list": true, "tuple": true, "set": true,
	"dict": true, "frozenset": true, "items": true, "keys": true,
	"values": true, "map": true, "filter": true,
}

// collectionConstructors are the allocation calls rule 3 watches inside
// loops.
var collectionConstructors = map[string]bool{
	"list": true, "dict": true, "set": true, "bytearray": true, "array": true,
}

// heapAllocCalls are the literal C allocator names; their presence means
// ctypes-style manual memory management.
var heapAllocCalls = map[string]bool{"malloc": true, "calloc": true, "realloc": true}

// ignoredBareCalls are functions whose return value is conventionally
// discarded; bare calls to them do not violate rule 7.
var ignoredBareCalls = map[string]bool{
	"print": true, "write": true, "close": true, "exit": true,
	"quit": true, "len": true, "assert": true,
}

// maxRule7Reports caps unchecked-return findings per file; the heuristic is
// noisy and the cap is part of its contract.
const maxRule7Reports = 5

// NasaDetector checks the Power of Ten rules adapted to Python. Rules 1-7
// have working heuristics; rules 8-10 (preprocessor, pointers, compiler
// warnings) have no Python equivalent and only participate in compliance
// scoring as always-clean.
type NasaDetector struct {
	factory *ViolationFactory
}

// NewNasaDetector creates a Power of Ten rule detector.
func NewNasaDetector() *NasaDetector {
	return &NasaDetector{factory: NewViolationFactory()}
}

// Name implements Detector.
func (d *NasaDetector) Name() string { return DetectorNasa }

// Detect implements Detector.
func (d *NasaDetector) Detect(ctx *AnalysisContext) ([]domain.Violation, error) {
	checks := []func(*AnalysisContext) ([]domain.Violation, error){
		d.checkRule1ControlFlow,
		d.checkRule2LoopBounds,
		d.checkRule3HeapUsage,
		d.checkRule4FunctionSize,
		d.checkRule5Assertions,
		d.checkRule6VariableScope,
		d.checkRule7ReturnValues,
	}
	var violations []domain.Violation
	for _, check := range checks {
		vs, err := check(ctx)
		if err != nil {
			return nil, err
		}
		violations = append(violations, vs...)
	}
	return violations, nil
}

// checkRule1ControlFlow flags complex flow constructs: recursion, excessive
// cyclomatic complexity, and deep nesting.
func (d *NasaDetector) checkRule1ControlFlow(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation
	for _, fn := range FindNodesByType(ctx.Root, parser.NodeFunctionDef) {
		if isRecursiveFunction(fn) {
			v, err := d.newRuleViolation(ctx, 1, domain.SeverityCritical, fn.Location,
				fmt.Sprintf("NASA Rule 1: Recursive function '%s' detected", fn.Name),
				"Convert to iterative solution with explicit stack if needed",
				map[string]any{
					"violation_type": "recursive_function",
					"function_name":  fn.Name,
				})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}

		if cc := CyclomaticComplexity(fn); cc > ctx.Thresholds.MaxCyclomaticComplexity {
			v, err := d.newRuleViolation(ctx, 1, domain.SeverityHigh, fn.Location,
				fmt.Sprintf("NASA Rule 1: Function '%s' has cyclomatic complexity %d (limit: %d)", fn.Name, cc, ctx.Thresholds.MaxCyclomaticComplexity),
				"Split decision logic into smaller functions",
				map[string]any{
					"violation_type": "excessive_complexity",
					"function_name":  fn.Name,
					"complexity":     cc,
					"threshold":      ctx.Thresholds.MaxCyclomaticComplexity,
				})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}

		if depth := MaxNestingDepth(fn); depth > ctx.Thresholds.MaxNestingDepth {
			v, err := d.newRuleViolation(ctx, 1, domain.SeverityMedium, fn.Location,
				fmt.Sprintf("NASA Rule 1: Function '%s' nests %d levels deep (limit: %d)", fn.Name, depth, ctx.Thresholds.MaxNestingDepth),
				"Flatten control flow with early returns or extracted helpers",
				map[string]any{
					"violation_type": "deep_nesting",
					"function_name":  fn.Name,
					"nesting_depth":  depth,
					"threshold":      ctx.Thresholds.MaxNestingDepth,
				})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}
	}
	return violations, nil
}

// checkRule2LoopBounds flags loops without a statically determinable upper
// bound.
func (d *NasaDetector) checkRule2LoopBounds(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation
	for _, loop := range FindNodesByType(ctx.Root, parser.NodeWhile, parser.NodeFor) {
		switch loop.Type {
		case parser.NodeWhile:
			if isConstantTrue(loop.Test) {
				if hasReachableBreak(loop) {
					continue
				}
				v, err := d.newRuleViolation(ctx, 2, domain.SeverityCritical, loop.Location,
					"NASA Rule 2: Loop lacks statically determinable upper bound",
					"Add loop counter or use bounded iteration",
					map[string]any{"violation_type": "unbounded_loop"})
				if err != nil {
					return nil, err
				}
				violations = append(violations, v)
				continue
			}
			if loop.Test != nil && loop.Test.Type != parser.NodeCompare {
				v, err := d.newRuleViolation(ctx, 2, domain.SeverityHigh, loop.Location,
					"NASA Rule 2: While condition is not a bounded comparison",
					"Loop on an explicit counter comparison or add a termination guard",
					map[string]any{"violation_type": "unbounded_loop"})
				if err != nil {
					return nil, err
				}
				violations = append(violations, v)
			}

		case parser.NodeFor:
			if loop.Iter == nil || loop.Iter.Type != parser.NodeCall {
				continue
			}
			name := CallName(loop.Iter)
			if boundedIterationCalls[lastDottedComponent(name)] {
				continue
			}
			v, err := d.newRuleViolation(ctx, 2, domain.SeverityHigh, loop.Location,
				fmt.Sprintf("NASA Rule 2: Loop source '%s()' is not a bounded iteration construct", name),
				"Iterate a bounded range or materialized collection",
				map[string]any{
					"violation_type": "unbounded_loop",
					"loop_source":    name,
				})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}
	}
	return violations, nil
}

// checkRule3HeapUsage flags explicit allocator calls anywhere and collection
// constructor calls inside loops.
func (d *NasaDetector) checkRule3HeapUsage(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation
	for _, call := range FindNodesByType(ctx.Root, parser.NodeCall) {
		if call.Func == nil || call.Func.Type != parser.NodeName {
			continue
		}
		name := call.Func.Name

		if heapAllocCalls[name] {
			v, err := d.newRuleViolation(ctx, 3, domain.SeverityCritical, call.Location,
				"NASA Rule 3: Dynamic memory allocation detected",
				"Pre-allocate memory during initialization phase",
				map[string]any{"violation_type": "malloc_after_init"})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
			continue
		}

		if collectionConstructors[name] && allocationInLoop(call) {
			v, err := d.newRuleViolation(ctx, 3, domain.SeverityMedium, call.Location,
				fmt.Sprintf("NASA Rule 3: Collection '%s' allocated inside a loop", name),
				"Hoist the allocation out of the loop or preallocate capacity",
				map[string]any{
					"violation_type": "allocation_in_loop",
					"constructor":    name,
				})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}
	}
	return violations, nil
}

// checkRule4FunctionSize flags functions longer than the single-page limit,
// docstring excluded. A function at exactly the limit passes.
func (d *NasaDetector) checkRule4FunctionSize(ctx *AnalysisContext) ([]domain.Violation, error) {
	limit := ctx.Thresholds.MaxFunctionLength
	var violations []domain.Violation
	for _, fn := range FindNodesByType(ctx.Root, parser.NodeFunctionDef) {
		length := FunctionLineSpan(fn, true)
		if length <= limit {
			continue
		}
		v, err := d.newRuleViolation(ctx, 4, domain.SeverityHigh, fn.Location,
			fmt.Sprintf("NASA Rule 4: Function '%s' is %d lines (limit: %d)", fn.Name, length, limit),
			"Break into smaller, focused functions",
			map[string]any{
				"violation_type":  "function_too_long",
				"function_name":   fn.Name,
				"function_length": length,
				"threshold":       limit,
			})
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, nil
}

// checkRule5Assertions requires a minimum assertion density in non-trivial
// functions plus a validation check near the entry.
func (d *NasaDetector) checkRule5Assertions(ctx *AnalysisContext) ([]domain.Violation, error) {
	minAssertions := ctx.Thresholds.MinAssertions
	var violations []domain.Violation
	for _, fn := range FindNodesByType(ctx.Root, parser.NodeFunctionDef) {
		if FunctionLineSpan(fn, false) <= 5 {
			continue
		}

		if count := countAssertions(fn); count < minAssertions {
			v, err := d.newRuleViolation(ctx, 5, domain.SeverityHigh, fn.Location,
				fmt.Sprintf("NASA Rule 5: Function '%s' has %d assertions (minimum: %d)", fn.Name, count, minAssertions),
				"Add pre/post-condition assertions or invariant checks",
				map[string]any{
					"violation_type":  "insufficient_assertions",
					"function_name":   fn.Name,
					"assertion_count": count,
					"threshold":       minAssertions,
				})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}

		if !hasEntryValidation(fn) {
			v, err := d.newRuleViolation(ctx, 5, domain.SeverityMedium, fn.Location,
				fmt.Sprintf("NASA Rule 5: Function '%s' does not validate inputs within its first statements", fn.Name),
				"Assert preconditions or raise on invalid arguments at function entry",
				map[string]any{
					"violation_type": "missing_precondition",
					"function_name":  fn.Name,
				})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}
	}
	return violations, nil
}

// checkRule6VariableScope flags files declaring an excessive number of
// globals, one violation per file.
func (d *NasaDetector) checkRule6VariableScope(ctx *AnalysisContext) ([]domain.Violation, error) {
	count := 0
	for _, g := range FindNodesByType(ctx.Root, parser.NodeGlobal) {
		count += len(g.Names)
	}
	if count <= ctx.Thresholds.MaxGlobalDeclarations {
		return nil, nil
	}

	v, err := d.factory.New(domain.Violation{
		Type:           domain.NasaRuleViolation(6),
		Severity:       domain.SeverityMedium,
		FilePath:       ctx.FilePath,
		LineNumber:     1,
		Description:    fmt.Sprintf("NASA Rule 6: Excessive global variables (%d > %d)", count, ctx.Thresholds.MaxGlobalDeclarations),
		Recommendation: "Encapsulate in modules or pass as parameters",
		Locality:       domain.LocalitySameModule,
		Context: map[string]any{
			"nasa_rule":      "rule_6",
			"violation_type": "excessive_global_variables",
			"global_count":   count,
			"threshold":      ctx.Thresholds.MaxGlobalDeclarations,
		},
	})
	if err != nil {
		return nil, err
	}
	return []domain.Violation{v}, nil
}

// checkRule7ReturnValues flags calls used as bare expression statements, the
// discarded-return heuristic, capped per file.
func (d *NasaDetector) checkRule7ReturnValues(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation
	for _, stmt := range FindNodesByType(ctx.Root, parser.NodeExprStmt) {
		if len(violations) >= maxRule7Reports {
			break
		}
		call := stmt.Expr
		if call == nil || call.Type != parser.NodeCall {
			continue
		}
		if call.Func == nil || call.Func.Type != parser.NodeName {
			continue
		}
		if ignoredBareCalls[call.Func.Name] {
			continue
		}
		v, err := d.newRuleViolation(ctx, 7, domain.SeverityHigh, call.Location,
			"NASA Rule 7: Function return value not checked",
			"Check return value or explicitly cast to void with comment",
			map[string]any{
				"violation_type": "unchecked_return_value",
				"function_name":  call.Func.Name,
			})
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, nil
}

func (d *NasaDetector) newRuleViolation(ctx *AnalysisContext, rule int, severity domain.Severity, loc parser.Location, description, recommendation string, context map[string]any) (domain.Violation, error) {
	if context == nil {
		context = map[string]any{}
	}
	context["nasa_rule"] = fmt.Sprintf("rule_%d", rule)
	return d.factory.New(domain.Violation{
		Type:           domain.NasaRuleViolation(rule),
		Severity:       severity,
		FilePath:       ctx.FilePath,
		LineNumber:     loc.StartLine,
		Column:         loc.StartCol,
		Description:    description,
		Recommendation: recommendation,
		CodeSnippet:    ExtractSnippet(ctx.SourceLines, loc.StartLine, 2),
		Locality:       domain.LocalitySameFunction,
		Context:        context,
	})
}

// isRecursiveFunction reports whether the function calls itself by name
// anywhere in its body.
func isRecursiveFunction(fn *parser.Node) bool {
	recursive := false
	fn.Walk(func(n *parser.Node) bool {
		if n.Type == parser.NodeCall && n.Func != nil &&
			n.Func.Type == parser.NodeName && n.Func.Name == fn.Name {
			recursive = true
			return false
		}
		return true
	})
	return recursive
}

func isConstantTrue(node *parser.Node) bool {
	if node == nil || node.Type != parser.NodeConstant || node.Kind != parser.ConstBool {
		return false
	}
	b, ok := node.Value.(bool)
	return ok && b
}

// hasReachableBreak reports whether the while loop's own body contains a
// break. Breaks inside nested loops bind there and do not count.
func hasReachableBreak(loop *parser.Node) bool {
	found := false
	for _, stmt := range loop.Body {
		stmt.Walk(func(n *parser.Node) bool {
			switch n.Type {
			case parser.NodeFor, parser.NodeWhile, parser.NodeFunctionDef:
				return false
			case parser.NodeBreak:
				found = true
				return false
			}
			return true
		})
		if found {
			return true
		}
	}
	return false
}

// allocationInLoop reports whether the call executes once per loop
// iteration. A call in a for statement's iterable runs once before the loop
// and does not count for that loop, though an outer loop still can.
func allocationInLoop(call *parser.Node) bool {
	child := call
	for cur := call.Parent; cur != nil; child, cur = cur, cur.Parent {
		switch cur.Type {
		case parser.NodeWhile:
			return true
		case parser.NodeFor:
			if child != cur.Iter {
				return true
			}
		}
	}
	return false
}

// countAssertions counts assert statements plus validation branches (an if
// whose body immediately raises).
func countAssertions(fn *parser.Node) int {
	count := 0
	fn.Walk(func(n *parser.Node) bool {
		switch n.Type {
		case parser.NodeAssert:
			count++
		case parser.NodeIf:
			if isValidationBranch(n) {
				count++
			}
		}
		return true
	})
	return count
}

// isValidationBranch reports whether the if statement's body contains a
// direct raise, the guard-clause idiom.
func isValidationBranch(ifStmt *parser.Node) bool {
	for _, stmt := range ifStmt.Body {
		if stmt.Type == parser.NodeRaise {
			return true
		}
	}
	return false
}

// hasEntryValidation reports whether any of the first statements, docstring
// excluded, asserts or raises on invalid input.
func hasEntryValidation(fn *parser.Node) bool {
	body := fn.Body
	if HasDocstring(fn) {
		body = body[1:]
	}
	limit := 5
	if len(body) < limit {
		limit = len(body)
	}
	for _, stmt := range body[:limit] {
		switch stmt.Type {
		case parser.NodeAssert, parser.NodeRaise:
			return true
		case parser.NodeIf:
			if isValidationBranch(stmt) {
				return true
			}
		}
	}
	return false
}

// lastDottedComponent returns the final segment of a dotted name, so
// "data.items" matches the bounded-iteration allowlist entry "items".
func lastDottedComponent(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}
