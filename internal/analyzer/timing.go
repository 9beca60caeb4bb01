package analyzer

import (
	"fmt"
	"strings"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/parser"
)

// TimingDetector finds temporal coupling: code whose correctness depends on
// when things run rather than on explicit synchronization. Sleep calls,
// low-level thread coordination, timestamp polling loops, and unbounded
// awaits all qualify.
type TimingDetector struct {
	factory *ViolationFactory
}

// NewTimingDetector creates a timing coupling detector.
func NewTimingDetector() *TimingDetector {
	return &TimingDetector{factory: NewViolationFactory()}
}

// Name implements Detector.
func (d *TimingDetector) Name() string { return DetectorTiming }

// Detect implements Detector.
func (d *TimingDetector) Detect(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation

	hasThreading := importsModule(ctx.Root, "threading")

	for _, call := range FindNodesByType(ctx.Root, parser.NodeCall) {
		fn := call.Func
		if fn == nil {
			continue
		}

		if isSleepCall(fn) {
			v, err := d.factory.New(domain.Violation{
				Type:           domain.ConnascenceOfTiming,
				Severity:       domain.SeverityMedium,
				FilePath:       ctx.FilePath,
				LineNumber:     call.Location.StartLine,
				Column:         call.Location.StartCol,
				Description:    "Sleep-based timing dependency detected",
				Recommendation: "Use proper synchronization primitives, events, or async patterns",
				CodeSnippet:    ExtractSnippet(ctx.SourceLines, call.Location.StartLine, 2),
				Locality:       domain.LocalitySameFunction,
				Context:        map[string]any{"call_type": "sleep"},
			})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
			continue
		}

		if fn.Type == parser.NodeAttribute {
			switch fn.Name {
			case "join", "wait", "acquire", "release":
				v, err := d.factory.New(domain.Violation{
					Type:           domain.ConnascenceOfTiming,
					Severity:       domain.SeverityHigh,
					FilePath:       ctx.FilePath,
					LineNumber:     call.Location.StartLine,
					Column:         call.Location.StartCol,
					Description:    fmt.Sprintf("Potential timing coupling through %s() call", fn.Name),
					Recommendation: "REFACTOR: Use higher-level concurrency patterns or async/await. Pattern: async with context managers or asyncio.gather()",
					CodeSnippet:    ExtractSnippet(ctx.SourceLines, call.Location.StartLine, 2),
					Locality:       domain.LocalityCrossModule,
					Context: map[string]any{
						"call_type":             fn.Name,
						"suggested_refactoring": "async_context_manager",
					},
				})
				if err != nil {
					return nil, err
				}
				violations = append(violations, v)
				continue
			}
		}

		if hasThreading && isThreadLifecycleCall(fn) {
			v, err := d.factory.New(domain.Violation{
				Type:           domain.ConnascenceOfTiming,
				Severity:       domain.SeverityHigh,
				FilePath:       ctx.FilePath,
				LineNumber:     call.Location.StartLine,
				Column:         call.Location.StartCol,
				Description:    fmt.Sprintf("Thread lifecycle call '%s' couples execution order across threads", fn.Name),
				Recommendation: "Synchronize shared state explicitly or communicate through queues instead of relying on start order",
				CodeSnippet:    ExtractSnippet(ctx.SourceLines, call.Location.StartLine, 2),
				Locality:       domain.LocalityCrossModule,
				Context: map[string]any{
					"call_type":        fn.Name,
					"threading_import": true,
				},
			})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
			continue
		}

		if isClockReadInLoop(call) {
			v, err := d.factory.New(domain.Violation{
				Type:           domain.ConnascenceOfTiming,
				Severity:       domain.SeverityMedium,
				FilePath:       ctx.FilePath,
				LineNumber:     call.Location.StartLine,
				Column:         call.Location.StartCol,
				Description:    fmt.Sprintf("Polling pattern: %s() read inside a loop", CallName(call)),
				Recommendation: "Use events or condition variables instead of polling the clock",
				CodeSnippet:    ExtractSnippet(ctx.SourceLines, call.Location.StartLine, 2),
				Locality:       domain.LocalitySameFunction,
				Context:        map[string]any{"call_type": CallName(call)},
			})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}
	}

	unbounded, err := d.detectUnboundedAwaits(ctx)
	if err != nil {
		return nil, err
	}
	return append(violations, unbounded...), nil
}

// detectUnboundedAwaits flags async functions that await without any
// timeout mechanism anywhere in the body.
func (d *TimingDetector) detectUnboundedAwaits(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation
	for _, fn := range FindNodesByType(ctx.Root, parser.NodeFunctionDef) {
		if !fn.Async {
			continue
		}
		hasAwait := false
		hasTimeout := false
		fn.Walk(func(n *parser.Node) bool {
			switch n.Type {
			case parser.NodeAwait:
				hasAwait = true
			case parser.NodeCall:
				if strings.Contains(CallName(n), "wait_for") {
					hasTimeout = true
				}
				for _, kw := range n.Keywords {
					if kw.Name == "timeout" {
						hasTimeout = true
					}
				}
			}
			return true
		})
		if !hasAwait || hasTimeout {
			continue
		}
		v, err := d.factory.New(domain.Violation{
			Type:           domain.ConnascenceOfTiming,
			Severity:       domain.SeverityMedium,
			FilePath:       ctx.FilePath,
			LineNumber:     fn.Location.StartLine,
			Column:         fn.Location.StartCol,
			Description:    fmt.Sprintf("Async function '%s' awaits without timeout protection", fn.Name),
			Recommendation: "Wrap awaited operations in asyncio.wait_for or pass an explicit timeout",
			CodeSnippet:    ExtractSnippet(ctx.SourceLines, fn.Location.StartLine, 2),
			FunctionName:   fn.Name,
			Locality:       domain.LocalitySameFunction,
			Context:        map[string]any{"function_name": fn.Name},
		})
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, nil
}

func isSleepCall(fn *parser.Node) bool {
	if fn.Type == parser.NodeName && fn.Name == "sleep" {
		return true
	}
	return fn.Type == parser.NodeAttribute && fn.Name == "sleep"
}

// isThreadLifecycleCall matches Thread construction and .start() calls.
func isThreadLifecycleCall(fn *parser.Node) bool {
	if fn.Type == parser.NodeName && fn.Name == "Thread" {
		return true
	}
	if fn.Type == parser.NodeAttribute && (fn.Name == "Thread" || fn.Name == "start") {
		return true
	}
	return false
}

func isClockReadInLoop(call *parser.Node) bool {
	name := CallName(call)
	if name != "time.time" && name != "datetime.now" && name != "datetime.datetime.now" {
		return false
	}
	return InsideLoop(call)
}

// importsModule reports whether the file imports the named top-level module
// via either import form.
func importsModule(root *parser.Node, module string) bool {
	for _, imp := range FindNodesByType(root, parser.NodeImport, parser.NodeImportFrom) {
		if imp.Type == parser.NodeImport {
			for _, name := range imp.Names {
				if name == module || strings.HasPrefix(name, module+".") {
					return true
				}
			}
			continue
		}
		if imp.Name == module || strings.HasPrefix(imp.Name, module+".") {
			return true
		}
	}
	return false
}
