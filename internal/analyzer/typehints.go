package analyzer

import (
	"strings"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/parser"
)

// TypeHintDetector flags public functions with no type annotations at all.
// Callers of such functions are coupled to types they can only discover by
// reading the body.
type TypeHintDetector struct {
	factory *ViolationFactory
}

// NewTypeHintDetector creates a type annotation detector.
func NewTypeHintDetector() *TypeHintDetector {
	return &TypeHintDetector{factory: NewViolationFactory()}
}

// Name implements Detector.
func (d *TypeHintDetector) Name() string { return DetectorTypeHints }

// Detect implements Detector.
func (d *TypeHintDetector) Detect(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation
	for _, fn := range FindNodesByType(ctx.Root, parser.NodeFunctionDef) {
		if fn.Async || strings.HasPrefix(fn.Name, "_") {
			continue
		}
		if fn.Returns != nil || hasParamAnnotation(fn) {
			continue
		}
		v, err := d.factory.NewTypeViolation(fn.Location, fn.Name)
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, nil
}

// hasParamAnnotation reports whether any regular positional parameter
// carries an annotation. Varargs, kwargs, and keyword-only parameters do
// not count toward "has annotations".
func hasParamAnnotation(fn *parser.Node) bool {
	for _, p := range fn.Params {
		if p.IsVararg || p.IsKwarg || p.IsKwOnly {
			continue
		}
		if p.Annotation != nil {
			return true
		}
	}
	return false
}
