package analyzer

import (
	"fmt"
	"strings"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/parser"
)

// classMetrics captures the cheap per-class size measurements used by the
// threshold-form god object check.
type classMetrics struct {
	Methods    int `json:"methods"`
	Lines      int `json:"lines"`
	Attributes int `json:"attributes"`
}

// GodObjectDetector is the threshold form of god object detection: a class
// is flagged when its line span, method count, or self-attribute assignment
// count exceeds a fixed limit. The statistical cohesion-based analyzer is a
// separate, corpus-scoped component.
type GodObjectDetector struct {
	factory *ViolationFactory
}

// NewGodObjectDetector creates a threshold-form god object detector.
func NewGodObjectDetector() *GodObjectDetector {
	return &GodObjectDetector{factory: NewViolationFactory()}
}

// Name implements Detector.
func (d *GodObjectDetector) Name() string { return DetectorGodObject }

// Detect implements Detector.
func (d *GodObjectDetector) Detect(ctx *AnalysisContext) ([]domain.Violation, error) {
	t := ctx.Thresholds
	var violations []domain.Violation

	for _, class := range FindNodesByType(ctx.Root, parser.NodeClassDef) {
		metrics := measureClass(class)
		if metrics.Lines <= t.GodClassLines &&
			metrics.Methods <= t.GodClassMethods &&
			metrics.Attributes <= t.GodClassAttributes {
			continue
		}

		var exceeded []string
		if metrics.Lines > t.GodClassLines {
			exceeded = append(exceeded, fmt.Sprintf("%d lines (>%d)", metrics.Lines, t.GodClassLines))
		}
		if metrics.Methods > t.GodClassMethods {
			exceeded = append(exceeded, fmt.Sprintf("%d methods (>%d)", metrics.Methods, t.GodClassMethods))
		}
		if metrics.Attributes > t.GodClassAttributes {
			exceeded = append(exceeded, fmt.Sprintf("%d attributes (>%d)", metrics.Attributes, t.GodClassAttributes))
		}

		v, err := d.factory.New(domain.Violation{
			Type:           domain.GodObjectViolation,
			Severity:       godObjectSeverity(metrics, t),
			FilePath:       ctx.FilePath,
			LineNumber:     class.Location.StartLine,
			Column:         class.Location.StartCol,
			Description:    fmt.Sprintf("Class '%s' is a God Object: %s", class.Name, strings.Join(exceeded, ", ")),
			Recommendation: "Consider breaking this class into smaller, focused classes following Single Responsibility Principle",
			CodeSnippet:    ExtractSnippet(ctx.SourceLines, class.Location.StartLine, 2),
			ClassName:      class.Name,
			Locality:       domain.LocalitySameClass,
			Context: map[string]any{
				"class_name": class.Name,
				"metrics":    metrics,
				"violations": exceeded,
			},
		})
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, nil
}

// measureClass walks the whole class subtree. Method count includes nested
// defs, and attribute count includes every self.<attr> assignment target,
// repeats and all.
func measureClass(class *parser.Node) classMetrics {
	m := classMetrics{
		Lines: class.Location.EndLine - class.Location.StartLine + 1,
	}
	class.Walk(func(n *parser.Node) bool {
		switch n.Type {
		case parser.NodeFunctionDef:
			if n != class {
				m.Methods++
			}
		case parser.NodeAssign:
			for _, target := range n.Targets {
				if isSelfAttribute(target) {
					m.Attributes++
				}
			}
		}
		return true
	})
	return m
}

// godObjectSeverity escalates with how far past the limits the class is:
// four times over any threshold is critical, twice over is high.
func godObjectSeverity(m classMetrics, t *ThresholdConfig) domain.Severity {
	switch {
	case m.Lines > 4*t.GodClassLines || m.Methods > 4*t.GodClassMethods || m.Attributes > 4*t.GodClassAttributes:
		return domain.SeverityCritical
	case m.Lines > 2*t.GodClassLines || m.Methods > 2*t.GodClassMethods || m.Attributes > 2*t.GodClassAttributes:
		return domain.SeverityHigh
	default:
		return domain.SeverityMedium
	}
}

func isSelfAttribute(node *parser.Node) bool {
	return node != nil &&
		node.Type == parser.NodeAttribute &&
		node.Object != nil &&
		node.Object.Type == parser.NodeName &&
		node.Object.Name == "self"
}
