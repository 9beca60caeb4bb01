package analyzer

import (
	"fmt"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/parser"
)

// PositionDetector flags function definitions whose positional parameter
// count exceeds the configured threshold, and call sites that pass more than
// the threshold of positional arguments. Callers of such functions must know
// the exact argument order, the strongest everyday form of positional
// coupling. Definitions that stay within the positional limit but exceed the
// total parameter limit are reported at medium severity, since keyword-only
// parameters are named at every call site.
type PositionDetector struct {
	factory *ViolationFactory
}

// NewPositionDetector creates a position coupling detector.
func NewPositionDetector() *PositionDetector {
	return &PositionDetector{factory: NewViolationFactory()}
}

// Name implements Detector.
func (d *PositionDetector) Name() string { return DetectorPosition }

// Detect implements Detector.
func (d *PositionDetector) Detect(ctx *AnalysisContext) ([]domain.Violation, error) {
	threshold := ctx.Thresholds.MaxPositionalParams
	maxTotal := ctx.Thresholds.MaxFunctionParams
	var violations []domain.Violation

	for _, node := range FindNodesByType(ctx.Root, parser.NodeFunctionDef, parser.NodeCall) {
		switch node.Type {
		case parser.NodeFunctionDef:
			params := ExtractFunctionParams(node)
			total := params.Positional + params.KeywordOnly

			// One violation per def: the positional breach is the
			// stronger signal and subsumes the total-count one
			switch {
			case params.Positional > threshold:
				v, err := d.factory.NewPositionViolation(node.Location, node.Name,
					params.Positional, threshold,
					ExtractSnippet(ctx.SourceLines, node.Location.StartLine, 2))
				if err != nil {
					return nil, err
				}
				violations = append(violations, v)

			case maxTotal > 0 && total > maxTotal:
				v, err := d.factory.New(domain.Violation{
					Type:           domain.ConnascenceOfPosition,
					Severity:       domain.SeverityMedium,
					FilePath:       ctx.FilePath,
					LineNumber:     node.Location.StartLine,
					Column:         node.Location.StartCol,
					Description:    fmt.Sprintf("Function '%s' takes %d parameters (>%d)", node.Name, total, maxTotal),
					Recommendation: "Group related parameters into a dataclass or configuration object",
					CodeSnippet:    ExtractSnippet(ctx.SourceLines, node.Location.StartLine, 2),
					FunctionName:   node.Name,
					Locality:       domain.LocalitySameFunction,
					Context:        map[string]any{"parameter_count": total},
				})
				if err != nil {
					return nil, err
				}
				violations = append(violations, v)
			}

		case parser.NodeCall:
			if len(node.Args) <= threshold {
				continue
			}
			v, err := d.factory.New(domain.Violation{
				Type:           domain.ConnascenceOfPosition,
				Severity:       domain.SeverityMedium,
				FilePath:       ctx.FilePath,
				LineNumber:     node.Location.StartLine,
				Column:         node.Location.StartCol,
				Description:    fmt.Sprintf("Function call with %d positional arguments", len(node.Args)),
				Recommendation: "Use keyword arguments for better readability",
				CodeSnippet:    ExtractSnippet(ctx.SourceLines, node.Location.StartLine, 2),
				Locality:       domain.LocalitySameModule,
				Context:        map[string]any{"argument_count": len(node.Args)},
			})
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}
	}
	return violations, nil
}

// positionSeverity escalates with the distance above the threshold: medium
// up to +3, high up to +7, critical beyond.
func positionSeverity(count, threshold int) domain.Severity {
	switch excess := count - threshold; {
	case excess <= 3:
		return domain.SeverityMedium
	case excess <= 7:
		return domain.SeverityHigh
	default:
		return domain.SeverityCritical
	}
}
