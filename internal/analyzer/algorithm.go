package analyzer

import (
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/parser"
)

// AlgorithmDetector finds structurally identical function bodies inside a
// file. Bodies are normalized to coarse statement tokens so that renamed
// variables still group together; the trade is precision for an O(n) hash
// map lookup. Each grouped pair is then re-scored with tree edit distance
// so the report carries how close the duplicates really are.
type AlgorithmDetector struct {
	factory   *ViolationFactory
	converter *TreeConverter
	apted     *APTEDAnalyzer
}

// NewAlgorithmDetector creates a duplicate-algorithm detector.
func NewAlgorithmDetector() *AlgorithmDetector {
	return &AlgorithmDetector{
		factory:   NewViolationFactory(),
		converter: NewTreeConverter(),
		apted:     NewAPTEDAnalyzer(NewPythonCostModel()),
	}
}

// Name implements Detector.
func (d *AlgorithmDetector) Name() string { return DetectorAlgorithm }

// Detect implements Detector.
func (d *AlgorithmDetector) Detect(ctx *AnalysisContext) ([]domain.Violation, error) {
	groups := map[string][]*parser.Node{}
	var order []string

	for _, fn := range FindNodesByType(ctx.Root, parser.NodeFunctionDef) {
		if len(fn.Body) <= 3 {
			continue
		}
		sig := functionSignature(fn)
		if _, seen := groups[sig]; !seen {
			order = append(order, sig)
		}
		groups[sig] = append(groups[sig], fn)
	}

	var violations []domain.Violation
	for _, sig := range order {
		members := groups[sig]
		if len(members) < 2 {
			continue
		}

		hash := fmt.Sprintf("%016x", xxhash.Sum64String(sig))
		trees := make([]*TreeNode, len(members))
		for i, fn := range members {
			trees[i] = d.converter.ConvertAST(fn)
		}

		for i, fn := range members {
			var similar []string
			minSimilarity := 1.0
			for j, other := range members {
				if j == i {
					continue
				}
				similar = append(similar, other.Name)
				if sim := d.apted.ComputeSimilarity(trees[i], trees[j]); sim < minSimilarity {
					minSimilarity = sim
				}
			}
			v, err := d.factory.New(domain.Violation{
				Type:           domain.ConnascenceOfAlgorithm,
				Severity:       domain.SeverityMedium,
				FilePath:       ctx.FilePath,
				LineNumber:     fn.Location.StartLine,
				Column:         fn.Location.StartCol,
				Description:    fmt.Sprintf("Function '%s' appears to duplicate algorithm from other functions", fn.Name),
				Recommendation: "Extract common algorithm into shared function or module",
				CodeSnippet:    ExtractSnippet(ctx.SourceLines, fn.Location.StartLine, 2),
				FunctionName:   fn.Name,
				Locality:       domain.LocalitySameModule,
				Context: map[string]any{
					"duplicate_count":       len(members),
					"function_name":         fn.Name,
					"similar_functions":     similar,
					"algorithm_hash":        hash,
					"structural_similarity": math.Round(minSimilarity*100) / 100,
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

// functionSignature reduces a function body to a pipe-joined token string.
// Only top-level statements contribute; nested structure is folded into the
// token of its opening statement.
func functionSignature(fn *parser.Node) string {
	tokens := make([]string, 0, len(fn.Body))
	for _, stmt := range fn.Body {
		tokens = append(tokens, normalizeStatement(stmt))
	}
	return strings.Join(tokens, "|")
}

func normalizeStatement(stmt *parser.Node) string {
	switch stmt.Type {
	case parser.NodeReturn:
		if stmt.Expr != nil {
			return "return_value"
		}
		return "return"
	case parser.NodeIf:
		return "if"
	case parser.NodeFor:
		return "for"
	case parser.NodeWhile:
		return "while"
	case parser.NodeAssign:
		return "assign"
	case parser.NodeExprStmt:
		if stmt.Expr != nil && stmt.Expr.Type == parser.NodeCall {
			return "call"
		}
		return "expr"
	default:
		return strings.ToLower(string(stmt.Type))
	}
}
