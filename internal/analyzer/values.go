package analyzer

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/parser"
)

// literalOccurrence is one sighting of a tracked literal value.
type literalOccurrence struct {
	file    string
	line    int
	column  int
	snippet string
}

// literalGroup accumulates every occurrence of one literal value across the
// whole run.
type literalGroup struct {
	repr        string
	valueType   string
	occurrences []literalOccurrence
}

// ValuesDetector finds duplicate-literal coupling: the same string or number
// repeated across the corpus, where changing one copy silently breaks the
// others. It is corpus-scoped: Detect only records sightings, and Finalize
// computes frequencies and emits violations once the whole file set has been
// seen. Safe for concurrent Detect calls from file workers.
type ValuesDetector struct {
	factory *ViolationFactory

	mu             sync.Mutex
	groups         map[string]*literalGroup
	minOccurrences int
}

var (
	excludedStrings = map[string]bool{
		"": true, " ": true, "\n": true, "\t": true,
		"True": true, "False": true, "None": true,
	}
	excludedNumbers = map[float64]bool{
		0: true, 1: true, -1: true, 2: true, 10: true, 100: true, 1000: true,
	}
)

// NewValuesDetector creates a duplicate-literal detector with empty
// accumulators.
func NewValuesDetector() *ValuesDetector {
	return &ValuesDetector{
		factory:        NewViolationFactory(),
		groups:         map[string]*literalGroup{},
		minOccurrences: DefaultThresholds().MagicLiteralRepetition,
	}
}

// Name implements Detector.
func (d *ValuesDetector) Name() string { return DetectorValues }

// Detect implements Detector. It records literal sightings and returns no
// violations; findings come from Finalize.
func (d *ValuesDetector) Detect(ctx *AnalysisContext) ([]domain.Violation, error) {
	type sighting struct {
		key   string
		repr  string
		vtype string
		occ   literalOccurrence
	}
	var sightings []sighting

	for _, node := range FindNodesByType(ctx.Root, parser.NodeConstant) {
		repr, vtype, ok := trackableLiteral(node)
		if !ok {
			continue
		}
		sightings = append(sightings, sighting{
			key:   vtype + "|" + repr,
			repr:  repr,
			vtype: vtype,
			occ: literalOccurrence{
				file:    ctx.FilePath,
				line:    node.Location.StartLine,
				column:  node.Location.StartCol,
				snippet: ExtractSnippet(ctx.SourceLines, node.Location.StartLine, 2),
			},
		})
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.minOccurrences = ctx.Thresholds.MagicLiteralRepetition
	for _, s := range sightings {
		group, ok := d.groups[s.key]
		if !ok {
			group = &literalGroup{repr: s.repr, valueType: s.vtype}
			d.groups[s.key] = group
		}
		group.occurrences = append(group.occurrences, s.occ)
	}
	return nil, nil
}

// Finalize implements CorpusDetector: emits one violation per occurrence of
// every literal repeated at least the configured minimum, ordered by first
// occurrence. A frequency outlier (count beyond mean + 2 stdev when at least
// ten distinct values were seen, beyond a fixed threshold of 2 otherwise)
// escalates to high severity.
func (d *ValuesDetector) Finalize() []domain.Violation {
	d.mu.Lock()
	defer d.mu.Unlock()

	var groups []*literalGroup
	for _, g := range d.groups {
		sort.Slice(g.occurrences, func(i, j int) bool {
			a, b := g.occurrences[i], g.occurrences[j]
			if a.file != b.file {
				return a.file < b.file
			}
			if a.line != b.line {
				return a.line < b.line
			}
			return a.column < b.column
		})
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].occurrences[0], groups[j].occurrences[0]
		if a.file != b.file {
			return a.file < b.file
		}
		if a.line != b.line {
			return a.line < b.line
		}
		return a.column < b.column
	})

	outlierThreshold := d.outlierThreshold()

	var violations []domain.Violation
	for _, g := range groups {
		count := len(g.occurrences)
		if count < d.minOccurrences {
			continue
		}
		outlier := float64(count) > outlierThreshold
		severity := domain.SeverityLow
		if count >= 5 {
			severity = domain.SeverityMedium
		}
		if outlier {
			severity = domain.SeverityHigh
		}
		for _, occ := range g.occurrences {
			v, err := d.factory.New(domain.Violation{
				Type:           domain.ConnascenceOfValues,
				Severity:       severity,
				FilePath:       occ.file,
				LineNumber:     occ.line,
				Column:         occ.column,
				Description:    fmt.Sprintf("Duplicate %s literal '%s' used %d times", g.valueType, g.repr, count),
				Recommendation: fmt.Sprintf("Extract '%s' to a named constant to reduce value coupling", g.repr),
				CodeSnippet:    occ.snippet,
				Locality:       domain.LocalityCrossModule,
				Context: map[string]any{
					"violation_type":     "duplicate_literal",
					"value":              g.repr,
					"value_type":         g.valueType,
					"usage_count":        count,
					"repetition_outlier": outlier,
				},
			})
			if err != nil {
				continue
			}
			violations = append(violations, v)
		}
	}
	return violations
}

// Reset implements CorpusDetector.
func (d *ValuesDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.groups = map[string]*literalGroup{}
}

// outlierThreshold computes the unusual-repetition cutoff from the frequency
// distribution of all distinct tracked values. Requires the caller to hold
// d.mu.
func (d *ValuesDetector) outlierThreshold() float64 {
	if len(d.groups) < 10 {
		return 2
	}
	var sum float64
	for _, g := range d.groups {
		sum += float64(len(g.occurrences))
	}
	mean := sum / float64(len(d.groups))
	var variance float64
	for _, g := range d.groups {
		diff := float64(len(g.occurrences)) - mean
		variance += diff * diff
	}
	variance /= float64(len(d.groups))
	return mean + 2*math.Sqrt(variance)
}

// trackableLiteral reports whether the constant participates in duplicate
// tracking, with its canonical string representation. Short strings and
// ubiquitous numbers are excluded.
func trackableLiteral(node *parser.Node) (repr, valueType string, ok bool) {
	switch node.Kind {
	case parser.ConstStr:
		s, _ := node.Value.(string)
		if excludedStrings[s] || len(s) <= 1 {
			return "", "", false
		}
		return s, "string", true
	case parser.ConstInt:
		v, _ := node.Value.(int64)
		if excludedNumbers[float64(v)] {
			return "", "", false
		}
		return strconv.FormatInt(v, 10), "numeric", true
	case parser.ConstFloat:
		f, _ := node.Value.(float64)
		if excludedNumbers[f] {
			return "", "", false
		}
		return floatRepr(f), "numeric", true
	}
	return "", "", false
}

// floatRepr formats a float the way its source form reads, keeping a
// trailing .0 so integer-valued floats stay distinct from integers.
func floatRepr(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	for _, r := range s {
		if r == '.' || r == 'e' || r == 'E' || r == 'n' || r == 'i' {
			return s
		}
	}
	return s + ".0"
}
