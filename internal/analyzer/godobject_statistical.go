package analyzer

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/parser"
)

// minClassesForStatistics is the corpus size below which z-scores are too
// noisy to trust and fixed thresholds take over.
const minClassesForStatistics = 10

// StatisticalGodObjectAnalyzer profiles every class in a run and flags god
// objects by statistical outlier detection rather than fixed limits: a class
// is suspect when its complexity sits far above the corpus mean AND its
// methods do not cohere. Record files during the scan, then Finalize once.
// Safe for concurrent RecordFile calls.
type StatisticalGodObjectAnalyzer struct {
	logger *zap.Logger

	mu      sync.Mutex
	classes []domain.ClassAnalysis
}

// NewStatisticalGodObjectAnalyzer creates an empty corpus profiler.
func NewStatisticalGodObjectAnalyzer(logger *zap.Logger) *StatisticalGodObjectAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticalGodObjectAnalyzer{logger: logger}
}

// ShouldSkipFile excludes files whose classes would distort corpus
// statistics: caches, test modules, and package markers.
func (a *StatisticalGodObjectAnalyzer) ShouldSkipFile(path string) bool {
	if strings.Contains(path, "__pycache__") {
		return true
	}
	base := filepath.Base(path)
	return strings.HasPrefix(base, "test_") ||
		strings.HasSuffix(base, "_test.py") ||
		base == "__init__.py"
}

// RecordFile profiles every class definition in the file and adds the
// profiles to the corpus. Files matching the skip patterns are ignored.
func (a *StatisticalGodObjectAnalyzer) RecordFile(filePath string, root *parser.Node, sourceLines []string) {
	if root == nil || a.ShouldSkipFile(filePath) {
		return
	}

	var profiles []domain.ClassAnalysis
	for _, class := range FindNodesByType(root, parser.NodeClassDef) {
		profiles = append(profiles, profileClass(filePath, class, sourceLines))
	}
	if len(profiles) == 0 {
		return
	}

	a.mu.Lock()
	a.classes = append(a.classes, profiles...)
	a.mu.Unlock()
}

// ClassCount returns the number of classes profiled so far.
func (a *StatisticalGodObjectAnalyzer) ClassCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.classes)
}

// Finalize scores the whole corpus and returns the god object findings,
// highest score first. Small corpora fall back to fixed thresholds since
// z-scores need a population to mean anything. Safe to call more than once.
func (a *StatisticalGodObjectAnalyzer) Finalize() []domain.ClassAnalysis {
	a.mu.Lock()
	classes := make([]domain.ClassAnalysis, len(a.classes))
	copy(classes, a.classes)
	a.mu.Unlock()

	var findings []domain.ClassAnalysis
	if len(classes) < minClassesForStatistics {
		if len(classes) > 0 {
			a.logger.Warn("too few classes for statistical god object detection, using fixed thresholds",
				zap.Int("classes", len(classes)),
				zap.Int("minimum", minClassesForStatistics))
		}
		findings = fallbackFindings(classes)
	} else {
		findings = statisticalFindings(classes)
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].GodObjectScore != findings[j].GodObjectScore {
			return findings[i].GodObjectScore > findings[j].GodObjectScore
		}
		if findings[i].FilePath != findings[j].FilePath {
			return findings[i].FilePath < findings[j].FilePath
		}
		return findings[i].Name < findings[j].Name
	})
	return findings
}

// Reset clears the profiled corpus for an independent run.
func (a *StatisticalGodObjectAnalyzer) Reset() {
	a.mu.Lock()
	a.classes = nil
	a.mu.Unlock()
}

func statisticalFindings(classes []domain.ClassAnalysis) []domain.ClassAnalysis {
	scores := make([]float64, len(classes))
	for i := range classes {
		scores[i] = classes[i].Complexity.Score
	}
	mean := meanOf(scores)
	sd := stdevOf(scores)

	var findings []domain.ClassAnalysis
	for i := range classes {
		c := classes[i]
		c.ZScore = (c.Complexity.Score - mean) / math.Max(sd, 0.1)
		c.IsOutlier = c.ZScore > 2.0
		finishScoring(&c)
		if c.IsOutlier || c.GodObjectScore > 0.7 {
			findings = append(findings, c)
		}
	}
	return findings
}

// fallbackFindings applies the classic fixed limits when the corpus is too
// small for outlier statistics.
func fallbackFindings(classes []domain.ClassAnalysis) []domain.ClassAnalysis {
	var findings []domain.ClassAnalysis
	for i := range classes {
		c := classes[i]
		isGod := c.Complexity.LineCount > 500 ||
			c.Complexity.MethodCount > 20 ||
			c.Cohesion.LCOM5 > 3.0
		if !isGod {
			continue
		}
		score := (float64(c.Complexity.LineCount)/1000.0 +
			float64(c.Complexity.MethodCount)/30.0 +
			c.Cohesion.LCOM5/5.0) / 3.0
		c.GodObjectScore = math.Min(1.0, score)
		c.Confidence = math.Min(1.0, c.GodObjectScore)
		c.Severity = godObjectSeverityForScore(c.GodObjectScore)
		c.Evidence = godObjectEvidence(&c)
		c.Recommendations = godObjectSuggestions(&c)
		findings = append(findings, c)
	}
	return findings
}

// finishScoring fills the score-derived fields once ZScore and IsOutlier are
// known.
func finishScoring(c *domain.ClassAnalysis) {
	complexityFactor := math.Min(1.0, c.ZScore/3.0)
	lowCohesionFactor := math.Max(0.0, 1.0-c.Cohesion.OverallCohesion)
	base := complexityFactor*0.6 + lowCohesionFactor*0.4
	score := base * c.Role.ScoreMultiplier()
	c.GodObjectScore = math.Max(0.0, math.Min(1.0, score))

	c.Confidence = c.GodObjectScore
	if c.IsOutlier {
		c.Confidence = math.Min(1.0, c.Confidence+0.2)
	}
	c.Severity = godObjectSeverityForScore(c.GodObjectScore)
	c.Evidence = godObjectEvidence(c)
	c.Recommendations = godObjectSuggestions(c)
}

func godObjectSeverityForScore(score float64) domain.Severity {
	switch {
	case score >= 0.9:
		return domain.SeverityCritical
	case score >= 0.7:
		return domain.SeverityHigh
	case score >= 0.5:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func godObjectEvidence(c *domain.ClassAnalysis) []string {
	var evidence []string
	if c.ZScore > 2.0 {
		evidence = append(evidence, fmt.Sprintf("Complexity z-score: %.1f (95th+ percentile)", c.ZScore))
	}
	if c.Cohesion.OverallCohesion < 0.4 {
		evidence = append(evidence, fmt.Sprintf("Low cohesion score: %.2f", c.Cohesion.OverallCohesion))
	}
	if c.Cohesion.LCOM5 > 2.0 {
		evidence = append(evidence, fmt.Sprintf("High LCOM5: %.2f (methods don't share data)", c.Cohesion.LCOM5))
	}
	if c.Complexity.MethodCount > 20 {
		evidence = append(evidence, fmt.Sprintf("High method count: %d", c.Complexity.MethodCount))
	}
	return evidence
}

func godObjectSuggestions(c *domain.ClassAnalysis) []string {
	var suggestions []string
	if c.Cohesion.LCOM5 > 2.0 {
		suggestions = append(suggestions, "Extract Class: Group methods that share attributes")
	}
	if c.Complexity.MethodCount > 15 {
		suggestions = append(suggestions, "Extract Method: Break down complex methods into smaller ones")
	}
	if c.Complexity.AttributeCount > 10 {
		suggestions = append(suggestions, "Introduce Parameter Object: Group related attributes")
	}
	if c.Cohesion.BehavioralCohesion < 0.3 {
		suggestions = append(suggestions, "Move Method: Relocate methods to more appropriate classes")
	}
	if c.Role == domain.RoleController && c.Complexity.LineCount > 300 {
		suggestions = append(suggestions, "Command Pattern: Extract request handling into command objects")
	}
	if c.Role == domain.RoleGeneric && c.Complexity.MethodCount > 20 {
		suggestions = append(suggestions, "Strategy Pattern: Extract varying algorithms into strategies")
	}
	return suggestions
}

// profileClass captures the phase-one metrics for one class definition.
func profileClass(filePath string, class *parser.Node, lines []string) domain.ClassAnalysis {
	methods := MethodsOf(class)

	attrs := map[string]bool{}
	for _, method := range methods {
		for attr := range methodSelfAttributes(method) {
			attrs[attr] = true
		}
	}

	complexity := domain.ClassComplexityMetrics{
		MethodCount:          len(methods),
		LineCount:            codeLineCount(lines, class.Location.StartLine, class.Location.EndLine),
		AttributeCount:       len(attrs),
		CyclomaticComplexity: CyclomaticComplexity(class),
		NestingDepth:         MaxNestingDepth(class),
		FanOut:               classFanOut(class),
	}
	complexity.Score = float64(complexity.MethodCount)*1.0 +
		float64(complexity.LineCount)*0.01 +
		float64(complexity.AttributeCount)*1.5 +
		float64(complexity.CyclomaticComplexity)*0.5 +
		float64(complexity.NestingDepth)*2.0 +
		float64(complexity.FanOut)*1.2

	return domain.ClassAnalysis{
		Name:       class.Name,
		FilePath:   filePath,
		LineNumber: class.Location.StartLine,
		Role:       classifyClassRole(class.Name, complexity),
		Cohesion:   ComputeCohesion(class),
		Complexity: complexity,
	}
}

// codeLineCount counts the non-blank, non-comment lines in the 1-indexed
// inclusive range.
func codeLineCount(lines []string, start, end int) int {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	count := 0
	for i := start - 1; i < end; i++ {
		t := strings.TrimSpace(lines[i])
		if t != "" && !strings.HasPrefix(t, "#") {
			count++
		}
	}
	return count
}

// classFanOut counts distinct call targets outside the class itself: free
// function names and the root objects of attribute call chains, self and cls
// excluded.
func classFanOut(class *parser.Node) int {
	deps := map[string]bool{}
	class.Walk(func(n *parser.Node) bool {
		if n.Type != parser.NodeCall || n.Func == nil {
			return true
		}
		switch n.Func.Type {
		case parser.NodeName:
			deps[n.Func.Name] = true
		case parser.NodeAttribute:
			if base := rootObjectName(n.Func); base != "" && base != "self" && base != "cls" {
				deps[base] = true
			}
		}
		return true
	})
	return len(deps)
}

// rootObjectName walks an attribute chain to its leftmost name, e.g.
// "conn" for conn.cursor().execute.
func rootObjectName(node *parser.Node) string {
	for node != nil && node.Type == parser.NodeAttribute {
		node = node.Object
	}
	if node != nil && node.Type == parser.NodeName {
		return node.Name
	}
	return ""
}

var classRolePatterns = []struct {
	keywords []string
	role     domain.ClassRole
}{
	{[]string{"facade", "proxy", "adapter"}, domain.RoleFacade},
	{[]string{"controller", "handler", "manager"}, domain.RoleController},
	{[]string{"data", "model", "entity", "dto"}, domain.RoleDataContainer},
	{[]string{"util", "helper", "tool"}, domain.RoleUtility},
	{[]string{"coordinator", "orchestrator", "aggregator"}, domain.RoleAggregator},
}

// classifyClassRole infers the semantic role from the class name, falling
// back to shape heuristics when no naming pattern matches.
func classifyClassRole(name string, c domain.ClassComplexityMetrics) domain.ClassRole {
	lower := strings.ToLower(name)
	for _, p := range classRolePatterns {
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				return p.role
			}
		}
	}
	if c.MethodCount > 15 && c.AttributeCount < 5 {
		return domain.RoleUtility
	}
	if c.AttributeCount > 10 && c.MethodCount < 5 {
		return domain.RoleDataContainer
	}
	return domain.RoleGeneric
}
