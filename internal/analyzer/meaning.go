package analyzer

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/parser"
)

// contextType classifies the source-line context of a literal. The order of
// classification is part of the contract: bitmask wins over unit-tagged,
// unit-tagged over loop-index, and so on down to generic.
type contextType string

const (
	contextBitmask          contextType = "bitmask"
	contextUnitTagged       contextType = "unit_tagged"
	contextLoopIndex        contextType = "loop_index"
	contextTestSeed         contextType = "test_seed"
	contextProtocolBoundary contextType = "protocol_boundary"
	contextMathematical     contextType = "mathematical"
	contextPowerOfTwo       contextType = "power_of_two"
	contextTimeUnit         contextType = "time_unit"
	contextPercentage       contextType = "percentage"
	contextGeneric          contextType = "generic"
)

// Domain allowlists. Values here are provisionally not magic: common small
// integers, powers of two, round time and percentage values, well-known
// floats, and encoding names.
var (
	safeIntegers = map[int64]bool{
		-1: true, 0: true, 1: true, 2: true, 3: true, 4: true, 5: true,
		7: true, 10: true, 12: true, 24: true, 60: true, 100: true,
		1000: true, 1024: true,
	}
	timeUnitSeconds = map[int64]bool{
		60: true, 300: true, 600: true, 900: true, 1800: true,
		3600: true, 7200: true, 86400: true,
	}
	safePercentages = map[int64]bool{
		5: true, 10: true, 15: true, 20: true, 25: true, 30: true,
		40: true, 50: true, 60: true, 70: true, 75: true, 80: true,
		85: true, 90: true, 95: true,
	}
	safeFloats = []float64{0.0, 0.5, 1.0, 1.5, 2.0, -1.0, 0.1, 0.25, 0.75, 0.01, 0.001}

	safeEncodings = map[string]bool{
		"utf-8": true, "ascii": true, "json": true,
		"xml": true, "html": true, "csv": true,
	}

	commonHTTPStatus = map[int64]bool{
		200: true, 201: true, 400: true, 401: true, 403: true, 404: true, 500: true,
	}
)

var (
	unitSuffixPattern      = regexp.MustCompile(`_(ms|sec|min|hour|day|px|dp|pt|em|rem|mb|kb|gb|tb)\b`)
	unitNamePattern        = regexp.MustCompile(`_(timeout|interval|delay|duration|size|count|limit)\b`)
	dimensionPrefixPattern = regexp.MustCompile(`(width|height|margin|padding|border)_`)
	identifierPattern      = regexp.MustCompile(`\b[a-zA-Z_][a-zA-Z0-9_]*\b`)
)

var nameStopwords = map[string]bool{
	"self": true, "def": true, "class": true, "if": true, "else": true,
	"for": true, "while": true, "in": true, "is": true, "and": true,
	"or": true, "not": true, "import": true, "from": true, "return": true,
	"with": true, "as": true, "try": true, "except": true, "finally": true,
	"raise": true,
}

// refactorPattern describes how to extract a magic literal, with a worked
// example interpolating the literal itself.
type refactorPattern struct {
	name        string
	description string
	example     string
}

// magicLiteral is one literal that survived the coarse filter and the safety
// veto, with its classified context.
type magicLiteral struct {
	node            *parser.Node
	repr            string
	typeName        string
	line            string
	contextType     contextType
	category        string
	severity        domain.Severity
	suggested       string
	pattern         refactorPattern
	inConditional   bool
	securityRelated bool
}

// MeaningDetector flags magic literals whose meaning is not self-evident
// from their token. A contextual pipeline classifies each literal's source
// line and vetoes contexts where unnamed values are conventional (bitmasks,
// loop indices, unit-tagged assignments, test seeds).
type MeaningDetector struct {
	factory *ViolationFactory
}

// NewMeaningDetector creates a magic literal detector.
func NewMeaningDetector() *MeaningDetector {
	return &MeaningDetector{factory: NewViolationFactory()}
}

// Name implements Detector.
func (d *MeaningDetector) Name() string { return DetectorMeaning }

// Detect implements Detector.
func (d *MeaningDetector) Detect(ctx *AnalysisContext) ([]domain.Violation, error) {
	var violations []domain.Violation
	for _, node := range FindNodesByType(ctx.Root, parser.NodeConstant) {
		lit, ok := analyzeMagicLiteral(node, ctx.SourceLines, ctx.FilePath)
		if !ok {
			continue
		}
		v, err := d.factory.NewMeaningViolation(node.Location, node.Value, lit,
			ExtractSnippet(ctx.SourceLines, node.Location.StartLine, 2))
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, nil
}

// analyzeMagicLiteral runs the full pipeline for one constant node: coarse
// allowlist filter, context classification, safety veto, categorization,
// severity, and constant-name suggestion. ok is false when the literal is
// not magic or its context is safe.
func analyzeMagicLiteral(node *parser.Node, lines []string, filePath string) (*magicLiteral, bool) {
	if !shouldAnalyzeLiteral(node) {
		return nil, false
	}

	line := SourceLine(lines, node.Location.StartLine)
	ct := classifyLiteralContext(node, line, filePath)
	if isLiteralContextSafe(ct, line) {
		return nil, false
	}

	lower := strings.ToLower(line)
	inConditional := IsInConditional(lines, node.Location.StartLine)
	window := strings.ToLower(ContextWindow(lines, node.Location.StartLine, 2))
	securityRelated := containsAny(window, "password", "secret", "key", "token", "auth", "crypto")

	lit := &magicLiteral{
		node:            node,
		repr:            literalRepr(node),
		typeName:        literalTypeName(node),
		line:            line,
		contextType:     ct,
		category:        categorizeLiteral(ct, lower),
		inConditional:   inConditional,
		securityRelated: securityRelated,
	}
	lit.severity = literalSeverity(node, ct, lower, inConditional)
	lit.suggested = suggestConstantName(node, ct, line)
	lit.pattern = refactoringPattern(node, securityRelated, inConditional)
	return lit, true
}

// shouldAnalyzeLiteral is the coarse filter: booleans, None, bytes, short or
// well-known strings, and allowlisted numbers are never magic. Negative
// numbers are judged by magnitude.
func shouldAnalyzeLiteral(node *parser.Node) bool {
	if node == nil || node.Type != parser.NodeConstant {
		return false
	}
	switch node.Kind {
	case parser.ConstInt:
		v, _ := node.Value.(int64)
		a := v
		if a < 0 {
			a = -a
		}
		if safeIntegers[v] || safeIntegers[a] {
			return false
		}
		if a <= 8192 && a > 0 && a&(a-1) == 0 {
			return false
		}
		if timeUnitSeconds[a] || safePercentages[a] {
			return false
		}
		return a >= 2

	case parser.ConstFloat:
		f, _ := node.Value.(float64)
		a := math.Abs(f)
		for _, sf := range safeFloats {
			if f == sf || a == sf {
				return false
			}
		}
		if math.Abs(a-math.Pi) < 0.001 || math.Abs(a-math.E) < 0.001 {
			return false
		}
		return a >= 2.0

	case parser.ConstStr:
		s, _ := node.Value.(string)
		if len(s) <= 2 {
			return false
		}
		if safeEncodings[strings.ToLower(s)] {
			return false
		}
		if isRepeatedChar(s) {
			return false
		}
		return true
	}
	return false
}

// classifyLiteralContext assigns exactly one context type by inspecting the
// literal's source line and, for test seeds, the file path.
func classifyLiteralContext(node *parser.Node, line, filePath string) contextType {
	lower := strings.ToLower(line)

	if containsAny(line, "&", "|", "^", "<<", ">>", "~") {
		return contextBitmask
	}
	if unitSuffixPattern.MatchString(lower) || unitNamePattern.MatchString(lower) ||
		dimensionPrefixPattern.MatchString(lower) {
		return contextUnitTagged
	}

	intVal, isInt := literalIntMagnitude(node)
	if isInt && intVal >= 0 && intVal <= 10 &&
		containsAny(line, "range(", "for i in", "for _ in") {
		return contextLoopIndex
	}
	if strings.Contains(strings.ToLower(filePath), "test") &&
		containsAny(lower, "seed", "fixture", "mock") {
		return contextTestSeed
	}
	if isInt && ((intVal >= 100 && intVal <= 599) || commonHTTPStatus[intVal]) {
		return contextProtocolBoundary
	}
	if containsAny(lower, "math.", "sqrt", "pow", "sin", "cos", "tan", "pi", "radius") {
		return contextMathematical
	}
	if isInt && intVal > 0 && intVal&(intVal-1) == 0 {
		return contextPowerOfTwo
	}
	if containsAny(lower, "timeout", "interval", "delay", "duration", "sleep", "wait") {
		return contextTimeUnit
	}
	if isInt && intVal >= 0 && intVal <= 100 && containsAny(lower, "percent", "ratio", "rate") {
		return contextPercentage
	}
	return contextGeneric
}

// isLiteralContextSafe is the safety veto. Bitmask, unit-tagged, loop-index,
// test-seed, mathematical, and protocol-boundary contexts never produce
// violations. Powers of two are safe when the line names a capacity.
func isLiteralContextSafe(ct contextType, line string) bool {
	switch ct {
	case contextBitmask, contextUnitTagged, contextLoopIndex,
		contextTestSeed, contextMathematical, contextProtocolBoundary:
		return true
	case contextPowerOfTwo:
		return containsAny(strings.ToLower(line), "buffer", "cache", "memory", "size", "limit")
	}
	return false
}

// categorizeLiteral assigns a business category, security keywords taking
// priority over everything else.
func categorizeLiteral(ct contextType, lower string) string {
	switch ct {
	case contextTimeUnit:
		return "timing"
	case contextProtocolBoundary:
		return "network"
	case contextPercentage:
		return "configuration"
	}
	switch {
	case containsAny(lower, "password", "auth", "token", "secret", "crypto", "hash", "encrypt"):
		return "security"
	case containsAny(lower, "timeout", "interval", "delay", "sleep", "duration", "seconds", "minutes", "hours"):
		return "timing"
	case containsAny(lower, "config", "setting", "option", "parameter", "limit", "max", "min"):
		return "configuration"
	case containsAny(lower, "port", "host", "url", "endpoint", "api", "http", "connection"):
		return "network"
	case containsAny(lower, "path", "file", "dir", "extension", "filename"):
		return "file_system"
	case containsAny(lower, "cost", "price", "rate", "budget", "threshold"):
		return "business_logic"
	case containsAny(lower, "format", "message", "log", "print", "display"):
		return "presentation"
	default:
		return "unknown"
	}
}

// literalSeverity assesses how dangerous the magic literal is in its
// context.
func literalSeverity(node *parser.Node, ct contextType, lower string, inConditional bool) domain.Severity {
	if containsAny(lower, "password", "secret", "key", "token", "auth") {
		return domain.SeverityCritical
	}
	if ct == contextProtocolBoundary && containsAny(lower, "auth", "security", "permission", "access") {
		return domain.SeverityCritical
	}
	if inConditional && ct != contextLoopIndex {
		return domain.SeverityHigh
	}
	if num, ok := node.NumericValue(); ok && math.Abs(num) > 1000 && ct == contextGeneric {
		return domain.SeverityHigh
	}
	if ct == contextTimeUnit || ct == contextPercentage || strings.Contains(lower, "business") {
		return domain.SeverityMedium
	}
	if ct == contextLoopIndex || ct == contextTestSeed || ct == contextMathematical {
		return domain.SeverityLow
	}
	return domain.SeverityMedium
}

// suggestConstantName derives an identifier from the source line's
// non-stopword tokens plus a context-appropriate suffix.
func suggestConstantName(node *parser.Node, ct contextType, line string) string {
	var meaningful []string
	for _, w := range identifierPattern.FindAllString(line, -1) {
		if len(w) <= 1 || nameStopwords[strings.ToLower(w)] {
			continue
		}
		meaningful = append(meaningful, strings.ToUpper(w))
		if len(meaningful) == 3 {
			break
		}
	}
	base := "DEFAULT"
	if len(meaningful) > 0 {
		base = strings.Join(meaningful, "_")
	}

	switch ct {
	case contextTimeUnit:
		return base + "_SECONDS"
	case contextPercentage:
		return base + "_PERCENT"
	case contextProtocolBoundary:
		return base + "_STATUS_CODE"
	case contextPowerOfTwo:
		return base + "_SIZE"
	}

	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "timeout"):
		return base + "_TIMEOUT_SECONDS"
	case strings.Contains(lower, "interval"):
		return base + "_INTERVAL_SECONDS"
	case strings.Contains(lower, "limit"):
		return base + "_LIMIT"
	case strings.Contains(lower, "max"):
		return base + "_MAX"
	case strings.Contains(lower, "min"):
		return base + "_MIN"
	}

	if node.Kind == parser.ConstStr {
		if base != "DEFAULT" {
			return base + "_MESSAGE"
		}
		return "DEFAULT_MESSAGE"
	}
	if _, ok := node.NumericValue(); ok {
		if base != "DEFAULT" {
			return base + "_VALUE"
		}
		return "DEFAULT_VALUE"
	}
	if base != "DEFAULT" {
		return base
	}
	return "UNNAMED_CONSTANT"
}

// refactoringPattern picks the extraction strategy for the literal and
// builds a worked example around its value.
func refactoringPattern(node *parser.Node, securityRelated, inConditional bool) refactorPattern {
	if securityRelated {
		return refactorPattern{
			name:        "environment_variable",
			description: "Move security-related literal to environment variable or config",
			example:     `SECRET_KEY = os.environ.get("SECRET_KEY"); if key == SECRET_KEY:`,
		}
	}
	if _, ok := node.NumericValue(); ok {
		if inConditional {
			return refactorPattern{
				name:        "status_constant",
				description: "Extract numeric literal to status constant or enum",
				example:     fmt.Sprintf("STATUS_ACTIVE = %v; if status == STATUS_ACTIVE:", node.Value),
			}
		}
		return refactorPattern{
			name:        "configuration_constant",
			description: "Move numeric literal to configuration constants",
			example:     fmt.Sprintf("MAX_RETRIES = %v; for _ in range(MAX_RETRIES):", node.Value),
		}
	}
	if s, ok := node.StringValue(); ok {
		if len(s) < 10 {
			return refactorPattern{
				name:        "string_constant",
				description: "Extract string literal to named constant",
				example:     fmt.Sprintf(`DEFAULT_FORMAT = "%s"; format_type = DEFAULT_FORMAT`, s),
			}
		}
		truncated := s
		if len(truncated) > 30 {
			truncated = truncated[:30]
		}
		return refactorPattern{
			name:        "message_template",
			description: "Move long string to message template or i18n",
			example:     fmt.Sprintf(`ERROR_TEMPLATE = "%s..."; raise ValueError(ERROR_TEMPLATE)`, truncated),
		}
	}
	return refactorPattern{
		name:        "typed_constant",
		description: fmt.Sprintf("Extract %s literal to named constant", literalTypeName(node)),
		example:     fmt.Sprintf("DEFAULT_VALUE = %v; value = value or DEFAULT_VALUE", node.Value),
	}
}

func literalRepr(node *parser.Node) string {
	switch node.Kind {
	case parser.ConstStr:
		s, _ := node.Value.(string)
		return s
	default:
		return fmt.Sprintf("%v", node.Value)
	}
}

func literalTypeName(node *parser.Node) string {
	switch node.Kind {
	case parser.ConstInt:
		return "int"
	case parser.ConstFloat:
		return "float"
	case parser.ConstStr:
		return "str"
	case parser.ConstBool:
		return "bool"
	case parser.ConstBytes:
		return "bytes"
	default:
		return "none"
	}
}

// literalIntMagnitude returns the absolute integer value of the node, which
// is how a sign-folded negative literal reads in source position checks.
func literalIntMagnitude(node *parser.Node) (int64, bool) {
	if node.Kind != parser.ConstInt {
		return 0, false
	}
	v, ok := node.Value.(int64)
	if !ok {
		return 0, false
	}
	if v < 0 {
		v = -v
	}
	return v, true
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func isRepeatedChar(s string) bool {
	if len(s) < 3 {
		return false
	}
	first := s[0]
	for i := 1; i < len(s); i++ {
		if s[i] != first {
			return false
		}
	}
	return true
}
