package analyzer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/connascence-tools/conscan/domain"
)

func TestNasaRule1Recursion(t *testing.T) {
	violations := detectWith(t, NewNasaDetector(), `def fact(n):
    if n < 2:
        return 1
    return n * fact(n - 1)
`)
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	v := violations[0]
	if v.Type != domain.NasaRuleViolation(1) {
		t.Errorf("Type = %s", v.Type)
	}
	if v.Severity != domain.SeverityCritical {
		t.Errorf("Severity = %s, want critical", v.Severity)
	}
	if v.Description != "NASA Rule 1: Recursive function 'fact' detected" {
		t.Errorf("Description = %s", v.Description)
	}
	if v.Context["nasa_rule"] != "rule_1" {
		t.Errorf("nasa_rule = %v", v.Context["nasa_rule"])
	}
	if v.Context["violation_type"] != "recursive_function" {
		t.Errorf("violation_type = %v", v.Context["violation_type"])
	}
}

func TestNasaRule1Complexity(t *testing.T) {
	var b strings.Builder
	b.WriteString("def busy(x):\n    assert x\n    assert x > 0\n")
	for i := 0; i < 11; i++ {
		fmt.Fprintf(&b, "    if x > %d:\n        x = x + 1\n", i+20)
	}
	b.WriteString("    return x\n")

	violations := detectWith(t, NewNasaDetector(), b.String())
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	v := violations[0]
	if v.Severity != domain.SeverityHigh {
		t.Errorf("Severity = %s, want high", v.Severity)
	}
	if !strings.Contains(v.Description, "cyclomatic complexity 12 (limit: 10)") {
		t.Errorf("Description = %s", v.Description)
	}
	if v.Context["complexity"] != 12 {
		t.Errorf("complexity = %v", v.Context["complexity"])
	}
}

func TestNasaRule1Nesting(t *testing.T) {
	violations := detectWith(t, NewNasaDetector(), `def deep(x):
    assert x
    assert x > 0
    if x > 21:
        if x > 22:
            if x > 23:
                if x > 24:
                    if x > 25:
                        x = 0
    return x
`)
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	v := violations[0]
	if v.Severity != domain.SeverityMedium {
		t.Errorf("Severity = %s, want medium", v.Severity)
	}
	if !strings.Contains(v.Description, "nests 5 levels deep (limit: 4)") {
		t.Errorf("Description = %s", v.Description)
	}
}

func TestNasaRule2WhileTrue(t *testing.T) {
	violations := detectWith(t, NewNasaDetector(), `def run():
    while True:
        pass
`)
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	v := violations[0]
	if v.Type != domain.NasaRuleViolation(2) {
		t.Errorf("Type = %s", v.Type)
	}
	if v.Severity != domain.SeverityCritical {
		t.Errorf("Severity = %s, want critical", v.Severity)
	}
	if v.Description != "NASA Rule 2: Loop lacks statically determinable upper bound" {
		t.Errorf("Description = %s", v.Description)
	}
}

func TestNasaRule2WhileTrueWithBreak(t *testing.T) {
	violations := detectWith(t, NewNasaDetector(), `def run(q):
    while True:
        if q:
            break
`)
	if len(violations) != 0 {
		t.Errorf("while True with a reachable break passes, got %d: %s", len(violations), violations[0].Description)
	}
}

func TestNasaRule2BreakInNestedLoopDoesNotCount(t *testing.T) {
	violations := detectWith(t, NewNasaDetector(), `def run(items):
    while True:
        for item in items:
            break
`)
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	if violations[0].Severity != domain.SeverityCritical {
		t.Errorf("Severity = %s, want critical", violations[0].Severity)
	}
}

func TestNasaRule2WhileConditionShape(t *testing.T) {
	violations := detectWith(t, NewNasaDetector(), `def drain(q):
    while q:
        q.pop()
`)
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	v := violations[0]
	if v.Severity != domain.SeverityHigh {
		t.Errorf("Severity = %s, want high", v.Severity)
	}
	if v.Description != "NASA Rule 2: While condition is not a bounded comparison" {
		t.Errorf("Description = %s", v.Description)
	}

	bounded := detectWith(t, NewNasaDetector(), `def count(n):
    i = 0
    while i < n:
        i = i + 1
`)
	if len(bounded) != 0 {
		t.Errorf("Counter comparison loop passes, got %d: %s", len(bounded), bounded[0].Description)
	}
}

func TestNasaRule2ForLoopSources(t *testing.T) {
	flagged := detectWith(t, NewNasaDetector(), `def visit(tree):
    for node in walk(tree):
        result = handle(node)
`)
	if len(flagged) != 1 {
		t.Fatalf("got %d violations, want 1", len(flagged))
	}
	if !strings.Contains(flagged[0].Description, "Loop source 'walk()' is not a bounded iteration construct") {
		t.Errorf("Description = %s", flagged[0].Description)
	}

	allowed := []string{
		"def scan(n):\n    for i in range(n):\n        total = i\n",
		"def scan(data):\n    for k in data.keys():\n        total = k\n",
		"def scan(data):\n    for k, v in data.items():\n        total = v\n",
		"def scan(data):\n    for x in sorted(data):\n        total = x\n",
		"def scan(data):\n    for x in data:\n        total = x\n",
	}
	for _, source := range allowed {
		if violations := detectWith(t, NewNasaDetector(), source); len(violations) != 0 {
			t.Errorf("bounded loop flagged: %q -> %s", source, violations[0].Description)
		}
	}
}

func TestNasaRule3Allocator(t *testing.T) {
	violations := detectWith(t, NewNasaDetector(), `def grab(n):
    buf = malloc(n)
    return buf
`)
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	v := violations[0]
	if v.Type != domain.NasaRuleViolation(3) {
		t.Errorf("Type = %s", v.Type)
	}
	if v.Severity != domain.SeverityCritical {
		t.Errorf("Severity = %s, want critical", v.Severity)
	}
	if v.Description != "NASA Rule 3: Dynamic memory allocation detected" {
		t.Errorf("Description = %s", v.Description)
	}
}

func TestNasaRule3AllocationInLoop(t *testing.T) {
	violations := detectWith(t, NewNasaDetector(), `def collect(items):
    for item in items:
        bucket = list(item)
    return bucket
`)
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	v := violations[0]
	if v.Severity != domain.SeverityMedium {
		t.Errorf("Severity = %s, want medium", v.Severity)
	}
	if !strings.Contains(v.Description, "Collection 'list' allocated inside a loop") {
		t.Errorf("Description = %s", v.Description)
	}
	if v.Context["constructor"] != "list" {
		t.Errorf("constructor = %v", v.Context["constructor"])
	}
}

func TestNasaRule3IterPositionRunsOnce(t *testing.T) {
	violations := detectWith(t, NewNasaDetector(), `def materialize(data):
    for x in list(data):
        pass
`)
	if len(violations) != 0 {
		t.Errorf("Constructor in the iterable position runs once, got %d: %s", len(violations), violations[0].Description)
	}
}

func TestNasaRule4FunctionSize(t *testing.T) {
	build := func(assigns int, withDocstring bool) string {
		var b strings.Builder
		b.WriteString("def mega(x):\n")
		if withDocstring {
			b.WriteString("    \"\"\"Line one.\n    Line two.\n    \"\"\"\n")
		}
		b.WriteString("    assert x\n    assert x > 0\n")
		for i := 0; i < assigns; i++ {
			b.WriteString("    x = x + 1\n")
		}
		return b.String()
	}

	// def + 2 asserts + 57 assigns spans exactly 60 lines.
	if violations := detectWith(t, NewNasaDetector(), build(57, false)); len(violations) != 0 {
		t.Errorf("60-line function is at the limit, got %d: %s", len(violations), violations[0].Description)
	}

	// One more assignment crosses the limit at 61 lines.
	violations := detectWith(t, NewNasaDetector(), build(58, false))
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	v := violations[0]
	if v.Type != domain.NasaRuleViolation(4) {
		t.Errorf("Type = %s", v.Type)
	}
	if !strings.Contains(v.Description, "'mega' is 61 lines (limit: 60)") {
		t.Errorf("Description = %s", v.Description)
	}

	// A three-line docstring does not count against the limit.
	if violations := detectWith(t, NewNasaDetector(), build(57, true)); len(violations) != 0 {
		t.Errorf("Docstring lines counted against the limit: %s", violations[0].Description)
	}
}

func TestNasaRule5InsufficientAssertions(t *testing.T) {
	violations := detectWith(t, NewNasaDetector(), `def process(data):
    x = data + 1
    y = x * 2
    z = y - 3
    w = z * 4
    return w
`)
	if len(violations) != 2 {
		t.Fatalf("got %d violations, want 2", len(violations))
	}

	byType := map[string]domain.Violation{}
	for _, v := range violations {
		vt, _ := v.Context["violation_type"].(string)
		byType[vt] = v
	}

	missing, ok := byType["insufficient_assertions"]
	if !ok {
		t.Fatal("missing insufficient_assertions violation")
	}
	if missing.Severity != domain.SeverityHigh {
		t.Errorf("Severity = %s, want high", missing.Severity)
	}
	if missing.Context["assertion_count"] != 0 {
		t.Errorf("assertion_count = %v", missing.Context["assertion_count"])
	}

	precondition, ok := byType["missing_precondition"]
	if !ok {
		t.Fatal("missing missing_precondition violation")
	}
	if precondition.Severity != domain.SeverityMedium {
		t.Errorf("Severity = %s, want medium", precondition.Severity)
	}
}

func TestNasaRule5Satisfied(t *testing.T) {
	cases := []struct {
		name   string
		source string
	}{
		{"asserts", `def process(data):
    assert data
    assert len(data) > 0
    x = data[0]
    y = x * 2
    return y
`},
		{"guard clauses", `def process(data):
    if not data:
        raise ValueError("empty input")
    if data[0] < 0:
        raise ValueError("negative input")
    return data[0] * 2
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			violations := detectWith(t, NewNasaDetector(), tc.source)
			if len(violations) != 0 {
				t.Errorf("got %d violations, want 0: %s", len(violations), violations[0].Description)
			}
		})
	}
}

func TestNasaRule5SkipsShortFunctions(t *testing.T) {
	violations := detectWith(t, NewNasaDetector(), `def tiny(x):
    return x + 21
`)
	if len(violations) != 0 {
		t.Errorf("Short functions are exempt from rule 5, got %d: %s", len(violations), violations[0].Description)
	}
}

func TestNasaRule6GlobalDeclarations(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 7; i++ {
		fmt.Fprintf(&b, "def f%d():\n    global g%d, h%d, k%d\n    g%d = 1\n\n", i, i, i, i, i)
	}

	violations := detectWith(t, NewNasaDetector(), b.String())
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	v := violations[0]
	if v.Type != domain.NasaRuleViolation(6) {
		t.Errorf("Type = %s", v.Type)
	}
	if v.Description != "NASA Rule 6: Excessive global variables (21 > 20)" {
		t.Errorf("Description = %s", v.Description)
	}
	if v.LineNumber != 1 {
		t.Errorf("LineNumber = %d, want 1", v.LineNumber)
	}
	if v.Context["global_count"] != 21 {
		t.Errorf("global_count = %v", v.Context["global_count"])
	}
}

func TestNasaRule7BareCalls(t *testing.T) {
	violations := detectWith(t, NewNasaDetector(), `def fire(task):
    assert task
    assert callable(task)
    task()
    launch(task)
    print(task)
`)
	if len(violations) != 2 {
		t.Fatalf("got %d violations, want 2", len(violations))
	}
	for _, v := range violations {
		if v.Type != domain.NasaRuleViolation(7) {
			t.Errorf("Type = %s", v.Type)
		}
		if v.Description != "NASA Rule 7: Function return value not checked" {
			t.Errorf("Description = %s", v.Description)
		}
		if v.Severity != domain.SeverityHigh {
			t.Errorf("Severity = %s, want high", v.Severity)
		}
	}
	if violations[0].Context["function_name"] != "task" || violations[1].Context["function_name"] != "launch" {
		t.Errorf("function_names = %v, %v", violations[0].Context["function_name"], violations[1].Context["function_name"])
	}
}

func TestNasaRule7ReportCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("def fire(x):\n    assert x\n    assert x > 0\n")
	for i := 0; i < 7; i++ {
		fmt.Fprintf(&b, "    poke%d(x)\n", i)
	}

	violations := detectWith(t, NewNasaDetector(), b.String())
	if len(violations) != maxRule7Reports {
		t.Errorf("got %d violations, want the cap of %d", len(violations), maxRule7Reports)
	}
}
