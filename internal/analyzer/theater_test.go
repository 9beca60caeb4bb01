package analyzer

import (
	"testing"

	"github.com/connascence-tools/conscan/domain"
)

func TestTheaterDetectorEmptyTest(t *testing.T) {
	violations := detectWith(t, NewTheaterDetector(), `def test_nothing():
    pass
`)
	// An empty test trips both the empty-body rule and the no-assertions rule.
	if len(violations) != 2 {
		t.Fatalf("got %d violations, want 2", len(violations))
	}

	empty := violations[0]
	if empty.Type != domain.TheaterTestGaming {
		t.Errorf("Type = %s", empty.Type)
	}
	if empty.Description != "Empty test function - no actual testing" {
		t.Errorf("Description = %s", empty.Description)
	}
	if empty.Severity != domain.SeverityHigh {
		t.Errorf("Severity = %s, want high", empty.Severity)
	}
	if empty.Context["confidence"] != 0.95 {
		t.Errorf("confidence = %v", empty.Context["confidence"])
	}

	facade := violations[1]
	if facade.Type != domain.TheaterQualityFacade {
		t.Errorf("Type = %s", facade.Type)
	}
	if facade.Description != "Test 'test_nothing' has no assertions" {
		t.Errorf("Description = %s", facade.Description)
	}
}

func TestTheaterDetectorConstantAssert(t *testing.T) {
	violations := detectWith(t, NewTheaterDetector(), `def test_always_green():
    assert True
`)
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	v := violations[0]
	if v.Type != domain.TheaterTestGaming {
		t.Errorf("Type = %s", v.Type)
	}
	if v.Severity != domain.SeverityCritical {
		t.Errorf("Severity = %s, want critical", v.Severity)
	}
	if v.Description != "Test always passes with assert True" {
		t.Errorf("Description = %s", v.Description)
	}
	if v.Context["confidence"] != 0.98 {
		t.Errorf("confidence = %v", v.Context["confidence"])
	}
}

func TestTheaterDetectorNonTestFunctionsExempt(t *testing.T) {
	violations := detectWith(t, NewTheaterDetector(), `def nothing():
    pass

def check(x):
    assert True
`)
	if len(violations) != 0 {
		t.Errorf("Gaming rules only apply to test_ functions, got %d: %s", len(violations), violations[0].Description)
	}
}

func TestTheaterDetectorBareExcept(t *testing.T) {
	violations := detectWith(t, NewTheaterDetector(), `def load(path):
    try:
        return parse(path)
    except:
        return None
`)
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	v := violations[0]
	if v.Type != domain.TheaterErrorMasking {
		t.Errorf("Type = %s", v.Type)
	}
	if v.Severity != domain.SeverityHigh {
		t.Errorf("Severity = %s, want high", v.Severity)
	}
	if v.Description != "Bare except clause masks all errors" {
		t.Errorf("Description = %s", v.Description)
	}
	if v.Context["line"] != "except:" {
		t.Errorf("line = %v", v.Context["line"])
	}
}

func TestTheaterDetectorSilentHandler(t *testing.T) {
	violations := detectWith(t, NewTheaterDetector(), `def load(path):
    try:
        return parse(path)
    except IOError:
        pass
`)
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	v := violations[0]
	if v.Severity != domain.SeverityCritical {
		t.Errorf("Severity = %s, want critical", v.Severity)
	}
	if v.Description != "Exception silently ignored with pass" {
		t.Errorf("Description = %s", v.Description)
	}
}

func TestTheaterDetectorBareSilentHandlerTripsBoth(t *testing.T) {
	violations := detectWith(t, NewTheaterDetector(), `def load(path):
    try:
        return parse(path)
    except:
        pass
`)
	if len(violations) != 2 {
		t.Fatalf("got %d violations, want 2", len(violations))
	}
	if violations[0].Description != "Bare except clause masks all errors" {
		t.Errorf("first = %s", violations[0].Description)
	}
	if violations[1].Description != "Exception silently ignored with pass" {
		t.Errorf("second = %s", violations[1].Description)
	}
}

func TestTheaterDetectorMetricsInflation(t *testing.T) {
	violations := detectWith(t, NewTheaterDetector(), `coverage = 100
score = 1.0
success = True
quality = "excellent"
`)
	if len(violations) != 4 {
		t.Fatalf("got %d violations, want 4", len(violations))
	}
	for i, v := range violations {
		if v.Type != domain.TheaterMetricsInflation {
			t.Errorf("Type = %s", v.Type)
		}
		if v.Severity != domain.SeverityMedium {
			t.Errorf("Severity = %s, want medium", v.Severity)
		}
		if v.Description != "Hardcoded perfect metrics detected" {
			t.Errorf("Description = %s", v.Description)
		}
		if v.LineNumber != i+1 {
			t.Errorf("LineNumber = %d, want %d", v.LineNumber, i+1)
		}
		if v.Context["confidence"] != 0.7 {
			t.Errorf("confidence = %v", v.Context["confidence"])
		}
	}
}

func TestTheaterDetectorHandlerCommentLiteral(t *testing.T) {
	violations := detectWith(t, NewTheaterDetector(), `def save(data):
    try:
        persist(data)
    except IOError:
        "should never happen"
`)
	// The bare persist() call is another detector's concern.
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	v := violations[0]
	if v.Type != domain.TheaterQualityFacade {
		t.Errorf("Type = %s", v.Type)
	}
	if v.Description != "Exception handler only contains a comment literal" {
		t.Errorf("Description = %s", v.Description)
	}
	if v.Context["comment"] != "should never happen" {
		t.Errorf("comment = %v", v.Context["comment"])
	}
}

func TestTheaterDetectorHalfAnnotated(t *testing.T) {
	violations := detectWith(t, NewTheaterDetector(), `def compute(a, b) -> int:
    return a + b
`)
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	v := violations[0]
	if v.Type != domain.TheaterQualityFacade {
		t.Errorf("Type = %s", v.Type)
	}
	if v.Severity != domain.SeverityLow {
		t.Errorf("Severity = %s, want low", v.Severity)
	}
	if v.Description != "Function 'compute' has return type hint but no parameter hints" {
		t.Errorf("Description = %s", v.Description)
	}
}

func TestTheaterDetectorAnnotationShapesAccepted(t *testing.T) {
	cases := []struct {
		name   string
		source string
	}{
		{"fully annotated", "def compute(a: int, b: int) -> int:\n    return a + b\n"},
		{"partially annotated", "def compute(a: int, b) -> int:\n    return a + b\n"},
		{"no return hint", "def compute(a, b):\n    return a + b\n"},
		{"zero params", "def ping() -> bool:\n    return True\n"},
		{"private", "def _compute(a, b) -> int:\n    return a + b\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			violations := detectWith(t, NewTheaterDetector(), tc.source)
			if len(violations) != 0 {
				t.Errorf("got %d violations, want 0: %s", len(violations), violations[0].Description)
			}
		})
	}
}

func TestTheaterDetectorTestWithoutAssertions(t *testing.T) {
	violations := detectWith(t, NewTheaterDetector(), `def test_process():
    result = process()
    record(result)
`)
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	v := violations[0]
	if v.Severity != domain.SeverityHigh {
		t.Errorf("Severity = %s, want high", v.Severity)
	}
	if v.Description != "Test 'test_process' has no assertions" {
		t.Errorf("Description = %s", v.Description)
	}
	if v.Context["confidence"] != 0.85 {
		t.Errorf("confidence = %v", v.Context["confidence"])
	}
}

func TestTheaterDetectorUnittestAssertionsCount(t *testing.T) {
	cases := []struct {
		name   string
		source string
	}{
		{"plain assert", "def test_sum():\n    assert add(2, 2) == 4\n"},
		{"unittest style", "def test_sum(self):\n    self.assertEqual(add(2, 2), 4)\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			violations := detectWith(t, NewTheaterDetector(), tc.source)
			if len(violations) != 0 {
				t.Errorf("got %d violations, want 0: %s", len(violations), violations[0].Description)
			}
		})
	}
}
