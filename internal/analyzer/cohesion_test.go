package analyzer

import (
	"math"
	"testing"

	"github.com/connascence-tools/conscan/internal/parser"
	"github.com/connascence-tools/conscan/internal/testutil"
)

func classNode(t *testing.T, source, name string) *parser.Node {
	t.Helper()
	class := testutil.FindClassInAST(testutil.ParseModule(t, source), name)
	if class == nil {
		t.Fatalf("class %s not found", name)
	}
	return class
}

func TestLCOM5(t *testing.T) {
	cases := []struct {
		name   string
		source string
		class  string
		want   float64
	}{
		{
			"single method is cohesive by definition",
			`class One:
    def only(self):
        self.value = 1
`,
			"One", 0,
		},
		{
			"no instance attributes",
			`class Tools:
    def upper(self, text):
        return text.upper()

    def lower(self, text):
        return text.lower()
`,
			"Tools", 0,
		},
		{
			"every method shares the attribute",
			`class Counter:
    def bump(self):
        self.total = self.total + 1
        return self.total

    def reset(self):
        self.total = 0
        return 0
`,
			"Counter", 0,
		},
		{
			"disjoint attribute clusters",
			`class Silo:
    def a(self):
        self.x = 1

    def b(self):
        self.y = 2

    def c(self):
        self.z = 3
`,
			"Silo", 1.0,
		},
		{
			"partial overlap",
			`class Pair:
    def first(self):
        self.x = 1
        self.y = 2

    def second(self):
        self.x = 3
`,
			"Pair", 0.5,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := LCOM5(classNode(t, tc.source, tc.class))
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("LCOM5 = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMethodAttributeRatio(t *testing.T) {
	utility := `class Tools:
    def upper(self, text):
        return text.upper()

    def lower(self, text):
        return text.lower()

    def strip(self, text):
        return text.strip()
`
	if got := MethodAttributeRatio(classNode(t, utility, "Tools")); got != 3.0 {
		t.Errorf("attribute-free class ratio = %v, want method count 3", got)
	}

	counter := `class Counter:
    def bump(self):
        self.total = self.total + 1

    def reset(self):
        self.total = 0
`
	if got := MethodAttributeRatio(classNode(t, counter, "Counter")); got != 2.0 {
		t.Errorf("ratio = %v, want 2.0", got)
	}
}

func TestInterfaceCohesion(t *testing.T) {
	cases := []struct {
		name   string
		source string
		class  string
		want   float64
	}{
		{
			"single public method",
			`class Guard:
    def check(self, value):
        return value

    def _inner(self, a, b, c):
        return a
`,
			"Guard", 1.0,
		},
		{
			"uniform signatures and returns",
			`class Counter:
    def bump(self):
        return self.total

    def read(self):
        return self.total
`,
			"Counter", 1.0,
		},
		{
			"half the methods return",
			`class Feed:
    def next(self):
        return self.cursor

    def advance(self):
        self.cursor = self.cursor + 1
`,
			"Feed", 0.75,
		},
		{
			"wild parameter spread clamps to the return half",
			`class Mixer:
    def blend(self, a, b, c, d):
        return a

    def tap(self):
        return 1
`,
			"Mixer", 0.5,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := InterfaceCohesion(classNode(t, tc.source, tc.class))
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("InterfaceCohesion = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBehavioralCohesion(t *testing.T) {
	single := `class One:
    def only(self):
        helper(self)
`
	if got := BehavioralCohesion(classNode(t, single, "One")); got != 1.0 {
		t.Errorf("single method = %v, want 1.0", got)
	}

	noCalls := `class Counter:
    def bump(self):
        self.total = self.total + 1

    def reset(self):
        self.total = 0
`
	if got := BehavioralCohesion(classNode(t, noCalls, "Counter")); got != 0.5 {
		t.Errorf("no calls = %v, want neutral 0.5", got)
	}

	// run issues three calls: two on self to own methods, one external.
	mixed := `class Pipeline:
    def run(self):
        self.load()
        self.store()
        emit(self)

    def load(self):
        self.data = []

    def store(self):
        self.done = True
`
	got := BehavioralCohesion(classNode(t, mixed, "Pipeline"))
	if math.Abs(got-2.0/3.0) > 1e-9 {
		t.Errorf("mixed calls = %v, want 2/3", got)
	}

	external := `class Tools:
    def upper(self, text):
        return text.upper()

    def lower(self, text):
        return text.lower()
`
	if got := BehavioralCohesion(classNode(t, external, "Tools")); got != 0 {
		t.Errorf("external calls only = %v, want 0", got)
	}
}

func TestComputeCohesionCombination(t *testing.T) {
	source := `class Counter:
    def bump(self):
        self.total = self.total + 1
        return self.total

    def reset(self):
        self.total = 0
        return 0
`
	m := ComputeCohesion(classNode(t, source, "Counter"))

	if m.LCOM5 != 0 {
		t.Errorf("LCOM5 = %v, want 0", m.LCOM5)
	}
	if m.MethodAttributeRatio != 2.0 {
		t.Errorf("MethodAttributeRatio = %v, want 2.0", m.MethodAttributeRatio)
	}
	if m.InterfaceCohesion != 1.0 {
		t.Errorf("InterfaceCohesion = %v, want 1.0", m.InterfaceCohesion)
	}
	if m.BehavioralCohesion != 0.5 {
		t.Errorf("BehavioralCohesion = %v, want 0.5", m.BehavioralCohesion)
	}
	if m.DataCohesion != 0 {
		t.Errorf("DataCohesion = %v, want reserved 0", m.DataCohesion)
	}

	// 0.3*1 + 0.2*1 + 0.2*0 + 0.15*0.5 + 0.15*(2/3)
	want := 0.675
	if math.Abs(m.OverallCohesion-want) > 1e-9 {
		t.Errorf("OverallCohesion = %v, want %v", m.OverallCohesion, want)
	}
}
