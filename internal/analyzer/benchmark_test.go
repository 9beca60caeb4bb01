package analyzer

import (
	"testing"

	"github.com/connascence-tools/conscan/internal/parser"
)

// Small function for benchmarking
var smallSource = `def scale(x):
    if x > 0:
        return x * 2
    return x
`

// Medium-sized function for benchmarking
var mediumSource = `def process(records):
    total = 0
    for record in records:
        if record.value > 0:
            total += record.value
        elif record.value < -10:
            total -= record.value
        if total > 1000:
            break
    if total == 0:
        return "zero"
    return "other"
`

// Module with mixed coupling patterns so every detector has work to do
var largeSource = `import threading
import time

REGISTRY = {}

def dispatch(source, target, payload, retries, backoff):
    if retries > 9:
        raise ValueError("too many retries")
    for attempt in range(retries):
        try:
            target.send(payload)
            return attempt
        except:
            time.sleep(backoff * 2)
    return -1

class SessionManager:
    def __init__(self):
        self.sessions = {}
        self.lock = threading.Lock()

    def open(self, user):
        self.lock.acquire()
        self.sessions[user] = time.time()
        self.lock.release()

    def close(self, user):
        if user in self.sessions:
            del self.sessions[user]

    def sweep(self):
        cutoff = time.time() - 1800
        for user in list(self.sessions):
            if self.sessions[user] < cutoff:
                self.close(user)
`

func parseBenchContext(tb testing.TB, source string) *AnalysisContext {
	p := parser.NewParser()
	defer p.Close()

	result, err := p.ParseString(source)
	if err != nil {
		tb.Fatalf("Failed to parse source: %v", err)
	}

	thresholds := DefaultThresholds()
	return &AnalysisContext{
		FilePath:    "<input>",
		SourceLines: result.SourceLines,
		Root:        result.Root,
		Thresholds:  &thresholds,
	}
}

// benchmarkSuite runs the full detector suite; Reset keeps the corpus
// accumulators from growing across iterations.
func benchmarkSuite(b *testing.B, source string) {
	ctx := parseBenchContext(b, source)
	orch := NewDetectorOrchestrator(nil, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = orch.DetectAll(ctx)
		orch.Reset()
	}
}

func BenchmarkDetectorSuite_Small(b *testing.B) {
	benchmarkSuite(b, smallSource)
}

func BenchmarkDetectorSuite_Medium(b *testing.B) {
	benchmarkSuite(b, mediumSource)
}

func BenchmarkDetectorSuite_Large(b *testing.B) {
	benchmarkSuite(b, largeSource)
}

func BenchmarkMeaningDetector(b *testing.B) {
	ctx := parseBenchContext(b, largeSource)
	d := NewMeaningDetector()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = d.Detect(ctx)
	}
}

func BenchmarkNasaDetector(b *testing.B) {
	ctx := parseBenchContext(b, largeSource)
	d := NewNasaDetector()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = d.Detect(ctx)
	}
}

func BenchmarkCohesionMetrics(b *testing.B) {
	ctx := parseBenchContext(b, largeSource)
	classes := FindNodesByType(ctx.Root, parser.NodeClassDef)
	if len(classes) == 0 {
		b.Fatal("Class not found")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ComputeCohesion(classes[0])
	}
}
