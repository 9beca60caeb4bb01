package analyzer

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/parser"
)

// Detector names used for selection and statistics.
const (
	DetectorPosition   = "position"
	DetectorMeaning    = "meaning"
	DetectorNameUsage  = "name"
	DetectorTypeHints  = "type"
	DetectorAlgorithm  = "algorithm"
	DetectorGodObject  = "god_object"
	DetectorTiming     = "timing"
	DetectorConvention = "convention"
	DetectorValues     = "values"
	DetectorExecution  = "execution"
	DetectorIdentity   = "identity"
	DetectorNasa       = "nasa"
	DetectorTheater    = "theater"
)

// AnalysisContext carries everything a detector needs for one file: the
// typed tree, the raw source split into lines, and the shared thresholds.
type AnalysisContext struct {
	FilePath    string
	SourceLines []string
	Root        *parser.Node
	Thresholds  *ThresholdConfig
}

// Detector checks one coupling or quality concern against a single file.
type Detector interface {
	Name() string
	Detect(ctx *AnalysisContext) ([]domain.Violation, error)
}

// CorpusDetector is implemented by detectors that accumulate state across
// every file of a run and emit findings only once the whole corpus has been
// seen. Finalize must be called after the last Detect; Reset clears the
// accumulators for an independent run.
type CorpusDetector interface {
	Detector
	Finalize() []domain.Violation
	Reset()
}

// DetectorOrchestrator runs a fixed-order detector suite over files,
// isolating per-detector failures so one broken detector never aborts the
// batch. Safe for concurrent DetectAll calls from file workers.
type DetectorOrchestrator struct {
	detectors  []Detector
	thresholds *ThresholdConfig
	logger     *zap.Logger

	mu    sync.Mutex
	stats map[string]int
}

// NewDetectorOrchestrator builds the standard suite in its stable order.
func NewDetectorOrchestrator(thresholds *ThresholdConfig, logger *zap.Logger) *DetectorOrchestrator {
	detectors := []Detector{
		NewPositionDetector(),
		NewMeaningDetector(),
		NewNameDetector(),
		NewTypeHintDetector(),
		NewAlgorithmDetector(),
		NewGodObjectDetector(),
		NewTimingDetector(),
		NewConventionDetector(),
		NewValuesDetector(),
		NewExecutionDetector(),
		NewIdentityDetector(),
		NewNasaDetector(),
		NewTheaterDetector(),
	}
	return NewDetectorOrchestratorWith(thresholds, logger, detectors...)
}

// NewDetectorOrchestratorWith builds an orchestrator over an explicit suite.
func NewDetectorOrchestratorWith(thresholds *ThresholdConfig, logger *zap.Logger, detectors ...Detector) *DetectorOrchestrator {
	if thresholds == nil {
		t := DefaultThresholds()
		thresholds = &t
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DetectorOrchestrator{
		detectors:  detectors,
		thresholds: thresholds,
		logger:     logger,
		stats:      make(map[string]int),
	}
}

// DetectAll invokes every detector against the same tree and concatenates
// the results preserving each detector's internal ordering. A detector that
// returns an error or panics is logged and skipped, never propagated.
func (o *DetectorOrchestrator) DetectAll(ctx *AnalysisContext) []domain.Violation {
	return o.run(ctx, o.detectors)
}

// DetectByType runs the subset of the suite whose names appear in selected,
// preserving suite order.
func (o *DetectorOrchestrator) DetectByType(ctx *AnalysisContext, selected []string) []domain.Violation {
	want := make(map[string]bool, len(selected))
	for _, name := range selected {
		want[name] = true
	}
	var subset []Detector
	for _, d := range o.detectors {
		if want[d.Name()] {
			subset = append(subset, d)
		}
	}
	return o.run(ctx, subset)
}

func (o *DetectorOrchestrator) run(ctx *AnalysisContext, detectors []Detector) []domain.Violation {
	if ctx.Thresholds == nil {
		scoped := *ctx
		scoped.Thresholds = o.thresholds
		ctx = &scoped
	}
	var all []domain.Violation
	for _, d := range detectors {
		violations, err := o.detectSafely(d, ctx)
		if err != nil {
			o.logger.Warn("detector failed",
				zap.String("detector", d.Name()),
				zap.String("file", ctx.FilePath),
				zap.Error(err))
			continue
		}
		all = append(all, violations...)
		o.count(d.Name(), len(violations))
	}
	return all
}

func (o *DetectorOrchestrator) detectSafely(d Detector, ctx *AnalysisContext) (violations []domain.Violation, err error) {
	defer func() {
		if r := recover(); r != nil {
			violations = nil
			err = fmt.Errorf("detector %s panicked: %v", d.Name(), r)
		}
	}()
	return d.Detect(ctx)
}

// FinalizeCorpus flushes every corpus-scoped detector after the last file
// has been recorded and returns their accumulated findings.
func (o *DetectorOrchestrator) FinalizeCorpus() []domain.Violation {
	var all []domain.Violation
	for _, d := range o.detectors {
		cd, ok := d.(CorpusDetector)
		if !ok {
			continue
		}
		violations := cd.Finalize()
		all = append(all, violations...)
		o.count(cd.Name(), len(violations))
	}
	return all
}

// Reset clears run statistics and every corpus-scoped accumulator so the
// orchestrator can serve an independent run.
func (o *DetectorOrchestrator) Reset() {
	o.mu.Lock()
	o.stats = make(map[string]int)
	o.mu.Unlock()

	for _, d := range o.detectors {
		if cd, ok := d.(CorpusDetector); ok {
			cd.Reset()
		}
	}
}

// Statistics returns the violation count per detector accumulated since the
// last Reset, without re-running any detector.
func (o *DetectorOrchestrator) Statistics() map[string]int {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]int, len(o.stats))
	for name, n := range o.stats {
		out[name] = n
	}
	return out
}

// Detectors returns the suite in its stable order.
func (o *DetectorOrchestrator) Detectors() []Detector {
	return o.detectors
}

func (o *DetectorOrchestrator) count(name string, n int) {
	if n == 0 {
		return
	}
	o.mu.Lock()
	o.stats[name] += n
	o.mu.Unlock()
}
