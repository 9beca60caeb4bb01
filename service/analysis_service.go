package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/analyzer"
	"github.com/connascence-tools/conscan/internal/config"
	"github.com/connascence-tools/conscan/internal/parser"
	"github.com/connascence-tools/conscan/internal/version"
)

// connascenceDetectors are the per-file coupling detectors controlled by the
// connascence family toggle, in suite order.
var connascenceDetectors = []string{
	analyzer.DetectorPosition,
	analyzer.DetectorMeaning,
	analyzer.DetectorNameUsage,
	analyzer.DetectorTypeHints,
	analyzer.DetectorAlgorithm,
	analyzer.DetectorTiming,
	analyzer.DetectorConvention,
	analyzer.DetectorValues,
	analyzer.DetectorExecution,
	analyzer.DetectorIdentity,
}

// AnalysisServiceImpl implements the ConnascenceService interface
type AnalysisServiceImpl struct {
	config   *config.Config
	progress domain.ProgressManager
	logger   *zap.Logger
}

// NewAnalysisService creates a new analysis service implementation
func NewAnalysisService(cfg *config.Config) *AnalysisServiceImpl {
	return &AnalysisServiceImpl{
		config: cfg,
		logger: zap.NewNop(),
	}
}

// NewAnalysisServiceWithProgress creates a new analysis service with progress reporting
func NewAnalysisServiceWithProgress(cfg *config.Config, pm domain.ProgressManager) *AnalysisServiceImpl {
	return &AnalysisServiceImpl{
		config:   cfg,
		progress: pm,
		logger:   zap.NewNop(),
	}
}

// SetLogger replaces the no-op logger used for detector failure reporting
func (s *AnalysisServiceImpl) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// resultAccumulator collects per-file results from parallel file tasks
type resultAccumulator struct {
	mu         sync.Mutex
	violations []domain.Violation
	warnings   []string
	errs       []string
	analyzed   int
	skipped    int
}

func (a *resultAccumulator) addViolations(violations []domain.Violation) {
	a.mu.Lock()
	a.violations = append(a.violations, violations...)
	a.mu.Unlock()
}

func (a *resultAccumulator) addWarning(warning string) {
	a.mu.Lock()
	a.warnings = append(a.warnings, warning)
	a.mu.Unlock()
}

func (a *resultAccumulator) addError(err string) {
	a.mu.Lock()
	a.errs = append(a.errs, err)
	a.mu.Unlock()
}

func (a *resultAccumulator) fileAnalyzed() {
	a.mu.Lock()
	a.analyzed++
	a.mu.Unlock()
}

func (a *resultAccumulator) fileSkipped() {
	a.mu.Lock()
	a.skipped++
	a.mu.Unlock()
}

// fileTask analyzes one Python file for the parallel executor
type fileTask struct {
	path string
	run  func(ctx context.Context, path string) error
}

func (t *fileTask) Name() string    { return "analyze " + t.path }
func (t *fileTask) IsEnabled() bool { return true }

func (t *fileTask) Execute(ctx context.Context) (any, error) {
	return nil, t.run(ctx, t.path)
}

// Analyze performs connascence, NASA, god object, and theater analysis on
// the request's files. Files are analyzed in parallel; corpus-scoped passes
// (statistical god object detection, cross-file value tracking) collect
// records during the file phase and emit findings only after every file has
// been seen.
func (s *AnalysisServiceImpl) Analyze(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalyzeResponse, error) {
	started := time.Now()

	if len(req.Paths) == 0 {
		return nil, domain.NewInvalidInputError("no files to analyze", nil)
	}

	preset, err := analyzer.PresetByName(req.PolicyPreset)
	if err != nil {
		return nil, err
	}

	cfg := s.config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	thresholds := cfg.Thresholds()
	weights := preset.Weights

	suite := s.selectDetectors(req, cfg)
	orchestrator := analyzer.NewDetectorOrchestrator(&thresholds, s.logger)

	var statistical *analyzer.StatisticalGodObjectAnalyzer
	if req.EnableGodObject && cfg.GodObject.Enabled && cfg.GodObject.StatisticalMode {
		statistical = analyzer.NewStatisticalGodObjectAnalyzer(s.logger)
	}

	acc := &resultAccumulator{}
	runFile := func(taskCtx context.Context, filePath string) error {
		content, err := os.ReadFile(filePath)
		if err != nil {
			acc.addError(fmt.Sprintf("[%s] Failed to read file: %v", filePath, err))
			acc.fileSkipped()
			return nil
		}

		// tree-sitter parsers are not safe for concurrent use, so each
		// file task owns one for its lifetime
		p := parser.NewParser()
		defer p.Close()

		result, err := p.ParseFile(filePath, content)
		if err != nil {
			acc.addWarning(fmt.Sprintf("[%s] Failed to parse: %v", filePath, err))
			acc.addViolations([]domain.Violation{parseFailureViolation(filePath, 1, 0, err.Error())})
			acc.fileSkipped()
			return nil
		}
		if result.HasSyntaxErrors() {
			first := result.SyntaxErrors[0]
			acc.addWarning(fmt.Sprintf("[%s] Failed to parse: %s", filePath, first))
			acc.addViolations([]domain.Violation{parseFailureViolation(filePath, first.Line, first.Col, first.Message)})
			acc.fileSkipped()
			return nil
		}

		analysisCtx := &analyzer.AnalysisContext{
			FilePath:    filePath,
			SourceLines: result.SourceLines,
			Root:        result.Root,
			Thresholds:  &thresholds,
		}

		if len(suite) > 0 {
			acc.addViolations(orchestrator.DetectByType(analysisCtx, suite))
		}
		if statistical != nil {
			statistical.RecordFile(filePath, result.Root, result.SourceLines)
		}
		acc.fileAnalyzed()
		return nil
	}

	tasks := make([]domain.ExecutableTask, 0, len(req.Paths))
	for _, path := range req.Paths {
		tasks = append(tasks, &fileTask{path: path, run: runFile})
	}

	executor := s.buildExecutor(cfg, req)
	if err := executor.Execute(ctx, tasks); err != nil {
		if ctx.Err() != nil {
			return nil, domain.NewAnalysisError("analysis cancelled", ctx.Err())
		}
		acc.addError(err.Error())
	}

	// Corpus-scoped detectors fire only after the last file
	acc.addViolations(orchestrator.FinalizeCorpus())

	var godObjects []domain.ClassAnalysis
	if statistical != nil {
		godObjects = statistical.Finalize()
		for i := range godObjects {
			acc.addViolations([]domain.Violation{godObjects[i].ToViolation()})
		}
	}

	violations := acc.violations
	for i := range violations {
		violations[i].Weight = weights.WeightFor(&violations[i])
		violations[i].ID = violations[i].Fingerprint()
	}

	// Compliance reflects every detected rule breach, not just the
	// reported subset
	var nasaScore float64
	var nasaResults []domain.NasaRuleResult
	if containsDetector(suite, analyzer.DetectorNasa) {
		nasaScore, nasaResults = domain.ComputeNasaCompliance(domain.NasaRuleCounts(violations))
	}

	reported := filterBySeverity(violations, req.MinSeverity)
	sortViolations(reported, req.SortBy)

	summary := domain.AnalyzeSummary{
		TotalFiles:          len(req.Paths),
		AnalyzedFiles:       acc.analyzed,
		SkippedFiles:        acc.skipped,
		NasaComplianceScore: nasaScore,
		GodObjectCount:      len(godObjects),
	}
	for i := range reported {
		summary.AddViolation(&reported[i])
	}
	stats := orchestrator.Statistics()
	if len(godObjects) > 0 {
		stats[analyzer.DetectorGodObject] += len(godObjects)
	}
	summary.ViolationsByDetector = stats
	summary.CalculateQualityScore()

	return &domain.AnalyzeResponse{
		Violations:  reported,
		Summary:     summary,
		GodObjects:  godObjects,
		NasaResults: nasaResults,
		Warnings:    acc.warnings,
		Errors:      acc.errs,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Version,
		DurationMs:  time.Since(started).Milliseconds(),
		Config:      s.buildConfigForResponse(preset, suite, req),
	}, nil
}

// AnalyzeFile analyzes a single Python file
func (s *AnalysisServiceImpl) AnalyzeFile(ctx context.Context, filePath string, req domain.AnalyzeRequest) (*domain.AnalyzeResponse, error) {
	singleFileReq := req
	singleFileReq.Paths = []string{filePath}
	return s.Analyze(ctx, singleFileReq)
}

// selectDetectors resolves the per-file detector suite for a request.
// An explicit selection (request first, then config) is used verbatim;
// otherwise the family toggles expand to the default suite. The per-file
// god object detector joins the suite only when the statistical corpus
// pass will not run, so the same class is never reported by both.
func (s *AnalysisServiceImpl) selectDetectors(req domain.AnalyzeRequest, cfg *config.Config) []string {
	if len(req.SelectedDetectors) > 0 {
		return req.SelectedDetectors
	}
	if len(cfg.Connascence.Detectors) > 0 {
		return cfg.Connascence.Detectors
	}

	var suite []string
	if req.EnableConnascence && cfg.Connascence.Enabled {
		suite = append(suite, connascenceDetectors...)
	}
	if req.EnableGodObject && cfg.GodObject.Enabled && !cfg.GodObject.StatisticalMode {
		suite = append(suite, analyzer.DetectorGodObject)
	}
	if req.EnableNasa && cfg.Nasa.Enabled {
		suite = append(suite, analyzer.DetectorNasa)
	}
	if req.EnableTheater && cfg.Theater.Enabled {
		suite = append(suite, analyzer.DetectorTheater)
	}
	return suite
}

// buildExecutor configures the parallel file executor from the performance
// settings and the request's progress preference.
func (s *AnalysisServiceImpl) buildExecutor(cfg *config.Config, req domain.AnalyzeRequest) *ParallelExecutorImpl {
	if s.progress != nil && !req.NoProgress {
		return NewParallelExecutorWithProgress(&cfg.Performance, s.progress)
	}
	return NewParallelExecutorFromConfig(&cfg.Performance)
}

// parseFailureViolation reports an unparseable file as a critical finding so
// broken sources surface in the report instead of vanishing silently.
func parseFailureViolation(filePath string, line, col int, detail string) domain.Violation {
	return domain.Violation{
		Type:           domain.ParseFailure,
		Severity:       domain.SeverityCritical,
		FilePath:       filePath,
		LineNumber:     line,
		Column:         col,
		Description:    fmt.Sprintf("File cannot be parsed: %s", detail),
		Recommendation: "Fix syntax errors before analyzing connascence",
		Locality:       domain.LocalitySameModule,
		Context: map[string]any{
			"error_message": detail,
		},
	}
}

func containsDetector(suite []string, name string) bool {
	for _, s := range suite {
		if s == name {
			return true
		}
	}
	return false
}

// filterBySeverity drops violations below the minimum severity. An empty or
// invalid minimum keeps everything.
func filterBySeverity(violations []domain.Violation, min domain.Severity) []domain.Violation {
	if min == "" || !min.IsValid() {
		return violations
	}
	filtered := make([]domain.Violation, 0, len(violations))
	for _, v := range violations {
		if v.Severity.AtLeast(min) {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// sortViolations orders violations by the requested criteria. Every
// comparator falls through to file path, line, column, and type so the
// output is deterministic regardless of file task scheduling.
func sortViolations(violations []domain.Violation, by domain.SortCriteria) {
	location := func(a, b *domain.Violation) bool {
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.LineNumber != b.LineNumber {
			return a.LineNumber < b.LineNumber
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Type < b.Type
	}

	switch by {
	case domain.SortByWeight:
		sort.SliceStable(violations, func(i, j int) bool {
			if violations[i].Weight != violations[j].Weight {
				return violations[i].Weight > violations[j].Weight
			}
			return location(&violations[i], &violations[j])
		})
	case domain.SortByLocation:
		sort.SliceStable(violations, func(i, j int) bool {
			return location(&violations[i], &violations[j])
		})
	case domain.SortByType:
		sort.SliceStable(violations, func(i, j int) bool {
			if violations[i].Type != violations[j].Type {
				return violations[i].Type < violations[j].Type
			}
			return location(&violations[i], &violations[j])
		})
	default:
		// Severity first, heaviest findings within a band on top
		sort.SliceStable(violations, func(i, j int) bool {
			ri, rj := violations[i].Severity.Rank(), violations[j].Severity.Rank()
			if ri != rj {
				return ri > rj
			}
			if violations[i].Weight != violations[j].Weight {
				return violations[i].Weight > violations[j].Weight
			}
			return location(&violations[i], &violations[j])
		})
	}
}

// buildConfigForResponse builds the configuration section for the response
func (s *AnalysisServiceImpl) buildConfigForResponse(preset analyzer.PolicyPreset, suite []string, req domain.AnalyzeRequest) map[string]interface{} {
	return map[string]interface{}{
		"policy_preset": preset.Name,
		"detectors":     suite,
		"min_severity":  string(req.MinSeverity),
		"sort_by":       string(req.SortBy),
	}
}
