package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/analyzer"
	"github.com/connascence-tools/conscan/internal/config"
	"github.com/connascence-tools/conscan/service"
)

// AnalyzeConfig holds the command-line options for one analyze run. Zero
// values defer to the configuration file, so callers set only what the user
// chose explicitly.
type AnalyzeConfig struct {
	// ConfigPath is an explicit configuration file; empty means discovery
	// relative to the first analyzed path
	ConfigPath string

	// Output options
	OutputFormat string
	OutputPath   string
	OutputWriter io.Writer
	ShowContext  bool

	// Filtering and ordering
	MinSeverity string
	SortBy      string

	// Detectors restricts the run to the named detectors
	Detectors []string

	// Families disabled on the command line. These always win over the
	// configured toggles.
	NoConnascence bool
	NoNasa        bool
	NoGodObject   bool
	NoTheater     bool

	// Preset names the scoring policy. PresetExplicit marks it as a
	// command-line choice, which also overwrites the configured thresholds
	// with the preset's.
	Preset         string
	PresetExplicit bool

	// File collection
	NonRecursive    bool
	IncludePatterns []string
	ExcludePatterns []string

	// NoProgress disables progress bars
	NoProgress bool
}

// DefaultAnalyzeConfig returns the options an analyze run uses when nothing
// is set on the command line.
func DefaultAnalyzeConfig() AnalyzeConfig {
	return AnalyzeConfig{
		OutputFormat: string(domain.OutputFormatText),
	}
}

// AnalyzeResult pairs the analysis response with the effective request that
// produced it after configuration merging, so callers can write the report
// the way the run was actually configured.
type AnalyzeResult struct {
	Response *domain.AnalyzeResponse
	Request  domain.AnalyzeRequest
}

// AnalyzeUseCase orchestrates the full analysis workflow: configuration
// loading, file collection, analysis, and report writing.
type AnalyzeUseCase struct {
	service      domain.ConnascenceService
	fileReader   domain.FileReader
	formatter    domain.OutputFormatter
	configLoader *service.ConfigurationLoaderImpl
	logger       *zap.Logger
}

// NewAnalyzeUseCase creates an analyze use case with the default service
// wiring. The analysis service and file reader are built per run from the
// loaded configuration.
func NewAnalyzeUseCase() *AnalyzeUseCase {
	return &AnalyzeUseCase{
		formatter:    service.NewOutputFormatter(),
		configLoader: service.NewConfigurationLoader(),
	}
}

// Execute performs the complete analysis workflow on the given paths.
func (uc *AnalyzeUseCase) Execute(ctx context.Context, cfg AnalyzeConfig, paths []string) (*AnalyzeResult, error) {
	if len(paths) == 0 {
		return nil, domain.NewInvalidInputError("no input paths specified", nil)
	}

	fileCfg, warnings, err := uc.configLoader.LoadFullConfig(cfg.ConfigPath, paths[0])
	if err != nil {
		return nil, err
	}

	// An explicit command-line preset replaces the configured thresholds;
	// a preset from the config file only selects the scoring weights.
	if cfg.PresetExplicit && cfg.Preset != "" {
		if err := applyPresetThresholds(fileCfg, cfg.Preset); err != nil {
			return nil, err
		}
	}

	req := uc.buildRequest(fileCfg, cfg, paths)

	reader := uc.fileReader
	if reader == nil {
		reader = service.NewFileCollectorFromConfig(&fileCfg.Analysis)
	}

	files, err := ResolveFilePaths(reader, paths, req.Recursive, req.IncludePatterns, req.ExcludePatterns)
	if err != nil {
		return nil, domain.NewFileNotFoundError("failed to collect files", err)
	}
	if len(files) == 0 {
		return nil, domain.NewInvalidInputError("no Python files found in the specified paths", nil)
	}
	req.Paths = files

	svc := uc.service
	if svc == nil {
		interactive := !req.NoProgress && req.OutputFormat == domain.OutputFormatText
		pm := service.NewProgressManager(interactive)
		defer pm.Close()

		impl := service.NewAnalysisServiceWithProgress(fileCfg, pm)
		impl.SetLogger(uc.logger)
		svc = impl
	}

	response, err := svc.Analyze(ctx, req)
	if err != nil {
		return nil, domain.NewAnalysisError("connascence analysis failed", err)
	}

	// Configuration repair warnings belong in the report next to the
	// analysis warnings
	if len(warnings) > 0 {
		response.Warnings = append(warnings, response.Warnings...)
	}

	return &AnalyzeResult{Response: response, Request: req}, nil
}

// AnalyzeFile analyzes a single Python file.
func (uc *AnalyzeUseCase) AnalyzeFile(ctx context.Context, filePath string, cfg AnalyzeConfig) (*AnalyzeResult, error) {
	reader := uc.fileReader
	if reader == nil {
		reader = service.NewFileCollector()
	}

	if !reader.IsValidPythonFile(filePath) {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("not a valid Python file: %s", filePath), nil)
	}

	exists, err := reader.FileExists(filePath)
	if err != nil {
		return nil, domain.NewFileNotFoundError(filePath, err)
	}
	if !exists {
		return nil, domain.NewFileNotFoundError(filePath, fmt.Errorf("file does not exist"))
	}

	return uc.Execute(ctx, cfg, []string{filePath})
}

// WriteReport writes the formatted response to the destination the run was
// configured with: the output path when given, the request's writer, or
// standard output.
func (uc *AnalyzeUseCase) WriteReport(result *AnalyzeResult) (err error) {
	writer := result.Request.OutputWriter

	if result.Request.OutputPath != "" {
		f, createErr := os.Create(result.Request.OutputPath)
		if createErr != nil {
			return domain.NewOutputError("failed to create output file", createErr)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = domain.NewOutputError("failed to close output file", closeErr)
			}
		}()
		writer = f
	}

	if writer == nil {
		writer = os.Stdout
	}

	return uc.formatter.Write(result.Response, result.Request.OutputFormat, writer)
}

// buildRequest derives the effective request: the configuration file
// supplies the base, explicitly set command-line options override it, and
// the family disables are applied last because a flag like --no-nasa always
// wins.
func (uc *AnalyzeUseCase) buildRequest(fileCfg *config.Config, cfg AnalyzeConfig, paths []string) domain.AnalyzeRequest {
	base := uc.configLoader.RequestFromConfig(fileCfg)

	override := &domain.AnalyzeRequest{
		Paths:             paths,
		OutputFormat:      domain.OutputFormat(cfg.OutputFormat),
		OutputWriter:      cfg.OutputWriter,
		OutputPath:        cfg.OutputPath,
		ShowContext:       cfg.ShowContext,
		SelectedDetectors: cfg.Detectors,
		PolicyPreset:      cfg.Preset,
		ConfigPath:        cfg.ConfigPath,
		IncludePatterns:   cfg.IncludePatterns,
		ExcludePatterns:   cfg.ExcludePatterns,
		NoProgress:        cfg.NoProgress,
	}

	merged := uc.configLoader.MergeConfig(base, override)

	// The generic merge treats the default severity and sort order as
	// "unset"; these fields are only populated from explicitly changed
	// flags, so they override unconditionally.
	if cfg.MinSeverity != "" {
		merged.MinSeverity = domain.Severity(cfg.MinSeverity)
	}
	if cfg.SortBy != "" {
		merged.SortBy = domain.SortCriteria(cfg.SortBy)
	}
	if cfg.NonRecursive {
		merged.Recursive = false
	}

	if cfg.NoConnascence {
		merged.EnableConnascence = false
	}
	if cfg.NoNasa {
		merged.EnableNasa = false
	}
	if cfg.NoGodObject {
		merged.EnableGodObject = false
	}
	if cfg.NoTheater {
		merged.EnableTheater = false
	}

	return *merged
}

// applyPresetThresholds overwrites the configured detector limits with the
// named preset's thresholds.
func applyPresetThresholds(cfg *config.Config, presetName string) error {
	preset, err := analyzer.PresetByName(presetName)
	if err != nil {
		return err
	}

	t := preset.Thresholds
	cfg.Connascence.MaxPositionalParams = t.MaxPositionalParams
	cfg.Connascence.MaxFunctionParams = t.MaxFunctionParams
	cfg.Connascence.GodClassMethods = t.GodClassMethods
	cfg.Connascence.GodClassLines = t.GodClassLines
	cfg.Connascence.GodClassAttributes = t.GodClassAttributes
	cfg.Connascence.GodFunctionLines = t.GodFunctionLines
	cfg.Connascence.MaxCyclomaticComplexity = t.MaxCyclomaticComplexity
	cfg.Connascence.MaxNestingDepth = t.MaxNestingDepth
	cfg.Connascence.MagicLiteralRepetition = t.MagicLiteralRepetition
	cfg.Connascence.MaxNameUsage = t.MaxNameUsage
	cfg.Connascence.MaxGlobalRefs = t.MaxGlobalRefs
	cfg.Nasa.MaxFunctionLength = t.MaxFunctionLength
	cfg.Nasa.MinAssertions = t.MinAssertions
	cfg.Nasa.MaxGlobalDeclarations = t.MaxGlobalDeclarations
	cfg.Policy.Preset = preset.Name

	return nil
}

// AnalyzeUseCaseBuilder provides a builder for assembling an AnalyzeUseCase
// with custom dependencies.
type AnalyzeUseCaseBuilder struct {
	service      domain.ConnascenceService
	fileReader   domain.FileReader
	formatter    domain.OutputFormatter
	configLoader *service.ConfigurationLoaderImpl
	logger       *zap.Logger
}

// NewAnalyzeUseCaseBuilder creates a new builder
func NewAnalyzeUseCaseBuilder() *AnalyzeUseCaseBuilder {
	return &AnalyzeUseCaseBuilder{}
}

// WithService sets a pre-built analysis service, bypassing the per-run
// construction from the loaded configuration
func (b *AnalyzeUseCaseBuilder) WithService(svc domain.ConnascenceService) *AnalyzeUseCaseBuilder {
	b.service = svc
	return b
}

// WithFileReader sets the file reader
func (b *AnalyzeUseCaseBuilder) WithFileReader(reader domain.FileReader) *AnalyzeUseCaseBuilder {
	b.fileReader = reader
	return b
}

// WithOutputFormatter sets the output formatter
func (b *AnalyzeUseCaseBuilder) WithOutputFormatter(formatter domain.OutputFormatter) *AnalyzeUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithConfigLoader sets the configuration loader
func (b *AnalyzeUseCaseBuilder) WithConfigLoader(loader *service.ConfigurationLoaderImpl) *AnalyzeUseCaseBuilder {
	b.configLoader = loader
	return b
}

// WithLogger sets the logger passed to the analysis service
func (b *AnalyzeUseCaseBuilder) WithLogger(logger *zap.Logger) *AnalyzeUseCaseBuilder {
	b.logger = logger
	return b
}

// Build creates the AnalyzeUseCase, filling in defaults for anything unset
func (b *AnalyzeUseCaseBuilder) Build() (*AnalyzeUseCase, error) {
	uc := &AnalyzeUseCase{
		service:      b.service,
		fileReader:   b.fileReader,
		formatter:    b.formatter,
		configLoader: b.configLoader,
		logger:       b.logger,
	}

	if uc.formatter == nil {
		uc.formatter = service.NewOutputFormatter()
	}
	if uc.configLoader == nil {
		uc.configLoader = service.NewConfigurationLoader()
	}

	return uc, nil
}
