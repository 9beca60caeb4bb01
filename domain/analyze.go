package domain

import (
	"context"
	"io"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// SortCriteria represents the criteria for sorting violations
type SortCriteria string

const (
	SortBySeverity SortCriteria = "severity"
	SortByWeight   SortCriteria = "weight"
	SortByLocation SortCriteria = "location"
	SortByType     SortCriteria = "type"
)

// AnalyzeRequest represents a request for connascence analysis
type AnalyzeRequest struct {
	// Input files or directories to analyze
	Paths []string

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string
	ShowContext  bool

	// Analysis family toggles
	EnableConnascence bool
	EnableNasa        bool
	EnableGodObject   bool
	EnableTheater     bool

	// Detector selection; empty means all registered detectors
	SelectedDetectors []string

	// Filtering and sorting
	MinSeverity Severity
	SortBy      SortCriteria

	// Policy preset name (strict, balanced, relaxed)
	PolicyPreset string

	// Configuration
	ConfigPath string

	// File collection options
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Progress reporting
	NoProgress bool
}

// DefaultAnalyzeRequest returns a request with the default analysis options
func DefaultAnalyzeRequest() AnalyzeRequest {
	return AnalyzeRequest{
		OutputFormat:      OutputFormatText,
		EnableConnascence: true,
		EnableNasa:        true,
		EnableGodObject:   true,
		EnableTheater:     true,
		MinSeverity:       SeverityLow,
		SortBy:            SortBySeverity,
		PolicyPreset:      "balanced",
		Recursive:         true,
	}
}

// AnalyzeSummary represents aggregate statistics for one analysis run
type AnalyzeSummary struct {
	TotalFiles    int `json:"total_files" yaml:"total_files"`
	AnalyzedFiles int `json:"analyzed_files" yaml:"analyzed_files"`
	SkippedFiles  int `json:"skipped_files" yaml:"skipped_files"`

	TotalViolations int `json:"total_violations" yaml:"total_violations"`

	// Severity distribution
	CriticalCount int `json:"critical_count" yaml:"critical_count"`
	HighCount     int `json:"high_count" yaml:"high_count"`
	MediumCount   int `json:"medium_count" yaml:"medium_count"`
	LowCount      int `json:"low_count" yaml:"low_count"`

	// Distribution by violation type and by detector
	ViolationsByType     map[string]int `json:"violations_by_type,omitempty" yaml:"violations_by_type,omitempty"`
	ViolationsByDetector map[string]int `json:"violations_by_detector,omitempty" yaml:"violations_by_detector,omitempty"`

	// Family-specific aggregates
	NasaComplianceScore float64 `json:"nasa_compliance_score" yaml:"nasa_compliance_score"`
	GodObjectCount      int     `json:"god_object_count" yaml:"god_object_count"`

	// Policy-weighted totals
	TotalWeight  float64 `json:"total_weight" yaml:"total_weight"`
	QualityScore float64 `json:"quality_score" yaml:"quality_score"`
}

// AddViolation updates the summary counters for one violation
func (s *AnalyzeSummary) AddViolation(v *Violation) {
	s.TotalViolations++
	switch v.Severity {
	case SeverityCritical:
		s.CriticalCount++
	case SeverityHigh:
		s.HighCount++
	case SeverityMedium:
		s.MediumCount++
	case SeverityLow:
		s.LowCount++
	}
	if s.ViolationsByType == nil {
		s.ViolationsByType = make(map[string]int)
	}
	s.ViolationsByType[string(v.Type)]++
	s.TotalWeight += v.Weight
}

// CalculateQualityScore derives a 0-100 quality score from the weighted
// violation counts, where 100 means no findings. The score decays with the
// total policy weight normalized by file count.
func (s *AnalyzeSummary) CalculateQualityScore() float64 {
	if s.AnalyzedFiles == 0 {
		s.QualityScore = 100.0
		return s.QualityScore
	}
	perFile := s.TotalWeight / float64(s.AnalyzedFiles)
	score := 100.0 - perFile
	if score < 0 {
		score = 0
	}
	s.QualityScore = score
	return s.QualityScore
}

// AnalyzeResponse represents the complete analysis result
type AnalyzeResponse struct {
	// Detected violations across all enabled analysis families
	Violations []Violation    `json:"violations" yaml:"violations"`
	Summary    AnalyzeSummary `json:"summary" yaml:"summary"`

	// Statistical god object findings, present when that analysis ran
	GodObjects []ClassAnalysis `json:"god_objects,omitempty" yaml:"god_objects,omitempty"`

	// NASA rule results, present when that analysis ran
	NasaResults []NasaRuleResult `json:"nasa_results,omitempty" yaml:"nasa_results,omitempty"`

	// Warnings and non-fatal errors accumulated during the run
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`

	// Metadata
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
	Version     string `json:"version" yaml:"version"`
	DurationMs  int64  `json:"duration_ms" yaml:"duration_ms"`
	Config      any    `json:"config,omitempty" yaml:"config,omitempty"`
}

// ConnascenceService defines the core business logic for connascence analysis
type ConnascenceService interface {
	// Analyze performs the full analysis on the given request
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error)

	// AnalyzeFile analyzes a single Python file
	AnalyzeFile(ctx context.Context, filePath string, req AnalyzeRequest) (*AnalyzeResponse, error)
}

// FileReader defines the interface for reading and collecting source files
type FileReader interface {
	// CollectPythonFiles recursively finds all Python files in the given paths
	CollectPythonFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error)

	// ReadFile reads the content of a file
	ReadFile(path string) ([]byte, error)

	// IsValidPythonFile checks if a file is a valid Python file
	IsValidPythonFile(path string) bool

	// FileExists checks if a file exists and returns an error if not
	FileExists(path string) (bool, error)
}

// OutputFormatter defines the interface for formatting analysis results
type OutputFormatter interface {
	// Format formats the analysis response according to the specified format
	Format(response *AnalyzeResponse, format OutputFormat) (string, error)

	// Write writes the formatted output to the writer
	Write(response *AnalyzeResponse, format OutputFormat, writer io.Writer) error
}

// ConfigurationLoader defines the interface for loading configuration
type ConfigurationLoader interface {
	// LoadConfig loads configuration from the specified path
	LoadConfig(path string) (*AnalyzeRequest, error)

	// LoadDefaultConfig loads the default configuration
	LoadDefaultConfig() *AnalyzeRequest

	// MergeConfig merges CLI flags with configuration file
	MergeConfig(base *AnalyzeRequest, override *AnalyzeRequest) *AnalyzeRequest
}

// ExecutableTask represents a unit of work for the parallel executor
type ExecutableTask interface {
	// Name returns a human-readable task name for error reporting
	Name() string

	// IsEnabled reports whether the task should run
	IsEnabled() bool

	// Execute runs the task
	Execute(ctx context.Context) (any, error)
}

// ParallelExecutor runs tasks concurrently with bounded parallelism
type ParallelExecutor interface {
	Execute(ctx context.Context, tasks []ExecutableTask) error
}

// ProgressManager creates progress trackers for long-running operations
type ProgressManager interface {
	// StartTask creates a new progress task with a description and total count
	StartTask(description string, total int) TaskProgress

	// IsInteractive returns true if progress bars are shown
	IsInteractive() bool

	// Close cleans up all active tasks
	Close()
}

// TaskProgress tracks progress of a single task
type TaskProgress interface {
	// Increment adds n to the current progress
	Increment(n int)

	// Describe updates the current item description
	Describe(description string)

	// Complete marks the task as finished
	Complete()
}
