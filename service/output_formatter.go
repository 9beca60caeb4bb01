package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/connascence-tools/conscan/domain"
)

// OutputFormatterImpl implements the OutputFormatter interface
type OutputFormatterImpl struct{}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter() *OutputFormatterImpl {
	return &OutputFormatterImpl{}
}

// WriteJSON writes data as JSON to the writer
func WriteJSON(writer io.Writer, data interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ReportEnvelope wraps an analysis response with stable report metadata for
// the machine-readable formats
type ReportEnvelope struct {
	ReportID    string `json:"report_id" yaml:"report_id"`
	Version     string `json:"version" yaml:"version"`
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
	DurationMs  int64  `json:"duration_ms" yaml:"duration_ms"`

	Summary    domain.AnalyzeSummary `json:"summary" yaml:"summary"`
	Violations []domain.Violation    `json:"violations" yaml:"violations"`

	NasaCompliance []domain.NasaRuleResult `json:"nasa_compliance,omitempty" yaml:"nasa_compliance,omitempty"`
	GodObjects     []domain.ClassAnalysis  `json:"god_objects,omitempty" yaml:"god_objects,omitempty"`

	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`
	Config   any      `json:"config,omitempty" yaml:"config,omitempty"`
}

// NewReportEnvelope assigns a fresh report id and copies the response fields
func NewReportEnvelope(response *domain.AnalyzeResponse) ReportEnvelope {
	return ReportEnvelope{
		ReportID:       uuid.NewString(),
		Version:        response.Version,
		GeneratedAt:    response.GeneratedAt,
		DurationMs:     response.DurationMs,
		Summary:        response.Summary,
		Violations:     response.Violations,
		NasaCompliance: response.NasaResults,
		GodObjects:     response.GodObjects,
		Warnings:       response.Warnings,
		Errors:         response.Errors,
		Config:         response.Config,
	}
}

// Format formats the analysis response according to the specified format
func (f *OutputFormatterImpl) Format(response *domain.AnalyzeResponse, format domain.OutputFormat) (string, error) {
	var buf bytes.Buffer
	if err := f.Write(response, format, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write writes the analysis response in the specified format
func (f *OutputFormatterImpl) Write(response *domain.AnalyzeResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, NewReportEnvelope(response))
	case domain.OutputFormatYAML:
		return f.writeYAML(response, writer)
	case domain.OutputFormatText, "":
		return f.writeText(response, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

// writeYAML writes the report envelope as YAML
func (f *OutputFormatterImpl) writeYAML(response *domain.AnalyzeResponse, writer io.Writer) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(NewReportEnvelope(response))
}

// writeText writes the analysis response as plain text
func (f *OutputFormatterImpl) writeText(response *domain.AnalyzeResponse, writer io.Writer) error {
	fmt.Fprintf(writer, "\n=== Connascence Analysis Report ===\n\n")
	fmt.Fprintf(writer, "Generated: %s\n", response.GeneratedAt)
	fmt.Fprintf(writer, "Duration: %dms\n", response.DurationMs)
	fmt.Fprintf(writer, "Version: %s\n\n", response.Version)

	// Summary
	summary := response.Summary
	fmt.Fprintf(writer, "Summary:\n")
	fmt.Fprintf(writer, "  Files analyzed: %d\n", summary.AnalyzedFiles)
	if summary.SkippedFiles > 0 {
		fmt.Fprintf(writer, "  Files skipped: %d\n", summary.SkippedFiles)
	}
	fmt.Fprintf(writer, "  Total violations: %d\n", summary.TotalViolations)
	fmt.Fprintf(writer, "  Total weight: %.1f\n", summary.TotalWeight)
	fmt.Fprintf(writer, "  Quality score: %.1f/100\n", summary.QualityScore)
	fmt.Fprintf(writer, "\n")

	// Severity distribution
	fmt.Fprintf(writer, "Severity Distribution:\n")
	fmt.Fprintf(writer, "  Critical: %d\n", summary.CriticalCount)
	fmt.Fprintf(writer, "  High: %d\n", summary.HighCount)
	fmt.Fprintf(writer, "  Medium: %d\n", summary.MediumCount)
	fmt.Fprintf(writer, "  Low: %d\n", summary.LowCount)
	fmt.Fprintf(writer, "\n")

	// Violation details
	if len(response.Violations) > 0 {
		fmt.Fprintf(writer, "Violations:\n")
		for _, v := range response.Violations {
			fmt.Fprintf(writer, "  %s:%d:%d %s%s\n",
				v.FilePath, v.LineNumber, v.Column, v.Type, severityIndicator(v.Severity))
			fmt.Fprintf(writer, "    %s\n", v.Description)
			if v.Recommendation != "" {
				fmt.Fprintf(writer, "    Recommendation: %s\n", v.Recommendation)
			}
		}
		fmt.Fprintf(writer, "\n")
	}

	// NASA compliance
	if len(response.NasaResults) > 0 {
		fmt.Fprintf(writer, "NASA Power of Ten Compliance: %.1f/100\n", summary.NasaComplianceScore)
		for _, rule := range response.NasaResults {
			note := ""
			if !rule.Applicable {
				note = " (not checked for Python)"
			}
			fmt.Fprintf(writer, "  Rule %2d: %s - %d violations (score %.0f)%s\n",
				rule.Rule, rule.Name, rule.ViolationCount, rule.Score, note)
		}
		fmt.Fprintf(writer, "\n")
	}

	// God objects
	if len(response.GodObjects) > 0 {
		fmt.Fprintf(writer, "God Objects:\n")
		for _, class := range response.GodObjects {
			fmt.Fprintf(writer, "  %s:%d %s%s\n",
				class.FilePath, class.LineNumber, class.Name, severityIndicator(class.Severity))
			fmt.Fprintf(writer, "    Score: %.2f, cohesion %.2f, z-score %.2f, role %s\n",
				class.GodObjectScore, class.Cohesion.OverallCohesion, class.ZScore, class.Role)
			fmt.Fprintf(writer, "    Methods: %d, lines %d, attributes %d\n",
				class.Complexity.MethodCount, class.Complexity.LineCount, class.Complexity.AttributeCount)
			for _, evidence := range class.Evidence {
				fmt.Fprintf(writer, "    Evidence: %s\n", evidence)
			}
			for _, rec := range class.Recommendations {
				fmt.Fprintf(writer, "    Recommendation: %s\n", rec)
			}
		}
		fmt.Fprintf(writer, "\n")
	}

	if summary.TotalViolations == 0 && len(response.GodObjects) == 0 {
		fmt.Fprintf(writer, "No violations found.\n")
	}

	// Warnings
	if len(response.Warnings) > 0 {
		fmt.Fprintf(writer, "\nWarnings:\n")
		for _, w := range response.Warnings {
			fmt.Fprintf(writer, "  - %s\n", w)
		}
	}

	// Errors
	if len(response.Errors) > 0 {
		fmt.Fprintf(writer, "\nErrors:\n")
		for _, e := range response.Errors {
			fmt.Fprintf(writer, "  - %s\n", e)
		}
	}

	return nil
}

// severityIndicator returns the bracketed severity tag used in text output
func severityIndicator(severity domain.Severity) string {
	switch severity {
	case domain.SeverityCritical:
		return " [CRITICAL]"
	case domain.SeverityHigh:
		return " [HIGH]"
	case domain.SeverityMedium:
		return " [MEDIUM]"
	case domain.SeverityLow:
		return " [LOW]"
	default:
		return ""
	}
}
