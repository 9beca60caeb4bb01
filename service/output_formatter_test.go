package service

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/connascence-tools/conscan/domain"
)

func sampleAnalyzeResponse() *domain.AnalyzeResponse {
	violations := []domain.Violation{
		{
			ID:             "feedc0de00000001",
			Type:           domain.ConnascenceOfPosition,
			Severity:       domain.SeverityHigh,
			FilePath:       "src/api.py",
			LineNumber:     12,
			Column:         5,
			Description:    "Function 'handle' has 7 positional parameters",
			Recommendation: "Use keyword-only arguments or a parameter object",
			FunctionName:   "handle",
			Weight:         72.0,
			Locality:       domain.LocalitySameClass,
		},
		{
			ID:          "feedc0de00000002",
			Type:        domain.NasaRuleViolation(4),
			Severity:    domain.SeverityMedium,
			FilePath:    "src/api.py",
			LineNumber:  80,
			Column:      1,
			Description: "Function 'process' spans 75 lines",
			Weight:      6.0,
			Locality:    domain.LocalitySameModule,
		},
	}

	summary := domain.AnalyzeSummary{
		TotalFiles:          2,
		AnalyzedFiles:       2,
		NasaComplianceScore: 92.5,
		GodObjectCount:      1,
	}
	for i := range violations {
		summary.AddViolation(&violations[i])
	}
	summary.CalculateQualityScore()

	return &domain.AnalyzeResponse{
		Violations: violations,
		Summary:    summary,
		GodObjects: []domain.ClassAnalysis{
			{
				Name:       "SessionManager",
				FilePath:   "src/session.py",
				LineNumber: 10,
				Role:       domain.RoleGeneric,
				Cohesion:   domain.CohesionMetrics{OverallCohesion: 0.31},
				Complexity: domain.ClassComplexityMetrics{
					MethodCount:    28,
					LineCount:      520,
					AttributeCount: 19,
				},
				ZScore:         2.9,
				IsOutlier:      true,
				GodObjectScore: 0.85,
				Confidence:     1.0,
				Severity:       domain.SeverityHigh,
				Evidence:       []string{"Complexity z-score: 2.90"},
			},
		},
		NasaResults: []domain.NasaRuleResult{
			{Rule: 4, Name: "Restrict functions to a single printed page", ViolationCount: 1, Score: 80, Weight: 0.15, Applicable: true},
			{Rule: 9, Name: "Limit pointer use to a single dereference", ViolationCount: 0, Score: 100, Weight: 0.05, Applicable: false},
		},
		Warnings:    []string{"[src/legacy.py] Failed to parse: syntax error"},
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     "test",
		DurationMs:  42,
	}
}

func TestWriteJSON(t *testing.T) {
	data := map[string]interface{}{
		"name":  "test",
		"value": 42,
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, data); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse output as JSON: %v", err)
	}
	if result["name"] != "test" {
		t.Errorf("Expected name to be 'test', got %v", result["name"])
	}
}

func TestOutputFormatterWriteJSON(t *testing.T) {
	formatter := NewOutputFormatter()
	response := sampleAnalyzeResponse()

	var buf bytes.Buffer
	if err := formatter.Write(response, domain.OutputFormatJSON, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var envelope ReportEnvelope
	if err := json.Unmarshal(buf.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to parse output as JSON: %v", err)
	}

	if _, err := uuid.Parse(envelope.ReportID); err != nil {
		t.Errorf("report_id should be a UUID, got %q", envelope.ReportID)
	}
	if len(envelope.Violations) != 2 {
		t.Errorf("Expected 2 violations, got %d", len(envelope.Violations))
	}
	if envelope.Violations[0].Type != domain.ConnascenceOfPosition {
		t.Errorf("Expected position violation first, got %s", envelope.Violations[0].Type)
	}
	if envelope.Summary.TotalViolations != 2 {
		t.Errorf("Expected summary total 2, got %d", envelope.Summary.TotalViolations)
	}
	if len(envelope.GodObjects) != 1 || envelope.GodObjects[0].Name != "SessionManager" {
		t.Errorf("Expected SessionManager god object, got %v", envelope.GodObjects)
	}
	if len(envelope.NasaCompliance) != 2 {
		t.Errorf("Expected 2 NASA rule results, got %d", len(envelope.NasaCompliance))
	}
	if envelope.DurationMs != 42 {
		t.Errorf("Expected duration 42ms, got %d", envelope.DurationMs)
	}
}

func TestOutputFormatterFreshReportIDs(t *testing.T) {
	formatter := NewOutputFormatter()
	response := sampleAnalyzeResponse()

	var first, second ReportEnvelope
	var buf bytes.Buffer

	if err := formatter.Write(response, domain.OutputFormatJSON, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := json.Unmarshal(buf.Bytes(), &first); err != nil {
		t.Fatalf("Failed to parse first report: %v", err)
	}

	buf.Reset()
	if err := formatter.Write(response, domain.OutputFormatJSON, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := json.Unmarshal(buf.Bytes(), &second); err != nil {
		t.Fatalf("Failed to parse second report: %v", err)
	}

	if first.ReportID == second.ReportID {
		t.Error("each report should carry a fresh report_id")
	}
}

func TestOutputFormatterWriteYAML(t *testing.T) {
	formatter := NewOutputFormatter()
	response := sampleAnalyzeResponse()

	var buf bytes.Buffer
	if err := formatter.Write(response, domain.OutputFormatYAML, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var envelope ReportEnvelope
	if err := yaml.Unmarshal(buf.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to parse output as YAML: %v", err)
	}

	if len(envelope.Violations) != 2 {
		t.Errorf("Expected 2 violations, got %d", len(envelope.Violations))
	}
	if envelope.Summary.NasaComplianceScore != 92.5 {
		t.Errorf("Expected compliance 92.5, got %v", envelope.Summary.NasaComplianceScore)
	}
	if envelope.Version != "test" {
		t.Errorf("Expected version 'test', got %q", envelope.Version)
	}
}

func TestOutputFormatterWriteText(t *testing.T) {
	formatter := NewOutputFormatter()
	response := sampleAnalyzeResponse()

	var buf bytes.Buffer
	if err := formatter.Write(response, domain.OutputFormatText, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Connascence Analysis Report",
		"Files analyzed: 2",
		"Total violations: 2",
		"src/api.py:12:5 connascence_of_position [HIGH]",
		"Function 'handle' has 7 positional parameters",
		"Recommendation: Use keyword-only arguments or a parameter object",
		"NASA Power of Ten Compliance: 92.5/100",
		"(not checked for Python)",
		"God Objects:",
		"src/session.py:10 SessionManager [HIGH]",
		"Methods: 28, lines 520, attributes 19",
		"Warnings:",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected text output to contain %q", want)
		}
	}
}

func TestOutputFormatterWriteText_CleanRun(t *testing.T) {
	formatter := NewOutputFormatter()
	response := &domain.AnalyzeResponse{
		Summary:     domain.AnalyzeSummary{AnalyzedFiles: 3, QualityScore: 100},
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     "test",
	}

	var buf bytes.Buffer
	if err := formatter.Write(response, domain.OutputFormatText, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "No violations found.") {
		t.Error("Expected clean run message")
	}
	if strings.Contains(output, "Violations:") {
		t.Error("Clean run should not render a violations section")
	}
}

func TestOutputFormatterFormat(t *testing.T) {
	formatter := NewOutputFormatter()
	response := sampleAnalyzeResponse()

	text, err := formatter.Format(response, domain.OutputFormatText)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(text, "Connascence Analysis Report") {
		t.Error("Format should produce the same text rendering as Write")
	}
}

func TestOutputFormatterUnsupportedFormat(t *testing.T) {
	formatter := NewOutputFormatter()

	var buf bytes.Buffer
	err := formatter.Write(sampleAnalyzeResponse(), domain.OutputFormat("csv"), &buf)
	if err == nil {
		t.Error("Expected error for unsupported format")
	}
}
