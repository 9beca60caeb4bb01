package domain

import (
	"errors"
	"testing"
)

// Error tests

func TestDomainError_Error(t *testing.T) {
	bare := DomainError{Code: "ANALYSIS_ERROR", Message: "detector crashed"}
	if bare.Error() != "[ANALYSIS_ERROR] detector crashed" {
		t.Errorf("Unexpected error string: %s", bare.Error())
	}

	cause := errors.New("index out of range")
	wrapped := DomainError{Code: "ANALYSIS_ERROR", Message: "detector crashed", Cause: cause}
	if wrapped.Error() != "[ANALYSIS_ERROR] detector crashed: index out of range" {
		t.Errorf("Unexpected error string: %s", wrapped.Error())
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewFileNotFoundError("/src/views.py", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause through DomainError")
	}

	var domainErr DomainError
	if !errors.As(err, &domainErr) {
		t.Fatal("errors.As should match DomainError")
	}
	if domainErr.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	if (DomainError{Code: "X", Message: "y"}).Unwrap() != nil {
		t.Error("Unwrap without a cause should return nil")
	}
}

func TestErrorConstructors(t *testing.T) {
	cause := errors.New("cause")

	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{"invalid input", NewInvalidInputError("no input paths specified", cause), ErrCodeInvalidInput, "no input paths specified"},
		{"file not found", NewFileNotFoundError("/src/views.py", nil), ErrCodeFileNotFound, "file not found: /src/views.py"},
		{"parse", NewParseError("views.py", cause), ErrCodeParseError, "failed to parse: views.py"},
		{"analysis", NewAnalysisError("cohesion pass failed", nil), ErrCodeAnalysisError, "cohesion pass failed"},
		{"config", NewConfigError("invalid output format", nil), ErrCodeConfigError, "invalid output format"},
		{"output", NewOutputError("write failed", cause), ErrCodeOutputError, "write failed"},
		{"unsupported format", NewUnsupportedFormatError("xml"), ErrCodeUnsupportedFormat, "unsupported format: xml"},
		{"validation", NewValidationError("min_severity out of range"), ErrCodeInvalidInput, "min_severity out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var domainErr DomainError
			if !errors.As(tt.err, &domainErr) {
				t.Fatalf("expected a DomainError, got %T", tt.err)
			}
			if domainErr.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", domainErr.Code, tt.wantCode)
			}
			if domainErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", domainErr.Message, tt.wantMessage)
			}
		})
	}
}

// Output format tests

func TestOutputFormat_Constants(t *testing.T) {
	formats := map[OutputFormat]string{
		OutputFormatText: "text",
		OutputFormatJSON: "json",
		OutputFormatYAML: "yaml",
	}

	for format, expected := range formats {
		if string(format) != expected {
			t.Errorf("OutputFormat %s should equal '%s'", format, expected)
		}
	}
}

// Sort criteria tests

func TestSortCriteria_Constants(t *testing.T) {
	criteria := map[SortCriteria]string{
		SortBySeverity: "severity",
		SortByWeight:   "weight",
		SortByLocation: "location",
		SortByType:     "type",
	}

	for c, expected := range criteria {
		if string(c) != expected {
			t.Errorf("SortCriteria %s should equal '%s'", c, expected)
		}
	}
}

// Severity tests

func TestSeverity_Rank(t *testing.T) {
	order := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("Severity %s should rank above %s", order[i], order[i-1])
		}
	}

	var unknown Severity = "bogus"
	if unknown.Rank() != 0 {
		t.Errorf("Unknown severity should rank 0, got %d", unknown.Rank())
	}
	if unknown.IsValid() {
		t.Error("Unknown severity should not be valid")
	}
}

func TestSeverity_AtLeast(t *testing.T) {
	if !SeverityHigh.AtLeast(SeverityMedium) {
		t.Error("high should be at least medium")
	}
	if SeverityLow.AtLeast(SeverityCritical) {
		t.Error("low should not be at least critical")
	}
	if !SeverityMedium.AtLeast(SeverityMedium) {
		t.Error("a severity should be at least itself")
	}
}

func TestWorstSeverity(t *testing.T) {
	if got := WorstSeverity(SeverityLow, SeverityCritical, SeverityMedium); got != SeverityCritical {
		t.Errorf("Expected critical, got %s", got)
	}
	if got := WorstSeverity(SeverityLow); got != SeverityLow {
		t.Errorf("Expected low, got %s", got)
	}
}

func TestDefaultWeightForSeverity(t *testing.T) {
	weights := map[Severity]float64{
		SeverityCritical: 10.0,
		SeverityHigh:     5.0,
		SeverityMedium:   2.0,
		SeverityLow:      1.0,
	}

	for severity, expected := range weights {
		if got := DefaultWeightForSeverity(severity); got != expected {
			t.Errorf("Weight for %s = %f, want %f", severity, got, expected)
		}
	}
}
