package domain

import (
	"testing"
)

func TestAnalyzeSummary_AddViolation(t *testing.T) {
	s := &AnalyzeSummary{}

	violations := []Violation{
		{Type: ConnascenceOfPosition, Severity: SeverityHigh, Weight: 9.0},
		{Type: ConnascenceOfMeaning, Severity: SeverityMedium, Weight: 3.0},
		{Type: ConnascenceOfMeaning, Severity: SeverityCritical, Weight: 27.0},
		{Type: GodObjectViolation, Severity: SeverityLow, Weight: 1.0},
	}
	for i := range violations {
		s.AddViolation(&violations[i])
	}

	if s.TotalViolations != 4 {
		t.Errorf("TotalViolations = %d, want 4", s.TotalViolations)
	}
	if s.CriticalCount != 1 || s.HighCount != 1 || s.MediumCount != 1 || s.LowCount != 1 {
		t.Errorf("severity counts = %d/%d/%d/%d, want 1/1/1/1",
			s.CriticalCount, s.HighCount, s.MediumCount, s.LowCount)
	}
	if s.ViolationsByType[string(ConnascenceOfMeaning)] != 2 {
		t.Errorf("meaning count = %d, want 2", s.ViolationsByType[string(ConnascenceOfMeaning)])
	}
	if s.TotalWeight != 40.0 {
		t.Errorf("TotalWeight = %f, want 40.0", s.TotalWeight)
	}
}

func TestAnalyzeSummary_CalculateQualityScore(t *testing.T) {
	tests := []struct {
		name          string
		analyzedFiles int
		totalWeight   float64
		want          float64
	}{
		{
			name:          "no files gives perfect score",
			analyzedFiles: 0,
			totalWeight:   0,
			want:          100.0,
		},
		{
			name:          "clean files give perfect score",
			analyzedFiles: 10,
			totalWeight:   0,
			want:          100.0,
		},
		{
			name:          "weight decays score per file",
			analyzedFiles: 10,
			totalWeight:   250.0,
			want:          75.0,
		},
		{
			name:          "score floors at zero",
			analyzedFiles: 1,
			totalWeight:   5000.0,
			want:          0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &AnalyzeSummary{
				AnalyzedFiles: tt.analyzedFiles,
				TotalWeight:   tt.totalWeight,
			}
			if got := s.CalculateQualityScore(); got != tt.want {
				t.Errorf("CalculateQualityScore() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestDefaultAnalyzeRequest(t *testing.T) {
	req := DefaultAnalyzeRequest()

	if !req.EnableConnascence || !req.EnableNasa || !req.EnableGodObject || !req.EnableTheater {
		t.Error("all analysis families should be enabled by default")
	}
	if req.OutputFormat != OutputFormatText {
		t.Errorf("default format = %s, want text", req.OutputFormat)
	}
	if req.MinSeverity != SeverityLow {
		t.Errorf("default min severity = %s, want low", req.MinSeverity)
	}
	if req.PolicyPreset != "balanced" {
		t.Errorf("default preset = %s, want balanced", req.PolicyPreset)
	}
	if !req.Recursive {
		t.Error("default should be recursive")
	}
}
