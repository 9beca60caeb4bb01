package domain

// CheckResult represents the result of a quality gate check
type CheckResult struct {
	Passed      bool             `json:"passed"`
	ExitCode    int              `json:"exit_code"`
	Violations  []CheckViolation `json:"violations"`
	Summary     CheckSummary     `json:"summary"`
	Duration    int64            `json:"duration_ms"`
	GeneratedAt string           `json:"generated_at"`
	Version     string           `json:"version"`
}

// CheckViolation represents a single gate threshold violation
type CheckViolation struct {
	Category  string `json:"category"`            // violations, nasa, god_object, policy
	Rule      string `json:"rule"`                // max-critical, min-compliance, etc.
	Severity  string `json:"severity"`            // error, warning
	Message   string `json:"message"`             // Human-readable description
	Location  string `json:"location,omitempty"`  // File:line if applicable
	Actual    string `json:"actual"`              // Actual value
	Threshold string `json:"threshold,omitempty"` // Configured threshold
}

// CheckSummary provides aggregate statistics for the gate check
type CheckSummary struct {
	FilesAnalyzed      int     `json:"files_analyzed"`
	TotalViolations    int     `json:"total_violations"`
	CriticalViolations int     `json:"critical_violations"`
	HighViolations     int     `json:"high_violations"`
	GodObjects         int     `json:"god_objects"`
	NasaCompliance     float64 `json:"nasa_compliance"`
	TotalWeight        float64 `json:"total_weight"`
	ConnascenceChecked bool    `json:"connascence_checked"`
	NasaChecked        bool    `json:"nasa_checked"`
	GodObjectChecked   bool    `json:"godobject_checked"`
}
