package domain

import "math"

// NasaRuleResult summarizes the outcome of one Power of Ten rule over a run
type NasaRuleResult struct {
	// Rule is the rule number (1-10)
	Rule int `json:"rule" yaml:"rule"`

	// Name is the short rule description
	Name string `json:"name" yaml:"name"`

	// ViolationCount is the number of violations detected for this rule
	ViolationCount int `json:"violation_count" yaml:"violation_count"`

	// Score is the bucketed rule score (100, 80, 60, 40, or 20)
	Score float64 `json:"score" yaml:"score"`

	// Weight is the rule's contribution to the compliance score
	Weight float64 `json:"weight" yaml:"weight"`

	// Applicable is false for rules that cannot be meaningfully checked
	// for Python (rules 8-10)
	Applicable bool `json:"applicable" yaml:"applicable"`
}

// NasaRuleNames maps rule numbers to their short descriptions
var NasaRuleNames = map[int]string{
	1:  "Avoid complex flow constructs (no recursion)",
	2:  "All loops must have fixed bounds",
	3:  "Avoid heap allocation after initialization",
	4:  "Restrict functions to a single printed page",
	5:  "Use a minimum of two runtime assertions per function",
	6:  "Restrict the scope of data to the smallest possible",
	7:  "Check the return value of all non-void functions",
	8:  "Use the preprocessor sparingly",
	9:  "Limit pointer use to a single dereference",
	10: "Compile with all possible warnings active",
}

// NasaRuleWeights maps rule numbers to their compliance score weights
var NasaRuleWeights = map[int]float64{
	1:  0.15,
	2:  0.15,
	3:  0.05,
	4:  0.15,
	5:  0.15,
	6:  0.10,
	7:  0.10,
	8:  0.05,
	9:  0.05,
	10: 0.05,
}

// NasaBucketScore maps a rule's violation count to its bucketed score.
func NasaBucketScore(count int) float64 {
	switch {
	case count == 0:
		return 100
	case count < 10:
		return 80
	case count < 50:
		return 60
	case count < 100:
		return 40
	default:
		return 20
	}
}

// NasaRuleCounts tallies violations per rule number. Non-NASA violation
// types are ignored.
func NasaRuleCounts(violations []Violation) map[int]int {
	byType := make(map[ViolationType]int, 10)
	for rule := 1; rule <= 10; rule++ {
		byType[NasaRuleViolation(rule)] = rule
	}
	counts := make(map[int]int)
	for _, v := range violations {
		if rule, ok := byType[v.Type]; ok {
			counts[rule]++
		}
	}
	return counts
}

// ComputeNasaCompliance converts per-rule violation counts into the ten rule
// results and the weighted compliance score, rounded to one decimal. Rules
// 8-10 are never checked, so they always score clean.
func ComputeNasaCompliance(counts map[int]int) (float64, []NasaRuleResult) {
	results := make([]NasaRuleResult, 0, 10)
	total := 0.0
	for rule := 1; rule <= 10; rule++ {
		count := counts[rule]
		score := NasaBucketScore(count)
		weight := NasaRuleWeights[rule]
		total += weight * score
		results = append(results, NasaRuleResult{
			Rule:           rule,
			Name:           NasaRuleNames[rule],
			ViolationCount: count,
			Score:          score,
			Weight:         weight,
			Applicable:     rule <= 7,
		})
	}
	return math.Round(total*10) / 10, results
}
