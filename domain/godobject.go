package domain

import "fmt"

// ClassRole describes the inferred structural role of a class, used to
// calibrate god object scoring against intentional complexity
type ClassRole string

const (
	RoleAggregator    ClassRole = "aggregator"
	RoleFacade        ClassRole = "facade"
	RoleController    ClassRole = "controller"
	RoleDataContainer ClassRole = "data_container"
	RoleUtility       ClassRole = "utility"
	RoleGeneric       ClassRole = "generic"
)

// ScoreMultiplier returns the role-specific dampening factor applied to the
// raw god object score. Roles that legitimately concentrate responsibility
// score lower.
func (r ClassRole) ScoreMultiplier() float64 {
	switch r {
	case RoleAggregator:
		return 0.3
	case RoleDataContainer:
		return 0.2
	case RoleFacade:
		return 0.5
	case RoleUtility:
		return 0.6
	case RoleController:
		return 0.7
	default:
		return 1.0
	}
}

// CohesionMetrics holds the cohesion measurements for one class
type CohesionMetrics struct {
	// LCOM5 lack-of-cohesion metric; 0 is fully cohesive
	LCOM5 float64 `json:"lcom5" yaml:"lcom5"`

	// MethodAttributeRatio is methods per attribute
	MethodAttributeRatio float64 `json:"method_attribute_ratio" yaml:"method_attribute_ratio"`

	// InterfaceCohesion measures parameter and return shape consistency
	// across public methods
	InterfaceCohesion float64 `json:"interface_cohesion" yaml:"interface_cohesion"`

	// DataCohesion measures how broadly methods share attributes
	DataCohesion float64 `json:"data_cohesion" yaml:"data_cohesion"`

	// BehavioralCohesion is the ratio of internal self calls to all calls
	BehavioralCohesion float64 `json:"behavioral_cohesion" yaml:"behavioral_cohesion"`

	// OverallCohesion is the weighted combination in [0, 1]
	OverallCohesion float64 `json:"overall_cohesion" yaml:"overall_cohesion"`
}

// ClassComplexityMetrics holds the size and complexity measurements for one class
type ClassComplexityMetrics struct {
	MethodCount          int     `json:"method_count" yaml:"method_count"`
	LineCount            int     `json:"line_count" yaml:"line_count"`
	AttributeCount       int     `json:"attribute_count" yaml:"attribute_count"`
	CyclomaticComplexity int     `json:"cyclomatic_complexity" yaml:"cyclomatic_complexity"`
	NestingDepth         int     `json:"nesting_depth" yaml:"nesting_depth"`
	FanOut               int     `json:"fan_out" yaml:"fan_out"`
	Score                float64 `json:"score" yaml:"score"`
}

// ClassAnalysis is the full statistical profile of one class, produced by the
// corpus-wide god object analyzer. At most one god object finding is derived
// from each ClassAnalysis.
type ClassAnalysis struct {
	Name       string `json:"name" yaml:"name"`
	FilePath   string `json:"file_path" yaml:"file_path"`
	LineNumber int    `json:"line_number" yaml:"line_number"`

	Role       ClassRole              `json:"role" yaml:"role"`
	Cohesion   CohesionMetrics        `json:"cohesion" yaml:"cohesion"`
	Complexity ClassComplexityMetrics `json:"complexity" yaml:"complexity"`

	// ZScore is the statistical distance of the complexity score from the
	// corpus mean
	ZScore    float64 `json:"z_score" yaml:"z_score"`
	IsOutlier bool    `json:"is_outlier" yaml:"is_outlier"`

	// GodObjectScore is the combined, role-adjusted score in [0, 1]
	GodObjectScore float64  `json:"god_object_score" yaml:"god_object_score"`
	Confidence     float64  `json:"confidence" yaml:"confidence"`
	Severity       Severity `json:"severity" yaml:"severity"`

	Evidence        []string `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Recommendations []string `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
}

// IsGodObject reports whether the analysis meets the full god object gate:
// a strong statistical outlier with low cohesion, confidently scored, and
// not an intentional aggregator
func (c *ClassAnalysis) IsGodObject() bool {
	return c.ZScore > 2.0 &&
		c.Cohesion.OverallCohesion < 0.4 &&
		c.Confidence > 0.7 &&
		c.Role != RoleAggregator
}

// ToViolation converts the analysis into a canonical violation record for
// unified reporting
func (c *ClassAnalysis) ToViolation() Violation {
	v := Violation{
		Type:       GodObjectViolation,
		Severity:   c.Severity,
		FilePath:   c.FilePath,
		LineNumber: c.LineNumber,
		ClassName:  c.Name,
		Locality:   LocalitySameClass,
		Description: fmt.Sprintf(
			"Class '%s' is a god object (score %.2f, cohesion %.2f, z-score %.1f)",
			c.Name, c.GodObjectScore, c.Cohesion.OverallCohesion, c.ZScore),
		Recommendation: "Split responsibilities into smaller, focused classes",
		Context: map[string]any{
			"god_object_score": c.GodObjectScore,
			"z_score":          c.ZScore,
			"overall_cohesion": c.Cohesion.OverallCohesion,
			"lcom5":            c.Cohesion.LCOM5,
			"role":             string(c.Role),
			"method_count":     c.Complexity.MethodCount,
			"line_count":       c.Complexity.LineCount,
			"confidence":       c.Confidence,
		},
	}
	if len(c.Recommendations) > 0 {
		v.Recommendation = c.Recommendations[0]
	}
	v.ID = v.Fingerprint()
	v.Weight = DefaultWeightForSeverity(v.Severity)
	return v
}
