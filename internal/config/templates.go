package config

import "strconv"

// ProjectType represents the type of Python project
type ProjectType string

const (
	ProjectTypeGeneric ProjectType = "generic"
	ProjectTypeLibrary ProjectType = "library"
	ProjectTypeService ProjectType = "service"
	ProjectTypeData    ProjectType = "data"
)

// Strictness represents the analysis strictness level, matching the policy
// preset names.
type Strictness string

const (
	StrictnessRelaxed  Strictness = "relaxed"
	StrictnessBalanced Strictness = "balanced"
	StrictnessStrict   Strictness = "strict"
)

// ProjectPreset holds file collection presets for different project types
type ProjectPreset struct {
	IncludePatterns []string
	ExcludePatterns []string
}

// StrictnessPreset holds the threshold values that vary by strictness level
type StrictnessPreset struct {
	MaxPositionalParams     int
	GodClassMethods         int
	MaxCyclomaticComplexity int
	MagicLiteralRepetition  int
}

// GetProjectPresets returns presets for different project types
func GetProjectPresets() map[ProjectType]ProjectPreset {
	common := []string{
		"**/.venv/**",
		"**/venv/**",
		"**/__pycache__/**",
		"**/dist/**",
		"**/build/**",
		"**/*.egg-info/**",
	}
	return map[ProjectType]ProjectPreset{
		ProjectTypeGeneric: {
			IncludePatterns: []string{"**/*.py", "**/*.pyi"},
			ExcludePatterns: common,
		},
		ProjectTypeLibrary: {
			IncludePatterns: []string{"**/*.py", "**/*.pyi"},
			ExcludePatterns: append(append([]string{}, common...),
				"**/docs/**",
				"**/examples/**",
			),
		},
		ProjectTypeService: {
			IncludePatterns: []string{"**/*.py"},
			ExcludePatterns: append(append([]string{}, common...),
				"**/migrations/**",
				"**/deploy/**",
				"**/static/**",
			),
		},
		ProjectTypeData: {
			IncludePatterns: []string{"**/*.py"},
			ExcludePatterns: append(append([]string{}, common...),
				"**/notebooks/**",
				"**/data/**",
				"**/.ipynb_checkpoints/**",
			),
		},
	}
}

// GetStrictnessPresets returns the threshold presets per strictness level,
// aligned with the strict/balanced/relaxed policy presets.
func GetStrictnessPresets() map[Strictness]StrictnessPreset {
	return map[Strictness]StrictnessPreset{
		StrictnessRelaxed: {
			MaxPositionalParams:     5,
			GodClassMethods:         30,
			MaxCyclomaticComplexity: 15,
			MagicLiteralRepetition:  3,
		},
		StrictnessBalanced: {
			MaxPositionalParams:     3,
			GodClassMethods:         20,
			MaxCyclomaticComplexity: 10,
			MagicLiteralRepetition:  3,
		},
		StrictnessStrict: {
			MaxPositionalParams:     2,
			GodClassMethods:         15,
			MaxCyclomaticComplexity: 8,
			MagicLiteralRepetition:  2,
		},
	}
}

// GetFullConfigTemplate returns the documented YAML config template
func GetFullConfigTemplate(projectType ProjectType, strictness Strictness) string {
	preset := GetProjectPresets()[projectType]
	limits := GetStrictnessPresets()[strictness]

	includePatterns := formatYAMLList(preset.IncludePatterns)
	excludePatterns := formatYAMLList(preset.ExcludePatterns)

	return `# conscan configuration
# Documentation: https://github.com/connascence-tools/conscan

# ==============================================================================
# ANALYSIS SCOPE
# ==============================================================================
# Controls which Python files are analyzed
analysis:
  # File patterns to include (glob patterns)
  include_patterns:
` + includePatterns + `
  # File patterns to exclude (glob patterns)
  exclude_patterns:
` + excludePatterns + `
  # Analyze directories recursively
  recursive: true

  # Skip files matched by .gitignore rules
  respect_gitignore: true

# ==============================================================================
# CONNASCENCE DETECTION
# ==============================================================================
# Detects coupling between code elements: position, meaning, name, type,
# algorithm, timing, values, execution order, and identity
connascence:
  enabled: true

  # Maximum positional parameters before flagging connascence of position
  max_positional_params: ` + strconv.Itoa(limits.MaxPositionalParams) + `

  # Method count above which a class is a threshold god class
  god_class_methods: ` + strconv.Itoa(limits.GodClassMethods) + `

  # Cyclomatic complexity limit (also NASA rule 1)
  max_cyclomatic_complexity: ` + strconv.Itoa(limits.MaxCyclomaticComplexity) + `

  # Occurrences before a repeated literal becomes connascence of value
  magic_literal_repetition: ` + strconv.Itoa(limits.MagicLiteralRepetition) + `

# ==============================================================================
# NASA POWER OF TEN
# ==============================================================================
# Applies the Power of Ten rules (adapted for Python) and reports a
# weighted compliance score
nasa:
  enabled: true

  # Longest function body, docstrings excluded (rule 4)
  max_function_length: 60

  # Minimum runtime assertions per function (rule 5)
  min_assertions: 2

# ==============================================================================
# GOD OBJECT ANALYSIS
# ==============================================================================
# Statistical outlier detection over the whole analyzed corpus
god_object:
  enabled: true

  # Use z-score outlier detection when enough classes are present
  statistical_mode: true

  # Corpus size below which fixed thresholds apply
  min_classes: 10

# ==============================================================================
# QUALITY THEATER DETECTION
# ==============================================================================
# Flags test gaming, silent exception handling, and inflated metrics
theater:
  enabled: true

# ==============================================================================
# SCORING POLICY
# ==============================================================================
policy:
  # Policy preset: strict, balanced, relaxed
  preset: ` + string(strictness) + `

# ==============================================================================
# OUTPUT SETTINGS
# ==============================================================================
output:
  # Report format: text, json, yaml
  format: text

  # Include refactoring suggestions
  show_recommendations: true

  # Violation ordering: severity, weight, location, type
  sort_by: severity

  # Lowest severity to report: low, medium, high, critical
  min_severity: low
`
}

// GetMinimalConfigTemplate returns a minimal config template
func GetMinimalConfigTemplate() string {
	return `# conscan configuration (minimal)
# Full options: https://github.com/connascence-tools/conscan

connascence:
  enabled: true
  max_positional_params: 3

nasa:
  enabled: true

god_object:
  enabled: true

policy:
  preset: balanced

analysis:
  include_patterns:
    - "**/*.py"
  exclude_patterns:
    - "**/.venv/**"
    - "**/__pycache__/**"
`
}

// formatYAMLList renders a string slice as indented YAML list items
func formatYAMLList(items []string) string {
	result := ""
	for _, item := range items {
		result += `    - "` + item + `"` + "\n"
	}
	return result
}
