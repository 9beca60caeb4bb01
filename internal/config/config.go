package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/analyzer"
	"github.com/connascence-tools/conscan/internal/constants"
)

// Default analysis scope settings
const (
	// DefaultMaxFileSizeKB is the largest source file the collector will read
	DefaultMaxFileSizeKB = 1024

	// DefaultMinClassesForStatistics is the corpus size the statistical god
	// object analyzer needs before z-scores are meaningful
	DefaultMinClassesForStatistics = 10

	// DefaultTimeoutSeconds bounds one analysis run; 0 disables the limit
	DefaultTimeoutSeconds = 300
)

// Config represents the main configuration structure
type Config struct {
	// Analysis holds file collection settings
	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis" yaml:"analysis"`

	// Connascence holds the detector toggles and thresholds
	Connascence ConnascenceConfig `json:"connascence" mapstructure:"connascence" yaml:"connascence"`

	// Nasa holds the Power of Ten rule settings
	Nasa NasaConfig `json:"nasa" mapstructure:"nasa" yaml:"nasa"`

	// GodObject holds the statistical god object analysis settings
	GodObject GodObjectConfig `json:"god_object" mapstructure:"god_object" yaml:"god_object"`

	// Theater holds the quality theater detection settings
	Theater TheaterConfig `json:"theater" mapstructure:"theater" yaml:"theater"`

	// Policy selects the scoring preset and weight overrides
	Policy PolicyConfig `json:"policy" mapstructure:"policy" yaml:"policy"`

	// Output holds report formatting configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`

	// Performance holds parallelism and timeout settings
	Performance PerformanceConfig `json:"performance" mapstructure:"performance" yaml:"performance"`
}

// AnalysisConfig controls which files are collected
type AnalysisConfig struct {
	// IncludePatterns specifies file patterns to include
	IncludePatterns []string `json:"include_patterns" mapstructure:"include_patterns" yaml:"include_patterns"`

	// ExcludePatterns specifies file patterns to exclude
	ExcludePatterns []string `json:"exclude_patterns" mapstructure:"exclude_patterns" yaml:"exclude_patterns"`

	// Recursive controls whether directories are walked recursively
	Recursive bool `json:"recursive" mapstructure:"recursive" yaml:"recursive"`

	// FollowSymlinks controls whether to follow symbolic links
	FollowSymlinks bool `json:"follow_symlinks" mapstructure:"follow_symlinks" yaml:"follow_symlinks"`

	// RespectGitignore skips files matched by .gitignore rules
	RespectGitignore bool `json:"respect_gitignore" mapstructure:"respect_gitignore" yaml:"respect_gitignore"`

	// MaxFileSizeKB is the largest file to analyze in KB (0 = no limit)
	MaxFileSizeKB int `json:"max_file_size_kb" mapstructure:"max_file_size_kb" yaml:"max_file_size_kb"`
}

// ConnascenceConfig holds detector selection and numeric thresholds
type ConnascenceConfig struct {
	// Enabled turns the connascence detector suite on or off
	Enabled bool `json:"enabled" mapstructure:"enabled" yaml:"enabled"`

	// Detectors restricts the run to the named detectors; empty means all
	Detectors []string `json:"detectors,omitempty" mapstructure:"detectors" yaml:"detectors,omitempty"`

	MaxPositionalParams     int `json:"max_positional_params" mapstructure:"max_positional_params" yaml:"max_positional_params"`
	MaxFunctionParams       int `json:"max_function_params" mapstructure:"max_function_params" yaml:"max_function_params"`
	GodClassMethods         int `json:"god_class_methods" mapstructure:"god_class_methods" yaml:"god_class_methods"`
	GodClassLines           int `json:"god_class_lines" mapstructure:"god_class_lines" yaml:"god_class_lines"`
	GodClassAttributes      int `json:"god_class_attributes" mapstructure:"god_class_attributes" yaml:"god_class_attributes"`
	GodFunctionLines        int `json:"god_function_lines" mapstructure:"god_function_lines" yaml:"god_function_lines"`
	MaxCyclomaticComplexity int `json:"max_cyclomatic_complexity" mapstructure:"max_cyclomatic_complexity" yaml:"max_cyclomatic_complexity"`
	MaxNestingDepth         int `json:"max_nesting_depth" mapstructure:"max_nesting_depth" yaml:"max_nesting_depth"`
	MagicLiteralRepetition  int `json:"magic_literal_repetition" mapstructure:"magic_literal_repetition" yaml:"magic_literal_repetition"`
	MaxNameUsage            int `json:"max_name_usage" mapstructure:"max_name_usage" yaml:"max_name_usage"`
	MaxGlobalRefs           int `json:"max_global_refs" mapstructure:"max_global_refs" yaml:"max_global_refs"`
}

// NasaConfig holds the Power of Ten rule limits
type NasaConfig struct {
	// Enabled turns NASA rule checking on or off
	Enabled bool `json:"enabled" mapstructure:"enabled" yaml:"enabled"`

	MaxFunctionLength     int `json:"max_function_length" mapstructure:"max_function_length" yaml:"max_function_length"`
	MinAssertions         int `json:"min_assertions" mapstructure:"min_assertions" yaml:"min_assertions"`
	MaxGlobalDeclarations int `json:"max_global_declarations" mapstructure:"max_global_declarations" yaml:"max_global_declarations"`
}

// GodObjectConfig holds the statistical god object analysis settings
type GodObjectConfig struct {
	// Enabled turns the corpus-wide god object pass on or off
	Enabled bool `json:"enabled" mapstructure:"enabled" yaml:"enabled"`

	// StatisticalMode selects z-score outlier detection when the corpus is
	// large enough; false forces the fixed-threshold fallback
	StatisticalMode bool `json:"statistical_mode" mapstructure:"statistical_mode" yaml:"statistical_mode"`

	// MinClasses is the corpus size below which fixed thresholds apply
	MinClasses int `json:"min_classes" mapstructure:"min_classes" yaml:"min_classes"`
}

// TheaterConfig holds the quality theater detection settings
type TheaterConfig struct {
	// Enabled turns theater detection on or off
	Enabled bool `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
}

// PolicyConfig selects the scoring policy
type PolicyConfig struct {
	// Preset names the policy preset: strict, balanced, or relaxed
	Preset string `json:"preset" mapstructure:"preset" yaml:"preset"`
}

// OutputConfig represents output formatting configuration
type OutputConfig struct {
	// Format specifies the report format (text, json, yaml)
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// ShowRecommendations includes refactoring suggestions in reports
	ShowRecommendations bool `json:"show_recommendations" mapstructure:"show_recommendations" yaml:"show_recommendations"`

	// ShowContext includes per-violation context maps in reports
	ShowContext bool `json:"show_context" mapstructure:"show_context" yaml:"show_context"`

	// SortBy specifies the violation ordering (severity, weight, location, type)
	SortBy string `json:"sort_by" mapstructure:"sort_by" yaml:"sort_by"`

	// MinSeverity is the lowest severity to report
	MinSeverity string `json:"min_severity" mapstructure:"min_severity" yaml:"min_severity"`
}

// PerformanceConfig bounds the resources one run may use
type PerformanceConfig struct {
	// MaxGoroutines caps concurrent file analyses (0 = number of CPUs)
	MaxGoroutines int `json:"max_goroutines" mapstructure:"max_goroutines" yaml:"max_goroutines"`

	// TimeoutSeconds bounds the whole run (0 = no timeout)
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	thresholds := analyzer.DefaultThresholds()

	excludes := make([]string, 0, len(constants.DefaultSkipDirs))
	excludes = append(excludes, constants.DefaultSkipDirs...)

	return &Config{
		Analysis: AnalysisConfig{
			IncludePatterns:  []string{"**/*.py", "**/*.pyi"},
			ExcludePatterns:  excludes,
			Recursive:        true,
			FollowSymlinks:   false,
			RespectGitignore: true,
			MaxFileSizeKB:    DefaultMaxFileSizeKB,
		},
		Connascence: ConnascenceConfig{
			Enabled:                 true,
			MaxPositionalParams:     thresholds.MaxPositionalParams,
			MaxFunctionParams:       thresholds.MaxFunctionParams,
			GodClassMethods:         thresholds.GodClassMethods,
			GodClassLines:           thresholds.GodClassLines,
			GodClassAttributes:      thresholds.GodClassAttributes,
			GodFunctionLines:        thresholds.GodFunctionLines,
			MaxCyclomaticComplexity: thresholds.MaxCyclomaticComplexity,
			MaxNestingDepth:         thresholds.MaxNestingDepth,
			MagicLiteralRepetition:  thresholds.MagicLiteralRepetition,
			MaxNameUsage:            thresholds.MaxNameUsage,
			MaxGlobalRefs:           thresholds.MaxGlobalRefs,
		},
		Nasa: NasaConfig{
			Enabled:               true,
			MaxFunctionLength:     thresholds.MaxFunctionLength,
			MinAssertions:         thresholds.MinAssertions,
			MaxGlobalDeclarations: thresholds.MaxGlobalDeclarations,
		},
		GodObject: GodObjectConfig{
			Enabled:         true,
			StatisticalMode: true,
			MinClasses:      DefaultMinClassesForStatistics,
		},
		Theater: TheaterConfig{
			Enabled: true,
		},
		Policy: PolicyConfig{
			Preset: "balanced",
		},
		Output: OutputConfig{
			Format:              "text",
			ShowRecommendations: true,
			ShowContext:         false,
			SortBy:              "severity",
			MinSeverity:         "low",
		},
		Performance: PerformanceConfig{
			MaxGoroutines:  0,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
	}
}

// Thresholds converts the configured limits into the detector threshold set.
func (c *Config) Thresholds() analyzer.ThresholdConfig {
	return analyzer.ThresholdConfig{
		MaxPositionalParams:     c.Connascence.MaxPositionalParams,
		MaxFunctionParams:       c.Connascence.MaxFunctionParams,
		GodClassMethods:         c.Connascence.GodClassMethods,
		GodClassLines:           c.Connascence.GodClassLines,
		GodClassAttributes:      c.Connascence.GodClassAttributes,
		GodFunctionLines:        c.Connascence.GodFunctionLines,
		MaxCyclomaticComplexity: c.Connascence.MaxCyclomaticComplexity,
		MaxNestingDepth:         c.Connascence.MaxNestingDepth,
		MagicLiteralRepetition:  c.Connascence.MagicLiteralRepetition,
		MaxFunctionLength:       c.Nasa.MaxFunctionLength,
		MinAssertions:           c.Nasa.MinAssertions,
		MaxGlobalDeclarations:   c.Nasa.MaxGlobalDeclarations,
		MaxGlobalRefs:           c.Connascence.MaxGlobalRefs,
		MaxNameUsage:            c.Connascence.MaxNameUsage,
	}
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// LoadConfigWithTarget loads configuration with target path context. When no
// explicit path is given the config file is discovered relative to the
// analyzed path.
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	if configPath == "" {
		configPath = findDefaultConfig(targetPath)
	}
	return loadConfigFromFile(configPath)
}

// loadConfigFromFile reads and parses a configuration file over the defaults.
func loadConfigFromFile(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	// A fresh viper instance avoids shared state between runs
	v := viper.New()
	cfg := DefaultConfig()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// searchConfigInDirectory searches for configuration files in one directory
func searchConfigInDirectory(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// configFileCandidates are the recognized config file names, most specific
// first.
func configFileCandidates() []string {
	return []string{
		constants.ConfigFileName,
		".conscan.yml",
		"conscan.yaml",
		"conscan.yml",
	}
}

// findDefaultConfig looks for configuration files in common locations.
// targetPath is the path being analyzed (a Python file or directory).
func findDefaultConfig(targetPath string) string {
	candidates := configFileCandidates()

	// Search from the target directory up to the filesystem root
	if targetPath != "" {
		absPath, err := filepath.Abs(targetPath)
		if err == nil {
			info, err := os.Stat(absPath)
			if err == nil && !info.IsDir() {
				absPath = filepath.Dir(absPath)
			}

			volume := filepath.VolumeName(absPath)
			for dir := absPath; ; dir = filepath.Dir(dir) {
				if config := searchConfigInDirectory(dir, candidates); config != "" {
					return config
				}

				parent := filepath.Dir(dir)
				if parent == dir ||
					dir == volume ||
					(volume != "" && dir == volume+string(filepath.Separator)) {
					break
				}
			}
		}
	}

	if config := searchConfigInDirectory(".", candidates); config != "" {
		return config
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if config := searchConfigInDirectory(filepath.Join(xdgConfig, constants.ToolName), candidates); config != "" {
			return config
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		configDir := filepath.Join(home, ".config", constants.ToolName)
		if config := searchConfigInDirectory(configDir, candidates); config != "" {
			return config
		}
		if config := searchConfigInDirectory(home, candidates); config != "" {
			return config
		}
	}

	if envConfig := os.Getenv(constants.EnvVarPrefix + "_CONFIG"); envConfig != "" {
		if _, err := os.Stat(envConfig); err == nil {
			return envConfig
		}
	}

	return ""
}

var validOutputFormats = map[string]bool{
	constants.OutputFormatText: true,
	constants.OutputFormatJSON: true,
	constants.OutputFormatYAML: true,
}

var validSortCriteria = map[string]bool{
	string(domain.SortBySeverity): true,
	string(domain.SortByWeight):   true,
	string(domain.SortByLocation): true,
	string(domain.SortByType):     true,
}

var knownDetectors = map[string]bool{
	analyzer.DetectorPosition:   true,
	analyzer.DetectorMeaning:    true,
	analyzer.DetectorNameUsage:  true,
	analyzer.DetectorTypeHints:  true,
	analyzer.DetectorAlgorithm:  true,
	analyzer.DetectorGodObject:  true,
	analyzer.DetectorTiming:     true,
	analyzer.DetectorConvention: true,
	analyzer.DetectorValues:     true,
	analyzer.DetectorExecution:  true,
	analyzer.DetectorIdentity:   true,
	analyzer.DetectorNasa:       true,
	analyzer.DetectorTheater:    true,
}

// Validate normalizes the configuration in place. Invalid values are replaced
// with their defaults and reported as warnings; the analysis itself never
// fails on a bad config value.
func (c *Config) Validate() []string {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}
	defaults := DefaultConfig()

	if len(c.Analysis.IncludePatterns) == 0 {
		warn("analysis.include_patterns is empty, restoring %v", defaults.Analysis.IncludePatterns)
		c.Analysis.IncludePatterns = defaults.Analysis.IncludePatterns
	}
	if c.Analysis.MaxFileSizeKB < 0 {
		warn("analysis.max_file_size_kb must be >= 0, got %d, using %d", c.Analysis.MaxFileSizeKB, DefaultMaxFileSizeKB)
		c.Analysis.MaxFileSizeKB = DefaultMaxFileSizeKB
	}

	if len(c.Connascence.Detectors) > 0 {
		kept := c.Connascence.Detectors[:0]
		for _, name := range c.Connascence.Detectors {
			if !knownDetectors[name] {
				warn("connascence.detectors: unknown detector %q dropped", name)
				continue
			}
			kept = append(kept, name)
		}
		c.Connascence.Detectors = kept
	}

	fix := func(name string, field *int, def int) {
		if *field < 1 {
			warn("%s must be >= 1, got %d, using %d", name, *field, def)
			*field = def
		}
	}
	fix("connascence.max_positional_params", &c.Connascence.MaxPositionalParams, defaults.Connascence.MaxPositionalParams)
	fix("connascence.max_function_params", &c.Connascence.MaxFunctionParams, defaults.Connascence.MaxFunctionParams)
	fix("connascence.god_class_methods", &c.Connascence.GodClassMethods, defaults.Connascence.GodClassMethods)
	fix("connascence.god_class_lines", &c.Connascence.GodClassLines, defaults.Connascence.GodClassLines)
	fix("connascence.god_class_attributes", &c.Connascence.GodClassAttributes, defaults.Connascence.GodClassAttributes)
	fix("connascence.god_function_lines", &c.Connascence.GodFunctionLines, defaults.Connascence.GodFunctionLines)
	fix("connascence.max_cyclomatic_complexity", &c.Connascence.MaxCyclomaticComplexity, defaults.Connascence.MaxCyclomaticComplexity)
	fix("connascence.max_nesting_depth", &c.Connascence.MaxNestingDepth, defaults.Connascence.MaxNestingDepth)
	fix("connascence.magic_literal_repetition", &c.Connascence.MagicLiteralRepetition, defaults.Connascence.MagicLiteralRepetition)
	fix("connascence.max_name_usage", &c.Connascence.MaxNameUsage, defaults.Connascence.MaxNameUsage)
	fix("connascence.max_global_refs", &c.Connascence.MaxGlobalRefs, defaults.Connascence.MaxGlobalRefs)
	fix("nasa.max_function_length", &c.Nasa.MaxFunctionLength, defaults.Nasa.MaxFunctionLength)
	fix("nasa.min_assertions", &c.Nasa.MinAssertions, defaults.Nasa.MinAssertions)
	fix("nasa.max_global_declarations", &c.Nasa.MaxGlobalDeclarations, defaults.Nasa.MaxGlobalDeclarations)

	if c.GodObject.MinClasses < 2 {
		warn("god_object.min_classes must be >= 2, got %d, using %d", c.GodObject.MinClasses, DefaultMinClassesForStatistics)
		c.GodObject.MinClasses = DefaultMinClassesForStatistics
	}

	if _, err := analyzer.PresetByName(c.Policy.Preset); err != nil {
		warn("policy.preset %q is not a known preset, using balanced", c.Policy.Preset)
		c.Policy.Preset = "balanced"
	}

	if !validOutputFormats[c.Output.Format] {
		warn("output.format %q is not one of text, json, yaml; using text", c.Output.Format)
		c.Output.Format = constants.OutputFormatText
	}
	if !validSortCriteria[c.Output.SortBy] {
		warn("output.sort_by %q is not one of severity, weight, location, type; using severity", c.Output.SortBy)
		c.Output.SortBy = string(domain.SortBySeverity)
	}
	if c.Output.MinSeverity != "" && !domain.Severity(c.Output.MinSeverity).IsValid() {
		warn("output.min_severity %q is not a severity, using low", c.Output.MinSeverity)
		c.Output.MinSeverity = string(domain.SeverityLow)
	}

	if c.Performance.MaxGoroutines < 0 {
		warn("performance.max_goroutines must be >= 0, got %d, using auto", c.Performance.MaxGoroutines)
		c.Performance.MaxGoroutines = 0
	}
	if c.Performance.TimeoutSeconds < 0 {
		warn("performance.timeout_seconds must be >= 0, got %d, using %d", c.Performance.TimeoutSeconds, DefaultTimeoutSeconds)
		c.Performance.TimeoutSeconds = DefaultTimeoutSeconds
	}

	return warnings
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("analysis", config.Analysis)
	v.Set("connascence", config.Connascence)
	v.Set("nasa", config.Nasa)
	v.Set("god_object", config.GodObject)
	v.Set("theater", config.Theater)
	v.Set("policy", config.Policy)
	v.Set("output", config.Output)
	v.Set("performance", config.Performance)

	return v.WriteConfig()
}
