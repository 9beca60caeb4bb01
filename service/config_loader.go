package service

import (
	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/config"
)

// ConfigurationLoaderImpl implements the ConfigurationLoader interface
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadConfig loads configuration from the specified path
func (c *ConfigurationLoaderImpl) LoadConfig(path string) (*domain.AnalyzeRequest, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}
	cfg.Validate()

	return c.convertToAnalyzeRequest(cfg), nil
}

// LoadDefaultConfig loads the default configuration, first searching the
// usual config file locations and falling back to the embedded defaults.
func (c *ConfigurationLoaderImpl) LoadDefaultConfig() *domain.AnalyzeRequest {
	cfg, err := config.LoadConfigWithTarget("", "")
	if err == nil {
		cfg.Validate()
		return c.convertToAnalyzeRequest(cfg)
	}

	if cfg, err = config.LoadDefaultConfig(); err == nil {
		return c.convertToAnalyzeRequest(cfg)
	}

	return c.convertToAnalyzeRequest(config.DefaultConfig())
}

// LoadFullConfig loads the raw configuration for callers that also need the
// threshold and performance blocks. The returned warnings describe repaired
// values and belong in the run's report.
func (c *ConfigurationLoaderImpl) LoadFullConfig(configPath, targetPath string) (*config.Config, []string, error) {
	cfg, err := config.LoadConfigWithTarget(configPath, targetPath)
	if err != nil {
		return nil, nil, domain.NewConfigError("failed to load configuration file", err)
	}
	warnings := cfg.Validate()
	return cfg, warnings, nil
}

// RequestFromConfig converts a loaded configuration into the request its
// settings describe. Paths are left empty for the caller to fill in.
func (c *ConfigurationLoaderImpl) RequestFromConfig(cfg *config.Config) *domain.AnalyzeRequest {
	return c.convertToAnalyzeRequest(cfg)
}

// MergeConfig merges CLI flags with configuration file
func (c *ConfigurationLoaderImpl) MergeConfig(base *domain.AnalyzeRequest, override *domain.AnalyzeRequest) *domain.AnalyzeRequest {
	// Start with base configuration
	merged := *base

	// Always override paths as they come from command arguments
	if len(override.Paths) > 0 {
		merged.Paths = override.Paths
	}

	// Output configuration
	if override.OutputFormat != "" {
		merged.OutputFormat = override.OutputFormat
	}
	if override.OutputWriter != nil {
		merged.OutputWriter = override.OutputWriter
	}
	if override.OutputPath != "" {
		merged.OutputPath = override.OutputPath
	}
	if override.ShowContext {
		merged.ShowContext = override.ShowContext
	}

	// Detector selection wins outright when given on the command line
	if len(override.SelectedDetectors) > 0 {
		merged.SelectedDetectors = override.SelectedDetectors
	}

	// Filtering and sorting - override if non-default
	if override.MinSeverity != "" && override.MinSeverity != domain.SeverityLow {
		merged.MinSeverity = override.MinSeverity
	}
	if override.SortBy != "" && override.SortBy != domain.SortBySeverity {
		merged.SortBy = override.SortBy
	}

	if override.PolicyPreset != "" {
		merged.PolicyPreset = override.PolicyPreset
	}

	// Config path is always from override if provided
	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}

	// File collection patterns from flags replace the configured ones
	if len(override.IncludePatterns) > 0 {
		merged.IncludePatterns = override.IncludePatterns
	}
	if len(override.ExcludePatterns) > 0 {
		merged.ExcludePatterns = override.ExcludePatterns
	}

	if override.NoProgress {
		merged.NoProgress = override.NoProgress
	}

	return &merged
}

// convertToAnalyzeRequest converts a Config to AnalyzeRequest
func (c *ConfigurationLoaderImpl) convertToAnalyzeRequest(cfg *config.Config) *domain.AnalyzeRequest {
	return &domain.AnalyzeRequest{
		// Paths are set by the caller, not from config
		Paths: []string{},

		// Output settings
		OutputFormat: domain.OutputFormat(cfg.Output.Format),
		ShowContext:  cfg.Output.ShowContext,
		SortBy:       domain.SortCriteria(cfg.Output.SortBy),
		MinSeverity:  domain.Severity(cfg.Output.MinSeverity),

		// Analysis family toggles
		EnableConnascence: cfg.Connascence.Enabled,
		EnableNasa:        cfg.Nasa.Enabled,
		EnableGodObject:   cfg.GodObject.Enabled,
		EnableTheater:     cfg.Theater.Enabled,
		SelectedDetectors: cfg.Connascence.Detectors,

		// Policy
		PolicyPreset: cfg.Policy.Preset,

		// File collection
		Recursive:       cfg.Analysis.Recursive,
		IncludePatterns: cfg.Analysis.IncludePatterns,
		ExcludePatterns: cfg.Analysis.ExcludePatterns,
	}
}
