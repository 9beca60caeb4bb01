package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/connascence-tools/conscan/internal/config"
)

func TestInitCommand_BasicConfigCreation(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "conscan-init-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, ".conscan.yaml")

	cmd := initCmd()
	cmd.SetArgs([]string{"--config", configPath})
	err = cmd.Execute()
	if err != nil {
		t.Fatalf("init command failed: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	contentStr := string(content)
	expectedSections := []string{
		"connascence",
		"nasa",
		"god_object",
		"output",
		"analysis",
		"max_positional_params",
		"min_severity",
	}

	for _, section := range expectedSections {
		if !strings.Contains(contentStr, section) {
			t.Errorf("Config file missing expected section: %s", section)
		}
	}
}

func TestInitCommand_ForceOverwrite(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "conscan-init-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, ".conscan.yaml")

	existingContent := []byte("existing: true\n")
	if err := os.WriteFile(configPath, existingContent, 0644); err != nil {
		t.Fatalf("Failed to create existing file: %v", err)
	}

	// Without --force the existing file must be preserved
	cmd := initCmd()
	cmd.SetArgs([]string{"--config", configPath})
	err = cmd.Execute()
	if err == nil {
		t.Fatal("Expected error when file exists without --force")
	}

	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Expected 'already exists' error, got: %v", err)
	}

	cmd = initCmd()
	cmd.SetArgs([]string{"--config", configPath, "--force"})
	err = cmd.Execute()
	if err != nil {
		t.Fatalf("init --force failed: %v", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	if !strings.Contains(string(content), "connascence") {
		t.Error("Config file was not overwritten with new content")
	}
}

func TestInitCommand_MinimalConfig(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "conscan-init-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, ".conscan.yaml")

	cmd := initCmd()
	cmd.SetArgs([]string{"--config", configPath, "--minimal"})
	err = cmd.Execute()
	if err != nil {
		t.Fatalf("init --minimal failed: %v", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	contentStr := string(content)

	if !strings.Contains(contentStr, "connascence") {
		t.Error("Minimal config missing connascence section")
	}

	if !strings.Contains(contentStr, "nasa") {
		t.Error("Minimal config missing nasa section")
	}

	if !strings.Contains(contentStr, "minimal") {
		t.Error("Minimal config should indicate it's minimal")
	}
}

func TestInitCommand_CustomOutputPath(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "conscan-init-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	customPath := filepath.Join(tmpDir, "custom-config.yaml")

	cmd := initCmd()
	cmd.SetArgs([]string{"--config", customPath})
	err = cmd.Execute()
	if err != nil {
		t.Fatalf("init with custom path failed: %v", err)
	}

	if _, err := os.Stat(customPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created at custom path")
	}
}

func TestInitCommand_InvalidDirectory(t *testing.T) {
	cmd := initCmd()
	cmd.SetArgs([]string{"--config", "/nonexistent/directory/.conscan.yaml"})
	err := cmd.Execute()
	if err == nil {
		t.Fatal("Expected error when directory doesn't exist")
	}

	if !strings.Contains(err.Error(), "directory does not exist") {
		t.Errorf("Expected 'directory does not exist' error, got: %v", err)
	}
}

func TestInitCommand_FullConfigSize(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "conscan-init-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	fullPath := filepath.Join(tmpDir, "full.yaml")
	cmd := initCmd()
	cmd.SetArgs([]string{"--config", fullPath})
	err = cmd.Execute()
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}

	fullContent, _ := os.ReadFile(fullPath)

	minimalPath := filepath.Join(tmpDir, "minimal.yaml")
	cmd = initCmd()
	cmd.SetArgs([]string{"--config", minimalPath, "--minimal"})
	err = cmd.Execute()
	if err != nil {
		t.Fatalf("init --minimal failed: %v", err)
	}

	minimalContent, _ := os.ReadFile(minimalPath)

	if len(fullContent) <= len(minimalContent) {
		t.Error("Full config should be larger than minimal config")
	}
}

func TestGetFullConfigTemplate(t *testing.T) {
	tests := []struct {
		projectType    config.ProjectType
		strictness     config.Strictness
		wantPositional string
		wantMethods    string
		wantComplexity string
	}{
		{
			projectType:    config.ProjectTypeGeneric,
			strictness:     config.StrictnessBalanced,
			wantPositional: "max_positional_params: 3",
			wantMethods:    "god_class_methods: 20",
			wantComplexity: "max_cyclomatic_complexity: 10",
		},
		{
			projectType:    config.ProjectTypeService,
			strictness:     config.StrictnessStrict,
			wantPositional: "max_positional_params: 2",
			wantMethods:    "god_class_methods: 15",
			wantComplexity: "max_cyclomatic_complexity: 8",
		},
		{
			projectType:    config.ProjectTypeData,
			strictness:     config.StrictnessRelaxed,
			wantPositional: "max_positional_params: 5",
			wantMethods:    "god_class_methods: 30",
			wantComplexity: "max_cyclomatic_complexity: 15",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.projectType)+"_"+string(tt.strictness), func(t *testing.T) {
			template := config.GetFullConfigTemplate(tt.projectType, tt.strictness)

			if !strings.Contains(template, tt.wantPositional) {
				t.Errorf("Template missing expected threshold: %s", tt.wantPositional)
			}

			if !strings.Contains(template, tt.wantMethods) {
				t.Errorf("Template missing expected threshold: %s", tt.wantMethods)
			}

			if !strings.Contains(template, tt.wantComplexity) {
				t.Errorf("Template missing expected threshold: %s", tt.wantComplexity)
			}

			if !strings.Contains(template, "preset: "+string(tt.strictness)) {
				t.Errorf("Template missing policy preset: %s", tt.strictness)
			}
		})
	}
}

func TestGetMinimalConfigTemplate(t *testing.T) {
	template := config.GetMinimalConfigTemplate()

	requiredSections := []string{
		"connascence",
		"nasa",
		"god_object",
		"policy",
		"analysis",
		"include_patterns",
		"exclude_patterns",
	}

	for _, section := range requiredSections {
		if !strings.Contains(template, section) {
			t.Errorf("Minimal template missing required section: %s", section)
		}
	}

	fullTemplate := config.GetFullConfigTemplate(config.ProjectTypeGeneric, config.StrictnessBalanced)
	if len(template) >= len(fullTemplate) {
		t.Error("Minimal template should be smaller than full template")
	}
}

func TestProjectPresets(t *testing.T) {
	presets := config.GetProjectPresets()

	projectTypes := []config.ProjectType{
		config.ProjectTypeGeneric,
		config.ProjectTypeLibrary,
		config.ProjectTypeService,
		config.ProjectTypeData,
	}

	for _, pt := range projectTypes {
		preset, ok := presets[pt]
		if !ok {
			t.Errorf("Missing preset for project type: %s", pt)
			continue
		}

		if len(preset.IncludePatterns) == 0 {
			t.Errorf("Project type %s has no include patterns", pt)
		}

		if len(preset.ExcludePatterns) == 0 {
			t.Errorf("Project type %s has no exclude patterns", pt)
		}

		// Every preset keeps virtualenvs and bytecode caches out of the scan
		hasPycache := false
		for _, pattern := range preset.ExcludePatterns {
			if strings.Contains(pattern, "__pycache__") {
				hasPycache = true
				break
			}
		}
		if !hasPycache {
			t.Errorf("Project type %s should exclude __pycache__", pt)
		}
	}
}

func TestStrictnessPresets(t *testing.T) {
	presets := config.GetStrictnessPresets()

	strictnessLevels := []config.Strictness{
		config.StrictnessRelaxed,
		config.StrictnessBalanced,
		config.StrictnessStrict,
	}

	for _, s := range strictnessLevels {
		preset, ok := presets[s]
		if !ok {
			t.Errorf("Missing preset for strictness: %s", s)
			continue
		}

		if preset.MaxPositionalParams <= 0 {
			t.Errorf("Strictness %s has invalid maxPositionalParams: %d", s, preset.MaxPositionalParams)
		}

		if preset.GodClassMethods <= preset.MaxPositionalParams {
			t.Errorf("Strictness %s: godClassMethods (%d) should be > maxPositionalParams (%d)",
				s, preset.GodClassMethods, preset.MaxPositionalParams)
		}
	}

	// Relaxed tolerates more than balanced, balanced more than strict
	relaxed := presets[config.StrictnessRelaxed]
	balanced := presets[config.StrictnessBalanced]
	strict := presets[config.StrictnessStrict]

	if relaxed.MaxPositionalParams <= balanced.MaxPositionalParams {
		t.Error("Relaxed should have higher thresholds than balanced")
	}

	if balanced.MaxPositionalParams <= strict.MaxPositionalParams {
		t.Error("Balanced should have higher thresholds than strict")
	}

	if strict.MaxCyclomaticComplexity >= balanced.MaxCyclomaticComplexity {
		t.Error("Strict should enforce a lower complexity ceiling than balanced")
	}
}

func TestConfigTemplateHasComments(t *testing.T) {
	template := config.GetFullConfigTemplate(config.ProjectTypeGeneric, config.StrictnessBalanced)

	if !strings.Contains(template, "#") {
		t.Error("Full template should contain YAML comments")
	}

	expectedComments := []string{
		"ANALYSIS SCOPE",
		"CONNASCENCE DETECTION",
		"NASA POWER OF TEN",
		"GOD OBJECT ANALYSIS",
		"OUTPUT SETTINGS",
		"github.com/connascence-tools/conscan",
	}

	for _, comment := range expectedComments {
		if !strings.Contains(template, comment) {
			t.Errorf("Template missing expected comment/section: %s", comment)
		}
	}
}

func TestLibraryPresetExcludesDocs(t *testing.T) {
	presets := config.GetProjectPresets()
	libraryPreset := presets[config.ProjectTypeLibrary]

	hasDocs := false
	for _, pattern := range libraryPreset.ExcludePatterns {
		if strings.Contains(pattern, "docs") {
			hasDocs = true
			break
		}
	}

	if !hasDocs {
		t.Error("Library preset should exclude docs directory")
	}

	// Libraries ship type stubs alongside sources
	hasStubs := false
	for _, pattern := range libraryPreset.IncludePatterns {
		if strings.Contains(pattern, ".pyi") {
			hasStubs = true
			break
		}
	}

	if !hasStubs {
		t.Error("Library preset should include .pyi stub files")
	}
}

func TestServicePresetExcludesMigrations(t *testing.T) {
	presets := config.GetProjectPresets()
	servicePreset := presets[config.ProjectTypeService]

	hasMigrations := false
	for _, pattern := range servicePreset.ExcludePatterns {
		if strings.Contains(pattern, "migrations") {
			hasMigrations = true
			break
		}
	}

	if !hasMigrations {
		t.Error("Service preset should exclude migrations directory")
	}
}

func TestDataPresetExcludesNotebooks(t *testing.T) {
	presets := config.GetProjectPresets()
	dataPreset := presets[config.ProjectTypeData]

	hasNotebooks := false
	hasCheckpoints := false
	for _, pattern := range dataPreset.ExcludePatterns {
		if strings.Contains(pattern, "notebooks") {
			hasNotebooks = true
		}
		if strings.Contains(pattern, ".ipynb_checkpoints") {
			hasCheckpoints = true
		}
	}

	if !hasNotebooks {
		t.Error("Data preset should exclude notebooks directory")
	}

	if !hasCheckpoints {
		t.Error("Data preset should exclude .ipynb_checkpoints directory")
	}
}

func TestInitCmd_FlagsExist(t *testing.T) {
	cmd := initCmd()

	expectedFlags := []string{"config", "force", "minimal", "interactive"}
	for _, flagName := range expectedFlags {
		flag := cmd.Flags().Lookup(flagName)
		if flag == nil {
			t.Errorf("Missing expected flag: --%s", flagName)
		}
	}

	shortFlags := map[string]string{
		"c": "config",
		"f": "force",
		"i": "interactive",
	}

	for short, long := range shortFlags {
		flag := cmd.Flags().ShorthandLookup(short)
		if flag == nil {
			t.Errorf("Missing short flag -%s for --%s", short, long)
		}
	}
}

func TestInitCmd_DefaultConfigPath(t *testing.T) {
	cmd := initCmd()

	configFlag := cmd.Flags().Lookup("config")
	if configFlag == nil {
		t.Fatal("config flag not found")
	}

	if configFlag.DefValue != ".conscan.yaml" {
		t.Errorf("Expected default config path to be '.conscan.yaml', got '%s'", configFlag.DefValue)
	}
}
