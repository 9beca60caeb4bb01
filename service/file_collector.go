package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/connascence-tools/conscan/internal/config"
	"github.com/connascence-tools/conscan/internal/constants"
)

// FileCollectorImpl implements the FileReader interface
type FileCollectorImpl struct {
	maxFileSizeKB    int
	respectGitignore bool
}

// NewFileCollector creates a file collector with the default limits
func NewFileCollector() *FileCollectorImpl {
	return &FileCollectorImpl{
		maxFileSizeKB:    config.DefaultMaxFileSizeKB,
		respectGitignore: true,
	}
}

// NewFileCollectorFromConfig creates a file collector from analysis settings
func NewFileCollectorFromConfig(cfg *config.AnalysisConfig) *FileCollectorImpl {
	return &FileCollectorImpl{
		maxFileSizeKB:    cfg.MaxFileSizeKB,
		respectGitignore: cfg.RespectGitignore,
	}
}

// CollectPythonFiles recursively finds all Python files in the given paths
func (c *FileCollectorImpl) CollectPythonFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", path, err)
		}

		if !info.IsDir() {
			// Explicitly named files bypass the include patterns but not
			// the extension check
			if c.IsValidPythonFile(path) && !matchesAny(excludePatterns, filepath.ToSlash(path)) {
				add(path)
			}
			continue
		}

		collected, err := c.collectFromDirectory(path, recursive, includePatterns, excludePatterns)
		if err != nil {
			return nil, err
		}
		for _, f := range collected {
			add(f)
		}
	}

	sort.Strings(files)
	return files, nil
}

// collectFromDirectory walks one directory root applying skip rules,
// gitignore, and the include/exclude globs.
func (c *FileCollectorImpl) collectFromDirectory(root string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	gitignoreRules := c.loadGitignore(root)

	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if path == root {
				return nil
			}
			if !recursive {
				return filepath.SkipDir
			}
			if isSkippedDir(info.Name()) {
				return filepath.SkipDir
			}
			if matchesAny(excludePatterns, rel) || matchesAny(excludePatterns, rel+"/") {
				return filepath.SkipDir
			}
			if gitignoreRules != nil && gitignoreRules.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !c.IsValidPythonFile(path) {
			return nil
		}
		if len(includePatterns) > 0 && !matchesAny(includePatterns, rel) {
			return nil
		}
		if matchesAny(excludePatterns, rel) {
			return nil
		}
		if gitignoreRules != nil && gitignoreRules.MatchesPath(rel) {
			return nil
		}
		if c.maxFileSizeKB > 0 && info.Size() > int64(c.maxFileSizeKB)*1024 {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return files, nil
}

// ReadFile reads the content of a file
func (c *FileCollectorImpl) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// IsValidPythonFile checks if a file is a valid Python file by extension
func (c *FileCollectorImpl) IsValidPythonFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, valid := range constants.PythonExtensions {
		if ext == valid {
			return true
		}
	}
	return false
}

// FileExists checks if a path exists and is a regular file
func (c *FileCollectorImpl) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// loadGitignore compiles the root's .gitignore when enabled; a missing or
// unreadable file just means no rules apply.
func (c *FileCollectorImpl) loadGitignore(root string) *ignore.GitIgnore {
	if !c.respectGitignore {
		return nil
	}
	rules, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return rules
}

// matchesAny reports whether the slash-separated path matches one of the
// glob patterns, either on the full relative path or its base name.
func matchesAny(patterns []string, path string) bool {
	base := filepath.Base(strings.TrimSuffix(path, "/"))
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}

// isSkippedDir reports whether a directory name is one of the well-known
// vendored or generated trees that never hold first-party sources.
func isSkippedDir(name string) bool {
	for _, skip := range constants.DefaultSkipDirs {
		if name == skip {
			return true
		}
	}
	return false
}
