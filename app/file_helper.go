package app

import (
	"github.com/connascence-tools/conscan/domain"
)

// ResolveFilePaths resolves the input paths into the list of Python files to
// analyze. When every path is already an existing Python file the list is
// returned as-is; otherwise directories are expanded through the reader's
// collection rules (globs, gitignore, size limits).
func ResolveFilePaths(
	reader domain.FileReader,
	paths []string,
	recursive bool,
	includePatterns []string,
	excludePatterns []string,
) ([]string, error) {
	allFiles := len(paths) > 0
	for _, path := range paths {
		if !reader.IsValidPythonFile(path) {
			allFiles = false
			break
		}
		exists, err := reader.FileExists(path)
		if err != nil || !exists {
			allFiles = false
			break
		}
	}

	if allFiles {
		return paths, nil
	}

	return reader.CollectPythonFiles(paths, recursive, includePatterns, excludePatterns)
}
