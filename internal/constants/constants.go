package constants

// Tool name and related constants
const (
	// ToolName is the name of this tool
	ToolName = "conscan"

	// ConfigFileName is the default config file name
	ConfigFileName = ".conscan.yaml"

	// EnvVarPrefix is the prefix for environment variables
	EnvVarPrefix = "CONSCAN"
)

// Analysis family constants
const (
	AnalysisConnascence = "connascence"
	AnalysisNasa        = "nasa"
	AnalysisGodObject   = "godobject"
	AnalysisTheater     = "theater"
)

// Output format constants
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
)

// Python file extensions recognized by the file collector
var PythonExtensions = []string{".py", ".pyi"}

// DefaultSkipDirs are directory names never descended into during file
// collection.
var DefaultSkipDirs = []string{
	".git",
	".hg",
	".svn",
	".tox",
	".venv",
	"venv",
	".mypy_cache",
	".pytest_cache",
	"__pycache__",
	"node_modules",
	"site-packages",
	"migrations",
	"dist",
	"build",
}
