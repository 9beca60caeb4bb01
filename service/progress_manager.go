package service

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/connascence-tools/conscan/domain"
)

// ProgressManagerImpl renders progress bars on stderr for interactive runs.
type ProgressManagerImpl struct {
	writer io.Writer
	tasks  []*progressbar.ProgressBar
}

// NewProgressManager returns a bar-backed manager when enabled and the
// environment can display one, and a silent manager otherwise.
func NewProgressManager(enabled bool) domain.ProgressManager {
	if !enabled || !IsInteractiveEnvironment() {
		return &NoOpProgressManager{}
	}
	return &ProgressManagerImpl{writer: os.Stderr}
}

// IsInteractiveEnvironment reports whether stderr is a terminal and the
// process is not running under CI.
func IsInteractiveEnvironment() bool {
	if os.Getenv("CI") != "" {
		return false
	}
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// StartTask opens a bar sized to total units and returns the handle the
// executor advances as files finish.
func (m *ProgressManagerImpl) StartTask(description string, total int) domain.TaskProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(m.writer),
		progressbar.OptionSetWidth(18),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	m.tasks = append(m.tasks, bar)
	return &TaskProgressImpl{bar: bar}
}

// IsInteractive is always true for the bar-backed manager.
func (m *ProgressManagerImpl) IsInteractive() bool { return true }

// Close finishes any bars still open.
func (m *ProgressManagerImpl) Close() {
	for _, bar := range m.tasks {
		_ = bar.Finish()
	}
	m.tasks = nil
}

// TaskProgressImpl advances a single progress bar.
type TaskProgressImpl struct {
	bar *progressbar.ProgressBar
}

func (t *TaskProgressImpl) Increment(n int) { _ = t.bar.Add(n) }

func (t *TaskProgressImpl) Describe(description string) { t.bar.Describe(description) }

func (t *TaskProgressImpl) Complete() { _ = t.bar.Finish() }

// NoOpProgressManager satisfies domain.ProgressManager without rendering
// anything. Quiet runs and non-text formats use it.
type NoOpProgressManager struct{}

func (*NoOpProgressManager) StartTask(string, int) domain.TaskProgress { return &NoOpTaskProgress{} }
func (*NoOpProgressManager) IsInteractive() bool                       { return false }
func (*NoOpProgressManager) Close()                                    {}

// NoOpTaskProgress is the task handle NoOpProgressManager hands out.
type NoOpTaskProgress struct{}

func (*NoOpTaskProgress) Increment(int)   {}
func (*NoOpTaskProgress) Describe(string) {}
func (*NoOpTaskProgress) Complete()       {}
