package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const runLogLayout = "20060102_150405"

// RunLogName returns the log file name for a run started at start.
func RunLogName(start time.Time) string {
	return "geobatch_" + start.Format(runLogLayout) + ".log"
}

// OpenRunLog creates dir if needed and opens the run log in append mode.
func OpenRunLog(dir string, start time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, RunLogName(start))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}

	return file, nil
}
