package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Log file names written into the result directory.
const (
	ResultLogName = "testresult.log"
	ErrorLogName  = "error.log"
)

const logTimeLayout = "date: 02.01.2006 time: 15:04:05"

// WriteResultLog writes testresult.log into dir and returns its path.
func WriteResultLog(dir string, r *Result) (string, error) {
	title := r.Title
	if title == "" {
		title = "No title"
	}
	verdict := "failed"
	if r.Pass() {
		verdict = "passed"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n\n", r.Time.Format(logTimeLayout))
	fmt.Fprintf(&buf, "testcase: %s\n", title)
	fmt.Fprintf(&buf, "run id: %s\n", r.RunID)
	fmt.Fprintf(&buf, "theoretically expected value: %v\n", r.Theory)
	fmt.Fprintf(&buf, "value from simulation: %v\n", r.SimulationMax())
	fmt.Fprintf(&buf, "acceptance: %v\n", r.Acceptance)
	fmt.Fprintf(&buf, "acceptance range: (%v, %v)\n", r.Comparison.Range[0], r.Comparison.Range[1])
	fmt.Fprintf(&buf, "result of the test: %s\n", verdict)
	fmt.Fprintf(&buf, "difference: %v\n", r.Comparison.MinDifference)
	fmt.Fprintf(&buf, "difference in percentage: %v %%\n", r.Comparison.Percentage)

	path := filepath.Join(dir, ResultLogName)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing result log: %w", err)
	}
	return path, nil
}

// WriteErrorLog records err in error.log inside dir. When dir does not
// exist the working directory is used.
func WriteErrorLog(dir string, cause error, now time.Time) (string, error) {
	if info, err := os.Stat(dir); dir == "" || err != nil || !info.IsDir() {
		dir = "."
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n\n", now.Format(logTimeLayout))
	fmt.Fprintf(&buf, "%v\n", cause)

	path := filepath.Join(dir, ErrorLogName)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing error log: %w", err)
	}
	return path, nil
}
