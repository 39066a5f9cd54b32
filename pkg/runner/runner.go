// Package runner executes generated scripts.
//
// Execution is a collaborator of the compiler: it receives finished script
// text and reports what happened. [NodeExecutor] runs the script with Node.js
// (selenium-webdriver must be resolvable from the working directory);
// [DryExecutor] records requests without running anything.
//
// A script that runs but fails (an element is missing, navigation times out)
// is reported as a [Result] with Success false. An error is returned only when
// the script could not be run at all or exceeded its timeout.
package runner

import (
	"context"
	"time"
)

// Log levels, matching the dashboard's log terminal.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
	LevelSuccess = "success"
)

// Messages reported in Result.Message.
const (
	MessageSucceeded = "Selenium test completed successfully"
	MessageFailed    = "Selenium test failed"
)

// Request is one script run.
type Request struct {
	Name     string        // Script name, used for logging and temp file names.
	Script   string        // Complete script text.
	Headless bool          // Whether the script was generated headless.
	Timeout  time.Duration // Zero means the executor's default.
}

// LogEntry is one line of script output.
type LogEntry struct {
	Time    time.Time `json:"timestamp"`
	Level   string    `json:"level"`
	Service string    `json:"service"`
	Message string    `json:"message"`
}

// Result describes a finished run.
type Result struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	Logs     []LogEntry    `json:"logs,omitempty"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// Executor runs scripts.
type Executor interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

// serviceName tags log entries produced by script runs.
const serviceName = "selenium"

func logEntry(level, msg string) LogEntry {
	return LogEntry{Time: time.Now(), Level: level, Service: serviceName, Message: msg}
}
