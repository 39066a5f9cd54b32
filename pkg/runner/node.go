package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	ferrors "github.com/matzehuels/flowscript/pkg/errors"
)

// DefaultTimeout bounds a script run when neither the request nor the
// executor sets one.
const DefaultTimeout = 2 * time.Minute

// failureMarker is printed by the generated script's catch block.
const failureMarker = "Test failed:"

// NodeExecutor runs scripts with a Node.js binary.
type NodeExecutor struct {
	Binary  string        // Defaults to "node".
	WorkDir string        // Directory the script runs in; defaults to a temp dir.
	Timeout time.Duration // Defaults to DefaultTimeout.
	Env     []string      // Extra environment, appended to os.Environ().
}

// Run writes the script to a temp file and executes it. The run is killed
// when ctx is done or the timeout elapses.
func (e *NodeExecutor) Run(ctx context.Context, req Request) (*Result, error) {
	binary := e.Binary
	if binary == "" {
		binary = "node"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeRunFailed, err, "find %s", binary)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	tmp, err := os.MkdirTemp("", "flowscript-run-")
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeRunFailed, err, "create temp dir")
	}
	defer os.RemoveAll(tmp)

	file := filepath.Join(tmp, ferrors.SanitizeFilename(req.Name)+".js")
	if err := os.WriteFile(file, []byte(req.Script), 0644); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeRunFailed, err, "write script")
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path, file)
	cmd.Dir = e.WorkDir
	if cmd.Dir == "" {
		cmd.Dir = tmp
	}
	cmd.Env = append(os.Environ(), e.Env...)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	res := &Result{Duration: time.Since(start)}
	errText := stderr.String()
	res.Logs = append(scanLines(stdout.String(), LevelInfo), scanLines(errText, LevelError)...)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return res, ferrors.New(ferrors.ErrCodeTimeout, "script %q exceeded %s", req.Name, timeout)
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(runErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case runErr != nil:
		return res, ferrors.Wrap(ferrors.ErrCodeRunFailed, runErr, "run %s", binary)
	}

	failure := firstLineContaining(errText, failureMarker)
	res.Success = res.ExitCode == 0 && failure == ""
	if res.Success {
		res.Message = MessageSucceeded
		res.Logs = append(res.Logs, logEntry(LevelSuccess, MessageSucceeded))
	} else {
		res.Message = MessageFailed
		if detail := failureDetail(failure, errText, res.ExitCode); detail != "" {
			res.Message += ": " + detail
		}
	}
	return res, nil
}

var _ Executor = (*NodeExecutor)(nil)

func scanLines(text, level string) []LogEntry {
	var out []LogEntry
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		if line := strings.TrimRight(sc.Text(), "\r"); line != "" {
			out = append(out, logEntry(level, line))
		}
	}
	return out
}

func firstLineContaining(text, marker string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, marker) {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

func failureDetail(failure, stderr string, code int) string {
	if failure != "" {
		return strings.TrimSpace(strings.TrimPrefix(failure, failureMarker))
	}
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if last := strings.TrimSpace(lines[len(lines)-1]); last != "" {
		return last
	}
	return fmt.Sprintf("exit code %d", code)
}
