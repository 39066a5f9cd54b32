package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// DryExecutor accepts scripts without running them. It keeps every request
// so callers can inspect what would have run.
type DryExecutor struct {
	mu       sync.Mutex
	requests []Request
}

// Run records req and reports success.
func (d *DryExecutor) Run(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.requests = append(d.requests, req)
	d.mu.Unlock()

	lines := strings.Count(req.Script, "\n")
	return &Result{
		Success: true,
		Message: "dry run: script not executed",
		Logs: []LogEntry{
			logEntry(LevelInfo, fmt.Sprintf("accepted %q (%d lines, headless=%t)", req.Name, lines, req.Headless)),
		},
	}, nil
}

// Requests returns the recorded requests in arrival order.
func (d *DryExecutor) Requests() []Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Request, len(d.requests))
	copy(out, d.requests)
	return out
}

var _ Executor = (*DryExecutor)(nil)
