package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/flowscript/pkg/runner"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// runSpinner shows an animated indicator with the elapsed time while a
// script runs. It stops on its own when ctx is cancelled.
type runSpinner struct {
	w       io.Writer
	name    string
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	started time.Time
	now     func() time.Time

	once    sync.Once
	stopped chan struct{}
	mu      sync.Mutex
	width   int
}

func newRunSpinner(ctx context.Context, w io.Writer, name string) *runSpinner {
	sctx, cancel := context.WithCancel(ctx)
	return &runSpinner{
		w:       w,
		name:    name,
		parent:  ctx,
		ctx:     sctx,
		cancel:  cancel,
		now:     time.Now,
		stopped: make(chan struct{}),
	}
}

// Start begins the animation.
func (s *runSpinner) Start() {
	s.started = s.now()
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

func (s *runSpinner) draw(frame string) {
	line := fmt.Sprintf("Running %s... %s", s.name, s.elapsed().Truncate(100*time.Millisecond))
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(line))
	s.width = len(line) + 2
}

func (s *runSpinner) elapsed() time.Duration {
	return s.now().Sub(s.started)
}

// Stop halts the animation and clears its line. Safe to call more than once.
func (s *runSpinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		if !s.started.IsZero() {
			<-s.stopped
		}
	})
}

func (s *runSpinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
		s.width = 0
	}
}

// Cancelled reports whether the parent context ended the run.
func (s *runSpinner) Cancelled() bool {
	return s.parent.Err() != nil
}

// Finish stops the spinner and prints the outcome of a run. It returns an
// error when the run could not start or reported failure.
func (s *runSpinner) Finish(res *runner.Result, err error) error {
	s.Stop()
	if err != nil && s.Cancelled() {
		printWarning("Run of %s cancelled", s.name)
		return err
	}
	if err != nil {
		printError("Run of %s failed", s.name)
		return err
	}
	if !res.Success {
		printError("%s (exit %d, %s)", res.Message, res.ExitCode, res.Duration.Round(time.Millisecond))
		return fmt.Errorf("%s: %s", s.name, runner.MessageFailed)
	}
	printSuccess("%s (%s)", res.Message, res.Duration.Round(time.Millisecond))
	return nil
}
