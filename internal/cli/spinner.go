package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates a status line on w until stopped or until its context
// is done. The message can change while it runs.
type spinner struct {
	w       io.Writer
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once
	started atomic.Bool

	mu      sync.Mutex
	message string
	width   int
}

func newSpinner(ctx context.Context, w io.Writer, message string) *spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &spinner{
		w:       w,
		parent:  ctx,
		ctx:     sctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
		message: message,
	}
}

// Start begins the animation.
func (s *spinner) Start() *spinner {
	if !s.started.CompareAndSwap(false, true) {
		return s
	}
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clear()
				return
			case <-ticker.C:
				s.mu.Lock()
				line := fmt.Sprintf("\r%s %s", styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)]), styleDim.Render(s.message))
				s.width = max(s.width, len(s.message)+2)
				fmt.Fprint(s.w, line)
				s.mu.Unlock()
			}
		}
	}()
	return s
}

// Update replaces the message.
func (s *spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop ends the animation and clears the line. Extra calls are no-ops.
func (s *spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		if s.started.Load() {
			<-s.stopped
		}
	})
}

// Cancelled reports whether the parent context ended the spinner.
func (s *spinner) Cancelled() bool {
	return s.parent.Err() != nil
}

func (s *spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width+2))
	}
}
