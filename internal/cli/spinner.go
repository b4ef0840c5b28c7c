package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

var (
	spinnerFrames   = []string{"◐", "◓", "◑", "◒"}
	spinnerInterval = 100 * time.Millisecond
	// Elapsed time is shown once a stage runs longer than this.
	spinnerShowElapsed = time.Second
)

// stageSpinner animates the current pipeline stage on the status writer
// until the work finishes or ctx is cancelled.
type stageSpinner struct {
	w       io.Writer
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once

	mu    sync.Mutex
	stage string
	since time.Time
	width int // visible width of the last frame, for clearing
}

// startSpinner begins animating stage on w.
func startSpinner(ctx context.Context, w io.Writer, stage string) *stageSpinner {
	sctx, cancel := context.WithCancel(ctx)
	s := &stageSpinner{
		w:       w,
		ctx:     sctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
		stage:   stage,
		since:   time.Now(),
	}
	go s.run()
	return s
}

func (s *stageSpinner) run() {
	defer close(s.stopped)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.ctx.Done():
			s.clear()
			return
		case <-ticker.C:
			s.draw(spinnerFrames[i%len(spinnerFrames)])
		}
	}
}

func (s *stageSpinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text := s.stage + "..."
	if d := time.Since(s.since); d >= spinnerShowElapsed {
		text += fmt.Sprintf(" %.1fs", d.Seconds())
	}
	s.eraseLocked()
	fmt.Fprintf(s.w, "%s %s", styleIconSpinner.Render(frame), StyleDim.Render(text))
	s.width = utf8.RuneCountInString(frame) + 1 + utf8.RuneCountInString(text)
}

func (s *stageSpinner) eraseLocked() {
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	} else {
		fmt.Fprint(s.w, "\r")
	}
	s.width = 0
}

func (s *stageSpinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eraseLocked()
}

// Stage switches to the next stage and restarts its timer.
func (s *stageSpinner) Stage(stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = stage
	s.since = time.Now()
}

// Stop clears the line. It is safe to call more than once.
func (s *stageSpinner) Stop() {
	s.once.Do(s.cancel)
	<-s.stopped
}

// Fail stops the spinner and reports which stage failed.
func (s *stageSpinner) Fail() {
	s.mu.Lock()
	stage := s.stage
	s.mu.Unlock()
	s.Stop()
	printError("%s failed", stage)
}
