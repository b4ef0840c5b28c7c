package worker

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jsonviz/jsonviz/pkg/errors"
	"github.com/jsonviz/jsonviz/pkg/observability"
)

// Default values for [Config].
const (
	DefaultCheckpointEvery     = 256
	DefaultMinProgressInterval = 100 * time.Millisecond
	DefaultMinProgressDelta    = 1
	DefaultLargeDataLabelLimit = 64
	DefaultLargeDataScale      = 4.0
	DefaultHistory             = 1024
)

// Config tunes a [Worker]. Zero fields take their defaults.
type Config struct {
	// CheckpointEvery is the number of traversal steps between
	// cancellation checks.
	CheckpointEvery int

	// Progress messages are throttled by both elapsed time and delta. A
	// negative interval disables the time throttle.
	MinProgressInterval time.Duration
	MinProgressDelta    int

	// Tuner bounds the partial-flush thresholds.
	Tuner TunerConfig

	// LargeDataLabelLimit is the maximum scalar length, in runes, for
	// jobs with OptimizeForLargeData.
	LargeDataLabelLimit int
	// LargeDataScale multiplies the initial flush thresholds for jobs
	// with OptimizeForLargeData.
	LargeDataScale float64

	// MaxDocumentBytes rejects larger payloads. Zero means no limit.
	MaxDocumentBytes int

	// History is the number of finished request IDs whose final state
	// is remembered for [Worker.State].
	History int

	Logger *log.Logger
	Now    func() time.Time
}

// DefaultConfig returns the configuration used when New is given a zero
// Config.
func DefaultConfig() Config {
	return Config{
		CheckpointEvery:     DefaultCheckpointEvery,
		MinProgressInterval: DefaultMinProgressInterval,
		MinProgressDelta:    DefaultMinProgressDelta,
		Tuner:               DefaultTunerConfig(),
		LargeDataLabelLimit: DefaultLargeDataLabelLimit,
		LargeDataScale:      DefaultLargeDataScale,
		History:             DefaultHistory,
		Logger:              log.NewWithOptions(io.Discard, log.Options{}),
		Now:                 time.Now,
	}
}

func (c *Config) setDefaults() {
	d := DefaultConfig()
	if c.CheckpointEvery <= 0 {
		c.CheckpointEvery = d.CheckpointEvery
	}
	if c.MinProgressInterval == 0 {
		c.MinProgressInterval = d.MinProgressInterval
	}
	if c.MinProgressDelta <= 0 {
		c.MinProgressDelta = d.MinProgressDelta
	}
	if c.Tuner == (TunerConfig{}) {
		c.Tuner = d.Tuner
	}
	if c.LargeDataLabelLimit == 0 {
		c.LargeDataLabelLimit = d.LargeDataLabelLimit
	}
	if c.LargeDataScale <= 0 {
		c.LargeDataScale = d.LargeDataScale
	}
	if c.History <= 0 {
		c.History = d.History
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	if c.Now == nil {
		c.Now = d.Now
	}
}

// WorkerError describes a job that failed.
type WorkerError struct {
	RequestID string
	Cause     error
	Time      time.Time
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("job %s failed: %v", e.RequestID, e.Cause)
}

func (e *WorkerError) Unwrap() error {
	return e.Cause
}

// job is one submission.
type job struct {
	payload ProcessPayload
	ctx     context.Context
	cancel  context.CancelFunc
	state   State
}

// Worker runs jobs one at a time on a single goroutine and streams their
// messages in order. All methods are safe for concurrent use.
type Worker struct {
	cfg  Config
	out  chan Message
	wake chan struct{}

	mu      sync.Mutex
	queue   []*job
	active  map[string]*job
	history *lru.Cache[string, State]
	started bool
	closed  bool
	stop    context.CancelFunc
	stopped <-chan struct{}
	wg      sync.WaitGroup
}

// New creates a worker. Call Start to begin processing.
func New(cfg Config) *Worker {
	cfg.setDefaults()
	history, _ := lru.New[string, State](cfg.History)
	return &Worker{
		cfg:     cfg,
		out:     make(chan Message),
		wake:    make(chan struct{}, 1),
		active:  make(map[string]*job),
		history: history,
		stopped: make(chan struct{}),
	}
}

// Messages returns the channel of outbound messages. It is closed once the
// worker stops.
func (w *Worker) Messages() <-chan Message {
	return w.out
}

// Start launches the runner goroutine. The runner stops when ctx is done or
// Close is called. Calling Start more than once has no effect.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.closed {
		return
	}
	w.started = true
	ctx, w.stop = context.WithCancel(ctx)
	w.stopped = ctx.Done()
	w.wg.Add(1)
	go w.loop(ctx)
}

// Close stops the runner, cancels every pending job and waits for the
// runner to exit.
func (w *Worker) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, j := range w.active {
		j.cancel()
	}
	started := w.started
	if started {
		w.stop()
	}
	w.mu.Unlock()

	if started {
		w.wg.Wait()
	} else {
		close(w.out)
	}
	return nil
}

// Handle dispatches a request. A CANCEL for a request that is not active
// is ignored.
func (w *Worker) Handle(ctx context.Context, req Request) error {
	switch req.Type {
	case TypeProcessJSON:
		return w.Submit(ctx, req.Process())
	case TypeCancel:
		// Cancellation is a cooperative flag: a request that already
		// finished, or was never seen, has nothing left to stop.
		if err := w.Cancel(req.Payload.RequestID); err != nil && !errors.Is(err, errors.ErrCodeNotFound) {
			return err
		}
		return nil
	}
	return errors.New(errors.ErrCodeInvalidRequest, "unknown request type %q", req.Type)
}

// Submit queues a job and requests cancellation of every earlier job that
// has not finished. The job is cancelled when ctx is done. A submission
// that fails validation is rejected before it supersedes anything.
func (w *Worker) Submit(ctx context.Context, p ProcessPayload) error {
	if err := errors.ValidateRequestID(p.RequestID); err != nil {
		return err
	}
	if err := p.Options.Validate(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New(errors.ErrCodeInternal, "worker is closed")
	}
	if _, ok := w.active[p.RequestID]; ok {
		return errors.New(errors.ErrCodeInvalidRequest, "request %q is already active", p.RequestID)
	}
	for id, j := range w.active {
		w.cfg.Logger.Debug("superseding job", "request", id, "by", p.RequestID)
		j.cancel()
	}

	jctx, cancel := context.WithCancel(ctx)
	j := &job{payload: p, ctx: jctx, cancel: cancel, state: StateQueued}
	w.queue = append(w.queue, j)
	w.active[p.RequestID] = j
	w.history.Remove(p.RequestID)

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

// Cancel requests cancellation of an unfinished job. The job ends with a
// PROCESSING_CANCELLED message at its next checkpoint.
func (w *Worker) Cancel(requestID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	j, ok := w.active[requestID]
	if !ok {
		w.cfg.Logger.Debug("cancel for inactive request", "request", requestID)
		return errors.New(errors.ErrCodeNotFound, "no active request %q", requestID)
	}
	j.cancel()
	return nil
}

// State returns the lifecycle state of a request ID. Unknown IDs, and
// finished IDs that dropped out of the history, are [StateIdle].
func (w *Worker) State(requestID string) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	if j, ok := w.active[requestID]; ok {
		return j.state
	}
	if s, ok := w.history.Get(requestID); ok {
		return s
	}
	return StateIdle
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()
	defer close(w.out)
	for {
		if j := w.next(); j != nil {
			w.execute(j)
			continue
		}
		select {
		case <-w.wake:
		case <-ctx.Done():
			w.drain()
			return
		}
	}
}

// next pops the oldest queued job and marks it running.
func (w *Worker) next() *job {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 || w.closed {
		return nil
	}
	j := w.queue[0]
	w.queue[0] = nil
	w.queue = w.queue[1:]
	j.state = StateRunning
	return j
}

// drain marks queued jobs cancelled when the runner stops.
func (w *Worker) drain() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, j := range w.queue {
		j.cancel()
		w.finishLocked(j, StateCancelled)
	}
	w.queue = nil
}

func (w *Worker) finish(j *job, state State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.finishLocked(j, state)
}

func (w *Worker) finishLocked(j *job, state State) {
	j.state = state
	delete(w.active, j.payload.RequestID)
	w.history.Add(j.payload.RequestID, state)
}

// send delivers m unless the runner is stopping.
func (w *Worker) send(m Message) error {
	select {
	case w.out <- m:
		return nil
	case <-w.stopped:
		return errCancelled
	}
}

// execute runs one job and emits its terminal message.
func (w *Worker) execute(j *job) {
	defer j.cancel()
	id := j.payload.RequestID
	start := w.cfg.Now()
	hooks := observability.Worker()
	hooks.OnJobStart(j.ctx, id)

	var (
		result Message
		werr   *WorkerError
	)
	if j.ctx.Err() != nil {
		werr = &WorkerError{RequestID: id, Cause: errCancelled, Time: start}
	} else {
		s := newSession(w, j.ctx, id, j.payload.Options)
		werr = w.safeCompute(id, func() error {
			var err error
			result, err = s.run(j.payload)
			return err
		})
	}

	var state State
	switch {
	case werr == nil:
		state = StateCompleted
		result.RequestID = id
		_ = w.send(result)
	case errors.Is(werr, errors.ErrCodeCancelled):
		state = StateCancelled
		_ = w.send(Message{Type: TypeCancelled, RequestID: id})
	default:
		state = StateErrored
		code := errors.GetCode(werr)
		if code == "" {
			code = errors.ErrCodeInternal
		}
		w.cfg.Logger.Warn("job failed", "request", id, "err", werr.Cause)
		_ = w.send(Message{Type: TypeError, RequestID: id, Error: errors.UserMessage(werr.Cause), Code: code})
	}

	w.finish(j, state)
	elapsed := w.cfg.Now().Sub(start)
	hooks.OnJobFinish(j.ctx, id, state.String(), result.NodesCount, elapsed)
	w.cfg.Logger.Debug("job finished", "request", id, "state", state, "duration", elapsed)
}

// safeCompute runs fn and recovers from any panic.
func (w *Worker) safeCompute(id string, fn func() error) *WorkerError {
	var result *WorkerError
	func() {
		defer func() {
			if r := recover(); r != nil {
				w.cfg.Logger.Error("job panicked", "request", id, "panic", r, "stack", string(debug.Stack()))
				result = &WorkerError{
					RequestID: id,
					Cause:     errors.New(errors.ErrCodeInternal, "panic: %v", r),
					Time:      w.cfg.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			result = &WorkerError{RequestID: id, Cause: err, Time: w.cfg.Now()}
		}
	}()
	return result
}
