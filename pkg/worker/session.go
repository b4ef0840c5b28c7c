package worker

import (
	"context"
	"time"

	"github.com/jsonviz/jsonviz/pkg/errors"
	"github.com/jsonviz/jsonviz/pkg/observability"
)

// errCancelled stops a traversal at its next checkpoint.
var errCancelled = errors.New(errors.ErrCodeCancelled, "job cancelled")

// session is the state of one job. A new session is created for every
// submission, so interned labels and counters never outlive their job.
type session struct {
	w     *Worker
	ctx   context.Context
	id    string
	opts  Options
	start time.Time

	labels map[string]string
	nodes  []NodeRecord
	edges  []EdgeRecord
	levels []int // next breadth index per depth

	sentNodes int
	sentEdges int

	tuner        *Tuner
	lastFlush    time.Time
	lastProgress time.Time
	progress     int
	reported     bool

	ticks int
}

func newSession(w *Worker, ctx context.Context, id string, opts Options) *session {
	now := w.cfg.Now()
	s := &session{
		w:         w,
		ctx:       ctx,
		id:        id,
		opts:      opts,
		start:     now,
		labels:    make(map[string]string),
		tuner:     NewTuner(w.cfg.Tuner),
		lastFlush: now,
	}
	if opts.OptimizeForLargeData {
		s.tuner.Scale(w.cfg.LargeDataScale)
	}
	return s
}

// intern returns a shared copy of label.
func (s *session) intern(label string) string {
	if v, ok := s.labels[label]; ok {
		return v
	}
	s.labels[label] = label
	return label
}

// checkpoint polls for cancellation every CheckpointEvery calls.
func (s *session) checkpoint() error {
	s.ticks++
	if s.ticks%s.w.cfg.CheckpointEvery != 0 {
		return nil
	}
	return s.cancelled()
}

func (s *session) cancelled() error {
	if s.ctx.Err() != nil {
		return errCancelled
	}
	return nil
}

// emit sends m and then polls for cancellation.
func (s *session) emit(m Message) error {
	m.RequestID = s.id
	if err := s.w.send(m); err != nil {
		return err
	}
	return s.cancelled()
}

// report emits a progress message unless it is too soon or too small a
// step since the last one. Forced reports only skip duplicates.
func (s *session) report(stage Stage, pct int, force bool) error {
	pct = max(0, min(pct, 99))
	if s.reported && pct < s.progress {
		pct = s.progress
	}
	now := s.w.cfg.Now()
	if s.reported {
		if pct == s.progress && !force {
			return nil
		}
		if !force && (pct-s.progress < s.w.cfg.MinProgressDelta || now.Sub(s.lastProgress) < s.w.cfg.MinProgressInterval) {
			return nil
		}
	}
	s.progress = pct
	s.lastProgress = now
	s.reported = true
	return s.emit(Message{Type: TypeProgress, Progress: pct, Stage: stage})
}

// pending returns the number of records produced but not yet flushed.
func (s *session) pending() int {
	return len(s.nodes) - s.sentNodes + len(s.edges) - s.sentEdges
}

// flush emits the records produced since the previous flush. Unless forced
// it waits for the tuner's batch size and interval.
func (s *session) flush(force bool) error {
	size := s.pending()
	if size == 0 {
		return nil
	}
	now := s.w.cfg.Now()
	since := now.Sub(s.lastFlush)
	if !force && (size < s.tuner.Batch() || since < s.tuner.Interval()) {
		return nil
	}

	// Full slice expressions stop a receiver's append from reaching records
	// the session has not sent yet.
	nodes := s.nodes[s.sentNodes:len(s.nodes):len(s.nodes)]
	edges := s.edges[s.sentEdges:len(s.edges):len(s.edges)]
	s.sentNodes, s.sentEdges = len(s.nodes), len(s.edges)

	m := Message{
		Type:            TypePartial,
		TotalNodesSoFar: s.sentNodes,
		TotalEdgesSoFar: s.sentEdges,
	}
	if s.opts.Compact {
		m.Type = TypePartialCompact
		m.Compact = encodeCompact(nodes, edges)
	} else {
		m.Nodes, m.Edges = nodes, edges
	}

	if s.opts.AutoTuneEnabled() {
		adj := s.tuner.Observe(size, since)
		if adj != Kept {
			s.w.cfg.Logger.Debug("flush thresholds adjusted",
				"request", s.id, "batch", s.tuner.Batch(), "interval", s.tuner.Interval())
		}
	}
	s.lastFlush = now
	observability.Worker().OnFlush(s.ctx, s.id, size, s.opts.Compact)
	return s.emit(m)
}
