package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer lets the spinner goroutine and the test share output.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func fastSpinner(t *testing.T) {
	t.Helper()
	oldInterval, oldElapsed := spinnerInterval, spinnerShowElapsed
	spinnerInterval, spinnerShowElapsed = 5*time.Millisecond, 20*time.Millisecond
	t.Cleanup(func() { spinnerInterval, spinnerShowElapsed = oldInterval, oldElapsed })
}

func waitFor(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("output never contained %q: %q", want, out.String())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSpinner_ShowsStages(t *testing.T) {
	fastSpinner(t)
	var out syncBuffer

	s := startSpinner(context.Background(), &out, "Building tree")
	waitFor(t, &out, "Building tree...")

	s.Stage("Computing layout of 6 nodes")
	waitFor(t, &out, "Computing layout of 6 nodes...")
	s.Stop()

	if !strings.HasSuffix(out.String(), "\r") {
		t.Errorf("Stop should leave the line cleared, got %q", out.String())
	}
}

func TestSpinner_ShowsElapsedForSlowStages(t *testing.T) {
	fastSpinner(t)
	var out syncBuffer

	s := startSpinner(context.Background(), &out, "Rendering svg")
	defer s.Stop()
	time.Sleep(30 * time.Millisecond)
	waitFor(t, &out, "Rendering svg... 0.")
}

func TestSpinner_StopIsIdempotent(t *testing.T) {
	fastSpinner(t)
	s := startSpinner(context.Background(), &syncBuffer{}, "Building tree")
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinner_ContextCancelClearsLine(t *testing.T) {
	fastSpinner(t)
	var out syncBuffer
	ctx, cancel := context.WithCancel(context.Background())

	s := startSpinner(ctx, &out, "Building tree")
	waitFor(t, &out, "Building tree...")
	cancel()

	select {
	case <-s.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("spinner kept running after cancel")
	}
	if !strings.HasSuffix(out.String(), "\r") {
		t.Errorf("cancel should clear the line, got %q", out.String())
	}
	s.Stop()
}

func TestSpinner_Fail(t *testing.T) {
	fastSpinner(t)
	var status syncBuffer
	old := uiOut
	uiOut = &status
	t.Cleanup(func() { uiOut = old })

	s := startSpinner(context.Background(), &syncBuffer{}, "Rendering pdf")
	s.Fail()
	if !strings.Contains(status.String(), "Rendering pdf failed") {
		t.Errorf("status = %q", status.String())
	}
}
