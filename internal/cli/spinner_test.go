package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func quietUI(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := uiOut
	uiOut = &buf
	t.Cleanup(func() { uiOut = prev })
	return &buf
}

func TestSpinnerAnimatesAndClears(t *testing.T) {
	buf := quietUI(t)
	s := newSpinnerWithContext(context.Background(), "Asking planner...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Update("Generating...")
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Asking planner...") || !strings.Contains(out, "Generating...") {
		t.Errorf("spinner output missing messages: %q", out)
	}
	if s.Cancelled() {
		t.Error("Stop should not count as cancellation")
	}
}

func TestSpinnerStopsWithContext(t *testing.T) {
	tests := []struct {
		name string
		ctx  func() (context.Context, context.CancelFunc)
	}{
		{"cancel", func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) }},
		{"timeout", func() (context.Context, context.CancelFunc) {
			return context.WithTimeout(context.Background(), 50*time.Millisecond)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quietUI(t)
			ctx, cancel := tt.ctx()
			defer cancel()

			s := newSpinnerWithContext(ctx, "Working...")
			s.Start()
			cancel()
			<-s.stopped
			if !s.Cancelled() {
				t.Error("spinner should report cancellation")
			}
		})
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	quietUI(t)
	s := newSpinnerWithContext(context.Background(), "Working...")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopMessages(t *testing.T) {
	buf := quietUI(t)

	ok := newSpinnerWithContext(context.Background(), "a")
	ok.Start()
	ok.StopWithSuccess("Planned 3 nodes")

	bad := newSpinnerWithContext(context.Background(), "b")
	bad.Start()
	bad.StopWithError("Planning failed")

	out := buf.String()
	for _, want := range []string{iconSuccess + " Planned 3 nodes", iconError + " Planning failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}
