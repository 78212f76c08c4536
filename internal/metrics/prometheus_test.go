package metrics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/linuxmatters/emberwave/internal/audio"
	"github.com/linuxmatters/emberwave/internal/config"
	"github.com/linuxmatters/emberwave/internal/encoder"
	"github.com/linuxmatters/emberwave/internal/transcode"
)

func TestRecordResult(t *testing.T) {
	m := New()
	m.RecordResult(&transcode.Result{Data: make([]byte, 4096), Frames: 39, Chunks: 38, Duration: 50 * time.Millisecond})

	if got := testutil.ToFloat64(m.FramesEncoded); got != 39 {
		t.Errorf("Expected 39 frames, got %v", got)
	}
	if got := testutil.ToFloat64(m.OutputBytes); got != 4096 {
		t.Errorf("Expected 4096 bytes, got %v", got)
	}
	if got := testutil.ToFloat64(m.LastSuccess); got == 0 {
		t.Error("Expected last success timestamp to be set")
	}
}

func TestReason(t *testing.T) {
	testCases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: bad header", audio.ErrDecodeFailed), ReasonDecode},
		{fmt.Errorf("%w: boom", encoder.ErrEncodingFailed), ReasonEncode},
		{fmt.Errorf("%w: width", config.ErrInvalidConfiguration), ReasonConfig},
		{context.Canceled, ReasonCancelled},
		{errors.New("disk full"), ReasonOther},
	}

	m := New()
	for _, tc := range testCases {
		if got := Reason(tc.err); got != tc.want {
			t.Errorf("Reason(%v) = %q, want %q", tc.err, got, tc.want)
		}
		m.RecordFailure(tc.err)
	}
	if got := testutil.ToFloat64(m.Failures.WithLabelValues(ReasonEncode)); got != 1 {
		t.Errorf("Expected one encoding failure, got %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveEvent(transcode.Event{Phase: transcode.PhaseEncoding})
	m.ObserveEvent(transcode.Event{Phase: transcode.PhaseComplete, Percent: 100})

	path := filepath.Join(t.TempDir(), "emberwave.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(content), `emberwave_progress_events_total{phase="complete"} 1`) {
		t.Errorf("Expected complete event counter in textfile, got:\n%s", content)
	}
}
