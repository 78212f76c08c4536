package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/linuxmatters/emberwave/internal/audio"
	"github.com/linuxmatters/emberwave/internal/config"
	"github.com/linuxmatters/emberwave/internal/encoder"
)

func silence(rate, channels, n int) *audio.PCMBuffer {
	buf := &audio.PCMBuffer{SampleRate: rate}
	for range channels {
		buf.Channels = append(buf.Channels, make([]float32, n))
	}
	return buf
}

func checkProgression(t *testing.T, events []Event) {
	t.Helper()
	for i := 1; i < len(events); i++ {
		if events[i].Percent < events[i-1].Percent {
			t.Errorf("Progress decreased at event %d: %.2f -> %.2f", i, events[i-1].Percent, events[i].Percent)
		}
		if events[i].Phase < events[i-1].Phase {
			t.Errorf("Phase regressed at event %d: %s -> %s", i, events[i-1].Phase, events[i].Phase)
		}
	}
}

func TestTranscodeMonoSilenceToMP3(t *testing.T) {
	var events []Event
	res, err := Transcode(context.Background(), silence(44100, 1, 44100), Options{
		BlockSize:   1152,
		BitrateKbps: 128,
		Progress:    func(ev Event) { events = append(events, ev) },
	})
	if err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}

	if len(res.Data) == 0 {
		t.Fatal("Expected non-empty MP3 output")
	}
	if res.Frames != 39 || res.Channels != 1 || res.SampleRate != 44100 {
		t.Errorf("Unexpected result shape: %d frames, %d channels, %d Hz", res.Frames, res.Channels, res.SampleRate)
	}

	if len(events) == 0 {
		t.Fatal("Expected progress events")
	}
	last := events[len(events)-1]
	if last.Phase != PhaseComplete || last.Percent != 100 {
		t.Errorf("Expected final event {complete, 100}, got {%s, %.2f}", last.Phase, last.Percent)
	}
	checkProgression(t, events)

	t.Logf("Encoded %d bytes in %d chunks, %d events", len(res.Data), res.Chunks, len(events))
}

func TestTranscodeEventSequence(t *testing.T) {
	fake := newFakeEncoder()
	var events []Event

	// 25 frames with a cadence of 10: updates at 10 and 20, the tail is best effort
	_, err := Transcode(context.Background(), silence(8000, 1, 25*4), Options{
		BlockSize:  4,
		Cadence:    10,
		NewEncoder: fake.factory(),
		Progress:   func(ev Event) { events = append(events, ev) },
	})
	if err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}

	want := []struct {
		phase   Phase
		percent float64
		frame   int
	}{
		{PhasePreparing, 5, 0},
		{PhaseEncoding, 10, 0},
		{PhaseEncoding, 10 + 10.0/25*85, 10},
		{PhaseEncoding, 10 + 20.0/25*85, 20},
		{PhaseFinalizing, 98, 20},
		{PhaseComplete, 100, 20},
	}
	if len(events) != len(want) {
		t.Fatalf("Expected %d events, got %d: %+v", len(want), len(events), events)
	}
	for i, w := range want {
		ev := events[i]
		if ev.Phase != w.phase || math.Abs(ev.Percent-w.percent) > 1e-9 || ev.Frame != w.frame {
			t.Errorf("Event %d = {%s %.2f %d}, want {%s %.2f %d}", i, ev.Phase, ev.Percent, ev.Frame, w.phase, w.percent, w.frame)
		}
	}
}

func TestTranscodeStereoPassesOnlyValidSamples(t *testing.T) {
	left := []float32{0.5, -0.5, 1, -1, 0.25}
	right := []float32{-0.25, 0, 0.5, 2, -2}
	buf := &audio.PCMBuffer{SampleRate: 44100, Channels: [][]float32{left, right, {9, 9, 9, 9, 9}}}

	res, err := Transcode(context.Background(), buf, Options{BlockSize: 2, NewEncoder: encoder.NewPCM})
	if err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}

	// Raw PCM output is the interleaved quantised input, with no padding
	if len(res.Data) != len(left)*2*2 {
		t.Fatalf("Expected %d bytes, got %d", len(left)*4, len(res.Data))
	}
	for i := range left {
		l := int16(binary.LittleEndian.Uint16(res.Data[i*4:]))
		r := int16(binary.LittleEndian.Uint16(res.Data[i*4+2:]))
		if l != Quantize(left[i]) || r != Quantize(right[i]) {
			t.Errorf("Sample %d: got (%d, %d), want (%d, %d)", i, l, r, Quantize(left[i]), Quantize(right[i]))
		}
	}

	fake := newFakeEncoder()
	if _, err := Transcode(context.Background(), buf, Options{BlockSize: 2, NewEncoder: fake.factory()}); err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}
	if fake.cfg.Channels != 2 {
		t.Errorf("Expected a stereo encoder, got %d channels", fake.cfg.Channels)
	}
	wantLengths := []int{2, 2, 1}
	for i, w := range wantLengths {
		if fake.lengths[i] != w || !fake.gotRight[i] {
			t.Errorf("Frame %d: %d samples (right %v), want %d with right", i, fake.lengths[i], fake.gotRight[i], w)
		}
	}
}

func TestTranscodeMonoConfiguresMonoEncoder(t *testing.T) {
	fake := newFakeEncoder()
	if _, err := Transcode(context.Background(), silence(22050, 1, 10), Options{NewEncoder: fake.factory()}); err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}
	if fake.cfg.Channels != 1 || fake.cfg.SampleRate != 22050 || fake.cfg.BitrateKbps != config.BitrateKbps {
		t.Errorf("Unexpected encoder config %+v", fake.cfg)
	}
	if fake.gotRight[0] {
		t.Error("Mono run passed a right channel")
	}
}

func TestTranscodeRejectsInvalidInputWithoutEvents(t *testing.T) {
	testCases := []struct {
		name string
		buf  *audio.PCMBuffer
		opts Options
	}{
		{"empty buffer", silence(44100, 1, 0), Options{}},
		{"nil buffer", nil, Options{}},
		{"zero sample rate", silence(0, 2, 100), Options{}},
		{"negative block size", silence(44100, 1, 100), Options{BlockSize: -1}},
		{"negative cadence", silence(44100, 1, 100), Options{Cadence: -5}},
		{"unsupported mp3 rate", silence(96000, 2, 100), Options{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			events := 0
			tc.opts.Progress = func(Event) { events++ }

			res, err := Transcode(context.Background(), tc.buf, tc.opts)
			if !errors.Is(err, config.ErrInvalidConfiguration) {
				t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
			}
			if res != nil {
				t.Error("Expected no result")
			}
			if events != 0 {
				t.Errorf("Expected no progress events, got %d", events)
			}
		})
	}
}

func TestTranscodeEncoderFault(t *testing.T) {
	fake := newFakeEncoder()
	fake.failAt = 7
	var events []Event

	res, err := Transcode(context.Background(), silence(44100, 2, 1000), Options{
		BlockSize:  10,
		NewEncoder: fake.factory(),
		Progress:   func(ev Event) { events = append(events, ev) },
	})
	if !errors.Is(err, encoder.ErrEncodingFailed) {
		t.Fatalf("Expected ErrEncodingFailed, got %v", err)
	}
	if res != nil {
		t.Error("Partial output must not be returned")
	}
	if !fake.closed {
		t.Error("Expected encoder to be released")
	}
	for _, ev := range events {
		if ev.Phase == PhaseComplete {
			t.Error("Failed run reported completion")
		}
	}
}

func TestTranscodeFactoryError(t *testing.T) {
	factory := func(encoder.Config) (encoder.Encoder, error) { return nil, errFakeFault }
	_, err := Transcode(context.Background(), silence(44100, 1, 10), Options{NewEncoder: factory})
	if !errors.Is(err, encoder.ErrEncodingFailed) || !errors.Is(err, errFakeFault) {
		t.Errorf("Expected wrapped ErrEncodingFailed, got %v", err)
	}
}

func TestTranscodeCancellationStopsAtYield(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake := newFakeEncoder()

	res, err := Transcode(ctx, silence(44100, 1, 100*4), Options{
		BlockSize:  4,
		Cadence:    10,
		NewEncoder: fake.factory(),
		Progress: func(ev Event) {
			if ev.Frame == 30 {
				cancel()
			}
		},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if res != nil {
		t.Error("Cancelled run must not return output")
	}
	if len(fake.lengths) != 30 {
		t.Errorf("Expected submission to stop at frame 30, encoder saw %d", len(fake.lengths))
	}
	if fake.flushes != 0 || !fake.closed {
		t.Errorf("Expected encoder closed without flush, flushes=%d closed=%v", fake.flushes, fake.closed)
	}
}

func TestTranscodeUsesYielder(t *testing.T) {
	yields := 0
	y := yieldFunc(func(ctx context.Context) error {
		yields++
		return nil
	})

	fake := newFakeEncoder()
	_, err := Transcode(context.Background(), silence(44100, 1, 30), Options{
		BlockSize:  1,
		Cadence:    10,
		NewEncoder: fake.factory(),
		Yielder:    y,
	})
	if err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}

	// preparing, three cadence boundaries, finalizing, complete
	if yields != 6 {
		t.Errorf("Expected 6 yields, got %d", yields)
	}
}

func sine(rate, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
	}
	return out
}

func TestTranscodeMP3IndependentOfBlockSize(t *testing.T) {
	for _, rate := range []int{44100, 22050} {
		buf := &audio.PCMBuffer{SampleRate: rate, Channels: [][]float32{sine(rate, 2*rate)}}

		want, err := Transcode(context.Background(), buf, Options{BlockSize: config.BlockSize})
		if err != nil {
			t.Fatalf("Transcode failed: %v", err)
		}
		// Two seconds at 128 kbps
		if got := float64(len(want.Data)); math.Abs(got-32000)/32000 > 0.03 {
			t.Errorf("%d Hz mono: expected about 32000 bytes, got %d", rate, len(want.Data))
		}

		for _, block := range []int{576, 1000} {
			res, err := Transcode(context.Background(), buf, Options{BlockSize: block})
			if err != nil {
				t.Fatalf("Transcode with block size %d failed: %v", block, err)
			}
			if !bytes.Equal(res.Data, want.Data) {
				t.Errorf("%d Hz: block size %d gave %d bytes, block size %d gave %d bytes",
					rate, block, len(res.Data), config.BlockSize, len(want.Data))
			}
		}
	}
}

func TestTranscodeMP3ShortTailEndsInSilence(t *testing.T) {
	n := config.BlockSize + 16
	samples := sine(44100, n)
	padded := make([]float32, 2*config.BlockSize)
	copy(padded, samples)

	got, err := Transcode(context.Background(), &audio.PCMBuffer{SampleRate: 44100, Channels: [][]float32{samples}}, Options{})
	if err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}
	want, err := Transcode(context.Background(), &audio.PCMBuffer{SampleRate: 44100, Channels: [][]float32{padded}}, Options{})
	if err != nil {
		t.Fatalf("Transcode of padded input failed: %v", err)
	}

	if got.Frames != 2 || !bytes.Equal(got.Data, want.Data) {
		t.Errorf("Short tail: %d frames, %d bytes; zero-padded input: %d bytes", got.Frames, len(got.Data), len(want.Data))
	}
}
