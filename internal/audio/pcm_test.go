package audio

import (
	"errors"
	"testing"
	"time"

	"github.com/linuxmatters/emberwave/internal/config"
)

func TestPCMBufferValidate(t *testing.T) {
	testCases := []struct {
		name    string
		buf     *PCMBuffer
		wantErr bool
	}{
		{"nil buffer", nil, true},
		{"no channels", &PCMBuffer{SampleRate: 44100}, true},
		{"zero length", &PCMBuffer{SampleRate: 44100, Channels: [][]float32{{}}}, true},
		{"zero sample rate", &PCMBuffer{Channels: [][]float32{{0.1}}}, true},
		{"negative sample rate", &PCMBuffer{SampleRate: -8000, Channels: [][]float32{{0.1}}}, true},
		{"unequal channels", &PCMBuffer{SampleRate: 44100, Channels: [][]float32{{0.1, 0.2}, {0.1}}}, true},
		{"mono", &PCMBuffer{SampleRate: 44100, Channels: [][]float32{{0.1, 0.2}}}, false},
		{"surround", &PCMBuffer{SampleRate: 48000, Channels: [][]float32{{0}, {0}, {0}, {0}, {0}, {0}}}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.buf.Validate()
			if tc.wantErr {
				if !errors.Is(err, config.ErrInvalidConfiguration) {
					t.Errorf("Validate() = %v, want ErrInvalidConfiguration", err)
				}
			} else if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestStereoPairMonoSharesStorage(t *testing.T) {
	mono := []float32{0.1, -0.2, 0.3}
	buf := &PCMBuffer{SampleRate: 44100, Channels: [][]float32{mono}}

	left, right, stereo := buf.StereoPair()
	if stereo {
		t.Error("Mono buffer reported as stereo")
	}
	if &left[0] != &mono[0] || &right[0] != &mono[0] {
		t.Error("Mono channel should be reused for both sides without copying")
	}
}

func TestStereoPairIgnoresExtraChannels(t *testing.T) {
	buf := &PCMBuffer{SampleRate: 48000, Channels: [][]float32{{1}, {2}, {3}, {4}}}

	left, right, stereo := buf.StereoPair()
	if !stereo {
		t.Fatal("Expected stereo selection")
	}
	if left[0] != 1 || right[0] != 2 {
		t.Errorf("Expected channels 0 and 1, got %v and %v", left, right)
	}
}

func TestPCMBufferDuration(t *testing.T) {
	buf := &PCMBuffer{SampleRate: 44100, Channels: [][]float32{make([]float32, 88200)}}
	if got := buf.Duration(); got != 2*time.Second {
		t.Errorf("Expected 2s, got %s", got)
	}
	if got := (&PCMBuffer{}).Duration(); got != 0 {
		t.Errorf("Expected zero duration for empty buffer, got %s", got)
	}
}
