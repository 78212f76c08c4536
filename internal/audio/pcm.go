package audio

import (
	"fmt"
	"time"

	"github.com/linuxmatters/emberwave/internal/config"
)

// PCMBuffer holds fully decoded, deinterleaved audio normalised to [-1.0, 1.0].
// Samples may exceed that range; consumers saturate rather than reject them.
// A buffer is treated as immutable once handed to a pipeline.
type PCMBuffer struct {
	SampleRate int
	Channels   [][]float32
}

// NumChannels returns the number of decoded channels
func (b *PCMBuffer) NumChannels() int {
	if b == nil {
		return 0
	}
	return len(b.Channels)
}

// Len returns the number of samples per channel
func (b *PCMBuffer) Len() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playback length of the buffer
func (b *PCMBuffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Len()) / float64(b.SampleRate) * float64(time.Second))
}

// Validate checks the buffer can be encoded or summarised.
func (b *PCMBuffer) Validate() error {
	if b == nil || len(b.Channels) == 0 {
		return fmt.Errorf("%w: buffer has no channels", config.ErrInvalidConfiguration)
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", config.ErrInvalidConfiguration, b.SampleRate)
	}

	n := len(b.Channels[0])
	if n == 0 {
		return fmt.Errorf("%w: buffer has no samples", config.ErrInvalidConfiguration)
	}
	for ch, samples := range b.Channels[1:] {
		if len(samples) != n {
			return fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d",
				config.ErrInvalidConfiguration, ch+1, len(samples), n)
		}
	}
	return nil
}

// StereoPair selects the encoder inputs. A mono buffer returns its only
// channel as both left and right without copying; otherwise channels 0 and 1
// are used and any further channels are ignored.
func (b *PCMBuffer) StereoPair() (left, right []float32, stereo bool) {
	switch len(b.Channels) {
	case 0:
		return nil, nil, false
	case 1:
		return b.Channels[0], b.Channels[0], false
	default:
		return b.Channels[0], b.Channels[1], true
	}
}
