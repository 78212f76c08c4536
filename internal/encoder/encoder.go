package encoder

import (
	"errors"
	"fmt"

	"github.com/linuxmatters/emberwave/internal/config"
)

// ErrEncodingFailed is returned when an encoder faults while creating,
// submitting or flushing. Partial output must be discarded.
var ErrEncodingFailed = errors.New("encoding failed")

// ErrClosed is returned when an encoder is used after Close
var ErrClosed = errors.New("encoder is closed")

// Config describes the stream an encoder will produce
type Config struct {
	Channels    int // 1 (mono) or 2 (stereo)
	SampleRate  int // Hz
	BitrateKbps int // Target bitrate; ignored by lossless backends
}

// Validate checks the parts of a Config every backend relies on
func (c Config) Validate() error {
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("%w: encoder channels must be 1 or 2, got %d", config.ErrInvalidConfiguration, c.Channels)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: encoder sample rate must be positive, got %d", config.ErrInvalidConfiguration, c.SampleRate)
	}
	if c.BitrateKbps <= 0 {
		return fmt.Errorf("%w: encoder bitrate must be positive, got %d", config.ErrInvalidConfiguration, c.BitrateKbps)
	}
	return nil
}

// Encoder is a stateful, order-dependent block encoder. Blocks must be
// submitted in stream order, followed by exactly one Flush. Any returned
// chunk may be empty.
type Encoder interface {
	// Submit encodes one block. right is nil for mono streams; for stereo
	// it must be the same length as left. The block slices are reused by
	// the caller after Submit returns.
	Submit(left, right []int16) ([]byte, error)

	// Flush drains any buffered output after the final block
	Flush() ([]byte, error)

	// Close releases encoder resources
	Close() error
}

// Factory creates an encoder for a stream
type Factory func(cfg Config) (Encoder, error)

// Codec names accepted by ForCodec
const (
	CodecMP3 = "mp3"
	CodecPCM = "pcm"
)

// ForCodec returns the factory for a codec name
func ForCodec(name string) (Factory, error) {
	switch name {
	case CodecMP3:
		return NewMP3, nil
	case CodecPCM:
		return NewPCM, nil
	default:
		return nil, fmt.Errorf("%w: unknown codec %q (supported: %s, %s)", config.ErrInvalidConfiguration, name, CodecMP3, CodecPCM)
	}
}

// Extension returns the output file extension for a codec name
func Extension(name string) string {
	if name == CodecPCM {
		return ".pcm"
	}
	return ".mp3"
}

// checkBlock validates the shape of a submitted block
func checkBlock(channels int, left, right []int16) error {
	if channels == 2 && len(left) != len(right) {
		return fmt.Errorf("%w: stereo block has %d left and %d right samples", ErrEncodingFailed, len(left), len(right))
	}
	if channels == 1 && right != nil {
		return fmt.Errorf("%w: mono encoder received a right channel", ErrEncodingFailed)
	}
	return nil
}
