package encoder

import (
	"encoding/binary"
	"fmt"
)

// PCMEncoder writes raw interleaved 16-bit little-endian PCM. Output is a
// byte-exact image of the quantised input, which makes it useful for
// checking the pipeline independently of a lossy codec.
type PCMEncoder struct {
	channels int
	closed   bool
}

// NewPCM creates a raw PCM encoder
func NewPCM(cfg Config) (Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &PCMEncoder{channels: cfg.Channels}, nil
}

// Submit converts one block to interleaved PCM bytes
func (e *PCMEncoder) Submit(left, right []int16) ([]byte, error) {
	if e.closed {
		return nil, fmt.Errorf("%w: %w", ErrEncodingFailed, ErrClosed)
	}
	if err := checkBlock(e.channels, left, right); err != nil {
		return nil, err
	}

	// 2 bytes per sample per channel
	output := make([]byte, len(left)*2*e.channels)
	for i := range left {
		off := i * 2 * e.channels
		binary.LittleEndian.PutUint16(output[off:], uint16(left[i]))
		if e.channels == 2 {
			binary.LittleEndian.PutUint16(output[off+2:], uint16(right[i]))
		}
	}
	return output, nil
}

// Flush has nothing buffered
func (e *PCMEncoder) Flush() ([]byte, error) {
	if e.closed {
		return nil, fmt.Errorf("%w: %w", ErrEncodingFailed, ErrClosed)
	}
	return nil, nil
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	e.closed = true
	return nil
}
