package encoder

import (
	"bytes"
	"fmt"
	"slices"

	shine "github.com/braheezy/shine-mp3/pkg/mp3"

	"github.com/linuxmatters/emberwave/internal/config"
)

// Sample rates the shine Layer III encoder accepts (MPEG-1, MPEG-2, MPEG-2.5)
var mp3SampleRates = []int{44100, 48000, 32000, 22050, 24000, 16000, 11025, 12000, 8000}

// granuleSize is the number of samples per channel in one Layer III granule
const granuleSize = 576

// MP3Encoder encodes PCM blocks to MPEG-1/2 Layer III with the pure-Go shine
// encoder.
//
// shine reads exactly one frame of interleaved samples per Write, so blocks
// of any size are gathered into pending and handed over one full pass at a
// time. Flush pads the remainder with silence and emits the last frame.
type MP3Encoder struct {
	enc      *shine.Encoder
	channels int
	pass     int // Interleaved values per shine Write
	pending  []int16
	frame    []int16 // Owned copy handed to shine
	out      bytes.Buffer
	closed   bool
}

// NewMP3 creates an MP3 encoder. Shine encodes at a fixed bitrate, so a
// Config asking for any other bitrate is rejected rather than silently ignored.
func NewMP3(cfg Config) (Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !slices.Contains(mp3SampleRates, cfg.SampleRate) {
		return nil, fmt.Errorf("%w: MP3 does not support %d Hz (supported: %v)",
			config.ErrInvalidConfiguration, cfg.SampleRate, mp3SampleRates)
	}

	enc := shine.NewEncoder(cfg.SampleRate, cfg.Channels)
	if enc == nil {
		return nil, fmt.Errorf("%w: shine rejected %d Hz, %d channels", ErrEncodingFailed, cfg.SampleRate, cfg.Channels)
	}
	if got := int(enc.Mpeg.Bitrate); got != cfg.BitrateKbps {
		return nil, fmt.Errorf("%w: MP3 encoder produces %d kbps, requested %d kbps",
			config.ErrInvalidConfiguration, got, cfg.BitrateKbps)
	}

	pass := SamplesPerFrame(enc) * cfg.Channels
	if pass <= 0 {
		return nil, fmt.Errorf("%w: shine reported no samples per frame at %d Hz", ErrEncodingFailed, cfg.SampleRate)
	}
	return &MP3Encoder{
		enc:      enc,
		channels: cfg.Channels,
		pass:     pass,
		pending:  make([]int16, 0, 2*pass),
		frame:    make([]int16, pass),
	}, nil
}

// SamplesPerFrame returns the samples per channel shine consumes per frame:
// 1152 for MPEG-1 rates, 576 for MPEG-2 and 2.5.
func SamplesPerFrame(enc *shine.Encoder) int {
	return int(enc.Mpeg.GranulesPerFrame) * granuleSize
}

// Submit buffers one block and returns any frames it completed
func (e *MP3Encoder) Submit(left, right []int16) ([]byte, error) {
	if e.closed {
		return nil, fmt.Errorf("%w: %w", ErrEncodingFailed, ErrClosed)
	}
	if err := checkBlock(e.channels, left, right); err != nil {
		return nil, err
	}

	if e.channels == 2 {
		// shine takes interleaved L R L R ...
		for i := range left {
			e.pending = append(e.pending, left[i], right[i])
		}
	} else {
		e.pending = append(e.pending, left...)
	}

	e.out.Reset()
	consumed := 0
	for len(e.pending)-consumed >= e.pass {
		if err := e.writeFrame(e.pending[consumed : consumed+e.pass]); err != nil {
			return nil, err
		}
		consumed += e.pass
	}
	e.pending = e.pending[:copy(e.pending, e.pending[consumed:])]
	return bytes.Clone(e.out.Bytes()), nil
}

// Flush pads the buffered remainder with silence and encodes it as the
// final frame
func (e *MP3Encoder) Flush() ([]byte, error) {
	if e.closed {
		return nil, fmt.Errorf("%w: %w", ErrEncodingFailed, ErrClosed)
	}
	if len(e.pending) == 0 {
		return nil, nil
	}

	e.out.Reset()
	err := e.writeFrame(e.pending)
	e.pending = e.pending[:0]
	if err != nil {
		return nil, err
	}
	return bytes.Clone(e.out.Bytes()), nil
}

// writeFrame encodes one pass. samples may be short; the rest of the frame
// is silence.
func (e *MP3Encoder) writeFrame(samples []int16) error {
	n := copy(e.frame, samples)
	clear(e.frame[n:])
	if err := e.enc.Write(&e.out, e.frame); err != nil {
		return fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}
	return nil
}

// Close releases the encoder state
func (e *MP3Encoder) Close() error {
	e.closed = true
	e.enc = nil
	e.pending = nil
	e.frame = nil
	return nil
}
