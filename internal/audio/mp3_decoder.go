package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// MP3Decoder implements AudioDecoder for MP3 files
type MP3Decoder struct {
	decoder    *mp3.Decoder
	closer     io.Closer
	sampleRate int
	numSamples int64
	buf        []byte
}

// go-mp3 always outputs interleaved 16-bit stereo: L0 R0 L1 R1 ...
const (
	mp3Channels      = 2
	mp3BytesPerFrame = 4
)

// NewMP3Decoder creates a new MP3 decoder
func NewMP3Decoder(filename string) (*MP3Decoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	d, err := newMP3Decoder(f, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

func newMP3Decoder(r io.Reader, closer io.Closer) (*MP3Decoder, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}

	// Length is only known when the source is seekable
	var numSamples int64
	if length := decoder.Length(); length > 0 {
		numSamples = length / mp3BytesPerFrame
	}

	return &MP3Decoder{
		decoder:    decoder,
		closer:     closer,
		sampleRate: decoder.SampleRate(),
		numSamples: numSamples,
	}, nil
}

// ReadChunk reads the next chunk of samples
func (d *MP3Decoder) ReadChunk(numSamples int) ([][]float32, error) {
	size := numSamples * mp3BytesPerFrame
	if cap(d.buf) < size {
		d.buf = make([]byte, size)
	}
	buf := d.buf[:size]

	n, err := io.ReadFull(d.decoder, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read MP3 data: %w", err)
	}

	frames := n / mp3BytesPerFrame
	if frames == 0 {
		return nil, io.EOF
	}

	left := make([]float32, frames)
	right := make([]float32, frames)
	for i := 0; i < frames; i++ {
		// 16-bit signed little-endian per channel
		l := int16(buf[i*4]) | int16(buf[i*4+1])<<8
		r := int16(buf[i*4+2]) | int16(buf[i*4+3])<<8
		left[i] = float32(l) / 32768.0
		right[i] = float32(r) / 32768.0
	}

	return [][]float32{left, right}, nil
}

// SampleRate returns the sample rate
func (d *MP3Decoder) SampleRate() int {
	return d.sampleRate
}

// NumSamples returns the number of samples per channel, or 0 if unknown
func (d *MP3Decoder) NumSamples() int64 {
	return d.numSamples
}

// NumChannels returns the number of audio channels
func (d *MP3Decoder) NumChannels() int {
	return mp3Channels
}

// Close closes the decoder and releases resources
func (d *MP3Decoder) Close() error {
	if d.closer != nil {
		err := d.closer.Close()
		d.closer = nil
		return err
	}
	return nil
}
