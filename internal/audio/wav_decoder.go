package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVDecoder implements AudioDecoder for integer PCM WAV files
type WAVDecoder struct {
	decoder    *wav.Decoder
	closer     io.Closer
	sampleRate int
	bitDepth   int
	numChans   int
	numSamples int64
	intBuf     *audio.IntBuffer
}

// NewWAVDecoder creates a new WAV decoder
func NewWAVDecoder(filename string) (*WAVDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	d, err := newWAVDecoder(f, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

func newWAVDecoder(r io.ReadSeeker, closer io.Closer) (*WAVDecoder, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}

	// Get format info without reading all samples
	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to seek to PCM data: %w", err)
	}

	bitDepth := int(decoder.BitDepth)
	numChans := int(decoder.NumChans)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}
	if numChans < 1 {
		return nil, fmt.Errorf("WAV header reports %d channels", numChans)
	}

	// PCMLen gives us the length of PCM data in bytes
	bytesPerFrame := int64(bitDepth/8) * int64(numChans)

	return &WAVDecoder{
		decoder:    decoder,
		closer:     closer,
		sampleRate: int(decoder.SampleRate),
		bitDepth:   bitDepth,
		numChans:   numChans,
		numSamples: int64(decoder.PCMLen()) / bytesPerFrame,
	}, nil
}

// ReadChunk reads the next chunk of samples
func (d *WAVDecoder) ReadChunk(numSamples int) ([][]float32, error) {
	// Interleaved data needs numSamples × numChannels slots
	bufSize := numSamples * d.numChans
	if d.intBuf == nil || len(d.intBuf.Data) != bufSize {
		d.intBuf = &audio.IntBuffer{
			Data: make([]int, bufSize),
			Format: &audio.Format{
				NumChannels: d.numChans,
				SampleRate:  d.sampleRate,
			},
			SourceBitDepth: d.bitDepth,
		}
	}

	n, err := d.decoder.PCMBuffer(d.intBuf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read PCM buffer: %w", err)
	}

	if n == 0 {
		return nil, io.EOF
	}

	return deinterleave(d.intBuf.Data[:n], d.numChans, fullScale(d.bitDepth)), nil
}

// SampleRate returns the sample rate
func (d *WAVDecoder) SampleRate() int {
	return d.sampleRate
}

// NumSamples returns the number of samples per channel
func (d *WAVDecoder) NumSamples() int64 {
	return d.numSamples
}

// NumChannels returns the number of audio channels
func (d *WAVDecoder) NumChannels() int {
	return d.numChans
}

// Close closes the decoder and releases resources
func (d *WAVDecoder) Close() error {
	if d.closer != nil {
		err := d.closer.Close()
		d.closer = nil
		return err
	}
	return nil
}
