package audio

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

// FLACDecoder implements AudioDecoder for FLAC files
type FLACDecoder struct {
	stream      *flac.Stream
	closer      io.Closer
	sampleRate  int
	numSamples  int64
	numChannels int
	scale       float64

	// Samples decoded from the last FLAC frame but not yet returned
	pending [][]int32
}

// NewFLACDecoder creates a new FLAC decoder
func NewFLACDecoder(filename string) (*FLACDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	d, err := newFLACDecoder(f, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

func newFLACDecoder(r io.Reader, closer io.Closer) (*FLACDecoder, error) {
	// bufio hides any Close method from flac.Stream so the file is closed once, here
	stream, err := flac.New(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("failed to create FLAC decoder: %w", err)
	}

	info := stream.Info
	if info.NChannels == 0 || info.BitsPerSample == 0 {
		return nil, fmt.Errorf("FLAC stream info is incomplete")
	}

	return &FLACDecoder{
		stream:      stream,
		closer:      closer,
		sampleRate:  int(info.SampleRate),
		numSamples:  int64(info.NSamples),
		numChannels: int(info.NChannels),
		scale:       fullScale(int(info.BitsPerSample)),
		pending:     make([][]int32, info.NChannels),
	}, nil
}

// ReadChunk reads the next chunk of samples
func (d *FLACDecoder) ReadChunk(numSamples int) ([][]float32, error) {
	// FLAC frames hold a fixed block of samples; keep leftovers for the next call
	for len(d.pending[0]) < numSamples {
		frame, err := d.stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}
		if len(frame.Subframes) != d.numChannels {
			return nil, fmt.Errorf("FLAC frame has %d channels, stream has %d", len(frame.Subframes), d.numChannels)
		}

		for ch, subframe := range frame.Subframes {
			d.pending[ch] = append(d.pending[ch], subframe.Samples...)
		}
	}

	available := len(d.pending[0])
	if available == 0 {
		return nil, io.EOF
	}
	if available > numSamples {
		available = numSamples
	}

	out := make([][]float32, d.numChannels)
	for ch := range out {
		out[ch] = make([]float32, available)
		for i, s := range d.pending[ch][:available] {
			out[ch][i] = float32(float64(s) / d.scale)
		}
		d.pending[ch] = d.pending[ch][available:]
	}

	return out, nil
}

// SampleRate returns the sample rate
func (d *FLACDecoder) SampleRate() int {
	return d.sampleRate
}

// NumSamples returns the total number of samples
func (d *FLACDecoder) NumSamples() int64 {
	return d.numSamples
}

// NumChannels returns the number of audio channels
func (d *FLACDecoder) NumChannels() int {
	return d.numChannels
}

// Close closes the decoder and releases resources
func (d *FLACDecoder) Close() error {
	var err error
	if d.stream != nil {
		err = d.stream.Close()
		d.stream = nil
	}
	if d.closer != nil {
		if cerr := d.closer.Close(); cerr != nil {
			err = cerr
		}
		d.closer = nil
	}
	return err
}
