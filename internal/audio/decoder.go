package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrDecodeFailed is returned when input cannot be read as audio
var ErrDecodeFailed = errors.New("decode failed")

// AudioDecoder defines the interface for all audio format decoders.
// A decoder owns an open resource until Close is called.
type AudioDecoder interface {
	// ReadChunk reads up to numSamples samples per channel, deinterleaved
	// and normalised. Returns io.EOF when no samples remain.
	ReadChunk(numSamples int) ([][]float32, error)

	// SampleRate returns the audio sample rate in Hz
	SampleRate() int

	// NumSamples returns the total number of samples per channel
	// Returns 0 if the length is unknown
	NumSamples() int64

	// NumChannels returns the number of audio channels
	NumChannels() int

	// Close closes the decoder and releases resources
	Close() error
}

// Format identifies a supported container
type Format string

const (
	FormatWAV  Format = "wav"
	FormatMP3  Format = "mp3"
	FormatFLAC Format = "flac"
)

// decodeChunkSize is the number of samples per channel pulled per ReadChunk
const decodeChunkSize = 16384

// FormatFromPath picks a format by file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return FormatWAV, nil
	case ".mp3":
		return FormatMP3, nil
	case ".flac":
		return FormatFLAC, nil
	default:
		return "", fmt.Errorf("%w: unsupported file type %q (expected .wav, .mp3 or .flac)", ErrDecodeFailed, filepath.Ext(path))
	}
}

// SniffFormat identifies a format from its leading bytes
func SniffFormat(data []byte) (Format, error) {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV, nil
	case len(data) >= 4 && string(data[0:4]) == "fLaC":
		return FormatFLAC, nil
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return FormatMP3, nil
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// MPEG audio frame sync
		return FormatMP3, nil
	default:
		return "", fmt.Errorf("%w: unrecognised audio data", ErrDecodeFailed)
	}
}

// Open opens a file decoder selected by extension
func Open(path string) (AudioDecoder, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	var dec AudioDecoder
	switch format {
	case FormatWAV:
		dec, err = NewWAVDecoder(path)
	case FormatMP3:
		dec, err = NewMP3Decoder(path)
	case FormatFLAC:
		dec, err = NewFLACDecoder(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecodeFailed, filepath.Base(path), err)
	}
	return dec, nil
}

// OpenReader opens a decoder over an in-memory or caller-owned stream.
// The caller keeps ownership of r; Close releases only decoder state.
func OpenReader(r io.ReadSeeker, format Format) (AudioDecoder, error) {
	var (
		dec AudioDecoder
		err error
	)
	switch format {
	case FormatWAV:
		dec, err = newWAVDecoder(r, nil)
	case FormatMP3:
		dec, err = newMP3Decoder(r, nil)
	case FormatFLAC:
		dec, err = newFLACDecoder(r, nil)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrDecodeFailed, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return dec, nil
}

// DecodeFile decodes a whole file into memory. The file is closed before
// DecodeFile returns, whether or not decoding succeeded.
func DecodeFile(path string) (*PCMBuffer, error) {
	dec, err := Open(path)
	if err != nil {
		return nil, err
	}
	return Decode(dec)
}

// DecodeBytes decodes a raw byte buffer, sniffing its format.
func DecodeBytes(data []byte) (*PCMBuffer, error) {
	format, err := SniffFormat(data)
	if err != nil {
		return nil, err
	}

	dec, err := OpenReader(bytes.NewReader(data), format)
	if err != nil {
		return nil, err
	}
	return Decode(dec)
}

// Decode drains dec into a PCMBuffer and always closes it.
func Decode(dec AudioDecoder) (buf *PCMBuffer, err error) {
	defer func() {
		if cerr := dec.Close(); cerr != nil && err == nil {
			buf = nil
			err = fmt.Errorf("%w: closing decoder: %v", ErrDecodeFailed, cerr)
		}
	}()

	numChannels := dec.NumChannels()
	if numChannels < 1 {
		return nil, fmt.Errorf("%w: stream reports %d channels", ErrDecodeFailed, numChannels)
	}

	channels := make([][]float32, numChannels)
	if n := dec.NumSamples(); n > 0 {
		for ch := range channels {
			channels[ch] = make([]float32, 0, n)
		}
	}

	for {
		chunk, err := dec.ReadChunk(decodeChunkSize)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
		}
		if len(chunk) != numChannels {
			return nil, fmt.Errorf("%w: chunk has %d channels, expected %d", ErrDecodeFailed, len(chunk), numChannels)
		}

		for ch := range channels {
			channels[ch] = append(channels[ch], chunk[ch]...)
		}
	}

	return &PCMBuffer{
		SampleRate: dec.SampleRate(),
		Channels:   channels,
	}, nil
}

// deinterleave splits interleaved integer samples into normalised channels
func deinterleave(data []int, numChans int, scale float64) [][]float32 {
	frames := len(data) / numChans
	out := make([][]float32, numChans)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}

	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChans; ch++ {
			out[ch][i] = float32(float64(data[i*numChans+ch]) / scale)
		}
	}
	return out
}

// fullScale returns the magnitude of the most negative sample at bitDepth,
// so that integer samples round-trip exactly through float.
func fullScale(bitDepth int) float64 {
	return float64(int64(1) << (bitDepth - 1))
}
