// Package waveform downsamples audio into per-column min/max pairs for display.
package waveform

import (
	"fmt"

	"github.com/linuxmatters/emberwave/internal/audio"
	"github.com/linuxmatters/emberwave/internal/config"
)

// Pair is the sample range of one display column
type Pair struct {
	Min float32
	Max float32
}

// Empty reports whether the column saw no samples
func (p Pair) Empty() bool {
	return p.Min > p.Max
}

// Span returns Max-Min, or 0 for an empty column
func (p Pair) Span() float32 {
	if p.Empty() {
		return 0
	}
	return p.Max - p.Min
}

// empty is the inverted pair reported for a column with no samples
var empty = Pair{Min: 1, Max: -1}

// Build reduces samples to exactly width min/max pairs. Each column covers
// ceil(len(samples)/width) consecutive samples; trailing columns past the
// end of the input are empty. The result depends only on its inputs.
//
// A column's min and max start from its own first sample rather than from
// (+1, -1), so both always lie within the observed samples: a constant 1.5
// channel gives (1.5, 1.5), not (1, 1.5).
func Build(samples []float32, width int) ([]Pair, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: envelope width must be positive, got %d", config.ErrInvalidConfiguration, width)
	}

	pairs := make([]Pair, width)
	step := (len(samples) + width - 1) / width
	for c := range pairs {
		start := c * step
		end := min(start+step, len(samples))
		if start >= end {
			pairs[c] = empty
			continue
		}

		p := Pair{Min: samples[start], Max: samples[start]}
		for _, s := range samples[start+1 : end] {
			if s < p.Min {
				p.Min = s
			}
			if s > p.Max {
				p.Max = s
			}
		}
		pairs[c] = p
	}
	return pairs, nil
}

// FromBuffer builds the envelope of a decoded buffer's first channel
func FromBuffer(buf *audio.PCMBuffer, width int) ([]Pair, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	return Build(buf.Channels[0], width)
}

// Peak returns the largest absolute value across non-empty pairs
func Peak(pairs []Pair) float32 {
	var peak float32
	for _, p := range pairs {
		if p.Empty() {
			continue
		}
		peak = max(peak, -p.Min, p.Max)
	}
	return peak
}
