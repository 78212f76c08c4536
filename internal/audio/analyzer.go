package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/linuxmatters/emberwave/internal/config"
)

// AudioProfile holds level statistics for a decoded buffer
type AudioProfile struct {
	SampleRate int
	Channels   int
	Samples    int
	Duration   time.Duration

	// Levels over the channels that will be encoded (linear, 0.0-1.0+)
	Peak float64
	RMS  float64

	// Crest factor in dB (peak relative to RMS); 0 for silence
	DynamicRange float64

	// Normalised average spectrum of the left channel
	Spectrum []float64
}

// PeakDB returns the peak level in dBFS, -Inf for silence
func (p *AudioProfile) PeakDB() float64 {
	return 20 * math.Log10(p.Peak)
}

// RMSDB returns the RMS level in dBFS, -Inf for silence
func (p *AudioProfile) RMSDB() float64 {
	return 20 * math.Log10(p.RMS)
}

// Analyze computes the profile shown before encoding starts. It reads the
// buffer once and keeps no reference to it.
func Analyze(buf *PCMBuffer) (*AudioProfile, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	left, right, stereo := buf.StereoPair()
	channels := [][]float32{left}
	if stereo {
		channels = append(channels, right)
	}

	var peak, sumSquares float64
	var count int
	for _, samples := range channels {
		for _, s := range samples {
			v := float64(s)
			peak = max(peak, math.Abs(v))
			sumSquares += v * v
		}
		count += len(samples)
	}

	profile := &AudioProfile{
		SampleRate: buf.SampleRate,
		Channels:   buf.NumChannels(),
		Samples:    buf.Len(),
		Duration:   buf.Duration(),
		Peak:       peak,
		RMS:        math.Sqrt(sumSquares / float64(count)),
	}

	if profile.RMS > 0 {
		profile.DynamicRange = 20 * math.Log10(profile.Peak/profile.RMS)
	}

	spectrum, err := Spectrum(left, config.FFTSize, config.NumBars, config.SpectrumSlots)
	if err != nil {
		return nil, fmt.Errorf("computing spectrum: %w", err)
	}
	profile.Spectrum = spectrum

	return profile, nil
}
