package audio

import (
	"fmt"
	"math"

	"github.com/argusdusty/gofft"
)

// ApplyHanning applies a Hanning window to the input data
func ApplyHanning(data []float64) []float64 {
	windowed := make([]float64, len(data))
	n := len(data)
	if n < 2 {
		copy(windowed, data)
		return windowed
	}
	for i := range data {
		window := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = data[i] * window
	}
	return windowed
}

// BinMagnitudes averages FFT magnitudes into numBars bars written to result.
// Only the lower 3/4 of the positive spectrum is used (0 to ~16.5kHz at 44.1kHz),
// where most programme content sits.
func BinMagnitudes(coeffs []complex128, result []float64) {
	numBars := len(result)
	halfSize := len(coeffs) / 2
	maxFreqBin := (halfSize * 3) / 4

	binsPerBar := maxFreqBin / numBars
	if binsPerBar < 1 {
		binsPerBar = 1
	}

	for bar := 0; bar < numBars; bar++ {
		start := bar * binsPerBar
		end := start + binsPerBar
		if end > maxFreqBin {
			end = maxFreqBin
		}

		var sum float64
		for i := start; i < end; i++ {
			sum += math.Hypot(real(coeffs[i]), imag(coeffs[i]))
		}
		result[bar] = sum / float64(binsPerBar)
	}
}

// Spectrum estimates the average magnitude spectrum of samples by taking
// up to slots Hanning-windowed FFTs spread evenly across the signal. The
// result is normalised so the loudest bar is 1.0 (all zeros for silence).
func Spectrum(samples []float32, fftSize, numBars, slots int) ([]float64, error) {
	if fftSize <= 0 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("FFT size %d is not a power of two", fftSize)
	}
	if numBars <= 0 || slots <= 0 {
		return nil, fmt.Errorf("invalid spectrum shape: %d bars, %d slots", numBars, slots)
	}

	bars := make([]float64, numBars)
	if len(samples) == 0 {
		return bars, nil
	}

	// Space windows evenly; short signals get one zero-padded window
	windows := 1
	stride := 0
	if len(samples) > fftSize {
		windows = min(slots, len(samples)/fftSize)
		stride = (len(samples) - fftSize) / max(windows-1, 1)
	}

	chunk := make([]float64, fftSize)
	frameBars := make([]float64, numBars)
	for w := 0; w < windows; w++ {
		start := w * stride
		for i := range chunk {
			chunk[i] = 0
			if start+i < len(samples) {
				chunk[i] = float64(samples[start+i])
			}
		}

		coeffs := gofft.Float64ToComplex128Array(ApplyHanning(chunk))
		if err := gofft.FFT(coeffs); err != nil {
			return nil, fmt.Errorf("FFT computation failed: %w", err)
		}

		BinMagnitudes(coeffs, frameBars)
		for i, v := range frameBars {
			bars[i] += v / float64(windows)
		}
	}

	var peak float64
	for _, v := range bars {
		peak = max(peak, v)
	}
	if peak > 0 {
		for i := range bars {
			bars[i] /= peak
		}
	}
	return bars, nil
}
