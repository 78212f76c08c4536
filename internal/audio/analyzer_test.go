package audio

import (
	"errors"
	"math"
	"testing"

	"github.com/linuxmatters/emberwave/internal/config"
)

func TestAnalyzeSine(t *testing.T) {
	buf := &PCMBuffer{
		SampleRate: 44100,
		Channels:   [][]float32{sineWave(440, 44100, 44100, 0.5)},
	}

	profile, err := Analyze(buf)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if math.Abs(profile.Peak-0.5) > 0.001 {
		t.Errorf("Expected peak ~0.5, got %.6f", profile.Peak)
	}

	// RMS of a sine is amplitude / sqrt(2)
	if want := 0.5 / math.Sqrt2; math.Abs(profile.RMS-want) > 0.001 {
		t.Errorf("Expected RMS ~%.4f, got %.6f", want, profile.RMS)
	}

	// Crest factor of a sine is ~3.01 dB
	if math.Abs(profile.DynamicRange-3.01) > 0.05 {
		t.Errorf("Expected dynamic range ~3.01 dB, got %.3f", profile.DynamicRange)
	}

	if len(profile.Spectrum) != config.NumBars {
		t.Errorf("Expected %d spectrum bars, got %d", config.NumBars, len(profile.Spectrum))
	}
	if profile.Samples != 44100 || profile.Channels != 1 {
		t.Errorf("Unexpected shape: %d samples, %d channels", profile.Samples, profile.Channels)
	}

	t.Logf("Peak %.1f dB, RMS %.1f dB, DR %.2f dB", profile.PeakDB(), profile.RMSDB(), profile.DynamicRange)
}

func TestAnalyzeSilence(t *testing.T) {
	buf := &PCMBuffer{SampleRate: 8000, Channels: [][]float32{make([]float32, 8000), make([]float32, 8000)}}

	profile, err := Analyze(buf)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if profile.Peak != 0 || profile.RMS != 0 || profile.DynamicRange != 0 {
		t.Errorf("Expected zero levels for silence, got peak %.3f rms %.3f dr %.3f",
			profile.Peak, profile.RMS, profile.DynamicRange)
	}
	if !math.IsInf(profile.PeakDB(), -1) {
		t.Errorf("Expected -Inf dB peak for silence, got %.3f", profile.PeakDB())
	}
}

func TestAnalyzeRejectsEmptyBuffer(t *testing.T) {
	_, err := Analyze(&PCMBuffer{SampleRate: 44100, Channels: [][]float32{{}}})
	if !errors.Is(err, config.ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
	}
}
