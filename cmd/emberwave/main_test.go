package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/linuxmatters/emberwave/internal/config"
)

func TestDefaultOutputPath(t *testing.T) {
	testCases := []struct {
		input string
		codec string
		want  string
	}{
		{"episode.wav", "mp3", "episode.mp3"},
		{"/tmp/show.final.flac", "mp3", "/tmp/show.final.mp3"},
		{"take.mp3", "pcm", "take.pcm"},
		{"noext", "mp3", "noext.mp3"},
	}

	for _, tc := range testCases {
		if got := defaultOutputPath(tc.input, tc.codec); got != tc.want {
			t.Errorf("defaultOutputPath(%q, %q) = %q, want %q", tc.input, tc.codec, got, tc.want)
		}
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()
	applyOverrides(&cfg, CLI{Bitrate: 64, Width: 40, LogFile: "run.log"})

	if cfg.BitrateKbps != 64 || cfg.Waveform.Columns != 40 || cfg.Logging.Path != "run.log" {
		t.Errorf("Flags not applied: %+v", cfg)
	}
	if cfg.BlockSize != config.BlockSize || cfg.Cadence != config.ProgressCadence {
		t.Errorf("Unset flags changed the config: %+v", cfg)
	}
}

func TestIsTerminalRegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.log"))
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	defer f.Close()

	if isTerminal(f) {
		t.Error("A regular file should not be treated as a terminal")
	}
}
