package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfiguration is returned when a buffer, option or file value
// cannot be used before any audio is processed.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Encoding settings
const (
	BlockSize       = 1152 // Samples per channel per encoder submission (one MPEG-1 Layer III frame)
	BitrateKbps     = 128  // Target MP3 bitrate
	ProgressCadence = 100  // Frames between encoding progress updates
)

// Progress ranges, in percent
const (
	PreparingStart  = 0.0
	EncodingStart   = 10.0
	FinalizingStart = 95.0
	Complete        = 100.0
)

// Analysis settings
const (
	FFTSize       = 2048 // Samples per spectrum window
	NumBars       = 64   // Spectrum bars in the audio profile
	SpectrumSlots = 48   // Windows averaged across the whole buffer
)

// Waveform settings
const (
	EnvelopeWidth  = 72   // Terminal columns for the inline waveform
	ImageWidth     = 1280 // PNG waveform width in pixels (one envelope column per pixel)
	ImageHeight    = 240  // PNG waveform height in pixels
	MinBarHeight   = 2    // Bar height used for silent or empty columns
	TitleFontSize  = 18   // Point size of the PNG title
	TitleMargin    = 12   // Margin in pixels around the PNG title
	DefaultBarFrom = "#6366F1"
	DefaultBarTo   = "#818CF8"
	Background     = "#101014"
)

// Config holds the user-tunable settings. Zero values in a TOML file are
// filled from Default before validation.
type Config struct {
	BlockSize   int `toml:"block_size"`
	BitrateKbps int `toml:"bitrate_kbps"`
	Cadence     int `toml:"progress_cadence"`

	// YieldPauseMs paces the cooperative yields; zero yields without sleeping.
	YieldPauseMs int `toml:"yield_pause_ms"`

	Waveform WaveformConfig `toml:"waveform"`
	Logging  LoggingConfig  `toml:"logging"`
}

// WaveformConfig controls the terminal and PNG renderings of the envelope.
type WaveformConfig struct {
	Columns  int    `toml:"columns"`
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
	BarFrom  string `toml:"bar_from"`
	BarTo    string `toml:"bar_to"`
	Backdrop string `toml:"background"`
}

// LoggingConfig mirrors logging.Options so it can live in the TOML file.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Path   string `toml:"path"`
}

// Default returns the canonical settings.
func Default() Config {
	return Config{
		BlockSize:   BlockSize,
		BitrateKbps: BitrateKbps,
		Cadence:     ProgressCadence,
		Waveform: WaveformConfig{
			Columns:  EnvelopeWidth,
			Width:    ImageWidth,
			Height:   ImageHeight,
			BarFrom:  DefaultBarFrom,
			BarTo:    DefaultBarTo,
			Backdrop: Background,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a TOML file on top of Default. A missing file is not an error;
// an empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfiguration, path, err)
	}

	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.BlockSize == 0 {
		c.BlockSize = def.BlockSize
	}
	if c.BitrateKbps == 0 {
		c.BitrateKbps = def.BitrateKbps
	}
	if c.Cadence == 0 {
		c.Cadence = def.Cadence
	}
	if c.Waveform.Columns == 0 {
		c.Waveform.Columns = def.Waveform.Columns
	}
	if c.Waveform.Width == 0 {
		c.Waveform.Width = def.Waveform.Width
	}
	if c.Waveform.Height == 0 {
		c.Waveform.Height = def.Waveform.Height
	}
	if c.Waveform.BarFrom == "" {
		c.Waveform.BarFrom = def.Waveform.BarFrom
	}
	if c.Waveform.BarTo == "" {
		c.Waveform.BarTo = def.Waveform.BarTo
	}
	if c.Waveform.Backdrop == "" {
		c.Waveform.Backdrop = def.Waveform.Backdrop
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
}

// YieldPause returns the configured pause as a duration.
func (c Config) YieldPause() time.Duration {
	return time.Duration(c.YieldPauseMs) * time.Millisecond
}

// Validate reports the first unusable value.
func (c Config) Validate() error {
	switch {
	case c.BlockSize <= 0:
		return fmt.Errorf("%w: block size must be positive, got %d", ErrInvalidConfiguration, c.BlockSize)
	case c.BitrateKbps <= 0:
		return fmt.Errorf("%w: bitrate must be positive, got %d", ErrInvalidConfiguration, c.BitrateKbps)
	case c.Cadence <= 0:
		return fmt.Errorf("%w: progress cadence must be positive, got %d", ErrInvalidConfiguration, c.Cadence)
	case c.YieldPauseMs < 0:
		return fmt.Errorf("%w: yield pause must not be negative, got %dms", ErrInvalidConfiguration, c.YieldPauseMs)
	case c.Waveform.Columns <= 0:
		return fmt.Errorf("%w: waveform columns must be positive, got %d", ErrInvalidConfiguration, c.Waveform.Columns)
	case c.Waveform.Width <= 0 || c.Waveform.Height < MinBarHeight:
		return fmt.Errorf("%w: waveform image %dx%d is too small", ErrInvalidConfiguration, c.Waveform.Width, c.Waveform.Height)
	}

	for _, hex := range []string{c.Waveform.BarFrom, c.Waveform.BarTo, c.Waveform.Backdrop} {
		if _, _, _, err := ParseHexColor(hex); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
	}
	return nil
}

// ParseHexColor parses "RRGGBB" or "#RRGGBB".
func ParseHexColor(hex string) (r, g, b uint8, err error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("colour %q must have 6 hex digits", hex)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("colour %q is not hexadecimal", hex)
	}

	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}
