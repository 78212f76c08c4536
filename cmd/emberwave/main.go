package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/linuxmatters/emberwave/internal/audio"
	"github.com/linuxmatters/emberwave/internal/cli"
	"github.com/linuxmatters/emberwave/internal/config"
	"github.com/linuxmatters/emberwave/internal/encoder"
	"github.com/linuxmatters/emberwave/internal/logging"
	"github.com/linuxmatters/emberwave/internal/metrics"
	"github.com/linuxmatters/emberwave/internal/renderer"
	"github.com/linuxmatters/emberwave/internal/transcode"
	"github.com/linuxmatters/emberwave/internal/ui"
	"github.com/linuxmatters/emberwave/internal/waveform"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

// CLI describes the command line. Numeric flags left at zero fall back to
// the config file, then to the built-in defaults.
type CLI struct {
	Input     string `arg:"" name:"input" help:"Input audio file (.wav, .flac or .mp3)" optional:""`
	Output    string `arg:"" name:"output" help:"Output file (defaults to the input name with the codec extension)" optional:""`
	Codec     string `group:"Encoding" help:"Output codec; pcm writes raw s16le" enum:"mp3,pcm" default:"mp3"`
	Bitrate   int    `group:"Encoding" help:"Target bitrate in kbps"`
	BlockSize int    `group:"Encoding" help:"Samples per channel per encoder block"`
	Cadence   int    `group:"Encoding" help:"Frames between progress updates"`
	Width     int    `group:"Waveform" help:"Waveform columns shown in the terminal"`
	Waveform  string `group:"Waveform" help:"Also render the waveform to this PNG file" placeholder:"PATH"`
	Title     string `group:"Waveform" help:"Title drawn on the waveform PNG"`
	Config    string `help:"TOML config file" type:"path" placeholder:"PATH"`
	NoTUI     bool   `name:"no-tui" help:"Print plain progress lines instead of the interactive UI (implied when stdout is not a terminal)"`
	LogLevel  string `group:"Logging and metrics" help:"Log level: debug, info, warn, error"`
	LogFormat string `group:"Logging and metrics" help:"Log format: console or json"`
	LogFile   string `group:"Logging and metrics" help:"Write logs to this file" placeholder:"PATH"`
	Metrics   string `name:"metrics-file" group:"Logging and metrics" help:"Write Prometheus metrics in textfile format to this path" placeholder:"PATH"`
	Version   bool   `help:"Show version information"`
}

func main() {
	var args CLI
	kong.Parse(&args,
		kong.Name("emberwave"),
		kong.Description(cli.AppDescription),
		kong.Vars{"version": version},
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if args.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if err := run(args); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

func run(args CLI) (err error) {
	m := metrics.New()
	defer func() {
		if err != nil {
			m.RecordFailure(err)
		}
		if args.Metrics != "" {
			if werr := m.WriteTextfile(args.Metrics); werr != nil && err == nil {
				err = fmt.Errorf("writing metrics: %w", werr)
			}
		}
	}()

	if args.Input == "" {
		return errors.New("<input> is required")
	}
	info, err := os.Stat(args.Input)
	if err != nil {
		return fmt.Errorf("input file does not exist: %s", args.Input)
	}

	cfg, err := config.Load(args.Config)
	if err != nil {
		return err
	}
	applyOverrides(&cfg, args)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	factory, err := encoder.ForCodec(args.Codec)
	if err != nil {
		return err
	}
	output := args.Output
	if output == "" {
		output = defaultOutputPath(args.Input, args.Codec)
	}

	// The decode resource is closed before DecodeFile returns
	buf, err := audio.DecodeFile(args.Input)
	if err != nil {
		return err
	}
	logger.Info("decoded input",
		zap.String("input", args.Input),
		zap.Int("sample_rate", buf.SampleRate),
		zap.Int("channels", buf.NumChannels()),
		zap.Duration("duration", buf.Duration()))

	envelope, err := waveform.FromBuffer(buf, cfg.Waveform.Columns)
	if err != nil {
		return err
	}
	profile, err := audio.Analyze(buf)
	if err != nil {
		return err
	}

	if args.Waveform != "" {
		if err := writeWaveformImage(args.Waveform, buf, cfg.Waveform, args.Title); err != nil {
			return err
		}
		logger.Info("wrote waveform image", zap.String("path", args.Waveform))
	}

	opts := transcode.Options{
		BlockSize:   cfg.BlockSize,
		BitrateKbps: cfg.BitrateKbps,
		Cadence:     cfg.Cadence,
		NewEncoder:  factory,
		Yielder:     transcode.Pause(cfg.YieldPause()),
		Progress:    m.ObserveEvent,
		Logger:      logger,
	}

	conv := conversion{
		input:        args.Input,
		output:       output,
		originalSize: info.Size(),
		profile:      profile,
		envelope:     envelope,
		metrics:      m,
	}
	if args.NoTUI || !isTerminal(os.Stdout) {
		return conv.runPlain(buf, opts)
	}
	return conv.runTUI(buf, opts)
}

// applyOverrides copies explicitly set flags over the loaded config
func applyOverrides(cfg *config.Config, args CLI) {
	if args.Bitrate != 0 {
		cfg.BitrateKbps = args.Bitrate
	}
	if args.BlockSize != 0 {
		cfg.BlockSize = args.BlockSize
	}
	if args.Cadence != 0 {
		cfg.Cadence = args.Cadence
	}
	if args.Width != 0 {
		cfg.Waveform.Columns = args.Width
	}
	if args.LogLevel != "" {
		cfg.Logging.Level = args.LogLevel
	}
	if args.LogFormat != "" {
		cfg.Logging.Format = args.LogFormat
	}
	if args.LogFile != "" {
		cfg.Logging.Path = args.LogFile
	}
}

// isTerminal reports whether f can host the interactive UI
func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// defaultOutputPath swaps the input extension for the codec's
func defaultOutputPath(input, codec string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + encoder.Extension(codec)
}

func writeWaveformImage(path string, buf *audio.PCMBuffer, cfg config.WaveformConfig, title string) error {
	pairs, err := waveform.FromBuffer(buf, cfg.Width)
	if err != nil {
		return err
	}
	style, err := renderer.StyleFromConfig(cfg, title)
	if err != nil {
		return err
	}
	return renderer.WriteWaveformPNG(path, pairs, style)
}

type conversion struct {
	input        string
	output       string
	originalSize int64
	profile      *audio.AudioProfile
	envelope     []waveform.Pair
	metrics      *metrics.Metrics
}

// finish writes the encoded bytes to the output file
func (c conversion) finish(res *transcode.Result) error {
	if err := os.WriteFile(c.output, res.Data, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	c.metrics.RecordResult(res)
	return nil
}

func (c conversion) runPlain(buf *audio.PCMBuffer, opts transcode.Options) error {
	cli.PrintBanner()
	cli.PrintInfo("Input", c.input)
	cli.PrintInfo("Audio", fmt.Sprintf("%.1fs, %d Hz, %d channel(s)", c.profile.Duration.Seconds(), c.profile.SampleRate, c.profile.Channels))

	last := transcode.Phase(-1)
	observe := opts.Progress
	opts.Progress = func(ev transcode.Event) {
		if observe != nil {
			observe(ev)
		}
		if ev.Phase != last {
			cli.PrintInfo("Phase", fmt.Sprintf("%s (%d%%)", ev.Phase, int(ev.Percent)))
			last = ev.Phase
		}
	}

	res, err := transcode.Transcode(context.Background(), buf, opts)
	if err != nil {
		return err
	}
	if err := c.finish(res); err != nil {
		return err
	}

	cli.PrintTranscodeSummary(c.output, c.originalSize, int64(len(res.Data)), c.profile.Duration, res.Duration)
	return nil
}

func (c conversion) runTUI(buf *audio.PCMBuffer, opts transcode.Options) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := ui.NewModel(cancel)
	p := tea.NewProgram(model)

	go func() {
		p.Send(ui.ProfileMsg{Input: c.input, Profile: c.profile, Envelope: c.envelope})

		job := transcode.Start(ctx, buf, opts)
		for ev := range job.Events() {
			p.Send(ui.ProgressMsg(ev))
		}

		res, err := job.Wait()
		if err == nil {
			err = c.finish(res)
		}
		if err != nil {
			p.Send(ui.FailedMsg{Err: err})
			return
		}
		p.Send(ui.CompleteMsg{
			Output:       c.output,
			OriginalSize: c.originalSize,
			Size:         int64(len(res.Data)),
			Result:       res,
		})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}

	if err := model.Err(); err != nil {
		return err
	}
	if !model.Completed() {
		cli.PrintWarning("conversion cancelled")
		return context.Canceled
	}

	cli.PrintSuccess(fmt.Sprintf("Done! Output: %s", c.output))
	return nil
}
