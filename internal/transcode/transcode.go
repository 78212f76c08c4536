// Package transcode turns a decoded PCM buffer into an encoded byte stream,
// reporting progress and yielding cooperatively while it works.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/linuxmatters/emberwave/internal/audio"
	"github.com/linuxmatters/emberwave/internal/config"
	"github.com/linuxmatters/emberwave/internal/encoder"
)

// Options configures a transcode run. Zero values take the defaults from
// the config package.
type Options struct {
	BlockSize   int // Samples per channel per encoder submission
	BitrateKbps int
	Cadence     int // Frames between encoding progress updates

	NewEncoder encoder.Factory // Defaults to encoder.NewMP3
	Yielder    Yielder         // Defaults to Gosched
	Progress   func(Event)     // Optional; called on the transcoding goroutine
	Logger     *zap.Logger
}

// Result is the output of a successful run
type Result struct {
	Data       []byte
	Frames     int
	Chunks     int // Non-empty chunks concatenated into Data
	Channels   int
	SampleRate int
	Duration   time.Duration // Wall time spent transcoding
}

func (o Options) withDefaults() (Options, error) {
	if o.BlockSize == 0 {
		o.BlockSize = config.BlockSize
	}
	if o.BitrateKbps == 0 {
		o.BitrateKbps = config.BitrateKbps
	}
	if o.Cadence == 0 {
		o.Cadence = config.ProgressCadence
	}
	if o.NewEncoder == nil {
		o.NewEncoder = encoder.NewMP3
	}
	if o.Yielder == nil {
		o.Yielder = Gosched()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	switch {
	case o.BlockSize < 0:
		return o, fmt.Errorf("%w: block size must be positive, got %d", config.ErrInvalidConfiguration, o.BlockSize)
	case o.BitrateKbps < 0:
		return o, fmt.Errorf("%w: bitrate must be positive, got %d", config.ErrInvalidConfiguration, o.BitrateKbps)
	case o.Cadence < 0:
		return o, fmt.Errorf("%w: progress cadence must be positive, got %d", config.ErrInvalidConfiguration, o.Cadence)
	}
	return o, nil
}

// Transcode encodes buf. Configuration problems are reported before any
// progress event is emitted. Once encoding starts the encoder is owned by
// this call and is closed on every return path; on failure or cancellation
// no partial output is returned.
//
// Cancellation is observed only at yield points, never in the middle of a
// frame submission.
func Transcode(ctx context.Context, buf *audio.PCMBuffer, opts Options) (*Result, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	left, right, stereo := buf.StereoPair()
	channels := 1
	if stereo {
		channels = 2
	}
	n := len(left)
	total := FrameCount(n, opts.BlockSize)
	log := opts.Logger

	enc, err := opts.NewEncoder(encoder.Config{
		Channels:    channels,
		SampleRate:  buf.SampleRate,
		BitrateKbps: opts.BitrateKbps,
	})
	if err != nil {
		if !errors.Is(err, config.ErrInvalidConfiguration) && !errors.Is(err, encoder.ErrEncodingFailed) {
			err = fmt.Errorf("%w: %w", encoder.ErrEncodingFailed, err)
		}
		return nil, err
	}

	adapter := NewAdapter(enc, stereo)
	defer adapter.Abort()

	start := time.Now()
	log.Debug("transcode started",
		zap.Int("channels", channels),
		zap.Int("sample_rate", buf.SampleRate),
		zap.Int("samples", n),
		zap.Int("frames", total),
		zap.Int("block_size", opts.BlockSize),
		zap.Int("bitrate_kbps", opts.BitrateKbps))

	rep := NewReporter(opts.Progress, opts.Yielder)
	if err := rep.Report(ctx, PhasePreparing, 0.5); err != nil {
		log.Debug("transcode cancelled while preparing", zap.Error(err))
		return nil, err
	}

	rep.Frames(0, total)
	lbuf := make([]int16, 0, opts.BlockSize)
	var rbuf []int16
	if stereo {
		rbuf = make([]int16, 0, opts.BlockSize)
	}

	for f := range Frames(n, opts.BlockSize) {
		lbuf = QuantizeInto(lbuf, left[f.Start:f.End])
		var r []int16
		if stereo {
			rbuf = QuantizeInto(rbuf, right[f.Start:f.End])
			r = rbuf
		}
		if err := adapter.Submit(f.Index, lbuf, r); err != nil {
			log.Warn("encoder fault", zap.Int("frame", f.Index), zap.Error(err))
			return nil, err
		}

		done := f.Index + 1
		if done%opts.Cadence == 0 {
			rep.Frames(done, total)
			if err := rep.Yield(ctx); err != nil {
				log.Debug("transcode cancelled", zap.Int("frame", done), zap.Error(err))
				return nil, err
			}
		}
	}

	data, err := adapter.Finish()
	if err != nil {
		log.Warn("encoder flush failed", zap.Error(err))
		return nil, err
	}

	if err := rep.Report(ctx, PhaseFinalizing, 0.6); err != nil {
		log.Debug("transcode cancelled while finalizing", zap.Error(err))
		return nil, err
	}

	result := &Result{
		Data:       data,
		Frames:     total,
		Chunks:     adapter.Chunks(),
		Channels:   channels,
		SampleRate: buf.SampleRate,
		Duration:   time.Since(start),
	}

	rep.Update(PhaseComplete, 1)
	// The output is complete; a cancellation arriving now does not discard it.
	_ = rep.Yield(ctx)

	log.Info("transcode complete",
		zap.Int("bytes", len(data)),
		zap.Int("frames", total),
		zap.Int("chunks", result.Chunks),
		zap.Duration("elapsed", result.Duration))
	return result, nil
}
