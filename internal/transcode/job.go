package transcode

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/linuxmatters/emberwave/internal/audio"
)

// Job is a transcode running on its own goroutine. The caller's goroutine
// (typically a UI loop) consumes Events and collects the outcome with Wait.
type Job struct {
	ID     string
	events chan Event
	done   chan struct{}
	cancel context.CancelFunc

	result *Result
	err    error
}

// Start launches Transcode for buf on a new goroutine. The events channel is
// sized for every event the run can emit, so a slow reader never stalls the
// encoder. It is closed when the run ends.
func Start(ctx context.Context, buf *audio.PCMBuffer, opts Options) *Job {
	ctx, cancel := context.WithCancel(ctx)
	j := &Job{
		ID:     uuid.NewString(),
		events: make(chan Event, eventCapacity(buf, opts)),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	if opts.Logger != nil {
		opts.Logger = opts.Logger.With(zap.String("job", j.ID))
	}
	progress := opts.Progress
	opts.Progress = func(ev Event) {
		j.events <- ev
		if progress != nil {
			progress(ev)
		}
	}

	go func() {
		defer close(j.done)
		defer close(j.events)
		defer cancel()
		j.result, j.err = Transcode(ctx, buf, opts)
	}()
	return j
}

// Events returns the progress stream
func (j *Job) Events() <-chan Event {
	return j.events
}

// Cancel asks the job to stop at its next yield point
func (j *Job) Cancel() {
	j.cancel()
}

// Done is closed when the job has finished
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes and returns its outcome
func (j *Job) Wait() (*Result, error) {
	<-j.done
	return j.result, j.err
}

// eventCapacity bounds the number of events one run emits: preparing, the
// first encoding update, one per cadence boundary, finalizing and complete.
func eventCapacity(buf *audio.PCMBuffer, opts Options) int {
	const fixed = 5
	if buf == nil || len(buf.Channels) == 0 {
		return fixed
	}
	opts, err := opts.withDefaults()
	if err != nil || opts.BlockSize <= 0 || opts.Cadence <= 0 {
		return fixed
	}
	return FrameCount(len(buf.Channels[0]), opts.BlockSize)/opts.Cadence + fixed
}
