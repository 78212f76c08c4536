package transcode

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/linuxmatters/emberwave/internal/config"
)

// Phase is a pipeline stage. Phases only ever advance.
type Phase int

const (
	PhasePreparing Phase = iota
	PhaseEncoding
	PhaseFinalizing
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhasePreparing:
		return "preparing"
	case PhaseEncoding:
		return "encoding"
	case PhaseFinalizing:
		return "finalizing"
	case PhaseComplete:
		return "complete"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// span returns the percent range a phase's fraction is mapped into
func (p Phase) span() (lo, hi float64) {
	switch p {
	case PhasePreparing:
		return config.PreparingStart, config.EncodingStart
	case PhaseEncoding:
		return config.EncodingStart, config.FinalizingStart
	case PhaseFinalizing:
		return config.FinalizingStart, config.Complete
	default:
		return config.Complete, config.Complete
	}
}

// Event is one progress update
type Event struct {
	Phase       Phase
	Percent     float64 // 0-100, never decreasing within a run
	Frame       int     // Frames submitted so far
	TotalFrames int
}

// Yielder hands control back to the scheduler between units of work. It
// returns ctx.Err() when the run should stop.
type Yielder interface {
	Yield(ctx context.Context) error
}

type yieldFunc func(ctx context.Context) error

func (f yieldFunc) Yield(ctx context.Context) error { return f(ctx) }

// Gosched yields the processor to other goroutines
func Gosched() Yielder {
	return yieldFunc(func(ctx context.Context) error {
		runtime.Gosched()
		return ctx.Err()
	})
}

// Pause suspends for d at every yield point, returning early if ctx is done
func Pause(d time.Duration) Yielder {
	if d <= 0 {
		return Gosched()
	}
	return yieldFunc(func(ctx context.Context) error {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	})
}

// Reporter maps phase fractions onto the 0-100 scale and delivers events.
// Percent is held monotonic and a phase may not follow a later one.
type Reporter struct {
	emit    func(Event)
	yielder Yielder
	last    Event
	started bool
}

// NewReporter creates a reporter. emit may be nil; yielder defaults to Gosched.
func NewReporter(emit func(Event), yielder Yielder) *Reporter {
	if yielder == nil {
		yielder = Gosched()
	}
	return &Reporter{emit: emit, yielder: yielder}
}

// Percent maps a fraction of a phase onto the overall scale
func Percent(phase Phase, fraction float64) float64 {
	lo, hi := phase.span()
	fraction = max(0, min(1, fraction))
	return lo + fraction*(hi-lo)
}

// Update emits an event without yielding
func (r *Reporter) Update(phase Phase, fraction float64) {
	r.deliver(Event{Phase: phase, Percent: Percent(phase, fraction)})
}

// Frames emits an encoding event for done of total frames without yielding
func (r *Reporter) Frames(done, total int) {
	var fraction float64
	if total > 0 {
		fraction = float64(done) / float64(total)
	}
	r.deliver(Event{
		Phase:       PhaseEncoding,
		Percent:     Percent(PhaseEncoding, fraction),
		Frame:       done,
		TotalFrames: total,
	})
}

// Report emits an event and then yields once
func (r *Reporter) Report(ctx context.Context, phase Phase, fraction float64) error {
	r.Update(phase, fraction)
	return r.Yield(ctx)
}

// Yield performs one cooperative yield
func (r *Reporter) Yield(ctx context.Context) error {
	return r.yielder.Yield(ctx)
}

// Last returns the most recent event
func (r *Reporter) Last() Event {
	return r.last
}

func (r *Reporter) deliver(ev Event) {
	if r.started {
		if ev.Phase < r.last.Phase {
			panic(fmt.Sprintf("transcode: progress phase %s reported after %s", ev.Phase, r.last.Phase))
		}
		ev.Percent = max(ev.Percent, r.last.Percent)
		if ev.TotalFrames == 0 {
			ev.Frame, ev.TotalFrames = r.last.Frame, r.last.TotalFrames
		}
	}
	r.last = ev
	r.started = true
	if r.emit != nil {
		r.emit(ev)
	}
}
