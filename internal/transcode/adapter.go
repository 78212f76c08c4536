package transcode

import (
	"errors"
	"fmt"

	"github.com/linuxmatters/emberwave/internal/encoder"
)

// Adapter owns one encoder handle and drives it through the strict
// submit...submit...flush protocol, collecting the chunks it returns.
// It is not safe for concurrent use.
type Adapter struct {
	enc      encoder.Encoder
	stereo   bool
	chunks   [][]byte
	size     int
	emitted  int
	next     int // index of the next frame to submit
	finished bool
}

// NewAdapter wraps enc. When stereo is false only the left channel is
// submitted.
func NewAdapter(enc encoder.Encoder, stereo bool) *Adapter {
	return &Adapter{enc: enc, stereo: stereo}
}

// Submit hands one frame to the encoder. Frames must arrive in strictly
// increasing index order starting at zero; anything else corrupts the
// encoder state and panics.
func (a *Adapter) Submit(index int, left, right []int16) error {
	if a.finished {
		panic("transcode: frame submitted after Finish or Abort")
	}
	if index != a.next {
		panic(fmt.Sprintf("transcode: frame %d submitted out of order, expected %d", index, a.next))
	}
	a.next++

	if !a.stereo {
		right = nil
	}
	chunk, err := a.enc.Submit(left, right)
	if err != nil {
		return a.fail(fmt.Errorf("frame %d: %w", index, err))
	}
	a.append(chunk)
	return nil
}

// Finish flushes the encoder exactly once and returns every chunk
// concatenated in emission order. The chunk list is cleared and the encoder
// closed whether or not the flush succeeds.
func (a *Adapter) Finish() ([]byte, error) {
	if a.finished {
		panic("transcode: Finish called twice")
	}

	tail, err := a.enc.Flush()
	if err != nil {
		return nil, a.fail(fmt.Errorf("flush: %w", err))
	}
	a.append(tail)

	output := make([]byte, 0, a.size)
	for _, chunk := range a.chunks {
		output = append(output, chunk...)
	}
	a.chunks = nil
	a.size = 0
	a.finished = true

	if err := a.enc.Close(); err != nil {
		return nil, fmt.Errorf("%w: close: %v", encoder.ErrEncodingFailed, err)
	}
	return output, nil
}

// Abort discards collected output and releases the encoder. It is safe to
// call after Finish or a failed Submit.
func (a *Adapter) Abort() {
	if a.finished {
		return
	}
	a.chunks = nil
	a.size = 0
	a.finished = true
	_ = a.enc.Close()
}

// Frames reports how many frames have been submitted
func (a *Adapter) Frames() int {
	return a.next
}

// Chunks reports how many non-empty chunks the encoder has produced
func (a *Adapter) Chunks() int {
	return a.emitted
}

func (a *Adapter) append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	a.chunks = append(a.chunks, chunk)
	a.size += len(chunk)
	a.emitted++
}

// fail aborts and makes sure err carries ErrEncodingFailed
func (a *Adapter) fail(err error) error {
	a.Abort()
	if !errors.Is(err, encoder.ErrEncodingFailed) {
		err = fmt.Errorf("%w: %w", encoder.ErrEncodingFailed, err)
	}
	return err
}
