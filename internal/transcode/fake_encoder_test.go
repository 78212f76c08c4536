package transcode

import (
	"errors"

	"github.com/linuxmatters/emberwave/internal/encoder"
)

var errFakeFault = errors.New("fake encoder fault")

// fakeEncoder records what it is fed. Odd-numbered submissions return an
// empty chunk; even ones return a single byte holding the frame index.
type fakeEncoder struct {
	cfg       encoder.Config
	lengths   []int
	gotRight  []bool
	failAt    int // Submission index that faults, -1 for none
	failFlush bool
	tail      []byte
	flushes   int
	closed    bool
}

func newFakeEncoder() *fakeEncoder {
	return &fakeEncoder{failAt: -1}
}

func (f *fakeEncoder) factory() encoder.Factory {
	return func(cfg encoder.Config) (encoder.Encoder, error) {
		f.cfg = cfg
		return f, nil
	}
}

func (f *fakeEncoder) Submit(left, right []int16) ([]byte, error) {
	idx := len(f.lengths)
	if idx == f.failAt {
		return nil, errFakeFault
	}
	f.lengths = append(f.lengths, len(left))
	f.gotRight = append(f.gotRight, right != nil)
	if idx%2 == 1 {
		return nil, nil
	}
	return []byte{byte(idx)}, nil
}

func (f *fakeEncoder) Flush() ([]byte, error) {
	f.flushes++
	if f.failFlush {
		return nil, errFakeFault
	}
	return f.tail, nil
}

func (f *fakeEncoder) Close() error {
	f.closed = true
	return nil
}
