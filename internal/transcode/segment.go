package transcode

import "iter"

// Frame is the half-open sample range [Start, End) of one encoder block
type Frame struct {
	Index int
	Start int
	End   int
}

// Len returns the number of valid samples in the frame
func (f Frame) Len() int {
	return f.End - f.Start
}

// FrameCount returns ceil(n / blockSize)
func FrameCount(n, blockSize int) int {
	if n <= 0 || blockSize <= 0 {
		return 0
	}
	return (n + blockSize - 1) / blockSize
}

// Frames lazily partitions n samples into blocks of blockSize. The final
// frame is shorter when blockSize does not divide n.
func Frames(n, blockSize int) iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		if blockSize <= 0 {
			return
		}
		for i, start := 0, 0; start < n; i, start = i+1, start+blockSize {
			if !yield(Frame{Index: i, Start: start, End: min(start+blockSize, n)}) {
				return
			}
		}
	}
}
