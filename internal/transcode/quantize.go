package transcode

import "math"

// Quantize converts a normalised sample to 16-bit PCM. The scaled value is
// clamped to [-32768, 32767] and truncated toward zero, so inputs outside
// [-1, 1] saturate instead of wrapping. s must be finite; NaN maps to 0.
func Quantize(s float32) int16 {
	if s != s {
		return 0
	}
	v := float64(s) * 32768
	v = math.Max(math.MinInt16, math.Min(math.MaxInt16, v))
	return int16(v)
}

// QuantizeInto quantises src into dst, growing dst only when it is too short
func QuantizeInto(dst []int16, src []float32) []int16 {
	if cap(dst) < len(src) {
		dst = make([]int16, len(src))
	}
	dst = dst[:len(src)]
	for i, s := range src {
		dst[i] = Quantize(s)
	}
	return dst
}
