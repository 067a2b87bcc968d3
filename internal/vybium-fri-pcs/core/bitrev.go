package core

import "math/bits"

// ReverseBitsLen reverses the low bitLen bits of idx
func ReverseBitsLen(idx, bitLen int) int {
	return int(bits.Reverse64(uint64(idx)) >> (64 - bitLen))
}

// CircleReverseBitsLen maps idx through the circle-domain bit-reversal: the
// bits are reversed, then each set bit flips all bits below it, taken from the
// lowest set bit upwards. After permuting a standard circle domain with this
// index map, entries 2i and 2i+1 are complex conjugates of one another.
func CircleReverseBitsLen(idx, bitLen int) int {
	idx = ReverseBitsLen(idx, bitLen)
	for i := 0; i < bitLen; i++ {
		if idx&(1<<i) != 0 {
			idx ^= (1 << i) - 1
		}
	}
	return idx
}

// ReverseSliceIndexBits permutes xs in place so that entry i moves to the
// bit-reversed index. The length must be a power of two.
func ReverseSliceIndexBits[T any](xs []T) {
	n := len(xs)
	if n <= 2 {
		return
	}
	bitLen := bits.TrailingZeros64(uint64(n))
	for i := 0; i < n; i++ {
		j := ReverseBitsLen(i, bitLen)
		if i < j {
			xs[i], xs[j] = xs[j], xs[i]
		}
	}
}

// ReverseMatrixIndexBits permutes the rows of m in place by bit-reversed row
// index. The height must be a power of two.
func ReverseMatrixIndexBits(m *Matrix) {
	h := m.Height()
	if h <= 2 {
		return
	}
	bitLen := bits.TrailingZeros64(uint64(h))
	for r := 0; r < h; r++ {
		s := ReverseBitsLen(r, bitLen)
		if r < s {
			rowR := m.Row(r)
			rowS := m.Row(s)
			for c := range rowR {
				rowR[c], rowS[c] = rowS[c], rowR[c]
			}
		}
	}
}
