package core

import (
	"testing"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

func TestReverseBitsLen(t *testing.T) {
	cases := []struct {
		idx, bits, want int
	}{
		{0, 1, 0},
		{1, 1, 1},
		{1, 2, 2},
		{2, 2, 1},
		{3, 2, 3},
		{1, 3, 4},
		{3, 3, 6},
		{5, 4, 10},
		{6, 4, 6},
	}
	for _, c := range cases {
		if got := ReverseBitsLen(c.idx, c.bits); got != c.want {
			t.Errorf("ReverseBitsLen(%d, %d) = %d, want %d", c.idx, c.bits, got, c.want)
		}
	}
}

func TestReverseBitsLenInvolution(t *testing.T) {
	for bits := 1; bits <= 10; bits++ {
		for i := 0; i < 1<<bits; i++ {
			if got := ReverseBitsLen(ReverseBitsLen(i, bits), bits); got != i {
				t.Fatalf("double reversal of %d with %d bits gave %d", i, bits, got)
			}
		}
	}
}

func TestCircleReverseBitsLen(t *testing.T) {
	cases := []struct {
		bits int
		want []int
	}{
		{1, []int{0, 1}},
		{2, []int{0, 3, 1, 2}},
		{3, []int{0, 7, 3, 4, 1, 6, 2, 5}},
	}
	for _, c := range cases {
		for i, want := range c.want {
			if got := CircleReverseBitsLen(i, c.bits); got != want {
				t.Errorf("CircleReverseBitsLen(%d, %d) = %d, want %d", i, c.bits, got, want)
			}
		}
	}
}

func TestCircleReverseBitsLenNesting(t *testing.T) {
	// The permutation of a domain restricts to the permutation of its half:
	// index 2i under bits+1 lands where index i lands under bits.
	for bits := 1; bits <= 8; bits++ {
		for i := 0; i < 1<<bits; i++ {
			if got, want := CircleReverseBitsLen(2*i, bits+1), CircleReverseBitsLen(i, bits); got != want {
				t.Fatalf("bits=%d i=%d: CircleReverseBitsLen(2i) = %d, want %d", bits, i, got, want)
			}
		}
	}
}

func TestReverseSliceIndexBits(t *testing.T) {
	xs := []int{0, 1, 2, 3, 4, 5, 6, 7}
	ReverseSliceIndexBits(xs)
	want := []int{0, 4, 2, 6, 1, 5, 3, 7}
	for i := range xs {
		if xs[i] != want[i] {
			t.Fatalf("after reversal xs = %v, want %v", xs, want)
		}
	}
}

func TestReverseMatrixIndexBits(t *testing.T) {
	m := NewZeroMatrix(8, 2)
	for r := 0; r < 8; r++ {
		m.Set(r, 0, field.New(uint64(r)))
		m.Set(r, 1, field.New(uint64(100+r)))
	}
	ReverseMatrixIndexBits(m)
	for r := 0; r < 8; r++ {
		want := uint64(ReverseBitsLen(r, 3))
		if m.At(r, 0).Value() != want {
			t.Errorf("row %d column 0 = %d, want %d", r, m.At(r, 0).Value(), want)
		}
		if m.At(r, 1).Value() != 100+want {
			t.Errorf("row %d column 1 = %d, want %d", r, m.At(r, 1).Value(), 100+want)
		}
	}
}
