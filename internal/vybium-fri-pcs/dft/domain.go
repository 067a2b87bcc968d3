// Package dft implements a parallel radix-2 decimation-in-time transform
// over the Goldilocks field, with memoized twiddle factors and coset
// low-degree extension. Evaluation outputs are stored in bit-reversed row
// order, which is the layout the commitment layers consume directly.
package dft

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Domain is a multiplicative coset shift * <g> of two-adic size
type Domain struct {
	Log2Size int
	Shift    field.Element
}

// NewDomain creates a coset domain of size 2^log2Size
func NewDomain(log2Size int, shift field.Element) (Domain, error) {
	if log2Size < 0 || log2Size > 32 {
		return Domain{}, fmt.Errorf("domain log size %d out of range [0, 32]", log2Size)
	}
	return Domain{Log2Size: log2Size, Shift: shift}, nil
}

// Size returns the number of points in the domain
func (d Domain) Size() int {
	return 1 << d.Log2Size
}

// Generator returns the subgroup generator of order 2^Log2Size
func (d Domain) Generator() field.Element {
	return field.PrimitiveRootOfUnity(uint64(1) << d.Log2Size)
}

// Points returns the domain points shift * g^k in natural order
func (d Domain) Points() []field.Element {
	g := d.Generator()
	points := make([]field.Element, d.Size())
	cur := d.Shift
	for i := range points {
		points[i] = cur
		cur = cur.Mul(g)
	}
	return points
}
