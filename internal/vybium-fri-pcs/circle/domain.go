// Package circle implements folding over circle domains: standard-position
// cosets of the Mersenne-31 unit circle, permuted so that adjacent entries
// are conjugate pairs. One bivariate fold removes the y coordinate; each
// further fold halves the degree in x through the squaring map 2x^2 - 1.
package circle

import (
	"fmt"

	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/core"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/m31"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/utils"
)

// Domain is the standard-position circle coset of size 2^LogN: the coset
// shift * <g> with shift a generator of the order-2^(LogN+1) subgroup and g
// the generator of the order-2^LogN subgroup.
type Domain struct {
	LogN int
}

// NewStandard creates the standard-position domain of size 2^logN
func NewStandard(logN int) (Domain, error) {
	if logN < 0 || logN >= m31.MaxTwoAdicity {
		return Domain{}, fmt.Errorf("circle domain log size %d out of range [0, %d)", logN, m31.MaxTwoAdicity)
	}
	return Domain{LogN: logN}, nil
}

// Size returns the number of points in the domain
func (d Domain) Size() int {
	return 1 << d.LogN
}

// Shift returns the coset shift, a generator of the order-2^(LogN+1) subgroup
func (d Domain) Shift() (m31.Point, error) {
	return m31.TwoAdicGenerator(d.LogN + 1)
}

// Generator returns the subgroup generator of order 2^LogN
func (d Domain) Generator() (m31.Point, error) {
	return m31.TwoAdicGenerator(d.LogN)
}

// Points returns the domain points shift * g^j in natural order.
// Point j and point 2^LogN - 1 - j are conjugates of one another.
func (d Domain) Points() ([]m31.Point, error) {
	shift, err := d.Shift()
	if err != nil {
		return nil, err
	}
	g, err := d.Generator()
	if err != nil {
		return nil, err
	}
	points := make([]m31.Point, d.Size())
	cur := shift
	for j := range points {
		points[j] = cur
		cur = cur.Mul(g)
	}
	return points, nil
}

// PermuteIndex maps a permuted position back to its natural domain index
func PermuteIndex(idx, logN int) int {
	return core.CircleReverseBitsLen(idx, logN)
}

// Permute reorders natural-order values into the circle bit-reversed layout,
// in which entries 2i and 2i+1 sit on conjugate points. The length must be a
// power of two.
func Permute(values []m31.Element) ([]m31.Element, error) {
	n := len(values)
	if !utils.IsPowerOfTwo(n) {
		return nil, fmt.Errorf("permutation length %d is not a power of two", n)
	}
	logN := utils.Log2(n)
	out := make([]m31.Element, n)
	for i := range out {
		out[i] = values[PermuteIndex(i, logN)]
	}
	return out, nil
}
