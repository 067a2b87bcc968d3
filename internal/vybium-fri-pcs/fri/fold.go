package fri

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/core"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/utils"
)

var oneHalf = field.New(2).Inverse()

// foldTwiddles returns the inverse domain points 1/(shift * g^rev(i)) for the
// h/2 pairs of a bit-reversed codeword over the coset shift * <g> of size
// 2^logH. Pair i of the codeword sits on the points +-(shift * g^rev(i)).
func foldTwiddles(logH int, shift field.Element) ([]field.Element, error) {
	half := (1 << logH) / 2
	g := field.PrimitiveRootOfUnity(uint64(1) << logH)
	points := make([]field.Element, half)
	cur := shift
	for i := range points {
		points[i] = cur
		cur = cur.Mul(g)
	}
	core.ReverseSliceIndexBits(points)
	return core.BatchInverse(points)
}

// FoldEvals folds a bit-reversed codeword over shift * <g> in half with
// challenge beta. The result is a bit-reversed codeword over shift^2 * <g^2>.
func FoldEvals(evals []field.Element, beta, shift field.Element) ([]field.Element, error) {
	n := len(evals)
	if n < 2 || !utils.IsPowerOfTwo(n) {
		return nil, fmt.Errorf("codeword length %d is not an even power of two", n)
	}
	twiddles, err := foldTwiddles(utils.Log2(n), shift)
	if err != nil {
		return nil, err
	}
	out := make([]field.Element, n/2)
	for i := range out {
		out[i] = foldPair(evals[2*i], evals[2*i+1], beta, twiddles[i])
	}
	return out, nil
}

// FoldRow folds a single pair, as the verifier does per query. logHeight is
// the log of the unfolded (input) codeword height and index is the pair
// index, i.e. the row of the committed (h/2) x 2 pair matrix.
func FoldRow(index, logHeight int, beta, shift, lo, hi field.Element) field.Element {
	g := field.PrimitiveRootOfUnity(uint64(1) << logHeight)
	point := shift.Mul(g.ModPow(uint64(core.ReverseBitsLen(index, logHeight-1))))
	return foldPair(lo, hi, beta, point.Inverse())
}

// foldPair computes ((lo + hi) + beta * (lo - hi) * t) / 2, the evaluation at
// the squared point of the degree-halved combination p_even + beta * p_odd.
func foldPair(lo, hi, beta, t field.Element) field.Element {
	sum := lo.Add(hi)
	diff := lo.Sub(hi)
	return sum.Add(beta.Mul(diff).Mul(t)).Mul(oneHalf)
}
