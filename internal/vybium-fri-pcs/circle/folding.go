package circle

import (
	"fmt"

	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/core"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/m31"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/utils"
)

// oneHalf is the inverse of 2 mod 2^31 - 1
var oneHalf = m31.New(1 << 30)

// FoldBivariate performs the first, y-coordinate fold on a circle codeword in
// permuted order: adjacent entries are conjugate pairs, and the fold twiddle
// for pair i is 1/imag of the i-th permuted domain point. The output has half
// the length and lives on the x-projection of the domain.
func FoldBivariate(evals []m31.Element, beta m31.Element) ([]m31.Element, error) {
	h, logH, err := foldedSize(evals)
	if err != nil {
		return nil, err
	}
	dom, err := NewStandard(logH + 1)
	if err != nil {
		return nil, err
	}
	points, err := dom.Points()
	if err != nil {
		return nil, err
	}
	imag := make([]m31.Element, h)
	for i := range imag {
		imag[i] = points[i].Y
	}
	twiddles, err := m31.BatchInverse(imag)
	if err != nil {
		return nil, err
	}
	twiddles, err = Permute(twiddles)
	if err != nil {
		return nil, err
	}
	return foldPairs(evals, beta, twiddles), nil
}

// FoldMatrix performs one x-coordinate fold on a permuted circle codeword:
// the twiddle for pair i is 1/real of the i-th permuted point of the domain
// two sizes up, whose x-projection is the current folding domain.
func FoldMatrix(evals []m31.Element, beta m31.Element) ([]m31.Element, error) {
	h, logH, err := foldedSize(evals)
	if err != nil {
		return nil, err
	}
	dom, err := NewStandard(logH + 2)
	if err != nil {
		return nil, err
	}
	points, err := dom.Points()
	if err != nil {
		return nil, err
	}
	reals := make([]m31.Element, h)
	for i := range reals {
		reals[i] = points[i].X
	}
	twiddles, err := m31.BatchInverse(reals)
	if err != nil {
		return nil, err
	}
	twiddles, err = Permute(twiddles)
	if err != nil {
		return nil, err
	}
	return foldPairs(evals, beta, twiddles), nil
}

// FoldRow folds a single conjugate pair, as the verifier does per query.
// logHeight is the log of the folded (output) height; FoldRow(i, logH, ...)
// agrees entry by entry with FoldMatrix on a 2^(logH+1)-length codeword.
func FoldRow(index, logHeight int, beta, lo, hi m31.Element) (m31.Element, error) {
	shift, err := m31.TwoAdicGenerator(logHeight + 3)
	if err != nil {
		return m31.Zero(), err
	}
	g, err := m31.TwoAdicGenerator(logHeight + 2)
	if err != nil {
		return m31.Zero(), err
	}
	natural := core.CircleReverseBitsLen(index, logHeight)
	x := shift.Mul(g.Exp(uint64(natural))).X
	if x.IsZero() {
		return m31.Zero(), fmt.Errorf("fold twiddle is zero at index %d", index)
	}
	return foldPair(lo, hi, beta, x.Inverse()), nil
}

// MixIn adds a freshly folded codeword into the running accumulator
func MixIn(acc, other []m31.Element) error {
	if len(acc) != len(other) {
		return fmt.Errorf("mix-in length %d does not match accumulator length %d", len(other), len(acc))
	}
	for i := range acc {
		acc[i] = acc[i].Add(other[i])
	}
	return nil
}

func foldedSize(evals []m31.Element) (int, int, error) {
	n := len(evals)
	if n < 2 || !utils.IsPowerOfTwo(n) {
		return 0, 0, fmt.Errorf("codeword length %d is not an even power of two", n)
	}
	h := n / 2
	return h, utils.Log2(h), nil
}

func foldPairs(evals []m31.Element, beta m31.Element, twiddles []m31.Element) []m31.Element {
	out := make([]m31.Element, len(evals)/2)
	for i := range out {
		out[i] = foldPair(evals[2*i], evals[2*i+1], beta, twiddles[i])
	}
	return out
}

// foldPair computes ((lo + hi) + beta * (lo - hi) * t) / 2
func foldPair(lo, hi, beta, t m31.Element) m31.Element {
	sum := lo.Add(hi)
	diff := lo.Sub(hi)
	return sum.Add(beta.Mul(diff).Mul(t)).Mul(oneHalf)
}
