// Package pcs implements a polynomial commitment scheme from FRI over
// two-adic Goldilocks cosets. Committing is a coset low-degree extension of
// each polynomial batch into one mixed-height Merkle tree; opening reduces
// all (polynomial, point) claims to quotients, batches them with a random
// challenge, and proves the batch low-degree with FRI.
package pcs

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/core"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/dft"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/fri"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/mmcs"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/utils"
)

// multiplicativeGenerator generates the full multiplicative group of the
// Goldilocks field; every committed evaluation lives on one of its cosets.
const multiplicativeGenerator uint64 = 7

// TwoAdicFriPcs is a FRI-based polynomial commitment scheme
type TwoAdicFriPcs struct {
	fri  fri.Config
	dft  *dft.Radix2DitParallel
	mmcs *mmcs.MerkleMMCS
}

// New creates a PCS from a FRI config, a transform engine, and a commitment
// scheme
func New(cfg fri.Config, engine *dft.Radix2DitParallel, m *mmcs.MerkleMMCS) (*TwoAdicFriPcs, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fri config: %w", err)
	}
	return &TwoAdicFriPcs{fri: cfg, dft: engine, mmcs: m}, nil
}

// cosetShift is the shift of the evaluation coset shared by every committed
// matrix, independent of its natural domain
func (p *TwoAdicFriPcs) cosetShift() field.Element {
	return field.New(multiplicativeGenerator)
}

// NaturalDomainForDegree returns the smallest two-adic subgroup domain fitting
// the given polynomial degree bound
func (p *TwoAdicFriPcs) NaturalDomainForDegree(degree int) (dft.Domain, error) {
	if degree <= 0 {
		return dft.Domain{}, fmt.Errorf("degree bound must be positive, got %d", degree)
	}
	return dft.NewDomain(utils.Log2(utils.NextPowerOfTwo(degree)), field.One)
}

// Commit extends each evaluation matrix onto its blown-up coset and commits
// the whole batch in one Merkle tree. The LDE of a matrix over domain s * <g>
// uses the coset shift g0 / s, so all committed evaluations sit on cosets of
// the fixed generator g0 and the opening layer can treat them uniformly.
func (p *TwoAdicFriPcs) Commit(batch []DomainMatrix) (mmcs.Commitment, *mmcs.ProverData, error) {
	ldes := make([]*core.Matrix, len(batch))
	for i, dm := range batch {
		if dm.Evals.Height() != dm.Domain.Size() {
			return mmcs.Commitment{}, nil, fmt.Errorf(
				"matrix %d has height %d but its domain has size %d", i, dm.Evals.Height(), dm.Domain.Size())
		}
		shift := p.cosetShift().Mul(dm.Domain.Shift.Inverse())
		lde, err := p.dft.CosetLDEBatch(dm.Evals.Clone(), p.fri.LogBlowup, shift)
		if err != nil {
			return mmcs.Commitment{}, nil, fmt.Errorf("extending matrix %d: %w", i, err)
		}
		ldes[i] = lde
	}
	return p.mmcs.Commit(ldes)
}

// Open proves evaluation claims for any number of committed batches. For
// every (matrix, point) pair the claimed value is interpolated from the
// committed coset, the quotient (p(x) - p(z)) / (x - z) is batched into a
// per-height accumulator with powers of a transcript challenge, and the
// accumulators are handed to FRI. Returns the claimed values and the proof.
func (p *TwoAdicFriPcs) Open(rounds []OpenRound, ch *utils.Channel) (OpenedValues, *Proof, error) {
	alpha := ch.SampleElement()
	alphaPows := core.NewPowerCache(alpha)
	numReduced := make(map[int]int)
	reduced := make(map[int][]field.Element)

	opened := make(OpenedValues, len(rounds))
	for ri, round := range rounds {
		mats := p.mmcs.GetMatrices(round.Data)
		if len(round.Points) != len(mats) {
			return nil, nil, fmt.Errorf(
				"round %d has %d point lists for %d matrices", ri, len(round.Points), len(mats))
		}
		opened[ri] = make([][][]field.Element, len(mats))
		for mi, mat := range mats {
			values, err := p.reduceMatrix(mat, round.Points[mi], alphaPows, numReduced, reduced)
			if err != nil {
				return nil, nil, fmt.Errorf("round %d matrix %d: %w", ri, mi, err)
			}
			opened[ri][mi] = values
		}
	}

	friProof, indices, err := fri.Prove(p.fri, p.mmcs, reduced, p.cosetShift(), ch)
	if err != nil {
		return nil, nil, fmt.Errorf("fri prove: %w", err)
	}

	logGlobalMax := 0
	for logH := range reduced {
		if logH > logGlobalMax {
			logGlobalMax = logH
		}
	}

	inputOpenings := make([][]BatchOpening, len(indices))
	for qi, index := range indices {
		inputOpenings[qi] = make([]BatchOpening, len(rounds))
		for ri, round := range rounds {
			batchMax := p.mmcs.MaxHeight(round.Data)
			batchIndex := index >> (logGlobalMax - utils.Log2(batchMax))
			rows, path, err := p.mmcs.OpenBatch(batchIndex, round.Data)
			if err != nil {
				return nil, nil, fmt.Errorf("opening round %d at index %d: %w", ri, batchIndex, err)
			}
			inputOpenings[qi][ri] = BatchOpening{OpenedValues: rows, Proof: path}
		}
	}

	return opened, &Proof{Fri: friProof, InputOpenings: inputOpenings}, nil
}

// reduceMatrix interpolates the claimed values of one committed matrix at
// each point and folds its quotients into the per-height accumulator
func (p *TwoAdicFriPcs) reduceMatrix(mat *core.Matrix, points []field.Element, alphaPows *core.PowerCache, numReduced map[int]int, reduced map[int][]field.Element) ([][]field.Element, error) {
	height := mat.Height()
	logH := utils.Log2(height)
	if logH < 0 {
		return nil, fmt.Errorf("matrix height %d is not a power of two", height)
	}
	accumulator, ok := reduced[logH]
	if !ok {
		accumulator = make([]field.Element, height)
		reduced[logH] = accumulator
	}

	xs := p.bitReversedCosetPoints(logH)

	// One inversion pass covers every (point, row) denominator; the first
	// h entries of each point's row double as barycentric weights below.
	diffs := make([]field.Element, 0, height*len(points))
	for _, z := range points {
		for _, x := range xs {
			diffs = append(diffs, x.Sub(z))
		}
	}
	invDenoms, err := core.BatchInverse(diffs)
	if err != nil {
		return nil, fmt.Errorf("opening point lies on the evaluation coset: %w", err)
	}

	values := make([][]field.Element, len(points))
	for pi, z := range points {
		invRow := invDenoms[pi*height : (pi+1)*height]
		values[pi] = p.interpolateLowCoset(mat, xs, invRow, z)

		aps := alphaPows.Range(numReduced[logH], mat.Width)
		for i := 0; i < height; i++ {
			row := mat.Row(i)
			acc := field.Zero
			for c := range row {
				acc = acc.Add(aps[c].Mul(row[c].Sub(values[pi][c])))
			}
			accumulator[i] = accumulator[i].Add(acc.Mul(invRow[i]))
		}
		numReduced[logH] += mat.Width
	}
	return values, nil
}

// bitReversedCosetPoints returns the committed evaluation points
// g0 * g^rev(i) in storage order
func (p *TwoAdicFriPcs) bitReversedCosetPoints(logH int) []field.Element {
	g := field.PrimitiveRootOfUnity(uint64(1) << logH)
	xs := make([]field.Element, 1<<logH)
	cur := p.cosetShift()
	for i := range xs {
		xs[i] = cur
		cur = cur.Mul(g)
	}
	core.ReverseSliceIndexBits(xs)
	return xs
}

// interpolateLowCoset evaluates each column at z by coset barycentric
// interpolation over the first h storage rows, which are exactly the
// bit-reversed evaluations over the un-blown-up coset g0 * <g_h>:
//
//	p(z) = ((z/s)^h - 1) / h * sum_i p(x_i) * x_i / (z - x_i)
func (p *TwoAdicFriPcs) interpolateLowCoset(mat *core.Matrix, xs, invDenoms []field.Element, z field.Element) []field.Element {
	h := mat.Height() >> p.fri.LogBlowup
	shiftInv := p.cosetShift().Inverse()
	vanishing := z.Mul(shiftInv).ModPow(uint64(h)).Sub(field.One)
	// invDenoms holds 1/(x - z); the sign flip folds into the scale factor
	scale := field.Zero.Sub(vanishing.Mul(field.New(uint64(h)).Inverse()))

	values := make([]field.Element, mat.Width)
	for i := 0; i < h; i++ {
		weight := xs[i].Mul(invDenoms[i])
		row := mat.Row(i)
		for c := range values {
			values[c] = values[c].Add(weight.Mul(row[c]))
		}
	}
	for c := range values {
		values[c] = scale.Mul(values[c])
	}
	return values
}
