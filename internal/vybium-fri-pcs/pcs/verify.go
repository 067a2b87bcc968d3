package pcs

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/core"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/fri"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/mmcs"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/utils"
)

// Verify checks every claimed evaluation against the batch commitments: it
// re-derives the batching challenge, replays the FRI transcript, and at each
// query index verifies the input openings and recomputes the reduced
// quotients from the claimed values, exactly as the prover built them.
// A proof is only accepted if every opening and every fold chain checks out.
func (p *TwoAdicFriPcs) Verify(rounds []VerifyRound, proof *Proof, ch *utils.Channel) error {
	alpha := ch.SampleElement()

	logGlobalMax := 0
	for ri, round := range rounds {
		for mi, claim := range round.Matrices {
			if len(claim.Values) != len(claim.Points) {
				return fmt.Errorf(
					"round %d matrix %d claims %d value rows for %d points", ri, mi, len(claim.Values), len(claim.Points))
			}
			logH := claim.Domain.Log2Size + p.fri.LogBlowup
			if logH > logGlobalMax {
				logGlobalMax = logH
			}
		}
	}
	if len(proof.InputOpenings) != p.fri.NumQueries {
		return fmt.Errorf(
			"proof has input openings for %d queries, want %d", len(proof.InputOpenings), p.fri.NumQueries)
	}
	for qi, batches := range proof.InputOpenings {
		if len(batches) != len(rounds) {
			return fmt.Errorf(
				"query %d has openings for %d batches, want %d", qi, len(batches), len(rounds))
		}
	}

	inputAt := func(queryNum, index int) (map[int]field.Element, error) {
		return p.reducedAtIndex(rounds, proof.InputOpenings[queryNum], alpha, index, logGlobalMax)
	}
	return fri.Verify(p.fri, p.mmcs, proof.Fri, logGlobalMax, p.cosetShift(), ch, inputAt)
}

// reducedAtIndex verifies one query's input openings and rebuilds the
// per-height reduced quotient values from the claims
func (p *TwoAdicFriPcs) reducedAtIndex(rounds []VerifyRound, openings []BatchOpening, alpha field.Element, index, logGlobalMax int) (map[int]field.Element, error) {
	alphaPows := core.NewPowerCache(alpha)
	numReduced := make(map[int]int)
	reduced := make(map[int]field.Element)

	for ri, round := range rounds {
		opening := openings[ri]
		if len(opening.OpenedValues) != len(round.Matrices) {
			return nil, fmt.Errorf(
				"round %d opened %d matrices, want %d", ri, len(opening.OpenedValues), len(round.Matrices))
		}

		batchMax := 0
		dims := make([]mmcs.Dimensions, len(round.Matrices))
		for mi, claim := range round.Matrices {
			height := claim.Domain.Size() << p.fri.LogBlowup
			dims[mi] = mmcs.Dimensions{Width: len(opening.OpenedValues[mi]), Height: height}
			if height > batchMax {
				batchMax = height
			}
		}
		logBatchMax := utils.Log2(batchMax)
		batchIndex := index >> (logGlobalMax - logBatchMax)

		if err := p.mmcs.VerifyBatch(round.Commitment, dims, batchIndex, opening.OpenedValues, opening.Proof); err != nil {
			return nil, fmt.Errorf("round %d input opening at index %d: %w", ri, batchIndex, err)
		}

		for mi, claim := range round.Matrices {
			logH := utils.Log2(dims[mi].Height)
			row := opening.OpenedValues[mi]
			rowIndex := batchIndex >> (logBatchMax - logH)

			g := field.PrimitiveRootOfUnity(uint64(1) << logH)
			x := p.cosetShift().Mul(g.ModPow(uint64(core.ReverseBitsLen(rowIndex, logH))))

			if _, ok := reduced[logH]; !ok {
				reduced[logH] = field.Zero
			}
			for pi, z := range claim.Points {
				if len(claim.Values[pi]) != len(row) {
					return nil, fmt.Errorf(
						"round %d matrix %d point %d claims %d values for a width-%d row",
						ri, mi, pi, len(claim.Values[pi]), len(row))
				}
				diff := x.Sub(z)
				if diff.IsZero() {
					return nil, fmt.Errorf("opening point lies on the evaluation coset")
				}
				invDenom := diff.Inverse()

				aps := alphaPows.Range(numReduced[logH], len(row))
				acc := field.Zero
				for c := range row {
					acc = acc.Add(aps[c].Mul(row[c].Sub(claim.Values[pi][c])))
				}
				reduced[logH] = reduced[logH].Add(acc.Mul(invDenom))
				numReduced[logH] += len(row)
			}
		}
	}

	return reduced, nil
}
