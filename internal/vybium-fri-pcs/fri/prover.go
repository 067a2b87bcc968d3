package fri

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/core"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/mmcs"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/utils"
)

// Prove runs the commit and query phases over a family of bit-reversed
// codewords keyed by log height. The tallest input seeds the fold chain over
// the coset shift * <g>; after each fold the input at the new height, if any,
// is mixed in by addition. Inputs must be low-degree or proving fails at the
// final constant check.
//
// Returns the proof together with the sampled query indices, so callers can
// attach openings of their own input commitments at the same positions.
func Prove(cfg Config, m *mmcs.MerkleMMCS, inputs map[int][]field.Element, shift field.Element, ch *utils.Channel) (*Proof, []int, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid fri config: %w", err)
	}
	if len(inputs) == 0 {
		return nil, nil, fmt.Errorf("no inputs to prove")
	}

	logMax := -1
	for logH, v := range inputs {
		if logH < cfg.LogBlowup {
			return nil, nil, fmt.Errorf("input log height %d is below the log blowup %d", logH, cfg.LogBlowup)
		}
		if len(v) != 1<<logH {
			return nil, nil, fmt.Errorf("input at log height %d has %d values, want %d", logH, len(v), 1<<logH)
		}
		if logH > logMax {
			logMax = logH
		}
	}

	current := make([]field.Element, len(inputs[logMax]))
	copy(current, inputs[logMax])
	curShift := shift

	numRounds := logMax - cfg.LogBlowup
	commitments := make([]mmcs.Commitment, 0, numRounds)
	roundData := make([]*mmcs.ProverData, 0, numRounds)

	for logH := logMax; logH > cfg.LogBlowup; logH-- {
		pairValues := make([]field.Element, len(current))
		copy(pairValues, current)
		pairMat := &core.Matrix{Values: pairValues, Width: 2}

		commitment, data, err := m.Commit([]*core.Matrix{pairMat})
		if err != nil {
			return nil, nil, fmt.Errorf("commit phase at log height %d: %w", logH, err)
		}
		ch.ObserveDigest(commitment)
		beta := ch.SampleElement()
		commitments = append(commitments, commitment)
		roundData = append(roundData, data)

		folded, err := FoldEvals(current, beta, curShift)
		if err != nil {
			return nil, nil, fmt.Errorf("fold at log height %d: %w", logH, err)
		}
		current = folded
		curShift = curShift.Mul(curShift)

		if next, ok := inputs[logH-1]; ok {
			for i := range current {
				current[i] = current[i].Add(next[i])
			}
		}
	}

	finalValue := current[0]
	for i, v := range current[1:] {
		if !v.Equal(finalValue) {
			return nil, nil, fmt.Errorf("folded codeword is not constant at index %d: input exceeds the degree bound", i+1)
		}
	}
	ch.ObserveElements([]field.Element{finalValue})

	nonce := ch.Grind(cfg.ProofOfWorkBits)
	ch.ObserveUint64(nonce)

	indices, err := ch.SampleIndices(1<<logMax, cfg.NumQueries)
	if err != nil {
		return nil, nil, fmt.Errorf("sampling query indices: %w", err)
	}

	queryProofs := make([]QueryProof, len(indices))
	for qi, index := range indices {
		rounds := make([]RoundOpening, len(roundData))
		cur := index
		for r, data := range roundData {
			pairIdx := cur >> 1
			opened, path, err := m.OpenBatch(pairIdx, data)
			if err != nil {
				return nil, nil, fmt.Errorf("opening round %d at index %d: %w", r, pairIdx, err)
			}
			rounds[r] = RoundOpening{
				Pair:  [2]field.Element{opened[0][0], opened[0][1]},
				Proof: path,
			}
			cur = pairIdx
		}
		queryProofs[qi] = QueryProof{Rounds: rounds}
	}

	proof := &Proof{
		RoundCommitments: commitments,
		FinalValue:       finalValue,
		PowNonce:         nonce,
		QueryProofs:      queryProofs,
	}
	return proof, indices, nil
}
