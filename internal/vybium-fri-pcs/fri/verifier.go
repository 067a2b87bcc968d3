package fri

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/mmcs"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/utils"
)

// InputOpeningsFunc supplies the verifier with the reduced input values at
// one query position, keyed by log height. Implementations must verify their
// own commitment openings before vouching for the values; queryNum matches
// the order of the sampled indices.
type InputOpeningsFunc func(queryNum, index int) (map[int]field.Element, error)

// Verify replays the transcript and checks every query's fold chain from the
// input values down to the final constant. Any mismatch rejects the proof
// with a typed VerificationError.
func Verify(cfg Config, m *mmcs.MerkleMMCS, proof *Proof, logMaxHeight int, shift field.Element, ch *utils.Channel, inputAt InputOpeningsFunc) error {
	if err := cfg.Validate(); err != nil {
		return newVerificationError(ErrInvalidShape, "invalid config: %v", err)
	}
	numRounds := logMaxHeight - cfg.LogBlowup
	if numRounds < 0 || len(proof.RoundCommitments) != numRounds {
		return newVerificationError(ErrInvalidShape,
			"proof has %d round commitments, want %d", len(proof.RoundCommitments), numRounds)
	}
	if len(proof.QueryProofs) != cfg.NumQueries {
		return newVerificationError(ErrInvalidShape,
			"proof has %d query proofs, want %d", len(proof.QueryProofs), cfg.NumQueries)
	}

	betas := make([]field.Element, numRounds)
	for r, commitment := range proof.RoundCommitments {
		ch.ObserveDigest(commitment)
		betas[r] = ch.SampleElement()
	}
	ch.ObserveElements([]field.Element{proof.FinalValue})

	if !ch.CheckPow(proof.PowNonce, cfg.ProofOfWorkBits) {
		return newVerificationError(ErrInvalidPow, "proof of work nonce %d is insufficient", proof.PowNonce)
	}
	ch.ObserveUint64(proof.PowNonce)

	indices, err := ch.SampleIndices(1<<logMaxHeight, cfg.NumQueries)
	if err != nil {
		return newVerificationError(ErrInvalidShape, "sampling query indices: %v", err)
	}

	for qi, index := range indices {
		reduced, err := inputAt(qi, index)
		if err != nil {
			return err
		}
		value, ok := reduced[logMaxHeight]
		if !ok {
			return newVerificationError(ErrInvalidShape, "no input opening at log height %d", logMaxHeight)
		}

		queryProof := proof.QueryProofs[qi]
		if len(queryProof.Rounds) != numRounds {
			return newVerificationError(ErrInvalidShape,
				"query %d has %d round openings, want %d", qi, len(queryProof.Rounds), numRounds)
		}

		cur := index
		curShift := shift
		for r := 0; r < numRounds; r++ {
			logH := logMaxHeight - r
			opening := queryProof.Rounds[r]
			pairIdx := cur >> 1

			dims := []mmcs.Dimensions{{Width: 2, Height: 1 << (logH - 1)}}
			if err := m.VerifyBatch(proof.RoundCommitments[r], dims, pairIdx,
				[][]field.Element{opening.Pair[:]}, opening.Proof); err != nil {
				return newVerificationError(ErrInvalidOpening,
					"query %d round %d: %v", qi, r, err)
			}
			if !opening.Pair[cur&1].Equal(value) {
				return newVerificationError(ErrFoldMismatch,
					"query %d round %d: opened pair contradicts the fold chain", qi, r)
			}

			value = FoldRow(pairIdx, logH, betas[r], curShift, opening.Pair[0], opening.Pair[1])
			cur = pairIdx
			curShift = curShift.Mul(curShift)

			if mixIn, ok := reduced[logH-1]; ok {
				value = value.Add(mixIn)
			}
		}

		if !value.Equal(proof.FinalValue) {
			return newVerificationError(ErrFinalValueMismatch,
				"query %d: fold chain does not reach the final value", qi)
		}
	}

	return nil
}
