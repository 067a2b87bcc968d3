package fri

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"

	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/mmcs"
)

// Proof is the transcript artifact of the commit and query phases
type Proof struct {
	// RoundCommitments are the Merkle roots of the pair matrices, one per
	// fold, from the tallest height down to 2^(LogBlowup+1)
	RoundCommitments []mmcs.Commitment
	// FinalValue is the constant remaining after the last fold
	FinalValue field.Element
	// PowNonce is the grinding witness observed before index sampling
	PowNonce uint64
	// QueryProofs hold one fold-chain opening per sampled index
	QueryProofs []QueryProof
}

// QueryProof opens the full fold chain at one query index
type QueryProof struct {
	Rounds []RoundOpening
}

// RoundOpening opens one committed pair matrix at the query's pair row
type RoundOpening struct {
	Pair  [2]field.Element
	Proof []hash.Digest
}
