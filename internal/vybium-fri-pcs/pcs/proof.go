package pcs

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"

	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/core"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/dft"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/fri"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/mmcs"
)

// DomainMatrix pairs a polynomial evaluation matrix with its natural domain.
// Each column is one polynomial, evaluated over the domain in natural order.
type DomainMatrix struct {
	Domain dft.Domain
	Evals  *core.Matrix
}

// OpenRound names a committed batch and the points to open each matrix at
type OpenRound struct {
	Data   *mmcs.ProverData
	Points [][]field.Element
}

// OpenedValues holds the claimed evaluations: round, matrix, point, column
type OpenedValues [][][][]field.Element

// BatchOpening opens every matrix of one committed batch at a query position
type BatchOpening struct {
	OpenedValues [][]field.Element
	Proof        []hash.Digest
}

// Proof is the opening proof: the FRI proof for the reduced quotients plus
// the input batch openings at each sampled query index.
type Proof struct {
	Fri           *fri.Proof
	InputOpenings [][]BatchOpening
}

// MatrixClaim is the verifier's view of one committed matrix: its domain and
// the claimed evaluations (per point, per column)
type MatrixClaim struct {
	Domain dft.Domain
	Points []field.Element
	Values [][]field.Element
}

// VerifyRound pairs a batch commitment with the claims against its matrices
type VerifyRound struct {
	Commitment mmcs.Commitment
	Matrices   []MatrixClaim
}
