// Package fri implements the low-degree commit/fold/query protocol over
// two-adic cosets of the Goldilocks field. The prover repeatedly commits a
// vector of paired evaluations, folds it in half with a transcript challenge,
// and mixes in lower-height inputs, until only a constant remains; queries
// then spot-check the fold chain against the commitments.
package fri

import "fmt"

// Config holds the soundness parameters of the protocol
type Config struct {
	// LogBlowup is the log of the rate: inputs of log height k encode
	// polynomials of degree below 2^(k - LogBlowup). Folding stops at
	// height 2^LogBlowup, where an honest codeword is constant.
	LogBlowup int
	// NumQueries is the number of spot-check indices
	NumQueries int
	// ProofOfWorkBits is the grinding difficulty before index sampling
	ProofOfWorkBits int
}

// DefaultConfig returns the standard test parameters
func DefaultConfig() Config {
	return Config{
		LogBlowup:       1,
		NumQueries:      10,
		ProofOfWorkBits: 8,
	}
}

// WithLogBlowup returns a copy with the given log blowup
func (c Config) WithLogBlowup(logBlowup int) Config {
	c.LogBlowup = logBlowup
	return c
}

// WithNumQueries returns a copy with the given query count
func (c Config) WithNumQueries(numQueries int) Config {
	c.NumQueries = numQueries
	return c
}

// WithProofOfWorkBits returns a copy with the given grinding difficulty
func (c Config) WithProofOfWorkBits(bits int) Config {
	c.ProofOfWorkBits = bits
	return c
}

// Validate checks the configuration parameters
func (c Config) Validate() error {
	if c.LogBlowup < 1 {
		return fmt.Errorf("log blowup must be at least 1, got %d", c.LogBlowup)
	}
	if c.NumQueries < 1 {
		return fmt.Errorf("number of queries must be at least 1, got %d", c.NumQueries)
	}
	if c.ProofOfWorkBits < 0 || c.ProofOfWorkBits >= 32 {
		return fmt.Errorf("proof of work bits must be in [0, 32), got %d", c.ProofOfWorkBits)
	}
	return nil
}
