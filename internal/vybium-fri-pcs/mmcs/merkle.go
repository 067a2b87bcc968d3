// Package mmcs implements a mixed-matrix commitment scheme: a single Merkle
// tree committing to a batch of matrices whose heights are distinct powers of
// two. Rows of the tallest matrices hash into the leaves; rows of shorter
// matrices are absorbed into the internal level whose node count matches
// their height. One index then opens a consistent row from every matrix.
package mmcs

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"

	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/core"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/utils"
)

// Commitment is the Merkle root of a committed batch
type Commitment = hash.Digest

// Dimensions describes one committed matrix for verification
type Dimensions struct {
	Width  int
	Height int
}

// ProverData retains the committed matrices and every digest layer of the
// tree so batches can be opened at arbitrary indices later.
type ProverData struct {
	matrices []*core.Matrix
	layers   [][]hash.Digest
}

// MerkleMMCS commits to matrix batches with Tip5 digests
type MerkleMMCS struct{}

// NewMerkleMMCS creates a mixed-matrix commitment scheme
func NewMerkleMMCS() *MerkleMMCS {
	return &MerkleMMCS{}
}

// Commit builds the Merkle tree over the batch and returns its root. Matrix
// heights must be powers of two; the tallest height dominates the tree depth
// and shorter matrices join at their matching internal level.
func (m *MerkleMMCS) Commit(matrices []*core.Matrix) (Commitment, *ProverData, error) {
	if len(matrices) == 0 {
		return Commitment{}, nil, fmt.Errorf("cannot commit to an empty batch")
	}
	maxHeight := 0
	for i, mat := range matrices {
		h := mat.Height()
		if !utils.IsPowerOfTwo(h) {
			return Commitment{}, nil, fmt.Errorf("matrix %d height %d is not a power of two", i, h)
		}
		if h > maxHeight {
			maxHeight = h
		}
	}

	leaves := make([]hash.Digest, maxHeight)
	parallelRows(maxHeight, func(r int) {
		leaves[r] = hashRows(matrices, maxHeight, r)
	})

	layers := [][]hash.Digest{leaves}
	level := leaves
	for len(level) > 1 {
		next := make([]hash.Digest, len(level)/2)
		parallelRows(len(next), func(r int) {
			next[r] = hashDigestPair(level[2*r], level[2*r+1])
		})
		if hasHeight(matrices, len(next)) {
			parallelRows(len(next), func(r int) {
				next[r] = hashDigestPair(next[r], hashRows(matrices, len(next), r))
			})
		}
		layers = append(layers, next)
		level = next
	}

	return level[0], &ProverData{matrices: matrices, layers: layers}, nil
}

// GetMatrices returns the matrices behind a commitment
func (m *MerkleMMCS) GetMatrices(data *ProverData) []*core.Matrix {
	return data.matrices
}

// MaxHeight returns the tallest matrix height in the batch
func (m *MerkleMMCS) MaxHeight(data *ProverData) int {
	return len(data.layers[0])
}

// OpenBatch opens row index of every matrix in the batch, shorter matrices
// at index >> (logMaxHeight - logHeight), plus the sibling digest path.
func (m *MerkleMMCS) OpenBatch(index int, data *ProverData) ([][]field.Element, []hash.Digest, error) {
	maxHeight := len(data.layers[0])
	if index < 0 || index >= maxHeight {
		return nil, nil, fmt.Errorf("open index %d out of range [0, %d)", index, maxHeight)
	}
	logMax := utils.Log2(maxHeight)

	opened := make([][]field.Element, len(data.matrices))
	for i, mat := range data.matrices {
		r := index >> (logMax - utils.Log2(mat.Height()))
		row := make([]field.Element, mat.Width)
		copy(row, mat.Row(r))
		opened[i] = row
	}

	proof := make([]hash.Digest, 0, logMax)
	idx := index
	for _, layer := range data.layers[:len(data.layers)-1] {
		proof = append(proof, layer[idx^1])
		idx >>= 1
	}

	return opened, proof, nil
}

// VerifyBatch recomputes the Merkle root from an opened batch and compares
// it against the commitment. dims must list the committed matrices in the
// same order as Commit received them.
func (m *MerkleMMCS) VerifyBatch(commitment Commitment, dims []Dimensions, index int, opened [][]field.Element, proof []hash.Digest) error {
	if len(dims) != len(opened) {
		return fmt.Errorf("dimension count %d does not match opened row count %d", len(dims), len(opened))
	}
	maxHeight := 0
	for i, d := range dims {
		if !utils.IsPowerOfTwo(d.Height) {
			return fmt.Errorf("matrix %d height %d is not a power of two", i, d.Height)
		}
		if len(opened[i]) != d.Width {
			return fmt.Errorf("matrix %d opened row has %d values, want %d", i, len(opened[i]), d.Width)
		}
		if d.Height > maxHeight {
			maxHeight = d.Height
		}
	}
	logMax := utils.Log2(maxHeight)
	if len(proof) != logMax {
		return fmt.Errorf("proof has %d digests, want %d", len(proof), logMax)
	}
	if index < 0 || index >= maxHeight {
		return fmt.Errorf("open index %d out of range [0, %d)", index, maxHeight)
	}

	digest := hashOpenedRows(dims, opened, maxHeight)
	idx := index
	levelSize := maxHeight
	for _, sibling := range proof {
		if idx&1 == 1 {
			digest = hashDigestPair(sibling, digest)
		} else {
			digest = hashDigestPair(digest, sibling)
		}
		idx >>= 1
		levelSize >>= 1
		if levelSizeHasRows(dims, levelSize) {
			digest = hashDigestPair(digest, hashOpenedRows(dims, opened, levelSize))
		}
	}

	for i := 0; i < hash.DigestLen; i++ {
		if !digest[i].Equal(commitment[i]) {
			return fmt.Errorf("root mismatch at index %d", index)
		}
	}
	return nil
}

// hashRows digests the concatenated height-h rows at row r
func hashRows(matrices []*core.Matrix, h, r int) hash.Digest {
	var buf []field.Element
	for _, mat := range matrices {
		if mat.Height() == h {
			buf = append(buf, mat.Row(r)...)
		}
	}
	return hash.HashVarlen(buf)
}

// hashOpenedRows digests the concatenated opened rows of height-h matrices
func hashOpenedRows(dims []Dimensions, opened [][]field.Element, h int) hash.Digest {
	var buf []field.Element
	for i, d := range dims {
		if d.Height == h {
			buf = append(buf, opened[i]...)
		}
	}
	return hash.HashVarlen(buf)
}

func hasHeight(matrices []*core.Matrix, h int) bool {
	for _, mat := range matrices {
		if mat.Height() == h {
			return true
		}
	}
	return false
}

func levelSizeHasRows(dims []Dimensions, h int) bool {
	for _, d := range dims {
		if d.Height == h {
			return true
		}
	}
	return false
}

// parallelRows runs fn over row indices with contiguous worker ranges
func parallelRows(numRows int, fn func(r int)) {
	workers := runtime.NumCPU()
	if workers > numRows {
		workers = numRows
	}
	if workers <= 1 {
		for r := 0; r < numRows; r++ {
			fn(r)
		}
		return
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * numRows / workers
		end := (w + 1) * numRows / workers
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for r := start; r < end; r++ {
				fn(r)
			}
		}(start, end)
	}
	wg.Wait()
}

// hashDigestPair compresses two digests into one sponge permutation
func hashDigestPair(left, right hash.Digest) hash.Digest {
	var input [2 * hash.DigestLen]field.Element
	copy(input[:hash.DigestLen], left[:])
	copy(input[hash.DigestLen:], right[:])
	return hash.Hash10(input)
}
