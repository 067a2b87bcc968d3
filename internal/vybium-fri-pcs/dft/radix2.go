package dft

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/core"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/utils"
)

// twiddleSet holds the root powers [0, h/2) for one transform size, in both
// natural and bit-reversed order. The first half of the butterfly network
// reads the natural table, the reversed second half reads the other.
type twiddleSet struct {
	natural     []field.Element
	bitReversed []field.Element
}

type cosetKey struct {
	logH  int
	shift uint64
}

// Radix2DitParallel is a batched radix-2 DIT transform. The butterfly network
// runs in two halves: the first ceil(k/2) layers act on contiguous row blocks
// that fit cache, a global bit-reversal swaps the roles of blocks and strides,
// and the remaining layers run in reversed (Bowers) form with one twiddle per
// block. Twiddle tables are memoized per size and per (size, shift) coset.
//
// All transforms mutate their input matrix in place and return it.
type Radix2DitParallel struct {
	mu      sync.Mutex
	forward map[int]*twiddleSet
	inverse map[int]*twiddleSet
	coset   map[cosetKey][][]field.Element
}

// NewRadix2DitParallel creates a transform engine with empty twiddle caches
func NewRadix2DitParallel() *Radix2DitParallel {
	return &Radix2DitParallel{
		forward: make(map[int]*twiddleSet),
		inverse: make(map[int]*twiddleSet),
		coset:   make(map[cosetKey][][]field.Element),
	}
}

// DFTBatch transforms each column of mat from coefficients (natural order) to
// evaluations over the size-h subgroup, left in bit-reversed row order.
func (d *Radix2DitParallel) DFTBatch(mat *core.Matrix) (*core.Matrix, error) {
	h := mat.Height()
	if !utils.IsPowerOfTwo(h) {
		return nil, fmt.Errorf("transform height %d is not a power of two", h)
	}
	logH := utils.Log2(h)
	d.network(mat, logH, d.forwardTwiddles(logH))
	return mat, nil
}

// IDFTBatch transforms each column of mat from bit-reversed evaluations over
// the size-h subgroup back to coefficients in natural order.
func (d *Radix2DitParallel) IDFTBatch(mat *core.Matrix) (*core.Matrix, error) {
	h := mat.Height()
	if !utils.IsPowerOfTwo(h) {
		return nil, fmt.Errorf("transform height %d is not a power of two", h)
	}
	logH := utils.Log2(h)
	// The inverse network expects natural-order input, like the forward one.
	core.ReverseMatrixIndexBits(mat)
	d.network(mat, logH, d.inverseTwiddles(logH))
	d.scaleByInverseHeight(mat)
	core.ReverseMatrixIndexBits(mat)
	return mat, nil
}

// CosetLDEBatch interprets each column of mat as evaluations (natural order)
// over the size-h subgroup, and extends it to evaluations over the coset
// shift * <g_big> of size h << addedBits, returned in bit-reversed row order.
//
// The bit-reversed layout interleaves the 2^addedBits sub-cosets so that the
// first h rows of the result are exactly the bit-reversed evaluations over
// shift * <g>, which is what the opening layer interpolates against.
func (d *Radix2DitParallel) CosetLDEBatch(mat *core.Matrix, addedBits int, shift field.Element) (*core.Matrix, error) {
	h := mat.Height()
	if !utils.IsPowerOfTwo(h) {
		return nil, fmt.Errorf("transform height %d is not a power of two", h)
	}
	if addedBits < 0 {
		return nil, fmt.Errorf("added bits must be non-negative, got %d", addedBits)
	}
	logH := utils.Log2(h)

	// Inverse transform without the final un-reversal: coefficients stay in
	// bit-reversed order, which is the order cosetDFT consumes.
	d.network(mat, logH, d.inverseTwiddles(logH))
	d.scaleByInverseHeight(mat)

	ldeHeight := h << addedBits
	out := core.NewZeroMatrix(ldeHeight, mat.Width)
	if len(out.Values) != ldeHeight*mat.Width {
		return nil, fmt.Errorf("lde buffer has %d values, need %d", len(out.Values), ldeHeight*mat.Width)
	}

	gBig := field.PrimitiveRootOfUnity(uint64(ldeHeight))
	for c := 1; c < 1<<addedBits; c++ {
		totalShift := gBig.ModPow(uint64(c)).Mul(shift)
		block := core.ReverseBitsLen(c, addedBits)
		dst := out.RowSlice(block*h, (block+1)*h)
		copy(dst.Values, mat.Values)
		d.cosetDFT(dst, logH, totalShift)
	}
	dst := out.RowSlice(0, h)
	copy(dst.Values, mat.Values)
	d.cosetDFT(dst, logH, shift)

	return out, nil
}

// network runs the full forward butterfly structure: bit-reverse, first-half
// DIT layers per block, bit-reverse, second-half reversed-DIT layers. Output
// rows are bit-reversed.
func (d *Radix2DitParallel) network(mat *core.Matrix, logH int, tw *twiddleSet) {
	if logH == 0 {
		return
	}
	mid := logH / 2

	core.ReverseMatrixIndexBits(mat)
	if mid > 0 {
		chunkRows := 1 << mid
		parallelChunks(mat.Height()/chunkRows, func(t int) {
			chunk := mat.RowSlice(t*chunkRows, (t+1)*chunkRows)
			for layer := 0; layer < mid; layer++ {
				ditLayer(chunk, layer, tw.natural, 1<<(logH-1-layer))
			}
		})
	}
	core.ReverseMatrixIndexBits(mat)
	chunkRows := 1 << (logH - mid)
	parallelChunks(mat.Height()/chunkRows, func(t int) {
		chunk := mat.RowSlice(t*chunkRows, (t+1)*chunkRows)
		for layer := mid; layer < logH; layer++ {
			layerRev := logH - 1 - layer
			firstBlock := t << (layer - mid)
			ditLayerRev(chunk, layerRev, tw.bitReversed[firstBlock:])
		}
	})
}

// cosetDFT transforms bit-reversed coefficients in place into bit-reversed
// evaluations over shift * <g>. It is the forward network minus the initial
// bit-reversal, with shift powers folded into per-layer twiddle tables.
func (d *Radix2DitParallel) cosetDFT(mat *core.Matrix, logH int, shift field.Element) {
	if logH == 0 {
		return
	}
	mid := logH / 2
	layers := d.cosetTwiddles(logH, shift)

	if mid > 0 {
		chunkRows := 1 << mid
		parallelChunks(mat.Height()/chunkRows, func(t int) {
			chunk := mat.RowSlice(t*chunkRows, (t+1)*chunkRows)
			for layer := 0; layer < mid; layer++ {
				ditLayer(chunk, layer, layers[logH-1-layer], 1)
			}
		})
	}
	core.ReverseMatrixIndexBits(mat)
	chunkRows := 1 << (logH - mid)
	parallelChunks(mat.Height()/chunkRows, func(t int) {
		chunk := mat.RowSlice(t*chunkRows, (t+1)*chunkRows)
		for layer := mid; layer < logH; layer++ {
			layerRev := logH - 1 - layer
			firstBlock := t << (layer - mid)
			ditLayerRev(chunk, layerRev, layers[layerRev][firstBlock:])
		}
	})
}

// ditLayer applies one DIT butterfly layer within a chunk. Pair k of every
// block reads twiddle tws[k*stride]; the table restarts at each block.
func ditLayer(chunk *core.Matrix, layer int, tws []field.Element, stride int) {
	halfBlock := 1 << layer
	blockSize := halfBlock * 2
	rows := chunk.Height()
	for blockStart := 0; blockStart < rows; blockStart += blockSize {
		for k := 0; k < halfBlock; k++ {
			t := tws[k*stride]
			butterfly(chunk.Row(blockStart+k), chunk.Row(blockStart+halfBlock+k), t)
		}
	}
}

// ditLayerRev applies one reversed-DIT layer within a chunk: every pair of a
// block shares one twiddle, consumed sequentially per block.
func ditLayerRev(chunk *core.Matrix, layerRev int, tws []field.Element) {
	halfBlock := 1 << layerRev
	blockSize := halfBlock * 2
	rows := chunk.Height()
	for blockStart, j := 0, 0; blockStart < rows; blockStart, j = blockStart+blockSize, j+1 {
		t := tws[j]
		for k := 0; k < halfBlock; k++ {
			butterfly(chunk.Row(blockStart+k), chunk.Row(blockStart+halfBlock+k), t)
		}
	}
}

// butterfly applies (lo, hi) -> (lo + t*hi, lo - t*hi) across a row pair
func butterfly(lo, hi []field.Element, t field.Element) {
	for c := range lo {
		th := t.Mul(hi[c])
		hi[c] = lo[c].Sub(th)
		lo[c] = lo[c].Add(th)
	}
}

func (d *Radix2DitParallel) scaleByInverseHeight(mat *core.Matrix) {
	hInv := field.New(uint64(mat.Height())).Inverse()
	vals := mat.Values
	parallelChunks(mat.Height(), func(r int) {
		base := r * mat.Width
		for c := 0; c < mat.Width; c++ {
			vals[base+c] = vals[base+c].Mul(hInv)
		}
	})
}

func (d *Radix2DitParallel) forwardTwiddles(logH int) *twiddleSet {
	d.mu.Lock()
	defer d.mu.Unlock()
	if tw, ok := d.forward[logH]; ok {
		return tw
	}
	root := field.PrimitiveRootOfUnity(uint64(1) << logH)
	tw := newTwiddleSet(root, logH)
	d.forward[logH] = tw
	return tw
}

func (d *Radix2DitParallel) inverseTwiddles(logH int) *twiddleSet {
	d.mu.Lock()
	defer d.mu.Unlock()
	if tw, ok := d.inverse[logH]; ok {
		return tw
	}
	root := field.PrimitiveRootOfUnity(uint64(1) << logH).Inverse()
	tw := newTwiddleSet(root, logH)
	d.inverse[logH] = tw
	return tw
}

func newTwiddleSet(root field.Element, logH int) *twiddleSet {
	half := (1 << logH) / 2
	natural := core.Powers(root, half)
	bitReversed := make([]field.Element, half)
	copy(bitReversed, natural)
	core.ReverseSliceIndexBits(bitReversed)
	return &twiddleSet{natural: natural, bitReversed: bitReversed}
}

// cosetTwiddles builds (or fetches) per-layer twiddle tables with the coset
// shift folded in. Table i serves network layer logH-1-i and holds
// shift^(2^i) * root^(2^i * k) for k < h >> (i+1); tables consumed by the
// reversed second half are stored bit-reversed.
func (d *Radix2DitParallel) cosetTwiddles(logH int, shift field.Element) [][]field.Element {
	key := cosetKey{logH: logH, shift: shift.Value()}
	d.mu.Lock()
	defer d.mu.Unlock()
	if layers, ok := d.coset[key]; ok {
		return layers
	}

	h := 1 << logH
	mid := logH / 2
	root := field.PrimitiveRootOfUnity(uint64(h))
	layers := make([][]field.Element, logH)
	for i := 0; i < logH; i++ {
		count := h >> (i + 1)
		base := expPowerOfTwo(root, i)
		cur := expPowerOfTwo(shift, i)
		tws := make([]field.Element, count)
		for k := 0; k < count; k++ {
			tws[k] = cur
			cur = cur.Mul(base)
		}
		if logH-1-i >= mid {
			core.ReverseSliceIndexBits(tws)
		}
		layers[i] = tws
	}
	d.coset[key] = layers
	return layers
}

// expPowerOfTwo returns x^(2^k)
func expPowerOfTwo(x field.Element, k int) field.Element {
	for i := 0; i < k; i++ {
		x = x.Mul(x)
	}
	return x
}

// parallelChunks runs fn(0..numChunks) across up to NumCPU goroutines,
// assigning each worker a contiguous range of chunk indices.
func parallelChunks(numChunks int, fn func(chunk int)) {
	workers := runtime.NumCPU()
	if workers > numChunks {
		workers = numChunks
	}
	if workers <= 1 {
		for i := 0; i < numChunks; i++ {
			fn(i)
		}
		return
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * numChunks / workers
		end := (w + 1) * numChunks / workers
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}
