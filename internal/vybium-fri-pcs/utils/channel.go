package utils

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"
	"math/bits"

	"golang.org/x/crypto/sha3"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
)

// Channel represents a Fiat-Shamir transcript channel.
//
// Prover and verifier drive two channels through the same sequence of
// observations and samples; any divergence in observed data diverges every
// subsequent sample.
type Channel struct {
	state    []byte
	hashFunc string
}

// NewChannel creates a new Fiat-Shamir channel
func NewChannel(hashFunc string) *Channel {
	if hashFunc == "" {
		hashFunc = "sha3"
	}
	return &Channel{
		state:    []byte{0},
		hashFunc: hashFunc,
	}
}

// ObserveBytes appends data to the channel state
func (c *Channel) ObserveBytes(data []byte) {
	c.state = c.hash(append(c.state, data...))
}

// ObserveElements absorbs field elements into the channel state
func (c *Channel) ObserveElements(elements []field.Element) {
	buf := make([]byte, 0, 8*len(elements))
	for _, e := range elements {
		buf = binary.BigEndian.AppendUint64(buf, e.Value())
	}
	c.ObserveBytes(buf)
}

// ObserveDigest absorbs a hash digest into the channel state
func (c *Channel) ObserveDigest(d hash.Digest) {
	c.ObserveElements(d[:])
}

// ObserveUint64 absorbs a raw 64-bit value (e.g. a proof-of-work nonce)
func (c *Channel) ObserveUint64(v uint64) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	c.ObserveBytes(buf)
}

// SampleInt generates a random integer in the range [min, max].
// Returns nil if min > max (invalid range).
func (c *Channel) SampleInt(min, max *big.Int) *big.Int {
	if min.Cmp(max) > 0 {
		return nil
	}

	stateAsInt := new(big.Int).SetBytes(c.state)

	rangeSize := new(big.Int).Sub(max, min)
	rangeSize.Add(rangeSize, big.NewInt(1))

	random := new(big.Int).Mod(stateAsInt, rangeSize)
	random.Add(random, min)

	c.state = c.hash(c.state)

	return random
}

// SampleElement generates a random Goldilocks field element
func (c *Channel) SampleElement() field.Element {
	max := big.NewInt(0).SetUint64(field.P - 1)
	random := c.SampleInt(big.NewInt(0), max)
	return field.New(random.Uint64())
}

// SampleIndices generates n random indices in [0, bound).
// The bound must be a power of two.
func (c *Channel) SampleIndices(bound, n int) ([]int, error) {
	if !IsPowerOfTwo(bound) {
		return nil, fmt.Errorf("index bound %d is not a power of two", bound)
	}
	indices := make([]int, n)
	max := big.NewInt(int64(bound - 1))
	for i := range indices {
		indices[i] = int(c.SampleInt(big.NewInt(0), max).Int64())
	}
	return indices, nil
}

// Grind searches for the smallest nonce whose proof-of-work hash against the
// current state has at least zeroBits leading zero bits. The channel state is
// not advanced; the caller observes the nonce afterwards.
func (c *Channel) Grind(zeroBits int) uint64 {
	for nonce := uint64(0); ; nonce++ {
		if c.CheckPow(nonce, zeroBits) {
			return nonce
		}
	}
}

// CheckPow reports whether nonce satisfies the proof-of-work requirement
// against the current channel state
func (c *Channel) CheckPow(nonce uint64, zeroBits int) bool {
	if zeroBits <= 0 {
		return true
	}
	buf := make([]byte, 0, len(c.state)+8)
	buf = append(buf, c.state...)
	buf = binary.BigEndian.AppendUint64(buf, nonce)
	h := c.hash(buf)
	return leadingZeroBits(h) >= zeroBits
}

// State returns the current channel state
func (c *Channel) State() []byte {
	return append([]byte(nil), c.state...)
}

func leadingZeroBits(data []byte) int {
	total := 0
	for _, b := range data {
		if b == 0 {
			total += 8
			continue
		}
		total += bits.LeadingZeros8(b)
		break
	}
	return total
}

// hash computes the hash of the input using the configured hash function
func (c *Channel) hash(data []byte) []byte {
	switch c.hashFunc {
	case "sha256":
		h := sha256.Sum256(data)
		return h[:]
	default:
		h := sha3.Sum256(data)
		return h[:]
	}
}
