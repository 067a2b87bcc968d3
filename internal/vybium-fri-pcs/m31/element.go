// Package m31 implements the Mersenne prime field 2^31 - 1 and its unit
// circle group x^2 + y^2 = 1, the two-adic structure behind circle domains.
package m31

import (
	"fmt"
	"strconv"
)

// Modulus is the Mersenne prime 2^31 - 1
const Modulus uint32 = 1<<31 - 1

// Element is a Mersenne-31 field element in canonical form [0, Modulus)
type Element struct {
	value uint32
}

// New creates a field element, reducing v modulo 2^31 - 1
func New(v uint64) Element {
	return Element{value: uint32(v % uint64(Modulus))}
}

// Zero returns the additive identity
func Zero() Element {
	return Element{}
}

// One returns the multiplicative identity
func One() Element {
	return Element{value: 1}
}

// Add returns a + b
func (a Element) Add(b Element) Element {
	s := a.value + b.value
	if s >= Modulus {
		s -= Modulus
	}
	return Element{value: s}
}

// Sub returns a - b
func (a Element) Sub(b Element) Element {
	if a.value >= b.value {
		return Element{value: a.value - b.value}
	}
	return Element{value: a.value + Modulus - b.value}
}

// Neg returns -a
func (a Element) Neg() Element {
	return Zero().Sub(a)
}

// Mul returns a * b. The 62-bit product folds as hi*2^31 + lo with
// 2^31 = 1 (mod p), so a single shift-and-add reduces it.
func (a Element) Mul(b Element) Element {
	t := uint64(a.value) * uint64(b.value)
	s := uint32(t&uint64(Modulus)) + uint32(t>>31)
	if s >= Modulus {
		s -= Modulus
	}
	if s >= Modulus {
		s -= Modulus
	}
	return Element{value: s}
}

// Double returns 2a
func (a Element) Double() Element {
	return a.Add(a)
}

// Square returns a^2
func (a Element) Square() Element {
	return a.Mul(a)
}

// Exp returns a^e by square-and-multiply
func (a Element) Exp(e uint64) Element {
	result := One()
	base := a
	for e > 0 {
		if e&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Square()
		e >>= 1
	}
	return result
}

// Inverse returns a^(-1) via Fermat's little theorem.
// The inverse of zero is zero.
func (a Element) Inverse() Element {
	return a.Exp(uint64(Modulus) - 2)
}

// Equal reports whether a == b
func (a Element) Equal(b Element) bool {
	return a.value == b.value
}

// IsZero reports whether a == 0
func (a Element) IsZero() bool {
	return a.value == 0
}

// Value returns the canonical representative
func (a Element) Value() uint32 {
	return a.value
}

// String returns the decimal representation
func (a Element) String() string {
	return strconv.FormatUint(uint64(a.value), 10)
}

// BatchInverse inverts all elements with Montgomery's trick
func BatchInverse(elements []Element) ([]Element, error) {
	n := len(elements)
	if n == 0 {
		return []Element{}, nil
	}

	for i, elem := range elements {
		if elem.IsZero() {
			return nil, fmt.Errorf("cannot invert zero element at index %d", i)
		}
	}

	acc := make([]Element, n)
	acc[0] = elements[0]
	for i := 1; i < n; i++ {
		acc[i] = acc[i-1].Mul(elements[i])
	}

	accInv := acc[n-1].Inverse()

	results := make([]Element, n)
	for i := n - 1; i > 0; i-- {
		results[i] = accInv.Mul(acc[i-1])
		accInv = accInv.Mul(elements[i])
	}
	results[0] = accInv

	return results, nil
}
