package core

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// BatchInverse inverts all elements using Montgomery's trick: one field
// inversion plus 3(n-1) multiplications instead of n inversions.
//
// Algorithm:
// 1. Compute accumulative products: acc[i] = elements[0] * ... * elements[i]
// 2. Invert the final accumulator: acc[n-1]^(-1)
// 3. Back-substitute to compute individual inverses
func BatchInverse(elements []field.Element) ([]field.Element, error) {
	n := len(elements)
	if n == 0 {
		return []field.Element{}, nil
	}

	for i, elem := range elements {
		if elem.IsZero() {
			return nil, fmt.Errorf("cannot invert zero element at index %d", i)
		}
	}

	if n == 1 {
		return []field.Element{elements[0].Inverse()}, nil
	}

	acc := make([]field.Element, n)
	acc[0] = elements[0]
	for i := 1; i < n; i++ {
		acc[i] = acc[i-1].Mul(elements[i])
	}

	accInv := acc[n-1].Inverse()

	// elements[i]^(-1) = acc[i-1] * acc[i]^(-1)
	results := make([]field.Element, n)
	for i := n - 1; i > 0; i-- {
		results[i] = accInv.Mul(acc[i-1])
		accInv = accInv.Mul(elements[i])
	}
	results[0] = accInv

	return results, nil
}
