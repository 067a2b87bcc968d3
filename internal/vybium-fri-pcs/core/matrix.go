// Package core provides the row-major matrix type, index transforms, and
// batch field operations shared by the DFT engine and the commitment layers.
package core

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Matrix is a dense row-major matrix of field elements. Each row typically
// holds one evaluation point across a batch of polynomials (columns).
type Matrix struct {
	Values []field.Element
	Width  int
}

// NewMatrix wraps values as a width-column matrix
func NewMatrix(values []field.Element, width int) (*Matrix, error) {
	if width <= 0 {
		return nil, fmt.Errorf("matrix width must be positive, got %d", width)
	}
	if len(values)%width != 0 {
		return nil, fmt.Errorf("matrix values length %d is not a multiple of width %d", len(values), width)
	}
	return &Matrix{Values: values, Width: width}, nil
}

// NewZeroMatrix allocates a zeroed height x width matrix
func NewZeroMatrix(height, width int) *Matrix {
	return &Matrix{Values: make([]field.Element, height*width), Width: width}
}

// Height returns the number of rows
func (m *Matrix) Height() int {
	return len(m.Values) / m.Width
}

// Row returns row r as a slice view into the matrix storage
func (m *Matrix) Row(r int) []field.Element {
	return m.Values[r*m.Width : (r+1)*m.Width]
}

// At returns the element at row r, column c
func (m *Matrix) At(r, c int) field.Element {
	return m.Values[r*m.Width+c]
}

// Set assigns the element at row r, column c
func (m *Matrix) Set(r, c int, v field.Element) {
	m.Values[r*m.Width+c] = v
}

// Clone returns a deep copy of the matrix
func (m *Matrix) Clone() *Matrix {
	values := make([]field.Element, len(m.Values))
	copy(values, m.Values)
	return &Matrix{Values: values, Width: m.Width}
}

// RowSlice returns the rows in [start, end) as a sub-matrix sharing storage
func (m *Matrix) RowSlice(start, end int) *Matrix {
	return &Matrix{Values: m.Values[start*m.Width : end*m.Width], Width: m.Width}
}
