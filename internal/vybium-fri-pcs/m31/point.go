package m31

import (
	"fmt"
	"sync"
)

// MaxTwoAdicity is the two-adicity of the circle group: the unit circle over
// Mersenne-31 is cyclic of order p + 1 = 2^31.
const MaxTwoAdicity = 31

// Point is a point on the unit circle x^2 + y^2 = 1 over Mersenne-31.
// The circle carries the group law of angle addition.
type Point struct {
	X, Y Element
}

// Identity returns the group identity (1, 0)
func Identity() Point {
	return Point{X: One(), Y: Zero()}
}

// Mul returns the group sum of p and q:
// (x1*x2 - y1*y2, x1*y2 + y1*x2)
func (p Point) Mul(q Point) Point {
	return Point{
		X: p.X.Mul(q.X).Sub(p.Y.Mul(q.Y)),
		Y: p.X.Mul(q.Y).Add(p.Y.Mul(q.X)),
	}
}

// Square returns the group double of p
func (p Point) Square() Point {
	return p.Mul(p)
}

// Conjugate returns (x, -y), the group inverse of p
func (p Point) Conjugate() Point {
	return Point{X: p.X, Y: p.Y.Neg()}
}

// Neg returns the antipode (-x, -y), i.e. p shifted by the order-2 element
func (p Point) Neg() Point {
	return Point{X: p.X.Neg(), Y: p.Y.Neg()}
}

// Exp returns the e-fold group sum of p
func (p Point) Exp(e uint64) Point {
	result := Identity()
	base := p
	for e > 0 {
		if e&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Square()
		e >>= 1
	}
	return result
}

// Equal reports whether p == q
func (p Point) Equal(q Point) bool {
	return p.X.Equal(q.X) && p.Y.Equal(q.Y)
}

var (
	circleGeneratorOnce sync.Once
	circleGenerator     Point
)

// baseGenerator finds a generator of the full order-2^31 circle group by
// walking the rational parametrization ((1-t^2)/(1+t^2), 2t/(1+t^2)).
// A point generates iff squaring it 30 times does not reach the identity.
func baseGenerator() Point {
	circleGeneratorOnce.Do(func() {
		for t := uint64(1); ; t++ {
			tt := New(t)
			den := One().Add(tt.Square())
			if den.IsZero() {
				continue
			}
			denInv := den.Inverse()
			p := Point{
				X: One().Sub(tt.Square()).Mul(denInv),
				Y: tt.Double().Mul(denInv),
			}
			q := p
			for i := 0; i < MaxTwoAdicity-1; i++ {
				q = q.Square()
			}
			if !q.Equal(Identity()) {
				circleGenerator = p
				return
			}
		}
	})
	return circleGenerator
}

// TwoAdicGenerator returns a generator of the order-2^bits subgroup of the
// circle group. Squaring the generator for bits steps down to the generator
// for bits-1.
func TwoAdicGenerator(bits int) (Point, error) {
	if bits < 0 || bits > MaxTwoAdicity {
		return Point{}, fmt.Errorf("two-adic generator bits %d out of range [0, %d]", bits, MaxTwoAdicity)
	}
	g := baseGenerator()
	for i := 0; i < MaxTwoAdicity-bits; i++ {
		g = g.Square()
	}
	return g, nil
}
