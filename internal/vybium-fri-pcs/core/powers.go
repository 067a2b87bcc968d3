package core

import "github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

// Powers returns [1, base, base^2, ..., base^(count-1)]
func Powers(base field.Element, count int) []field.Element {
	out := make([]field.Element, count)
	if count == 0 {
		return out
	}
	out[0] = field.One
	for i := 1; i < count; i++ {
		out[i] = out[i-1].Mul(base)
	}
	return out
}

// PowerCache hands out contiguous runs of powers of a fixed base, extending
// the underlying table lazily so repeated callers never recompute a prefix.
type PowerCache struct {
	base field.Element
	pows []field.Element
}

// NewPowerCache creates a cache of powers of base, seeded with base^0
func NewPowerCache(base field.Element) *PowerCache {
	return &PowerCache{base: base, pows: []field.Element{field.One}}
}

// Range returns [base^start, ..., base^(start+count-1)]
func (pc *PowerCache) Range(start, count int) []field.Element {
	for len(pc.pows) < start+count {
		next := pc.pows[len(pc.pows)-1].Mul(pc.base)
		pc.pows = append(pc.pows, next)
	}
	return pc.pows[start : start+count]
}
