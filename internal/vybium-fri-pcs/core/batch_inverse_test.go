package core

import (
	"math/rand"
	"testing"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

func TestBatchInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{0, 1, 2, 5, 64, 257} {
		elements := make([]field.Element, n)
		for i := range elements {
			elements[i] = field.New(rng.Uint64()%(field.P-1) + 1)
		}
		inverses, err := BatchInverse(elements)
		if err != nil {
			t.Fatalf("batch of %d: %v", n, err)
		}
		for i := range elements {
			if !elements[i].Mul(inverses[i]).Equal(field.One) {
				t.Fatalf("batch of %d: element %d times its inverse is not one", n, i)
			}
		}
	}
}

func TestBatchInverseRejectsZero(t *testing.T) {
	elements := []field.Element{field.New(3), field.Zero, field.New(5)}
	if _, err := BatchInverse(elements); err == nil {
		t.Fatal("expected an error for a zero element")
	}
}

func TestPowers(t *testing.T) {
	base := field.New(3)
	pows := Powers(base, 5)
	want := uint64(1)
	for i, p := range pows {
		if p.Value() != want {
			t.Errorf("power %d = %d, want %d", i, p.Value(), want)
		}
		want *= 3
	}
}

func TestPowerCacheRange(t *testing.T) {
	base := field.New(5)
	cache := NewPowerCache(base)

	first := cache.Range(0, 3)
	if len(first) != 3 || first[2].Value() != 25 {
		t.Fatalf("Range(0, 3) = %v", first)
	}

	// Extending must agree with a freshly computed table.
	later := cache.Range(3, 4)
	direct := Powers(base, 7)
	for i, p := range later {
		if !p.Equal(direct[3+i]) {
			t.Errorf("cached power %d = %s, want %s", 3+i, p, direct[3+i])
		}
	}

	// Re-reading a previously served range must not recompute differently.
	again := cache.Range(1, 2)
	if !again[0].Equal(direct[1]) || !again[1].Equal(direct[2]) {
		t.Errorf("re-read range disagrees: %v", again)
	}
}
