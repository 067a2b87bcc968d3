package fri

import (
	"math/rand"
	"testing"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/core"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/dft"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/mmcs"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/utils"
)

var testShift = field.New(7)

// randomCodeword extends a random degree < 2^logN polynomial onto the coset
// testShift * <g> of size 2^(logN+logBlowup), in bit-reversed order
func randomCodeword(t *testing.T, rng *rand.Rand, engine *dft.Radix2DitParallel, logN, logBlowup int) []field.Element {
	t.Helper()
	evals := core.NewZeroMatrix(1<<logN, 1)
	for i := range evals.Values {
		evals.Values[i] = field.New(rng.Uint64() % field.P)
	}
	lde, err := engine.CosetLDEBatch(evals, logBlowup, testShift)
	if err != nil {
		t.Fatal(err)
	}
	return lde.Values
}

func randomElement(rng *rand.Rand) field.Element {
	return field.New(rng.Uint64() % field.P)
}

func TestRepeatedFoldingLeavesConstant(t *testing.T) {
	rng := rand.New(rand.NewSource(59))
	engine := dft.NewRadix2DitParallel()

	for _, tc := range []struct{ logN, logBlowup int }{
		{3, 1}, {5, 1}, {4, 2}, {6, 3},
	} {
		codeword := randomCodeword(t, rng, engine, tc.logN, tc.logBlowup)
		shift := testShift
		for len(codeword) > 1<<tc.logBlowup {
			var err error
			codeword, err = FoldEvals(codeword, randomElement(rng), shift)
			if err != nil {
				t.Fatal(err)
			}
			shift = shift.Mul(shift)
		}
		for i, v := range codeword[1:] {
			if !v.Equal(codeword[0]) {
				t.Fatalf("logN=%d blowup=%d: folded entry %d differs", tc.logN, tc.logBlowup, i+1)
			}
		}
	}
}

func TestFoldRowMatchesFoldEvals(t *testing.T) {
	rng := rand.New(rand.NewSource(61))
	logH := 5
	evals := make([]field.Element, 1<<logH)
	for i := range evals {
		evals[i] = randomElement(rng)
	}
	beta := randomElement(rng)

	whole, err := FoldEvals(evals, beta, testShift)
	if err != nil {
		t.Fatal(err)
	}
	for i := range whole {
		single := FoldRow(i, logH, beta, testShift, evals[2*i], evals[2*i+1])
		if !single.Equal(whole[i]) {
			t.Fatalf("row %d: FoldRow = %s, FoldEvals = %s", i, single, whole[i])
		}
	}
}

// testInstance builds codewords at two heights and the honest input oracle
func testInstance(t *testing.T, rng *rand.Rand, cfg Config) (map[int][]field.Element, InputOpeningsFunc, int) {
	t.Helper()
	engine := dft.NewRadix2DitParallel()
	tall := randomCodeword(t, rng, engine, 5, cfg.LogBlowup)
	short := randomCodeword(t, rng, engine, 4, cfg.LogBlowup)
	logMax := 5 + cfg.LogBlowup

	inputs := map[int][]field.Element{
		logMax:     tall,
		logMax - 1: short,
	}
	inputAt := func(queryNum, index int) (map[int]field.Element, error) {
		return map[int]field.Element{
			logMax:     tall[index],
			logMax - 1: short[index>>1],
		}, nil
	}
	return inputs, inputAt, logMax
}

func TestProveVerifyRoundtrip(t *testing.T) {
	rng := rand.New(rand.NewSource(67))
	cfg := DefaultConfig().WithProofOfWorkBits(4)
	m := mmcs.NewMerkleMMCS()
	inputs, inputAt, logMax := testInstance(t, rng, cfg)

	proverCh := utils.NewChannel("sha3")
	proof, indices, err := Prove(cfg, m, inputs, testShift, proverCh)
	if err != nil {
		t.Fatal(err)
	}
	if len(indices) != cfg.NumQueries {
		t.Fatalf("sampled %d indices, want %d", len(indices), cfg.NumQueries)
	}
	if len(proof.RoundCommitments) != logMax-cfg.LogBlowup {
		t.Fatalf("proof has %d rounds, want %d", len(proof.RoundCommitments), logMax-cfg.LogBlowup)
	}

	verifierCh := utils.NewChannel("sha3")
	if err := Verify(cfg, m, proof, logMax, testShift, verifierCh, inputAt); err != nil {
		t.Fatal(err)
	}
}

func TestProveRejectsHighDegree(t *testing.T) {
	rng := rand.New(rand.NewSource(71))
	cfg := DefaultConfig().WithProofOfWorkBits(2)
	m := mmcs.NewMerkleMMCS()

	// A random vector is not a codeword, so folding cannot end constant.
	junk := make([]field.Element, 64)
	for i := range junk {
		junk[i] = randomElement(rng)
	}
	ch := utils.NewChannel("sha3")
	if _, _, err := Prove(cfg, m, map[int][]field.Element{6: junk}, testShift, ch); err == nil {
		t.Fatal("expected proving to fail on a high-degree input")
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	rng := rand.New(rand.NewSource(73))
	cfg := DefaultConfig().WithProofOfWorkBits(4)
	m := mmcs.NewMerkleMMCS()
	inputs, inputAt, logMax := testInstance(t, rng, cfg)

	proverCh := utils.NewChannel("sha3")
	proof, _, err := Prove(cfg, m, inputs, testShift, proverCh)
	if err != nil {
		t.Fatal(err)
	}

	verify := func(p *Proof) error {
		ch := utils.NewChannel("sha3")
		return Verify(cfg, m, p, logMax, testShift, ch, inputAt)
	}
	if err := verify(proof); err != nil {
		t.Fatal(err)
	}

	t.Run("tampered final value", func(t *testing.T) {
		bad := *proof
		bad.FinalValue = bad.FinalValue.Add(field.One)
		if err := verify(&bad); err == nil {
			t.Fatal("accepted a tampered final value")
		}
	})

	t.Run("tampered pow nonce", func(t *testing.T) {
		bad := *proof
		bad.PowNonce += 1 << 40
		if err := verify(&bad); err == nil {
			t.Fatal("accepted a tampered proof-of-work nonce")
		}
	})

	t.Run("tampered pair value", func(t *testing.T) {
		bad := *proof
		bad.QueryProofs = append([]QueryProof(nil), proof.QueryProofs...)
		rounds := append([]RoundOpening(nil), bad.QueryProofs[0].Rounds...)
		rounds[1].Pair[0] = rounds[1].Pair[0].Add(field.One)
		bad.QueryProofs[0] = QueryProof{Rounds: rounds}
		if err := verify(&bad); err == nil {
			t.Fatal("accepted a tampered pair value")
		}
	})

	t.Run("tampered commitment", func(t *testing.T) {
		bad := *proof
		bad.RoundCommitments = append([]mmcs.Commitment(nil), proof.RoundCommitments...)
		bad.RoundCommitments[0][0] = bad.RoundCommitments[0][0].Add(field.One)
		if err := verify(&bad); err == nil {
			t.Fatal("accepted a tampered round commitment")
		}
	})

	t.Run("truncated queries", func(t *testing.T) {
		bad := *proof
		bad.QueryProofs = proof.QueryProofs[:len(proof.QueryProofs)-1]
		if err := verify(&bad); err == nil {
			t.Fatal("accepted a proof with missing queries")
		}
	})
}
