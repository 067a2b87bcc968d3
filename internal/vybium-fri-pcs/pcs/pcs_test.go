package pcs

import (
	"math/rand"
	"testing"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/polynomial"

	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/core"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/dft"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/fri"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/mmcs"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/utils"
)

func testPcs(t *testing.T) *TwoAdicFriPcs {
	t.Helper()
	cfg := fri.DefaultConfig().WithProofOfWorkBits(4)
	p, err := New(cfg, dft.NewRadix2DitParallel(), mmcs.NewMerkleMMCS())
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// randomBatch builds one polynomial matrix per (logN, width) pair, together
// with the column polynomials for direct-evaluation cross-checks
func randomBatch(t *testing.T, rng *rand.Rand, p *TwoAdicFriPcs, shapes [][2]int) ([]DomainMatrix, [][]*polynomial.Polynomial) {
	t.Helper()
	batch := make([]DomainMatrix, len(shapes))
	polys := make([][]*polynomial.Polynomial, len(shapes))
	for i, shape := range shapes {
		logN, width := shape[0], shape[1]
		domain, err := p.NaturalDomainForDegree(1 << logN)
		if err != nil {
			t.Fatal(err)
		}
		polys[i] = make([]*polynomial.Polynomial, width)
		for c := 0; c < width; c++ {
			coeffs := make([]field.Element, 1<<logN)
			for k := range coeffs {
				coeffs[k] = field.New(rng.Uint64() % field.P)
			}
			polys[i][c] = polynomial.New(coeffs)
		}
		evals := core.NewZeroMatrix(domain.Size(), width)
		for r, x := range domain.Points() {
			for c := 0; c < width; c++ {
				evals.Set(r, c, polys[i][c].Evaluate(x))
			}
		}
		batch[i] = DomainMatrix{Domain: domain, Evals: evals}
	}
	return batch, polys
}

func TestCommitOpenVerify(t *testing.T) {
	rng := rand.New(rand.NewSource(79))
	p := testPcs(t)

	batch, polys := randomBatch(t, rng, p, [][2]int{{3, 2}, {4, 1}, {5, 3}})
	commitment, data, err := p.Commit(batch)
	if err != nil {
		t.Fatal(err)
	}

	proverCh := utils.NewChannel("sha3")
	proverCh.ObserveDigest(commitment)
	zeta := proverCh.SampleElement()

	points := make([][]field.Element, len(batch))
	for i := range points {
		points[i] = []field.Element{zeta}
	}
	opened, proof, err := p.Open([]OpenRound{{Data: data, Points: points}}, proverCh)
	if err != nil {
		t.Fatal(err)
	}

	// Opened values must be the true evaluations.
	for i := range batch {
		for c, poly := range polys[i] {
			if want := poly.Evaluate(zeta); !opened[0][i][0][c].Equal(want) {
				t.Fatalf("matrix %d column %d: opened %s, want %s", i, c, opened[0][i][0][c], want)
			}
		}
	}

	claims := make([]MatrixClaim, len(batch))
	for i := range batch {
		claims[i] = MatrixClaim{Domain: batch[i].Domain, Points: points[i], Values: opened[0][i]}
	}
	verifierCh := utils.NewChannel("sha3")
	verifierCh.ObserveDigest(commitment)
	if !verifierCh.SampleElement().Equal(zeta) {
		t.Fatal("transcripts diverged before opening")
	}
	if err := p.Verify([]VerifyRound{{Commitment: commitment, Matrices: claims}}, proof, verifierCh); err != nil {
		t.Fatal(err)
	}
}

func TestOpenAtMultiplePointsAndBatches(t *testing.T) {
	rng := rand.New(rand.NewSource(83))
	p := testPcs(t)

	batchA, polysA := randomBatch(t, rng, p, [][2]int{{4, 2}})
	batchB, polysB := randomBatch(t, rng, p, [][2]int{{3, 1}, {5, 1}})

	commitA, dataA, err := p.Commit(batchA)
	if err != nil {
		t.Fatal(err)
	}
	commitB, dataB, err := p.Commit(batchB)
	if err != nil {
		t.Fatal(err)
	}

	proverCh := utils.NewChannel("sha3")
	proverCh.ObserveDigest(commitA)
	proverCh.ObserveDigest(commitB)
	zeta := proverCh.SampleElement()
	omega := proverCh.SampleElement()

	rounds := []OpenRound{
		{Data: dataA, Points: [][]field.Element{{zeta, omega}}},
		{Data: dataB, Points: [][]field.Element{{zeta}, {omega}}},
	}
	opened, proof, err := p.Open(rounds, proverCh)
	if err != nil {
		t.Fatal(err)
	}

	if want := polysA[0][1].Evaluate(omega); !opened[0][0][1][1].Equal(want) {
		t.Fatalf("second point of batch A: opened %s, want %s", opened[0][0][1][1], want)
	}
	if want := polysB[1][0].Evaluate(omega); !opened[1][1][0][0].Equal(want) {
		t.Fatalf("batch B tall matrix: opened %s, want %s", opened[1][1][0][0], want)
	}

	verifyRounds := []VerifyRound{
		{Commitment: commitA, Matrices: []MatrixClaim{
			{Domain: batchA[0].Domain, Points: []field.Element{zeta, omega}, Values: opened[0][0]},
		}},
		{Commitment: commitB, Matrices: []MatrixClaim{
			{Domain: batchB[0].Domain, Points: []field.Element{zeta}, Values: opened[1][0]},
			{Domain: batchB[1].Domain, Points: []field.Element{omega}, Values: opened[1][1]},
		}},
	}
	verifierCh := utils.NewChannel("sha3")
	verifierCh.ObserveDigest(commitA)
	verifierCh.ObserveDigest(commitB)
	verifierCh.SampleElement()
	verifierCh.SampleElement()
	if err := p.Verify(verifyRounds, proof, verifierCh); err != nil {
		t.Fatal(err)
	}
}

func TestReduceMatrixIsColumnLinear(t *testing.T) {
	// Reducing a width-2 matrix must equal reducing its columns one after the
	// other with the same power cache: the accumulator is linear in the
	// columns, each weighted by its own power of alpha.
	rng := rand.New(rand.NewSource(97))
	p := testPcs(t)

	domain, err := p.NaturalDomainForDegree(1 << 3)
	if err != nil {
		t.Fatal(err)
	}
	evals := core.NewZeroMatrix(domain.Size(), 2)
	for i := range evals.Values {
		evals.Values[i] = field.New(rng.Uint64() % field.P)
	}
	shift := p.cosetShift().Mul(domain.Shift.Inverse())
	lde, err := p.dft.CosetLDEBatch(evals.Clone(), p.fri.LogBlowup, shift)
	if err != nil {
		t.Fatal(err)
	}
	logH := utils.Log2(lde.Height())

	zeta := field.New(12345)
	alpha := field.New(999)

	joint := make(map[int][]field.Element)
	if _, err := p.reduceMatrix(lde, []field.Element{zeta}, core.NewPowerCache(alpha), make(map[int]int), joint); err != nil {
		t.Fatal(err)
	}

	column := func(c int) *core.Matrix {
		out := core.NewZeroMatrix(lde.Height(), 1)
		for r := 0; r < lde.Height(); r++ {
			out.Set(r, 0, lde.At(r, c))
		}
		return out
	}
	split := make(map[int][]field.Element)
	splitNum := make(map[int]int)
	cache := core.NewPowerCache(alpha)
	for c := 0; c < 2; c++ {
		if _, err := p.reduceMatrix(column(c), []field.Element{zeta}, cache, splitNum, split); err != nil {
			t.Fatal(err)
		}
	}

	for i := range joint[logH] {
		if !joint[logH][i].Equal(split[logH][i]) {
			t.Fatalf("row %d: joint reduction %s, per-column reduction %s", i, joint[logH][i], split[logH][i])
		}
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	rng := rand.New(rand.NewSource(89))
	p := testPcs(t)

	batch, _ := randomBatch(t, rng, p, [][2]int{{3, 1}, {4, 2}})
	commitment, data, err := p.Commit(batch)
	if err != nil {
		t.Fatal(err)
	}

	proverCh := utils.NewChannel("sha3")
	proverCh.ObserveDigest(commitment)
	zeta := proverCh.SampleElement()

	points := [][]field.Element{{zeta}, {zeta}}
	opened, proof, err := p.Open([]OpenRound{{Data: data, Points: points}}, proverCh)
	if err != nil {
		t.Fatal(err)
	}

	claims := func(values OpenedValues) []MatrixClaim {
		return []MatrixClaim{
			{Domain: batch[0].Domain, Points: points[0], Values: values[0][0]},
			{Domain: batch[1].Domain, Points: points[1], Values: values[0][1]},
		}
	}
	verify := func(cs []MatrixClaim, pf *Proof) error {
		ch := utils.NewChannel("sha3")
		ch.ObserveDigest(commitment)
		ch.SampleElement()
		return p.Verify([]VerifyRound{{Commitment: commitment, Matrices: cs}}, pf, ch)
	}
	if err := verify(claims(opened), proof); err != nil {
		t.Fatal(err)
	}

	cloneOpened := func() OpenedValues {
		out := make(OpenedValues, len(opened))
		for ri := range opened {
			out[ri] = make([][][]field.Element, len(opened[ri]))
			for mi := range opened[ri] {
				out[ri][mi] = make([][]field.Element, len(opened[ri][mi]))
				for pi := range opened[ri][mi] {
					out[ri][mi][pi] = append([]field.Element(nil), opened[ri][mi][pi]...)
				}
			}
		}
		return out
	}

	t.Run("tampered claimed value", func(t *testing.T) {
		bad := cloneOpened()
		bad[0][1][0][1] = bad[0][1][0][1].Add(field.One)
		if err := verify(claims(bad), proof); err == nil {
			t.Fatal("accepted a tampered claimed evaluation")
		}
	})

	t.Run("tampered input opening", func(t *testing.T) {
		bad := *proof
		bad.InputOpenings = make([][]BatchOpening, len(proof.InputOpenings))
		for qi := range proof.InputOpenings {
			bad.InputOpenings[qi] = append([]BatchOpening(nil), proof.InputOpenings[qi]...)
		}
		rows := make([][]field.Element, len(proof.InputOpenings[0][0].OpenedValues))
		for i, r := range proof.InputOpenings[0][0].OpenedValues {
			rows[i] = append([]field.Element(nil), r...)
		}
		rows[0][0] = rows[0][0].Add(field.One)
		bad.InputOpenings[0][0] = BatchOpening{OpenedValues: rows, Proof: proof.InputOpenings[0][0].Proof}
		if err := verify(claims(opened), &bad); err == nil {
			t.Fatal("accepted a tampered input opening")
		}
	})

	t.Run("tampered fri final value", func(t *testing.T) {
		bad := *proof
		friCopy := *proof.Fri
		friCopy.FinalValue = friCopy.FinalValue.Add(field.One)
		bad.Fri = &friCopy
		if err := verify(claims(opened), &bad); err == nil {
			t.Fatal("accepted a tampered final value")
		}
	})

	t.Run("tampered commitment", func(t *testing.T) {
		badCommit := commitment
		badCommit[0] = badCommit[0].Add(field.One)
		ch := utils.NewChannel("sha3")
		ch.ObserveDigest(commitment)
		ch.SampleElement()
		err := p.Verify([]VerifyRound{{Commitment: badCommit, Matrices: claims(opened)}}, proof, ch)
		if err == nil {
			t.Fatal("accepted a tampered batch commitment")
		}
	})

	t.Run("swapped claim points", func(t *testing.T) {
		cs := claims(opened)
		cs[0].Points = []field.Element{zeta.Add(field.One)}
		if err := verify(cs, proof); err == nil {
			t.Fatal("accepted claims at the wrong point")
		}
	})
}
