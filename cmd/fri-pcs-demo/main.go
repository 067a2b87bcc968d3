package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/polynomial"

	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/core"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/dft"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/fri"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/mmcs"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/pcs"
	"github.com/vybium/vybium-fri-pcs/internal/vybium-fri-pcs/utils"
)

func main() {
	logBlowup := flag.Int("log-blowup", 1, "log of the FRI blowup factor")
	numQueries := flag.Int("queries", 10, "number of FRI queries")
	powBits := flag.Int("pow-bits", 8, "proof-of-work grinding bits")
	maxLogDegree := flag.Int("max-log-degree", 10, "largest committed log degree")
	seed := flag.Int64("seed", 1, "seed for the random polynomials")
	flag.Parse()

	cfg := fri.DefaultConfig().
		WithLogBlowup(*logBlowup).
		WithNumQueries(*numQueries).
		WithProofOfWorkBits(*powBits)
	if err := cfg.Validate(); err != nil {
		fatal(fmt.Sprintf("invalid config: %v", err))
	}

	engine := dft.NewRadix2DitParallel()
	scheme := mmcs.NewMerkleMMCS()
	p, err := pcs.New(cfg, engine, scheme)
	if err != nil {
		fatal(err.Error())
	}

	rng := rand.New(rand.NewSource(*seed))

	// One mixed-height batch: a polynomial per power of two up to the cap.
	var batch []pcs.DomainMatrix
	var polys []*polynomial.Polynomial
	for logN := 3; logN <= *maxLogDegree; logN++ {
		domain, err := p.NaturalDomainForDegree(1 << logN)
		if err != nil {
			fatal(err.Error())
		}
		coeffs := make([]field.Element, 1<<logN)
		for i := range coeffs {
			coeffs[i] = field.New(rng.Uint64() % field.P)
		}
		poly := polynomial.New(coeffs)
		polys = append(polys, poly)

		evals := make([]field.Element, domain.Size())
		for i, x := range domain.Points() {
			evals[i] = poly.Evaluate(x)
		}
		mat, err := core.NewMatrix(evals, 1)
		if err != nil {
			fatal(err.Error())
		}
		batch = append(batch, pcs.DomainMatrix{Domain: domain, Evals: mat})
	}

	start := time.Now()
	commitment, data, err := p.Commit(batch)
	if err != nil {
		fatal(fmt.Sprintf("commit: %v", err))
	}
	fmt.Printf("committed %d polynomials (log degrees 3..%d) in %v\n",
		len(batch), *maxLogDegree, time.Since(start))

	proverCh := utils.NewChannel("sha3")
	proverCh.ObserveDigest(commitment)
	zeta := proverCh.SampleElement()

	points := make([][]field.Element, len(batch))
	for i := range points {
		points[i] = []field.Element{zeta}
	}

	start = time.Now()
	opened, proof, err := p.Open([]pcs.OpenRound{{Data: data, Points: points}}, proverCh)
	if err != nil {
		fatal(fmt.Sprintf("open: %v", err))
	}
	fmt.Printf("opened at zeta=%s in %v (%d fri rounds, %d queries)\n",
		zeta, time.Since(start), len(proof.Fri.RoundCommitments), len(proof.Fri.QueryProofs))

	for i, poly := range polys {
		want := poly.Evaluate(zeta)
		if !opened[0][i][0][0].Equal(want) {
			fatal(fmt.Sprintf("opened value %d does not match direct evaluation", i))
		}
	}

	claims := make([]pcs.MatrixClaim, len(batch))
	for i := range batch {
		claims[i] = pcs.MatrixClaim{
			Domain: batch[i].Domain,
			Points: points[i],
			Values: opened[0][i],
		}
	}

	verifierCh := utils.NewChannel("sha3")
	verifierCh.ObserveDigest(commitment)
	if !verifierCh.SampleElement().Equal(zeta) {
		fatal("transcript divergence before opening")
	}

	start = time.Now()
	err = p.Verify([]pcs.VerifyRound{{Commitment: commitment, Matrices: claims}}, proof, verifierCh)
	if err != nil {
		fatal(fmt.Sprintf("verify: %v", err))
	}
	fmt.Printf("verified in %v\n", time.Since(start))
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "error:", msg)
	os.Exit(1)
}
