package owl

import (
	"crypto/rand"
	"testing"

	"github.com/owl-protocol/owl-go/pkg/curve"
)

func testSuite(t *testing.T, id curve.ID) *suite {
	t.Helper()
	s, err := newSuite(Config{Curve: id, ServerID: "auth.example.com"})
	if err != nil {
		t.Fatalf("newSuite(%v) failed: %v", id, err)
	}
	return s
}

func TestZKPHonestProofVerifies(t *testing.T) {
	for _, id := range []curve.ID{curve.P256, curve.P384, curve.P521, curve.FourQ} {
		s := testSuite(t, id)

		x, err := s.group.RandomScalar(rand.Reader)
		if err != nil {
			t.Fatalf("%v: RandomScalar failed: %v", id, err)
		}
		g := s.group.Generator()

		proof, err := s.generateZKP(rand.Reader, x, g, "alice")
		if err != nil {
			t.Fatalf("%v: generateZKP failed: %v", id, err)
		}
		if !s.verifyZKP(proof, g, "alice") {
			t.Errorf("%v: honest proof rejected", id)
		}
	}
}

func TestZKPAlternateBase(t *testing.T) {
	s := testSuite(t, curve.P256)

	k, _ := s.group.RandomScalar(rand.Reader)
	base := s.group.ScalarBaseMult(k)
	x, _ := s.group.RandomScalar(rand.Reader)

	proof, err := s.generateZKP(rand.Reader, x, base, "alice")
	if err != nil {
		t.Fatalf("generateZKP failed: %v", err)
	}
	if !s.verifyZKP(proof, base, "alice") {
		t.Error("proof under alternate base rejected")
	}
	if s.verifyZKP(proof, s.group.Generator(), "alice") {
		t.Error("proof verified under the wrong base")
	}
}

func TestZKPRejectsTampering(t *testing.T) {
	s := testSuite(t, curve.P256)

	x, _ := s.group.RandomScalar(rand.Reader)
	g := s.group.Generator()
	proof, _ := s.generateZKP(rand.Reader, x, g, "alice")

	one := s.group.HashToScalar("test-one", []byte{1})

	tamperedR := proof
	tamperedR.R = proof.R.Add(one)
	if s.verifyZKP(tamperedR, g, "alice") {
		t.Error("proof with modified r verified")
	}

	tamperedH := proof
	tamperedH.H = proof.H.Add(one)
	if s.verifyZKP(tamperedH, g, "alice") {
		t.Error("proof with modified h verified")
	}

	tamperedB := proof
	tamperedB.B = proof.B.Add(g)
	if s.verifyZKP(tamperedB, g, "alice") {
		t.Error("proof with modified b verified")
	}
}

func TestZKPBindsProverIdentity(t *testing.T) {
	s := testSuite(t, curve.P256)

	x, _ := s.group.RandomScalar(rand.Reader)
	g := s.group.Generator()
	proof, _ := s.generateZKP(rand.Reader, x, g, "alice")

	if s.verifyZKP(proof, g, "mallory") {
		t.Error("proof verified under a different prover identity")
	}
	if s.verifyZKP(proof, g, s.serverID) {
		t.Error("client proof verified as a server proof")
	}
}

func TestZKPRejectsMissingFields(t *testing.T) {
	s := testSuite(t, curve.P256)
	g := s.group.Generator()

	if s.verifyZKP(ZKPProof{}, g, "alice") {
		t.Error("empty proof verified")
	}

	x, _ := s.group.RandomScalar(rand.Reader)
	proof, _ := s.generateZKP(rand.Reader, x, g, "alice")
	proof.B = nil
	if s.verifyZKP(proof, g, "alice") {
		t.Error("proof without public point verified")
	}
}
