package owl

import (
	"fmt"
	"io"

	"github.com/owl-protocol/owl-go/pkg/curve"
)

// ZKPProof is a Schnorr proof of knowledge of x such that B = base^x.
// H is the challenge, R the response, B the public point. The base is
// the group generator unless the protocol step names an alternate one.
type ZKPProof struct {
	H curve.Scalar
	R curve.Scalar
	B curve.Point
}

// generateZKP proves knowledge of x for B = base^x, binding the proof
// to proverID so it cannot be replayed across roles.
func (s *suite) generateZKP(rand io.Reader, x curve.Scalar, base curve.Point, proverID string) (ZKPProof, error) {
	v, err := s.group.RandomScalar(rand)
	if err != nil {
		return ZKPProof{}, fmt.Errorf("zkp nonce: %w", err)
	}
	defer v.Wipe()

	bigV := base.Mul(v)
	b := base.Mul(x)
	h := s.zkpChallenge(base, bigV, b, proverID)
	r := v.Sub(x.Mul(h))

	return ZKPProof{H: h, R: r, B: b}, nil
}

// verifyZKP checks the proof against the base and prover identity.
// The caller is responsible for recomputing an alternate base from
// independently verified inputs before calling.
func (s *suite) verifyZKP(p ZKPProof, base curve.Point, proverID string) bool {
	if p.H == nil || p.R == nil || p.B == nil || base == nil {
		return false
	}
	if p.B.IsIdentity() {
		return false
	}
	// V' = base^r · B^h; the challenge must recompute identically.
	bigV := base.Mul(p.R).Add(p.B.Mul(p.H))
	h := s.zkpChallenge(base, bigV, p.B, proverID)
	return h.Equal(p.H)
}

func (s *suite) zkpChallenge(base, bigV, b curve.Point, proverID string) curve.Scalar {
	return s.hashToScalar(tagZKP, base.Bytes(), bigV.Bytes(), b.Bytes(), []byte(proverID))
}
