package curve

import (
	"bytes"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"math/big"

	"github.com/cloudflare/circl/group"
)

// nistGroup implements Group for the three NIST prime curves on top of
// circl's prime-order group API. All three have cofactor 1, so on-curve
// membership implies subgroup membership.
type nistGroup struct {
	id      ID
	g       group.Group
	order   *big.Int
	newHash func() hash.Hash
}

var (
	nistP256 = &nistGroup{id: P256, g: group.P256, order: elliptic.P256().Params().N, newHash: func() hash.Hash { return sha256.New() }}
	nistP384 = &nistGroup{id: P384, g: group.P384, order: elliptic.P384().Params().N, newHash: func() hash.Hash { return sha512.New384() }}
	nistP521 = &nistGroup{id: P521, g: group.P521, order: elliptic.P521().Params().N, newHash: func() hash.Hash { return sha512.New() }}
)

func (n *nistGroup) ID() ID             { return n.id }
func (n *nistGroup) ScalarSize() int    { return int(n.g.Params().ScalarLength) }
func (n *nistGroup) PointSize() int     { return int(n.g.Params().CompressedElementLength) }
func (n *nistGroup) NewHash() hash.Hash { return n.newHash() }
func (n *nistGroup) HashSize() int      { return n.newHash().Size() }

func (n *nistGroup) RandomScalar(r io.Reader) (Scalar, error) {
	// Uniform in [1, n): sample [0, n-1) and shift by one.
	max := new(big.Int).Sub(n.order, big.NewInt(1))
	k, err := rand.Int(r, max)
	if err != nil {
		return nil, fmt.Errorf("curve: scalar sampling: %w", err)
	}
	k.Add(k, big.NewInt(1))

	buf := make([]byte, n.ScalarSize())
	k.FillBytes(buf)
	k.SetInt64(0)

	s := n.g.NewScalar()
	if err := s.UnmarshalBinary(buf); err != nil {
		return nil, fmt.Errorf("curve: scalar sampling: %w", err)
	}
	return &nistScalar{n: n, s: s}, nil
}

func (n *nistGroup) HashToScalar(dst string, data []byte) Scalar {
	return &nistScalar{n: n, s: n.g.HashToScalar(data, []byte(dst))}
}

func (n *nistGroup) ParseScalar(b []byte) (Scalar, error) {
	if len(b) != n.ScalarSize() {
		return nil, ErrInvalidScalar
	}
	// Values at or above the group order are rejected outright.
	if new(big.Int).SetBytes(b).Cmp(n.order) >= 0 {
		return nil, ErrInvalidScalar
	}
	s := n.g.NewScalar()
	if err := s.UnmarshalBinary(b); err != nil {
		return nil, ErrInvalidScalar
	}
	// The decoded scalar must re-encode to exactly the input bytes.
	enc, err := s.MarshalBinary()
	if err != nil || !bytes.Equal(enc, b) {
		return nil, ErrInvalidScalar
	}
	if s.IsZero() {
		return nil, ErrInvalidScalar
	}
	return &nistScalar{n: n, s: s}, nil
}

func (n *nistGroup) ParsePoint(b []byte) (Point, error) {
	if len(b) != n.PointSize() {
		return nil, ErrInvalidPoint
	}
	e := n.g.NewElement()
	if err := e.UnmarshalBinary(b); err != nil {
		return nil, ErrInvalidPoint
	}
	if e.IsIdentity() {
		return nil, ErrInvalidPoint
	}
	return &nistPoint{n: n, e: e}, nil
}

func (n *nistGroup) Generator() Point {
	return &nistPoint{n: n, e: n.g.Generator()}
}

func (n *nistGroup) ScalarBaseMult(k Scalar) Point {
	ks := k.(*nistScalar)
	return &nistPoint{n: n, e: n.g.NewElement().MulGen(ks.s)}
}

// nistScalar wraps a circl scalar. Arithmetic never mutates operands.
type nistScalar struct {
	n *nistGroup
	s group.Scalar
}

func (a *nistScalar) Add(b Scalar) Scalar {
	return &nistScalar{n: a.n, s: a.n.g.NewScalar().Add(a.s, b.(*nistScalar).s)}
}

func (a *nistScalar) Sub(b Scalar) Scalar {
	return &nistScalar{n: a.n, s: a.n.g.NewScalar().Sub(a.s, b.(*nistScalar).s)}
}

func (a *nistScalar) Mul(b Scalar) Scalar {
	return &nistScalar{n: a.n, s: a.n.g.NewScalar().Mul(a.s, b.(*nistScalar).s)}
}

func (a *nistScalar) Neg() Scalar {
	return &nistScalar{n: a.n, s: a.n.g.NewScalar().Neg(a.s)}
}

func (a *nistScalar) IsZero() bool { return a.s.IsZero() }

func (a *nistScalar) Equal(b Scalar) bool { return a.s.IsEqual(b.(*nistScalar).s) }

func (a *nistScalar) Bytes() []byte {
	enc, err := a.s.MarshalBinary()
	if err != nil {
		panic("curve: scalar marshal: " + err.Error())
	}
	return enc
}

func (a *nistScalar) Wipe() { a.s.SetUint64(0) }

// nistPoint wraps a circl group element.
type nistPoint struct {
	n *nistGroup
	e group.Element
}

func (p *nistPoint) Add(q Point) Point {
	return &nistPoint{n: p.n, e: p.n.g.NewElement().Add(p.e, q.(*nistPoint).e)}
}

func (p *nistPoint) Mul(k Scalar) Point {
	return &nistPoint{n: p.n, e: p.n.g.NewElement().Mul(p.e, k.(*nistScalar).s)}
}

func (p *nistPoint) IsIdentity() bool { return p.e.IsIdentity() }

func (p *nistPoint) Equal(q Point) bool { return p.e.IsEqual(q.(*nistPoint).e) }

func (p *nistPoint) Bytes() []byte {
	enc, err := p.e.MarshalBinaryCompress()
	if err != nil {
		panic("curve: point marshal: " + err.Error())
	}
	return enc
}
