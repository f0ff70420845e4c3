package curve

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"math/big"

	"github.com/cloudflare/circl/ecc/fourq"
)

// fourQOrder is the order of FourQ's prime-order subgroup (246 bits).
// The full curve has cofactor 392, so subgroup membership of incoming
// points must be checked explicitly.
var fourQOrder, _ = new(big.Int).SetString(
	"29CBC14E5E0A72F05397829CBC14E5DFBD004DFE0F79992FB2540EC7768CE7", 16)

// fourQOrderLE is the subgroup order as a little-endian multiplier.
var fourQOrderLE = scalarToLE(fourQOrder)

// fourQGroup implements Group on circl's FourQ point arithmetic.
// Scalar arithmetic is mod the subgroup order; the serialized form is
// 32-byte little-endian, the byte order FourQlib (and circl's
// ScalarMult) consumes.
type fourQGroup struct{}

var fourQ = &fourQGroup{}

func (*fourQGroup) ID() ID             { return FourQ }
func (*fourQGroup) ScalarSize() int    { return fourq.Size }
func (*fourQGroup) PointSize() int     { return fourq.Size }
func (*fourQGroup) NewHash() hash.Hash { return sha256.New() }
func (*fourQGroup) HashSize() int      { return sha256.Size }

func (g *fourQGroup) RandomScalar(r io.Reader) (Scalar, error) {
	max := new(big.Int).Sub(fourQOrder, big.NewInt(1))
	k, err := rand.Int(r, max)
	if err != nil {
		return nil, fmt.Errorf("curve: scalar sampling: %w", err)
	}
	k.Add(k, big.NewInt(1))
	return &fourQScalar{v: k}, nil
}

func (g *fourQGroup) HashToScalar(dst string, data []byte) Scalar {
	// SHA-512 output is more than twice the 246-bit order, which keeps
	// the mod-n reduction bias negligible.
	h := sha512.New()
	h.Write([]byte(dst))
	h.Write(data)
	v := new(big.Int).SetBytes(h.Sum(nil))
	v.Mod(v, fourQOrder)
	return &fourQScalar{v: v}
}

func (g *fourQGroup) ParseScalar(b []byte) (Scalar, error) {
	if len(b) != fourq.Size {
		return nil, ErrInvalidScalar
	}
	v := new(big.Int).SetBytes(reverse(b))
	if v.Sign() == 0 || v.Cmp(fourQOrder) >= 0 {
		return nil, ErrInvalidScalar
	}
	return &fourQScalar{v: v}, nil
}

func (g *fourQGroup) ParsePoint(b []byte) (Point, error) {
	if len(b) != fourq.Size {
		return nil, ErrInvalidPoint
	}
	var buf [fourq.Size]byte
	copy(buf[:], b)

	var p fourq.Point
	if !p.Unmarshal(&buf) {
		return nil, ErrInvalidPoint
	}
	if !p.IsOnCurve() || p.IsIdentity() {
		return nil, ErrInvalidPoint
	}
	// Cofactor 392: require n·P = identity to reject small-order
	// components.
	var t fourq.Point
	t.ScalarMult(&fourQOrderLE, &p)
	if !t.IsIdentity() {
		return nil, ErrInvalidPoint
	}
	return &fourQPoint{p: p}, nil
}

func (g *fourQGroup) Generator() Point {
	var p fourq.Point
	p.SetGenerator()
	return &fourQPoint{p: p}
}

func (g *fourQGroup) ScalarBaseMult(k Scalar) Point {
	kb := k.(*fourQScalar).le()
	var p fourq.Point
	p.ScalarBaseMult(&kb)
	return &fourQPoint{p: p}
}

// fourQScalar is an integer mod the FourQ subgroup order.
type fourQScalar struct {
	v *big.Int
}

func (a *fourQScalar) Add(b Scalar) Scalar {
	r := new(big.Int).Add(a.v, b.(*fourQScalar).v)
	return &fourQScalar{v: r.Mod(r, fourQOrder)}
}

func (a *fourQScalar) Sub(b Scalar) Scalar {
	r := new(big.Int).Sub(a.v, b.(*fourQScalar).v)
	return &fourQScalar{v: r.Mod(r, fourQOrder)}
}

func (a *fourQScalar) Mul(b Scalar) Scalar {
	r := new(big.Int).Mul(a.v, b.(*fourQScalar).v)
	return &fourQScalar{v: r.Mod(r, fourQOrder)}
}

func (a *fourQScalar) Neg() Scalar {
	r := new(big.Int).Neg(a.v)
	return &fourQScalar{v: r.Mod(r, fourQOrder)}
}

func (a *fourQScalar) IsZero() bool { return a.v.Sign() == 0 }

func (a *fourQScalar) Equal(b Scalar) bool { return a.v.Cmp(b.(*fourQScalar).v) == 0 }

func (a *fourQScalar) Bytes() []byte {
	le := a.le()
	return le[:]
}

func (a *fourQScalar) Wipe() { a.v.SetInt64(0) }

func (a *fourQScalar) le() [fourq.Size]byte { return scalarToLE(a.v) }

// fourQPoint wraps a circl FourQ affine point.
type fourQPoint struct {
	p fourq.Point
}

func (p *fourQPoint) Add(q Point) Point {
	var r fourq.Point
	r.Add(&p.p, &q.(*fourQPoint).p)
	return &fourQPoint{p: r}
}

func (p *fourQPoint) Mul(k Scalar) Point {
	kb := k.(*fourQScalar).le()
	var r fourq.Point
	r.ScalarMult(&kb, &p.p)
	return &fourQPoint{p: r}
}

func (p *fourQPoint) IsIdentity() bool { return p.p.IsIdentity() }

func (p *fourQPoint) Equal(q Point) bool {
	var a, b [fourq.Size]byte
	p.p.Marshal(&a)
	q.(*fourQPoint).p.Marshal(&b)
	return a == b
}

func (p *fourQPoint) Bytes() []byte {
	var buf [fourq.Size]byte
	p.p.Marshal(&buf)
	return buf[:]
}

func scalarToLE(v *big.Int) [fourq.Size]byte {
	var be [fourq.Size]byte
	v.FillBytes(be[:])
	var le [fourq.Size]byte
	for i := range be {
		le[i] = be[len(be)-1-i]
	}
	return le
}

func reverse(b []byte) []byte {
	r := make([]byte, len(b))
	for i := range b {
		r[i] = b[len(b)-1-i]
	}
	return r
}
