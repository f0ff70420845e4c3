package owl

import (
	"crypto/hmac"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/owl-protocol/owl-go/pkg/curve"
)

// Domain-separation tags. Fixed and pairwise distinct; changing any of
// them changes every derived value on the wire.
const (
	tagPi       = "Owl-PI"
	tagT        = "Owl-T"
	tagPassword = "Owl-PW"
	tagZKP      = "Owl-ZKP"
	tagKDF      = "Owl-KDF"

	// Role tags for the key-confirmation MAC; distinct per direction
	// so the two tags are not swappable.
	kcClientTag = "KC_1_U"
	kcServerTag = "KC_1_V"
)

// hashToScalar maps dom-separated items into the scalar field. Each
// item is framed with an 8-byte little-endian length prefix so field
// boundaries cannot shift.
func (s *suite) hashToScalar(dom string, items ...[]byte) curve.Scalar {
	var buf []byte
	for _, item := range items {
		buf = appendWithLen64(buf, item)
	}
	return s.group.HashToScalar(dom, buf)
}

// pi derives the password verifier scalar: H(username, serverId, password).
func (s *suite) pi(username, password string) curve.Scalar {
	return s.hashToScalar(tagPi, []byte(username), []byte(s.serverID), []byte(password))
}

// t derives the recovery-point scalar: H(password, username).
func (s *suite) t(username, password string) curve.Scalar {
	return s.hashToScalar(tagT, []byte(password), []byte(username))
}

// transcript serializes the full exchange: both identities followed by
// every public value, each length-prefixed.
func (s *suite) transcript(username string, x1, x2, x3, x4, beta, alpha curve.Point) []byte {
	var tt []byte
	tt = appendWithLen64(tt, []byte(username))
	tt = appendWithLen64(tt, []byte(s.serverID))
	for _, p := range []curve.Point{x1, x2, x3, x4, beta, alpha} {
		tt = appendWithLen64(tt, p.Bytes())
	}
	return tt
}

// deriveKey computes the session key from the shared group element and
// the transcript. Output length equals the curve-matched digest size.
func (s *suite) deriveKey(k curve.Point, transcript []byte) []byte {
	r := hkdf.New(s.group.NewHash, k.Bytes(), []byte(tagKDF), transcript)
	key := make([]byte, s.group.HashSize())
	if _, err := io.ReadFull(r, key); err != nil {
		// HKDF cannot fail within one digest of output.
		panic("owl: kdf: " + err.Error())
	}
	return key
}

// keyConfirmation computes the confirmation tag for one role over the
// transcript.
func (s *suite) keyConfirmation(key []byte, roleTag string, transcript []byte) []byte {
	mac := hmac.New(s.group.NewHash, key)
	mac.Write(appendWithLen64(nil, []byte(roleTag)))
	mac.Write(transcript)
	return mac.Sum(nil)
}

// VerifyKeyConfirmation compares a received key-confirmation tag with
// the locally expected one in constant time.
func VerifyKeyConfirmation(received, expected []byte) bool {
	return hmac.Equal(received, expected)
}

// appendWithLen64 appends data with an 8-byte little-endian length prefix.
func appendWithLen64(dst, data []byte) []byte {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(data)))
	dst = append(dst, lenBuf[:]...)
	dst = append(dst, data...)
	return dst
}
