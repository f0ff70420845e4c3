package wire

import (
	"github.com/owl-protocol/owl-go/pkg/curve"
	"github.com/owl-protocol/owl-go/pkg/owl"
)

// Wire records. CBOR maps with integer keys; every field is required.

// zkpRecord is the wire form of a Schnorr proof.
// CBOR: { 1: h, 2: r, 3: b }
type zkpRecord struct {
	H []byte `cbor:"1,keyasint"`
	R []byte `cbor:"2,keyasint"`
	B []byte `cbor:"3,keyasint"`
}

// registrationRecord is the wire form of owl.RegistrationRequest.
// CBOR: { 1: username, 2: pi, 3: T }
type registrationRecord struct {
	Username string `cbor:"1,keyasint"`
	Pi       []byte `cbor:"2,keyasint"`
	T        []byte `cbor:"3,keyasint"`
}

// credentialsRecord is the wire form of owl.UserCredentials.
// CBOR: { 1: X3, 2: pi, 3: T }
type credentialsRecord struct {
	X3 []byte `cbor:"1,keyasint"`
	Pi []byte `cbor:"2,keyasint"`
	T  []byte `cbor:"3,keyasint"`
}

// authInitRecord is the wire form of owl.AuthInitRequest.
// CBOR: { 1: X1, 2: X2, 3: PI1, 4: PI2 }
type authInitRecord struct {
	X1  []byte    `cbor:"1,keyasint"`
	X2  []byte    `cbor:"2,keyasint"`
	PI1 zkpRecord `cbor:"3,keyasint"`
	PI2 zkpRecord `cbor:"4,keyasint"`
}

// authInitResponseRecord is the wire form of owl.AuthInitResponse.
// CBOR: { 1: X3, 2: X4, 3: beta, 4: PI3, 5: PI4, 6: PIbeta }
type authInitResponseRecord struct {
	X3     []byte    `cbor:"1,keyasint"`
	X4     []byte    `cbor:"2,keyasint"`
	Beta   []byte    `cbor:"3,keyasint"`
	PI3    zkpRecord `cbor:"4,keyasint"`
	PI4    zkpRecord `cbor:"5,keyasint"`
	PIBeta zkpRecord `cbor:"6,keyasint"`
}

// authFinishRecord is the wire form of owl.AuthFinishRequest.
// CBOR: { 1: alpha, 2: PIalpha, 3: r, 4: kc }
type authFinishRecord struct {
	Alpha   []byte    `cbor:"1,keyasint"`
	PIAlpha zkpRecord `cbor:"2,keyasint"`
	R       []byte    `cbor:"3,keyasint"`
	KC      []byte    `cbor:"4,keyasint"`
}

// initialValuesRecord is the persisted form of owl.AuthInitialValues.
// It contains the session witness x4; stores holding it are as
// sensitive as the session itself.
// CBOR: { 1: beta, 2: X1, 3: X2, 4: X3, 5: X4, 6: pi, 7: x4 }
type initialValuesRecord struct {
	Beta []byte `cbor:"1,keyasint"`
	X1   []byte `cbor:"2,keyasint"`
	X2   []byte `cbor:"3,keyasint"`
	X3   []byte `cbor:"4,keyasint"`
	X4   []byte `cbor:"5,keyasint"`
	Pi   []byte `cbor:"6,keyasint"`
	X4s  []byte `cbor:"7,keyasint"`
}

// decode helpers: wrong length is a structural failure, a value the
// curve rejects is a cryptographic one.

func decodePoint(g curve.Group, b []byte) (curve.Point, error) {
	if len(b) != g.PointSize() {
		return nil, structureErr()
	}
	p, err := g.ParsePoint(b)
	if err != nil {
		return nil, cryptoErr()
	}
	return p, nil
}

func decodeScalar(g curve.Group, b []byte) (curve.Scalar, error) {
	if len(b) != g.ScalarSize() {
		return nil, structureErr()
	}
	s, err := g.ParseScalar(b)
	if err != nil {
		return nil, cryptoErr()
	}
	return s, nil
}

func encodeProof(p owl.ZKPProof) zkpRecord {
	return zkpRecord{H: p.H.Bytes(), R: p.R.Bytes(), B: p.B.Bytes()}
}

func decodeProof(g curve.Group, rec zkpRecord) (owl.ZKPProof, error) {
	h, err := decodeScalar(g, rec.H)
	if err != nil {
		return owl.ZKPProof{}, err
	}
	r, err := decodeScalar(g, rec.R)
	if err != nil {
		return owl.ZKPProof{}, err
	}
	b, err := decodePoint(g, rec.B)
	if err != nil {
		return owl.ZKPProof{}, err
	}
	return owl.ZKPProof{H: h, R: r, B: b}, nil
}

// EncodeRegistrationRequest encodes a registration request.
func EncodeRegistrationRequest(m *owl.RegistrationRequest) ([]byte, error) {
	return marshal(registrationRecord{Username: m.Username, Pi: m.Pi.Bytes(), T: m.T.Bytes()})
}

// DecodeRegistrationRequest decodes and validates a registration request.
func DecodeRegistrationRequest(data []byte, g curve.Group) (*owl.RegistrationRequest, error) {
	var rec registrationRecord
	if err := unmarshal(data, &rec); err != nil {
		return nil, structureErr()
	}
	if rec.Username == "" {
		return nil, structureErr()
	}
	pi, err := decodeScalar(g, rec.Pi)
	if err != nil {
		return nil, err
	}
	t, err := decodePoint(g, rec.T)
	if err != nil {
		return nil, err
	}
	return &owl.RegistrationRequest{Username: rec.Username, Pi: pi, T: t}, nil
}

// EncodeUserCredentials encodes a credential record for persistence.
func EncodeUserCredentials(m *owl.UserCredentials) ([]byte, error) {
	return marshal(credentialsRecord{X3: m.X3.Bytes(), Pi: m.Pi.Bytes(), T: m.T.Bytes()})
}

// DecodeUserCredentials decodes and validates a credential record.
func DecodeUserCredentials(data []byte, g curve.Group) (*owl.UserCredentials, error) {
	var rec credentialsRecord
	if err := unmarshal(data, &rec); err != nil {
		return nil, structureErr()
	}
	x3, err := decodePoint(g, rec.X3)
	if err != nil {
		return nil, err
	}
	pi, err := decodeScalar(g, rec.Pi)
	if err != nil {
		return nil, err
	}
	t, err := decodePoint(g, rec.T)
	if err != nil {
		return nil, err
	}
	return &owl.UserCredentials{X3: x3, Pi: pi, T: t}, nil
}

// EncodeAuthInitRequest encodes a flow-1 request.
func EncodeAuthInitRequest(m *owl.AuthInitRequest) ([]byte, error) {
	return marshal(authInitRecord{
		X1:  m.X1.Bytes(),
		X2:  m.X2.Bytes(),
		PI1: encodeProof(m.PI1),
		PI2: encodeProof(m.PI2),
	})
}

// DecodeAuthInitRequest decodes and validates a flow-1 request.
func DecodeAuthInitRequest(data []byte, g curve.Group) (*owl.AuthInitRequest, error) {
	var rec authInitRecord
	if err := unmarshal(data, &rec); err != nil {
		return nil, structureErr()
	}
	x1, err := decodePoint(g, rec.X1)
	if err != nil {
		return nil, err
	}
	x2, err := decodePoint(g, rec.X2)
	if err != nil {
		return nil, err
	}
	pi1, err := decodeProof(g, rec.PI1)
	if err != nil {
		return nil, err
	}
	pi2, err := decodeProof(g, rec.PI2)
	if err != nil {
		return nil, err
	}
	return &owl.AuthInitRequest{X1: x1, X2: x2, PI1: pi1, PI2: pi2}, nil
}

// EncodeAuthInitResponse encodes a flow-2 response.
func EncodeAuthInitResponse(m *owl.AuthInitResponse) ([]byte, error) {
	return marshal(authInitResponseRecord{
		X3:     m.X3.Bytes(),
		X4:     m.X4.Bytes(),
		Beta:   m.Beta.Bytes(),
		PI3:    encodeProof(m.PI3),
		PI4:    encodeProof(m.PI4),
		PIBeta: encodeProof(m.PIBeta),
	})
}

// DecodeAuthInitResponse decodes and validates a flow-2 response.
func DecodeAuthInitResponse(data []byte, g curve.Group) (*owl.AuthInitResponse, error) {
	var rec authInitResponseRecord
	if err := unmarshal(data, &rec); err != nil {
		return nil, structureErr()
	}
	x3, err := decodePoint(g, rec.X3)
	if err != nil {
		return nil, err
	}
	x4, err := decodePoint(g, rec.X4)
	if err != nil {
		return nil, err
	}
	beta, err := decodePoint(g, rec.Beta)
	if err != nil {
		return nil, err
	}
	pi3, err := decodeProof(g, rec.PI3)
	if err != nil {
		return nil, err
	}
	pi4, err := decodeProof(g, rec.PI4)
	if err != nil {
		return nil, err
	}
	piBeta, err := decodeProof(g, rec.PIBeta)
	if err != nil {
		return nil, err
	}
	return &owl.AuthInitResponse{X3: x3, X4: x4, Beta: beta, PI3: pi3, PI4: pi4, PIBeta: piBeta}, nil
}

// EncodeAuthFinishRequest encodes a flow-3 request.
func EncodeAuthFinishRequest(m *owl.AuthFinishRequest) ([]byte, error) {
	return marshal(authFinishRecord{
		Alpha:   m.Alpha.Bytes(),
		PIAlpha: encodeProof(m.PIAlpha),
		R:       m.R.Bytes(),
		KC:      m.KC,
	})
}

// DecodeAuthFinishRequest decodes and validates a flow-3 request. The
// key-confirmation tag must match the curve's digest size.
func DecodeAuthFinishRequest(data []byte, g curve.Group) (*owl.AuthFinishRequest, error) {
	var rec authFinishRecord
	if err := unmarshal(data, &rec); err != nil {
		return nil, structureErr()
	}
	alpha, err := decodePoint(g, rec.Alpha)
	if err != nil {
		return nil, err
	}
	piAlpha, err := decodeProof(g, rec.PIAlpha)
	if err != nil {
		return nil, err
	}
	r, err := decodeScalar(g, rec.R)
	if err != nil {
		return nil, err
	}
	if len(rec.KC) != g.HashSize() {
		return nil, structureErr()
	}
	return &owl.AuthFinishRequest{Alpha: alpha, PIAlpha: piAlpha, R: r, KC: rec.KC}, nil
}

// EncodeAuthInitialValues encodes per-session server state for a
// session store.
func EncodeAuthInitialValues(m *owl.AuthInitialValues) ([]byte, error) {
	return marshal(initialValuesRecord{
		Beta: m.Beta.Bytes(),
		X1:   m.X1.Bytes(),
		X2:   m.X2.Bytes(),
		X3:   m.X3.Bytes(),
		X4:   m.X4.Bytes(),
		Pi:   m.Pi.Bytes(),
		X4s:  m.X4s.Bytes(),
	})
}

// DecodeAuthInitialValues decodes per-session server state.
func DecodeAuthInitialValues(data []byte, g curve.Group) (*owl.AuthInitialValues, error) {
	var rec initialValuesRecord
	if err := unmarshal(data, &rec); err != nil {
		return nil, structureErr()
	}
	beta, err := decodePoint(g, rec.Beta)
	if err != nil {
		return nil, err
	}
	x1, err := decodePoint(g, rec.X1)
	if err != nil {
		return nil, err
	}
	x2, err := decodePoint(g, rec.X2)
	if err != nil {
		return nil, err
	}
	x3, err := decodePoint(g, rec.X3)
	if err != nil {
		return nil, err
	}
	x4, err := decodePoint(g, rec.X4)
	if err != nil {
		return nil, err
	}
	pi, err := decodeScalar(g, rec.Pi)
	if err != nil {
		return nil, err
	}
	x4s, err := decodeScalar(g, rec.X4s)
	if err != nil {
		return nil, err
	}
	return &owl.AuthInitialValues{Beta: beta, X1: x1, X2: x2, X3: x3, X4: x4, Pi: pi, X4s: x4s}, nil
}
