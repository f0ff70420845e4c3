package owl

import (
	"fmt"

	"github.com/owl-protocol/owl-go/pkg/curve"
)

// RegistrationRequest is sent once per user, client to server.
// Pi = H(username, serverId, password) and T = G^t with
// t = H(password, username); together they form the password verifier.
type RegistrationRequest struct {
	Username string
	Pi       curve.Scalar
	T        curve.Point
}

// Validate checks the request fields.
func (m *RegistrationRequest) Validate() error {
	if m == nil || m.Username == "" {
		return fmt.Errorf("%w: registration request", ErrInvalidArgument)
	}
	if m.Pi == nil || m.Pi.IsZero() {
		return fmt.Errorf("%w: registration pi", ErrInvalidArgument)
	}
	if m.T == nil || m.T.IsIdentity() {
		return fmt.Errorf("%w: registration T", ErrInvalidArgument)
	}
	return nil
}

// UserCredentials is the server-persisted verifier record. It is
// password-equivalent at rest: anyone holding it can mount an offline
// dictionary attack, so stores must treat it like a password hash.
// Once written it is never mutated.
type UserCredentials struct {
	X3 curve.Point
	Pi curve.Scalar
	T  curve.Point
}

// Validate checks the credential fields.
func (m *UserCredentials) Validate() error {
	if m == nil || m.X3 == nil || m.X3.IsIdentity() ||
		m.Pi == nil || m.Pi.IsZero() ||
		m.T == nil || m.T.IsIdentity() {
		return fmt.Errorf("%w: user credentials", ErrInvalidArgument)
	}
	return nil
}

// AuthInitRequest is flow 1, client to server: ephemeral points X1, X2
// with proofs of knowledge of their discrete logs.
type AuthInitRequest struct {
	X1  curve.Point
	X2  curve.Point
	PI1 ZKPProof
	PI2 ZKPProof
}

// AuthInitResponse is flow 2, server to client. Beta binds the
// password verifier into the exchange: beta = (X1·X2·X3)^(x4·pi),
// proven by PIBeta under the alternate base X1·X2·X3.
type AuthInitResponse struct {
	X3     curve.Point
	X4     curve.Point
	Beta   curve.Point
	PI3    ZKPProof
	PI4    ZKPProof
	PIBeta ZKPProof
}

// AuthInitialValues is the server's per-session state between AuthInit
// and AuthFinish. It holds the session witness x4 and must be read at
// most once per session and never outlive it.
type AuthInitialValues struct {
	Beta curve.Point
	X1   curve.Point
	X2   curve.Point
	X3   curve.Point
	X4   curve.Point
	Pi   curve.Scalar
	X4s  curve.Scalar
}

// Wipe destroys the session secrets.
func (v *AuthInitialValues) Wipe() {
	if v == nil {
		return
	}
	if v.Pi != nil {
		v.Pi.Wipe()
	}
	if v.X4s != nil {
		v.X4s.Wipe()
	}
}

// AuthFinishRequest is flow 3, client to server. Alpha mirrors beta
// under the alternate base X1·X3·X4, R is the password-recovery
// response scalar, and KC is the client's key-confirmation tag.
type AuthFinishRequest struct {
	Alpha   curve.Point
	PIAlpha ZKPProof
	R       curve.Scalar
	KC      []byte
}

// SessionOutput is one party's result of a completed exchange: the
// shared session key, the outgoing confirmation tag, and the tag
// expected from the peer (compare with VerifyKeyConfirmation).
type SessionOutput struct {
	Key    []byte
	KC     []byte
	KCTest []byte
}

// ClientFinishResult bundles the client's SessionOutput with the
// finish request to forward to the server.
type ClientFinishResult struct {
	FinishRequest *AuthFinishRequest
	Key           []byte
	KC            []byte
	KCTest        []byte
}

// ServerInitResult bundles the flow-2 response with the per-session
// state the caller must store (keyed by its session handle) until
// AuthFinish.
type ServerInitResult struct {
	Response *AuthInitResponse
	Initial  *AuthInitialValues
}
