package owl

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Server is the verifier-holding side of the exchange. It keeps no
// state between calls: durable state is the caller-stored
// UserCredentials, per-session state the caller-stored
// AuthInitialValues. A Server is safe for concurrent use.
type Server struct {
	s    *suite
	rand io.Reader
}

// NewServer creates a server for the given configuration.
func NewServer(cfg Config) (*Server, error) {
	s, err := newSuite(cfg)
	if err != nil {
		return nil, err
	}
	return &Server{s: s, rand: rand.Reader}, nil
}

// Register converts a registration request into the credentials the
// caller persists. The embedded X3 records a registration-time value;
// AuthInit regenerates its own x3/X3 pair per session, so no
// server-side secret needs to be stored at rest.
func (sv *Server) Register(req *RegistrationRequest) (*UserCredentials, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	x3, err := sv.s.group.RandomScalar(sv.rand)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	defer x3.Wipe()

	return &UserCredentials{
		X3: sv.s.group.ScalarBaseMult(x3),
		Pi: req.Pi,
		T:  req.T,
	}, nil
}

// AuthInit verifies the client's flow-1 proofs and produces the flow-2
// response plus the per-session state the caller stores until
// AuthFinish.
func (sv *Server) AuthInit(username string, req *AuthInitRequest, creds *UserCredentials) (*ServerInitResult, error) {
	if username == "" {
		return nil, fmt.Errorf("auth init: %w: empty username", ErrInvalidArgument)
	}
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("auth init: %w", err)
	}
	if req == nil || req.X1 == nil || req.X2 == nil {
		return nil, fmt.Errorf("auth init: %w", ErrZKPVerification)
	}

	g := sv.s.group.Generator()
	if !sv.s.verifyZKP(req.PI1, g, username) || !req.X1.Equal(req.PI1.B) {
		return nil, fmt.Errorf("auth init: %w", ErrZKPVerification)
	}
	if !sv.s.verifyZKP(req.PI2, g, username) || !req.X2.Equal(req.PI2.B) {
		return nil, fmt.Errorf("auth init: %w", ErrZKPVerification)
	}
	// X1·X2 feeding into the beta base must not collapse to the
	// identity, or the base below degenerates.
	if req.X1.Add(req.X2).IsIdentity() {
		return nil, fmt.Errorf("auth init: %w", ErrZKPVerification)
	}

	// Fresh x3 and x4 every session; X3 in the stored credentials is
	// not reused as a witness.
	x3, err := sv.s.group.RandomScalar(sv.rand)
	if err != nil {
		return nil, fmt.Errorf("auth init: %w", err)
	}
	defer x3.Wipe()
	x4, err := sv.s.group.RandomScalar(sv.rand)
	if err != nil {
		return nil, fmt.Errorf("auth init: %w", err)
	}

	x3g := sv.s.group.ScalarBaseMult(x3)
	x4g := sv.s.group.ScalarBaseMult(x4)

	// beta = (X1·X2·X3)^(x4·pi), proven under that same base.
	secret := x4.Mul(creds.Pi)
	defer secret.Wipe()
	baseBeta := req.X1.Add(req.X2).Add(x3g)
	beta := baseBeta.Mul(secret)

	pi3, err := sv.s.generateZKP(sv.rand, x3, g, sv.s.serverID)
	if err != nil {
		return nil, fmt.Errorf("auth init: %w", err)
	}
	pi4, err := sv.s.generateZKP(sv.rand, x4, g, sv.s.serverID)
	if err != nil {
		return nil, fmt.Errorf("auth init: %w", err)
	}
	piBeta, err := sv.s.generateZKP(sv.rand, secret, baseBeta, sv.s.serverID)
	if err != nil {
		return nil, fmt.Errorf("auth init: %w", err)
	}

	// The session state gets its own copy of pi, so wiping it after
	// AuthFinish leaves the caller's credentials intact.
	sessionPi := creds.Pi.Neg().Neg()

	return &ServerInitResult{
		Response: &AuthInitResponse{
			X3: x3g, X4: x4g, Beta: beta,
			PI3: pi3, PI4: pi4, PIBeta: piBeta,
		},
		Initial: &AuthInitialValues{
			Beta: beta,
			X1:   req.X1, X2: req.X2, X3: x3g, X4: x4g,
			Pi:  sessionPi,
			X4s: x4,
		},
	}, nil
}

// AuthFinish verifies the client's flow-3 proof, derives the session
// key, and compares the client's key-confirmation tag in constant
// time. An ErrAuthentication here is the wrong-password verdict: the
// earlier proofs only prove knowledge of the ephemerals, not of the
// password. The initial values are consumed either way.
func (sv *Server) AuthFinish(username string, req *AuthFinishRequest, initial *AuthInitialValues) (*SessionOutput, error) {
	if initial == nil || initial.X1 == nil || initial.X2 == nil || initial.X3 == nil ||
		initial.X4 == nil || initial.Beta == nil || initial.Pi == nil || initial.X4s == nil {
		return nil, fmt.Errorf("auth finish: %w: missing session state", ErrInvalidArgument)
	}
	defer initial.Wipe()

	if req == nil || req.Alpha == nil || req.R == nil {
		return nil, fmt.Errorf("auth finish: %w", ErrZKPVerification)
	}

	baseAlpha := initial.X1.Add(initial.X3).Add(initial.X4)
	if !sv.s.verifyZKP(req.PIAlpha, baseAlpha, username) || !req.Alpha.Equal(req.PIAlpha.B) {
		return nil, fmt.Errorf("auth finish: %w", ErrZKPVerification)
	}

	// K = (alpha / X2^(x4·pi))^x4, the mirror of the client's
	// derivation; both resolve to (X1·X3)^(x2·x4·pi).
	x4pi := initial.X4s.Mul(initial.Pi)
	defer x4pi.Wipe()
	k := req.Alpha.Add(initial.X2.Mul(x4pi.Neg())).Mul(initial.X4s)

	tt := sv.s.transcript(username, initial.X1, initial.X2, initial.X3, initial.X4, initial.Beta, req.Alpha)
	key := sv.s.deriveKey(k, tt)

	expectedClientKC := sv.s.keyConfirmation(key, kcClientTag, tt)
	if !VerifyKeyConfirmation(req.KC, expectedClientKC) {
		return nil, fmt.Errorf("auth finish: %w", ErrAuthentication)
	}

	return &SessionOutput{
		Key:    key,
		KC:     sv.s.keyConfirmation(key, kcServerTag, tt),
		KCTest: expectedClientKC,
	}, nil
}
