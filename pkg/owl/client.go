package owl

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/owl-protocol/owl-go/pkg/curve"
)

// ClientState is the client-side protocol state.
type ClientState uint8

const (
	// ClientFresh means no authentication attempt is pending.
	ClientFresh ClientState = iota

	// ClientInitSent means AuthInit ran and AuthFinish may be called.
	ClientInitSent

	// ClientDone means the attempt completed successfully.
	ClientDone

	// ClientFailed means the attempt was aborted; session state is gone.
	ClientFailed
)

// String returns a human-readable state name.
func (s ClientState) String() string {
	switch s {
	case ClientFresh:
		return "FRESH"
	case ClientInitSent:
		return "INIT_SENT"
	case ClientDone:
		return "DONE"
	case ClientFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Client is the password-holding side of the exchange. A Client is
// single-use per authentication attempt and not safe for concurrent
// use; run parallel attempts on separate Clients.
type Client struct {
	s     *suite
	rand  io.Reader
	state ClientState
	sess  *clientSession
}

// clientSession is the state carried from AuthInit into AuthFinish.
type clientSession struct {
	username string
	password string
	pi       curve.Scalar
	x1, x2   curve.Scalar
	x1g, x2g curve.Point
}

func (cs *clientSession) wipe() {
	if cs == nil {
		return
	}
	cs.password = ""
	for _, sc := range []curve.Scalar{cs.pi, cs.x1, cs.x2} {
		if sc != nil {
			sc.Wipe()
		}
	}
}

// NewClient creates a client for the given configuration.
func NewClient(cfg Config) (*Client, error) {
	s, err := newSuite(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{s: s, rand: rand.Reader, state: ClientFresh}, nil
}

// State returns the current protocol state.
func (c *Client) State() ClientState { return c.state }

// Register builds the one-time registration request for a user. The
// client retains no state across registration.
func (c *Client) Register(username, password string) (*RegistrationRequest, error) {
	if username == "" {
		return nil, fmt.Errorf("register: %w: empty username", ErrInvalidArgument)
	}

	t := c.s.t(username, password)
	defer t.Wipe()

	req := &RegistrationRequest{
		Username: username,
		Pi:       c.s.pi(username, password),
		T:        c.s.group.ScalarBaseMult(t),
	}
	return req, nil
}

// AuthInit starts an authentication attempt: fresh ephemerals x1, x2
// with proofs of knowledge, bound to the username. Any previous
// pending attempt is discarded.
func (c *Client) AuthInit(username, password string) (*AuthInitRequest, error) {
	if username == "" {
		return nil, fmt.Errorf("auth init: %w: empty username", ErrInvalidArgument)
	}
	c.sess.wipe()
	c.sess = nil
	c.state = ClientFresh

	x1, err := c.s.group.RandomScalar(c.rand)
	if err != nil {
		return nil, fmt.Errorf("auth init: %w", err)
	}
	x2, err := c.s.group.RandomScalar(c.rand)
	if err != nil {
		return nil, fmt.Errorf("auth init: %w", err)
	}

	g := c.s.group.Generator()
	x1g := c.s.group.ScalarBaseMult(x1)
	x2g := c.s.group.ScalarBaseMult(x2)

	pi1, err := c.s.generateZKP(c.rand, x1, g, username)
	if err != nil {
		return nil, fmt.Errorf("auth init: %w", err)
	}
	pi2, err := c.s.generateZKP(c.rand, x2, g, username)
	if err != nil {
		return nil, fmt.Errorf("auth init: %w", err)
	}

	c.sess = &clientSession{
		username: username,
		password: password,
		pi:       c.s.pi(username, password),
		x1:       x1,
		x2:       x2,
		x1g:      x1g,
		x2g:      x2g,
	}
	c.state = ClientInitSent

	return &AuthInitRequest{X1: x1g, X2: x2g, PI1: pi1, PI2: pi2}, nil
}

// AuthFinish consumes the server's flow-2 response, verifies its
// proofs, and derives the session key, the finish request for the
// server, and both key-confirmation tags. The pending session is
// consumed whether or not the call succeeds.
func (c *Client) AuthFinish(resp *AuthInitResponse) (*ClientFinishResult, error) {
	if c.state != ClientInitSent || c.sess == nil {
		return nil, ErrUninitialisedClient
	}
	sess := c.sess
	defer func() {
		sess.wipe()
		c.sess = nil
	}()

	if resp == nil || resp.X3 == nil || resp.X4 == nil || resp.Beta == nil {
		c.state = ClientFailed
		return nil, fmt.Errorf("auth finish: %w", ErrZKPVerification)
	}
	if !c.verifyInitResponse(resp, sess) {
		c.state = ClientFailed
		return nil, fmt.Errorf("auth finish: %w", ErrZKPVerification)
	}

	// alpha = (X1·X3·X4)^(x2·pi), proven under the same base.
	x2pi := sess.x2.Mul(sess.pi)
	defer x2pi.Wipe()
	baseAlpha := sess.x1g.Add(resp.X3).Add(resp.X4)
	alpha := baseAlpha.Mul(x2pi)
	piAlpha, err := c.s.generateZKP(c.rand, x2pi, baseAlpha, sess.username)
	if err != nil {
		c.state = ClientFailed
		return nil, fmt.Errorf("auth finish: %w", err)
	}

	// r = x1 − pi·H(password), carried in the finish request. The
	// server neither stores nor checks it; key confirmation is the
	// password check.
	hpw := c.s.hashToScalar(tagPassword, []byte(sess.password))
	defer hpw.Wipe()
	r := sess.x1.Sub(sess.pi.Mul(hpw))

	// K = (beta / X4^(x2·pi))^x2; same group element on both sides
	// when the password matched.
	k := resp.Beta.Add(resp.X4.Mul(x2pi.Neg())).Mul(sess.x2)

	tt := c.s.transcript(sess.username, sess.x1g, sess.x2g, resp.X3, resp.X4, resp.Beta, alpha)
	key := c.s.deriveKey(k, tt)
	kc := c.s.keyConfirmation(key, kcClientTag, tt)
	kcTest := c.s.keyConfirmation(key, kcServerTag, tt)

	c.state = ClientDone
	return &ClientFinishResult{
		FinishRequest: &AuthFinishRequest{Alpha: alpha, PIAlpha: piAlpha, R: r, KC: kc},
		Key:           key,
		KC:            kc,
		KCTest:        kcTest,
	}, nil
}

// verifyInitResponse checks every server proof: PI3 and PI4 under the
// generator, PIBeta under the recomputed alternate base X1·X2·X3, all
// bound to the server identity, plus the beta/proof binding.
func (c *Client) verifyInitResponse(resp *AuthInitResponse, sess *clientSession) bool {
	if resp.X3.IsIdentity() || resp.X4.IsIdentity() {
		return false
	}
	g := c.s.group.Generator()
	if !c.s.verifyZKP(resp.PI3, g, c.s.serverID) || !resp.X3.Equal(resp.PI3.B) {
		return false
	}
	if !c.s.verifyZKP(resp.PI4, g, c.s.serverID) || !resp.X4.Equal(resp.PI4.B) {
		return false
	}
	baseBeta := sess.x1g.Add(sess.x2g).Add(resp.X3)
	if !c.s.verifyZKP(resp.PIBeta, baseBeta, c.s.serverID) || !resp.Beta.Equal(resp.PIBeta.B) {
		return false
	}
	return true
}
