package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/owl-protocol/owl-go/pkg/log"
	"github.com/owl-protocol/owl-go/pkg/owl"
	"github.com/owl-protocol/owl-go/pkg/persistence"
)

// Session lifetime constants.
const (
	// DefaultSessionTTL is how long flow-2 state waits for flow 3.
	DefaultSessionTTL = 2 * time.Minute

	// sweepInterval is how often expired sessions are collected.
	sweepInterval = 30 * time.Second
)

// Config configures an AuthService.
type Config struct {
	// Owl is the protocol configuration shared with clients.
	Owl owl.Config

	// Credentials is the durable user store. Required.
	Credentials persistence.CredentialStore

	// SessionTTL bounds how long a started authentication may stay
	// unfinished. Defaults to DefaultSessionTTL.
	SessionTTL time.Duration

	// Logger receives service events (optional).
	Logger log.Logger
}

// AuthService runs the server side of Owl registration and
// authentication on top of the caller-provided stores. It is safe for
// concurrent use; parallel attempts for the same user get independent
// sessions.
type AuthService struct {
	server   *owl.Server
	creds    persistence.CredentialStore
	sessions *persistence.MemorySessionStore
	ttl      time.Duration
	logger   log.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// New creates an AuthService and starts its session expiry sweeper.
// Call Close to stop it.
func New(cfg Config) (*AuthService, error) {
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("service: credential store is required")
	}
	server, err := owl.NewServer(cfg.Owl)
	if err != nil {
		return nil, err
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NoopLogger{}
	}

	s := &AuthService{
		server:   server,
		creds:    cfg.Credentials,
		sessions: persistence.NewMemorySessionStore(),
		ttl:      cfg.SessionTTL,
		logger:   cfg.Logger,
		done:     make(chan struct{}),
	}
	go s.sweepLoop()
	return s, nil
}

// Close stops the expiry sweeper and drops all pending sessions.
func (s *AuthService) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.sessions.Sweep(0)
	})
}

// Register processes a registration request and persists the
// credentials. Registering an existing username fails; credentials
// are write-once.
func (s *AuthService) Register(req *owl.RegistrationRequest) error {
	creds, err := s.server.Register(req)
	if err != nil {
		return err
	}
	if err := s.creds.Save(req.Username, creds); err != nil {
		return err
	}
	s.logger.Log(log.Event{Component: "service", Message: "user registered", Username: req.Username})
	return nil
}

// AuthInit runs flow 2 for a user: looks up credentials, verifies the
// flow-1 proofs, stores the session state under a fresh handle, and
// returns the handle with the response.
func (s *AuthService) AuthInit(username string, req *owl.AuthInitRequest) (string, *owl.AuthInitResponse, error) {
	creds, err := s.creds.Get(username)
	if err != nil {
		return "", nil, err
	}

	result, err := s.server.AuthInit(username, req, creds)
	if err != nil {
		s.logger.Log(log.Event{Component: "service", Message: "auth init rejected", Username: username, Err: err})
		return "", nil, err
	}

	sessionID := uuid.NewString()
	if err := s.sessions.Put(sessionID, result.Initial); err != nil {
		return "", nil, err
	}

	s.logger.Log(log.Event{Component: "service", Message: "auth init", Username: username, SessionID: sessionID})
	return sessionID, result.Response, nil
}

// AuthFinish runs flow 3 for a session. The session state is consumed
// whether or not authentication succeeds; a retry needs a new
// AuthInit.
func (s *AuthService) AuthFinish(username, sessionID string, req *owl.AuthFinishRequest) (*owl.SessionOutput, error) {
	initial, err := s.sessions.Take(sessionID)
	if err != nil {
		return nil, err
	}

	out, err := s.server.AuthFinish(username, req, initial)
	if err != nil {
		s.logger.Log(log.Event{Component: "service", Message: "auth finish rejected", Username: username, SessionID: sessionID, Err: err})
		return nil, err
	}

	s.logger.Log(log.Event{Component: "service", Message: "auth finish", Username: username, SessionID: sessionID})
	return out, nil
}

// PendingSessions returns the number of started, unfinished
// authentications. Diagnostics only.
func (s *AuthService) PendingSessions() int {
	return s.sessions.Len()
}

func (s *AuthService) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if dropped := s.sessions.Sweep(s.ttl); dropped > 0 {
				s.logger.Log(log.Event{Component: "service", Message: fmt.Sprintf("expired %d stale sessions", dropped)})
			}
		}
	}
}
