package service

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owl-protocol/owl-go/pkg/curve"
	"github.com/owl-protocol/owl-go/pkg/owl"
	"github.com/owl-protocol/owl-go/pkg/persistence"
)

var testOwlConfig = owl.Config{Curve: curve.P256, ServerID: "auth.example.com"}

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	svc, err := New(Config{
		Owl:         testOwlConfig,
		Credentials: persistence.NewMemoryCredentialStore(),
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func registerThrough(t *testing.T, svc *AuthService, username, password string) {
	t.Helper()
	client, err := owl.NewClient(testOwlConfig)
	require.NoError(t, err)
	reg, err := client.Register(username, password)
	require.NoError(t, err)
	require.NoError(t, svc.Register(reg))
}

// login drives a complete client-side attempt against the service.
func login(t *testing.T, svc *AuthService, username, password string) (*owl.ClientFinishResult, *owl.SessionOutput, error) {
	t.Helper()
	client, err := owl.NewClient(testOwlConfig)
	require.NoError(t, err)

	initReq, err := client.AuthInit(username, password)
	require.NoError(t, err)

	sessionID, resp, err := svc.AuthInit(username, initReq)
	if err != nil {
		return nil, nil, err
	}

	finish, err := client.AuthFinish(resp)
	if err != nil {
		return nil, nil, err
	}

	out, err := svc.AuthFinish(username, sessionID, finish.FinishRequest)
	if err != nil {
		return finish, nil, err
	}
	return finish, out, nil
}

func TestServiceRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	registerThrough(t, svc, "alice", "hunter2")

	finish, out, err := login(t, svc, "alice", "hunter2")
	require.NoError(t, err)

	assert.True(t, bytes.Equal(finish.Key, out.Key))
	assert.True(t, owl.VerifyKeyConfirmation(finish.KCTest, out.KC))
	assert.True(t, owl.VerifyKeyConfirmation(out.KCTest, finish.KC))
	assert.Equal(t, 0, svc.PendingSessions())
}

func TestServiceWrongPassword(t *testing.T) {
	svc := newTestService(t)
	registerThrough(t, svc, "bob", "correct")

	_, _, err := login(t, svc, "bob", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, owl.ErrAuthentication) || errors.Is(err, owl.ErrZKPVerification),
		"wrong password must fail as authentication or proof failure, got: %v", err)
}

func TestServiceUnknownUser(t *testing.T) {
	svc := newTestService(t)

	client, _ := owl.NewClient(testOwlConfig)
	initReq, err := client.AuthInit("ghost", "pw")
	require.NoError(t, err)

	_, _, err = svc.AuthInit("ghost", initReq)
	assert.ErrorIs(t, err, persistence.ErrUserNotFound)
}

func TestServiceDuplicateRegistration(t *testing.T) {
	svc := newTestService(t)
	registerThrough(t, svc, "carol", "pw")

	client, _ := owl.NewClient(testOwlConfig)
	reg, _ := client.Register("carol", "other")
	assert.ErrorIs(t, svc.Register(reg), persistence.ErrUserExists)
}

func TestServiceSessionConsumedOnFailure(t *testing.T) {
	svc := newTestService(t)
	registerThrough(t, svc, "dave", "pw")

	client, _ := owl.NewClient(testOwlConfig)
	initReq, _ := client.AuthInit("dave", "pw")
	sessionID, resp, err := svc.AuthInit("dave", initReq)
	require.NoError(t, err)

	finish, err := client.AuthFinish(resp)
	require.NoError(t, err)

	// Break the confirmation tag: the finish fails AND consumes the
	// session, so a replay of the same flow 3 cannot be retried.
	finish.FinishRequest.KC[0] ^= 0x01
	_, err = svc.AuthFinish("dave", sessionID, finish.FinishRequest)
	assert.ErrorIs(t, err, owl.ErrAuthentication)

	finish.FinishRequest.KC[0] ^= 0x01
	_, err = svc.AuthFinish("dave", sessionID, finish.FinishRequest)
	assert.ErrorIs(t, err, persistence.ErrSessionNotFound)
}

func TestServiceParallelAttempts(t *testing.T) {
	svc := newTestService(t)
	registerThrough(t, svc, "erin", "pw")

	type attempt struct {
		client    *owl.Client
		sessionID string
		resp      *owl.AuthInitResponse
	}

	// Two interleaved attempts for the same user, both pending at once.
	var attempts []attempt
	for i := 0; i < 2; i++ {
		client, _ := owl.NewClient(testOwlConfig)
		initReq, _ := client.AuthInit("erin", "pw")
		sessionID, resp, err := svc.AuthInit("erin", initReq)
		require.NoError(t, err)
		attempts = append(attempts, attempt{client: client, sessionID: sessionID, resp: resp})
	}
	assert.Equal(t, 2, svc.PendingSessions())

	var keys [][]byte
	for _, a := range attempts {
		finish, err := a.client.AuthFinish(a.resp)
		require.NoError(t, err)
		out, err := svc.AuthFinish("erin", a.sessionID, finish.FinishRequest)
		require.NoError(t, err)
		require.True(t, bytes.Equal(finish.Key, out.Key))
		keys = append(keys, out.Key)
	}

	assert.False(t, bytes.Equal(keys[0], keys[1]), "parallel sessions must derive distinct keys")
}

func TestServiceRequiresCredentialStore(t *testing.T) {
	_, err := New(Config{Owl: testOwlConfig})
	assert.Error(t, err)
}
