package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owl-protocol/owl-go/pkg/curve"
	"github.com/owl-protocol/owl-go/pkg/owl"
)

var testConfig = owl.Config{Curve: curve.P256, ServerID: "auth.example.com"}

func registerUser(t *testing.T, username, password string) *owl.UserCredentials {
	t.Helper()
	client, err := owl.NewClient(testConfig)
	require.NoError(t, err)
	server, err := owl.NewServer(testConfig)
	require.NoError(t, err)

	reg, err := client.Register(username, password)
	require.NoError(t, err)
	creds, err := server.Register(reg)
	require.NoError(t, err)
	return creds
}

func TestMemoryCredentialStore(t *testing.T) {
	store := NewMemoryCredentialStore()
	creds := registerUser(t, "alice", "hunter2")

	require.NoError(t, store.Save("alice", creds))

	got, err := store.Get("alice")
	require.NoError(t, err)
	assert.True(t, creds.X3.Equal(got.X3))

	_, err = store.Get("nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	// Credentials are write-once.
	assert.ErrorIs(t, store.Save("alice", creds), ErrUserExists)
}

func TestFileCredentialStoreRoundTrip(t *testing.T) {
	g, err := curve.New(curve.P256)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "state", "users.json")
	store := NewFileCredentialStore(path, g)

	creds := registerUser(t, "carol", "my_secret")
	require.NoError(t, store.Save("carol", creds))

	// A second store over the same file sees the record.
	restoredStore := NewFileCredentialStore(path, g)
	restored, err := restoredStore.Get("carol")
	require.NoError(t, err)

	assert.True(t, creds.Pi.Equal(restored.Pi))
	assert.True(t, creds.T.Equal(restored.T))

	// The restored credentials complete a real authentication.
	client, _ := owl.NewClient(testConfig)
	server, _ := owl.NewServer(testConfig)
	initReq, err := client.AuthInit("carol", "my_secret")
	require.NoError(t, err)
	initResult, err := server.AuthInit("carol", initReq, restored)
	require.NoError(t, err)
	finish, err := client.AuthFinish(initResult.Response)
	require.NoError(t, err)
	out, err := server.AuthFinish("carol", finish.FinishRequest, initResult.Initial)
	require.NoError(t, err)
	assert.Equal(t, finish.Key, out.Key)
}

func TestFileCredentialStoreUnknownUser(t *testing.T) {
	g, _ := curve.New(curve.P256)
	store := NewFileCredentialStore(filepath.Join(t.TempDir(), "users.json"), g)

	_, err := store.Get("ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func sessionInitialValues(t *testing.T) *owl.AuthInitialValues {
	t.Helper()
	creds := registerUser(t, "bob", "pw")
	client, _ := owl.NewClient(testConfig)
	server, _ := owl.NewServer(testConfig)
	initReq, err := client.AuthInit("bob", "pw")
	require.NoError(t, err)
	initResult, err := server.AuthInit("bob", initReq, creds)
	require.NoError(t, err)
	return initResult.Initial
}

func TestSessionStoreTakeOnce(t *testing.T) {
	store := NewMemorySessionStore()
	initial := sessionInitialValues(t)

	require.NoError(t, store.Put("sess-1", initial))
	assert.Equal(t, 1, store.Len())

	got, err := store.Take("sess-1")
	require.NoError(t, err)
	assert.Same(t, initial, got)

	// Second read must fail: initial values are single-use.
	_, err = store.Take("sess-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestSessionStoreRejectsDuplicateID(t *testing.T) {
	store := NewMemorySessionStore()
	initial := sessionInitialValues(t)

	require.NoError(t, store.Put("sess-1", initial))
	assert.ErrorIs(t, store.Put("sess-1", initial), ErrSessionExists)
}

func TestSessionStoreSweep(t *testing.T) {
	store := NewMemorySessionStore()
	initial := sessionInitialValues(t)

	require.NoError(t, store.Put("old", initial))

	// Nothing is old enough yet.
	assert.Equal(t, 0, store.Sweep(time.Minute))
	assert.Equal(t, 1, store.Len())

	// With a zero max age everything is stale.
	time.Sleep(time.Millisecond)
	assert.Equal(t, 1, store.Sweep(0))
	assert.Equal(t, 0, store.Len())

	// Swept sessions are gone and their secrets wiped.
	_, err := store.Take("old")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.True(t, initial.X4s.IsZero())
}
