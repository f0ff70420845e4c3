package owl

import "errors"

// Protocol failure variants. They carry no detail beyond the flow they
// occurred in (added by wrapping); a ZKP failure never reports which
// sub-check tripped.
var (
	// ErrZKPVerification indicates a zero-knowledge proof, point
	// validity, or proof-binding check failed.
	ErrZKPVerification = errors.New("owl: zero-knowledge proof verification failed")

	// ErrAuthentication indicates all proofs verified but the
	// key-confirmation tag mismatched. From the server this is the
	// canonical wrong-password signal.
	ErrAuthentication = errors.New("owl: key confirmation mismatch")

	// ErrUninitialisedClient indicates AuthFinish was called on a
	// client with no pending AuthInit.
	ErrUninitialisedClient = errors.New("owl: auth finish called before auth init")

	// ErrInvalidArgument indicates a malformed in-process input
	// (empty username, nil point, zero scalar).
	ErrInvalidArgument = errors.New("owl: invalid argument")
)
