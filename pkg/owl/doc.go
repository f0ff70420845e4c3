// Package owl implements the Owl augmented password-authenticated key
// exchange (aPAKE).
//
// # Overview
//
// Owl is a three-flow aPAKE, a successor to J-PAKE hardened against
// offline dictionary attacks on server compromise:
//   - The client knows the password.
//   - The server stores only a password-derived verifier
//     (UserCredentials); a database leak yields nothing better than an
//     offline dictionary attack.
//   - Both sides finish with the same high-entropy session key and
//     exchange key-confirmation tags proving it.
//
// # Protocol flow
//
//	Client                                Server
//	------                                ------
//	Register(user, pw)    --reg-->        Register(req)    [store creds]
//
//	AuthInit(user, pw)    --X1,X2,ZKPs--> AuthInit(user, req, creds)
//	                      <--X3,X4,beta,ZKPs--
//	AuthFinish(resp)      --alpha,ZKP,r,kc--> AuthFinish(user, req, initial)
//	key, kc, kcTest                       key, kc, kcTest
//
// Every ephemeral public value carries a Schnorr proof of knowledge of
// its discrete log, bound to the sender's identity. A wrong password
// survives the proof checks (they prove knowledge of the ephemerals,
// not the password) and is rejected by the key-confirmation comparison
// in the final server step.
//
// # Failure variants
//
// Operations return typed errors callers can test with errors.Is:
// ErrZKPVerification (a proof or point check failed, wrapped with the
// flow it failed in), ErrAuthentication (key confirmation mismatch,
// the canonical wrong-password signal), ErrUninitialisedClient
// (AuthFinish before AuthInit). The protocol layer may distinguish
// them; applications should usually collapse both auth failures into
// one "login failed" answer.
//
// # State
//
// The client holds per-attempt session state between AuthInit and
// AuthFinish and is single-use per attempt. The server is stateless
// between calls: durable per-user state lives in UserCredentials and
// per-session state in AuthInitialValues, both stored by the caller
// (see the persistence package). Secret scalars are wiped when an
// operation finishes with them.
package owl
