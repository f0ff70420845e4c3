// Package service wires an owl.Server to its stores.
//
// AuthService owns what the crypto core deliberately leaves to the
// caller: looking up credentials by username, minting a session handle
// at flow 2, holding the per-session AuthInitialValues until flow 3
// (read at most once), and expiring sessions the client abandoned.
//
// The service adds no policy beyond that: no rate limiting, no user
// enumeration defenses; callers decide how to map the typed failures
// onto their own responses. Applications are expected to collapse
// proof failures and key-confirmation failures into a single "login
// failed" answer.
package service
