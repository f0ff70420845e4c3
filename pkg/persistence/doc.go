// Package persistence provides the two keyed stores the Owl server's
// caller must supply: username → UserCredentials (durable, treated as
// password-equivalent at rest) and session id → AuthInitialValues
// (readable at most once per session).
package persistence
