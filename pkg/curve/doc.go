// Package curve provides the group abstraction the Owl protocol runs on.
//
// Four groups are supported: the NIST prime curves P-256, P-384 and
// P-521, and FourQ (a twisted Edwards curve over GF(p²)). All of them
// sit behind the same Group/Scalar/Point interface so the protocol
// core never touches curve-specific arithmetic.
//
// # Encodings
//
// Points serialize in the canonical compressed form of their curve.
// Scalars serialize fixed-width big-endian on the NIST curves and
// 32-byte little-endian on FourQ (FourQlib's canonical byte order).
//
// # Validation
//
// ParsePoint enforces on-curve, prime-order-subgroup membership and
// non-identity; ParseScalar enforces canonical encoding in [1, n).
// Values produced locally (RandomScalar, arithmetic results) are
// always in range.
package curve
