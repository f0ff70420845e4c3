// Package wire defines the canonical CBOR wire format for Owl
// protocol records.
//
// Records encode as CBOR (RFC 8949) maps with integer keys,
// deterministically: canonical key order, no indefinite lengths.
// Points travel in their curve's compressed form, scalars fixed-width,
// proofs as nested {h, r, b} maps.
//
// Decoding is strict, the reverse of forgiving: unknown fields,
// duplicate keys, and indefinite lengths are rejected so that a given
// record has exactly one encoding and the transcript stays canonical.
// Structural failures (missing field, wrong length) and cryptographic
// failures (off-curve point, out-of-range scalar, identity) both
// surface as a DeserializationError that reports only the failure
// category, never the offending field.
package wire
