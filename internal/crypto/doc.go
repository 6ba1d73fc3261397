// Package crypto exposes the minimal primitives used by wut.
//
// Contents
//
//   - Curve25519 identity generation (GenerateIdentity, PublicFromSecret)
//   - Authenticated public-key encryption of direct messages using the NaCl
//     box construction (Encrypt, Decrypt)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Every Encrypt call draws a fresh random 24-byte nonce. Decrypt reports an
// authentication failure as ok == false rather than as an error: a message
// that does not open under the (sender public, recipient secret) pair is
// expected under normal network conditions. Errors are reserved for
// envelopes that are malformed before any cryptography is attempted.
package crypto
