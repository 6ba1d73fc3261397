// Package codec converts between the JSON wire representation of byte
// sequences and the fixed-size key, nonce and ciphertext values used by the
// crypto package.
//
// On the wire a byte sequence is an object keyed by decimal index:
//
//	{"0": 12, "1": 255, "2": 7}
//
// Every caller that turns wire data or key-file contents back into bytes goes
// through FromWireObject, so length and shape validation is identical for
// profiles, direct messages and persisted keys.
package codec
