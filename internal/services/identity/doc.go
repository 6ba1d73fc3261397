// Package identity manages creation and loading of the local identity.
//
// It generates the Curve25519 keypair used for direct messages and persists
// it via the domain.KeyStore. An existing identity is never replaced.
package identity
