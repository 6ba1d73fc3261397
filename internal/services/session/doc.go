// Package session tracks direct-message conversations.
//
// A session is opened lazily on the first direct message from a peer and
// lives until the process exits. It holds no key material; every message is
// decrypted from the local keypair and the peer's announced profile.
package session
