package interfaces

import domaintypes "wut/internal/domain/types"

// KeyStore persists the local identity keypair.
//
// Persist is idempotent per file: a key file that already exists is never
// overwritten.
type KeyStore interface {
	Persist(kp domaintypes.KeyPair) error
	LoadKeyPair() (domaintypes.KeyPair, error)
	LoadSecretKey() (domaintypes.SecretKey, error)
	LoadPublicKey() (domaintypes.PublicKey, error)
}
