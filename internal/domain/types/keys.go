package types

// PublicKey is a Curve25519 public key used for box encryption.
type PublicKey [32]byte

// Slice returns the key as a []byte.
func (k PublicKey) Slice() []byte { return k[:] }

// SecretKey is a Curve25519 secret key used for box encryption.
type SecretKey [32]byte

// Slice returns the key as a []byte.
func (k SecretKey) Slice() []byte { return k[:] }

// Nonce is the 24-byte per-message box nonce.
type Nonce [24]byte

// Slice returns the nonce as a []byte.
func (n Nonce) Slice() []byte { return n[:] }

// KeyPair is the local identity. The secret half never leaves the process
// except through the key file store.
type KeyPair struct {
	Public PublicKey
	Secret SecretKey
}
