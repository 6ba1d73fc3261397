package crypto

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"

	"wut/internal/domain"
)

// GenerateIdentity returns a fresh Curve25519 keypair for box encryption.
func GenerateIdentity() (domain.KeyPair, error) {
	return generateFrom(rand.Reader)
}

func generateFrom(r io.Reader) (domain.KeyPair, error) {
	pub, sec, err := box.GenerateKey(r)
	if err != nil {
		return domain.KeyPair{}, err
	}
	return domain.KeyPair{Public: *pub, Secret: *sec}, nil
}

// PublicFromSecret derives the public half of a keypair.
func PublicFromSecret(sk domain.SecretKey) domain.PublicKey {
	var pub [32]byte
	sec := [32]byte(sk)
	curve25519.ScalarBaseMult(&pub, &sec)
	return pub
}
