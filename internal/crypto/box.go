package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/crypto/nacl/box"

	"wut/internal/domain"
	"wut/internal/util/memzero"
)

const (
	// NonceSize is the length of a box nonce.
	NonceSize = 24
	// KeySize is the length of a Curve25519 public or secret key.
	KeySize = 32
)

// ErrMalformedEnvelope is returned when a sealed payload cannot be a valid
// box ciphertext, or opens to something that is not UTF-8 text.
var ErrMalformedEnvelope = errors.New("crypto: malformed envelope")

// Encrypt seals the UTF-8 bytes of plaintext for recipient, authenticated as
// coming from the holder of sender. A new random nonce is drawn on every call.
func Encrypt(plaintext string, recipient domain.PublicKey, sender domain.SecretKey) (domain.Sealed, error) {
	return encryptWith(rand.Reader, plaintext, recipient, sender)
}

func encryptWith(r io.Reader, plaintext string, recipient domain.PublicKey, sender domain.SecretKey) (domain.Sealed, error) {
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(r, nonce[:]); err != nil {
		return domain.Sealed{}, fmt.Errorf("crypto: nonce: %w", err)
	}
	peer := [KeySize]byte(recipient)
	own := [KeySize]byte(sender)
	defer memzero.Key(&own)
	ct := box.Seal(nil, []byte(plaintext), &nonce, &peer, &own)
	return domain.Sealed{Nonce: nonce, Ciphertext: ct}, nil
}

// Decrypt opens sealed using the sender's public key and our secret key.
//
// ok is false when the authenticator does not verify (tampered, truncated in
// transit, or not addressed to this keypair). err is non-nil only when the
// envelope is malformed.
func Decrypt(sealed domain.Sealed, sender domain.PublicKey, recipient domain.SecretKey) (plaintext string, ok bool, err error) {
	if len(sealed.Ciphertext) < box.Overhead {
		return "", false, fmt.Errorf("%w: ciphertext is %d bytes, shorter than the %d byte authenticator",
			ErrMalformedEnvelope, len(sealed.Ciphertext), box.Overhead)
	}
	nonce := [NonceSize]byte(sealed.Nonce)
	peer := [KeySize]byte(sender)
	own := [KeySize]byte(recipient)
	defer memzero.Key(&own)
	out, opened := box.Open(nil, sealed.Ciphertext, &nonce, &peer, &own)
	if !opened {
		return "", false, nil
	}
	if !utf8.Valid(out) {
		return "", false, fmt.Errorf("%w: plaintext is not valid UTF-8", ErrMalformedEnvelope)
	}
	return string(out), true, nil
}
