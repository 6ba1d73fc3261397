package codec

import (
	"errors"
	"fmt"
	"strconv"

	"wut/internal/domain"
)

var (
	// ErrDecode is returned when a wire object does not have the shape
	// expected for its kind.
	ErrDecode = errors.New("codec: decode error")
	// ErrNullResult is returned when a wire object is absent or empty.
	ErrNullResult = errors.New("codec: null result")
)

// Kind names what a wire object is expected to hold. It only selects the
// expected length; decoding is the same for every kind.
type Kind int

const (
	KindPublicKey Kind = iota
	KindSecretKey
	KindNonce
	KindCiphertext
)

// Len is the exact number of bytes a kind must decode to, or 0 when the
// length is variable.
func (k Kind) Len() int {
	switch k {
	case KindPublicKey, KindSecretKey:
		return 32
	case KindNonce:
		return 24
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case KindPublicKey:
		return "public key"
	case KindSecretKey:
		return "secret key"
	case KindNonce:
		return "nonce"
	case KindCiphertext:
		return "ciphertext"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ToWireObject returns b as an index-keyed object suitable for JSON encoding.
func ToWireObject(b []byte) domain.WireBytes {
	obj := make(domain.WireBytes, len(b))
	for i, v := range b {
		obj[strconv.Itoa(i)] = int(v)
	}
	return obj
}

// FromWireObject reverses ToWireObject, checking the element count against
// kind. Keys must be the canonical decimal indices 0..n-1 and values must fit
// in a byte.
func FromWireObject(obj domain.WireBytes, kind Kind) ([]byte, error) {
	if len(obj) == 0 {
		return nil, fmt.Errorf("%w: empty %s", ErrNullResult, kind)
	}
	if want := kind.Len(); want > 0 && len(obj) != want {
		return nil, fmt.Errorf("%w: %s wants %d elements, got %d", ErrDecode, kind, want, len(obj))
	}

	out := make([]byte, len(obj))
	for key, v := range obj {
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(out) || strconv.Itoa(i) != key {
			return nil, fmt.Errorf("%w: %s has bad index %q", ErrDecode, kind, key)
		}
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: %s value %d at index %d out of range", ErrDecode, kind, v, i)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// PublicKey decodes a wire object holding a public key.
func PublicKey(obj domain.WireBytes) (domain.PublicKey, error) {
	var pk domain.PublicKey
	b, err := FromWireObject(obj, KindPublicKey)
	if err != nil {
		return pk, err
	}
	copy(pk[:], b)
	return pk, nil
}

// SecretKey decodes a wire object holding a secret key.
func SecretKey(obj domain.WireBytes) (domain.SecretKey, error) {
	var sk domain.SecretKey
	b, err := FromWireObject(obj, KindSecretKey)
	if err != nil {
		return sk, err
	}
	copy(sk[:], b)
	return sk, nil
}

// Nonce decodes a wire object holding a box nonce.
func Nonce(obj domain.WireBytes) (domain.Nonce, error) {
	var n domain.Nonce
	b, err := FromWireObject(obj, KindNonce)
	if err != nil {
		return n, err
	}
	copy(n[:], b)
	return n, nil
}

// Sealed decodes the nonce and ciphertext of a direct message.
func Sealed(nonce, ciphertext domain.WireBytes) (domain.Sealed, error) {
	n, err := Nonce(nonce)
	if err != nil {
		return domain.Sealed{}, err
	}
	ct, err := FromWireObject(ciphertext, KindCiphertext)
	if err != nil {
		return domain.Sealed{}, err
	}
	return domain.Sealed{Nonce: n, Ciphertext: ct}, nil
}
