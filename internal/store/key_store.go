package store

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"wut/internal/codec"
	"wut/internal/crypto"
	"wut/internal/domain"
	"wut/internal/util/memzero"
)

const (
	secretKeyFilename = "keypair.sec"
	publicKeyFilename = "keypair.pub"
)

var (
	// ErrKeyFileMissing is returned when a key file does not exist at its
	// expected path.
	ErrKeyFileMissing = errors.New("key file missing")
	// ErrKeyFileCorrupt is returned when a key file cannot be decoded.
	ErrKeyFileCorrupt = errors.New("key file corrupt")
)

// keyPairFile is the JSON document inside the base64 secret key file.
type keyPairFile struct {
	PublicKey domain.WireBytes `json:"publicKey"`
	SecretKey domain.WireBytes `json:"secretKey"`
}

// KeyFileStore persists the local identity as two files under dir: the full
// keypair and the public key alone. Both hold base64 of the JSON wire form.
//
// Key files are stored without passphrase protection.
type KeyFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewKeyFileStore returns a KeyFileStore rooted at dir.
func NewKeyFileStore(dir string) *KeyFileStore {
	return &KeyFileStore{dir: dir}
}

// SecretKeyPath is where the full keypair is stored.
func (s *KeyFileStore) SecretKeyPath() string { return filepath.Join(s.dir, secretKeyFilename) }

// PublicKeyPath is where the public key is stored.
func (s *KeyFileStore) PublicKeyPath() string { return filepath.Join(s.dir, publicKeyFilename) }

// Persist writes kp to disk, creating dir if needed. Each file is written only
// if it does not exist yet; an existing identity is never replaced.
func (s *KeyFileStore) Persist(kp domain.KeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}

	secret, err := encodeKeyPair(kp)
	if err != nil {
		return err
	}
	defer memzero.Zero(secret)

	public, err := encodeWire(codec.ToWireObject(kp.Public.Slice()))
	if err != nil {
		return err
	}

	return errors.Join(
		writeOnce(s.SecretKeyPath(), secret, 0o600),
		writeOnce(s.PublicKeyPath(), public, 0o644),
	)
}

// LoadKeyPair reads the full keypair and checks that its halves belong
// together.
func (s *KeyFileStore) LoadKeyPair() (domain.KeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.SecretKeyPath()
	raw, err := readKeyFile(path)
	if err != nil {
		return domain.KeyPair{}, err
	}
	defer memzero.Zero(raw)

	var doc keyPairFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.KeyPair{}, corrupt(path, err)
	}
	defer memzero.Values(doc.SecretKey)

	pub, err := codec.PublicKey(doc.PublicKey)
	if err != nil {
		return domain.KeyPair{}, corrupt(path, err)
	}
	sec, err := codec.SecretKey(doc.SecretKey)
	if err != nil {
		return domain.KeyPair{}, corrupt(path, err)
	}
	if crypto.PublicFromSecret(sec) != pub {
		return domain.KeyPair{}, corrupt(path, errors.New("public key does not match secret key"))
	}
	return domain.KeyPair{Public: pub, Secret: sec}, nil
}

// LoadSecretKey returns the secret half of the stored keypair.
func (s *KeyFileStore) LoadSecretKey() (domain.SecretKey, error) {
	kp, err := s.LoadKeyPair()
	if err != nil {
		return domain.SecretKey{}, err
	}
	return kp.Secret, nil
}

// LoadPublicKey reads the public key file.
func (s *KeyFileStore) LoadPublicKey() (domain.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.PublicKeyPath()
	raw, err := readKeyFile(path)
	if err != nil {
		return domain.PublicKey{}, err
	}
	var obj domain.WireBytes
	if err := json.Unmarshal(raw, &obj); err != nil {
		return domain.PublicKey{}, corrupt(path, err)
	}
	pub, err := codec.PublicKey(obj)
	if err != nil {
		return domain.PublicKey{}, corrupt(path, err)
	}
	return pub, nil
}

// readKeyFile returns the base64-decoded contents of path.
func readKeyFile(path string) ([]byte, error) {
	b, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyFileMissing, path)
	}
	defer memzero.Zero(b)

	text := bytes.TrimSpace(b)
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(text)))
	n, err := base64.StdEncoding.Decode(raw, text)
	if err != nil {
		memzero.Zero(raw)
		return nil, corrupt(path, err)
	}
	return raw[:n], nil
}

func encodeKeyPair(kp domain.KeyPair) ([]byte, error) {
	doc := keyPairFile{
		PublicKey: codec.ToWireObject(kp.Public.Slice()),
		SecretKey: codec.ToWireObject(kp.Secret.Slice()),
	}
	defer memzero.Values(doc.SecretKey)
	return encodeWire(doc)
}

func encodeWire(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(raw)

	out := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(out, raw)
	return out, nil
}

func corrupt(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrKeyFileCorrupt, path, err)
}

// Compile-time assertion that KeyFileStore implements domain.KeyStore.
var _ domain.KeyStore = (*KeyFileStore)(nil)
