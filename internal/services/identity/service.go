package identity

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"wut/internal/crypto"
	"wut/internal/domain"
	"wut/internal/store"
)

var (
	// ErrIdentityExists is returned by Generate when key files are already
	// present. Keys are never rotated.
	ErrIdentityExists = errors.New("identity already exists")
)

// Service manages identity key creation and access using a backing store.
type Service struct {
	store domain.KeyStore
	log   zerolog.Logger
}

// New returns an identity service backed by the given store.
func New(s domain.KeyStore, log zerolog.Logger) *Service {
	return &Service{store: s, log: log.With().Str("component", "identity").Logger()}
}

// Generate creates a new identity, persists it and returns the keypair plus
// a short fingerprint of the public key.
func (s *Service) Generate() (domain.KeyPair, domain.Fingerprint, error) {
	if _, err := s.store.LoadPublicKey(); err == nil {
		return domain.KeyPair{}, "", ErrIdentityExists
	}
	if _, err := s.store.LoadKeyPair(); !errors.Is(err, store.ErrKeyFileMissing) {
		if err == nil {
			return domain.KeyPair{}, "", ErrIdentityExists
		}
		return domain.KeyPair{}, "", err
	}

	kp, err := crypto.GenerateIdentity()
	if err != nil {
		return domain.KeyPair{}, "", fmt.Errorf("generate identity: %w", err)
	}
	if err := s.store.Persist(kp); err != nil {
		return domain.KeyPair{}, "", fmt.Errorf("persist identity: %w", err)
	}
	return kp, crypto.Fingerprint(kp.Public), nil
}

// Load returns the persisted identity.
func (s *Service) Load() (domain.KeyPair, error) {
	return s.store.LoadKeyPair()
}

// Ensure loads the persisted identity, creating one when none exists.
//
// A failure to persist a freshly generated identity is logged and the
// in-memory keypair is used for this run. A corrupt key file is returned as
// an error; the caller cannot proceed without an identity.
func (s *Service) Ensure() (domain.KeyPair, error) {
	kp, err := s.store.LoadKeyPair()
	if err == nil {
		return kp, nil
	}
	if !errors.Is(err, store.ErrKeyFileMissing) {
		return domain.KeyPair{}, err
	}

	kp, err = crypto.GenerateIdentity()
	if err != nil {
		return domain.KeyPair{}, fmt.Errorf("generate identity: %w", err)
	}
	if err := s.store.Persist(kp); err != nil {
		s.log.Error().Err(err).Msg("could not persist new identity; continuing without a saved identity")
		return kp, nil
	}
	s.log.Info().Str("fingerprint", crypto.Fingerprint(kp.Public).String()).Msg("created new identity")
	return kp, nil
}

// Fingerprint returns a short fingerprint of the stored public key.
func (s *Service) Fingerprint() (domain.Fingerprint, error) {
	pub, err := s.store.LoadPublicKey()
	if err != nil {
		return "", err
	}
	return crypto.Fingerprint(pub), nil
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
