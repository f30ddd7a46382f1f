package persistence

import (
	"github.com/dresden-mesh/meshgwd/security"
)

// SealedSecretStore wraps a SecretStore so every blob is encrypted at
// rest under passphrase, e.g. protecting a device's network key
// material (backup.Snapshot) in whatever store backs it.
type SealedSecretStore struct {
	inner      SecretStore
	passphrase string
}

func NewSealedSecretStore(inner SecretStore, passphrase string) *SealedSecretStore {
	return &SealedSecretStore{inner: inner, passphrase: passphrase}
}

func (s *SealedSecretStore) StoreSecret(uniqueID string, blob []byte, state int) error {
	sealed, err := security.Seal(s.passphrase, blob)
	if err != nil {
		return err
	}
	return s.inner.StoreSecret(uniqueID, sealed, state)
}

func (s *SealedSecretStore) LoadSecret(uniqueID string) ([]byte, int, bool, error) {
	sealed, state, found, err := s.inner.LoadSecret(uniqueID)
	if err != nil || !found {
		return nil, state, found, err
	}
	plaintext, err := security.Open(s.passphrase, sealed)
	if err != nil {
		return nil, 0, false, err
	}
	return plaintext, state, true, nil
}

var _ SecretStore = (*SealedSecretStore)(nil)
