// Package security provides AES-256-GCM encryption at rest for the
// network credential material the persistence layer stores (network
// key, trust center link key, in backup.Snapshot). The passphrase is
// hashed with SHA-256 to derive a 32-byte key suitable for AES-256.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"

	"github.com/dresden-mesh/meshgwd/drcerr"
)

// Seal encrypts plaintext under passphrase, returning ciphertext with a
// random per-call nonce prepended. Used by persistence.SecretStore
// implementations to encrypt the blob handed to StoreSecret.
func Seal(passphrase string, plaintext []byte) ([]byte, error) {
	aead, err := newAEAD(passphrase)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, drcerr.Wrap(err, drcerr.Crypto, "security.Seal", "failed to generate nonce")
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal, verifying authenticity and integrity.
func Open(passphrase string, ciphertext []byte) ([]byte, error) {
	aead, err := newAEAD(passphrase)
	if err != nil {
		return nil, err
	}
	nonceSize := aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, drcerr.New(drcerr.Crypto, "security.Open", "ciphertext shorter than nonce")
	}
	nonce, ct := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, drcerr.Wrap(err, drcerr.Crypto, "security.Open", "authentication failed")
	}
	return plaintext, nil
}

func newAEAD(passphrase string) (cipher.AEAD, error) {
	if passphrase == "" {
		return nil, drcerr.New(drcerr.InvalidArg, "security.newAEAD", "passphrase must not be empty")
	}
	key := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, drcerr.Wrap(err, drcerr.Crypto, "security.newAEAD", "failed to construct AES cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, drcerr.Wrap(err, drcerr.Crypto, "security.newAEAD", "failed to construct GCM mode")
	}
	return aead, nil
}
