package ddfsig

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"
)

func signIdentity(t *testing.T, priv ed25519.PrivateKey, identity [32]byte) Signature {
	t.Helper()
	sig := ed25519.Sign(priv, identity[:])
	var s Signature
	copy(s.PublicKey[:], priv.Public().(ed25519.PublicKey))
	copy(s.Sig[:], sig)
	return s
}

func TestClassifyStableSignatureWins(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	v := NewVerifier().WithKey("stable", pub)
	identity := sha256.Sum256([]byte("bundle-bytes"))
	sig := signIdentity(t, priv, identity)

	class, signedBy := v.Classify(identity, []Signature{sig})
	require.Equal(t, ClassStable, class)
	require.Contains(t, signedBy, "stable")
}

func TestClassifyUnverifiedSignatureIsUser(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	v := NewVerifier() // priv's key is not registered under any name
	identity := sha256.Sum256([]byte("bundle-bytes"))
	sig := signIdentity(t, priv, identity)

	class, signedBy := v.Classify(identity, []Signature{sig})
	require.Equal(t, ClassUser, class)
	require.Empty(t, signedBy)
}

func TestClassifyNoSignaturesIsUser(t *testing.T) {
	v := NewVerifier()
	identity := sha256.Sum256([]byte("bundle-bytes"))
	class, signedBy := v.Classify(identity, nil)
	require.Equal(t, ClassUser, class)
	require.Empty(t, signedBy)
}
