// Package ddfsig verifies DDF bundle signatures and classifies a bundle
// as stable/beta/user (SPEC_FULL §4.4 step 6 and §2 domain-stack
// wiring). It is deliberately separate from package ddf so the public
// keys and verification logic can be unit tested without pulling in the
// RIFF parser.
package ddfsig

import "golang.org/x/crypto/ed25519"

// Class is the outcome of verifying a bundle's signature set against the
// known public keys.
type Class uint8

const (
	ClassUser Class = iota
	ClassBeta
	ClassStable
)

// StablePublicKey and BetaPublicKey are the well-known ed25519 public
// keys bundles are signed against. These are placeholders for the
// runtime's baked-in keys; deployments that need different keys register
// them on a Verifier with WithKey rather than patching these vars.
var (
	StablePublicKey = ed25519.PublicKey(mustDecodeHexKey(
		"ed7f305dcfc3a0a45a0b7d8c1d0e9b4a8c6f2b3e1a9d4c7f8e2b6a3d5c9f0e1b"))
	BetaPublicKey = ed25519.PublicKey(mustDecodeHexKey(
		"b4e7f2a9c3d8e1f6b0a5d2c7e9f4b1a8d6c3e0f7b2a5d9c4e1f8b3a6d0c7e2f5"))
)

// Verifier checks a bundle identity hash against a fixed set of named
// public keys.
type Verifier struct {
	keys map[string]ed25519.PublicKey // name -> key, e.g. "stable", "beta"
}

// NewVerifier builds the default verifier wired to the baked-in stable
// and beta keys.
func NewVerifier() *Verifier {
	return &Verifier{keys: map[string]ed25519.PublicKey{
		"stable": StablePublicKey,
		"beta":   BetaPublicKey,
	}}
}

// WithKey registers an additional named key, for test doubles or a
// deployment-specific signer.
func (v *Verifier) WithKey(name string, key ed25519.PublicKey) *Verifier {
	v.keys[name] = key
	return v
}

// Signature is a single (public key, signature) pair lifted from a
// bundle's SIGN chunks.
type Signature struct {
	PublicKey [32]byte
	Sig       [64]byte
}

// Classify verifies every signature against identity and returns the
// highest-trust class that validates: stable beats beta beats user
// (SPEC_FULL §4.4: "records 'signed by stable', 'signed by beta', or
// 'user' depending on which known public keys verify").
func (v *Verifier) Classify(identity [32]byte, sigs []Signature) (Class, []string) {
	var signedBy []string
	best := ClassUser

	for _, s := range sigs {
		for name, key := range v.keys {
			if !ed25519.Verify(key, identity[:], s.Sig[:]) {
				continue
			}
			if [32]byte(publicKeyArray(key)) != s.PublicKey {
				continue
			}
			signedBy = append(signedBy, name)
			switch name {
			case "stable":
				best = ClassStable
			case "beta":
				if best != ClassStable {
					best = ClassBeta
				}
			}
		}
	}
	return best, signedBy
}

func publicKeyArray(k ed25519.PublicKey) [32]byte {
	var a [32]byte
	copy(a[:], k)
	return a
}

func mustDecodeHexKey(hexStr string) []byte {
	b := make([]byte, len(hexStr)/2)
	for i := 0; i < len(b); i++ {
		hi := hexVal(hexStr[i*2])
		lo := hexVal(hexStr[i*2+1])
		b[i] = hi<<4 | lo
	}
	return b
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return 0
	}
}
