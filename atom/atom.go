// Package atom interns short UTF-8 strings into stable integer indices.
//
// Atoms are used pervasively across the Device Runtime Core as keys for
// item suffixes, manufacturer names, and model identifiers: interning once
// and comparing integers afterward avoids repeated string comparison on
// the hot indication-handling path. The table is append-only and safe for
// concurrent use; once returned, an index is never relocated or reused.
package atom

import (
	"strings"
	"sync"

	"github.com/dresden-mesh/meshgwd/drcerr"
)

// Invalid is the reserved zero index, meaning "empty/invalid".
const Invalid Atom = 0

// MaxLen is the longest byte string the cache will intern.
const MaxLen = 255

// Atom is a stable, process-lifetime index into the string cache.
type Atom uint32

// Cache is an interned string table. The zero value is not usable; use New.
type Cache struct {
	mu        sync.RWMutex
	strings   []string // index 0 is the empty placeholder for Invalid
	byValue   map[string]Atom
	lowerHash map[Atom]uint32
}

// New creates an empty cache with the Invalid atom pre-seeded.
func New() *Cache {
	c := &Cache{
		strings:   []string{""},
		byValue:   make(map[string]Atom),
		lowerHash: map[Atom]uint32{Invalid: 0},
	}
	return c
}

// Intern returns the stable Atom for s, allocating a new entry if s has
// never been seen. The same byte sequence always yields the same Atom.
func (c *Cache) Intern(s string) (Atom, error) {
	if s == "" {
		return Invalid, nil
	}
	if len(s) > MaxLen {
		return Invalid, drcerr.New(drcerr.InvalidArg, "atom.Intern", "string exceeds maximum atom length").
			WithDetailsf("len=%d max=%d", len(s), MaxLen)
	}

	c.mu.RLock()
	if a, ok := c.byValue[s]; ok {
		c.mu.RUnlock()
		return a, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	// Re-check: another writer may have interned s while we waited for the lock.
	if a, ok := c.byValue[s]; ok {
		return a, nil
	}

	a := Atom(len(c.strings))
	c.strings = append(c.strings, s)
	c.byValue[s] = a
	c.lowerHash[a] = fnv32(strings.ToLower(s))
	return a, nil
}

// Get returns the interned string for a, or "" if a is Invalid or unknown.
func (c *Cache) Get(a Atom) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if int(a) >= len(c.strings) {
		return ""
	}
	return c.strings[a]
}

// LowerCaseHash returns a case-insensitive ASCII hash of the atom's value,
// used by the DDF loader to match manufacturer names without re-lowering
// the string on every comparison.
func (c *Cache) LowerCaseHash(a Atom) uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lowerHash[a]
}

// EqualFold reports whether a and b intern case-insensitively equal ASCII
// strings, without allocating.
func (c *Cache) EqualFold(a, b Atom) bool {
	if a == b {
		return true
	}
	return c.LowerCaseHash(a) == c.LowerCaseHash(b) && strings.EqualFold(c.Get(a), c.Get(b))
}

// Len returns the number of interned strings, including the Invalid slot.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.strings)
}

// fnv32 is a tiny, dependency-free case-folded hash; collisions are fine
// since LowerCaseHash is only ever used as a cheap pre-filter before a
// byte-exact EqualFold comparison.
func fnv32(s string) uint32 {
	const prime = 16777619
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}
