package ddf

import (
	"strings"
)

// ConstantsTable maps "$NAME" keys to their replacement strings
// (SPEC_FULL §4.4 step 2). Later definitions override earlier ones;
// a duplicate definition with an identical value is a no-op, not an error.
type ConstantsTable struct {
	values map[string]string
}

func NewConstantsTable() *ConstantsTable {
	return &ConstantsTable{values: make(map[string]string)}
}

// Define installs or overrides a constant. name is stored without its
// leading "$" for lookup convenience; Expand re-adds it when matching.
func (c *ConstantsTable) Define(name, value string) {
	name = strings.TrimPrefix(name, "$")
	if existing, ok := c.values[name]; ok && existing == value {
		return
	}
	c.values[name] = value
}

// Lookup returns the replacement value for "$name", if defined.
func (c *ConstantsTable) Lookup(name string) (string, bool) {
	v, ok := c.values[strings.TrimPrefix(name, "$")]
	return v, ok
}

// Expand substitutes every "$NAME" token in s with its defined value.
// An undefined reference is left untouched rather than erroring, since
// constants may legitimately be scoped to a subset of device files.
func (c *ConstantsTable) Expand(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '$' {
			b.WriteByte(s[i])
			continue
		}
		j := i + 1
		for j < len(s) && isNameByte(s[j]) {
			j++
		}
		if j == i+1 {
			b.WriteByte(s[i])
			continue
		}
		name := s[i+1 : j]
		if v, ok := c.values[name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(s[i:j])
		}
		i = j - 1
	}
	return b.String()
}

func isNameByte(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
