package ddf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstantsExpandSubstitutesDefinedNames(t *testing.T) {
	c := NewConstantsTable()
	c.Define("BRAND", "dresden elektronik")
	require.Equal(t, "made by dresden elektronik", c.Expand("made by $BRAND"))
}

func TestConstantsExpandLeavesUndefinedReferenceUntouched(t *testing.T) {
	c := NewConstantsTable()
	require.Equal(t, "value $UNKNOWN here", c.Expand("value $UNKNOWN here"))
}

func TestConstantsLaterDefinitionOverridesEarlier(t *testing.T) {
	c := NewConstantsTable()
	c.Define("X", "first")
	c.Define("X", "second")
	v, ok := c.Lookup("X")
	require.True(t, ok)
	require.Equal(t, "second", v)
}

func TestConstantsDuplicateSameValueIsNoop(t *testing.T) {
	c := NewConstantsTable()
	c.Define("X", "same")
	c.Define("X", "same")
	v, _ := c.Lookup("X")
	require.Equal(t, "same", v)
}
