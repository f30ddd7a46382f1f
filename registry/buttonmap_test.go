package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleMaps() []ButtonMap {
	return []ButtonMap{
		{Ref: ButtonMapRef{Hash: 0xAAAA, Index: 0}, Name: "hue-dimmer", Actions: []ButtonAction{
			{Endpoint: 1, ClusterID: 0x0006, CommandID: 1, ButtonEvent: 1002},
		}},
		{Ref: ButtonMapRef{Hash: 0xBBBB, Index: 1}, Name: "lutron-aurora", Actions: []ButtonAction{
			{Endpoint: 1, ClusterID: 0x0008, CommandID: 2, ButtonEvent: 2001},
		}},
	}
}

func TestButtonMapRefForHashFindsMatch(t *testing.T) {
	ref := ButtonMapRefForHash(0xBBBB, sampleMaps())
	require.Equal(t, 1, ref.Index)
}

func TestButtonMapRefForHashMissReturnsInvalid(t *testing.T) {
	ref := ButtonMapRefForHash(0xCCCC, sampleMaps())
	require.False(t, ref.valid())
}

func TestButtonMapForRefRejectsStaleIndex(t *testing.T) {
	maps := sampleMaps()
	stale := ButtonMapRef{Hash: 0xAAAA, Index: 1} // hash no longer matches index 1 after a reorder
	_, ok := ButtonMapForRef(stale, maps)
	require.False(t, ok)
}

func TestButtonMapForProductResolvesThroughIndirection(t *testing.T) {
	maps := sampleMaps()
	products := []ButtonProduct{{ProductHash: 42, ButtonMapRef: maps[1].Ref}}

	bm, ok := ButtonMapForProduct(42, maps, products)
	require.True(t, ok)
	require.Equal(t, "lutron-aurora", bm.Name)
}

func TestButtonMapMatchFindsAction(t *testing.T) {
	bm := sampleMaps()[0]
	a, ok := bm.Match(1, 0x0006, 1, 0)
	require.True(t, ok)
	require.Equal(t, 1002, a.ButtonEvent)

	_, ok = bm.Match(1, 0x0006, 99, 0)
	require.False(t, ok)
}
