package ddf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeLegacyLookup struct{ ids []string }

func (f fakeLegacyLookup) LegacyUniqueIDs(deviceUniqueID, subdeviceType string) []string { return f.ids }

func TestReconcileUniqueIDKeepsLegacyWhenEndpointMatches(t *testing.T) {
	d := Device{SubDevices: []SubDevice{{Type: "ZHASwitch"}}}
	sub := SubDevice{Type: "ZHASwitch"}
	lookup := fakeLegacyLookup{ids: []string{"00:11-02-0006"}}

	got := ReconcileUniqueID(lookup, "00:11", d, sub, "00:11-02-1000")
	require.Equal(t, "00:11-02-0006", got)
}

func TestReconcileUniqueIDKeepsCandidateWhenEndpointDiffers(t *testing.T) {
	d := Device{SubDevices: []SubDevice{{Type: "ZHASwitch"}}}
	sub := SubDevice{Type: "ZHASwitch"}
	lookup := fakeLegacyLookup{ids: []string{"00:11-03-0006"}}

	got := ReconcileUniqueID(lookup, "00:11", d, sub, "00:11-02-1000")
	require.Equal(t, "00:11-02-1000", got)
}

func TestReconcileUniqueIDSkippedForMultiSubdeviceDDF(t *testing.T) {
	d := Device{SubDevices: []SubDevice{{Type: "ZHASwitch"}, {Type: "ZHAPresence"}}}
	sub := SubDevice{Type: "ZHASwitch"}
	lookup := fakeLegacyLookup{ids: []string{"00:11-02-0006"}}

	got := ReconcileUniqueID(lookup, "00:11", d, sub, "00:11-02-1000")
	require.Equal(t, "00:11-02-1000", got)
}
