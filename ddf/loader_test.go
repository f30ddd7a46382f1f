package ddf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleDeviceJSON = `{
	"schema": "devcap1",
	"manufacturername": "LUMI",
	"modelid": ["lumi.sensor_motion", "lumi.sensor_motion.aq2"],
	"matchexpr": "$FW >= 1",
	"status": "Gold",
	"sleeper": true,
	"subdevices": [
		{"type": "ZHAPresence", "uniqueid": "01", "items": [
			{"name": "state/presence", "public": true}
		]}
	],
	"bindings": [
		{"src": "01", "cl": 1280, "report": true, "min_interval": 1, "max_interval": 300}
	]
}`

func TestParseDeviceJSONDecodesCoreFields(t *testing.T) {
	c := NewConstantsTable()
	c.Define("FW", "1")

	d, err := ParseDeviceJSON([]byte(sampleDeviceJSON), c)
	require.NoError(t, err)

	require.Equal(t, []string{"LUMI"}, d.ManufacturerNames)
	require.Equal(t, []string{"lumi.sensor_motion", "lumi.sensor_motion.aq2"}, d.ModelIDs)
	require.Equal(t, "1 >= 1", d.MatchExpr)
	require.Equal(t, StatusGold, d.Status)
	require.True(t, d.Sleeper)
	require.Len(t, d.SubDevices, 1)
	require.Len(t, d.Bindings, 1)
	require.Equal(t, uint16(1280), d.Bindings[0].ClusterID)
}

func TestParseDeviceJSONRejectsWrongSchema(t *testing.T) {
	_, err := ParseDeviceJSON([]byte(`{"schema":"devcap2"}`), NewConstantsTable())
	require.Error(t, err)
}

func TestParseDeviceJSONAcceptsSingleStringManufacturer(t *testing.T) {
	d, err := ParseDeviceJSON([]byte(`{"schema":"devcap1","manufacturername":"IKEA","modelid":"TRADFRI bulb"}`), NewConstantsTable())
	require.NoError(t, err)
	require.Equal(t, []string{"IKEA"}, d.ManufacturerNames)
}
