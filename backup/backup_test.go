package backup

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validSnapshot() *Snapshot {
	return &Snapshot{
		DeviceType:      "coordinator",
		PANID:           0x1234,
		ExtendedPANID:   0xdeadbeefcafebabe,
		Channel:         15,
		NetworkKeyHex:   "000102030405060708090a0b0c0d0e0f",
		TCLinkKeyHex:    "5a6967426565416c6c69616e63653039",
		NetworkUpdateID: 1,
		TrustCenterMAC:  0x1111222233334444,
	}
}

func TestValidateAcceptsWellFormedSnapshot(t *testing.T) {
	s := validSnapshot()
	require.NoError(t, Validate(s, s.TrustCenterMAC))
}

func TestValidateRejectsZeroPANID(t *testing.T) {
	s := validSnapshot()
	s.PANID = 0
	require.Error(t, Validate(s, s.TrustCenterMAC))
}

func TestValidateRejectsOutOfRangeChannel(t *testing.T) {
	s := validSnapshot()
	s.Channel = 10
	require.Error(t, Validate(s, s.TrustCenterMAC))
	s.Channel = 27
	require.Error(t, Validate(s, s.TrustCenterMAC))
}

func TestValidateAutoCorrectsTrustCenterMAC(t *testing.T) {
	s := validSnapshot()
	s.TrustCenterMAC = 0x9999
	deviceMAC := uint64(0x1111222233334444)

	require.NoError(t, Validate(s, deviceMAC))
	require.Equal(t, deviceMAC, s.TrustCenterMAC)
}

func TestValidateRejectsMalformedNetworkKey(t *testing.T) {
	s := validSnapshot()
	s.NetworkKeyHex = "not-hex"
	require.Error(t, Validate(s, s.TrustCenterMAC))
}

type fakeRadio struct {
	params map[string]interface{}
}

func (r *fakeRadio) SetParameter(key string, value interface{}) error {
	if r.params == nil {
		r.params = make(map[string]interface{})
	}
	r.params[key] = value
	return nil
}

func TestRestoreAppliesParametersAndRegeneratesEndpoints(t *testing.T) {
	s := validSnapshot()
	driver := &fakeRadio{}

	require.NoError(t, Restore(driver, s, s.TrustCenterMAC))
	require.Equal(t, s.PANID, driver.params["pan_id"])
	require.Equal(t, SecurityMode, driver.params["security_mode"])
	require.Equal(t, HomeAutomationEndpointTemplate(), s.HomeAutomation)
	require.Equal(t, GreenPowerEndpointTemplate(), s.GreenPower)
}

func TestRestoreRejectsInvalidSnapshot(t *testing.T) {
	s := validSnapshot()
	s.PANID = 0
	require.Error(t, Restore(&fakeRadio{}, s, s.TrustCenterMAC))
}

func TestImportNeverLowersFrameCounter(t *testing.T) {
	current := &Snapshot{FrameCounter: 500, HasFrameCounter: true}
	imported := &Snapshot{FrameCounter: 10, HasFrameCounter: true}

	merged := Import(current, imported)
	require.Equal(t, uint32(500), merged.FrameCounter)
}

func TestImportTakesImportedWhenHigher(t *testing.T) {
	current := &Snapshot{FrameCounter: 10, HasFrameCounter: true}
	imported := &Snapshot{FrameCounter: 500, HasFrameCounter: true}

	merged := Import(current, imported)
	require.Equal(t, uint32(500), merged.FrameCounter)
}

func TestImportKeepsCurrentWhenImportedHasNoCounter(t *testing.T) {
	current := &Snapshot{FrameCounter: 500, HasFrameCounter: true}
	imported := &Snapshot{HasFrameCounter: false}

	merged := Import(current, imported)
	require.True(t, merged.HasFrameCounter)
	require.Equal(t, uint32(500), merged.FrameCounter)
}
