package ota

// DDFRematcher re-runs DDF selection for a device, which may switch it
// to a different DDF when a `matchexpr` depends on firmware version
// (SPEC_FULL §4.10: "the engine re-requests a DDF match, which may
// switch DDFs"). Declared locally to avoid an import cycle with ddf.
type DDFRematcher interface {
	RematchDDF(extAddress uint64) error
}

// HandleVersionReport records extAddress's reported firmware version
// and, if it changed, asks rematch to re-evaluate the device's DDF
// match. rematch may be nil for devices whose DDF never uses matchexpr.
func (t *Tracker) HandleVersionReport(extAddress uint64, version uint32, rematch DDFRematcher) error {
	changed := t.ReportVersion(extAddress, version)
	if !changed || rematch == nil {
		return nil
	}
	return rematch.RematchDDF(extAddress)
}
