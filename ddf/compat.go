package ddf

import "strconv"

// LegacyUniqueIDLookup resolves the uniqueid(s) a sub-device of the given
// type was previously persisted under, for devices whose DDF-declared
// uniqueid cluster suffix has changed across firmware versions. Grounded
// on original_source/device_compat.cpp's DB_LoadLegacySensorUniqueIds.
type LegacyUniqueIDLookup interface {
	LegacyUniqueIDs(deviceUniqueID, subdeviceType string) []string
}

// ReconcileUniqueID implements the device-compatibility shim of
// original_source/device_compat.cpp: some sub-devices (notably Sunricher
// ZHASwitches) report a different cluster suffix in their uniqueid across
// firmware versions, because the legacy code derived it from the simple
// descriptor's cluster list, which itself changed between firmware
// releases. When a DDF declares exactly one sub-device of type
// "ZHASwitch" and a single differing legacy uniqueid already exists for
// the same endpoint, the legacy uniqueid is kept instead of the DDF's.
func ReconcileUniqueID(lookup LegacyUniqueIDLookup, deviceUniqueID string, d Device, sub SubDevice, candidateUniqueID string) string {
	if len(d.SubDevices) != 1 || sub.Type != "ZHASwitch" {
		return candidateUniqueID
	}

	legacy := lookup.LegacyUniqueIDs(deviceUniqueID, sub.Type)
	if len(legacy) != 1 || legacy[0] == candidateUniqueID {
		return candidateUniqueID
	}

	candidateEP, ok := endpointFromUniqueID(candidateUniqueID)
	if !ok {
		return candidateUniqueID
	}
	legacyEP, ok := endpointFromUniqueID(legacy[0])
	if !ok || legacyEP != candidateEP {
		return candidateUniqueID
	}

	return legacy[0]
}

// endpointFromUniqueID extracts the endpoint field from a
// "<ext addr>-<endpoint>[-<cluster>]" uniqueid string.
func endpointFromUniqueID(uniqueID string) (uint8, bool) {
	parts := splitUniqueID(uniqueID)
	if len(parts) < 2 {
		return 0, false
	}
	ep, err := strconv.ParseUint(parts[1], 16, 8)
	if err != nil {
		return 0, false
	}
	return uint8(ep), true
}

func splitUniqueID(uniqueID string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(uniqueID); i++ {
		if uniqueID[i] == '-' {
			parts = append(parts, uniqueID[start:i])
			start = i + 1
		}
	}
	parts = append(parts, uniqueID[start:])
	return parts
}
