// Package pollcontrol implements the Poll Control Handler of
// SPEC_FULL §4.11: check-in bookkeeping and the two opportunistic
// pending configuration writes devices advertising the Poll Control
// cluster accept.
package pollcontrol

import "time"

// ClusterID is the Poll Control cluster id.
const ClusterID = 0x0020

// CheckInCommandID is the inbound "check-in" command.
const CheckInCommandID = 0x00

// CheckInResponseCommandID is the outbound response that keeps fast
// poll off.
const CheckInResponseCommandID = 0x00

// DefaultCheckinInterval is WritePollCheckinInterval's default, in
// units of a quarter second (1 hour).
const DefaultCheckinInterval uint32 = 14400

// DefaultLongPollInterval is SetLongPollInterval's default, in units of
// a quarter second (15 minutes).
const DefaultLongPollInterval uint32 = 3600

// PendingFlag is one bit of a device's config/pending bitmap.
type PendingFlag uint8

const (
	PendingWriteCheckinInterval PendingFlag = 1 << iota
	PendingSetLongPollInterval
)

// CheckInResponse is the payload of the outbound check-in response:
// start fast polling = false, fast poll timeout unused.
type CheckInResponse struct {
	StartFastPolling bool
	FastPollTimeout  uint16
}

// KeepFastPollOff is the check-in response this handler always sends
// (SPEC_FULL §4.11: "keeps fast poll off").
func KeepFastPollOff() CheckInResponse {
	return CheckInResponse{StartFastPolling: false, FastPollTimeout: 0}
}

// SubDeviceUpdater is implemented by the registry to update
// state/last_checkin on every sub-device of a device.
type SubDeviceUpdater interface {
	SetLastCheckin(deviceUniqueID string, now time.Time)
}

// HandleCheckIn processes an inbound check-in command: updates
// state/last_checkin on every sub-device of the source and returns the
// response to send back.
func HandleCheckIn(deviceUniqueID string, updater SubDeviceUpdater, now time.Time) CheckInResponse {
	updater.SetLastCheckin(deviceUniqueID, now)
	return KeepFastPollOff()
}

// PendingConfig tracks the config/pending bitmap for one device and the
// interval values to apply opportunistically at the next check-in.
type PendingConfig struct {
	Flags               PendingFlag
	CheckinInterval      uint32
	LongPollInterval     uint32
}

// NewPendingConfig starts with both defaults pending.
func NewPendingConfig() *PendingConfig {
	return &PendingConfig{
		Flags:            PendingWriteCheckinInterval | PendingSetLongPollInterval,
		CheckinInterval:  DefaultCheckinInterval,
		LongPollInterval: DefaultLongPollInterval,
	}
}

// Pending reports whether flag is still outstanding.
func (p *PendingConfig) Pending(flag PendingFlag) bool {
	return p.Flags&flag != 0
}

// Clear marks flag applied.
func (p *PendingConfig) Clear(flag PendingFlag) {
	p.Flags &^= flag
}

// WriteCheckinIntervalAttribute builds the 32-bit attribute write value
// for the pending checkin interval, clearing the flag once called — the
// caller is expected to actually send the write immediately after.
func (p *PendingConfig) WriteCheckinIntervalAttribute() (value uint32, ok bool) {
	if !p.Pending(PendingWriteCheckinInterval) {
		return 0, false
	}
	p.Clear(PendingWriteCheckinInterval)
	return p.CheckinInterval, true
}

// SetLongPollIntervalCommand builds the 32-bit long-poll-interval
// command value, clearing the flag once called.
func (p *PendingConfig) SetLongPollIntervalCommand() (value uint32, ok bool) {
	if !p.Pending(PendingSetLongPollInterval) {
		return 0, false
	}
	p.Clear(PendingSetLongPollInterval)
	return p.LongPollInterval, true
}
