// Package radio declares the External Interfaces of SPEC_FULL §6 that
// the Device Runtime Core consumes from the radio driver: request
// submission and the indication/confirm callbacks, kept as a narrow
// interface so every other package can depend on it without pulling in
// a concrete transport.
package radio

import "context"

// AddressMode selects unicast vs. group addressing for an APS request.
type AddressMode uint8

const (
	AddressModeUnicast AddressMode = iota
	AddressModeGroup
)

// Request is one outbound APS data request.
type Request struct {
	Mode          AddressMode
	DstShortAddr  uint16
	DstExtAddr    uint64
	DstGroupID    uint16
	DstEndpoint   uint8
	SrcEndpoint   uint8
	ClusterID     uint16
	ProfileID     uint16
	Payload       []byte
}

// RequestID correlates a submitted Request with its eventual confirm.
type RequestID uint8

// Indication is an inbound APS data indication.
type Indication struct {
	SrcShortAddr uint16
	SrcExtAddr   uint64
	SrcEndpoint  uint8
	DstEndpoint  uint8
	ClusterID    uint16
	ProfileID    uint16
	Payload      []byte
	LinkQuality  uint8
}

// Confirm is the local delivery-attempt outcome for a submitted Request.
type Confirm struct {
	RequestID  RequestID
	Status     uint8
	DstAddr    uint64
}

// Driver is the subset of the radio driver the core consumes: request
// submission plus network-credential/endpoint parameter access
// (SPEC_FULL §6). Indications and confirms arrive through a Listener
// the driver is configured with, not a blocking read, matching the
// driver's own non-blocking submit/complete model.
type Driver interface {
	SubmitAPSRequest(ctx context.Context, req Request) (RequestID, error)
	GetParameter(key string) (interface{}, error)
	SetParameter(key string, value interface{}) error
}

// Listener receives indications and confirms from the driver.
type Listener interface {
	OnAPSDataIndication(ind Indication)
	OnAPSDataConfirm(conf Confirm)
}
