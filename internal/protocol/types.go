package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gousb"
)

// Endpoint describes one negotiated endpoint of the claimed interface.
type Endpoint struct {
	// Address is the endpoint address, direction bit included.
	Address uint8
	// MaxPacketSize bounds a single wire transfer on this endpoint.
	MaxPacketSize int
	// TransferType is Bulk or Interrupt for USBTMC endpoints.
	TransferType gousb.TransferType
	// Direction is In or Out.
	Direction gousb.EndpointDirection
}

// Number returns the endpoint number without the direction bit.
func (e Endpoint) Number() int {
	return int(e.Address & 0x0f)
}

// ValidateOut reports whether the endpoint can carry host-to-device bulk
// traffic. The role mismatch is an error, never silently tolerated.
func (e Endpoint) ValidateOut() error {
	if e.Direction != gousb.EndpointDirectionOut || e.TransferType != gousb.TransferTypeBulk {
		return fmt.Errorf("%w: 0x%02x is not bulk-out", ErrIncorrectEndpoint, e.Address)
	}
	return nil
}

// ValidateIn reports whether the endpoint can carry device-to-host bulk
// traffic.
func (e Endpoint) ValidateIn() error {
	if e.Direction != gousb.EndpointDirectionIn || e.TransferType != gousb.TransferTypeBulk {
		return fmt.Errorf("%w: 0x%02x is not bulk-in", ErrIncorrectEndpoint, e.Address)
	}
	return nil
}

// Endpoints are the endpoints the USBTMC interface exposes. The interrupt
// endpoint is optional and unused by the bulk engines.
type Endpoints struct {
	BulkOut   Endpoint
	BulkIn    Endpoint
	Interrupt *Endpoint
}

// Capabilities is the decoded GET_CAPABILITIES response. Immutable once
// queried; it decides whether the read engine requests a terminator.
type Capabilities struct {
	BCDVersion             uint16
	AcceptsIndicatorPulse  bool
	TalkOnly               bool
	ListenOnly             bool
	SupportsBulkInTermChar bool
}

// ParseCapabilities decodes a GET_CAPABILITIES response buffer. The status
// byte is the caller's concern; this reads only the version and flag fields.
func ParseCapabilities(buf []byte) (Capabilities, error) {
	if len(buf) < 6 {
		return Capabilities{}, fmt.Errorf("%w: GET_CAPABILITIES returned %d bytes", ErrShortResponse, len(buf))
	}
	return Capabilities{
		BCDVersion:             binary.LittleEndian.Uint16(buf[2:4]),
		AcceptsIndicatorPulse:  buf[4]&0x04 != 0,
		TalkOnly:               buf[4]&0x02 != 0,
		ListenOnly:             buf[4]&0x01 != 0,
		SupportsBulkInTermChar: buf[5]&0x01 != 0,
	}, nil
}

// DeviceMode is the configuration/interface/alternate-setting triple the
// session claimed, plus whether the kernel driver had to be detached for it.
// Resolved once during setup; only the kernel-driver flag changes afterward.
type DeviceMode struct {
	ConfigNumber         int
	InterfaceNumber      int
	SettingNumber        int
	KernelDriverDetached bool
}
