package protocol

import "time"

// Bulk message IDs (byte 0 of the bulk header).
const (
	MsgDevDepOut       byte = 1
	MsgRequestDevDepIn byte = 2
	MsgVendorOut       byte = 126
	MsgRequestVendorIn byte = 127
)

// Class-specific control request codes (bRequest).
const (
	ReqInitiateAbortBulkOut    byte = 1
	ReqCheckAbortBulkOutStatus byte = 2
	ReqInitiateAbortBulkIn     byte = 3
	ReqCheckAbortBulkInStatus  byte = 4
	ReqInitiateClear           byte = 5
	ReqCheckClearStatus        byte = 6
	ReqGetCapabilities         byte = 7
	ReqIndicatorPulse          byte = 64
	ReqReadStatusByte          byte = 128
)

// Device status codes, byte 0 of every class-specific control response.
const (
	StatusSuccess               byte = 0x01
	StatusPending               byte = 0x02
	StatusFailed                byte = 0x80
	StatusTransferNotInProgress byte = 0x81
	StatusSplitNotInProgress    byte = 0x82
	StatusSplitInProgress       byte = 0x83
)

// USBTMC interface identity (bInterfaceClass / SubClass / Protocol).
const (
	ClassCode    = 0xFE
	SubclassCode = 0x03
	ProtocolCode = 0x01
)

const (
	// HeaderSize is the fixed size of a USBTMC bulk transfer header.
	HeaderSize = 12
	// ApplicationBufferSize caps the payload bytes carried by one bulk
	// message transaction.
	ApplicationBufferSize = 8192
	// CapabilitiesResponseSize is the GET_CAPABILITIES response length.
	CapabilitiesResponseSize = 0x18
	// DefaultTermChar is the NI-VISA default response terminator.
	DefaultTermChar byte = '\n'
	// DefaultTimeout applies to every transfer until the session changes it.
	DefaultTimeout = 2 * time.Second
)
