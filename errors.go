package usbtmc

import (
	"errors"

	"github.com/tmclab/usbtmc/internal/protocol"
)

// Enumeration and session setup errors.
var (
	ErrDeviceNotFound             = errors.New("usbtmc: no matching device found")
	ErrDeviceIncompatible         = errors.New("usbtmc: device does not expose a USBTMC interface")
	ErrConfigurationNotFound      = errors.New("usbtmc: configuration not found")
	ErrInterfaceNotFound          = errors.New("usbtmc: interface not found")
	ErrInterfaceSettingNotFound   = errors.New("usbtmc: interface setting not found")
	ErrBulkOutEndpointNotFound    = errors.New("usbtmc: bulk-out endpoint not found")
	ErrBulkInEndpointNotFound     = errors.New("usbtmc: bulk-in endpoint not found")
	ErrIndicatorPulseNotSupported = errors.New("usbtmc: device does not accept indicator pulses")
	ErrNotUTF8                    = errors.New("usbtmc: response is not valid UTF-8")
	ErrClosed                     = errors.New("usbtmc: client is closed")
)

// Wire-protocol errors surfaced by client operations.
var (
	ErrIncorrectEndpoint       = protocol.ErrIncorrectEndpoint
	ErrShortHeader             = protocol.ErrShortHeader
	ErrShortResponse           = protocol.ErrShortResponse
	ErrStatusFailure           = protocol.ErrStatusFailure
	ErrStatusUnexpectedFailure = protocol.ErrStatusUnexpectedFailure
	ErrNoTransferInProgress    = protocol.ErrNoTransferInProgress
	ErrBulkInFIFONotEmpty      = protocol.ErrBulkInFIFONotEmpty
	ErrPollLimitExceeded       = protocol.ErrPollLimitExceeded
)
