package protocol

import "errors"

var (
	ErrIncorrectEndpoint       = errors.New("usbtmc: incorrect endpoint for transfer")
	ErrShortHeader             = errors.New("usbtmc: short bulk-in header")
	ErrShortResponse           = errors.New("usbtmc: short control response")
	ErrStatusFailure           = errors.New("usbtmc: control request failed")
	ErrStatusUnexpectedFailure = errors.New("usbtmc: control request unexpectedly failed")
	ErrNoTransferInProgress    = errors.New("usbtmc: no transfer in progress")
	ErrBulkInFIFONotEmpty      = errors.New("usbtmc: bulk-in FIFO not empty")
	ErrPollLimitExceeded       = errors.New("usbtmc: status poll iteration limit exceeded")
)
