package transfer

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gousb"

	"github.com/tmclab/usbtmc/internal/protocol"
)

// Class-specific request type bitmaps: control-IN to the interface for the
// session-wide requests, control-IN to the endpoint for the abort machinery.
const (
	requestTypeInterface = uint8(gousb.ControlIn | gousb.ControlClass | gousb.ControlInterface)
	requestTypeEndpoint  = uint8(gousb.ControlIn | gousb.ControlClass | gousb.ControlEndpoint)
)

// fifoEmpty reads the bulk-in FIFO flag carried in byte 1 of pending
// CHECK_CLEAR_STATUS / CHECK_ABORT_BULK_IN_STATUS responses.
func fifoEmpty(flags byte) bool {
	return flags&0x01 != 0
}

// GetCapabilities runs GET_CAPABILITIES, records the result on the session
// and returns it. Any status other than SUCCESS fails the call.
func (s *Session) GetCapabilities() (protocol.Capabilities, error) {
	buf := make([]byte, protocol.CapabilitiesResponseSize)
	if _, err := s.tr.Control(requestTypeInterface, protocol.ReqGetCapabilities, 0, uint16(s.iface), buf, s.Timeout()); err != nil {
		return protocol.Capabilities{}, err
	}
	if buf[0] != protocol.StatusSuccess {
		return protocol.Capabilities{}, fmt.Errorf("%w: GET_CAPABILITIES status 0x%02x", protocol.ErrStatusUnexpectedFailure, buf[0])
	}

	caps, err := protocol.ParseCapabilities(buf)
	if err != nil {
		return protocol.Capabilities{}, err
	}
	s.mu.Lock()
	s.caps = caps
	s.mu.Unlock()
	return caps, nil
}

// ClearBuffers clears the device's input and output buffers: INITIATE_CLEAR,
// then CHECK_CLEAR_STATUS polled until a terminal status. A pending response
// whose bulk-in FIFO still holds data fails immediately. The caller must
// ensure no bulk transfer is in flight.
func (s *Session) ClearBuffers() error {
	buf := make([]byte, 1)
	if _, err := s.tr.Control(requestTypeInterface, protocol.ReqInitiateClear, 0, uint16(s.iface), buf, s.Timeout()); err != nil {
		return err
	}
	if buf[0] != protocol.StatusSuccess {
		return fmt.Errorf("%w: INITIATE_CLEAR status 0x%02x", protocol.ErrStatusUnexpectedFailure, buf[0])
	}

	check := make([]byte, 2)
	for attempt := 0; ; attempt++ {
		if err := s.pollWait(attempt); err != nil {
			return err
		}
		if _, err := s.tr.Control(requestTypeInterface, protocol.ReqCheckClearStatus, 0, uint16(s.iface), check, s.Timeout()); err != nil {
			return err
		}
		switch check[0] {
		case protocol.StatusPending:
			if !fifoEmpty(check[1]) {
				return protocol.ErrBulkInFIFONotEmpty
			}
		case protocol.StatusSuccess:
			return nil
		default:
			return fmt.Errorf("%w: CHECK_CLEAR_STATUS status 0x%02x", protocol.ErrStatusUnexpectedFailure, check[0])
		}
	}
}

// ClearFeature clears a halt condition on the given endpoint. No device
// status byte is involved.
func (s *Session) ClearFeature(ep protocol.Endpoint) error {
	return s.tr.ClearHalt(ep.Address)
}

// AbortBulkOut aborts the bulk-out transfer identified by transferBTag and
// returns the byte count the device reports having read before the abort.
func (s *Session) AbortBulkOut(transferBTag byte) (int, error) {
	ep := s.eps.BulkOut
	if err := ep.ValidateOut(); err != nil {
		return 0, err
	}

	wValue := uint16(transferBTag) << 8
	wIndex := uint16(ep.Address) << 8
	buf := make([]byte, 2)
	if _, err := s.tr.Control(requestTypeEndpoint, protocol.ReqInitiateAbortBulkOut, wValue, wIndex, buf, s.Timeout()); err != nil {
		return 0, err
	}
	if err := initiateAbortStatus("INITIATE_ABORT_BULK_OUT", buf[0]); err != nil {
		return 0, err
	}

	check := make([]byte, 8)
	for attempt := 0; ; attempt++ {
		if err := s.pollWait(attempt); err != nil {
			return 0, err
		}
		if _, err := s.tr.Control(requestTypeEndpoint, protocol.ReqCheckAbortBulkOutStatus, 0, wIndex, check, s.Timeout()); err != nil {
			return 0, err
		}
		switch check[0] {
		case protocol.StatusPending:
		case protocol.StatusSuccess:
			return int(binary.LittleEndian.Uint32(check[4:8])), nil
		default:
			return 0, fmt.Errorf("%w: CHECK_ABORT_BULK_OUT_STATUS status 0x%02x", protocol.ErrStatusUnexpectedFailure, check[0])
		}
	}
}

// AbortBulkIn aborts the bulk-in transfer identified by transferBTag and
// returns the byte count the device reports having sent before the abort.
// A pending status with data still queued in the bulk-in FIFO fails with
// ErrBulkInFIFONotEmpty; the host must drain the endpoint first.
func (s *Session) AbortBulkIn(transferBTag byte) (int, error) {
	ep := s.eps.BulkIn
	if err := ep.ValidateIn(); err != nil {
		return 0, err
	}

	wValue := uint16(transferBTag) << 8
	wIndex := uint16(0x80|ep.Address) << 8
	buf := make([]byte, 2)
	if _, err := s.tr.Control(requestTypeEndpoint, protocol.ReqInitiateAbortBulkIn, wValue, wIndex, buf, s.Timeout()); err != nil {
		return 0, err
	}
	if err := initiateAbortStatus("INITIATE_ABORT_BULK_IN", buf[0]); err != nil {
		return 0, err
	}

	check := make([]byte, 8)
	for attempt := 0; ; attempt++ {
		if err := s.pollWait(attempt); err != nil {
			return 0, err
		}
		if _, err := s.tr.Control(requestTypeEndpoint, protocol.ReqCheckAbortBulkInStatus, 0, wIndex, check, s.Timeout()); err != nil {
			return 0, err
		}
		switch check[0] {
		case protocol.StatusPending:
			if !fifoEmpty(check[1]) {
				return 0, protocol.ErrBulkInFIFONotEmpty
			}
		case protocol.StatusSuccess:
			return int(binary.LittleEndian.Uint32(check[4:8])), nil
		default:
			return 0, fmt.Errorf("%w: CHECK_ABORT_BULK_IN_STATUS status 0x%02x", protocol.ErrStatusUnexpectedFailure, check[0])
		}
	}
}

// ReadStatusByte reads the device status byte through the control endpoint,
// tagging the request with a fresh bTag from the shared generator.
func (s *Session) ReadStatusByte() (byte, error) {
	buf := make([]byte, 3)
	wValue := uint16(s.btag.Next())
	if _, err := s.tr.Control(requestTypeInterface, protocol.ReqReadStatusByte, wValue, uint16(s.iface), buf, s.Timeout()); err != nil {
		return 0, err
	}
	switch buf[0] {
	case protocol.StatusSuccess:
		return buf[2], nil
	case protocol.StatusFailed:
		return 0, protocol.ErrStatusFailure
	default:
		return 0, fmt.Errorf("%w: READ_STATUS_BYTE status 0x%02x", protocol.ErrStatusUnexpectedFailure, buf[0])
	}
}

// IndicatorPulse asks the device to blink its activity indicator.
func (s *Session) IndicatorPulse() error {
	buf := make([]byte, 1)
	if _, err := s.tr.Control(requestTypeInterface, protocol.ReqIndicatorPulse, 0, uint16(s.iface), buf, s.Timeout()); err != nil {
		return err
	}
	switch buf[0] {
	case protocol.StatusSuccess:
		return nil
	case protocol.StatusFailed:
		return protocol.ErrStatusFailure
	default:
		return fmt.Errorf("%w: INDICATOR_PULSE status 0x%02x", protocol.ErrStatusUnexpectedFailure, buf[0])
	}
}

// initiateAbortStatus maps the INITIATE_ABORT_* status vocabulary.
func initiateAbortStatus(request string, status byte) error {
	switch status {
	case protocol.StatusSuccess:
		return nil
	case protocol.StatusFailed:
		return protocol.ErrStatusFailure
	case protocol.StatusTransferNotInProgress:
		return protocol.ErrNoTransferInProgress
	default:
		return fmt.Errorf("%w: %s status 0x%02x", protocol.ErrStatusUnexpectedFailure, request, status)
	}
}
