package transfer

import (
	"time"

	"github.com/google/gousb"

	"github.com/tmclab/usbtmc/internal/protocol"
)

type controlCall struct {
	rType   uint8
	request uint8
	wValue  uint16
	wIndex  uint16
	bufLen  int
}

// fakeTransport records every transfer and answers from scripted responses.
type fakeTransport struct {
	controlCalls     []controlCall
	controlResponses [][]byte
	controlErr       error

	bulkOutWrites [][]byte
	bulkOutAddrs  []uint8
	failWrite     int // 1-based BulkOut call to fail; 0 disables
	writeErr      error

	bulkInResponses [][]byte
	bulkInCalls     int

	clearedHalts []uint8
}

func (f *fakeTransport) Control(rType, request uint8, val, idx uint16, buf []byte, _ time.Duration) (int, error) {
	f.controlCalls = append(f.controlCalls, controlCall{rType, request, val, idx, len(buf)})
	if f.controlErr != nil {
		return 0, f.controlErr
	}
	if len(f.controlResponses) == 0 {
		return len(buf), nil
	}
	resp := f.controlResponses[0]
	f.controlResponses = f.controlResponses[1:]
	return copy(buf, resp), nil
}

func (f *fakeTransport) BulkOut(address uint8, buf []byte, _ time.Duration) (int, error) {
	if f.failWrite > 0 && len(f.bulkOutWrites)+1 == f.failWrite {
		return 0, f.writeErr
	}
	f.bulkOutWrites = append(f.bulkOutWrites, append([]byte(nil), buf...))
	f.bulkOutAddrs = append(f.bulkOutAddrs, address)
	return len(buf), nil
}

func (f *fakeTransport) BulkIn(address uint8, buf []byte, _ time.Duration) (int, error) {
	if f.bulkInCalls >= len(f.bulkInResponses) {
		return 0, nil
	}
	resp := f.bulkInResponses[f.bulkInCalls]
	f.bulkInCalls++
	return copy(buf, resp), nil
}

func (f *fakeTransport) ClearHalt(address uint8) error {
	f.clearedHalts = append(f.clearedHalts, address)
	return nil
}

func bulkOutEndpoint(mps int) protocol.Endpoint {
	return protocol.Endpoint{Address: 0x02, MaxPacketSize: mps, TransferType: gousb.TransferTypeBulk, Direction: gousb.EndpointDirectionOut}
}

func bulkInEndpoint(mps int) protocol.Endpoint {
	return protocol.Endpoint{Address: 0x81, MaxPacketSize: mps, TransferType: gousb.TransferTypeBulk, Direction: gousb.EndpointDirectionIn}
}

func newTestSession(tr Transport, mps int) *Session {
	eps := protocol.Endpoints{BulkOut: bulkOutEndpoint(mps), BulkIn: bulkInEndpoint(mps)}
	return NewSession(tr, 0, eps)
}

// fragment builds a scripted bulk-in response: header with the given
// attribute byte followed by payload.
func fragment(btag byte, attrs byte, payload []byte) []byte {
	buf := make([]byte, protocol.HeaderSize+len(payload))
	buf[0] = protocol.MsgRequestDevDepIn
	buf[1] = btag
	buf[2] = ^btag
	buf[8] = attrs
	copy(buf[protocol.HeaderSize:], payload)
	return buf
}
