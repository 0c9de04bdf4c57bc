package transfer

import (
	"github.com/tmclab/usbtmc/internal/protocol"
)

// Write frames payload into DEV_DEP_MSG_OUT transactions on the bulk-out
// endpoint. The payload is cut into at most ApplicationBufferSize-byte
// transactions, each carrying its own header and a fresh bTag; only the
// final transaction sets end-of-message. Every wire transfer is capped at
// the endpoint's max packet size and zero-padded to a 4-byte boundary.
// The first transport error aborts the whole write.
func (s *Session) Write(payload []byte) error {
	ep := s.eps.BulkOut
	if err := ep.ValidateOut(); err != nil {
		return err
	}

	transactions := len(payload) / protocol.ApplicationBufferSize
	if len(payload)%protocol.ApplicationBufferSize != 0 {
		transactions++
	}

	for i := 0; i < transactions; i++ {
		chunk := payload[i*protocol.ApplicationBufferSize:]
		if len(chunk) > protocol.ApplicationBufferSize {
			chunk = chunk[:protocol.ApplicationBufferSize]
		}

		header := protocol.EncodeDevDepMsgOut(s.btag.Next(), uint32(len(chunk)), i+1 == transactions)
		buf := make([]byte, 0, protocol.HeaderSize+len(chunk))
		buf = append(buf, header[:]...)
		buf = append(buf, chunk...)

		for off := 0; off < len(buf); off += ep.MaxPacketSize {
			end := off + ep.MaxPacketSize
			if end > len(buf) {
				end = len(buf)
			}
			if _, err := s.tr.BulkOut(ep.Address, pad4(buf[off:end]), s.Timeout()); err != nil {
				return err
			}
		}
	}
	return nil
}

// pad4 zero-pads b to the next multiple of 4 bytes, copying only when
// padding is needed.
func pad4(b []byte) []byte {
	r := len(b) % 4
	if r == 0 {
		return b
	}
	padded := make([]byte, len(b)+4-r)
	copy(padded, b)
	return padded
}
