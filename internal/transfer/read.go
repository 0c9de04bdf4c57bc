package transfer

import (
	"fmt"

	"github.com/tmclab/usbtmc/internal/protocol"
)

// Read pulls one complete device response: it sends a REQUEST_DEV_DEP_MSG_IN
// header sized to the bulk-in max packet size, reads the next fragment, and
// repeats until a received header flags end-of-message. The returned buffer
// is the concatenation of every fragment with its 12-byte header stripped;
// fragment content is appended verbatim, zero bytes included.
func (s *Session) Read() ([]byte, error) {
	out := s.eps.BulkOut
	in := s.eps.BulkIn
	if err := out.ValidateOut(); err != nil {
		return nil, err
	}
	if err := in.ValidateIn(); err != nil {
		return nil, err
	}

	var termChar *byte
	if s.Capabilities().SupportsBulkInTermChar {
		tc := protocol.DefaultTermChar
		termChar = &tc
	}
	request := protocol.EncodeRequestDevDepMsgIn(s.btag.Next(), uint32(in.MaxPacketSize), termChar)

	var response []byte
	buf := make([]byte, in.MaxPacketSize+protocol.HeaderSize)
	for {
		if _, err := s.tr.BulkOut(out.Address, request[:], s.Timeout()); err != nil {
			return nil, err
		}
		n, err := s.tr.BulkIn(in.Address, buf, s.Timeout())
		if err != nil {
			return nil, err
		}
		if n < protocol.HeaderSize {
			return nil, fmt.Errorf("%w: %d bytes", protocol.ErrShortHeader, n)
		}

		response = append(response, buf[protocol.HeaderSize:n]...)
		if protocol.EOM(buf[8]) {
			return response, nil
		}
	}
}
