package protocol

import "encoding/binary"

// Attribute bits, byte 8 of the bulk header.
const (
	attrEOM      byte = 0x01
	attrTermChar byte = 0x02
)

// EncodeDevDepMsgOut builds the DEV_DEP_MSG_OUT header that precedes one
// outbound message transaction. transferSize counts message bytes only,
// header and alignment padding excluded.
func EncodeDevDepMsgOut(btag byte, transferSize uint32, eom bool) [HeaderSize]byte {
	h := encodeBulkHeader(MsgDevDepOut, btag, transferSize)
	if eom {
		h[8] = attrEOM
	}
	return h
}

// EncodeRequestDevDepMsgIn builds the REQUEST_DEV_DEP_MSG_IN header that asks
// the device for up to requestedSize response bytes. A non-nil termChar sets
// the term-char-enabled attribute and rides in byte 9.
func EncodeRequestDevDepMsgIn(btag byte, requestedSize uint32, termChar *byte) [HeaderSize]byte {
	h := encodeBulkHeader(MsgRequestDevDepIn, btag, requestedSize)
	if termChar != nil {
		h[8] = attrTermChar
		h[9] = *termChar
	}
	return h
}

// EncodeVendorMsgOut builds the VENDOR_SPECIFIC_MSG_OUT header. Vendor
// messages carry no end-of-message attribute.
func EncodeVendorMsgOut(btag byte, transferSize uint32) [HeaderSize]byte {
	return encodeBulkHeader(MsgVendorOut, btag, transferSize)
}

// EncodeRequestVendorMsgIn builds the REQUEST_VENDOR_SPECIFIC_MSG_IN header.
func EncodeRequestVendorMsgIn(btag byte, requestedSize uint32) [HeaderSize]byte {
	return encodeBulkHeader(MsgRequestVendorIn, btag, requestedSize)
}

// EOM reports whether the attribute byte of a received bulk-in header marks
// the final transaction of the message.
func EOM(attributes byte) bool {
	return attributes&attrEOM != 0
}

func encodeBulkHeader(msgID, btag byte, size uint32) [HeaderSize]byte {
	var h [HeaderSize]byte
	h[0] = msgID
	h[1] = btag
	h[2] = ^btag
	// byte 3 reserved
	binary.LittleEndian.PutUint32(h[4:8], size)
	// bytes 8..11 are message specific or reserved; callers fill byte 8/9
	return h
}
