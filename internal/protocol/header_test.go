package protocol

import (
	"bytes"
	"testing"
)

func TestDevDepMsgOutHeaderLayout(t *testing.T) {
	h := EncodeDevDepMsgOut(7, 5, true)
	want := [HeaderSize]byte{MsgDevDepOut, 7, ^byte(7), 0, 5, 0, 0, 0, 1, 0, 0, 0}
	if h != want {
		t.Fatalf("header mismatch: got=%v want=%v", h, want)
	}
}

func TestDevDepMsgOutWithoutEOM(t *testing.T) {
	h := EncodeDevDepMsgOut(1, 8192, false)
	if h[8] != 0 {
		t.Fatalf("attributes byte set without EOM: 0x%02x", h[8])
	}
	if !bytes.Equal(h[4:8], []byte{0x00, 0x20, 0x00, 0x00}) {
		t.Fatalf("transfer size not little-endian: %v", h[4:8])
	}
}

func TestBTagComplementInvariant(t *testing.T) {
	for tag := 1; tag <= 255; tag++ {
		out := EncodeDevDepMsgOut(byte(tag), 1, false)
		if out[2] != ^out[1] {
			t.Fatalf("out header: byte2 != ^byte1 for tag %d", tag)
		}
		in := EncodeRequestDevDepMsgIn(byte(tag), 64, nil)
		if in[2] != ^in[1] {
			t.Fatalf("request-in header: byte2 != ^byte1 for tag %d", tag)
		}
	}
}

func TestRequestDevDepMsgInTermChar(t *testing.T) {
	tc := DefaultTermChar
	h := EncodeRequestDevDepMsgIn(3, 512, &tc)
	if h[0] != MsgRequestDevDepIn {
		t.Fatalf("msg id: got=%d want=%d", h[0], MsgRequestDevDepIn)
	}
	if h[8] != 0x02 {
		t.Fatalf("term-char attribute not set: 0x%02x", h[8])
	}
	if h[9] != '\n' {
		t.Fatalf("term char byte: got=0x%02x want=0x0a", h[9])
	}

	bare := EncodeRequestDevDepMsgIn(3, 512, nil)
	if bare[8] != 0 || bare[9] != 0 {
		t.Fatalf("term char leaked without terminator: attrs=0x%02x byte9=0x%02x", bare[8], bare[9])
	}
}

func TestVendorHeaders(t *testing.T) {
	out := EncodeVendorMsgOut(9, 100)
	if out[0] != MsgVendorOut || out[8] != 0 {
		t.Fatalf("vendor out header: %v", out)
	}
	in := EncodeRequestVendorMsgIn(9, 100)
	if in[0] != MsgRequestVendorIn || in[8] != 0 {
		t.Fatalf("request vendor in header: %v", in)
	}
}

func TestEOM(t *testing.T) {
	if !EOM(0x01) || !EOM(0x03) {
		t.Fatalf("EOM bit not detected")
	}
	if EOM(0x02) || EOM(0x00) {
		t.Fatalf("EOM detected on clear bit")
	}
}
