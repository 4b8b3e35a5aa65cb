package mc

import "testing"

func buildBinaryResponse(dataAfterHeader []byte) []byte {
	out := []byte{0xD0, 0x00, 0x00, 0xFF, 0xFF, 0x03, 0x00}
	dl := len(dataAfterHeader)
	out = append(out, byte(dl), byte(dl>>8))
	out = append(out, dataAfterHeader...)
	return out
}

func TestDetectMode(t *testing.T) {
	if mode, err := DetectMode([]byte{0xD0, 0x00, 0x00}); err != nil || mode != Binary {
		t.Errorf("DetectMode(binary) = %v, %v", mode, err)
	}
	if mode, err := DetectMode([]byte("D0000000")); err != nil || mode != Ascii {
		t.Errorf("DetectMode(ascii) = %v, %v", mode, err)
	}
	if _, err := DetectMode([]byte{0x01, 0x02}); err == nil {
		t.Error("expected error for unrecognized subheader")
	}
}

func TestDecodeResponse_SuccessBinary(t *testing.T) {
	// completion code 0x0000, payload 0x1234, 0x5678
	raw := buildBinaryResponse([]byte{0x00, 0x00, 0x34, 0x12, 0x78, 0x56})
	frame, err := DecodeResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame.CompletionCode != 0 {
		t.Errorf("CompletionCode = %d, want 0", frame.CompletionCode)
	}
	words, err := PayloadToWords(frame.Payload, Binary, 2)
	if err != nil {
		t.Fatalf("PayloadToWords: %v", err)
	}
	if words[0] != 0x1234 || words[1] != 0x5678 {
		t.Errorf("words = %v, want [0x1234 0x5678]", words)
	}
}

func TestDecodeResponse_ProtocolError(t *testing.T) {
	raw := buildBinaryResponse([]byte{0x50, 0xC0})
	_, err := DecodeResponse(raw)
	if !IsKind(err, ProtocolErrorKind) {
		t.Fatalf("expected ProtocolErrorKind, got %v", err)
	}
	var mcErr *Error
	if as, ok := err.(*Error); ok {
		mcErr = as
	} else {
		t.Fatalf("error is not *Error")
	}
	if mcErr.CompletionCode != 0xC050 {
		t.Errorf("CompletionCode = 0x%04X, want 0xC050", mcErr.CompletionCode)
	}
}

func TestDecodeResponse_TrailingDataRejected(t *testing.T) {
	raw := buildBinaryResponse([]byte{0x00, 0x00, 0x34, 0x12})
	raw = append(raw, 0xFF) // one extra byte beyond the declared length
	if _, err := DecodeResponse(raw); !IsKind(err, TrailingData) {
		t.Errorf("expected TrailingData, got %v", err)
	}
}

func TestDecodeResponse_InsufficientDataRejected(t *testing.T) {
	raw := buildBinaryResponse([]byte{0x00, 0x00, 0x34, 0x12})
	raw = raw[:len(raw)-1] // truncate
	if _, err := DecodeResponse(raw); !IsKind(err, InsufficientData) {
		t.Errorf("expected InsufficientData, got %v", err)
	}
}

func TestPayloadToBits_NonIQRPacking(t *testing.T) {
	// byte 0x10 -> bits[0]=true, bits[1]=false; byte 0x01 -> bits[2]=false, bits[3]=true
	payload := []byte{0x10, 0x01}
	bits, err := PayloadToBits(payload, Binary, SeriesQ, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []bool{true, false, false, true}
	for i := range want {
		if bits[i] != want[i] {
			t.Errorf("bit %d = %v, want %v", i, bits[i], want[i])
		}
	}
}

func TestPayloadToBits_IQRWordPerBit(t *testing.T) {
	payload := []byte{0x01, 0x00, 0x00, 0x00}
	bits, err := PayloadToBits(payload, Binary, SeriesIQR, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bits[0] || bits[1] {
		t.Errorf("bits = %v, want [true false]", bits)
	}
}
