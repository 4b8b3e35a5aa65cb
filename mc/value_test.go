package mc

import (
	"math"
	"testing"
)

func TestValueFormatRequiredWords(t *testing.T) {
	tests := []struct {
		format ValueFormat
		want   int
	}{
		{ValueFormat{Type: Int16}, 1},
		{ValueFormat{Type: UInt32}, 2},
		{ValueFormat{Type: Float64}, 4},
		{ValueFormat{Type: AsciiString, Parameter: 5}, 3},
		{ValueFormat{Type: RawWords, Parameter: 7}, 7},
		{ValueFormat{Type: BitArray, Parameter: 3}, 2},
	}
	for _, tc := range tests {
		got, err := tc.format.RequiredWords()
		if err != nil {
			t.Fatalf("RequiredWords(%v): unexpected error: %v", tc.format, err)
		}
		if got != tc.want {
			t.Errorf("RequiredWords(%v) = %d, want %d", tc.format, got, tc.want)
		}
	}
}

func TestScalarRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		format ValueFormat
		value  DeviceValue
	}{
		{"int16", ValueFormat{Type: Int16}, NewInt16Value(-1234)},
		{"uint16", ValueFormat{Type: UInt16}, NewUInt16Value(65000)},
		{"int32", ValueFormat{Type: Int32}, NewInt32Value(-123456)},
		{"uint32", ValueFormat{Type: UInt32}, NewUInt32Value(0xDEADBEEF)},
		{"int64", ValueFormat{Type: Int64}, NewInt64Value(-1)},
		{"uint64", ValueFormat{Type: UInt64}, NewUInt64Value(0x0123456789ABCDEF)},
		{"float32", ValueFormat{Type: Float32}, NewFloat32Value(3.25)},
		{"float64", ValueFormat{Type: Float64}, NewFloat64Value(math.Pi)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			words, err := EncodeValue(tc.value, tc.format)
			if err != nil {
				t.Fatalf("EncodeValue: %v", err)
			}
			decoded, err := DecodeValue(words, tc.format)
			if err != nil {
				t.Fatalf("DecodeValue: %v", err)
			}
			if decoded.GoValue() != tc.value.GoValue() {
				t.Errorf("round-trip mismatch: got %v, want %v", decoded.GoValue(), tc.value.GoValue())
			}
		})
	}
}

func TestAsciiStringRoundTrip(t *testing.T) {
	format := ValueFormat{Type: AsciiString, Parameter: 6}
	value := NewAsciiStringValue("HELLO")
	words, err := EncodeValue(value, format)
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	decoded, err := DecodeValue(words, format)
	if err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	got, _ := decoded.AsciiString()
	if got != "HELLO" {
		t.Errorf("got %q, want %q", got, "HELLO")
	}
}

func TestAsciiStringEncodesNulPadded(t *testing.T) {
	format := ValueFormat{Type: AsciiString, Parameter: 5}
	words, err := EncodeValue(NewAsciiStringValue("HELLO"), format)
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	// "HELLO" -> words [0x4548, 0x4C4C, 0x004F] (low byte first, last byte NUL-padded)
	want := []uint16{0x4548, 0x4C4C, 0x004F}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("word %d = 0x%04X, want 0x%04X", i, words[i], want[i])
		}
	}
}

func TestBitArrayEncodesLowByteOnly(t *testing.T) {
	format := ValueFormat{Type: BitArray, Parameter: 3}
	words, err := EncodeValue(NewBitArrayValue([]bool{true, false, true}), format)
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	want := []uint16{0x0010, 0x0010}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("word %d = 0x%04X, want 0x%04X", i, words[i], want[i])
		}
	}
}

func TestAsciiStringTooLongRejected(t *testing.T) {
	format := ValueFormat{Type: AsciiString, Parameter: 3}
	if _, err := EncodeValue(NewAsciiStringValue("TOOLONG"), format); !IsKind(err, InvalidArgument) {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestBitArrayRoundTrip(t *testing.T) {
	format := ValueFormat{Type: BitArray, Parameter: 5}
	bits := []bool{true, false, true, true, false}
	value := NewBitArrayValue(bits)
	words, err := EncodeValue(value, format)
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	decoded, err := DecodeValue(words, format)
	if err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	got, _ := decoded.BitArray()
	for i := range bits {
		if got[i] != bits[i] {
			t.Errorf("bit %d = %v, want %v", i, got[i], bits[i])
		}
	}
}

func TestDecodeValue_InsufficientAndTrailingData(t *testing.T) {
	format := ValueFormat{Type: Int32}
	if _, err := DecodeValue([]uint16{1}, format); !IsKind(err, InsufficientData) {
		t.Errorf("expected InsufficientData, got %v", err)
	}
	if _, err := DecodeValue([]uint16{1, 2, 3}, format); !IsKind(err, TrailingData) {
		t.Errorf("expected TrailingData, got %v", err)
	}
}

func TestAccessorTypeMismatch(t *testing.T) {
	v := NewInt16Value(5)
	if _, err := v.UInt32(); !IsKind(err, TypeMismatch) {
		t.Errorf("expected TypeMismatch, got %v", err)
	}
}

func TestEncodeValue_TypeMismatch(t *testing.T) {
	format := ValueFormat{Type: Int16}
	if _, err := EncodeValue(NewUInt16Value(1), format); !IsKind(err, TypeMismatch) {
		t.Errorf("expected TypeMismatch, got %v", err)
	}
}
