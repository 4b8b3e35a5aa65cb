package mc

import (
	"math"
	"strings"
)

// DeviceValue is a closed sum type over the eleven shapes a device value can
// take. Exactly one of its fields is meaningful, selected by typ;
// accessors fail with TypeMismatch when called against the wrong tag.
type DeviceValue struct {
	typ   ValueType
	i16   int16
	u16   uint16
	i32   int32
	u32   uint32
	i64   int64
	u64   uint64
	f32   float32
	f64   float64
	str   string
	words []uint16
	bits  []bool
}

// Type reports which shape this value holds.
func (v DeviceValue) Type() ValueType { return v.typ }

func NewInt16Value(x int16) DeviceValue     { return DeviceValue{typ: Int16, i16: x} }
func NewUInt16Value(x uint16) DeviceValue   { return DeviceValue{typ: UInt16, u16: x} }
func NewInt32Value(x int32) DeviceValue     { return DeviceValue{typ: Int32, i32: x} }
func NewUInt32Value(x uint32) DeviceValue   { return DeviceValue{typ: UInt32, u32: x} }
func NewInt64Value(x int64) DeviceValue     { return DeviceValue{typ: Int64, i64: x} }
func NewUInt64Value(x uint64) DeviceValue   { return DeviceValue{typ: UInt64, u64: x} }
func NewFloat32Value(x float32) DeviceValue { return DeviceValue{typ: Float32, f32: x} }
func NewFloat64Value(x float64) DeviceValue { return DeviceValue{typ: Float64, f64: x} }

// NewAsciiStringValue wraps a string as an AsciiString value.
func NewAsciiStringValue(s string) DeviceValue { return DeviceValue{typ: AsciiString, str: s} }

// NewRawWordsValue wraps a word slice as a RawWords value. The slice is
// copied so the caller may reuse its backing array.
func NewRawWordsValue(words []uint16) DeviceValue {
	cp := make([]uint16, len(words))
	copy(cp, words)
	return DeviceValue{typ: RawWords, words: cp}
}

// NewBitArrayValue wraps a bit slice as a BitArray value.
func NewBitArrayValue(bits []bool) DeviceValue {
	cp := make([]bool, len(bits))
	copy(cp, bits)
	return DeviceValue{typ: BitArray, bits: cp}
}

func (v DeviceValue) typeMismatch(want ValueType) error {
	return newErrorf(TypeMismatch, "value holds %v, not %v", v.typ, want)
}

func (v DeviceValue) Int16() (int16, error) {
	if v.typ != Int16 {
		return 0, v.typeMismatch(Int16)
	}
	return v.i16, nil
}

func (v DeviceValue) UInt16() (uint16, error) {
	if v.typ != UInt16 {
		return 0, v.typeMismatch(UInt16)
	}
	return v.u16, nil
}

func (v DeviceValue) Int32() (int32, error) {
	if v.typ != Int32 {
		return 0, v.typeMismatch(Int32)
	}
	return v.i32, nil
}

func (v DeviceValue) UInt32() (uint32, error) {
	if v.typ != UInt32 {
		return 0, v.typeMismatch(UInt32)
	}
	return v.u32, nil
}

func (v DeviceValue) Int64() (int64, error) {
	if v.typ != Int64 {
		return 0, v.typeMismatch(Int64)
	}
	return v.i64, nil
}

func (v DeviceValue) UInt64() (uint64, error) {
	if v.typ != UInt64 {
		return 0, v.typeMismatch(UInt64)
	}
	return v.u64, nil
}

func (v DeviceValue) Float32() (float32, error) {
	if v.typ != Float32 {
		return 0, v.typeMismatch(Float32)
	}
	return v.f32, nil
}

func (v DeviceValue) Float64() (float64, error) {
	if v.typ != Float64 {
		return 0, v.typeMismatch(Float64)
	}
	return v.f64, nil
}

func (v DeviceValue) AsciiString() (string, error) {
	if v.typ != AsciiString {
		return "", v.typeMismatch(AsciiString)
	}
	return v.str, nil
}

func (v DeviceValue) RawWords() ([]uint16, error) {
	if v.typ != RawWords {
		return nil, v.typeMismatch(RawWords)
	}
	cp := make([]uint16, len(v.words))
	copy(cp, v.words)
	return cp, nil
}

func (v DeviceValue) BitArray() ([]bool, error) {
	if v.typ != BitArray {
		return nil, v.typeMismatch(BitArray)
	}
	cp := make([]bool, len(v.bits))
	copy(cp, v.bits)
	return cp, nil
}

// GoValue widens the value to its natural Go type, for callers that accept
// dynamically-typed results.
func (v DeviceValue) GoValue() interface{} {
	switch v.typ {
	case Int16:
		return v.i16
	case UInt16:
		return v.u16
	case Int32:
		return v.i32
	case UInt32:
		return v.u32
	case Int64:
		return v.i64
	case UInt64:
		return v.u64
	case Float32:
		return v.f32
	case Float64:
		return v.f64
	case AsciiString:
		return v.str
	case RawWords:
		words, _ := v.RawWords()
		return words
	case BitArray:
		bits, _ := v.BitArray()
		return bits
	default:
		return nil
	}
}

// The remainder of this file converts between a DeviceValue and the
// little-endian word sequence it occupies on the wire.

// DecodeValue interprets words (already sliced to exactly
// format.RequiredWords()) as a DeviceValue of the given format.
func DecodeValue(words []uint16, format ValueFormat) (DeviceValue, error) {
	required, err := format.RequiredWords()
	if err != nil {
		return DeviceValue{}, err
	}
	if len(words) < required {
		return DeviceValue{}, newErrorf(InsufficientData, "format %v needs %d words, got %d", format.Type, required, len(words))
	}
	if len(words) > required {
		return DeviceValue{}, newErrorf(TrailingData, "format %v needs %d words, got %d", format.Type, required, len(words))
	}
	switch format.Type {
	case Int16:
		return NewInt16Value(int16(words[0])), nil
	case UInt16:
		return NewUInt16Value(words[0]), nil
	case Int32:
		return NewInt32Value(int32(wordsToUint32(words))), nil
	case UInt32:
		return NewUInt32Value(wordsToUint32(words)), nil
	case Int64:
		return NewInt64Value(int64(wordsToUint64(words))), nil
	case UInt64:
		return NewUInt64Value(wordsToUint64(words)), nil
	case Float32:
		return NewFloat32Value(math.Float32frombits(wordsToUint32(words))), nil
	case Float64:
		return NewFloat64Value(math.Float64frombits(wordsToUint64(words))), nil
	case AsciiString:
		return NewAsciiStringValue(wordsToAscii(words, format.Parameter)), nil
	case RawWords:
		return NewRawWordsValue(words), nil
	case BitArray:
		return NewBitArrayValue(wordsToBits(words, format.Parameter)), nil
	default:
		return DeviceValue{}, newErrorf(InvalidArgument, "unknown value type %v", format.Type)
	}
}

// EncodeValue converts value into the word sequence format.RequiredWords()
// prescribes. value.Type() must equal format.Type.
func EncodeValue(value DeviceValue, format ValueFormat) ([]uint16, error) {
	if value.typ != format.Type {
		return nil, newErrorf(TypeMismatch, "value holds %v, format expects %v", value.typ, format.Type)
	}
	if _, err := format.RequiredWords(); err != nil {
		return nil, err
	}
	switch format.Type {
	case Int16:
		return []uint16{uint16(value.i16)}, nil
	case UInt16:
		return []uint16{value.u16}, nil
	case Int32:
		return uint32ToWords(uint32(value.i32)), nil
	case UInt32:
		return uint32ToWords(value.u32), nil
	case Int64:
		return uint64ToWords(uint64(value.i64)), nil
	case UInt64:
		return uint64ToWords(value.u64), nil
	case Float32:
		return uint32ToWords(math.Float32bits(value.f32)), nil
	case Float64:
		return uint64ToWords(math.Float64bits(value.f64)), nil
	case AsciiString:
		if len(value.str) > format.Parameter {
			return nil, newErrorf(InvalidArgument, "AsciiString value of length %d exceeds format length %d", len(value.str), format.Parameter)
		}
		return asciiToWords(value.str, format.Parameter), nil
	case RawWords:
		if len(value.words) != format.Parameter {
			return nil, newErrorf(InvalidArgument, "RawWords value has %d words, format expects %d", len(value.words), format.Parameter)
		}
		out := make([]uint16, len(value.words))
		copy(out, value.words)
		return out, nil
	case BitArray:
		if len(value.bits) != format.Parameter {
			return nil, newErrorf(InvalidArgument, "BitArray value has %d bits, format expects %d", len(value.bits), format.Parameter)
		}
		return bitsToWords(value.bits), nil
	default:
		return nil, newErrorf(InvalidArgument, "unknown value type %v", format.Type)
	}
}

// wordsToUint32 combines two words, low word first, into a 32-bit value.
func wordsToUint32(words []uint16) uint32 {
	return uint32(words[0]) | uint32(words[1])<<16
}

// wordsToUint64 combines four words, low word first, into a 64-bit value.
func wordsToUint64(words []uint16) uint64 {
	return uint64(words[0]) | uint64(words[1])<<16 | uint64(words[2])<<32 | uint64(words[3])<<48
}

func uint32ToWords(v uint32) []uint16 {
	return []uint16{uint16(v), uint16(v >> 16)}
}

func uint64ToWords(v uint64) []uint16 {
	return []uint16{uint16(v), uint16(v >> 16), uint16(v >> 32), uint16(v >> 48)}
}

// wordsToAscii unpacks two characters per word (low byte first) into a
// string, stopping at the first NUL byte or at length characters,
// whichever comes first.
func wordsToAscii(words []uint16, length int) string {
	var b strings.Builder
	for _, w := range words {
		for _, c := range [2]byte{byte(w), byte(w >> 8)} {
			if c == 0 || b.Len() >= length {
				return b.String()
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

// asciiToWords packs two characters per word (low byte first), right-padding
// s with NUL bytes out to length characters before packing.
func asciiToWords(s string, length int) []uint16 {
	padded := s
	for len(padded) < length {
		padded += "\x00"
	}
	wordCount := (length + 1) / 2
	out := make([]uint16, wordCount)
	for i := 0; i < wordCount; i++ {
		lo := padded[2*i]
		hi := byte(0)
		if 2*i+1 < len(padded) {
			hi = padded[2*i+1]
		}
		out[i] = uint16(lo) | uint16(hi)<<8
	}
	return out
}

// wordsToBits unpacks a BitArray value: two bits per word in the word's low
// byte, the even-indexed bit in 0x10 and the odd-indexed bit in 0x01,
// truncated to count bits.
func wordsToBits(words []uint16, count int) []bool {
	out := make([]bool, 0, count)
	for _, w := range words {
		out = append(out, w&0x0010 != 0)
		if len(out) == count {
			break
		}
		out = append(out, w&0x0001 != 0)
		if len(out) == count {
			break
		}
	}
	return out
}

// bitsToWords packs a bit slice using the inverse of wordsToBits.
func bitsToWords(bits []bool) []uint16 {
	wordCount := (len(bits) + 1) / 2
	out := make([]uint16, wordCount)
	for i := 0; i < wordCount; i++ {
		var w uint16
		if bits[2*i] {
			w |= 0x0010
		}
		if 2*i+1 < len(bits) && bits[2*i+1] {
			w |= 0x0001
		}
		out[i] = w
	}
	return out
}

// ReadItem names one device/format pair within a DeviceReadPlan.
type ReadItem struct {
	Address DeviceAddress
	Format  ValueFormat
}

// DeviceReadPlan is an ordered sequence of device reads to perform as a
// single random-access request, each decoded independently per its own
// ValueFormat.
type DeviceReadPlan []ReadItem

// WriteItem names one device/format/value triple within a DeviceWritePlan.
type WriteItem struct {
	Address DeviceAddress
	Format  ValueFormat
	Value   DeviceValue
}

// DeviceWritePlan is an ordered sequence of device writes to perform as a
// single random-access request.
type DeviceWritePlan []WriteItem
