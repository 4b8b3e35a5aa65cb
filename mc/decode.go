package mc

import (
	"fmt"
	"strconv"
	"strings"
)

// This file decodes a response: detects the wire encoding, parses its
// 9-byte (binary) / 18-char (ASCII) header, and splits the remainder into a
// completion code plus device_data or diagnostic_data.

const (
	binarySubheaderLen = 2
	asciiSubheaderLen  = 4
)

// responseHeader is the parsed fixed-width prefix of a 3E response, before
// the completion code.
type responseHeader struct {
	Network       byte
	PC            byte
	ModuleIO      uint16
	ModuleStation byte
	DataLength    int
}

// ResponseFrame is the fully-decoded result of a response frame: the
// completion code and the bytes that follow it, still in the wire
// encoding (raw bytes for Binary, ASCII text bytes for Ascii). DecodeValue
// turns Payload into typed values once the caller knows how many
// words/bits it holds.
type ResponseFrame struct {
	Mode           CommunicationMode
	CompletionCode uint16
	Payload        []byte
}

// DetectMode inspects raw's subheader to determine which encoding produced
// it.
func DetectMode(raw []byte) (CommunicationMode, error) {
	if len(raw) >= binarySubheaderLen && raw[0] == 0xD0 && raw[1] == 0x00 {
		return Binary, nil
	}
	if len(raw) >= asciiSubheaderLen && string(raw[:asciiSubheaderLen]) == "D000" {
		return Ascii, nil
	}
	return 0, newError(InvalidFrame, "unrecognized response subheader")
}

// readRespUint is the decode-side mirror of frameBuilder.appendUint: it
// reads an unsigned field from raw and reports how many bytes it consumed.
func readRespUint(raw []byte, mode CommunicationMode, binWidth, asciiWidth, base int) (uint64, int, error) {
	if mode == Binary {
		if len(raw) < binWidth {
			return 0, 0, newErrorf(InsufficientData, "need %d bytes, have %d", binWidth, len(raw))
		}
		var v uint64
		for i := 0; i < binWidth; i++ {
			v |= uint64(raw[i]) << (8 * uint(i))
		}
		return v, binWidth, nil
	}
	if len(raw) < asciiWidth {
		return 0, 0, newErrorf(InsufficientData, "need %d ASCII characters, have %d", asciiWidth, len(raw))
	}
	s := strings.TrimSpace(string(raw[:asciiWidth]))
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, 0, newErrorf(InvalidFrame, "invalid ASCII field %q: %v", s, err)
	}
	return v, asciiWidth, nil
}

// decodeHeader parses the 9-byte/18-char fixed prefix of raw and returns
// the header together with the number of bytes consumed.
func decodeHeader(raw []byte, mode CommunicationMode) (responseHeader, int, error) {
	pos := binarySubheaderLen
	if mode == Ascii {
		pos = asciiSubheaderLen
	}
	if len(raw) < pos {
		return responseHeader{}, 0, newErrorf(InsufficientData, "response shorter than subheader")
	}
	var h responseHeader
	v, n, err := readRespUint(raw[pos:], mode, 1, 2, 16)
	if err != nil {
		return responseHeader{}, 0, err
	}
	h.Network = byte(v)
	pos += n

	v, n, err = readRespUint(raw[pos:], mode, 1, 2, 16)
	if err != nil {
		return responseHeader{}, 0, err
	}
	h.PC = byte(v)
	pos += n

	v, n, err = readRespUint(raw[pos:], mode, 2, 4, 16)
	if err != nil {
		return responseHeader{}, 0, err
	}
	h.ModuleIO = uint16(v)
	pos += n

	v, n, err = readRespUint(raw[pos:], mode, 1, 2, 16)
	if err != nil {
		return responseHeader{}, 0, err
	}
	h.ModuleStation = byte(v)
	pos += n

	v, n, err = readRespUint(raw[pos:], mode, 2, 4, 16)
	if err != nil {
		return responseHeader{}, 0, err
	}
	h.DataLength = int(v)
	pos += n

	return h, pos, nil
}

// DecodeResponse parses a complete response frame: header, completion
// code, and payload. It returns a *Error of kind ProtocolErrorKind
// (wrapping the diagnostic payload) when the completion code is non-zero,
// alongside the still-valid ResponseFrame.
func DecodeResponse(raw []byte) (ResponseFrame, error) {
	mode, err := DetectMode(raw)
	if err != nil {
		return ResponseFrame{}, err
	}
	h, headerSize, err := decodeHeader(raw, mode)
	if err != nil {
		return ResponseFrame{}, err
	}

	want := headerSize + h.DataLength
	if len(raw) < want {
		return ResponseFrame{}, newErrorf(InsufficientData, "response declares %d bytes after header, have %d", h.DataLength, len(raw)-headerSize)
	}
	if len(raw) > want {
		return ResponseFrame{}, newErrorf(TrailingData, "response declares %d bytes after header, have %d", h.DataLength, len(raw)-headerSize)
	}

	pos := headerSize
	code, n, err := readRespUint(raw[pos:], mode, 2, 4, 16)
	if err != nil {
		return ResponseFrame{}, err
	}
	pos += n

	frame := ResponseFrame{Mode: mode, CompletionCode: uint16(code), Payload: raw[pos:]}
	if code != 0 {
		return frame, newProtocolError(uint16(code), diagnosticText(frame.Payload, mode))
	}
	return frame, nil
}

// diagnosticText renders a non-zero-completion response's trailing bytes
// for the *Error's Diagnostic field: a space-separated hex dump in binary
// mode, the payload text verbatim in ASCII mode.
func diagnosticText(payload []byte, mode CommunicationMode) string {
	if len(payload) == 0 {
		return "no diagnostic data"
	}
	if mode == Ascii {
		return string(payload)
	}
	var b strings.Builder
	for i, by := range payload {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", by)
	}
	return b.String()
}

// PayloadToWords converts a decoded response payload into count 16-bit
// words: 2 little-endian bytes per word in binary mode, 4 uppercase hex
// characters per word in ASCII mode.
func PayloadToWords(payload []byte, mode CommunicationMode, count int) ([]uint16, error) {
	words := make([]uint16, 0, count)
	pos := 0
	for i := 0; i < count; i++ {
		v, n, err := readRespUint(payload[pos:], mode, 2, 4, 16)
		if err != nil {
			return nil, err
		}
		words = append(words, uint16(v))
		pos += n
	}
	if pos < len(payload) {
		return nil, newErrorf(TrailingData, "payload has %d unconsumed bytes after %d words", len(payload)-pos, count)
	}
	return words, nil
}

// PayloadToBits decodes count bit-device values from a batch/random
// read's payload, inverting encodeBitValues for the given series.
func PayloadToBits(payload []byte, mode CommunicationMode, series PlcSeries, count int) ([]bool, error) {
	bits := make([]bool, 0, count)
	if mode == Binary {
		if series == SeriesIQR {
			for i := 0; i < count; i++ {
				v, _, err := readRespUint(payload[2*i:], mode, 2, 0, 0)
				if err != nil {
					return nil, err
				}
				bits = append(bits, v != 0)
			}
			return bits, nil
		}
		for i := 0; i < count; i += 2 {
			if i/2 >= len(payload) {
				return nil, newErrorf(InsufficientData, "bit payload too short for %d bits", count)
			}
			by := payload[i/2]
			bits = append(bits, by&0x10 != 0)
			if i+1 < count {
				bits = append(bits, by&0x01 != 0)
			}
		}
		return bits, nil
	}
	if series == SeriesIQR {
		for i := 0; i < count; i++ {
			if len(payload) < 4*(i+1) {
				return nil, newErrorf(InsufficientData, "bit payload too short for %d bits", count)
			}
			bits = append(bits, string(payload[4*i:4*i+4]) != "0000")
		}
		return bits, nil
	}
	for i := 0; i < count; i++ {
		if len(payload) < i+1 {
			return nil, newErrorf(InsufficientData, "bit payload too short for %d bits", count)
		}
		bits = append(bits, payload[i] != '0')
	}
	return bits, nil
}
