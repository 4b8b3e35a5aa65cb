package mc

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// Client ties the device catalog, frame encoder, frame decoder, and value
// codec to a Transport, enforcing one in-flight operation at a time via mu.

// Transport is the contract a connection-layer collaborator must satisfy.
// mctransport.Transport implements this without either package importing
// the other; Client only depends on the interface.
type Transport interface {
	Connect(host string, port int, dialTimeout time.Duration) error
	Disconnect() error
	IsConnected() bool
	SendAll(request []byte, writeTimeout time.Duration) error
	ReceiveFrame(headerSize int, readTimeout time.Duration, extractor func(prefix []byte) (int, error)) ([]byte, error)
}

// Logger is the contract an ambient debug logger must satisfy.
// mclog.Logger implements this structurally.
type Logger interface {
	Log(subsystem string, format string, args ...interface{})
}

// ClientOption configures a Client at construction time.
type ClientOption func(*Client)

// WithLogger attaches an ambient debug logger to the Client.
func WithLogger(l Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// Client is a single-session MC protocol client: one SessionConfig, one
// Transport, one AccessOption in effect at a time.
type Client struct {
	mu        sync.Mutex
	base      SessionConfig
	access    AccessOption
	transport Transport
	logger    Logger
	connected bool
}

// NewClient validates cfg and wires transport in, applying any options.
func NewClient(cfg SessionConfig, transport Transport, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, newError(InvalidArgument, "transport must not be nil")
	}
	c := &Client{base: cfg, access: defaultAccessOption(cfg), transport: transport}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) log(subsystem, format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Log(subsystem, format, args...)
	}
}

// Connect dials the configured host/port.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dialTimeout := time.Duration(c.access.TimeoutSeconds) * time.Second
	if err := c.transport.Connect(c.base.Host, c.base.Port, dialTimeout); err != nil {
		return wrapError(TransportError, "connect failed", err)
	}
	c.connected = true
	c.log("client", "connected to %s:%d", c.base.Host, c.base.Port)
	return nil
}

// Close disconnects the transport. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return c.transport.Disconnect()
}

// IsConnected reports the client's own connected flag together with the
// transport's.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected && c.transport.IsConnected()
}

// SetAccessOption replaces the AccessOption in effect for subsequent
// operations.
func (c *Client) SetAccessOption(opt AccessOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access = opt
}

func (c *Client) requireConnected() error {
	if !c.connected || !c.transport.IsConnected() {
		return newError(NotConnected, "client is not connected")
	}
	return nil
}

// classifyTransportError distinguishes a deadline timeout from any other
// transport failure, for the RESET timeout-swallow and for ErrorKind
// reporting generally.
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return wrapError(TransportTimeout, "transport timeout", err)
	}
	return wrapError(TransportError, "transport error", err)
}

func responseHeaderSize(mode CommunicationMode) int {
	if mode == Ascii {
		return asciiHeaderPrefixSize
	}
	return binaryHeaderPrefixSize
}

// send transmits request and returns the decoded response frame. Callers
// must hold c.mu. A non-zero completion code surfaces as a *Error of kind
// ProtocolErrorKind; the ResponseFrame returned alongside it is still
// valid for callers that want the payload anyway.
func (c *Client) send(eff SessionConfig, request []byte) (ResponseFrame, error) {
	if err := c.requireConnected(); err != nil {
		return ResponseFrame{}, err
	}
	timeout := time.Duration(c.access.TimeoutSeconds) * time.Second

	c.log("frame", "-> % X", request)
	if err := c.transport.SendAll(request, timeout); err != nil {
		c.connected = false
		return ResponseFrame{}, classifyTransportError(err)
	}

	headerSize := responseHeaderSize(eff.Mode)
	raw, err := c.transport.ReceiveFrame(headerSize, timeout, func(prefix []byte) (int, error) {
		h, _, herr := decodeHeader(prefix, eff.Mode)
		if herr != nil {
			return 0, herr
		}
		return h.DataLength, nil
	})
	if err != nil {
		c.connected = false
		return ResponseFrame{}, classifyTransportError(err)
	}
	c.log("frame", "<- % X", raw)

	frame, derr := DecodeResponse(raw)
	return frame, derr
}

// ReadBatch performs a batch read over rng and decodes the result as
// format. For bit ranges, format is ignored and a BitArray value is
// always returned.
func (c *Client) ReadBatch(rng DeviceRange, format ValueFormat) (DeviceValue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	eff := effectiveConfig(c.base, c.access)

	request, err := EncodeBatchRead(eff, rng)
	if err != nil {
		return DeviceValue{}, err
	}
	frame, err := c.send(eff, request)
	if err != nil {
		return DeviceValue{}, err
	}
	if rng.Head.Type == Bit {
		bits, err := PayloadToBits(frame.Payload, eff.Mode, eff.Series, int(rng.Length))
		if err != nil {
			return DeviceValue{}, err
		}
		return NewBitArrayValue(bits), nil
	}
	words, err := PayloadToWords(frame.Payload, eff.Mode, int(rng.Length))
	if err != nil {
		return DeviceValue{}, err
	}
	return DecodeValue(words, format)
}

// WriteBatchWords performs a batch write of word/dword values over rng.
func (c *Client) WriteBatchWords(rng DeviceRange, values []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	eff := effectiveConfig(c.base, c.access)

	request, err := EncodeBatchWriteWords(eff, rng, values)
	if err != nil {
		return err
	}
	_, err = c.send(eff, request)
	return err
}

// WriteBatchBits performs a batch write of bit values over rng.
func (c *Client) WriteBatchBits(rng DeviceRange, values []bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	eff := effectiveConfig(c.base, c.access)

	request, err := EncodeBatchWriteBits(eff, rng, values)
	if err != nil {
		return err
	}
	_, err = c.send(eff, request)
	return err
}

// ReadValue is a single-device convenience over ReadBatch: it derives the
// device range's length from format.RequiredWords().
func (c *Client) ReadValue(addr DeviceAddress, format ValueFormat) (DeviceValue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	eff := effectiveConfig(c.base, c.access)

	required, err := format.RequiredWords()
	if err != nil {
		return DeviceValue{}, err
	}
	rng := DeviceRange{Head: addr, Length: uint32(required)}
	request, err := EncodeBatchRead(eff, rng)
	if err != nil {
		return DeviceValue{}, err
	}
	frame, err := c.send(eff, request)
	if err != nil {
		return DeviceValue{}, err
	}
	words, err := PayloadToWords(frame.Payload, eff.Mode, required)
	if err != nil {
		return DeviceValue{}, err
	}
	return DecodeValue(words, format)
}

// WriteValue is a single-device convenience over WriteBatchWords.
func (c *Client) WriteValue(addr DeviceAddress, format ValueFormat, value DeviceValue) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	eff := effectiveConfig(c.base, c.access)

	words, err := EncodeValue(value, format)
	if err != nil {
		return err
	}
	rng := DeviceRange{Head: addr, Length: uint32(len(words))}
	request, err := EncodeBatchWriteWords(eff, rng, words)
	if err != nil {
		return err
	}
	_, err = c.send(eff, request)
	return err
}

// randomSlot tracks which plan index a partitioned random-access device
// belongs to, so results can be remapped back to plan order after the
// class-grouped wire response is decoded.
type randomSlot struct {
	class     string
	planIndex int
}

func buildRandomRead(plan DeviceReadPlan) (RandomDeviceRequest, []randomSlot, error) {
	var req RandomDeviceRequest
	slots := make([]randomSlot, len(plan))
	for i, item := range plan {
		class, err := classifyValueType(item.Format.Type)
		if err != nil {
			return RandomDeviceRequest{}, nil, err
		}
		required, err := item.Format.RequiredWords()
		if err != nil {
			return RandomDeviceRequest{}, nil, err
		}
		switch class {
		case "word":
			if required != 1 {
				return RandomDeviceRequest{}, nil, newErrorf(InvalidArgument, "random read: word-class format %v needs %d words, want 1", item.Format.Type, required)
			}
			req.Word = append(req.Word, item.Address)
		case "dword":
			if required != 2 {
				return RandomDeviceRequest{}, nil, newErrorf(InvalidArgument, "random read: dword-class format %v needs %d words, want 2", item.Format.Type, required)
			}
			req.Dword = append(req.Dword, item.Address)
		case "lword":
			if required != 4 {
				return RandomDeviceRequest{}, nil, newErrorf(InvalidArgument, "random read: lword-class format %v needs %d words, want 4", item.Format.Type, required)
			}
			req.Lword = append(req.Lword, item.Address)
		case "bit":
			if item.Format.Parameter != 1 {
				return RandomDeviceRequest{}, nil, newErrorf(InvalidArgument, "random read: bit-class format needs parameter 1, got %d", item.Format.Parameter)
			}
			req.Bit = append(req.Bit, item.Address)
		}
		slots[i] = randomSlot{class: class, planIndex: i}
	}
	return req, slots, nil
}

// wordCursor reads sequential fixed-width fields out of a response
// payload, tracking how many bytes/characters have been consumed.
type wordCursor struct {
	payload []byte
	mode    CommunicationMode
	pos     int
}

func (wc *wordCursor) readWords(n int) ([]uint16, error) {
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		v, consumed, err := readRespUint(wc.payload[wc.pos:], wc.mode, 2, 4, 16)
		if err != nil {
			return nil, err
		}
		out[i] = uint16(v)
		wc.pos += consumed
	}
	return out, nil
}

func (wc *wordCursor) readBit() (bool, error) {
	if wc.mode == Binary {
		v, consumed, err := readRespUint(wc.payload[wc.pos:], wc.mode, 2, 0, 0)
		if err != nil {
			return false, err
		}
		wc.pos += consumed
		return v != 0, nil
	}
	if len(wc.payload) < wc.pos+4 {
		return false, newErrorf(InsufficientData, "bit value truncated")
	}
	s := string(wc.payload[wc.pos : wc.pos+4])
	wc.pos += 4
	return s != "0000", nil
}

var randomClassOrder = []string{"word", "dword", "lword"}
var randomClassWidth = map[string]int{"word": 1, "dword": 2, "lword": 4}

func decodeRandomRead(payload []byte, mode CommunicationMode, plan DeviceReadPlan, slots []randomSlot) ([]DeviceValue, error) {
	wc := &wordCursor{payload: payload, mode: mode}
	results := make([]DeviceValue, len(plan))

	for _, class := range randomClassOrder {
		for _, slot := range slots {
			if slot.class != class {
				continue
			}
			words, err := wc.readWords(randomClassWidth[class])
			if err != nil {
				return nil, err
			}
			dv, err := DecodeValue(words, plan[slot.planIndex].Format)
			if err != nil {
				return nil, err
			}
			results[slot.planIndex] = dv
		}
	}
	for _, slot := range slots {
		if slot.class != "bit" {
			continue
		}
		bit, err := wc.readBit()
		if err != nil {
			return nil, err
		}
		results[slot.planIndex] = NewBitArrayValue([]bool{bit})
	}
	if wc.pos != len(payload) {
		return nil, newErrorf(TrailingData, "random read payload has %d unconsumed bytes", len(payload)-wc.pos)
	}
	return results, nil
}

// ReadRandom performs a random-access read over an ordered plan of
// scalar/bit devices, returning one DeviceValue per plan item in plan
// order.
func (c *Client) ReadRandom(plan DeviceReadPlan) ([]DeviceValue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	eff := effectiveConfig(c.base, c.access)

	req, slots, err := buildRandomRead(plan)
	if err != nil {
		return nil, err
	}
	request, err := EncodeRandomRead(eff, req)
	if err != nil {
		return nil, err
	}
	frame, err := c.send(eff, request)
	if err != nil {
		return nil, err
	}
	return decodeRandomRead(frame.Payload, eff.Mode, plan, slots)
}

func buildRandomWrite(plan DeviceWritePlan) (RandomDeviceRequest, RandomDeviceValues, error) {
	var req RandomDeviceRequest
	var vals RandomDeviceValues
	for _, item := range plan {
		class, err := classifyValueType(item.Format.Type)
		if err != nil {
			return req, vals, err
		}
		words, err := EncodeValue(item.Value, item.Format)
		if err != nil {
			return req, vals, err
		}
		switch class {
		case "word":
			if len(words) != 1 {
				return req, vals, newErrorf(InvalidArgument, "random write: word-class format %v needs 1 word, got %d", item.Format.Type, len(words))
			}
			req.Word = append(req.Word, item.Address)
			vals.Word = append(vals.Word, words[0])
		case "dword":
			if len(words) != 2 {
				return req, vals, newErrorf(InvalidArgument, "random write: dword-class format %v needs 2 words, got %d", item.Format.Type, len(words))
			}
			req.Dword = append(req.Dword, item.Address)
			vals.Dword = append(vals.Dword, wordsToUint32(words))
		case "lword":
			if len(words) != 4 {
				return req, vals, newErrorf(InvalidArgument, "random write: lword-class format %v needs 4 words, got %d", item.Format.Type, len(words))
			}
			req.Lword = append(req.Lword, item.Address)
			vals.Lword = append(vals.Lword, wordsToUint64(words))
		case "bit":
			bits, err := item.Value.BitArray()
			if err != nil {
				return req, vals, err
			}
			if len(bits) != 1 {
				return req, vals, newErrorf(InvalidArgument, "random write: bit-class value needs exactly 1 bit, got %d", len(bits))
			}
			req.Bit = append(req.Bit, item.Address)
			vals.Bit = append(vals.Bit, bits[0])
		}
	}
	return req, vals, nil
}

// WriteRandom performs a random-access write over an ordered plan of
// scalar/bit devices.
func (c *Client) WriteRandom(plan DeviceWritePlan) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	eff := effectiveConfig(c.base, c.access)

	req, vals, err := buildRandomWrite(plan)
	if err != nil {
		return err
	}
	request, err := EncodeRandomWrite(eff, req, vals)
	if err != nil {
		return err
	}
	_, err = c.send(eff, request)
	return err
}

// ReadCPUType queries the PLC's CPU model name and type code.
func (c *Client) ReadCPUType() (CPUType, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	eff := effectiveConfig(c.base, c.access)

	request, err := EncodeSimpleCommand(eff, opCPUType.cmd, opCPUType.subcommand(eff.Series), nil)
	if err != nil {
		return CPUType{}, err
	}
	frame, err := c.send(eff, request)
	if err != nil {
		return CPUType{}, err
	}
	return parseCPUType(frame.Payload, eff.Mode)
}

// parseCPUType splits a CPU-identification payload into a right-trimmed
// name and an uppercase 4-hex-digit code, per original_source's behavior.
func parseCPUType(payload []byte, mode CommunicationMode) (CPUType, error) {
	const nameLen = 16
	if mode == Binary {
		if len(payload) < nameLen+2 {
			return CPUType{}, newErrorf(InsufficientData, "cpu-type payload needs %d bytes, got %d", nameLen+2, len(payload))
		}
		name := strings.TrimRight(string(payload[:nameLen]), " ")
		code := uint16(payload[nameLen]) | uint16(payload[nameLen+1])<<8
		return CPUType{Name: name, Code: fmt.Sprintf("%04X", code)}, nil
	}
	if len(payload) < nameLen+4 {
		return CPUType{}, newErrorf(InsufficientData, "cpu-type payload needs %d characters, got %d", nameLen+4, len(payload))
	}
	name := strings.TrimRight(string(payload[:nameLen]), " ")
	code := strings.ToUpper(string(payload[nameLen : nameLen+4]))
	return CPUType{Name: name, Code: code}, nil
}

func clearModeCode(m ClearMode) uint64 {
	switch m {
	case ClearExceptLatch:
		return 1
	case ClearAll:
		return 2
	default:
		return 0
	}
}

// validatePasswordLength enforces the per-series password length rule:
// exactly 4 characters on non-iQ-R series, 6..32 characters on iQ-R.
func validatePasswordLength(series PlcSeries, password string) error {
	n := len(password)
	if series == SeriesIQR {
		if n < 6 || n > 32 {
			return newErrorf(InvalidArgument, "password length %d not in [6,32] for series %v", n, series)
		}
		return nil
	}
	if n != 4 {
		return newErrorf(InvalidArgument, "password length %d must be exactly 4 for series %v", n, series)
	}
	return nil
}

// encodePassword builds the length-prefixed password payload shared by
// LOCK and UNLOCK. The length prefix is a full word, not a single byte.
func encodePassword(mode CommunicationMode, password string) []byte {
	return buildSimplePayload(mode, func(b *frameBuilder) {
		b.appendUint(uint64(len(password)), 2, 4, 16)
		b.appendText(password)
	})
}

// runModeWord computes the mode word shared by RUN and PAUSE: 0x0003 when
// force-executing, 0x0001 otherwise.
func runModeWord(opt RuntimeRunOption) uint64 {
	if opt.ForceExec {
		return 3
	}
	return 1
}

// buildRunPayload builds the RUN payload: the mode word, a clear-mode byte,
// and a trailing zero byte.
func buildRunPayload(mode CommunicationMode, opt RuntimeRunOption) []byte {
	return buildSimplePayload(mode, func(b *frameBuilder) {
		b.appendUint(runModeWord(opt), 2, 4, 16)
		b.appendUint(clearModeCode(opt.ClearMode), 1, 2, 16)
		b.appendUint(0, 1, 2, 16)
	})
}

// buildPausePayload builds the PAUSE payload: just the mode word, with no
// clear-mode or trailing zero byte.
func buildPausePayload(mode CommunicationMode, opt RuntimeRunOption) []byte {
	return buildSimplePayload(mode, func(b *frameBuilder) {
		b.appendUint(runModeWord(opt), 2, 4, 16)
	})
}

// buildWordPayload builds a single-word payload, used by STOP, LATCH-CLEAR,
// and RESET, which all carry a fixed 0x0001 word.
func buildWordPayload(mode CommunicationMode, word uint64) []byte {
	return buildSimplePayload(mode, func(b *frameBuilder) {
		b.appendUint(word, 2, 4, 16)
	})
}

// ApplyRuntimeControl issues a CPU lifecycle command. RESET tolerates a
// transport timeout as success, since the PLC resets before it can reply;
// LOCK/UNLOCK and every other command treat a timeout as a real error.
func (c *Client) ApplyRuntimeControl(rc RuntimeControl) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	eff := effectiveConfig(c.base, c.access)

	var op opCode
	var payload []byte

	switch rc.Command {
	case Run:
		op = opRun
		opt := RuntimeRunOption{}
		if rc.RunOption != nil {
			opt = *rc.RunOption
		}
		payload = buildRunPayload(eff.Mode, opt)
	case Stop:
		op = opStop
		payload = buildWordPayload(eff.Mode, 1)
	case Pause:
		op = opPause
		opt := RuntimeRunOption{}
		if rc.RunOption != nil {
			opt = *rc.RunOption
		}
		payload = buildPausePayload(eff.Mode, opt)
	case LatchClear:
		op = opLatchClear
		payload = buildWordPayload(eff.Mode, 1)
	case Reset:
		op = opReset
		payload = buildWordPayload(eff.Mode, 1)
	case Unlock:
		op = opUnlock
		if rc.LockOption == nil {
			return newError(InvalidArgument, "UNLOCK requires a password")
		}
		if err := validatePasswordLength(eff.Series, rc.LockOption.Password); err != nil {
			return err
		}
		payload = encodePassword(eff.Mode, rc.LockOption.Password)
	case Lock:
		op = opLock
		if rc.LockOption == nil {
			return newError(InvalidArgument, "LOCK requires a password")
		}
		if err := validatePasswordLength(eff.Series, rc.LockOption.Password); err != nil {
			return err
		}
		payload = encodePassword(eff.Mode, rc.LockOption.Password)
	default:
		return newErrorf(InvalidArgument, "unknown runtime command %v", rc.Command)
	}

	request, err := EncodeSimpleCommand(eff, op.cmd, op.subcommand(eff.Series), payload)
	if err != nil {
		return err
	}

	_, err = c.send(eff, request)
	if err != nil {
		if rc.Command == Reset && IsKind(err, TransportTimeout) {
			c.log("client", "RESET: swallowing transport timeout, PLC resets before replying")
			return nil
		}
		return err
	}
	return nil
}
