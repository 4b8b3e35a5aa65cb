package mc

import (
	"fmt"
	"strconv"
	"strings"
)

// DeviceAddress is a normalized device name (prefix + numeric part) paired
// with a DeviceType.
type DeviceAddress struct {
	Prefix string
	Number uint32
	Type   DeviceType
}

// String renders the address in its normalized wire-facing form, e.g. "D100".
func (a DeviceAddress) String() string {
	entry, err := resolveDevice(a.Prefix, SeriesIQR)
	if err != nil {
		return fmt.Sprintf("%s%d", a.Prefix, a.Number)
	}
	if entry.base == 16 {
		return fmt.Sprintf("%s%X", a.Prefix, a.Number)
	}
	return fmt.Sprintf("%s%d", a.Prefix, a.Number)
}

// NormalizeDeviceName uppercases name, resolves its prefix against the
// device catalog, and parses the trailing numeric part under that prefix's
// base (decimal, or hex optionally written with a "0x" marker).
func NormalizeDeviceName(name string, dtype DeviceType, series PlcSeries) (DeviceAddress, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(name))
	if trimmed == "" {
		return DeviceAddress{}, newError(InvalidArgument, "device name must not be empty")
	}
	entry, numStr, err := lookupPrefix(trimmed)
	if err != nil {
		return DeviceAddress{}, err
	}
	if !entry.supportsSeries(series) {
		return DeviceAddress{}, newErrorf(UnsupportedDevice, "device prefix %q is not supported on series %v", entry.prefix, series)
	}
	if numStr == "" {
		return DeviceAddress{}, newErrorf(InvalidArgument, "device name %q has no numeric part", name)
	}
	num, err := parseDeviceNumber(numStr, entry.base)
	if err != nil {
		return DeviceAddress{}, newErrorf(InvalidArgument, "device name %q: %v", name, err)
	}
	return DeviceAddress{Prefix: entry.prefix, Number: num, Type: dtype}, nil
}

// parseDeviceNumber parses a device's numeric part under the given base,
// tolerating an optional "0x"/"0X" marker on hex-base devices.
func parseDeviceNumber(s string, base int) (uint32, error) {
	if base == 16 {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric part %q for base %d: %w", s, base, err)
	}
	return uint32(v), nil
}

// DeviceRange is a contiguous span of devices starting at Head.
type DeviceRange struct {
	Head   DeviceAddress
	Length uint32
}

// Validate checks the DeviceRange invariants (length >= 1).
func (r DeviceRange) Validate() error {
	if r.Length < 1 {
		return newError(InvalidArgument, "device range length must be >= 1")
	}
	return nil
}

// RandomDeviceRequest holds the four parallel, order-preserving device
// sequences a random access partitions into.
type RandomDeviceRequest struct {
	Word  []DeviceAddress
	Dword []DeviceAddress
	Lword []DeviceAddress
	Bit   []DeviceAddress
}

// Len returns the total number of devices across all four classes.
func (r RandomDeviceRequest) Len() int {
	return len(r.Word) + len(r.Dword) + len(r.Lword) + len(r.Bit)
}

// classifyValueType maps a ValueType to the random-access width class it
// belongs to.
func classifyValueType(t ValueType) (class string, err error) {
	switch t {
	case Int16, UInt16, RawWords:
		return "word", nil
	case Int32, UInt32, Float32:
		return "dword", nil
	case Int64, UInt64, Float64:
		return "lword", nil
	case BitArray:
		return "bit", nil
	default:
		return "", newErrorf(InvalidArgument, "value type %v has no random-access class", t)
	}
}
