package mc

import "strings"

// catalogEntry is one row of the static device code map.
type catalogEntry struct {
	prefix     string
	binaryCode uint16
	base       int // 10 or 16
	allSeries  bool
	onlyIQR    bool
}

// deviceCatalog lists every supported device prefix. Multi-letter prefixes
// come first so longest-prefix match tries them before their single-letter
// collisions ("ZR" before "Z", "RD" before "R").
var deviceCatalog = []catalogEntry{
	{prefix: "ZR", binaryCode: 0xB0, base: 16, allSeries: true},
	{prefix: "RD", binaryCode: 0x2C, base: 10, onlyIQR: true},
	{prefix: "X", binaryCode: 0x9C, base: 16, allSeries: true},
	{prefix: "Y", binaryCode: 0x9D, base: 16, allSeries: true},
	{prefix: "M", binaryCode: 0x90, base: 10, allSeries: true},
	{prefix: "L", binaryCode: 0x92, base: 10, allSeries: true},
	{prefix: "F", binaryCode: 0x93, base: 10, allSeries: true},
	{prefix: "B", binaryCode: 0xA0, base: 16, allSeries: true},
	{prefix: "T", binaryCode: 0xC2, base: 10, allSeries: true},
	{prefix: "C", binaryCode: 0xC5, base: 10, allSeries: true},
	{prefix: "D", binaryCode: 0xA8, base: 10, allSeries: true},
	{prefix: "W", binaryCode: 0xB4, base: 16, allSeries: true},
	{prefix: "R", binaryCode: 0xAF, base: 10, allSeries: true},
	{prefix: "Z", binaryCode: 0xCC, base: 10, allSeries: true},
}

// supportsSeries reports whether this catalog entry may be used on series s.
func (e catalogEntry) supportsSeries(s PlcSeries) bool {
	if e.allSeries {
		return true
	}
	if e.onlyIQR {
		return s == SeriesIQR
	}
	return false
}

// lookupPrefix finds the catalog entry for name by longest-prefix match and
// returns the entry together with the remaining (number) substring.
func lookupPrefix(name string) (catalogEntry, string, error) {
	upper := strings.ToUpper(name)
	for _, e := range deviceCatalog {
		if strings.HasPrefix(upper, e.prefix) {
			return e, upper[len(e.prefix):], nil
		}
	}
	return catalogEntry{}, "", newErrorf(UnsupportedDevice, "unknown device prefix in %q", name)
}

// resolvedDevice is the decoded form of a catalog lookup, carrying the
// fields both the binary and ASCII encoders need.
type resolvedDevice struct {
	prefix     string
	binaryCode uint16
	base       int
}

// resolveDevice looks up prefix for series and fails with UnsupportedDevice
// when the prefix is unknown or not supported on that series.
func resolveDevice(prefix string, series PlcSeries) (resolvedDevice, error) {
	upper := strings.ToUpper(prefix)
	for _, e := range deviceCatalog {
		if e.prefix == upper {
			if !e.supportsSeries(series) {
				return resolvedDevice{}, newErrorf(UnsupportedDevice, "device prefix %q is not supported on series %v", prefix, series)
			}
			return resolvedDevice{prefix: e.prefix, binaryCode: e.binaryCode, base: e.base}, nil
		}
	}
	return resolvedDevice{}, newErrorf(UnsupportedDevice, "unknown device prefix %q", prefix)
}

// binaryCodeWidth returns the byte width of a device code field.
func binaryCodeWidth(series PlcSeries) int {
	if series == SeriesIQR {
		return 2
	}
	return 1
}

// binaryNumberWidth returns the byte width of a device number field.
func binaryNumberWidth(series PlcSeries) int {
	if series == SeriesIQR {
		return 4
	}
	return 3
}

// asciiCodeWidth returns the character width of a device code field.
func asciiCodeWidth(series PlcSeries) int {
	if series == SeriesIQR {
		return 4
	}
	return 2
}

// asciiNumberWidth returns the character width of a device number field.
func asciiNumberWidth(series PlcSeries) int {
	if series == SeriesIQR {
		return 8
	}
	return 6
}

// resolveBinary returns the fields needed to binary-encode a device field:
// code, code width, numeric base, and number width.
func resolveBinary(prefix string, series PlcSeries) (code uint16, codeWidth int, base int, numberWidth int, err error) {
	rd, err := resolveDevice(prefix, series)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return rd.binaryCode, binaryCodeWidth(series), rd.base, binaryNumberWidth(series), nil
}

// resolveASCII returns the fields needed to ASCII-encode a device field: the
// code text right-padded with '*' to field width, numeric base, and number
// width.
func resolveASCII(prefix string, series PlcSeries) (codeText string, base int, numberWidth int, err error) {
	rd, err := resolveDevice(prefix, series)
	if err != nil {
		return "", 0, 0, err
	}
	width := asciiCodeWidth(series)
	text := rd.prefix
	for len(text) < width {
		text += "*"
	}
	return text, rd.base, asciiNumberWidth(series), nil
}
