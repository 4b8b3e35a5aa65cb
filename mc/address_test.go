package mc

import "testing"

func TestNormalizeDeviceName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		series  PlcSeries
		want    DeviceAddress
		wantErr bool
	}{
		{"decimal device", "D100", SeriesQ, DeviceAddress{Prefix: "D", Number: 100, Type: Word}, false},
		{"hex device lowercase input", "x1a", SeriesQ, DeviceAddress{Prefix: "X", Number: 0x1A, Type: Bit}, false},
		{"hex device with 0x marker", "X0x1A", SeriesQ, DeviceAddress{Prefix: "X", Number: 0x1A, Type: Bit}, false},
		{"whitespace trimmed", "  D100  ", SeriesQ, DeviceAddress{Prefix: "D", Number: 100, Type: Word}, false},
		{"unknown prefix", "Q100", SeriesQ, DeviceAddress{}, true},
		{"missing number", "D", SeriesQ, DeviceAddress{}, true},
		{"empty name", "", SeriesQ, DeviceAddress{}, true},
		{"series-restricted prefix rejected", "RD5", SeriesQ, DeviceAddress{}, true},
		{"series-restricted prefix accepted", "RD5", SeriesIQR, DeviceAddress{Prefix: "RD", Number: 5, Type: Word}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeDeviceName(tc.input, tc.want.Type, tc.series)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestDeviceRangeValidate(t *testing.T) {
	if err := (DeviceRange{Head: DeviceAddress{Prefix: "D"}, Length: 0}).Validate(); err == nil {
		t.Error("expected error for zero length")
	}
	if err := (DeviceRange{Head: DeviceAddress{Prefix: "D"}, Length: 1}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRandomDeviceRequestLen(t *testing.T) {
	req := RandomDeviceRequest{
		Word:  []DeviceAddress{{Prefix: "D", Number: 1}},
		Dword: []DeviceAddress{{Prefix: "D", Number: 2}, {Prefix: "D", Number: 4}},
	}
	if got := req.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
}

func TestClassifyValueType(t *testing.T) {
	tests := []struct {
		typ     ValueType
		want    string
		wantErr bool
	}{
		{Int16, "word", false},
		{UInt32, "dword", false},
		{Float64, "lword", false},
		{BitArray, "bit", false},
		{AsciiString, "", true},
	}
	for _, tc := range tests {
		class, err := classifyValueType(tc.typ)
		if tc.wantErr {
			if err == nil {
				t.Errorf("classifyValueType(%v): expected error", tc.typ)
			}
			continue
		}
		if err != nil {
			t.Errorf("classifyValueType(%v): unexpected error: %v", tc.typ, err)
		}
		if class != tc.want {
			t.Errorf("classifyValueType(%v) = %q, want %q", tc.typ, class, tc.want)
		}
	}
}
