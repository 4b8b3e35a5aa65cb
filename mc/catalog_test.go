package mc

import "testing"

func TestResolveBinary(t *testing.T) {
	tests := []struct {
		name       string
		prefix     string
		series     PlcSeries
		wantCode   uint16
		wantCodeW  int
		wantNumW   int
		wantErr    bool
	}{
		{"D on Q", "D", SeriesQ, 0xA8, 1, 3, false},
		{"D on iQ-R", "D", SeriesIQR, 0xA8, 2, 4, false},
		{"X on Q", "X", SeriesQ, 0x9C, 1, 3, false},
		{"ZR all series", "ZR", SeriesL, 0xB0, 1, 3, false},
		{"RD only on iQ-R rejected on Q", "RD", SeriesQ, 0, 0, 0, true},
		{"RD accepted on iQ-R", "RD", SeriesIQR, 0x2C, 2, 4, false},
		{"unknown prefix", "QQ", SeriesQ, 0, 0, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, codeW, _, numW, err := resolveBinary(tc.prefix, tc.series)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if code != tc.wantCode || codeW != tc.wantCodeW || numW != tc.wantNumW {
				t.Errorf("got (code=0x%X, codeW=%d, numW=%d), want (0x%X, %d, %d)", code, codeW, numW, tc.wantCode, tc.wantCodeW, tc.wantNumW)
			}
		})
	}
}

func TestResolveASCII(t *testing.T) {
	codeText, base, numW, err := resolveASCII("D", SeriesQ)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if codeText != "D*" || base != 10 || numW != 6 {
		t.Errorf("got (%q, %d, %d), want (\"D*\", 10, 6)", codeText, base, numW)
	}

	codeText, base, numW, err = resolveASCII("D", SeriesIQR)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if codeText != "D***" || base != 10 || numW != 8 {
		t.Errorf("got (%q, %d, %d), want (\"D***\", 10, 8)", codeText, base, numW)
	}
}

func TestLookupPrefixLongestMatchFirst(t *testing.T) {
	entry, num, err := lookupPrefix("ZR100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.prefix != "ZR" || num != "100" {
		t.Errorf("got prefix=%q num=%q, want ZR/100", entry.prefix, num)
	}

	entry, num, err = lookupPrefix("Z100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.prefix != "Z" || num != "100" {
		t.Errorf("got prefix=%q num=%q, want Z/100", entry.prefix, num)
	}
}
