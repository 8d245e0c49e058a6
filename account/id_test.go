package account

import (
	"errors"
	"testing"
)

func TestParseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"real svg", "CR90001234", true},
		{"real maltainvest", "MF1234", true},
		{"real malta", "MLT42", true},
		{"real iom", "MX900", true},
		{"demo", "VRTC7001234", true},
		{"external dx", "DX1001", true},
		{"external dx real", "DXR1001", true},
		{"external mt real", "MTR400100", true},
		{"external mt demo", "MTD400100", true},
		{"empty", "", false},
		{"no digits", "CR", false},
		{"unknown prefix", "ZZ123", false},
		{"trailing junk", "CR123x", false},
		{"lowercase", "cr123", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			id, err := ParseID(tt.input)
			if tt.ok {
				if err != nil {
					t.Fatalf("ParseID(%q) = %v, expected ok", tt.input, err)
				}
				if id.String() != tt.input {
					t.Fatalf("ParseID(%q) id = %q", tt.input, id)
				}
				return
			}
			if err == nil {
				t.Fatalf("ParseID(%q) succeeded, expected error", tt.input)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("ParseID(%q) error type %T", tt.input, err)
			}
		})
	}
}

func TestIsDemoID(t *testing.T) {
	t.Parallel()

	if !IsDemoID("VRTC123") {
		t.Fatal("VRTC id should be demo")
	}
	if IsDemoID("CR123") {
		t.Fatal("CR id should not be demo")
	}
}
