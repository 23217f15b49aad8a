package errors

import (
	"math"
	"strings"
	"testing"
)

func TestValidateOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple file", "newton.png", false},
		{"nested", "out/renders/newton.tiff", false},
		{"absolute", "/tmp/newton.bmp", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 501), true},
		{"null byte", "foo\x00.png", true},
		{"control char", "foo\x01.png", true},
		{"directory", "out/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidateOutputPath(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}

func TestValidateRowRange(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		n        int
		wantErr  bool
	}{
		{"full", 0, 8, 8, false},
		{"empty", 3, 3, 8, false},
		{"sub range", 2, 5, 8, false},
		{"negative from", -1, 4, 8, true},
		{"past end", 0, 9, 8, true},
		{"inverted", 5, 2, 8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRowRange(tt.from, tt.to, tt.n)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRowRange(%d, %d, %d) error = %v, wantErr %v", tt.from, tt.to, tt.n, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFinite(t *testing.T) {
	if err := ValidateFinite("size", 2); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateFinite("size", math.NaN()); err == nil {
		t.Error("NaN should be rejected")
	}
	if err := ValidateFinite("size", math.Inf(-1)); err == nil {
		t.Error("-Inf should be rejected")
	}
}

func TestValidatePositive(t *testing.T) {
	if err := ValidatePositive("n", 1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, v := range []int{0, -3} {
		if err := ValidatePositive("n", v); err == nil {
			t.Errorf("ValidatePositive(%d) should fail", v)
		}
	}
}
