package reader

import (
	"errors"
	"testing"
)

func TestDecodeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		stem     string
		material string
		number   int
		wantErr  bool
	}{
		{name: "Underscores", stem: "KIT_CF5050K_03", material: "CF5050K", number: 3},
		{name: "Hyphens", stem: "RISE-CF503K-12", material: "CF503K", number: 12},
		{name: "MixedSeparators", stem: "UOB_CF5050K-1", material: "CF5050K", number: 1},
		{name: "NoSeparators", stem: "README", wantErr: true},
		{name: "TooManyFields", stem: "KIT_CF5050K_03_retest", wantErr: true},
		{name: "NumberNotNumeric", stem: "KIT_CF5050K_three", wantErr: true},
		{name: "Empty", stem: "", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			material, number, err := decodeFilename(tc.stem)
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedName) {
					t.Fatalf("expected ErrMalformedName, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeFilename(%q) returned error: %v", tc.stem, err)
			}
			if material != tc.material || number != tc.number {
				t.Fatalf("decodeFilename(%q) = (%q, %d), want (%q, %d)",
					tc.stem, material, number, tc.material, tc.number)
			}
		})
	}
}
