package benchmark

import (
	"errors"
	"testing"
)

func TestParseInstitution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Institution
		wantErr error
	}{
		{name: "Lowercase", input: "kit", want: KIT},
		{name: "Uppercase", input: "RISE", want: RISE},
		{name: "Whitespace", input: "  tum ", want: TUM},
		{name: "Unknown", input: "mit", wantErr: ErrUnknownInstitution},
		{name: "Empty", input: "", wantErr: ErrUnknownInstitution},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseInstitution(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}
			if tc.wantErr != nil {
				return
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestSpecificationFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		inst   Institution
		number int
		want   string
		ok     bool
	}{
		{name: "KitDefaultTable", inst: KIT, number: 3, want: Spec3mm100, ok: true},
		{name: "EcnUsesDefaultTable", inst: ECN, number: 1, want: Spec7mm100, ok: true},
		{name: "IvwUsesDefaultTable", inst: IVW, number: 24, want: Spec3mm50, ok: true},
		{name: "JkuSwapsThinSlots", inst: JKU, number: 4, want: Spec3mm100, ok: true},
		{name: "JkuShortShots", inst: JKU, number: 1, want: Spec7mm50, ok: true},
		{name: "UobShortShotOnly", inst: UOB, number: 2, want: Spec5mm50, ok: true},
		{name: "UobHasNoHundredSquare", inst: UOB, number: 4, ok: false},
		{name: "RiseCircularExcluded", inst: RISE, number: 4, ok: false},
		{name: "TumExtraSample", inst: TUM, number: 20, want: Spec3mm100, ok: true},
		{name: "TumMissingSample", inst: TUM, number: 0, ok: false},
		{name: "OutOfSchedule", inst: KIT, number: 99, ok: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, ok := SpecificationFor(tc.inst, tc.number)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if tc.ok && got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestFootprint(t *testing.T) {
	t.Parallel()

	if got := Footprint(Spec3mm100); got != "100x100" {
		t.Fatalf("expected 100x100, got %q", got)
	}
	if got := Footprint(Spec5mm50); got != "50x50" {
		t.Fatalf("expected 50x50, got %q", got)
	}
}

func TestMinGap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec string
		want float64
	}{
		{Spec7mm100, 7.0},
		{Spec5mm50, 5.0},
		{Spec3mm100, 3.0},
		{"10mm 100x100", 2.5},
	}
	for _, tc := range tests {
		if got := MinGap(tc.spec, 2.5); got != tc.want {
			t.Fatalf("MinGap(%q) = %v, want %v", tc.spec, got, tc.want)
		}
	}
}

func TestIsChannel(t *testing.T) {
	t.Parallel()

	for _, name := range []string{Time, Temperature, Gap, Force, Displacement, Velocity} {
		if !IsChannel(name) {
			t.Fatalf("expected %q to be a canonical channel", name)
		}
	}
	if IsChannel("L1") {
		t.Fatalf("expected L1 to be auxiliary")
	}
}
