package gas

import (
	"math"
	"testing"
)

func floatsEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestNewNormalizes(t *testing.T) {
	tests := []struct {
		name      string
		fractions map[string]float64
		wantErr   bool
	}{
		{name: "air", fractions: map[string]float64{"oxygen": 0.21, "nitrogen": 0.79}},
		{name: "trimix 10/70", fractions: map[string]float64{"oxygen": 0.10, "helium": 0.70, "nitrogen": 0.20}},
		{name: "rounding within 1%", fractions: map[string]float64{"oxygen": 0.21, "nitrogen": 0.788}},
		{name: "unknown gas", fractions: map[string]float64{"argon": 1.0}, wantErr: true},
		{name: "too far from 1", fractions: map[string]float64{"oxygen": 0.5}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.fractions)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("want error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			total := 0.0
			for _, g := range All() {
				total += b.Fraction(g)
			}
			if !floatsEqual(total, 1.0, 1e-9) {
				t.Errorf("fractions sum to %f, want 1", total)
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		b    *Blend
		want string
	}{
		{name: "air", b: Air, want: "air"},
		{name: "literal air fractions", b: MustNew(map[string]float64{"oxygen": 0.21, "nitrogen": 0.79}), want: "air"},
		{name: "pure oxygen", b: MustNew(map[string]float64{"oxygen": 1.0}), want: "Oxygen"},
		{name: "EAN32", b: MustNew(map[string]float64{"oxygen": 0.32, "nitrogen": 0.68}), want: "EAN32"},
		{name: "Tx21/35", b: MustNew(map[string]float64{"oxygen": 0.21, "helium": 0.35, "nitrogen": 0.44}), want: "Tx21/35"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.String(); got != tt.want {
				t.Errorf("want %q; got %q", tt.want, got)
			}
		})
	}
}

func TestMaxOperatingDepthAt(t *testing.T) {
	air := MustNew(map[string]float64{"oxygen": 0.21, "nitrogen": 0.79})
	mod := air.MaxOperatingDepthAt(1.4)
	if !floatsEqual(mod, 56.666666, 1e-3) {
		t.Errorf("want ~56.67 m; got %f", mod)
	}
	if mnd := air.MaxNarcoticDepth(); !floatsEqual(mnd, 30.0, 1e-9) {
		t.Errorf("want 30 m; got %f", mnd)
	}
}

func TestPartialPressure(t *testing.T) {
	trimix1070 := MustNew(map[string]float64{"oxygen": 0.10, "helium": 0.70, "nitrogen": 0.20})
	pp := trimix1070.PartialPressure(Oxygen, 100)
	if !floatsEqual(pp, 1.1, 1e-9) {
		t.Errorf("want 1.1 bar; got %f", pp)
	}
}

func TestEqual(t *testing.T) {
	a := MustNew(map[string]float64{"oxygen": 0.32, "nitrogen": 0.68})
	b := MustNew(map[string]float64{"oxygen": 0.3201, "nitrogen": 0.6799})
	if !a.Equal(b) {
		t.Errorf("blends within 1e-4 should be equal")
	}
	c := MustNew(map[string]float64{"oxygen": 0.36, "nitrogen": 0.64})
	if a.Equal(c) {
		t.Errorf("blends differing by 4%% should not be equal")
	}
}
