package kinetics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

func TestRateConstantMonotonic(t *testing.T) {
	a := NewArrhenius(1.0e7, 80000.0)

	prev := a.RateConstant(250)
	for T := 251.0; T <= 800; T++ {
		k := a.RateConstant(T)
		if !(k > prev) {
			t.Fatalf("rate constant not increasing at T=%.0f: %e <= %e", T, k, prev)
		}
		prev = k
	}
}

func TestRateConstantValue(t *testing.T) {
	a := NewArrhenius(1.0e7, 80000.0)

	A, Ea, R, T := 1.0e7, 80000.0, 8.314, 350.0
	expected := A * math.Exp(-Ea/(R*T))
	if got := a.RateConstant(T); math.Abs(got-expected) > 1e-14*expected {
		t.Errorf("expected k(350)=%e, got %e", expected, got)
	}
}

func TestRateConstantZeroActivation(t *testing.T) {
	a := NewArrhenius(3.5, 0)
	for _, T := range []float64{1, 300, 1000} {
		if got := a.RateConstant(T); got != 3.5 {
			t.Errorf("expected k=A for Ea=0 at T=%.0f, got %f", T, got)
		}
	}
}

func TestRateConstantNonPhysicalTemperature(t *testing.T) {
	a := NewArrhenius(1.0e7, 80000.0)

	if k := a.RateConstant(-1); !math.IsInf(k, 1) {
		t.Errorf("expected +Inf for T<0, got %e", k)
	}
	if k := a.RateConstant(0); k != 0 {
		t.Errorf("expected 0 for T=0, got %e", k)
	}
}

func TestFirstOrder(t *testing.T) {
	tests := []struct {
		k, c, want float64
	}{
		{0.5, 2.0, 1.0},
		{0.0, 2.0, 0.0},
		{1.0, -0.5, -0.5},
	}
	for _, tt := range tests {
		if got := FirstOrder(tt.k, tt.c); got != tt.want {
			t.Errorf("FirstOrder(%v, %v) = %v, want %v", tt.k, tt.c, got, tt.want)
		}
	}
}

func TestArrheniusValidate(t *testing.T) {
	tests := []struct {
		name  string
		a     Arrhenius
		valid bool
	}{
		{"default", NewArrhenius(1e7, 8e4), true},
		{"negative A", Arrhenius{A: -1, Ea: 1, R: GasConstant}, false},
		{"negative Ea", Arrhenius{A: 1, Ea: -1, R: GasConstant}, false},
		{"zero R", Arrhenius{A: 1, Ea: 1, R: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.Validate()
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && !errors.Is(err, dynamo.ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}
