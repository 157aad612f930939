package control

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

func reactorPI() PI {
	return NewPI(5e7, 2e6, 360).WithOutputLimits(-5e6, 9e7)
}

func TestPIUnsaturated(t *testing.T) {
	pi := reactorPI()

	q, dI := pi.Compute(359.5, 1.0)
	expected := 5e7*0.5 + 2e6*1.0
	if q != expected {
		t.Errorf("expected output %f, got %f", expected, q)
	}
	if dI != 0.5 {
		t.Errorf("expected integral derivative 0.5, got %f", dI)
	}
}

func TestPIAntiWindupHigh(t *testing.T) {
	pi := reactorPI()

	// Kp*err alone is far above OutputMax.
	for _, integral := range []float64{-10, 0, 10, 1000} {
		q, dI := pi.Compute(350, integral)
		if q != 9e7 {
			t.Errorf("I=%v: expected output clamped at 9e7, got %e", integral, q)
		}
		if dI != 0 {
			t.Errorf("I=%v: expected zero integral derivative while saturated, got %v", integral, dI)
		}
	}
}

func TestPIAntiWindupIndependentOfErrorSign(t *testing.T) {
	pi := reactorPI()

	// Large integral keeps the output above OutputMax even with negative error.
	q, dI := pi.Law(-0.5, 100)
	if q != 9e7 {
		t.Errorf("expected output clamped at 9e7, got %e", q)
	}
	if dI != 0 {
		t.Errorf("expected zero integral derivative, got %v", dI)
	}

	// And below OutputMin with positive error.
	q, dI = pi.Law(0.5, -100)
	if q != -5e6 {
		t.Errorf("expected output clamped at -5e6, got %e", q)
	}
	if dI != 0 {
		t.Errorf("expected zero integral derivative, got %v", dI)
	}
}

func TestPIReentersUnsaturatedRange(t *testing.T) {
	pi := reactorPI()

	if _, dI := pi.Law(2.0, 0); dI != 0 {
		t.Fatalf("expected saturated at err=2.0, got dI=%v", dI)
	}
	if _, dI := pi.Law(1.7, 0); dI != 1.7 {
		t.Errorf("expected integration to resume at err=1.7, got dI=%v", dI)
	}
}

func TestPIToleranceAtLimit(t *testing.T) {
	pi := reactorPI()

	// Exactly at the limit: clamp leaves the value unchanged.
	err := 9e7 / 5e7
	q, dI := pi.Law(err, 0)
	if q != 9e7 {
		t.Errorf("expected 9e7, got %e", q)
	}
	if dI != err {
		t.Errorf("expected integration at the limit, got dI=%v", dI)
	}

	// Within the relative tolerance above the limit counts as unclamped.
	q, dI = pi.Law(err*(1+1e-7), 0)
	if q != 9e7 {
		t.Errorf("expected 9e7, got %e", q)
	}
	if dI == 0 {
		t.Error("expected overshoot within tolerance to keep integrating")
	}

	strict := pi.WithTolerance(Tolerance{})
	if _, dI := strict.Law(err*(1+1e-7), 0); dI != 0 {
		t.Errorf("expected zero tolerance to stop integration, got dI=%v", dI)
	}
}

func TestPIUnlimited(t *testing.T) {
	pi := NewPI(2, 1, 0)
	q, dI := pi.Compute(-1e12, 1e12)
	if math.IsInf(q, 0) || dI != 1e12 {
		t.Errorf("expected unlimited law to stay linear, got q=%e dI=%e", q, dI)
	}
}

func TestPISaturated(t *testing.T) {
	pi := reactorPI()
	if !pi.Saturated(10, 0) {
		t.Error("expected saturation at err=10")
	}
	if pi.Saturated(0.1, 0) {
		t.Error("expected no saturation at err=0.1")
	}
	if !pi.Saturated(0, 100) {
		t.Error("expected saturation from the integral term at err=0")
	}
	if q, dI := pi.Law(0, 100); q != 9e7 || dI != 0 {
		t.Errorf("expected clamped q=9e7 and frozen integral, got q=%e dI=%e", q, dI)
	}
}

func TestPIValidate(t *testing.T) {
	if err := reactorPI().Validate(); err != nil {
		t.Errorf("expected valid controller, got %v", err)
	}

	bad := NewPI(1, 1, 0).WithOutputLimits(10, -10)
	if err := bad.Validate(); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}

	neg := NewPI(1, 1, 0).WithTolerance(Tolerance{Rel: -1})
	if err := neg.Validate(); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct{ x, lo, hi, want float64 }{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
	}
	for _, tt := range tests {
		if got := Clamp(tt.x, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.x, tt.lo, tt.hi, got, tt.want)
		}
	}
}
