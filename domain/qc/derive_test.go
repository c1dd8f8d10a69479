package qc

import (
	"math"
	"testing"

	"goqc/domain/core"
)

func TestCTDIw_EqualReadings(t *testing.T) {
	got := CTDIw(18, [4]float64{18, 18, 18, 18})
	if got != 18.0 {
		t.Errorf("CTDIw(18, [18x4]) = %v, want 18.0", got)
	}
}

func TestCTDIw_Monotonic(t *testing.T) {
	base := CTDIw(10, [4]float64{10, 10, 10, 10})
	// Raising any single reading must raise the result
	if got := CTDIw(11, [4]float64{10, 10, 10, 10}); got <= base {
		t.Errorf("raising center did not raise CTDIw: %v <= %v", got, base)
	}
	for i := 0; i < 4; i++ {
		p := [4]float64{10, 10, 10, 10}
		p[i] = 11
		if got := CTDIw(10, p); got <= base {
			t.Errorf("raising peripheral %d did not raise CTDIw: %v <= %v", i, got, base)
		}
	}
}

func TestCalibrationSlope(t *testing.T) {
	slope, err := CalibrationSlope(60, 10, 5)
	if err != nil {
		t.Fatalf("CalibrationSlope failed: %v", err)
	}
	if slope != 10 {
		t.Errorf("slope = %v, want 10", slope)
	}
}

func TestCalibrationSlope_NonPositive(t *testing.T) {
	// Reading with mask at or above the unmasked reading means the rig
	// cannot be calibrated.
	if _, err := CalibrationSlope(10, 10, 5); !core.IsCalibrationError(err) {
		t.Errorf("expected calibration error for zero slope, got %v", err)
	}
	if _, err := CalibrationSlope(10, 60, 5); !core.IsCalibrationError(err) {
		t.Errorf("expected calibration error for negative slope, got %v", err)
	}
	if _, err := CalibrationSlope(60, 10, 0); !core.IsCalibrationError(err) {
		t.Errorf("expected calibration error for zero mask length, got %v", err)
	}
}

func TestNonUniformityPercent(t *testing.T) {
	got := NonUniformityPercent([]float64{10, 20})
	want := (20.0 - 10.0) / (20.0 + 10.0) * 100
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("NonUniformityPercent = %v, want %v", got, want)
	}
}

func TestNonUniformityPercent_ZeroDenominator(t *testing.T) {
	// max + min = 0 is defined as 0, never a division error
	if got := NonUniformityPercent([]float64{-5, 5}); got != 0 {
		t.Errorf("NonUniformityPercent([-5,5]) = %v, want 0", got)
	}
	if got := NonUniformityPercent(nil); got != 0 {
		t.Errorf("NonUniformityPercent(nil) = %v, want 0", got)
	}
}

func TestCNR(t *testing.T) {
	if got := CNR(95, 89, 6); got != 1.0 {
		t.Errorf("CNR(95,89,6) = %v, want 1.0", got)
	}
	// Zero noise is a defined degenerate case, not a panic
	if got := CNR(95, 89, 0); got != 0 {
		t.Errorf("CNR with zero noise = %v, want 0", got)
	}
}
