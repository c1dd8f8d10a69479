package qc

import (
	"goqc/domain/core"
)

// Derived composite quantities computed before classification. All
// division-by-zero guards are explicit: ratio quantities that are
// defined to be 0 in the zero-denominator limit return 0, while a
// non-positive calibration slope indicates a broken measurement setup
// and fails fast.

// CTDIw computes the weighted CT dose index from a center reading and
// four peripheral readings:
//
//	CTDI_w = (center + 4*mean(peripherals)) / 5
func CTDIw(center float64, peripherals [4]float64) float64 {
	sum := 0.0
	for _, p := range peripherals {
		sum += p
	}
	return (center + 4*(sum/4)) / 5
}

// CalibrationSlope computes the exposure-per-length slope from masked and
// unmasked chamber readings. A slope <= 0 means the rig cannot be
// calibrated and is an error, never a legitimate zero.
func CalibrationSlope(withoutMask, withMask, maskLength float64) (float64, error) {
	if maskLength <= 0 {
		return 0, core.NewCalibrationError("mask length must be positive")
	}
	slope := (withoutMask - withMask) / maskLength
	if slope <= 0 {
		return 0, core.NewCalibrationError("non-positive calibration slope: reading without mask must exceed reading with mask")
	}
	return slope, nil
}

// BeamWidth converts a masked exposure reading to a beam width using the
// calibration slope.
func BeamWidth(measured, slope float64) (float64, error) {
	if slope <= 0 {
		return 0, core.NewCalibrationError("non-positive calibration slope")
	}
	return measured / slope, nil
}

// NonUniformityPercent computes (max-min)/(max+min)*100 over a set of ROI
// means. Defined as 0 when max+min is 0.
func NonUniformityPercent(rois []float64) float64 {
	if len(rois) == 0 {
		return 0
	}
	min, max := rois[0], rois[0]
	for _, v := range rois[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max+min == 0 {
		return 0
	}
	return (max - min) / (max + min) * 100
}

// CNR computes the contrast-to-noise ratio. Defined as 0 when the noise
// standard deviation is 0; callers flag that degenerate case as
// monitor-worthy rather than trusting it.
func CNR(signal, background, noiseStdDev float64) float64 {
	if noiseStdDev == 0 {
		return 0
	}
	return (signal - background) / noiseStdDev
}
