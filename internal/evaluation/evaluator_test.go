package evaluation

import (
	"strings"
	"testing"

	"goqc/adapters/criteria"
	"goqc/domain/core"
	"goqc/domain/qc"
)

func newTestEvaluator() *Evaluator {
	return NewEvaluator(criteria.NewCatalog())
}

// uniformDose builds readings where every position reads the same
// value, so CTDIw equals that value.
func uniformDose(value float64) DoseReadings {
	return DoseReadings{
		Center: value, Top: value, Bottom: value, Left: value, Right: value,
		KVP: 120, MA: 300, RotationSec: 0.7, NDetectors: 16, DetWidthMM: 1.25,
	}
}

func TestEvaluateDose_TwoTierBoundaries(t *testing.T) {
	e := newTestEvaluator()

	// Adult abdomen: reference 25, pass/fail 30. Both limits inclusive.
	cases := []struct {
		ctdiw float64
		want  qc.Status
	}{
		{24, qc.StatusPass},
		{25, qc.StatusPass},
		{27, qc.StatusMonitor},
		{30, qc.StatusMonitor},
		{31, qc.StatusMajorFail},
	}
	for _, tc := range cases {
		verdict, err := e.EvaluateDose(criteria.ProtocolAdultAbdomen, uniformDose(tc.ctdiw))
		if err != nil {
			t.Fatalf("EvaluateDose(%v) failed: %v", tc.ctdiw, err)
		}
		if verdict.Overall != tc.want {
			t.Errorf("CTDIw %v: overall = %s, want %s", tc.ctdiw, verdict.Overall, tc.want)
		}
		if verdict.Derived["ctdi_w"] != tc.ctdiw {
			t.Errorf("CTDIw %v: derived ctdi_w = %v", tc.ctdiw, verdict.Derived["ctdi_w"])
		}
	}
}

func TestEvaluateDose_IncompleteReadings(t *testing.T) {
	e := newTestEvaluator()
	readings := uniformDose(20)
	readings.Left = 0

	_, err := e.EvaluateDose(criteria.ProtocolAdultAbdomen, readings)
	if !core.IsIncompleteMeasurement(err) {
		t.Errorf("expected incomplete measurement error, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing ctdi_left") {
		t.Errorf("error should name the absent field, got %q", err)
	}
}

func TestEvaluateDose_NegativeReading(t *testing.T) {
	e := newTestEvaluator()
	readings := uniformDose(20)
	readings.Top = -3

	_, err := e.EvaluateDose(criteria.ProtocolAdultAbdomen, readings)
	if !core.IsIncompleteMeasurement(err) {
		t.Errorf("expected incomplete measurement error, got %v", err)
	}
	// A negative reading was entered, not omitted; the message must say so
	if !strings.Contains(err.Error(), "ctdi_top must be positive") {
		t.Errorf("error should flag the impossible value, got %q", err)
	}
}

func TestEvaluateDose_UnknownProtocol(t *testing.T) {
	e := newTestEvaluator()
	_, err := e.EvaluateDose("bogus_protocol", uniformDose(20))
	if !core.IsUnknownCriterion(err) {
		t.Errorf("expected unknown criterion error, got %v", err)
	}
}

func TestEvaluateProtocolReview(t *testing.T) {
	e := newTestEvaluator()
	verdict, err := e.EvaluateProtocolReview([]ProtocolEntry{
		{Protocol: criteria.ProtocolAdultAbdomen, CTDI: 18.6}, // pass
		{Protocol: criteria.ProtocolAdultHead, CTDI: 78},      // monitor: between 75 and 80
		{Protocol: criteria.ProtocolPedAbdomen, CTDI: 4.42},   // pass
	})
	if err != nil {
		t.Fatalf("EvaluateProtocolReview failed: %v", err)
	}
	if verdict.Overall != qc.StatusMonitor {
		t.Errorf("overall = %s, want monitor", verdict.Overall)
	}
	if len(verdict.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(verdict.Results))
	}
	if verdict.Results[1].Status != qc.StatusMonitor {
		t.Errorf("adult head status = %s, want monitor", verdict.Results[1].Status)
	}
}

func TestEvaluateBeamCollimation(t *testing.T) {
	e := newTestEvaluator()
	// Slope = (60-10)/5 = 10 mR/mm, so a reading of 79 mR is a 7.9 mm
	// width. Nominal 5 mm has tolerance max(1.5, 3.0) = 3.0 mm.
	cal := Calibration{MaskLengthMM: 5, WithoutMask: 60, WithMask: 10}

	verdict, err := e.EvaluateBeamCollimation(cal, []CollimationReading{
		{NominalMM: 5, Measured: 79}, // width 7.9, error 2.9 -> pass
	})
	if err != nil {
		t.Fatalf("EvaluateBeamCollimation failed: %v", err)
	}
	if verdict.Overall != qc.StatusPass {
		t.Errorf("error 2.9 mm: overall = %s, want pass", verdict.Overall)
	}

	verdict, err = e.EvaluateBeamCollimation(cal, []CollimationReading{
		{NominalMM: 5, Measured: 81}, // width 8.1, error 3.1 -> fail
	})
	if err != nil {
		t.Fatalf("EvaluateBeamCollimation failed: %v", err)
	}
	if verdict.Overall != qc.StatusMajorFail {
		t.Errorf("error 3.1 mm: overall = %s, want major fail", verdict.Overall)
	}
	if verdict.Derived["calibration_slope"] != 10 {
		t.Errorf("calibration_slope = %v, want 10", verdict.Derived["calibration_slope"])
	}
}

func TestEvaluateBeamCollimation_BrokenCalibration(t *testing.T) {
	e := newTestEvaluator()
	// With-mask reading above without-mask: broken setup, never width 0
	cal := Calibration{MaskLengthMM: 5, WithoutMask: 10, WithMask: 60}
	_, err := e.EvaluateBeamCollimation(cal, []CollimationReading{{NominalMM: 5, Measured: 79}})
	if !core.IsCalibrationError(err) {
		t.Errorf("expected calibration error, got %v", err)
	}
}

func TestEvaluateCTNumbers_WaterStrictTolerance(t *testing.T) {
	e := newTestEvaluator()
	base := map[string]float64{"Air": -1000, "Acrylic": 120, "Water": 0, "Bone": 850}

	// Water at +6 HU is inside the strict ±7 band
	base["Water"] = 6
	verdict, err := e.EvaluateCTNumbers(criteria.ProtocolAdultAbdomen, base)
	if err != nil {
		t.Fatalf("EvaluateCTNumbers failed: %v", err)
	}
	if verdict.Overall != qc.StatusPass {
		t.Errorf("water +6 HU: overall = %s, want pass", verdict.Overall)
	}

	// Water at +8 HU fails even though the generic material table would
	// allow far more
	base["Water"] = 8
	verdict, err = e.EvaluateCTNumbers(criteria.ProtocolAdultAbdomen, base)
	if err != nil {
		t.Fatalf("EvaluateCTNumbers failed: %v", err)
	}
	if verdict.Overall != qc.StatusMajorFail {
		t.Errorf("water +8 HU: overall = %s, want major fail", verdict.Overall)
	}
}

func TestEvaluateCTNumbers_ToleranceBand(t *testing.T) {
	e := newTestEvaluator()
	measured := map[string]float64{"Air": -1000, "Acrylic": 160, "Water": 0, "Bone": 850}

	// Acrylic expected 120 ± 40: +40 is inclusive pass
	verdict, err := e.EvaluateCTNumbers(criteria.ProtocolAdultHead, measured)
	if err != nil {
		t.Fatalf("EvaluateCTNumbers failed: %v", err)
	}
	if verdict.Overall != qc.StatusPass {
		t.Errorf("acrylic +40 HU: overall = %s, want pass", verdict.Overall)
	}

	measured["Acrylic"] = 161
	verdict, err = e.EvaluateCTNumbers(criteria.ProtocolAdultHead, measured)
	if err != nil {
		t.Fatalf("EvaluateCTNumbers failed: %v", err)
	}
	if verdict.Overall != qc.StatusMajorFail {
		t.Errorf("acrylic +41 HU: overall = %s, want major fail", verdict.Overall)
	}
}

func TestEvaluateCTNumbers_MissingMaterial(t *testing.T) {
	e := newTestEvaluator()
	_, err := e.EvaluateCTNumbers(criteria.ProtocolAdultHead, map[string]float64{"Water": 0})
	if !core.IsIncompleteMeasurement(err) {
		t.Errorf("expected incomplete measurement error, got %v", err)
	}
}

func TestEvaluateUniformity(t *testing.T) {
	e := newTestEvaluator()

	// Max |peripheral - center| = 4 HU -> pass
	verdict, err := e.EvaluateUniformity(criteria.ProtocolAdultAbdomen, UniformityReadings{
		Center: 0, Top: 3, Bottom: -3, Left: 4, Right: -4,
	})
	if err != nil {
		t.Fatalf("EvaluateUniformity failed: %v", err)
	}
	if verdict.Overall != qc.StatusPass {
		t.Errorf("max diff 4 HU: overall = %s, want pass", verdict.Overall)
	}
	if verdict.Derived["max_difference"] != 4 {
		t.Errorf("max_difference = %v, want 4", verdict.Derived["max_difference"])
	}

	// One peripheral 6 HU off center -> fail
	verdict, err = e.EvaluateUniformity(criteria.ProtocolAdultAbdomen, UniformityReadings{
		Center: 0, Top: 6, Bottom: 0, Left: 0, Right: 0,
	})
	if err != nil {
		t.Fatalf("EvaluateUniformity failed: %v", err)
	}
	if verdict.Overall != qc.StatusMajorFail {
		t.Errorf("max diff 6 HU: overall = %s, want major fail", verdict.Overall)
	}
}

func allArtifacts(severity qc.ArtifactSeverity) map[string]qc.ArtifactSeverity {
	observed := make(map[string]qc.ArtifactSeverity)
	for _, at := range criteria.ArtifactTypes() {
		observed[at] = severity
	}
	return observed
}

func TestEvaluateArtifacts_ScoreBands(t *testing.T) {
	e := newTestEvaluator()

	// Total 0 -> pass
	verdict, err := e.EvaluateArtifacts(criteria.ProtocolAdultHead, allArtifacts(qc.SeverityNone))
	if err != nil {
		t.Fatalf("EvaluateArtifacts failed: %v", err)
	}
	if verdict.Overall != qc.StatusPass {
		t.Errorf("score 0: overall = %s, want pass", verdict.Overall)
	}

	// Two minors = 2 -> monitor
	observed := allArtifacts(qc.SeverityNone)
	observed["Streaks/Lines"] = qc.SeverityMinor
	observed["Cupping"] = qc.SeverityMinor
	verdict, err = e.EvaluateArtifacts(criteria.ProtocolAdultHead, observed)
	if err != nil {
		t.Fatalf("EvaluateArtifacts failed: %v", err)
	}
	if verdict.Overall != qc.StatusMonitor {
		t.Errorf("score 2: overall = %s, want monitor", verdict.Overall)
	}
	if verdict.Derived["artifact_score"] != 2 {
		t.Errorf("artifact_score = %v, want 2", verdict.Derived["artifact_score"])
	}

	// Two majors = 4 -> major fail
	observed = allArtifacts(qc.SeverityNone)
	observed["Ring Artifacts"] = qc.SeverityMajor
	observed["Motion Artifacts"] = qc.SeverityMajor
	verdict, err = e.EvaluateArtifacts(criteria.ProtocolAdultHead, observed)
	if err != nil {
		t.Fatalf("EvaluateArtifacts failed: %v", err)
	}
	if verdict.Overall != qc.StatusMajorFail {
		t.Errorf("score 4: overall = %s, want major fail", verdict.Overall)
	}
}

func TestEvaluateArtifacts_MissingType(t *testing.T) {
	e := newTestEvaluator()
	observed := allArtifacts(qc.SeverityNone)
	delete(observed, "Cupping")
	_, err := e.EvaluateArtifacts(criteria.ProtocolAdultHead, observed)
	if !core.IsIncompleteMeasurement(err) {
		t.Errorf("expected incomplete measurement error, got %v", err)
	}
}

func TestEvaluateSpatialResolution(t *testing.T) {
	e := newTestEvaluator()

	// Meets 6 lp/cm minimum, no baseline drift
	verdict, err := e.EvaluateSpatialResolution(criteria.ProtocolAdultAbdomen, ResolutionInput{Measured: 7, Baseline: 7})
	if err != nil {
		t.Fatalf("EvaluateSpatialResolution failed: %v", err)
	}
	if verdict.Overall != qc.StatusPass {
		t.Errorf("7 lp/cm on 7 baseline: overall = %s, want pass", verdict.Overall)
	}

	// Meets minimum but drifted 1.5 lp/cm from baseline: monitor, never
	// a hard failure on its own
	verdict, err = e.EvaluateSpatialResolution(criteria.ProtocolAdultAbdomen, ResolutionInput{Measured: 6.5, Baseline: 8})
	if err != nil {
		t.Fatalf("EvaluateSpatialResolution failed: %v", err)
	}
	if verdict.Overall != qc.StatusMonitor {
		t.Errorf("baseline drift 1.5: overall = %s, want monitor", verdict.Overall)
	}

	// Below minimum -> major fail
	verdict, err = e.EvaluateSpatialResolution(criteria.ProtocolAdultAbdomen, ResolutionInput{Measured: 5, Baseline: 5})
	if err != nil {
		t.Fatalf("EvaluateSpatialResolution failed: %v", err)
	}
	if verdict.Overall != qc.StatusMajorFail {
		t.Errorf("5 lp/cm: overall = %s, want major fail", verdict.Overall)
	}

	// High resolution chest needs 8 lp/cm
	verdict, err = e.EvaluateSpatialResolution(criteria.ProtocolHiResChest, ResolutionInput{Measured: 7, Baseline: 7})
	if err != nil {
		t.Fatalf("EvaluateSpatialResolution failed: %v", err)
	}
	if verdict.Overall != qc.StatusMajorFail {
		t.Errorf("7 lp/cm on hires chest: overall = %s, want major fail", verdict.Overall)
	}
}

func TestEvaluateLowContrast(t *testing.T) {
	e := newTestEvaluator()

	// CNR (95-89)/6 = 1.0 meets the adult abdomen minimum of 1.0
	verdict, err := e.EvaluateLowContrast(criteria.ProtocolAdultAbdomen, LowContrastInput{
		MinimumVisible: true, VisibleObjects: 9, TotalObjects: 12,
		Signal: 95, Background: 89, NoiseStdDev: 6,
	})
	if err != nil {
		t.Fatalf("EvaluateLowContrast failed: %v", err)
	}
	if verdict.Overall != qc.StatusPass {
		t.Errorf("CNR 1.0: overall = %s, want pass", verdict.Overall)
	}

	// Ped abdomen minimum is 0.4, so the same readings still pass there
	verdict, err = e.EvaluateLowContrast(criteria.ProtocolPedAbdomen, LowContrastInput{
		MinimumVisible: true, Signal: 92, Background: 89, NoiseStdDev: 6,
	})
	if err != nil {
		t.Fatalf("EvaluateLowContrast failed: %v", err)
	}
	if verdict.Overall != qc.StatusPass {
		t.Errorf("CNR 0.5 on ped abd: overall = %s, want pass", verdict.Overall)
	}

	// Minimum object not visible -> major fail regardless of CNR
	verdict, err = e.EvaluateLowContrast(criteria.ProtocolAdultAbdomen, LowContrastInput{
		MinimumVisible: false, Signal: 95, Background: 89, NoiseStdDev: 6,
	})
	if err != nil {
		t.Fatalf("EvaluateLowContrast failed: %v", err)
	}
	if verdict.Overall != qc.StatusMajorFail {
		t.Errorf("minimum not visible: overall = %s, want major fail", verdict.Overall)
	}
}

func TestEvaluateLowContrast_DegenerateNoise(t *testing.T) {
	e := newTestEvaluator()
	// Zero noise SD: CNR defined as 0 and flagged monitor, not trusted
	verdict, err := e.EvaluateLowContrast(criteria.ProtocolAdultAbdomen, LowContrastInput{
		MinimumVisible: true, Signal: 95, Background: 89, NoiseStdDev: 0,
	})
	if err != nil {
		t.Fatalf("EvaluateLowContrast failed: %v", err)
	}
	if verdict.Overall != qc.StatusMonitor {
		t.Errorf("zero noise: overall = %s, want monitor", verdict.Overall)
	}
	if verdict.Derived["cnr"] != 0 {
		t.Errorf("cnr = %v, want 0", verdict.Derived["cnr"])
	}
}
