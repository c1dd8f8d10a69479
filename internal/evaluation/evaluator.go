// Package evaluation classifies raw QC measurements against catalog
// criteria and rolls per-test results into section verdicts. Everything
// here is a pure function over (input, criterion); no hidden state.
package evaluation

import (
	"fmt"
	"math"

	"goqc/adapters/criteria"
	"goqc/domain/core"
	"goqc/domain/qc"
)

// Section identifiers for the QC sections this evaluator produces
// verdicts for.
const (
	SectionDosimetry         core.SectionID = "dosimetry"
	SectionProtocolReview    core.SectionID = "protocol_review"
	SectionBeamCollimation   core.SectionID = "beam_collimation"
	SectionCTNumberAccuracy  core.SectionID = "ct_number_accuracy"
	SectionLowContrast       core.SectionID = "low_contrast_resolution"
	SectionUniformity        core.SectionID = "uniformity"
	SectionArtifacts         core.SectionID = "artifacts"
	SectionSpatialResolution core.SectionID = "spatial_resolution"
)

// Evaluator classifies measurements against the criteria catalog
type Evaluator struct {
	catalog *criteria.Catalog
}

// NewEvaluator creates an evaluator over a catalog
func NewEvaluator(catalog *criteria.Catalog) *Evaluator {
	return &Evaluator{catalog: catalog}
}

// classify applies a criterion's comparison mode to a scalar value and
// returns the resulting status with the signed deviation where one
// applies.
func classify(crit qc.Criterion, value float64) (qc.Status, float64) {
	switch crit.Mode {
	case qc.ModeAbsoluteTolerance:
		dev := value - crit.Expected
		if math.Abs(dev) <= crit.Tolerance {
			return qc.StatusPass, dev
		}
		return qc.StatusMajorFail, dev

	case qc.ModeTwoTierBound:
		dev := value - crit.ReferenceLimit
		switch {
		case value <= crit.ReferenceLimit:
			return qc.StatusPass, dev
		case value <= crit.PassFailLimit:
			return qc.StatusMonitor, dev
		default:
			return qc.StatusMajorFail, dev
		}

	case qc.ModeMinimumThreshold:
		dev := value - crit.Required
		if value >= crit.Required {
			return qc.StatusPass, dev
		}
		return qc.StatusMajorFail, dev

	case qc.ModeRangeBand:
		if value <= crit.Ceiling {
			return qc.StatusPass, value
		}
		return qc.StatusMajorFail, value

	case qc.ModeOrdinalScore:
		switch {
		case value <= crit.ReferenceLimit:
			return qc.StatusPass, value
		case value <= crit.PassFailLimit:
			return qc.StatusMonitor, value
		default:
			return qc.StatusMajorFail, value
		}
	}
	return qc.StatusMajorFail, value
}

// DoseReadings holds one dosimetry acquisition: a center CTDI reading,
// four peripheral readings, and the scan parameters used.
type DoseReadings struct {
	Center      float64 `json:"center"`
	Top         float64 `json:"top"`
	Bottom      float64 `json:"bottom"`
	Left        float64 `json:"left"`
	Right       float64 `json:"right"`
	KVP         float64 `json:"kvp"`
	MA          float64 `json:"ma"`
	RotationSec float64 `json:"rotation_sec"`
	NDetectors  float64 `json:"n_detectors"`
	DetWidthMM  float64 `json:"det_width_mm"`
}

// peripherals returns the four peripheral readings in fixed order
func (d DoseReadings) peripherals() [4]float64 {
	return [4]float64{d.Top, d.Bottom, d.Left, d.Right}
}

// EvaluateDose computes CTDIw from a complete set of readings and
// classifies it against the protocol's two-tier ACR bound. All five
// readings are required.
func (e *Evaluator) EvaluateDose(protocol core.ProtocolID, readings DoseReadings) (qc.Verdict, error) {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"ctdi_center", readings.Center},
		{"ctdi_top", readings.Top},
		{"ctdi_bottom", readings.Bottom},
		{"ctdi_left", readings.Left},
		{"ctdi_right", readings.Right},
	} {
		// JSON absence decodes to 0, so zero means the field was never
		// entered; a negative reading was entered and is impossible.
		if f.value == 0 {
			return qc.Verdict{}, core.NewIncompleteMeasurementError(f.name)
		}
		if f.value < 0 {
			return qc.Verdict{}, core.NewInvalidMeasurementError(f.name, f.value)
		}
	}

	crit, err := e.catalog.Lookup(criteria.TestCTDIw, protocol)
	if err != nil {
		return qc.Verdict{}, err
	}

	ctdiw := qc.CTDIw(readings.Center, readings.peripherals())
	status, dev := classify(crit, ctdiw)

	verdict := qc.Aggregate(SectionDosimetry, protocol, []qc.Result{{
		TestName:  "CTDIw",
		Measured:  ctdiw,
		Expected:  crit.ReferenceLimit,
		Deviation: dev,
		Band:      fmt.Sprintf("ref %.4g / fail %.4g %s", crit.ReferenceLimit, crit.PassFailLimit, crit.Unit),
		Status:    status,
		Unit:      crit.Unit,
	}})
	verdict.Derived = map[string]float64{
		"ctdi_w":         ctdiw,
		"periphery_mean": (readings.Top + readings.Bottom + readings.Left + readings.Right) / 4,
		"mas":            readings.MA * readings.RotationSec,
		"nt_mm":          readings.NDetectors * readings.DetWidthMM,
		"pct_reference":  ctdiw / crit.ReferenceLimit * 100,
		"pct_pass_fail":  ctdiw / crit.PassFailLimit * 100,
	}
	return verdict, nil
}

// ProtocolEntry is one row of site aggregate dose data for protocol review
type ProtocolEntry struct {
	Protocol core.ProtocolID `json:"protocol"`
	CTDI     float64         `json:"ctdi"`
}

// EvaluateProtocolReview classifies each protocol's aggregate CTDI
// against its ACR limits and rolls the rows into one verdict.
func (e *Evaluator) EvaluateProtocolReview(entries []ProtocolEntry) (qc.Verdict, error) {
	if len(entries) == 0 {
		return qc.Verdict{}, core.NewIncompleteMeasurementError("protocol entries")
	}

	results := make([]qc.Result, 0, len(entries))
	for _, entry := range entries {
		crit, err := e.catalog.Lookup(criteria.TestProtocolCTDI, entry.Protocol)
		if err != nil {
			return qc.Verdict{}, err
		}
		status, dev := classify(crit, entry.CTDI)
		results = append(results, qc.Result{
			TestName:  protocolName(entry.Protocol),
			Measured:  entry.CTDI,
			Expected:  crit.ReferenceLimit,
			Deviation: dev,
			Band:      fmt.Sprintf("ref %.4g / fail %.4g %s", crit.ReferenceLimit, crit.PassFailLimit, crit.Unit),
			Status:    status,
			Unit:      crit.Unit,
		})
	}
	return qc.Aggregate(SectionProtocolReview, "", results), nil
}

// Calibration holds the beam collimation calibration exposures
type Calibration struct {
	MaskLengthMM float64 `json:"mask_length_mm"`
	WithoutMask  float64 `json:"without_mask"` // mR
	WithMask     float64 `json:"with_mask"`    // mR
}

// CollimationReading is one tested collimation: the nominal beam width
// and the masked exposure reading for it.
type CollimationReading struct {
	NominalMM float64 `json:"nominal_mm"`
	Measured  float64 `json:"measured"` // mR
}

// EvaluateBeamCollimation derives the calibration slope, converts each
// reading to a beam width, and checks the width error against
// max(30% of nominal, 3 mm). A non-positive slope is a calibration
// error, never a zero width.
func (e *Evaluator) EvaluateBeamCollimation(cal Calibration, readings []CollimationReading) (qc.Verdict, error) {
	if len(readings) == 0 {
		return qc.Verdict{}, core.NewIncompleteMeasurementError("collimation readings")
	}
	if cal.WithoutMask == 0 || cal.WithMask == 0 {
		return qc.Verdict{}, core.NewIncompleteMeasurementError("calibration readings")
	}

	slope, err := qc.CalibrationSlope(cal.WithoutMask, cal.WithMask, cal.MaskLengthMM)
	if err != nil {
		return qc.Verdict{}, err
	}

	crit, err := e.catalog.Lookup(criteria.TestBeamWidth, "")
	if err != nil {
		return qc.Verdict{}, err
	}

	results := make([]qc.Result, 0, len(readings))
	for _, r := range readings {
		width, err := qc.BeamWidth(r.Measured, slope)
		if err != nil {
			return qc.Verdict{}, err
		}
		tolerance := math.Max(crit.Fraction*r.NominalMM, crit.Floor)
		errMM := width - r.NominalMM
		status := qc.StatusPass
		if math.Abs(errMM) > tolerance {
			status = qc.StatusMajorFail
		}
		results = append(results, qc.Result{
			TestName:  fmt.Sprintf("Beam width %.4g mm", r.NominalMM),
			Measured:  width,
			Expected:  r.NominalMM,
			Deviation: errMM,
			Band:      fmt.Sprintf("±%.1f mm", tolerance),
			Status:    status,
			Unit:      "mm",
		})
	}

	verdict := qc.Aggregate(SectionBeamCollimation, "", results)
	verdict.Derived = map[string]float64{"calibration_slope": slope}
	return verdict, nil
}

// EvaluateCTNumbers classifies each material's measured CT number
// against its tolerance band. Water uses the strict ±7 HU band
// regardless of the generic table.
func (e *Evaluator) EvaluateCTNumbers(protocol core.ProtocolID, measured map[string]float64) (qc.Verdict, error) {
	materials := e.catalog.Materials()
	results := make([]qc.Result, 0, len(materials))
	for _, material := range materials {
		value, ok := measured[material]
		if !ok {
			return qc.Verdict{}, core.NewIncompleteMeasurementError(material + " CT number")
		}
		crit, err := e.catalog.LookupMaterial(material)
		if err != nil {
			return qc.Verdict{}, err
		}
		status, dev := classify(crit, value)
		results = append(results, qc.Result{
			TestName:  material,
			Measured:  value,
			Expected:  crit.Expected,
			Deviation: dev,
			Band:      fmt.Sprintf("±%.4g %s", crit.Tolerance, crit.Unit),
			Status:    status,
			Unit:      crit.Unit,
		})
	}
	return qc.Aggregate(SectionCTNumberAccuracy, protocol, results), nil
}

// LowContrastInput holds the low contrast resolution observations:
// whether the minimum 6mm/0.3% object was visible, the count of visible
// objects, and the ROI statistics for CNR.
type LowContrastInput struct {
	MinimumVisible bool    `json:"minimum_visible"`
	VisibleObjects int     `json:"visible_objects"`
	TotalObjects   int     `json:"total_objects"`
	Signal         float64 `json:"signal"`
	Background     float64 `json:"background"`
	NoiseStdDev    float64 `json:"noise_std_dev"`
}

// EvaluateLowContrast checks the minimum object visibility requirement
// and the protocol's CNR threshold. A zero noise standard deviation
// yields CNR 0 and a monitor classification: the input is degenerate,
// not trusted.
func (e *Evaluator) EvaluateLowContrast(protocol core.ProtocolID, in LowContrastInput) (qc.Verdict, error) {
	crit, err := e.catalog.Lookup(criteria.TestCNR, protocol)
	if err != nil {
		return qc.Verdict{}, err
	}

	results := make([]qc.Result, 0, 2)

	minStatus := qc.StatusPass
	minMeasured := 1.0
	if !in.MinimumVisible {
		minStatus = qc.StatusMajorFail
		minMeasured = 0
	}
	results = append(results, qc.Result{
		TestName: "Minimum visibility",
		Measured: minMeasured,
		Expected: 1,
		Band:     "6mm, 0.3% contrast visible",
		Status:   minStatus,
		Note:     fmt.Sprintf("%d/%d objects visible", in.VisibleObjects, in.TotalObjects),
	})

	cnr := qc.CNR(in.Signal, in.Background, in.NoiseStdDev)
	cnrResult := qc.Result{
		TestName: "Contrast-to-noise ratio",
		Measured: cnr,
		Expected: crit.Required,
		Band:     fmt.Sprintf("≥ %.4g", crit.Required),
	}
	if in.NoiseStdDev == 0 {
		cnrResult.Status = qc.StatusMonitor
		cnrResult.Note = "noise standard deviation is zero; CNR undefined"
	} else {
		cnrResult.Status, cnrResult.Deviation = classify(crit, cnr)
	}
	results = append(results, cnrResult)

	verdict := qc.Aggregate(SectionLowContrast, protocol, results)
	verdict.Derived = map[string]float64{"cnr": cnr}
	return verdict, nil
}

// UniformityReadings holds the center and four peripheral ROI means
type UniformityReadings struct {
	Center float64 `json:"center"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// EvaluateUniformity checks the maximum peripheral-to-center CT number
// difference against the fixed 5 HU ceiling. The non-uniformity
// percentage is carried as a derived figure for reporting.
func (e *Evaluator) EvaluateUniformity(protocol core.ProtocolID, r UniformityReadings) (qc.Verdict, error) {
	crit, err := e.catalog.Lookup(criteria.TestUniformity, "")
	if err != nil {
		return qc.Verdict{}, err
	}

	peripherals := []struct {
		name  string
		value float64
	}{
		{"Top", r.Top},
		{"Bottom", r.Bottom},
		{"Left", r.Left},
		{"Right", r.Right},
	}

	results := make([]qc.Result, 0, len(peripherals))
	maxDiff := 0.0
	for _, p := range peripherals {
		diff := math.Abs(p.value - r.Center)
		if diff > maxDiff {
			maxDiff = diff
		}
		status, _ := classify(crit, diff)
		results = append(results, qc.Result{
			TestName:  p.name + " ROI",
			Measured:  p.value,
			Expected:  r.Center,
			Deviation: p.value - r.Center,
			Band:      fmt.Sprintf("≤ %.4g %s from center", crit.Ceiling, crit.Unit),
			Status:    status,
			Unit:      crit.Unit,
		})
	}

	verdict := qc.Aggregate(SectionUniformity, protocol, results)
	verdict.Derived = map[string]float64{
		"max_difference":     maxDiff,
		"non_uniformity_pct": qc.NonUniformityPercent([]float64{r.Center, r.Top, r.Bottom, r.Left, r.Right}),
	}
	return verdict, nil
}

// EvaluateArtifacts sums ordinal severity scores over the fixed artifact
// type list: total 0 passes, up to 3 is monitor, above 3 is a major
// fail.
func (e *Evaluator) EvaluateArtifacts(protocol core.ProtocolID, observed map[string]qc.ArtifactSeverity) (qc.Verdict, error) {
	crit, err := e.catalog.Lookup(criteria.TestArtifactScore, "")
	if err != nil {
		return qc.Verdict{}, err
	}

	types := criteria.ArtifactTypes()
	results := make([]qc.Result, 0, len(types))
	total := 0
	for _, artifactType := range types {
		severity, ok := observed[artifactType]
		if !ok {
			return qc.Verdict{}, core.NewIncompleteMeasurementError(artifactType + " severity")
		}
		if !severity.Valid() {
			return qc.Verdict{}, core.NewIncompleteMeasurementError(artifactType + " severity: unknown class " + string(severity))
		}
		total += severity.Weight()
		results = append(results, qc.Result{
			TestName: artifactType,
			Measured: float64(severity.Weight()),
			Band:     "None=0 Minor=1 Major=2",
			Status:   qc.StatusPass, // individual rows are informational; the score decides
			Note:     string(severity),
		})
	}

	scoreStatus, _ := classify(crit, float64(total))
	results = append(results, qc.Result{
		TestName: "Total artifact score",
		Measured: float64(total),
		Expected: crit.ReferenceLimit,
		Band:     fmt.Sprintf("0 pass, ≤%.0f monitor", crit.PassFailLimit),
		Status:   scoreStatus,
	})

	verdict := qc.Aggregate(SectionArtifacts, protocol, results)
	verdict.Derived = map[string]float64{"artifact_score": float64(total)}
	return verdict, nil
}

// ResolutionInput holds the spatial resolution observations
type ResolutionInput struct {
	Measured float64 `json:"measured"` // lp/cm
	Baseline float64 `json:"baseline"` // lp/cm
}

// EvaluateSpatialResolution checks the protocol's minimum line pair
// requirement and the drift from the recorded baseline. Exceeding the
// baseline band is monitor-worthy, not a hard failure.
func (e *Evaluator) EvaluateSpatialResolution(protocol core.ProtocolID, in ResolutionInput) (qc.Verdict, error) {
	minCrit, err := e.catalog.Lookup(criteria.TestSpatialResolution, protocol)
	if err != nil {
		return qc.Verdict{}, err
	}
	baseCrit, err := e.catalog.Lookup(criteria.TestBaselineDeviation, "")
	if err != nil {
		return qc.Verdict{}, err
	}

	minStatus, minDev := classify(minCrit, in.Measured)
	results := []qc.Result{{
		TestName:  "Minimum resolution",
		Measured:  in.Measured,
		Expected:  minCrit.Required,
		Deviation: minDev,
		Band:      fmt.Sprintf("≥ %.4g %s", minCrit.Required, minCrit.Unit),
		Status:    minStatus,
		Unit:      minCrit.Unit,
	}}

	drift := in.Measured - in.Baseline
	baseStatus := qc.StatusPass
	if math.Abs(drift) > baseCrit.Tolerance {
		baseStatus = qc.StatusMonitor
	}
	results = append(results, qc.Result{
		TestName:  "Baseline comparison",
		Measured:  in.Measured,
		Expected:  in.Baseline,
		Deviation: drift,
		Band:      fmt.Sprintf("±%.4g %s from baseline", baseCrit.Tolerance, baseCrit.Unit),
		Status:    baseStatus,
		Unit:      baseCrit.Unit,
	})

	return qc.Aggregate(SectionSpatialResolution, protocol, results), nil
}

func protocolName(protocol core.ProtocolID) string {
	if name, ok := criteria.ProtocolNames[protocol]; ok {
		return name
	}
	return protocol.String()
}
