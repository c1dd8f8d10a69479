// Package criteria encodes the published acceptance criteria for CT
// quality control as static reference data. Criteria are keyed by
// (test, protocol) so evaluation logic stays uniform across protocols
// and new protocols are data additions, not code paths.
package criteria

import (
	"goqc/domain/core"
	"goqc/domain/qc"
)

// Test identifiers understood by the catalog
const (
	TestCTDIw             core.TestID = "ctdi_w"
	TestProtocolCTDI      core.TestID = "protocol_ctdi"
	TestBeamWidth         core.TestID = "beam_width"
	TestCTNumber          core.TestID = "ct_number" // suffixed with "/<material>"
	TestCNR               core.TestID = "cnr"
	TestUniformity        core.TestID = "uniformity"
	TestSpatialResolution core.TestID = "spatial_resolution"
	TestBaselineDeviation core.TestID = "baseline_deviation"
	TestArtifactScore     core.TestID = "artifact_score"
)

// Clinical protocol identifiers
const (
	ProtocolAdultAbdomen core.ProtocolID = "adult_abdomen"
	ProtocolAdultHead    core.ProtocolID = "adult_head"
	ProtocolPedAbdomen   core.ProtocolID = "ped_abdomen"
	ProtocolPedHead      core.ProtocolID = "ped_head"
	ProtocolHiResChest   core.ProtocolID = "hires_chest"
)

// ProtocolNames maps protocol IDs to their display names
var ProtocolNames = map[core.ProtocolID]string{
	ProtocolAdultAbdomen: "Adult Abdomen",
	ProtocolAdultHead:    "Adult Head",
	ProtocolPedAbdomen:   "Ped Abd (45lb)",
	ProtocolPedHead:      "Ped Head (1y)",
	ProtocolHiResChest:   "High Resolution Chest",
}

// DoseLimit holds the ACR two-tier dose bound for one protocol
type DoseLimit struct {
	Reference float64 // mGy, pass at or below
	PassFail  float64 // mGy, monitor at or below, major fail above
	Phantom   string  // CTDI phantom diameter
}

// doseLimits are the ACR CTDIw limits per clinical protocol
var doseLimits = map[core.ProtocolID]DoseLimit{
	ProtocolAdultAbdomen: {Reference: 25, PassFail: 30, Phantom: "32cm"},
	ProtocolAdultHead:    {Reference: 75, PassFail: 80, Phantom: "16cm"},
	ProtocolPedAbdomen:   {Reference: 7.5, PassFail: 10, Phantom: "32cm"},
	ProtocolPedHead:      {Reference: 35, PassFail: 40, Phantom: "16cm"},
}

// materialRef holds the expected CT number and generic tolerance for a
// phantom insert material
type materialRef struct {
	Expected  float64
	Tolerance float64
}

// materialRefs is the generic per-material tolerance table (ACR Module 1)
var materialRefs = map[string]materialRef{
	"Air":     {Expected: -1000, Tolerance: 100},
	"Acrylic": {Expected: 120, Tolerance: 40},
	"Water":   {Expected: 0, Tolerance: 100},
	"Bone":    {Expected: 850, Tolerance: 100},
}

// waterTolerance is the distinguished strict water tolerance. It wins
// over any looser value a generic tolerance table lists for water.
const waterTolerance = 7.0

// cnrMinima are the required contrast-to-noise ratios per protocol
var cnrMinima = map[core.ProtocolID]float64{
	ProtocolAdultAbdomen: 1.0,
	ProtocolAdultHead:    1.0,
	ProtocolPedAbdomen:   0.4,
	ProtocolPedHead:      0.7,
}

// resolutionMinima are the required spatial resolutions in lp/cm
var resolutionMinima = map[core.ProtocolID]float64{
	ProtocolAdultAbdomen: 6.0,
	ProtocolAdultHead:    6.0,
	ProtocolPedAbdomen:   6.0,
	ProtocolPedHead:      6.0,
	ProtocolHiResChest:   8.0,
}

const (
	uniformityCeilingHU    = 5.0 // max |peripheral - center|, protocol-independent
	beamWidthFraction      = 0.30
	beamWidthFloorMM       = 3.0
	baselineDeviationLPCM  = 1.0 // spatial resolution drift from baseline
	artifactMonitorCeiling = 3.0 // summed severity score: 0 pass, <=3 monitor
)

// Catalog resolves (test, protocol) pairs to criteria. It is process-wide,
// read-only and initialized once at startup.
type Catalog struct {
	entries map[catalogKey]qc.Criterion
}

type catalogKey struct {
	test     core.TestID
	protocol core.ProtocolID
}

// NewCatalog builds the catalog from the static reference tables
func NewCatalog() *Catalog {
	c := &Catalog{entries: make(map[catalogKey]qc.Criterion)}

	for proto, limit := range doseLimits {
		crit := qc.Criterion{
			TestID:         TestCTDIw,
			Protocol:       proto,
			Mode:           qc.ModeTwoTierBound,
			ReferenceLimit: limit.Reference,
			PassFailLimit:  limit.PassFail,
			Unit:           "mGy",
		}
		c.put(TestCTDIw, proto, crit)
		// Protocol aggregate review uses the same bounds
		crit.TestID = TestProtocolCTDI
		c.put(TestProtocolCTDI, proto, crit)
	}

	for material, ref := range materialRefs {
		tol := ref.Tolerance
		if material == "Water" && waterTolerance < tol {
			tol = waterTolerance
		}
		c.put(materialTestID(material), "", qc.Criterion{
			TestID:    materialTestID(material),
			Mode:      qc.ModeAbsoluteTolerance,
			Expected:  ref.Expected,
			Tolerance: tol,
			Unit:      "HU",
		})
	}

	for proto, min := range cnrMinima {
		c.put(TestCNR, proto, qc.Criterion{
			TestID:   TestCNR,
			Protocol: proto,
			Mode:     qc.ModeMinimumThreshold,
			Required: min,
		})
	}

	for proto, min := range resolutionMinima {
		c.put(TestSpatialResolution, proto, qc.Criterion{
			TestID:   TestSpatialResolution,
			Protocol: proto,
			Mode:     qc.ModeMinimumThreshold,
			Required: min,
			Unit:     "lp/cm",
		})
	}

	c.put(TestUniformity, "", qc.Criterion{
		TestID:  TestUniformity,
		Mode:    qc.ModeRangeBand,
		Ceiling: uniformityCeilingHU,
		Unit:    "HU",
	})

	c.put(TestBeamWidth, "", qc.Criterion{
		TestID:   TestBeamWidth,
		Mode:     qc.ModeUpperBoundWithFloor,
		Fraction: beamWidthFraction,
		Floor:    beamWidthFloorMM,
		Unit:     "mm",
	})

	c.put(TestBaselineDeviation, "", qc.Criterion{
		TestID:    TestBaselineDeviation,
		Mode:      qc.ModeAbsoluteTolerance,
		Tolerance: baselineDeviationLPCM,
		Unit:      "lp/cm",
	})

	c.put(TestArtifactScore, "", qc.Criterion{
		TestID:         TestArtifactScore,
		Mode:           qc.ModeOrdinalScore,
		ReferenceLimit: 0,
		PassFailLimit:  artifactMonitorCeiling,
	})

	return c
}

func (c *Catalog) put(test core.TestID, protocol core.ProtocolID, crit qc.Criterion) {
	c.entries[catalogKey{test: test, protocol: protocol}] = crit
}

// Lookup resolves a criterion for (test, protocol). Protocol-specific
// entries win; protocol-independent entries match any protocol.
func (c *Catalog) Lookup(test core.TestID, protocol core.ProtocolID) (qc.Criterion, error) {
	if crit, ok := c.entries[catalogKey{test: test, protocol: protocol}]; ok {
		return crit, nil
	}
	if crit, ok := c.entries[catalogKey{test: test}]; ok {
		return crit, nil
	}
	return qc.Criterion{}, core.NewUnknownCriterionError(test.String(), protocol.String())
}

// LookupMaterial resolves the CT number criterion for a phantom insert
// material.
func (c *Catalog) LookupMaterial(material string) (qc.Criterion, error) {
	return c.Lookup(materialTestID(material), "")
}

// Materials returns the phantom insert materials with catalog entries
func (c *Catalog) Materials() []string {
	return []string{"Air", "Acrylic", "Water", "Bone"}
}

// DoseLimitFor returns the two-tier dose bound for a protocol
func (c *Catalog) DoseLimitFor(protocol core.ProtocolID) (DoseLimit, error) {
	limit, ok := doseLimits[protocol]
	if !ok {
		return DoseLimit{}, core.NewUnknownCriterionError(TestCTDIw.String(), protocol.String())
	}
	return limit, nil
}

// ArtifactTypes returns the fixed list of scored artifact types, in
// report order.
func ArtifactTypes() []string {
	return []string{"Streaks/Lines", "Ring Artifacts", "Cupping", "Motion Artifacts", "Noise Variation"}
}

func materialTestID(material string) core.TestID {
	return TestCTNumber + core.TestID("/"+material)
}
