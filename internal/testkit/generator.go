// Package testkit provides synthetic QC data for demonstration and
// tests.
package testkit

import (
	"context"
	"sort"
	"time"

	"goqc/domain/core"
	"goqc/domain/trend"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Tracked trend parameters
const (
	ParamWaterCT    core.ParameterID = "water_ct"
	ParamImageNoise core.ParameterID = "image_noise"
	ParamCTDIHead   core.ParameterID = "ctdi_head"
	ParamCTDIBody   core.ParameterID = "ctdi_body"
	ParamUniformity core.ParameterID = "uniformity"
)

// ParameterNames maps trend parameters to display names
var ParameterNames = map[core.ParameterID]string{
	ParamWaterCT:    "Water CT Number",
	ParamImageNoise: "Image Noise",
	ParamCTDIHead:   "Head CTDI",
	ParamCTDIBody:   "Body CTDI",
	ParamUniformity: "Uniformity",
}

// paramSpec describes the distribution a parameter is sampled from,
// centered on realistic facility baselines.
type paramSpec struct {
	unit    string
	uniform bool
	mu      float64 // mean, or lower bound when uniform
	sigma   float64 // std dev, or upper bound when uniform
}

var paramSpecs = map[core.ParameterID]paramSpec{
	ParamWaterCT:    {unit: "HU", mu: 0, sigma: 2.5},
	ParamImageNoise: {unit: "HU", mu: 3.5, sigma: 0.8},
	ParamCTDIHead:   {unit: "mGy", mu: 62, sigma: 3},
	ParamCTDIBody:   {unit: "mGy", mu: 19, sigma: 2},
	ParamUniformity: {unit: "HU", uniform: true, mu: 1, sigma: 4},
}

// Generator produces weekly synthetic series for each tracked QC
// parameter. It implements ports.TrendSource.
type Generator struct {
	seed   uint64
	start  time.Time
	weeks  int
	series map[core.ParameterID]trend.Series
}

// NewGenerator creates a generator seeded for reproducible series. A
// zero seed picks the current time.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := &Generator{
		seed:  uint64(seed),
		start: time.Now().AddDate(-1, 0, 0),
		weeks: 52,
	}
	g.generate()
	return g
}

func (g *Generator) generate() {
	g.series = make(map[core.ParameterID]trend.Series, len(paramSpecs))

	for param, spec := range paramSpecs {
		src := rand.NewSource(g.seed + uint64(len(param)))
		var sample func() float64
		if spec.uniform {
			dist := distuv.Uniform{Min: spec.mu, Max: spec.sigma, Src: src}
			sample = dist.Rand
		} else {
			dist := distuv.Normal{Mu: spec.mu, Sigma: spec.sigma, Src: src}
			sample = dist.Rand
		}

		s := trend.Series{Parameter: param, Unit: spec.unit}
		for week := 0; week < g.weeks; week++ {
			s.Append(g.start.AddDate(0, 0, 7*week), sample())
		}
		g.series[param] = s
	}
}

// Series returns the synthetic series for one parameter
func (g *Generator) Series(_ context.Context, parameter core.ParameterID) (trend.Series, error) {
	s, ok := g.series[parameter]
	if !ok {
		return trend.Series{}, core.ErrUnknownParameter
	}
	return s, nil
}

// Parameters returns the tracked parameter IDs in stable order
func (g *Generator) Parameters(_ context.Context) ([]core.ParameterID, error) {
	params := make([]core.ParameterID, 0, len(g.series))
	for p := range g.series {
		params = append(params, p)
	}
	sort.Slice(params, func(i, j int) bool { return params[i] < params[j] })
	return params, nil
}

// AllSeries returns every synthetic series
func (g *Generator) AllSeries() []trend.Series {
	all := make([]trend.Series, 0, len(g.series))
	for _, s := range g.series {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Parameter < all[j].Parameter })
	return all
}
