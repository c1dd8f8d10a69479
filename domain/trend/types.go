package trend

import (
	"time"

	"goqc/domain/core"
)

// Point is one dated scalar observation of a QC parameter
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Series is an ordered-by-date sequence of observations for one named
// parameter. Insertion order must be chronological; control-chart
// semantics are undefined otherwise.
type Series struct {
	Parameter core.ParameterID `json:"parameter"`
	Unit      string           `json:"unit,omitempty"`
	Points    []Point          `json:"points"`
}

// Append adds an observation, keeping the series chronological
func (s *Series) Append(date time.Time, value float64) {
	s.Points = append(s.Points, Point{Date: date, Value: value})
}

// Values returns the raw observation values in order
func (s Series) Values() []float64 {
	vals := make([]float64, len(s.Points))
	for i, p := range s.Points {
		vals[i] = p.Value
	}
	return vals
}

// Chronological reports whether points are in non-decreasing date order
func (s Series) Chronological() bool {
	for i := 1; i < len(s.Points); i++ {
		if s.Points[i].Date.Before(s.Points[i-1].Date) {
			return false
		}
	}
	return true
}

// TrendStatus summarizes whether a series is in statistical control
type TrendStatus string

const (
	TrendStable      TrendStatus = "stable"
	TrendInvestigate TrendStatus = "investigate"
)

// ControlSummary is the result of control-chart analysis over a series
// snapshot. Mean and StdDev use the Bessel-corrected sample estimators.
type ControlSummary struct {
	Parameter core.ParameterID `json:"parameter"`
	N         int              `json:"n"`
	Mean      float64          `json:"mean"`
	StdDev    float64          `json:"std_dev"`
	UCL3Sigma float64          `json:"ucl_3sigma"`
	LCL3Sigma float64          `json:"lcl_3sigma"`
	UCL2Sigma float64          `json:"ucl_2sigma"`
	LCL2Sigma float64          `json:"lcl_2sigma"`

	// Mutually exclusive classifications: a point strictly outside the
	// 3-sigma band is out of control; a point strictly between the
	// 2-sigma and 3-sigma bands is a warning.
	OutOfControl []Point `json:"out_of_control"`
	Warning      []Point `json:"warning"`

	Status TrendStatus `json:"status"`
}
