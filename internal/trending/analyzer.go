// Package trending computes statistical-process-control summaries over
// QC parameter time series.
package trending

import (
	"fmt"

	"goqc/domain/core"
	"goqc/domain/trend"

	"github.com/montanaflynn/stats"
)

// Analyze computes the control-chart summary for a series snapshot. It
// is a pure function of the snapshot passed in: mean, standard
// deviation and the sigma bands are recomputed on every call.
//
// Mean and standard deviation use the sample (Bessel-corrected)
// estimators. A point strictly outside the 3-sigma band is out of
// control; a point strictly between the 2-sigma and 3-sigma bands is a
// warning. The classifications are mutually exclusive: 3-sigma first,
// then 2-sigma on the remainder.
func Analyze(series trend.Series) (trend.ControlSummary, error) {
	if len(series.Points) < 2 {
		return trend.ControlSummary{}, fmt.Errorf("%w: parameter %s has %d points, need at least 2",
			core.ErrSeriesEmpty, series.Parameter, len(series.Points))
	}
	if !series.Chronological() {
		return trend.ControlSummary{}, fmt.Errorf("series for parameter %s is not in chronological order", series.Parameter)
	}

	values := series.Values()
	mean, err := stats.Mean(values)
	if err != nil {
		return trend.ControlSummary{}, err
	}
	stdDev, err := stats.StandardDeviationSample(values)
	if err != nil {
		return trend.ControlSummary{}, err
	}

	summary := trend.ControlSummary{
		Parameter: series.Parameter,
		N:         len(values),
		Mean:      mean,
		StdDev:    stdDev,
		UCL3Sigma: mean + 3*stdDev,
		LCL3Sigma: mean - 3*stdDev,
		UCL2Sigma: mean + 2*stdDev,
		LCL2Sigma: mean - 2*stdDev,
	}

	for _, p := range series.Points {
		switch {
		case p.Value > summary.UCL3Sigma || p.Value < summary.LCL3Sigma:
			summary.OutOfControl = append(summary.OutOfControl, p)
		case p.Value > summary.UCL2Sigma || p.Value < summary.LCL2Sigma:
			summary.Warning = append(summary.Warning, p)
		}
	}

	summary.Status = trend.TrendStable
	if len(summary.OutOfControl) > 0 {
		summary.Status = trend.TrendInvestigate
	}
	return summary, nil
}
