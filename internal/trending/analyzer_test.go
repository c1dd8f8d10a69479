package trending

import (
	"errors"
	"math"
	"testing"
	"time"

	"goqc/domain/core"
	"goqc/domain/trend"
)

func seriesOf(values ...float64) trend.Series {
	s := trend.Series{Parameter: "water_ct", Unit: "HU"}
	date := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	for _, v := range values {
		s.Append(date, v)
		date = date.AddDate(0, 0, 7)
	}
	return s
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestAnalyze_SampleEstimators(t *testing.T) {
	// Deviations squared sum to 16 over 5 points, so the sample variance
	// is 16/4 = 4 and the standard deviation exactly 2.
	summary, err := Analyze(seriesOf(2, -2, 2, -2, 0))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if summary.N != 5 {
		t.Errorf("N = %d, want 5", summary.N)
	}
	approx(t, "Mean", summary.Mean, 0)
	approx(t, "StdDev", summary.StdDev, 2)
	approx(t, "UCL3Sigma", summary.UCL3Sigma, 6)
	approx(t, "LCL3Sigma", summary.LCL3Sigma, -6)
	approx(t, "UCL2Sigma", summary.UCL2Sigma, 4)
	approx(t, "LCL2Sigma", summary.LCL2Sigma, -4)

	if len(summary.OutOfControl) != 0 || len(summary.Warning) != 0 {
		t.Errorf("expected no flagged points, got OOC=%d warning=%d",
			len(summary.OutOfControl), len(summary.Warning))
	}
	if summary.Status != trend.TrendStable {
		t.Errorf("status = %s, want stable", summary.Status)
	}
}

func TestAnalyze_WarningStaysStable(t *testing.T) {
	// Ten alternating ±1 points and one at 4: the outlier lands between
	// the 2-sigma and 3-sigma bands (z about 2.32), so it is a warning,
	// and warnings alone never flag the series for investigation.
	values := make([]float64, 0, 11)
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			values = append(values, 1)
		} else {
			values = append(values, -1)
		}
	}
	values = append(values, 4)

	summary, err := Analyze(seriesOf(values...))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(summary.OutOfControl) != 0 {
		t.Errorf("expected no out-of-control points, got %d", len(summary.OutOfControl))
	}
	if len(summary.Warning) != 1 || summary.Warning[0].Value != 4 {
		t.Fatalf("expected exactly the 4.0 point flagged as warning, got %v", summary.Warning)
	}
	if summary.Status != trend.TrendStable {
		t.Errorf("status = %s, want stable", summary.Status)
	}
}

func TestAnalyze_OutOfControl(t *testing.T) {
	// Twenty alternating ±1 points and one at 8: z about 3.79, strictly
	// outside the 3-sigma band.
	values := make([]float64, 0, 21)
	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			values = append(values, 1)
		} else {
			values = append(values, -1)
		}
	}
	values = append(values, 8)

	summary, err := Analyze(seriesOf(values...))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(summary.OutOfControl) != 1 || summary.OutOfControl[0].Value != 8 {
		t.Fatalf("expected exactly the 8.0 point out of control, got %v", summary.OutOfControl)
	}
	// Mutually exclusive: the point is not also a warning
	for _, p := range summary.Warning {
		if p.Value == 8 {
			t.Errorf("out-of-control point also listed as warning")
		}
	}
	if summary.Status != trend.TrendInvestigate {
		t.Errorf("status = %s, want investigate", summary.Status)
	}
}

func TestAnalyze_TooFewPoints(t *testing.T) {
	for _, values := range [][]float64{{}, {1.5}} {
		_, err := Analyze(seriesOf(values...))
		if !errors.Is(err, core.ErrSeriesEmpty) {
			t.Errorf("%d points: expected ErrSeriesEmpty, got %v", len(values), err)
		}
	}
}

func TestAnalyze_NonChronological(t *testing.T) {
	s := seriesOf(1, 2, 3)
	s.Points[1].Date = s.Points[2].Date.AddDate(0, 0, 7)
	if _, err := Analyze(s); err == nil {
		t.Error("expected error for out-of-order series")
	}
}

func TestAnalyze_RecomputesOnAppend(t *testing.T) {
	s := seriesOf(2, -2, 2, -2, 0)
	before, err := Analyze(s)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	s.Append(s.Points[len(s.Points)-1].Date.AddDate(0, 0, 7), 10)
	after, err := Analyze(s)
	if err != nil {
		t.Fatalf("Analyze after append failed: %v", err)
	}

	if after.N != before.N+1 {
		t.Errorf("N = %d, want %d", after.N, before.N+1)
	}
	if after.Mean == before.Mean && after.StdDev == before.StdDev {
		t.Error("expected bands to move after appending a new observation")
	}
	// The earlier summary is a snapshot; analysis must not mutate it
	approx(t, "before.Mean", before.Mean, 0)
	approx(t, "before.StdDev", before.StdDev, 2)
}
