package ports

import (
	"context"

	"goqc/domain/core"
	"goqc/domain/trend"
)

// TrendSource supplies chronological QC parameter series. Backed by
// accumulated verdicts in production, or by the synthetic generator for
// demonstration.
type TrendSource interface {
	Series(ctx context.Context, parameter core.ParameterID) (trend.Series, error)
	Parameters(ctx context.Context) ([]core.ParameterID, error)
}
