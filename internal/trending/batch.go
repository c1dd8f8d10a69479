package trending

import (
	"context"
	"sync"

	"goqc/domain/core"
	"goqc/domain/trend"

	"golang.org/x/sync/semaphore"
)

// maxConcurrentAnalyses bounds how many series are summarized at once
// when a dashboard refresh asks for every tracked parameter.
const maxConcurrentAnalyses = 4

// AnalyzeAll summarizes a set of series under a weighted semaphore.
// Each Analyze call is pure; only the fan-out is concurrent. Series
// that fail to analyze are skipped and their errors collected.
func AnalyzeAll(ctx context.Context, series []trend.Series) (map[core.ParameterID]trend.ControlSummary, []error) {
	sem := semaphore.NewWeighted(maxConcurrentAnalyses)

	var mu sync.Mutex
	summaries := make(map[core.ParameterID]trend.ControlSummary, len(series))
	var errs []error

	var wg sync.WaitGroup
	for _, s := range series {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func(s trend.Series) {
			defer wg.Done()
			defer sem.Release(1)

			summary, err := Analyze(s)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			summaries[s.Parameter] = summary
		}(s)
	}
	wg.Wait()

	return summaries, errs
}
