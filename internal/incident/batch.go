package incident

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Summary counts the outcomes of a batch of dispatches.
type Summary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

// Summarize tallies results. Dispatches of the none action and incidents that
// were not dispatched count as skipped.
func Summarize(results []*ActionResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Skipped(), r.Action == ActionNone && r.Reason != ReasonMissingAnalysis:
			s.Skipped++
		case r.Success:
			s.Successful++
		default:
			s.Failed++
		}
	}
	return s
}

// ExecuteAll runs every stored incident through the dispatcher, with at most
// limit dispatches in flight (limit <= 0 means unbounded). Resolved and closed
// incidents are reported as skipped without being dispatched; the dispatcher
// itself settles missing analyses and none actions. Results keep the store's
// listing order.
func (s *Service) ExecuteAll(ctx context.Context, limit int) ([]*ActionResult, error) {
	if s.pipeline.Dispatcher == nil {
		return nil, fmt.Errorf("%w: no dispatcher configured", ErrNotExecutable)
	}
	all, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}

	results := make([]*ActionResult, len(all))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, inc := range all {
		if inc.Status.Terminal() {
			results[i] = s.notExecuted(inc)
			continue
		}
		g.Go(func() error {
			results[i], _ = s.execute(ctx, inc)
			return nil
		})
	}
	_ = g.Wait() // execute never fails

	sum := Summarize(results)
	s.logger.Info(ctx, "batch remediation finished",
		"total", sum.Total, "successful", sum.Successful, "failed", sum.Failed, "skipped", sum.Skipped)
	return results, nil
}

func (s *Service) notExecuted(inc *Incident) *ActionResult {
	action := ActionNone
	if inc.Analysis != nil {
		action = inc.Analysis.Action
	}
	return &ActionResult{
		IncidentID: inc.ID,
		Action:     action,
		Message:    fmt.Sprintf("Skipped: incident is %s", inc.Status),
		Reason:     ReasonNotExecutable,
		Timestamp:  s.now(),
	}
}
