package engine

import (
	"context"

	"riskline/internal/action"
	"riskline/internal/permission"
)

// BulkTarget names one item (or atomic element) in a bulk request.
type BulkTarget struct {
	KRIID         int64 `json:"kri_id"`
	ReportingDate int64 `json:"reporting_date"`
	AtomicID      int64 `json:"atomic_id,omitempty"`
}

// BulkItemResult pairs a target with its individual outcome.
type BulkItemResult struct {
	Target BulkTarget `json:"target"`
	Result Result     `json:"result"`
}

// RunBulk executes the same action against each target sequentially,
// continuing past failures. Each target gets a freshly built context, so an
// earlier transition in the batch is visible to later checks. Results come
// back in request order, one per target.
func (e Engine) RunBulk(ctx context.Context, idx *permission.Index, actionName string, targets []BulkTarget, data ActionData) []BulkItemResult {
	results := make([]BulkItemResult, 0, len(targets))
	for _, t := range targets {
		op, err := e.LoadContext(ctx, idx, t.KRIID, t.ReportingDate, t.AtomicID)
		if err != nil {
			results = append(results, BulkItemResult{Target: t, Result: failure(CodeExecutionError, err.Error())})
			continue
		}
		results = append(results, BulkItemResult{Target: t, Result: e.Execute(ctx, actionName, op, data)})
	}
	return results
}

// CommonActions loads a context per target and intersects their available
// actions; it backs the bulk action bar.
func (e Engine) CommonActions(ctx context.Context, idx *permission.Index, targets []BulkTarget) ([]action.Action, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	lists := make([][]action.Action, 0, len(targets))
	for _, t := range targets {
		op, err := e.LoadContext(ctx, idx, t.KRIID, t.ReportingDate, t.AtomicID)
		if err != nil {
			return nil, err
		}
		lists = append(lists, op.Available)
	}
	return action.Common(lists...), nil
}
