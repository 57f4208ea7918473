// Package workflow is the single source of truth for status transition
// semantics. Every component that needs a next status resolves it here.
package workflow

import "riskline/internal/status"

// NextStatus resolves the status an operation moves an item to, given the
// current status and whether the KRI owner is also its data provider. The
// second return is false when the operation does not apply in the current
// status.
func NextStatus(op string, current status.Code, ownerEqualsProvider bool) (status.Code, bool) {
	switch op {
	case "save":
		if editable(current) {
			return status.Saved, true
		}
	case "submit":
		if editable(current) {
			if ownerEqualsProvider {
				return status.PendingFinal, true
			}
			return status.PendingApproval, true
		}
	case "approve":
		switch current {
		case status.PendingApproval:
			if ownerEqualsProvider {
				return status.Finalized, true
			}
			return status.PendingFinal, true
		case status.PendingFinal:
			return status.Finalized, true
		}
	case "reject":
		if current == status.PendingApproval || current == status.PendingFinal {
			return status.UnderRework, true
		}
	}
	return 0, false
}

func editable(c status.Code) bool {
	return c == status.PendingInput || c == status.UnderRework || c == status.Saved
}
