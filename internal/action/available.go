package action

import (
	"riskline/internal/permission"
	"riskline/internal/status"
	"riskline/internal/workflow"
)

// Action is a catalog entry resolved for one item and caller, with the
// status the action would move the item to (nil when it does not move).
type Action struct {
	Name            string       `json:"name"`
	Label           string       `json:"label"`
	Category        string       `json:"category"`
	RequiresConfirm bool         `json:"requires_confirm"`
	RequiresComment bool         `json:"requires_comment"`
	SupportsAtomic  bool         `json:"supports_atomic"`
	NextStatus      *status.Code `json:"next_status,omitempty"`
}

// Target scopes an availability query to a KRI period and optionally one
// atomic element.
type Target struct {
	KRIID               int64
	ReportingDate       int64
	AtomicID            int64 // 0 for KRI-level
	Current             status.Code
	OwnerEqualsProvider bool
}

// Available returns the actions valid for the target's status that the
// indexed user is permitted to perform, each with its resolved next status.
// For atomic targets only definitions marked SupportsAtomic qualify.
func Available(idx *permission.Index, t Target) []Action {
	var out []Action
	for _, def := range catalog {
		if t.AtomicID != 0 && !def.SupportsAtomic {
			continue
		}
		if !def.validFor(t.Current) {
			continue
		}
		if !permitted(idx, t, def) {
			continue
		}
		out = append(out, resolve(def, t.Current, t.OwnerEqualsProvider))
	}
	return out
}

func permitted(idx *permission.Index, t Target, def Definition) bool {
	for _, name := range def.permissionNames(t.Current) {
		if idx.CanPerform(t.KRIID, t.ReportingDate, t.AtomicID, name, t.Current) {
			return true
		}
	}
	return false
}

func resolve(def Definition, current status.Code, ownerEqualsProvider bool) Action {
	a := Action{
		Name:            def.Name,
		Label:           def.Label,
		Category:        string(def.Category),
		RequiresConfirm: def.RequiresConfirm,
		RequiresComment: def.RequiresComment,
		SupportsAtomic:  def.SupportsAtomic,
	}
	switch def.Resolution {
	case ResolutionWorkflow:
		if next, ok := workflow.NextStatus(def.verb(), current, ownerEqualsProvider); ok {
			a.NextStatus = &next
		}
	}
	return a
}

// primarySet orders the action bar; it is a UI affordance, not a workflow
// rule.
var primarySet = map[string]bool{
	permission.ActionEdit:    true,
	permission.ActionSave:    true,
	permission.ActionSubmit:  true,
	permission.ActionApprove: true,
	permission.ActionReject:  true,
}

// Primary returns the actions shown as primary buttons, in catalog order.
func Primary(actions []Action) []Action {
	var out []Action
	for _, a := range actions {
		if primarySet[a.Name] {
			out = append(out, a)
		}
	}
	return out
}

// Secondary returns every available action not in the primary set.
func Secondary(actions []Action) []Action {
	var out []Action
	for _, a := range actions {
		if !primarySet[a.Name] {
			out = append(out, a)
		}
	}
	return out
}

// Common intersects several availability lists by action name, preserving
// the order of the first list. It decides whether a bulk action bar applies.
func Common(lists ...[]Action) []Action {
	if len(lists) == 0 {
		return nil
	}
	out := append([]Action(nil), lists[0]...)
	for _, list := range lists[1:] {
		names := make(map[string]bool, len(list))
		for _, a := range list {
			names[a.Name] = true
		}
		kept := out[:0]
		for _, a := range out {
			if names[a.Name] {
				kept = append(kept, a)
			}
		}
		out = kept
	}
	return out
}
