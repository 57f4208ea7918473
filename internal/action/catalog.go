// Package action holds the static catalog of workflow actions and computes
// which of them are available for an item, a caller, and a status.
package action

import (
	"riskline/internal/permission"
	"riskline/internal/status"
)

// Resolution tells how an action's next status is determined.
type Resolution string

const (
	// ResolutionFixed uses the definition's Next field.
	ResolutionFixed Resolution = "fixed"
	// ResolutionWorkflow resolves through the workflow resolver.
	ResolutionWorkflow Resolution = "workflow"
	// ResolutionDynamic means the action does not move the status.
	ResolutionDynamic Resolution = "dynamic"
)

// Definition is one catalog entry.
type Definition struct {
	Name            string          `json:"name"`
	Label           string          `json:"label"`
	Category        status.Category `json:"category"`
	ValidStatuses   []status.Code   `json:"valid_statuses"`
	RequiresConfirm bool            `json:"requires_confirm"`
	RequiresComment bool            `json:"requires_comment"`
	SupportsAtomic  bool            `json:"supports_atomic"`
	Resolution      Resolution      `json:"resolution"`
	// Verb is the workflow operation used to resolve the next status when
	// Resolution is workflow. review and acknowledge are approval-stage
	// aliases that resolve through the approve rules.
	Verb string `json:"-"`
}

var allStatuses = status.All()

var editableStatuses = []status.Code{status.PendingInput, status.UnderRework, status.Saved}

var catalog = []Definition{
	{Name: permission.ActionEdit, Label: "Edit", Category: status.CategoryEdit, ValidStatuses: editableStatuses, Resolution: ResolutionDynamic},
	{Name: permission.ActionSave, Label: "Save", Category: status.CategoryEdit, ValidStatuses: editableStatuses, Resolution: ResolutionWorkflow},
	{Name: permission.ActionSubmit, Label: "Submit", Category: status.CategorySubmit, ValidStatuses: editableStatuses, RequiresConfirm: true, Resolution: ResolutionWorkflow},
	{Name: permission.ActionApprove, Label: "Approve", Category: status.CategoryApprove, ValidStatuses: []status.Code{status.PendingApproval, status.PendingFinal}, RequiresConfirm: true, SupportsAtomic: true, Resolution: ResolutionWorkflow},
	{Name: permission.ActionReject, Label: "Reject", Category: status.CategoryReject, ValidStatuses: []status.Code{status.PendingApproval, status.PendingFinal}, RequiresComment: true, SupportsAtomic: true, Resolution: ResolutionWorkflow},
	{Name: permission.ActionReview, Label: "Review", Category: status.CategoryApprove, ValidStatuses: []status.Code{status.PendingApproval}, Resolution: ResolutionWorkflow, Verb: "approve"},
	{Name: permission.ActionAcknowledge, Label: "Acknowledge", Category: status.CategoryApprove, ValidStatuses: []status.Code{status.PendingFinal}, Resolution: ResolutionWorkflow, Verb: "approve"},
	{Name: permission.ActionUploadEvidence, Label: "Upload Evidence", Category: status.CategoryView, ValidStatuses: []status.Code{status.PendingInput, status.UnderRework, status.Saved, status.PendingApproval, status.PendingFinal}, Resolution: ResolutionDynamic},
	{Name: permission.ActionDeleteEvidence, Label: "Delete Evidence", Category: status.CategoryView, ValidStatuses: editableStatuses, RequiresConfirm: true, Resolution: ResolutionDynamic},
	{Name: permission.ActionViewDetail, Label: "View Detail", Category: status.CategoryView, ValidStatuses: allStatuses, SupportsAtomic: true, Resolution: ResolutionDynamic},
	{Name: permission.ActionViewAuditTrail, Label: "View Audit Trail", Category: status.CategoryView, ValidStatuses: allStatuses, Resolution: ResolutionDynamic},
	{Name: permission.ActionEditAtomic, Label: "Edit Atomic Value", Category: status.CategoryEdit, ValidStatuses: editableStatuses, SupportsAtomic: true, Resolution: ResolutionDynamic},
	{Name: permission.ActionCalculateKRI, Label: "Calculate KRI", Category: status.CategoryEdit, ValidStatuses: editableStatuses, Resolution: ResolutionDynamic},
}

var byName = func() map[string]Definition {
	m := make(map[string]Definition, len(catalog))
	for _, d := range catalog {
		m[d.Name] = d
	}
	return m
}()

// Get returns a definition by action name.
func Get(name string) (Definition, bool) {
	d, ok := byName[name]
	return d, ok
}

// Definitions returns the catalog in declaration order.
func Definitions() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

func (d Definition) verb() string {
	if d.Verb != "" {
		return d.Verb
	}
	return d.Name
}

func (d Definition) validFor(c status.Code) bool {
	for _, s := range d.ValidStatuses {
		if s == c {
			return true
		}
	}
	return false
}

// permissionNames returns the grant names that enable the action in the
// given status. Approval-category actions are stage-gated: the first
// approval stage is held by review, the final one by acknowledge; a direct
// grant of the action's own name also counts.
func (d Definition) permissionNames(current status.Code) []string {
	names := []string{d.Name}
	if d.Category == status.CategoryApprove || d.Category == status.CategoryReject {
		switch current {
		case status.PendingApproval:
			names = append(names, permission.ActionReview)
		case status.PendingFinal:
			names = append(names, permission.ActionAcknowledge)
		}
	}
	return names
}
