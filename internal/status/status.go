package status

// Code is a persisted workflow status. The integer values are stored data
// shared with external systems and must not change.
type Code int

const (
	PendingInput    Code = 10
	UnderRework     Code = 20
	Saved           Code = 30
	PendingApproval Code = 40 // submitted to the data-provider approver
	PendingFinal    Code = 50 // submitted to the KRI-owner approver
	Finalized       Code = 60
)

// Category groups actions by the capability flag that gates them.
type Category string

const (
	CategoryEdit    Category = "edit"
	CategorySubmit  Category = "submit"
	CategoryApprove Category = "approve"
	CategoryReject  Category = "reject"
	CategoryView    Category = "view"
)

// Capabilities are the per-status gates applied on top of permissions.
type Capabilities struct {
	Edit    bool `json:"edit"`
	Submit  bool `json:"submit"`
	Approve bool `json:"approve"`
	Reject  bool `json:"reject"`
}

// Allows reports whether the category's capability flag is set. View is
// never status-gated.
func (c Capabilities) Allows(cat Category) bool {
	switch cat {
	case CategoryEdit:
		return c.Edit
	case CategorySubmit:
		return c.Submit
	case CategoryApprove:
		return c.Approve
	case CategoryReject:
		return c.Reject
	case CategoryView:
		return true
	}
	return false
}

// Descriptor is the display metadata and capability set for a status code.
type Descriptor struct {
	Code         Code         `json:"code"`
	Label        string       `json:"label"`
	Capabilities Capabilities `json:"capabilities"`
	Known        bool         `json:"known"`
}

var registry = map[Code]Descriptor{
	PendingInput:    {Code: PendingInput, Label: "Pending Input", Capabilities: Capabilities{Edit: true, Submit: true}, Known: true},
	UnderRework:     {Code: UnderRework, Label: "Under Rework", Capabilities: Capabilities{Edit: true, Submit: true}, Known: true},
	Saved:           {Code: Saved, Label: "Saved", Capabilities: Capabilities{Edit: true, Submit: true}, Known: true},
	PendingApproval: {Code: PendingApproval, Label: "Submitted to Data Provider Approver", Capabilities: Capabilities{Approve: true, Reject: true}, Known: true},
	PendingFinal:    {Code: PendingFinal, Label: "Submitted to KRI Owner Approver", Capabilities: Capabilities{Approve: true, Reject: true}, Known: true},
	Finalized:       {Code: Finalized, Label: "Finalized", Known: true},
}

// Describe returns the descriptor for a code. Unknown codes get a fallback
// descriptor with no capabilities so callers degrade instead of crashing.
func Describe(code Code) Descriptor {
	if d, ok := registry[code]; ok {
		return d
	}
	return Descriptor{Code: code, Label: "Unknown", Known: false}
}

// Valid reports whether code is one of the six defined statuses.
func (c Code) Valid() bool {
	_, ok := registry[c]
	return ok
}

// All returns the defined codes in ascending order.
func All() []Code {
	return []Code{PendingInput, UnderRework, Saved, PendingApproval, PendingFinal, Finalized}
}

// ValidNext returns the statuses reachable from code. When the KRI owner is
// also the data provider the first approval stage is skipped.
func ValidNext(code Code, ownerEqualsProvider bool) []Code {
	switch code {
	case PendingInput, UnderRework, Saved:
		submitTarget := PendingApproval
		if ownerEqualsProvider {
			submitTarget = PendingFinal
		}
		return []Code{Saved, submitTarget}
	case PendingApproval:
		return []Code{PendingFinal, UnderRework}
	case PendingFinal:
		return []Code{Finalized, UnderRework}
	default:
		return nil
	}
}
