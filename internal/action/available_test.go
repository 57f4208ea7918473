package action_test

import (
	"testing"

	"riskline/internal/action"
	"riskline/internal/domain"
	"riskline/internal/permission"
	"riskline/internal/status"
)

func index(t *testing.T, actions string) *permission.Index {
	t.Helper()
	return permission.BuildIndex("u1", []domain.PermissionRecord{
		{UserUUID: "u1", KRIID: 7, ReportingDate: 20260131, Actions: actions, Effect: true},
	}, nil)
}

func names(actions []action.Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.Name
	}
	return out
}

func has(actions []action.Action, name string) bool {
	for _, a := range actions {
		if a.Name == name {
			return true
		}
	}
	return false
}

func find(t *testing.T, actions []action.Action, name string) action.Action {
	t.Helper()
	for _, a := range actions {
		if a.Name == name {
			return a
		}
	}
	t.Fatalf("action %s not in %v", name, names(actions))
	return action.Action{}
}

func TestAvailableEditableStatus(t *testing.T) {
	idx := index(t, "edit,save,submit,approve,viewDetail")
	got := action.Available(idx, action.Target{KRIID: 7, ReportingDate: 20260131, Current: status.PendingInput})
	for _, want := range []string{"edit", "save", "submit", "viewDetail"} {
		if !has(got, want) {
			t.Errorf("%s missing from %v", want, names(got))
		}
	}
	// approve is granted but gated out by the status
	if has(got, "approve") {
		t.Errorf("approve must not be available at %d", status.PendingInput)
	}
	save := find(t, got, "save")
	if save.NextStatus == nil || *save.NextStatus != status.Saved {
		t.Errorf("save next = %v", save.NextStatus)
	}
	submit := find(t, got, "submit")
	if submit.NextStatus == nil || *submit.NextStatus != status.PendingApproval {
		t.Errorf("submit next = %v", submit.NextStatus)
	}
}

func TestSubmitTargetWhenOwnerEqualsProvider(t *testing.T) {
	idx := index(t, "submit")
	got := action.Available(idx, action.Target{KRIID: 7, ReportingDate: 20260131, Current: status.Saved, OwnerEqualsProvider: true})
	submit := find(t, got, "submit")
	if submit.NextStatus == nil || *submit.NextStatus != status.PendingFinal {
		t.Fatalf("submit next = %v, want %d", submit.NextStatus, status.PendingFinal)
	}
}

func TestReviewGrantEnablesApproveAtFirstStage(t *testing.T) {
	idx := index(t, "review")
	got := action.Available(idx, action.Target{KRIID: 7, ReportingDate: 20260131, Current: status.PendingApproval})
	approve := find(t, got, "approve")
	if approve.NextStatus == nil || *approve.NextStatus != status.PendingFinal {
		t.Fatalf("approve next = %v", approve.NextStatus)
	}
	if !has(got, "reject") {
		t.Fatalf("review grant covers reject at its stage: %v", names(got))
	}
	// review does not reach the final stage
	got = action.Available(idx, action.Target{KRIID: 7, ReportingDate: 20260131, Current: status.PendingFinal})
	if has(got, "approve") {
		t.Fatalf("review grant must not enable the final approval")
	}
}

func TestAcknowledgeGrantEnablesFinalApproval(t *testing.T) {
	idx := index(t, "acknowledge")
	got := action.Available(idx, action.Target{KRIID: 7, ReportingDate: 20260131, Current: status.PendingFinal})
	approve := find(t, got, "approve")
	if approve.NextStatus == nil || *approve.NextStatus != status.Finalized {
		t.Fatalf("approve next = %v", approve.NextStatus)
	}
	got = action.Available(idx, action.Target{KRIID: 7, ReportingDate: 20260131, Current: status.PendingApproval})
	if has(got, "approve") {
		t.Fatalf("acknowledge grant must not enable the first stage")
	}
}

func TestAtomicTargetFiltersUnsupportedActions(t *testing.T) {
	idx := permission.BuildIndex("u1", []domain.PermissionRecord{
		{UserUUID: "u1", KRIID: 7, ReportingDate: 20260131, Actions: "atomic3_editAtomic,atomic3_viewDetail,atomic3_submit", Effect: true},
	}, nil)
	got := action.Available(idx, action.Target{KRIID: 7, ReportingDate: 20260131, AtomicID: 3, Current: status.PendingInput})
	if !has(got, "editAtomic") || !has(got, "viewDetail") {
		t.Fatalf("atomic actions missing: %v", names(got))
	}
	// submit does not support atomic targets even when granted
	if has(got, "submit") {
		t.Fatalf("submit must not appear on an atomic target")
	}
}

func TestFinalizedIsViewOnly(t *testing.T) {
	idx := index(t, "edit,save,submit,approve,reject,viewDetail,viewAuditTrail,uploadEvidence")
	got := action.Available(idx, action.Target{KRIID: 7, ReportingDate: 20260131, Current: status.Finalized})
	if len(got) != 2 || !has(got, "viewDetail") || !has(got, "viewAuditTrail") {
		t.Fatalf("finalized actions = %v", names(got))
	}
}

func TestPrimarySecondarySplit(t *testing.T) {
	idx := index(t, "edit,save,submit,viewDetail,uploadEvidence")
	got := action.Available(idx, action.Target{KRIID: 7, ReportingDate: 20260131, Current: status.PendingInput})
	primary := names(action.Primary(got))
	if len(primary) != 3 || primary[0] != "edit" || primary[1] != "save" || primary[2] != "submit" {
		t.Fatalf("primary = %v", primary)
	}
	secondary := names(action.Secondary(got))
	for _, n := range secondary {
		if n == "edit" || n == "save" || n == "submit" {
			t.Fatalf("secondary contains primary action %s", n)
		}
	}
}

func TestCommonIntersection(t *testing.T) {
	a := []action.Action{{Name: "save"}, {Name: "submit"}, {Name: "viewDetail"}}
	b := []action.Action{{Name: "viewDetail"}, {Name: "submit"}}
	c := []action.Action{{Name: "submit"}, {Name: "approve"}}
	got := names(action.Common(a, b, c))
	if len(got) != 1 || got[0] != "submit" {
		t.Fatalf("common = %v", got)
	}
	if action.Common() != nil {
		t.Fatalf("empty input yields nil")
	}
	if got := action.Common(a); len(got) != 3 {
		t.Fatalf("single list passes through, got %v", got)
	}
}

func TestCatalogCovered(t *testing.T) {
	defs := action.Definitions()
	if len(defs) != 13 {
		t.Fatalf("catalog size = %d", len(defs))
	}
	if _, ok := action.Get("reject"); !ok {
		t.Fatalf("reject missing from catalog")
	}
	reject, _ := action.Get("reject")
	if !reject.RequiresComment {
		t.Fatalf("reject must require a comment")
	}
	if _, ok := action.Get("destroy"); ok {
		t.Fatalf("unknown action resolved")
	}
}
