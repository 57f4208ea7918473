package workflow_test

import (
	"testing"

	"riskline/internal/status"
	"riskline/internal/workflow"
)

func TestNextStatus(t *testing.T) {
	cases := []struct {
		op      string
		current status.Code
		oep     bool
		want    status.Code
		ok      bool
	}{
		{"save", status.PendingInput, false, status.Saved, true},
		{"save", status.UnderRework, false, status.Saved, true},
		{"save", status.Saved, false, status.Saved, true},
		{"save", status.PendingApproval, false, 0, false},
		{"submit", status.Saved, false, status.PendingApproval, true},
		{"submit", status.Saved, true, status.PendingFinal, true},
		{"submit", status.PendingInput, false, status.PendingApproval, true},
		{"submit", status.Finalized, false, 0, false},
		{"approve", status.PendingApproval, false, status.PendingFinal, true},
		{"approve", status.PendingApproval, true, status.Finalized, true},
		{"approve", status.PendingFinal, false, status.Finalized, true},
		{"approve", status.PendingFinal, true, status.Finalized, true},
		{"approve", status.Saved, false, 0, false},
		{"reject", status.PendingApproval, false, status.UnderRework, true},
		{"reject", status.PendingFinal, false, status.UnderRework, true},
		{"reject", status.Saved, false, 0, false},
		{"frobnicate", status.Saved, false, 0, false},
	}
	for _, tc := range cases {
		got, ok := workflow.NextStatus(tc.op, tc.current, tc.oep)
		if ok != tc.ok || got != tc.want {
			t.Errorf("NextStatus(%q, %d, oep=%v) = (%d, %v), want (%d, %v)",
				tc.op, tc.current, tc.oep, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRejectAlwaysLandsOnRework(t *testing.T) {
	for _, oep := range []bool{false, true} {
		for _, from := range []status.Code{status.PendingApproval, status.PendingFinal} {
			got, ok := workflow.NextStatus("reject", from, oep)
			if !ok || got != status.UnderRework {
				t.Errorf("reject from %d oep=%v = (%d, %v)", from, oep, got, ok)
			}
		}
	}
}
