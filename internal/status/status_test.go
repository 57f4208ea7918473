package status_test

import (
	"testing"

	"riskline/internal/status"
)

func TestDescribeKnownCodes(t *testing.T) {
	for _, code := range status.All() {
		d := status.Describe(code)
		if !d.Known {
			t.Errorf("code %d should be known", code)
		}
		if d.Label == "" || d.Label == "Unknown" {
			t.Errorf("code %d has no label", code)
		}
	}
}

func TestDescribeUnknownCode(t *testing.T) {
	d := status.Describe(status.Code(99))
	if d.Known {
		t.Fatalf("99 should not be known")
	}
	if d.Label != "Unknown" {
		t.Fatalf("label = %q", d.Label)
	}
	if d.Capabilities.Edit || d.Capabilities.Submit || d.Capabilities.Approve || d.Capabilities.Reject {
		t.Fatalf("unknown code must carry no capabilities")
	}
}

func TestCapabilityGates(t *testing.T) {
	cases := []struct {
		code    status.Code
		edit    bool
		submit  bool
		approve bool
		reject  bool
	}{
		{status.PendingInput, true, true, false, false},
		{status.UnderRework, true, true, false, false},
		{status.Saved, true, true, false, false},
		{status.PendingApproval, false, false, true, true},
		{status.PendingFinal, false, false, true, true},
		{status.Finalized, false, false, false, false},
	}
	for _, tc := range cases {
		c := status.Describe(tc.code).Capabilities
		if c.Allows(status.CategoryEdit) != tc.edit {
			t.Errorf("code %d edit = %v", tc.code, !tc.edit)
		}
		if c.Allows(status.CategorySubmit) != tc.submit {
			t.Errorf("code %d submit = %v", tc.code, !tc.submit)
		}
		if c.Allows(status.CategoryApprove) != tc.approve {
			t.Errorf("code %d approve = %v", tc.code, !tc.approve)
		}
		if c.Allows(status.CategoryReject) != tc.reject {
			t.Errorf("code %d reject = %v", tc.code, !tc.reject)
		}
		if !c.Allows(status.CategoryView) {
			t.Errorf("code %d must allow view", tc.code)
		}
	}
}

func TestValidNext(t *testing.T) {
	next := status.ValidNext(status.PendingInput, false)
	if len(next) != 2 || next[0] != status.Saved || next[1] != status.PendingApproval {
		t.Fatalf("pending input next = %v", next)
	}
	// owner == provider skips the first approval stage
	next = status.ValidNext(status.Saved, true)
	if len(next) != 2 || next[1] != status.PendingFinal {
		t.Fatalf("owner==provider next = %v", next)
	}
	next = status.ValidNext(status.PendingApproval, false)
	if len(next) != 2 || next[0] != status.PendingFinal || next[1] != status.UnderRework {
		t.Fatalf("pending approval next = %v", next)
	}
	next = status.ValidNext(status.PendingFinal, false)
	if len(next) != 2 || next[0] != status.Finalized || next[1] != status.UnderRework {
		t.Fatalf("pending final next = %v", next)
	}
	if next := status.ValidNext(status.Finalized, false); next != nil {
		t.Fatalf("finalized is terminal, got %v", next)
	}
}

func TestValid(t *testing.T) {
	if !status.Saved.Valid() {
		t.Fatalf("30 is a defined code")
	}
	if status.Code(35).Valid() {
		t.Fatalf("35 is not a defined code")
	}
}
