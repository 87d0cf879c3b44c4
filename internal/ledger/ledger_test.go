package ledger_test

import (
	"testing"

	"github.com/veridex/faceline/internal/ledger"
	"github.com/veridex/faceline/pkg/bank"
)

func TestNewLinesSeedsPickedFamilies(t *testing.T) {
	families := []bank.Family{"Control", "Pace"}
	picks := map[bank.Family]bool{"Control": true}

	lines := ledger.NewLines(families, picks)

	if lines["Control"].C != 1 {
		t.Fatalf("picked family Control has C=%d, want 1", lines["Control"].C)
	}
	if lines["Pace"].C != 0 {
		t.Fatalf("unpicked family Pace has C=%d, want 0", lines["Pace"].C)
	}
}

func TestLineStateApplyRevertRoundTrips(t *testing.T) {
	l := &ledger.LineState{}
	l.Apply(bank.LineBent)
	l.Apply(bank.LineBent)
	if !l.OSeen() {
		t.Fatal("expected OSeen after two Bent applies")
	}
	l.Revert(bank.LineBent)
	if !l.OSeen() {
		t.Fatal("OSeen should remain true while one Bent answer is still applied")
	}
	l.Revert(bank.LineBent)
	if l.OSeen() {
		t.Fatal("OSeen should clear once the last Bent answer is reverted")
	}
}

func TestFaceStateHitUnhitExactInverse(t *testing.T) {
	f := ledger.NewFaces([]bank.FaceID{"FACE/Control/Warden"})["FACE/Control/Warden"]

	f.Hit("CTRL_Q1", "Control", true, true, bank.LineClean)
	if f.Questions() != 1 || f.Families() != 1 || f.SignatureHits() != 1 || !f.Contrast() {
		t.Fatalf("unexpected state after Hit: %+v", f)
	}
	if f.Context.Clean != 1 {
		t.Fatalf("Clean=%d, want 1", f.Context.Clean)
	}

	f.Unhit("CTRL_Q1", "Control", true, true, bank.LineClean)
	if f.Questions() != 0 || f.Families() != 0 || f.SignatureHits() != 0 || f.Contrast() {
		t.Fatalf("expected fully reverted state, got %+v", f)
	}
	if f.Context.Clean != 0 {
		t.Fatalf("Clean=%d, want 0 after Unhit", f.Context.Clean)
	}
}

func TestFaceStateCountsSurviveOverlappingHits(t *testing.T) {
	f := ledger.NewFaces([]bank.FaceID{"FACE/Control/Warden"})["FACE/Control/Warden"]

	f.Hit("CTRL_Q1", "Control", true, false, bank.LineClean)
	f.Hit("PACE_Q1", "Pace", false, false, bank.LineClean)

	if f.Families() != 2 {
		t.Fatalf("Families()=%d, want 2", f.Families())
	}

	f.Unhit("CTRL_Q1", "Control", true, false, bank.LineClean)
	if f.Families() != 1 {
		t.Fatalf("Families()=%d after one Unhit, want 1", f.Families())
	}
	if f.SignatureHits() != 0 {
		t.Fatalf("SignatureHits()=%d, want 0", f.SignatureHits())
	}
}

func TestMaxFamilyShare(t *testing.T) {
	f := ledger.NewFaces([]bank.FaceID{"FACE/Control/Warden"})["FACE/Control/Warden"]
	f.Hit("CTRL_Q1", "Control", true, false, bank.LineClean)
	f.Hit("CTRL_Q2", "Control", true, false, bank.LineClean)
	f.Hit("PACE_Q1", "Pace", false, false, bank.LineClean)

	if got := f.MaxFamilyShare(); got < 0.66 || got > 0.67 {
		t.Fatalf("MaxFamilyShare()=%v, want ~0.667", got)
	}
}
