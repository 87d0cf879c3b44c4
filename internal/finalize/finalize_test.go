package finalize_test

import (
	"testing"

	"github.com/veridex/faceline/internal/answer"
	"github.com/veridex/faceline/internal/detrand"
	"github.com/veridex/faceline/internal/finalize"
	"github.com/veridex/faceline/internal/ledger"
	"github.com/veridex/faceline/internal/schedule"
	"github.com/veridex/faceline/internal/testfixture"
	"github.com/veridex/faceline/pkg/bank"
)

func runSession(t *testing.T, seed string, picks map[bank.Family]bool, key string) *finalize.Snapshot {
	t.Helper()
	pkg := testfixture.BalancedBank(t)

	rng := detrand.New(detrand.DeriveSeed(seed, pkg.Meta().BankHash, pkg.Meta().ConstantsProfile))
	items, err := schedule.Build(pkg, picks, rng)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	lines := ledger.NewLines(pkg.Families(), picks)
	faces := ledger.NewFaces(pkg.AllFaces())
	for _, it := range items {
		if _, err := answer.Apply(pkg, lines, faces, it.QID, key); err != nil {
			t.Fatalf("Apply %s: %v", it.QID, err)
		}
	}

	snap, err := finalize.Finalize(pkg, picks, lines, faces, items, rng)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return snap
}

func TestFinalizeDeterministicAcrossRuns(t *testing.T) {
	picks := map[bank.Family]bool{"Control": true, "Pace": true, "Boundary": true}
	a := runSession(t, "s1", picks, "A")
	b := runSession(t, "s1", picks, "A")

	if a.Hash != b.Hash {
		t.Fatalf("snapshot hash diverged: %s vs %s", a.Hash, b.Hash)
	}
}

func TestAnchorNullWhenAllPicked(t *testing.T) {
	all := map[bank.Family]bool{}
	for _, f := range testfixture.BalancedBank(t).Families() {
		all[f] = true
	}
	snap := runSession(t, "s3", all, "A")
	if snap.AnchorFamily != nil {
		t.Fatalf("expected nil anchor when all families picked, got %v", *snap.AnchorFamily)
	}
}

func TestAnchorOutsidePicks(t *testing.T) {
	picks := map[bank.Family]bool{"Control": true, "Pace": true, "Boundary": true}
	snap := runSession(t, "s1", picks, "A")
	if snap.AnchorFamily == nil {
		t.Fatal("expected a non-nil anchor")
	}
	if picks[*snap.AnchorFamily] {
		t.Fatalf("anchor family %s is in picks", *snap.AnchorFamily)
	}
}

func TestClassifyAbsentByDefault(t *testing.T) {
	fs := ledger.NewFaces([]bank.FaceID{"FACE/Control/Warden"})["FACE/Control/Warden"]
	if got := finalize.Classify(fs, bank.DefaultConstants()); got != finalize.StateAbsent {
		t.Fatalf("Classify of an empty ledger = %s, want ABSENT", got)
	}
}

func TestClassifyLitRequiresAllGates(t *testing.T) {
	fs := ledger.NewFaces([]bank.FaceID{"FACE/Control/Warden"})["FACE/Control/Warden"]
	families := []bank.Family{"Control", "Pace", "Boundary", "Truth", "Recognition", "Bonding"}
	for i, f := range families {
		fs.Hit(bank.QID("Q"+itoaSmall(i)), f, true, true, bank.LineClean)
	}
	c := bank.DefaultConstants()
	if got := finalize.Classify(fs, c); got != finalize.StateLit {
		t.Fatalf("Classify = %s, want LIT; ledger=%+v", got, fs)
	}
}

func TestClassifyGhostOnPerScreenCapBreach(t *testing.T) {
	fs := ledger.NewFaces([]bank.FaceID{"FACE/Control/Warden"})["FACE/Control/Warden"]
	// All 6 hits land on the same family: MFS=1.0 breaches PerScreenCap.
	for i := 0; i < 6; i++ {
		fs.Hit(bank.QID("Q"+itoaSmall(i)), "Control", true, true, bank.LineClean)
	}
	c := bank.DefaultConstants()
	if got := finalize.Classify(fs, c); got != finalize.StateGhost {
		t.Fatalf("Classify = %s, want GHOST (per-screen cap breach)", got)
	}
}

func itoaSmall(n int) string {
	return string(rune('0' + n))
}
