package schedule_test

import (
	"testing"

	"github.com/veridex/faceline/internal/detrand"
	"github.com/veridex/faceline/internal/schedule"
	"github.com/veridex/faceline/internal/testfixture"
	"github.com/veridex/faceline/pkg/bank"
)

func stream() *detrand.Stream {
	return detrand.New(detrand.DeriveSeed("seed-x", "hash-x", "default"))
}

func TestBuildSizeLaw(t *testing.T) {
	pkg := testfixture.BalancedBank(t)

	tests := []struct {
		name  string
		picks map[bank.Family]bool
		want  int
	}{
		{"no picks", map[bank.Family]bool{}, 21},
		{"one pick", map[bank.Family]bool{"Control": true}, 20},
		{"three picks", map[bank.Family]bool{"Control": true, "Pace": true, "Boundary": true}, 18},
		{"all picks", map[bank.Family]bool{
			"Control": true, "Pace": true, "Boundary": true, "Truth": true,
			"Recognition": true, "Bonding": true, "Stress": true,
		}, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := schedule.Build(pkg, tt.picks, stream())
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if len(items) != tt.want {
				t.Fatalf("got %d items, want %d", len(items), tt.want)
			}
			if want := schedule.Total(len(tt.picks)); len(items) != want {
				t.Fatalf("Total(%d)=%d disagrees with actual %d", len(tt.picks), want, len(items))
			}
		})
	}
}

func TestBuildPerFamilySlotCounts(t *testing.T) {
	pkg := testfixture.BalancedBank(t)
	picks := map[bank.Family]bool{"Control": true, "Pace": true}

	items, err := schedule.Build(pkg, picks, stream())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	counts := map[bank.Family]int{}
	hasF := map[bank.Family]bool{}
	for _, it := range items {
		counts[it.Family]++
		if it.Slot == bank.SlotF {
			hasF[it.Family] = true
		}
	}

	for _, f := range pkg.Families() {
		if picks[f] {
			if counts[f] != 2 {
				t.Errorf("picked family %s has %d questions, want 2", f, counts[f])
			}
			if hasF[f] {
				t.Errorf("picked family %s retained its F-slot question", f)
			}
		} else {
			if counts[f] != 3 {
				t.Errorf("unpicked family %s has %d questions, want 3", f, counts[f])
			}
		}
	}
}

func TestBuildRejectsUnknownFamily(t *testing.T) {
	pkg := testfixture.BalancedBank(t)
	_, err := schedule.Build(pkg, map[bank.Family]bool{"Imaginary": true}, stream())
	if err == nil {
		t.Fatal("expected error for unknown family")
	}
}

func TestBuildDeterministicAcrossRuns(t *testing.T) {
	pkg := testfixture.BalancedBank(t)
	picks := map[bank.Family]bool{"Control": true}

	a, err := schedule.Build(pkg, picks, stream())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b, err := schedule.Build(pkg, picks, stream())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("schedule diverged at index %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}
