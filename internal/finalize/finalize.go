package finalize

import (
	"github.com/veridex/faceline/internal/corerr"
	"github.com/veridex/faceline/internal/detrand"
	"github.com/veridex/faceline/internal/ledger"
	"github.com/veridex/faceline/internal/schedule"
	"github.com/veridex/faceline/pkg/bank"
)

// Finalize computes the finalized snapshot for a completed session: per
// family, the line verdict, the two siblings' classified states, the
// resolved representative, and whether they co-present; then the anchor
// family; then the snapshot's own hash.
//
// rng must be the same stream the session has been drawing from — sibling
// tie-breaks that fall through every deterministic discriminator consume
// from it, continuing the sequence schedule.Build started.
func Finalize(pkg *bank.Package, picks map[bank.Family]bool, lines ledger.Lines, faces ledger.Faces, scheduleItems []schedule.Item, rng *detrand.Stream) (*Snapshot, error) {
	order := schedule.FamilyOrder(scheduleItems)
	constants := pkg.Constants()

	families := make(map[bank.Family]FamilyResult, len(order))
	for _, f := range order {
		ls, ok := lines[f]
		if !ok {
			return nil, corerr.New(corerr.EInternalInvariant, "no line state for family "+string(f))
		}
		ff, ok := pkg.FamilyFaces(f)
		if !ok {
			return nil, corerr.New(corerr.EInternalInvariant, "bank missing sibling faces for family "+string(f))
		}
		faceA, faceB := ff[0], ff[1]
		lA, ok := faces[faceA]
		if !ok {
			return nil, corerr.New(corerr.EInternalInvariant, "no face ledger for "+string(faceA))
		}
		lB, ok := faces[faceB]
		if !ok {
			return nil, corerr.New(corerr.EInternalInvariant, "no face ledger for "+string(faceB))
		}

		stateA := Classify(lA, constants)
		stateB := Classify(lB, constants)
		rep := resolveRep(stateA, stateB, faceA, faceB, lA, lB, rng)

		families[f] = FamilyResult{
			Family:    f,
			Verdict:   deriveVerdict(ls),
			RepFace:   rep,
			CoPresent: CoPresent(stateA, stateB),
			FaceStates: map[bank.FaceID]State{
				faceA: stateA,
				faceB: stateB,
			},
		}
	}

	anchor := selectAnchor(picks, order, families)

	snap := &Snapshot{
		BankHash:         pkg.Meta().BankHash,
		ConstantsProfile: pkg.Meta().ConstantsProfile,
		Families:         families,
		AnchorFamily:     anchor,
	}
	hash, err := snap.computeHash()
	if err != nil {
		return nil, err
	}
	snap.Hash = hash
	return snap, nil
}

// deriveVerdict derives a family's line verdict: F if any applied answer
// ever set F and nothing since cleared it, else O under the same rule,
// else C. The +1 C seed on picked families (internal/ledger.NewLines)
// guarantees this never falls below C for a picked family.
func deriveVerdict(ls *ledger.LineState) bank.LineCOF {
	if ls.FSeen() {
		return bank.LineBroken
	}
	if ls.OSeen() {
		return bank.LineBent
	}
	return bank.LineClean
}
