package finalize

import (
	"github.com/veridex/faceline/internal/detrand"
	"github.com/veridex/faceline/internal/ledger"
	"github.com/veridex/faceline/pkg/bank"
)

// resolveRep picks the representative face for one family's sibling pair.
// LIT beats everything; LEAN beats everything but LIT; non-GHOST beats
// GHOST; a true tie within any of those tiers falls through to tiebreak.
func resolveRep(stateA, stateB State, faceA, faceB bank.FaceID, ledgerA, ledgerB *ledger.FaceState, rng *detrand.Stream) bank.FaceID {
	if stateA == StateLit && stateB != StateLit {
		return faceA
	}
	if stateB == StateLit && stateA != StateLit {
		return faceB
	}
	if stateA == StateLit && stateB == StateLit {
		return tiebreak(faceA, faceB, ledgerA, ledgerB, rng)
	}
	if stateA == StateLean && stateB != StateLean {
		return faceA
	}
	if stateB == StateLean && stateA != StateLean {
		return faceB
	}
	if stateA == StateLean && stateB == StateLean {
		return tiebreak(faceA, faceB, ledgerA, ledgerB, rng)
	}
	aGhost, bGhost := stateA == StateGhost, stateB == StateGhost
	if aGhost != bGhost {
		if aGhost {
			return faceB
		}
		return faceA
	}
	return tiebreak(faceA, faceB, ledgerA, ledgerB, rng)
}

// tiebreak applies the discriminator cascade in order, falling all the way
// to a deterministic rng choice if every prior discriminator ties (which,
// since faceA and faceB are always distinct ids, the lexicographic step
// already prevents in practice).
func tiebreak(faceA, faceB bank.FaceID, a, b *ledger.FaceState, rng *detrand.Stream) bank.FaceID {
	if a.SignatureHits() != b.SignatureHits() {
		return higher(faceA, faceB, a.SignatureHits(), b.SignatureHits())
	}
	if a.Families() != b.Families() {
		return higher(faceA, faceB, a.Families(), b.Families())
	}
	if a.Context.Clean != b.Context.Clean {
		return higher(faceA, faceB, a.Context.Clean, b.Context.Clean)
	}
	if a.Context.Broken != b.Context.Broken {
		return lower(faceA, faceB, a.Context.Broken, b.Context.Broken)
	}
	mfsA, mfsB := a.MaxFamilyShare(), b.MaxFamilyShare()
	if mfsA != mfsB {
		return lowerF(faceA, faceB, mfsA, mfsB)
	}
	if faceA != faceB {
		if faceA < faceB {
			return faceA
		}
		return faceB
	}
	return detrand.Choice(rng, []bank.FaceID{faceA, faceB})
}

func higher(faceA, faceB bank.FaceID, a, b int) bank.FaceID {
	if a > b {
		return faceA
	}
	return faceB
}

func lower(faceA, faceB bank.FaceID, a, b int) bank.FaceID {
	if a < b {
		return faceA
	}
	return faceB
}

func lowerF(faceA, faceB bank.FaceID, a, b float64) bank.FaceID {
	if a < b {
		return faceA
	}
	return faceB
}

// CoPresent reports whether both siblings of a family share the same
// non-ABSENT state.
func CoPresent(stateA, stateB State) bool {
	return stateA == stateB && stateA != StateAbsent
}
