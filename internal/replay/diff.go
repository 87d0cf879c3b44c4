package replay

import (
	"github.com/veridex/faceline/internal/finalize"
	"github.com/veridex/faceline/pkg/bank"
)

// FamilyDiff records where one family's result diverged between an
// expected and an actual snapshot. Zero-valued fields mean "that
// dimension matched" — the caller only ever sees the fields that differ.
type FamilyDiff struct {
	VerdictExpected, VerdictActual     string
	RepFaceExpected, RepFaceActual     string
	CoPresentExpected, CoPresentActual bool
	FaceStateDiff                      map[string][2]string // faceID -> [expected, actual]
}

// Diff is the structured mismatch report: what differed, family by
// family, plus the anchor.
type Diff struct {
	Families           map[string]FamilyDiff
	AnchorExpected      string
	AnchorActual        string
	AnchorDiffers        bool
}

// Compare builds a Diff between two snapshots. Callers only use this when
// the hashes already differ — a Diff is always non-empty when called that
// way, since equal snapshots hash equal.
func Compare(expected, actual *finalize.Snapshot) Diff {
	d := Diff{Families: map[string]FamilyDiff{}}

	expAnchor, actAnchor := "", ""
	if expected.AnchorFamily != nil {
		expAnchor = string(*expected.AnchorFamily)
	}
	if actual.AnchorFamily != nil {
		actAnchor = string(*actual.AnchorFamily)
	}
	if expAnchor != actAnchor {
		d.AnchorExpected = expAnchor
		d.AnchorActual = actAnchor
		d.AnchorDiffers = true
	}

	families := map[string]bool{}
	for f := range expected.Families {
		families[string(f)] = true
	}
	for f := range actual.Families {
		families[string(f)] = true
	}

	for fname := range families {
		var fd FamilyDiff
		differs := false

		ef, eok := expected.Families[bank.Family(fname)]
		af, aok := actual.Families[bank.Family(fname)]

		if !eok || !aok {
			differs = true
		} else {
			if ef.Verdict != af.Verdict {
				fd.VerdictExpected, fd.VerdictActual = string(ef.Verdict), string(af.Verdict)
				differs = true
			}
			if ef.RepFace != af.RepFace {
				fd.RepFaceExpected, fd.RepFaceActual = string(ef.RepFace), string(af.RepFace)
				differs = true
			}
			if ef.CoPresent != af.CoPresent {
				fd.CoPresentExpected, fd.CoPresentActual = ef.CoPresent, af.CoPresent
				differs = true
			}
			faceDiff := map[string][2]string{}
			faceIDs := map[string]bool{}
			for id := range ef.FaceStates {
				faceIDs[string(id)] = true
			}
			for id := range af.FaceStates {
				faceIDs[string(id)] = true
			}
			for idStr := range faceIDs {
				id := bank.FaceID(idStr)
				es, ok1 := ef.FaceStates[id]
				as, ok2 := af.FaceStates[id]
				if !ok1 || !ok2 || es != as {
					faceDiff[idStr] = [2]string{string(es), string(as)}
					differs = true
				}
			}
			if len(faceDiff) > 0 {
				fd.FaceStateDiff = faceDiff
			}
		}

		if differs {
			d.Families[fname] = fd
		}
	}

	return d
}
