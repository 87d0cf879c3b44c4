package finalize

import (
	"github.com/veridex/faceline/internal/canon"
	"github.com/veridex/faceline/pkg/bank"
)

// FamilyResult is one family's finalized outcome: its line verdict, the
// resolved representative face, whether both siblings share the same
// non-ABSENT state, and each sibling's classified state.
type FamilyResult struct {
	Family     bank.Family
	Verdict    bank.LineCOF
	RepFace    bank.FaceID
	CoPresent  bool
	FaceStates map[bank.FaceID]State
}

// Snapshot is the immutable, hashable result of finalizing a session.
type Snapshot struct {
	BankHash         string
	ConstantsProfile string
	Families         map[bank.Family]FamilyResult
	AnchorFamily     *bank.Family
	Hash             string
}

func (s *Snapshot) toNode() canon.Node {
	familiesNode := make(map[string]canon.Node, len(s.Families))
	for f, r := range s.Families {
		faceStates := make(map[string]canon.Node, len(r.FaceStates))
		for faceID, st := range r.FaceStates {
			faceStates[string(faceID)] = canon.String(string(st))
		}
		familiesNode[string(f)] = canon.Map(map[string]canon.Node{
			"verdict":    canon.String(string(r.Verdict)),
			"repFace":    canon.String(string(r.RepFace)),
			"coPresent":  canon.Bool(r.CoPresent),
			"faceStates": canon.Map(faceStates),
		})
	}

	anchor := canon.Null()
	if s.AnchorFamily != nil {
		anchor = canon.String(string(*s.AnchorFamily))
	}

	return canon.Map(map[string]canon.Node{
		"bankHash":         canon.String(s.BankHash),
		"constantsProfile": canon.String(s.ConstantsProfile),
		"families":         canon.Map(familiesNode),
		"anchorFamily":     anchor,
	})
}

// computeHash returns the canonical SHA-256 hash of the snapshot, computed
// before Hash itself is populated (Hash is not part of its own input).
func (s *Snapshot) computeHash() (string, error) {
	return canon.Hash(s.toNode())
}
