// Package testfixture builds a small, internally consistent Bank Package
// for use across the core packages' test suites, avoiding forty copies of
// the same fixture construction scattered across internal/schedule,
// internal/answer, internal/finalize, internal/replay, internal/session,
// internal/engine, and internal/api.
package testfixture

import (
	"testing"

	"github.com/veridex/faceline/pkg/bank"
)

// familySpec is the minimal authored description of one family's two
// siblings, used only to generate the fixture programmatically.
type familySpec struct {
	family   bank.Family
	qidPrefix string
	faceA, faceB string // short face names, combined with family into FaceIDs
}

var familySpecs = []familySpec{
	{"Control", "CTRL", "Warden", "Rebel"},
	{"Pace", "PACE", "Sprinter", "Anchor"},
	{"Boundary", "BND", "Sentinel", "Drifter"},
	{"Truth", "TRUTH", "Seeker", "Veil"},
	{"Recognition", "RECOG", "Beacon", "Shadow"},
	{"Bonding", "BOND", "Weaver", "Loner"},
	{"Stress", "STRESS", "Vault", "Spiral"},
}

func faceID(f bank.Family, name string) bank.FaceID {
	return bank.FaceID("FACE/" + string(f) + "/" + name)
}

func tellID(f bank.Family, name, suffix string) bank.TellID {
	return bank.TellID("TELL/" + string(f) + "/" + name + "/" + suffix)
}

// BalancedBank returns a 7-family, 14-face bank where each question's two
// options are symmetric (one tell for each sibling face, same lineCOF
// weight) so that an all-"A" or all-"B" answer run never structurally
// favors one sibling, exercising the tie-breakers in internal/finalize
// deterministically rather than by construction.
func BalancedBank(t testing.TB) *bank.Package {
	t.Helper()

	families := make([]bank.Family, len(familySpecs))
	faces := map[bank.FaceID]bank.FaceMeta{}
	familyFaces := map[bank.Family][2]bank.FaceID{}
	tells := map[bank.TellID]bank.TellMeta{}
	questions := map[bank.Family][3]bank.Question{}
	contrast := map[bank.Family]bank.ContrastEntry{}

	for i, spec := range familySpecs {
		families[i] = spec.family
		fa, fb := faceID(spec.family, spec.faceA), faceID(spec.family, spec.faceB)
		faces[fa] = bank.FaceMeta{Family: spec.family}
		faces[fb] = bank.FaceMeta{Family: spec.family}
		familyFaces[spec.family] = [2]bank.FaceID{fa, fb}

		slots := [3]bank.Slot{bank.SlotC, bank.SlotO, bank.SlotF}
		var qs [3]bank.Question
		for si, slot := range slots {
			tellA := tellID(spec.family, spec.faceA, []string{"c1", "o1", "f1"}[si])
			tellB := tellID(spec.family, spec.faceB, []string{"c1", "o1", "f1"}[si])
			tells[tellA] = bank.TellMeta{Face: fa, Contrast: slot == bank.SlotC}
			tells[tellB] = bank.TellMeta{Face: fb, Contrast: slot == bank.SlotC}

			line := bank.LineCOF(slot)
			qs[si] = bank.Question{
				QID:  bank.QID(spec.qidPrefix + "_Q" + qnum(si)),
				Slot: slot,
				Options: [2]bank.Option{
					{Key: "A", LineCOF: line, Tells: []bank.TellID{tellA}},
					{Key: "B", LineCOF: line, Tells: []bank.TellID{tellB}},
				},
			}
		}
		questions[spec.family] = qs

		contrast[spec.family] = bank.ContrastEntry{
			Family: spec.family,
			Faces:  [2]bank.FaceID{fa, fb},
			Tells: map[bank.FaceID][]bank.TellID{
				fa: {tellID(spec.family, spec.faceA, "c1")},
				fb: {tellID(spec.family, spec.faceB, "c1")},
			},
		}
	}

	meta := bank.Meta{
		BankID:           "fixture-bank",
		Version:          "1.0.0",
		ConstantsProfile: "default",
		BankHash:         "fixture-hash-not-load-verified",
		Signature:        "",
		SignedBy:         "",
	}

	return bank.NewPackage(meta, families, faces, familyFaces, tells, questions, bank.DefaultConstants(), contrast)
}

func qnum(slotIndex int) string {
	return []string{"1", "2", "3"}[slotIndex]
}
