// Package finalize derives line verdicts and face presence states from a
// session's ledger, resolves each family's representative face, selects
// the anchor family, and assembles the resulting snapshot.
package finalize

import (
	"github.com/veridex/faceline/internal/ledger"
	"github.com/veridex/faceline/pkg/bank"
)

// State is a face's classified presence in the finalized snapshot.
type State string

const (
	StateLit    State = "LIT"
	StateLean   State = "LEAN"
	StateGhost  State = "GHOST"
	StateCold   State = "COLD"
	StateAbsent State = "ABSENT"
)

// Classify derives a face's state from its ledger against the threshold
// lattice, first match wins: LIT, then LEAN, then GHOST, then COLD, then
// ABSENT.
func Classify(fs *ledger.FaceState, c bank.Constants) State {
	q := fs.Questions()
	f := fs.Families()
	s := fs.SignatureHits()
	clean, broken := fs.Context.Clean, fs.Context.Broken
	mfs := fs.MaxFamilyShare()
	ctr := fs.Contrast()

	if q >= c.LitMinQuestions && f >= c.LitMinFamilies && s >= c.LitMinSignature &&
		clean >= c.LitMinClean && broken <= c.LitMaxBroken && broken < clean &&
		mfs <= c.PerScreenCap && ctr {
		return StateLit
	}
	if q >= c.LeanMinQuestions && f >= c.LeanMinFamilies && s >= c.LeanMinSignature &&
		clean >= c.LeanMinClean && broken < clean {
		return StateLean
	}
	if (q >= c.GhostMinQuestions && f <= c.GhostMaxFamilies) ||
		(broken >= clean && q >= c.LeanMinQuestions) ||
		(mfs > c.PerScreenCap && q >= c.LeanMinQuestions) {
		return StateGhost
	}
	if q >= c.ColdMinQuestions && q <= c.ColdMaxQuestions && f >= c.ColdMinFamilies {
		return StateCold
	}
	return StateAbsent
}
