package replay

import (
	"github.com/veridex/faceline/internal/answer"
	"github.com/veridex/faceline/internal/bankload"
	"github.com/veridex/faceline/internal/corerr"
	"github.com/veridex/faceline/internal/detrand"
	"github.com/veridex/faceline/internal/finalize"
	"github.com/veridex/faceline/internal/ledger"
	"github.com/veridex/faceline/internal/schedule"
	"github.com/veridex/faceline/pkg/bank"
)

// Verdict is the outcome of comparing a replayed snapshot hash against an
// expected one.
type Verdict string

const (
	VerdictMatch    Verdict = "MATCH"
	VerdictMismatch Verdict = "MISMATCH"
	// VerdictUnverified means no expected hash was supplied to compare
	// against — the replay still ran and produced a snapshot, but nothing
	// was asserted about it.
	VerdictUnverified Verdict = "UNVERIFIED"
)

// Result is the replay harness's report for one descriptor.
type Result struct {
	Snapshot     *finalize.Snapshot
	ExpectedHash string
	Verdict      Verdict
	Diff         Diff // only populated on MISMATCH when ExpectedSnapshot was supplied
}

// Harness reconstructs sessions from replay descriptors using the same
// bank registry a live engine draws from, so a replay always sees exactly
// the bank bytes the original session did.
type Harness struct {
	Banks *bankload.Registry
}

// Run replays a descriptor end to end: load bank by hash, rebuild the
// schedule, fold every answer (later entries for a repeated qid replace
// earlier ones, exactly as a live session's idempotent submit does),
// finalize, and hash. If expectedSnapshot is non-nil and the hashes
// differ, Run also computes a structured diff.
func (h *Harness) Run(d Descriptor, expectedHash string, expectedSnapshot *finalize.Snapshot) (*Result, error) {
	if d.Schema != "replay.v1" {
		return nil, corerr.New(corerr.EBankDefect, "unsupported replay descriptor schema: "+d.Schema)
	}
	pkg, err := h.Banks.Get(d.BankHashSHA256)
	if err != nil {
		return nil, err
	}
	if pkg.Meta().ConstantsProfile != d.ConstantsProfile {
		return nil, corerr.New(corerr.EBankVersionMismatch, "descriptor constants_profile does not match the loaded bank's")
	}

	picks := make(map[bank.Family]bool, len(d.Picks))
	for _, f := range d.Picks {
		picks[f] = true
	}

	rng := detrand.New(detrand.DeriveSeed(d.SessionSeed, d.BankHashSHA256, d.ConstantsProfile))
	items, err := schedule.Build(pkg, picks, rng)
	if err != nil {
		return nil, err
	}

	scheduled := make(map[bank.QID]bool, len(items))
	for _, it := range items {
		scheduled[it.QID] = true
	}

	lines := ledger.NewLines(pkg.Families(), picks)
	faces := ledger.NewFaces(pkg.AllFaces())
	deltas := make(map[bank.QID]answer.Delta, len(items))

	for _, step := range d.Answers {
		if !scheduled[step.QID] {
			return nil, corerr.New(corerr.EBadQID, "qid is not in this session's schedule: "+string(step.QID))
		}
		if prior, ok := deltas[step.QID]; ok {
			answer.Revert(lines, faces, prior)
			delete(deltas, step.QID)
		}
		delta, err := answer.Apply(pkg, lines, faces, step.QID, step.Key)
		if err != nil {
			return nil, err
		}
		deltas[step.QID] = delta
	}

	if len(deltas) != len(items) {
		return nil, corerr.New(corerr.EIncompleteQuiz, "replay descriptor does not answer every scheduled question")
	}

	snap, err := finalize.Finalize(pkg, picks, lines, faces, items, rng)
	if err != nil {
		return nil, err
	}

	result := &Result{Snapshot: snap, ExpectedHash: expectedHash, Verdict: VerdictUnverified}
	if expectedHash != "" {
		if snap.Hash == expectedHash {
			result.Verdict = VerdictMatch
		} else {
			result.Verdict = VerdictMismatch
			if expectedSnapshot != nil {
				result.Diff = Compare(expectedSnapshot, snap)
			}
		}
	}
	return result, nil
}
