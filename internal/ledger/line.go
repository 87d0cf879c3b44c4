// Package ledger implements the per-family line aggregator and the
// per-face ledger: the two counters every applied answer folds into, and
// that finalize later reads to derive verdicts and presence states.
package ledger

import "github.com/veridex/faceline/pkg/bank"

// LineState is one family's aggregated line counters. OCount/FCount track
// how many currently-accepted answers set O/Bent or F/Broken respectively,
// so that reversion can recompute OSeen/FSeen as "count > 0" instead of
// clearing a flag outright and potentially erasing a still-valid signal
// from a different answer in the same family.
type LineState struct {
	C      int
	OCount int
	FCount int
}

func (l LineState) OSeen() bool { return l.OCount > 0 }
func (l LineState) FSeen() bool { return l.FCount > 0 }

// Apply folds one accepted answer's line tag into the family's counters.
// Revert is its exact inverse.
func (l *LineState) Apply(line bank.LineCOF) {
	switch line {
	case bank.LineClean:
		l.C++
	case bank.LineBent:
		l.OCount++
	case bank.LineBroken:
		l.FCount++
	}
}

func (l *LineState) Revert(line bank.LineCOF) {
	switch line {
	case bank.LineClean:
		if l.C > 0 {
			l.C--
		}
	case bank.LineBent:
		if l.OCount > 0 {
			l.OCount--
		}
	case bank.LineBroken:
		if l.FCount > 0 {
			l.FCount--
		}
	}
}

// Lines is the per-family line state for one session.
type Lines map[bank.Family]*LineState

// NewLines seeds +1 C for every picked family — the seed that guarantees a
// picked family never falls below a C verdict.
func NewLines(families []bank.Family, picks map[bank.Family]bool) Lines {
	l := make(Lines, len(families))
	for _, f := range families {
		ls := &LineState{}
		if picks[f] {
			ls.C = 1
		}
		l[f] = ls
	}
	return l
}
