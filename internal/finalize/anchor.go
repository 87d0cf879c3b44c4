package finalize

import "github.com/veridex/faceline/pkg/bank"

// selectAnchor picks the first family outside picks, scanning in the same
// shuffled order the schedule was built in, preferring a C verdict over O
// over F. Returns nil when every family was picked.
func selectAnchor(picks map[bank.Family]bool, order []bank.Family, families map[bank.Family]FamilyResult) *bank.Family {
	if len(picks) == len(order) {
		return nil
	}
	var best *bank.Family
	bestRank := -1
	for _, f := range order {
		if picks[f] {
			continue
		}
		r := verdictRank(families[f].Verdict)
		if best == nil || r < bestRank {
			candidate := f
			best = &candidate
			bestRank = r
		}
	}
	return best
}

func verdictRank(line bank.LineCOF) int {
	switch line {
	case bank.LineClean:
		return 0
	case bank.LineBent:
		return 1
	default:
		return 2
	}
}
