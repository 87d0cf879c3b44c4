// Package schedule builds the deterministic, pick-aware question order
// presented to a session.
package schedule

import (
	"sort"

	"github.com/veridex/faceline/internal/corerr"
	"github.com/veridex/faceline/internal/detrand"
	"github.com/veridex/faceline/pkg/bank"
)

// Item is one scheduled question.
type Item struct {
	QID    bank.QID
	Family bank.Family
	Slot   bank.Slot
	// FamilyOrderIndex is this family's position in the deterministic
	// shuffled family order — internal/finalize's anchor selection (§4.11)
	// breaks ties by this position.
	FamilyOrderIndex int
}

// Build produces the ordered schedule for a set of picked families: the 7
// families are visited in an order shuffled by stream (one shuffle); each
// not-picked family contributes all 3 authored questions (C, O, F); each
// picked family contributes 2 (C, O — the F-slot is dropped); when no
// family is picked every family contributes 3 (total 21); when every
// family is picked every family contributes 2 (total 14).
//
// stream must be the session's single RNG stream (see internal/detrand):
// the family shuffle consumes part of it, and later operations (finalize's
// sibling tie-break) continue drawing from the same continuous sequence.
func Build(pkg *bank.Package, picks map[bank.Family]bool, stream *detrand.Stream) ([]Item, error) {
	if len(picks) > 7 {
		return nil, corerr.New(corerr.EPickCount, "more than 7 picked families")
	}
	known := pkg.Families()
	if len(known) != 7 {
		return nil, corerr.New(corerr.EBankDefect, "bank does not carry exactly 7 families")
	}
	seen := make(map[bank.Family]bool, len(known))
	for _, f := range known {
		seen[f] = true
	}
	for f := range picks {
		if !bank.ValidFamily(string(f)) {
			return nil, corerr.New(corerr.EInvalidFamily, "picked family has an invalid name: "+string(f))
		}
		if !seen[f] {
			return nil, corerr.New(corerr.EInvalidFamily, "picked family is not in the bank: "+string(f))
		}
	}

	order := known // already a defensive copy from pkg.Families()
	detrand.Shuffle(stream, order)

	var items []Item
	for idx, f := range order {
		questions, ok := pkg.Questions(f)
		if !ok {
			return nil, corerr.New(corerr.EBankDefect, "bank is missing questions for family "+string(f))
		}
		dropF := picks[f]
		for _, q := range questions {
			if q.Slot == bank.SlotF && dropF {
				continue
			}
			items = append(items, Item{QID: q.QID, Family: f, Slot: q.Slot, FamilyOrderIndex: idx})
		}
	}
	return items, nil
}

// Total returns the expected schedule size for a given number of picked
// families.
func Total(pickCount int) int {
	switch {
	case pickCount == 0:
		return 21
	case pickCount == 7:
		return 14
	default:
		return 21 - pickCount
	}
}

// SortedByFamilyOrder returns a copy of items sorted by FamilyOrderIndex.
// Nothing in this module calls it; the live schedule is presented in
// shuffle order.
func SortedByFamilyOrder(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FamilyOrderIndex < out[j].FamilyOrderIndex
	})
	return out
}

// FamilyOrder reconstructs the shuffled family visiting order Build used,
// by reading each item's FamilyOrderIndex. Anchor selection breaks ties by
// this same order, so it is recovered from the schedule rather than
// threaded through as a second return value.
func FamilyOrder(items []Item) []bank.Family {
	byIndex := map[int]bank.Family{}
	maxIdx := -1
	for _, it := range items {
		byIndex[it.FamilyOrderIndex] = it.Family
		if it.FamilyOrderIndex > maxIdx {
			maxIdx = it.FamilyOrderIndex
		}
	}
	out := make([]bank.Family, 0, maxIdx+1)
	for i := 0; i <= maxIdx; i++ {
		if f, ok := byIndex[i]; ok {
			out = append(out, f)
		}
	}
	return out
}
