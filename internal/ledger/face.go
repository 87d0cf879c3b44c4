package ledger

import "github.com/veridex/faceline/pkg/bank"

// ContextCounts tallies how many tell instances for a face occurred under
// each line tag, counted once per tell instance (not once per question).
type ContextCounts struct {
	Clean  int
	Bent   int
	Broken int
}

// FaceState is one face's aggregated evidence ledger. Every set-valued
// field (questions hit, families hit, signature qids) is backed by a
// count map rather than a plain set, so that Unhit can remove exactly the
// contribution of one reverted answer without disturbing a count still
// held up by a different accepted answer.
type FaceState struct {
	QuestionsHit    map[bank.QID]int
	PerFamilyCounts map[bank.Family]int
	SignatureQIDs   map[bank.QID]int
	Context         ContextCounts
	ContrastCount   int
}

func newFaceState() *FaceState {
	return &FaceState{
		QuestionsHit:    map[bank.QID]int{},
		PerFamilyCounts: map[bank.Family]int{},
		SignatureQIDs:   map[bank.QID]int{},
	}
}

// Questions returns the number of distinct questions currently hitting this face.
func (f *FaceState) Questions() int { return len(f.QuestionsHit) }

// Families returns the number of distinct families currently hitting this face.
func (f *FaceState) Families() int { return len(f.PerFamilyCounts) }

// SignatureHits returns the number of distinct qids where the tell occurred
// on this face's own family screen.
func (f *FaceState) SignatureHits() int { return len(f.SignatureQIDs) }

// Contrast reports whether any currently-applied tell instance is a contrast tell.
func (f *FaceState) Contrast() bool { return f.ContrastCount > 0 }

// MaxFamilyShare returns max(per_family_counts) / total tell instances, or 0
// when no tell instance has been recorded yet.
func (f *FaceState) MaxFamilyShare() float64 {
	total := f.Context.Clean + f.Context.Bent + f.Context.Broken
	if total == 0 {
		return 0
	}
	max := 0
	for _, c := range f.PerFamilyCounts {
		if c > max {
			max = c
		}
	}
	return float64(max) / float64(total)
}

// Hit records one tell instance for this face, produced by qid on the given
// screen family. Unhit is its exact inverse; calling Unhit with the same
// arguments used for a prior Hit always restores the pre-Hit state.
func (f *FaceState) Hit(qid bank.QID, screenFamily bank.Family, signature, contrast bool, line bank.LineCOF) {
	bumpCount(f.QuestionsHit, qid)
	bumpCount(f.PerFamilyCounts, screenFamily)
	if signature {
		bumpCount(f.SignatureQIDs, qid)
	}
	if contrast {
		f.ContrastCount++
	}
	bumpContext(&f.Context, line)
}

func (f *FaceState) Unhit(qid bank.QID, screenFamily bank.Family, signature, contrast bool, line bank.LineCOF) {
	dropCount(f.QuestionsHit, qid)
	dropCount(f.PerFamilyCounts, screenFamily)
	if signature {
		dropCount(f.SignatureQIDs, qid)
	}
	if contrast && f.ContrastCount > 0 {
		f.ContrastCount--
	}
	dropContext(&f.Context, line)
}

func bumpCount[K comparable](m map[K]int, k K) { m[k]++ }

func dropCount[K comparable](m map[K]int, k K) {
	if m[k] <= 1 {
		delete(m, k)
		return
	}
	m[k]--
}

func bumpContext(c *ContextCounts, line bank.LineCOF) {
	switch line {
	case bank.LineClean:
		c.Clean++
	case bank.LineBent:
		c.Bent++
	case bank.LineBroken:
		c.Broken++
	}
}

func dropContext(c *ContextCounts, line bank.LineCOF) {
	switch line {
	case bank.LineClean:
		if c.Clean > 0 {
			c.Clean--
		}
	case bank.LineBent:
		if c.Bent > 0 {
			c.Bent--
		}
	case bank.LineBroken:
		if c.Broken > 0 {
			c.Broken--
		}
	}
}

// Faces is the per-face ledger for one session, keyed by face id.
type Faces map[bank.FaceID]*FaceState

// NewFaces seeds an empty ledger entry for every face the bank knows about.
func NewFaces(allFaces []bank.FaceID) Faces {
	out := make(Faces, len(allFaces))
	for _, id := range allFaces {
		out[id] = newFaceState()
	}
	return out
}
