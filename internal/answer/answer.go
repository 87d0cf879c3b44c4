// Package answer applies and reverts a single submitted answer's effect on
// a session's line state and face ledger, recording exactly what it did so
// reversion is strict subtraction rather than recomputation.
package answer

import (
	"github.com/veridex/faceline/internal/corerr"
	"github.com/veridex/faceline/internal/ledger"
	"github.com/veridex/faceline/pkg/bank"
)

// FaceHit is the delta one answer's chosen option applied to a single face.
type FaceHit struct {
	Face      bank.FaceID
	Signature bool
	Contrast  bool
}

// Delta is the full, replayable effect of one submitted answer. Apply
// returns it; Revert consumes it and undoes exactly what was recorded,
// independent of any later mutation to the bank or ledger shape.
type Delta struct {
	QID    bank.QID
	Family bank.Family
	Line   bank.LineCOF
	Faces  []FaceHit
}

// Apply folds the chosen option of qid into lines and faces, returning the
// delta that exactly reverses the effect.
func Apply(pkg *bank.Package, lines ledger.Lines, faces ledger.Faces, qid bank.QID, optionKey string) (Delta, error) {
	family, opt, err := resolve(pkg, qid, optionKey)
	if err != nil {
		return Delta{}, err
	}

	ls, ok := lines[family]
	if !ok {
		return Delta{}, corerr.New(corerr.EInternalInvariant, "no line state for family "+string(family))
	}
	ls.Apply(opt.LineCOF)

	d := Delta{QID: qid, Family: family, Line: opt.LineCOF}
	for _, tellID := range opt.Tells {
		hit, err := resolveHit(pkg, family, tellID)
		if err != nil {
			return Delta{}, err
		}
		fs, ok := faces[hit.Face]
		if !ok {
			return Delta{}, corerr.New(corerr.EInternalInvariant, "no face ledger for "+string(hit.Face))
		}
		fs.Hit(qid, family, hit.Signature, hit.Contrast, opt.LineCOF)
		d.Faces = append(d.Faces, hit)
	}
	return d, nil
}

// Revert undoes exactly the effect Delta recorded.
func Revert(lines ledger.Lines, faces ledger.Faces, d Delta) {
	if ls, ok := lines[d.Family]; ok {
		ls.Revert(d.Line)
	}
	for _, hit := range d.Faces {
		if fs, ok := faces[hit.Face]; ok {
			fs.Unhit(d.QID, d.Family, hit.Signature, hit.Contrast, d.Line)
		}
	}
}

func resolve(pkg *bank.Package, qid bank.QID, optionKey string) (bank.Family, bank.Option, error) {
	family, q, ok := pkg.FindQuestion(qid)
	if !ok {
		return "", bank.Option{}, corerr.New(corerr.EBadQID, "unknown qid: "+string(qid))
	}
	for _, opt := range q.Options {
		if opt.Key == optionKey {
			return family, opt, nil
		}
	}
	return "", bank.Option{}, corerr.New(corerr.EInvalidOption, "unknown option key "+optionKey+" for "+string(qid))
}

func resolveHit(pkg *bank.Package, screenFamily bank.Family, tellID bank.TellID) (FaceHit, error) {
	tm, ok := pkg.Tell(tellID)
	if !ok {
		return FaceHit{}, corerr.New(corerr.EInternalInvariant, "bank references unknown tell "+string(tellID))
	}
	fm, ok := pkg.Face(tm.Face)
	if !ok {
		return FaceHit{}, corerr.New(corerr.EInternalInvariant, "tell owned by unknown face "+string(tm.Face))
	}
	return FaceHit{
		Face:      tm.Face,
		Signature: fm.Family == screenFamily,
		Contrast:  tm.Contrast,
	}, nil
}
