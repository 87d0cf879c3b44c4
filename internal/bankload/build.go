package bankload

import (
	"github.com/veridex/faceline/internal/corerr"
	"github.com/veridex/faceline/pkg/bank"
)

// build validates the structural invariants of the wire artifact and
// assembles the frozen bank.Package. Any violation is E_BANK_DEFECT.
func build(art wireArtifact) (*bank.Package, error) {
	families, err := buildFamilies(art.Registries.Families)
	if err != nil {
		return nil, err
	}

	faces, familyFaces, err := buildFaces(families, art.Registries.Faces)
	if err != nil {
		return nil, err
	}

	tells, err := buildTells(faces, art.Registries.Tells)
	if err != nil {
		return nil, err
	}

	questions, err := buildQuestions(families, tells, faces, art.Questions)
	if err != nil {
		return nil, err
	}

	contrast, err := buildContrast(familyFaces, tells, art.Registries.ContrastMatrix)
	if err != nil {
		return nil, err
	}

	meta := bank.Meta{
		BankID:           art.Meta.BankID,
		Version:          art.Meta.Version,
		ConstantsProfile: art.Meta.ConstantsProfile,
		BankHash:         art.Meta.BankHash,
		Signature:        art.Meta.Signature,
		SignedBy:         art.Meta.SignedBy,
	}
	constants := bank.Constants{
		LitMinQuestions:   art.Constants.LitMinQuestions,
		LitMinFamilies:    art.Constants.LitMinFamilies,
		LitMinSignature:   art.Constants.LitMinSignature,
		LitMinClean:       art.Constants.LitMinClean,
		LitMaxBroken:      art.Constants.LitMaxBroken,
		PerScreenCap:      float64(art.Constants.PerScreenCapPct) / 100.0,
		LeanMinQuestions:  art.Constants.LeanMinQuestions,
		LeanMinFamilies:   art.Constants.LeanMinFamilies,
		LeanMinSignature:  art.Constants.LeanMinSignature,
		LeanMinClean:      art.Constants.LeanMinClean,
		GhostMinQuestions: art.Constants.GhostMinQuestions,
		GhostMaxFamilies:  art.Constants.GhostMaxFamilies,
		ColdMinQuestions:  art.Constants.ColdMinQuestions,
		ColdMaxQuestions:  art.Constants.ColdMaxQuestions,
		ColdMinFamilies:   art.Constants.ColdMinFamilies,
	}

	return bank.NewPackage(meta, families, faces, familyFaces, tells, questions, constants, contrast), nil
}

func buildFamilies(raw []string) ([]bank.Family, error) {
	if len(raw) != 7 {
		return nil, corerr.New(corerr.EBankDefect, "bank does not declare exactly 7 families")
	}
	seen := make(map[bank.Family]bool, 7)
	out := make([]bank.Family, len(raw))
	for i, name := range raw {
		if !bank.ValidFamily(name) {
			return nil, corerr.New(corerr.EBankDefect, "invalid family name: "+name)
		}
		f := bank.Family(name)
		if seen[f] {
			return nil, corerr.New(corerr.EBankDefect, "duplicate family in registry: "+name)
		}
		seen[f] = true
		out[i] = f
	}
	return out, nil
}

func buildFaces(families []bank.Family, raw map[string]wireFace) (map[bank.FaceID]bank.FaceMeta, map[bank.Family][2]bank.FaceID, error) {
	if len(raw) != 14 {
		return nil, nil, corerr.New(corerr.EBankDefect, "bank does not declare exactly 14 faces")
	}
	known := make(map[bank.Family]bool, len(families))
	for _, f := range families {
		known[f] = true
	}

	faces := make(map[bank.FaceID]bank.FaceMeta, len(raw))
	perFamily := make(map[bank.Family][]bank.FaceID, len(families))
	for id, wf := range raw {
		if !bank.ValidFace(id) {
			return nil, nil, corerr.New(corerr.EBankDefect, "invalid face id: "+id)
		}
		family := bank.Family(wf.Family)
		if !known[family] {
			return nil, nil, corerr.New(corerr.EBankDefect, "face belongs to unknown family: "+id)
		}
		fid := bank.FaceID(id)
		faces[fid] = bank.FaceMeta{Family: family}
		perFamily[family] = append(perFamily[family], fid)
	}

	familyFaces := make(map[bank.Family][2]bank.FaceID, len(families))
	for _, f := range families {
		siblings := perFamily[f]
		if len(siblings) != 2 {
			return nil, nil, corerr.New(corerr.EBankDefect, "family does not have exactly 2 faces: "+string(f))
		}
		familyFaces[f] = [2]bank.FaceID{siblings[0], siblings[1]}
	}
	return faces, familyFaces, nil
}

func buildTells(faces map[bank.FaceID]bank.FaceMeta, raw map[string]wireTell) (map[bank.TellID]bank.TellMeta, error) {
	tells := make(map[bank.TellID]bank.TellMeta, len(raw))
	for id, wt := range raw {
		if !bank.ValidTell(id) {
			return nil, corerr.New(corerr.EBankDefect, "invalid tell id: "+id)
		}
		face := bank.FaceID(wt.Face)
		if _, ok := faces[face]; !ok {
			return nil, corerr.New(corerr.EBankDefect, "tell owned by unknown face: "+id)
		}
		tells[bank.TellID(id)] = bank.TellMeta{Face: face, Contrast: wt.Contrast}
	}
	return tells, nil
}

func buildQuestions(families []bank.Family, tells map[bank.TellID]bank.TellMeta, faces map[bank.FaceID]bank.FaceMeta, raw map[string][]wireQuestion) (map[bank.Family][3]bank.Question, error) {
	out := make(map[bank.Family][3]bank.Question, len(families))
	wantSlots := [3]bank.Slot{bank.SlotC, bank.SlotO, bank.SlotF}

	for _, f := range families {
		wqs, ok := raw[string(f)]
		if !ok || len(wqs) != 3 {
			return nil, corerr.New(corerr.EBankDefect, "family does not have exactly 3 questions: "+string(f))
		}
		var qs [3]bank.Question
		for i, wq := range wqs {
			if !bank.ValidQID(wq.QID) {
				return nil, corerr.New(corerr.EBankDefect, "invalid qid: "+wq.QID)
			}
			slot := bank.Slot(wq.Slot)
			if slot != wantSlots[i] {
				return nil, corerr.New(corerr.EBankDefect, "question out of C/O/F order in family "+string(f))
			}
			opts, err := buildOptions(tells, faces, wq.Options)
			if err != nil {
				return nil, err
			}
			qs[i] = bank.Question{QID: bank.QID(wq.QID), Slot: slot, Options: opts}
		}
		out[f] = qs
	}
	return out, nil
}

func buildOptions(tells map[bank.TellID]bank.TellMeta, faces map[bank.FaceID]bank.FaceMeta, raw []wireOption) ([2]bank.Option, error) {
	var out [2]bank.Option
	if len(raw) != 2 {
		return out, corerr.New(corerr.EBankDefect, "question does not have exactly 2 options")
	}
	for i, wo := range raw {
		if len(wo.Tells) > 3 {
			return out, corerr.New(corerr.EBankDefect, "option carries more than 3 tells")
		}
		line := bank.LineCOF(wo.LineCOF)
		if line != bank.LineClean && line != bank.LineBent && line != bank.LineBroken {
			return out, corerr.New(corerr.EBankDefect, "option has invalid lineCOF: "+wo.LineCOF)
		}
		seenFace := map[bank.FaceID]bool{}
		tellIDs := make([]bank.TellID, len(wo.Tells))
		for j, tid := range wo.Tells {
			tm, ok := tells[bank.TellID(tid)]
			if !ok {
				return out, corerr.New(corerr.EBankDefect, "option references unknown tell: "+tid)
			}
			if seenFace[tm.Face] {
				return out, corerr.New(corerr.EBankDefect, "option carries more than one tell for face "+string(tm.Face))
			}
			seenFace[tm.Face] = true
			tellIDs[j] = bank.TellID(tid)
		}
		out[i] = bank.Option{Key: wo.Key, LineCOF: line, Tells: tellIDs}
	}
	return out, nil
}

func buildContrast(familyFaces map[bank.Family][2]bank.FaceID, tells map[bank.TellID]bank.TellMeta, raw map[string]wireContrastEntry) (map[bank.Family]bank.ContrastEntry, error) {
	out := make(map[bank.Family]bank.ContrastEntry, len(raw))
	for familyName, wc := range raw {
		family := bank.Family(familyName)
		if _, ok := familyFaces[family]; !ok {
			return nil, corerr.New(corerr.EBankDefect, "contrast matrix references unknown family: "+familyName)
		}
		faces := [2]bank.FaceID{bank.FaceID(wc.Faces[0]), bank.FaceID(wc.Faces[1])}
		tellsByFace := make(map[bank.FaceID][]bank.TellID, len(wc.Tells))
		for faceID, ids := range wc.Tells {
			list := make([]bank.TellID, len(ids))
			for i, id := range ids {
				if _, ok := tells[bank.TellID(id)]; !ok {
					return nil, corerr.New(corerr.EBankDefect, "contrast matrix references unknown tell: "+id)
				}
				list[i] = bank.TellID(id)
			}
			tellsByFace[bank.FaceID(faceID)] = list
		}
		out[family] = bank.ContrastEntry{Family: family, Faces: faces, Tells: tellsByFace}
	}
	return out, nil
}
