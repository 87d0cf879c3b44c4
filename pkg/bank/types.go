// Package bank defines the wire shape of the Bank Package artifact and the
// frozen in-memory value it is loaded into.
package bank

import "regexp"

// Family is one of the seven canonical family names.
type Family string

// CanonicalFamilyOrder is the authored order families appear in the bank.
// The schedule builder's family shuffle (internal/detrand + internal/schedule)
// permutes a copy of the loaded bank's own family list (Package.Families),
// not this slice.
var CanonicalFamilyOrder = []Family{
	"Control", "Pace", "Boundary", "Truth", "Recognition", "Bonding", "Stress",
}

// FaceID identifies one of the fourteen sibling archetypes, e.g. "FACE/Control/Warden".
type FaceID string

// TellID identifies an atomic evidence unit owned by exactly one face.
type TellID string

// QID identifies one authored question, e.g. "CTRL_Q1".
type QID string

// LineCOF is an option's line tag.
type LineCOF string

const (
	LineClean  LineCOF = "C"
	LineBent   LineCOF = "O"
	LineBroken LineCOF = "F"
)

// Slot is a question's authored position within its family.
type Slot string

const (
	SlotC Slot = "C"
	SlotO Slot = "O"
	SlotF Slot = "F"
)

var (
	familyPattern = regexp.MustCompile(`^[A-Z][a-z]+$`)
	facePattern   = regexp.MustCompile(`^FACE/[A-Z][a-z]+/[A-Z][a-z]+$`)
	tellPattern   = regexp.MustCompile(`^TELL/[A-Z][a-z]+/[A-Z][a-z]+/[a-z][a-z0-9-]*$`)
	qidPattern    = regexp.MustCompile(`^[A-Z]{3,8}_Q[1-3]$`)
)

// ValidFamily reports whether name matches the family identifier convention.
func ValidFamily(name string) bool { return familyPattern.MatchString(name) }

// ValidFace reports whether id matches the face identifier convention.
func ValidFace(id string) bool { return facePattern.MatchString(id) }

// ValidTell reports whether id matches the tell identifier convention.
func ValidTell(id string) bool { return tellPattern.MatchString(id) }

// ValidQID reports whether id matches the question identifier convention.
func ValidQID(id string) bool { return qidPattern.MatchString(id) }

// Meta carries the bank's trust-root metadata.
type Meta struct {
	BankID           string `json:"bankId"`
	Version          string `json:"version"`
	ConstantsProfile string `json:"constantsProfile"`
	BankHash         string `json:"bankHash"`
	Signature        string `json:"signature"`
	SignedBy         string `json:"signedBy"`
}

// Option is one of a question's two answer choices.
type Option struct {
	Key     string    `json:"key"`
	LineCOF LineCOF   `json:"lineCOF"`
	Tells   []TellID  `json:"tells"`
}

// Question is one authored question within a family's three-question set.
type Question struct {
	QID     QID       `json:"qid"`
	Slot    Slot      `json:"slot"`
	Options [2]Option `json:"options"`
}

// FaceMeta describes a face's static membership.
type FaceMeta struct {
	Family Family `json:"family"`
}

// TellMeta describes a tell's static ownership.
type TellMeta struct {
	Face     FaceID `json:"face"`
	Contrast bool   `json:"contrast"`
}

// Constants is the threshold lattice driving face-state classification.
// internal/bankload fills every field from the artifact's constants block;
// DefaultConstants returns the documented defaults. No constants-profile
// override is applied at load time.
type Constants struct {
	LitMinQuestions  int     `json:"litMinQuestions"`
	LitMinFamilies   int     `json:"litMinFamilies"`
	LitMinSignature  int     `json:"litMinSignature"`
	LitMinClean      int     `json:"litMinClean"`
	LitMaxBroken     int     `json:"litMaxBroken"`
	PerScreenCap     float64 `json:"perScreenCap"`
	LeanMinQuestions int     `json:"leanMinQuestions"`
	LeanMinFamilies  int     `json:"leanMinFamilies"`
	LeanMinSignature int     `json:"leanMinSignature"`
	LeanMinClean     int     `json:"leanMinClean"`
	GhostMinQuestions int    `json:"ghostMinQuestions"`
	GhostMaxFamilies  int    `json:"ghostMaxFamilies"`
	ColdMinQuestions  int    `json:"coldMinQuestions"`
	ColdMaxQuestions  int    `json:"coldMaxQuestions"`
	ColdMinFamilies   int    `json:"coldMinFamilies"`
}

// DefaultConstants returns the documented default threshold lattice.
func DefaultConstants() Constants {
	return Constants{
		LitMinQuestions:   6,
		LitMinFamilies:    4,
		LitMinSignature:   2,
		LitMinClean:       4,
		LitMaxBroken:      1,
		PerScreenCap:      0.40,
		LeanMinQuestions:  4,
		LeanMinFamilies:   3,
		LeanMinSignature:  1,
		LeanMinClean:      2,
		GhostMinQuestions: 6,
		GhostMaxFamilies:  2,
		ColdMinQuestions:  2,
		ColdMaxQuestions:  3,
		ColdMinFamilies:   2,
	}
}

// ContrastEntry names the two contrast-bearing faces of a family and the
// tell sets that count as contrast for each.
type ContrastEntry struct {
	Family Family                `json:"family"`
	Faces  [2]FaceID             `json:"faces"`
	Tells  map[FaceID][]TellID   `json:"tells"`
}

// Package is the frozen Bank Package. Every field is unexported; callers
// reach the contents only through accessor methods. Families and AllFaces
// return fresh slices. Questions, FindQuestion and Contrast return copies
// of their structs, but the Tells slices and maps inside them share storage
// with the bank and are not protected against mutation through an alias.
// The zero value is not usable — obtain one via internal/bankload.Load
// (or NewPackage, for an in-process fixture).
type Package struct {
	meta           Meta
	families       []Family
	faces          map[FaceID]FaceMeta
	familyFaces    map[Family][2]FaceID
	tells          map[TellID]TellMeta
	questions      map[Family][3]Question
	constants      Constants
	contrastMatrix map[Family]ContrastEntry
}

// NewPackage is used by internal/bankload after validation succeeds, and by
// internal/testfixture to build an unvalidated fixture. It takes ownership
// of the maps/slices passed in — callers must not retain references to
// them afterward.
func NewPackage(
	meta Meta,
	families []Family,
	faces map[FaceID]FaceMeta,
	familyFaces map[Family][2]FaceID,
	tells map[TellID]TellMeta,
	questions map[Family][3]Question,
	constants Constants,
	contrastMatrix map[Family]ContrastEntry,
) *Package {
	return &Package{
		meta:           meta,
		families:       families,
		faces:          faces,
		familyFaces:    familyFaces,
		tells:          tells,
		questions:      questions,
		constants:      constants,
		contrastMatrix: contrastMatrix,
	}
}

func (p *Package) Meta() Meta { return p.meta }

// Families returns a defensive copy of the canonical family order.
func (p *Package) Families() []Family {
	out := make([]Family, len(p.families))
	copy(out, p.families)
	return out
}

func (p *Package) Face(id FaceID) (FaceMeta, bool) {
	fm, ok := p.faces[id]
	return fm, ok
}

// FamilyFaces returns the two sibling faces for a family, in authored order.
func (p *Package) FamilyFaces(f Family) ([2]FaceID, bool) {
	ff, ok := p.familyFaces[f]
	return ff, ok
}

func (p *Package) Tell(id TellID) (TellMeta, bool) {
	tm, ok := p.tells[id]
	return tm, ok
}

// Questions returns the three authored questions for a family, in C/O/F order.
func (p *Package) Questions(f Family) ([3]Question, bool) {
	qs, ok := p.questions[f]
	return qs, ok
}

// FindQuestion locates a question and its owning family by qid.
func (p *Package) FindQuestion(qid QID) (Family, Question, bool) {
	for f, qs := range p.questions {
		for _, q := range qs {
			if q.QID == qid {
				return f, q, true
			}
		}
	}
	return "", Question{}, false
}

func (p *Package) Constants() Constants { return p.constants }

func (p *Package) Contrast(f Family) (ContrastEntry, bool) {
	ce, ok := p.contrastMatrix[f]
	return ce, ok
}

// AllFaces returns every face id owned by the bank, in no particular order.
func (p *Package) AllFaces() []FaceID {
	out := make([]FaceID, 0, len(p.faces))
	for id := range p.faces {
		out = append(out, id)
	}
	return out
}
