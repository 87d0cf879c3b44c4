package bankload

// wireArtifact is the on-the-wire shape of a Bank Package artifact: a
// top-level meta block, a registries block (families/faces/tells/contrast
// matrix), the threshold constants, and the per-family question sets.
type wireArtifact struct {
	Meta       wireMeta                  `json:"meta"`
	Registries wireRegistries            `json:"registries"`
	Constants  wireConstants             `json:"constants"`
	Questions  map[string][]wireQuestion `json:"questions"`
}

type wireMeta struct {
	BankID           string `json:"bankId"`
	Version          string `json:"version"`
	ConstantsProfile string `json:"constantsProfile"`
	BankHash         string `json:"bankHash"`
	Signature        string `json:"signature"`
	SignedBy         string `json:"signedBy"`
}

type wireRegistries struct {
	Families       []string                     `json:"families"`
	Faces          map[string]wireFace          `json:"faces"`
	Tells          map[string]wireTell          `json:"tells"`
	ContrastMatrix map[string]wireContrastEntry `json:"contrastMatrix"`
}

type wireFace struct {
	Family string `json:"family"`
}

type wireTell struct {
	Face     string `json:"face"`
	Contrast bool   `json:"contrast"`
}

type wireContrastEntry struct {
	Family string              `json:"family"`
	Faces  [2]string           `json:"faces"`
	Tells  map[string][]string `json:"tells"`
}

type wireQuestion struct {
	QID     string       `json:"qid"`
	Slot    string       `json:"slot"`
	Options []wireOption `json:"options"`
}

type wireOption struct {
	Key     string   `json:"key"`
	LineCOF string   `json:"lineCOF"`
	Tells   []string `json:"tells"`
}

type wireConstants struct {
	LitMinQuestions   int     `json:"litMinQuestions"`
	LitMinFamilies    int     `json:"litMinFamilies"`
	LitMinSignature   int     `json:"litMinSignature"`
	LitMinClean       int     `json:"litMinClean"`
	LitMaxBroken      int     `json:"litMaxBroken"`
	// PerScreenCapPct is the per-screen share cap authored as whole
	// percentage points (40 means 0.40) rather than a float, since the
	// canonical bank artifact carries no floating-point values.
	PerScreenCapPct   int     `json:"perScreenCapPct"`
	LeanMinQuestions  int     `json:"leanMinQuestions"`
	LeanMinFamilies   int     `json:"leanMinFamilies"`
	LeanMinSignature  int     `json:"leanMinSignature"`
	LeanMinClean      int     `json:"leanMinClean"`
	GhostMinQuestions int     `json:"ghostMinQuestions"`
	GhostMaxFamilies  int     `json:"ghostMaxFamilies"`
	ColdMinQuestions  int     `json:"coldMinQuestions"`
	ColdMaxQuestions  int     `json:"coldMaxQuestions"`
	ColdMinFamilies   int     `json:"coldMinFamilies"`
}
