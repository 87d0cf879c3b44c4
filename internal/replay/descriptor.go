// Package replay reconstructs a session from a replay descriptor and
// reports whether the resulting final snapshot matches an expected one —
// the mechanism that lets any finalized session be proven reproducible
// from nothing but its seed, bank, picks, and answer log.
package replay

import "github.com/veridex/faceline/pkg/bank"

// Descriptor is the replay.v1 wire object: everything needed to
// deterministically reconstruct one session's final snapshot.
type Descriptor struct {
	Schema           string           `json:"schema"`
	SessionSeed      string           `json:"session_seed"`
	BankID           string           `json:"bank_id"`
	BankHashSHA256   string           `json:"bank_hash_sha256"`
	ConstantsProfile string           `json:"constants_profile"`
	Picks            []bank.Family    `json:"picks"`
	Answers          []AnswerStep     `json:"answers"`
}

// AnswerStep is one submitted answer in submission order. A qid may
// appear more than once — a later entry replaces the earlier one, exactly
// as internal/session.Machine.SubmitAnswer does for a live session.
type AnswerStep struct {
	QID bank.QID `json:"qid"`
	Key string   `json:"key"`
}
