// Package session implements the session store and the session state
// machine: session lifecycle, idempotent answer ingestion with exact
// reversion, and the glue that drives a session's bank, schedule,
// deterministic RNG, line state, and face ledger together.
package session

import (
	"time"

	"github.com/veridex/faceline/internal/answer"
	"github.com/veridex/faceline/internal/detrand"
	"github.com/veridex/faceline/internal/finalize"
	"github.com/veridex/faceline/internal/ledger"
	"github.com/veridex/faceline/internal/schedule"
	"github.com/veridex/faceline/pkg/bank"
)

// State is one of the session lifecycle's seven states.
type State string

const (
	StateInit        State = "INIT"
	StatePicked      State = "PICKED"
	StateInProgress  State = "IN_PROGRESS"
	StatePaused      State = "PAUSED"
	StateFinalizing  State = "FINALIZING"
	StateFinalized   State = "FINALIZED"
	StateAborted     State = "ABORTED"
)

// AnswerRecord is the accepted answer for one question: the chosen option
// and its line tag and tells at the time it was picked. The applicator
// delta needed to revert it exactly is kept beside it in Record.deltas.
type AnswerRecord struct {
	OptionKey   string
	Line        bank.LineCOF
	Tells       []bank.TellID
	SubmittedAt time.Time
	Latency     time.Duration
}

// Record is one session's full mutable state, owned by the Store for the
// session's lifetime. Every field besides SessionID/SessionSeed/BankHash/
// ConstantsProfile/StartedAt evolves only through Machine methods.
type Record struct {
	SessionID        string
	SessionSeed      string
	BankHash         string
	ConstantsProfile string
	State            State
	StartedAt        time.Time
	AbortReason      string

	// Bank is the frozen bank this session is bound to for its lifetime.
	// It is resident, not re-serialized. This package has no record
	// snapshot or restore operation; a Record lives only in its Store.
	Bank *bank.Package

	Picks    map[bank.Family]bool
	Schedule []schedule.Item

	Answers map[bank.QID]AnswerRecord
	deltas  map[bank.QID]answer.Delta // applicator deltas keyed by qid, for exact revert on replacement

	Lines ledger.Lines
	Faces ledger.Faces

	RNG *detrand.Stream

	FinalSnapshot *finalize.Snapshot
}
