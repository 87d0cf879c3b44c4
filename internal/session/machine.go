package session

import (
	"time"

	"github.com/veridex/faceline/internal/answer"
	"github.com/veridex/faceline/internal/bankload"
	"github.com/veridex/faceline/internal/corerr"
	"github.com/veridex/faceline/internal/detrand"
	"github.com/veridex/faceline/internal/finalize"
	"github.com/veridex/faceline/internal/ledger"
	"github.com/veridex/faceline/internal/schedule"
	"github.com/veridex/faceline/pkg/bank"
)

// Machine orchestrates the session lifecycle: INIT → PICKED → IN_PROGRESS
// (⇄ PAUSED) → FINALIZING → FINALIZED, or any state → ABORTED. It holds no
// session state of its own — everything mutable lives in the Record the
// Store owns — so a Machine value is safe to share across goroutines as
// long as every call goes through Store.Lock first.
type Machine struct {
	Store *Store
	Banks *bankload.Registry
	Now   func() time.Time
}

// ScheduleSummary is the set_picks result: enough for a caller to start
// pulling questions without re-deriving sizes itself.
type ScheduleSummary struct {
	Total int
}

// QuestionView is what next_question exposes for one scheduled item.
type QuestionView struct {
	QID     bank.QID
	Family  bank.Family
	Slot    bank.Slot
	Options [2]bank.Option
	Index   int
	Total   int
}

// SubmitResult is submit_answer's result.
type SubmitResult struct {
	Accepted     bool
	AnswersCount int
	Remaining    int
	Idempotent   bool
}

func (m *Machine) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// InitSession creates a new session bound to the bank registered under
// bankHash.
func (m *Machine) InitSession(sessionSeed, bankHash string) (*Record, Event, error) {
	if sessionSeed == "" {
		return nil, Event{}, corerr.New(corerr.EInvalidSessionSeed, "session_seed must be non-empty")
	}
	pkg, err := m.Banks.Get(bankHash)
	if err != nil {
		return nil, Event{}, err
	}

	seed := detrand.DeriveSeed(sessionSeed, bankHash, pkg.Meta().ConstantsProfile)
	rec := &Record{
		SessionID:        newSessionID(),
		SessionSeed:      sessionSeed,
		BankHash:         bankHash,
		ConstantsProfile: pkg.Meta().ConstantsProfile,
		State:            StateInit,
		StartedAt:        m.now(),
		Bank:             pkg,
		Answers:          make(map[bank.QID]AnswerRecord),
		deltas:           make(map[bank.QID]answer.Delta),
		Faces:            ledger.NewFaces(pkg.AllFaces()),
		RNG:              detrand.New(seed),
	}
	m.Store.Put(rec)

	evt := Event{
		Type:      EventSessionStarted,
		SessionID: rec.SessionID,
		BankHash:  bankHash,
		At:        rec.StartedAt,
	}
	return rec, evt, nil
}

// SetPicks records the picked families and builds the question schedule,
// transitioning INIT → PICKED.
func (m *Machine) SetPicks(sessionID string, picks []bank.Family) (ScheduleSummary, Event, error) {
	unlock, err := m.Store.Lock(sessionID)
	defer unlock()
	if err != nil {
		return ScheduleSummary{}, Event{}, err
	}
	rec, err := m.Store.Get(sessionID)
	if err != nil {
		return ScheduleSummary{}, Event{}, err
	}
	if rec.State != StateInit {
		return ScheduleSummary{}, Event{}, corerr.New(corerr.EStateTransitionInvalid, "set_picks requires state INIT, got "+string(rec.State))
	}

	picksSet, err := validatePicks(rec.Bank, picks)
	if err != nil {
		return ScheduleSummary{}, Event{}, err
	}

	items, err := schedule.Build(rec.Bank, picksSet, rec.RNG)
	if err != nil {
		return ScheduleSummary{}, Event{}, err
	}

	rec.Picks = picksSet
	rec.Schedule = items
	rec.Lines = ledger.NewLines(rec.Bank.Families(), picksSet)
	rec.State = StatePicked

	evt := Event{
		Type:      EventPicksSet,
		SessionID: rec.SessionID,
		BankHash:  rec.BankHash,
		At:        m.now(),
		Fields:    map[string]any{"scheduleTotal": len(items)},
	}
	return ScheduleSummary{Total: len(items)}, evt, nil
}

func validatePicks(pkg *bank.Package, picks []bank.Family) (map[bank.Family]bool, error) {
	if len(picks) > 7 {
		return nil, corerr.New(corerr.EPickCount, "more than 7 picked families")
	}
	known := map[bank.Family]bool{}
	for _, f := range pkg.Families() {
		known[f] = true
	}
	out := make(map[bank.Family]bool, len(picks))
	for _, f := range picks {
		if !bank.ValidFamily(string(f)) || !known[f] {
			return nil, corerr.New(corerr.EInvalidFamily, "invalid picked family: "+string(f))
		}
		if out[f] {
			return nil, corerr.New(corerr.EDuplicateFamily, "duplicate picked family: "+string(f))
		}
		out[f] = true
	}
	return out, nil
}

// NextQuestion returns the next unanswered question in schedule order, or
// E_QUIZ_COMPLETE once every scheduled question has an accepted answer.
func (m *Machine) NextQuestion(sessionID string) (QuestionView, error) {
	unlock, err := m.Store.Lock(sessionID)
	defer unlock()
	if err != nil {
		return QuestionView{}, err
	}
	rec, err := m.Store.Get(sessionID)
	if err != nil {
		return QuestionView{}, err
	}
	if rec.State != StatePicked && rec.State != StateInProgress {
		return QuestionView{}, corerr.New(corerr.EStateTransitionInvalid, "next_question requires PICKED or IN_PROGRESS, got "+string(rec.State))
	}

	for i, it := range rec.Schedule {
		if _, answered := rec.Answers[it.QID]; answered {
			continue
		}
		_, q, ok := rec.Bank.FindQuestion(it.QID)
		if !ok {
			return QuestionView{}, corerr.New(corerr.EInternalInvariant, "scheduled qid missing from bank: "+string(it.QID))
		}
		return QuestionView{
			QID:     it.QID,
			Family:  it.Family,
			Slot:    it.Slot,
			Options: q.Options,
			Index:   i,
			Total:   len(rec.Schedule),
		}, nil
	}
	return QuestionView{}, corerr.New(corerr.EQuizComplete, "every scheduled question has an accepted answer")
}

// SubmitAnswer ingests an answer idempotently: a repeat of the same
// (qid,key) is a no-op; a different key for an already-answered qid
// reverts the prior answer's ledger effects before applying the new one.
func (m *Machine) SubmitAnswer(sessionID string, qid bank.QID, optionKey string) (SubmitResult, Event, error) {
	unlock, err := m.Store.Lock(sessionID)
	defer unlock()
	if err != nil {
		return SubmitResult{}, Event{}, err
	}
	rec, err := m.Store.Get(sessionID)
	if err != nil {
		return SubmitResult{}, Event{}, err
	}
	if rec.State != StatePicked && rec.State != StateInProgress {
		return SubmitResult{}, Event{}, corerr.New(corerr.EStateTransitionInvalid, "submit_answer requires PICKED or IN_PROGRESS, got "+string(rec.State))
	}

	if !inSchedule(rec.Schedule, qid) {
		return SubmitResult{}, Event{}, corerr.New(corerr.EBadQID, "qid is not in this session's schedule: "+string(qid))
	}

	eventType := EventAnswerSubmitted
	if existing, ok := rec.Answers[qid]; ok {
		if existing.OptionKey == optionKey {
			return SubmitResult{
				Accepted:     true,
				AnswersCount: len(rec.Answers),
				Remaining:    len(rec.Schedule) - len(rec.Answers),
				Idempotent:   true,
			}, Event{}, nil
		}
		answer.Revert(rec.Lines, rec.Faces, rec.deltas[qid])
		delete(rec.deltas, qid)
		delete(rec.Answers, qid)
		eventType = EventAnswerChanged
	}

	submittedAt := m.now()
	d, err := answer.Apply(rec.Bank, rec.Lines, rec.Faces, qid, optionKey)
	if err != nil {
		return SubmitResult{}, Event{}, err
	}

	_, q, _ := rec.Bank.FindQuestion(qid)
	var tells []bank.TellID
	for _, opt := range q.Options {
		if opt.Key == optionKey {
			tells = opt.Tells
			break
		}
	}

	rec.Answers[qid] = AnswerRecord{
		OptionKey:   optionKey,
		Line:        d.Line,
		Tells:       tells,
		SubmittedAt: submittedAt,
	}
	rec.deltas[qid] = d

	if rec.State == StatePicked {
		rec.State = StateInProgress
	}

	evt := Event{
		Type:      eventType,
		SessionID: rec.SessionID,
		BankHash:  rec.BankHash,
		At:        submittedAt,
		Fields:    map[string]any{"qid": string(qid), "optionKey": optionKey},
	}
	return SubmitResult{
		Accepted:     true,
		AnswersCount: len(rec.Answers),
		Remaining:    len(rec.Schedule) - len(rec.Answers),
	}, evt, nil
}

func inSchedule(items []schedule.Item, qid bank.QID) bool {
	for _, it := range items {
		if it.QID == qid {
			return true
		}
	}
	return false
}

// Finalize computes and stores the final snapshot, transitioning
// IN_PROGRESS → FINALIZING → FINALIZED. A post-condition invariant
// violation aborts the session rather than returning a corrupt snapshot.
func (m *Machine) Finalize(sessionID string) (*finalize.Snapshot, Event, error) {
	unlock, err := m.Store.Lock(sessionID)
	defer unlock()
	if err != nil {
		return nil, Event{}, err
	}
	rec, err := m.Store.Get(sessionID)
	if err != nil {
		return nil, Event{}, err
	}
	if rec.State == StateFinalized {
		return nil, Event{}, corerr.New(corerr.ESessionAlreadyFinalized, "session is already finalized")
	}
	if rec.State != StateInProgress {
		return nil, Event{}, corerr.New(corerr.EStateTransitionInvalid, "finalize requires IN_PROGRESS, got "+string(rec.State))
	}
	if len(rec.Answers) != len(rec.Schedule) {
		return nil, Event{}, corerr.New(corerr.EIncompleteQuiz, "not every scheduled question has an accepted answer")
	}

	rec.State = StateFinalizing
	snap, err := finalize.Finalize(rec.Bank, rec.Picks, rec.Lines, rec.Faces, rec.Schedule, rec.RNG)
	if err != nil {
		rec.State = StateAborted
		rec.AbortReason = "internal invariant violation during finalize: " + err.Error()
		return nil, Event{}, corerr.Wrap(corerr.EInternalInvariant, "finalize post-condition failed; session aborted", err)
	}

	rec.FinalSnapshot = snap
	rec.State = StateFinalized

	evt := Event{
		Type:      EventFinalized,
		SessionID: rec.SessionID,
		BankHash:  rec.BankHash,
		At:        m.now(),
		Fields:    map[string]any{"snapshotHash": snap.Hash},
	}
	return snap, evt, nil
}

// Abort moves a session to ABORTED. Terminal: repeated aborts are a no-op.
func (m *Machine) Abort(sessionID, reason string) (Event, error) {
	unlock, err := m.Store.Lock(sessionID)
	defer unlock()
	if err != nil {
		return Event{}, err
	}
	rec, err := m.Store.Get(sessionID)
	if err != nil {
		return Event{}, err
	}
	if rec.State == StateAborted {
		return Event{}, nil
	}
	rec.State = StateAborted
	rec.AbortReason = reason

	return Event{
		Type:      EventSessionAborted,
		SessionID: rec.SessionID,
		BankHash:  rec.BankHash,
		At:        m.now(),
		Fields:    map[string]any{"reason": reason},
	}, nil
}

// Pause moves IN_PROGRESS → PAUSED. Idempotent if already PAUSED.
func (m *Machine) Pause(sessionID string) (Event, error) {
	unlock, err := m.Store.Lock(sessionID)
	defer unlock()
	if err != nil {
		return Event{}, err
	}
	rec, err := m.Store.Get(sessionID)
	if err != nil {
		return Event{}, err
	}
	if rec.State == StatePaused {
		return Event{}, nil
	}
	if rec.State != StateInProgress {
		return Event{}, corerr.New(corerr.EStateTransitionInvalid, "pause requires IN_PROGRESS, got "+string(rec.State))
	}
	rec.State = StatePaused
	return Event{Type: EventSessionPaused, SessionID: rec.SessionID, BankHash: rec.BankHash, At: m.now()}, nil
}

// Resume moves PAUSED → IN_PROGRESS. Idempotent if already IN_PROGRESS.
func (m *Machine) Resume(sessionID string) (Event, error) {
	unlock, err := m.Store.Lock(sessionID)
	defer unlock()
	if err != nil {
		return Event{}, err
	}
	rec, err := m.Store.Get(sessionID)
	if err != nil {
		return Event{}, err
	}
	if rec.State == StateInProgress {
		return Event{}, nil
	}
	if rec.State != StatePaused {
		return Event{}, corerr.New(corerr.EStateTransitionInvalid, "resume requires PAUSED, got "+string(rec.State))
	}
	rec.State = StateInProgress
	return Event{Type: EventSessionResumed, SessionID: rec.SessionID, BankHash: rec.BankHash, At: m.now()}, nil
}
