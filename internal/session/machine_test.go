package session_test

import (
	"testing"
	"time"

	"github.com/veridex/faceline/internal/bankload"
	"github.com/veridex/faceline/internal/corerr"
	"github.com/veridex/faceline/internal/session"
	"github.com/veridex/faceline/internal/testfixture"
	"github.com/veridex/faceline/pkg/bank"
)

func newMachine(t *testing.T) (*session.Machine, *bank.Package) {
	t.Helper()
	pkg := testfixture.BalancedBank(t)
	reg := bankload.NewRegistry()
	reg.Put(pkg)
	fixedNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := &session.Machine{
		Store: session.NewStore(),
		Banks: reg,
		Now:   func() time.Time { return fixedNow },
	}
	return m, pkg
}

func TestInitSessionThenSetPicksTransitions(t *testing.T) {
	m, pkg := newMachine(t)

	rec, evt, err := m.InitSession("seed-1", pkg.Meta().BankHash)
	if err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	if rec.State != session.StateInit {
		t.Fatalf("state = %s, want INIT", rec.State)
	}
	if evt.Type != session.EventSessionStarted {
		t.Fatalf("event type = %s, want SESSION_STARTED", evt.Type)
	}

	summary, evt2, err := m.SetPicks(rec.SessionID, []bank.Family{"Control", "Pace"})
	if err != nil {
		t.Fatalf("SetPicks: %v", err)
	}
	if summary.Total != 19 { // 5 unpicked families x3 + 2 picked x2
		t.Fatalf("schedule total = %d, want 19", summary.Total)
	}
	if evt2.Type != session.EventPicksSet {
		t.Fatalf("event type = %s, want PICKS_SET", evt2.Type)
	}

	got, err := m.Store.Get(rec.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != session.StatePicked {
		t.Fatalf("state = %s, want PICKED", got.State)
	}
}

func TestSetPicksRejectsDuplicateFamily(t *testing.T) {
	m, pkg := newMachine(t)
	rec, _, err := m.InitSession("seed-1", pkg.Meta().BankHash)
	if err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	_, _, err = m.SetPicks(rec.SessionID, []bank.Family{"Control", "Control"})
	if !corerr.Is(err, corerr.EDuplicateFamily) {
		t.Fatalf("err = %v, want E_DUPLICATE_FAMILY", err)
	}
}

func TestFullSessionLifecycleToFinalized(t *testing.T) {
	m, pkg := newMachine(t)
	rec, _, err := m.InitSession("seed-1", pkg.Meta().BankHash)
	if err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	if _, _, err := m.SetPicks(rec.SessionID, []bank.Family{"Control", "Pace", "Boundary"}); err != nil {
		t.Fatalf("SetPicks: %v", err)
	}

	for {
		qv, err := m.NextQuestion(rec.SessionID)
		if corerr.Is(err, corerr.EQuizComplete) {
			break
		}
		if err != nil {
			t.Fatalf("NextQuestion: %v", err)
		}
		if _, _, err := m.SubmitAnswer(rec.SessionID, qv.QID, "A"); err != nil {
			t.Fatalf("SubmitAnswer(%s): %v", qv.QID, err)
		}
	}

	got, err := m.Store.Get(rec.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != session.StateInProgress {
		t.Fatalf("state before finalize = %s, want IN_PROGRESS", got.State)
	}

	snap, evt, err := m.Finalize(rec.SessionID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if snap.Hash == "" {
		t.Fatal("expected a non-empty snapshot hash")
	}
	if evt.Type != session.EventFinalized {
		t.Fatalf("event type = %s, want FINALIZED", evt.Type)
	}

	got, _ = m.Store.Get(rec.SessionID)
	if got.State != session.StateFinalized {
		t.Fatalf("state after finalize = %s, want FINALIZED", got.State)
	}

	if _, _, err := m.Finalize(rec.SessionID); !corerr.Is(err, corerr.ESessionAlreadyFinalized) {
		t.Fatalf("second Finalize err = %v, want E_SESSION_ALREADY_FINALIZED", err)
	}
}

func TestFinalizeRejectsIncompleteQuiz(t *testing.T) {
	m, pkg := newMachine(t)
	rec, _, err := m.InitSession("seed-1", pkg.Meta().BankHash)
	if err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	if _, _, err := m.SetPicks(rec.SessionID, nil); err != nil {
		t.Fatalf("SetPicks: %v", err)
	}
	qv, err := m.NextQuestion(rec.SessionID)
	if err != nil {
		t.Fatalf("NextQuestion: %v", err)
	}
	if _, _, err := m.SubmitAnswer(rec.SessionID, qv.QID, "A"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	if _, _, err := m.Finalize(rec.SessionID); !corerr.Is(err, corerr.EIncompleteQuiz) {
		t.Fatalf("Finalize err = %v, want E_INCOMPLETE_QUIZ (still IN_PROGRESS, not all answered)", err)
	}
}

func TestSubmitAnswerIsIdempotentOnRepeat(t *testing.T) {
	m, pkg := newMachine(t)
	rec, _, err := m.InitSession("seed-1", pkg.Meta().BankHash)
	if err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	if _, _, err := m.SetPicks(rec.SessionID, nil); err != nil {
		t.Fatalf("SetPicks: %v", err)
	}
	qv, err := m.NextQuestion(rec.SessionID)
	if err != nil {
		t.Fatalf("NextQuestion: %v", err)
	}

	res1, evt1, err := m.SubmitAnswer(rec.SessionID, qv.QID, "A")
	if err != nil {
		t.Fatalf("SubmitAnswer #1: %v", err)
	}
	if res1.Idempotent {
		t.Fatal("first submission should not be marked idempotent")
	}
	if evt1.Type != session.EventAnswerSubmitted {
		t.Fatalf("event type = %s, want ANSWER_SUBMITTED", evt1.Type)
	}

	res2, evt2, err := m.SubmitAnswer(rec.SessionID, qv.QID, "A")
	if err != nil {
		t.Fatalf("SubmitAnswer #2 (repeat): %v", err)
	}
	if !res2.Idempotent {
		t.Fatal("repeat of the same answer should be marked idempotent")
	}
	if evt2.Type != "" {
		t.Fatalf("repeat submission should emit no event, got %s", evt2.Type)
	}
	if res1.AnswersCount != res2.AnswersCount {
		t.Fatalf("answers count changed on idempotent repeat: %d vs %d", res1.AnswersCount, res2.AnswersCount)
	}
}

func TestSubmitAnswerReplaceEmitsAnswerChanged(t *testing.T) {
	m, pkg := newMachine(t)
	rec, _, err := m.InitSession("seed-1", pkg.Meta().BankHash)
	if err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	if _, _, err := m.SetPicks(rec.SessionID, nil); err != nil {
		t.Fatalf("SetPicks: %v", err)
	}
	qv, err := m.NextQuestion(rec.SessionID)
	if err != nil {
		t.Fatalf("NextQuestion: %v", err)
	}

	if _, _, err := m.SubmitAnswer(rec.SessionID, qv.QID, "A"); err != nil {
		t.Fatalf("SubmitAnswer A: %v", err)
	}
	res, evt, err := m.SubmitAnswer(rec.SessionID, qv.QID, "B")
	if err != nil {
		t.Fatalf("SubmitAnswer B (replace): %v", err)
	}
	if evt.Type != session.EventAnswerChanged {
		t.Fatalf("event type = %s, want ANSWER_CHANGED", evt.Type)
	}
	if res.AnswersCount != 1 {
		t.Fatalf("answers count after replace = %d, want 1", res.AnswersCount)
	}

	got, _ := m.Store.Get(rec.SessionID)
	if got.Answers[qv.QID].OptionKey != "B" {
		t.Fatalf("stored answer = %s, want B", got.Answers[qv.QID].OptionKey)
	}
}

func TestPauseResumeRoundTrip(t *testing.T) {
	m, pkg := newMachine(t)
	rec, _, err := m.InitSession("seed-1", pkg.Meta().BankHash)
	if err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	if _, _, err := m.SetPicks(rec.SessionID, nil); err != nil {
		t.Fatalf("SetPicks: %v", err)
	}
	qv, err := m.NextQuestion(rec.SessionID)
	if err != nil {
		t.Fatalf("NextQuestion: %v", err)
	}
	if _, _, err := m.SubmitAnswer(rec.SessionID, qv.QID, "A"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	if _, err := m.Pause(rec.SessionID); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	got, _ := m.Store.Get(rec.SessionID)
	if got.State != session.StatePaused {
		t.Fatalf("state = %s, want PAUSED", got.State)
	}

	// idempotent re-pause
	if _, err := m.Pause(rec.SessionID); err != nil {
		t.Fatalf("second Pause: %v", err)
	}

	if _, err := m.Resume(rec.SessionID); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	got, _ = m.Store.Get(rec.SessionID)
	if got.State != session.StateInProgress {
		t.Fatalf("state = %s, want IN_PROGRESS", got.State)
	}
}

func TestAbortFromAnyStateIsTerminal(t *testing.T) {
	m, pkg := newMachine(t)
	rec, _, err := m.InitSession("seed-1", pkg.Meta().BankHash)
	if err != nil {
		t.Fatalf("InitSession: %v", err)
	}

	evt, err := m.Abort(rec.SessionID, "user cancelled")
	if err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if evt.Type != session.EventSessionAborted {
		t.Fatalf("event type = %s, want SESSION_ABORTED", evt.Type)
	}

	got, _ := m.Store.Get(rec.SessionID)
	if got.State != session.StateAborted {
		t.Fatalf("state = %s, want ABORTED", got.State)
	}
	if got.AbortReason != "user cancelled" {
		t.Fatalf("abort reason = %q", got.AbortReason)
	}

	// idempotent re-abort: no error, no second event payload needed
	if _, err := m.Abort(rec.SessionID, "second call"); err != nil {
		t.Fatalf("second Abort: %v", err)
	}
	got, _ = m.Store.Get(rec.SessionID)
	if got.AbortReason != "user cancelled" {
		t.Fatalf("abort reason changed on repeat abort: %q", got.AbortReason)
	}
}

func TestInitSessionUnknownBankHash(t *testing.T) {
	m, _ := newMachine(t)
	_, _, err := m.InitSession("seed-1", "not-a-real-hash")
	if !corerr.Is(err, corerr.EBankNotFound) {
		t.Fatalf("err = %v, want E_BANK_NOT_FOUND", err)
	}
}

func TestSetPicksRejectsWrongState(t *testing.T) {
	m, pkg := newMachine(t)
	rec, _, err := m.InitSession("seed-1", pkg.Meta().BankHash)
	if err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	if _, _, err := m.SetPicks(rec.SessionID, nil); err != nil {
		t.Fatalf("SetPicks: %v", err)
	}
	if _, _, err := m.SetPicks(rec.SessionID, nil); !corerr.Is(err, corerr.EStateTransitionInvalid) {
		t.Fatalf("second SetPicks err = %v, want E_STATE_TRANSITION_INVALID", err)
	}
}
