package engine_test

import (
	"testing"
	"time"

	"github.com/veridex/faceline/internal/bankload"
	"github.com/veridex/faceline/internal/corerr"
	"github.com/veridex/faceline/internal/engine"
	"github.com/veridex/faceline/internal/replay"
	"github.com/veridex/faceline/internal/session"
	"github.com/veridex/faceline/internal/testfixture"
	"github.com/veridex/faceline/pkg/bank"
)

func newEngine(t *testing.T) (*engine.Engine, *bank.Package, []session.Event) {
	t.Helper()
	pkg := testfixture.BalancedBank(t)
	var events []session.Event
	eng := engine.New(func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) },
		func(e session.Event) { events = append(events, e) })
	eng.Banks.Put(pkg)
	return eng, pkg, events
}

func TestEngineFullLifecycleProducesSnapshotHash(t *testing.T) {
	eng, pkg, _ := newEngine(t)

	rec, err := eng.InitSession("seed-e2e-1", pkg.Meta().BankHash)
	if err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	if _, err := eng.SetPicks(rec.SessionID, []bank.Family{"Control", "Stress"}); err != nil {
		t.Fatalf("SetPicks: %v", err)
	}

	for {
		qv, err := eng.NextQuestion(rec.SessionID)
		if corerr.Is(err, corerr.EQuizComplete) {
			break
		}
		if err != nil {
			t.Fatalf("NextQuestion: %v", err)
		}
		if _, err := eng.SubmitAnswer(rec.SessionID, qv.QID, "B"); err != nil {
			t.Fatalf("SubmitAnswer(%s): %v", qv.QID, err)
		}
	}

	snap, err := eng.Finalize(rec.SessionID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if snap.Hash == "" {
		t.Fatal("expected non-empty snapshot hash")
	}
}

func TestEngineSessionReplaysToSameHash(t *testing.T) {
	eng, pkg, _ := newEngine(t)

	rec, err := eng.InitSession("seed-e2e-2", pkg.Meta().BankHash)
	if err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	picks := []bank.Family{"Boundary"}
	if _, err := eng.SetPicks(rec.SessionID, picks); err != nil {
		t.Fatalf("SetPicks: %v", err)
	}

	var steps []replay.AnswerStep
	for {
		qv, err := eng.NextQuestion(rec.SessionID)
		if corerr.Is(err, corerr.EQuizComplete) {
			break
		}
		if err != nil {
			t.Fatalf("NextQuestion: %v", err)
		}
		if _, err := eng.SubmitAnswer(rec.SessionID, qv.QID, "A"); err != nil {
			t.Fatalf("SubmitAnswer(%s): %v", qv.QID, err)
		}
		steps = append(steps, replay.AnswerStep{QID: qv.QID, Key: "A"})
	}

	snap, err := eng.Finalize(rec.SessionID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	descriptor := replay.Descriptor{
		Schema:           "replay.v1",
		SessionSeed:      "seed-e2e-2",
		BankID:           pkg.Meta().BankID,
		BankHashSHA256:   pkg.Meta().BankHash,
		ConstantsProfile: pkg.Meta().ConstantsProfile,
		Picks:            picks,
		Answers:          steps,
	}
	result, err := eng.ReplaySession(descriptor, snap.Hash, snap)
	if err != nil {
		t.Fatalf("ReplaySession: %v", err)
	}
	if result.Verdict != replay.VerdictMatch {
		t.Fatalf("replay verdict = %s, want MATCH", result.Verdict)
	}
}

func TestEngineAbortIsReachableFromFinalized(t *testing.T) {
	eng, pkg, _ := newEngine(t)
	rec, err := eng.InitSession("seed-e2e-3", pkg.Meta().BankHash)
	if err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	if _, err := eng.SetPicks(rec.SessionID, nil); err != nil {
		t.Fatalf("SetPicks: %v", err)
	}
	for {
		qv, err := eng.NextQuestion(rec.SessionID)
		if corerr.Is(err, corerr.EQuizComplete) {
			break
		}
		if err != nil {
			t.Fatalf("NextQuestion: %v", err)
		}
		if _, err := eng.SubmitAnswer(rec.SessionID, qv.QID, "A"); err != nil {
			t.Fatalf("SubmitAnswer: %v", err)
		}
	}
	if _, err := eng.Finalize(rec.SessionID); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if err := eng.Abort(rec.SessionID, "post-hoc retraction"); err != nil {
		t.Fatalf("Abort after finalize: %v", err)
	}
	got, err := eng.Sessions.Get(rec.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != session.StateAborted {
		t.Fatalf("state = %s, want ABORTED", got.State)
	}
}

func TestEngineLoadBankRejectsMalformedArtifact(t *testing.T) {
	eng, _, _ := newEngine(t)
	_, err := eng.LoadBank([]byte(`{"meta":{}}`), bankload.Config{})
	if err == nil {
		t.Fatal("expected an error loading a malformed/unsigned artifact")
	}
}
