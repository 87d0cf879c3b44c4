// Package engine composes the core collaborators — bank registry, session
// store, state machine, replay harness — into the single explicit value
// every adapter (HTTP, persistence, cmd) is handed. There are no
// package-level globals anywhere in the core: every operation hangs off
// one *Engine, constructed once at process start and passed down.
package engine

import (
	"time"

	"github.com/veridex/faceline/internal/bankload"
	"github.com/veridex/faceline/internal/finalize"
	"github.com/veridex/faceline/internal/replay"
	"github.com/veridex/faceline/internal/session"
	"github.com/veridex/faceline/pkg/bank"
)

// Engine is the composition root. Every field is safe for concurrent use
// on its own; Engine itself adds no further locking.
type Engine struct {
	Banks    *bankload.Registry
	Sessions *session.Store
	Replay   *replay.Harness

	machine *session.Machine

	// OnEvent, if set, receives every structured event record a core
	// operation emits (SESSION_STARTED, ANSWER_SUBMITTED, FINALIZED, ...).
	// Adapters wire this to persistence, a websocket hub, or both; the
	// core never depends on what's on the other end.
	OnEvent func(session.Event)

	now func() time.Time
}

// New constructs an Engine with a fresh, empty bank registry and session
// store. now defaults to time.Now; onEvent may be nil to discard events.
func New(now func() time.Time, onEvent func(session.Event)) *Engine {
	if now == nil {
		now = time.Now
	}
	banks := bankload.NewRegistry()
	store := session.NewStore()
	e := &Engine{
		Banks:    banks,
		Sessions: store,
		Replay:   &replay.Harness{Banks: banks},
		OnEvent:  onEvent,
		now:      now,
	}
	e.machine = &session.Machine{Store: store, Banks: banks, Now: now}
	return e
}

func (e *Engine) emit(evt session.Event) {
	if evt.Type == "" || e.OnEvent == nil {
		return
	}
	e.OnEvent(evt)
}

// LoadBank validates and registers a raw bank artifact, returning the
// frozen Package on success.
func (e *Engine) LoadBank(raw []byte, cfg bankload.Config) (*bank.Package, error) {
	return e.Banks.Register(raw, cfg)
}

// InitSession creates a new session bound to the bank registered under
// bankHash.
func (e *Engine) InitSession(sessionSeed, bankHash string) (*session.Record, error) {
	rec, evt, err := e.machine.InitSession(sessionSeed, bankHash)
	if err != nil {
		return nil, err
	}
	e.emit(evt)
	return rec, nil
}

// SetPicks records the picked families and builds the question schedule.
func (e *Engine) SetPicks(sessionID string, picks []bank.Family) (session.ScheduleSummary, error) {
	summary, evt, err := e.machine.SetPicks(sessionID, picks)
	if err != nil {
		return session.ScheduleSummary{}, err
	}
	e.emit(evt)
	return summary, nil
}

// NextQuestion returns the next unanswered scheduled question.
func (e *Engine) NextQuestion(sessionID string) (session.QuestionView, error) {
	return e.machine.NextQuestion(sessionID)
}

// SubmitAnswer ingests an answer, idempotently.
func (e *Engine) SubmitAnswer(sessionID string, qid bank.QID, optionKey string) (session.SubmitResult, error) {
	res, evt, err := e.machine.SubmitAnswer(sessionID, qid, optionKey)
	if err != nil {
		return session.SubmitResult{}, err
	}
	e.emit(evt)
	return res, nil
}

// Finalize computes and stores the final snapshot.
func (e *Engine) Finalize(sessionID string) (*finalize.Snapshot, error) {
	snap, evt, err := e.machine.Finalize(sessionID)
	if err != nil {
		return nil, err
	}
	e.emit(evt)
	return snap, nil
}

// Abort moves a session to ABORTED.
func (e *Engine) Abort(sessionID, reason string) error {
	evt, err := e.machine.Abort(sessionID, reason)
	if err != nil {
		return err
	}
	e.emit(evt)
	return nil
}

// Pause moves IN_PROGRESS to PAUSED.
func (e *Engine) Pause(sessionID string) error {
	evt, err := e.machine.Pause(sessionID)
	if err != nil {
		return err
	}
	e.emit(evt)
	return nil
}

// Resume moves PAUSED back to IN_PROGRESS.
func (e *Engine) Resume(sessionID string) error {
	evt, err := e.machine.Resume(sessionID)
	if err != nil {
		return err
	}
	e.emit(evt)
	return nil
}

// ReplaySession reconstructs a session from a replay descriptor and
// reports whether it reproduces the expected snapshot.
func (e *Engine) ReplaySession(d replay.Descriptor, expectedHash string, expectedSnapshot *finalize.Snapshot) (*replay.Result, error) {
	return e.Replay.Run(d, expectedHash, expectedSnapshot)
}
