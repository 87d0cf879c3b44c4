package session

import "time"

// EventType names one of the structured event records the state machine
// emits for collaborators to persist or route.
type EventType string

const (
	EventSessionStarted   EventType = "SESSION_STARTED"
	EventPicksSet         EventType = "PICKS_SET"
	EventQuestionPresented EventType = "QUESTION_PRESENTED"
	EventAnswerSubmitted  EventType = "ANSWER_SUBMITTED"
	EventAnswerChanged    EventType = "ANSWER_CHANGED"
	EventSessionPaused    EventType = "SESSION_PAUSED"
	EventSessionResumed   EventType = "SESSION_RESUMED"
	EventSessionAborted   EventType = "SESSION_ABORTED"
	EventFinalized        EventType = "FINALIZED"
)

// Event carries a session id, bank hash, and operation-specific fields
// stamped with a caller-supplied clock, so tests can freeze time without
// affecting the determinism of any finalized snapshot.
type Event struct {
	Type      EventType
	SessionID string
	BankHash  string
	At        time.Time
	Fields    map[string]any
}
