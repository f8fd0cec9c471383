package attempt

import (
	"github.com/quizhall/quizhall-backend/internal/model"
)

// Decision is the outcome of asking the machine for a status transition.
type Decision int

const (
	// Allow means the transition is legal and should be persisted.
	Allow Decision = iota
	// NoopSuccess means the attempt is already in the requested state and the
	// request succeeds without touching the record.
	NoopSuccess
	// Reject means the transition is illegal; the message explains why and
	// the record stays untouched.
	Reject
)

// transitions is the single legality table for attempt statuses.
// NOT_STARTED → STARTED → COMPLETED, with BLOCKED reachable from any
// non-completed state and resolvable back to NOT_STARTED.
var transitions = map[model.AttemptStatus]map[model.AttemptStatus]bool{
	model.AttemptStatusNotStarted: {
		model.AttemptStatusStarted: true,
		model.AttemptStatusBlocked: true,
	},
	model.AttemptStatusStarted: {
		model.AttemptStatusCompleted: true,
		model.AttemptStatusBlocked:   true,
	},
	model.AttemptStatusCompleted: {},
	model.AttemptStatusBlocked: {
		model.AttemptStatusNotStarted: true,
	},
}

// User-facing rejection messages. STARTED and COMPLETED self-transitions are
// explicitly rejected re-entries rather than no-op successes: a second start
// means a second tab or device, and a completed attempt is terminal.
const (
	MsgAlreadyStarted   = "exam already started on another device or tab"
	MsgAlreadyCompleted = "exam already completed"
	MsgBlocked          = "attempt is blocked, contact your teacher"
	MsgNotStarted       = "exam has not been started"
	MsgInProgress       = "attempt is in progress"
)

// Decide evaluates a requested transition against the table. It never returns
// an error: expected business conditions are values, and the caller converts
// Reject into a failure result with the message.
func Decide(from, to model.AttemptStatus) (Decision, string) {
	if from == to {
		switch from {
		case model.AttemptStatusStarted:
			return Reject, MsgAlreadyStarted
		case model.AttemptStatusCompleted:
			return Reject, MsgAlreadyCompleted
		default:
			// Re-blocking a blocked attempt or re-resetting to NOT_STARTED is
			// an idempotent no-op.
			return NoopSuccess, ""
		}
	}

	if transitions[from][to] {
		return Allow, ""
	}

	switch from {
	case model.AttemptStatusCompleted:
		return Reject, MsgAlreadyCompleted
	case model.AttemptStatusBlocked:
		return Reject, MsgBlocked
	case model.AttemptStatusNotStarted:
		return Reject, MsgNotStarted
	default:
		return Reject, MsgInProgress
	}
}

// CanTransition reports table legality without the idempotency handling.
func CanTransition(from, to model.AttemptStatus) bool {
	return transitions[from][to]
}
