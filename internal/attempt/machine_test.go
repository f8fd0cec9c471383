package attempt

import (
	"testing"

	"github.com/quizhall/quizhall-backend/internal/model"
)

func TestDecideLegalTransitions(t *testing.T) {
	legal := []struct {
		from, to model.AttemptStatus
	}{
		{model.AttemptStatusNotStarted, model.AttemptStatusStarted},
		{model.AttemptStatusNotStarted, model.AttemptStatusBlocked},
		{model.AttemptStatusStarted, model.AttemptStatusCompleted},
		{model.AttemptStatusStarted, model.AttemptStatusBlocked},
		{model.AttemptStatusBlocked, model.AttemptStatusNotStarted},
	}

	for _, tt := range legal {
		d, msg := Decide(tt.from, tt.to)
		if d != Allow {
			t.Errorf("Decide(%s, %s) = %v (%q), want Allow", tt.from, tt.to, d, msg)
		}
	}
}

func TestDecideRejectedReentries(t *testing.T) {
	tests := []struct {
		from, to model.AttemptStatus
		wantMsg  string
	}{
		// Second start from another tab or device.
		{model.AttemptStatusStarted, model.AttemptStatusStarted, MsgAlreadyStarted},
		// Completed is terminal for both start and submit.
		{model.AttemptStatusCompleted, model.AttemptStatusStarted, MsgAlreadyCompleted},
		{model.AttemptStatusCompleted, model.AttemptStatusCompleted, MsgAlreadyCompleted},
		{model.AttemptStatusCompleted, model.AttemptStatusBlocked, MsgAlreadyCompleted},
		{model.AttemptStatusCompleted, model.AttemptStatusNotStarted, MsgAlreadyCompleted},
		// Blocked students cannot start or submit.
		{model.AttemptStatusBlocked, model.AttemptStatusStarted, MsgBlocked},
		{model.AttemptStatusBlocked, model.AttemptStatusCompleted, MsgBlocked},
		// Submitting an attempt that never started.
		{model.AttemptStatusNotStarted, model.AttemptStatusCompleted, MsgNotStarted},
		// Resetting a running attempt is not a legal teacher action.
		{model.AttemptStatusStarted, model.AttemptStatusNotStarted, MsgInProgress},
	}

	for _, tt := range tests {
		d, msg := Decide(tt.from, tt.to)
		if d != Reject {
			t.Errorf("Decide(%s, %s) = %v, want Reject", tt.from, tt.to, d)
			continue
		}
		if msg != tt.wantMsg {
			t.Errorf("Decide(%s, %s) message = %q, want %q", tt.from, tt.to, msg, tt.wantMsg)
		}
	}
}

func TestDecideIdempotentNoops(t *testing.T) {
	for _, status := range []model.AttemptStatus{
		model.AttemptStatusNotStarted,
		model.AttemptStatusBlocked,
	} {
		d, _ := Decide(status, status)
		if d != NoopSuccess {
			t.Errorf("Decide(%s, %s) = %v, want NoopSuccess", status, status, d)
		}
	}
}

func TestCanTransitionMatchesTable(t *testing.T) {
	if CanTransition(model.AttemptStatusCompleted, model.AttemptStatusStarted) {
		t.Error("completed must be terminal")
	}
	if !CanTransition(model.AttemptStatusBlocked, model.AttemptStatusNotStarted) {
		t.Error("unblock must be legal")
	}
}
