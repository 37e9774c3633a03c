package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/budget-approval/internal/domain/entity"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateNotProcessed, false},
		{StatePending, false},
		{StateApproved, false},
		{StateRejected, true},
		{StatePaid, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"not processed", StateNotProcessed, true},
		{"paid", StatePaid, true},
		{"unknown", State("Archived"), false},
		{"empty", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_MatchesStoredStatus(t *testing.T) {
	if StateNotProcessed.Status() != entity.StatusNotProcessed {
		t.Errorf("Status() = %q, want %q", StateNotProcessed.Status(), entity.StatusNotProcessed)
	}
	if got := StatePending.String(); got != "Pending" {
		t.Errorf("String() = %q, want %q", got, "Pending")
	}
}

func TestTriggerFor(t *testing.T) {
	tests := []struct {
		action entity.Action
		want   Trigger
		ok     bool
	}{
		{entity.ActionApprove, TriggerApprove, true},
		{entity.ActionReject, TriggerReject, true},
		{entity.ActionPay, TriggerPay, true},
		{entity.Action("escalate"), "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			got, ok := TriggerFor(tt.action)
			if got != tt.want || ok != tt.ok {
				t.Errorf("TriggerFor() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestBuilder_ConfigureReturnsSameConfig(t *testing.T) {
	builder := NewBuilder()
	if builder.Configure(StateNotProcessed) != builder.Configure(StateNotProcessed) {
		t.Error("Configure() should return the same config for the same state")
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	NewBuilder().Configure(State("INVALID"))
}

func TestBuilder_BuildRejectsInvalidInitialState(t *testing.T) {
	_, err := NewBuilder().Build(State("INVALID"))
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("Build() error = %v, want %v", err, ErrInvalidState)
	}
}

func TestStateMachine_Permit(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateApproved).Permit(TriggerPay, StatePaid)

	machine, err := builder.Build(StateApproved)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	next, err := machine.Peek(context.Background(), TriggerPay)
	if err != nil {
		t.Fatalf("Peek() failed: %v", err)
	}
	if next != StatePaid {
		t.Errorf("Peek() = %v, want %v", next, StatePaid)
	}
}

func TestStateMachine_PermitIf_FirstPassingGuardWins(t *testing.T) {
	twoTier := false
	builder := NewBuilder()
	builder.Configure(StateNotProcessed).
		PermitIf(TriggerApprove, StatePending, func(context.Context) bool { return twoTier }).
		PermitIf(TriggerApprove, StateApproved, func(context.Context) bool { return !twoTier })

	machine, _ := builder.Build(StateNotProcessed)
	next, err := machine.Peek(context.Background(), TriggerApprove)
	if err != nil || next != StateApproved {
		t.Errorf("Peek() = (%v, %v), want (%v, nil)", next, err, StateApproved)
	}
	if machine.State() != StateNotProcessed {
		t.Errorf("Peek() must not move the machine, state = %v", machine.State())
	}

	twoTier = true
	next, err = machine.Peek(context.Background(), TriggerApprove)
	if err != nil || next != StatePending {
		t.Errorf("Peek() = (%v, %v), want (%v, nil)", next, err, StatePending)
	}
}

func TestStateMachine_PermitIf_AllGuardsFail(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateNotProcessed).
		PermitIf(TriggerApprove, StatePending, func(context.Context) bool { return false })

	machine, _ := builder.Build(StateNotProcessed)

	_, err := machine.Peek(context.Background(), TriggerApprove)
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Peek() error = %v, want %v", err, ErrGuardFailed)
	}
}

func TestStateMachine_Peek_InvalidTransition(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateApproved).Permit(TriggerPay, StatePaid)

	fromPaid, _ := builder.Build(StatePaid)
	if _, err := fromPaid.Peek(context.Background(), TriggerPay); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Peek() from unconfigured state error = %v, want %v", err, ErrInvalidTransition)
	}

	fromApproved, _ := builder.Build(StateApproved)
	if _, err := fromApproved.Peek(context.Background(), TriggerReject); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Peek() with unknown trigger error = %v, want %v", err, ErrInvalidTransition)
	}
}

func TestStateMachine_IndependentOfBuilder(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateApproved).Permit(TriggerPay, StatePaid)

	machine, _ := builder.Build(StateApproved)
	builder.Configure(StateApproved).Permit(TriggerReject, StateRejected)

	if _, err := machine.Peek(context.Background(), TriggerReject); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("edges added after Build() must not leak into built machines, got %v", err)
	}
}
