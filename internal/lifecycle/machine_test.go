package lifecycle

import (
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StatePending, false},
		{StateRejected, false},
		{StateApproved, true},
		{StateCancelled, true},
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
		{"draft", StateDraft, true},
		{"cancelled", StateCancelled, true},
		{"unknown", State("archived"), false},
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

func TestBuilder_Configure(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(StateDraft)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}

	config2 := builder.Configure(StateDraft)
	if config != config2 {
		t.Error("Configure() should return same config for same state")
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	builder.Configure(State("archived"))
}

func TestMachine_Fire(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StatePending)

	machine := builder.Build(StateDraft)

	if !machine.CanFire(TriggerSubmit) {
		t.Error("CanFire() should return true for permitted trigger")
	}

	if err := machine.Fire(TriggerSubmit); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}

	if machine.State() != StatePending {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StatePending)
	}
}

func TestMachine_FireInvalidTransition(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StatePending)

	machine := builder.Build(StateDraft)

	err := machine.Fire(TriggerApprove)
	if err == nil {
		t.Fatal("Fire() should fail for unpermitted trigger")
	}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
	if machine.State() != StateDraft {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateDraft, machine.State())
	}
}

func TestNewRequestMachine_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		trigger Trigger
		want    State
		wantErr bool
	}{
		{"submit from draft", StateDraft, TriggerSubmit, StatePending, false},
		{"approve from pending", StatePending, TriggerApprove, StateApproved, false},
		{"reject from pending", StatePending, TriggerReject, StateRejected, false},
		{"cancel from draft", StateDraft, TriggerCancel, StateCancelled, false},
		{"cancel from pending", StatePending, TriggerCancel, StateCancelled, false},
		{"resubmit after rejection", StateRejected, TriggerSubmit, StatePending, false},
		{"approve from draft", StateDraft, TriggerApprove, StateDraft, true},
		{"submit from approved", StateApproved, TriggerSubmit, StateApproved, true},
		{"submit from cancelled", StateCancelled, TriggerSubmit, StateCancelled, true},
		{"resubmit pending", StatePending, TriggerSubmit, StatePending, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := NewRequestMachine(tt.from)
			err := machine.Fire(tt.trigger)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Fire() error = %v, wantErr %v", err, tt.wantErr)
			}
			if machine.State() != tt.want {
				t.Errorf("State = %v, want %v", machine.State(), tt.want)
			}
		})
	}
}

func TestNewRequestMachine_TerminalStatesHaveNoTriggers(t *testing.T) {
	for _, state := range []State{StateApproved, StateCancelled} {
		machine := NewRequestMachine(state)
		if got := machine.PermittedTriggers(); len(got) != 0 {
			t.Errorf("PermittedTriggers() from %v = %v, want none", state, got)
		}
	}
}
