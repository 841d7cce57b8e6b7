package lifecycle

import "fmt"

// Machine tracks a request's current lifecycle state and validates transitions
type Machine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state if allowed
	Fire(trigger Trigger) error

	// PermittedTriggers returns all triggers that can be fired in the current state
	PermittedTriggers() []Trigger
}

// Builder assembles the transition table for a Machine
type Builder interface {
	// Configure returns the transition configuration for the given state
	Configure(state State) StateConfiguration

	// Build creates a machine instance positioned at the given initial state
	Build(initial State) Machine
}

// StateConfiguration configures outgoing transitions for one state
type StateConfiguration interface {
	// Permit allows a trigger to transition to the target state
	Permit(trigger Trigger, target State) StateConfiguration
}

type stateConfig struct {
	from        State
	transitions map[Trigger]State
}

type machineBuilder struct {
	configurations map[State]*stateConfig
}

type machine struct {
	current        State
	configurations map[State]*stateConfig
}

// NewBuilder creates a new lifecycle machine builder
func NewBuilder() Builder {
	return &machineBuilder{
		configurations: make(map[State]*stateConfig),
	}
}

// Configure returns the transition configuration for the given state
func (b *machineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{
			from:        state,
			transitions: make(map[Trigger]State),
		}
		b.configurations[state] = config
	}

	return config
}

// Build creates a machine instance positioned at the given initial state
func (b *machineBuilder) Build(initial State) Machine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initial))
	}

	// Copy configurations so machines built later are unaffected by further Configure calls
	configsCopy := make(map[State]*stateConfig, len(b.configurations))
	for state, config := range b.configurations {
		transitionsCopy := make(map[Trigger]State, len(config.transitions))
		for trigger, target := range config.transitions {
			transitionsCopy[trigger] = target
		}
		configsCopy[state] = &stateConfig{from: state, transitions: transitionsCopy}
	}

	return &machine{
		current:        initial,
		configurations: configsCopy,
	}
}

// Permit allows a trigger to transition to the target state
func (c *stateConfig) Permit(trigger Trigger, target State) StateConfiguration {
	if !target.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", target))
	}
	c.transitions[trigger] = target
	return c
}

// State returns the current state
func (m *machine) State() State {
	return m.current
}

// CanFire returns true if the trigger is permitted in the current state
func (m *machine) CanFire(trigger Trigger) bool {
	config, exists := m.configurations[m.current]
	if !exists {
		return false
	}
	_, ok := config.transitions[trigger]
	return ok
}

// Fire attempts to execute the trigger, transitioning to the new state if allowed
func (m *machine) Fire(trigger Trigger) error {
	config, exists := m.configurations[m.current]
	if !exists {
		return fmt.Errorf("%w: cannot fire %s from %s (no configuration)", ErrInvalidTransition, trigger, m.current)
	}

	target, ok := config.transitions[trigger]
	if !ok {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	m.current = target
	return nil
}

// PermittedTriggers returns all triggers that can be fired in the current state
func (m *machine) PermittedTriggers() []Trigger {
	config, exists := m.configurations[m.current]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.transitions))
	for trigger := range config.transitions {
		triggers = append(triggers, trigger)
	}
	return triggers
}

// NewRequestMachine builds the request lifecycle machine positioned at current.
//
//	draft   --SUBMIT-->  pending
//	pending --APPROVE--> approved
//	pending --REJECT-->  rejected
//	draft, pending --CANCEL--> cancelled
//	rejected --SUBMIT--> pending   (resubmission after rejection)
func NewRequestMachine(current State) Machine {
	builder := NewBuilder()

	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StatePending).
		Permit(TriggerCancel, StateCancelled)

	builder.Configure(StatePending).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerCancel, StateCancelled)

	builder.Configure(StateRejected).
		Permit(TriggerSubmit, StatePending)

	return builder.Build(current)
}
