package workflow

import (
	"context"
	"fmt"
)

// GuardFunc decides whether an edge may be taken.
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder collects edges and produces machines.
type StateMachineBuilder interface {
	// Configure returns the edge set leaving state.
	Configure(state State) StateConfiguration

	// Build returns a machine positioned at initialState.
	Build(initialState State) (StateMachine, error)
}

// StateConfiguration adds edges leaving one state.
type StateConfiguration interface {
	// Permit adds an unconditional edge.
	Permit(trigger Trigger, toState State) StateConfiguration

	// PermitIf adds an edge taken only when guard returns true. Edges for the
	// same trigger are tried in the order they were added.
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

type edge struct {
	to    State
	guard GuardFunc
}

type stateConfig struct {
	from  State
	edges map[Trigger][]edge
}

type stateMachineBuilder struct {
	configs map[State]*stateConfig
}

type stateMachine struct {
	current State
	configs map[State]*stateConfig
}

// NewBuilder creates an empty builder.
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{configs: make(map[State]*stateConfig)}
}

func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}
	cfg, ok := b.configs[state]
	if !ok {
		cfg = &stateConfig{from: state, edges: make(map[Trigger][]edge)}
		b.configs[state] = cfg
	}
	return cfg
}

func (b *stateMachineBuilder) Build(initialState State) (StateMachine, error) {
	if !initialState.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, initialState)
	}

	// Machines must not observe edges added to the builder afterwards.
	configs := make(map[State]*stateConfig, len(b.configs))
	for state, cfg := range b.configs {
		edges := make(map[Trigger][]edge, len(cfg.edges))
		for trig, list := range cfg.edges {
			edges[trig] = append([]edge(nil), list...)
		}
		configs[state] = &stateConfig{
			from:  state,
			edges: edges,
		}
	}

	return &stateMachine{current: initialState, configs: configs}, nil
}

func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

func (c *stateConfig) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	c.edges[trigger] = append(c.edges[trigger], edge{to: toState, guard: guard})
	return c
}

func (m *stateMachine) State() State {
	return m.current
}

func (m *stateMachine) Peek(ctx context.Context, trigger Trigger) (State, error) {
	cfg, ok := m.configs[m.current]
	if !ok || len(cfg.edges[trigger]) == 0 {
		return "", fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, m.current)
	}
	for _, e := range cfg.edges[trigger] {
		if e.guard == nil || e.guard(ctx) {
			return e.to, nil
		}
	}
	return "", fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.current)
}
